package validation

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
)

// maxRowErrors caps how many invalid rows are reported per call
const maxRowErrors = 10

var (
	structValidator     *validator.Validate
	structValidatorOnce sync.Once
)

func rowValidator() *validator.Validate {
	structValidatorOnce.Do(func() {
		structValidator = validator.New(validator.WithRequiredStructEnabled())
	})
	return structValidator
}

// RowError describes a derived row that failed its validate tags
type RowError struct {
	Dataset string
	Index   int
	Field   string
	Tag     string
	Value   any
}

func (e RowError) Error() string {
	return fmt.Sprintf("%s row %d: field %s failed %q (value %v)", e.Dataset, e.Index, e.Field, e.Tag, e.Value)
}

// ValidateRows checks every row against its struct validate tags. The
// returned error joins at most ten RowErrors.
func ValidateRows[T any](name string, rows []T) error {
	v := rowValidator()
	var errs []error
	for i := range rows {
		err := v.Struct(rows[i])
		if err == nil {
			continue
		}
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("%s row %d: %w", name, i, err)
		}
		for _, fe := range verrs {
			errs = append(errs, RowError{
				Dataset: name,
				Index:   i,
				Field:   fe.Field(),
				Tag:     fe.Tag(),
				Value:   fe.Value(),
			})
		}
		if len(errs) >= maxRowErrors {
			errs = append(errs, fmt.Errorf("%s: further row errors omitted", name))
			break
		}
	}
	return errors.Join(errs...)
}
