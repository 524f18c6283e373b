package cleaning

import (
	"time"

	"olistcli/internal/dataset"
)

// Action identifies the kind of change recorded in the audit log
type Action string

const (
	ActionImputeDeliveryDate  Action = "IMPUTE_MISSING_DELIVERY_DATE"
	ActionImputeCarrierDate   Action = "IMPUTE_MISSING_CARRIER_DATE"
	ActionFillCategory        Action = "FILL_MISSING_CATEGORY"
	ActionImputeDimensions    Action = "IMPUTE_MISSING_DIMENSIONS"
	ActionFixDimensions       Action = "FIX_INVALID_DIMENSIONS"
	ActionPreserveReviews     Action = "PRESERVE_MISSING_REVIEWS"
	ActionFixPayments         Action = "FIX_INVALID_PAYMENTS"
	ActionRemoveDuplicates    Action = "REMOVE_DUPLICATES"
	ActionConvertDatetime     Action = "CONVERT_DATETIME"
	ActionMissingTranslations Action = "HANDLE_MISSING_TRANSLATIONS"
	ActionMergeCategories     Action = "MERGE_CATEGORIES"
	ActionDeliveryMetrics     Action = "CREATE_DELIVERY_METRICS"
	ActionTimeFeatures        Action = "CREATE_TIME_FEATURES"
	ActionProductMetrics      Action = "CREATE_PRODUCT_METRICS"
	ActionValidateForeignKeys Action = "VALIDATE_FOREIGN_KEYS"
)

// Entry is one audit log line
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Action    Action    `json:"action"`
	Dataset   string    `json:"dataset"`
	Details   string    `json:"details"`
}

// SizeChange records the row count of a table before and after cleaning
type SizeChange struct {
	Table   dataset.Table `json:"dataset"`
	Before  int           `json:"rows_before"`
	After   int           `json:"rows_after"`
	Columns int           `json:"columns"`
}

// AuditLog collects everything the cleaner did to a table set
type AuditLog struct {
	Entries     []Entry                   `json:"entries"`
	SizeChanges []SizeChange              `json:"size_changes"`
	ForeignKeys []dataset.ForeignKeyCheck `json:"foreign_keys"`

	// Changes counts imputed, fixed and removed values. Zero on a
	// second pass over cleaned data.
	Changes int `json:"changes"`
}

func (a *AuditLog) record(at time.Time, action Action, ds, details string) {
	a.Entries = append(a.Entries, Entry{
		Timestamp: at,
		Action:    action,
		Dataset:   ds,
		Details:   details,
	})
}

// Counts returns how many entries were logged per action, in first-seen
// order
func (a AuditLog) Counts() ([]Action, map[Action]int) {
	var order []Action
	counts := make(map[Action]int)
	for _, e := range a.Entries {
		if _, seen := counts[e.Action]; !seen {
			order = append(order, e.Action)
		}
		counts[e.Action]++
	}
	return order, counts
}

// Has reports whether action was logged for dataset ds
func (a AuditLog) Has(action Action, ds string) bool {
	for _, e := range a.Entries {
		if e.Action == action && e.Dataset == ds {
			return true
		}
	}
	return false
}
