package operations_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"olistcli/internal/operations"
)

func TestOperationErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *operations.OperationError
		want string
	}{
		{
			name: "with step and cause",
			err:  operations.NewExecutionError("clean", errors.New("disk full"), false),
			want: "[execution] clean: step execution failed: disk full",
		},
		{
			name: "without step",
			err:  operations.NewFatalError("failed to resolve steps", nil),
			want: "[fatal] failed to resolve steps",
		},
		{
			name: "timeout",
			err:  operations.NewTimeoutError("features", "1m0s"),
			want: "[timeout] features: step exceeded timeout of 1m0s",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}

	var nilErr *operations.OperationError
	assert.Equal(t, "unknown operation error", nilErr.Error())
	assert.NoError(t, nilErr.Unwrap())
}

func TestOperationErrorUnwrap(t *testing.T) {
	cause := errors.New("underlying")
	err := operations.NewCancellationError("load", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, operations.ErrorTypeCancellation, operations.GetErrorType(fmt.Errorf("outer: %w", err)))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, operations.IsRetryable(operations.NewExecutionError("x", errors.New("io"), true)))
	assert.False(t, operations.IsRetryable(operations.NewExecutionError("x", errors.New("io"), false)))
	assert.True(t, operations.IsRetryable(fmt.Errorf("wrapped: %w", operations.NewExecutionError("x", nil, true))))
	assert.False(t, operations.IsRetryable(errors.New("plain")))
	assert.False(t, operations.IsRetryable(nil))
}

func TestGetErrorType(t *testing.T) {
	assert.Equal(t, operations.ErrorType(""), operations.GetErrorType(nil))
	assert.Equal(t, operations.ErrorTypeExecution, operations.GetErrorType(errors.New("plain")))
	assert.Equal(t, operations.ErrorTypeValidation, operations.GetErrorType(operations.NewValidationError("v", "bad")))

	dep := operations.NewDependencyError("analyze", "features", "not completed")
	assert.Equal(t, operations.ErrorTypeDependency, operations.GetErrorType(dep))
	assert.Equal(t, "features", dep.Context["depends_on"])
}

func TestWrapError(t *testing.T) {
	assert.Nil(t, operations.WrapError(nil, "x", "msg"))

	plain := errors.New("boom")
	wrapped := operations.WrapError(plain, "clean", "step execution failed")
	require.NotNil(t, wrapped)
	assert.Equal(t, operations.ErrorTypeExecution, wrapped.Type)
	assert.Equal(t, "clean", wrapped.Step)
	assert.ErrorIs(t, wrapped, plain)

	// An OperationError keeps its type and only gains a missing step
	inner := operations.NewValidationError("", "3 checks failed")
	rewrapped := operations.WrapError(inner, "validate", "step execution failed")
	assert.Equal(t, operations.ErrorTypeValidation, rewrapped.Type)
	assert.Equal(t, "validate", rewrapped.Step)
	assert.Equal(t, "step execution failed: 3 checks failed", rewrapped.Message)
	assert.Empty(t, inner.Step)
}
