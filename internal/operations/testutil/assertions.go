package testutil

import (
	"testing"

	"olistcli/internal/operations"
)

// AssertStepStatus verifies a step of a response has the expected status
func AssertStepStatus(t *testing.T, resp *operations.Response, stepID string, expected operations.StepStatus) {
	t.Helper()
	if resp == nil {
		t.Fatal("response is nil")
	}
	st, ok := resp.Steps[stepID]
	if !ok || st == nil {
		t.Fatalf("step %s not found in response", stepID)
	}
	if got := st.CurrentStatus(); got != expected {
		t.Errorf("step %s status = %v, want %v (message %q)", stepID, got, expected, st.Message)
	}
}

// AssertRunStatus verifies a run has the expected status
func AssertRunStatus(t *testing.T, resp *operations.Response, expected operations.RunStatus) {
	t.Helper()
	if resp == nil {
		t.Fatal("response is nil")
	}
	if resp.Status != expected {
		t.Errorf("run status = %v, want %v (error %q)", resp.Status, expected, resp.Error)
	}
}

// AssertErrorType verifies err is an OperationError of the given type
func AssertErrorType(t *testing.T, err error, expected operations.ErrorType) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", expected)
	}
	if got := operations.GetErrorType(err); got != expected {
		t.Errorf("error type = %v, want %v (%v)", got, expected, err)
	}
}
