package operations

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ManifestFile is the report-directory file name of the last run manifest
const ManifestFile = "pipeline_manifest.json"

// RunManifest is the persisted summary of a pipeline run. The dashboard
// reads it to describe the most recent run.
type RunManifest struct {
	RunID      string       `json:"run_id"`
	TraceID    string       `json:"trace_id,omitempty"`
	Status     RunStatus    `json:"status"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Duration   string       `json:"duration"`
	Request    Request      `json:"request"`
	Steps      []StepRecord `json:"steps"`
	Error      string       `json:"error,omitempty"`
}

// StepRecord tracks the execution of a single step
type StepRecord struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Status   StepStatus     `json:"status"`
	Duration string         `json:"duration"`
	Attempts int            `json:"attempts"`
	Message  string         `json:"message,omitempty"`
	Outputs  []string       `json:"outputs,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// NewRunManifest captures the state of a finished run. Steps are listed in
// the order they were scheduled.
func NewRunManifest(state *RunState, order []string) *RunManifest {
	m := &RunManifest{
		RunID:     state.ID,
		Status:    state.CurrentStatus(),
		StartedAt: state.StartTime,
		Duration:  state.Duration().Round(time.Millisecond).String(),
		Request:   state.Request,
		Steps:     make([]StepRecord, 0, len(order)),
	}
	if state.EndTime != nil {
		m.FinishedAt = *state.EndTime
	}
	if state.Error != nil {
		m.Error = state.Error.Error()
	}

	for _, id := range order {
		st := state.GetStep(id)
		if st == nil {
			continue
		}
		st.mu.RLock()
		rec := StepRecord{
			ID:       st.ID,
			Name:     st.Name,
			Status:   st.Status,
			Attempts: st.Attempts,
			Message:  st.Message,
			Outputs:  state.Outputs(id),
		}
		if len(st.Metadata) > 0 {
			rec.Metadata = make(map[string]any, len(st.Metadata))
			for k, v := range st.Metadata {
				rec.Metadata[k] = v
			}
		}
		if st.Error != nil {
			rec.Error = st.Error.Error()
		}
		st.mu.RUnlock()
		rec.Duration = st.Duration().Round(time.Millisecond).String()
		m.Steps = append(m.Steps, rec)
	}
	return m
}

// Step returns the record for a step
func (m *RunManifest) Step(id string) (StepRecord, bool) {
	for _, s := range m.Steps {
		if s.ID == id {
			return s, true
		}
	}
	return StepRecord{}, false
}

// WriteJSON saves the manifest atomically
func (m *RunManifest) WriteJSON(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to save manifest: %w", err)
	}
	return nil
}

// ReadManifest loads a manifest written by WriteJSON
func ReadManifest(path string) (*RunManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m RunManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &m, nil
}
