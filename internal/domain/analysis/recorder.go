package analysis

import (
	"sync"
	"time"
)

// Recorder accumulates the workflow log for one pipeline run and maintains
// the condensed per-stage overview alongside it. Entries are append-only;
// the overview keeps one row per stage and overwrites it on every new entry
// for that stage, so it always shows the latest status.
type Recorder struct {
	mu       sync.Mutex
	logs     []WorkflowLogEntry
	overview []OverviewRow
	rowIndex map[string]int
	now      func() time.Time
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		rowIndex: make(map[string]int),
		now:      time.Now,
	}
}

// Record appends a log entry and updates the stage's overview row.
func (r *Recorder) Record(stage string, status LogStatus, message string, meta map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logs = append(r.logs, WorkflowLogEntry{
		Stage:     stage,
		Status:    status,
		Message:   message,
		Timestamp: r.now().UTC().Format(time.RFC3339Nano),
		Meta:      meta,
	})

	row := OverviewRow{Stage: stage, Status: status, Message: message}
	if i, ok := r.rowIndex[stage]; ok {
		r.overview[i] = row
		return
	}
	r.rowIndex[stage] = len(r.overview)
	r.overview = append(r.overview, row)
}

// Logs returns a copy of the entries recorded so far.
func (r *Recorder) Logs() []WorkflowLogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]WorkflowLogEntry, len(r.logs))
	copy(out, r.logs)
	return out
}

// Overview returns a copy of the per-stage overview rows in first-seen
// stage order.
func (r *Recorder) Overview() []OverviewRow {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]OverviewRow, len(r.overview))
	copy(out, r.overview)
	return out
}
