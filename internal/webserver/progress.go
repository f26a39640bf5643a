package webserver

import (
	"sync"

	"github.com/brandpulse/brandpulse/internal/orchestration"
)

// RunProgress is a polling snapshot of one in-flight or finished run.
type RunProgress struct {
	RunID        string `json:"run_id"`
	TotalQueries int    `json:"total_queries"`
	Completed    int    `json:"completed"`
	Failed       int    `json:"failed"`
	CurrentModel string `json:"current_model,omitempty"`
	Done         bool   `json:"done"`
	Error        string `json:"error,omitempty"`
}

// progressRegistry tracks run progress for polling clients. It replaces
// module-level state with an instance owned by the server; updates arrive
// through the collector's listener callback.
type progressRegistry struct {
	mu   sync.Mutex
	runs map[string]*RunProgress
}

func newProgressRegistry() *progressRegistry {
	return &progressRegistry{runs: make(map[string]*RunProgress)}
}

// listener returns a ProgressListener that updates the registry entry for
// runID.
func (r *progressRegistry) listener(runID string) orchestration.ProgressListener {
	return func(event orchestration.ProgressEvent) {
		r.mu.Lock()
		defer r.mu.Unlock()
		p, ok := r.runs[runID]
		if !ok {
			return
		}
		switch event.EventType {
		case orchestration.EventModelStart:
			p.CurrentModel = event.Model
		case orchestration.EventQueryComplete:
			p.Completed++
		case orchestration.EventQueryFailed:
			p.Failed++
		}
	}
}

func (r *progressRegistry) start(runID string, totalQueries int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[runID] = &RunProgress{RunID: runID, TotalQueries: totalQueries}
}

func (r *progressRegistry) finish(runID string, errMsg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.runs[runID]; ok {
		p.Done = true
		p.Error = errMsg
		p.CurrentModel = ""
	}
}

// snapshot returns a copy of the progress entry, or nil when unknown.
func (r *progressRegistry) snapshot(runID string) *RunProgress {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.runs[runID]
	if !ok {
		return nil
	}
	copied := *p
	return &copied
}
