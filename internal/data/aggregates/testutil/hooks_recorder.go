package testutil

import (
	"sync"
	"time"

	"github.com/yungbote/skillsdna-backend/internal/data/aggregates"
)

// HooksRecorder captures aggregate hook signals in tests.
type HooksRecorder struct {
	mu sync.Mutex

	Operations []OperationEvent
	Conflicts  []string
	Retries    []string
	Writes     []WriteEvent
}

type OperationEvent struct {
	Name     string
	Status   string
	Duration time.Duration
}

type WriteEvent struct {
	Source string
	Kind   string
}

var _ aggregates.Hooks = (*HooksRecorder)(nil)

func (h *HooksRecorder) ObserveOperation(name, status string, dur time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Operations = append(h.Operations, OperationEvent{Name: name, Status: status, Duration: dur})
}

func (h *HooksRecorder) IncConflict(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Conflicts = append(h.Conflicts, name)
}

func (h *HooksRecorder) IncRetry(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Retries = append(h.Retries, name)
}

func (h *HooksRecorder) IncWrite(source, kind string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Writes = append(h.Writes, WriteEvent{Source: source, Kind: kind})
}

// LastStatus is the status of the most recent operation, or "" when none ran.
func (h *HooksRecorder) LastStatus() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.Operations) == 0 {
		return ""
	}
	return h.Operations[len(h.Operations)-1].Status
}

// CountWrites returns how many writes of kind were recorded.
func (h *HooksRecorder) CountWrites(kind string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, w := range h.Writes {
		if w.Kind == kind {
			n++
		}
	}
	return n
}
