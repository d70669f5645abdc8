package gather

import "sync"

type Status string

const (
	StatusIdle    Status = "idle"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

// Snapshot is a read-only copy of the gather job state, safe to hand to
// handlers and websocket clients.
type Snapshot struct {
	JobID          string `json:"job_id"`
	Status         Status `json:"status"`
	TotalMalls     int    `json:"total_malls"`
	CompletedMalls int    `json:"completed_malls"`
	CurrentMall    string `json:"current_mall,omitempty"`
	Error          string `json:"error,omitempty"`
}

// jobState holds the single active run's progress. One run at a time:
// begin refuses while a run is in flight. This is a single-process
// guard, not a distributed lock.
type jobState struct {
	mu     sync.Mutex
	snap   Snapshot
	notify func(Snapshot)
}

func newJobState() *jobState {
	return &jobState{snap: Snapshot{Status: StatusIdle}}
}

// begin transitions to running unless a run is already active. A fresh
// trigger wipes any prior terminal state.
func (s *jobState) begin(jobID string) bool {
	s.mu.Lock()
	if s.snap.Status == StatusRunning {
		s.mu.Unlock()
		return false
	}
	s.snap = Snapshot{JobID: jobID, Status: StatusRunning}
	s.mu.Unlock()

	s.broadcast()
	return true
}

func (s *jobState) update(fn func(*Snapshot)) {
	s.mu.Lock()
	fn(&s.snap)
	s.mu.Unlock()

	s.broadcast()
}

func (s *jobState) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

func (s *jobState) broadcast() {
	s.mu.Lock()
	notify := s.notify
	snap := s.snap
	s.mu.Unlock()

	if notify != nil {
		notify(snap)
	}
}
