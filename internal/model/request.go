package model

import "time"

// Request status constants.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusTimeout   = "timeout"
)

// validTransitions maps each status to the set of statuses it may transition to.
// Both completed and timeout are terminal.
var validTransitions = map[string]map[string]bool{
	StatusPending: {
		StatusCompleted: true,
		StatusTimeout:   true,
	},
}

// ValidTransition reports whether transitioning from one status to another is allowed.
func ValidTransition(from, to string) bool {
	targets, ok := validTransitions[from]
	if !ok {
		return false
	}
	return targets[to]
}

// Job is the unit placed on the dispatch queue. The key travels with the
// payload so that whichever worker picks the job up can correlate its
// response back to the waiting caller.
type Job struct {
	Key     string
	Payload []byte
}

// RequestRecord is the journal entry for one submitted request: what was
// asked, what came back, and how long the caller waited.
type RequestRecord struct {
	ID         string     `json:"id"`
	Key        string     `json:"key"`
	Status     string     `json:"status"`
	Payload    []byte     `json:"payload,omitempty"`
	Response   []byte     `json:"response,omitempty"`
	DurationMS *int       `json:"duration_ms,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}
