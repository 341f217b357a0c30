package jobs

import "time"

type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether no further transitions are allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ValidTransition enforces the job state machine:
// queued -> processing -> completed | failed.
func ValidTransition(from, to Status) bool {
	switch from {
	case StatusQueued:
		return to == StatusProcessing || to == StatusFailed
	case StatusProcessing:
		return to == StatusCompleted || to == StatusFailed
	default:
		return false
	}
}

// Snapshot is a read-only point-in-time copy of a job's state. Callers only
// ever see snapshots; the live record stays inside the registry.
type Snapshot struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"filename"`
	Status      Status    `json:"status"`
	Progress    int       `json:"progress"`
	Message     string    `json:"message"`
	OutputPath  string    `json:"outputPath,omitempty"`
	ErrorDetail string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}
