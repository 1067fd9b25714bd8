package backup

// Status is the terminal state of a backup run.
type Status int

const (
	// StatusCompleted means the walk finished and the backup root was kept.
	StatusCompleted Status = iota + 1
	// StatusCancelled means the caller cancelled and the backup root was removed.
	StatusCancelled
	// StatusFailed means an unrecovered error aborted the run and the backup
	// root was removed.
	StatusFailed
)

var statusNames = [...]string{
	StatusCompleted: "completed",
	StatusCancelled: "cancelled",
	StatusFailed:    "failed",
}

func (s Status) String() string {
	if s > 0 && int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "unknown"
}
