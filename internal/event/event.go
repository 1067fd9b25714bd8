package event

import (
	"time"

	"github.com/bamsammich/backupdata/internal/backup"
)

// Type identifies the kind of event.
type Type int

const (
	RunStarted Type = iota + 1
	DirEntered
	DirExcluded
	DirUnreadable
	FileCopied
	FileSkipped
	FileFailed
	RollbackStarted
	RollbackDone
	RunFinished
	Log
)

var typeNames = [...]string{
	RunStarted:      "RunStarted",
	DirEntered:      "DirEntered",
	DirExcluded:     "DirExcluded",
	DirUnreadable:   "DirUnreadable",
	FileCopied:      "FileCopied",
	FileSkipped:     "FileSkipped",
	FileFailed:      "FileFailed",
	RollbackStarted: "RollbackStarted",
	RollbackDone:    "RollbackDone",
	RunFinished:     "RunFinished",
	Log:             "Log",
}

func (t Type) String() string {
	if t > 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "Unknown"
}

// Event represents a single progress event from the engine.
type Event struct {
	Type      Type
	Timestamp time.Time
	Path      string // source path (file or directory)
	Dest      string // destination path (FileCopied, RunStarted: backup root)
	Message   string // Log text, or the rule that excluded a directory
	Error     error
	Size      int64 // bytes copied (FileCopied)
	Count     int64 // files copied so far (FileCopied, RunFinished)
	Status    backup.Status
}
