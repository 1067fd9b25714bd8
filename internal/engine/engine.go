// Package engine prepares the destination layout and runs the filtered,
// cancellable copy of a source tree into it.
package engine

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/bamsammich/backupdata/internal/backup"
	"github.com/bamsammich/backupdata/internal/event"
	"github.com/bamsammich/backupdata/internal/filter"
	"github.com/bamsammich/backupdata/internal/stats"
)

// Config describes a backup run over a prepared plan.
type Config struct {
	Request    backup.Request   // validated
	Plan       Plan             // from Prepare
	Sink       event.Sink       // nil discards events
	Stats      *stats.Collector // nil uses a private collector
	BWLimit    int64            // bytes/sec, 0 = unlimited
	NoPreserve bool             // skip copying mode and times
	Verbose    bool             // also emit DirEntered and FileSkipped
}

// Result is the outcome of a backup run.
type Result struct {
	Status     backup.Status
	Copied     int64 // files copied, including those later rolled back
	BackupRoot string
	Stats      stats.Snapshot
	Err        error // nil when completed
}

// Reason returns a human-readable explanation for a cancelled or failed run.
func (r Result) Reason() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Run walks cfg.Request.SourceRoot and copies every selected file into
// cfg.Plan, blocking until the walk completes, ctx is cancelled, or a file
// fails to copy. On cancellation or failure the backup root is deleted.
// ctx is polled once per directory; a throttled copy also observes it.
//
// Run is not safe for concurrent use on the same plan.
func Run(ctx context.Context, cfg Config) Result {
	if cfg.Sink == nil {
		cfg.Sink = event.Discard
	}
	if cfg.Stats == nil {
		cfg.Stats = stats.NewCollector()
	}

	w := &walker{
		cfg:      cfg,
		matcher:  filter.NewMatcher(cfg.Request.ExcludedDirPatterns, cfg.Plan.BackupRoot),
		selector: filter.NewSelector(cfg.Request.Extensions, cfg.Request.ExcludedFileNames),
		copier:   &copier{preserve: !cfg.NoPreserve},
	}
	if cfg.BWLimit > 0 {
		w.copier.limiter = NewBWLimiter(cfg.BWLimit)
	}

	w.emit(event.Event{Type: event.RunStarted, Path: cfg.Request.SourceRoot, Dest: cfg.Plan.BackupRoot})

	var res Result
	if cfg.Plan.BackupRoot == "" {
		res = w.result(backup.StatusFailed,
			errors.Mark(errors.New("backup plan has no root; call Prepare first"), backup.ErrStructureCreation))
	} else {
		res = w.walk(ctx)
	}

	w.emit(event.Event{
		Type:   event.RunFinished,
		Dest:   res.BackupRoot,
		Count:  res.Copied,
		Status: res.Status,
		Error:  res.Err,
	})
	return res
}
