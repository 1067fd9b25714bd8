// Package ui renders backup progress for terminals and pipes.
package ui

import (
	"io"

	"github.com/bamsammich/backupdata/internal/backup"
	"github.com/bamsammich/backupdata/internal/event"
	"github.com/bamsammich/backupdata/internal/stats"
)

// Presenter consumes events and displays progress.
type Presenter interface {
	// Run consumes events until the channel closes. Blocks until done.
	Run(events <-chan event.Event) error
	// Summary returns the final summary line.
	Summary() string
}

// Config configures a Presenter.
type Config struct {
	Writer     io.Writer
	ErrWriter  io.Writer
	Stats      stats.ReadTicker
	SourceRoot string // stripped from displayed source paths
	IsTTY      bool
	Color      bool
	Quiet      bool
	Verbose    bool
}

// NewPresenter creates the appropriate presenter based on configuration.
//
//nolint:ireturn // factory function returns interface by design
func NewPresenter(cfg Config) Presenter {
	if cfg.Quiet {
		return &quietPresenter{stats: cfg.Stats}
	}
	if !cfg.IsTTY {
		return &plainPresenter{
			w:       cfg.Writer,
			errW:    cfg.ErrWriter,
			stats:   cfg.Stats,
			srcRoot: cfg.SourceRoot,
			verbose: cfg.Verbose,
			color:   cfg.Color,
		}
	}
	return &hudPresenter{
		w:       cfg.ErrWriter, // HUD renders to stderr (the TTY)
		stats:   cfg.Stats,
		srcRoot: cfg.SourceRoot,
		verbose: cfg.Verbose,
		color:   cfg.Color,
	}
}

// Outcome is what a presenter learned from the RunFinished event.
type Outcome struct {
	Status     backup.Status
	Copied     int64
	BackupRoot string
	Err        error
}

// Record updates o from ev. It reports whether ev finished the run.
func (o *Outcome) Record(ev event.Event) bool {
	switch ev.Type {
	case event.RunStarted:
		o.BackupRoot = ev.Dest
	case event.RunFinished:
		o.Status = ev.Status
		o.Copied = ev.Count
		o.Err = ev.Error
		if ev.Dest != "" {
			o.BackupRoot = ev.Dest
		}
		return true
	}
	return false
}
