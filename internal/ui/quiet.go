package ui

import (
	"github.com/bamsammich/backupdata/internal/backup"
	"github.com/bamsammich/backupdata/internal/event"
	"github.com/bamsammich/backupdata/internal/stats"
)

// quietPresenter consumes events and only reports a run that did not complete.
type quietPresenter struct {
	stats   stats.Reader
	outcome Outcome
}

func (p *quietPresenter) Run(events <-chan event.Event) error {
	for ev := range events {
		p.outcome.Record(ev)
	}
	return nil
}

func (p *quietPresenter) Summary() string {
	if p.outcome.Status == backup.StatusCompleted || p.outcome.Status == 0 {
		return ""
	}
	return CompletionSummary(p.outcome, p.stats.Snapshot(), false)
}
