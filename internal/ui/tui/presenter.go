// Package tui is the full-screen Bubble Tea progress view.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/cockroachdb/errors"

	"github.com/bamsammich/backupdata/internal/config"
	"github.com/bamsammich/backupdata/internal/event"
	"github.com/bamsammich/backupdata/internal/stats"
	"github.com/bamsammich/backupdata/internal/ui"
)

// Config configures the TUI presenter.
type Config struct {
	Stats   *stats.Collector
	SrcRoot string
	Theme   config.ThemeConfig
	Cancel  func() // stops the backup run
}

// Presenter wraps a Bubble Tea program and implements ui.Presenter.
type Presenter struct {
	cfg   Config
	model Model
}

// NewPresenter creates a new TUI presenter.
func NewPresenter(cfg Config) *Presenter {
	ApplyTheme(cfg.Theme)
	return &Presenter{cfg: cfg}
}

// Run starts the Bubble Tea program and blocks until the user quits. If the
// program exits while the backup is still running, the remaining events are
// consumed so the engine never blocks on a full channel.
func (p *Presenter) Run(events <-chan event.Event) error {
	p.model = NewModel(events, p.cfg.Stats, p.cfg.SrcRoot, p.cfg.Cancel)
	prog := tea.NewProgram(
		p.model,
		tea.WithAltScreen(),
		tea.WithoutSignalHandler(),
	)
	finalModel, err := prog.Run()
	if m, ok := finalModel.(Model); ok {
		p.model = m
	}
	if !p.model.done {
		for ev := range events {
			p.model.outcome.Record(ev)
		}
	}
	return errors.Wrap(err, "tui")
}

// Settle records the engine's own outcome. A program that quit early may
// have lost the final event to a pending read.
func (p *Presenter) Settle(out ui.Outcome) {
	p.model.outcome = out
}

// Summary returns the final completion summary line.
func (p *Presenter) Summary() string {
	return ui.CompletionSummary(p.model.outcome, p.cfg.Stats.Snapshot(), true)
}
