package ui

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/bamsammich/backupdata/internal/event"
	"github.com/bamsammich/backupdata/internal/stats"
)

// plainPresenter outputs one line per copied file to stdout,
// and warnings plus periodic progress to stderr.
type plainPresenter struct {
	w       io.Writer
	errW    io.Writer
	stats   stats.ReadTicker
	srcRoot string
	verbose bool
	color   bool
	outcome Outcome
}

func (p *plainPresenter) Run(events <-chan event.Event) error {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			p.handleEvent(ev)
		case <-ticker.C:
			p.stats.Tick()
			p.printProgress()
		}
	}
}

func (p *plainPresenter) handleEvent(ev event.Event) {
	if p.outcome.Record(ev) {
		return
	}
	switch ev.Type {
	case event.FileCopied:
		fmt.Fprintf(p.w, "%s  %s  -> %s\n",
			StripRoot(p.srcRoot, ev.Path), FormatBytes(ev.Size), shortDest(ev.Dest))
	case event.FileFailed:
		fmt.Fprintf(p.errW, "error: %s: %s\n", StripRoot(p.srcRoot, ev.Path), errText(ev.Error))
	case event.DirUnreadable:
		fmt.Fprintf(p.errW, "warning: skipped unreadable %s: %s\n", ev.Path, errText(ev.Error))
	case event.DirExcluded:
		if p.verbose {
			fmt.Fprintf(p.errW, "excluded: %s (%s)\n", ev.Path, ev.Message)
		}
	case event.FileSkipped:
		if p.verbose {
			fmt.Fprintf(p.w, "%s  skipped (%s)\n", StripRoot(p.srcRoot, ev.Path), ev.Message)
		}
	case event.RollbackStarted:
		fmt.Fprintf(p.errW, "removing partial backup %s\n", ev.Dest)
	case event.Log:
		fmt.Fprintln(p.errW, ev.Message)
	}
}

func (p *plainPresenter) printProgress() {
	snap := p.stats.Snapshot()
	fmt.Fprintf(p.errW, "progress: %s files %s  %s dirs  %s\n",
		FormatCount(snap.FilesCopied),
		FormatBytes(snap.BytesCopied),
		FormatCount(snap.DirsVisited),
		FormatRate(p.stats.RollingSpeed(5)),
	)
}

func (p *plainPresenter) Summary() string {
	return CompletionSummary(p.outcome, p.stats.Snapshot(), p.color)
}

// shortDest renders a destination as <ext>/<name>.
func shortDest(dst string) string {
	if dst == "" {
		return ""
	}
	return filepath.Join(filepath.Base(filepath.Dir(dst)), filepath.Base(dst))
}

func errText(err error) string {
	if err == nil {
		return "error"
	}
	return err.Error()
}
