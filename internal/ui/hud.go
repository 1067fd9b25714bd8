package ui

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/bamsammich/backupdata/internal/event"
	"github.com/bamsammich/backupdata/internal/stats"
)

// hudPresenter provides a TTY display with a scrolling feed of copied files
// and a 2-line HUD that redraws in place.
type hudPresenter struct {
	w       io.Writer
	stats   stats.ReadTicker
	srcRoot string // stripped from displayed paths
	verbose bool
	color   bool
	outcome Outcome

	// Internal state.
	hudDrawn     bool
	hudLineCount int
	rateMode     bool
	rateSwitched bool
	currentDir   string
	lastHUDDraw  time.Time
	dim          *color.Color
}

const (
	rateThreshHigh = 200.0
	rateThreshLow  = 100.0
	sparklineWidth = 20
	hudPathWidth   = 48
	hudMinInterval = 50 * time.Millisecond
)

func (p *hudPresenter) Run(events <-chan event.Event) error {
	p.dim = color.New(color.Faint)
	if p.color {
		p.dim.EnableColor()
	} else {
		p.dim.DisableColor()
	}

	// Fire the first tick quickly to seed the ring buffer, then every second.
	secTicker := time.NewTicker(250 * time.Millisecond)
	defer secTicker.Stop()
	firstTickDone := false

	redrawTicker := time.NewTicker(100 * time.Millisecond)
	defer redrawTicker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				p.clearHUD()
				return nil
			}
			p.handleEvent(ev)
			p.maybeDrawHUD()

		case <-redrawTicker.C:
			p.maybeSwitch()
			p.drawHUD()

		case <-secTicker.C:
			p.stats.Tick()
			if !firstTickDone {
				firstTickDone = true
				secTicker.Reset(time.Second)
			}
		}
	}
}

func (p *hudPresenter) handleEvent(ev event.Event) {
	if p.outcome.Record(ev) {
		return
	}
	switch ev.Type {
	case event.DirEntered:
		p.currentDir = ev.Path

	case event.FileCopied:
		p.currentDir = filepath.Dir(ev.Path)
		if !p.rateMode {
			p.printLine(fmt.Sprintf("✓  %s  %10s", p.styledPath(ev.Path), FormatBytes(ev.Size)))
		}

	case event.FileFailed:
		p.printLine(fmt.Sprintf("✗  %s  %s", p.styledPath(ev.Path), errText(ev.Error)))

	case event.DirUnreadable:
		p.printLine(fmt.Sprintf("!  %s  %s", p.styledPath(ev.Path), p.dim.Sprint("unreadable, skipped")))

	case event.DirExcluded:
		if p.verbose && !p.rateMode {
			p.printLine(fmt.Sprintf("–  %s  %s", p.styledPath(ev.Path), p.dim.Sprintf("excluded (%s)", ev.Message)))
		}

	case event.RollbackStarted:
		p.printLine(p.dim.Sprint("removing partial backup..."))
	}
}

// printLine writes a feed line above the HUD and redraws it.
func (p *hudPresenter) printLine(line string) {
	p.clearHUD()
	fmt.Fprintln(p.w, line)
	p.drawHUD()
}

func (p *hudPresenter) maybeSwitch() {
	fps := p.stats.RollingFilesPerSec(2)

	if !p.rateMode && fps > rateThreshHigh {
		p.rateMode = true
		if !p.rateSwitched {
			p.rateSwitched = true
			p.clearHUD()
			fmt.Fprintf(p.w, "↯ rate view (%s files/s, use --verbose with a log file to see every file)\n",
				FormatCount(int64(fps)))
		}
	} else if p.rateMode && fps < rateThreshLow {
		p.rateMode = false
	}
}

// maybeDrawHUD redraws the HUD if enough time has passed since the last draw.
func (p *hudPresenter) maybeDrawHUD() {
	if time.Since(p.lastHUDDraw) < hudMinInterval {
		return
	}
	p.drawHUD()
}

func (p *hudPresenter) drawHUD() {
	snap := p.stats.Snapshot()
	p.clearHUD()

	// Line 1: throughput sparkline + speed + bytes.
	spark := Sparkline(p.stats.SparklineData(sparklineWidth), sparklineWidth)
	fmt.Fprintf(p.w, "       %s   %s   %s\n",
		spark, FormatRate(p.stats.RollingSpeed(10)), FormatBytes(snap.BytesCopied))

	// Line 2: counters + current directory.
	dir := TruncPath(StripRoot(p.srcRoot, p.currentDir), hudPathWidth)
	fmt.Fprintf(p.w, "       %s files   %s dirs   %s excluded   %s\n",
		FormatCount(snap.FilesCopied), FormatCount(snap.DirsVisited),
		FormatCount(snap.DirsExcluded), p.dim.Sprint(dir))

	p.hudDrawn = true
	p.hudLineCount = 2
	p.lastHUDDraw = time.Now()
}

func (p *hudPresenter) clearHUD() {
	if !p.hudDrawn {
		return
	}
	// Move cursor up N lines and clear to end of screen.
	fmt.Fprintf(p.w, "\033[%dA\033[J", p.hudLineCount)
	p.hudDrawn = false
}

func (p *hudPresenter) Summary() string {
	return CompletionSummary(p.outcome, p.stats.Snapshot(), p.color)
}

// styledPath dims the directory portion so the file name stands out.
func (p *hudPresenter) styledPath(path string) string {
	path = StripRoot(p.srcRoot, path)
	dir, base := filepath.Split(path)
	if dir == "" {
		return base
	}
	return p.dim.Sprint(dir) + base
}

// StripRoot removes a root prefix from a path, returning a clean relative path.
func StripRoot(root, path string) string {
	if root == "" {
		return path
	}
	if !strings.HasSuffix(root, string(filepath.Separator)) {
		root += string(filepath.Separator)
	}
	if strings.HasPrefix(path, root) {
		return path[len(root):]
	}
	return path
}
