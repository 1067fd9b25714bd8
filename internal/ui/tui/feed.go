package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bamsammich/backupdata/internal/event"
	"github.com/bamsammich/backupdata/internal/ui"
)

type entryKind int

const (
	entryCopied entryKind = iota
	entryExcluded
	entryUnreadable
	entryFailed
)

type feedEntry struct {
	kind entryKind
	path string
	dest string
	size int64
	note string // exclusion rule or error text
}

type feedView struct {
	entries      []feedEntry // unbounded history
	warnings     []feedEntry // unreadable dirs and failures, never evicted
	srcRoot      string
	scrollOffset int  // viewport offset into entries
	autoScroll   bool // follow new entries
}

const maxWarningLines = 5

func newFeedView(srcRoot string) feedView {
	return feedView{srcRoot: srcRoot, autoScroll: true}
}

func (f *feedView) handleEvent(ev event.Event) {
	switch ev.Type {
	case event.FileCopied:
		f.entries = append(f.entries, feedEntry{kind: entryCopied, path: ev.Path, dest: ev.Dest, size: ev.Size})

	case event.DirExcluded:
		f.entries = append(f.entries, feedEntry{kind: entryExcluded, path: ev.Path, note: ev.Message})

	case event.DirUnreadable:
		e := feedEntry{kind: entryUnreadable, path: ev.Path, note: errText(ev.Error)}
		f.entries = append(f.entries, e)
		f.warnings = append(f.warnings, e)

	case event.FileFailed:
		e := feedEntry{kind: entryFailed, path: ev.Path, note: errText(ev.Error)}
		f.entries = append(f.entries, e)
		f.warnings = append(f.warnings, e)
	}
}

// scrollDown moves the viewport down one line and disables autoScroll.
func (f *feedView) scrollDown() {
	f.autoScroll = false
	f.scrollOffset++
}

// scrollUp moves the viewport up one line and disables autoScroll.
func (f *feedView) scrollUp() {
	f.autoScroll = false
	if f.scrollOffset > 0 {
		f.scrollOffset--
	}
}

func (f *feedView) scrollToTop() {
	f.autoScroll = false
	f.scrollOffset = 0
}

// scrollToBottom jumps to the newest entry and re-enables autoScroll.
func (f *feedView) scrollToBottom() {
	f.autoScroll = true
}

func (f *feedView) view(width, height int) string {
	width = max(width, 20)

	warnCount := min(len(f.warnings), maxWarningLines)
	dividers := 1
	if warnCount > 0 {
		dividers++
	}
	listHeight := max(height-warnCount-dividers, 1)

	maxOffset := max(len(f.entries)-listHeight, 0)
	if f.autoScroll {
		f.scrollOffset = maxOffset
	}
	f.scrollOffset = min(max(f.scrollOffset, 0), maxOffset)

	var b strings.Builder

	b.WriteString(styleFileDir.Render(fmt.Sprintf("─ activity (%d)", len(f.entries))))
	b.WriteByte('\n')
	end := min(f.scrollOffset+listHeight, len(f.entries))
	for _, e := range f.entries[f.scrollOffset:end] {
		b.WriteString(f.renderEntry(e, width))
		b.WriteByte('\n')
	}

	if warnCount > 0 {
		b.WriteString(styleWarning.Render(fmt.Sprintf("─ warnings (%d)", len(f.warnings))))
		b.WriteByte('\n')
		for _, e := range f.warnings[len(f.warnings)-warnCount:] {
			b.WriteString(f.renderEntry(e, width))
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func (f *feedView) renderEntry(e feedEntry, width int) string {
	// Icon, padding and the size column take roughly 20 cells.
	path := f.styledPath(e.path, width-20)
	switch e.kind {
	case entryExcluded:
		return fmt.Sprintf("  %s  %s  %s", styleIconSkipped.Render("–"), path,
			styleIconSkipped.Render("excluded ("+e.note+")"))
	case entryUnreadable:
		return fmt.Sprintf("  %s  %s  %s", styleWarning.Render("!"), path, styleWarning.Render(e.note))
	case entryFailed:
		return fmt.Sprintf("  %s  %s  %s", styleIconFailed.Render("✗"), path, styleIconFailed.Render(e.note))
	default:
		return fmt.Sprintf("  %s  %s  %s", styleIconDone.Render("✓"), path,
			styleFileSize.Render(fmt.Sprintf("%10s", ui.FormatBytes(e.size))))
	}
}

func (f *feedView) styledPath(path string, maxLen int) string {
	path = ui.TruncPath(ui.StripRoot(f.srcRoot, path), max(maxLen, 10))
	dir, base := filepath.Split(path)
	if dir == "" {
		return styleFilePath.Render(base)
	}
	return styleFileDir.Render(dir) + styleFilePath.Render(base)
}

func errText(err error) string {
	if err == nil {
		return "error"
	}
	return err.Error()
}
