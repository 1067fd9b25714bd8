package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/backupdata/internal/backup"
	"github.com/bamsammich/backupdata/internal/event"
	"github.com/bamsammich/backupdata/internal/stats"
)

func newTestHUD(out *bytes.Buffer) *hudPresenter {
	return &hudPresenter{w: out, stats: stats.NewCollector(), srcRoot: "/src", dim: color.New(color.Faint)}
}

func TestHudPresenterFileCopied(t *testing.T) {
	var out bytes.Buffer
	p := newTestHUD(&out)

	events := make(chan event.Event, 1)
	events <- event.Event{Type: event.FileCopied, Path: "/src/docs/file.pdf", Size: 2048}
	close(events)

	require.NoError(t, p.Run(events))
	assert.Contains(t, out.String(), "✓")
	assert.Contains(t, out.String(), "file.pdf")
	assert.NotContains(t, out.String(), "/src/", "source root is stripped")
	assert.Equal(t, "/src/docs", p.currentDir)
}

func TestHudStyledPathPlain(t *testing.T) {
	p := newTestHUD(&bytes.Buffer{})
	p.dim.DisableColor()

	assert.Equal(t, "docs/file.pdf", p.styledPath("/src/docs/file.pdf"))
	assert.Equal(t, "top.pdf", p.styledPath("/src/top.pdf"))
}

func TestHudClearHUDSequence(t *testing.T) {
	var out bytes.Buffer
	p := newTestHUD(&out)

	p.drawHUD()
	assert.True(t, p.hudDrawn)
	assert.Equal(t, 2, p.hudLineCount)

	out.Reset()
	p.clearHUD()
	assert.Equal(t, "\033[2A\033[J", out.String())
	assert.False(t, p.hudDrawn)

	out.Reset()
	p.clearHUD()
	assert.Empty(t, out.String(), "clearing twice is a no-op")
}

func TestHudRedrawsAfterFeedLine(t *testing.T) {
	var out bytes.Buffer
	p := newTestHUD(&out)
	p.drawHUD()
	out.Reset()

	p.handleEvent(event.Event{Type: event.FileFailed, Path: "/src/x.txt", Error: assert.AnError})

	s := out.String()
	clearAt := strings.Index(s, "\033[2A\033[J")
	feed := strings.Index(s, "x.txt")
	require.GreaterOrEqual(t, clearAt, 0)
	require.Greater(t, feed, clearAt)
	assert.True(t, p.hudDrawn)
}

func TestHudRateModeHidesCopies(t *testing.T) {
	var out bytes.Buffer
	p := newTestHUD(&out)
	p.rateMode = true

	p.handleEvent(event.Event{Type: event.FileCopied, Path: "/src/quiet.txt"})
	assert.NotContains(t, out.String(), "quiet.txt")

	p.handleEvent(event.Event{Type: event.FileFailed, Path: "/src/loud.txt", Error: assert.AnError})
	assert.Contains(t, out.String(), "loud.txt")
}

func TestHudRateSwitchNotice(t *testing.T) {
	var out bytes.Buffer
	c := stats.NewCollector()
	p := &hudPresenter{w: &out, stats: c, dim: color.New(color.Faint)}

	c.AddFilesCopied(1000)
	c.Tick()
	p.maybeSwitch()

	assert.True(t, p.rateMode)
	assert.Contains(t, out.String(), "rate view")

	// Back below the low threshold.
	c.Tick()
	c.Tick()
	p.maybeSwitch()
	assert.False(t, p.rateMode)
}

func TestHudSummary(t *testing.T) {
	p := newTestHUD(&bytes.Buffer{})
	p.handleEvent(event.Event{Type: event.RunFinished, Status: backup.StatusCancelled, Count: 4})
	assert.Contains(t, p.Summary(), "files 4 before cancel")
}
