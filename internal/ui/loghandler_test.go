package ui_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/backupdata/internal/ui"
)

// jsonLines decodes one JSON record per line.
func jsonLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		out = append(out, rec)
	}
	return out
}

// The CLI pairs a terminal handler at Warn (--quiet) with a JSON --log file
// at Debug. Copy events go only to the file; warnings reach both.
func TestMultiHandler_TerminalAndLogFile(t *testing.T) {
	t.Parallel()

	var term, file bytes.Buffer
	termH := slog.NewTextHandler(&term, &slog.HandlerOptions{Level: slog.LevelWarn})
	fileH := slog.NewJSONHandler(&file, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := slog.New(ui.NewMultiHandler(termH, fileH))

	logger.Debug("backup prepared", "backup_root", "/mnt/usb/backup_data_20240301_093005")
	logger.Info("backup.event", "type", "FileCopied", "path", "/home/u/a.pdf", "method", "copy_file_range")
	logger.Warn("backup.event", "type", "DirUnreadable", "path", "/home/u/locked")

	assert.NotContains(t, term.String(), "FileCopied")
	assert.NotContains(t, term.String(), "backup prepared")
	assert.Contains(t, term.String(), "type=DirUnreadable")

	recs := jsonLines(t, &file)
	require.Len(t, recs, 3)
	assert.Equal(t, "backup prepared", recs[0]["msg"])
	assert.Equal(t, "FileCopied", recs[1]["type"])
	assert.Equal(t, "copy_file_range", recs[1]["method"])
	assert.Equal(t, "WARN", recs[2]["level"])
}

func TestMultiHandler_Enabled(t *testing.T) {
	t.Parallel()

	warnH := slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn})
	errH := slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError})
	m := ui.NewMultiHandler(warnH, errH)

	assert.True(t, m.Enabled(context.Background(), slog.LevelWarn))
	assert.True(t, m.Enabled(context.Background(), slog.LevelError))
	assert.False(t, m.Enabled(context.Background(), slog.LevelInfo))
	assert.False(t, ui.NewMultiHandler().Enabled(context.Background(), slog.LevelError))
}

func TestMultiHandler_WithAttrsAndGroup(t *testing.T) {
	t.Parallel()

	var text, file bytes.Buffer
	m := ui.NewMultiHandler(
		slog.NewTextHandler(&text, nil),
		slog.NewJSONHandler(&file, nil),
	)
	logger := slog.New(m.WithAttrs([]slog.Attr{slog.String("run", "backup_data_20240301_093005")}).WithGroup("event"))
	logger.Info("backup.event", "type", "RollbackDone")

	assert.Contains(t, text.String(), "run=backup_data_20240301_093005")
	assert.Contains(t, text.String(), "event.type=RollbackDone")

	recs := jsonLines(t, &file)
	require.Len(t, recs, 1)
	assert.Equal(t, "backup_data_20240301_093005", recs[0]["run"])
	group, ok := recs[0]["event"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "RollbackDone", group["type"])

	assert.Same(t, m, m.WithGroup(""))
}

// failingHandler accepts every record and fails to write it.
type failingHandler struct {
	slog.Handler
	handled int
}

func (h *failingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *failingHandler) Handle(context.Context, slog.Record) error {
	h.handled++
	return errors.New("disk full")
}

func TestMultiHandler_ErrorDoesNotStopOthers(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	bad := &failingHandler{}
	m := ui.NewMultiHandler(bad, slog.NewTextHandler(&buf, nil))

	err := m.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "backup.event", 0))
	require.EqualError(t, err, "disk full")
	assert.Equal(t, 1, bad.handled)
	assert.Contains(t, buf.String(), "backup.event")
}
