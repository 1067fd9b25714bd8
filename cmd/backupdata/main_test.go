package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/backupdata/internal/backup"
	"github.com/bamsammich/backupdata/internal/config"
	"github.com/bamsammich/backupdata/internal/engine"
	"github.com/bamsammich/backupdata/internal/event"
)

func runCLI(t *testing.T, args ...string) int {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	var opts options
	cmd := newRootCmd(&opts)
	cmd.SetArgs(args)
	return execute(cmd)
}

func backupRoots(t *testing.T, dst string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dst, engine.BackupDirPrefix+"*"))
	require.NoError(t, err)
	return matches
}

func TestCLI_Backup(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "docs", ".cache"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "docs", "a.pdf"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "docs", ".cache", "b.pdf"), []byte("b"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "c.JPG"), []byte("c"), 0o644))

	code := runCLI(t, "-q", "--ext", "pdf,jpg", src, dst)
	require.Equal(t, exitCompleted, code)

	roots := backupRoots(t, dst)
	require.Len(t, roots, 1)
	assert.FileExists(t, filepath.Join(roots[0], "pdf", "a.pdf"))
	assert.FileExists(t, filepath.Join(roots[0], "jpg", "c.JPG"))
	assert.NoFileExists(t, filepath.Join(roots[0], "pdf", "b.pdf"))
}

func TestCLI_ExcludeFromAndLog(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "node_modules"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "node_modules", "x.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "keep.txt"), []byte("k"), 0o644))

	excludes := filepath.Join(t.TempDir(), "excludes")
	require.NoError(t, os.WriteFile(excludes, []byte("# deps\nnode_modules\n"), 0o644))
	logPath := filepath.Join(t.TempDir(), "run.log")
	t.Cleanup(func() { slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil))) })

	code := runCLI(t, "-q", "-e", "txt", "--exclude-from", excludes, "--log", logPath, src, dst)
	require.Equal(t, exitCompleted, code)

	roots := backupRoots(t, dst)
	require.Len(t, roots, 1)
	entries, err := os.ReadDir(filepath.Join(roots[0], "txt"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "keep.txt", entries[0].Name())

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	var types []string
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		if rec["msg"] == "backup.event" {
			types = append(types, rec["type"].(string))
			if rec["type"] == "FileCopied" {
				assert.NotEmpty(t, rec["method"], "copied files record the copy method")
			}
		}
	}
	assert.Contains(t, types, "FileCopied")
	assert.Contains(t, types, "DirExcluded")
	assert.Equal(t, "RunFinished", types[len(types)-1])
}

func TestCLI_ConfigurationErrors(t *testing.T) {
	src := t.TempDir()

	assert.Equal(t, exitFailed, runCLI(t, "-q", filepath.Join(src, "missing"), t.TempDir()))
	assert.Equal(t, exitFailed, runCLI(t, "-q", src), "no destination given or configured")
	assert.Equal(t, exitFailed, runCLI(t, "-q", "--ext", ".", src, t.TempDir()))
	assert.Equal(t, exitFailed, runCLI(t, "-q", "--bwlimit", "lots", src, t.TempDir()))
	assert.Equal(t, exitFailed, runCLI(t, "-q", "-v", src, t.TempDir()))
}

func TestCLI_Version(t *testing.T) {
	assert.Equal(t, exitCompleted, runCLI(t, "--version"))
}

func TestDefaultsCommand(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-test")
	var buf bytes.Buffer
	cmd := newDefaultsCmd()
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())

	out := buf.String()
	assert.Contains(t, out, ".pdf .xlsx .docx")
	assert.Contains(t, out, "AppData")
	assert.Contains(t, out, filepath.Join("/tmp/xdg-test", "backupdata", "config.toml"))
}

func TestBuildRequest(t *testing.T) {
	dest := "/mnt/usb"
	defaults := config.DefaultsConfig{Destination: &dest}

	t.Run("defaults", func(t *testing.T) {
		req, err := buildRequest([]string{"/src"}, options{}, defaults)
		require.NoError(t, err)
		assert.Equal(t, "/mnt/usb", req.DestinationRoot)
		assert.Equal(t, backup.DefaultExtensions, req.Extensions)
	})

	t.Run("flags", func(t *testing.T) {
		opts := options{
			extensions:   []string{"pdf", " docx "},
			exclude:      []string{"temp, .git"},
			excludeFiles: []string{"Thumbs.db"},
		}
		req, err := buildRequest([]string{"/src", "/dst"}, opts, defaults)
		require.NoError(t, err)
		assert.Equal(t, "/dst", req.DestinationRoot)
		assert.Equal(t, []string{"pdf", "docx"}, req.Extensions)
		assert.Equal(t, []string{"temp", ".git"}, req.ExcludedDirPatterns)
		assert.Equal(t, []string{"Thumbs.db"}, req.ExcludedFileNames)
	})

	t.Run("missing exclude file", func(t *testing.T) {
		_, err := buildRequest([]string{"/src"}, options{excludeFrom: "/nonexistent/excludes"}, defaults)
		require.Error(t, err)
		assert.True(t, errors.Is(err, backup.ErrConfiguration))
	})
}

func TestSizeFlag(t *testing.T) {
	var n int64
	f := &sizeFlag{n: &n}
	require.NoError(t, f.Set("2M"))
	assert.Equal(t, int64(2*1024*1024), n)
	assert.Equal(t, "2097152", f.String())
	assert.Equal(t, "SIZE", f.Type())
	assert.Error(t, f.Set("lots"))
}

func TestApplyConfigDefaults(t *testing.T) {
	tuiOn := true
	preserve := false
	bw := "10M"
	defaults := config.DefaultsConfig{
		Extensions: []string{"mp3"},
		Exclude:    []string{"Music/Cache"},
		TUI:        &tuiOn,
		BWLimit:    &bw,
		Preserve:   &preserve,
	}

	var opts options
	cmd := newRootCmd(&opts)
	require.NoError(t, cmd.ParseFlags([]string{"--ext", "flac"}))

	require.NoError(t, applyConfigDefaults(cmd, defaults, &opts))
	assert.Equal(t, []string{"flac"}, opts.extensions, "flags win over config")
	assert.Equal(t, []string{"Music/Cache"}, opts.exclude)
	assert.True(t, opts.tuiFlag)
	assert.Equal(t, int64(10*1024*1024), opts.bwLimit)
	assert.True(t, opts.noPreserve)

	bad := "fast"
	assert.Error(t, applyConfigDefaults(cmd, config.DefaultsConfig{BWLimit: &bad}, &opts))
}

func TestTeeEvents(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	events := make(chan event.Event, 2)
	out := teeEvents(events, logger)
	events <- event.Event{Type: event.FileCopied, Path: "/src/a.txt", Size: 3, Count: 1, Message: "copy_file_range"}
	events <- event.Event{Type: event.DirUnreadable, Path: "/src/locked", Error: errors.New("denied")}
	close(events)

	var got []event.Event
	for ev := range out {
		got = append(got, ev)
	}
	require.Len(t, got, 2)
	assert.Contains(t, buf.String(), `"type":"FileCopied"`)
	assert.Contains(t, buf.String(), `"method":"copy_file_range"`)
	assert.NotContains(t, buf.String(), `"message":"copy_file_range"`)
	assert.Contains(t, buf.String(), `"error":"denied"`)

	same := make(chan event.Event)
	assert.Equal(t, (<-chan event.Event)(same), teeEvents(same, nil))
}
