package engine_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/zeebo/blake3"

	"github.com/bamsammich/backupdata/internal/backup"
	"github.com/bamsammich/backupdata/internal/engine"
	"github.com/bamsammich/backupdata/internal/event"
)

var testClock = time.Date(2024, 3, 1, 9, 30, 5, 0, time.Local)

// writeFiles creates every path (relative to root) with its content.
func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

func hashFile(t *testing.T, path string) [32]byte {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return blake3.Sum256(data)
}

// listBackup returns the files under root as slash paths relative to it.
func listBackup(t *testing.T, root string) []string {
	t.Helper()
	var out []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				return relErr
			}
			out = append(out, filepath.ToSlash(rel))
		}
		return nil
	})
	require.NoError(t, err)
	return out
}

// prepare validates req and creates its layout at testClock.
func prepare(t *testing.T, req backup.Request) (backup.Request, engine.Plan) {
	t.Helper()
	req, err := req.Validate()
	require.NoError(t, err)
	plan, err := engine.Prepare(req, testClock)
	require.NoError(t, err)
	return req, plan
}

// recorder is a Sink that keeps every event.
type recorder struct {
	events []event.Event
}

func (r *recorder) Emit(ev event.Event) { r.events = append(r.events, ev) }

func (r *recorder) ofType(typ event.Type) []event.Event {
	var out []event.Event
	for _, ev := range r.events {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

func skipIfRoot(t *testing.T) {
	t.Helper()
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}
}
