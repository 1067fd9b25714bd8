package engine

import (
	"context"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"

	"github.com/bamsammich/backupdata/internal/backup"
	"github.com/bamsammich/backupdata/internal/event"
	"github.com/bamsammich/backupdata/internal/filter"
)

// walker is the state of one run: a depth-first, pre-order traversal that
// prunes before descending.
type walker struct {
	cfg      Config
	matcher  *filter.Matcher
	selector *filter.Selector
	copier   *copier
	copied   int64
}

func (w *walker) walk(ctx context.Context) Result {
	if ctx.Err() != nil {
		return w.cancel(ctx)
	}

	root := w.cfg.Request.SourceRoot
	stack := []string{root}

	for len(stack) > 0 {
		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := os.ReadDir(dir)
		if err != nil {
			err = errors.Mark(errors.Wrapf(err, "list %s", dir), backup.ErrTraversalRead)
			if dir == root {
				return w.fail(err)
			}
			// Unreadable subdirectories are treated as excluded.
			w.cfg.Stats.AddDirsUnreadable(1)
			w.emit(event.Event{Type: event.DirUnreadable, Path: dir, Error: err})
			continue
		}
		w.cfg.Stats.AddDirsVisited(1)
		if w.cfg.Verbose {
			w.emit(event.Event{Type: event.DirEntered, Path: dir})
		}

		var subdirs []string
		var files []os.DirEntry
		for _, entry := range entries {
			switch {
			case entry.IsDir():
				if rule, pruned := w.matcher.Reason(dir, entry.Name()); pruned {
					w.cfg.Stats.AddDirsExcluded(1)
					w.emit(event.Event{Type: event.DirExcluded, Path: filepath.Join(dir, entry.Name()), Message: rule})
					continue
				}
				subdirs = append(subdirs, filepath.Join(dir, entry.Name()))
			case entry.Type().IsRegular():
				files = append(files, entry)
			}
			// Symlinks and special files are neither followed nor copied.
		}

		if ctx.Err() != nil {
			return w.cancel(ctx)
		}

		for _, f := range files {
			if res, stop := w.copyOne(ctx, dir, f.Name()); stop {
				return res
			}
		}

		// Push in reverse so subdirectories are visited in listing order.
		for i := len(subdirs) - 1; i >= 0; i-- {
			stack = append(stack, subdirs[i])
		}
	}

	return w.result(backup.StatusCompleted, nil)
}

// copyOne handles a single file. stop is true when the run must end with res.
func (w *walker) copyOne(ctx context.Context, dir, name string) (res Result, stop bool) {
	src := filepath.Join(dir, name)

	ext, reason := w.selector.Select(name)
	if reason != filter.SkipNone {
		w.cfg.Stats.AddFilesSkipped(1)
		if w.cfg.Verbose {
			w.emit(event.Event{Type: event.FileSkipped, Path: src, Message: reason.String()})
		}
		return Result{}, false
	}

	extDir, ok := w.cfg.Plan.ExtensionDirs[ext]
	if !ok {
		err := errors.Mark(errors.Newf("no destination folder for %s", ext), backup.ErrFileCopy)
		return w.fail(err), true
	}
	dst := filepath.Join(extDir, name)

	cr, err := w.copier.copyFile(ctx, src, dst)
	if err != nil {
		if ctx.Err() != nil {
			return w.cancel(ctx), true
		}
		err = errors.Mark(errors.Wrapf(err, "copy %s", src), backup.ErrFileCopy)
		w.cfg.Stats.AddFilesFailed(1)
		w.emit(event.Event{Type: event.FileFailed, Path: src, Dest: dst, Error: err})
		return w.fail(err), true
	}

	w.copied++
	w.cfg.Stats.AddFilesCopied(1)
	w.cfg.Stats.AddBytesCopied(cr.BytesWritten)
	w.emit(event.Event{
		Type:    event.FileCopied,
		Path:    src,
		Dest:    dst,
		Size:    cr.BytesWritten,
		Count:   w.copied,
		Message: cr.Method.String(),
	})
	return Result{}, false
}

func (w *walker) cancel(ctx context.Context) Result {
	w.rollback()
	return w.result(backup.StatusCancelled, errors.Wrap(ctx.Err(), "backup cancelled"))
}

func (w *walker) fail(err error) Result {
	w.rollback()
	return w.result(backup.StatusFailed, err)
}

// rollback deletes the backup root. Failures are reported as Log events.
func (w *walker) rollback() {
	root := w.cfg.Plan.BackupRoot
	w.emit(event.Event{Type: event.RollbackStarted, Dest: root})
	if err := os.RemoveAll(root); err != nil {
		w.emit(event.Event{Type: event.Log, Message: "rollback incomplete: " + err.Error(), Error: err})
	}
	w.emit(event.Event{Type: event.RollbackDone, Dest: root})
}

func (w *walker) result(status backup.Status, err error) Result {
	return Result{
		Status:     status,
		Copied:     w.copied,
		BackupRoot: w.cfg.Plan.BackupRoot,
		Stats:      w.cfg.Stats.Snapshot(),
		Err:        err,
	}
}

func (w *walker) emit(ev event.Event) {
	event.Stamp(w.cfg.Sink, ev)
}
