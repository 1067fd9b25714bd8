package engine

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/bamsammich/backupdata/internal/backup"
)

const (
	// BackupDirPrefix starts the name of every backup root.
	BackupDirPrefix = "backup_data_"
	// TimestampLayout formats the backup root suffix as YYYYMMDD_HHMMSS.
	TimestampLayout = "20060102_150405"
)

// Plan is the destination layout of one run.
type Plan struct {
	BackupRoot    string
	ExtensionDirs map[string]string // ".pdf" -> <BackupRoot>/pdf
}

// BackupDirName returns the backup root name for a run started at now.
func BackupDirName(now time.Time) string {
	return BackupDirPrefix + now.Format(TimestampLayout)
}

// ExtensionDirName is the folder name for ext: the extension without its dot.
func ExtensionDirName(ext string) string {
	return strings.TrimPrefix(ext, ".")
}

// Prepare creates the backup root under req.DestinationRoot and one folder
// per selected extension. The destination root is created if missing, but
// the backup root must be new: an existing one belongs to another run, since
// rolling back this run would delete it. On failure the backup root this
// call created is removed and the error is marked backup.ErrStructureCreation.
func Prepare(req backup.Request, now time.Time) (Plan, error) {
	root := filepath.Join(req.DestinationRoot, BackupDirName(now))

	if err := os.MkdirAll(req.DestinationRoot, 0o755); err != nil {
		return Plan{}, structureErr(err, "create destination %s", req.DestinationRoot)
	}
	if err := os.Mkdir(root, 0o755); err != nil {
		err = structureErr(err, "create backup root %s", root)
		if errors.Is(err, os.ErrExist) {
			err = errors.WithHint(err, "another backup started in the same second; retry")
		}
		return Plan{}, err
	}

	plan := Plan{
		BackupRoot:    root,
		ExtensionDirs: make(map[string]string, len(req.Extensions)),
	}
	for _, ext := range req.Extensions {
		dir := filepath.Join(root, ExtensionDirName(ext))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			_ = os.RemoveAll(root)
			return Plan{}, structureErr(err, "create extension folder %s", dir)
		}
		plan.ExtensionDirs[ext] = dir
	}
	return plan, nil
}

func structureErr(err error, format string, args ...any) error {
	return errors.Mark(errors.Wrapf(err, format, args...), backup.ErrStructureCreation)
}
