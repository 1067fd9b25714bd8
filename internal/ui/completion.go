package ui

import (
	"fmt"

	"github.com/fatih/color"

	"github.com/bamsammich/backupdata/internal/backup"
	"github.com/bamsammich/backupdata/internal/stats"
)

// CompletionSummary builds the final summary line.
//
//	done ✓  files 1,204  size 2.1 GiB  avg 41.0 MiB/s  time 52s  excluded 7  unreadable 0  -> /mnt/usb/backup_data_20240301_093005
//	cancelled ✗  files 312 before cancel  time 4s  partial backup removed
//	failed ✗  copy /home/a/x.pdf: permission denied  files 12  partial backup removed
func CompletionSummary(out Outcome, snap stats.Snapshot, useColor bool) string {
	paint := func(attr color.Attribute, s string) string {
		if !useColor {
			return s
		}
		c := color.New(attr)
		c.EnableColor()
		return c.Sprint(s)
	}

	switch out.Status {
	case backup.StatusCompleted:
		avg := 0.0
		if snap.Elapsed.Seconds() > 0 {
			avg = float64(snap.BytesCopied) / snap.Elapsed.Seconds()
		}
		line := fmt.Sprintf("%s  files %s  size %s  avg %s  time %s  excluded %s  unreadable %s",
			paint(color.FgGreen, "done ✓"),
			FormatCount(out.Copied),
			FormatBytes(snap.BytesCopied),
			FormatRate(avg),
			FormatDuration(snap.Elapsed),
			FormatCount(snap.DirsExcluded),
			FormatCount(snap.DirsUnreadable),
		)
		if out.BackupRoot != "" {
			line += "  -> " + out.BackupRoot
		}
		return line

	case backup.StatusCancelled:
		return fmt.Sprintf("%s  files %s before cancel  time %s  partial backup removed",
			paint(color.FgYellow, "cancelled ✗"),
			FormatCount(out.Copied),
			FormatDuration(snap.Elapsed),
		)

	case backup.StatusFailed:
		reason := "unknown error"
		if out.Err != nil {
			reason = out.Err.Error()
		}
		return fmt.Sprintf("%s  %s  files %s  partial backup removed",
			paint(color.FgRed, "failed ✗"),
			reason,
			FormatCount(out.Copied),
		)
	}
	return ""
}
