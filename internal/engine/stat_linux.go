//go:build linux

package engine

import (
	"os"
	"syscall"
	"time"
)

// accessTime returns the last access time recorded in info, or its
// modification time when the platform stat is unavailable.
func accessTime(info os.FileInfo) time.Time {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return info.ModTime()
	}
	return time.Unix(stat.Atim.Sec, stat.Atim.Nsec)
}
