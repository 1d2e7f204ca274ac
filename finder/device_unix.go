//go:build unix

package finder

import (
	"io/fs"
	"syscall"
)

// deviceID returns the id of the filesystem holding the file
func deviceID(info fs.FileInfo) (uint64, bool) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, false
	}
	return uint64(st.Dev), true //nolint:unconvert // Dev is int32 on darwin
}
