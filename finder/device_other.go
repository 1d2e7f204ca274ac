//go:build !unix

package finder

import "io/fs"

// deviceID is not available on this platform, so other filesystems are never excluded
func deviceID(info fs.FileInfo) (uint64, bool) {
	return 0, false
}
