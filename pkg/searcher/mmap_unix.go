//go:build unix

package searcher

import (
	"math"
	"os"

	"golang.org/x/sys/unix"
)

// mmapFile maps f read-only when it is a regular, non-empty file of at least
// threshold bytes.
func mmapFile(f *os.File, threshold int64) ([]byte, func() error, bool) {
	fi, err := f.Stat()
	if err != nil || !fi.Mode().IsRegular() {
		return nil, nil, false
	}
	size := fi.Size()
	if size == 0 || size < threshold || size > math.MaxInt {
		return nil, nil, false
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, false
	}
	return data, func() error { return unix.Munmap(data) }, true
}
