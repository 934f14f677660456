//go:build !unix

package searcher

import "os"

func mmapFile(f *os.File, threshold int64) ([]byte, func() error, bool) {
	return nil, nil, false
}
