// Package decompress exposes the decompressed contents of compressed files
// so they can be searched transparently.
//
// Formats are recognised by file extension. A recognised format may still
// have no decoder (or have its decoder disabled), in which case FromPath
// returns a nil reader and the file is skipped.
package decompress

import (
	"bufio"
	"compress/bzip2"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/sirupsen/logrus"
	"github.com/ulikunitz/xz"
	"github.com/ulikunitz/xz/lzma"
)

// Format describes one compressed file format.
type Format struct {
	Name       string
	Extensions []string

	// open returns a reader over the decompressed contents of the file at
	// path. nil means the format is recognised but cannot be decoded.
	open func(path string) (io.ReadCloser, error)
}

// Decodable reports whether the format has a decoder.
func (f *Format) Decodable() bool {
	return f.open != nil
}

var builtinFormats = []*Format{
	{Name: "gzip", Extensions: []string{".gz", ".tgz"}, open: fileDecoder(openGzip)},
	{Name: "bzip2", Extensions: []string{".bz2", ".tbz2", ".tbz"}, open: fileDecoder(openBzip2)},
	{Name: "xz", Extensions: []string{".xz", ".txz"}, open: fileDecoder(openXZ)},
	{Name: "lzma", Extensions: []string{".lzma"}, open: fileDecoder(openLZMA)},
	{Name: "lz4", Extensions: []string{".lz4"}, open: fileDecoder(openLZ4)},
	{Name: "brotli", Extensions: []string{".br"}, open: fileDecoder(openBrotli)},
	{Name: "zstd", Extensions: []string{".zst", ".zstd"}, open: fileDecoder(openZstd)},
	{Name: "7z", Extensions: []string{".7z"}, open: open7z},
	// Unix compress(1). Recognised so such files are never searched as raw
	// bytes, but there is no decoder for it.
	{Name: "compress", Extensions: []string{".Z", ".taz"}},
}

// Matcher maps paths to formats and opens decompressing readers.
type Matcher struct {
	byExt    map[string]*Format
	disabled map[string]bool
}

// NewMatcher returns a matcher for all built-in formats.
func NewMatcher() *Matcher {
	m := &Matcher{
		byExt:    make(map[string]*Format),
		disabled: make(map[string]bool),
	}
	for _, f := range builtinFormats {
		for _, ext := range f.Extensions {
			m.byExt[ext] = f
		}
	}
	return m
}

// Disable turns off decoding for the named formats. Disabled formats are
// still recognised as compressed.
func (m *Matcher) Disable(names ...string) error {
	for _, name := range names {
		if !isFormatName(name) {
			return fmt.Errorf("unknown compression format: %s", name)
		}
		m.disabled[name] = true
	}
	return nil
}

// Format returns the format for path, if any.
func (m *Matcher) Format(path string) (*Format, bool) {
	ext := filepath.Ext(path)
	if f, ok := m.byExt[ext]; ok {
		return f, true
	}
	f, ok := m.byExt[strings.ToLower(ext)]
	return f, ok
}

// IsCompressed reports whether path has a recognised compressed extension.
// Only the path string is inspected.
func (m *Matcher) IsCompressed(path string) bool {
	_, ok := m.Format(path)
	return ok
}

// FromPath opens path and returns a reader over its decompressed contents.
// It returns (nil, nil) when path is not something this matcher can
// decompress; callers should skip it.
func (m *Matcher) FromPath(path string) (io.ReadCloser, error) {
	f, ok := m.Format(path)
	if !ok {
		return nil, nil
	}
	if !f.Decodable() || m.disabled[f.Name] {
		logrus.Debugf("%s: no %s decoder available, skipping", path, f.Name)
		return nil, nil
	}

	rdr, err := f.open(path)
	if err != nil {
		return nil, fmt.Errorf("decompressing %s (%s): %w", path, f.Name, err)
	}
	return rdr, nil
}

var defaultMatcher = NewMatcher()

// IsCompressed reports whether path looks like a compressed file.
func IsCompressed(path string) bool {
	return defaultMatcher.IsCompressed(path)
}

// FromPath opens path with the default matcher. See Matcher.FromPath.
func FromPath(path string) (io.ReadCloser, error) {
	return defaultMatcher.FromPath(path)
}

// FormatNames returns the names of all built-in formats.
func FormatNames() []string {
	names := make([]string, 0, len(builtinFormats))
	for _, f := range builtinFormats {
		names = append(names, f.Name)
	}
	sort.Strings(names)
	return names
}

func isFormatName(name string) bool {
	for _, f := range builtinFormats {
		if f.Name == name {
			return true
		}
	}
	return false
}

// readCloser pairs a decoded stream with everything that must be closed
// when the stream is done, innermost first.
type readCloser struct {
	io.Reader
	closers []func() error
}

func (r *readCloser) Close() error {
	var first error
	for _, c := range r.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	r.closers = nil
	return first
}

// fileDecoder adapts a stream decoder into an opener that owns the file.
func fileDecoder(decode func(f *os.File) (io.Reader, func() error, error)) func(string) (io.ReadCloser, error) {
	return func(path string) (io.ReadCloser, error) {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		r, closeDecoder, err := decode(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		rc := &readCloser{Reader: r}
		if closeDecoder != nil {
			rc.closers = append(rc.closers, closeDecoder)
		}
		rc.closers = append(rc.closers, f.Close)
		return rc, nil
	}
}

func openGzip(f *os.File) (io.Reader, func() error, error) {
	zr, err := gzip.NewReader(bufio.NewReader(f))
	if err != nil {
		return nil, nil, err
	}
	return zr, zr.Close, nil
}

func openBzip2(f *os.File) (io.Reader, func() error, error) {
	return bzip2.NewReader(bufio.NewReader(f)), nil, nil
}

func openXZ(f *os.File) (io.Reader, func() error, error) {
	xr, err := xz.NewReader(bufio.NewReader(f))
	if err != nil {
		return nil, nil, err
	}
	return xr, nil, nil
}

func openLZMA(f *os.File) (io.Reader, func() error, error) {
	lr, err := lzma.NewReader(bufio.NewReader(f))
	if err != nil {
		return nil, nil, err
	}
	return lr, nil, nil
}

func openLZ4(f *os.File) (io.Reader, func() error, error) {
	return lz4.NewReader(f), nil, nil
}

func openBrotli(f *os.File) (io.Reader, func() error, error) {
	return brotli.NewReader(bufio.NewReader(f)), nil, nil
}

func openZstd(f *os.File) (io.Reader, func() error, error) {
	zr, err := zstd.NewReader(f, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, nil, err
	}
	return zr, func() error {
		zr.Close()
		return nil
	}, nil
}
