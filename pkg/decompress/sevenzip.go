package decompress

import (
	"io"

	"github.com/bodgit/sevenzip"
)

// open7z exposes the regular files of a 7z archive as one stream, in
// archive order.
func open7z(path string) (io.ReadCloser, error) {
	archive, err := sevenzip.OpenReader(path)
	if err != nil {
		return nil, err
	}

	var members []func() (io.ReadCloser, error)
	for _, f := range archive.File {
		if f.FileInfo().IsDir() {
			continue
		}
		members = append(members, f.Open)
	}
	return &memberReader{closer: archive, members: members}, nil
}

// memberReader concatenates archive members. A member whose content does
// not end in a newline is followed by one, so lines never span members.
type memberReader struct {
	closer  io.Closer
	members []func() (io.ReadCloser, error)
	current io.ReadCloser
	last    byte
	pending bool
}

func (r *memberReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for {
		if r.pending {
			r.pending = false
			r.last = '\n'
			p[0] = '\n'
			return 1, nil
		}
		if r.current == nil {
			if len(r.members) == 0 {
				return 0, io.EOF
			}
			rc, err := r.members[0]()
			if err != nil {
				return 0, err
			}
			r.members = r.members[1:]
			r.current = rc
			r.last = '\n'
		}

		n, err := r.current.Read(p)
		if n > 0 {
			r.last = p[n-1]
		}
		if err == io.EOF {
			cerr := r.current.Close()
			r.current = nil
			if cerr != nil {
				return n, cerr
			}
			if r.last != '\n' && len(r.members) > 0 {
				r.pending = true
			}
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

func (r *memberReader) Close() error {
	if r.current != nil {
		r.current.Close()
		r.current = nil
	}
	return r.closer.Close()
}
