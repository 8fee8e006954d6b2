package resource

import (
	"io"
	"io/fs"
	"time"

	"golang.org/x/text/encoding"
)

var _ Resource = (*FS)(nil)

// FS is a resource backed by an entry of an io/fs filesystem, typically an
// embed.FS compiled into the binary.
type FS struct {
	fsys fs.FS
	name string
	enc  encoding.Encoding
}

// NewFS returns a resource for name within fsys.
func NewFS(fsys fs.FS, name string, opts ...Option) (*FS, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	return &FS{fsys: fsys, name: name, enc: o.enc}, nil
}

// OpenBytes opens the entry.
func (r *FS) OpenBytes() (io.ReadCloser, error) {
	return r.fsys.Open(r.name)
}

// OpenText opens the entry and decodes it with the configured encoding.
func (r *FS) OpenText() (io.ReadCloser, error) {
	f, err := r.fsys.Open(r.name)
	if err != nil {
		return nil, err
	}
	return decodeText(f, r.enc), nil
}

// LastModified returns the entry's modification time. Embedded files report
// the zero time.
func (r *FS) LastModified() (time.Time, error) {
	fi, err := fs.Stat(r.fsys, r.name)
	if err != nil {
		return time.Time{}, err
	}
	return fi.ModTime(), nil
}

func (r *FS) String() string { return "fs:" + r.name }
