package resource

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/text/encoding"
)

var _ Resource = (*File)(nil)

// File is a resource backed by a file on an afero filesystem.
type File struct {
	fs   afero.Fs
	path string
	enc  encoding.Encoding
}

// NewFile returns a resource for path on fs. Use afero.NewOsFs() for the
// local disk.
func NewFile(fs afero.Fs, path string, opts ...Option) (*File, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	return &File{fs: fs, path: path, enc: o.enc}, nil
}

// OpenBytes opens the file.
func (f *File) OpenBytes() (io.ReadCloser, error) {
	return f.fs.Open(f.path)
}

// OpenText opens the file and decodes it with the configured encoding.
func (f *File) OpenText() (io.ReadCloser, error) {
	rc, err := f.fs.Open(f.path)
	if err != nil {
		return nil, err
	}
	return decodeText(rc, f.enc), nil
}

// LastModified returns the file's modification time.
func (f *File) LastModified() (time.Time, error) {
	fi, err := f.fs.Stat(f.path)
	if err != nil {
		return time.Time{}, fmt.Errorf("stat %s: %w", f.path, err)
	}
	return fi.ModTime(), nil
}

func (f *File) String() string { return "file:" + f.path }
