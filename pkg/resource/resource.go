// Package resource provides readable content sources and the caching layer
// that decides when their content must be re-read.
//
// A Resource exposes a byte stream, a decoded text stream and a modification
// time. Cached wraps any Resource and buffers both streams independently; a
// CachingStrategy decides when a buffer is stale.
package resource

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	// ErrSourceUnavailable is returned when a resource cannot be opened or read.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrUnknownEncoding is returned for encoding names that cannot be resolved.
	ErrUnknownEncoding = errors.New("unknown encoding")
)

// Resource is a readable content source.
type Resource interface {
	// OpenBytes opens the raw byte stream. Callers must close it.
	OpenBytes() (io.ReadCloser, error)
	// OpenText opens the content decoded as UTF-8 text. Callers must close it.
	OpenText() (io.ReadCloser, error)
	// LastModified reports when the content last changed. The zero time
	// means unknown.
	LastModified() (time.Time, error)
}

// ReadText drains the text stream of r and closes it. Open and read failures
// are wrapped in ErrSourceUnavailable.
func ReadText(r Resource) (string, error) {
	b, err := drain(r.OpenText)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ReadBytes drains the byte stream of r and closes it.
func ReadBytes(r Resource) ([]byte, error) {
	return drain(r.OpenBytes)
}

func drain(open func() (io.ReadCloser, error)) (b []byte, err error) {
	rc, err := open()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	b, err = io.ReadAll(rc)
	err = multierr.Append(err, rc.Close())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	return b, nil
}

// Option configures a resource.
type Option func(*options)

type options struct {
	enc    encoding.Encoding
	encErr error
	client *http.Client
}

func newOptions(opts []Option) (*options, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.encErr != nil {
		return nil, o.encErr
	}
	return o, nil
}

// WithEncoding decodes the text stream with the named encoding (for example
// "iso-8859-1" or "windows-1252"). Without it, UTF-8 is assumed unless the
// source provides its own charset.
func WithEncoding(name string) Option {
	return func(o *options) {
		enc, err := LookupEncoding(name)
		if err != nil {
			o.encErr = err
			return
		}
		o.enc = enc
	}
}

// WithHTTPClient sets the client used by URL resources.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.client = c }
}

// LookupEncoding resolves an IANA or WHATWG encoding name.
func LookupEncoding(name string) (encoding.Encoding, error) {
	enc, err := htmlindex.Get(strings.TrimSpace(name))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
	}
	return enc, nil
}

// decodeText wraps rc so reads return UTF-8. A nil or UTF-8 encoding leaves
// the stream untouched.
func decodeText(rc io.ReadCloser, enc encoding.Encoding) io.ReadCloser {
	if enc == nil || enc == unicode.UTF8 || enc == encoding.Nop {
		return rc
	}
	return &textReader{
		Reader: transform.NewReader(rc, enc.NewDecoder()),
		closer: rc,
	}
}

type textReader struct {
	io.Reader
	closer io.Closer
}

func (t *textReader) Close() error { return t.closer.Close() }
