package resource

import (
	"io"
	"strings"
	"time"
)

var _ Resource = (*String)(nil)

// String is an in-memory resource. Its modification time is fixed at
// construction.
type String struct {
	text    string
	created time.Time
}

// NewString returns a resource serving text.
func NewString(text string) *String {
	return &String{text: text, created: time.Now()}
}

// OpenBytes returns the UTF-8 bytes of the text.
func (s *String) OpenBytes() (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(s.text)), nil
}

// OpenText returns the text.
func (s *String) OpenText() (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(s.text)), nil
}

// LastModified returns the construction time.
func (s *String) LastModified() (time.Time, error) { return s.created, nil }

func (s *String) String() string { return "string resource" }
