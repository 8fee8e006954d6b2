package resource_test

import (
	"io"
	"strings"
	"sync"
	"time"

	"github.com/lc/confkit/pkg/resource"
)

var _ resource.Resource = (*countingResource)(nil)

type failingReader struct{ err error }

func (f failingReader) Read([]byte) (int, error) { return 0, f.err }

// countingResource serves mutable content and counts how often its streams
// are opened.
type countingResource struct {
	mu         sync.Mutex
	textOpens  int
	bytesOpens int
	text       string
	mtime      time.Time
}

func (c *countingResource) OpenText() (io.ReadCloser, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.textOpens++
	// widen the window in which concurrent readers could race
	time.Sleep(time.Millisecond)
	return io.NopCloser(strings.NewReader(c.text)), nil
}

func (c *countingResource) OpenBytes() (io.ReadCloser, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bytesOpens++
	return io.NopCloser(strings.NewReader(c.text)), nil
}

func (c *countingResource) LastModified() (time.Time, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mtime, nil
}

func (c *countingResource) set(text string, mtime time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.text, c.mtime = text, mtime
}

func (c *countingResource) opens() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.textOpens
}

func (c *countingResource) byteOpens() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bytesOpens
}
