package resource

import (
	"bytes"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/lc/confkit/internal/log"
)

var _ Resource = (*Cached)(nil)

// Cached buffers the text and byte content of a wrapped Resource. Each buffer
// is refreshed independently when it is empty or the strategy reports it
// stale. A fresh read is installed only after the strategy's refresh hook
// accepts it; a failed read or hook leaves the previous buffer in place and
// the next access tries again.
type Cached struct {
	res      Resource
	strategy CachingStrategy

	textMu  sync.Mutex // protects text and hasText
	text    string
	hasText bool

	bytesMu  sync.Mutex // protects bytes and hasBytes
	bytes    []byte
	hasBytes bool
}

// NewCached wraps r with the given strategy.
func NewCached(r Resource, strategy CachingStrategy) *Cached {
	return &Cached{res: r, strategy: strategy}
}

// Cache wraps r according to strategy. The Reload strategy returns r as is.
func Cache(r Resource, strategy CachingStrategy) Resource {
	if _, ok := strategy.(reloadStrategy); ok {
		return r
	}
	return NewCached(r, strategy)
}

// Unwrap returns the wrapped resource.
func (c *Cached) Unwrap() Resource { return c.res }

// ReadText returns the buffered text, re-reading the source first if the
// buffer is empty or stale.
func (c *Cached) ReadText() (string, error) {
	c.textMu.Lock()
	defer c.textMu.Unlock()

	if c.hasText {
		stale, err := c.strategy.ShouldRefreshText(c)
		if err != nil {
			return "", err
		}
		if !stale {
			return c.text, nil
		}
	}

	text, err := ReadText(c.res)
	if err != nil {
		return "", err
	}
	if err := c.strategy.OnTextRefreshed(c, text); err != nil {
		return "", err
	}
	c.text, c.hasText = text, true
	log.Debug("resource: text buffer refreshed", "resource", describe(c.res), "chars", len(text))
	return c.text, nil
}

// ReadBytes returns a copy of the buffered bytes, re-reading the source first
// if the buffer is empty or stale.
func (c *Cached) ReadBytes() ([]byte, error) {
	c.bytesMu.Lock()
	defer c.bytesMu.Unlock()

	if c.hasBytes {
		stale, err := c.strategy.ShouldRefreshBytes(c)
		if err != nil {
			return nil, err
		}
		if !stale {
			return cloneBytes(c.bytes), nil
		}
	}

	b, err := ReadBytes(c.res)
	if err != nil {
		return nil, err
	}
	if err := c.strategy.OnBytesRefreshed(c, b); err != nil {
		return nil, err
	}
	c.bytes, c.hasBytes = b, true
	log.Debug("resource: byte buffer refreshed", "resource", describe(c.res), "bytes", len(b))
	return cloneBytes(c.bytes), nil
}

// OpenText returns a reader over the buffered text.
func (c *Cached) OpenText() (io.ReadCloser, error) {
	text, err := c.ReadText()
	if err != nil {
		return nil, err
	}
	return io.NopCloser(strings.NewReader(text)), nil
}

// OpenBytes returns a reader over the buffered bytes.
func (c *Cached) OpenBytes() (io.ReadCloser, error) {
	b, err := c.ReadBytes()
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

// LastModified delegates to the wrapped resource; it is never cached.
func (c *Cached) LastModified() (time.Time, error) {
	return c.res.LastModified()
}

func (c *Cached) String() string { return "cached(" + describe(c.res) + ")" }

func cloneBytes(b []byte) []byte {
	c := make([]byte, len(b))
	copy(c, b)
	return c
}

func describe(r Resource) string {
	if s, ok := r.(interface{ String() string }); ok {
		return s.String()
	}
	return "resource"
}
