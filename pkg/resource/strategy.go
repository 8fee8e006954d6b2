package resource

import (
	"sync"

	"go.uber.org/atomic"
)

// CachingStrategy controls when a Cached resource re-reads its source.
// Text and byte buffers are tracked separately.
//
// Implementations must either be stateless or keep their state keyed by the
// Resource passed to each method, and must be safe for concurrent use.
type CachingStrategy interface {
	// ShouldRefreshText reports whether the text buffer of r is stale.
	ShouldRefreshText(r Resource) (bool, error)
	// ShouldRefreshBytes reports whether the byte buffer of r is stale.
	ShouldRefreshBytes(r Resource) (bool, error)
	// OnTextRefreshed is called right after the text buffer of r was re-read.
	OnTextRefreshed(r Resource, text string) error
	// OnBytesRefreshed is called right after the byte buffer of r was re-read.
	// b is the stored buffer itself; modifying it changes what subsequent
	// reads return.
	OnBytesRefreshed(r Resource, b []byte) error
}

var (
	_ CachingStrategy = constantStrategy{}
	_ CachingStrategy = reloadStrategy{}
	_ CachingStrategy = (*TimestampStrategy)(nil)
)

// Constant returns a strategy that never refreshes: content is read once and
// served from memory afterwards.
func Constant() CachingStrategy { return constantStrategy{} }

type constantStrategy struct{}

func (constantStrategy) ShouldRefreshText(Resource) (bool, error)  { return false, nil }
func (constantStrategy) ShouldRefreshBytes(Resource) (bool, error) { return false, nil }
func (constantStrategy) OnTextRefreshed(Resource, string) error    { return nil }
func (constantStrategy) OnBytesRefreshed(Resource, []byte) error   { return nil }

// Reload returns a strategy that refreshes on every access. Cache(r, Reload())
// returns r itself since buffering would serve no purpose.
func Reload() CachingStrategy { return reloadStrategy{} }

type reloadStrategy struct{}

func (reloadStrategy) ShouldRefreshText(Resource) (bool, error)  { return true, nil }
func (reloadStrategy) ShouldRefreshBytes(Resource) (bool, error) { return true, nil }
func (reloadStrategy) OnTextRefreshed(Resource, string) error    { return nil }
func (reloadStrategy) OnBytesRefreshed(Resource, []byte) error   { return nil }

// TimestampStrategy refreshes a buffer when the resource reports a
// modification time after the one recorded at that buffer's last refresh.
type TimestampStrategy struct {
	mu    sync.Mutex                // protects marks
	marks map[Resource]*watermarks // resource -> last refresh times
}

type watermarks struct {
	text  atomic.Time
	bytes atomic.Time
}

// Timestamp returns a new TimestampStrategy. Resources passed to it must be
// comparable; every resource in this package is.
func Timestamp() *TimestampStrategy {
	return &TimestampStrategy{marks: make(map[Resource]*watermarks)}
}

func (s *TimestampStrategy) watermarks(r Resource) *watermarks {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.marks[r]
	if !ok {
		w = &watermarks{}
		s.marks[r] = w
	}
	return w
}

// ShouldRefreshText reports whether r changed since its text was last read.
func (s *TimestampStrategy) ShouldRefreshText(r Resource) (bool, error) {
	return newerThan(r, &s.watermarks(r).text)
}

// ShouldRefreshBytes reports whether r changed since its bytes were last read.
func (s *TimestampStrategy) ShouldRefreshBytes(r Resource) (bool, error) {
	return newerThan(r, &s.watermarks(r).bytes)
}

// OnTextRefreshed records the current modification time as the text watermark.
func (s *TimestampStrategy) OnTextRefreshed(r Resource, _ string) error {
	return record(r, &s.watermarks(r).text)
}

// OnBytesRefreshed records the current modification time as the byte watermark.
func (s *TimestampStrategy) OnBytesRefreshed(r Resource, _ []byte) error {
	return record(r, &s.watermarks(r).bytes)
}

func newerThan(r Resource, mark *atomic.Time) (bool, error) {
	lm, err := r.LastModified()
	if err != nil {
		return false, err
	}
	return lm.After(mark.Load()), nil
}

func record(r Resource, mark *atomic.Time) error {
	lm, err := r.LastModified()
	if err != nil {
		return err
	}
	mark.Store(lm)
	return nil
}
