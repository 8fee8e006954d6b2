package binding

import (
	"sort"
	"strings"
	"sync"

	"go.uber.org/atomic"
)

var _ Store = (*MemoryStore)(nil)

// Store keeps the live bindings of the daemon.
type Store interface {
	// Upsert inserts b, replacing any binding with the same name. The
	// replaced binding is returned, or nil if the name was new.
	Upsert(b *Binding) (replaced *Binding)
	// Get looks a binding up by name.
	Get(name string) (*Binding, bool)
	// GetByID looks a binding up by ID.
	GetByID(id string) (*Binding, bool)
	// Remove deletes by ID and returns the removed binding.
	Remove(id string) (*Binding, bool)
	// Snapshot returns a copy of the current bindings ordered by name.
	Snapshot() []Binding
	// Len returns the number of bindings.
	Len() int
}

// NewStore creates a new in-memory binding store.
func NewStore() *MemoryStore {
	return &MemoryStore{
		byID:   make(map[string]*Binding),
		byName: make(map[string]*Binding),
	}
}

// MemoryStore is a thread-safe in-memory Store. Names are matched
// case-insensitively.
type MemoryStore struct {
	mu     sync.RWMutex        // protects fields below
	byID   map[string]*Binding // id -> binding
	byName map[string]*Binding // lower-cased name -> binding
	count  atomic.Int64        // metrics: total bindings
}

// Upsert inserts b or replaces the binding registered under the same name.
func (s *MemoryStore) Upsert(b *Binding) (replaced *Binding) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(b.Spec.Name)
	if cur, ok := s.byName[key]; ok {
		delete(s.byID, cur.ID)
		s.byID[b.ID] = b
		s.byName[key] = b
		return cur
	}

	s.byID[b.ID] = b
	s.byName[key] = b
	s.count.Inc()
	return nil
}

// Get looks a binding up by name.
func (s *MemoryStore) Get(name string) (*Binding, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.byName[strings.ToLower(name)]
	return b, ok
}

// GetByID looks a binding up by ID.
func (s *MemoryStore) GetByID(id string) (*Binding, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.byID[id]
	return b, ok
}

// Remove deletes by ID.
func (s *MemoryStore) Remove(id string) (*Binding, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	delete(s.byID, id)
	delete(s.byName, strings.ToLower(cur.Spec.Name))
	s.count.Dec()
	return cur, true
}

// Snapshot returns value copies of the current bindings ordered by name.
func (s *MemoryStore) Snapshot() []Binding {
	s.mu.RLock()
	out := make([]Binding, 0, len(s.byID))
	for _, b := range s.byID {
		out = append(out, *b)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Spec.Name) < strings.ToLower(out[j].Spec.Name)
	})
	return out
}

// Len returns the number of bindings.
func (s *MemoryStore) Len() int { return int(s.count.Load()) }
