// Package engine orchestrates the bindings served by the confkit daemon.
// It builds bindings from configuration, answers text and document reads,
// and periodically re-reads every binding so that broken sources are
// reported in the log before a client asks for them.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/lc/confkit/internal/binding"
	"github.com/lc/confkit/internal/log"
	"github.com/lc/confkit/pkg/content"
	"github.com/lc/confkit/pkg/resource"
)

var (
	// ErrNotFound is returned when no binding matches a name or ID.
	ErrNotFound = errors.New("binding not found")
	// ErrNotDocument is returned by Document for bindings whose format has
	// no document tree, such as text.
	ErrNotDocument = errors.New("binding is not a document")
)

// Max number of bindings read concurrently by Warm and the periodic check.
const _warmConcurrency = 8

// Engine owns the binding store.
type Engine struct {
	fs       afero.Fs
	store    binding.Store
	interval time.Duration // How often bindings are re-read; zero disables.
	opts     []content.Option

	wg       sync.WaitGroup
	cancelFn context.CancelFunc // Cancels the context passed to Run
}

// Option configures an Engine.
type Option func(*Engine)

// WithStore replaces the default in-memory store.
func WithStore(s binding.Store) Option {
	return func(e *Engine) { e.store = s }
}

// WithContentOptions passes options to every content type the engine creates.
func WithContentOptions(opts ...content.Option) Option {
	return func(e *Engine) { e.opts = append(e.opts, opts...) }
}

// New creates an engine reading file sources from fs.
func New(fs afero.Fs, checkInterval time.Duration, opts ...Option) *Engine {
	e := &Engine{
		fs:       fs,
		store:    binding.NewStore(),
		interval: checkInterval,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Load binds every spec. Specs that fail are skipped; their errors are
// combined in the result.
func (e *Engine) Load(specs []binding.Spec) error {
	var errs error
	for _, spec := range specs {
		if _, err := e.Bind(spec); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	log.Info("engine: bindings loaded", "count", e.store.Len())
	return errs
}

// Bind builds spec and registers it, replacing any binding with the same name.
func (e *Engine) Bind(spec binding.Spec) (*binding.Binding, error) {
	b, err := binding.Build(e.fs, spec, e.opts...)
	if err != nil {
		return nil, err
	}
	if old := e.store.Upsert(b); old != nil {
		log.Info("engine: replaced binding", "name", spec.Name, "id", b.ID, "old_id", old.ID)
	} else {
		log.Info("engine: added binding", "name", spec.Name, "id", b.ID, "source", spec.Source())
	}
	return b, nil
}

// Unbind removes the binding identified by ref, which is either an ID or a name.
func (e *Engine) Unbind(ref string) (*binding.Binding, error) {
	b, err := e.lookup(ref)
	if err != nil {
		return nil, err
	}
	removed, ok := e.store.Remove(b.ID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, ref)
	}
	log.Info("engine: removed binding", "name", removed.Spec.Name, "id", removed.ID)
	return removed, nil
}

// Get returns the binding identified by ref.
func (e *Engine) Get(ref string) (*binding.Binding, error) {
	return e.lookup(ref)
}

// Text returns the current text of the binding identified by ref.
func (e *Engine) Text(ref string) (string, error) {
	b, err := e.lookup(ref)
	if err != nil {
		return "", err
	}
	return resource.ReadText(b.Resource)
}

// Document parses the binding identified by ref and returns its flattened
// entries.
func (e *Engine) Document(ref string) (map[string]string, error) {
	b, err := e.lookup(ref)
	if err != nil {
		return nil, err
	}
	dt, ok := b.Content.(content.DocumentType)
	if !ok {
		return nil, fmt.Errorf("%w: %q has format %s", ErrNotDocument, b.Spec.Name, b.Format)
	}
	root, err := dt.Document(b.Resource)
	if err != nil {
		return nil, err
	}
	return root.Flatten(), nil
}

// Snapshot returns a copy of the current bindings ordered by name.
func (e *Engine) Snapshot() []binding.Binding {
	return e.store.Snapshot()
}

// Len returns the number of bindings.
func (e *Engine) Len() int {
	return e.store.Len()
}

// Warm reads every binding once, in parallel, so cached bindings are
// populated before the first client request. Failures are logged and
// returned combined; they do not stop the other reads.
func (e *Engine) Warm(ctx context.Context) error {
	var (
		mu   sync.Mutex
		errs error
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(_warmConcurrency)
	for _, b := range e.store.Snapshot() {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := read(b); err != nil {
				log.Warn("engine: binding unreadable", "name", b.Spec.Name, "error", err)
				mu.Lock()
				errs = multierr.Append(errs, fmt.Errorf("%s: %w", b.Spec.Name, err))
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return errs
}

// Run starts the periodic check. The provided context controls its lifetime.
func (e *Engine) Run(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	e.cancelFn = cancel

	if e.interval <= 0 {
		log.Info("engine: started without periodic check")
		return
	}

	e.wg.Add(1)
	go e.runTicker(runCtx)
	log.Info("engine: started", "check_interval", e.interval)
}

// Close stops the periodic check and waits for it to exit.
func (e *Engine) Close() {
	if e.cancelFn != nil {
		e.cancelFn()
	}
	e.wg.Wait()
	log.Info("engine: stopped")
}

func (e *Engine) runTicker(ctx context.Context) {
	defer e.wg.Done()
	defer log.Debug("engine: runTicker stopping")

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			log.Debug("engine: checking bindings", "count", e.store.Len())
			if err := e.Warm(ctx); err != nil && ctx.Err() == nil {
				log.Warn("engine: check found unreadable bindings", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

func (e *Engine) lookup(ref string) (*binding.Binding, error) {
	if b, ok := e.store.GetByID(ref); ok {
		return b, nil
	}
	if b, ok := e.store.Get(ref); ok {
		return b, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrNotFound, ref)
}

// read refreshes a binding through the same path clients use.
func read(b binding.Binding) error {
	if dt, ok := b.Content.(content.DocumentType); ok {
		_, err := dt.Document(b.Resource)
		return err
	}
	_, err := resource.ReadText(b.Resource)
	return err
}
