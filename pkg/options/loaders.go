// Package options manages asynchronous choice loading for trigger-gated
// fields: fields whose selectable options depend on other fields' current
// values. Each registered path carries a generation counter bumped on every
// reload; a load that completes after a newer one started is discarded, so
// out-of-order completions can never clobber fresher results. Labels coming
// back from loaders are stripped of markup before they reach the
// presentation layer.
package options

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/go-logr/logr"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-formconf/pkg/model"
)

// ErrStaleLoad reports that a reload completed after a newer reload for the
// same path had already started; its result was discarded.
var ErrStaleLoad = errors.New("options: stale load discarded")

// ErrNotRegistered reports a reload for a path without a loader.
var ErrNotRegistered = errors.New("options: no loader registered")

// Loader produces the selectable options for one field from the current
// value snapshot. The engine imposes no timeout or retry policy; cancel via
// the context.
type Loader func(ctx context.Context, values map[string]any) ([]model.Option, error)

// LoaderOption customises a Loaders registry.
type LoaderOption func(*Loaders)

// WithLogger routes load warnings to the supplied logger.
func WithLogger(log logr.Logger) LoaderOption {
	return func(l *Loaders) {
		l.log = log
	}
}

// WithSanitizer overrides the policy applied to option labels. The default
// strict policy strips all markup.
func WithSanitizer(policy *bluemonday.Policy) LoaderOption {
	return func(l *Loaders) {
		if policy != nil {
			l.sanitizer = policy
		}
	}
}

type entry struct {
	loader   Loader
	triggers []string
	gen      uint64
	options  []model.Option
	loaded   bool
}

// Loaders is a path-keyed registry of option loaders. Safe for concurrent
// use; loader invocations themselves run outside the lock.
type Loaders struct {
	mu        sync.Mutex
	log       logr.Logger
	sanitizer *bluemonday.Policy
	entries   map[string]*entry
}

// New constructs an empty registry.
func New(options ...LoaderOption) *Loaders {
	l := &Loaders{
		log:       logr.Discard(),
		sanitizer: bluemonday.StrictPolicy(),
		entries:   make(map[string]*entry),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(l)
	}
	return l
}

// Register binds a loader to a field path. Triggers name the field keys
// whose value changes should cause a reload. Re-registering a path replaces
// the prior loader and drops any cached options.
func (l *Loaders) Register(path string, loader Loader, triggers ...string) {
	if l == nil || loader == nil || strings.TrimSpace(path) == "" {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[path] = &entry{
		loader:   loader,
		triggers: append([]string(nil), triggers...),
	}
}

// Unregister removes the loader for a path.
func (l *Loaders) Unregister(path string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, path)
}

// TriggeredBy returns the registered paths that should reload when the named
// trigger field changes, in sorted order.
func (l *Loaders) TriggeredBy(trigger string) []string {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	var paths []string
	for path, e := range l.entries {
		for _, t := range e.triggers {
			if t == trigger {
				paths = append(paths, path)
				break
			}
		}
	}
	sort.Strings(paths)
	return paths
}

// Options returns the most recently loaded options for a path.
func (l *Loaders) Options(path string) ([]model.Option, bool) {
	if l == nil {
		return nil, false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[path]
	if !ok || !e.loaded {
		return nil, false
	}
	return append([]model.Option(nil), e.options...), true
}

// Reload invokes the loader for a path with the supplied value snapshot. The
// path's generation is bumped before the loader runs; if another reload
// started in the meantime the completed result is discarded and ErrStaleLoad
// returned.
func (l *Loaders) Reload(ctx context.Context, path string, values map[string]any) ([]model.Option, error) {
	if l == nil {
		return nil, ErrNotRegistered
	}
	l.mu.Lock()
	e, ok := l.entries[path]
	if !ok {
		l.mu.Unlock()
		return nil, ErrNotRegistered
	}
	e.gen++
	gen := e.gen
	loader := e.loader
	l.mu.Unlock()

	loaded, err := loader(ctx, values)
	if err != nil {
		return nil, err
	}
	loaded = l.sanitize(loaded)

	l.mu.Lock()
	defer l.mu.Unlock()
	if e.gen != gen {
		l.log.V(1).Info("options: discarding stale load", "path", path)
		return nil, ErrStaleLoad
	}
	e.options = loaded
	e.loaded = true
	return append([]model.Option(nil), loaded...), nil
}

// OnChange reloads every path triggered by the changed field key,
// concurrently, and returns the fresh option sets keyed by path. Stale loads
// are skipped silently; the first loader failure is returned after all
// reloads settle.
func (l *Loaders) OnChange(ctx context.Context, trigger string, values map[string]any) (map[string][]model.Option, error) {
	paths := l.TriggeredBy(trigger)
	return l.reloadPaths(ctx, paths, values)
}

// LoadAll performs the initial load of every registered path.
func (l *Loaders) LoadAll(ctx context.Context, values map[string]any) (map[string][]model.Option, error) {
	if l == nil {
		return nil, nil
	}
	l.mu.Lock()
	paths := make([]string, 0, len(l.entries))
	for path := range l.entries {
		paths = append(paths, path)
	}
	l.mu.Unlock()
	sort.Strings(paths)
	return l.reloadPaths(ctx, paths, values)
}

func (l *Loaders) reloadPaths(ctx context.Context, paths []string, values map[string]any) (map[string][]model.Option, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	var mu sync.Mutex
	out := make(map[string][]model.Option, len(paths))

	group, ctx := errgroup.WithContext(ctx)
	for _, path := range paths {
		path := path
		group.Go(func() error {
			loaded, err := l.Reload(ctx, path, values)
			if errors.Is(err, ErrStaleLoad) {
				return nil
			}
			if err != nil {
				return err
			}
			mu.Lock()
			out[path] = loaded
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return out, err
	}
	return out, nil
}

func (l *Loaders) sanitize(options []model.Option) []model.Option {
	out := make([]model.Option, len(options))
	for i, opt := range options {
		opt.Label = strings.TrimSpace(l.sanitizer.Sanitize(opt.Label))
		out[i] = opt
	}
	return out
}

