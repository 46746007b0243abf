package config

import (
	"strings"
	"sync"

	"github.com/goliatone/go-formconf/pkg/model"
)

// Extension contributes optional hooks to the engine. ConfigureForm
// post-processes a built configuration; ValidateField appends extra messages
// for a configured field. Either hook may be nil.
type Extension struct {
	Name string

	ConfigureForm func(form model.FormModel, cfg FormConfiguration) (FormConfiguration, error)
	ValidateField func(field ConfiguredField, value any) []string
}

// Extensions is a name-keyed, ordered extension registry. It is an explicit
// value handed to the builder and validator rather than process-global state;
// callers that want shared extensions share the registry instance. Safe for
// concurrent use.
type Extensions struct {
	mu      sync.RWMutex
	entries []Extension
}

// NewExtensions returns an empty registry.
func NewExtensions() *Extensions {
	return &Extensions{}
}

// Register adds an extension. Re-registering a name replaces the prior entry
// in place, preserving its position in the chain. Extensions without a name
// are ignored.
func (e *Extensions) Register(ext Extension) {
	if e == nil {
		return
	}
	name := strings.TrimSpace(ext.Name)
	if name == "" {
		return
	}
	ext.Name = name

	e.mu.Lock()
	defer e.mu.Unlock()
	for i, entry := range e.entries {
		if entry.Name == name {
			e.entries[i] = ext
			return
		}
	}
	e.entries = append(e.entries, ext)
}

// Unregister removes the named extension, if present.
func (e *Extensions) Unregister(name string) {
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, entry := range e.entries {
		if entry.Name == name {
			e.entries = append(e.entries[:i], e.entries[i+1:]...)
			return
		}
	}
}

// Clear removes every registered extension.
func (e *Extensions) Clear() {
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.entries = nil
}

// Snapshot returns the registered extensions in registration order.
func (e *Extensions) Snapshot() []Extension {
	if e == nil {
		return nil
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	if len(e.entries) == 0 {
		return nil
	}
	return append([]Extension(nil), e.entries...)
}
