// Package config flattens a declarative field model into an addressable form
// configuration: every included field receives a generated identity and a
// hierarchical path, feature-flagged fields are filtered, and registered
// extension steps may post-process the result.
package config

import (
	"fmt"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/goliatone/go-formconf/pkg/model"
)

// instanceMarker namespaces repeating-group children. The static
// configuration materialises exactly one template instance per group;
// expanding per-index paths for actual array data is the binding layer's
// concern.
const instanceMarker = "[0]"

// Option customises the builder.
type Option func(*Builder)

// WithLogger routes builder warnings to the supplied logger. The default
// discards them.
func WithLogger(log logr.Logger) Option {
	return func(b *Builder) {
		b.log = log
	}
}

// WithExtensions injects the extension registry whose ConfigureForm steps run
// after the base traversal.
func WithExtensions(extensions *Extensions) Option {
	return func(b *Builder) {
		b.extensions = extensions
	}
}

// WithIdentity overrides identity-token generation. Tokens only key
// rendering; they carry no semantic weight, so any collision-free generator
// works.
func WithIdentity(generate func() string) Option {
	return func(b *Builder) {
		if generate != nil {
			b.identity = generate
		}
	}
}

// Builder turns field models into form configurations.
type Builder struct {
	log        logr.Logger
	extensions *Extensions
	identity   func() string
}

// New constructs a Builder applying the provided options.
func New(options ...Option) *Builder {
	b := &Builder{
		log:      logr.Discard(),
		identity: uuid.NewString,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(b)
	}
	return b
}

// Build traverses the model pre-order depth-first and returns the flattened
// configuration. Apart from the generated identity tokens the result is a
// pure function of (model, flags). Build never panics and never returns an
// error: configuration-time faults are logged and survived.
func (b *Builder) Build(form model.FormModel, flags map[string]bool) FormConfiguration {
	cfg := FormConfiguration{}
	b.walk(form.Fields, "", flags, &cfg.Fields)
	cfg.rebuildLookup()

	if dropped := len(cfg.Fields) - len(cfg.Lookup); dropped > 0 {
		// Sibling keys are unique by contract; collisions would break the
		// one-entry-per-field invariant, so later duplicates are removed.
		b.log.Info("config builder: duplicate paths dropped", "count", dropped)
		cfg.Fields = dedupeByPath(cfg.Fields)
		cfg.rebuildLookup()
	}

	cfg = b.applyExtensions(form, cfg)
	return cfg
}

func (b *Builder) walk(fields []model.Field, parent string, flags map[string]bool, out *[]ConfiguredField) {
	for _, field := range fields {
		if !flagsSatisfied(field.Flags, flags) {
			continue
		}
		if !field.Type.Known() {
			b.log.Info("config builder: unknown field type", "key", field.Key, "type", string(field.Type))
		}

		path := field.Key
		if parent != "" {
			path = parent + "." + field.Key
		}

		*out = append(*out, ConfiguredField{
			Field: field,
			ID:    b.identity(),
			Path:  path,
		})

		if len(field.Fields) == 0 {
			continue
		}
		childParent := path
		if field.Type == model.FieldTypeGroup {
			childParent = path + instanceMarker
		}
		b.walk(field.Fields, childParent, flags, out)
	}
}

// applyExtensions runs the registered ConfigureForm steps in registration
// order. A step that fails or panics is logged and skipped; the pipeline
// continues with the pre-step configuration.
func (b *Builder) applyExtensions(form model.FormModel, cfg FormConfiguration) FormConfiguration {
	for _, ext := range b.extensions.Snapshot() {
		if ext.ConfigureForm == nil {
			continue
		}
		next, err := runConfigureStep(ext, form, cfg)
		if err != nil {
			b.log.Info("config builder: extension step failed", "extension", ext.Name, "error", err.Error())
			continue
		}
		cfg = next
		cfg.rebuildLookup()
	}
	return cfg
}

func runConfigureStep(ext Extension, form model.FormModel, cfg FormConfiguration) (out FormConfiguration, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extension %q panicked: %v", ext.Name, r)
		}
	}()
	return ext.ConfigureForm(form, cfg)
}

// flagsSatisfied reports whether every named flag is truthy in the supplied
// set. Fields without flags are always included.
func flagsSatisfied(names []string, flags map[string]bool) bool {
	for _, name := range names {
		if !flags[name] {
			return false
		}
	}
	return true
}

func dedupeByPath(fields []ConfiguredField) []ConfiguredField {
	seen := make(map[string]struct{}, len(fields))
	out := make([]ConfiguredField, 0, len(fields))
	for _, field := range fields {
		if _, dup := seen[field.Path]; dup {
			continue
		}
		seen[field.Path] = struct{}{}
		out = append(out, field)
	}
	return out
}
