// Package engine ties the config builder, validation engine, and dependency
// resolver together behind one facade. The engine owns no application state:
// it keeps the immutable configuration built from the last (model, flags)
// pair and treats every values map as a fresh snapshot supplied by the
// caller. All faults inside the triad are logged and survived; the only
// errors the engine returns signal programmer misuse, such as querying a
// path that was never part of the built configuration.
package engine

import (
	"errors"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/goliatone/go-formconf/pkg/config"
	"github.com/goliatone/go-formconf/pkg/dependency"
	"github.com/goliatone/go-formconf/pkg/model"
	"github.com/goliatone/go-formconf/pkg/options"
	"github.com/goliatone/go-formconf/pkg/validation"
)

// ErrFieldNotFound reports a query for a path outside the built
// configuration. It is distinct from validation and dependency errors, which
// are returned as messages, never as errors.
var ErrFieldNotFound = errors.New("engine: field not found")

// ErrNotBuilt reports a query before any configuration was built.
var ErrNotBuilt = errors.New("engine: configuration not built")

// Option customises the engine.
type Option func(*Engine)

// WithLogger routes warnings from all components to the supplied logger.
func WithLogger(log logr.Logger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

// WithExtensions injects a shared extension registry. The default engine
// carries its own empty registry.
func WithExtensions(extensions *config.Extensions) Option {
	return func(e *Engine) {
		if extensions != nil {
			e.extensions = extensions
		}
	}
}

// WithOptionLoaders injects the async option-loader registry for
// trigger-gated fields.
func WithOptionLoaders(loaders *options.Loaders) Option {
	return func(e *Engine) {
		e.loaders = loaders
	}
}

// Engine is the facade over the configuration triad.
type Engine struct {
	log        logr.Logger
	extensions *config.Extensions
	loaders    *options.Loaders

	builder   *config.Builder
	validator *validation.Validator
	resolver  *dependency.Resolver

	cfg   config.FormConfiguration
	built bool
}

// New constructs an Engine applying the provided options. Missing
// collaborators are initialised with defaults so a single constructor call
// yields a working engine.
func New(opts ...Option) *Engine {
	e := &Engine{log: logr.Discard()}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(e)
	}
	if e.extensions == nil {
		e.extensions = config.NewExtensions()
	}
	e.builder = config.New(
		config.WithLogger(e.log),
		config.WithExtensions(e.extensions),
	)
	e.validator = validation.New(
		validation.WithLogger(e.log),
		validation.WithExtensions(e.extensions),
	)
	e.resolver = dependency.New(dependency.WithLogger(e.log))
	return e
}

// Extensions exposes the engine's extension registry.
func (e *Engine) Extensions() *config.Extensions {
	return e.extensions
}

// OptionLoaders exposes the async option-loader registry, or nil when none
// was injected.
func (e *Engine) OptionLoaders() *options.Loaders {
	return e.loaders
}

// Build derives the flattened configuration for a (model, flags) pair and
// retains it for subsequent queries. Rebuilding replaces the retained
// configuration wholesale.
func (e *Engine) Build(form model.FormModel, flags map[string]bool) config.FormConfiguration {
	e.cfg = e.builder.Build(form, flags)
	e.built = true
	return e.cfg
}

// Configuration returns the configuration from the last Build.
func (e *Engine) Configuration() (config.FormConfiguration, error) {
	if !e.built {
		return config.FormConfiguration{}, ErrNotBuilt
	}
	return e.cfg, nil
}

// Field returns the configured field at a path.
func (e *Engine) Field(path string) (config.ConfiguredField, error) {
	if !e.built {
		return config.ConfiguredField{}, ErrNotBuilt
	}
	field, ok := e.cfg.Field(path)
	if !ok {
		return config.ConfiguredField{}, fmt.Errorf("%w: %q", ErrFieldNotFound, path)
	}
	return field, nil
}

// ValidateField evaluates one configured field against a candidate value.
func (e *Engine) ValidateField(field config.ConfiguredField, value any) []string {
	return e.validator.ValidateField(field, value)
}

// ValidatePath evaluates the field at path against a candidate value.
func (e *Engine) ValidatePath(path string, value any) ([]string, error) {
	field, err := e.Field(path)
	if err != nil {
		return nil, err
	}
	return e.validator.ValidateField(field, value), nil
}

// ValidateAll validates the whole configuration against a values snapshot;
// only paths with errors appear in the result.
func (e *Engine) ValidateAll(values map[string]any) (map[string][]string, error) {
	if !e.built {
		return nil, ErrNotBuilt
	}
	return e.validator.ValidateAll(e.cfg.Fields, values), nil
}

// ValidateSubset validates only the fields at the given paths.
func (e *Engine) ValidateSubset(paths []string, values map[string]any) (map[string][]string, error) {
	if !e.built {
		return nil, ErrNotBuilt
	}
	fields := make([]config.ConfiguredField, 0, len(paths))
	for _, path := range paths {
		field, ok := e.cfg.Field(path)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrFieldNotFound, path)
		}
		fields = append(fields, field)
	}
	return e.validator.ValidateAll(fields, values), nil
}

// ResolveAll computes every field's dependency resolution for a values
// snapshot. Results are always replaced wholesale, never patched.
func (e *Engine) ResolveAll(values map[string]any) (map[string]dependency.Resolution, error) {
	if !e.built {
		return nil, ErrNotBuilt
	}
	return e.resolver.ResolveAll(e.cfg.Fields, values), nil
}

// IsFieldVisible reports the resolved visibility of the field at path.
func (e *Engine) IsFieldVisible(path string, values map[string]any) (bool, error) {
	res, err := e.resolvePath(path, values)
	if err != nil {
		return false, err
	}
	return res.Visible, nil
}

// IsFieldDisabled reports the resolved disabled state of the field at path.
func (e *Engine) IsFieldDisabled(path string, values map[string]any) (bool, error) {
	res, err := e.resolvePath(path, values)
	if err != nil {
		return false, err
	}
	return res.Disabled, nil
}

// EffectiveField merges the field at path with its current resolution.
func (e *Engine) EffectiveField(path string, values map[string]any) (config.ConfiguredField, error) {
	field, err := e.Field(path)
	if err != nil {
		return config.ConfiguredField{}, err
	}
	res := e.resolver.Resolve(field, values, e.cfg.Fields)
	return dependency.Effective(field, res), nil
}

func (e *Engine) resolvePath(path string, values map[string]any) (dependency.Resolution, error) {
	field, err := e.Field(path)
	if err != nil {
		return dependency.Resolution{}, err
	}
	return e.resolver.Resolve(field, values, e.cfg.Fields), nil
}
