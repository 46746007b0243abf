// Package formconf turns declarative field models into flattened,
// addressable form configurations, evaluates per-field validation rules, and
// resolves the dependency graph that determines each field's effective
// visibility, disabled state, and property overrides. The root package
// re-exports the most common types and constructors; the full surface lives
// under pkg/.
package formconf

import (
	"github.com/goliatone/go-formconf/pkg/condition"
	"github.com/goliatone/go-formconf/pkg/config"
	"github.com/goliatone/go-formconf/pkg/dependency"
	"github.com/goliatone/go-formconf/pkg/engine"
	"github.com/goliatone/go-formconf/pkg/model"
	"github.com/goliatone/go-formconf/pkg/options"
)

// Field is a declarative field descriptor.
type Field = model.Field

// FormModel is the descriptor tree supplied to the builder.
type FormModel = model.FormModel

// Validators is the declarative rule bag attached to a field.
type Validators = model.Validators

// DependencyRule ties a field's effective shape to a sibling's value.
type DependencyRule = model.DependencyRule

// Condition is a pure predicate over a sibling field's current value.
type Condition = condition.Condition

// ConfiguredField is a descriptor after identity and path assignment.
type ConfiguredField = config.ConfiguredField

// FormConfiguration is the flattened, addressable form of a field model.
type FormConfiguration = config.FormConfiguration

// Extension contributes configure and validate hooks to the engine.
type Extension = config.Extension

// Resolution is the per-field outcome of dependency evaluation.
type Resolution = dependency.Resolution

// Engine is the facade over the builder/validator/resolver triad.
type Engine = engine.Engine

// ErrFieldNotFound reports a query for a path outside the built
// configuration.
var ErrFieldNotFound = engine.ErrFieldNotFound

// New constructs an engine; see pkg/engine for the available options.
func New(opts ...engine.Option) *Engine {
	return engine.New(opts...)
}

// NewExtensions returns an empty extension registry.
func NewExtensions() *config.Extensions {
	return config.NewExtensions()
}

// NewOptionLoaders returns an empty async option-loader registry.
func NewOptionLoaders(opts ...options.LoaderOption) *options.Loaders {
	return options.New(opts...)
}
