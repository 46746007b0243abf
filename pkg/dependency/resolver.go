// Package dependency resolves each field's effective visibility, disabled
// state, and property overrides from the current value snapshot. Dependency
// rules read sibling values, never other fields' resolutions, so resolution
// is a pure function of (fields, values); the topological visit order exists
// to keep whole-form resolution deterministic and to leave room for resolvers
// that read derived state. Resolution always terminates: cycles are logged
// and broken, faulty conditions are logged and skipped, and no fault
// propagates to the caller.
package dependency

import (
	"fmt"

	"github.com/go-logr/logr"

	"github.com/goliatone/go-formconf/pkg/config"
	"github.com/goliatone/go-formconf/pkg/model"
)

// Resolution is the per-field outcome of dependency evaluation.
type Resolution struct {
	Visible   bool           `json:"visible"`
	Disabled  bool           `json:"disabled"`
	Overrides map[string]any `json:"overrides,omitempty"`
	DependsOn []string       `json:"dependsOn,omitempty"`
}

// Option customises the resolver.
type Option func(*Resolver)

// WithLogger routes resolver warnings (missing siblings, faulty conditions,
// cycles) to the supplied logger.
func WithLogger(log logr.Logger) Option {
	return func(r *Resolver) {
		r.log = log
	}
}

// Resolver evaluates dependency rules.
type Resolver struct {
	log logr.Logger
}

// New constructs a Resolver applying the provided options.
func New(options ...Option) *Resolver {
	r := &Resolver{log: logr.Discard()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	return r
}

// Resolve evaluates a single field's dependency rules against the value
// snapshot. Rules run in declaration order; a rule whose referenced sibling
// is absent or whose condition faults is skipped with the prior state kept.
func (r *Resolver) Resolve(field config.ConfiguredField, values map[string]any, allFields []config.ConfiguredField) Resolution {
	res := Resolution{
		Visible:  !field.Hidden,
		Disabled: field.Disabled,
	}

	for _, rule := range field.Dependencies {
		res.DependsOn = append(res.DependsOn, rule.Field)

		sibling, ok := findSibling(field, rule.Field, allFields)
		if !ok {
			r.log.Info("dependency: referenced field not found", "field", field.Path, "dependsOn", rule.Field)
			continue
		}

		held, err := r.evaluate(rule, values[sibling.Path])
		if err != nil {
			r.log.Info("dependency: condition failed", "field", field.Path, "dependsOn", rule.Field, "error", err.Error())
			continue
		}
		if !held {
			continue
		}

		for key, value := range rule.Overrides {
			switch key {
			case model.OverrideHidden:
				if hidden, ok := value.(bool); ok {
					res.Visible = !hidden
				}
			case model.OverrideDisabled:
				if disabled, ok := value.(bool); ok {
					res.Disabled = disabled
				}
			default:
				if res.Overrides == nil {
					res.Overrides = make(map[string]any)
				}
				// Later-declared rules win on key conflicts.
				res.Overrides[key] = value
			}
		}
	}

	return res
}

// ResolveAll resolves every field, visiting them in dependency order via a
// three-color walk. Re-entering a field that is still being visited breaks
// the cycle: a warning is logged and the field keeps its current partial
// state. The result maps path to resolution, one entry per field.
func (r *Resolver) ResolveAll(fields []config.ConfiguredField, values map[string]any) map[string]Resolution {
	walk := &walker{
		resolver: r,
		fields:   fields,
		values:   values,
		colors:   make(map[string]color, len(fields)),
		out:      make(map[string]Resolution, len(fields)),
	}
	for _, field := range fields {
		walk.visit(field)
	}
	return walk.out
}

func (r *Resolver) evaluate(rule model.DependencyRule, value any) (held bool, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			held = false
			err = fmt.Errorf("condition panicked: %v", rec)
		}
	}()
	if rule.Condition == nil {
		return false, fmt.Errorf("rule on %q has no condition", rule.Field)
	}
	return rule.Condition(value), nil
}

type color int

const (
	white color = iota // unvisited
	gray               // visiting
	black              // visited
)

type walker struct {
	resolver *Resolver
	fields   []config.ConfiguredField
	values   map[string]any
	colors   map[string]color
	out      map[string]Resolution
}

func (w *walker) visit(field config.ConfiguredField) {
	switch w.colors[field.Path] {
	case black:
		return
	case gray:
		w.resolver.log.Info("dependency: cycle detected", "field", field.Path)
		return
	}
	w.colors[field.Path] = gray

	for _, rule := range field.Dependencies {
		sibling, ok := findSibling(field, rule.Field, w.fields)
		if !ok {
			continue
		}
		w.visit(sibling)
	}

	w.out[field.Path] = w.resolver.Resolve(field, w.values, w.fields)
	w.colors[field.Path] = black
}

// findSibling locates the field a rule references. Fields sharing the
// referencing field's parent path win over a key match elsewhere in the
// configuration.
func findSibling(field config.ConfiguredField, key string, allFields []config.ConfiguredField) (config.ConfiguredField, bool) {
	parent := parentPath(field.Path)
	var fallback config.ConfiguredField
	found := false
	for _, candidate := range allFields {
		if candidate.Key != key {
			continue
		}
		if parentPath(candidate.Path) == parent {
			return candidate, true
		}
		if !found {
			fallback = candidate
			found = true
		}
	}
	return fallback, found
}

func parentPath(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '.' {
			return path[:i]
		}
	}
	return ""
}
