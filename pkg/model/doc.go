// Package model defines the declarative field model consumed by the config
// builder, the validation engine, and the dependency resolver. A FormModel is
// an ordered tree of Field descriptors; descriptors of FieldTypeGroup carry a
// nested sub-model that the builder flattens under an indexed path. The model
// is supplied once per session and treated as immutable: none of the engine
// components mutate a descriptor after construction. Validators group the
// declarative rule bag (required, numeric bounds, length bounds, pattern,
// item counts, custom predicate) while DependencyRule ties a field's
// effective visibility, disabled state, and property overrides to a sibling's
// current value.
package model
