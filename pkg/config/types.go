package config

import "github.com/goliatone/go-formconf/pkg/model"

// ConfiguredField is a field descriptor after the builder assigned it a
// process-unique identity and a hierarchical path. ID carries no semantic
// weight; validation and dependency resolution address fields by Path.
type ConfiguredField struct {
	model.Field

	ID   string `json:"id"`
	Path string `json:"path"`
}

// Configured reports whether identity and path have been assigned. Extension
// validators only run against configured fields.
func (f ConfiguredField) Configured() bool {
	return f.ID != "" && f.Path != ""
}

// FormConfiguration is the flattened, addressable form of a field model.
// Fields preserves pre-order traversal order; Lookup holds exactly one entry
// per element of Fields, keyed by path.
type FormConfiguration struct {
	Fields []ConfiguredField          `json:"fields"`
	Lookup map[string]ConfiguredField `json:"-"`
}

// Field returns the configured field at the given path.
func (c FormConfiguration) Field(path string) (ConfiguredField, bool) {
	field, ok := c.Lookup[path]
	return field, ok
}

// rebuildLookup derives Lookup from Fields, keeping the one-entry-per-field
// invariant after extension steps replaced the field list.
func (c *FormConfiguration) rebuildLookup() {
	c.Lookup = make(map[string]ConfiguredField, len(c.Fields))
	for _, field := range c.Fields {
		c.Lookup[field.Path] = field
	}
}
