package model

import "github.com/goliatone/go-formconf/pkg/condition"

// FieldType is the closed enumeration of field kinds the engine understands.
type FieldType string

const (
	FieldTypeText        FieldType = "text"
	FieldTypeTextarea    FieldType = "textarea"
	FieldTypeNumber      FieldType = "number"
	FieldTypeDate        FieldType = "date"
	FieldTypeSelect      FieldType = "select"
	FieldTypeMultiSelect FieldType = "multiselect"
	FieldTypeCheckbox    FieldType = "checkbox"
	FieldTypeRadio       FieldType = "radio"
	FieldTypeGroup       FieldType = "group"
)

// Known reports whether the type belongs to the closed enumeration. Unknown
// types are carried through the builder with a warning rather than rejected.
func (t FieldType) Known() bool {
	switch t {
	case FieldTypeText, FieldTypeTextarea, FieldTypeNumber, FieldTypeDate,
		FieldTypeSelect, FieldTypeMultiSelect, FieldTypeCheckbox,
		FieldTypeRadio, FieldTypeGroup:
		return true
	default:
		return false
	}
}

// Override keys recognised when a dependency rule's condition holds. Hidden
// and disabled adjust the resolution directly; every other key is merged into
// the effective field.
const (
	OverrideHidden      = "hidden"
	OverrideDisabled    = "disabled"
	OverrideLabel       = "label"
	OverridePlaceholder = "placeholder"
	OverrideHelpText    = "helpText"
	OverrideOptions     = "options"
	OverrideDefault     = "default"
)

// Option is a selectable choice for select, multiselect, and radio fields.
type Option struct {
	Value any    `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

// Validators is the declarative rule bag attached to a field. Min and Max are
// shared between numeric and string values: for numbers they are inclusive
// bounds, for strings they are inclusive character counts. Custom is a
// user-supplied predicate returning error messages; it cannot be serialised
// and is only reachable from programmatically assembled models.
type Validators struct {
	Required      bool     `json:"required,omitempty" yaml:"required,omitempty"`
	Min           *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max           *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	DecimalPlaces *int     `json:"decimalPlaces,omitempty" yaml:"decimalPlaces,omitempty"`
	Pattern       string   `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	MinItems      *int     `json:"minItems,omitempty" yaml:"minItems,omitempty"`
	MaxItems      *int     `json:"maxItems,omitempty" yaml:"maxItems,omitempty"`

	Custom func(value any) []string `json:"-" yaml:"-"`
}

// DependencyRule declares that a field's effective shape changes when the
// named sibling's current value satisfies Condition. When holds the rule text
// the condition was compiled from (if any) so configurations stay
// serialisable. Overrides is a partial descriptor applied while the condition
// holds; see the Override* constants for the recognised keys.
type DependencyRule struct {
	Field     string              `json:"field" yaml:"field"`
	Condition condition.Condition `json:"-" yaml:"-"`
	When      string              `json:"when,omitempty" yaml:"when,omitempty"`
	Overrides map[string]any      `json:"overrides,omitempty" yaml:"overrides,omitempty"`
}

// Field models a single descriptor in the form tree. Fields is only consulted
// for FieldTypeGroup descriptors, where it holds the repeating sub-model.
type Field struct {
	Key          string            `json:"key" yaml:"key"`
	Type         FieldType         `json:"type" yaml:"type"`
	Label        string            `json:"label,omitempty" yaml:"label,omitempty"`
	Placeholder  string            `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	HelpText     string            `json:"helpText,omitempty" yaml:"helpText,omitempty"`
	Default      any               `json:"default,omitempty" yaml:"default,omitempty"`
	Hidden       bool              `json:"hidden,omitempty" yaml:"hidden,omitempty"`
	Disabled     bool              `json:"disabled,omitempty" yaml:"disabled,omitempty"`
	Options      []Option          `json:"options,omitempty" yaml:"options,omitempty"`
	Flags        []string          `json:"flags,omitempty" yaml:"flags,omitempty"`
	Validators   *Validators       `json:"validators,omitempty" yaml:"validators,omitempty"`
	Dependencies []DependencyRule  `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
	Fields       []Field           `json:"fields,omitempty" yaml:"fields,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// FormModel is the top-level descriptor tree supplied to the config builder.
type FormModel struct {
	Name     string            `json:"name,omitempty" yaml:"name,omitempty"`
	Fields   []Field           `json:"fields" yaml:"fields"`
	Metadata map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Clone returns a deep copy of the field. Conditions and custom validators
// are shared; everything else is copied so callers can merge overrides
// without touching the immutable model.
func (f Field) Clone() Field {
	out := f
	if f.Validators != nil {
		validators := *f.Validators
		if f.Validators.Min != nil {
			v := *f.Validators.Min
			validators.Min = &v
		}
		if f.Validators.Max != nil {
			v := *f.Validators.Max
			validators.Max = &v
		}
		if f.Validators.DecimalPlaces != nil {
			v := *f.Validators.DecimalPlaces
			validators.DecimalPlaces = &v
		}
		if f.Validators.MinItems != nil {
			v := *f.Validators.MinItems
			validators.MinItems = &v
		}
		if f.Validators.MaxItems != nil {
			v := *f.Validators.MaxItems
			validators.MaxItems = &v
		}
		out.Validators = &validators
	}
	if len(f.Options) > 0 {
		out.Options = append([]Option(nil), f.Options...)
	}
	if len(f.Flags) > 0 {
		out.Flags = append([]string(nil), f.Flags...)
	}
	if len(f.Dependencies) > 0 {
		rules := make([]DependencyRule, len(f.Dependencies))
		for i, rule := range f.Dependencies {
			rules[i] = rule
			if len(rule.Overrides) > 0 {
				overrides := make(map[string]any, len(rule.Overrides))
				for key, value := range rule.Overrides {
					overrides[key] = value
				}
				rules[i].Overrides = overrides
			}
		}
		out.Dependencies = rules
	}
	if len(f.Fields) > 0 {
		nested := make([]Field, len(f.Fields))
		for i, child := range f.Fields {
			nested[i] = child.Clone()
		}
		out.Fields = nested
	}
	if len(f.Metadata) > 0 {
		metadata := make(map[string]string, len(f.Metadata))
		for key, value := range f.Metadata {
			metadata[key] = value
		}
		out.Metadata = metadata
	}
	return out
}
