// Package openapi derives declarative form models from OpenAPI operations so
// API-backed forms do not have to be declared twice. Only the request body is
// considered: object properties become fields, arrays of objects become
// repeating groups, and schema constraints flow into the validator bag.
package openapi

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formconf/pkg/model"
)

// Option customises the adapter.
type Option func(*Adapter)

// WithLabeler overrides the default label derivation.
func WithLabeler(labeler func(string) string) Option {
	return func(a *Adapter) {
		if labeler != nil {
			a.labeler = labeler
		}
	}
}

// Adapter converts OpenAPI operations into form models.
type Adapter struct {
	labeler func(string) string
}

// New constructs an Adapter applying the provided options.
func New(options ...Option) *Adapter {
	a := &Adapter{labeler: model.DefaultLabeler}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(a)
	}
	return a
}

// FormModel loads an OpenAPI document payload and derives the form model for
// the operation with the given operationId.
func (a *Adapter) FormModel(ctx context.Context, raw []byte, operationID string) (model.FormModel, error) {
	if len(raw) == 0 {
		return model.FormModel{}, errors.New("openapi: document payload is empty")
	}

	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(raw)
	if err != nil {
		return model.FormModel{}, fmt.Errorf("openapi: load document: %w", err)
	}

	operation := findOperation(doc, operationID)
	if operation == nil {
		return model.FormModel{}, fmt.Errorf("openapi: operation %q not found", operationID)
	}

	schema := requestSchema(operation.RequestBody)
	if schema == nil {
		return model.FormModel{}, fmt.Errorf("openapi: operation %q has no request body schema", operationID)
	}

	form := model.FormModel{Name: operationID}
	if operation.Summary != "" {
		form.Metadata = map[string]string{"summary": operation.Summary}
	}
	form.Fields = a.objectFields(schema)
	return form, nil
}

func findOperation(doc *openapi3.T, operationID string) *openapi3.Operation {
	if doc.Paths == nil {
		return nil
	}
	for _, item := range doc.Paths.Map() {
		if item == nil {
			continue
		}
		for _, operation := range item.Operations() {
			if operation != nil && operation.OperationID == operationID {
				return operation
			}
		}
	}
	return nil
}

func requestSchema(body *openapi3.RequestBodyRef) *openapi3.Schema {
	if body == nil || body.Value == nil {
		return nil
	}
	content := body.Value.Content
	for _, mediaType := range []string{"application/json", "application/x-www-form-urlencoded", "multipart/form-data"} {
		if mt, ok := content[mediaType]; ok && mt.Schema != nil {
			return mt.Schema.Value
		}
	}
	for _, mt := range content {
		if mt.Schema != nil {
			return mt.Schema.Value
		}
	}
	return nil
}

// objectFields converts an object schema's properties, sorted by name for
// deterministic output, honouring the schema's required list.
func (a *Adapter) objectFields(schema *openapi3.Schema) []model.Field {
	if schema == nil || len(schema.Properties) == 0 {
		return nil
	}

	required := make(map[string]struct{}, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = struct{}{}
	}

	names := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]model.Field, 0, len(names))
	for _, name := range names {
		ref := schema.Properties[name]
		if ref == nil || ref.Value == nil {
			continue
		}
		_, isRequired := required[name]
		fields = append(fields, a.field(name, ref.Value, isRequired))
	}
	return fields
}

func (a *Adapter) field(name string, schema *openapi3.Schema, required bool) model.Field {
	field := model.Field{
		Key:      name,
		Label:    a.labeler(name),
		HelpText: schema.Description,
		Default:  schema.Default,
	}

	switch {
	case typeIs(schema, "object"):
		// Inline objects flatten as groups so nested keys stay addressable.
		field.Type = model.FieldTypeGroup
		field.Fields = a.objectFields(schema)
	case typeIs(schema, "array"):
		a.arrayField(&field, schema)
	default:
		a.primitiveField(&field, schema)
	}

	field.Validators = validators(schema, required, field.Type)
	return field
}

func (a *Adapter) arrayField(field *model.Field, schema *openapi3.Schema) {
	items := schema.Items
	if items != nil && items.Value != nil && typeIs(items.Value, "object") {
		field.Type = model.FieldTypeGroup
		field.Fields = a.objectFields(items.Value)
		return
	}

	field.Type = model.FieldTypeMultiSelect
	if items != nil && items.Value != nil && len(items.Value.Enum) > 0 {
		field.Options = enumOptions(items.Value.Enum)
	}
}

func (a *Adapter) primitiveField(field *model.Field, schema *openapi3.Schema) {
	if len(schema.Enum) > 0 {
		field.Type = model.FieldTypeSelect
		field.Options = enumOptions(schema.Enum)
		return
	}

	switch {
	case typeIs(schema, "integer"), typeIs(schema, "number"):
		field.Type = model.FieldTypeNumber
	case typeIs(schema, "boolean"):
		field.Type = model.FieldTypeCheckbox
	default:
		switch strings.ToLower(schema.Format) {
		case "date", "date-time":
			field.Type = model.FieldTypeDate
		default:
			field.Type = model.FieldTypeText
		}
	}
}

// validators maps schema constraints onto the rule bag. Numeric bounds feed
// Min/Max for number fields; length bounds feed the same rule names for text
// fields, matching the engine's shared min/max semantics.
func validators(schema *openapi3.Schema, required bool, fieldType model.FieldType) *model.Validators {
	rules := model.Validators{Required: required}
	present := required

	switch fieldType {
	case model.FieldTypeNumber:
		if schema.Min != nil {
			v := *schema.Min
			rules.Min = &v
			present = true
		}
		if schema.Max != nil {
			v := *schema.Max
			rules.Max = &v
			present = true
		}
	case model.FieldTypeGroup, model.FieldTypeMultiSelect:
		if schema.MinItems != 0 {
			v := int(schema.MinItems)
			rules.MinItems = &v
			present = true
		}
		if schema.MaxItems != nil {
			v := int(*schema.MaxItems)
			rules.MaxItems = &v
			present = true
		}
	default:
		if schema.MinLength != 0 {
			v := float64(schema.MinLength)
			rules.Min = &v
			present = true
		}
		if schema.MaxLength != nil {
			v := float64(*schema.MaxLength)
			rules.Max = &v
			present = true
		}
		if schema.Pattern != "" {
			rules.Pattern = schema.Pattern
			present = true
		}
	}

	if !present {
		return nil
	}
	return &rules
}

func enumOptions(values []any) []model.Option {
	options := make([]model.Option, 0, len(values))
	for _, value := range values {
		options = append(options, model.Option{Value: value, Label: fmt.Sprint(value)})
	}
	return options
}

func typeIs(schema *openapi3.Schema, name string) bool {
	return schema.Type != nil && schema.Type.Is(name)
}
