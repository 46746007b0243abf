package openapi_test

import (
	"context"
	"strings"
	"testing"

	"github.com/goliatone/go-formconf/pkg/model"
	"github.com/goliatone/go-formconf/pkg/openapi"
)

const petstoreDoc = `{
  "openapi": "3.0.3",
  "info": {"title": "accounts", "version": "1.0.0"},
  "paths": {
    "/accounts": {
      "post": {
        "operationId": "createAccount",
        "summary": "Create an account",
        "requestBody": {
          "content": {
            "application/json": {
              "schema": {
                "type": "object",
                "required": ["email", "age"],
                "properties": {
                  "email": {
                    "type": "string",
                    "description": "Primary contact address",
                    "minLength": 3,
                    "maxLength": 120,
                    "pattern": "^[^@]+@[^@]+$"
                  },
                  "age": {
                    "type": "integer",
                    "minimum": 18,
                    "maximum": 120
                  },
                  "newsletter": {"type": "boolean"},
                  "birthday": {"type": "string", "format": "date"},
                  "plan": {
                    "type": "string",
                    "enum": ["free", "pro"],
                    "default": "free"
                  },
                  "tags": {
                    "type": "array",
                    "maxItems": 5,
                    "items": {"type": "string", "enum": ["beta", "vip"]}
                  },
                  "contacts": {
                    "type": "array",
                    "items": {
                      "type": "object",
                      "required": ["kind"],
                      "properties": {
                        "kind": {"type": "string"},
                        "detail": {"type": "string"}
                      }
                    }
                  }
                }
              }
            }
          }
        },
        "responses": {"201": {"description": "created"}}
      }
    }
  }
}`

func loadForm(t *testing.T) model.FormModel {
	t.Helper()
	form, err := openapi.New().FormModel(context.Background(), []byte(petstoreDoc), "createAccount")
	if err != nil {
		t.Fatalf("FormModel failed: %v", err)
	}
	return form
}

func fieldByKey(t *testing.T, fields []model.Field, key string) model.Field {
	t.Helper()
	for _, field := range fields {
		if field.Key == key {
			return field
		}
	}
	t.Fatalf("field %q not found in %d fields", key, len(fields))
	return model.Field{}
}

func TestFormModelShape(t *testing.T) {
	t.Parallel()

	form := loadForm(t)
	if form.Name != "createAccount" {
		t.Fatalf("unexpected form name %q", form.Name)
	}
	if form.Metadata["summary"] != "Create an account" {
		t.Fatalf("expected operation summary in metadata, got %+v", form.Metadata)
	}
	if len(form.Fields) != 7 {
		t.Fatalf("expected seven fields, got %d", len(form.Fields))
	}

	// Properties are emitted sorted by name.
	for i := 1; i < len(form.Fields); i++ {
		if form.Fields[i-1].Key > form.Fields[i].Key {
			t.Fatalf("fields not sorted: %q before %q", form.Fields[i-1].Key, form.Fields[i].Key)
		}
	}
}

func TestStringConstraints(t *testing.T) {
	t.Parallel()

	email := fieldByKey(t, loadForm(t).Fields, "email")
	if email.Type != model.FieldTypeText {
		t.Fatalf("unexpected type %q", email.Type)
	}
	if email.Label != "Email" {
		t.Fatalf("unexpected label %q", email.Label)
	}
	if email.HelpText != "Primary contact address" {
		t.Fatalf("unexpected help text %q", email.HelpText)
	}
	v := email.Validators
	if v == nil || !v.Required || v.Min == nil || *v.Min != 3 || v.Max == nil || *v.Max != 120 {
		t.Fatalf("unexpected validators: %+v", v)
	}
	if !strings.Contains(v.Pattern, "@") {
		t.Fatalf("pattern not carried: %q", v.Pattern)
	}
}

func TestNumericConstraints(t *testing.T) {
	t.Parallel()

	age := fieldByKey(t, loadForm(t).Fields, "age")
	if age.Type != model.FieldTypeNumber {
		t.Fatalf("unexpected type %q", age.Type)
	}
	v := age.Validators
	if v == nil || !v.Required || v.Min == nil || *v.Min != 18 || v.Max == nil || *v.Max != 120 {
		t.Fatalf("unexpected validators: %+v", v)
	}
}

func TestPrimitiveMappings(t *testing.T) {
	t.Parallel()

	fields := loadForm(t).Fields

	if got := fieldByKey(t, fields, "newsletter").Type; got != model.FieldTypeCheckbox {
		t.Fatalf("boolean mapped to %q", got)
	}
	if got := fieldByKey(t, fields, "birthday").Type; got != model.FieldTypeDate {
		t.Fatalf("date-formatted string mapped to %q", got)
	}

	plan := fieldByKey(t, fields, "plan")
	if plan.Type != model.FieldTypeSelect {
		t.Fatalf("enum mapped to %q", plan.Type)
	}
	if len(plan.Options) != 2 || plan.Options[0].Label != "free" {
		t.Fatalf("unexpected enum options: %+v", plan.Options)
	}
	if plan.Default != "free" {
		t.Fatalf("default not carried: %v", plan.Default)
	}
}

func TestArrayMappings(t *testing.T) {
	t.Parallel()

	fields := loadForm(t).Fields

	tags := fieldByKey(t, fields, "tags")
	if tags.Type != model.FieldTypeMultiSelect {
		t.Fatalf("scalar array mapped to %q", tags.Type)
	}
	if len(tags.Options) != 2 {
		t.Fatalf("item enum not carried: %+v", tags.Options)
	}
	if tags.Validators == nil || tags.Validators.MaxItems == nil || *tags.Validators.MaxItems != 5 {
		t.Fatalf("maxItems not carried: %+v", tags.Validators)
	}

	contacts := fieldByKey(t, fields, "contacts")
	if contacts.Type != model.FieldTypeGroup {
		t.Fatalf("object array mapped to %q", contacts.Type)
	}
	if len(contacts.Fields) != 2 {
		t.Fatalf("nested fields missing: %+v", contacts.Fields)
	}
	kind := fieldByKey(t, contacts.Fields, "kind")
	if kind.Validators == nil || !kind.Validators.Required {
		t.Fatalf("nested required not honoured: %+v", kind.Validators)
	}
}

func TestCustomLabeler(t *testing.T) {
	t.Parallel()

	adapter := openapi.New(openapi.WithLabeler(strings.ToUpper))
	form, err := adapter.FormModel(context.Background(), []byte(petstoreDoc), "createAccount")
	if err != nil {
		t.Fatalf("FormModel failed: %v", err)
	}
	if got := fieldByKey(t, form.Fields, "email").Label; got != "EMAIL" {
		t.Fatalf("labeler not applied: %q", got)
	}
}

func TestErrors(t *testing.T) {
	t.Parallel()

	adapter := openapi.New()

	if _, err := adapter.FormModel(context.Background(), nil, "createAccount"); err == nil {
		t.Fatalf("expected error for empty payload")
	}
	if _, err := adapter.FormModel(context.Background(), []byte("{"), "createAccount"); err == nil {
		t.Fatalf("expected error for malformed document")
	}
	if _, err := adapter.FormModel(context.Background(), []byte(petstoreDoc), "deleteAccount"); err == nil {
		t.Fatalf("expected error for unknown operation")
	}
}
