package modelfile_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-formconf/pkg/model"
	"github.com/goliatone/go-formconf/pkg/modelfile"
)

const signupDoc = `
name: signup
fields:
  - key: email
    type: text
    label: "<b>Email</b> address"
    helpText: "We never <i>share</i> it"
    validators:
      required: true
      pattern: "^[^@]+@[^@]+$"
  - key: newsletter
    type: checkbox
    label: Newsletter
  - key: frequency
    type: select
    label: Frequency
    hidden: true
    options:
      - value: daily
        label: "<em>Daily</em>"
      - value: weekly
        label: Weekly
    dependencies:
      - field: newsletter
        when: "value == true"
        overrides:
          hidden: false
  - key: address
    type: group
    fields:
      - key: city
        type: text
        label: City
`

func TestDecode(t *testing.T) {
	t.Parallel()

	loader := modelfile.New()
	form, err := loader.Decode([]byte(signupDoc))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if form.Name != "signup" {
		t.Fatalf("unexpected form name %q", form.Name)
	}
	if len(form.Fields) != 4 {
		t.Fatalf("expected four fields, got %d", len(form.Fields))
	}

	email := form.Fields[0]
	if email.Label != "Email address" {
		t.Fatalf("expected label markup stripped, got %q", email.Label)
	}
	if email.HelpText != "We never share it" {
		t.Fatalf("expected help text markup stripped, got %q", email.HelpText)
	}
	if !email.Validators.Required || email.Validators.Pattern == "" {
		t.Fatalf("validators not decoded: %+v", email.Validators)
	}

	frequency := form.Fields[2]
	if frequency.Options[0].Label != "Daily" {
		t.Fatalf("expected option label markup stripped, got %q", frequency.Options[0].Label)
	}
	rule := frequency.Dependencies[0]
	if rule.Condition == nil {
		t.Fatalf("expected rule string compiled into a condition")
	}
	if !rule.Condition(true) || rule.Condition(false) {
		t.Fatalf("compiled condition misbehaved")
	}
	if hidden, ok := rule.Overrides[model.OverrideHidden].(bool); !ok || hidden {
		t.Fatalf("expected hidden:false override, got %+v", rule.Overrides)
	}

	address := form.Fields[3]
	if address.Type != model.FieldTypeGroup || len(address.Fields) != 1 {
		t.Fatalf("nested group not decoded: %+v", address)
	}
}

func TestDecodeErrors(t *testing.T) {
	t.Parallel()

	loader := modelfile.New()

	cases := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{"empty payload", "", "empty"},
		{"invalid yaml", "fields: [", "decode"},
		{"missing key", "fields:\n  - type: text\n", "has no key"},
		{"missing type", "fields:\n  - key: email\n", "has no type"},
		{"nested missing type", "fields:\n  - key: address\n    type: group\n    fields:\n      - key: city\n", `"address.city" has no type`},
		{"bad rule", "fields:\n  - key: a\n    type: text\n    dependencies:\n      - field: b\n        when: \"value = 1\"\n", "dependency"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := loader.Decode([]byte(tc.doc))
			if err == nil {
				t.Fatalf("expected error for %s", tc.name)
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error %q does not mention %q", err, tc.wantErr)
			}
		})
	}
}

func TestLoadFromFS(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"forms/signup.yaml": &fstest.MapFile{Data: []byte(signupDoc)},
	}

	loader := modelfile.New(modelfile.WithFS(fsys))
	form, err := loader.Load(context.Background(), modelfile.SourceFromFS("forms/signup.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if form.Name != "signup" {
		t.Fatalf("unexpected form name %q", form.Name)
	}

	if _, err := loader.Load(context.Background(), modelfile.SourceFromFS("forms/missing.yaml")); err == nil {
		t.Fatalf("expected error for missing document")
	}
}

func TestLoadFromURL(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "missing.yaml") {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(signupDoc))
	}))
	defer server.Close()

	loader := modelfile.New(modelfile.WithHTTPClient(server.Client()))
	form, err := loader.Load(context.Background(), modelfile.SourceFromURL(server.URL+"/signup.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if form.Name != "signup" {
		t.Fatalf("unexpected form name %q", form.Name)
	}

	if _, err := loader.Load(context.Background(), modelfile.SourceFromURL(server.URL+"/missing.yaml")); err == nil {
		t.Fatalf("expected error for HTTP failure status")
	}

	bare := modelfile.New()
	if _, err := bare.Load(context.Background(), modelfile.SourceFromURL(server.URL)); err == nil {
		t.Fatalf("expected URL sources to be rejected without a client")
	}
}

func TestLoadNilSource(t *testing.T) {
	t.Parallel()

	if _, err := modelfile.New().Load(context.Background(), nil); err == nil {
		t.Fatalf("expected error for nil source")
	}
}

func TestSourceFromURLPanicsOnGarbage(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for invalid URL")
		}
	}()
	modelfile.SourceFromURL("://nope")
}
