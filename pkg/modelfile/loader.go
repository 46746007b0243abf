// Package modelfile loads declarative form-model documents from files,
// fs.FS entries, or HTTP endpoints and decodes them into model.FormModel
// values. Documents are YAML (JSON is accepted as a YAML subset); dependency
// rule strings under `when:` are compiled into conditions at load time, and
// labels and help text are stripped of markup.
package modelfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"gopkg.in/yaml.v3"

	internalloader "github.com/goliatone/go-formconf/internal/modelfile/loader"
	"github.com/goliatone/go-formconf/pkg/condition/expr"
	"github.com/goliatone/go-formconf/pkg/model"
)

// Option customises the loader.
type Option func(*Loader)

// WithFS supplies the fs.FS consulted for SourceKindFS sources.
func WithFS(fsys fs.FS) Option {
	return func(l *Loader) {
		l.fs = fsys
	}
}

// WithHTTPClient enables SourceKindURL sources using the supplied client.
// URL sources are rejected unless a client is configured.
func WithHTTPClient(client *http.Client) Option {
	return func(l *Loader) {
		l.http = client
	}
}

// WithRequestTimeout bounds HTTP document fetches.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(l *Loader) {
		l.timeout = timeout
	}
}

// WithSanitizer overrides the policy applied to labels and help text.
func WithSanitizer(policy *bluemonday.Policy) Option {
	return func(l *Loader) {
		if policy != nil {
			l.sanitizer = policy
		}
	}
}

// Loader fetches and decodes form-model documents.
type Loader struct {
	fs        fs.FS
	http      *http.Client
	timeout   time.Duration
	sanitizer *bluemonday.Policy
}

// New constructs a Loader applying the provided options.
func New(options ...Option) *Loader {
	l := &Loader{sanitizer: bluemonday.StrictPolicy()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(l)
	}
	return l
}

// Load fetches the document identified by src and decodes it.
func (l *Loader) Load(ctx context.Context, src Source) (model.FormModel, error) {
	if src == nil {
		return model.FormModel{}, errors.New("modelfile: source is nil")
	}

	var (
		data []byte
		err  error
	)
	switch src.Kind() {
	case SourceKindFile:
		data, err = internalloader.File(ctx, src.Location())
	case SourceKindFS:
		data, err = internalloader.FS(ctx, l.fs, src.Location())
	case SourceKindURL:
		if l.http == nil {
			return model.FormModel{}, errors.New("modelfile: http support disabled")
		}
		data, err = internalloader.HTTP(ctx, l.http, src.Location(), l.timeout)
	default:
		err = fmt.Errorf("modelfile: unsupported source kind %q", src.Kind())
	}
	if err != nil {
		return model.FormModel{}, err
	}

	return l.Decode(data)
}

// Decode parses a document payload into a form model, compiling rule strings
// and sanitising presentation text.
func (l *Loader) Decode(data []byte) (model.FormModel, error) {
	if len(data) == 0 {
		return model.FormModel{}, errors.New("modelfile: document payload is empty")
	}

	var form model.FormModel
	if err := yaml.Unmarshal(data, &form); err != nil {
		return model.FormModel{}, fmt.Errorf("modelfile: decode document: %w", err)
	}

	if err := l.prepareFields(form.Fields, ""); err != nil {
		return model.FormModel{}, err
	}
	return form, nil
}

func (l *Loader) prepareFields(fields []model.Field, parent string) error {
	for i := range fields {
		field := &fields[i]
		at := field.Key
		if parent != "" {
			at = parent + "." + field.Key
		}

		if strings.TrimSpace(field.Key) == "" {
			return fmt.Errorf("modelfile: field %d under %q has no key", i, parent)
		}
		if field.Type == "" {
			return fmt.Errorf("modelfile: field %q has no type", at)
		}

		field.Label = l.sanitizeText(field.Label)
		field.HelpText = l.sanitizeText(field.HelpText)
		for j := range field.Options {
			field.Options[j].Label = l.sanitizeText(field.Options[j].Label)
		}

		for j := range field.Dependencies {
			rule := &field.Dependencies[j]
			if rule.Condition != nil {
				continue
			}
			cond, err := expr.Compile(rule.When)
			if err != nil {
				return fmt.Errorf("modelfile: field %q dependency %d: %w", at, j, err)
			}
			rule.Condition = cond
		}

		if err := l.prepareFields(field.Fields, at); err != nil {
			return err
		}
	}
	return nil
}

func (l *Loader) sanitizeText(raw string) string {
	if raw == "" {
		return ""
	}
	return strings.TrimSpace(l.sanitizer.Sanitize(raw))
}
