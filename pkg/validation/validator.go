// Package validation evaluates a field's declarative rule bag against a
// candidate value and produces ordered, human-readable error messages. Rule
// violations are never errors: every public operation returns messages and
// swallows validator faults, so a broken custom rule degrades to a generic
// message instead of taking the form down.
package validation

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-logr/logr"

	"github.com/goliatone/go-formconf/pkg/config"
	"github.com/goliatone/go-formconf/pkg/model"
)

// Option customises the validator.
type Option func(*Validator)

// WithLogger routes warnings about faulty validators to the supplied logger.
func WithLogger(log logr.Logger) Option {
	return func(v *Validator) {
		v.log = log
	}
}

// WithExtensions injects the registry whose ValidateField hooks run against
// configured fields after the declarative rules.
func WithExtensions(extensions *config.Extensions) Option {
	return func(v *Validator) {
		v.extensions = extensions
	}
}

// Validator evaluates field rule bags.
type Validator struct {
	log        logr.Logger
	extensions *config.Extensions
}

// New constructs a Validator applying the provided options.
func New(options ...Option) *Validator {
	v := &Validator{log: logr.Discard()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(v)
	}
	return v
}

// ValidateField evaluates the field's rules against value and returns the
// violations in rule order. An empty value short-circuits: required produces
// exactly one message, and without required the remaining rules are vacuously
// satisfied. All other applicable rule categories run and their messages
// concatenate.
func (v *Validator) ValidateField(field config.ConfiguredField, value any) []string {
	rules := field.Validators
	label := fieldLabel(field.Field)

	var errs []string
	if isEmpty(value) {
		if rules != nil && rules.Required {
			return []string{fmt.Sprintf("%s is required.", label)}
		}
		return nil
	}
	if rules == nil {
		return v.runExtensions(field, value, nil)
	}

	switch typed := value.(type) {
	case string:
		errs = append(errs, v.stringErrors(label, *rules, typed)...)
	default:
		if number, ok := numericValue(value); ok {
			errs = append(errs, numberErrors(label, *rules, number)...)
		} else if count, ok := itemCount(value); ok {
			errs = append(errs, collectionErrors(label, *rules, count)...)
		}
	}

	if rules.Custom != nil {
		errs = append(errs, v.runCustom(label, rules.Custom, value)...)
	}

	return v.runExtensions(field, value, errs)
}

// ValidateAll validates every field against the values snapshot, keyed by
// path. Paths with zero errors are omitted, so a fully valid form yields an
// empty map.
func (v *Validator) ValidateAll(fields []config.ConfiguredField, values map[string]any) map[string][]string {
	out := make(map[string][]string)
	for _, field := range fields {
		errs := v.ValidateField(field, values[field.Path])
		if len(errs) > 0 {
			out[field.Path] = errs
		}
	}
	return out
}

func numberErrors(label string, rules model.Validators, value float64) []string {
	var errs []string
	if rules.Min != nil && value < *rules.Min {
		errs = append(errs, fmt.Sprintf("%s must be at least %s.", label, formatBound(*rules.Min)))
	}
	if rules.Max != nil && value > *rules.Max {
		errs = append(errs, fmt.Sprintf("%s must be at most %s.", label, formatBound(*rules.Max)))
	}
	if rules.DecimalPlaces != nil && decimalPlaces(value) > *rules.DecimalPlaces {
		errs = append(errs, fmt.Sprintf("%s must have at most %d decimal places.", label, *rules.DecimalPlaces))
	}
	return errs
}

// stringErrors applies length and pattern rules, in that order. Min/Max
// reuse the numeric rule names but count characters for string values.
func (v *Validator) stringErrors(label string, rules model.Validators, value string) []string {
	var errs []string
	length := len([]rune(value))
	if rules.Min != nil && length < int(*rules.Min) {
		errs = append(errs, fmt.Sprintf("%s must have at least %d characters.", label, int(*rules.Min)))
	}
	if rules.Max != nil && length > int(*rules.Max) {
		errs = append(errs, fmt.Sprintf("%s must have at most %d characters.", label, int(*rules.Max)))
	}
	if rules.Pattern != "" {
		re, err := regexp.Compile(rules.Pattern)
		if err != nil {
			v.log.Info("validation: invalid pattern", "pattern", rules.Pattern, "error", err.Error())
		} else if !re.MatchString(value) {
			errs = append(errs, fmt.Sprintf("%s format is invalid.", label))
		}
	}
	return errs
}

func collectionErrors(label string, rules model.Validators, count int) []string {
	var errs []string
	if rules.MinItems != nil && count < *rules.MinItems {
		errs = append(errs, fmt.Sprintf("%s must have at least %d items.", label, *rules.MinItems))
	}
	if rules.MaxItems != nil && count > *rules.MaxItems {
		errs = append(errs, fmt.Sprintf("%s must have at most %d items.", label, *rules.MaxItems))
	}
	return errs
}

// runCustom invokes a user-supplied predicate. A panicking predicate is
// logged and converted into a single generic message; the fault never
// propagates.
func (v *Validator) runCustom(label string, custom func(any) []string, value any) (messages []string) {
	defer func() {
		if r := recover(); r != nil {
			v.log.Info("validation: custom validator panicked", "field", label, "panic", fmt.Sprint(r))
			messages = []string{fmt.Sprintf("%s validation failed.", label)}
		}
	}()
	return custom(value)
}

// runExtensions appends messages from registered extension validators. They
// only run for fully configured fields (identity and path assigned); a
// panicking extension is logged and contributes nothing.
func (v *Validator) runExtensions(field config.ConfiguredField, value any, errs []string) []string {
	if !field.Configured() {
		return errs
	}
	for _, ext := range v.extensions.Snapshot() {
		if ext.ValidateField == nil {
			continue
		}
		errs = append(errs, v.runExtension(ext, field, value)...)
	}
	return errs
}

func (v *Validator) runExtension(ext config.Extension, field config.ConfiguredField, value any) (messages []string) {
	defer func() {
		if r := recover(); r != nil {
			v.log.Info("validation: extension validator panicked", "extension", ext.Name, "field", field.Path, "panic", fmt.Sprint(r))
			messages = nil
		}
	}()
	return ext.ValidateField(field, value)
}

func fieldLabel(field model.Field) string {
	if strings.TrimSpace(field.Label) != "" {
		return field.Label
	}
	return field.Key
}

func isEmpty(value any) bool {
	if value == nil {
		return true
	}
	if s, ok := value.(string); ok {
		return s == ""
	}
	return false
}

func numericValue(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}

func itemCount(value any) (int, bool) {
	if items, ok := value.([]any); ok {
		return len(items), true
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		return rv.Len(), true
	}
	return 0, false
}

func decimalPlaces(value float64) int {
	formatted := strconv.FormatFloat(value, 'f', -1, 64)
	if idx := strings.IndexByte(formatted, '.'); idx >= 0 {
		return len(formatted) - idx - 1
	}
	return 0
}

func formatBound(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
