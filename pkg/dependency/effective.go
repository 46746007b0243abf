package dependency

import (
	"fmt"

	"github.com/goliatone/go-formconf/pkg/config"
	"github.com/goliatone/go-formconf/pkg/model"
)

// Effective merges a resolution's overrides into the base descriptor and
// projects the resolved visibility and disabled state onto it. The merge is
// pure: the input field is cloned, never mutated, so it can be recomputed
// freely on every value change.
func Effective(field config.ConfiguredField, res Resolution) config.ConfiguredField {
	out := field
	out.Field = field.Field.Clone()

	for key, value := range res.Overrides {
		applyOverride(&out.Field, key, value)
	}

	out.Hidden = !res.Visible
	out.Disabled = res.Disabled
	return out
}

func applyOverride(field *model.Field, key string, value any) {
	switch key {
	case model.OverrideLabel:
		if label, ok := value.(string); ok {
			field.Label = label
		}
	case model.OverridePlaceholder:
		if placeholder, ok := value.(string); ok {
			field.Placeholder = placeholder
		}
	case model.OverrideHelpText:
		if help, ok := value.(string); ok {
			field.HelpText = help
		}
	case model.OverrideDefault:
		field.Default = value
	case model.OverrideOptions:
		if options := coerceOptions(value); options != nil {
			field.Options = options
		}
	default:
		if field.Metadata == nil {
			field.Metadata = make(map[string]string)
		}
		field.Metadata[key] = fmt.Sprint(value)
	}
}

func coerceOptions(value any) []model.Option {
	switch typed := value.(type) {
	case []model.Option:
		return append([]model.Option(nil), typed...)
	case []any:
		out := make([]model.Option, 0, len(typed))
		for _, item := range typed {
			switch opt := item.(type) {
			case model.Option:
				out = append(out, opt)
			case map[string]any:
				label, _ := opt["label"].(string)
				out = append(out, model.Option{Value: opt["value"], Label: label})
			default:
				out = append(out, model.Option{Value: item, Label: fmt.Sprint(item)})
			}
		}
		return out
	default:
		return nil
	}
}
