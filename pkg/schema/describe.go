package schema

import (
	"fmt"
	"strings"

	"github.com/dmitrymomot/formqc/pkg/value"
)

// Single wraps one field's rule set as a standalone schema, the shape
// nested clause checks validate against.
func Single(field string, fs *FieldSchema) *Schema {
	s := &Schema{}
	s.add(field, fs)
	return s
}

// Describe renders the schema compactly for error messages:
// {field: {rule: arg, ...}, ...}.
func (s *Schema) Describe() string {
	parts := make([]string, 0, len(s.fields))
	for _, f := range s.fields {
		parts = append(parts, f+": "+s.byName[f].Describe())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Describe renders the rule set compactly for error messages.
func (fs *FieldSchema) Describe() string {
	var parts []string
	add := func(rule, arg string) { parts = append(parts, rule+": "+arg) }

	if len(fs.Types) == 1 {
		add("type", fs.Types[0])
	} else if len(fs.Types) > 1 {
		add("type", "["+strings.Join(fs.Types, ", ")+"]")
	}
	if fs.Required {
		add("required", "true")
	}
	if fs.Nullable {
		add("nullable", "true")
	}
	if len(fs.Allowed) > 0 {
		add("allowed", describeValues(fs.Allowed))
	}
	if len(fs.Forbidden) > 0 {
		add("forbidden", describeValues(fs.Forbidden))
	}
	if fs.Min != nil {
		add("min", fs.Min.Describe())
	}
	if fs.Max != nil {
		add("max", fs.Max.Describe())
	}
	if fs.Regex != nil {
		add("regex", fs.Regex.Raw)
	}
	if fs.Filled != nil {
		add("filled", fmt.Sprintf("%v", *fs.Filled))
	}
	if fs.CompareWith != nil {
		add("compare_with", fmt.Sprintf("{comparator: %s, base: %s}", fs.CompareWith.Comparator, fs.CompareWith.Base))
	}
	if fs.Logic != nil {
		add("logic", fmt.Sprintf("{formula: %v}", fs.Logic.Formula))
	}
	if len(fs.Compatibility) > 0 {
		add("compatibility", fmt.Sprintf("[%d constraints]", len(fs.Compatibility)))
	}
	if len(fs.TemporalRules) > 0 {
		add("temporalrules", fmt.Sprintf("[%d constraints]", len(fs.TemporalRules)))
	}
	if len(parts) == 0 {
		return "{}"
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Describe renders a bound for error messages.
func (b *Bound) Describe() string {
	if b.Keyword != "" {
		return b.Keyword
	}
	return b.Literal.String()
}

func describeValues(vals []value.Value) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = v.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
