package schema

import (
	"regexp"

	"github.com/dmitrymomot/formqc/pkg/value"
)

// TypeTags enumerates the accepted values of the "type" rule.
var TypeTags = []string{"integer", "float", "string", "bool", "date", "list"}

// Clock keywords accepted by min/max bounds and compare_with bases.
const (
	KeywordCurrentDate  = "current_date"
	KeywordCurrentYear  = "current_year"
	KeywordCurrentMonth = "current_month"
	KeywordCurrentDay   = "current_day"
)

// Schema is an ordered mapping from field name to the field's rule set.
// Field iteration order follows the order of the source document, which in
// turn fixes the order of reported errors.
type Schema struct {
	fields []string
	byName map[string]*FieldSchema
}

// Fields returns field names in source order.
func (s *Schema) Fields() []string { return s.fields }

// Field looks up the rule set for a field.
func (s *Schema) Field(name string) (*FieldSchema, bool) {
	fs, ok := s.byName[name]
	return fs, ok
}

// Len returns the number of fields.
func (s *Schema) Len() int { return len(s.fields) }

func (s *Schema) add(name string, fs *FieldSchema) {
	if s.byName == nil {
		s.byName = make(map[string]*FieldSchema)
	}
	if _, exists := s.byName[name]; !exists {
		s.fields = append(s.fields, name)
	}
	s.byName[name] = fs
}

// FieldSchema is the typed form of one field's rule mapping. Nil pointers
// and empty slices mean the rule is absent.
type FieldSchema struct {
	Types     []string
	Required  bool
	Nullable  bool
	Allowed   []value.Value
	Forbidden []value.Value
	Min       *Bound
	Max       *Bound
	Regex     *Pattern
	AnyOf     []*FieldSchema
	Filled    *bool

	// Formatting marks a string field as carrying date or datetime text so
	// min/max bounds gain date semantics.
	Formatting string

	Meta *Meta

	CompareWith   *CompareWith
	CompareAge    *CompareAge
	Compatibility []*CompatConstraint
	Logic         *Logic
	TemporalRules []*TemporalConstraint
	ComputeGDS    []string
	CheckWith     string
	Function      *FunctionCall
}

// Bound is a min/max constraint: either a literal value or one of the clock
// keywords resolved at evaluation time.
type Bound struct {
	Keyword string // one of the Keyword* constants, or empty
	Literal value.Value
}

// Pattern is a compiled, anchored regex rule. Raw keeps the source text for
// error messages.
type Pattern struct {
	Raw string
	Re  *regexp.Regexp
}

// Meta carries per-field metadata; ErrMsg overrides the formatted message
// for standard-rule failures on the field.
type Meta struct {
	ErrMsg string
}

// CompareWith is the argument of the compare_with rule:
//
//	field {comparator} (base {op} adjustment)
//	abs(field - base) {comparator} adjustment   (op == "abs")
//
// Base and Adjustment resolve at evaluation time: clock keyword, then field
// name, then literal.
type CompareWith struct {
	Comparator string
	Base       value.Value
	Adjustment value.Value // null when absent
	Op         string      // "+", "-", "*", "/", "abs", or empty

	PreviousRecord    bool
	IgnoreEmpty       bool
	IgnoreEmptyFields []string
}

// CompareAge is the argument of the compare_age rule. Birth components are
// field names or literals; absent month/day default to 1.
type CompareAge struct {
	Comparator string
	BirthYear  value.Value
	BirthMonth value.Value // null when absent
	BirthDay   value.Value // null when absent
	CompareTo  []value.Value
}

// CompatConstraint is one if/then/else compatibility constraint. Clause
// operators are "AND" or "OR"; Else may be nil.
type CompatConstraint struct {
	Index  int // explicit index from the rule file, or -1
	IfOp   string
	ThenOp string
	ElseOp string
	If     *Schema
	Then   *Schema
	Else   *Schema
}

// TemporalConstraint is one previous/current temporal constraint. A
// top-level orderby on the temporalrules block is normalized into each
// constraint at parse time.
type TemporalConstraint struct {
	Index       int // explicit index from the rule file, or -1
	PrevOp      string
	CurrOp      string
	Previous    *Schema
	Current     *Schema
	IgnoreEmpty []string
	SwapOrder   bool
	OrderBy     string
}

// Logic is the argument of the logic rule: a JSON-logic formula tree plus an
// optional custom failure message.
type Logic struct {
	Formula any
	ErrMsg  string
}

// FunctionCall names a registered validation function and its arguments.
type FunctionCall struct {
	Name string
	Args map[string]any
}
