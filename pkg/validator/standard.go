package validator

import (
	"context"
	"fmt"

	"github.com/dmitrymomot/formqc/pkg/schema"
	"github.com/dmitrymomot/formqc/pkg/value"
)

func (v *Validator) checkType(field string, fs *schema.FieldSchema, val value.Value) {
	if len(fs.Types) == 0 {
		return
	}
	for _, tag := range fs.Types {
		if kindMatches(tag, val) {
			return
		}
	}
	v.AddError(Error{
		Field:      field,
		Rule:       "type",
		Constraint: fs.Types[0],
		Value:      val.String(),
		Message:    fmt.Sprintf("must be of %s type", fs.Types[0]),
		RuleIndex:  -1,
	})
}

func kindMatches(tag string, val value.Value) bool {
	switch tag {
	case "integer":
		return val.Kind() == value.KindInt
	case "float":
		// Integer values satisfy a float field.
		return val.IsNumeric()
	case "string":
		return val.Kind() == value.KindString
	case "bool":
		return val.Kind() == value.KindBool
	case "date":
		if val.Kind() == value.KindDate {
			return true
		}
		_, ok := val.AsDate()
		return ok
	case "list":
		return val.Kind() == value.KindList
	}
	return false
}

func (v *Validator) checkAllowed(field string, fs *schema.FieldSchema, val value.Value) {
	if len(fs.Allowed) == 0 {
		return
	}
	for _, allowed := range fs.Allowed {
		if value.Equal(val, allowed) {
			return
		}
	}
	v.AddError(Error{
		Field:      field,
		Rule:       "allowed",
		Constraint: schema.Single(field, fs).Describe(),
		Value:      val.String(),
		Message:    fmt.Sprintf("unallowed value %s", val),
		RuleIndex:  -1,
	})
}

func (v *Validator) checkForbidden(field string, fs *schema.FieldSchema, val value.Value) {
	for _, forbidden := range fs.Forbidden {
		if value.Equal(val, forbidden) {
			v.AddError(Error{
				Field:      field,
				Rule:       "forbidden",
				Constraint: schema.Single(field, fs).Describe(),
				Value:      val.String(),
				Message:    fmt.Sprintf("unallowed value %s", val),
				RuleIndex:  -1,
			})
			return
		}
	}
}

func (v *Validator) checkBounds(field string, fs *schema.FieldSchema, val value.Value) {
	if fs.Min != nil {
		v.checkBound(field, fs, val, fs.Min, false)
	}
	if fs.Max != nil {
		v.checkBound(field, fs, val, fs.Max, true)
	}
}

func (v *Validator) checkBound(field string, fs *schema.FieldSchema, val value.Value, bound *schema.Bound, isMax bool) {
	rule, comparator, direction := "min", ">=", "less"
	if isMax {
		rule, comparator, direction = "max", "<=", "greater"
	}

	limit := bound.Literal
	switch bound.Keyword {
	case schema.KeywordCurrentDate:
		limit = value.Date(v.now())
	case schema.KeywordCurrentYear:
		limit = value.Int(int64(v.now().Year()))
	case schema.KeywordCurrentMonth:
		limit = value.Int(int64(v.now().Month()))
	case schema.KeywordCurrentDay:
		limit = value.Int(int64(v.now().Day()))
	}

	compareVal := val
	// A string field marked as formatted date text compares on the date
	// axis, not lexically.
	if fs.Formatting != "" {
		if t, ok := val.AsDate(); ok {
			compareVal = value.Date(t)
		}
		if t, ok := limit.AsDate(); ok {
			limit = value.Date(t)
		}
	}

	ok, err := value.Compare(comparator, compareVal, limit)
	if err != nil {
		v.AddError(Error{
			Field:      field,
			Rule:       rule,
			Constraint: bound.Describe(),
			Value:      val.String(),
			Message:    fmt.Sprintf("%s comparison error - %v", rule, err),
			RuleIndex:  -1,
		})
		return
	}
	if ok {
		return
	}

	msg := fmt.Sprintf("%s value is %s", rule, bound.Describe())
	switch bound.Keyword {
	case schema.KeywordCurrentDate:
		msg = fmt.Sprintf("cannot be %s than current date %s", direction, limit)
	case schema.KeywordCurrentYear:
		msg = fmt.Sprintf("cannot be %s than current year %s", direction, limit)
	}
	v.AddError(Error{
		Field:      field,
		Rule:       rule,
		Constraint: bound.Describe(),
		Value:      val.String(),
		Message:    msg,
		RuleIndex:  -1,
	})
}

func (v *Validator) checkRegex(field string, fs *schema.FieldSchema, val value.Value) {
	if fs.Regex == nil {
		return
	}
	s, ok := val.Str()
	if !ok {
		// Non-string values are the type rule's problem.
		return
	}
	if !fs.Regex.Re.MatchString(s) {
		v.AddError(Error{
			Field:      field,
			Rule:       "regex",
			Constraint: fs.Regex.Raw,
			Value:      val.String(),
			Message:    fmt.Sprintf("value does not match regex '%s'", fs.Regex.Raw),
			RuleIndex:  -1,
		})
	}
}

func (v *Validator) checkFilled(field string, fs *schema.FieldSchema, val value.Value) {
	if fs.Filled == nil {
		return
	}
	if *fs.Filled && val.IsNull() {
		v.AddError(Error{Field: field, Rule: "filled", Value: val.String(), Message: "cannot be empty", RuleIndex: -1})
	}
	if !*fs.Filled && !val.IsNull() {
		v.AddError(Error{Field: field, Rule: "filled", Value: val.String(), Message: "must be empty", RuleIndex: -1})
	}
}

// checkAnyOf passes when any branch of the anyof list validates the field.
func (v *Validator) checkAnyOf(ctx context.Context, field string, fs *schema.FieldSchema, val value.Value) error {
	if len(fs.AnyOf) == 0 {
		return nil
	}
	var causes Errors
	for _, branch := range fs.AnyOf {
		branchErrs, err := v.child(schema.Single(field, branch)).Validate(ctx, v.record)
		if err != nil {
			return err
		}
		if len(branchErrs) == 0 {
			return nil
		}
		causes = append(causes, branchErrs...)
	}
	v.AddError(Error{
		Field:     field,
		Rule:      "anyof",
		Value:     val.String(),
		Message:   "no definitions validate",
		RuleIndex: -1,
		Causes:    causes,
	})
	return nil
}
