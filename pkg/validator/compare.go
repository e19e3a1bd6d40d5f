package validator

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dmitrymomot/formqc/pkg/schema"
	"github.com/dmitrymomot/formqc/pkg/value"
)

// validateCompareWith checks the field against a base value (clock keyword,
// another field, a prior-visit field, or a literal), optionally adjusted:
//
//	field {comparator} (base {op} adjustment)
//	abs(field - base) {comparator} adjustment
func (v *Validator) validateCompareWith(ctx context.Context, field string, fs *schema.FieldSchema, val value.Value) error {
	cw := fs.CompareWith
	if cw == nil {
		return nil
	}

	baseName, _ := cw.Base.Str()
	baseStr := cw.Base.String()
	if cw.PreviousRecord {
		baseStr += " (previous record)"
	}
	comparison := fmt.Sprintf("%s %s %s", field, cw.Comparator, baseStr)
	if cw.Op == "abs" {
		comparison = fmt.Sprintf("abs(%s - %s) %s %s", field, baseStr, cw.Comparator, cw.Adjustment)
	} else if cw.Op != "" {
		comparison += fmt.Sprintf(" %s %s", cw.Op, cw.Adjustment)
	}

	fail := func() {
		v.AddError(Error{
			Field:      field,
			Rule:       "compare_with",
			Constraint: comparison,
			Value:      val.String(),
			Message:    fmt.Sprintf("input value doesn't satisfy the condition %s", comparison),
			RuleIndex:  -1,
		})
	}

	var baseVal value.Value
	if cw.PreviousRecord {
		ignoreEmpty := cw.IgnoreEmptyFields
		if cw.IgnoreEmpty && len(ignoreEmpty) == 0 && baseName != "" {
			ignoreEmpty = []string{baseName}
		}
		prev, err := v.previousRecord(ctx, field, "", ignoreEmpty)
		if err != nil {
			return err
		}
		if prev == nil {
			if cw.IgnoreEmpty {
				// No qualifying prior visit: nothing to compare against.
				return nil
			}
			v.AddError(Error{
				Field:      field,
				Rule:       "compare_with",
				Constraint: comparison,
				Value:      val.String(),
				Message:    fmt.Sprintf("failed to retrieve record for previous visit, cannot proceed with validation %s", comparison),
				RuleIndex:  -1,
			})
			return nil
		}
		baseVal = prev[baseName]
	} else {
		baseVal = v.resolveKey(cw.Base)
	}

	if baseVal.IsNull() {
		fail()
		return nil
	}

	compared, adjusted := val, baseVal
	if cw.Op != "" {
		adj := v.resolveKey(cw.Adjustment)
		valNum, valOK := compared.Number()
		baseNum, baseOK := baseVal.Number()
		adjNum, adjOK := adj.Number()
		// Date operands work through the abs form as day differences.
		if cw.Op == "abs" {
			if vt, ok := val.AsDate(); ok {
				if bt, ok := baseVal.AsDate(); ok {
					valNum, valOK = daysBetween(vt, bt), true
					baseNum, baseOK = 0, true
				}
			}
		}
		if !valOK && cw.Op == "abs" || !baseOK || !adjOK {
			fail()
			return nil
		}
		switch cw.Op {
		case "+":
			adjusted = value.Float(baseNum + adjNum)
		case "-":
			adjusted = value.Float(baseNum - adjNum)
		case "*":
			adjusted = value.Float(baseNum * adjNum)
		case "/":
			if adjNum == 0 {
				return fmt.Errorf("compare_with for %s: division by zero in adjustment", field)
			}
			adjusted = value.Float(baseNum / adjNum)
		case "abs":
			compared = value.Float(math.Abs(valNum - baseNum))
			adjusted = adj
		}
	}

	ok, err := value.Compare(cw.Comparator, compared, adjusted)
	if err != nil || !ok {
		fail()
	}
	return nil
}

func daysBetween(a, b time.Time) float64 {
	return a.Sub(b).Hours() / 24
}

// validateCompareAge compares the participant's age at the field's date
// against one or more thresholds (literals or fields; the smallest resolved
// threshold wins).
func (v *Validator) validateCompareAge(field string, fs *schema.FieldSchema, val value.Value) error {
	ca := fs.CompareAge
	if ca == nil {
		return nil
	}
	if val.IsNull() {
		return nil
	}

	fieldDate, ok := val.AsDate()
	if !ok {
		v.AddError(Error{
			Field:     field,
			Rule:      "compare_age",
			Value:     val.String(),
			Message:   fmt.Sprintf("failed to convert value %s to a date", val),
			RuleIndex: -1,
		})
		return nil
	}

	targets := make([]string, len(ca.CompareTo))
	for i, t := range ca.CompareTo {
		targets[i] = t.String()
	}
	comparison := fmt.Sprintf("age at %s %s %s", field, ca.Comparator, strings.Join(targets, ", "))

	birth, ok := v.birthDate(ca)
	if !ok {
		// A malformed birth date is a rule-definition or data-entry problem
		// on other fields; this rule reports it out of band and passes.
		v.warn(fmt.Sprintf("compare_age for %s: cannot construct a valid birth date", field))
		return nil
	}

	age := fieldDate.Sub(birth).Hours() / 24 / 365.25

	minTarget := math.Inf(1)
	resolved := false
	for _, target := range ca.CompareTo {
		num, ok := v.resolveKey(target).Number()
		if !ok {
			v.AddError(Error{
				Field:     field,
				Rule:      "compare_age",
				Value:     val.String(),
				Message:   fmt.Sprintf("error in comparing %s to age at %s (%.2f)", target, field, age),
				RuleIndex: -1,
			})
			continue
		}
		resolved = true
		minTarget = math.Min(minTarget, num)
	}
	if !resolved {
		return nil
	}

	ok, err := value.Compare(ca.Comparator, value.Float(age), value.Float(minTarget))
	if err != nil || !ok {
		v.AddError(Error{
			Field:      field,
			Rule:       "compare_age",
			Constraint: comparison,
			Value:      val.String(),
			Message:    fmt.Sprintf("input value %.2f doesn't satisfy the condition: %s", age, comparison),
			RuleIndex:  -1,
		})
	}
	return nil
}

func (v *Validator) birthDate(ca *schema.CompareAge) (time.Time, bool) {
	year, ok := v.resolveKey(ca.BirthYear).Number()
	if !ok || year < 1 {
		return time.Time{}, false
	}
	month, day := 1.0, 1.0
	if !ca.BirthMonth.IsNull() {
		if month, ok = v.resolveKey(ca.BirthMonth).Number(); !ok {
			return time.Time{}, false
		}
	}
	if !ca.BirthDay.IsNull() {
		if day, ok = v.resolveKey(ca.BirthDay).Number(); !ok {
			return time.Time{}, false
		}
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	return time.Date(int(year), time.Month(month), int(day), 0, 0, 0, 0, time.UTC), true
}
