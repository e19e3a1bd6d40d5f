package validator

import (
	"context"
	"fmt"

	"github.com/dmitrymomot/formqc/pkg/schema"
	"github.com/dmitrymomot/formqc/pkg/value"
)

// checkSubschema runs a clause (field -> rules mapping) against a record
// through a fresh validator per field. With "AND" every field must pass and
// the first failure's findings are returned; with "OR" a single passing
// field clears the clause and findings are only reported when every field
// failed.
func (v *Validator) checkSubschema(ctx context.Context, clause *schema.Schema, op string, rec Record) (bool, Errors, error) {
	var collected Errors
	for _, field := range clause.Fields() {
		fs, _ := clause.Field(field)
		errs, err := v.child(schema.Single(field, fs)).Validate(ctx, rec)
		if err != nil {
			return false, nil, err
		}
		if op == "OR" {
			if len(errs) == 0 {
				return true, nil, nil
			}
			collected = append(collected, errs...)
			continue
		}
		if len(errs) > 0 {
			return false, errs, nil
		}
	}
	if op == "OR" {
		return false, collected, nil
	}
	return true, nil, nil
}

// validateCompatibility evaluates the if/then/else cross-field constraints
// declared for a field against the current record.
func (v *Validator) validateCompatibility(ctx context.Context, field string, fs *schema.FieldSchema, val value.Value) error {
	ruleNo := -1
	for _, c := range fs.Compatibility {
		if c.Index >= 0 {
			ruleNo = c.Index
		} else {
			ruleNo++
		}

		ifOK, _, err := v.checkSubschema(ctx, c.If, c.IfOp, v.record)
		if err != nil {
			return err
		}

		var clauseErrs Errors
		clause := "then"
		clauseSchema := c.Then
		switch {
		case ifOK:
			_, clauseErrs, err = v.checkSubschema(ctx, c.Then, c.ThenOp, v.record)
		case c.Else != nil:
			clause, clauseSchema = "else", c.Else
			_, clauseErrs, err = v.checkSubschema(ctx, c.Else, c.ElseOp, v.record)
		default:
			continue
		}
		if err != nil {
			return err
		}

		for _, inner := range clauseErrs {
			v.AddError(Error{
				Field:      field,
				Rule:       "compatibility",
				Constraint: fmt.Sprintf("if %s %s %s", c.If.Describe(), clause, clauseSchema.Describe()),
				Value:      val.String(),
				Message: fmt.Sprintf("('%s', ['%s']) for if %s %s %s - compatibility rule no: %d",
					inner.Field, inner.Message, c.If.Describe(), clause, clauseSchema.Describe(), ruleNo),
				RuleIndex: ruleNo,
				Causes:    Errors{inner},
			})
		}
	}
	return nil
}
