package validator

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrymomot/formqc/pkg/schema"
	"github.com/dmitrymomot/formqc/pkg/value"
)

// previousRecord fetches (and casts) the participant's most recent prior
// visit. Results for unfiltered default-order fetches are cached per
// primary-key value for the duration of the record. A nil record with a nil
// error means no prior visit exists.
func (v *Validator) previousRecord(ctx context.Context, field, orderBy string, ignoreEmpty []string) (Record, error) {
	if v.ds == nil {
		return nil, fmt.Errorf("%w: cannot validate temporal rules for %s", ErrNoDatastore, field)
	}
	if v.pk == "" {
		return nil, fmt.Errorf("%w: cannot validate temporal rules for %s", ErrNoPrimaryKey, field)
	}

	pkVal, ok := v.record[v.pk]
	if !ok || pkVal.IsNull() {
		v.AddError(Error{
			Field:     field,
			Rule:      "temporalrules",
			Value:     value.Null().String(),
			Message:   fmt.Sprintf("primary key variable %s not set in current visit data", v.pk),
			RuleIndex: -1,
		})
		return nil, nil
	}

	cacheable := orderBy == "" && len(ignoreEmpty) == 0
	if cacheable {
		if prev, ok := v.prevCache[pkVal.String()]; ok {
			return prev, nil
		}
	}

	prev, err := v.ds.GetPreviousRecord(ctx, orderBy, v.record, ignoreEmpty)
	if err != nil {
		return nil, errors.Join(ErrDatastore, err)
	}
	if prev != nil {
		prev, _ = v.castRecord(prev)
	}
	if cacheable {
		v.prevCache[pkVal.String()] = prev
	}
	return prev, nil
}

// validateTemporalRules evaluates the longitudinal constraints declared for
// a field: a condition clause on one visit gates a consequence clause on
// the other. With no prior visit the constraint is a no-op.
func (v *Validator) validateTemporalRules(ctx context.Context, field string, fs *schema.FieldSchema, val value.Value) error {
	ruleNo := 0
	for _, c := range fs.TemporalRules {
		if c.Index >= 0 {
			ruleNo = c.Index
		} else {
			ruleNo++
		}

		prev, err := v.previousRecord(ctx, field, c.OrderBy, c.IgnoreEmpty)
		if err != nil {
			return err
		}
		if prev == nil {
			continue
		}

		// Default order: the previous-visit clause is the condition, the
		// current-visit clause the consequence. swap_order flips both.
		condSchema, condOp, condRec := c.Previous, c.PrevOp, prev
		consSchema, consOp, consRec := c.Current, c.CurrOp, v.record
		condVisit, consVisit := "previous", "current"
		if c.SwapOrder {
			condSchema, condOp, condRec, consSchema, consOp, consRec = consSchema, consOp, consRec, condSchema, condOp, condRec
			condVisit, consVisit = "current", "previous"
		}

		condOK, _, err := v.checkSubschema(ctx, condSchema, condOp, condRec)
		if err != nil {
			return err
		}
		if !condOK {
			continue
		}

		_, consErrs, err := v.checkSubschema(ctx, consSchema, consOp, consRec)
		if err != nil {
			return err
		}

		for _, inner := range consErrs {
			condDesc, _ := condSchema.Field(inner.Field)
			desc := condSchema.Describe()
			if condDesc != nil {
				desc = condDesc.Describe()
			}
			v.AddError(Error{
				Field:      field,
				Rule:       "temporalrules",
				Constraint: fmt.Sprintf("%s in %s visit", desc, condVisit),
				Value:      val.String(),
				Message: fmt.Sprintf("('%s', ['%s']) in %s visit for %s in %s visit - temporal rule no: %d",
					inner.Field, inner.Message, consVisit, desc, condVisit, ruleNo),
				RuleIndex: ruleNo,
				Causes:    Errors{inner},
			})
		}
	}
	return nil
}
