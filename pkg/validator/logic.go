package validator

import (
	"fmt"

	"github.com/dmitrymomot/formqc/pkg/jsonlogic"
	"github.com/dmitrymomot/formqc/pkg/schema"
	"github.com/dmitrymomot/formqc/pkg/value"
)

// validateLogic evaluates the field's JSON-logic formula against the
// current record. Interpreter failures (unknown operator, division by zero)
// are system faults, not validation findings.
func (v *Validator) validateLogic(field string, fs *schema.FieldSchema, val value.Value) error {
	l := fs.Logic
	if l == nil {
		return nil
	}

	result, err := jsonlogic.Apply(l.Formula, v.logicContext())
	if err != nil {
		return fmt.Errorf("logic rule for %s: %w", field, err)
	}
	if value.Truthy(result) {
		return nil
	}

	msg := l.ErrMsg
	if msg == "" {
		msg = fmt.Sprintf("value %s does not satisfy the specified formula", val)
	}
	v.AddError(Error{
		Field:      field,
		Rule:       "logic",
		Constraint: fmt.Sprintf("%v", l.Formula),
		Value:      val.String(),
		Message:    msg,
		RuleIndex:  -1,
	})
	return nil
}

// logicContext exposes the record plus any computed score totals to
// formulas, so score_variables results stay referenceable.
func (v *Validator) logicContext() jsonlogic.Record {
	data := make(jsonlogic.Record, len(v.record)+len(v.scores))
	for k, val := range v.record {
		data[k] = val
	}
	for k, val := range v.scores {
		data[k] = val
	}
	return data
}
