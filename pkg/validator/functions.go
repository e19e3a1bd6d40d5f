package validator

import (
	"context"
	"fmt"

	"github.com/dmitrymomot/formqc/pkg/jsonlogic"
	"github.com/dmitrymomot/formqc/pkg/schema"
	"github.com/dmitrymomot/formqc/pkg/value"
)

// RuleFunc is a named validation function invokable through the function
// rule. Implementations report findings via v.AddError; a non-nil return is
// a system fault.
type RuleFunc func(ctx context.Context, v *Validator, field string, val value.Value, args map[string]any) error

// validateCheckWith dispatches the check_with rule. Only the rxnorm check
// is defined today.
func (v *Validator) validateCheckWith(ctx context.Context, field string, fs *schema.FieldSchema, val value.Value) error {
	if fs.CheckWith != "rxnorm" {
		return nil
	}

	// Blank or 0 means no RXCUI code was assigned.
	num, ok := val.Number()
	if !ok || num == 0 {
		return nil
	}
	if v.ds == nil {
		return fmt.Errorf("%w: cannot validate RXNORM codes for %s", ErrNoDatastore, field)
	}
	valid, err := v.ds.IsValidRxcui(ctx, int64(num))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDatastore, err)
	}
	if !valid {
		v.AddError(Error{
			Field:     field,
			Rule:      "check_with",
			Value:     val.String(),
			Message:   fmt.Sprintf("drug ID %s is not a valid RXCUI", val),
			RuleIndex: -1,
		})
	}
	return nil
}

func (v *Validator) validateFunction(ctx context.Context, field string, fs *schema.FieldSchema, val value.Value) error {
	fc := fs.Function
	if fc == nil {
		return nil
	}
	fn, ok := v.functions[fc.Name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownFunction, fc.Name)
	}
	return fn(ctx, v, field, val, fc.Args)
}

// scoreVariables counts correct (or incorrect) answers against a scoring
// key, records the total in the score side table, and checks the declared
// logic formula against it. Any missing or blank key field skips the check.
func scoreVariables(_ context.Context, v *Validator, field string, val value.Value, args map[string]any) error {
	mode, _ := args["mode"].(string)
	if mode == "" {
		mode = "correct"
	}
	if mode != "correct" && mode != "incorrect" {
		return fmt.Errorf("score_variables for %s: unsupported mode %q", field, mode)
	}
	scoringKey, ok := args["scoring_key"].(map[string]any)
	if !ok || len(scoringKey) == 0 {
		return fmt.Errorf("score_variables for %s: scoring_key is required", field)
	}
	logicArg, ok := args["logic"].(map[string]any)
	if !ok {
		return fmt.Errorf("score_variables for %s: logic is required", field)
	}
	formula, ok := logicArg["formula"]
	if !ok {
		return fmt.Errorf("score_variables for %s: logic formula is required", field)
	}
	storeAs, _ := args["store_as"].(string)
	if storeAs == "" {
		storeAs = "__total_sum"
	}

	record := v.Record()
	for key := range scoringKey {
		if item, ok := record[key]; !ok || item.IsNull() {
			v.log.Warn("field not present or blank, skipping score validation",
				"field", key, "scored_field", field)
			return nil
		}
	}

	total := int64(0)
	for key, want := range scoringKey {
		correct := value.Equal(record[key], value.FromAny(want))
		if (correct && mode == "correct") || (!correct && mode == "incorrect") {
			total++
		}
	}
	v.scores[storeAs] = value.Int(total)

	data := v.logicContext()
	data[storeAs] = value.Int(total)
	result, err := jsonlogic.Apply(formula, data)
	if err != nil {
		return fmt.Errorf("score_variables for %s: %w", field, err)
	}
	if !value.Truthy(result) {
		msg, _ := logicArg["errmsg"].(string)
		if msg == "" {
			msg = fmt.Sprintf("incorrect score %s, computed total %d", val, total)
		}
		v.AddError(Error{
			Field:     field,
			Rule:      "function",
			Value:     val.String(),
			Message:   msg,
			RuleIndex: -1,
		})
	}
	return nil
}

// checkADCID validates a center identifier against the datastore; args may
// carry own=false to accept any known center rather than the submitter's.
func checkADCID(ctx context.Context, v *Validator, field string, val value.Value, args map[string]any) error {
	own := true
	if o, ok := args["own"].(bool); ok {
		own = o
	}
	num, ok := val.Number()
	if !ok {
		v.AddError(Error{
			Field:     field,
			Rule:      "function",
			Value:     val.String(),
			Message:   fmt.Sprintf("provided ADCID %s is not a number", val),
			RuleIndex: -1,
		})
		return nil
	}
	if v.ds == nil {
		return fmt.Errorf("%w: cannot validate ADCID for %s", ErrNoDatastore, field)
	}
	valid, err := v.ds.IsValidADCID(ctx, int64(num), own)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDatastore, err)
	}
	if !valid {
		msg := fmt.Sprintf("provided ADCID %s is not in the valid list of ADCIDs", val)
		if own {
			msg = fmt.Sprintf("provided ADCID %s does not match your center's ADCID", val)
		}
		v.AddError(Error{
			Field:     field,
			Rule:      "function",
			Value:     val.String(),
			Message:   msg,
			RuleIndex: -1,
		})
	}
	return nil
}
