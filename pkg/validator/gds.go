package validator

import (
	"fmt"
	"math"

	"github.com/dmitrymomot/formqc/pkg/schema"
	"github.com/dmitrymomot/formqc/pkg/value"
)

// validateComputeGDS checks a Geriatric Depression Scale total against the
// 15 item fields. Unanswered items prorate the score; more than three
// unanswered items invalidate the scale.
func (v *Validator) validateComputeGDS(field string, fs *schema.FieldSchema, val value.Value) {
	keys := fs.ComputeGDS
	if len(keys) == 0 {
		return
	}

	fail := func(msg string) {
		v.AddError(Error{
			Field:     field,
			Rule:      "compute_gds",
			Value:     val.String(),
			Message:   msg,
			RuleIndex: -1,
		})
	}

	answered, sum := 0, 0
	for _, key := range keys {
		item := v.record[key]
		if value.Equal(item, value.Int(0)) {
			answered++
		} else if value.Equal(item, value.Int(1)) {
			answered++
			sum++
		}
	}

	// nogds=1 marks the scale as not attempted: the total is pinned to 88
	// and most items must be blank.
	if value.Equal(v.record["nogds"], value.Int(1)) {
		if !value.Equal(val, value.Int(88)) {
			fail("if GDS not attempted (nogds=1), total GDS score should be 88")
		}
		if answered >= 12 {
			fail("if GDS not attempted (nogds=1), there cannot be >=12 questions with valid scores")
		}
		return
	}

	unanswered := len(keys) - answered
	if unanswered > 3 {
		fail(fmt.Sprintf("at least %d questions need to have valid scores", len(keys)-3))
		return
	}

	score := sum
	if unanswered > 0 {
		score = v.roundScore(float64(len(keys)) * float64(sum) / float64(answered))
	}

	if !value.Equal(val, value.Int(int64(score))) {
		fail(fmt.Sprintf("incorrect GDS score %s, expected value %d", val, score))
	}
}

func (v *Validator) roundScore(x float64) int {
	if v.gdsRounding == RoundHalfEven {
		return int(math.RoundToEven(x))
	}
	return int(math.Floor(x + 0.5))
}
