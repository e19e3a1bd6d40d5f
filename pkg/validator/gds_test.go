package validator_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/formqc/pkg/validator"
	"github.com/dmitrymomot/formqc/pkg/value"
)

// gdsRules declares the 15 scale items plus the total field.
func gdsRules(t *testing.T) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("ptid:\n  type: string\n  required: true\n")
	b.WriteString("nogds:\n  type: integer\n  nullable: true\n")
	for i := 1; i <= 15; i++ {
		fmt.Fprintf(&b, "gds%d:\n  type: integer\n  nullable: true\n  allowed: [0, 1]\n", i)
	}
	b.WriteString("gds:\n  type: integer\n  nullable: true\n  compute_gds:\n")
	for i := 1; i <= 15; i++ {
		fmt.Fprintf(&b, "    - gds%d\n", i)
	}
	return b.String()
}

// gdsRecord answers the first `answered` items, `ones` of them with 1.
func gdsRecord(total int64, answered, ones int) validator.Record {
	rec := validator.Record{
		"ptid": value.String("a"),
		"gds":  value.Int(total),
	}
	for i := 1; i <= 15; i++ {
		switch {
		case i <= ones:
			rec[fmt.Sprintf("gds%d", i)] = value.Int(1)
		case i <= answered:
			rec[fmt.Sprintf("gds%d", i)] = value.Int(0)
		default:
			rec[fmt.Sprintf("gds%d", i)] = value.Null()
		}
	}
	return rec
}

func TestComputeGDS(t *testing.T) {
	t.Parallel()

	t.Run("all answered, exact sum", func(t *testing.T) {
		v := newValidator(t, gdsRules(t))
		errs, err := v.Validate(context.Background(), gdsRecord(8, 15, 8))
		require.NoError(t, err)
		assert.Empty(t, errs)
	})

	t.Run("all answered, wrong sum", func(t *testing.T) {
		v := newValidator(t, gdsRules(t))
		errs, err := v.Validate(context.Background(), gdsRecord(9, 15, 8))
		require.NoError(t, err)
		assert.Equal(t, []string{"incorrect GDS score 9, expected value 8"}, errs.ByField()["gds"])
	})

	t.Run("one unanswered prorates half-up", func(t *testing.T) {
		// 14 answered, sum 8: round(15*8/14) = round(8.571) = 9.
		v := newValidator(t, gdsRules(t))
		errs, err := v.Validate(context.Background(), gdsRecord(9, 14, 8))
		require.NoError(t, err)
		assert.Empty(t, errs)

		errs, err = v.Validate(context.Background(), gdsRecord(8, 14, 8))
		require.NoError(t, err)
		assert.Equal(t, []string{"incorrect GDS score 8, expected value 9"}, errs.ByField()["gds"])
	})

	t.Run("exact half rounds up by default", func(t *testing.T) {
		// 12 answered, sum 2: 15*2/12 = 2.5 -> 3 half-up.
		v := newValidator(t, gdsRules(t))
		errs, err := v.Validate(context.Background(), gdsRecord(3, 12, 2))
		require.NoError(t, err)
		assert.Empty(t, errs)
	})

	t.Run("half-even mode for regression comparisons", func(t *testing.T) {
		v := newValidator(t, gdsRules(t), validator.WithGDSRounding(validator.RoundHalfEven))
		errs, err := v.Validate(context.Background(), gdsRecord(2, 12, 2))
		require.NoError(t, err)
		assert.Empty(t, errs, "15*2/12 = 2.5 rounds to even 2")
	})

	t.Run("more than three unanswered is invalid", func(t *testing.T) {
		v := newValidator(t, gdsRules(t))
		errs, err := v.Validate(context.Background(), gdsRecord(5, 11, 5))
		require.NoError(t, err)
		assert.Equal(t, []string{"at least 12 questions need to have valid scores"}, errs.ByField()["gds"])
	})

	t.Run("nogds pins the total to 88", func(t *testing.T) {
		v := newValidator(t, gdsRules(t))
		rec := gdsRecord(88, 0, 0)
		rec["nogds"] = value.Int(1)
		errs, err := v.Validate(context.Background(), rec)
		require.NoError(t, err)
		assert.Empty(t, errs)

		rec = gdsRecord(10, 0, 0)
		rec["nogds"] = value.Int(1)
		errs, err = v.Validate(context.Background(), rec)
		require.NoError(t, err)
		assert.Contains(t, errs.ByField()["gds"][0], "should be 88")
	})
}
