package validator_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/formqc/pkg/jsonlogic"
	"github.com/dmitrymomot/formqc/pkg/validator"
	"github.com/dmitrymomot/formqc/pkg/value"
)

func TestLogicCount(t *testing.T) {
	t.Parallel()

	rules := `
ptid:
  type: string
  required: true
a:
  type: integer
  nullable: true
b:
  type: integer
  nullable: true
c:
  type: integer
  nullable: true
total:
  type: integer
  logic:
    formula:
      "==":
        - var: total
        - count:
            - var: a
            - var: b
            - var: c
`
	v := newValidator(t, rules)

	t.Run("total matches the non-zero count", func(t *testing.T) {
		errs, err := v.Validate(context.Background(), validator.Record{
			"ptid": value.String("a"),
			"total": value.Int(2),
			"a":     value.Int(1),
			"b":     value.Int(0),
			"c":     value.Int(5),
		})
		require.NoError(t, err)
		assert.Empty(t, errs)
	})

	t.Run("total does not match", func(t *testing.T) {
		errs, err := v.Validate(context.Background(), validator.Record{
			"ptid": value.String("a"),
			"total": value.Int(1),
			"a":     value.Int(1),
			"b":     value.Int(1),
			"c":     value.Int(1),
		})
		require.NoError(t, err)
		assert.Equal(t,
			[]string{"value 1 does not satisfy the specified formula"},
			errs.ByField()["total"])
	})
}

func TestLogicCustomMessage(t *testing.T) {
	t.Parallel()

	rules := `
ptid:
  type: string
  required: true
quorum:
  type: integer
  logic:
    errmsg: quorum must be positive
    formula:
      ">": [{var: quorum}, 0]
`
	v := newValidator(t, rules)

	errs, err := v.Validate(context.Background(), validator.Record{
		"ptid": value.String("a"), "quorum": value.Int(0),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"quorum must be positive"}, errs.ByField()["quorum"])
}

func TestLogicNullOrderingConvention(t *testing.T) {
	t.Parallel()

	rules := `
ptid:
  type: string
  required: true
b:
  type: integer
  nullable: true
a:
  type: integer
  nullable: true
  logic:
    errmsg: a must not exceed b
    formula:
      "!":
        - ">": [{var: a}, {var: b}]
`
	v := newValidator(t, rules)

	// A blank b makes the > comparison false, so the negated formula holds;
	// logic-based compatibility rules rely on this convention.
	errs, err := v.Validate(context.Background(), validator.Record{
		"ptid": value.String("x"), "a": value.Int(5), "b": value.Null(),
	})
	require.NoError(t, err)
	assert.Empty(t, errs)
}

func TestLogicSystemErrors(t *testing.T) {
	t.Parallel()

	t.Run("unknown operator", func(t *testing.T) {
		v := newValidator(t, `
ptid:
  type: string
  required: true
f:
  type: integer
  logic:
    formula:
      frobnicate: [1]
`)
		_, err := v.Validate(context.Background(), validator.Record{
			"ptid": value.String("a"), "f": value.Int(1),
		})
		assert.ErrorIs(t, err, jsonlogic.ErrUnknownOperator)
	})

	t.Run("division by zero", func(t *testing.T) {
		v := newValidator(t, `
ptid:
  type: string
  required: true
f:
  type: integer
  logic:
    formula:
      "==": [{var: f}, {"/": [10, {var: zero}]}]
`)
		_, err := v.Validate(context.Background(), validator.Record{
			"ptid": value.String("a"), "f": value.Int(1), "zero": value.Int(0),
		})
		assert.ErrorIs(t, err, jsonlogic.ErrDivisionByZero)
	})
}
