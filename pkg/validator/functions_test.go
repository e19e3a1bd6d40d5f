package validator_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/formqc/pkg/datastore"
	"github.com/dmitrymomot/formqc/pkg/validator"
	"github.com/dmitrymomot/formqc/pkg/value"
)

func TestCheckWithRxnorm(t *testing.T) {
	t.Parallel()

	rules := `
ptid:
  type: string
  required: true
drug:
  type: integer
  nullable: true
  check_with: rxnorm
`

	store := datastore.NewMemory("ptid", "visitnum")
	store.AddRxcui(12345)

	t.Run("valid code", func(t *testing.T) {
		v := newValidator(t, rules, validator.WithDatastore(store))
		errs, err := v.Validate(context.Background(), validator.Record{
			"ptid": value.String("a"), "drug": value.Int(12345),
		})
		require.NoError(t, err)
		assert.Empty(t, errs)
	})

	t.Run("invalid code", func(t *testing.T) {
		v := newValidator(t, rules, validator.WithDatastore(store))
		errs, err := v.Validate(context.Background(), validator.Record{
			"ptid": value.String("a"), "drug": value.Int(999),
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"drug ID 999 is not a valid RXCUI"}, errs.ByField()["drug"])
	})

	t.Run("zero means no code and passes", func(t *testing.T) {
		v := newValidator(t, rules, validator.WithDatastore(store))
		errs, err := v.Validate(context.Background(), validator.Record{
			"ptid": value.String("a"), "drug": value.Int(0),
		})
		require.NoError(t, err)
		assert.Empty(t, errs)
	})

	t.Run("no datastore is a system error", func(t *testing.T) {
		v := newValidator(t, rules)
		_, err := v.Validate(context.Background(), validator.Record{
			"ptid": value.String("a"), "drug": value.Int(12345),
		})
		assert.ErrorIs(t, err, validator.ErrNoDatastore)
	})
}

func TestCheckADCID(t *testing.T) {
	t.Parallel()

	rules := `
ptid:
  type: string
  required: true
adcid:
  type: integer
  function:
    name: check_adcid
oldadcid:
  type: integer
  nullable: true
  function:
    name: check_adcid
    args: {own: false}
`

	store := datastore.NewMemory("ptid", "visitnum")
	store.AddADCID(42, true)
	store.AddADCID(7, false)

	t.Run("own center id", func(t *testing.T) {
		v := newValidator(t, rules, validator.WithDatastore(store))
		errs, err := v.Validate(context.Background(), validator.Record{
			"ptid": value.String("a"), "adcid": value.Int(42),
		})
		require.NoError(t, err)
		assert.Empty(t, errs)
	})

	t.Run("foreign id rejected as own", func(t *testing.T) {
		v := newValidator(t, rules, validator.WithDatastore(store))
		errs, err := v.Validate(context.Background(), validator.Record{
			"ptid": value.String("a"), "adcid": value.Int(7),
		})
		require.NoError(t, err)
		assert.Equal(t,
			[]string{"provided ADCID 7 does not match your center's ADCID"},
			errs.ByField()["adcid"])
	})

	t.Run("any known center accepted when own is false", func(t *testing.T) {
		v := newValidator(t, rules, validator.WithDatastore(store))
		errs, err := v.Validate(context.Background(), validator.Record{
			"ptid": value.String("a"), "adcid": value.Int(42), "oldadcid": value.Int(7),
		})
		require.NoError(t, err)
		assert.Empty(t, errs)
	})
}

func TestScoreVariables(t *testing.T) {
	t.Parallel()

	rules := `
ptid:
  type: string
  required: true
q1:
  type: integer
  nullable: true
q2:
  type: integer
  nullable: true
total:
  type: integer
  nullable: true
  function:
    name: score_variables
    args:
      mode: correct
      scoring_key:
        q1: 1
        q2: 2
      logic:
        formula:
          "==": [{var: __total_sum}, {var: total}]
`

	t.Run("total matches the computed score", func(t *testing.T) {
		v := newValidator(t, rules)
		errs, err := v.Validate(context.Background(), validator.Record{
			"ptid": value.String("a"),
			"q1":   value.Int(1),
			"q2":   value.Int(2),
			"total": value.Int(2),
		})
		require.NoError(t, err)
		assert.Empty(t, errs)
		assert.Equal(t, value.Int(2), v.Scores()["__total_sum"])
	})

	t.Run("total does not match", func(t *testing.T) {
		v := newValidator(t, rules)
		errs, err := v.Validate(context.Background(), validator.Record{
			"ptid": value.String("a"),
			"q1":   value.Int(1),
			"q2":   value.Int(0),
			"total": value.Int(2),
		})
		require.NoError(t, err)
		assert.Contains(t, errs.ByField(), "total")
	})

	t.Run("blank key field skips the check", func(t *testing.T) {
		v := newValidator(t, rules)
		errs, err := v.Validate(context.Background(), validator.Record{
			"ptid": value.String("a"),
			"q1":   value.Null(),
			"q2":   value.Int(2),
			"total": value.Int(99),
		})
		require.NoError(t, err)
		assert.Empty(t, errs)
	})
}

func TestUnknownFunction(t *testing.T) {
	t.Parallel()

	rules := `
ptid:
  type: string
  required: true
f:
  type: integer
  function:
    name: does_not_exist
`
	v := newValidator(t, rules)
	_, err := v.Validate(context.Background(), validator.Record{
		"ptid": value.String("a"), "f": value.Int(1),
	})
	assert.ErrorIs(t, err, validator.ErrUnknownFunction)
}

func TestRegisteredFunction(t *testing.T) {
	t.Parallel()

	rules := `
ptid:
  type: string
  required: true
f:
  type: integer
  function:
    name: always_odd
`
	oddCheck := func(_ context.Context, v *validator.Validator, field string, val value.Value, _ map[string]any) error {
		n, _ := val.Number()
		if int64(n)%2 == 0 {
			v.AddError(validator.Error{Field: field, Rule: "function", Value: val.String(), Message: "value must be odd", RuleIndex: -1})
		}
		return nil
	}

	v := newValidator(t, rules, validator.WithFunction("always_odd", oddCheck))

	errs, err := v.Validate(context.Background(), validator.Record{
		"ptid": value.String("a"), "f": value.Int(3),
	})
	require.NoError(t, err)
	assert.Empty(t, errs)

	errs, err = v.Validate(context.Background(), validator.Record{
		"ptid": value.String("a"), "f": value.Int(4),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"value must be odd"}, errs.ByField()["f"])
}
