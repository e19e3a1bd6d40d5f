package validator_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/formqc/pkg/datastore"
	"github.com/dmitrymomot/formqc/pkg/validator"
	"github.com/dmitrymomot/formqc/pkg/value"
)

const taxesRules = `
ptid:
  type: string
  required: true
visitnum:
  type: integer
taxes:
  type: integer
  temporalrules:
    - previous:
        taxes: {allowed: [0]}
      current:
        taxes: {forbidden: [8]}
`

func taxesStore(t *testing.T, prevTaxes int64) *datastore.Memory {
	t.Helper()
	store := datastore.NewMemory("ptid", "visitnum")
	store.Add(datastore.Record{
		"ptid":     value.String("p1"),
		"visitnum": value.Int(1),
		"taxes":    value.Int(prevTaxes),
	})
	return store
}

func TestTemporalRules(t *testing.T) {
	t.Parallel()

	t.Run("consequence satisfied", func(t *testing.T) {
		v := newValidator(t, taxesRules, validator.WithDatastore(taxesStore(t, 0)))
		errs, err := v.Validate(context.Background(), validator.Record{
			"ptid": value.String("p1"), "visitnum": value.Int(2), "taxes": value.Int(1),
		})
		require.NoError(t, err)
		assert.Empty(t, errs)
	})

	t.Run("consequence violated", func(t *testing.T) {
		v := newValidator(t, taxesRules, validator.WithDatastore(taxesStore(t, 0)))
		errs, err := v.Validate(context.Background(), validator.Record{
			"ptid": value.String("p1"), "visitnum": value.Int(2), "taxes": value.Int(8),
		})
		require.NoError(t, err)
		msgs := errs.ByField()["taxes"]
		require.Len(t, msgs, 1)
		assert.Contains(t, msgs[0], "unallowed value 8")
		assert.Contains(t, msgs[0], "in previous visit")
		assert.Contains(t, msgs[0], "temporal rule no: 1")
	})

	t.Run("condition not met in previous visit", func(t *testing.T) {
		v := newValidator(t, taxesRules, validator.WithDatastore(taxesStore(t, 5)))
		errs, err := v.Validate(context.Background(), validator.Record{
			"ptid": value.String("p1"), "visitnum": value.Int(2), "taxes": value.Int(8),
		})
		require.NoError(t, err)
		assert.Empty(t, errs, "previous visit did not satisfy the condition clause")
	})

	t.Run("no prior visit is a no-op", func(t *testing.T) {
		v := newValidator(t, taxesRules, validator.WithDatastore(datastore.NewMemory("ptid", "visitnum")))
		errs, err := v.Validate(context.Background(), validator.Record{
			"ptid": value.String("p9"), "visitnum": value.Int(1), "taxes": value.Int(8),
		})
		require.NoError(t, err)
		assert.Empty(t, errs)
	})

	t.Run("no datastore is a system error", func(t *testing.T) {
		v := newValidator(t, taxesRules)
		_, err := v.Validate(context.Background(), validator.Record{
			"ptid": value.String("p1"), "visitnum": value.Int(2), "taxes": value.Int(1),
		})
		assert.ErrorIs(t, err, validator.ErrNoDatastore)
	})
}

func TestTemporalRulesSwapOrder(t *testing.T) {
	t.Parallel()

	rules := `
ptid:
  type: string
  required: true
visitnum:
  type: integer
diag:
  type: integer
  temporalrules:
    - swap_order: true
      previous:
        diag: {forbidden: [0]}
      current:
        diag: {allowed: [1]}
`

	store := datastore.NewMemory("ptid", "visitnum")
	store.Add(datastore.Record{
		"ptid": value.String("p1"), "visitnum": value.Int(1), "diag": value.Int(0),
	})
	v := newValidator(t, rules, validator.WithDatastore(store))

	t.Run("current condition met, previous violated", func(t *testing.T) {
		errs, err := v.Validate(context.Background(), validator.Record{
			"ptid": value.String("p1"), "visitnum": value.Int(2), "diag": value.Int(1),
		})
		require.NoError(t, err)
		msgs := errs.ByField()["diag"]
		require.Len(t, msgs, 1)
		assert.Contains(t, msgs[0], "in previous visit for")
		assert.Contains(t, msgs[0], "in current visit")
	})

	t.Run("current condition not met", func(t *testing.T) {
		errs, err := v.Validate(context.Background(), validator.Record{
			"ptid": value.String("p1"), "visitnum": value.Int(2), "diag": value.Int(2),
		})
		require.NoError(t, err)
		assert.Empty(t, errs)
	})
}

func TestTemporalRulesIgnoreEmpty(t *testing.T) {
	t.Parallel()

	rules := `
ptid:
  type: string
  required: true
visitnum:
  type: integer
cogstat:
  type: integer
  nullable: true
  temporalrules:
    - ignore_empty: cogstat
      previous:
        cogstat: {allowed: [1]}
      current:
        cogstat: {forbidden: [3]}
`

	t.Run("skips visits with the field blank", func(t *testing.T) {
		store := datastore.NewMemory("ptid", "visitnum")
		store.Add(
			datastore.Record{"ptid": value.String("p1"), "visitnum": value.Int(1), "cogstat": value.Int(1)},
			datastore.Record{"ptid": value.String("p1"), "visitnum": value.Int(2), "cogstat": value.Null()},
		)
		v := newValidator(t, rules, validator.WithDatastore(store))

		// Visit 2 is blank, so visit 1 is the previous non-empty record and
		// its cogstat=1 arms the constraint.
		errs, err := v.Validate(context.Background(), validator.Record{
			"ptid": value.String("p1"), "visitnum": value.Int(3), "cogstat": value.Int(3),
		})
		require.NoError(t, err)
		assert.Contains(t, errs.ByField(), "cogstat")
	})

	t.Run("no qualifying prior visit passes", func(t *testing.T) {
		store := datastore.NewMemory("ptid", "visitnum")
		store.Add(datastore.Record{
			"ptid": value.String("p1"), "visitnum": value.Int(1), "cogstat": value.Null(),
		})
		v := newValidator(t, rules, validator.WithDatastore(store))

		errs, err := v.Validate(context.Background(), validator.Record{
			"ptid": value.String("p1"), "visitnum": value.Int(2), "cogstat": value.Int(3),
		})
		require.NoError(t, err)
		assert.Empty(t, errs)
	})
}

func TestTemporalRulesDatastoreFailure(t *testing.T) {
	t.Parallel()

	v := newValidator(t, taxesRules, validator.WithDatastore(failingStore{}))
	_, err := v.Validate(context.Background(), validator.Record{
		"ptid": value.String("p1"), "visitnum": value.Int(2), "taxes": value.Int(1),
	})
	assert.ErrorIs(t, err, validator.ErrDatastore)
}

// failingStore simulates a broken warehouse connection.
type failingStore struct{}

func (failingStore) GetPreviousRecord(context.Context, string, datastore.Record, []string) (datastore.Record, error) {
	return nil, errors.New("connection reset")
}

func (failingStore) IsValidRxcui(context.Context, int64) (bool, error) {
	return false, errors.New("connection reset")
}

func (failingStore) IsValidADCID(context.Context, int64, bool) (bool, error) {
	return false, errors.New("connection reset")
}
