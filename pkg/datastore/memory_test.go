package datastore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/formqc/pkg/datastore"
	"github.com/dmitrymomot/formqc/pkg/value"
)

func visit(pt string, num int64, fields map[string]value.Value) datastore.Record {
	rec := datastore.Record{"ptid": value.String(pt), "visitnum": value.Int(num)}
	for k, v := range fields {
		rec[k] = v
	}
	return rec
}

func TestMemoryGetPreviousRecord(t *testing.T) {
	t.Parallel()

	store := datastore.NewMemory("ptid", "visitnum")
	store.Add(
		visit("p1", 1, map[string]value.Value{"taxes": value.Int(0)}),
		visit("p1", 3, map[string]value.Value{"taxes": value.Int(1)}),
		visit("p1", 2, map[string]value.Value{"taxes": value.Int(8)}),
		visit("p2", 9, map[string]value.Value{"taxes": value.Int(5)}),
	)

	t.Run("picks the latest strictly earlier visit", func(t *testing.T) {
		prev, err := store.GetPreviousRecord(context.Background(), "", visit("p1", 4, nil), nil)
		require.NoError(t, err)
		require.NotNil(t, prev)
		assert.True(t, value.Equal(prev["visitnum"], value.Int(3)))
	})

	t.Run("strictly earlier excludes the same visit", func(t *testing.T) {
		prev, err := store.GetPreviousRecord(context.Background(), "", visit("p1", 1, nil), nil)
		require.NoError(t, err)
		assert.Nil(t, prev)
	})

	t.Run("participants do not mix", func(t *testing.T) {
		prev, err := store.GetPreviousRecord(context.Background(), "", visit("p2", 10, nil), nil)
		require.NoError(t, err)
		require.NotNil(t, prev)
		assert.True(t, value.Equal(prev["taxes"], value.Int(5)))
	})

	t.Run("ignore-empty filter skips blank visits", func(t *testing.T) {
		s := datastore.NewMemory("ptid", "visitnum")
		s.Add(
			visit("p1", 1, map[string]value.Value{"cogstat": value.Int(1)}),
			visit("p1", 2, map[string]value.Value{"cogstat": value.Null()}),
		)
		prev, err := s.GetPreviousRecord(context.Background(), "", visit("p1", 3, nil), []string{"cogstat"})
		require.NoError(t, err)
		require.NotNil(t, prev)
		assert.True(t, value.Equal(prev["visitnum"], value.Int(1)))
	})

	t.Run("order field override", func(t *testing.T) {
		s := datastore.NewMemory("ptid", "visitnum")
		s.Add(
			visit("p1", 5, map[string]value.Value{"visitdate": value.String("2024-01-10")}),
			visit("p1", 6, map[string]value.Value{"visitdate": value.String("2023-06-01")}),
		)
		prev, err := s.GetPreviousRecord(context.Background(), "visitdate",
			visit("p1", 7, map[string]value.Value{"visitdate": value.String("2024-02-01")}), nil)
		require.NoError(t, err)
		require.NotNil(t, prev)
		assert.True(t, value.Equal(prev["visitnum"], value.Int(5)), "latest by visitdate, not visitnum")
	})

	t.Run("missing primary key errors", func(t *testing.T) {
		_, err := store.GetPreviousRecord(context.Background(), "", datastore.Record{"visitnum": value.Int(2)}, nil)
		assert.ErrorIs(t, err, datastore.ErrNoPrimaryKey)
	})

	t.Run("returned record is a copy", func(t *testing.T) {
		prev, err := store.GetPreviousRecord(context.Background(), "", visit("p1", 4, nil), nil)
		require.NoError(t, err)
		prev["taxes"] = value.Int(99)

		again, err := store.GetPreviousRecord(context.Background(), "", visit("p1", 4, nil), nil)
		require.NoError(t, err)
		assert.True(t, value.Equal(again["taxes"], value.Int(1)))
	})
}

func TestMemoryCodeLookups(t *testing.T) {
	t.Parallel()

	store := datastore.NewMemory("ptid", "visitnum")
	store.AddRxcui(100, 200)
	store.AddADCID(42, true)
	store.AddADCID(7, false)

	ok, err := store.IsValidRxcui(context.Background(), 100)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.IsValidRxcui(context.Background(), 300)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = store.IsValidADCID(context.Background(), 42, true)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.IsValidADCID(context.Background(), 7, true)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = store.IsValidADCID(context.Background(), 7, false)
	require.NoError(t, err)
	assert.True(t, ok)
}
