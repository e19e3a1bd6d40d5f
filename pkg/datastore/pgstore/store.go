package pgstore

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/formqc/pkg/datastore"
	"github.com/dmitrymomot/formqc/pkg/value"
)

// Store is a PostgreSQL-backed datastore: visit records live as JSONB rows
// keyed by participant, reference codes in plain lookup tables. Safe for
// concurrent use; the pool handles connection sharing.
type Store struct {
	pool    *pgxpool.Pool
	pkField string
	orderBy string
}

// New builds a Store over an established pool, keyed by pkField and
// ordered by orderBy unless a rule overrides the order field per call.
func New(pool *pgxpool.Pool, pkField, orderBy string) *Store {
	return &Store{pool: pool, pkField: pkField, orderBy: orderBy}
}

// SaveRecord inserts a visit record.
func (s *Store) SaveRecord(ctx context.Context, rec datastore.Record) error {
	pk, ok := rec[s.pkField]
	if !ok || pk.IsNull() {
		return datastore.ErrNoPrimaryKey
	}
	payload, err := json.Marshal(toAnyMap(rec))
	if err != nil {
		return errors.Join(ErrQueryFailed, err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO visits (participant, record) VALUES ($1, $2)`,
		pk.String(), payload)
	if err != nil {
		return errors.Join(ErrQueryFailed, err)
	}
	return nil
}

// GetPreviousRecord fetches the participant's visit history and selects the
// most recent record strictly before the current one. Ordering runs through
// the engine's value comparison rather than SQL text ordering so numeric
// and date order fields behave the same as in every other backend.
func (s *Store) GetPreviousRecord(ctx context.Context, orderBy string, current datastore.Record, ignoreEmpty []string) (datastore.Record, error) {
	if orderBy == "" {
		orderBy = s.orderBy
	}
	pk, ok := current[s.pkField]
	if !ok || pk.IsNull() {
		return nil, datastore.ErrNoPrimaryKey
	}

	rows, err := s.pool.Query(ctx,
		`SELECT record FROM visits WHERE participant = $1`, pk.String())
	if err != nil {
		return nil, errors.Join(ErrQueryFailed, err)
	}
	defer rows.Close()

	var candidates []datastore.Record
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, errors.Join(ErrQueryFailed, err)
		}
		var raw map[string]any
		if err := json.Unmarshal(payload, &raw); err != nil {
			return nil, errors.Join(ErrQueryFailed, err)
		}
		candidates = append(candidates, fromAnyMap(raw))
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(ErrQueryFailed, err)
	}

	return datastore.SelectPrevious(candidates, orderBy, current, ignoreEmpty), nil
}

func (s *Store) IsValidRxcui(ctx context.Context, code int64) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM rxnorm_codes WHERE code = $1)`, code).Scan(&exists)
	if err != nil {
		return false, errors.Join(ErrQueryFailed, err)
	}
	return exists, nil
}

func (s *Store) IsValidADCID(ctx context.Context, adcid int64, own bool) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM centers WHERE adcid = $1)`
	if own {
		query = `SELECT EXISTS (SELECT 1 FROM centers WHERE adcid = $1 AND is_own)`
	}
	var exists bool
	if err := s.pool.QueryRow(ctx, query, adcid).Scan(&exists); err != nil {
		return false, errors.Join(ErrQueryFailed, err)
	}
	return exists, nil
}

func toAnyMap(rec datastore.Record) map[string]any {
	out := make(map[string]any, len(rec))
	for k, v := range rec {
		out[k] = v.Any()
	}
	return out
}

func fromAnyMap(raw map[string]any) datastore.Record {
	rec := make(datastore.Record, len(raw))
	for k, v := range raw {
		rec[k] = value.FromAny(v)
	}
	return rec
}
