package datastore

import (
	"context"

	"github.com/dmitrymomot/formqc/pkg/value"
)

// Record is one form submission: a flat mapping from field name to value.
type Record map[string]value.Value

// Clone returns a shallow copy. Values are immutable, so a shallow copy is
// enough to keep callers from mutating shared state.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Datastore is the host-supplied store of prior visit records and reference
// code lookups. Implementations must be safe for use from a single
// validator; share one across validators only if it is itself thread-safe.
type Datastore interface {
	// GetPreviousRecord returns the most recent record for the same
	// participant whose orderBy field is strictly less than the current
	// record's, or nil when no such record exists. When ignoreEmpty is
	// non-empty, only records with all of those fields non-null qualify.
	// An empty orderBy selects the implementation's configured order field.
	GetPreviousRecord(ctx context.Context, orderBy string, current Record, ignoreEmpty []string) (Record, error)

	// IsValidRxcui reports whether a drug code is a valid RXCUI.
	IsValidRxcui(ctx context.Context, code int64) (bool, error)

	// IsValidADCID reports whether a center identifier is valid; own selects
	// between the submitting center's own id and any known center.
	IsValidADCID(ctx context.Context, adcid int64, own bool) (bool, error)
}
