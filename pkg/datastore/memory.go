package datastore

import (
	"context"
	"sync"

	"github.com/dmitrymomot/formqc/pkg/value"
)

// Memory is an in-memory Datastore for tests and single-shot CLI runs.
// Records are matched on a primary-key field and ordered by a visit field.
type Memory struct {
	mu      sync.RWMutex
	pkField string
	orderBy string
	records []Record
	rxcui   map[int64]struct{}
	adcids  map[int64]struct{}
	ownADC  int64
	hasOwn  bool
}

// NewMemory creates an empty in-memory store keyed by pkField and ordered
// by orderBy.
func NewMemory(pkField, orderBy string) *Memory {
	return &Memory{
		pkField: pkField,
		orderBy: orderBy,
		rxcui:   make(map[int64]struct{}),
		adcids:  make(map[int64]struct{}),
	}
}

// Add stores visit records.
func (m *Memory) Add(records ...Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range records {
		m.records = append(m.records, r.Clone())
	}
}

// AddRxcui registers valid drug codes.
func (m *Memory) AddRxcui(codes ...int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range codes {
		m.rxcui[c] = struct{}{}
	}
}

// AddADCID registers valid center ids; own marks the submitting center's.
func (m *Memory) AddADCID(id int64, own bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.adcids[id] = struct{}{}
	if own {
		m.ownADC = id
		m.hasOwn = true
	}
}

func (m *Memory) GetPreviousRecord(_ context.Context, orderBy string, current Record, ignoreEmpty []string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if orderBy == "" {
		orderBy = m.orderBy
	}
	pk, ok := current[m.pkField]
	if !ok || pk.IsNull() {
		return nil, ErrNoPrimaryKey
	}

	var candidates []Record
	for _, r := range m.records {
		if value.Equal(r[m.pkField], pk) {
			candidates = append(candidates, r)
		}
	}
	prev := SelectPrevious(candidates, orderBy, current, ignoreEmpty)
	if prev == nil {
		return nil, nil
	}
	return prev.Clone(), nil
}

func (m *Memory) IsValidRxcui(_ context.Context, code int64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.rxcui[code]
	return ok, nil
}

func (m *Memory) IsValidADCID(_ context.Context, adcid int64, own bool) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if own {
		return m.hasOwn && m.ownADC == adcid, nil
	}
	_, ok := m.adcids[adcid]
	return ok, nil
}
