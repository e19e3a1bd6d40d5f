package datastore

import "github.com/dmitrymomot/formqc/pkg/value"

// SelectPrevious picks from candidates the most recent record strictly
// before the current one on the orderBy field, honoring the non-empty field
// filter. Backends that fetch a participant's visit history wholesale share
// this selection so ordering semantics (numeric, date or string order via
// value.Compare) stay identical across stores. Returns nil when no
// candidate qualifies.
func SelectPrevious(candidates []Record, orderBy string, current Record, ignoreEmpty []string) Record {
	currOrder, ok := current[orderBy]
	if !ok || currOrder.IsNull() {
		return nil
	}

	var best Record
	var bestOrder value.Value
	for _, r := range candidates {
		before, err := value.Compare("<", r[orderBy], currOrder)
		if err != nil || !before {
			continue
		}
		if !hasNonEmpty(r, ignoreEmpty) {
			continue
		}
		if best == nil {
			best, bestOrder = r, r[orderBy]
			continue
		}
		if later, err := value.Compare(">", r[orderBy], bestOrder); err == nil && later {
			best, bestOrder = r, r[orderBy]
		}
	}
	return best
}

func hasNonEmpty(r Record, fields []string) bool {
	for _, f := range fields {
		v, ok := r[f]
		if !ok || v.IsNull() {
			return false
		}
	}
	return true
}
