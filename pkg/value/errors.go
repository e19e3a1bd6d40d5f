package value

import "errors"

var (
	// ErrUnknownComparator is returned when a rule references a comparator
	// token outside of Comparators.
	ErrUnknownComparator = errors.New("unrecognized comparator")

	// ErrNotComparable is returned when ordering is requested between kinds
	// that have no defined order.
	ErrNotComparable = errors.New("values are not comparable")
)
