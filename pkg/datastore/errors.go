package datastore

import "errors"

var (
	// ErrNoPrimaryKey is returned when the current record carries no usable
	// primary-key value to match prior visits on.
	ErrNoPrimaryKey = errors.New("record has no primary key value")

	// ErrNotFound is returned by lookups that distinguish absence from
	// failure.
	ErrNotFound = errors.New("record not found")
)
