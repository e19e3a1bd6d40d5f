package schema

import "errors"

var (
	// ErrInvalidSchema is returned when a rule document cannot be decoded or
	// a rule argument has the wrong shape.
	ErrInvalidSchema = errors.New("invalid rule schema")

	// ErrUnknownRule is returned for rule names (or constraint keys) outside
	// the supported set. Typos in rule files must fail the load, not
	// silently skip checks.
	ErrUnknownRule = errors.New("unknown rule")
)
