package qualitycheck

import "errors"

var (
	// ErrNoPrimaryKeyField is returned when New is called without a
	// primary-key field name.
	ErrNoPrimaryKeyField = errors.New("primary key field is required")

	// ErrSchemaCheck is returned when the schema fails the construction-time
	// checks (missing or non-required primary key field).
	ErrSchemaCheck = errors.New("schema check failed")
)
