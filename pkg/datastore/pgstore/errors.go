package pgstore

import "errors"

var (
	ErrFailedToConnect     = errors.New("failed to open db connection")
	ErrFailedToParseConfig = errors.New("failed to parse db config")
	ErrFailedToMigrate     = errors.New("failed to apply migrations")
	ErrQueryFailed         = errors.New("visit store query failed")
)
