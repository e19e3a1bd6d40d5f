package mongostore

import "errors"

var (
	ErrFailedToConnect = errors.New("failed to connect to mongo")
	ErrQueryFailed     = errors.New("visit store query failed")
)
