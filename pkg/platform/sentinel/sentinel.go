// Package sentinel defines the infrastructure facts stores report. Services
// translate them into domain errors; they never reach HTTP directly.
package sentinel

import "errors"

var (
	// ErrNotFound: no such record, including one that expired out of the store.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState: the record exists but cannot take the requested operation.
	ErrInvalidState = errors.New("invalid state")
)
