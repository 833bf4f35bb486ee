package collaborator

import (
	"errors"
	"fmt"
)

// Category is the normalized failure taxonomy for policy backend calls.
type Category string

const (
	// CategoryTimeout means the call exceeded its deadline.
	CategoryTimeout Category = "timeout"
	// CategoryBadData means the backend answered with a body we could not use.
	CategoryBadData Category = "bad_data"
	// CategoryOutage means the backend was unreachable, answered 5xx, or the
	// breaker for the operation group is open.
	CategoryOutage Category = "outage"
	// CategoryRejected means the backend refused the payload (4xx other than 404).
	CategoryRejected Category = "rejected"
	// CategoryNotFound means the backend does not know the referenced record.
	CategoryNotFound Category = "not_found"
	// CategoryInternal covers failures on our side of the call.
	CategoryInternal Category = "internal"
	// CategoryCanceled means the caller abandoned the call; it says nothing
	// about backend health.
	CategoryCanceled Category = "canceled"
)

// Error wraps a failed backend call. Detail is the message shown to the
// person filling in the questionnaire.
type Error struct {
	Category   Category
	Operation  Operation
	Detail     string
	StatusCode int
	Retryable  bool
	Err        error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("collaborator %s [%s]: %s", e.Operation, e.Category, e.Detail)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// UserMessage returns the detail surfaced to the user.
func (e *Error) UserMessage() string {
	return e.Detail
}

func newError(category Category, op Operation, detail string, status int, err error) *Error {
	return &Error{
		Category:   category,
		Operation:  op,
		Detail:     detail,
		StatusCode: status,
		Retryable:  category == CategoryTimeout || category == CategoryOutage,
		Err:        err,
	}
}

// IsRetryable reports whether err is a collaborator failure worth retrying.
func IsRetryable(err error) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Retryable
	}
	return false
}

// CategoryOf extracts the category, or CategoryInternal for foreign errors.
func CategoryOf(err error) Category {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Category
	}
	return CategoryInternal
}

// countsAgainstBreaker limits breaker trips to backend health problems; a
// rejected payload or an abandoned request says nothing about availability.
func countsAgainstBreaker(err error) bool {
	c := CategoryOf(err)
	return c == CategoryOutage || c == CategoryTimeout
}
