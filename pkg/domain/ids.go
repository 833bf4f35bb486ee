// Package domain holds identifier types shared across packages.
//
// IDs are distinct named types over uuid.UUID so the compiler keeps a session
// id from being passed where another id is expected. Construct them from
// external input only through the Parse functions.
package domain

import (
	"github.com/google/uuid"

	dErrors "policywriter/pkg/domain-errors"
)

// SessionID identifies one questionnaire wizard session.
type SessionID uuid.UUID

// NewSessionID returns a fresh random session id.
func NewSessionID() SessionID {
	return SessionID(uuid.New())
}

// ParseSessionID parses a session id from untrusted input.
//
// Errors: CodeInvalidInput for empty, malformed, or nil UUIDs.
func ParseSessionID(s string) (SessionID, error) {
	u, err := parseUUID(s, "session id")
	if err != nil {
		return SessionID{}, err
	}
	return SessionID(u), nil
}

func (id SessionID) String() string {
	return uuid.UUID(id).String()
}

func (id SessionID) IsNil() bool {
	return uuid.UUID(id) == uuid.Nil
}

func (id SessionID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *SessionID) UnmarshalText(b []byte) error {
	parsed, err := ParseSessionID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func parseUUID(s, what string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+what)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" cannot be nil")
	}
	return u, nil
}
