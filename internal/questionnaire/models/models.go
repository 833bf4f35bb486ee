package models

import (
	"sync"
	"time"

	"policywriter/internal/questionnaire/wizard"
)

// DocumentStatus tracks policy document generation after a successful submit.
type DocumentStatus string

const (
	DocumentNone    DocumentStatus = "none"
	DocumentPending DocumentStatus = "pending"
	DocumentReady   DocumentStatus = "ready"
	DocumentFailed  DocumentStatus = "failed"
)

// DocumentState is a snapshot of generation for one session.
type DocumentState struct {
	Status      DocumentStatus
	PolicyID    string
	DocumentURL string
	Filename    string
	Detail      string
	Attempts    int
	UpdatedAt   time.Time
}

// Record is what the session store keeps per session: the wizard plus the
// generation state that outlives the submit request.
type Record struct {
	Session *wizard.Session
	// Client is the parsed user agent of the browser that started the session.
	Client string

	mu       sync.Mutex
	document DocumentState
}

// NewRecord wraps a freshly started session.
func NewRecord(s *wizard.Session, client string) *Record {
	return &Record{
		Session:  s,
		Client:   client,
		document: DocumentState{Status: DocumentNone},
	}
}

// Document returns the current generation state.
func (r *Record) Document() DocumentState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.document
}

// BeginDocument moves generation to pending when it is allowed to start from
// one of the given statuses. It reports whether this caller won the slot.
func (r *Record) BeginDocument(now time.Time, from ...DocumentStatus) (DocumentState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	allowed := false
	for _, st := range from {
		if r.document.Status == st {
			allowed = true
			break
		}
	}
	if !allowed {
		return r.document, false
	}
	r.document = DocumentState{
		Status:    DocumentPending,
		Attempts:  r.document.Attempts + 1,
		UpdatedAt: now,
	}
	return r.document, true
}

// CompleteDocument records a generated document.
func (r *Record) CompleteDocument(now time.Time, policyID, url, filename string) DocumentState {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.document.Status = DocumentReady
	r.document.PolicyID = policyID
	r.document.DocumentURL = url
	r.document.Filename = filename
	r.document.Detail = ""
	r.document.UpdatedAt = now
	return r.document
}

// FailDocument records a generation failure with the user-facing detail.
func (r *Record) FailDocument(now time.Time, detail string) DocumentState {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.document.Status = DocumentFailed
	r.document.Detail = detail
	r.document.UpdatedAt = now
	return r.document
}
