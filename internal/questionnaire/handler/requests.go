package handler

import (
	"policywriter/internal/questionnaire/catalog"
	dErrors "policywriter/pkg/domain-errors"
)

// StartSessionRequest is the body of POST /api/sessions. The selection comes
// either as a list of module ids or as the {"aup":true,...} flag map the
// selection page posts.
type StartSessionRequest struct {
	SelectedModules  []string        `json:"selected_modules"`
	SelectedPolicies map[string]bool `json:"selected_policies"`
}

// Modules returns the selection as module id strings.
func (r StartSessionRequest) Modules() ([]string, error) {
	if r.SelectedPolicies == nil {
		return r.SelectedModules, nil
	}
	if len(r.SelectedModules) > 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "provide either selected_modules or selected_policies, not both")
	}
	set, err := catalog.FromFlags(r.SelectedPolicies)
	if err != nil {
		return nil, err
	}
	return set.Strings(), nil
}

// SetAnswerRequest is the body of PUT /api/sessions/{id}/answers/{question_id}.
// A null or absent value clears the answer.
type SetAnswerRequest struct {
	Value any `json:"value"`
}
