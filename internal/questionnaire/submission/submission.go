// Package submission assembles the payloads handed to the organization
// registry and the questionnaire store from a validated answer set.
package submission

import (
	"policywriter/internal/questionnaire/catalog"
	dErrors "policywriter/pkg/domain-errors"
)

// SelectedPoliciesKey is the response key carrying the module selection.
const SelectedPoliciesKey = "selected_policies"

// OrgPayload is the organization registration request.
type OrgPayload struct {
	CompanyName        string `json:"company_name"`
	Industry           string `json:"industry"`
	Size               string `json:"size"`
	EmployeeCount      int    `json:"employee_count"`
	HasMFA             bool   `json:"has_mfa"`
	HasPasswordManager bool   `json:"has_password_manager"`
	HasMDM             bool   `json:"has_mdm"`
}

// QuestionnairePayload is the full answer set plus the module selection.
type QuestionnairePayload struct {
	Answers  catalog.Answers
	Selected catalog.ModuleSet
}

// Responses returns the wire form: every answer keyed by question id, plus
// the selection under "selected_policies" as {"aup":bool,...}.
func (p QuestionnairePayload) Responses() map[string]any {
	out := make(map[string]any, len(p.Answers)+1)
	for id, v := range p.Answers {
		out[string(id)] = v
	}
	out[SelectedPoliciesKey] = p.Selected.Flags()
	return out
}

// Assemble builds both payloads. The answers are copied, so later edits to
// the session never leak into a payload already handed off.
func Assemble(answers catalog.Answers, selected catalog.ModuleSet) (OrgPayload, QuestionnairePayload, error) {
	count, ok := answers.Int(catalog.QEmployeeCount)
	if !ok {
		return OrgPayload{}, QuestionnairePayload{}, dErrors.New(dErrors.CodeValidation, "employee count must be a whole number")
	}

	org := OrgPayload{
		CompanyName:        answers.Text(catalog.QCompanyName),
		Industry:           answers.Text(catalog.QIndustry),
		Size:               answers.Text(catalog.QCompanySize),
		EmployeeCount:      count,
		HasMFA:             answers.Text(catalog.QMFA) == "Yes",
		HasPasswordManager: answers.Text(catalog.QPasswordManager) == "Yes",
		HasMDM:             answers.Text(catalog.QMDM) == "Yes",
	}
	questionnaire := QuestionnairePayload{
		Answers:  answers.Clone(),
		Selected: catalog.NewModuleSet(selected...),
	}
	return org, questionnaire, nil
}
