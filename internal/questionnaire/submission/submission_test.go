package submission

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"policywriter/internal/questionnaire/catalog"
	"policywriter/internal/questionnaire/catalog/catalogtest"
	dErrors "policywriter/pkg/domain-errors"
)

func TestAssembleAcme(t *testing.T) {
	answers := catalogtest.Merge(catalogtest.AcmeCore(), catalogtest.AcmeAUP())

	org, q, err := Assemble(answers, catalog.NewModuleSet(catalog.ModuleAUP))
	require.NoError(t, err)

	assert.Equal(t, OrgPayload{
		CompanyName:   "Acme Corp",
		Industry:      "Technology",
		Size:          "IG1 (<500 employees)",
		EmployeeCount: 50,
	}, org)
	assert.False(t, org.HasMFA)
	assert.False(t, org.HasPasswordManager)
	assert.False(t, org.HasMDM)

	responses := q.Responses()
	assert.Equal(t, map[string]bool{"aup": true, "account": false, "incident": false}, responses[SelectedPoliciesKey])
	assert.Equal(t, "Not allowed", responses["q23_byod"])
	assert.Len(t, responses, len(answers)+1)
}

func TestAssembleFlagsFollowYes(t *testing.T) {
	answers := catalogtest.AcmeCore()
	answers[catalog.QMFA] = "Yes"
	answers[catalog.QPasswordManager] = "Yes"
	answers[catalog.QMDM] = "yes"

	org, _, err := Assemble(answers, catalog.NewModuleSet(catalog.ModuleAUP))
	require.NoError(t, err)
	assert.True(t, org.HasMFA)
	assert.True(t, org.HasPasswordManager)
	assert.False(t, org.HasMDM, "only the exact option value counts")
}

func TestAssembleCopiesAnswers(t *testing.T) {
	answers := catalogtest.Merge(catalogtest.AcmeCore(), catalogtest.Incident())
	_, q, err := Assemble(answers, catalog.NewModuleSet(catalog.ModuleIncident))
	require.NoError(t, err)

	answers[catalog.QCompanyName] = "Changed"
	answers["q39_incident_reporting_methods"].([]string)[0] = "Changed"

	assert.Equal(t, "Acme Corp", q.Answers.Text(catalog.QCompanyName))
	assert.Equal(t, []string{"Email", "Phone"}, q.Answers.Choices("q39_incident_reporting_methods"))
}

func TestAssembleRejectsNonIntegerCount(t *testing.T) {
	answers := catalogtest.AcmeCore()
	answers[catalog.QEmployeeCount] = "lots"

	_, _, err := Assemble(answers, catalog.NewModuleSet(catalog.ModuleAUP))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestOrgPayloadWireShape(t *testing.T) {
	raw, err := json.Marshal(OrgPayload{CompanyName: "Acme Corp", EmployeeCount: 50, HasMDM: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"company_name": "Acme Corp",
		"industry": "",
		"size": "",
		"employee_count": 50,
		"has_mfa": false,
		"has_password_manager": false,
		"has_mdm": true
	}`, string(raw))
}
