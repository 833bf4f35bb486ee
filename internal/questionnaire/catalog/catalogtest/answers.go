// Package catalogtest provides answer fixtures for tests of packages built on
// the question catalog.
package catalogtest

import "policywriter/internal/questionnaire/catalog"

// AcmeCore answers both core sections for "Acme Corp", a small technology
// company without MFA, password manager or MDM.
func AcmeCore() catalog.Answers {
	return catalog.Answers{
		catalog.QCompanyName:     "Acme Corp",
		catalog.QIndustry:        "Technology",
		catalog.QCompanySize:     "IG1 (<500 employees)",
		catalog.QEmployeeCount:   50,
		catalog.QCompliance:      []string{},
		"q6_has_it":              "Yes",
		"q7_it_email":            "it@acme.example",
		catalog.QMFA:             "No",
		catalog.QPasswordManager: "No",
		catalog.QMDM:             "No",
		"q14_remote_work":        "Hybrid",
		"q15_cyber_insurance":    "No",
	}
}

// AcmeAUP answers the acceptable use section with a BYOD policy that does not
// need MDM.
func AcmeAUP() catalog.Answers {
	return catalog.Answers{
		"q16_personal_use":      "Limited",
		"q17_personal_email":    "No",
		"q18_personal_websites": "Yes",
		"q19_browser_sync":      "Enterprise accounts only",
		"q20_cloud_storage":     "Approved platforms only",
		"q21_monitoring":        "Yes, for investigations",
		"q22_social_media":      "Authorized only",
		catalog.QBYOD:           "Not allowed",
	}
}

// Account answers the account management section for an organization
// without MFA.
func Account() catalog.Answers {
	return catalog.Answers{
		"q25_password_length_without_mfa":    14,
		"q26_passwords_expire":               "No",
		"q27_mfa_scope":                      "All accounts",
		"q28_separate_admin_accounts":        "Yes",
		"q29_account_review_frequency":       "Quarterly",
		"q30_dormant_account_days":           45,
		"q31_extended_leave_policy":          "Disable until return",
		"q32_credential_revocation_timeline": "Immediately",
		"q33_maintain_account_inventory":     "Yes",
	}
}

// Incident answers the incident response section, leaving the regulatory
// notification questions blank.
func Incident() catalog.Answers {
	return catalog.Answers{
		"q34_incident_manager_name":        "Dana Reyes",
		"q35_incident_manager_email":       "dana@acme.example",
		"q36_incident_manager_phone":       "+1 555 0100",
		"q37_external_third_party":         "No",
		"q38_backup_incident_manager":      "Sam Ortiz",
		"q39_incident_reporting_methods":   []string{"Email", "Phone"},
		"q40_incident_report_recipients":   "Security team",
		"q41_incident_reporting_timeframe": "Within 1 hour",
		"q42_external_ir_support":          "No",
	}
}

// Merge combines answer sets; later sets win.
func Merge(sets ...catalog.Answers) catalog.Answers {
	out := catalog.Answers{}
	for _, s := range sets {
		for k, v := range s {
			out[k] = v
		}
	}
	return out
}
