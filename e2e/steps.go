package e2e

import (
	"github.com/cucumber/godog"

	"policywriter/e2e/steps/common"
	"policywriter/e2e/steps/questionnaire"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	// Generic requests and response assertions
	common.RegisterSteps(ctx, tc)

	// Wizard walkthrough, submission, and document generation
	questionnaire.RegisterSteps(ctx, tc)
}
