package catalog

import "slices"

// QuestionType determines the answer shape and the default format check.
type QuestionType string

const (
	TypeText         QuestionType = "text"
	TypeNumber       QuestionType = "number"
	TypeEmail        QuestionType = "email"
	TypeSingleChoice QuestionType = "single_choice"
	TypeMultiChoice  QuestionType = "multi_choice"
)

func (t QuestionType) valid() bool {
	switch t {
	case TypeText, TypeNumber, TypeEmail, TypeSingleChoice, TypeMultiChoice:
		return true
	}
	return false
}

// IsChoice reports whether answers must come from the question's options.
func (t QuestionType) IsChoice() bool {
	return t == TypeSingleChoice || t == TypeMultiChoice
}

// FormatKind names a format check applied to non-blank answers.
type FormatKind string

const (
	FormatEmail   FormatKind = "email"
	FormatInteger FormatKind = "integer"
)

// FormatRule constrains the shape of a present answer. Min and Max apply to
// FormatInteger only.
type FormatRule struct {
	Kind    FormatKind `yaml:"kind"`
	Min     *int       `yaml:"min"`
	Max     *int       `yaml:"max"`
	Message string     `yaml:"message"`
}

// Question ids the engine refers to outside the catalog data.
const (
	QCompanyName         QuestionID = "q1_company_name"
	QIndustry            QuestionID = "q2_industry"
	QCompanySize         QuestionID = "q3_company_size"
	QEmployeeCount       QuestionID = "q4_employee_count"
	QCompliance          QuestionID = "q5_compliance"
	QMFA                 QuestionID = "q9_mfa"
	QMFAName             QuestionID = "q10_mfa_name"
	QPasswordManager     QuestionID = "q11_password_manager"
	QPasswordManagerName QuestionID = "q12_password_manager_name"
	QMDM                 QuestionID = "q13_mdm"
	QBYOD                QuestionID = "q23_byod"
)

// Question is an immutable catalog entry.
type Question struct {
	ID              QuestionID
	Section         SectionID
	Number          int
	Prompt          string
	Type            QuestionType
	Options         []string
	Format          *FormatRule
	RequiredMessage string

	// VisibleIf defaults to Always; RequiredIf defaults to Always, or Never for
	// optional questions.
	VisibleIf  Predicate
	RequiredIf Predicate

	// DependsOn lists the questions the predicates read.
	DependsOn []QuestionID
}

// HasOption reports whether v is one of the question's options.
func (q *Question) HasOption(v string) bool {
	return slices.Contains(q.Options, v)
}
