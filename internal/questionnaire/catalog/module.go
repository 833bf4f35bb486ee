package catalog

import (
	"slices"
	"strings"

	dErrors "policywriter/pkg/domain-errors"
	pstrings "policywriter/pkg/platform/strings"
)

// ModuleID identifies an optional policy module.
type ModuleID string

const (
	ModuleAUP      ModuleID = "aup"
	ModuleAccount  ModuleID = "account"
	ModuleIncident ModuleID = "incident"
)

// Precedence is the fixed order module sections appear in.
var Precedence = []ModuleID{ModuleAUP, ModuleAccount, ModuleIncident}

func (id ModuleID) rank() int {
	return slices.Index(Precedence, id)
}

// IsKnown reports whether id is one of the registered modules.
func (id ModuleID) IsKnown() bool {
	return id.rank() >= 0
}

// Module is an immutable registry entry: the section a module contributes
// plus the metadata shown when choosing modules.
type Module struct {
	ID                 ModuleID
	Name               string
	Summary            string
	CISControls        string
	EstimatedMinutes   int
	Complexity         int
	ComplexityLabel    string
	SectionTitle       string
	SectionDescription string
	QuestionIDs        []QuestionID
}

// ModuleSet is a de-duplicated selection of modules kept in precedence order.
type ModuleSet []ModuleID

// ParseModuleSet validates raw module ids. Duplicates and surrounding
// whitespace are ignored; unknown ids are rejected with CodeInvalidInput.
// An empty input yields an empty set, which composition rejects.
func ParseModuleSet(raw []string) (ModuleSet, error) {
	ids := make([]ModuleID, 0, len(raw))
	for _, r := range pstrings.DedupeAndTrimLower(raw) {
		id := ModuleID(r)
		if !id.IsKnown() {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "unknown policy module: "+r)
		}
		ids = append(ids, id)
	}
	return NewModuleSet(ids...), nil
}

// FromFlags accepts the {"aup":true,"account":false,...} selection shape.
func FromFlags(flags map[string]bool) (ModuleSet, error) {
	raw := make([]string, 0, len(flags))
	for k, on := range flags {
		if on {
			raw = append(raw, k)
		} else if !ModuleID(strings.ToLower(strings.TrimSpace(k))).IsKnown() {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "unknown policy module: "+k)
		}
	}
	return ParseModuleSet(raw)
}

// NewModuleSet builds a set from known ids; unknown ids are dropped.
func NewModuleSet(ids ...ModuleID) ModuleSet {
	out := make(ModuleSet, 0, len(ids))
	for _, id := range Precedence {
		if slices.Contains(ids, id) {
			out = append(out, id)
		}
	}
	return out
}

func (s ModuleSet) Contains(id ModuleID) bool {
	return slices.Contains(s, id)
}

// IDs returns the selected ids in precedence order.
func (s ModuleSet) IDs() []ModuleID {
	return slices.Clone(s)
}

// Strings returns the ids as plain strings.
func (s ModuleSet) Strings() []string {
	out := make([]string, len(s))
	for i, id := range s {
		out[i] = string(id)
	}
	return out
}

// Flags returns every registered module mapped to whether it is selected.
func (s ModuleSet) Flags() map[string]bool {
	out := make(map[string]bool, len(Precedence))
	for _, id := range Precedence {
		out[string(id)] = s.Contains(id)
	}
	return out
}
