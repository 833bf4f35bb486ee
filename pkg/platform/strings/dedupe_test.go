package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{"nil stays nil", nil, nil},
		{"empty stays empty", []string{}, []string{}},
		{"multi-choice answer keeps order", []string{" Email", "Phone ", "Email"}, []string{"Email", "Phone"}},
		{"blank choices dropped", []string{"", "  ", "HIPAA"}, []string{"HIPAA"}},
		{"case is preserved", []string{"GDPR", "gdpr"}, []string{"GDPR", "gdpr"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DedupeAndTrim(tt.input))
		})
	}
}

func TestDedupeAndTrimLower(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{"nil stays nil", nil, nil},
		{"module ids fold case", []string{"AUP", " incident", "aup"}, []string{"aup", "incident"}},
		{"only blanks", []string{" ", ""}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DedupeAndTrimLower(tt.input))
		})
	}
}
