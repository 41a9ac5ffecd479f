package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"legisrag/legislation"
)

func TestParseScope(t *testing.T) {
	tests := []struct {
		name         string
		text         string
		currentLabel string
		docWide      legislation.ScopeType
		wantType     legislation.ScopeType
		wantSections []string
	}{
		{
			name:         "act-wide scope",
			text:         "In this Act,",
			currentLabel: "5",
			docWide:      legislation.ScopeAct,
			wantType:     legislation.ScopeAct,
			wantSections: nil,
		},
		{
			name:         "act-wide phrase followed by and falls back to document-wide scope",
			text:         "In this Act and the regulations,",
			currentLabel: "5",
			docWide:      legislation.ScopeAct,
			wantType:     legislation.ScopeAct,
			wantSections: nil,
		},
		{
			name:         "section-local scope",
			text:         "In this section,",
			currentLabel: "12",
			docWide:      legislation.ScopeAct,
			wantType:     legislation.ScopeSection,
			wantSections: []string{"12"},
		},
		{
			name:         "explicit section range enumerates in order",
			text:         "apply in sections 17 to 19 and 21 to 28",
			currentLabel: "16",
			docWide:      legislation.ScopeAct,
			wantType:     legislation.ScopeSection,
			wantSections: []string{"17", "18", "19", "21", "22", "23", "24", "25", "26", "27", "28"},
		},
		{
			name:         "concatenated range artifact is repaired",
			text:         "apply in sectionsto.73 80",
			currentLabel: "70",
			docWide:      legislation.ScopeAct,
			wantType:     legislation.ScopeSection,
			wantSections: []string{"73", "74", "75", "76", "77", "78", "79", "80"},
		},
		{
			name:         "regulation-wide scope in french",
			text:         "Dans le présent règlement,",
			currentLabel: "3",
			docWide:      legislation.ScopeAct,
			wantType:     legislation.ScopeRegulation,
			wantSections: nil,
		},
		{
			name:         "no match falls back to document-wide scope",
			text:         "some unrelated definition text",
			currentLabel: "3",
			docWide:      legislation.ScopeRegulation,
			wantType:     legislation.ScopeRegulation,
			wantSections: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotType, gotSections := ParseScope(tt.text, tt.currentLabel, tt.docWide)
			assert.Equal(t, tt.wantType, gotType)
			assert.Equal(t, tt.wantSections, gotSections)
		})
	}
}
