package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTermForMatching(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"ligature before decomposition", "œuvre", "oeuvre"},
		{"accented french", "Société d'État", "societe detat"},
		{"dash to space", "peace-officer", "peace officer"},
		{"mixed case and punctuation", "Minister's Order!", "ministers order"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeTermForMatching(tt.in))
		})
	}
}

// TestNormalizeTermForMatchingIdempotent checks spec §8 invariant 7:
// normalizeTermForMatching(s) applied twice equals applied once.
func TestNormalizeTermForMatchingIdempotent(t *testing.T) {
	inputs := []string{"œuvre", "Société d'État", "peace-officer", "Minister's Order!", "ALREADY normal"}
	for _, in := range inputs {
		once := NormalizeTermForMatching(in)
		twice := NormalizeTermForMatching(once)
		assert.Equal(t, once, twice, "not idempotent for %q", in)
	}
}
