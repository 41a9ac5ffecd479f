package parser

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var ligatureExpansions = strings.NewReplacer(
	"œ", "oe",
	"Œ", "OE",
	"æ", "ae",
	"Æ", "AE",
)

// NormalizeTermForMatching produces termNormalized for cross-lingual
// defined-term pairing (spec §4.A.6). The steps are order-dependent:
// ligature expansion must precede Unicode decomposition, since decomposing
// "œ" first yields a form ligature-expansion wouldn't recognize.
func NormalizeTermForMatching(s string) string {
	s = ligatureExpansions.Replace(s)
	s = norm.NFD.String(s)
	s = stripCombiningMarks(s)
	s = strings.ToLower(s)
	s = replaceDashesWithSpace(s)
	s = restrictCharset(s)
	s = collapseWhitespace(s)
	return s
}

func stripCombiningMarks(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func replaceDashesWithSpace(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '–', '—', '-':
			return ' '
		}
		return r
	}, s)
}

func restrictCharset(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == ' ' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func collapseWhitespace(s string) string {
	fields := strings.Fields(s)
	return strings.TrimSpace(strings.Join(fields, " "))
}
