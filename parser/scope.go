package parser

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"legisrag/legislation"
)

// scopePattern is one entry in the ordered, first-match-wins scope table
// (spec §4.A.4). The style — a small ordered slice of matchers checked in
// order — follows justin4957-regula's DefinitionExtractor, though the
// matchers here are plain predicates rather than regexes: RE2 (used by Go's
// regexp package) has no lookaround, and several of these patterns are
// defined by what must NOT follow the matched phrase.
type scopePattern struct {
	match     func(lower string) bool
	scopeType legislation.ScopeType
	// needsRange is true when the scope's section list must be parsed out
	// of the matched text rather than being the enclosing section alone.
	needsRange bool
}

var hasSectionRefRe = regexp.MustCompile(`\bsection\b|\barticle\b|\b\d`)

var scopePatterns = []scopePattern{
	{
		func(lower string) bool {
			return containsNotFollowedBy(lower, "in this act", "and") || strings.Contains(lower, "dans la présente loi")
		},
		legislation.ScopeAct, false,
	},
	{
		func(lower string) bool {
			if strings.Contains(lower, "dans le présent règlement") {
				return true
			}
			return strings.Contains(lower, "in this regulation") && !hasSectionRefRe.MatchString(afterPhrase(lower, "in this regulation"))
		},
		legislation.ScopeRegulation, false,
	},
	{
		func(lower string) bool {
			if strings.Contains(lower, "dans la présente partie") {
				return true
			}
			return strings.Contains(lower, "in this part") && !hasSectionRefRe.MatchString(afterPhrase(lower, "in this part"))
		},
		legislation.ScopePart, false,
	},
	{
		func(lower string) bool {
			return strings.Contains(lower, "in this section") || strings.Contains(lower, "apply in this section") || strings.Contains(lower, "au présent article")
		},
		legislation.ScopeSection, false,
	},
	{
		func(lower string) bool {
			return strings.Contains(lower, "apply in section") || strings.Contains(lower, "s'appliquent aux article")
		},
		legislation.ScopeSection, true,
	},
}

// containsNotFollowedBy reports whether phrase occurs in s and is not
// immediately (modulo whitespace) followed by next.
func containsNotFollowedBy(s, phrase, next string) bool {
	idx := strings.Index(s, phrase)
	if idx < 0 {
		return false
	}
	rest := strings.TrimLeft(s[idx+len(phrase):], " \t")
	return !strings.HasPrefix(rest, next)
}

func afterPhrase(s, phrase string) string {
	idx := strings.Index(s, phrase)
	if idx < 0 {
		return ""
	}
	return s[idx+len(phrase):]
}

var sectionRangeRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:to|à)\s*(\d+(?:\.\d+)?)|(\d+(?:\.\d+)?)\s*-\s*(\d+(?:\.\d+)?)`)
var singleSectionRe = regexp.MustCompile(`\b\d+(?:\.\d+)?\b`)

// ParseScope matches scope text against the ordered table and resolves the
// concrete scopeSections list. currentSectionLabel is used for the
// "in this section" scope and as a fallback when no section reference is
// present in the text. documentWideScope is returned when nothing matches.
func ParseScope(scopeRawText, currentSectionLabel string, documentWideScope legislation.ScopeType) (legislation.ScopeType, []string) {
	lower := strings.ToLower(scopeRawText)
	lower = normalizeConcatenatedRangeArtifacts(lower)

	for _, p := range scopePatterns {
		if !p.match(lower) {
			continue
		}
		if p.scopeType == legislation.ScopeSection && !p.needsRange {
			return legislation.ScopeSection, []string{currentSectionLabel}
		}
		if p.needsRange {
			sections := parseSectionRanges(lower)
			if len(sections) == 0 {
				sections = []string{currentSectionLabel}
			}
			return legislation.ScopeSection, sections
		}
		return p.scopeType, nil
	}
	return documentWideScope, nil
}

// normalizeConcatenatedRangeArtifacts repairs XML-text-extraction artifacts
// like "sectionsto.73 80" -> "sections 73 to 80" (spec §4.A.4).
func normalizeConcatenatedRangeArtifacts(s string) string {
	re := regexp.MustCompile(`sections?to\.?\s*(\d+(?:\.\d+)?)\s+(\d+(?:\.\d+)?)`)
	return re.ReplaceAllString(s, "sections $1 to $2")
}

// parseSectionRanges extracts every "X to Y" / "X-Y" range in the text and
// enumerates integer ranges; decimal-numbered sections are kept as the two
// endpoints only, since a consumer must perform its own range check on
// those (spec §4.A.4).
func parseSectionRanges(s string) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(label string) {
		if !seen[label] {
			seen[label] = true
			out = append(out, label)
		}
	}

	matches := sectionRangeRe.FindAllStringSubmatch(s, -1)

	for _, m := range matches {
		lo, hi := m[1], m[2]
		if lo == "" {
			lo, hi = m[3], m[4]
		}
		if lo == "" || hi == "" {
			continue
		}
		enumerateRange(lo, hi, add)
	}

	if len(out) == 0 {
		for _, m := range singleSectionRe.FindAllString(s, -1) {
			add(m)
		}
	}

	return sortSectionLabels(out)
}

func enumerateRange(lo, hi string, add func(string)) {
	loN, errLo := strconv.Atoi(lo)
	hiN, errHi := strconv.Atoi(hi)
	if errLo != nil || errHi != nil || strings.Contains(lo, ".") || strings.Contains(hi, ".") {
		// Decimal sections: endpoints only.
		add(lo)
		add(hi)
		return
	}
	if loN > hiN {
		loN, hiN = hiN, loN
	}
	for i := loN; i <= hiN; i++ {
		add(strconv.Itoa(i))
	}
}

// sortSectionLabels orders numeric-looking labels numerically, falling back
// to lexical order for anything else.
func sortSectionLabels(labels []string) []string {
	out := append([]string(nil), labels...)
	sort.SliceStable(out, func(i, j int) bool {
		ni, erri := strconv.ParseFloat(out[i], 64)
		nj, errj := strconv.ParseFloat(out[j], 64)
		if erri == nil && errj == nil {
			return ni < nj
		}
		return out[i] < out[j]
	})
	return out
}
