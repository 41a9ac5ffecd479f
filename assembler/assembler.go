// Package assembler implements the Context Assembler (spec §4.H): it turns
// a list of reranked search results into a deduplicated, citation-numbered,
// bilingual prompt.
package assembler

import (
	"fmt"
	"strings"
	"unicode"

	"legisrag/citation"
	"legisrag/legislation"
	"legisrag/search"
)

// Assembled is the Context Assembler's output shape (spec §4.H.3).
// hydratedSources is left empty here; the retrieval facade populates it
// after calling the hydrator.
type Assembled struct {
	Language        legislation.Language
	Prompt          string
	Citations       []citation.Citation
	HydratedSources []string
}

type entry struct {
	result  search.Result
	snippet string
	truncated bool
}

const (
	snippetCutoff    = 480
	sentenceLookback = 200
)

// Assemble runs the deterministic four-step algorithm from spec §4.H.2.
func Assemble(results []search.Result, lang legislation.Language, citationOf func(search.Result) citation.Citation) Assembled {
	deduped := search.Deduplicate(results)

	seenSnippets := make(map[string]struct{})
	entries := make([]entry, 0, len(deduped))
	for _, r := range deduped {
		snippet, truncated := buildSnippet(r.Content)
		norm := strings.ToLower(snippet)
		if _, ok := seenSnippets[norm]; ok {
			continue
		}
		seenSnippets[norm] = struct{}{}
		entries = append(entries, entry{result: r, snippet: snippet, truncated: truncated})
	}

	citations := make([]citation.Citation, 0, len(entries))
	for i := range entries {
		c := citationOf(entries[i].result)
		c.ID = i + 1
		c.PrefixedID = fmt.Sprintf("L%d", c.ID)
		citations = append(citations, c)
	}

	prompt := buildPrompt(entries, citations, lang)

	return Assembled{
		Language:  lang,
		Prompt:    prompt,
		Citations: citations,
	}
}

// buildSnippet implements spec §4.H.2 step 2: whitespace-flatten, cut at
// ~480 chars, extend back to a sentence boundary if one appears after
// character 200.
func buildSnippet(content string) (string, bool) {
	flat := flattenWhitespace(content)
	runes := []rune(flat)
	if len(runes) <= snippetCutoff {
		return flat, false
	}

	cut := string(runes[:snippetCutoff])
	if boundary := lastSentenceBoundary(cut); boundary >= sentenceLookback {
		return cut[:boundary], true
	}
	return cut, true
}

func flattenWhitespace(s string) string {
	var b strings.Builder
	lastWasSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				b.WriteRune(' ')
			}
			lastWasSpace = true
			continue
		}
		lastWasSpace = false
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

// lastSentenceBoundary returns the byte offset just past the last
// ". ", "? ", or "! " in s, or -1 if none exists.
func lastSentenceBoundary(s string) int {
	best := -1
	for _, terminator := range []string{". ", "? ", "! "} {
		if idx := strings.LastIndex(s, terminator); idx >= 0 {
			end := idx + len(terminator)
			if end > best {
				best = end
			}
		}
	}
	return best
}

// buildPrompt implements spec §4.H.2 step 4.
func buildPrompt(entries []entry, citations []citation.Citation, lang legislation.Language) string {
	var b strings.Builder
	if lang == legislation.LangFR {
		b.WriteString("Contexte législatif:\n")
	} else {
		b.WriteString("Legislative context:\n")
	}

	for i, e := range entries {
		c := citations[i]
		title := c.TitleEn
		sectionPart := sectionPart(e.result.Metadata.SectionLabel, lang)
		marginalPart := marginalNotePart(e.result.Metadata.MarginalNote)
		if lang == legislation.LangFR {
			title = c.TitleFr
		}
		ellipsis := ""
		if e.truncated {
			ellipsis = "…"
		}
		fmt.Fprintf(&b, "- [%s] (%s) %s%s%s\n  %s%s\n",
			c.PrefixedID, e.result.SourceType, title, sectionPart, marginalPart, e.snippet, ellipsis)
	}

	if lang == legislation.LangFR {
		b.WriteString("Sources:\n")
	} else {
		b.WriteString("Sources:\n")
	}
	for _, c := range citations {
		text := c.TextEn
		url := c.UrlEn
		if lang == legislation.LangFR {
			text = c.TextFr
			url = c.UrlFr
		}
		fmt.Fprintf(&b, "[%s] %s (%s)\n", c.PrefixedID, text, url)
	}

	return b.String()
}

func sectionPart(label string, lang legislation.Language) string {
	if label == "" {
		return ""
	}
	if lang == legislation.LangFR {
		return fmt.Sprintf(", art %s", label)
	}
	return fmt.Sprintf(", s %s", label)
}

func marginalNotePart(note string) string {
	if note == "" {
		return ""
	}
	return fmt.Sprintf(" (%s)", note)
}
