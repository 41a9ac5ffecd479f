// Package chunk implements the Chunker (spec §4.B): it splits long section
// content into token-bounded chunks, preferring legal-boundary splits over
// sentence and word boundaries, and prepends a contextual header to each
// chunk.
package chunk

import (
	"context"
	"regexp"
	"strings"

	"github.com/jdkato/prose/v2"
	"github.com/pkoukk/tiktoken-go"
)

// Chunk is one unit of text ready for embedding, alongside its position in
// the section's chunk sequence.
type Chunk struct {
	Content string
	Index   int
}

// Chunker holds the token budget and the tokenizer/sentence-splitter used
// to measure and cut text.
type Chunker struct {
	TokenTarget  int
	TokenOverlap int

	encoding *tiktoken.Tiktoken
}

// New builds a Chunker for the given token budget. tokenTarget/tokenOverlap
// come from config.Config (spec §6.5); ≈1536/≈256 are the defaults.
func New(tokenTarget, tokenOverlap int) (*Chunker, error) {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, err
	}
	return &Chunker{TokenTarget: tokenTarget, TokenOverlap: tokenOverlap, encoding: enc}, nil
}

func (c *Chunker) tokenCount(s string) int {
	return len(c.encoding.Encode(s, nil, nil))
}

// legalBoundaryPatterns is the priority order for splitting structured
// legal text before falling back to sentence/word boundaries (spec §4.B):
// subsections, paragraphs, subparagraphs, clauses.
var legalBoundaryPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?m)^\s*\(\d+(?:\.\d+)?\)\s`),    // (1) (2) ...
	regexp.MustCompile(`(?m)^\s*\([a-z]+\)\s`),           // (a) (b) ...
	regexp.MustCompile(`(?m)^\s*\([ivxlcdm]+\)\s`),       // (i) (ii) ...
	regexp.MustCompile(`(?m)^\s*\([A-Z]\)\s`),            // (A) (B) ...
}

// Header builds the contextual header prepended to every chunk: document
// title, bill/part label, schedule label, and section identifier joined by
// "|", so each chunk is semantically self-contained (spec §4.B).
func Header(parts ...string) string {
	var nonEmpty []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			nonEmpty = append(nonEmpty, strings.TrimSpace(p))
		}
	}
	return strings.Join(nonEmpty, " | ")
}

// Chunk splits content into a one-shot sequence of header-prefixed chunks.
// The returned channel is closed once every chunk has been produced; it is
// a finite, single-pass sequence, not restartable — callers must range
// over it exactly once.
func (c *Chunker) Chunk(ctx context.Context, content, header string) <-chan Chunk {
	out := make(chan Chunk)
	go func() {
		defer close(out)
		normalized := collapseNewlines(content)
		units := c.splitIntoUnits(normalized)
		packed := c.pack(units)
		for i, body := range packed {
			chunkText := body
			if header != "" {
				chunkText = header + "\n\n" + body
			}
			select {
			case out <- Chunk{Content: chunkText, Index: i}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// collapseNewlines collapses runs of blank lines and trims, preserving
// content otherwise as-is; the embedding-time normalization (newlines to
// spaces) is applied later so stored content matches embedded text exactly
// per spec §3.3/§4.B.
func collapseNewlines(s string) string {
	re := regexp.MustCompile(`\n{3,}`)
	s = re.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// splitIntoUnits breaks content into the smallest legal-boundary-aware
// units available, preferring (in order) subsections, paragraphs,
// subparagraphs, clauses, then sentences, then words for any oversized unit.
func (c *Chunker) splitIntoUnits(content string) []unit {
	for _, re := range legalBoundaryPatterns {
		locs := re.FindAllStringIndex(content, -1)
		if len(locs) < 2 {
			continue
		}
		return c.unitsFromBoundaries(content, locs)
	}
	return c.unitsFromSentences(content)
}

type unit struct {
	text   string
	tokens int
}

func (c *Chunker) unitsFromBoundaries(content string, locs [][]int) []unit {
	var units []unit
	start := 0
	for _, loc := range locs {
		if loc[0] > start {
			units = append(units, c.splitOversized(content[start:loc[0]])...)
		}
		start = loc[0]
	}
	units = append(units, c.splitOversized(content[start:])...)
	return units
}

func (c *Chunker) unitsFromSentences(content string) []unit {
	sentences := splitSentences(content)
	var units []unit
	for _, s := range sentences {
		units = append(units, c.splitOversized(s)...)
	}
	return units
}

// splitOversized splits s by word whenever it alone exceeds the token
// budget (spec §4.B, "when a single sentence exceeds the budget, split by
// word"); otherwise returns it as a single pre-measured unit, computing the
// token count once (O(n) pre-pass) to avoid quadratic re-encoding.
func (c *Chunker) splitOversized(s string) []unit {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	tokens := c.tokenCount(s)
	if tokens <= c.TokenTarget {
		return []unit{{text: s, tokens: tokens}}
	}

	words := strings.Fields(s)
	var units []unit
	var b strings.Builder
	count := 0
	flush := func() {
		if b.Len() == 0 {
			return
		}
		text := strings.TrimSpace(b.String())
		units = append(units, unit{text: text, tokens: c.tokenCount(text)})
		b.Reset()
		count = 0
	}
	for _, w := range words {
		wt := c.tokenCount(w)
		if count+wt > c.TokenTarget && b.Len() > 0 {
			flush()
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(w)
		count += wt
	}
	flush()
	return units
}

// splitSentences uses jdkato/prose's sentence tokenizer, falling back to a
// coarse split when prose can't build a document (e.g. empty input).
func splitSentences(content string) []string {
	doc, err := prose.NewDocument(content, prose.WithTagging(false), prose.WithExtraction(false))
	if err != nil {
		return []string{content}
	}
	var out []string
	for _, s := range doc.Sentences() {
		if t := strings.TrimSpace(s.Text); t != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return []string{content}
	}
	return out
}

// pack greedily packs measured units into chunks bounded by TokenTarget,
// carrying TokenOverlap tokens of trailing context into the next chunk.
func (c *Chunker) pack(units []unit) []string {
	if len(units) == 0 {
		return nil
	}

	var chunks []string
	var current []unit
	currentTokens := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		var b strings.Builder
		for i, u := range current {
			if i > 0 {
				b.WriteString(" ")
			}
			b.WriteString(u.text)
		}
		chunks = append(chunks, b.String())
	}

	for _, u := range units {
		if currentTokens+u.tokens > c.TokenTarget && len(current) > 0 {
			flush()
			current = overlapTail(current, c.TokenOverlap)
			currentTokens = 0
			for _, o := range current {
				currentTokens += o.tokens
			}
		}
		current = append(current, u)
		currentTokens += u.tokens
	}
	flush()

	return chunks
}

// overlapTail returns the shortest run of trailing units of the previous
// chunk whose combined token count reaches or exceeds the overlap budget
// (all units when they never reach it), to seed the next chunk with ≈16%
// overlap.
func overlapTail(units []unit, overlapTokens int) []unit {
	if overlapTokens <= 0 || len(units) == 0 {
		return nil
	}
	total := 0
	start := len(units)
	for i := len(units) - 1; i >= 0; i-- {
		total += units[i].tokens
		start = i
		if total >= overlapTokens {
			break
		}
	}
	return append([]unit(nil), units[start:]...)
}
