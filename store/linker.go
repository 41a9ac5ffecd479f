package store

import (
	"legisrag/legislation"
	"legisrag/parser"
)

// IndexInput is one record ready to become a Resource+Embedding row. It
// carries the raw identifying fields the Indexer needs (spec §3.2's
// resourceKey derivation) separately from the denormalized ResourceMetadata
// that gets stored, since linking happens before the final Resource value
// is built.
type IndexInput struct {
	SourceType     legislation.SourceType
	SourceID       string
	Language       legislation.Language
	ChunkIndex     int
	Content        string
	Metadata       legislation.ResourceMetadata
	TermNormalized string // defined terms only
	DocID          string // owning act/regulation id, for term pairing scope
	IsRegulationID bool   // whether SourceID/DocID follow regulation-id conventions

	ResourceKey       string
	PairedResourceKey string
}

// LinkPairs implements the two-phase "parse-all, then link" pipeline from
// spec §9 Design Notes: after every EN/FR record in a batch has a
// resourceKey, a second pass matches opposite-language counterparts and
// assigns pairedResourceKey bidirectionally (spec §3.2: "pairing is
// bidirectional; either both or neither exists").
func LinkPairs(inputs []*IndexInput) {
	for _, in := range inputs {
		in.ResourceKey = ResourceKey(string(in.SourceType), in.SourceID, string(in.Language), in.ChunkIndex)
	}

	byType := make(map[legislation.SourceType][]*IndexInput)
	for _, in := range inputs {
		byType[in.SourceType] = append(byType[in.SourceType], in)
	}

	for sourceType, group := range byType {
		if sourceType == legislation.SourceDefinedTerm {
			linkDefinedTerms(group)
			continue
		}
		linkByTranslatedSourceID(group)
	}
}

// linkByTranslatedSourceID pairs records whose SourceID matches (after
// regulation-id translation when applicable), same ChunkIndex, opposite
// language (spec §4.A.8 for the regulation-id translation table).
func linkByTranslatedSourceID(group []*IndexInput) {
	index := make(map[string]*IndexInput, len(group))
	for _, in := range group {
		index[candidateKey(in.Language, in.SourceID, in.ChunkIndex)] = in
	}

	for _, in := range group {
		if in.PairedResourceKey != "" {
			continue
		}
		oppositeLang := oppositeLanguage(in.Language)
		candidateID := in.SourceID
		if in.IsRegulationID {
			candidateID = parser.TranslateRegulationID(in.SourceID, in.Language, oppositeLang)
		}
		if peer, ok := index[candidateKey(oppositeLang, candidateID, in.ChunkIndex)]; ok {
			in.PairedResourceKey = peer.ResourceKey
			peer.PairedResourceKey = in.ResourceKey
		}
	}
}

// linkDefinedTerms pairs defined terms scoped to the same document whose
// termNormalized values match and whose languages are opposite (spec §3.2).
func linkDefinedTerms(group []*IndexInput) {
	byDoc := make(map[string][]*IndexInput)
	for _, in := range group {
		byDoc[in.DocID] = append(byDoc[in.DocID], in)
	}
	for _, docGroup := range byDoc {
		for i, a := range docGroup {
			if a.PairedResourceKey != "" {
				continue
			}
			for j, b := range docGroup {
				if i == j || b.PairedResourceKey != "" {
					continue
				}
				if a.Language == b.Language {
					continue
				}
				if a.TermNormalized != "" && a.TermNormalized == b.TermNormalized {
					a.PairedResourceKey = b.ResourceKey
					b.PairedResourceKey = a.ResourceKey
					break
				}
			}
		}
	}
}

func candidateKey(lang legislation.Language, sourceID string, chunkIndex int) string {
	return string(lang) + "|" + sourceID + "|" + itoa(chunkIndex)
}

func oppositeLanguage(lang legislation.Language) legislation.Language {
	if lang == legislation.LangEN {
		return legislation.LangFR
	}
	return legislation.LangEN
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}
