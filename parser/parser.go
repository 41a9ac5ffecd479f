// Package parser implements the XML ingestion parser (spec §4.A): it walks
// a LIMS document tree in one traversal and emits the typed records defined
// in package legislation.
package parser

import (
	"fmt"
	"strings"

	"legisrag/legiserrors"
	"legisrag/legislation"
	"legisrag/xmlmodel"
)

type Language = legislation.Language

const (
	LangEN = legislation.LangEN
	LangFR = legislation.LangFR
)

// docState carries the three pieces of traversal state named in spec
// §4.A.3: a monotonic section-order counter, a hierarchy-heading stack, and
// the current schedule context (if any).
type docState struct {
	docID           string
	lang            Language
	sectionOrder    int
	hierarchy       []string
	scheduleContext string
	scheduleSlug    string
	isRegulation    bool

	// currentSectionLabel tracks the enclosing section while walking its
	// children, so nested cross-references and footnotes can attribute
	// themselves to it (spec §3.1).
	currentSectionLabel string

	// Position counters for the auxiliary record families (spec §3.1),
	// each doubling as PairingIndex so cross-lingual pairing of these
	// records can fall back to positional matching (spec §9 Open Questions).
	// crossRefIndex is declared but not advanced: ParsedCrossReference has
	// no PairingIndex.
	crossRefIndex int
	preambleIndex int
	treatyIndex   int
	footnoteIndex int
	relatedIndex  int
	pubItemIndex  int
	tocIndex      int
	sigBlockIndex int
	scheduleIndex int

	doc *legislation.ParsedDocument
}

// Parse parses a LIMS Statute or Regulation document and emits the typed
// records in document order (spec §4.A.3). lang is the document's own
// language, since LIMS XML does not universally self-declare it.
func Parse(root *xmlmodel.Node, lang Language) (*legislation.ParsedDocument, error) {
	if root == nil {
		return nil, legiserrors.NewParseError("empty-document", "/")
	}

	switch root.Tag {
	case "Statute":
		return parseStatute(root, lang)
	case "Regulation":
		return parseRegulation(root, lang)
	default:
		return nil, legiserrors.NewParseError("unrecognized-root", root.Tag)
	}
}

func parseStatute(root *xmlmodel.Node, lang Language) (*legislation.ParsedDocument, error) {
	identification := root.FirstElement("Identification")
	actID := firstNonEmpty(root.Attr("id"), elementText(identification, "BillNumber"), elementText(identification, "ActCitation"))
	if actID == "" {
		return nil, legiserrors.NewParseError("missing-identification", "Statute/Identification")
	}

	st := &docState{docID: actID, lang: lang, doc: &legislation.ParsedDocument{}}

	act := legislation.Act{
		ActID:             actID,
		Language:          lang,
		Title:             elementText(identification, "ShortTitle", "LongTitle", "Title"),
		LongTitle:         elementText(identification, "LongTitle"),
		ShortTitle:        elementText(identification, "ShortTitle"),
		Status:            documentStatus(root),
		ConsolidationDate: root.Attr("consolidated-date"),
	}
	st.doc.Acts = append(st.doc.Acts, act)

	body := root.FirstElement("Body")
	if body != nil {
		st.walkChildren(body)
	}

	return st.doc, nil
}

func parseRegulation(root *xmlmodel.Node, lang Language) (*legislation.ParsedDocument, error) {
	identification := root.FirstElement("Identification")
	regID := firstNonEmpty(root.Attr("id"), elementText(identification, "RegulationCitation"), elementText(identification, "InstrumentNumber"))
	if regID == "" {
		return nil, legiserrors.NewParseError("missing-identification", "Regulation/Identification")
	}

	st := &docState{docID: regID, lang: lang, isRegulation: true, doc: &legislation.ParsedDocument{}}

	reg := legislation.Regulation{
		Act: legislation.Act{
			ActID:             regID,
			Language:          lang,
			Title:             elementText(identification, "Title"),
			Status:            documentStatus(root),
			ConsolidationDate: root.Attr("consolidated-date"),
		},
		RegulationID:     regID,
		EnablingActID:    elementText(identification, "EnablingAuthority"),
		EnablingActTitle: elementText(identification, "EnablingAuthority"),
		RegistrationDate: root.Attr("registration-date"),
	}
	st.doc.Regulations = append(st.doc.Regulations, reg)

	body := root.FirstElement("Body")
	if body != nil {
		st.walkChildren(body)
	}

	return st.doc, nil
}

func documentStatus(root *xmlmodel.Node) legislation.Status {
	if root.Attr("in-force") == "no" {
		return legislation.StatusNotInForce
	}
	return legislation.StatusInForce
}

// walkChildren implements the per-node dispatch table of spec §4.A.3.
func (st *docState) walkChildren(n *xmlmodel.Node) {
	for _, child := range n.Elements() {
		st.walkNode(child)
	}
}

func (st *docState) walkNode(n *xmlmodel.Node) {
	switch n.Tag {
	case "Heading":
		st.pushHeading(n)
		st.walkChildren(n)
		st.popHeading()
	case "Section":
		st.emitSection(n, legislation.SectionTypeSection)
		st.walkChildren(n)
	case "Provision":
		st.emitSection(n, legislation.SectionTypeProvision)
		st.walkChildren(n)
	case "Schedule":
		st.enterSchedule(n)
		st.emitScheduleRecord()
		st.extractSyntheticSections(n)
		st.walkChildren(n)
		st.leaveSchedule()
	case "Body", "Order", "BilingualGroup":
		st.walkChildren(n)
	case "BillPiece", "RelatedOrNotInForce":
		if st.scheduleContext != "" {
			st.extractSyntheticSections(n)
		}
		st.walkChildren(n)
	case "Definition":
		st.emitDefinitions(n, "")
	case "Preamble":
		st.emitPreamble(n)
		st.walkChildren(n)
	case "Treaty":
		st.emitTreaty(n)
		st.walkChildren(n)
	case "XRefExternal", "XRefInternal", "XRef":
		st.emitCrossReference(n)
	case "Footnote":
		st.emitFootnote(n)
	case "TOC", "TableOfProvisions":
		st.emitTableOfProvisions(n)
	case "SignatureBlock":
		st.emitSignatureBlock(n)
	case "RelatedProvision":
		st.emitRelatedProvision(n)
	case "PublicationItem", "GazetteNotice":
		st.emitPublicationItem(n)
	default:
		st.walkChildren(n)
	}
}

// pushHeading trims the hierarchy stack to depth < level, then pushes this
// heading's "[label] [title]" text (spec §4.A.3 state item 2).
func (st *docState) pushHeading(n *xmlmodel.Node) {
	level := 1
	if lv := n.Attr("level"); lv != "" {
		fmt.Sscanf(lv, "%d", &level)
	}
	if level-1 < len(st.hierarchy) {
		st.hierarchy = st.hierarchy[:level-1]
	}
	label := elementText(n, "Label")
	title := elementText(n, "TitleText", "Title")
	text := strings.TrimSpace(strings.Join(nonEmpty(label, title), " "))
	if text == "" {
		text = n.FlattenText()
	}
	st.hierarchy = append(st.hierarchy, text)
}

func (st *docState) popHeading() {
	if len(st.hierarchy) > 0 {
		st.hierarchy = st.hierarchy[:len(st.hierarchy)-1]
	}
}

func (st *docState) enterSchedule(n *xmlmodel.Node) {
	label := elementText(n, "Label", "ScheduleLabel")
	if label == "" {
		label = n.Attr("id")
	}
	st.scheduleContext = label
	st.scheduleSlug = scheduleSlug(label)
	st.hierarchy = append(st.hierarchy, label)
}

func (st *docState) leaveSchedule() {
	st.popHeading()
	st.scheduleContext = ""
	st.scheduleSlug = ""
}

func scheduleSlug(label string) string {
	return strings.ToLower(strings.Join(strings.Fields(label), "-"))
}

func nonEmpty(ss ...string) []string {
	var out []string
	for _, s := range ss {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func firstNonEmpty(ss ...string) string {
	for _, s := range ss {
		if s != "" {
			return s
		}
	}
	return ""
}

// elementText returns the flattened text of the first matching child
// element found among the given tag names, trying each in order.
func elementText(n *xmlmodel.Node, tags ...string) string {
	if n == nil {
		return ""
	}
	for _, tag := range tags {
		if e := n.FirstElement(tag); e != nil {
			return e.FlattenText()
		}
	}
	return ""
}
