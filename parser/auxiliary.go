package parser

import (
	"strings"

	"legisrag/legislation"
	"legisrag/xmlmodel"
)

// emitPreamble appends a Preamble record for the non-operative introductory
// text a Statute or Regulation may carry (spec §3.1).
func (st *docState) emitPreamble(n *xmlmodel.Node) {
	st.preambleIndex++
	st.doc.Preambles = append(st.doc.Preambles, legislation.Preamble{
		DocID:        st.docID,
		Language:     st.lang,
		Index:        st.preambleIndex,
		PairingIndex: st.preambleIndex,
		Content:      n.FlattenText(),
	})
}

// emitTreaty appends a Treaty record for an international instrument
// reproduced in a schedule or body (spec §3.1).
func (st *docState) emitTreaty(n *xmlmodel.Node) {
	st.treatyIndex++
	st.doc.Treaties = append(st.doc.Treaties, legislation.Treaty{
		DocID:        st.docID,
		Language:     st.lang,
		Index:        st.treatyIndex,
		PairingIndex: st.treatyIndex,
		Title:        elementText(n, "Title", "TitleText"),
		Content:      n.FlattenText(),
	})
}

// emitCrossReference appends a ParsedCrossReference record for a reference
// from the current section to another act or regulation (spec §3.1).
func (st *docState) emitCrossReference(n *xmlmodel.Node) {
	targetRef := firstNonEmpty(n.Attr("link"), n.Attr("ref"), n.FlattenText())
	targetType := legislation.SourceAct
	if strings.Contains(strings.ToLower(n.Attr("type")), "regulation") || n.Attr("reg") != "" {
		targetType = legislation.SourceRegulation
	}
	st.doc.CrossReferences = append(st.doc.CrossReferences, legislation.ParsedCrossReference{
		SourceDocID:        st.docID,
		SourceSectionLabel: st.currentSectionLabel,
		TargetType:         targetType,
		TargetRef:          targetRef,
		TargetSubref:       n.Attr("subref"),
	})
}

// emitFootnote appends a Footnote record, attributed to the enclosing
// section if any (spec §3.1).
func (st *docState) emitFootnote(n *xmlmodel.Node) {
	st.footnoteIndex++
	st.doc.Footnotes = append(st.doc.Footnotes, legislation.Footnote{
		DocID:        st.docID,
		SectionLabel: st.currentSectionLabel,
		Language:     st.lang,
		Index:        st.footnoteIndex,
		PairingIndex: st.footnoteIndex,
		Content:      n.FlattenText(),
	})
}

// emitTableOfProvisions appends a TableOfProvisions record for a document's
// front-matter listing of its own sections (spec §3.1).
func (st *docState) emitTableOfProvisions(n *xmlmodel.Node) {
	st.tocIndex++
	st.doc.TableOfProvisions = append(st.doc.TableOfProvisions, legislation.TableOfProvisions{
		DocID:        st.docID,
		Language:     st.lang,
		Index:        st.tocIndex,
		PairingIndex: st.tocIndex,
		Content:      n.FlattenText(),
	})
}

// emitSignatureBlock appends a SignatureBlock record for the
// order-in-council or ministerial signature text at a document's end
// (spec §3.1).
func (st *docState) emitSignatureBlock(n *xmlmodel.Node) {
	st.sigBlockIndex++
	st.doc.SignatureBlocks = append(st.doc.SignatureBlocks, legislation.SignatureBlock{
		DocID:        st.docID,
		Language:     st.lang,
		Index:        st.sigBlockIndex,
		PairingIndex: st.sigBlockIndex,
		Content:      n.FlattenText(),
	})
}

// emitRelatedProvision appends a RelatedProvision record for "related or
// not in force" text that stands apart from the schedule's synthetic
// sections (spec §3.1).
func (st *docState) emitRelatedProvision(n *xmlmodel.Node) {
	st.relatedIndex++
	st.doc.RelatedProvisions = append(st.doc.RelatedProvisions, legislation.RelatedProvision{
		DocID:        st.docID,
		Language:     st.lang,
		Index:        st.relatedIndex,
		PairingIndex: st.relatedIndex,
		Content:      n.FlattenText(),
	})
}

// emitPublicationItem appends a PublicationItem record for a gazette-style
// publication notice (spec §3.1).
func (st *docState) emitPublicationItem(n *xmlmodel.Node) {
	st.pubItemIndex++
	st.doc.PublicationItems = append(st.doc.PublicationItems, legislation.PublicationItem{
		DocID:        st.docID,
		Language:     st.lang,
		Index:        st.pubItemIndex,
		PairingIndex: st.pubItemIndex,
		Content:      n.FlattenText(),
	})
}

// emitScheduleRecord appends a Schedule record for the schedule itself, as
// a retrievable unit distinct from the synthetic ParsedSections it contains
// (spec §3.1). Called once enterSchedule has set scheduleContext/scheduleSlug.
func (st *docState) emitScheduleRecord() {
	st.scheduleIndex++
	st.doc.Schedules = append(st.doc.Schedules, legislation.Schedule{
		DocID:        st.docID,
		Language:     st.lang,
		Label:        st.scheduleContext,
		Index:        st.scheduleIndex,
		PairingIndex: st.scheduleIndex,
	})
}
