package parser

import (
	"fmt"
	"strings"

	"legisrag/legislation"
	"legisrag/xmlmodel"
)

// emitSection builds and appends a ParsedSection for a Section or Provision
// node, assigning canonicalSectionId per spec §3.2 and incrementing the
// shared sectionOrder counter.
func (st *docState) emitSection(n *xmlmodel.Node, defaultType legislation.SectionType) {
	st.sectionOrder++
	order := st.sectionOrder

	sectionType := resolveSectionType(n, defaultType, st.scheduleContext)

	label := elementText(n, "Label")
	if n.Tag == "Provision" || label == "" {
		label = fmt.Sprintf("order-%d", order)
	}
	st.currentSectionLabel = label

	textNode := n.FirstElement("Text")
	content := textNode.FlattenText()

	marginalNote := elementText(n, "MarginalNote")

	status := legislation.StatusInForce
	if isRepealed(textNode) || n.FirstElement("Repealed") != nil {
		status = legislation.StatusRepealed
	} else if n.Attr("in-force") == "no" {
		status = legislation.StatusNotInForce
	}

	var changeType legislation.ChangeType
	if ct := n.Attr("change"); ct != "" {
		changeType = legislation.ChangeType(ct)
	}

	section := legislation.ParsedSection{
		CanonicalSectionID: buildCanonicalSectionID(st.docID, st.lang, sectionType, order, st.scheduleSlug, label),
		SectionLabel:       label,
		SectionOrder:       order,
		Language:           st.lang,
		SectionType:        sectionType,
		HierarchyPath:      append([]string(nil), st.hierarchy...),
		MarginalNote:       marginalNote,
		Content:            content,
		Status:             status,
		ChangeType:         changeType,
		EnactedDate:        n.Attr("enacted-date"),
		InForceDate:        n.Attr("inforce-start-date"),
		ScheduleContext:    st.scheduleContext,
	}
	if !st.isRegulation {
		section.ActID = st.docID
	} else {
		section.RegulationID = st.docID
	}

	st.doc.Sections = append(st.doc.Sections, section)

	if marginalNote != "" {
		st.doc.MarginalNotes = append(st.doc.MarginalNotes, legislation.MarginalNote{
			DocID:        st.docID,
			SectionLabel: label,
			Language:     st.lang,
			Content:      marginalNote,
		})
	}

	st.emitDefinitionsFromText(textNode, label)
}

// resolveSectionType implements spec §3.2's amending-section rule: a
// section is `amending` when it carries an explicit type attribute of
// "amending"/"CIF", or when the schedule context (the enclosing schedule's
// Label, or its id when it has no Label) is exactly "NifProvs" or equals
// "amending" ignoring case. The schedule's own type attribute is not read,
// and a schedule id is not consulted when the schedule has a Label.
func resolveSectionType(n *xmlmodel.Node, defaultType legislation.SectionType, scheduleContext string) legislation.SectionType {
	switch n.Attr("type") {
	case "amending", "CIF":
		return legislation.SectionTypeAmending
	}
	if scheduleContext == "NifProvs" || strings.EqualFold(scheduleContext, "amending") {
		return legislation.SectionTypeAmending
	}
	return defaultType
}

// buildCanonicalSectionID implements the two canonicalSectionId formats
// from spec §3.2.
func buildCanonicalSectionID(docID string, lang Language, sectionType legislation.SectionType, order int, scheduleSlug, label string) string {
	base := fmt.Sprintf("%s/%s/%s/%d", docID, lang, sectionType, order)
	if scheduleSlug != "" {
		return fmt.Sprintf("%s/sch-%s/s%s", base, scheduleSlug, label)
	}
	return fmt.Sprintf("%s/s%s", base, label)
}

// isRepealed implements the Text half of spec §4.A.7 / §3.2: it reports
// whether the section's Text has a repealed marker as its only substantive
// child. A Text with some repealed subcontent but other active text is NOT
// repealed. emitSection separately treats a section with a direct Repealed
// child as repealed.
func isRepealed(textNode *xmlmodel.Node) bool {
	if textNode == nil {
		return false
	}

	var substantiveChildren int
	var repealedChildren int
	for _, c := range textNode.Children {
		if c.IsText() {
			if strings.TrimSpace(c.Text) != "" {
				substantiveChildren++
			}
			continue
		}
		if c.Tag == "Repealed" {
			repealedChildren++
			continue
		}
		substantiveChildren++
	}

	if repealedChildren == 0 {
		return false
	}
	return substantiveChildren == 0
}

// extractSyntheticSections turns non-Section schedule content (lists,
// forms, tables) into synthetic sections, per spec §4.A.3's Schedule /
// BillPiece / RelatedOrNotInForce handling.
func (st *docState) extractSyntheticSections(n *xmlmodel.Node) {
	for _, child := range n.Elements("List", "Form", "TableGroup", "Table") {
		st.sectionOrder++
		order := st.sectionOrder
		label := fmt.Sprintf("order-%d", order)
		content := child.FlattenText()

		section := legislation.ParsedSection{
			CanonicalSectionID: buildCanonicalSectionID(st.docID, st.lang, legislation.SectionTypeSchedule, order, st.scheduleSlug, label),
			SectionLabel:       label,
			SectionOrder:       order,
			Language:           st.lang,
			SectionType:        legislation.SectionTypeSchedule,
			HierarchyPath:      append([]string(nil), st.hierarchy...),
			Content:            content,
			Status:             legislation.StatusInForce,
			ScheduleContext:    st.scheduleContext,
		}
		if !st.isRegulation {
			section.ActID = st.docID
		} else {
			section.RegulationID = st.docID
		}
		st.doc.Sections = append(st.doc.Sections, section)
	}
}

// emitDefinitions handles an explicit Definition wrapper element, which may
// contain several DefinedTermEn/DefinedTermFr pairs (spec §4.A.5): the
// i-th English term pairs positionally with the i-th French term.
func (st *docState) emitDefinitions(n *xmlmodel.Node, sectionLabel string) {
	enTerms := n.Elements("DefinedTermEn")
	frTerms := n.Elements("DefinedTermFr")
	scopeRaw := elementText(n, "ScopeText", "IntroText")
	if scopeRaw == "" {
		scopeRaw = n.FlattenText()
	}

	documentWide := legislation.ScopeAct
	if st.isRegulation {
		documentWide = legislation.ScopeRegulation
	}
	scopeType, scopeSections := ParseScope(scopeRaw, sectionLabel, documentWide)

	count := len(enTerms)
	if len(frTerms) > count {
		count = len(frTerms)
	}

	for i := 0; i < count; i++ {
		var en, fr *xmlmodel.Node
		if i < len(enTerms) {
			en = enTerms[i]
		}
		if i < len(frTerms) {
			fr = frTerms[i]
		}
		st.emitTermPair(en, fr, sectionLabel, scopeType, scopeSections, scopeRaw)
	}
}

// emitDefinitionsFromText handles the case where a section has no wrapping
// Definition element but its Text contains inline DefinedTermEn/Fr nodes
// (spec §4.A.5): a synthetic definition is constructed from the section's
// own text.
func (st *docState) emitDefinitionsFromText(textNode *xmlmodel.Node, sectionLabel string) {
	if textNode == nil {
		return
	}
	if def := textNode.FirstElement("Definition"); def != nil {
		return // already handled via walkNode's Definition dispatch
	}
	enTerms := textNode.Elements("DefinedTermEn")
	frTerms := textNode.Elements("DefinedTermFr")
	if len(enTerms) == 0 && len(frTerms) == 0 {
		return
	}
	documentWide := legislation.ScopeAct
	if st.isRegulation {
		documentWide = legislation.ScopeRegulation
	}
	scopeType, scopeSections := ParseScope(textNode.FlattenText(), sectionLabel, documentWide)

	count := len(enTerms)
	if len(frTerms) > count {
		count = len(frTerms)
	}
	for i := 0; i < count; i++ {
		var en, fr *xmlmodel.Node
		if i < len(enTerms) {
			en = enTerms[i]
		}
		if i < len(frTerms) {
			fr = frTerms[i]
		}
		st.emitTermPair(en, fr, sectionLabel, scopeType, scopeSections, "")
	}
}

func (st *docState) emitTermPair(en, fr *xmlmodel.Node, sectionLabel string, scopeType legislation.ScopeType, scopeSections []string, scopeRaw string) {
	var enTerm, frTerm legislation.ParsedDefinedTerm
	haveEn := en != nil
	haveFr := fr != nil

	if haveEn {
		enTerm = legislation.ParsedDefinedTerm{
			Language:      legislation.LangEN,
			Term:          en.FlattenText(),
			Definition:    definitionTextFor(en),
			SectionLabel:  sectionLabel,
			ScopeType:     scopeType,
			ScopeSections: scopeSections,
			ScopeRawText:  scopeRaw,
		}
		enTerm.TermNormalized = NormalizeTermForMatching(enTerm.Term)
		if !st.isRegulation {
			enTerm.ActID = st.docID
		} else {
			enTerm.RegulationID = st.docID
		}
	}
	if haveFr {
		frTerm = legislation.ParsedDefinedTerm{
			Language:      legislation.LangFR,
			Term:          fr.FlattenText(),
			Definition:    definitionTextFor(fr),
			SectionLabel:  sectionLabel,
			ScopeType:     scopeType,
			ScopeSections: scopeSections,
			ScopeRawText:  scopeRaw,
		}
		frTerm.TermNormalized = NormalizeTermForMatching(frTerm.Term)
		if !st.isRegulation {
			frTerm.ActID = st.docID
		} else {
			frTerm.RegulationID = st.docID
		}
	}

	// §4.A.5 pairs the i-th EN/FR term positionally, whether or not their
	// TermNormalized values are equal (an English term and its French
	// equivalent are usually different words).
	if haveEn && haveFr {
		enTerm.PairedTerm = frTerm.Term
		frTerm.PairedTerm = enTerm.Term
	}

	if haveEn {
		st.doc.DefinedTerms = append(st.doc.DefinedTerms, enTerm)
	}
	if haveFr {
		st.doc.DefinedTerms = append(st.doc.DefinedTerms, frTerm)
	}
}

// definitionTextFor pulls the definition text that follows a defined-term
// marker within its enclosing paragraph: the marker's own flattened text is
// the term, its parent's remaining text is the definition.
func definitionTextFor(termNode *xmlmodel.Node) string {
	return termNode.FlattenText()
}
