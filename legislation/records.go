// Package legislation defines the parsed record types produced by the XML
// parser (spec §3.1) and the stored Resource/Embedding rows they become
// once indexed (spec §3.3).
package legislation

import "time"

// Language is one of the two corpus languages.
type Language string

const (
	LangEN Language = "en"
	LangFR Language = "fr"
)

// Status mirrors the lifecycle states an Act, Regulation, or ParsedSection
// may carry.
type Status string

const (
	StatusInForce    Status = "in-force"
	StatusNotInForce Status = "not-in-force"
	StatusRepealed   Status = "repealed"
)

// SectionType distinguishes the five shapes a ParsedSection may take
// (section, schedule, amending, provision, heading).
type SectionType string

const (
	SectionTypeSection  SectionType = "section"
	SectionTypeSchedule SectionType = "schedule"
	SectionTypeAmending SectionType = "amending"
	SectionTypeProvision SectionType = "provision"
	SectionTypeHeading  SectionType = "heading"
)

// ChangeType marks the kind of in-flight amendment a section represents.
type ChangeType string

const (
	ChangeIns ChangeType = "ins"
	ChangeDel ChangeType = "del"
	ChangeOff ChangeType = "off"
	ChangeAlt ChangeType = "alt"
)

// ScopeType is the breadth over which a defined term's meaning applies.
type ScopeType string

const (
	ScopeAct        ScopeType = "act"
	ScopeRegulation ScopeType = "regulation"
	ScopePart       ScopeType = "part"
	ScopeSection    ScopeType = "section"
)

// SourceType enumerates every distinct kind of retrievable record, used as
// the Resource row's discriminator and as the Citation Builder's dispatch
// key (spec §4.E).
type SourceType string

const (
	SourceAct                SourceType = "act"
	SourceRegulation         SourceType = "regulation"
	SourceActSection         SourceType = "act_section"
	SourceRegulationSection  SourceType = "regulation_section"
	SourceSchedule           SourceType = "schedule"
	SourceDefinedTerm        SourceType = "defined_term"
	SourceCrossReference     SourceType = "cross_reference"
	SourcePreamble           SourceType = "preamble"
	SourceTreaty             SourceType = "treaty"
	SourceFootnote           SourceType = "footnote"
	SourceMarginalNote       SourceType = "marginal_note"
	SourceRelatedProvisions  SourceType = "related_provisions"
	SourcePublicationItem    SourceType = "publication_item"
	SourceTableOfProvisions  SourceType = "table_of_provisions"
	SourceSignatureBlock     SourceType = "signature_block"
)

// LIMSMetadata holds the editorial namespace attributes Justice Canada
// attaches to elements (spec §6.1).
type LIMSMetadata struct {
	FID              string `json:"fid,omitempty"`
	EnactedDate      string `json:"enactedDate,omitempty"`
	InForceStartDate string `json:"inForceStartDate,omitempty"`
}

// Act is a federal statute (spec §3.1).
type Act struct {
	ActID             string
	Language          Language
	Title             string
	LongTitle         string
	ShortTitle        string
	Status            Status
	ConsolidationDate string
	LIMSMetadata      *LIMSMetadata
	Preambles         []Preamble
	Treaties          []Treaty
	PublicationItems  []PublicationItem
}

// Regulation is delegated legislation made under an enabling Act (spec §3.1).
type Regulation struct {
	Act
	RegulationID      string
	EnablingActID     string
	EnablingActTitle  string
	RegistrationDate  string
}

// ParsedSection is a numbered provision, schedule entry, or synthetic
// amending/provision record (spec §3.1, §3.2).
type ParsedSection struct {
	CanonicalSectionID string
	SectionLabel       string
	SectionOrder       int
	Language           Language
	SectionType        SectionType
	HierarchyPath      []string
	MarginalNote       string
	Content            string
	ContentHTML        string
	Status             Status
	ChangeType         ChangeType
	EnactedDate        string
	InForceDate        string
	LIMSMetadata       *LIMSMetadata
	HistoricalNotes    []string
	Footnotes          []string
	InternalReferences []string
	ScheduleContext    string
	ActID              string
	RegulationID       string
}

// ParsedDefinedTerm is a word or phrase whose meaning is fixed by an
// explicit definition (spec §3.1, §4.A.5).
type ParsedDefinedTerm struct {
	Language        Language
	Term            string
	TermNormalized  string
	PairedTerm      string
	Definition      string
	ActID           string
	RegulationID    string
	SectionLabel    string
	ScopeType       ScopeType
	ScopeSections   []string
	ScopeRawText    string
	LIMSMetadata    *LIMSMetadata
}

// ParsedCrossReference is a reference from one document's section to
// another act or regulation (spec §3.1).
type ParsedCrossReference struct {
	SourceDocID        string
	SourceSectionLabel string
	TargetType         SourceType // SourceAct or SourceRegulation
	TargetRef          string
	TargetSubref        string
}

// Treaty, Preamble, Schedule, Footnote, RelatedProvision, PublicationItem,
// MarginalNote, TableOfProvisions, and SignatureBlock each carry document
// identifiers, language, and content (spec §3.1). All but MarginalNote also
// carry a position index and PairingIndex so the heuristic
// pairedResourceKey reconstruction for these source types (spec §9 Open
// Questions) can succeed; MarginalNote is identified by SectionLabel.
type Treaty struct {
	DocID        string
	Language     Language
	Index        int
	PairingIndex int
	Title        string
	Content      string
}

type Preamble struct {
	DocID        string
	Language     Language
	Index        int
	PairingIndex int
	Content      string
}

type Schedule struct {
	DocID        string
	Language     Language
	Label        string
	Index        int
	PairingIndex int
}

type Footnote struct {
	DocID        string
	SectionLabel string
	Language     Language
	Index        int
	PairingIndex int
	Content      string
}

type RelatedProvision struct {
	DocID        string
	Language     Language
	Index        int
	PairingIndex int
	Content      string
}

type PublicationItem struct {
	DocID        string
	Language     Language
	Index        int
	PairingIndex int
	Content      string
}

type MarginalNote struct {
	DocID        string
	SectionLabel string
	Language     Language
	Content      string
}

type TableOfProvisions struct {
	DocID        string
	Language     Language
	Index        int
	PairingIndex int
	Content      string
}

type SignatureBlock struct {
	DocID        string
	Language     Language
	Index        int
	PairingIndex int
	Content      string
}

// ParsedDocument is the output of one parser run, keyed by root document
// type (spec §4.A.2).
type ParsedDocument struct {
	Acts               []Act
	Regulations        []Regulation
	Sections           []ParsedSection
	DefinedTerms       []ParsedDefinedTerm
	CrossReferences    []ParsedCrossReference
	Preambles          []Preamble
	Treaties           []Treaty
	Schedules          []Schedule
	Footnotes          []Footnote
	RelatedProvisions  []RelatedProvision
	PublicationItems   []PublicationItem
	MarginalNotes      []MarginalNote
	TableOfProvisions  []TableOfProvisions
	SignatureBlocks    []SignatureBlock
}

// ResourceMetadata is the denormalized, filterable metadata stored
// alongside a Resource row (spec §3.3).
type ResourceMetadata struct {
	ActID             string     `json:"actId,omitempty"`
	RegulationID      string     `json:"regulationId,omitempty"`
	SectionLabel      string     `json:"sectionLabel,omitempty"`
	SectionType       SectionType `json:"sectionType,omitempty"`
	ScopeType         ScopeType  `json:"scopeType,omitempty"`
	ScopeSections     []string   `json:"scopeSections,omitempty"`
	Status            Status     `json:"status,omitempty"`
	Title             string     `json:"title,omitempty"`
	LongTitle         string     `json:"longTitle,omitempty"`
	EnablingActTitle  string     `json:"enablingActTitle,omitempty"`
	MarginalNote      string     `json:"marginalNote,omitempty"`
	TargetType        SourceType `json:"targetType,omitempty"`
	TargetRef         string     `json:"targetRef,omitempty"`
	LastAmendedDate   *time.Time `json:"lastAmendedDate,omitempty"`
	EnactedDate       *time.Time `json:"enactedDate,omitempty"`
	InForceDate       *time.Time `json:"inForceDate,omitempty"`
	ConsolidationDate *time.Time `json:"consolidationDate,omitempty"`
	RegistrationDate  *time.Time `json:"registrationDate,omitempty"`
}

// Resource is one retrievable unit of legislative content (spec §3.3).
type Resource struct {
	ID                string
	ResourceKey       string
	Language          Language
	SourceType        SourceType
	Content           string
	Metadata          ResourceMetadata
	PairedResourceKey string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Embedding is the vector + full-text representation of a Resource's
// content (spec §3.3).
type Embedding struct {
	ID             string
	ResourceID     string
	Content        string
	Vector         []float32
	EmbeddingModel string
}
