// Command legisingest parses LIMS XML documents, chunks and embeds their
// content, and indexes them into Postgres. It runs once (-once) or on the
// configured cron schedule.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"legisrag/chunk"
	"legisrag/config"
	"legisrag/embedclient"
	"legisrag/legislation"
	"legisrag/parser"
	"legisrag/store"
	"legisrag/xmlmodel"
)

func main() {
	dir := flag.String("dir", "./corpus", "directory of LIMS XML documents to ingest")
	once := flag.Bool("once", false, "run a single ingest pass and exit instead of scheduling")
	flag.Parse()

	logger, err := config.InitLogger()
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer config.Cleanup()
	cfg := config.Load(logger)

	st, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer st.Close()

	ctx := context.Background()
	if err := st.EnsureSchema(ctx); err != nil {
		logger.Fatal("failed to ensure database schema", zap.Error(err))
	}

	embedder, err := embedclient.New(cfg.EmbedderHost, cfg.EmbeddingModel,
		cfg.RequestTimeoutSeconds, cfg.MaxRetries, cfg.RetryDelaySeconds, cfg.EmbeddingCacheTTLSeconds, logger)
	if err != nil {
		logger.Fatal("failed to initialize embedding client", zap.Error(err))
	}

	chunker, err := chunk.New(cfg.ChunkTokenTarget, cfg.ChunkTokenOverlap)
	if err != nil {
		logger.Fatal("failed to initialize chunker", zap.Error(err))
	}

	ing := &ingester{
		store:    st,
		indexer:  store.NewIndexer(st),
		embedder: embedder,
		chunker:  chunker,
		model:    cfg.EmbeddingModel,
		logger:   logger,
	}

	if *once {
		if err := ing.runOnce(ctx, *dir); err != nil {
			logger.Fatal("ingest run failed", zap.Error(err))
		}
		return
	}

	c := cron.New()
	_, err = c.AddFunc(cfg.IngestScheduleCron, func() {
		if err := ing.runOnce(context.Background(), *dir); err != nil {
			logger.Error("scheduled ingest run failed", zap.Error(err))
		}
	})
	if err != nil {
		logger.Fatal("failed to schedule ingest job", zap.Error(err))
	}
	logger.Info("ingest scheduler started", zap.String("cron", cfg.IngestScheduleCron))
	c.Run()
}

type ingester struct {
	store    *store.Store
	indexer  *store.Indexer
	embedder *embedclient.Client
	chunker  *chunk.Chunker
	model    string
	logger   *zap.Logger
}

// runOnce parses every XML file in dir, builds index inputs, links
// cross-language pairs across the whole batch, embeds each chunk, and
// upserts. Per-file parse failures are logged and skipped so one malformed
// document does not abort the batch (spec §7: "Fails the ingest item; does
// not abort other items").
func (ing *ingester) runOnce(ctx context.Context, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read corpus directory: %w", err)
	}

	var inputs []*store.IndexInput
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".xml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		docInputs, err := ing.parseFile(path)
		if err != nil {
			ing.logger.Error("failed to parse document", zap.String("path", path), zap.Error(err))
			continue
		}
		inputs = append(inputs, docInputs...)
	}

	store.LinkPairs(inputs)

	for _, in := range inputs {
		if err := ing.embedAndUpsert(ctx, in); err != nil {
			ing.logger.Error("failed to index resource", zap.String("resourceKey", in.ResourceKey), zap.Error(err))
		}
	}

	ing.logger.Info("ingest pass complete", zap.Int("resources", len(inputs)))
	return nil
}

func (ing *ingester) parseFile(path string) ([]*store.IndexInput, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	root, err := xmlmodel.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse XML: %w", err)
	}

	lang := parser.LangEN
	if strings.Contains(strings.ToLower(path), "_f.xml") || strings.Contains(strings.ToLower(path), "-fra") {
		lang = parser.LangFR
	}

	doc, err := parser.Parse(root, lang)
	if err != nil {
		return nil, err
	}

	return ing.buildInputs(doc, lang), nil
}

func (ing *ingester) buildInputs(doc *legislation.ParsedDocument, lang legislation.Language) []*store.IndexInput {
	var out []*store.IndexInput
	isRegulation := len(doc.Regulations) > 0

	for _, act := range doc.Acts {
		out = append(out, &store.IndexInput{
			SourceType: legislation.SourceAct,
			SourceID:   act.ActID,
			DocID:      act.ActID,
			Language:   lang,
			ChunkIndex: 0,
			Content:    act.Title,
			Metadata: legislation.ResourceMetadata{
				ActID:             act.ActID,
				Title:             act.Title,
				LongTitle:         act.LongTitle,
				Status:            act.Status,
				ConsolidationDate: parseDate(act.ConsolidationDate),
			},
		})
	}

	for _, reg := range doc.Regulations {
		out = append(out, &store.IndexInput{
			SourceType:     legislation.SourceRegulation,
			SourceID:       reg.RegulationID,
			DocID:          reg.RegulationID,
			Language:       lang,
			ChunkIndex:     0,
			Content:        reg.Title,
			IsRegulationID: true,
			Metadata: legislation.ResourceMetadata{
				RegulationID:      reg.RegulationID,
				Title:             reg.Title,
				EnablingActTitle:  reg.EnablingActTitle,
				Status:            reg.Status,
				ConsolidationDate: parseDate(reg.ConsolidationDate),
				RegistrationDate:  parseDate(reg.RegistrationDate),
			},
		})
	}

	for _, sec := range doc.Sections {
		idField := sec.ActID
		isReg := sec.RegulationID != ""
		if isReg {
			idField = sec.RegulationID
		}
		sourceType := legislation.SourceActSection
		if isReg {
			sourceType = legislation.SourceRegulationSection
		}
		if sec.SectionType == legislation.SectionTypeSchedule {
			sourceType = legislation.SourceSchedule
		}

		header := chunk.Header(idField, sec.SectionLabel, sec.MarginalNote)
		meta := legislation.ResourceMetadata{
			ActID:        sec.ActID,
			RegulationID: sec.RegulationID,
			SectionLabel: sec.SectionLabel,
			SectionType:  sec.SectionType,
			Status:       sec.Status,
			MarginalNote: sec.MarginalNote,
			EnactedDate:  parseDate(sec.EnactedDate),
			InForceDate:  parseDate(sec.InForceDate),
		}

		idx := 0
		for c := range ing.chunker.Chunk(context.Background(), sec.Content, header) {
			out = append(out, &store.IndexInput{
				SourceType:     sourceType,
				SourceID:       sec.CanonicalSectionID,
				DocID:          idField,
				Language:       lang,
				ChunkIndex:     idx,
				Content:        c.Content,
				IsRegulationID: isReg,
				Metadata:       meta,
			})
			idx++
		}
	}

	for _, term := range doc.DefinedTerms {
		docID := term.ActID
		if docID == "" {
			docID = term.RegulationID
		}
		out = append(out, &store.IndexInput{
			SourceType:     legislation.SourceDefinedTerm,
			SourceID:       docID + ":" + term.SectionLabel + ":" + term.TermNormalized,
			DocID:          docID,
			Language:       lang,
			ChunkIndex:     0,
			Content:        term.Definition,
			TermNormalized: term.TermNormalized,
			Metadata: legislation.ResourceMetadata{
				ActID:        term.ActID,
				RegulationID: term.RegulationID,
				SectionLabel: term.SectionLabel,
				ScopeType:    term.ScopeType,
				ScopeSections: term.ScopeSections,
			},
		})
	}

	docMeta := func(docID string) legislation.ResourceMetadata {
		if isRegulation {
			return legislation.ResourceMetadata{RegulationID: docID}
		}
		return legislation.ResourceMetadata{ActID: docID}
	}

	for i, cr := range doc.CrossReferences {
		meta := docMeta(cr.SourceDocID)
		meta.SectionLabel = cr.SourceSectionLabel
		meta.TargetType = cr.TargetType
		meta.TargetRef = cr.TargetRef
		out = append(out, &store.IndexInput{
			SourceType:     legislation.SourceCrossReference,
			SourceID:       fmt.Sprintf("%s:xref:%d", cr.SourceDocID, i),
			DocID:          cr.SourceDocID,
			Language:       lang,
			IsRegulationID: isRegulation,
			ChunkIndex:     0,
			Content:        fmt.Sprintf("%s reference to %s %s", cr.TargetType, cr.TargetRef, cr.TargetSubref),
			Metadata:       meta,
		})
	}

	for _, p := range doc.Preambles {
		meta := docMeta(p.DocID)
		header := chunk.Header(p.DocID, "preamble")
		idx := 0
		for c := range ing.chunker.Chunk(context.Background(), p.Content, header) {
			out = append(out, &store.IndexInput{
				SourceType:     legislation.SourcePreamble,
				SourceID:       fmt.Sprintf("%s:preamble:%d", p.DocID, p.PairingIndex),
				DocID:          p.DocID,
				Language:       lang,
				IsRegulationID: isRegulation,
				ChunkIndex:     idx,
				Content:        c.Content,
				Metadata:       meta,
			})
			idx++
		}
	}

	for _, tr := range doc.Treaties {
		meta := docMeta(tr.DocID)
		meta.Title = tr.Title
		header := chunk.Header(tr.DocID, tr.Title)
		idx := 0
		for c := range ing.chunker.Chunk(context.Background(), tr.Content, header) {
			out = append(out, &store.IndexInput{
				SourceType:     legislation.SourceTreaty,
				SourceID:       fmt.Sprintf("%s:treaty:%d", tr.DocID, tr.PairingIndex),
				DocID:          tr.DocID,
				Language:       lang,
				IsRegulationID: isRegulation,
				ChunkIndex:     idx,
				Content:        c.Content,
				Metadata:       meta,
			})
			idx++
		}
	}

	for _, sch := range doc.Schedules {
		meta := docMeta(sch.DocID)
		out = append(out, &store.IndexInput{
			SourceType:     legislation.SourceSchedule,
			SourceID:       fmt.Sprintf("%s:schedule:%d", sch.DocID, sch.PairingIndex),
			DocID:          sch.DocID,
			Language:       lang,
			IsRegulationID: isRegulation,
			ChunkIndex:     0,
			Content:        sch.Label,
			Metadata:       meta,
		})
	}

	for _, fn := range doc.Footnotes {
		meta := docMeta(fn.DocID)
		meta.SectionLabel = fn.SectionLabel
		out = append(out, &store.IndexInput{
			SourceType:     legislation.SourceFootnote,
			SourceID:       fmt.Sprintf("%s:footnote:%d", fn.DocID, fn.PairingIndex),
			DocID:          fn.DocID,
			Language:       lang,
			IsRegulationID: isRegulation,
			ChunkIndex:     0,
			Content:        fn.Content,
			Metadata:       meta,
		})
	}

	for _, mn := range doc.MarginalNotes {
		meta := docMeta(mn.DocID)
		meta.SectionLabel = mn.SectionLabel
		meta.MarginalNote = mn.Content
		out = append(out, &store.IndexInput{
			SourceType:     legislation.SourceMarginalNote,
			SourceID:       fmt.Sprintf("%s:marginal-note:%s", mn.DocID, mn.SectionLabel),
			DocID:          mn.DocID,
			Language:       lang,
			IsRegulationID: isRegulation,
			ChunkIndex:     0,
			Content:        mn.Content,
			Metadata:       meta,
		})
	}

	for _, rp := range doc.RelatedProvisions {
		meta := docMeta(rp.DocID)
		header := chunk.Header(rp.DocID, "related-provisions")
		idx := 0
		for c := range ing.chunker.Chunk(context.Background(), rp.Content, header) {
			out = append(out, &store.IndexInput{
				SourceType:     legislation.SourceRelatedProvisions,
				SourceID:       fmt.Sprintf("%s:related:%d", rp.DocID, rp.PairingIndex),
				DocID:          rp.DocID,
				Language:       lang,
				IsRegulationID: isRegulation,
				ChunkIndex:     idx,
				Content:        c.Content,
				Metadata:       meta,
			})
			idx++
		}
	}

	for _, pi := range doc.PublicationItems {
		meta := docMeta(pi.DocID)
		out = append(out, &store.IndexInput{
			SourceType:     legislation.SourcePublicationItem,
			SourceID:       fmt.Sprintf("%s:publication-item:%d", pi.DocID, pi.PairingIndex),
			DocID:          pi.DocID,
			Language:       lang,
			IsRegulationID: isRegulation,
			ChunkIndex:     0,
			Content:        pi.Content,
			Metadata:       meta,
		})
	}

	for _, toc := range doc.TableOfProvisions {
		meta := docMeta(toc.DocID)
		out = append(out, &store.IndexInput{
			SourceType:     legislation.SourceTableOfProvisions,
			SourceID:       fmt.Sprintf("%s:toc:%d", toc.DocID, toc.PairingIndex),
			DocID:          toc.DocID,
			Language:       lang,
			IsRegulationID: isRegulation,
			ChunkIndex:     0,
			Content:        toc.Content,
			Metadata:       meta,
		})
	}

	for _, sb := range doc.SignatureBlocks {
		meta := docMeta(sb.DocID)
		out = append(out, &store.IndexInput{
			SourceType:     legislation.SourceSignatureBlock,
			SourceID:       fmt.Sprintf("%s:signature-block:%d", sb.DocID, sb.PairingIndex),
			DocID:          sb.DocID,
			Language:       lang,
			IsRegulationID: isRegulation,
			ChunkIndex:     0,
			Content:        sb.Content,
			Metadata:       meta,
		})
	}

	return out
}

// parseDate parses a LIMS date attribute ("2023-06-15") into a *time.Time,
// returning nil for an empty or unparseable value rather than erroring: a
// malformed date on one record should not fail the whole document.
func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return &t
}

func (ing *ingester) embedAndUpsert(ctx context.Context, in *store.IndexInput) error {
	vec, err := ing.embedder.Embed(ctx, in.Content)
	if err != nil {
		return fmt.Errorf("embed content: %w", err)
	}

	resource := legislation.Resource{
		ResourceKey:       in.ResourceKey,
		Language:          in.Language,
		SourceType:        in.SourceType,
		Content:           in.Content,
		Metadata:          in.Metadata,
		PairedResourceKey: in.PairedResourceKey,
	}
	embedding := legislation.Embedding{
		Content:        in.Content,
		Vector:         vec,
		EmbeddingModel: ing.model,
	}
	return ing.indexer.Upsert(ctx, resource, embedding)
}
