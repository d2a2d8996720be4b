package reindex

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"gorm.io/gorm"

	"github.com/loupe-search/loupe/pkg/ai"
	"github.com/loupe-search/loupe/pkg/analysis"
	"github.com/loupe-search/loupe/pkg/models"
	"github.com/loupe-search/loupe/pkg/suggest"
)

// maxSuggestContentChars caps the free text handed to the suggestion index,
// matching the ingest-time bound.
const maxSuggestContentChars = 10000

// Fulltext removes artifacts from the secondary full-text index.
type Fulltext interface {
	DeleteArtifact(ctx context.Context, id string) error
}

// Config wires the orchestrator's collaborators.
type Config struct {
	DB          *gorm.DB
	Embeddings  *ai.Client
	Suggestions *suggest.Service
	Fulltext    Fulltext

	// Workers bounds cross-artifact parallelism. Defaults to 4.
	Workers int

	Logger hclog.Logger
}

// Orchestrator executes reindex events: serial per artifact, parallel
// across artifacts, with pending-event coalescing per artifact.
type Orchestrator struct {
	db          *gorm.DB
	embeddings  *ai.Client
	suggestions *suggest.Service
	fulltext    Fulltext
	logger      hclog.Logger

	slots chan struct{}
	wg    sync.WaitGroup

	// runFn executes one event; replaced in tests.
	runFn func(Event)

	mu      sync.Mutex
	running map[string]bool
	pending map[string]Event
}

// NewOrchestrator creates the reindex worker.
func NewOrchestrator(cfg Config) (*Orchestrator, error) {
	if cfg.DB == nil {
		return nil, fmt.Errorf("database required")
	}
	if cfg.Suggestions == nil {
		return nil, fmt.Errorf("suggestion service required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	embeddings := cfg.Embeddings
	if embeddings == nil {
		embeddings = ai.NewClient(nil, logger)
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}
	o := &Orchestrator{
		db:          cfg.DB,
		embeddings:  embeddings,
		suggestions: cfg.Suggestions,
		fulltext:    cfg.Fulltext,
		logger:      logger.Named("reindex"),
		slots:       make(chan struct{}, workers),
		running:     make(map[string]bool),
		pending:     make(map[string]Event),
	}
	o.runFn = o.run
	return o, nil
}

// Enqueue schedules one event. If a task for the same artifact is already
// running, the event is coalesced into the pending slot and runs after the
// in-flight task completes.
func (o *Orchestrator) Enqueue(event Event) error {
	if event.ArtifactID == "" || event.TenantID == "" {
		return fmt.Errorf("event requires artifact and tenant IDs")
	}
	switch event.Kind {
	case EventCreated, EventUpdated, EventDeleted:
	default:
		return fmt.Errorf("unknown event kind: %q", event.Kind)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.running[event.ArtifactID] {
		if prev, ok := o.pending[event.ArtifactID]; ok {
			event = coalesce(prev, event)
		}
		o.pending[event.ArtifactID] = event
		return nil
	}
	o.start(event)
	return nil
}

// Publisher returns an in-process Publisher backed by this orchestrator,
// for single-binary deployments without a broker.
func (o *Orchestrator) Publisher() Publisher {
	return inProcessPublisher{o: o}
}

type inProcessPublisher struct {
	o *Orchestrator
}

func (p inProcessPublisher) Publish(ctx context.Context, event Event) error {
	return p.o.Enqueue(event)
}

// Wait blocks until all scheduled tasks, including coalesced followups,
// have finished.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// start launches the worker goroutine for one artifact. Caller holds o.mu.
func (o *Orchestrator) start(event Event) {
	o.running[event.ArtifactID] = true
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.slots <- struct{}{}
		defer func() { <-o.slots }()

		o.runFn(event)

		o.mu.Lock()
		defer o.mu.Unlock()
		if next, ok := o.pending[event.ArtifactID]; ok {
			delete(o.pending, event.ArtifactID)
			o.start(next)
			return
		}
		delete(o.running, event.ArtifactID)
	}()
}

// run executes one event. Sub-step failures are aggregated and logged;
// nothing here fails loudly.
func (o *Orchestrator) run(event Event) {
	ctx := context.Background()
	var err error
	switch event.Kind {
	case EventCreated:
		err = o.processCreated(ctx, event)
	case EventUpdated:
		err = o.processUpdated(ctx, event)
	case EventDeleted:
		err = o.processDeleted(ctx, event)
	}
	if err != nil {
		o.logger.Error("reindex task finished with errors",
			"kind", event.Kind, "artifact", event.ArtifactID,
			"tenant", event.TenantID, "error", err)
	}
}

// coalesce merges a newly arrived event into the pending one for the same
// artifact. Deleted wins outright; Created absorbs Updated; two Updated
// events union their changed fields, with "unknown" (empty) dominating.
func coalesce(prev, next Event) Event {
	if prev.Kind == EventDeleted || next.Kind == EventDeleted {
		next.Kind = EventDeleted
		next.ChangedFields = nil
		return next
	}
	if prev.Kind == EventCreated || next.Kind == EventCreated {
		next.Kind = EventCreated
		next.ChangedFields = nil
		next.EmbeddingsFresh = prev.EmbeddingsFresh && next.EmbeddingsFresh
		return next
	}
	if len(prev.ChangedFields) == 0 || len(next.ChangedFields) == 0 {
		next.ChangedFields = nil
		return next
	}
	seen := make(map[string]bool)
	var union []string
	for _, f := range append(prev.ChangedFields, next.ChangedFields...) {
		if !seen[f] {
			seen[f] = true
			union = append(union, f)
		}
	}
	next.ChangedFields = union
	return next
}

// processCreated runs the full reindex: re-analyze every chunk, rebuild the
// normalized search fields, regenerate embeddings unless the caller marked
// them fresh, and repopulate suggestions.
func (o *Orchestrator) processCreated(ctx context.Context, event Event) error {
	artifact, chunks, err := o.load(ctx, event)
	if err != nil {
		return err
	}

	var result *multierror.Error
	for i := range chunks {
		reanalyzeChunk(&chunks[i])
		chunks[i].BuildSearchableText(artifact)
	}

	if !event.EmbeddingsFresh {
		o.embedAll(ctx, artifact, chunks)
	}

	if err := o.saveChunks(ctx, chunks); err != nil {
		result = multierror.Append(result, err)
	}
	if err := o.db.WithContext(ctx).Save(artifact).Error; err != nil {
		result = multierror.Append(result, fmt.Errorf("saving artifact: %w", err))
	}
	if err := o.refreshSuggestions(ctx, artifact, chunks); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}

// processUpdated rewrites the normalized search fields unconditionally,
// then runs the selective refresh rules for the changed fields.
func (o *Orchestrator) processUpdated(ctx context.Context, event Event) error {
	artifact, chunks, err := o.load(ctx, event)
	if err != nil {
		return err
	}

	changed := make(map[string]bool, len(event.ChangedFields))
	for _, f := range event.ChangedFields {
		changed[strings.ToLower(f)] = true
	}
	runAll := len(changed) == 0
	contentChanged := runAll || changed[FieldContent] || changed[FieldSummary] || changed[FieldText]
	termsChanged := contentChanged || changed[FieldFileName] || changed[FieldVendor] ||
		changed[FieldKeywords] || changed[FieldEntities]

	var result *multierror.Error

	// Search freshness first: searchable_text always reflects the current
	// parent metadata.
	for i := range chunks {
		chunks[i].BuildSearchableText(artifact)
	}

	if contentChanged {
		for i := range chunks {
			reanalyzeChunk(&chunks[i])
			chunks[i].BuildSearchableText(artifact)
		}
		o.regenerateArtifactTerms(artifact, chunks)
		o.embedAll(ctx, artifact, chunks)
		if err := o.db.WithContext(ctx).Save(artifact).Error; err != nil {
			result = multierror.Append(result, fmt.Errorf("saving artifact: %w", err))
		}
	}

	if err := o.saveChunks(ctx, chunks); err != nil {
		result = multierror.Append(result, err)
	}

	if termsChanged {
		if err := o.refreshSuggestions(ctx, artifact, chunks); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// processDeleted removes chunks first, then the artifact, then cleans up
// the secondary indexes.
func (o *Orchestrator) processDeleted(ctx context.Context, event Event) error {
	id, err := uuid.Parse(event.ArtifactID)
	if err != nil {
		return fmt.Errorf("invalid artifact ID %q: %w", event.ArtifactID, err)
	}

	// The filename is needed for suggestion cleanup after the row is gone.
	var fileName string
	if a, err := models.GetArtifact(o.db.WithContext(ctx), event.TenantID, id); err == nil {
		fileName = a.FileName
	}

	var result *multierror.Error
	if err := models.DeleteChunksByParent(o.db.WithContext(ctx), id); err != nil {
		result = multierror.Append(result, fmt.Errorf("deleting chunks: %w", err))
	}
	if err := models.DeleteArtifact(o.db.WithContext(ctx), event.TenantID, id); err != nil {
		result = multierror.Append(result, fmt.Errorf("deleting artifact: %w", err))
	}
	if fileName != "" {
		if err := o.suggestions.RemoveFilename(ctx, event.TenantID, fileName); err != nil {
			result = multierror.Append(result, fmt.Errorf("removing filename suggestion: %w", err))
		}
	}
	if o.fulltext != nil {
		if err := o.fulltext.DeleteArtifact(ctx, event.ArtifactID); err != nil {
			result = multierror.Append(result, fmt.Errorf("removing fulltext entry: %w", err))
		}
	}
	return result.ErrorOrNil()
}

func (o *Orchestrator) load(ctx context.Context, event Event) (*models.Artifact, []models.Chunk, error) {
	id, err := uuid.Parse(event.ArtifactID)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid artifact ID %q: %w", event.ArtifactID, err)
	}
	artifact, err := models.GetArtifact(o.db.WithContext(ctx), event.TenantID, id)
	if err != nil {
		return nil, nil, fmt.Errorf("loading artifact %s: %w", event.ArtifactID, err)
	}
	chunks, err := models.GetChunksByParent(o.db.WithContext(ctx), id)
	if err != nil {
		return nil, nil, fmt.Errorf("loading chunks for %s: %w", event.ArtifactID, err)
	}
	return artifact, chunks, nil
}

// reanalyzeChunk re-runs metadata extraction over the chunk text, filling
// structured fields that are empty.
func reanalyzeChunk(ch *models.Chunk) {
	if ch.Text == "" {
		return
	}
	md := analysis.ExtractMetadata(ch.Text)
	if ch.Vendor == "" {
		ch.Vendor = md.Vendor
	}
	if ch.Currency == "" {
		ch.Currency = md.Currency
	}
	if len(ch.AmountsCents) == 0 {
		ch.AmountsCents = md.AmountsCents
	}
	if len(ch.Entities) == 0 {
		ch.Entities = md.Entities
	}
	if len(ch.Dates) == 0 {
		ch.Dates = md.Dates
	}
	ch.Keywords = mergeTerms(ch.Keywords, md.Keywords)
}

// regenerateArtifactTerms rebuilds the artifact's keywords and entities
// from the current chunk content.
func (o *Orchestrator) regenerateArtifactTerms(artifact *models.Artifact, chunks []models.Chunk) {
	var keywords, entities []string
	for i := range chunks {
		keywords = mergeTerms(keywords, chunks[i].Keywords)
		entities = mergeTerms(entities, chunks[i].Entities)
	}
	artifact.Keywords = keywords
	artifact.Entities = entities
}

// embedAll regenerates the artifact vector and every chunk vector.
func (o *Orchestrator) embedAll(ctx context.Context, artifact *models.Artifact, chunks []models.Chunk) {
	if !o.embeddings.Available() {
		return
	}
	text := artifact.Summary
	if text == "" {
		text = artifact.FileName
	}
	if vec, err := o.embeddings.Embed(ctx, text); err != nil {
		o.logger.Warn("artifact embedding failed", "artifact", artifact.ID, "error", err)
	} else {
		artifact.TextEmbedding = vec
	}

	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Text
	}
	vectors := o.embeddings.EmbedBatch(ctx, texts)
	for i := range chunks {
		if len(vectors[i]) > 0 {
			chunks[i].TextEmbedding = vectors[i]
		}
	}
}

func (o *Orchestrator) saveChunks(ctx context.Context, chunks []models.Chunk) error {
	var result *multierror.Error
	for i := range chunks {
		if err := o.db.WithContext(ctx).Save(&chunks[i]).Error; err != nil {
			result = multierror.Append(result,
				fmt.Errorf("saving chunk %d: %w", chunks[i].ChunkIndex, err))
		}
	}
	return result.ErrorOrNil()
}

func (o *Orchestrator) refreshSuggestions(ctx context.Context, artifact *models.Artifact, chunks []models.Chunk) error {
	err := o.suggestions.AddTerms(ctx, artifact.TenantID, artifact.FileName,
		artifact.Entities, artifact.Keywords, artifact.Vendor,
		suggestionContent(artifact, chunks))
	if err != nil {
		return fmt.Errorf("refreshing suggestions: %w", err)
	}
	return nil
}

// suggestionContent joins the summary and chunk texts, capped on a rune
// boundary.
func suggestionContent(artifact *models.Artifact, chunks []models.Chunk) string {
	var b strings.Builder
	b.WriteString(artifact.Summary)
	for i := range chunks {
		if b.Len() >= maxSuggestContentChars {
			break
		}
		b.WriteString(" ")
		b.WriteString(chunks[i].Text)
	}
	content := b.String()
	if runes := []rune(content); len(runes) > maxSuggestContentChars {
		content = string(runes[:maxSuggestContentChars])
	}
	return content
}

// mergeTerms deduplicates while keeping first-seen order.
func mergeTerms(lists ...[]string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, list := range lists {
		for _, t := range list {
			if t == "" || seen[t] {
				continue
			}
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}
