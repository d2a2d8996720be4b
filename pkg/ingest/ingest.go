// Package ingest runs the ingestion pipeline: extract, analyze, embed,
// persist, and index. The artifact row is always committed before its
// chunks so readers never observe orphan chunks.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"gorm.io/gorm"

	"github.com/loupe-search/loupe/pkg/ai"
	"github.com/loupe-search/loupe/pkg/analysis"
	"github.com/loupe-search/loupe/pkg/blob"
	"github.com/loupe-search/loupe/pkg/extraction"
	"github.com/loupe-search/loupe/pkg/models"
	"github.com/loupe-search/loupe/pkg/reindex"
	"github.com/loupe-search/loupe/pkg/suggest"
	"github.com/loupe-search/loupe/pkg/textnorm"
	"github.com/loupe-search/loupe/pkg/vision"
)

// maxSuggestContentChars caps the free text handed to the suggestion index.
const maxSuggestContentChars = 10000

// FulltextIndex receives artifacts for the secondary full-text index.
// Indexing is best-effort; failures never fail an ingest.
type FulltextIndex interface {
	IndexArtifact(ctx context.Context, a *models.Artifact, fullText string) error
	DeleteArtifact(ctx context.Context, id string) error
}

// FileRequest describes one file upload.
type FileRequest struct {
	Data     []byte
	FileName string
	MimeType string
	TenantID string
	OwnerID  string
	Tags     []string
	Metadata map[string]interface{}
}

// SnippetRequest describes one pasted or programmatic text snippet.
type SnippetRequest struct {
	Text     string
	Title    string
	TenantID string
	OwnerID  string
	Source   string
	Tags     []string
	Metadata map[string]interface{}
}

// Config wires the pipeline's collaborators. DB, Blobs, and Suggestions are
// required; Vision, Events, and Fulltext are optional and skipped when nil.
type Config struct {
	DB          *gorm.DB
	Blobs       blob.Store
	Suggestions *suggest.Service
	Embeddings  *ai.Client
	Vision      *vision.Processor
	Events      reindex.Publisher
	Fulltext    FulltextIndex
	Logger      hclog.Logger
}

// Service is the ingestion orchestrator.
type Service struct {
	db          *gorm.DB
	registry    *extraction.Registry
	snippets    *extraction.SnippetExtractor
	blobs       blob.Store
	suggestions *suggest.Service
	embeddings  *ai.Client
	vision      *vision.Processor
	events      reindex.Publisher
	fulltext    FulltextIndex
	logger      hclog.Logger
}

// NewService creates the ingestion pipeline.
func NewService(cfg Config) (*Service, error) {
	if cfg.DB == nil {
		return nil, fmt.Errorf("database required")
	}
	if cfg.Blobs == nil {
		return nil, fmt.Errorf("blob store required")
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
	return &Service{
		db:          cfg.DB,
		registry:    extraction.NewRegistry(),
		snippets:    extraction.NewSnippetExtractor(),
		blobs:       cfg.Blobs,
		suggestions: cfg.Suggestions,
		embeddings:  embeddings,
		vision:      cfg.Vision,
		events:      cfg.Events,
		fulltext:    cfg.Fulltext,
		logger:      logger.Named("ingest"),
	}, nil
}

// IngestFile runs the full pipeline for an uploaded file and returns the
// committed artifact.
func (s *Service) IngestFile(ctx context.Context, req FileRequest) (*models.Artifact, error) {
	if len(req.Data) == 0 {
		return nil, fmt.Errorf("empty file")
	}
	if req.FileName == "" {
		return nil, fmt.Errorf("file name required")
	}
	if req.TenantID == "" {
		return nil, fmt.Errorf("tenant ID required")
	}

	extractor := s.registry.ForFile(req.MimeType, req.FileName)
	result, err := extractor.Extract(ctx, req.Data, req.FileName)
	if err != nil {
		return nil, fmt.Errorf("extracting %s with %s: %w", req.FileName, extractor.Name(), err)
	}

	artifact := s.newArtifact(req, result)

	var imageResult *vision.ImageResult
	if result.Summary.FileKind == extraction.FileKindImage && s.vision != nil {
		imageResult = s.vision.ProcessImage(ctx, req.Data, vision.Options{Caption: true, OCR: true})
		applyImageResult(artifact, imageResult)
	}

	if err := s.blobs.Put(ctx, req.TenantID, blobKey(artifact), req.Data, req.MimeType); err != nil {
		return nil, fmt.Errorf("storing blob for %s: %w", req.FileName, err)
	}

	return artifact, s.persist(ctx, artifact, result, imageResult)
}

// IngestSnippet runs the pipeline for a text snippet.
func (s *Service) IngestSnippet(ctx context.Context, req SnippetRequest) (*models.Artifact, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, fmt.Errorf("empty snippet")
	}
	if req.TenantID == "" {
		return nil, fmt.Errorf("tenant ID required")
	}

	result, err := s.snippets.ExtractText(ctx, req.Text, req.Source)
	if err != nil {
		return nil, fmt.Errorf("extracting snippet: %w", err)
	}

	title := req.Title
	if title == "" {
		title = fmt.Sprintf("snippet-%s.txt", time.Now().UTC().Format("20060102-150405"))
	}

	artifact := s.newArtifact(FileRequest{
		Data:     []byte(req.Text),
		FileName: title,
		MimeType: "text/plain",
		TenantID: req.TenantID,
		OwnerID:  req.OwnerID,
		Tags:     req.Tags,
		Metadata: req.Metadata,
	}, result)
	artifact.Kind = models.KindText

	if err := s.blobs.Put(ctx, req.TenantID, blobKey(artifact), []byte(req.Text), "text/plain"); err != nil {
		return nil, fmt.Errorf("storing snippet blob: %w", err)
	}

	return artifact, s.persist(ctx, artifact, result, nil)
}

// newArtifact builds the artifact row from the request and the extractor
// summary.
func (s *Service) newArtifact(req FileRequest, result *extraction.Result) *models.Artifact {
	sum := result.Summary
	merged := make(map[string]interface{}, len(sum.Metadata)+len(req.Metadata))
	for k, v := range sum.Metadata {
		merged[k] = v
	}
	for k, v := range req.Metadata {
		merged[k] = v
	}
	var meta models.JSON
	if len(merged) > 0 {
		if raw, err := json.Marshal(merged); err == nil {
			meta = models.JSON(raw)
		}
	}
	artifact := &models.Artifact{
		ID:           uuid.New(),
		TenantID:     req.TenantID,
		OwnerID:      req.OwnerID,
		FileName:     req.FileName,
		MimeType:     req.MimeType,
		Kind:         models.KindFile,
		FileKind:     sum.FileKind,
		SizeBytes:    int64(len(req.Data)),
		Tags:         req.Tags,
		Vendor:       sum.Vendor,
		Currency:     sum.Currency,
		AmountsCents: sum.AmountsCents,
		Entities:     sum.Entities,
		Keywords:     sum.Keywords,
		Dates:        sum.Dates,
		Summary:      sum.Summary,
		ImageLabels:  sum.ImageLabels,
		Metadata:     meta,
	}
	artifact.URI = artifactURI(artifact)
	return artifact
}

// persist writes the artifact, then its chunks, then updates the secondary
// indexes. Chunk-insert failure leaves the artifact committed and records a
// reindex event instead of failing the ingest.
func (s *Service) persist(ctx context.Context, artifact *models.Artifact, result *extraction.Result, imageResult *vision.ImageResult) error {
	s.embedArtifact(ctx, artifact)

	if err := s.retryStore(ctx, func() error {
		return s.db.WithContext(ctx).Create(artifact).Error
	}); err != nil {
		return fmt.Errorf("persisting artifact %s: %w", artifact.FileName, err)
	}

	chunks := s.buildChunks(ctx, artifact, result, imageResult)
	if err := s.retryStore(ctx, func() error {
		return models.InsertChunks(s.db.WithContext(ctx), artifact, chunks, s.embeddings.Dimensions())
	}); err != nil {
		s.logger.Error("chunk insert failed, scheduling reindex",
			"artifact", artifact.ID, "tenant", artifact.TenantID, "error", err)
		s.publishEvent(ctx, reindex.Event{
			Kind:       reindex.EventCreated,
			ArtifactID: artifact.ID.String(),
			TenantID:   artifact.TenantID,
		})
		return nil
	}

	s.addSuggestions(ctx, artifact, chunks)
	s.indexFulltext(ctx, artifact, chunks)
	return nil
}

// embedArtifact computes the artifact-level text vector from the summary,
// falling back to the file name. Embedding failure leaves the vector empty.
func (s *Service) embedArtifact(ctx context.Context, artifact *models.Artifact) {
	if !s.embeddings.Available() {
		return
	}
	text := artifact.Summary
	if text == "" {
		text = artifact.FileName
	}
	vec, err := s.embeddings.Embed(ctx, text)
	if err != nil {
		s.logger.Warn("artifact embedding failed",
			"artifact", artifact.ID, "error", err)
		return
	}
	artifact.TextEmbedding = vec
}

// buildChunks converts extractor chunks into rows: per-chunk metadata
// analysis merged under the extractor's values, normalized search fields,
// and one batch embedding pass over all chunk texts.
func (s *Service) buildChunks(ctx context.Context, artifact *models.Artifact, result *extraction.Result, imageResult *vision.ImageResult) []models.Chunk {
	chunks := make([]models.Chunk, 0, len(result.Chunks))
	texts := make([]string, 0, len(result.Chunks))

	for i := range result.Chunks {
		ec := &result.Chunks[i]
		ch := models.Chunk{
			ParentID:     artifact.ID,
			TenantID:     artifact.TenantID,
			FileName:     artifact.FileName,
			ChunkIndex:   ec.Index,
			ChunkType:    ec.Type,
			Text:         ec.Text,
			OCRText:      ec.OCRText,
			Caption:      ec.Caption,
			ImageLabels:  ec.ImageLabels,
			PageNumber:   ec.PageNumber,
			RowNumber:    ec.RowNumber,
			ColNumber:    ec.ColNumber,
			Vendor:       ec.Vendor,
			Currency:     ec.Currency,
			AmountsCents: ec.AmountsCents,
			Entities:     ec.Entities,
			Keywords:     ec.Keywords,
			Dates:        ec.Dates,
		}

		if ch.ChunkType == models.ChunkTypeImage && imageResult != nil {
			applyImageChunk(&ch, imageResult)
		}
		mergeChunkAnalysis(&ch)
		ch.Keywords = foldKeywords(ch.Keywords, artifact.Keywords)
		ch.BuildSearchableText(artifact)

		chunks = append(chunks, ch)
		texts = append(texts, ch.Text)
	}

	if s.embeddings.Available() && len(texts) > 0 {
		vectors := s.embeddings.EmbedBatch(ctx, texts)
		for i := range chunks {
			if len(vectors[i]) > 0 {
				chunks[i].TextEmbedding = vectors[i]
			}
		}
	}
	return chunks
}

// mergeChunkAnalysis runs metadata extraction over the chunk text and fills
// only the fields the extractor left empty.
func mergeChunkAnalysis(ch *models.Chunk) {
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
	ch.Keywords = foldKeywords(ch.Keywords, md.Keywords)
}

// foldKeywords normalizes every keyword source and deduplicates, keeping
// first-seen order.
func foldKeywords(sources ...[]string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, src := range sources {
		for _, kw := range src {
			n := textnorm.Normalize(kw)
			if n == "" || seen[n] {
				continue
			}
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}

// addSuggestions populates the suggestion index. Failures are logged and
// swallowed.
func (s *Service) addSuggestions(ctx context.Context, artifact *models.Artifact, chunks []models.Chunk) {
	content := suggestContent(artifact, chunks)
	err := s.suggestions.AddTerms(ctx, artifact.TenantID, artifact.FileName,
		artifact.Entities, artifact.Keywords, artifact.Vendor, content)
	if err != nil {
		s.logger.Warn("suggestion indexing failed",
			"artifact", artifact.ID, "tenant", artifact.TenantID, "error", err)
	}
}

// suggestContent joins the summary and chunk texts, capped on a rune
// boundary so normalization never sees a split multi-byte character.
func suggestContent(artifact *models.Artifact, chunks []models.Chunk) string {
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

// indexFulltext pushes the artifact into the secondary full-text index,
// best-effort.
func (s *Service) indexFulltext(ctx context.Context, artifact *models.Artifact, chunks []models.Chunk) {
	if s.fulltext == nil {
		return
	}
	var b strings.Builder
	for i := range chunks {
		b.WriteString(chunks[i].Text)
		b.WriteString(" ")
	}
	if err := s.fulltext.IndexArtifact(ctx, artifact, b.String()); err != nil {
		s.logger.Warn("fulltext indexing failed",
			"artifact", artifact.ID, "error", err)
	}
}

func (s *Service) publishEvent(ctx context.Context, event reindex.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Error("publishing reindex event failed",
			"artifact", event.ArtifactID, "kind", event.Kind, "error", err)
	}
}

// retryStore retries transient store failures with bounded exponential
// backoff.
func (s *Service) retryStore(ctx context.Context, op func() error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 100 * time.Millisecond
	policy.MaxElapsedTime = 5 * time.Second
	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(policy, 3), ctx))
}

// applyImageResult copies the vision pass output onto the artifact.
func applyImageResult(artifact *models.Artifact, res *vision.ImageResult) {
	if res == nil {
		return
	}
	if artifact.Description == "" {
		artifact.Description = res.Caption
	}
	artifact.OCRText = res.OCRText
	artifact.ImageLabels = foldKeywords(artifact.ImageLabels, res.Tags)
	if len(res.CaptionEmbedding) > 0 {
		artifact.ImageEmbedding = res.CaptionEmbedding
	}
}

// applyImageChunk copies the vision pass output onto the image chunk.
func applyImageChunk(ch *models.Chunk, res *vision.ImageResult) {
	if ch.Caption == "" {
		ch.Caption = res.Caption
	}
	ch.ImageDescription = res.Caption
	if ch.OCRText == "" {
		ch.OCRText = res.OCRText
	}
	ch.ImageLabels = foldKeywords(ch.ImageLabels, res.Tags)
	if len(res.CaptionEmbedding) > 0 {
		ch.CaptionEmbedding = res.CaptionEmbedding
	}
}

// blobKey derives the stored object key for an artifact.
func blobKey(a *models.Artifact) string {
	return a.ID.String() + "/" + a.FileName
}

// artifactURI is the canonical location recorded on the artifact row,
// addressing the stored blob within the tenant's namespace.
func artifactURI(a *models.Artifact) string {
	return "blob://" + a.TenantID + "/" + blobKey(a)
}
