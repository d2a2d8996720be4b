// Package search answers free-text queries over a tenant's artifacts with
// keyword, semantic, and hybrid strategies. Queries are analyzed for
// structured signals, normalized diacritic-insensitively, and scored with a
// fixed cascade; internal failures degrade to an empty, annotated result
// set instead of an error.
package search

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/loupe-search/loupe/pkg/ai"
	"github.com/loupe-search/loupe/pkg/analysis"
	"github.com/loupe-search/loupe/pkg/textnorm"
)

// Search modes.
const (
	ModeAuto     = "auto"
	ModeKeyword  = "keyword"
	ModeSemantic = "semantic"
	ModeHybrid   = "hybrid"
	ModeCompound = "compound"
)

// Match types attached to results.
const (
	MatchKeyword          = "keyword"
	MatchExactKeyword     = "exact_keyword"
	MatchVendor           = "vendor"
	MatchCategory         = "category"
	MatchSemanticDocument = "semantic_document"
	MatchSemanticChunk    = "semantic_chunk"
	MatchHybrid           = "hybrid"
)

// Config holds the tunable scoring thresholds.
type Config struct {
	// SemanticDocumentThreshold filters artifact-level cosine scores.
	SemanticDocumentThreshold float64

	// SemanticChunkThreshold filters chunk-level cosine scores.
	SemanticChunkThreshold float64

	// Hybrid weights, applied when both strategies score a parent.
	HybridSemanticWeight float64
	HybridKeywordWeight  float64

	// MaxChunkCandidates bounds the keyword chunk fetch.
	MaxChunkCandidates int

	// MaxArtifactCandidates bounds the keyword artifact fetch.
	MaxArtifactCandidates int
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		SemanticDocumentThreshold: 0.15,
		SemanticChunkThreshold:    0.05,
		HybridSemanticWeight:      0.6,
		HybridKeywordWeight:       0.4,
		MaxChunkCandidates:        1000,
		MaxArtifactCandidates:     500,
	}
}

// Result is one ranked hit.
type Result struct {
	ID             string    `json:"id"`
	FileName       string    `json:"fileName"`
	FileKind       string    `json:"fileKind"`
	Summary        string    `json:"summary,omitempty"`
	Vendor         string    `json:"vendor,omitempty"`
	Score          float64   `json:"score"`
	MatchType      string    `json:"matchType"`
	CreatedAt      time.Time `json:"createdAt"`
	OpenURL        string    `json:"openUrl"`
	MatchedInChunk *int      `json:"matchedInChunk,omitempty"`
	ChunkPreview   string    `json:"chunkPreview,omitempty"`
	MatchedField   string    `json:"matchedField,omitempty"`

	pageNumber *int
	rowNumber  *int
}

// Response is the full answer to one query.
type Response struct {
	Query         string                  `json:"query"`
	QueryAnalysis *analysis.QueryAnalysis `json:"queryAnalysis,omitempty"`
	Mode          string                  `json:"mode"`
	Results       []Result                `json:"results"`
	Total         int                     `json:"total"`
	Error         string                  `json:"error,omitempty"`
}

// Service executes searches against a Source.
type Service struct {
	source     Source
	embeddings *ai.Client
	cfg        Config
	logger     hclog.Logger
}

// NewService creates a search service. A nil embedding client disables the
// semantic path (semantic and hybrid queries degrade to keyword results).
func NewService(source Source, embeddings *ai.Client, cfg Config, logger hclog.Logger) *Service {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if embeddings == nil {
		embeddings = ai.NewClient(nil, logger)
	}
	if cfg.MaxChunkCandidates == 0 {
		cfg = DefaultConfig()
	}
	return &Service{
		source:     source,
		embeddings: embeddings,
		cfg:        cfg,
		logger:     logger.Named("search"),
	}
}

// Search runs one query. An empty query yields an empty result set; internal
// errors produce an empty result set with an annotation. The call itself only
// fails on an unknown mode.
func (s *Service) Search(ctx context.Context, query, tenantID string, limit int, mode string) (*Response, error) {
	if limit <= 0 {
		limit = 10
	}
	if mode == "" {
		mode = ModeAuto
	}
	if query == "" {
		if mode == ModeAuto {
			mode = ModeKeyword
		}
		return &Response{Query: query, Mode: mode, Results: []Result{}}, nil
	}

	qa := analysis.AnalyzeQuery(query)
	qNorm := textnorm.NormalizeQuery(query)
	qTokens := textnorm.Tokenize(qNorm)

	if mode == ModeAuto {
		mode = s.route(qa, qTokens)
	}

	resp := &Response{
		Query:         query,
		QueryAnalysis: qa,
		Mode:          mode,
	}

	var results []Result
	var err error
	switch mode {
	case ModeKeyword, ModeCompound:
		results, err = s.keywordSearch(ctx, query, qNorm, qTokens, qa, tenantID, limit)
	case ModeSemantic:
		results, err = s.semanticSearch(ctx, query, tenantID, limit)
	case ModeHybrid:
		results, err = s.hybridSearch(ctx, query, qNorm, qTokens, qa, tenantID, limit)
	default:
		return nil, fmt.Errorf("unknown search mode: %q", mode)
	}

	if err != nil {
		s.logger.Error("search failed", "mode", mode, "tenant", tenantID, "error", err)
		resp.Results = []Result{}
		resp.Error = "search temporarily unavailable"
		return resp, nil
	}

	for i := range results {
		results[i].OpenURL = deepLink(&results[i])
	}
	resp.Results = results
	resp.Total = len(results)
	return resp, nil
}

// route picks a strategy for mode auto.
func (s *Service) route(qa *analysis.QueryAnalysis, qTokens []string) string {
	if len(qa.IDs) > 0 {
		return ModeKeyword
	}
	hasSignal := qa.Money != nil || len(qa.Dates) > 0 || len(qa.Vendors) > 0
	if len(qTokens) <= 2 && !hasSignal {
		return ModeKeyword
	}
	if hasSignal {
		return ModeHybrid
	}
	return ModeSemantic
}

// deepLink builds the open URL from the best locator.
func deepLink(r *Result) string {
	switch {
	case r.pageNumber != nil:
		return fmt.Sprintf("/resources/%s?page=%d", r.ID, *r.pageNumber)
	case r.rowNumber != nil:
		return fmt.Sprintf("/resources/%s?row=%d", r.ID, *r.rowNumber)
	default:
		return "/resources/" + r.ID
	}
}

// sortAndTruncate orders results by score descending and cuts to limit.
func sortAndTruncate(results []Result, limit int) []Result {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

// preview returns the first 200 characters of text (or ocr as fallback)
// with a trailing ellipsis when truncated.
func preview(text, ocr string) string {
	src := text
	if src == "" {
		src = ocr
	}
	runes := []rune(src)
	if len(runes) <= 200 {
		return src
	}
	return string(runes[:200]) + "…"
}
