package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/loupe-search/loupe/pkg/analysis"
	"github.com/loupe-search/loupe/pkg/models"
	"github.com/loupe-search/loupe/pkg/textnorm"
)

// Artifact-level field scores, case-insensitive substring on the raw query.
var artifactFieldScores = []struct {
	Field string
	Score float64
}{
	{"file_name", 1.0},
	{"keywords", 0.95},
	{"summary", 0.9},
	{"content", 0.85},
	{"entities", 0.8},
}

// Chunk-level exact phrase scores on normalized text, in cascade order.
const (
	scoreSearchableExact = 1.00
	scoreOCRExact        = 0.98
	scoreTextExact       = 0.95
	scoreImageDescExact  = 0.93

	partialSearchableBase = 0.6
	partialOCRBase        = 0.55
	partialTextBase       = 0.5
	partialMinRatio       = 0.25
)

// keywordSearch scores artifacts by field substring match and chunks by the
// normalized-text cascade, collapses chunks per parent, and injects exact
// keyword and vendor matches from the query analysis.
func (s *Service) keywordSearch(ctx context.Context, rawQuery, qNorm string, qTokens []string, qa *analysis.QueryAnalysis, tenantID string, limit int) ([]Result, error) {
	artifacts, err := s.source.Artifacts(ctx, tenantID, s.cfg.MaxArtifactCandidates)
	if err != nil {
		return nil, fmt.Errorf("fetching artifacts: %w", err)
	}

	best := make(map[string]Result)
	keep := func(r Result) {
		if prev, ok := best[r.ID]; !ok || r.Score > prev.Score {
			best[r.ID] = r
		}
	}

	queryLower := strings.ToLower(rawQuery)
	for i := range artifacts {
		a := &artifacts[i]
		if score, field := scoreArtifactFields(a, queryLower); score > 0 {
			keep(artifactResult(a, score, MatchKeyword, field))
		}

		// Injections from structured query signals.
		for _, id := range qa.IDs {
			if containsFold(a.Keywords, id) {
				keep(artifactResult(a, 1.0, MatchExactKeyword, "keywords"))
			}
		}
		for _, v := range qa.Vendors {
			if a.Vendor == v {
				keep(artifactResult(a, 0.95, MatchVendor, "vendor"))
			}
		}
	}

	s.categoryBoost(ctx, tenantID, qTokens, artifacts, keep)

	chunks, err := s.source.Chunks(ctx, tenantID, s.cfg.MaxChunkCandidates)
	if err != nil {
		return nil, fmt.Errorf("fetching chunks: %w", err)
	}
	byName := artifactsByID(artifacts)
	for i := range chunks {
		ch := &chunks[i]
		score, field := scoreChunk(ch, qNorm, qTokens)
		if score == 0 {
			continue
		}
		r := chunkResult(ch, byName[ch.ParentID.String()], score, field)
		keep(r)
	}

	results := make([]Result, 0, len(best))
	for _, r := range best {
		results = append(results, r)
	}
	return sortAndTruncate(results, limit), nil
}

// scoreArtifactFields returns the best-field score for an artifact.
func scoreArtifactFields(a *models.Artifact, queryLower string) (float64, string) {
	for _, fs := range artifactFieldScores {
		var hit bool
		switch fs.Field {
		case "file_name":
			hit = strings.Contains(strings.ToLower(a.FileName), queryLower)
		case "keywords":
			hit = anyContainsFold(a.Keywords, queryLower)
		case "summary":
			hit = strings.Contains(strings.ToLower(a.Summary), queryLower)
		case "content":
			hit = strings.Contains(strings.ToLower(a.OCRText), queryLower) ||
				strings.Contains(strings.ToLower(a.Description), queryLower)
		case "entities":
			hit = anyContainsFold(a.Entities, queryLower)
		}
		if hit {
			return fs.Score, fs.Field
		}
	}
	return 0, ""
}

// scoreChunk applies the exact-phrase cascade, then partial token overlap.
func scoreChunk(ch *models.Chunk, qNorm string, qTokens []string) (float64, string) {
	switch {
	case contains(ch.SearchableText, qNorm):
		return scoreSearchableExact, "searchable_text"
	case contains(ch.OCRTextNormalized, qNorm):
		return scoreOCRExact, "ocr_text"
	case contains(ch.TextNormalized, qNorm):
		return scoreTextExact, "text"
	case ch.ImageDescription != "" &&
		contains(textnorm.Normalize(ch.ImageDescription), qNorm):
		return scoreImageDescExact, "image_description"
	}

	if len(qTokens) == 0 {
		return 0, ""
	}

	bestScore := 0.0
	bestField := ""
	partials := []struct {
		field string
		text  string
		base  float64
	}{
		{"searchable_text", ch.SearchableText, partialSearchableBase},
		{"ocr_text", ch.OCRTextNormalized, partialOCRBase},
		{"text", ch.TextNormalized, partialTextBase},
	}
	for _, p := range partials {
		if p.text == "" {
			continue
		}
		ratio := tokenOverlap(qTokens, textnorm.Tokenize(p.text))
		if ratio < partialMinRatio {
			continue
		}
		if score := p.base * ratio; score > bestScore {
			bestScore = score
			bestField = p.field
		}
	}
	return bestScore, bestField
}

func tokenOverlap(qTokens, fieldTokens []string) float64 {
	if len(qTokens) == 0 {
		return 0
	}
	set := make(map[string]bool, len(fieldTokens))
	for _, t := range fieldTokens {
		set[t] = true
	}
	matched := 0
	for _, t := range qTokens {
		if set[t] {
			matched++
		}
	}
	return float64(matched) / float64(len(qTokens))
}

func artifactResult(a *models.Artifact, score float64, matchType, field string) Result {
	return Result{
		ID:           a.ID.String(),
		FileName:     a.FileName,
		FileKind:     a.FileKind,
		Summary:      a.Summary,
		Vendor:       a.Vendor,
		Score:        score,
		MatchType:    matchType,
		CreatedAt:    a.CreatedAt,
		MatchedField: field,
	}
}

// chunkResult lifts a chunk score to its parent, annotated with the chunk
// index and a preview.
func chunkResult(ch *models.Chunk, parent *models.Artifact, score float64, field string) Result {
	r := Result{
		ID:             ch.ParentID.String(),
		FileName:       ch.FileName,
		Score:          score,
		MatchType:      MatchKeyword,
		CreatedAt:      ch.CreatedAt,
		MatchedInChunk: intPtr(ch.ChunkIndex),
		ChunkPreview:   preview(ch.Text, ch.OCRText),
		MatchedField:   field,
		pageNumber:     ch.PageNumber,
		rowNumber:      ch.RowNumber,
	}
	if parent != nil {
		r.FileName = parent.FileName
		r.FileKind = parent.FileKind
		r.Summary = parent.Summary
		r.Vendor = parent.Vendor
		r.CreatedAt = parent.CreatedAt
	}
	return r
}

func artifactsByID(artifacts []models.Artifact) map[string]*models.Artifact {
	m := make(map[string]*models.Artifact, len(artifacts))
	for i := range artifacts {
		m[artifacts[i].ID.String()] = &artifacts[i]
	}
	return m
}

func contains(haystack, needle string) bool {
	return needle != "" && haystack != "" && strings.Contains(haystack, needle)
}

func containsFold(list []string, needle string) bool {
	for _, item := range list {
		if strings.EqualFold(item, needle) {
			return true
		}
	}
	return false
}

func anyContainsFold(list []string, queryLower string) bool {
	for _, item := range list {
		if strings.Contains(strings.ToLower(item), queryLower) {
			return true
		}
	}
	return false
}

func intPtr(v int) *int {
	return &v
}
