package search

import (
	"context"
	"fmt"
	"math"

	"github.com/loupe-search/loupe/pkg/analysis"
)

// semanticSearch ranks by cosine similarity to the query embedding, at both
// artifact and chunk granularity, merged per parent.
func (s *Service) semanticSearch(ctx context.Context, query, tenantID string, limit int) ([]Result, error) {
	queryVec, err := s.embeddings.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	if len(queryVec) == 0 {
		// No embedding provider: the semantic path has nothing to rank.
		return []Result{}, nil
	}

	best := make(map[string]Result)

	artifacts, err := s.source.ArtifactsWithVector(ctx, tenantID, 2*limit)
	if err != nil {
		return nil, fmt.Errorf("fetching artifact vectors: %w", err)
	}
	for i := range artifacts {
		a := &artifacts[i]
		score := CosineSimilarity(queryVec, a.TextEmbedding)
		if score < s.cfg.SemanticDocumentThreshold {
			continue
		}
		best[a.ID.String()] = artifactResult(a, score, MatchSemanticDocument, "")
	}

	chunks, err := s.source.ChunksWithVector(ctx, tenantID, 10*limit)
	if err != nil {
		return nil, fmt.Errorf("fetching chunk vectors: %w", err)
	}
	byID := artifactsByID(artifacts)
	for i := range chunks {
		ch := &chunks[i]
		score := CosineSimilarity(queryVec, ch.TextEmbedding)
		if score < s.cfg.SemanticChunkThreshold {
			continue
		}

		parentID := ch.ParentID.String()
		if prev, exists := best[parentID]; exists && prev.Score >= score {
			continue
		}
		r := chunkResult(ch, byID[parentID], score, "")
		r.MatchType = MatchSemanticChunk
		best[parentID] = r
	}

	results := make([]Result, 0, len(best))
	for _, r := range best {
		results = append(results, r)
	}
	return sortAndTruncate(results, limit), nil
}

// hybridSearch runs both strategies independently and merges per parent
// with weighted scores.
func (s *Service) hybridSearch(ctx context.Context, rawQuery, qNorm string, qTokens []string, qa *analysis.QueryAnalysis, tenantID string, limit int) ([]Result, error) {
	keyword, err := s.keywordSearch(ctx, rawQuery, qNorm, qTokens, qa, tenantID, limit)
	if err != nil {
		return nil, err
	}
	semantic, err := s.semanticSearch(ctx, rawQuery, tenantID, limit)
	if err != nil {
		// Semantic degradation keeps the keyword results usable.
		s.logger.Warn("semantic leg failed, returning keyword results", "error", err)
		return keyword, nil
	}

	merged := make(map[string]Result, len(keyword)+len(semantic))
	for _, r := range keyword {
		merged[r.ID] = r
	}
	for _, sem := range semantic {
		kw, both := merged[sem.ID]
		if !both {
			merged[sem.ID] = sem
			continue
		}
		combined := sem
		combined.Score = s.cfg.HybridSemanticWeight*sem.Score +
			s.cfg.HybridKeywordWeight*kw.Score
		combined.MatchType = MatchHybrid
		// Keep the keyword annotation when it carried chunk context.
		if combined.MatchedInChunk == nil && kw.MatchedInChunk != nil {
			combined.MatchedInChunk = kw.MatchedInChunk
			combined.ChunkPreview = kw.ChunkPreview
			combined.pageNumber = kw.pageNumber
			combined.rowNumber = kw.rowNumber
		}
		merged[sem.ID] = combined
	}

	results := make([]Result, 0, len(merged))
	for _, r := range merged {
		results = append(results, r)
	}
	return sortAndTruncate(results, limit), nil
}

// CosineSimilarity returns the cosine of the angle between two vectors, or
// 0 when either is empty or lengths differ.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
