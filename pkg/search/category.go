package search

import (
	"context"

	"github.com/loupe-search/loupe/pkg/models"
	"github.com/loupe-search/loupe/pkg/textnorm"
)

// categoryMatch describes a query dominated by one search category: at least
// one query token hits the category's entities or trigger keywords, and at
// most MaxNonCategoryWords tokens fall outside them (ignored words excluded).
type categoryMatch struct {
	category *models.SearchCategory
	tokens   []string
}

// matchCategories classifies the query tokens against the tenant's
// categories. A query can be dominated by more than one category.
func matchCategories(categories []models.SearchCategory, qTokens []string) []categoryMatch {
	var matches []categoryMatch
	for i := range categories {
		c := &categories[i]
		catTerms := normalizedSet(append(append([]string{}, c.Entities...), c.TriggerKeywords...))
		ignored := normalizedSet(c.IgnoredWords)

		var matched []string
		other := 0
		for _, tok := range qTokens {
			switch {
			case catTerms[tok]:
				matched = append(matched, tok)
			case ignored[tok]:
			default:
				other++
			}
		}
		if len(matched) > 0 && other <= c.MaxNonCategoryWords {
			matches = append(matches, categoryMatch{category: c, tokens: matched})
		}
	}
	return matches
}

// categoryBoost injects MatchScore results for artifacts matching a
// category-dominant query. Category lookup failures degrade to no boost.
func (s *Service) categoryBoost(ctx context.Context, tenantID string, qTokens []string, artifacts []models.Artifact, keep func(Result)) {
	categories, err := s.source.Categories(ctx, tenantID)
	if err != nil {
		s.logger.Warn("category lookup failed", "tenant", tenantID, "error", err)
		return
	}

	for _, m := range matchCategories(categories, qTokens) {
		for i := range artifacts {
			a := &artifacts[i]
			if artifactMatchesCategory(a, m) {
				keep(artifactResult(a, m.category.MatchScore, MatchCategory, m.category.CategoryType))
			}
		}
	}
}

// artifactMatchesCategory reports whether an artifact carries any of the
// query's category tokens (or the category's entities) in its vendor,
// keyword, or entity fields.
func artifactMatchesCategory(a *models.Artifact, m categoryMatch) bool {
	fields := normalizedSet(append(append([]string{a.Vendor}, a.Keywords...), a.Entities...))
	for _, tok := range m.tokens {
		if fields[tok] {
			return true
		}
	}
	for _, e := range m.category.Entities {
		if fields[textnorm.Normalize(e)] {
			return true
		}
	}
	return false
}

func normalizedSet(terms []string) map[string]bool {
	set := make(map[string]bool, len(terms))
	for _, t := range terms {
		if n := textnorm.Normalize(t); n != "" {
			set[n] = true
		}
	}
	return set
}
