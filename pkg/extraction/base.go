package extraction

import (
	"github.com/loupe-search/loupe/pkg/analysis"
)

// Summary field caps applied by structured extractors (CSV, XLSX).
const (
	maxSummaryAmounts  = 100
	maxSummaryEntities = 50
	maxSummaryKeywords = 100
	maxSummaryDates    = 50
)

// BaseExtractor carries the structured-field helpers every extractor
// shares. All rules live in pkg/analysis; this wrapper only applies caps
// and spreads the result over Summary fields.
type BaseExtractor struct{}

// fillFromText extracts structured fields from text into the summary,
// appending to whatever the extractor already collected.
func (BaseExtractor) fillFromText(s *Summary, text string) {
	md := analysis.ExtractMetadata(text)
	s.Keywords = appendUnique(s.Keywords, md.Keywords...)
	s.Entities = appendUnique(s.Entities, md.Entities...)
	s.Dates = appendUnique(s.Dates, md.Dates...)
	s.AmountsCents = append(s.AmountsCents, md.AmountsCents...)
	if s.Currency == "" {
		s.Currency = md.Currency
	}
	if s.Vendor == "" {
		s.Vendor = md.Vendor
	}
}

// applyCaps bounds the structured lists on a summary.
func (BaseExtractor) applyCaps(s *Summary) {
	s.AmountsCents = capInt64s(s.AmountsCents, maxSummaryAmounts)
	s.Entities = capStrings(s.Entities, maxSummaryEntities)
	s.Keywords = capStrings(s.Keywords, maxSummaryKeywords)
	s.Dates = capStrings(s.Dates, maxSummaryDates)
}

func appendUnique(dst []string, items ...string) []string {
	seen := make(map[string]bool, len(dst))
	for _, d := range dst {
		seen[d] = true
	}
	for _, item := range items {
		if item != "" && !seen[item] {
			seen[item] = true
			dst = append(dst, item)
		}
	}
	return dst
}

func capStrings(s []string, max int) []string {
	if len(s) > max {
		return s[:max]
	}
	return s
}

func capInt64s(s []int64, max int) []int64 {
	if len(s) > max {
		return s[:max]
	}
	return s
}
