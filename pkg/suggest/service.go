package suggest

import (
	"context"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/loupe-search/loupe/pkg/textnorm"
)

// stopWords is the closed list dropped from content terms.
var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "but": true,
	"not": true, "this": true, "that": true, "with": true, "from": true,
	"have": true, "has": true,
}

// minTermLen drops tokens too short to suggest.
const minTermLen = 3

// minPrefixLen is the shortest prefix Suggest will answer.
const minPrefixLen = 2

// Suggestion is one autocomplete candidate.
type Suggestion struct {
	Text  string  `json:"text"`
	Type  string  `json:"type"`
	Score float64 `json:"score"`
}

// Service populates and queries the per-tenant suggestion index.
type Service struct {
	store  Store
	logger hclog.Logger
}

func NewService(store Store, logger hclog.Logger) *Service {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Service{
		store:  store,
		logger: logger.Named("suggest"),
	}
}

// AddTerms indexes one artifact's terms. All entries are normalized and
// lowercased before insertion; the operation is idempotent per term.
func (s *Service) AddTerms(ctx context.Context, tenantID, filename string, entities, keywords []string, vendor, content string) error {
	if err := s.addNormalized(ctx, tenantID, SetFilenames, filename); err != nil {
		return err
	}
	if err := s.addNormalized(ctx, tenantID, SetEntities, entities...); err != nil {
		return err
	}
	if err := s.addNormalized(ctx, tenantID, SetKeywords, keywords...); err != nil {
		return err
	}
	if vendor != "" {
		if err := s.addNormalized(ctx, tenantID, SetVendors, vendor); err != nil {
			return err
		}
	}
	if content != "" {
		terms := ContentTerms(content)
		if err := s.store.Add(ctx, tenantID, SetAllTerms, terms...); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) addNormalized(ctx context.Context, tenantID, set string, terms ...string) error {
	normalized := make([]string, 0, len(terms))
	for _, t := range terms {
		if n := textnorm.Normalize(t); n != "" {
			normalized = append(normalized, n)
		}
	}
	if len(normalized) == 0 {
		return nil
	}
	return s.store.Add(ctx, tenantID, set, normalized...)
}

// Suggest returns up to limit candidates for a prefix, merged across the
// five sets in fixed priority order and deduplicated by text.
func (s *Service) Suggest(ctx context.Context, tenantID, prefix string, limit int) ([]Suggestion, error) {
	prefix = textnorm.NormalizeQuery(prefix)
	if len([]rune(prefix)) < minPrefixLen {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}

	var merged []Suggestion
	seen := make(map[string]bool)
	for _, sp := range setPriorities {
		terms, err := s.store.RangeByLex(ctx, tenantID, sp.Set, prefix, limit)
		if err != nil {
			s.logger.Warn("suggestion scan failed",
				"set", sp.Set, "tenant", tenantID, "error", err)
			continue
		}
		for _, term := range terms {
			if seen[term] {
				continue
			}
			seen[term] = true
			merged = append(merged, Suggestion{
				Text:  term,
				Type:  sp.Type,
				Score: sp.Score,
			})
		}
	}

	// Sets were scanned in descending priority and each set is already in
	// lexicographic order, so the merge is sorted by score then text.
	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged, nil
}

// RemoveFilename deletes one filename entry.
func (s *Service) RemoveFilename(ctx context.Context, tenantID, filename string) error {
	n := textnorm.Normalize(filename)
	if n == "" {
		return nil
	}
	return s.store.Remove(ctx, tenantID, SetFilenames, n)
}

// ClearTenant drops the tenant's whole index.
func (s *Service) ClearTenant(ctx context.Context, tenantID string) error {
	return s.store.DeleteTenant(ctx, tenantID)
}

// ContentTerms turns free text into all_terms entries: normalized unique
// words minus stop-words and short tokens, plus contiguous 2- and 3-word
// phrases that do not cross sentence-ending punctuation.
func ContentTerms(content string) []string {
	var terms []string
	seen := make(map[string]bool)
	add := func(t string) {
		if !seen[t] {
			seen[t] = true
			terms = append(terms, t)
		}
	}

	// Phrases only span runs of consecutive meaningful words; a stop-word
	// or short token breaks the run.
	addRun := func(run []string) {
		for n := 2; n <= 3; n++ {
			for i := 0; i+n <= len(run); i++ {
				add(strings.Join(run[i:i+n], " "))
			}
		}
	}

	for _, sentence := range splitSentenceRuns(content) {
		var run []string
		for _, w := range strings.Fields(textnorm.Normalize(sentence)) {
			w = strings.Trim(w, ",;:()[]{}\"'")
			if len([]rune(w)) < minTermLen || stopWords[w] {
				addRun(run)
				run = nil
				continue
			}
			add(w)
			run = append(run, w)
		}
		addRun(run)
	}
	return terms
}

// splitSentenceRuns breaks content on sentence-terminating punctuation so
// phrases never span a sentence boundary.
func splitSentenceRuns(content string) []string {
	return strings.FieldsFunc(content, func(r rune) bool {
		return r == '.' || r == '!' || r == '?' || r == '\n'
	})
}
