// Package suggest maintains the per-tenant autocomplete index: five
// lexicographically ordered term sets populated at ingest and reindex time
// and scanned by prefix at query time.
package suggest

import "context"

// Set names, in query-time priority order.
const (
	SetFilenames = "filenames"
	SetVendors   = "vendors"
	SetEntities  = "entities"
	SetKeywords  = "keywords"
	SetAllTerms  = "all_terms"
)

// Suggestion types as exposed on the API.
const (
	TypeFile    = "file"
	TypeVendor  = "vendor"
	TypeEntity  = "entity"
	TypeKeyword = "keyword"
	TypeTerm    = "term"
)

// setPriorities fixes the API type and score attached to a hit from each set.
var setPriorities = []struct {
	Set   string
	Type  string
	Score float64
}{
	{SetFilenames, TypeFile, 1.0},
	{SetVendors, TypeVendor, 0.9},
	{SetEntities, TypeEntity, 0.8},
	{SetKeywords, TypeKeyword, 0.7},
	{SetAllTerms, TypeTerm, 0.5},
}

// Store is the ordered-set backend. Terms within a set carry no rank of
// their own; lexicographic order is the only order.
type Store interface {
	// Add inserts terms into a tenant's set. Idempotent per term.
	Add(ctx context.Context, tenantID, set string, terms ...string) error

	// RangeByLex returns up to limit terms with the given prefix, in
	// lexicographic order.
	RangeByLex(ctx context.Context, tenantID, set, prefix string, limit int) ([]string, error)

	// Remove deletes terms from a tenant's set.
	Remove(ctx context.Context, tenantID, set string, terms ...string) error

	// DeleteTenant drops all five sets for a tenant.
	DeleteTenant(ctx context.Context, tenantID string) error
}
