package search

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loupe-search/loupe/pkg/models"
)

func vendorCategory() models.SearchCategory {
	return models.SearchCategory{
		TenantID:            "t1",
		CategoryType:        models.CategoryVendor,
		Entities:            models.StringSlice{"Acme"},
		TriggerKeywords:     models.StringSlice{"invoice", "receipt"},
		IgnoredWords:        models.StringSlice{"from", "the"},
		MaxNonCategoryWords: 2,
		MatchScore:          0.8,
	}
}

func TestMatchCategories(t *testing.T) {
	categories := []models.SearchCategory{vendorCategory()}

	tests := []struct {
		name   string
		tokens []string
		want   int
	}{
		{"trigger plus entity", []string{"invoice", "from", "acme"}, 1},
		{"entity only", []string{"acme"}, 1},
		{"too many other words", []string{"tell", "me", "about", "the", "invoice"}, 0},
		{"no category token", []string{"budget", "report"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matches := matchCategories(categories, tt.tokens)
			assert.Len(t, matches, tt.want)
		})
	}
}

func TestKeywordSearch_CategoryBoost(t *testing.T) {
	artifact := models.Artifact{
		ID:        uuid.New(),
		TenantID:  "t1",
		FileName:  "scan-001.pdf",
		FileKind:  "pdf",
		Vendor:    "Acme",
		CreatedAt: time.Now(),
	}
	src := &fakeSource{
		artifacts:  []models.Artifact{artifact},
		categories: []models.SearchCategory{vendorCategory()},
	}
	svc := newTestService(src)

	resp, err := svc.Search(context.Background(), "invoice from acme", "t1", 10, ModeKeyword)
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)

	found := false
	for _, r := range resp.Results {
		if r.ID == artifact.ID.String() && r.MatchType == MatchCategory {
			found = true
			assert.InDelta(t, 0.8, r.Score, 1e-9)
			assert.Equal(t, models.CategoryVendor, r.MatchedField)
		}
	}
	assert.True(t, found, "expected a category-scored result")
}

func TestArtifactMatchesCategory(t *testing.T) {
	cat := vendorCategory()
	m := categoryMatch{category: &cat, tokens: []string{"invoice"}}

	withKeyword := models.Artifact{Keywords: models.StringSlice{"Invoice"}}
	assert.True(t, artifactMatchesCategory(&withKeyword, m))

	viaEntity := models.Artifact{Entities: models.StringSlice{"acme"}}
	assert.True(t, artifactMatchesCategory(&viaEntity, m))

	unrelated := models.Artifact{Vendor: "Globex"}
	assert.False(t, artifactMatchesCategory(&unrelated, m))
}
