package suggest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentTerms(t *testing.T) {
	t.Run("drops stop-words and short tokens", func(t *testing.T) {
		terms := ContentTerms("the invoice for q2 was paid")
		assert.Contains(t, terms, "invoice")
		assert.Contains(t, terms, "paid")
		assert.NotContains(t, terms, "the")
		assert.NotContains(t, terms, "for")
		assert.NotContains(t, terms, "q2")
	})

	t.Run("builds phrases from contiguous meaningful words", func(t *testing.T) {
		terms := ContentTerms("annual revenue report shows growth")
		assert.Contains(t, terms, "annual revenue")
		assert.Contains(t, terms, "annual revenue report")
		assert.Contains(t, terms, "revenue report shows")
	})

	t.Run("stop-word breaks a phrase", func(t *testing.T) {
		terms := ContentTerms("invoice from google")
		assert.Contains(t, terms, "invoice")
		assert.Contains(t, terms, "google")
		assert.NotContains(t, terms, "invoice google")
		assert.NotContains(t, terms, "invoice from google")
	})

	t.Run("phrases never cross sentences", func(t *testing.T) {
		terms := ContentTerms("quarterly report. google cloud")
		assert.Contains(t, terms, "quarterly report")
		assert.Contains(t, terms, "google cloud")
		assert.NotContains(t, terms, "report google")
	})

	t.Run("terms are normalized", func(t *testing.T) {
		terms := ContentTerms("Datová Budoucnost")
		assert.Contains(t, terms, "datova")
		assert.Contains(t, terms, "datova budoucnost")
	})
}

func TestService_AddTermsAndSuggest(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryStore(), nil)

	require.NoError(t, svc.AddTerms(ctx, "tenant-a",
		"Faktura-Březen.pdf",
		[]string{"Acme Corporation"},
		[]string{"INV-2024-00123"},
		"google",
		"quarterly revenue report"))

	t.Run("filenames rank above everything", func(t *testing.T) {
		// Seed a keyword sharing the filename prefix.
		require.NoError(t, svc.AddTerms(ctx, "tenant-a", "",
			nil, []string{"faktura-duben"}, "", ""))

		got, err := svc.Suggest(ctx, "tenant-a", "fakt", 10)
		require.NoError(t, err)
		require.NotEmpty(t, got)
		assert.Equal(t, "faktura-brezen.pdf", got[0].Text)
		assert.Equal(t, TypeFile, got[0].Type)
		assert.Equal(t, 1.0, got[0].Score)
	})

	t.Run("diacritic-insensitive prefix", func(t *testing.T) {
		got, err := svc.Suggest(ctx, "tenant-a", "Fakturá", 10)
		require.NoError(t, err)
		require.NotEmpty(t, got)
		assert.Equal(t, "faktura-brezen.pdf", got[0].Text)
	})

	t.Run("vendor and entity sets", func(t *testing.T) {
		got, err := svc.Suggest(ctx, "tenant-a", "goo", 10)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, TypeVendor, got[0].Type)
		assert.Equal(t, 0.9, got[0].Score)

		got, err = svc.Suggest(ctx, "tenant-a", "acme", 10)
		require.NoError(t, err)
		require.NotEmpty(t, got)
		assert.Equal(t, "acme corporation", got[0].Text)
		assert.Equal(t, TypeEntity, got[0].Type)
	})

	t.Run("content terms land in all_terms", func(t *testing.T) {
		got, err := svc.Suggest(ctx, "tenant-a", "quarterly", 10)
		require.NoError(t, err)
		require.NotEmpty(t, got)
		assert.Equal(t, TypeTerm, got[0].Type)
		assert.Equal(t, 0.5, got[0].Score)
	})

	t.Run("short prefix returns nothing", func(t *testing.T) {
		got, err := svc.Suggest(ctx, "tenant-a", "f", 10)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("tenant isolation", func(t *testing.T) {
		got, err := svc.Suggest(ctx, "tenant-b", "fakt", 10)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("limit is respected", func(t *testing.T) {
		got, err := svc.Suggest(ctx, "tenant-a", "fakt", 1)
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})
}

func TestService_RemoveFilenameAndClear(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryStore(), nil)

	require.NoError(t, svc.AddTerms(ctx, "tenant-a", "report.pdf", nil, nil, "", ""))
	require.NoError(t, svc.RemoveFilename(ctx, "tenant-a", "Report.PDF"))

	got, err := svc.Suggest(ctx, "tenant-a", "repo", 10)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, svc.AddTerms(ctx, "tenant-a", "other.pdf", nil, nil, "", ""))
	require.NoError(t, svc.ClearTenant(ctx, "tenant-a"))
	got, err = svc.Suggest(ctx, "tenant-a", "oth", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestService_AddTermsIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryStore(), nil)

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.AddTerms(ctx, "tenant-a", "same.pdf", nil, nil, "", ""))
	}
	got, err := svc.Suggest(ctx, "tenant-a", "same", 10)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
