package ingest

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/loupe-search/loupe/pkg/ai"
	"github.com/loupe-search/loupe/pkg/ai/mock"
	"github.com/loupe-search/loupe/pkg/blob"
	"github.com/loupe-search/loupe/pkg/extraction"
	"github.com/loupe-search/loupe/pkg/models"
	"github.com/loupe-search/loupe/pkg/suggest"
	"github.com/loupe-search/loupe/pkg/vision"
)

// newUnitService builds a service without a database for the pure pipeline
// helpers.
func newUnitService(t *testing.T) *Service {
	t.Helper()
	return &Service{
		registry:    extraction.NewRegistry(),
		snippets:    extraction.NewSnippetExtractor(),
		blobs:       blob.NewMemStore(),
		suggestions: suggest.NewService(suggest.NewMemoryStore(), nil),
		embeddings:  ai.NewClient(mock.NewProvider(), nil),
		logger:      hclog.NewNullLogger(),
	}
}

func TestFoldKeywords(t *testing.T) {
	out := foldKeywords(
		[]string{"Invoice", "Datová"},
		[]string{"invoice", "report", ""},
	)
	assert.Equal(t, []string{"invoice", "datova", "report"}, out)
}

func TestNewArtifact_MergesMetadata(t *testing.T) {
	svc := newUnitService(t)
	result := &extraction.Result{
		Summary: extraction.Summary{
			Summary:  "Table with 2 rows and 3 columns",
			FileKind: extraction.FileKindCSV,
			Vendor:   "google",
			Metadata: map[string]interface{}{"row_count": 2},
		},
	}
	artifact := svc.newArtifact(FileRequest{
		Data:     []byte("a,b,c"),
		FileName: "data.csv",
		MimeType: "text/csv",
		TenantID: "tenant-a",
		Metadata: map[string]interface{}{"source": "upload"},
	}, result)

	assert.Equal(t, "tenant-a", artifact.TenantID)
	assert.Equal(t, "csv", artifact.FileKind)
	assert.Equal(t, "google", artifact.Vendor)
	assert.Equal(t, int64(5), artifact.SizeBytes)
	assert.NotEqual(t, artifact.ID.String(), "00000000-0000-0000-0000-000000000000")

	var meta map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(artifact.Metadata), &meta))
	assert.EqualValues(t, 2, meta["row_count"])
	assert.Equal(t, "upload", meta["source"])
}

func TestNewArtifact_SetsURI(t *testing.T) {
	svc := newUnitService(t)
	artifact := svc.newArtifact(FileRequest{
		Data:     []byte("x"),
		FileName: "report.pdf",
		TenantID: "tenant-a",
	}, &extraction.Result{})

	assert.Equal(t, "blob://tenant-a/"+artifact.ID.String()+"/report.pdf", artifact.URI)
}

func TestBuildChunks_SearchFieldsAndEmbeddings(t *testing.T) {
	svc := newUnitService(t)
	result := &extraction.Result{
		Chunks: []extraction.Chunk{
			{Index: 0, Type: "paragraph", Text: "Vendor: Google\nTotal: $9.30"},
			{Index: 1, Type: "paragraph", Text: "Druhá stránka dokumentu"},
		},
	}
	artifact := svc.newArtifact(FileRequest{
		Data: []byte("x"), FileName: "faktura.txt", TenantID: "tenant-a",
	}, result)

	chunks := svc.buildChunks(context.Background(), artifact, result, nil)
	require.Len(t, chunks, 2)

	// Metadata analysis fills fields the extractor left empty.
	assert.Equal(t, "google", chunks[0].Vendor)
	assert.Equal(t, "USD", chunks[0].Currency)
	assert.Equal(t, models.Int64Slice{930}, chunks[0].AmountsCents)

	// Normalized fields fold diacritics and include the parent file name.
	assert.Contains(t, chunks[1].SearchableText, "druha stranka dokumentu")
	assert.Contains(t, chunks[1].SearchableText, "faktura.txt")
	assert.Equal(t, "druha stranka dokumentu", chunks[1].TextNormalized)

	// One batch embedding pass covers every chunk.
	for i := range chunks {
		assert.Len(t, []float32(chunks[i].TextEmbedding), svc.embeddings.Dimensions())
		assert.Equal(t, i, chunks[i].ChunkIndex)
	}

	require.NoError(t, models.ValidateChunks(artifact, chunks, svc.embeddings.Dimensions()))
}

func TestBuildChunks_ImageChunkGetsVisionOutput(t *testing.T) {
	svc := newUnitService(t)
	result := &extraction.Result{
		Chunks: []extraction.Chunk{{Index: 0, Type: models.ChunkTypeImage}},
	}
	artifact := svc.newArtifact(FileRequest{
		Data: []byte("x"), FileName: "photo.png", TenantID: "tenant-a",
	}, result)

	imageResult := &vision.ImageResult{
		Caption: "A red bicycle against a wall",
		Tags:    []string{"bicycle", "wall"},
		OCRText: "PARKING",
	}
	chunks := svc.buildChunks(context.Background(), artifact, result, imageResult)
	require.Len(t, chunks, 1)

	assert.Equal(t, "A red bicycle against a wall", chunks[0].Caption)
	assert.Equal(t, "A red bicycle against a wall", chunks[0].ImageDescription)
	assert.Equal(t, "PARKING", chunks[0].OCRText)
	assert.Contains(t, chunks[0].SearchableText, "parking")
	assert.Contains(t, chunks[0].SearchableText, "red bicycle")
}

func TestApplyImageResult(t *testing.T) {
	artifact := &models.Artifact{FileName: "photo.png"}
	applyImageResult(artifact, &vision.ImageResult{
		Caption:          "City skyline at night",
		Tags:             []string{"city", "night"},
		OCRText:          "HOTEL",
		CaptionEmbedding: []float32{0.1, 0.2},
	})
	assert.Equal(t, "City skyline at night", artifact.Description)
	assert.Equal(t, "HOTEL", artifact.OCRText)
	assert.Equal(t, models.StringSlice{"city", "night"}, artifact.ImageLabels)
	assert.Len(t, []float32(artifact.ImageEmbedding), 2)
}

func TestIngestFile_Validation(t *testing.T) {
	svc := newUnitService(t)
	ctx := context.Background()

	_, err := svc.IngestFile(ctx, FileRequest{FileName: "a.txt", TenantID: "t"})
	assert.Error(t, err)

	_, err = svc.IngestFile(ctx, FileRequest{Data: []byte("x"), TenantID: "t"})
	assert.Error(t, err)

	_, err = svc.IngestFile(ctx, FileRequest{Data: []byte("x"), FileName: "a.txt"})
	assert.Error(t, err)
}

func TestIngestSnippet_Validation(t *testing.T) {
	svc := newUnitService(t)
	ctx := context.Background()

	_, err := svc.IngestSnippet(ctx, SnippetRequest{Text: "   ", TenantID: "t"})
	assert.Error(t, err)

	_, err = svc.IngestSnippet(ctx, SnippetRequest{Text: "hello world"})
	assert.Error(t, err)
}

func TestSuggestContent_Capped(t *testing.T) {
	artifact := &models.Artifact{Summary: "short summary"}
	chunks := make([]models.Chunk, 50)
	for i := range chunks {
		chunks[i].Text = string(make([]byte, 1000))
	}
	content := suggestContent(artifact, chunks)
	assert.LessOrEqual(t, utf8.RuneCountInString(content), maxSuggestContentChars)
	assert.Contains(t, content, "short summary")
}

func TestSuggestContent_TruncatesOnRuneBoundary(t *testing.T) {
	artifact := &models.Artifact{}
	chunks := []models.Chunk{{Text: strings.Repeat("é", maxSuggestContentChars+100)}}

	content := suggestContent(artifact, chunks)
	assert.True(t, utf8.ValidString(content))
	assert.LessOrEqual(t, utf8.RuneCountInString(content), maxSuggestContentChars)
}

// setupTest connects to PostgreSQL when a DSN is provided, otherwise the
// test is skipped.
func setupTest(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("LOUPE_TEST_POSTGRESQL_DSN")
	if dsn == "" {
		t.Skip("LOUPE_TEST_POSTGRESQL_DSN not set, skipping database test")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.ModelsToAutoMigrate()...))
	return db
}

func TestIngestFile_DB(t *testing.T) {
	db := setupTest(t)
	store := suggest.NewMemoryStore()
	svc, err := NewService(Config{
		DB:          db,
		Blobs:       blob.NewMemStore(),
		Suggestions: suggest.NewService(store, nil),
		Embeddings:  ai.NewClient(mock.NewProvider(), nil),
	})
	require.NoError(t, err)

	ctx := context.Background()
	artifact, err := svc.IngestFile(ctx, FileRequest{
		Data:     []byte("Invoice from Google LLC\nTotal: $42.00\n"),
		FileName: "google-invoice.txt",
		MimeType: "text/plain",
		TenantID: "tenant-ingest-test",
	})
	require.NoError(t, err)
	require.NotNil(t, artifact)

	stored, err := models.GetArtifact(db, "tenant-ingest-test", artifact.ID)
	require.NoError(t, err)
	assert.Equal(t, "google-invoice.txt", stored.FileName)

	chunks, err := models.GetChunksByParent(db, artifact.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, chunks)
}
