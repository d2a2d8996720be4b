package models

import (
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupTest(t *testing.T) (*gorm.DB, func(t *testing.T)) {
	t.Helper()

	dsn := os.Getenv("LOUPE_TEST_POSTGRESQL_DSN")
	if dsn == "" {
		t.Skip("LOUPE_TEST_POSTGRESQL_DSN environment variable isn't set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(ModelsToAutoMigrate()...))

	return db, func(t *testing.T) {
		db.Exec("DELETE FROM chunks")
		db.Exec("DELETE FROM artifacts")
		db.Exec("DELETE FROM search_categories")
	}
}

func TestValidateChunks(t *testing.T) {
	parent := &Artifact{
		ID:       uuid.New(),
		TenantID: "tenant-a",
		FileName: "invoice.pdf",
	}
	valid := func() []Chunk {
		return []Chunk{
			{ParentID: parent.ID, TenantID: "tenant-a", ChunkIndex: 0,
				ChunkType: ChunkTypePage, Text: "page one", SearchableText: "invoice.pdf page one"},
			{ParentID: parent.ID, TenantID: "tenant-a", ChunkIndex: 1,
				ChunkType: ChunkTypePage, Text: "page two", SearchableText: "invoice.pdf page two"},
		}
	}

	t.Run("valid batch", func(t *testing.T) {
		assert.NoError(t, ValidateChunks(parent, valid(), 0))
	})

	t.Run("sparse chunk index", func(t *testing.T) {
		chunks := valid()
		chunks[1].ChunkIndex = 2
		assert.ErrorContains(t, ValidateChunks(parent, chunks, 0), "not dense")
	})

	t.Run("wrong parent", func(t *testing.T) {
		chunks := valid()
		chunks[0].ParentID = uuid.New()
		assert.ErrorContains(t, ValidateChunks(parent, chunks, 0), "references parent")
	})

	t.Run("tenant mismatch", func(t *testing.T) {
		chunks := valid()
		chunks[1].TenantID = "tenant-b"
		assert.ErrorContains(t, ValidateChunks(parent, chunks, 0), "tenant")
	})

	t.Run("missing searchable text", func(t *testing.T) {
		chunks := valid()
		chunks[0].SearchableText = ""
		assert.ErrorContains(t, ValidateChunks(parent, chunks, 0), "searchable_text")
	})

	t.Run("wrong embedding dimension", func(t *testing.T) {
		chunks := valid()
		chunks[0].TextEmbedding = Vector{0.1, 0.2, 0.3}
		assert.ErrorContains(t, ValidateChunks(parent, chunks, 4), "dims")
	})

	t.Run("empty vector passes dimension check", func(t *testing.T) {
		chunks := valid()
		chunks[0].TextEmbedding = Vector{0.1, 0.2, 0.3, 0.4}
		assert.NoError(t, ValidateChunks(parent, chunks, 4))
	})
}

func TestChunk_HasSearchSource(t *testing.T) {
	parent := &Artifact{FileName: "report.txt"}
	bare := &Artifact{}

	assert.True(t, (&Chunk{Text: "hello"}).HasSearchSource(bare))
	assert.True(t, (&Chunk{OCRText: "scan"}).HasSearchSource(bare))
	assert.True(t, (&Chunk{ImageLabels: StringSlice{"gps"}}).HasSearchSource(bare))
	assert.True(t, (&Chunk{}).HasSearchSource(parent), "parent file name is a source")
	assert.False(t, (&Chunk{}).HasSearchSource(bare))
	assert.False(t, (&Chunk{}).HasSearchSource(nil))
}

func TestVector_Scan(t *testing.T) {
	var v Vector
	require.NoError(t, v.Scan([]byte("[0.5,1.5]")))
	assert.Equal(t, Vector{0.5, 1.5}, v)

	var fromString Vector
	require.NoError(t, fromString.Scan("[1,2,3]"))
	assert.Len(t, fromString, 3)

	var empty Vector
	require.NoError(t, empty.Scan(nil))
	assert.Empty(t, empty)
}

func TestJSON_ValueRejectsInvalid(t *testing.T) {
	_, err := JSON(`{"ok":true}`).Value()
	assert.NoError(t, err)

	_, err = JSON(`{not json`).Value()
	assert.Error(t, err)
}

func TestInsertChunks_DB(t *testing.T) {
	db, tearDownTest := setupTest(t)
	defer tearDownTest(t)

	artifact := &Artifact{
		TenantID: "tenant-a",
		FileName: "faktura.pdf",
		FileKind: "pdf",
	}
	require.NoError(t, db.Create(artifact).Error)

	chunks := []Chunk{
		{ParentID: artifact.ID, TenantID: "tenant-a", ChunkIndex: 0,
			ChunkType: ChunkTypePage, Text: "strana 1", SearchableText: "faktura.pdf strana 1"},
		{ParentID: artifact.ID, TenantID: "tenant-a", ChunkIndex: 1,
			ChunkType: ChunkTypePage, Text: "strana 2", SearchableText: "faktura.pdf strana 2"},
	}
	require.NoError(t, InsertChunks(db, artifact, chunks, 0))

	got, err := GetChunksByParent(db, artifact.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 0, got[0].ChunkIndex)
	assert.Equal(t, 1, got[1].ChunkIndex)

	require.NoError(t, DeleteChunksByParent(db, artifact.ID))
	got, err = GetChunksByParent(db, artifact.ID)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGetSearchCategories_LazyDefaults(t *testing.T) {
	db, tearDownTest := setupTest(t)
	defer tearDownTest(t)

	categories, err := GetSearchCategories(db, "tenant-a")
	require.NoError(t, err)
	require.Len(t, categories, 3)

	types := make([]string, 0, len(categories))
	for _, c := range categories {
		types = append(types, c.CategoryType)
	}
	assert.ElementsMatch(t, []string{CategoryVendor, CategoryPeople, CategoryPrice}, types)

	// Second access returns the persisted rows, not fresh defaults.
	again, err := GetSearchCategories(db, "tenant-a")
	require.NoError(t, err)
	assert.Equal(t, categories[0].ID, again[0].ID)
}
