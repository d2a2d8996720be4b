package bleve

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loupe-search/loupe/pkg/models"
)

func newTestAdapter(t *testing.T) *Adapter {
	t.Helper()
	adapter, err := NewAdapter(&Config{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = adapter.Close() })
	return adapter
}

func TestIndexAndSearch(t *testing.T) {
	adapter := newTestAdapter(t)
	ctx := context.Background()

	artifact := &models.Artifact{
		ID:       uuid.New(),
		TenantID: "tenant-a",
		FileName: "quarterly-report.pdf",
		FileKind: "pdf",
		Summary:  "Revenue summary for the first quarter",
	}
	require.NoError(t, adapter.IndexArtifact(ctx, artifact, "detailed revenue figures by region"))

	hits, err := adapter.Search(ctx, "tenant-a", "revenue", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, artifact.ID.String(), hits[0].ID)
	assert.Equal(t, "quarterly-report.pdf", hits[0].FileName)
	assert.Greater(t, hits[0].Score, 0.0)
}

func TestSearch_TenantFilter(t *testing.T) {
	adapter := newTestAdapter(t)
	ctx := context.Background()

	a := &models.Artifact{ID: uuid.New(), TenantID: "tenant-a", FileName: "a.txt"}
	b := &models.Artifact{ID: uuid.New(), TenantID: "tenant-b", FileName: "b.txt"}
	require.NoError(t, adapter.IndexArtifact(ctx, a, "shared secret phrase"))
	require.NoError(t, adapter.IndexArtifact(ctx, b, "shared secret phrase"))

	hits, err := adapter.Search(ctx, "tenant-a", "secret", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, a.ID.String(), hits[0].ID)
}

func TestDeleteArtifact(t *testing.T) {
	adapter := newTestAdapter(t)
	ctx := context.Background()

	artifact := &models.Artifact{ID: uuid.New(), TenantID: "tenant-a", FileName: "gone.txt"}
	require.NoError(t, adapter.IndexArtifact(ctx, artifact, "ephemeral content"))
	require.NoError(t, adapter.DeleteArtifact(ctx, artifact.ID.String()))

	hits, err := adapter.Search(ctx, "tenant-a", "ephemeral", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestIndexArtifact_Update(t *testing.T) {
	adapter := newTestAdapter(t)
	ctx := context.Background()

	artifact := &models.Artifact{ID: uuid.New(), TenantID: "tenant-a", FileName: "v.txt"}
	require.NoError(t, adapter.IndexArtifact(ctx, artifact, "first version"))
	require.NoError(t, adapter.IndexArtifact(ctx, artifact, "second version"))

	count, err := adapter.DocCount()
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}
