package search

import (
	"context"

	"gorm.io/gorm"

	"github.com/loupe-search/loupe/pkg/models"
)

// Source supplies search candidates for one tenant. The production
// implementation reads the document store; tests use an in-memory fake.
type Source interface {
	// Artifacts returns up to limit artifacts for a tenant, newest first.
	Artifacts(ctx context.Context, tenantID string, limit int) ([]models.Artifact, error)

	// Chunks returns up to limit chunks for a tenant.
	Chunks(ctx context.Context, tenantID string, limit int) ([]models.Chunk, error)

	// ArtifactsWithVector returns artifacts carrying an embedding.
	ArtifactsWithVector(ctx context.Context, tenantID string, limit int) ([]models.Artifact, error)

	// ChunksWithVector returns chunks carrying an embedding.
	ChunksWithVector(ctx context.Context, tenantID string, limit int) ([]models.Chunk, error)

	// Categories returns the tenant's search categories.
	Categories(ctx context.Context, tenantID string) ([]models.SearchCategory, error)
}

// GormSource reads candidates from the gorm document store.
type GormSource struct {
	db *gorm.DB
}

func NewGormSource(db *gorm.DB) *GormSource {
	return &GormSource{db: db}
}

func (s *GormSource) Artifacts(ctx context.Context, tenantID string, limit int) ([]models.Artifact, error) {
	return models.ListArtifacts(s.db.WithContext(ctx), tenantID, 0, limit)
}

func (s *GormSource) Chunks(ctx context.Context, tenantID string, limit int) ([]models.Chunk, error) {
	return models.ListChunksByTenant(s.db.WithContext(ctx), tenantID, limit)
}

func (s *GormSource) ArtifactsWithVector(ctx context.Context, tenantID string, limit int) ([]models.Artifact, error) {
	return models.ListArtifactsWithTextVector(s.db.WithContext(ctx), tenantID, limit)
}

func (s *GormSource) ChunksWithVector(ctx context.Context, tenantID string, limit int) ([]models.Chunk, error) {
	return models.ListChunksWithTextVector(s.db.WithContext(ctx), tenantID, limit)
}

func (s *GormSource) Categories(ctx context.Context, tenantID string) ([]models.SearchCategory, error) {
	return models.GetSearchCategories(s.db.WithContext(ctx), tenantID)
}
