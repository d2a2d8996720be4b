// Package bleve maintains the embedded secondary full-text index over
// artifacts. Ingest writes best-effort; reindex removes deleted artifacts.
package bleve

import (
	"context"
	"fmt"
	"os"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/loupe-search/loupe/pkg/models"
)

// Adapter wraps one Bleve index over all tenants' artifacts. Every query
// is filtered by the tenant keyword field.
type Adapter struct {
	index bleve.Index
	path  string
}

// Config contains Bleve configuration.
type Config struct {
	// IndexPath is the on-disk index location. Empty opens an in-memory
	// index, used in tests.
	IndexPath string
}

// indexedArtifact is the document shape stored in the index.
type indexedArtifact struct {
	TenantID string   `json:"tenantId"`
	FileName string   `json:"fileName"`
	FileKind string   `json:"fileKind"`
	Summary  string   `json:"summary"`
	Content  string   `json:"content"`
	Vendor   string   `json:"vendor"`
	Keywords []string `json:"keywords"`
	Entities []string `json:"entities"`
}

// NewAdapter opens or creates the artifacts index.
func NewAdapter(cfg *Config) (*Adapter, error) {
	m := createArtifactMapping()

	if cfg.IndexPath == "" {
		idx, err := bleve.NewMemOnly(m)
		if err != nil {
			return nil, fmt.Errorf("creating in-memory index: %w", err)
		}
		return &Adapter{index: idx}, nil
	}

	idx, err := openOrCreateIndex(cfg.IndexPath, m)
	if err != nil {
		return nil, fmt.Errorf("opening artifacts index: %w", err)
	}
	return &Adapter{index: idx, path: cfg.IndexPath}, nil
}

// openOrCreateIndex opens an existing Bleve index or creates a new one.
func openOrCreateIndex(path string, indexMapping mapping.IndexMapping) (bleve.Index, error) {
	idx, err := bleve.Open(path)
	if err == bleve.ErrorIndexPathDoesNotExist {
		return bleve.New(path, indexMapping)
	}
	return idx, err
}

// createArtifactMapping builds the index mapping: analyzed text for the
// searchable fields, keyword fields for exact filters.
func createArtifactMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()

	textFieldMapping := bleve.NewTextFieldMapping()
	keywordFieldMapping := bleve.NewKeywordFieldMapping()

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("fileName", textFieldMapping)
	docMapping.AddFieldMappingsAt("summary", textFieldMapping)
	docMapping.AddFieldMappingsAt("content", textFieldMapping)
	docMapping.AddFieldMappingsAt("keywords", textFieldMapping)
	docMapping.AddFieldMappingsAt("entities", textFieldMapping)

	docMapping.AddFieldMappingsAt("tenantId", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("fileKind", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("vendor", keywordFieldMapping)

	indexMapping.AddDocumentMapping("_default", docMapping)
	return indexMapping
}

// IndexArtifact adds or updates one artifact. fullText is the concatenated
// chunk content.
func (a *Adapter) IndexArtifact(ctx context.Context, artifact *models.Artifact, fullText string) error {
	doc := indexedArtifact{
		TenantID: artifact.TenantID,
		FileName: artifact.FileName,
		FileKind: artifact.FileKind,
		Summary:  artifact.Summary,
		Content:  fullText,
		Vendor:   artifact.Vendor,
		Keywords: artifact.Keywords,
		Entities: artifact.Entities,
	}
	if err := a.index.Index(artifact.ID.String(), doc); err != nil {
		return fmt.Errorf("indexing artifact %s: %w", artifact.ID, err)
	}
	return nil
}

// DeleteArtifact removes one artifact from the index.
func (a *Adapter) DeleteArtifact(ctx context.Context, id string) error {
	if err := a.index.Delete(id); err != nil {
		return fmt.Errorf("deleting artifact %s from index: %w", id, err)
	}
	return nil
}

// Hit is one full-text match.
type Hit struct {
	ID       string
	FileName string
	Score    float64
}

// Search runs a tenant-scoped match query and returns artifact IDs with
// their relevance scores.
func (a *Adapter) Search(ctx context.Context, tenantID, query string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 10
	}

	matchQuery := bleve.NewMatchQuery(query)
	tenantQuery := bleve.NewTermQuery(tenantID)
	tenantQuery.SetField("tenantId")
	combined := bleve.NewConjunctionQuery(matchQuery, tenantQuery)

	request := bleve.NewSearchRequest(combined)
	request.Size = limit
	request.Fields = []string{"fileName"}

	result, err := a.index.Search(request)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}

	hits := make([]Hit, 0, len(result.Hits))
	for _, h := range result.Hits {
		hit := Hit{ID: h.ID, Score: h.Score}
		if name, ok := h.Fields["fileName"].(string); ok {
			hit.FileName = name
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// DocCount reports the number of indexed artifacts.
func (a *Adapter) DocCount() (uint64, error) {
	return a.index.DocCount()
}

// Clear removes all documents by recreating the index.
func (a *Adapter) Clear() error {
	if err := a.index.Close(); err != nil {
		return fmt.Errorf("closing index: %w", err)
	}
	if a.path == "" {
		idx, err := bleve.NewMemOnly(createArtifactMapping())
		if err != nil {
			return fmt.Errorf("recreating in-memory index: %w", err)
		}
		a.index = idx
		return nil
	}
	if err := os.RemoveAll(a.path); err != nil {
		return fmt.Errorf("removing index: %w", err)
	}
	idx, err := bleve.New(a.path, createArtifactMapping())
	if err != nil {
		return fmt.Errorf("recreating index: %w", err)
	}
	a.index = idx
	return nil
}

// Close closes the index.
func (a *Adapter) Close() error {
	return a.index.Close()
}
