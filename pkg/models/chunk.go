package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/loupe-search/loupe/pkg/textnorm"
)

// Chunk types.
const (
	ChunkTypePage      = "page"
	ChunkTypeRow       = "row"
	ChunkTypeParagraph = "paragraph"
	ChunkTypeSnippet   = "snippet_chunk"
	ChunkTypeImage     = "image"
)

// Chunk is one searchable unit of an artifact, identified by
// (parent_id, chunk_index). Chunks are written in one batch after their
// parent so readers never see orphans.
type Chunk struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	ParentID   uuid.UUID `gorm:"type:uuid;not null;index:idx_chunks_parent;uniqueIndex:idx_chunks_parent_index,priority:1" json:"parentId"`
	TenantID   string    `gorm:"type:varchar(100);not null;index:idx_chunks_tenant_file,priority:1" json:"tenantId"`
	FileName   string    `gorm:"type:varchar(500);index:idx_chunks_tenant_file,priority:2" json:"fileName"`
	ChunkIndex int       `gorm:"not null;uniqueIndex:idx_chunks_parent_index,priority:2" json:"chunkIndex"`
	ChunkType  string    `gorm:"type:varchar(20);not null" json:"chunkType"`

	Text              string `gorm:"type:text" json:"text"`
	TextNormalized    string `gorm:"type:text" json:"-"`
	OCRText           string `gorm:"type:text" json:"ocrText,omitempty"`
	OCRTextNormalized string `gorm:"type:text" json:"-"`

	Caption          string      `gorm:"type:text" json:"caption,omitempty"`
	ImageDescription string      `gorm:"type:text" json:"imageDescription,omitempty"`
	ImageLabels      StringSlice `gorm:"type:text" json:"imageLabels,omitempty"`
	CaptionEmbedding Vector      `gorm:"type:text" json:"-"`
	TextEmbedding    Vector      `gorm:"type:text" json:"-"`

	// Deep-link locators.
	PageNumber  *int `json:"pageNumber,omitempty"`
	RowNumber   *int `json:"rowNumber,omitempty"`
	ColNumber   *int `json:"colNumber,omitempty"`
	BoundingBox JSON `gorm:"type:text" json:"boundingBox,omitempty"`

	Vendor       string      `gorm:"type:varchar(255)" json:"vendor,omitempty"`
	Currency     string      `gorm:"type:varchar(3)" json:"currency,omitempty"`
	AmountsCents Int64Slice  `gorm:"type:text" json:"amountsCents,omitempty"`
	Entities     StringSlice `gorm:"type:text" json:"entities,omitempty"`
	Keywords     StringSlice `gorm:"type:text" json:"keywords,omitempty"`
	Dates        StringSlice `gorm:"type:text" json:"dates,omitempty"`

	// SearchableText folds parent metadata and all chunk text sources
	// through normalization. Rewritten by reindex when the parent changes.
	SearchableText string `gorm:"type:text" json:"-"`
}

func (Chunk) TableName() string {
	return "chunks"
}

// HasTextVector reports whether a chunk embedding was stored.
func (c *Chunk) HasTextVector() bool {
	return len(c.TextEmbedding) > 0
}

// HasSearchSource reports whether any field feeds searchable_text.
func (c *Chunk) HasSearchSource(parent *Artifact) bool {
	if c.Text != "" || c.OCRText != "" || c.Caption != "" || len(c.ImageLabels) > 0 {
		return true
	}
	if parent == nil {
		return false
	}
	return parent.FileName != "" || parent.Description != "" ||
		len(parent.Tags) > 0 || len(parent.Keywords) > 0
}

// BuildSearchableText folds parent metadata and all of the chunk's text
// sources into the normalized search fields. Reindex calls this again
// whenever the parent's metadata changes.
func (c *Chunk) BuildSearchableText(parent *Artifact) {
	c.TextNormalized = textnorm.Normalize(c.Text)
	c.OCRTextNormalized = textnorm.Normalize(c.OCRText)

	parts := make([]string, 0, 8)
	if parent != nil {
		parts = append(parts,
			parent.FileName,
			parent.Description,
			strings.Join(parent.Tags, " "),
			strings.Join(parent.Keywords, " "),
		)
	}
	parts = append(parts,
		c.Text,
		c.OCRText,
		c.Caption,
		strings.Join(c.ImageLabels, " "),
	)
	c.SearchableText = textnorm.CreateSearchableText(parts...)
}

// ValidateChunks checks the write-time invariants for a batch of chunks
// about to be inserted under parent: dense chunk_index from 0, tenant
// equality with the parent, searchable_text present whenever a source field
// is, and vector length either 0 or embeddingDim (0 skips the check).
func ValidateChunks(parent *Artifact, chunks []Chunk, embeddingDim int) error {
	for i := range chunks {
		c := &chunks[i]
		if c.ChunkIndex != i {
			return fmt.Errorf(
				"chunk index not dense: position %d has chunk_index %d", i, c.ChunkIndex)
		}
		if c.ParentID != parent.ID {
			return fmt.Errorf("chunk %d references parent %s, want %s",
				i, c.ParentID, parent.ID)
		}
		if c.TenantID != parent.TenantID {
			return fmt.Errorf("chunk %d tenant %q does not match parent tenant %q",
				i, c.TenantID, parent.TenantID)
		}
		if c.SearchableText == "" && c.HasSearchSource(parent) {
			return fmt.Errorf("chunk %d has search sources but empty searchable_text", i)
		}
		if embeddingDim > 0 {
			if n := len(c.TextEmbedding); n != 0 && n != embeddingDim {
				return fmt.Errorf("chunk %d embedding has %d dims, want %d",
					i, n, embeddingDim)
			}
			if n := len(c.CaptionEmbedding); n != 0 && n != embeddingDim {
				return fmt.Errorf("chunk %d caption embedding has %d dims, want %d",
					i, n, embeddingDim)
			}
		}
	}
	return nil
}

// InsertChunks validates the batch against its parent and writes all chunks
// in one insert.
func InsertChunks(db *gorm.DB, parent *Artifact, chunks []Chunk, embeddingDim int) error {
	if len(chunks) == 0 {
		return nil
	}
	if err := ValidateChunks(parent, chunks, embeddingDim); err != nil {
		return err
	}
	return db.Create(&chunks).Error
}

// GetChunksByParent returns a parent's chunks in chunk order.
func GetChunksByParent(db *gorm.DB, parentID uuid.UUID) ([]Chunk, error) {
	var chunks []Chunk
	err := db.Where("parent_id = ?", parentID).
		Order("chunk_index ASC").
		Find(&chunks).Error
	return chunks, err
}

// ListChunksByTenant returns up to limit chunks for a tenant, newest parents
// first. The keyword search path reads through this.
func ListChunksByTenant(db *gorm.DB, tenantID string, limit int) ([]Chunk, error) {
	var chunks []Chunk
	err := db.Where("tenant_id = ?", tenantID).
		Order("created_at DESC, chunk_index ASC").
		Limit(limit).
		Find(&chunks).Error
	return chunks, err
}

// ListChunksWithTextVector returns up to limit chunks for the tenant that
// carry a text embedding.
func ListChunksWithTextVector(db *gorm.DB, tenantID string, limit int) ([]Chunk, error) {
	var chunks []Chunk
	err := db.Where("tenant_id = ? AND text_embedding IS NOT NULL", tenantID).
		Limit(limit).
		Find(&chunks).Error
	return chunks, err
}

// DeleteChunksByParent removes all chunks under one artifact.
func DeleteChunksByParent(db *gorm.DB, parentID uuid.UUID) error {
	return db.Where("parent_id = ?", parentID).Delete(&Chunk{}).Error
}
