package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Artifact kinds.
const (
	KindFile     = "file"
	KindText     = "text"
	KindURL      = "url"
	KindDatabase = "database"
	KindAPI      = "api"
)

// Artifact is one ingested file or snippet. Chunks hang off it by ParentID
// and share its tenant. A new upload of the same URI creates a new artifact;
// URIs are indexed but not unique.
type Artifact struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index:idx_artifacts_tenant_created,priority:2,sort:desc" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	TenantID string `gorm:"type:varchar(100);not null;index:idx_artifacts_tenant_created,priority:1" json:"tenantId"`
	OwnerID  string `gorm:"type:varchar(100);index:idx_artifacts_owner" json:"ownerId"`
	URI      string `gorm:"type:varchar(1000);index:idx_artifacts_uri" json:"uri"`

	FileName    string `gorm:"type:varchar(500);not null" json:"fileName"`
	Description string `gorm:"type:text" json:"description"`
	MimeType    string `gorm:"type:varchar(255)" json:"mimeType"`
	Kind        string `gorm:"type:varchar(20);not null;default:'file'" json:"kind"`
	FileKind    string `gorm:"type:varchar(50);index:idx_artifacts_file_kind" json:"fileKind"`
	SizeBytes   int64  `json:"sizeBytes"`

	Tags         StringSlice `gorm:"type:text" json:"tags,omitempty"`
	Vendor       string      `gorm:"type:varchar(255)" json:"vendor,omitempty"`
	Currency     string      `gorm:"type:varchar(3)" json:"currency,omitempty"`
	AmountsCents Int64Slice  `gorm:"type:text" json:"amountsCents,omitempty"`
	Entities     StringSlice `gorm:"type:text" json:"entities,omitempty"`
	Keywords     StringSlice `gorm:"type:text" json:"keywords,omitempty"`
	Dates        StringSlice `gorm:"type:text" json:"dates,omitempty"`

	Summary        string      `gorm:"type:text" json:"summary,omitempty"`
	TextEmbedding  Vector      `gorm:"type:text" json:"-"`
	ImageEmbedding Vector      `gorm:"type:text" json:"-"`
	ImageLabels    StringSlice `gorm:"type:text" json:"imageLabels,omitempty"`
	OCRText        string      `gorm:"type:text" json:"ocrText,omitempty"`

	// Metadata is the type-specific extractor bag (pdf_pages, row_count,
	// columns, image dimensions, ...).
	Metadata JSON `gorm:"type:text" json:"metadata,omitempty"`
}

func (Artifact) TableName() string {
	return "artifacts"
}

// BeforeCreate assigns an ID and defaults the kind.
func (a *Artifact) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Kind == "" {
		a.Kind = KindFile
	}
	return nil
}

// HasTextVector reports whether an artifact-level embedding was stored.
func (a *Artifact) HasTextVector() bool {
	return len(a.TextEmbedding) > 0
}

// GetArtifact retrieves one artifact by ID, scoped to a tenant.
func GetArtifact(db *gorm.DB, tenantID string, id uuid.UUID) (*Artifact, error) {
	var a Artifact
	err := db.Where("tenant_id = ? AND id = ?", tenantID, id).First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListArtifacts returns a tenant's artifacts newest first, with skip/limit
// paging.
func ListArtifacts(db *gorm.DB, tenantID string, skip, limit int) ([]Artifact, error) {
	var artifacts []Artifact
	err := db.Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Offset(skip).
		Limit(limit).
		Find(&artifacts).Error
	return artifacts, err
}

// ListArtifactsWithTextVector returns up to limit artifacts for the tenant
// that carry an artifact-level embedding, newest first.
func ListArtifactsWithTextVector(db *gorm.DB, tenantID string, limit int) ([]Artifact, error) {
	var artifacts []Artifact
	err := db.Where("tenant_id = ? AND text_embedding IS NOT NULL", tenantID).
		Order("created_at DESC").
		Limit(limit).
		Find(&artifacts).Error
	return artifacts, err
}

// UpdateArtifactFields applies a partial update and bumps UpdatedAt.
func (a *Artifact) UpdateArtifactFields(db *gorm.DB, fields map[string]interface{}) error {
	return db.Model(a).Updates(fields).Error
}

// DeleteArtifact removes the artifact row only. Cascade to chunks and
// suggestion cleanup is the reindex orchestrator's job.
func DeleteArtifact(db *gorm.DB, tenantID string, id uuid.UUID) error {
	return db.Where("tenant_id = ? AND id = ?", tenantID, id).
		Delete(&Artifact{}).Error
}
