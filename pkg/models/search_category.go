package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// Category types recognized by the query classifier.
const (
	CategoryVendor = "vendor"
	CategoryPeople = "people"
	CategoryPrice  = "price"
	CategoryCustom = "custom"
)

// SearchCategory is a tenant-scoped classifier row. A query dominated by a
// category's entities or trigger keywords (with at most MaxNonCategoryWords
// other words) is scored at MatchScore for matching artifacts.
type SearchCategory struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	TenantID     string `gorm:"type:varchar(100);not null;uniqueIndex:idx_search_categories_tenant_type,priority:1" json:"tenantId"`
	CategoryType string `gorm:"type:varchar(20);not null;uniqueIndex:idx_search_categories_tenant_type,priority:2" json:"categoryType"`

	Entities            StringSlice `gorm:"type:text" json:"entities,omitempty"`
	IgnoredWords        StringSlice `gorm:"type:text" json:"ignoredWords,omitempty"`
	TriggerKeywords     StringSlice `gorm:"type:text" json:"triggerKeywords,omitempty"`
	MaxNonCategoryWords int         `gorm:"not null;default:2" json:"maxNonCategoryWords"`
	MatchScore          float64     `gorm:"not null;default:0.8" json:"matchScore"`
}

func (SearchCategory) TableName() string {
	return "search_categories"
}

// defaultCategories are created on first tenant access.
func defaultCategories(tenantID string) []SearchCategory {
	return []SearchCategory{
		{
			TenantID:            tenantID,
			CategoryType:        CategoryVendor,
			TriggerKeywords:     StringSlice{"invoice", "receipt", "bill", "vendor", "supplier"},
			IgnoredWords:        StringSlice{"from", "the", "a", "an", "my"},
			MaxNonCategoryWords: 2,
			MatchScore:          0.8,
		},
		{
			TenantID:            tenantID,
			CategoryType:        CategoryPeople,
			TriggerKeywords:     StringSlice{"email", "contact", "person", "mr", "ms"},
			IgnoredWords:        StringSlice{"from", "to", "with", "the", "a"},
			MaxNonCategoryWords: 2,
			MatchScore:          0.8,
		},
		{
			TenantID:            tenantID,
			CategoryType:        CategoryPrice,
			TriggerKeywords:     StringSlice{"price", "cost", "total", "amount", "paid"},
			IgnoredWords:        StringSlice{"the", "a", "for", "of"},
			MaxNonCategoryWords: 2,
			MatchScore:          0.8,
		},
	}
}

// GetSearchCategories returns a tenant's categories, lazily creating the
// defaults on first access.
func GetSearchCategories(db *gorm.DB, tenantID string) ([]SearchCategory, error) {
	var categories []SearchCategory
	if err := db.Where("tenant_id = ?", tenantID).
		Order("category_type ASC").
		Find(&categories).Error; err != nil {
		return nil, err
	}
	if len(categories) > 0 {
		return categories, nil
	}

	defaults := defaultCategories(tenantID)
	if err := db.Create(&defaults).Error; err != nil {
		return nil, err
	}
	return defaults, nil
}

// UpsertSearchCategory creates or replaces one (tenant, category_type) row.
func UpsertSearchCategory(db *gorm.DB, category *SearchCategory) error {
	var existing SearchCategory
	err := db.Where("tenant_id = ? AND category_type = ?",
		category.TenantID, category.CategoryType).
		First(&existing).Error
	switch {
	case err == nil:
		category.ID = existing.ID
		category.CreatedAt = existing.CreatedAt
		return db.Save(category).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		return db.Create(category).Error
	default:
		return err
	}
}
