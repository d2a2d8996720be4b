package api

import (
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/loupe-search/loupe/internal/server"
	"github.com/loupe-search/loupe/pkg/models"
)

// CategoryRequest is the body of PUT /api/v1/categories.
type CategoryRequest struct {
	CategoryType        string   `json:"categoryType"`
	Entities            []string `json:"entities,omitempty"`
	IgnoredWords        []string `json:"ignoredWords,omitempty"`
	TriggerKeywords     []string `json:"triggerKeywords,omitempty"`
	MaxNonCategoryWords int      `json:"maxNonCategoryWords,omitempty"`
	MatchScore          float64  `json:"matchScore,omitempty"`
}

// Validate checks the request fields.
func (r CategoryRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CategoryType, validation.Required, validation.In(
			models.CategoryVendor, models.CategoryPeople,
			models.CategoryPrice, models.CategoryCustom)),
		validation.Field(&r.MaxNonCategoryWords, validation.Min(0), validation.Max(10)),
		validation.Field(&r.MatchScore, validation.Min(0.0), validation.Max(1.0)),
	)
}

// ListCategoriesHandler handles GET /api/v1/categories. Defaults are created
// lazily on a tenant's first access.
func ListCategoriesHandler(srv *server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenant, err := tenantFromRequest(r)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		categories, err := models.GetSearchCategories(srv.DB.WithContext(r.Context()), tenant)
		if err != nil {
			srv.Logger.Error("listing categories failed", "tenant", tenant, "error", err)
			respondError(w, http.StatusInternalServerError, "listing categories failed")
			return
		}

		respondJSON(w, http.StatusOK, map[string]interface{}{
			"categories": categories,
		})
	})
}

// UpsertCategoryHandler handles PUT /api/v1/categories, replacing the
// tenant's row for the given category type.
func UpsertCategoryHandler(srv *server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenant, err := tenantFromRequest(r)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		var req CategoryRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := req.Validate(); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		category := &models.SearchCategory{
			TenantID:            tenant,
			CategoryType:        req.CategoryType,
			Entities:            req.Entities,
			IgnoredWords:        req.IgnoredWords,
			TriggerKeywords:     req.TriggerKeywords,
			MaxNonCategoryWords: req.MaxNonCategoryWords,
			MatchScore:          req.MatchScore,
		}
		if category.MaxNonCategoryWords == 0 {
			category.MaxNonCategoryWords = 2
		}
		if category.MatchScore == 0 {
			category.MatchScore = 0.8
		}

		if err := models.UpsertSearchCategory(srv.DB.WithContext(r.Context()), category); err != nil {
			srv.Logger.Error("upserting category failed",
				"tenant", tenant, "category", req.CategoryType, "error", err)
			respondError(w, http.StatusInternalServerError, "saving category failed")
			return
		}

		respondJSON(w, http.StatusOK, category)
	})
}
