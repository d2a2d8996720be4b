package api

import (
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/loupe-search/loupe/internal/server"
	"github.com/loupe-search/loupe/pkg/ingest"
)

// SnippetRequest is the body of POST /api/v1/snippets.
type SnippetRequest struct {
	Text     string                 `json:"text"`
	Title    string                 `json:"title,omitempty"`
	Source   string                 `json:"source,omitempty"`
	Tags     []string               `json:"tags,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Validate checks the request fields.
func (r SnippetRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Text, validation.Required, validation.Length(1, 1<<20)),
		validation.Field(&r.Title, validation.Length(0, 500)),
		validation.Field(&r.Source, validation.Length(0, 255)),
	)
}

// IngestSnippetHandler handles POST /api/v1/snippets.
func IngestSnippetHandler(srv *server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenant, err := tenantFromRequest(r)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		var req SnippetRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := req.Validate(); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		artifact, err := srv.Ingest.IngestSnippet(r.Context(), ingest.SnippetRequest{
			Text:     req.Text,
			Title:    req.Title,
			TenantID: tenant,
			Source:   req.Source,
			Tags:     req.Tags,
			Metadata: req.Metadata,
		})
		if err != nil {
			srv.Logger.Error("snippet ingest failed", "tenant", tenant, "error", err)
			respondError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}

		srv.Logger.Info("snippet ingested",
			"tenant", tenant, "artifact", artifact.ID, "title", artifact.FileName)
		respondJSON(w, http.StatusCreated, artifact)
	})
}
