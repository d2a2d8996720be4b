package api

import (
	"net/http"

	"github.com/loupe-search/loupe/internal/server"
)

// NewMux registers every API route on a fresh mux.
func NewMux(srv *server.Server) *http.ServeMux {
	mux := http.NewServeMux()

	mux.Handle("POST /api/v1/search", SearchHandler(srv))
	mux.Handle("GET /api/v1/suggest", SuggestHandler(srv))

	mux.Handle("POST /api/v1/artifacts", UploadArtifactHandler(srv))
	mux.Handle("GET /api/v1/artifacts", ListArtifactsHandler(srv))
	mux.Handle("GET /api/v1/artifacts/{id}", GetArtifactHandler(srv))
	mux.Handle("PATCH /api/v1/artifacts/{id}", PatchArtifactHandler(srv))
	mux.Handle("DELETE /api/v1/artifacts/{id}", DeleteArtifactHandler(srv))

	mux.Handle("POST /api/v1/snippets", IngestSnippetHandler(srv))

	mux.Handle("GET /api/v1/categories", ListCategoriesHandler(srv))
	mux.Handle("PUT /api/v1/categories", UpsertCategoryHandler(srv))

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return mux
}
