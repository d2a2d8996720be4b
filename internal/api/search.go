package api

import (
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/loupe-search/loupe/internal/server"
)

// SearchRequest is the body of POST /api/v1/search.
type SearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
	Mode  string `json:"mode,omitempty"`
}

// Validate checks the request fields. An empty query is accepted and yields
// an empty result set.
func (r SearchRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Query, validation.Length(0, 1000)),
		validation.Field(&r.Limit, validation.Min(0), validation.Max(100)),
		validation.Field(&r.Mode, validation.In("", "auto", "keyword", "semantic", "hybrid", "compound")),
	)
}

// SearchHandler handles POST /api/v1/search.
func SearchHandler(srv *server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenant, err := tenantFromRequest(r)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		var req SearchRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := req.Validate(); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		resp, err := srv.Search.Search(r.Context(), req.Query, tenant, req.Limit, req.Mode)
		if err != nil {
			srv.Logger.Error("search request failed",
				"tenant", tenant, "query", req.Query, "error", err)
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		srv.Logger.Debug("search completed",
			"tenant", tenant, "mode", resp.Mode, "results", resp.Total)
		respondJSON(w, http.StatusOK, resp)
	})
}

// SuggestHandler handles GET /api/v1/suggest?q=<prefix>&limit=<n>.
func SuggestHandler(srv *server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenant, err := tenantFromRequest(r)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		prefix := r.URL.Query().Get("q")
		limit := queryInt(r, "limit", 10)

		suggestions, err := srv.Suggestions.Suggest(r.Context(), tenant, prefix, limit)
		if err != nil {
			srv.Logger.Error("suggest request failed",
				"tenant", tenant, "prefix", prefix, "error", err)
			respondError(w, http.StatusInternalServerError, "suggestions unavailable")
			return
		}

		respondJSON(w, http.StatusOK, map[string]interface{}{
			"query":       prefix,
			"suggestions": suggestions,
		})
	})
}
