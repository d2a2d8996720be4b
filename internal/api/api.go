// Package api implements the HTTP JSON API: search, suggestions, artifact
// ingestion and CRUD, and search category administration.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// TenantHeader carries the tenant ID on every request. Requests without it
// are rejected.
const TenantHeader = "X-Loupe-Tenant"

// maxUploadBytes bounds multipart file uploads.
const maxUploadBytes = 64 << 20

func tenantFromRequest(r *http.Request) (string, error) {
	tenant := strings.TrimSpace(r.Header.Get(TenantHeader))
	if tenant == "" {
		return "", fmt.Errorf("missing %s header", TenantHeader)
	}
	return tenant, nil
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// queryInt reads an integer query parameter, falling back to def when the
// parameter is absent or malformed.
func queryInt(r *http.Request, name string, def int) int {
	if v := r.URL.Query().Get(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
