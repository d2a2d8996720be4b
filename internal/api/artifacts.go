package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/loupe-search/loupe/internal/server"
	"github.com/loupe-search/loupe/pkg/ingest"
	"github.com/loupe-search/loupe/pkg/models"
	"github.com/loupe-search/loupe/pkg/reindex"
)

// updatableFields maps PATCH body keys to database columns and the field
// names carried on the resulting reindex event.
var updatableFields = map[string]struct {
	column string
	event  string
}{
	"fileName":    {"file_name", reindex.FieldFileName},
	"description": {"description", "description"},
	"vendor":      {"vendor", reindex.FieldVendor},
	"tags":        {"tags", "tags"},
	"keywords":    {"keywords", reindex.FieldKeywords},
	"entities":    {"entities", reindex.FieldEntities},
}

// UploadArtifactHandler handles POST /api/v1/artifacts (multipart upload).
func UploadArtifactHandler(srv *server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenant, err := tenantFromRequest(r)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			respondError(w, http.StatusBadRequest, "invalid multipart form")
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			respondError(w, http.StatusBadRequest, "missing file field")
			return
		}
		defer file.Close()

		data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
		if err != nil {
			respondError(w, http.StatusBadRequest, "reading upload")
			return
		}

		req := ingest.FileRequest{
			Data:     data,
			FileName: header.Filename,
			MimeType: header.Header.Get("Content-Type"),
			TenantID: tenant,
			OwnerID:  r.FormValue("ownerId"),
			Tags:     splitCommaList(r.FormValue("tags")),
		}
		if meta := r.FormValue("metadata"); meta != "" {
			if err := json.Unmarshal([]byte(meta), &req.Metadata); err != nil {
				respondError(w, http.StatusBadRequest, "metadata must be a JSON object")
				return
			}
		}

		artifact, err := srv.Ingest.IngestFile(r.Context(), req)
		if err != nil {
			srv.Logger.Error("file ingest failed",
				"tenant", tenant, "filename", header.Filename, "error", err)
			respondError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}

		srv.Logger.Info("artifact ingested",
			"tenant", tenant, "artifact", artifact.ID, "filename", artifact.FileName)
		respondJSON(w, http.StatusCreated, artifact)
	})
}

// ListArtifactsHandler handles GET /api/v1/artifacts?skip=<n>&limit=<n>.
func ListArtifactsHandler(srv *server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenant, err := tenantFromRequest(r)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		skip := queryInt(r, "skip", 0)
		limit := queryInt(r, "limit", 50)
		if limit > 200 {
			limit = 200
		}

		artifacts, err := models.ListArtifacts(srv.DB.WithContext(r.Context()), tenant, skip, limit)
		if err != nil {
			srv.Logger.Error("listing artifacts failed", "tenant", tenant, "error", err)
			respondError(w, http.StatusInternalServerError, "listing artifacts failed")
			return
		}

		respondJSON(w, http.StatusOK, map[string]interface{}{
			"artifacts": artifacts,
			"count":     len(artifacts),
		})
	})
}

// GetArtifactHandler handles GET /api/v1/artifacts/{id}.
func GetArtifactHandler(srv *server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenant, id, ok := tenantAndID(w, r)
		if !ok {
			return
		}

		artifact, err := models.GetArtifact(srv.DB.WithContext(r.Context()), tenant, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				respondError(w, http.StatusNotFound, "artifact not found")
				return
			}
			srv.Logger.Error("loading artifact failed",
				"tenant", tenant, "artifact", id, "error", err)
			respondError(w, http.StatusInternalServerError, "loading artifact failed")
			return
		}

		respondJSON(w, http.StatusOK, artifact)
	})
}

// PatchArtifactHandler handles PATCH /api/v1/artifacts/{id}. It applies a
// partial metadata update and publishes an Updated reindex event naming the
// changed fields.
func PatchArtifactHandler(srv *server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenant, id, ok := tenantAndID(w, r)
		if !ok {
			return
		}

		var body map[string]interface{}
		if err := decodeJSON(r, &body); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if len(body) == 0 {
			respondError(w, http.StatusBadRequest, "no fields to update")
			return
		}

		updates := make(map[string]interface{}, len(body))
		var changed []string
		for key, value := range body {
			field, ok := updatableFields[key]
			if !ok {
				respondError(w, http.StatusBadRequest, "unknown field: "+key)
				return
			}
			updates[field.column] = coerceColumnValue(value)
			changed = append(changed, field.event)
		}

		db := srv.DB.WithContext(r.Context())
		artifact, err := models.GetArtifact(db, tenant, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				respondError(w, http.StatusNotFound, "artifact not found")
				return
			}
			srv.Logger.Error("loading artifact failed",
				"tenant", tenant, "artifact", id, "error", err)
			respondError(w, http.StatusInternalServerError, "loading artifact failed")
			return
		}

		if err := artifact.UpdateArtifactFields(db, updates); err != nil {
			srv.Logger.Error("updating artifact failed",
				"tenant", tenant, "artifact", id, "error", err)
			respondError(w, http.StatusInternalServerError, "updating artifact failed")
			return
		}

		event := reindex.Event{
			Kind:          reindex.EventUpdated,
			ArtifactID:    id.String(),
			TenantID:      tenant,
			ChangedFields: changed,
		}
		if err := srv.Events.Publish(r.Context(), event); err != nil {
			srv.Logger.Warn("publishing update event failed",
				"tenant", tenant, "artifact", id, "error", err)
		}

		updated, err := models.GetArtifact(db, tenant, id)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "reloading artifact failed")
			return
		}
		respondJSON(w, http.StatusOK, updated)
	})
}

// DeleteArtifactHandler handles DELETE /api/v1/artifacts/{id}. Deletion runs
// asynchronously through the reindex orchestrator, which removes chunks, the
// artifact row, suggestion terms, and the full-text entry in order.
func DeleteArtifactHandler(srv *server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenant, id, ok := tenantAndID(w, r)
		if !ok {
			return
		}

		db := srv.DB.WithContext(r.Context())
		if _, err := models.GetArtifact(db, tenant, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				respondError(w, http.StatusNotFound, "artifact not found")
				return
			}
			srv.Logger.Error("loading artifact failed",
				"tenant", tenant, "artifact", id, "error", err)
			respondError(w, http.StatusInternalServerError, "loading artifact failed")
			return
		}

		event := reindex.Event{
			Kind:       reindex.EventDeleted,
			ArtifactID: id.String(),
			TenantID:   tenant,
		}
		if err := srv.Events.Publish(r.Context(), event); err != nil {
			srv.Logger.Error("publishing delete event failed",
				"tenant", tenant, "artifact", id, "error", err)
			respondError(w, http.StatusInternalServerError, "scheduling deletion failed")
			return
		}

		srv.Logger.Info("artifact deletion scheduled", "tenant", tenant, "artifact", id)
		respondJSON(w, http.StatusAccepted, map[string]string{
			"id":     id.String(),
			"status": "deletion scheduled",
		})
	})
}

func tenantAndID(w http.ResponseWriter, r *http.Request) (string, uuid.UUID, bool) {
	tenant, err := tenantFromRequest(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return "", uuid.Nil, false
	}
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid artifact ID")
		return "", uuid.Nil, false
	}
	return tenant, id, true
}

func splitCommaList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// coerceColumnValue converts JSON arrays into the slice types the model
// columns serialize from.
func coerceColumnValue(v interface{}) interface{} {
	arr, ok := v.([]interface{})
	if !ok {
		return v
	}
	out := make(models.StringSlice, 0, len(arr))
	for _, item := range arr {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
