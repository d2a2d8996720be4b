package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loupe-search/loupe/internal/server"
	"github.com/loupe-search/loupe/pkg/models"
	"github.com/loupe-search/loupe/pkg/search"
	"github.com/loupe-search/loupe/pkg/suggest"
)

// staticSource serves fixed candidates regardless of tenant paging.
type staticSource struct {
	artifacts []models.Artifact
	chunks    []models.Chunk
}

func (s *staticSource) Artifacts(ctx context.Context, tenantID string, limit int) ([]models.Artifact, error) {
	return s.artifacts, nil
}

func (s *staticSource) Chunks(ctx context.Context, tenantID string, limit int) ([]models.Chunk, error) {
	return s.chunks, nil
}

func (s *staticSource) ArtifactsWithVector(ctx context.Context, tenantID string, limit int) ([]models.Artifact, error) {
	return nil, nil
}

func (s *staticSource) ChunksWithVector(ctx context.Context, tenantID string, limit int) ([]models.Chunk, error) {
	return nil, nil
}

func (s *staticSource) Categories(ctx context.Context, tenantID string) ([]models.SearchCategory, error) {
	return nil, nil
}

func newTestServer(t *testing.T) *server.Server {
	t.Helper()

	artifact := models.Artifact{
		ID:       uuid.New(),
		TenantID: "tenant-a",
		FileName: "invoice-march.pdf",
		FileKind: "pdf",
	}
	chunk := models.Chunk{
		ParentID:       artifact.ID,
		TenantID:       "tenant-a",
		Text:           "Invoice from Acme for office chairs",
		SearchableText: "invoice-march.pdf invoice from acme for office chairs",
		TextNormalized: "invoice from acme for office chairs",
	}

	source := &staticSource{
		artifacts: []models.Artifact{artifact},
		chunks:    []models.Chunk{chunk},
	}
	logger := hclog.NewNullLogger()

	suggestions := suggest.NewService(suggest.NewMemoryStore(), logger)
	require.NoError(t, suggestions.AddTerms(context.Background(),
		"tenant-a", "invoice-march.pdf", nil, []string{"invoice"}, "acme", ""))

	return &server.Server{
		Search:      search.NewService(source, nil, search.DefaultConfig(), logger),
		Suggestions: suggestions,
		Logger:      logger,
	}
}

func doRequest(t *testing.T, handler http.Handler, method, target, tenant string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	if tenant != "" {
		req.Header.Set(TenantHeader, tenant)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestSearchHandler(t *testing.T) {
	srv := newTestServer(t)
	handler := SearchHandler(srv)

	rec := doRequest(t, handler, http.MethodPost, "/api/v1/search", "tenant-a",
		SearchRequest{Query: "acme invoice", Mode: "keyword"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp search.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "keyword", resp.Mode)
	require.NotEmpty(t, resp.Results)
	assert.Equal(t, "invoice-march.pdf", resp.Results[0].FileName)
}

func TestSearchHandler_MissingTenant(t *testing.T) {
	srv := newTestServer(t)
	rec := doRequest(t, SearchHandler(srv), http.MethodPost, "/api/v1/search", "",
		SearchRequest{Query: "anything"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchHandler_EmptyQuery(t *testing.T) {
	srv := newTestServer(t)
	rec := doRequest(t, SearchHandler(srv), http.MethodPost, "/api/v1/search", "tenant-a",
		SearchRequest{Query: ""})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp search.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Results)
	assert.Empty(t, resp.Error)
}

func TestSearchHandler_CompoundMode(t *testing.T) {
	srv := newTestServer(t)
	rec := doRequest(t, SearchHandler(srv), http.MethodPost, "/api/v1/search", "tenant-a",
		SearchRequest{Query: "acme invoice", Mode: "compound"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp search.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "compound", resp.Mode)
	assert.NotEmpty(t, resp.Results)
}

func TestSearchHandler_InvalidMode(t *testing.T) {
	srv := newTestServer(t)
	rec := doRequest(t, SearchHandler(srv), http.MethodPost, "/api/v1/search", "tenant-a",
		SearchRequest{Query: "acme", Mode: "fuzzy"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSuggestHandler(t *testing.T) {
	srv := newTestServer(t)
	rec := doRequest(t, SuggestHandler(srv), http.MethodGet, "/api/v1/suggest?q=inv", "tenant-a", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Query       string               `json:"query"`
		Suggestions []suggest.Suggestion `json:"suggestions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "inv", resp.Query)
	assert.NotEmpty(t, resp.Suggestions)
}

func TestSuggestHandler_TenantIsolation(t *testing.T) {
	srv := newTestServer(t)
	rec := doRequest(t, SuggestHandler(srv), http.MethodGet, "/api/v1/suggest?q=inv", "tenant-b", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Suggestions []suggest.Suggestion `json:"suggestions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Suggestions)
}

func TestSnippetRequest_Validate(t *testing.T) {
	assert.Error(t, SnippetRequest{}.Validate())
	assert.NoError(t, SnippetRequest{Text: "a note"}.Validate())
	assert.Error(t, SnippetRequest{Text: "a", Title: strings.Repeat("x", 501)}.Validate())
}

func TestCategoryRequest_Validate(t *testing.T) {
	assert.Error(t, CategoryRequest{}.Validate())
	assert.Error(t, CategoryRequest{CategoryType: "bogus"}.Validate())
	assert.Error(t, CategoryRequest{CategoryType: "vendor", MatchScore: 1.5}.Validate())
	assert.NoError(t, CategoryRequest{CategoryType: "vendor", MatchScore: 0.8}.Validate())
}

func TestSplitCommaList(t *testing.T) {
	assert.Nil(t, splitCommaList(""))
	assert.Equal(t, []string{"a", "b"}, splitCommaList("a, b,"))
}

func TestCoerceColumnValue(t *testing.T) {
	assert.Equal(t, "plain", coerceColumnValue("plain"))
	assert.Equal(t, models.StringSlice{"x", "y"},
		coerceColumnValue([]interface{}{"x", "y"}))
}
