package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"compound-db/config"
	"compound-db/services"
	"compound-db/storage"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

func newTestRouter(t *testing.T, snapshots bool) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{DBDriver: "sqlite", SQLitePath: ":memory:"}
	db, err := storage.OpenDB(cfg)
	require.NoError(t, err)
	require.NoError(t, storage.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	compounds := services.NewCompoundService(cfg, db, zap.NewNop())
	var snapshotService *services.SnapshotService
	if snapshots {
		bucket := &storage.Bucket{Client: &discardObjects{}, Name: "backups", URL: "http://minio:9000"}
		snapshotService = services.NewSnapshotService(compounds, bucket, "snapshots/", 2, zap.NewNop())
	}
	return newRouter(compounds, snapshotService, zap.NewNop())
}

func post(t *testing.T, router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

const leadBatch = `[
	{"compound": "PbS", "properties": [{"name": "Band gap", "value": "0.41"}]},
	{"compound": "PbSe", "properties": [{"name": "Band gap", "value": "0.27"}]}
]`

func TestAddReturnsCreatedCompound(t *testing.T) {
	router := newTestRouter(t, false)

	w := post(t, router, "/data/add/", `{"compound": "GaAs", "properties": [{"name": "Band gap", "value": "1.42"}, {"name": "Color", "value": "Dark gray"}]}`)
	require.Equal(t, http.StatusCreated, w.Code)

	body := w.Body.String()
	assert.True(t, gjson.Get(body, "id").Uint() > 0)
	assert.Equal(t, "GaAs", gjson.Get(body, "compound").String())
	assert.Equal(t, []string{"Band gap", "Color"}, stringsOf(gjson.Get(body, "properties.#.name")))
	assert.Equal(t, []string{"1.42", "Dark gray"}, stringsOf(gjson.Get(body, "properties.#.value")))
}

func TestAddRejectsInvalidBodies(t *testing.T) {
	router := newTestRouter(t, false)

	cases := map[string]string{
		"missing compound":   `{"properties": []}`,
		"missing properties": `{"compound": "PbS"}`,
		"numeric value":      `{"compound": "PbS", "properties": [{"name": "Band gap", "value": 0.41}]}`,
		"missing value":      `{"compound": "PbS", "properties": [{"name": "Band gap"}]}`,
		"not json":           `compound=PbS`,
		"name too long":      `{"compound": "` + strings.Repeat("x", 128) + `", "properties": []}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			w := post(t, router, "/data/add/", body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.NotEmpty(t, gjson.Get(w.Body.String(), "error").String())
		})
	}
}

func TestBatchAddAndSearch(t *testing.T) {
	router := newTestRouter(t, false)

	w := post(t, router, "/data/batchadd/", leadBatch)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{}`, w.Body.String())

	cases := []struct {
		name   string
		filter string
		want   []string
	}{
		{"compound contains", `{"compound": {"value": "Pb", "logic": "contains"}}`, []string{"PbS", "PbSe"}},
		{"compound eq", `{"compound": {"value": "PbS", "logic": "eq"}}`, []string{"PbS"}},
		{"band gap gt", `{"properties": [{"name": "Band gap", "value": "0.3", "logic": "gt"}]}`, []string{"PbS"}},
		{"band gap lte", `{"properties": [{"name": "Band gap", "value": "0.27", "logic": "lte"}]}`, []string{"PbSe"}},
		{"combined", `{"compound": {"value": "Pb", "logic": "startswith"}, "properties": [{"name": "Band gap", "value": "0.5", "logic": "lt"}]}`, []string{"PbS", "PbSe"}},
		{"no match", `{"properties": [{"name": "Band gap", "value": "1", "logic": "gte"}]}`, []string{}},
		{"empty filter", `{}`, []string{"PbS", "PbSe"}},
		{"empty body", ``, []string{"PbS", "PbSe"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := post(t, router, "/data/search/", tc.filter)
			require.Equal(t, http.StatusOK, w.Code)
			result := gjson.Parse(w.Body.String())
			require.True(t, result.IsArray())
			assert.Equal(t, tc.want, stringsOf(result.Get("#.compound")))
		})
	}
}

func TestBatchAddIsAllOrNothing(t *testing.T) {
	router := newTestRouter(t, false)

	w := post(t, router, "/data/batchadd/", `[
		{"compound": "PbS", "properties": [{"name": "Band gap", "value": "0.41"}]},
		{"compound": "PbSe", "properties": [{"name": "", "value": "0.27"}]}
	]`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = post(t, router, "/data/search/", `{}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestSearchRejectsMalformedFilter(t *testing.T) {
	router := newTestRouter(t, false)

	cases := map[string]string{
		"wrong compound keys": `{"compound": {"wrong_value": "Se", "wrong_logic": "contains"}}`,
		"property without logic": `{"properties": [{"name": "Band gap", "value": "0.3"}]}`,
		"numeric rule value":     `{"properties": [{"name": "Band gap", "value": 0.3, "logic": "gt"}]}`,
		"properties not a list":  `{"properties": {"name": "Band gap"}}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			w := post(t, router, "/data/search/", body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestClearReturnsNoContent(t *testing.T) {
	router := newTestRouter(t, false)
	require.Equal(t, http.StatusCreated, post(t, router, "/data/batchadd/", leadBatch).Code)

	for i := 0; i < 2; i++ {
		w := post(t, router, "/data/clear/", "")
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())
	}

	w := post(t, router, "/data/search/", `{}`)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestHealthReportsCount(t *testing.T) {
	router := newTestRouter(t, false)
	require.Equal(t, http.StatusCreated, post(t, router, "/data/batchadd/", leadBatch).Code)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", gjson.Get(w.Body.String(), "status").String())
	assert.Equal(t, int64(2), gjson.Get(w.Body.String(), "compounds").Int())
}

func TestRequestIDHeader(t *testing.T) {
	router := newTestRouter(t, false)

	w := post(t, router, "/data/search/", `{}`)
	assert.Len(t, w.Header().Get("X-Request-ID"), 36)

	req := httptest.NewRequest(http.MethodPost, "/data/search/", strings.NewReader(`{}`))
	req.Header.Set("X-Request-ID", "trace-42")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "trace-42", w.Header().Get("X-Request-ID"))
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t, false)
	require.Equal(t, http.StatusCreated, post(t, router, "/data/batchadd/", leadBatch).Code)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "compounds_added_total")
}

func TestSnapshotRoute(t *testing.T) {
	plain := newTestRouter(t, false)
	assert.Equal(t, http.StatusNotFound, post(t, plain, "/snapshots/", "").Code)

	router := newTestRouter(t, true)
	require.Equal(t, http.StatusCreated, post(t, router, "/data/batchadd/", leadBatch).Code)

	w := post(t, router, "/snapshots/", "")
	require.Equal(t, http.StatusCreated, w.Code)
	link := gjson.Get(w.Body.String(), "link").String()
	assert.True(t, strings.HasPrefix(link, "http://minio:9000/backups/snapshots/compounds-"), link)
}

func stringsOf(result gjson.Result) []string {
	out := []string{}
	for _, r := range result.Array() {
		out = append(out, r.String())
	}
	return out
}

// discardObjects nimmt Uploads an und listet nichts.
type discardObjects struct{}

func (discardObjects) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	_, err := io.Copy(io.Discard, in.Body)
	return &s3.PutObjectOutput{}, err
}

func (discardObjects) ListObjectsV2(_ context.Context, _ *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	return &s3.ListObjectsV2Output{}, nil
}

func (discardObjects) DeleteObject(_ context.Context, _ *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	return &s3.DeleteObjectOutput{}, nil
}
