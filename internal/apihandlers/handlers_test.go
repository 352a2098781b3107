package apihandlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dubber/internal/lifecycle"
	"dubber/internal/metrics"
	"dubber/internal/models"
	"dubber/internal/services"
	"dubber/internal/store"
	"dubber/internal/store/blob"
	"dubber/internal/store/memory"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router *gin.Engine
	svc    *services.JobService
}

func newTestServer(t *testing.T, health HealthFunc) *testServer {
	t.Helper()
	m := metrics.New()
	placeholder := blob.NewPlaceholderStore("http://localhost:8080").WithClock(func() time.Time {
		return time.UnixMilli(1700000000000)
	})
	svc := services.NewJobService(services.JobServiceDeps{
		Store:   memory.New(),
		Blobs:   placeholder,
		Events:  services.NewEventPublisher(store.NoopPublisher{}, m),
		Engine:  lifecycle.New(lifecycle.Policy{OutputFallback: true}),
		Metrics: m,
		Upload:  services.UploadPolicy{MaxSizeBytes: 64, AllowedExtensions: services.DefaultAllowedExtensions},
	})
	return &testServer{router: NewRouter(NewAPIHandler(svc, health), m), svc: svc}
}

func (s *testServer) do(t *testing.T, method, path string, body []byte, contentType string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

func multipartBody(t *testing.T, fileName string, content []byte, fields map[string]string) ([]byte, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if fileName != "" {
		part, err := w.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	return buf.Bytes(), w.FormDataContentType()
}

func errorOf(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	e, ok := body["error"].(map[string]any)
	require.True(t, ok, "missing error envelope: %v", body)
	return e
}

func TestUploadAndLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t, nil)

	body, ct := multipartBody(t, "clip.mp4", []byte("video"), map[string]string{"targetLang": "es", "options": `{"voice":"female"}`})
	rec, resp := s.do(t, http.MethodPost, "/api/v1/upload", body, ct)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "QUEUED", resp["status"])
	assert.Equal(t, "File uploaded successfully", resp["message"])
	id := resp["jobId"].(string)

	rec, job := s.do(t, http.MethodGet, "/api/v1/job/"+id, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Regexp(t, `^dummy-key-1700000000000_[0-9a-f]{8}_clip\.mp4$`, job["sourceObjectKey"])
	assert.Equal(t, `{"voice":"female"}`, job["optionsJson"])
	assert.Equal(t, "Waiting...", job["estimatedTimeRemaining"])
	assert.NotContains(t, job, "outputObjectKey")

	rec, resp = s.do(t, http.MethodGet, "/api/v1/job/"+id+"/download", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "OUTPUT_NOT_READY", errorOf(t, resp)["code"])

	rec, job = s.do(t, http.MethodPatch, "/api/v1/job/"+id, []byte(`{"progress":10,"activity":"Extracting audio..."}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "PROCESSING", job["status"])
	assert.EqualValues(t, 10, job["progress"])

	rec, job = s.do(t, http.MethodPatch, "/api/v1/job/"+id, []byte(`{"progress":5}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 10, job["progress"])

	rec, resp = s.do(t, http.MethodGet, "/api/v1/jobs", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, resp["items"], 1)

	rec, job = s.do(t, http.MethodPatch, "/api/v1/job/"+id, []byte(`{"status":"COMPLETED","outputObjectKey":"out.mp4"}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "COMPLETED", job["status"])
	assert.EqualValues(t, 100, job["progress"])

	rec, resp = s.do(t, http.MethodGet, "/api/v1/job/"+id+"/download", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://localhost:8080/dummy-download/out.mp4", resp["url"])

	rec, resp = s.do(t, http.MethodPatch, "/api/v1/job/"+id, []byte(`{"status":"FAILED"}`), "application/json")
	assert.Equal(t, http.StatusConflict, rec.Code)
	e := errorOf(t, resp)
	assert.Equal(t, models.KindInvalidTransition, e["kind"])
	assert.Equal(t, map[string]any{"from": "COMPLETED", "to": "FAILED"}, e["details"])

	rec, resp = s.do(t, http.MethodGet, "/api/v1/jobs?status=completed", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, resp["items"], 1)

	rec, resp = s.do(t, http.MethodGet, "/api/v1/jobs", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, resp["items"], 0)
}

func TestUploadRejections(t *testing.T) {
	s := newTestServer(t, nil)

	cases := []struct {
		name     string
		file     string
		content  []byte
		fields   map[string]string
		status   int
		code     string
		detailed bool
	}{
		{"missing file", "", nil, map[string]string{"targetLang": "es"}, http.StatusBadRequest, "FILE_EMPTY", false},
		{"empty file", "a.mp4", []byte{}, map[string]string{"targetLang": "es"}, http.StatusBadRequest, "FILE_EMPTY", false},
		{"bad type", "a.txt", []byte("x"), map[string]string{"targetLang": "es"}, http.StatusBadRequest, "INVALID_FILE_TYPE", false},
		{"too large", "a.mp4", bytes.Repeat([]byte("x"), 65), map[string]string{"targetLang": "es"}, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", true},
		{"no language", "a.mp4", []byte("x"), nil, http.StatusBadRequest, "MISSING_TARGET_LANGUAGE", false},
		{"bad options", "a.mp4", []byte("x"), map[string]string{"targetLang": "es", "options": "nope"}, http.StatusBadRequest, "INVALID_OPTIONS", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body, ct := multipartBody(t, tc.file, tc.content, tc.fields)
			rec, resp := s.do(t, http.MethodPost, "/api/v1/upload", body, ct)
			assert.Equal(t, tc.status, rec.Code)
			e := errorOf(t, resp)
			assert.Equal(t, tc.code, e["code"])
			assert.Equal(t, models.KindValidation, e["kind"])
			if tc.detailed {
				assert.Contains(t, e, "details")
			}
		})
	}

	all, err := s.svc.ListByStatus(context.Background(), models.AllStatuses)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestJobErrors(t *testing.T) {
	s := newTestServer(t, nil)

	rec, resp := s.do(t, http.MethodGet, "/api/v1/job/does-not-exist", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "JOB_NOT_FOUND", errorOf(t, resp)["code"])

	rec, resp = s.do(t, http.MethodPatch, "/api/v1/job/does-not-exist", []byte(`{"progress":1}`), "application/json")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, models.KindNotFound, errorOf(t, resp)["kind"])

	job, err := s.svc.Create(context.Background(), models.JobDraft{SourceObjectKey: "in.mp4", TargetLanguage: "es"})
	require.NoError(t, err)

	rec, resp = s.do(t, http.MethodPatch, "/api/v1/job/"+job.ID.String(), []byte(`{"progress":`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_REQUEST", errorOf(t, resp)["code"])

	rec, resp = s.do(t, http.MethodPatch, "/api/v1/job/"+job.ID.String(), []byte(`{"status":"DANCING"}`), "application/json")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, resp = s.do(t, http.MethodPatch, "/api/v1/job/"+job.ID.String(), []byte(`{"progress":-3}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_PROGRESS", errorOf(t, resp)["code"])

	rec, resp = s.do(t, http.MethodGet, "/api/v1/jobs?status=QUEUED,BOGUS", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_STATUS", errorOf(t, resp)["code"])
}

func TestHealthAndMetrics(t *testing.T) {
	healthy := newTestServer(t, func(context.Context) map[string]error {
		return map[string]error{"database": nil}
	})
	rec, resp := healthy.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", resp["status"])

	sick := newTestServer(t, func(context.Context) map[string]error {
		return map[string]error{"database": nil, "redis": errors.New("dial tcp: refused")}
	})
	rec, resp = sick.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "degraded", resp["status"])
	assert.Equal(t, map[string]any{"database": "ok", "redis": "dial tcp: refused"}, resp["checks"])

	rec, _ = sick.do(t, http.MethodGet, "/metrics", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `dubber_http_requests_total{code="503",method="GET",route="/health"} 1`)
}

func TestWriteError_Internal(t *testing.T) {
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	WriteError(c, errors.New("pq: connection reset"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	e := errorOf(t, resp)
	assert.Equal(t, "INTERNAL", e["kind"])
	assert.Equal(t, "internal error", e["message"])
}
