package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kirillkom/deck-pipeline/internal/core/domain"
	"github.com/kirillkom/deck-pipeline/internal/core/ports"
	"github.com/kirillkom/deck-pipeline/internal/observability/metrics"
)

type runnerFake struct {
	got domain.RunRequest
	run *domain.PipelineRun
	err error
}

func (f *runnerFake) Run(_ context.Context, req domain.RunRequest) (*domain.PipelineRun, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return f.run, nil
}

func (f *runnerFake) RunStage(context.Context, domain.StageName, domain.RunRequest) (domain.StageResult, error) {
	return domain.StageResult{}, nil
}

type uploaderFake struct {
	body string
	err  error
}

func (f *uploaderFake) Upload(_ context.Context, projectID, filename string, body io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	raw, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	f.body = string(raw)
	return filepath.Join("/projects", projectID, "raw_docs", filename), nil
}

type handleFake struct{}

func (handleFake) Done() <-chan struct{} { return make(chan struct{}) }
func (handleFake) Err() error { return nil }
func (handleFake) Cancel() bool { return true }

type artifactsFake struct {
	path string
	err  error
}

func (f artifactsFake) Retrieve(context.Context, string) (string, ports.PurgeHandle, error) {
	if f.err != nil {
		return "", nil, f.err
	}
	return f.path, handleFake{}, nil
}

type runsFake struct {
	run *domain.PipelineRun
	err error
}

func (f runsFake) Latest(context.Context, string) (*domain.PipelineRun, error) {
	return f.run, f.err
}

type enqueuerFake struct {
	got []domain.RunRequest
}

func (f *enqueuerFake) PublishRunRequested(_ context.Context, req domain.RunRequest) error {
	f.got = append(f.got, req)
	return nil
}

func newTestRouter(deps RouterDeps) http.Handler {
	if deps.Runner == nil {
		deps.Runner = &runnerFake{run: &domain.PipelineRun{ID: "run-1", Status: domain.RunSucceeded}}
	}
	if deps.Uploader == nil {
		deps.Uploader = &uploaderFake{}
	}
	if deps.Artifacts == nil {
		deps.Artifacts = artifactsFake{err: domain.WrapError(domain.ErrArtifactNotFound, "retrieve", errors.New("none"))}
	}
	deps.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRouter(deps).Handler()
}

func TestHealthzEndpoint(t *testing.T) {
	res := httptest.NewRecorder()
	newTestRouter(RouterDeps{}).ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if res.Header().Get(requestIDHeader) == "" {
		t.Fatal("expected generated request id header")
	}
}

func multipartBody(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("CreateFormFile() error = %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	return &body, writer.FormDataContentType()
}

func TestUploadDocumentSuccess(t *testing.T) {
	uploader := &uploaderFake{}
	handler := newTestRouter(RouterDeps{Uploader: uploader})

	body, contentType := multipartBody(t, "file", "memo.md", "# Memo")
	req := httptest.NewRequest(http.MethodPost, "/v1/projects/acme/documents", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", res.Code, res.Body.String())
	}
	var resp map[string]string
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["document"] != "memo.md" || resp["project"] != "acme" || uploader.body != "# Memo" {
		t.Fatalf("unexpected response %+v body=%q", resp, uploader.body)
	}
}

func TestUploadDocumentMissingMultipartField(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/v1/projects/acme/documents", bytes.NewBufferString("plain-text"))
	req.Header.Set("Content-Type", "text/plain")
	res := httptest.NewRecorder()
	newTestRouter(RouterDeps{}).ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestUploadDocumentMapsInvalidProjectTo400(t *testing.T) {
	uploader := &uploaderFake{err: domain.WrapError(domain.ErrInvalidInput, "upload", errors.New("bad project id"))}
	body, contentType := multipartBody(t, "file", "memo.md", "x")
	req := httptest.NewRequest(http.MethodPost, "/v1/projects/-bad/documents", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	newTestRouter(RouterDeps{Uploader: uploader}).ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestStartRunSynchronous(t *testing.T) {
	runner := &runnerFake{run: &domain.PipelineRun{ID: "run-7", Status: domain.RunFatal}}
	payload := `{"sector":"Solar","territory":"Kenya","audience":"board"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/projects/acme/runs", strings.NewReader(payload))
	res := httptest.NewRecorder()
	newTestRouter(RouterDeps{Runner: runner}).ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if runner.got.ProjectID != "acme" || runner.got.Sector != "Solar" || runner.got.Audience != "board" {
		t.Fatalf("unexpected run request: %+v", runner.got)
	}
	var run domain.PipelineRun
	if err := json.NewDecoder(res.Body).Decode(&run); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if run.ID != "run-7" || run.Status != domain.RunFatal {
		t.Fatalf("unexpected run: %+v", run)
	}
}

func TestStartRunRejectsInvalidJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/v1/projects/acme/runs", strings.NewReader("{"))
	res := httptest.NewRecorder()
	newTestRouter(RouterDeps{}).ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestStartRunAsync(t *testing.T) {
	enqueuer := &enqueuerFake{}
	req := httptest.NewRequest(http.MethodPost, "/v1/projects/acme/runs?async=true", strings.NewReader(`{"sector":"Agri"}`))
	res := httptest.NewRecorder()
	newTestRouter(RouterDeps{Enqueuer: enqueuer}).ServeHTTP(res, req)

	if res.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", res.Code)
	}
	if len(enqueuer.got) != 1 || enqueuer.got[0].Sector != "Agri" {
		t.Fatalf("unexpected enqueued requests: %+v", enqueuer.got)
	}

	res = httptest.NewRecorder()
	newTestRouter(RouterDeps{}).ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/v1/projects/acme/runs?async=1", nil))
	if res.Code != http.StatusNotImplemented {
		t.Fatalf("expected 501 without queue, got %d", res.Code)
	}
}

func TestStartRunAsyncRejectsTraversalAudience(t *testing.T) {
	enqueuer := &enqueuerFake{}
	body := strings.NewReader(`{"sector":"Agri","audience":"../../../../escaped/deck"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/projects/acme/runs?async=true", body)
	res := httptest.NewRecorder()
	newTestRouter(RouterDeps{Enqueuer: enqueuer}).ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	if len(enqueuer.got) != 0 {
		t.Fatalf("request must not be queued: %+v", enqueuer.got)
	}
}

func TestLatestRun(t *testing.T) {
	res := httptest.NewRecorder()
	newTestRouter(RouterDeps{}).ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/v1/projects/acme/runs/latest", nil))
	if res.Code != http.StatusNotImplemented {
		t.Fatalf("expected 501 without ledger, got %d", res.Code)
	}

	missing := runsFake{err: domain.WrapError(domain.ErrRunNotFound, "latest run", errors.New("acme"))}
	res = httptest.NewRecorder()
	newTestRouter(RouterDeps{Runs: missing}).ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/v1/projects/acme/runs/latest", nil))
	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}

	found := runsFake{run: &domain.PipelineRun{ID: "run-3", ProjectID: "acme"}}
	res = httptest.NewRecorder()
	newTestRouter(RouterDeps{Runs: found}).ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/v1/projects/acme/runs/latest", nil))
	if res.Code != http.StatusOK || !strings.Contains(res.Body.String(), "run-3") {
		t.Fatalf("expected latest run, got %d: %s", res.Code, res.Body.String())
	}
}

func TestDownloadArtifactStreamsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "acme-investors.pptx")
	if err := os.WriteFile(path, []byte("PK-deck"), 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	serverMetrics := metrics.NewHTTPServerMetrics("api")
	handler := newTestRouter(RouterDeps{Artifacts: artifactsFake{path: path}, Metrics: serverMetrics})

	req := httptest.NewRequest(http.MethodGet, "/v1/projects/acme/artifact", nil)
	req.Header.Set(requestIDHeader, "req-42")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if res.Body.String() != "PK-deck" {
		t.Fatalf("unexpected body %q", res.Body.String())
	}
	if res.Header().Get("Content-Type") != pptxContentType {
		t.Fatalf("unexpected content type %q", res.Header().Get("Content-Type"))
	}
	if !strings.Contains(res.Header().Get("Content-Disposition"), "acme-investors.pptx") {
		t.Fatalf("unexpected disposition %q", res.Header().Get("Content-Disposition"))
	}
	if res.Header().Get(requestIDHeader) != "req-42" {
		t.Fatalf("expected request id to be echoed")
	}

	res = httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(res.Body.String(), "deck_http_artifacts_served_total") {
		t.Fatalf("expected artifact metric, got %s", res.Body.String())
	}
}

func TestDownloadArtifactNotFound(t *testing.T) {
	res := httptest.NewRecorder()
	newTestRouter(RouterDeps{}).ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/v1/projects/acme/artifact", nil))

	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
	var resp map[string]string
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["request_id"] == "" {
		t.Fatalf("expected request id in error body: %+v", resp)
	}
}

func TestMapErrorToHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{domain.WrapError(domain.ErrInvalidInput, "op", errors.New("x")), http.StatusBadRequest},
		{domain.WrapError(domain.ErrProjectNotFound, "op", errors.New("x")), http.StatusNotFound},
		{domain.WrapError(domain.ErrTemporary, "op", errors.New("x")), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := mapErrorToHTTPStatus(tc.err); got != tc.want {
			t.Fatalf("mapErrorToHTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
