package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kirillkom/deck-pipeline/internal/core/domain"
	"github.com/kirillkom/deck-pipeline/internal/core/ports"
	"github.com/kirillkom/deck-pipeline/internal/observability/metrics"
)

const (
	defaultMaxUploadBytes = 32 << 20
	pptxContentType       = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
)

// RunEnqueuer hands a run to the worker pool instead of running it in the request.
type RunEnqueuer interface {
	PublishRunRequested(ctx context.Context, req domain.RunRequest) error
}

type RouterDeps struct {
	Runner    ports.PipelineRunner
	Uploader  ports.DocumentUploader
	Artifacts ports.ArtifactRetriever
	// Runs and Enqueuer are optional; their endpoints answer 501 when unset.
	Runs     ports.RunReader
	Enqueuer RunEnqueuer
	Metrics  *metrics.HTTPServerMetrics
	Logger   *slog.Logger
	Service  string

	MaxUploadBytes int64
}

type Router struct {
	deps RouterDeps
}

func NewRouter(deps RouterDeps) *Router {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Service == "" {
		deps.Service = "api"
	}
	if deps.MaxUploadBytes <= 0 {
		deps.MaxUploadBytes = defaultMaxUploadBytes
	}
	return &Router{deps: deps}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	mux.HandleFunc("POST /v1/projects/{project}/documents", rt.uploadDocument)
	mux.HandleFunc("POST /v1/projects/{project}/runs", rt.startRun)
	mux.HandleFunc("GET /v1/projects/{project}/runs/latest", rt.latestRun)
	mux.HandleFunc("GET /v1/projects/{project}/artifact", rt.downloadArtifact)

	var handler http.Handler = mux
	if rt.deps.Metrics != nil {
		mux.Handle("GET /metrics", rt.deps.Metrics.Handler())
		handler = rt.deps.Metrics.Middleware(rt.deps.Service, handler)
	}
	handler = recoverMiddleware(rt.deps.Logger, handler)
	return requestIDMiddleware(accessLogMiddleware(rt.deps.Logger, handler))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("project")
	r.Body = http.MaxBytesReader(w, r.Body, rt.deps.MaxUploadBytes)

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, http.StatusRequestEntityTooLarge, "document exceeds upload limit")
			return
		}
		writeError(w, r, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	path, err := rt.deps.Uploader.Upload(r.Context(), projectID, fileHeader.Filename, file)
	if err != nil {
		writeError(w, r, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	if rt.deps.Metrics != nil {
		rt.deps.Metrics.RecordUpload(rt.deps.Service, fileHeader.Size)
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"project":  projectID,
		"document": filepath.Base(path),
	})
}

type runRequestBody struct {
	Sector    string `json:"sector"`
	Territory string `json:"territory"`
	Audience  string `json:"audience"`
	Question  string `json:"question"`
}

// startRun runs the pipeline synchronously, or enqueues it when ?async=true. A fatal run still
// answers 200: the error report is its artifact and the body carries the status.
func (rt *Router) startRun(w http.ResponseWriter, r *http.Request) {
	var body runRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, r, http.StatusBadRequest, "invalid json")
		return
	}
	req := domain.RunRequest{
		ProjectID: r.PathValue("project"),
		Sector:    body.Sector,
		Territory: body.Territory,
		Audience:  body.Audience,
		Question:  body.Question,
	}

	async, _ := strconv.ParseBool(r.URL.Query().Get("async"))
	if async {
		if rt.deps.Enqueuer == nil {
			writeError(w, r, http.StatusNotImplemented, "run queue is not configured")
			return
		}
		if err := validateQueuedRun(req); err != nil {
			writeError(w, r, mapErrorToHTTPStatus(err), err.Error())
			return
		}
		if err := rt.deps.Enqueuer.PublishRunRequested(r.Context(), req); err != nil {
			writeError(w, r, mapErrorToHTTPStatus(err), err.Error())
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"project": req.ProjectID, "status": "queued"})
		return
	}

	run, err := rt.deps.Runner.Run(r.Context(), req)
	if err != nil {
		writeError(w, r, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// validateQueuedRun rejects what the worker would reject, before the request is queued. An
// empty audience is filled in by the worker.
func validateQueuedRun(req domain.RunRequest) error {
	if err := domain.ValidateProjectID(req.ProjectID); err != nil {
		return err
	}
	if audience := strings.TrimSpace(req.Audience); audience != "" {
		return domain.ValidateAudience(audience)
	}
	return nil
}

func (rt *Router) latestRun(w http.ResponseWriter, r *http.Request) {
	if rt.deps.Runs == nil {
		writeError(w, r, http.StatusNotImplemented, "run ledger is not configured")
		return
	}
	run, err := rt.deps.Runs.Latest(r.Context(), r.PathValue("project"))
	if err != nil {
		writeError(w, r, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// downloadArtifact streams the artifact. Retrieval schedules the project purge, so the file is
// opened right away while it is guaranteed to exist.
func (rt *Router) downloadArtifact(w http.ResponseWriter, r *http.Request) {
	path, _, err := rt.deps.Artifacts.Retrieve(r.Context(), r.PathValue("project"))
	if err != nil {
		writeError(w, r, mapErrorToHTTPStatus(err), err.Error())
		return
	}
	f, err := os.Open(path)
	if err != nil {
		writeError(w, r, http.StatusGone, "artifact is no longer available")
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, fmt.Sprintf("stat artifact: %v", err))
		return
	}

	name := filepath.Base(path)
	kind := strings.TrimPrefix(filepath.Ext(name), ".")
	contentType := "text/plain; charset=utf-8"
	if kind == "pptx" {
		contentType = pptxContentType
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	if rt.deps.Metrics != nil {
		rt.deps.Metrics.RecordArtifactServed(rt.deps.Service, kind)
	}
	http.ServeContent(w, r, name, info.ModTime(), f)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error":      message,
		"request_id": requestIDFromContext(r.Context()),
	})
}
