package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/clipforge/clipforge-api/internal/job"
	"github.com/clipforge/clipforge-api/internal/project"
	"github.com/clipforge/clipforge-api/internal/runner"
	"github.com/clipforge/clipforge-api/internal/workspace"
)

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	jobs      *job.Service
	registry  *project.Registry
	projects  project.Store
	validator *validator.Validate
	logger    *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(jobs *job.Service, registry *project.Registry, projects project.Store, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		jobs:      jobs,
		registry:  registry,
		projects:  projects,
		validator: validator.New(),
		logger:    logger,
	}
}

// Health handles GET /health requests.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// GetVideoInfo handles POST /rpc/getVideoInfo. It is the only operation
// that does not require authentication.
func (h *Handlers) GetVideoInfo(w http.ResponseWriter, r *http.Request) {
	var req VideoInfoRequest
	if !h.decode(w, r, &req) {
		return
	}

	info, err := h.jobs.GetVideoInfo(r.Context(), req.FilePath)
	if err != nil {
		h.writeJobError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, info)
}

// RemoveBackground handles POST /rpc/removeBackground.
func (h *Handlers) RemoveBackground(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.identity(w, r)
	if !ok {
		return
	}

	var req RemoveBackgroundRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.jobs.RemoveBackground(r.Context(), userID, job.RemoveBackgroundInput{
		InputPath:      req.InputPath,
		OutputFileName: req.OutputFileName,
	})
	if err != nil {
		h.writeJobError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, JobResponse{Success: true, URL: result.URL})
}

// ApplyEffect handles POST /rpc/applyEffect.
func (h *Handlers) ApplyEffect(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.identity(w, r)
	if !ok {
		return
	}

	var req ApplyEffectRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.jobs.ApplyEffect(r.Context(), userID, job.EffectInput{
		InputPath:      req.InputPath,
		EffectType:     req.EffectType,
		OutputFileName: req.OutputFileName,
		Params:         req.Params,
	})
	if err != nil {
		h.writeJobError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, JobResponse{Success: true, URL: result.URL})
}

// CreateGIF handles POST /rpc/createGIF.
func (h *Handlers) CreateGIF(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.identity(w, r)
	if !ok {
		return
	}

	var req CreateGIFRequest
	if !h.decode(w, r, &req) {
		return
	}

	fps := defaultGIFFPS
	if req.FPS != nil {
		fps = *req.FPS
	}

	result, err := h.jobs.CreateGIF(r.Context(), userID, job.GIFInput{
		InputPath:      req.InputPath,
		OutputFileName: req.OutputFileName,
		FPS:            fps,
		Duration:       req.Duration,
	})
	if err != nil {
		h.writeJobError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, JobResponse{Success: true, URL: result.URL})
}

// ExportVideo handles POST /rpc/exportVideo.
func (h *Handlers) ExportVideo(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.identity(w, r)
	if !ok {
		return
	}

	var req ExportVideoRequest
	if !h.decode(w, r, &req) {
		return
	}

	format := req.Format
	if format == "" {
		format = defaultExportFormat
	}
	quality := req.Quality
	if quality == "" {
		quality = defaultExportQuality
	}

	input := job.ExportInput{
		InputPath:      req.InputPath,
		OutputFileName: req.OutputFileName,
		Format:         format,
		Quality:        quality,
	}
	if req.Width != nil && req.Height != nil {
		input.Width = *req.Width
		input.Height = *req.Height
	}

	result, err := h.jobs.ExportVideo(r.Context(), userID, input)
	if err != nil {
		h.writeJobError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, JobResponse{Success: true, URL: result.URL})
}

// CreateAnimation handles POST /rpc/createAnimation.
func (h *Handlers) CreateAnimation(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.identity(w, r)
	if !ok {
		return
	}

	var req CreateAnimationRequest
	if !h.decode(w, r, &req) {
		return
	}

	effect := req.EffectType
	if effect == "" {
		effect = defaultAnimationEffect
	}
	duration := defaultAnimationDuration
	if req.Duration != nil {
		duration = *req.Duration
	}
	fps := defaultAnimationFPS
	if req.FPS != nil {
		fps = *req.FPS
	}

	result, err := h.jobs.CreateAnimation(r.Context(), userID, job.AnimationInput{
		ImagePath:      req.ImagePath,
		OutputFileName: req.OutputFileName,
		EffectType:     effect,
		Duration:       duration,
		FPS:            fps,
	})
	if err != nil {
		h.writeJobError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, JobResponse{Success: true, URL: result.URL})
}

// AddWatermark handles POST /rpc/addWatermark.
func (h *Handlers) AddWatermark(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.identity(w, r)
	if !ok {
		return
	}

	var req AddWatermarkRequest
	if !h.decode(w, r, &req) {
		return
	}

	position := req.Position
	if position == "" {
		position = defaultWatermarkPosition
	}
	opacity := defaultWatermarkOpacity
	if req.Opacity != nil {
		opacity = *req.Opacity
	}

	result, err := h.jobs.AddWatermark(r.Context(), userID, job.WatermarkInput{
		VideoPath:      req.VideoPath,
		WatermarkPath:  req.WatermarkPath,
		OutputFileName: req.OutputFileName,
		Position:       position,
		Opacity:        opacity,
	})
	if err != nil {
		h.writeJobError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, JobResponse{Success: true, URL: result.URL})
}

// CreateProject handles POST /rpc/createProject.
func (h *Handlers) CreateProject(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.identity(w, r); !ok {
		return
	}

	var req CreateProjectRequest
	if !h.decode(w, r, &req) {
		return
	}

	p, err := h.registry.Create(r.Context(), req.Name, req.Thumbnail)
	if err != nil {
		h.logger.Error("failed to create project", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to create project", "INTERNAL_ERROR")
		return
	}

	writeJSON(w, http.StatusOK, CreateProjectResponse{Success: true, Project: p})
}

// ListProjects handles POST /rpc/listProjects.
func (h *Handlers) ListProjects(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.identity(w, r); !ok {
		return
	}

	projects, err := h.registry.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list projects", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to list projects", "INTERNAL_ERROR")
		return
	}

	writeJSON(w, http.StatusOK, ListProjectsResponse{Success: true, Projects: projects})
}

// DeleteProject handles POST /rpc/deleteProject.
func (h *Handlers) DeleteProject(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.identity(w, r); !ok {
		return
	}

	var req DeleteProjectRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.registry.Delete(r.Context(), req.ID); err != nil {
		if errors.Is(err, project.ErrProjectNotFound) {
			writeError(w, http.StatusNotFound, "project not found", "NOT_FOUND")
			return
		}
		h.logger.Error("failed to delete project", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to delete project", "INTERNAL_ERROR")
		return
	}

	writeJSON(w, http.StatusOK, DeleteProjectResponse{Success: true})
}

// SaveProject handles POST /rpc/saveProject. Persistence is a stub: an
// identifier is handed out but nothing is stored yet.
func (h *Handlers) SaveProject(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.identity(w, r); !ok {
		return
	}

	var req SaveProjectRequest
	if !h.decode(w, r, &req) {
		return
	}

	id, err := h.projects.Save(r.Context(), req.ProjectName, req.ProjectData)
	if err != nil {
		h.logger.Error("failed to save project", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to save project", "INTERNAL_ERROR")
		return
	}

	writeJSON(w, http.StatusOK, SaveProjectResponse{Success: true, ProjectID: id})
}

// LoadProject handles POST /rpc/loadProject. Persistence is a stub: the
// payload is always empty.
func (h *Handlers) LoadProject(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.identity(w, r); !ok {
		return
	}

	var req LoadProjectRequest
	if !h.decode(w, r, &req) {
		return
	}

	data, err := h.projects.Load(r.Context(), req.ProjectID)
	if err != nil {
		h.logger.Error("failed to load project", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to load project", "INTERNAL_ERROR")
		return
	}

	writeJSON(w, http.StatusOK, LoadProjectResponse{Success: true, ProjectData: data})
}

// decode reads and validates a JSON request body. It writes the error
// response itself and reports whether the request may proceed.
func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.logger.Warn("failed to decode request body",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return false
	}

	if err := h.validator.Struct(dst); err != nil {
		h.logger.Warn("request validation failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return false
	}

	return true
}

// identity extracts the authenticated user from the request context. The
// auth middleware already rejected unauthenticated callers; this guards
// against routes wired without it.
func (h *Handlers) identity(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required", "AUTHENTICATION_ERROR")
		return "", false
	}
	return userID, true
}

// writeJobError maps a job pipeline failure to a distinct stable error
// code so clients can tell retryable failures apart from permanent ones.
func (h *Handlers) writeJobError(w http.ResponseWriter, r *http.Request, err error) {
	var procErr *runner.ProcessError
	var storeErr *job.StorageError
	var fsErr *job.FilesystemError

	switch {
	case errors.Is(err, workspace.ErrUnsafeFileName):
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
	case errors.Is(err, job.ErrUserBusy):
		writeError(w, http.StatusTooManyRequests, "too many concurrent jobs", "USER_BUSY")
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "processing timed out", "PROCESS_TIMEOUT")
	case errors.As(err, &procErr):
		writeError(w, http.StatusBadGateway, "processing failed: "+procErr.Stderr, "PROCESS_ERROR")
	case errors.As(err, &storeErr):
		writeError(w, http.StatusBadGateway, "artifact upload failed", "STORAGE_ERROR")
	case errors.As(err, &fsErr):
		writeError(w, http.StatusInternalServerError, "staging failed", "FILESYSTEM_ERROR")
	default:
		h.logger.Error("unexpected job failure",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
