// Package server provides the HTTP server for the clipforge API.
// All operations are multiplexed under a single RPC namespace; each
// method has its own typed request shape so required fields and value
// ranges are enforced per operation.
package server

import "github.com/clipforge/clipforge-api/internal/project"

// Defaults applied to optional request fields before validation.
const (
	defaultGIFFPS            = 10
	defaultExportFormat      = "mp4"
	defaultExportQuality     = "high"
	defaultAnimationEffect   = "zoom"
	defaultAnimationDuration = 2.0
	defaultAnimationFPS      = 30
	defaultWatermarkPosition = "bottom-right"
	defaultWatermarkOpacity  = 0.7
)

// VideoInfoRequest is the request body for the getVideoInfo method.
type VideoInfoRequest struct {
	FilePath string `json:"filePath" validate:"required"`
}

// RemoveBackgroundRequest is the request body for removeBackground.
type RemoveBackgroundRequest struct {
	InputPath      string `json:"inputPath" validate:"required"`
	OutputFileName string `json:"outputFileName" validate:"required"`
}

// ApplyEffectRequest is the request body for applyEffect.
type ApplyEffectRequest struct {
	InputPath      string         `json:"inputPath" validate:"required"`
	EffectType     string         `json:"effectType" validate:"required,oneof=blur grayscale edge brightness rotation flip"`
	OutputFileName string         `json:"outputFileName" validate:"required"`
	Params         map[string]any `json:"params,omitempty"`
}

// CreateGIFRequest is the request body for createGIF.
// Optional numeric fields are pointers so an explicit out-of-range zero is
// rejected instead of being mistaken for "absent".
type CreateGIFRequest struct {
	InputPath      string   `json:"inputPath" validate:"required"`
	OutputFileName string   `json:"outputFileName" validate:"required"`
	FPS            *int     `json:"fps,omitempty" validate:"omitempty,min=5,max=30"`
	Duration       *float64 `json:"duration,omitempty" validate:"omitempty,gt=0"`
}

// ExportVideoRequest is the request body for exportVideo.
type ExportVideoRequest struct {
	InputPath      string  `json:"inputPath" validate:"required"`
	OutputFileName string  `json:"outputFileName" validate:"required"`
	Format         string  `json:"format,omitempty" validate:"omitempty,oneof=mp4 webm avi"`
	Quality        string  `json:"quality,omitempty" validate:"omitempty,oneof=low medium high"`
	Width          *int    `json:"width,omitempty" validate:"omitempty,min=1,max=7680"`
	Height         *int    `json:"height,omitempty" validate:"omitempty,min=1,max=4320"`
}

// CreateAnimationRequest is the request body for createAnimation.
type CreateAnimationRequest struct {
	ImagePath      string   `json:"imagePath" validate:"required"`
	OutputFileName string   `json:"outputFileName" validate:"required"`
	EffectType     string   `json:"effectType,omitempty" validate:"omitempty,oneof=zoom fade rotate"`
	Duration       *float64 `json:"duration,omitempty" validate:"omitempty,gt=0"`
	FPS            *int     `json:"fps,omitempty" validate:"omitempty,min=1,max=60"`
}

// AddWatermarkRequest is the request body for addWatermark.
type AddWatermarkRequest struct {
	VideoPath      string   `json:"videoPath" validate:"required"`
	WatermarkPath  string   `json:"watermarkPath" validate:"required"`
	OutputFileName string   `json:"outputFileName" validate:"required"`
	Position       string   `json:"position,omitempty" validate:"omitempty,oneof=top-left top-right bottom-left bottom-right"`
	Opacity        *float64 `json:"opacity,omitempty" validate:"omitempty,gte=0,lte=1"`
}

// CreateProjectRequest is the request body for createProject.
type CreateProjectRequest struct {
	Name      string `json:"name" validate:"required"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

// DeleteProjectRequest is the request body for deleteProject.
type DeleteProjectRequest struct {
	ID string `json:"id" validate:"required"`
}

// SaveProjectRequest is the request body for saveProject.
type SaveProjectRequest struct {
	ProjectName string         `json:"projectName" validate:"required"`
	ProjectData map[string]any `json:"projectData" validate:"required"`
}

// LoadProjectRequest is the request body for loadProject.
type LoadProjectRequest struct {
	ProjectID string `json:"projectId" validate:"required"`
}

// JobResponse is the response for every mutating transformation method.
type JobResponse struct {
	Success bool   `json:"success"`
	URL     string `json:"url"`
}

// CreateProjectResponse is the response for createProject.
type CreateProjectResponse struct {
	Success bool             `json:"success"`
	Project *project.Project `json:"project"`
}

// ListProjectsResponse is the response for listProjects.
type ListProjectsResponse struct {
	Success  bool               `json:"success"`
	Projects []*project.Project `json:"projects"`
}

// SaveProjectResponse is the response for saveProject.
type SaveProjectResponse struct {
	Success   bool   `json:"success"`
	ProjectID string `json:"projectId"`
}

// LoadProjectResponse is the response for loadProject.
type LoadProjectResponse struct {
	Success     bool           `json:"success"`
	ProjectData map[string]any `json:"projectData"`
}

// DeleteProjectResponse is the response for deleteProject.
type DeleteProjectResponse struct {
	Success bool `json:"success"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the human-readable error message.
	Error string `json:"error"`
	// Code is the error code for programmatic handling.
	Code string `json:"code"`
}

// HealthResponse is the HTTP response for the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
}
