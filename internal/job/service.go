// Package job provides the orchestration service that turns a validated
// transformation request into a script invocation, a staged output file,
// an object-store upload and a retrieval URL.
package job

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/clipforge/clipforge-api/internal/runner"
	"github.com/clipforge/clipforge-api/internal/storage"
	"github.com/clipforge/clipforge-api/internal/workspace"
)

// Script names for each operation.
const (
	scriptVideoInfo        = "get_video_info.py"
	scriptRemoveBackground = "remove_background.py"
	scriptApplyEffect      = "apply_effect.py"
	scriptCreateGIF        = "create_gif.py"
	scriptExportVideo      = "export_video.py"
	scriptCreateAnimation  = "create_animation.py"
	scriptAddWatermark     = "add_watermark.py"
)

// Service orchestrates transformation jobs. Every mutating operation runs
// the same pipeline in strict order: resolve output path, run the script,
// read the produced file, upload it, delete the staged copy. The staged
// copy is removed best-effort on every exit path.
type Service struct {
	runner runner.Runner
	ws     *workspace.Manager
	store  storage.ObjectStore
	logger *slog.Logger

	// timeout bounds a single script run. Expiry kills the process.
	timeout time.Duration
	// maxPerUser caps concurrent jobs per user identity.
	maxPerUser int

	mu     sync.Mutex
	active map[string]int
}

// Option configures a Service.
type Option func(*Service)

// WithTimeout sets the per-job script execution timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithMaxJobsPerUser sets the per-user concurrent job cap.
func WithMaxJobsPerUser(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxPerUser = n
		}
	}
}

// NewService creates a new Service.
func NewService(r runner.Runner, ws *workspace.Manager, store storage.ObjectStore, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		runner:     r,
		ws:         ws,
		store:      store,
		logger:     logger,
		timeout:    10 * time.Minute,
		maxPerUser: 4,
		active:     make(map[string]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetVideoInfo runs the metadata-extraction script against the given path
// and parses its JSON output. It stages no files and uploads nothing.
func (s *Service) GetVideoInfo(ctx context.Context, filePath string) (*VideoInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	out, err := s.runner.Run(ctx, scriptVideoInfo, []string{filePath})
	if err != nil {
		return nil, err
	}

	var info VideoInfo
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		return nil, fmt.Errorf("parse video info: %w", err)
	}
	return &info, nil
}

// RemoveBackground removes the background from an image and uploads the
// resulting PNG.
func (s *Service) RemoveBackground(ctx context.Context, userID string, in RemoveBackgroundInput) (*Result, error) {
	return s.execute(ctx, userID, jobSpec{
		script:      scriptRemoveBackground,
		category:    "background-removed",
		contentType: "image/png",
		outputName:  in.OutputFileName,
		args: func(outputPath string) []string {
			return []string{in.InputPath, outputPath}
		},
	})
}

// ApplyEffect applies a visual effect to a video and uploads the result.
// The script receives the free-form params as one JSON object argument.
func (s *Service) ApplyEffect(ctx context.Context, userID string, in EffectInput) (*Result, error) {
	params := in.Params
	if params == nil {
		params = map[string]any{}
	}
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("serialize effect params: %w", err)
	}

	return s.execute(ctx, userID, jobSpec{
		script:      scriptApplyEffect,
		category:    "effects",
		contentType: "video/mp4",
		outputName:  in.OutputFileName,
		args: func(outputPath string) []string {
			return []string{in.InputPath, in.EffectType, outputPath, string(paramsJSON)}
		},
	})
}

// CreateGIF converts a video segment into a GIF and uploads it.
func (s *Service) CreateGIF(ctx context.Context, userID string, in GIFInput) (*Result, error) {
	return s.execute(ctx, userID, jobSpec{
		script:      scriptCreateGIF,
		category:    "gifs",
		contentType: "image/gif",
		outputName:  in.OutputFileName,
		args: func(outputPath string) []string {
			args := []string{in.InputPath, outputPath, strconv.Itoa(in.FPS)}
			if in.Duration != nil {
				args = append(args, formatFloat(*in.Duration))
			}
			return args
		},
	})
}

// ExportVideo re-encodes a video into the requested format and uploads it.
func (s *Service) ExportVideo(ctx context.Context, userID string, in ExportInput) (*Result, error) {
	return s.execute(ctx, userID, jobSpec{
		script:      scriptExportVideo,
		category:    "exports",
		contentType: "video/" + in.Format,
		outputName:  in.OutputFileName,
		args: func(outputPath string) []string {
			args := []string{in.InputPath, outputPath, in.Format, in.Quality}
			if in.Width > 0 && in.Height > 0 {
				args = append(args, strconv.Itoa(in.Width), strconv.Itoa(in.Height))
			}
			return args
		},
	})
}

// CreateAnimation animates a still image into a GIF and uploads it.
func (s *Service) CreateAnimation(ctx context.Context, userID string, in AnimationInput) (*Result, error) {
	return s.execute(ctx, userID, jobSpec{
		script:      scriptCreateAnimation,
		category:    "animations",
		contentType: "image/gif",
		outputName:  in.OutputFileName,
		args: func(outputPath string) []string {
			return []string{in.ImagePath, outputPath, in.EffectType, formatFloat(in.Duration), strconv.Itoa(in.FPS)}
		},
	})
}

// AddWatermark overlays a watermark on a video and uploads the result.
func (s *Service) AddWatermark(ctx context.Context, userID string, in WatermarkInput) (*Result, error) {
	return s.execute(ctx, userID, jobSpec{
		script:      scriptAddWatermark,
		category:    "watermarked",
		contentType: "video/mp4",
		outputName:  in.OutputFileName,
		args: func(outputPath string) []string {
			return []string{in.VideoPath, in.WatermarkPath, outputPath, in.Position, formatFloat(in.Opacity)}
		},
	})
}

// jobSpec describes one script invocation within the common pipeline.
type jobSpec struct {
	script      string
	category    string
	contentType string
	outputName  string
	// args builds the positional argument vector given the resolved
	// output path. Order is part of the script contract.
	args func(outputPath string) []string
}

// execute runs the shared pipeline for a mutating operation.
func (s *Service) execute(ctx context.Context, userID string, spec jobSpec) (*Result, error) {
	outputPath, err := s.ws.OutputPath(userID, spec.outputName)
	if err != nil {
		return nil, err
	}

	if err := s.acquire(userID); err != nil {
		return nil, err
	}
	defer s.release(userID)

	// Failed runs may still leave a partial output file behind.
	defer s.cleanup(userID, outputPath)

	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	if _, err := s.runner.Run(runCtx, spec.script, spec.args(outputPath)); err != nil {
		s.logger.Warn("script failed",
			slog.String("script", spec.script),
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	data, err := os.ReadFile(outputPath) // #nosec G304 - path is workspace-resolved
	if err != nil {
		return nil, &FilesystemError{Op: "read", Path: outputPath, Err: err}
	}

	key := "videos/" + spec.category + "/" + userID + "/" + spec.outputName
	url, err := s.store.Put(ctx, key, bytes.NewReader(data), spec.contentType)
	if err != nil {
		return nil, &StorageError{Key: key, Err: err}
	}

	s.logger.Info("job completed",
		slog.String("script", spec.script),
		slog.String("user_id", userID),
		slog.String("key", key),
		slog.Int("bytes", len(data)),
		slog.Duration("duration", time.Since(start)),
	)

	return &Result{URL: url}, nil
}

// cleanup deletes the staged output file. Deletion failures do not change
// the job outcome but are logged rather than swallowed.
func (s *Service) cleanup(userID, outputPath string) {
	if err := s.ws.Remove(outputPath); err != nil {
		s.logger.Warn("staged file cleanup failed",
			slog.String("user_id", userID),
			slog.String("path", outputPath),
			slog.String("error", err.Error()),
		)
	}
}

// acquire reserves a job slot for the user, failing fast with ErrUserBusy
// when the cap is reached.
func (s *Service) acquire(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active[userID] >= s.maxPerUser {
		return fmt.Errorf("%w: %d running", ErrUserBusy, s.active[userID])
	}
	s.active[userID]++
	return nil
}

func (s *Service) release(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active[userID]--
	if s.active[userID] <= 0 {
		delete(s.active, userID)
	}
}

// formatFloat encodes a number the way the scripts expect: the shortest
// decimal form, so 2.0 becomes "2" and 0.7 stays "0.7".
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
