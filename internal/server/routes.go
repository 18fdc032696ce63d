package server

import (
	"log/slog"
	"net/http"
)

// Config contains server configuration options.
type Config struct {
	// AllowedOrigins is the list of allowed CORS origins.
	AllowedOrigins []string
	// AuthSecret signs and verifies access tokens.
	AuthSecret string
	// FilesDir, when set, is served read-only under /files/ so locally
	// stored artifacts are reachable at their returned URLs.
	FilesDir string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		AllowedOrigins: []string{"*"},
	}
}

// NewRouter creates a new HTTP router with all routes configured.
// It uses Go 1.22+ ServeMux with method-based routing. Every operation is
// multiplexed under the /rpc/ namespace; getVideoInfo is the only public
// method, everything else goes through the auth middleware.
func NewRouter(h *Handlers, logger *slog.Logger, cfg Config) http.Handler {
	mux := http.NewServeMux()
	auth := AuthMiddleware(cfg.AuthSecret)

	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("POST /rpc/getVideoInfo", h.GetVideoInfo)

	protected := map[string]http.HandlerFunc{
		"removeBackground": h.RemoveBackground,
		"applyEffect":      h.ApplyEffect,
		"createGIF":        h.CreateGIF,
		"exportVideo":      h.ExportVideo,
		"createAnimation":  h.CreateAnimation,
		"addWatermark":     h.AddWatermark,
		"createProject":    h.CreateProject,
		"listProjects":     h.ListProjects,
		"deleteProject":    h.DeleteProject,
		"saveProject":      h.SaveProject,
		"loadProject":      h.LoadProject,
	}
	for method, handler := range protected {
		mux.Handle("POST /rpc/"+method, auth(handler))
	}

	if cfg.FilesDir != "" {
		mux.Handle("GET /files/", http.StripPrefix("/files/", http.FileServer(http.Dir(cfg.FilesDir))))
	}

	// Apply middleware chain
	chain := ChainMiddleware(
		RecoveryMiddleware(logger),
		RequestIDMiddleware,
		LoggingMiddleware(logger),
		CORSMiddleware(cfg.AllowedOrigins),
	)

	return chain(mux)
}
