package web

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
)

const frontendDistEnvKey = "WEB_FRONTEND_DIST_DIR"

type spaHandler struct {
	root   string
	index  []byte
	logger logSDK.Logger
}

// newFrontendSPAHandler loads the frontend build from distDir, or from the
// first default location that exists. It returns nil when there is no build.
func newFrontendSPAHandler(logger logSDK.Logger, distDir string) *spaHandler {
	if distDir == "" {
		distDir = locateFrontendDist(logger)
	}
	if distDir == "" {
		return nil
	}

	indexPath := filepath.Join(distDir, "index.html")
	indexBytes, err := os.ReadFile(indexPath)
	if err != nil {
		logger.Warn("read frontend index", zap.Error(err), zap.String("path", indexPath))
		return nil
	}

	return &spaHandler{
		root:   distDir,
		index:  indexBytes,
		logger: logger,
	}
}

// ServeHTTP serves a static asset, or the index page with 404 for unknown paths.
func (h *spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	requestPath := r.URL.Path
	clean := strings.TrimPrefix(filepath.Clean("/"+requestPath), "/")
	if strings.Contains(requestPath, "..") {
		h.logger.Warn("reject potential path traversal", zap.String("path", requestPath))
		http.NotFound(w, r)
		return
	}

	if clean != "" {
		fsPath := filepath.Join(h.root, clean)
		info, err := os.Stat(fsPath)
		if err == nil && !info.IsDir() {
			http.ServeFile(w, r, fsPath)
			return
		}
	}

	// a missing asset is a plain 404, like standard static hosting
	if strings.Contains(filepath.Base(clean), ".") {
		h.logger.Debug("frontend asset not found", zap.String("path", requestPath))
		http.NotFound(w, r)
		return
	}

	h.serveIndex(w, r, http.StatusNotFound)
}

func (h *spaHandler) serveIndexOK(w http.ResponseWriter, r *http.Request) {
	h.serveIndex(w, r, http.StatusOK)
}

func (h *spaHandler) serveIndex(w http.ResponseWriter, r *http.Request, status int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	w.WriteHeader(status)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := w.Write(h.index); err != nil {
		h.logger.Warn("write frontend index", zap.Error(err))
	}
}

func locateFrontendDist(logger logSDK.Logger) string {
	var candidates []string

	if override := strings.TrimSpace(os.Getenv(frontendDistEnvKey)); override != "" {
		candidates = append(candidates, override)
	}

	if exePath, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exePath)
		candidates = append(candidates,
			filepath.Join(exeDir, "web", "dist"),
			filepath.Join(exeDir, "dist"),
		)
	}

	if wd, err := os.Getwd(); err == nil {
		candidates = append(candidates,
			filepath.Join(wd, "web", "dist"),
		)
	}

	for _, candidate := range candidates {
		info, err := os.Stat(candidate)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				logger.Debug("inspect frontend dist", zap.Error(err), zap.String("path", candidate))
			}
			continue
		}
		if info.IsDir() {
			logger.Info("frontend assets located", zap.String("path", candidate))
			return candidate
		}
	}

	logger.Info("frontend assets not found, serving the api only", zap.String("env", frontendDistEnvKey))
	return ""
}
