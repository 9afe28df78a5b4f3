package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	ginModeOnce sync.Once
)

func setupGinTestMode() {
	ginModeOnce.Do(func() {
		gin.SetMode(gin.TestMode)
	})
}

func TestCORSMiddleware(t *testing.T) {
	setupGinTestMode()
	t.Parallel()

	patterns := []string{"envo.blog", "*.envo.blog"}
	tests := []struct {
		name           string
		method         string
		origin         string
		expectedStatus int
		expectedCORS   bool
	}{
		{"No origin header - should pass through", "GET", "", http.StatusOK, false},
		{"Main domain", "GET", "https://envo.blog", http.StatusOK, true},
		{"Subdomain", "POST", "https://admin.envo.blog", http.StatusOK, true},
		{"Multiple level subdomain", "GET", "https://a.b.envo.blog", http.StatusOK, true},
		{"Case insensitive domain matching", "GET", "https://Admin.ENVO.blog", http.StatusOK, true},
		{"Origin with port number", "GET", "http://envo.blog:8080", http.StatusOK, true},
		{"Valid origin - OPTIONS preflight", "OPTIONS", "https://envo.blog", http.StatusNoContent, true},
		{"Invalid origin - OPTIONS preflight", "OPTIONS", "https://evil.com", http.StatusForbidden, false},
		{"Invalid origin - GET request", "GET", "https://evil.com", http.StatusOK, false},
		{"Suffix of a different domain", "GET", "https://envo.blog.evil.com", http.StatusOK, false},
		{"Domain that contains envo.blog but is not subdomain", "GET", "https://notenvo.blog", http.StatusOK, false},
		{"Malformed URL", "GET", "not-a-valid-url", http.StatusOK, false},
		{"Origin header with only spaces", "GET", "   ", http.StatusOK, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			router := gin.New()
			router.Use(newCORSMiddleware(patterns))
			router.Any("/test", func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"message": "success"})
			})

			req := httptest.NewRequest(tt.method, "/test", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code, "Status code mismatch")
			if tt.expectedCORS {
				assert.Equal(t, tt.origin, w.Header().Get("Access-Control-Allow-Origin"))
				assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
				assert.Equal(t, "Origin", w.Header().Get("Vary"))
			} else {
				assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
				assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
			}
		})
	}
}

func TestOriginAllowedWildcard(t *testing.T) {
	require.True(t, originAllowed("https://anything.example", []string{"*"}))
	require.False(t, originAllowed("https://anything.example", nil))
	require.False(t, originAllowed("https://anything.example", []string{""}))
}

func TestNewStatusHandler(t *testing.T) {
	setupGinTestMode()
	t.Parallel()

	handler := newStatusHandler()
	router := gin.New()
	router.GET("/status", handler)
	router.HEAD("/status", handler)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", strings.TrimSpace(w.Body.String()))
	assert.Equal(t, "GET, HEAD, OPTIONS", w.Header().Get("Allow"))

	req = httptest.NewRequest(http.MethodHead, "/status", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
}

type pingRouter struct{}

func (pingRouter) RegisterRoutes(r gin.IRouter) {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"pong": true})
	})
}

func newFrontend(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>envo</html>"), 0o600))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "assets"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "assets", "app.js"), []byte("console.log(1)"), 0o600))
	return dir
}

func serve(engine http.Handler, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func TestEngineWithFrontend(t *testing.T) {
	setupGinTestMode()

	engine, err := NewEngine(Options{FrontendDir: newFrontend(t)}, pingRouter{})
	require.NoError(t, err)

	require.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/health").Code)
	require.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/api/ping").Code)

	for _, page := range []string{"/", "/blog/p1", "/categories/Sustainable%20Living", "/admin/login", "/admin/dashboard"} {
		w := serve(engine, http.MethodGet, page)
		require.Equal(t, http.StatusOK, w.Code, page)
		require.Equal(t, "<html>envo</html>", w.Body.String(), page)
	}

	w := serve(engine, http.MethodGet, "/assets/app.js")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "console.log(1)", w.Body.String())

	require.Equal(t, http.StatusNotFound, serve(engine, http.MethodGet, "/assets/missing.js").Code)

	w = serve(engine, http.MethodGet, "/no/such/page")
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "<html>envo</html>", w.Body.String())

	w = serve(engine, http.MethodGet, "/api/nope")
	require.Equal(t, http.StatusNotFound, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "resource not found", body["error"])
}

func TestEngineWithoutFrontend(t *testing.T) {
	setupGinTestMode()

	engine, err := NewEngine(Options{FrontendDir: t.TempDir()}, pingRouter{})
	require.NoError(t, err)

	require.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/api/ping").Code)
	w := serve(engine, http.MethodGet, "/blog/p1")
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Contains(t, w.Body.String(), "resource not found")
}

func TestEngineMountsGraphQL(t *testing.T) {
	setupGinTestMode()

	gql := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{}}`))
	})
	engine, err := NewEngine(Options{FrontendDir: t.TempDir(), GraphQL: gql}, pingRouter{})
	require.NoError(t, err)

	w := serve(engine, http.MethodPost, "/query")
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"data":{}}`, w.Body.String())
	require.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/ui/").Code)

	engine, err = NewEngine(Options{FrontendDir: t.TempDir()}, pingRouter{})
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, serve(engine, http.MethodPost, "/query").Code)
}
