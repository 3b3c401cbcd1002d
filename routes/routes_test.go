package routes

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quill/database"
	"quill/handlers"
	"quill/middleware"
	"quill/posts"
	"quill/uploads"
)

func newTestRouter(t *testing.T, limiter *middleware.IPRateLimiter) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	client, engine, err := database.OpenMemory(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { engine.Close() })

	db := client.Database("quill-routes-test")
	require.NoError(t, database.EnsureIndexes(ctx, db))

	postStore := database.NewPostStore(db)
	categoryStore := database.NewCategoryStore(db)
	userStore := database.NewUserStore(db)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := posts.NewService(postStore, categoryStore, userStore, 10, 100)
	auth := middleware.NewAuthenticator("secret", time.Hour, userStore, logger)
	uploadDir := t.TempDir()

	return SetupRouter(Deps{
		Posts:          handlers.NewPostHandler(service, uploads.NewDisk(uploadDir), logger, time.Second, 1<<20),
		Categories:     handlers.NewCategoryHandler(service, logger, time.Second),
		Accounts:       handlers.NewAuthHandler(userStore, auth, logger, time.Second),
		Auth:           auth,
		Limiter:        limiter,
		Log:            logger,
		AllowedOrigins: []string{"http://localhost:3000"},
		UploadDir:      uploadDir,
	})
}

func serve(router *gin.Engine, method, path string, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t, nil)

	for _, path := range []string{"/health", "/api/health"} {
		rec := serve(router, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	}
}

func TestRoutesDispatch(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := serve(router, http.MethodGet, "/api/posts", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	// search must not be taken for a post id
	rec = serve(router, http.MethodGet, "/api/posts/search?q=x", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = serve(router, http.MethodGet, "/api/categories", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(router, http.MethodPost, "/api/posts", `{"title":"x"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(router, http.MethodPost, "/api/categories", `{"name":"x"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(router, http.MethodGet, "/api/auth/me", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestNoRoute(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := serve(router, http.MethodGet, "/api/unknown", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Endpoint not found")

	rec = serve(router, http.MethodGet, "/elsewhere", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/posts", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestWritesAreRateLimited(t *testing.T) {
	router := newTestRouter(t, middleware.NewIPRateLimiter(2, time.Minute))

	for i := 0; i < 2; i++ {
		rec := serve(router, http.MethodPost, "/api/auth/login", `{"email":"a@example.com","password":"secret"}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	rec := serve(router, http.MethodPost, "/api/auth/login", `{"email":"a@example.com","password":"secret"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// reads are not limited
	rec = serve(router, http.MethodGet, "/api/posts", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
