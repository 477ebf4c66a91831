package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platefeed/backend/config"
	"github.com/platefeed/backend/internal/testhelpers"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		ServerHost:     "127.0.0.1",
		ServerPort:     "0",
		BaseURL:        "http://localhost:8080",
		JWTSecret:      testhelpers.TestJWTSecret,
		StorageBackend: "local",
		MediaDir:       t.TempDir(),
		MediaBaseURL:   "/media",
	}
	db := testhelpers.NewTestDB(t)

	srv, err := NewServer(cfg, db, nil)
	require.NoError(t, err)
	return srv
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	srv.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestRoutesRegistered(t *testing.T) {
	srv := newTestServer(t)

	// Public routes respond without auth; protected ones demand it.
	cases := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/api/tags", http.StatusOK},
		{http.MethodGet, "/api/ingredients", http.StatusOK},
		{http.MethodGet, "/api/recipes", http.StatusOK},
		{http.MethodGet, "/api/users", http.StatusOK},
		{http.MethodGet, "/api/users/me", http.StatusUnauthorized},
		{http.MethodGet, "/api/users/subscriptions", http.StatusUnauthorized},
		{http.MethodGet, "/api/recipes/download_shopping_cart", http.StatusUnauthorized},
		{http.MethodPost, "/api/recipes", http.StatusUnauthorized},
		{http.MethodGet, "/s/99999", http.StatusNotFound},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(tc.method, tc.path, nil)
		srv.Router().ServeHTTP(w, req)
		assert.Equal(t, tc.want, w.Code, "%s %s", tc.method, tc.path)
	}
}
