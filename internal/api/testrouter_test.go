package api

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/platefeed/backend/internal/middleware"
	"github.com/platefeed/backend/internal/service"
	"github.com/platefeed/backend/internal/testhelpers"
)

const testBaseURL = "http://localhost:8080"

type testEnv struct {
	router *gin.Engine
	db     *gorm.DB
	auth   *service.AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testhelpers.NewTestDB(t)
	auth := testhelpers.NewTestAuthService(db)

	recipes := service.NewRecipeService(db)
	favorites := service.NewFavoriteService(db)
	carts := service.NewCartService(db)
	follows := service.NewFollowService(db)
	users := service.NewUserService(db)
	catalog := service.NewCatalogService(db)
	images := service.NewImageService(service.NewLocalImageStorage(t.TempDir(), "/media"))
	limiter := middleware.NewRecipeWriteRateLimiter(nil)

	views := NewViewBuilder(recipes, favorites, carts, follows, users)

	router := gin.New()
	apiGroup := router.Group("/api")
	NewAuthHandler(auth).RegisterRoutes(apiGroup)
	NewCatalogHandler(catalog).RegisterRoutes(apiGroup)
	recipeHandler := NewRecipeHandler(recipes, favorites, carts, images, auth, limiter, views, testBaseURL)
	recipeHandler.RegisterRoutes(apiGroup)
	recipeHandler.RegisterShortLinkRoute(router)
	NewUserHandler(users, follows, images, auth, views).RegisterRoutes(apiGroup)

	return &testEnv{router: router, db: db, auth: auth}
}

// do performs a request against the test router. A non-empty token is sent
// as a bearer token; a non-nil body is JSON encoded.
func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}

func requireStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	require.Equal(t, want, w.Code, "unexpected status, body: %s", w.Body.String())
}
