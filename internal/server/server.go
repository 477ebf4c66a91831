package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/platefeed/backend/config"
	"github.com/platefeed/backend/internal/api"
	"github.com/platefeed/backend/internal/middleware"
	"github.com/platefeed/backend/internal/service"
)

// Server wires the services and HTTP handlers into a gin router.
type Server struct {
	router *gin.Engine
	http   *http.Server
	cfg    *config.Config
}

// NewServer builds the full service graph and registers all routes.
func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	router := gin.Default()
	router.Use(middleware.CORS())

	authService := service.NewAuthService(db, redisClient, cfg.JWTSecret)
	recipeService := service.NewRecipeService(db)
	favoriteService := service.NewFavoriteService(db)
	cartService := service.NewCartService(db)
	followService := service.NewFollowService(db)
	userService := service.NewUserService(db)
	catalogService := service.NewCatalogService(db)

	storage, err := newImageStorage(cfg)
	if err != nil {
		return nil, err
	}
	imageService := service.NewImageService(storage)

	views := api.NewViewBuilder(recipeService, favoriteService, cartService, followService, userService)

	writeLimiter := middleware.NewRecipeWriteRateLimiter(redisClient)

	authHandler := api.NewAuthHandler(authService)
	catalogHandler := api.NewCatalogHandler(catalogService)
	recipeHandler := api.NewRecipeHandler(recipeService, favoriteService, cartService, imageService, authService, writeLimiter, views, cfg.BaseURL)
	userHandler := api.NewUserHandler(userService, followService, imageService, authService, views)

	apiGroup := router.Group("/api")
	apiGroup.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	authHandler.RegisterRoutes(apiGroup)
	catalogHandler.RegisterRoutes(apiGroup)
	recipeHandler.RegisterRoutes(apiGroup)
	userHandler.RegisterRoutes(apiGroup)

	recipeHandler.RegisterShortLinkRoute(router)

	if cfg.StorageBackend == "local" {
		router.Static(cfg.MediaBaseURL, cfg.MediaDir)
	}

	return &Server{router: router, cfg: cfg}, nil
}

func newImageStorage(cfg *config.Config) (service.ImageStorage, error) {
	switch cfg.StorageBackend {
	case "s3":
		s3cfg, err := config.NewS3Config(context.Background())
		if err != nil {
			return nil, fmt.Errorf("failed to configure S3 storage: %w", err)
		}
		return service.NewS3ImageStorage(s3cfg), nil
	default:
		return service.NewLocalImageStorage(cfg.MediaDir, cfg.MediaBaseURL), nil
	}
}

// Router exposes the underlying gin engine, mainly for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start begins serving and blocks until the listener fails or is shut down.
func (s *Server) Start() error {
	s.http = &http.Server{
		Addr:    s.cfg.ServerHost + ":" + s.cfg.ServerPort,
		Handler: s.router,
	}
	log.Printf("[server] listening on %s", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if s.http != nil {
		return s.http.Shutdown(ctx)
	}
	return nil
}
