package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/platefeed/backend/internal/middleware"
	"github.com/platefeed/backend/internal/service"
)

type UserHandler struct {
	userService   *service.UserService
	followService *service.FollowService
	imageService  *service.ImageService
	authService   *service.AuthService
	views         *ViewBuilder
}

func NewUserHandler(
	userService *service.UserService,
	followService *service.FollowService,
	imageService *service.ImageService,
	authService *service.AuthService,
	views *ViewBuilder,
) *UserHandler {
	return &UserHandler{
		userService:   userService,
		followService: followService,
		imageService:  imageService,
		authService:   authService,
		views:         views,
	}
}

func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	optional := middleware.OptionalAuthMiddleware(h.authService)
	required := middleware.AuthMiddleware(h.authService)

	users := router.Group("/users")
	{
		users.GET("", optional, h.ListUsers)
		users.GET("/me", required, h.Me)
		users.GET("/subscriptions", required, h.Subscriptions)
		users.GET("/:id", optional, h.GetUser)
		users.PUT("/me/avatar", required, h.UpdateAvatar)
		users.DELETE("/me/avatar", required, h.DeleteAvatar)
		users.POST("/:id/subscribe", required, h.Subscribe)
		users.DELETE("/:id/subscribe", required, h.Unsubscribe)
	}
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.userService.ListUsers(c.Request.Context())
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	viewer := viewerID(c)
	views := make([]AuthorView, 0, len(users))
	for i := range users {
		view, err := h.views.authorView(c.Request.Context(), viewer, &users[i])
		if err != nil {
			abortWithServiceError(c, err)
			return
		}
		views = append(views, view)
	}
	c.JSON(http.StatusOK, gin.H{"users": views})
}

func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	user, err := h.userService.GetUser(c.Request.Context(), id)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	view, err := h.views.authorView(c.Request.Context(), viewerID(c), user)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *UserHandler) Me(c *gin.Context) {
	userID, exists := currentUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	user, err := h.userService.GetUser(c.Request.Context(), userID)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	view, err := h.views.authorView(c.Request.Context(), &userID, user)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

type avatarRequest struct {
	Avatar string `json:"avatar" binding:"required"`
}

func (h *UserHandler) UpdateAvatar(c *gin.Context) {
	userID, exists := currentUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req avatarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	stored, err := h.imageService.StoreDataURI(c.Request.Context(), "avatar", "avatars", req.Avatar)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	if err := h.userService.UpdateAvatar(c.Request.Context(), userID, stored); err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"avatar": stored})
}

func (h *UserHandler) DeleteAvatar(c *gin.Context) {
	userID, exists := currentUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	if err := h.userService.ClearAvatar(c.Request.Context(), userID); err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) Subscribe(c *gin.Context) {
	userID, exists := currentUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}
	authorID, ok := uintParam(c, "id")
	if !ok {
		return
	}

	author, err := h.followService.Follow(c.Request.Context(), userID, authorID)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	view, err := h.views.subscriptionView(c.Request.Context(), &userID, author, recipesLimit(c))
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *UserHandler) Unsubscribe(c *gin.Context) {
	userID, exists := currentUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}
	authorID, ok := uintParam(c, "id")
	if !ok {
		return
	}

	if err := h.followService.Unfollow(c.Request.Context(), userID, authorID); err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) Subscriptions(c *gin.Context) {
	userID, exists := currentUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	authors, err := h.followService.Following(c.Request.Context(), userID)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	limit := recipesLimit(c)
	views := make([]SubscriptionView, 0, len(authors))
	for i := range authors {
		view, err := h.views.subscriptionView(c.Request.Context(), &userID, &authors[i], limit)
		if err != nil {
			abortWithServiceError(c, err)
			return
		}
		views = append(views, view)
	}
	c.JSON(http.StatusOK, gin.H{"subscriptions": views})
}

// recipesLimit reads the optional recipes_limit query parameter; malformed
// values are ignored rather than rejected.
func recipesLimit(c *gin.Context) int {
	v := c.Query("recipes_limit")
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
