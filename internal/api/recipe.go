package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/platefeed/backend/internal/middleware"
	"github.com/platefeed/backend/internal/models"
	"github.com/platefeed/backend/internal/service"
	"github.com/platefeed/backend/internal/types"
)

type RecipeHandler struct {
	recipeService   *service.RecipeService
	favoriteService *service.FavoriteService
	cartService     *service.CartService
	imageService    *service.ImageService
	authService     *service.AuthService
	writeLimiter    *middleware.RateLimiter
	views           *ViewBuilder
	baseURL         string
}

func NewRecipeHandler(
	recipeService *service.RecipeService,
	favoriteService *service.FavoriteService,
	cartService *service.CartService,
	imageService *service.ImageService,
	authService *service.AuthService,
	writeLimiter *middleware.RateLimiter,
	views *ViewBuilder,
	baseURL string,
) *RecipeHandler {
	return &RecipeHandler{
		recipeService:   recipeService,
		favoriteService: favoriteService,
		cartService:     cartService,
		imageService:    imageService,
		authService:     authService,
		writeLimiter:    writeLimiter,
		views:           views,
		baseURL:         strings.TrimRight(baseURL, "/"),
	}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	optional := middleware.OptionalAuthMiddleware(h.authService)
	required := middleware.AuthMiddleware(h.authService)
	limited := h.writeLimiter.Middleware()

	recipes := router.Group("/recipes")
	{
		recipes.GET("", optional, h.ListRecipes)
		recipes.GET("/download_shopping_cart", required, h.DownloadShoppingCart)
		recipes.GET("/:id", optional, h.GetRecipe)
		recipes.GET("/:id/get-link", optional, h.GetLink)
		recipes.POST("", required, limited, h.CreateRecipe)
		recipes.PUT("/:id", required, limited, h.UpdateRecipe)
		recipes.PATCH("/:id", required, limited, h.UpdateRecipe)
		recipes.DELETE("/:id", required, h.DeleteRecipe)
		recipes.POST("/:id/favorite", required, h.AddFavorite)
		recipes.DELETE("/:id/favorite", required, h.RemoveFavorite)
		recipes.POST("/:id/shopping_cart", required, h.AddToCart)
		recipes.DELETE("/:id/shopping_cart", required, h.RemoveFromCart)
	}
}

// RegisterShortLinkRoute attaches the /s/:id redirect outside the /api
// prefix.
func (h *RecipeHandler) RegisterShortLinkRoute(router *gin.Engine) {
	router.GET("/s/:id", h.ShortLinkRedirect)
}

func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	filter := types.RecipeFilter{
		Name:     c.Query("name"),
		ViewerID: viewerID(c),
	}

	if v := c.Query("author"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid author id"})
			return
		}
		id := uint(n)
		filter.AuthorID = &id
	}

	if v := c.Query("tags"); v != "" {
		for _, slug := range strings.Split(v, ",") {
			if slug = strings.TrimSpace(slug); slug != "" {
				filter.TagSlugs = append(filter.TagSlugs, slug)
			}
		}
	}

	var ok bool
	if filter.Favorited, ok = boolQuery(c, "is_favorited"); !ok {
		return
	}
	if filter.InCart, ok = boolQuery(c, "is_in_shopping_cart"); !ok {
		return
	}

	recipes, err := h.recipeService.ListRecipes(c.Request.Context(), &filter)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	views := make([]RecipeView, 0, len(recipes))
	for i := range recipes {
		view, err := h.views.recipeView(c.Request.Context(), filter.ViewerID, &recipes[i])
		if err != nil {
			abortWithServiceError(c, err)
			return
		}
		views = append(views, view)
	}

	c.JSON(http.StatusOK, gin.H{"recipes": views})
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	recipe, err := h.recipeService.GetRecipe(c.Request.Context(), id)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	view, err := h.views.recipeView(c.Request.Context(), viewerID(c), recipe)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	userID, exists := currentUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var in types.RecipeInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.storeInlineImage(c, &in); err != nil {
		abortWithServiceError(c, err)
		return
	}

	recipe, err := h.recipeService.CreateRecipe(c.Request.Context(), userID, &in)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	view, err := h.views.recipeView(c.Request.Context(), &userID, recipe)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	userID, exists := currentUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	var in types.RecipeInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.storeInlineImage(c, &in); err != nil {
		abortWithServiceError(c, err)
		return
	}

	recipe, err := h.recipeService.UpdateRecipe(c.Request.Context(), userID, id, &in)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	view, err := h.views.recipeView(c.Request.Context(), &userID, recipe)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	userID, exists := currentUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	if err := h.recipeService.DeleteRecipe(c.Request.Context(), userID, id); err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) AddFavorite(c *gin.Context) {
	h.addMembership(c, h.favoriteService.Add)
}

func (h *RecipeHandler) RemoveFavorite(c *gin.Context) {
	h.removeMembership(c, h.favoriteService.Remove)
}

func (h *RecipeHandler) AddToCart(c *gin.Context) {
	h.addMembership(c, h.cartService.Add)
}

func (h *RecipeHandler) RemoveFromCart(c *gin.Context) {
	h.removeMembership(c, h.cartService.Remove)
}

func (h *RecipeHandler) DownloadShoppingCart(c *gin.Context) {
	userID, exists := currentUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	entries, err := h.cartService.ShoppingList(c.Request.Context(), userID)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="shopping_list.txt"`)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(service.RenderShoppingList(entries)))
}

func (h *RecipeHandler) GetLink(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	if _, err := h.recipeService.GetRecipe(c.Request.Context(), id); err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"short-link": fmt.Sprintf("%s/s/%d", h.baseURL, id)})
}

func (h *RecipeHandler) ShortLinkRedirect(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	if _, err := h.recipeService.GetRecipe(c.Request.Context(), id); err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.Redirect(http.StatusFound, fmt.Sprintf("%s/recipes/%d/", h.baseURL, id))
}

func (h *RecipeHandler) addMembership(c *gin.Context, add func(ctx context.Context, userID, recipeID uint) (*models.Recipe, error)) {
	userID, exists := currentUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	recipe, err := add(c.Request.Context(), userID, id)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newRecipeShort(recipe))
}

func (h *RecipeHandler) removeMembership(c *gin.Context, remove func(ctx context.Context, userID, recipeID uint) error) {
	userID, exists := currentUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}

	if err := remove(c.Request.Context(), userID, id); err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) storeInlineImage(c *gin.Context, in *types.RecipeInput) error {
	if !service.IsDataURI(in.Image) {
		return nil
	}
	stored, err := h.imageService.StoreDataURI(c.Request.Context(), "image", "recipes", in.Image)
	if err != nil {
		return err
	}
	in.Image = stored
	return nil
}

// boolQuery parses an optional boolean query parameter; the second return
// is false when the value is present but malformed (a 400 has been written).
func boolQuery(c *gin.Context, name string) (*bool, bool) {
	v := c.Query(name)
	if v == "" {
		return nil, true
	}
	switch v {
	case "1", "true", "True":
		t := true
		return &t, true
	case "0", "false", "False":
		f := false
		return &f, true
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return nil, false
	}
}
