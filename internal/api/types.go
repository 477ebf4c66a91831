package api

import (
	"context"
	"time"

	"github.com/platefeed/backend/internal/models"
	"github.com/platefeed/backend/internal/service"
	"github.com/platefeed/backend/internal/types"
)

// AuthorView is the read representation of a user. IsSubscribed is computed
// per viewer and always false for anonymous requests.
type AuthorView struct {
	ID           uint   `json:"id"`
	Email        string `json:"email"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Avatar       string `json:"avatar"`
	IsSubscribed bool   `json:"is_subscribed"`
}

// RecipeView is the full read representation of a recipe.
type RecipeView struct {
	ID               uint                        `json:"id"`
	Author           AuthorView                  `json:"author"`
	Name             string                      `json:"name"`
	Text             string                      `json:"text"`
	Image            string                      `json:"image"`
	CookingTime      int                         `json:"cooking_time"`
	Tags             []models.Tag                `json:"tags"`
	Ingredients      []types.RecipeIngredientRow `json:"ingredients"`
	CreatedAt        time.Time                   `json:"created_at"`
	IsFavorited      bool                        `json:"is_favorited"`
	IsInShoppingCart bool                        `json:"is_in_shopping_cart"`
}

// RecipeShort is the compact recipe representation returned by the toggle
// endpoints and embedded in subscription listings.
type RecipeShort struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

// SubscriptionView is an author representation extended with their recipes.
type SubscriptionView struct {
	AuthorView
	Recipes      []RecipeShort `json:"recipes"`
	RecipesCount int64         `json:"recipes_count"`
}

func newRecipeShort(r *models.Recipe) RecipeShort {
	return RecipeShort{
		ID:          r.ID,
		Name:        r.Name,
		Image:       r.Image,
		CookingTime: r.CookingTime,
	}
}

// ViewBuilder assembles read representations from the services. viewer is
// nil for anonymous requests.
type ViewBuilder struct {
	recipes   *service.RecipeService
	favorites *service.FavoriteService
	carts     *service.CartService
	follows   *service.FollowService
	users     *service.UserService
}

func NewViewBuilder(
	recipes *service.RecipeService,
	favorites *service.FavoriteService,
	carts *service.CartService,
	follows *service.FollowService,
	users *service.UserService,
) *ViewBuilder {
	return &ViewBuilder{
		recipes:   recipes,
		favorites: favorites,
		carts:     carts,
		follows:   follows,
		users:     users,
	}
}

func (b *ViewBuilder) authorView(ctx context.Context, viewer *uint, author *models.User) (AuthorView, error) {
	view := AuthorView{
		ID:        author.ID,
		Email:     author.Email,
		Username:  author.Username,
		FirstName: author.FirstName,
		LastName:  author.LastName,
		Avatar:    author.Avatar,
	}
	if viewer != nil && *viewer != author.ID {
		subscribed, err := b.follows.IsFollowing(ctx, *viewer, author.ID)
		if err != nil {
			return view, err
		}
		view.IsSubscribed = subscribed
	}
	return view, nil
}

func (b *ViewBuilder) recipeView(ctx context.Context, viewer *uint, recipe *models.Recipe) (RecipeView, error) {
	view := RecipeView{
		ID:          recipe.ID,
		Name:        recipe.Name,
		Text:        recipe.Text,
		Image:       recipe.Image,
		CookingTime: recipe.CookingTime,
		CreatedAt:   recipe.CreatedAt,
	}

	author, err := b.users.GetUser(ctx, recipe.AuthorID)
	if err != nil {
		return view, err
	}
	view.Author, err = b.authorView(ctx, viewer, author)
	if err != nil {
		return view, err
	}

	view.Tags, err = b.recipes.Tags(ctx, recipe.ID)
	if err != nil {
		return view, err
	}
	view.Ingredients, err = b.recipes.Ingredients(ctx, recipe.ID)
	if err != nil {
		return view, err
	}

	if viewer != nil {
		view.IsFavorited, err = b.favorites.IsFavorited(ctx, *viewer, recipe.ID)
		if err != nil {
			return view, err
		}
		view.IsInShoppingCart, err = b.carts.IsInCart(ctx, *viewer, recipe.ID)
		if err != nil {
			return view, err
		}
	}
	return view, nil
}

func (b *ViewBuilder) subscriptionView(ctx context.Context, viewer *uint, author *models.User, recipesLimit int) (SubscriptionView, error) {
	authorView, err := b.authorView(ctx, viewer, author)
	if err != nil {
		return SubscriptionView{}, err
	}

	recipes, err := b.users.RecipesByAuthor(ctx, author.ID, recipesLimit)
	if err != nil {
		return SubscriptionView{}, err
	}
	shorts := make([]RecipeShort, 0, len(recipes))
	for i := range recipes {
		shorts = append(shorts, newRecipeShort(&recipes[i]))
	}

	count, err := b.users.CountRecipes(ctx, author.ID)
	if err != nil {
		return SubscriptionView{}, err
	}

	return SubscriptionView{
		AuthorView:   authorView,
		Recipes:      shorts,
		RecipesCount: count,
	}, nil
}
