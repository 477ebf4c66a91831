package types

// IngredientAmount is one (ingredient id, amount) pair in a recipe write
// request.
type IngredientAmount struct {
	ID     uint `json:"id" binding:"required"`
	Amount int  `json:"amount" binding:"required"`
}

// RecipeInput is the write-side recipe representation. Tags are identified
// by slug. Image, when set, is either an already-stored path or a base64
// data URI that the handler stores before the service sees it.
type RecipeInput struct {
	Name        string             `json:"name" binding:"required"`
	Text        string             `json:"text" binding:"required"`
	Image       string             `json:"image"`
	CookingTime int                `json:"cooking_time" binding:"required"`
	Tags        []string           `json:"tags"`
	Ingredients []IngredientAmount `json:"ingredients"`
}

// RecipeFilter narrows recipe listings. Nil pointer fields mean "not
// filtered". ViewerID is nil for anonymous requests.
type RecipeFilter struct {
	AuthorID  *uint
	TagSlugs  []string
	Favorited *bool
	InCart    *bool
	Name      string
	ViewerID  *uint
}

// RecipeIngredientRow is an ingredient of a recipe joined with its catalog
// entry, as exposed on read representations.
type RecipeIngredientRow struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}
