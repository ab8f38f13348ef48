package types

// ExtractedRecipe is the normalized output of the URL ingestion pipeline.
// Every field carries a deterministic default so a sparse or partially
// malformed model reply still yields a complete recipe.
type ExtractedRecipe struct {
	Name             string   `json:"name"`
	MealType         string   `json:"meal_type"`
	Ingredients      string   `json:"ingredients"`
	Instructions     string   `json:"instructions"`
	PrepTimeMinutes  *int     `json:"prep_time_minutes"`
	CookTimeMinutes  *int     `json:"cook_time_minutes"`
	Servings         int      `json:"servings"`
	Difficulty       string   `json:"difficulty"`
	Cuisine          *string  `json:"cuisine"`
	Tags             string   `json:"tags"`
	Calories         *float64 `json:"calories"`
	ProteinGrams     *float64 `json:"protein_g"`
	CarbsGrams       *float64 `json:"carbs_g"`
	FatGrams         *float64 `json:"fat_g"`
	KidFriendlyLevel int      `json:"kid_friendly_level"`
	MakesLeftovers   bool     `json:"makes_leftovers"`
	LeftoverDays     *int     `json:"leftover_days"`
	SourceURL        string   `json:"source_url"`
	ImageURL         *string  `json:"image_url"`
}

// ShoppingItem is one consolidated shopping-list entry.
type ShoppingItem struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
	Category string `json:"category"`
}

// LunchSuggestion is one generated lunch idea.
type LunchSuggestion struct {
	Name             string `json:"name"`
	Description      string `json:"description"`
	KidFriendlyLevel int    `json:"kid_friendly_level"`
}
