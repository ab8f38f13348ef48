package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	t.Run("json fence wins over stray braces", func(t *testing.T) {
		raw := "Here is the recipe {not: json}\n```json\n{\"name\": \"Fenced\"}\n```\ntrailing {junk}"

		obj, ok := ExtractJSON(raw)
		require.True(t, ok)
		assert.Equal(t, "Fenced", obj["name"])
	})

	t.Run("generic fence", func(t *testing.T) {
		raw := "Sure!\n```\n{\"name\": \"Generic\"}\n```"

		obj, ok := ExtractJSON(raw)
		require.True(t, ok)
		assert.Equal(t, "Generic", obj["name"])
	})

	t.Run("bare braces", func(t *testing.T) {
		raw := `The recipe is {"name": "Bare", "servings": 2} hope that helps`

		obj, ok := ExtractJSON(raw)
		require.True(t, ok)
		assert.Equal(t, "Bare", obj["name"])
	})

	t.Run("unparseable fence falls through to braces", func(t *testing.T) {
		raw := "```json\nnot json at all\n```\nbut also {\"name\": \"Recovered\"}"

		obj, ok := ExtractJSON(raw)
		require.True(t, ok)
		assert.Equal(t, "Recovered", obj["name"])
	})

	t.Run("no json anywhere", func(t *testing.T) {
		_, ok := ExtractJSON("I'm sorry, I could not find a recipe on that page.")
		assert.False(t, ok)
	})

	t.Run("idempotent", func(t *testing.T) {
		raw := "```json\n{\"name\": \"Same\"}\n```"
		first, ok1 := ExtractJSON(raw)
		second, ok2 := ExtractJSON(raw)
		require.True(t, ok1)
		require.True(t, ok2)
		assert.Equal(t, first, second)
	})
}

func TestNormalizeRecipe_Defaults(t *testing.T) {
	// An empty object still yields a complete recipe.
	r := NormalizeRecipe(map[string]any{}, "https://example.com/r", "")

	assert.Equal(t, "Imported Recipe", r.Name)
	assert.Equal(t, "dinner", r.MealType)
	assert.Equal(t, "", r.Ingredients)
	assert.Equal(t, "", r.Instructions)
	assert.Nil(t, r.PrepTimeMinutes)
	assert.Nil(t, r.CookTimeMinutes)
	assert.Equal(t, 4, r.Servings)
	assert.Equal(t, "medium", r.Difficulty)
	assert.Nil(t, r.Cuisine)
	assert.Nil(t, r.Calories)
	assert.Equal(t, 5, r.KidFriendlyLevel)
	assert.True(t, r.MakesLeftovers)
	assert.Nil(t, r.LeftoverDays)
	assert.Equal(t, "https://example.com/r", r.SourceURL)
	assert.Nil(t, r.ImageURL)
}

func TestNormalizeRecipe_NilObject(t *testing.T) {
	r := NormalizeRecipe(nil, "https://example.com/r", "")
	assert.Equal(t, "Imported Recipe", r.Name)
	assert.Equal(t, 4, r.Servings)
}

func TestNormalizeRecipe_WrongTypes(t *testing.T) {
	obj := map[string]any{
		"name":               42,
		"meal_type":          "brunch",
		"servings":           "not a number",
		"difficulty":         []any{"hard"},
		"prep_time_minutes":  -10,
		"calories":           "many",
		"kid_friendly_level": true,
		"makes_leftovers":    "yes",
	}

	r := NormalizeRecipe(obj, "https://example.com/r", "")

	assert.Equal(t, "Imported Recipe", r.Name)
	assert.Equal(t, "dinner", r.MealType)
	assert.Equal(t, 4, r.Servings)
	assert.Equal(t, "medium", r.Difficulty)
	assert.Nil(t, r.PrepTimeMinutes)
	assert.Nil(t, r.Calories)
	assert.Equal(t, 5, r.KidFriendlyLevel)
	assert.True(t, r.MakesLeftovers)
}

func TestNormalizeRecipe_Coercions(t *testing.T) {
	obj := map[string]any{
		"name":               "  Chicken Curry  ",
		"meal_type":          "Lunch",
		"ingredients":        []any{"1 chicken", "2 onions"},
		"instructions":       "Cook it.",
		"prep_time_minutes":  "25",
		"cook_time_minutes":  40.0,
		"servings":           6.0,
		"difficulty":         "EASY",
		"cuisine":            "Indian",
		"calories":           520.5,
		"kid_friendly_level": 3.0,
		"makes_leftovers":    false,
		"leftover_days":      2.0,
	}

	r := NormalizeRecipe(obj, "https://example.com/r", "")

	assert.Equal(t, "Chicken Curry", r.Name)
	assert.Equal(t, "lunch", r.MealType)
	assert.Equal(t, "1 chicken\n2 onions", r.Ingredients)
	require.NotNil(t, r.PrepTimeMinutes)
	assert.Equal(t, 25, *r.PrepTimeMinutes)
	require.NotNil(t, r.CookTimeMinutes)
	assert.Equal(t, 40, *r.CookTimeMinutes)
	assert.Equal(t, 6, r.Servings)
	assert.Equal(t, "easy", r.Difficulty)
	require.NotNil(t, r.Cuisine)
	assert.Equal(t, "Indian", *r.Cuisine)
	require.NotNil(t, r.Calories)
	assert.Equal(t, 520.5, *r.Calories)
	assert.Equal(t, 3, r.KidFriendlyLevel)
	assert.False(t, r.MakesLeftovers)
	require.NotNil(t, r.LeftoverDays)
	assert.Equal(t, 2, *r.LeftoverDays)
}

func TestNormalizeRecipe_KidFriendlyClamped(t *testing.T) {
	for input, want := range map[float64]int{-3: 1, 0: 1, 1: 1, 7: 7, 10: 10, 42: 10} {
		r := NormalizeRecipe(map[string]any{"kid_friendly_level": input}, "https://example.com/r", "")
		assert.Equal(t, want, r.KidFriendlyLevel, "input %v", input)
	}
}

func TestNormalizeRecipe_PageImageWins(t *testing.T) {
	obj := map[string]any{"image_url": "https://model-guess.example/img.jpg"}

	r := NormalizeRecipe(obj, "https://example.com/r", "https://cdn.example/og.jpg")
	require.NotNil(t, r.ImageURL)
	assert.Equal(t, "https://cdn.example/og.jpg", *r.ImageURL)

	r = NormalizeRecipe(obj, "https://example.com/r", "")
	require.NotNil(t, r.ImageURL)
	assert.Equal(t, "https://model-guess.example/img.jpg", *r.ImageURL)
}

func TestNormalizeShoppingItems(t *testing.T) {
	t.Run("valid items", func(t *testing.T) {
		obj := map[string]any{"items": []any{
			map[string]any{"name": "Flour", "quantity": "2 kg", "category": "pantry"},
			map[string]any{"name": "Milk", "quantity": "1 L"},
		}}

		items := NormalizeShoppingItems(obj)
		require.Len(t, items, 2)
		assert.Equal(t, "Flour", items[0].Name)
		assert.Equal(t, "pantry", items[0].Category)
		assert.Equal(t, "other", items[1].Category)
	})

	t.Run("nameless and malformed entries dropped", func(t *testing.T) {
		obj := map[string]any{"items": []any{
			map[string]any{"quantity": "2"},
			"just a string",
			map[string]any{"name": "Eggs"},
		}}

		items := NormalizeShoppingItems(obj)
		require.Len(t, items, 1)
		assert.Equal(t, "Eggs", items[0].Name)
	})

	t.Run("missing items key", func(t *testing.T) {
		assert.Empty(t, NormalizeShoppingItems(map[string]any{}))
	})
}

func TestNormalizeLunchSuggestions(t *testing.T) {
	obj := map[string]any{"suggestions": []any{
		map[string]any{"name": "Bento", "description": "Rice and veg", "kid_friendly_level": 99.0},
	}}

	suggestions := NormalizeLunchSuggestions(obj)
	require.Len(t, suggestions, 1)
	assert.Equal(t, "Bento", suggestions[0].Name)
	assert.Equal(t, 10, suggestions[0].KidFriendlyLevel)
}
