package service

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/pantryplan/backend/internal/types"
)

// Defaults applied by NormalizeRecipe. Every field of the output contract
// has one, so a sparse model reply never fails the pipeline.
const (
	defaultRecipeName  = "Imported Recipe"
	defaultMealType    = "dinner"
	defaultDifficulty  = "medium"
	defaultServings    = 4
	defaultKidFriendly = 5
)

var (
	mealTypes    = map[string]bool{"breakfast": true, "lunch": true, "dinner": true, "snack": true}
	difficulties = map[string]bool{"easy": true, "medium": true, "hard": true}

	jsonFencePattern    = regexp.MustCompile("(?s)```json\\s*(.*?)```")
	genericFencePattern = regexp.MustCompile("(?s)```\\s*(.*?)```")
)

// ExtractJSON pulls a JSON object out of free-form model output. Strategies
// are tried in priority order and the first one that parses wins: a ```json
// fence, any fence, then the widest brace-delimited span. Returns ok=false
// when no strategy yields valid JSON.
func ExtractJSON(raw string) (map[string]any, bool) {
	for _, candidate := range jsonCandidates(raw) {
		var obj map[string]any
		if err := json.Unmarshal([]byte(candidate), &obj); err == nil {
			return obj, true
		}
	}
	return nil, false
}

func jsonCandidates(raw string) []string {
	var candidates []string
	if m := jsonFencePattern.FindStringSubmatch(raw); m != nil {
		candidates = append(candidates, strings.TrimSpace(m[1]))
	}
	if m := genericFencePattern.FindStringSubmatch(raw); m != nil {
		candidates = append(candidates, strings.TrimSpace(m[1]))
	}
	if start, end := strings.Index(raw, "{"), strings.LastIndex(raw, "}"); start >= 0 && end > start {
		candidates = append(candidates, raw[start:end+1])
	}
	return candidates
}

// NormalizeRecipe coerces a parsed model reply into a complete
// ExtractedRecipe. It never fails: missing or mistyped fields fall back to
// their documented defaults, and kid_friendly_level is clamped to [1,10].
// pageImageURL comes from the page's own metadata and wins over whatever the
// model reported.
func NormalizeRecipe(obj map[string]any, sourceURL, pageImageURL string) *types.ExtractedRecipe {
	if obj == nil {
		obj = map[string]any{}
	}

	r := &types.ExtractedRecipe{
		Name:             stringField(obj, "name", defaultRecipeName),
		MealType:         enumField(obj, "meal_type", mealTypes, defaultMealType),
		Ingredients:      textField(obj, "ingredients"),
		Instructions:     textField(obj, "instructions"),
		PrepTimeMinutes:  intPtrField(obj, "prep_time_minutes"),
		CookTimeMinutes:  intPtrField(obj, "cook_time_minutes"),
		Servings:         positiveIntField(obj, "servings", defaultServings),
		Difficulty:       enumField(obj, "difficulty", difficulties, defaultDifficulty),
		Cuisine:          stringPtrField(obj, "cuisine"),
		Tags:             textField(obj, "tags"),
		Calories:         floatPtrField(obj, "calories"),
		ProteinGrams:     floatPtrField(obj, "protein_g"),
		CarbsGrams:       floatPtrField(obj, "carbs_g"),
		FatGrams:         floatPtrField(obj, "fat_g"),
		KidFriendlyLevel: clamp(intField(obj, "kid_friendly_level", defaultKidFriendly), 1, 10),
		MakesLeftovers:   boolField(obj, "makes_leftovers", true),
		LeftoverDays:     intPtrField(obj, "leftover_days"),
		SourceURL:        sourceURL,
	}

	if pageImageURL != "" {
		r.ImageURL = &pageImageURL
	} else if img := stringField(obj, "image_url", ""); img != "" {
		r.ImageURL = &img
	}

	return r
}

// NormalizeShoppingItems coerces the model's consolidation reply. Entries
// without a usable name are dropped; an unusable payload yields an empty
// slice, never an error.
func NormalizeShoppingItems(obj map[string]any) []types.ShoppingItem {
	items := []types.ShoppingItem{}
	raw, ok := obj["items"].([]any)
	if !ok {
		return items
	}
	for _, entry := range raw {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		name := stringField(m, "name", "")
		if name == "" {
			continue
		}
		items = append(items, types.ShoppingItem{
			Name:     name,
			Quantity: stringField(m, "quantity", ""),
			Category: stringField(m, "category", "other"),
		})
	}
	return items
}

// NormalizeLunchSuggestions coerces the model's suggestion reply.
func NormalizeLunchSuggestions(obj map[string]any) []types.LunchSuggestion {
	suggestions := []types.LunchSuggestion{}
	raw, ok := obj["suggestions"].([]any)
	if !ok {
		return suggestions
	}
	for _, entry := range raw {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		name := stringField(m, "name", "")
		if name == "" {
			continue
		}
		suggestions = append(suggestions, types.LunchSuggestion{
			Name:             name,
			Description:      stringField(m, "description", ""),
			KidFriendlyLevel: clamp(intField(m, "kid_friendly_level", defaultKidFriendly), 1, 10),
		})
	}
	return suggestions
}

// stringField returns the trimmed string at key, or def when the value is
// missing, empty, or not a string.
func stringField(obj map[string]any, key, def string) string {
	if s, ok := obj[key].(string); ok {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return def
}

func stringPtrField(obj map[string]any, key string) *string {
	if s := stringField(obj, key, ""); s != "" {
		return &s
	}
	return nil
}

// textField accepts free text either as a string or as a list of strings
// (models return both shapes) and flattens it to newline-joined text.
func textField(obj map[string]any, key string) string {
	switch v := obj[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case []any:
		var lines []string
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				lines = append(lines, strings.TrimSpace(s))
			}
		}
		return strings.Join(lines, "\n")
	}
	return ""
}

func enumField(obj map[string]any, key string, allowed map[string]bool, def string) string {
	if s, ok := obj[key].(string); ok {
		if s = strings.ToLower(strings.TrimSpace(s)); allowed[s] {
			return s
		}
	}
	return def
}

// numberField reads a JSON number, tolerating numeric strings like "25".
func numberField(obj map[string]any, key string) (float64, bool) {
	switch v := obj[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

func intField(obj map[string]any, key string, def int) int {
	if f, ok := numberField(obj, key); ok {
		return int(f)
	}
	return def
}

// intPtrField returns a non-negative integer or nil.
func intPtrField(obj map[string]any, key string) *int {
	if f, ok := numberField(obj, key); ok && f >= 0 {
		n := int(f)
		return &n
	}
	return nil
}

func positiveIntField(obj map[string]any, key string, def int) int {
	if f, ok := numberField(obj, key); ok && f >= 1 {
		return int(f)
	}
	return def
}

func floatPtrField(obj map[string]any, key string) *float64 {
	if f, ok := numberField(obj, key); ok && f >= 0 {
		return &f
	}
	return nil
}

func boolField(obj map[string]any, key string, def bool) bool {
	if b, ok := obj[key].(bool); ok {
		return b
	}
	return def
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
