package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/pantryplan/backend/internal/types"
)

const recipeSystemPrompt = `You are a recipe extraction assistant for a family meal-planning app. Given the text content of a webpage, extract the recipe it describes. Respond ONLY with a JSON object using this structure:
{
    "name": "Recipe name",
    "meal_type": "breakfast, lunch, dinner or snack",
    "ingredients": "One ingredient per line with quantities",
    "instructions": "Numbered steps, one per line",
    "prep_time_minutes": 15,
    "cook_time_minutes": 30,
    "servings": 4,
    "difficulty": "easy, medium or hard",
    "cuisine": "Cuisine name or null",
    "tags": "comma-separated tags",
    "calories": 350,
    "protein_g": 15,
    "carbs_g": 45,
    "fat_g": 12,
    "kid_friendly_level": 7,
    "makes_leftovers": true,
    "leftover_days": 3
}

Numeric fields must be numbers, not strings. Use null for anything the page does not state. Do not invent nutrition facts.`

const consolidateSystemPrompt = `You consolidate shopping lists for a meal-planning app. Merge duplicate items, sum quantities where units match, and group by store section. Respond ONLY with JSON:
{"items": [{"name": "item", "quantity": "amount with unit", "category": "produce|dairy|meat|pantry|frozen|bakery|other"}]}`

const lunchSystemPrompt = `You suggest school and work lunches for a family meal-planning app. Respond ONLY with JSON:
{"suggestions": [{"name": "dish", "description": "one sentence", "kid_friendly_level": 7}]}
Return exactly five suggestions.`

// Pipeline composes the ingestion stages behind each endpoint: fetch where
// applicable, reduce, generate, validate. Stages run strictly in order and
// nothing is retried within a request; the first failure classifies the
// whole request.
type Pipeline struct {
	fetcher   *SafeFetcher
	reducer   *ContentReducer
	generator *GenerationClient
}

// NewPipeline creates a new Pipeline instance
func NewPipeline(fetcher *SafeFetcher, reducer *ContentReducer, generator *GenerationClient) *Pipeline {
	return &Pipeline{
		fetcher:   fetcher,
		reducer:   reducer,
		generator: generator,
	}
}

// ParseRecipeURL fetches a page and extracts a normalized recipe from it.
func (p *Pipeline) ParseRecipeURL(ctx context.Context, rawURL string) (*types.ExtractedRecipe, error) {
	pageHTML, err := p.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	reduced := p.reducer.Reduce(pageHTML)
	if strings.TrimSpace(reduced) == "" {
		return nil, fmt.Errorf("%w: page has no readable content", ErrTargetUnreachable)
	}

	userPrompt := "Webpage text:\n\n" + reduced
	if structured := ExtractStructuredRecipe(pageHTML); structured != nil {
		// A JSON-LD Recipe block is a high-confidence hint; pass it through
		// verbatim alongside the reduced text.
		if encoded, err := json.Marshal(structured); err == nil {
			userPrompt = "The page embeds this structured recipe data:\n" + string(encoded) + "\n\n" + userPrompt
		}
	}

	raw, err := p.generator.Generate(ctx, recipeSystemPrompt, userPrompt)
	if err != nil {
		return nil, err
	}

	obj, ok := ExtractJSON(raw)
	if !ok {
		log.Printf("[pipeline] no JSON in model output (len=%d)", len(raw))
		return nil, fmt.Errorf("%w: model output contained no JSON", ErrExtractionFailed)
	}

	return NormalizeRecipe(obj, rawURL, ExtractImageURL(pageHTML)), nil
}

// ConsolidateItems merges a raw shopping list via the generation service.
func (p *Pipeline) ConsolidateItems(ctx context.Context, items []string) ([]types.ShoppingItem, error) {
	cleaned := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			cleaned = append(cleaned, item)
		}
	}
	if len(cleaned) == 0 {
		return nil, fmt.Errorf("%w: shopping list is empty", ErrInvalidInput)
	}
	if len(cleaned) > 200 {
		return nil, fmt.Errorf("%w: shopping list exceeds 200 items", ErrInvalidInput)
	}

	raw, err := p.generator.Generate(ctx, consolidateSystemPrompt, "Shopping list:\n"+strings.Join(cleaned, "\n"))
	if err != nil {
		return nil, err
	}

	obj, ok := ExtractJSON(raw)
	if !ok {
		log.Printf("[pipeline] no JSON in consolidation output (len=%d)", len(raw))
		return nil, fmt.Errorf("%w: model output contained no JSON", ErrExtractionFailed)
	}

	return NormalizeShoppingItems(obj), nil
}

// SuggestLunch generates lunch ideas from free-text preferences.
func (p *Pipeline) SuggestLunch(ctx context.Context, preferences string) ([]types.LunchSuggestion, error) {
	preferences = strings.TrimSpace(preferences)
	if preferences == "" {
		return nil, fmt.Errorf("%w: preferences are required", ErrInvalidInput)
	}
	if len(preferences) > 2000 {
		return nil, fmt.Errorf("%w: preferences exceed 2000 characters", ErrInvalidInput)
	}

	raw, err := p.generator.Generate(ctx, lunchSystemPrompt, "Preferences: "+preferences)
	if err != nil {
		return nil, err
	}

	obj, ok := ExtractJSON(raw)
	if !ok {
		log.Printf("[pipeline] no JSON in suggestion output (len=%d)", len(raw))
		return nil, fmt.Errorf("%w: model output contained no JSON", ErrExtractionFailed)
	}

	return NormalizeLunchSuggestions(obj), nil
}
