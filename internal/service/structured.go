package service

import (
	"encoding/json"
	"strings"

	"golang.org/x/net/html"
)

// ExtractStructuredRecipe scans the document's JSON-LD blocks for an object
// typed as schema.org Recipe and returns the first match. The object may sit
// at the top level, inside an array, or nested in a @graph. Returns nil when
// the page carries no machine-readable recipe.
func ExtractStructuredRecipe(rawHTML string) map[string]any {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil
	}

	var recipe map[string]any
	walk(doc, func(n *html.Node) bool {
		if n.Type != html.ElementNode || n.Data != "script" {
			return true
		}
		if attrValue(n, "type") != "application/ld+json" {
			return true
		}
		if n.FirstChild == nil {
			return true
		}

		var payload any
		if err := json.Unmarshal([]byte(n.FirstChild.Data), &payload); err != nil {
			return true
		}
		if found := findRecipeObject(payload); found != nil {
			recipe = found
			return false
		}
		return true
	})

	return recipe
}

// ExtractImageURL returns the page's social-preview image, preferring
// og:image over twitter:image. Page metadata is authoritative over anything
// the model reports, so this runs on the raw document.
func ExtractImageURL(rawHTML string) string {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return ""
	}

	var ogImage, twitterImage string
	walk(doc, func(n *html.Node) bool {
		if n.Type != html.ElementNode || n.Data != "meta" {
			return true
		}
		content := attrValue(n, "content")
		if content == "" {
			return true
		}
		switch {
		case attrValue(n, "property") == "og:image":
			if ogImage == "" {
				ogImage = content
			}
		case attrValue(n, "name") == "twitter:image":
			if twitterImage == "" {
				twitterImage = content
			}
		}
		return ogImage == ""
	})

	if ogImage != "" {
		return ogImage
	}
	return twitterImage
}

// findRecipeObject recursively searches a decoded JSON-LD payload for a
// Recipe-typed object.
func findRecipeObject(payload any) map[string]any {
	switch v := payload.(type) {
	case map[string]any:
		if isRecipeType(v["@type"]) {
			return v
		}
		if graph, ok := v["@graph"].([]any); ok {
			return findRecipeObject(graph)
		}
	case []any:
		for _, item := range v {
			if found := findRecipeObject(item); found != nil {
				return found
			}
		}
	}
	return nil
}

// isRecipeType handles "@type": "Recipe" and "@type": ["Recipe", ...].
func isRecipeType(t any) bool {
	switch v := t.(type) {
	case string:
		return strings.EqualFold(v, "Recipe")
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && strings.EqualFold(s, "Recipe") {
				return true
			}
		}
	}
	return false
}

// walk visits nodes depth-first until fn returns false.
func walk(n *html.Node, fn func(*html.Node) bool) bool {
	if !fn(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, fn) {
			return false
		}
	}
	return true
}

func attrValue(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
