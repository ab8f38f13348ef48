package service

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

const defaultMaxPromptChars = 10000

// Elements that never carry recipe content.
var skippedElements = map[string]bool{
	"script":   true,
	"style":    true,
	"nav":      true,
	"header":   true,
	"footer":   true,
	"aside":    true,
	"noscript": true,
	"form":     true,
	"iframe":   true,
	"svg":      true,
	"button":   true,
}

// Elements whose closing implies a line break in the rendered text.
var blockElements = map[string]bool{
	"p": true, "div": true, "li": true, "ul": true, "ol": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"br": true, "tr": true, "table": true, "section": true, "article": true,
	"blockquote": true, "pre": true, "dt": true, "dd": true,
}

var (
	recipeAttrPattern = regexp.MustCompile(`(?i)\brecipe\b|\brecipe-|wprm-recipe|tasty-recipes|mv-recipe`)
	multiSpace        = regexp.MustCompile(`[ \t]{2,}`)
	multiNewline      = regexp.MustCompile(`\n{3,}`)
)

// ContentReducer turns a fetched HTML document into a bounded plain-text
// prompt. It strips non-content markup, prefers a recipe-specific container
// over the whole body, and truncates to MaxChars so the downstream
// generation call stays fast and cheap.
type ContentReducer struct {
	MaxChars int
}

// NewContentReducer creates a reducer with the default character budget.
func NewContentReducer() *ContentReducer {
	return &ContentReducer{MaxChars: defaultMaxPromptChars}
}

// Reduce converts raw HTML into bounded plain text. A document that fails to
// parse still yields whatever text the tokenizer could salvage; html.Parse
// is lenient and does not fail on malformed markup.
func (r *ContentReducer) Reduce(rawHTML string) string {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return truncate(collapseWhitespace(rawHTML), r.MaxChars)
	}

	root := findRecipeContainer(doc)
	if root == nil {
		root = findElement(doc, "body")
	}
	if root == nil {
		root = doc
	}

	var sb strings.Builder
	renderText(root, &sb)

	return truncate(collapseWhitespace(sb.String()), r.MaxChars)
}

// findRecipeContainer looks for a node that marks itself as recipe content,
// either through schema.org microdata or well-known recipe-plugin class
// names. Returns nil when the page has no such container.
func findRecipeContainer(n *html.Node) *html.Node {
	if n.Type == html.ElementNode {
		for _, attr := range n.Attr {
			switch attr.Key {
			case "itemtype":
				if strings.Contains(attr.Val, "schema.org/Recipe") {
					return n
				}
			case "class", "id":
				if recipeAttrPattern.MatchString(attr.Val) && !skippedElements[n.Data] {
					return n
				}
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findRecipeContainer(c); found != nil {
			return found
		}
	}
	return nil
}

func findElement(n *html.Node, name string) *html.Node {
	if n.Type == html.ElementNode && n.Data == name {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, name); found != nil {
			return found
		}
	}
	return nil
}

// renderText walks the tree depth-first, emitting text nodes and newlines at
// block boundaries. Comments and skipped elements are dropped entirely; the
// parser has already unescaped entities in text nodes.
func renderText(n *html.Node, sb *strings.Builder) {
	switch n.Type {
	case html.CommentNode:
		return
	case html.ElementNode:
		if skippedElements[n.Data] {
			return
		}
	case html.TextNode:
		sb.WriteString(n.Data)
		return
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		renderText(c, sb)
	}

	if n.Type == html.ElementNode && blockElements[n.Data] {
		sb.WriteByte('\n')
	}
}

func collapseWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(multiSpace.ReplaceAllString(line, " "))
	}
	s = strings.Join(lines, "\n")
	s = multiNewline.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// truncate cuts s to at most max bytes without splitting a UTF-8 sequence.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := s[:max]
	for len(cut) > 0 && !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	return cut
}
