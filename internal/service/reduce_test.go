package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentReducer_StripsChrome(t *testing.T) {
	r := NewContentReducer()

	page := `<html><head>
		<script>window.tracker = true;</script>
		<style>.nav { color: red; }</style>
	</head><body>
		<nav>Home | Recipes | About</nav>
		<header>Site header</header>
		<!-- ad slot -->
		<p>Mix flour and sugar.</p>
		<footer>Copyright</footer>
		<aside>Related posts</aside>
	</body></html>`

	text := r.Reduce(page)

	assert.Contains(t, text, "Mix flour and sugar.")
	assert.NotContains(t, text, "tracker")
	assert.NotContains(t, text, "color: red")
	assert.NotContains(t, text, "Home | Recipes")
	assert.NotContains(t, text, "Site header")
	assert.NotContains(t, text, "Copyright")
	assert.NotContains(t, text, "Related posts")
	assert.NotContains(t, text, "ad slot")
}

func TestContentReducer_PrefersRecipeContainer(t *testing.T) {
	r := NewContentReducer()

	page := `<html><body>
		<div class="comments">Loved this! Made it twice.</div>
		<div class="wprm-recipe-container">
			<h2>Pancakes</h2>
			<ul><li>2 cups flour</li><li>1 egg</li></ul>
		</div>
		<div>Sign up for our newsletter</div>
	</body></html>`

	text := r.Reduce(page)

	assert.Contains(t, text, "Pancakes")
	assert.Contains(t, text, "2 cups flour")
	assert.NotContains(t, text, "newsletter")
	assert.NotContains(t, text, "Loved this")
}

func TestContentReducer_FallsBackToBody(t *testing.T) {
	r := NewContentReducer()

	text := r.Reduce(`<html><body><p>Just a plain page about soup.</p></body></html>`)
	assert.Contains(t, text, "Just a plain page about soup.")
}

func TestContentReducer_BlockBoundariesBecomeNewlines(t *testing.T) {
	r := NewContentReducer()

	text := r.Reduce(`<html><body><h1>Title</h1><p>First</p><p>Second</p><ul><li>One</li><li>Two</li></ul></body></html>`)

	lines := strings.Split(text, "\n")
	var nonEmpty []string
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			nonEmpty = append(nonEmpty, strings.TrimSpace(l))
		}
	}
	assert.Equal(t, []string{"Title", "First", "Second", "One", "Two"}, nonEmpty)
}

func TestContentReducer_UnescapesEntities(t *testing.T) {
	r := NewContentReducer()

	text := r.Reduce(`<html><body><p>Salt &amp; pepper &ndash; 1&frac12; tsp</p></body></html>`)
	assert.Contains(t, text, "Salt & pepper")
}

func TestContentReducer_Truncates(t *testing.T) {
	r := &ContentReducer{MaxChars: 100}

	page := "<html><body><p>" + strings.Repeat("stock simmering gently ", 100) + "</p></body></html>"
	text := r.Reduce(page)

	assert.LessOrEqual(t, len(text), 100)
	assert.NotEmpty(t, text)
}

func TestContentReducer_CollapsesWhitespace(t *testing.T) {
	r := NewContentReducer()

	text := r.Reduce("<html><body><p>too     many\t\tspaces</p><div></div><div></div><div></div><p>end</p></body></html>")
	assert.Contains(t, text, "too many spaces")
	assert.NotContains(t, text, "\n\n\n")
}
