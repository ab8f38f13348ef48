package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pantryplan/backend/internal/api"
	"github.com/pantryplan/backend/internal/middleware"
	"github.com/pantryplan/backend/internal/ratelimit"
)

// Limiters holds the per-endpoint rate limiters.
type Limiters struct {
	ParseURL    ratelimit.Limiter
	Consolidate ratelimit.Limiter
	Suggestions ratelimit.Limiter

	ParseURLLimit    int
	ConsolidateLimit int
	SuggestionLimit  int
}

// SetupRouter configures the application routes
func SetupRouter(
	ingestHandler *api.IngestHandler,
	validator middleware.TokenValidator,
	limiters Limiters,
	extraOrigins []string,
) *gin.Engine {
	router := gin.New()

	router.Use(gin.Logger())
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS(extraOrigins))
	router.Use(middleware.RequireCSRFHeader())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(validator))
	{
		recipes := protected.Group("/recipes")
		{
			recipes.POST("/parse-url",
				middleware.RateLimit(limiters.ParseURL, limiters.ParseURLLimit),
				ingestHandler.ParseRecipeURL)
		}

		shopping := protected.Group("/shopping-lists")
		{
			shopping.POST("/consolidate",
				middleware.RateLimit(limiters.Consolidate, limiters.ConsolidateLimit),
				ingestHandler.ConsolidateShoppingList)
		}

		suggestions := protected.Group("/suggestions")
		{
			suggestions.POST("/lunch",
				middleware.RateLimit(limiters.Suggestions, limiters.SuggestionLimit),
				ingestHandler.SuggestLunch)
		}
	}

	return router
}
