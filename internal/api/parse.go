package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pantryplan/backend/internal/types"
)

// ParseRecipeURL handles POST /api/v1/recipes/parse-url. The URL is fetched
// SSRF-safely, reduced, run through the generation service and normalized
// into an ExtractedRecipe.
func (h *IngestHandler) ParseRecipeURL(c *gin.Context) {
	var req types.ParseURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: "url is required"})
		return
	}

	recipe, err := h.pipeline.ParseRecipeURL(c.Request.Context(), req.URL)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, recipe)
}
