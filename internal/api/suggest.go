package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pantryplan/backend/internal/types"
)

// SuggestLunch handles POST /api/v1/suggestions/lunch.
func (h *IngestHandler) SuggestLunch(c *gin.Context) {
	var req types.LunchSuggestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: "preferences are required"})
		return
	}

	suggestions, err := h.pipeline.SuggestLunch(c.Request.Context(), req.Preferences)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}
