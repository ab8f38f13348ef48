package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pantryplan/backend/internal/types"
)

// ConsolidateShoppingList handles POST /api/v1/shopping-lists/consolidate.
func (h *IngestHandler) ConsolidateShoppingList(c *gin.Context) {
	var req types.ConsolidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: "items are required"})
		return
	}

	items, err := h.pipeline.ConsolidateItems(c.Request.Context(), req.Items)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}
