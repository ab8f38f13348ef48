package api

import (
	"log"

	"github.com/gin-gonic/gin"

	"github.com/pantryplan/backend/internal/service"
	"github.com/pantryplan/backend/internal/types"
)

// IngestHandler serves the ingestion pipeline endpoints.
type IngestHandler struct {
	pipeline *service.Pipeline
}

// NewIngestHandler creates a new IngestHandler instance
func NewIngestHandler(pipeline *service.Pipeline) *IngestHandler {
	return &IngestHandler{pipeline: pipeline}
}

// writeError translates a pipeline error into its status and safe message.
// The wrapped detail is logged with the request id and goes no further.
func writeError(c *gin.Context, err error) {
	status := service.StatusFor(err)
	log.Printf("[api] request_id=%s status=%d error: %v", c.GetString("request_id"), status, err)
	c.JSON(status, types.ErrorResponse{Error: service.MessageFor(err)})
}
