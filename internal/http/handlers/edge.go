package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/mizanhq/mizan-backend/internal/http/response"
	"github.com/mizanhq/mizan-backend/internal/services"
)

type EdgeHandler struct {
	edges services.EdgeService
}

func NewEdgeHandler(edges services.EdgeService) *EdgeHandler {
	return &EdgeHandler{edges: edges}
}

// GET /edges?from_id=&to_id=&relation=&limit=
func (h *EdgeHandler) List(c *gin.Context) {
	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		return
	}
	rows, err := h.edges.List(c.Request.Context(), services.EdgeListParams{
		FromID:   c.Query("from_id"),
		ToID:     c.Query("to_id"),
		Relation: c.Query("relation"),
		Limit:    limit,
	})
	if err != nil {
		respondServiceError(c, err, "list_edges_failed")
		return
	}
	response.RespondOK(c, gin.H{"edges": rows})
}

func (h *EdgeHandler) Create(c *gin.Context) {
	var in services.EdgeInput
	if !bindJSON(c, &in) {
		return
	}
	row, err := h.edges.Create(c.Request.Context(), in)
	if err != nil {
		respondServiceError(c, err, "create_edge_failed")
		return
	}
	response.RespondCreated(c, gin.H{"edge": row})
}

func (h *EdgeHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.edges.Delete(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "delete_edge_failed")
		return
	}
	response.RespondNoContent(c)
}
