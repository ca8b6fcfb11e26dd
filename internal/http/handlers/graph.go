package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mizanhq/mizan-backend/internal/http/response"
	"github.com/mizanhq/mizan-backend/internal/regmap"
	"github.com/mizanhq/mizan-backend/internal/services"
)

type GraphHandler struct {
	graph     services.GraphService
	dashboard services.DashboardService
}

func NewGraphHandler(graph services.GraphService, dashboard services.DashboardService) *GraphHandler {
	return &GraphHandler{graph: graph, dashboard: dashboard}
}

// GET /graph?expanded=a,b&toggle=&framework_id=
func (h *GraphHandler) View(c *gin.Context) {
	h.view(c, services.ViewRequest{
		Expanded:    splitList(c.QueryArray("expanded")),
		Toggle:      c.Query("toggle"),
		FrameworkID: c.Query("framework_id"),
	})
}

// POST /graph/view
// body: { "expanded": [...], "toggle": "...", "framework_id": "..." }
func (h *GraphHandler) ViewPost(c *gin.Context) {
	var req services.ViewRequest
	if !bindJSON(c, &req) {
		return
	}
	h.view(c, req)
}

func (h *GraphHandler) view(c *gin.Context, req services.ViewRequest) {
	v, err := h.graph.View(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "graph_view_failed")
		return
	}
	response.RespondOK(c, v)
}

// GET /graph/nodes/:id/neighbors
func (h *GraphHandler) Neighbors(c *gin.Context) {
	nb, err := h.graph.Neighbors(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "graph_neighbors_failed")
		return
	}
	response.RespondOK(c, nb)
}

// GET /search?q=&kind=&limit=
func (h *GraphHandler) Search(c *gin.Context) {
	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		return
	}
	var kinds []regmap.Kind
	for _, raw := range splitList(c.QueryArray("kind")) {
		k, valid := regmap.ParseKind(raw)
		if !valid {
			response.RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("unknown kind %q", raw))
			return
		}
		kinds = append(kinds, k)
	}
	hits, err := h.graph.Search(c.Request.Context(), c.Query("q"), kinds, limit)
	if err != nil {
		respondServiceError(c, err, "search_failed")
		return
	}
	response.RespondOK(c, gin.H{"results": hits})
}

// GET /dashboard
func (h *GraphHandler) Dashboard(c *gin.Context) {
	sum, err := h.dashboard.Summary(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "dashboard_failed")
		return
	}
	response.RespondOK(c, sum)
}
