package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/mizanhq/mizan-backend/internal/http/response"
	"github.com/mizanhq/mizan-backend/internal/services"
)

type FrameworkHandler struct {
	frameworks services.FrameworkService
}

func NewFrameworkHandler(frameworks services.FrameworkService) *FrameworkHandler {
	return &FrameworkHandler{frameworks: frameworks}
}

// GET /frameworks
func (h *FrameworkHandler) List(c *gin.Context) {
	rows, err := h.frameworks.List(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "list_frameworks_failed")
		return
	}
	response.RespondOK(c, gin.H{"frameworks": rows})
}

func (h *FrameworkHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	f, err := h.frameworks.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "get_framework_failed")
		return
	}
	response.RespondOK(c, gin.H{"framework": f})
}

func (h *FrameworkHandler) Create(c *gin.Context) {
	var in services.FrameworkInput
	if !bindJSON(c, &in) {
		return
	}
	f, err := h.frameworks.Create(c.Request.Context(), in)
	if err != nil {
		respondServiceError(c, err, "create_framework_failed")
		return
	}
	response.RespondCreated(c, gin.H{"framework": f})
}

func (h *FrameworkHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in services.FrameworkInput
	if !bindJSON(c, &in) {
		return
	}
	f, err := h.frameworks.Update(c.Request.Context(), id, in)
	if err != nil {
		respondServiceError(c, err, "update_framework_failed")
		return
	}
	response.RespondOK(c, gin.H{"framework": f})
}

func (h *FrameworkHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.frameworks.Delete(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "delete_framework_failed")
		return
	}
	response.RespondNoContent(c)
}

// GET /frameworks/:id/controls
func (h *FrameworkHandler) ListControls(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	rows, err := h.frameworks.ListControls(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "list_controls_failed")
		return
	}
	response.RespondOK(c, gin.H{"controls": rows})
}

// GET /frameworks/:id/articles
func (h *FrameworkHandler) ListArticles(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	rows, err := h.frameworks.ListArticles(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "list_articles_failed")
		return
	}
	response.RespondOK(c, gin.H{"articles": rows})
}

type ControlHandler struct {
	controls services.ControlService
}

func NewControlHandler(controls services.ControlService) *ControlHandler {
	return &ControlHandler{controls: controls}
}

func (h *ControlHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	row, err := h.controls.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "get_control_failed")
		return
	}
	response.RespondOK(c, gin.H{"control": row})
}

func (h *ControlHandler) Create(c *gin.Context) {
	var in services.ControlInput
	if !bindJSON(c, &in) {
		return
	}
	row, err := h.controls.Create(c.Request.Context(), in)
	if err != nil {
		respondServiceError(c, err, "create_control_failed")
		return
	}
	response.RespondCreated(c, gin.H{"control": row})
}

func (h *ControlHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in services.ControlInput
	if !bindJSON(c, &in) {
		return
	}
	row, err := h.controls.Update(c.Request.Context(), id, in)
	if err != nil {
		respondServiceError(c, err, "update_control_failed")
		return
	}
	response.RespondOK(c, gin.H{"control": row})
}

func (h *ControlHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.controls.Delete(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "delete_control_failed")
		return
	}
	response.RespondNoContent(c)
}

type ArticleHandler struct {
	articles services.ArticleService
}

func NewArticleHandler(articles services.ArticleService) *ArticleHandler {
	return &ArticleHandler{articles: articles}
}

func (h *ArticleHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	row, err := h.articles.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "get_article_failed")
		return
	}
	response.RespondOK(c, gin.H{"article": row})
}

func (h *ArticleHandler) Create(c *gin.Context) {
	var in services.ArticleInput
	if !bindJSON(c, &in) {
		return
	}
	row, err := h.articles.Create(c.Request.Context(), in)
	if err != nil {
		respondServiceError(c, err, "create_article_failed")
		return
	}
	response.RespondCreated(c, gin.H{"article": row})
}

func (h *ArticleHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in services.ArticleInput
	if !bindJSON(c, &in) {
		return
	}
	row, err := h.articles.Update(c.Request.Context(), id, in)
	if err != nil {
		respondServiceError(c, err, "update_article_failed")
		return
	}
	response.RespondOK(c, gin.H{"article": row})
}

func (h *ArticleHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.articles.Delete(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "delete_article_failed")
		return
	}
	response.RespondNoContent(c)
}

// GET /articles/:id/provisions
func (h *ArticleHandler) ListProvisions(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	rows, err := h.articles.ListProvisions(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "list_provisions_failed")
		return
	}
	response.RespondOK(c, gin.H{"provisions": rows})
}

type ProvisionHandler struct {
	provisions services.ProvisionService
}

func NewProvisionHandler(provisions services.ProvisionService) *ProvisionHandler {
	return &ProvisionHandler{provisions: provisions}
}

func (h *ProvisionHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	row, err := h.provisions.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "get_provision_failed")
		return
	}
	response.RespondOK(c, gin.H{"provision": row})
}

func (h *ProvisionHandler) Create(c *gin.Context) {
	var in services.ProvisionInput
	if !bindJSON(c, &in) {
		return
	}
	row, err := h.provisions.Create(c.Request.Context(), in)
	if err != nil {
		respondServiceError(c, err, "create_provision_failed")
		return
	}
	response.RespondCreated(c, gin.H{"provision": row})
}

func (h *ProvisionHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in services.ProvisionInput
	if !bindJSON(c, &in) {
		return
	}
	row, err := h.provisions.Update(c.Request.Context(), id, in)
	if err != nil {
		respondServiceError(c, err, "update_provision_failed")
		return
	}
	response.RespondOK(c, gin.H{"provision": row})
}

func (h *ProvisionHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.provisions.Delete(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "delete_provision_failed")
		return
	}
	response.RespondNoContent(c)
}
