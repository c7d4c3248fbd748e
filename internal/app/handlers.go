package app

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/deusflow/technews/internal/logger"
)

type handlers struct {
	svc *Service
}

type fullSummaryRequest struct {
	URL string `json:"url" binding:"required"`
}

type explainRequest struct {
	SelectedText string `json:"selected_text" binding:"required"`
	Context      string `json:"context"`
}

func writeError(c *gin.Context, err error) {
	status, msg := statusOf(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "path", c.Request.URL.Path, "error", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"detail": msg})
}

func queryInt(c *gin.Context, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, badRequest(name + " must be an integer")
	}
	return v, nil
}

func (h *handlers) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Tech News Summarizer API",
		"version": "1.0.0",
		"endpoints": gin.H{
			"news":    "/api/news",
			"health":  "/health",
			"metrics": "/metrics",
		},
	})
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Health())
}

func (h *handlers) metrics(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Stats())
}

func (h *handlers) getNews(c *gin.Context) {
	limit, err := queryInt(c, "limit", 10)
	if err != nil {
		writeError(c, err)
		return
	}
	page, err := queryInt(c, "page", 1)
	if err != nil {
		writeError(c, err)
		return
	}
	force, _ := strconv.ParseBool(c.DefaultQuery("force_refresh", "false"))

	resp, err := h.svc.GetNews(c.Request.Context(), NewsRequest{
		Limit:        limit,
		Page:         page,
		FromDate:     c.Query("from_date"),
		ToDate:       c.Query("to_date"),
		Topic:        c.Query("topic"),
		ForceRefresh: force,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handlers) refresh(c *gin.Context) {
	key, err := h.svc.Refresh(c.Query("from_date"), c.Query("to_date"), c.Query("topic"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Cache cleared for date range: " + key,
		"status":  "success",
	})
}

func (h *handlers) getArticle(c *gin.Context) {
	article, err := h.svc.Article(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, article)
}

func (h *handlers) summarizeFull(c *gin.Context) {
	var req fullSummaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, badRequest("Request body must be JSON with a url field"))
		return
	}
	resp, err := h.svc.SummarizeFull(c.Request.Context(), req.URL)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handlers) explain(c *gin.Context) {
	var req explainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, badRequest("Request body must be JSON with a selected_text field"))
		return
	}
	explanation, err := h.svc.Explain(c.Request.Context(), req.SelectedText, req.Context)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"explanation": explanation})
}
