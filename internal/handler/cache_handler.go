package handler

import (
	"context"
	"net/http"

	"chatlobby/internal/worker"

	"github.com/gin-gonic/gin"
)

type CacheHandler struct {
	worker *worker.Worker
}

func NewCacheHandler(w *worker.Worker) *CacheHandler {
	return &CacheHandler{worker: w}
}

func (h *CacheHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.worker.Status(c.Request.Context()))
}

func (h *CacheHandler) Clear(c *gin.Context) {
	if err := h.worker.ClearCache(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "clear failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}

type PrefetchRequest struct {
	URLs []string `json:"urls" binding:"required"`
}

func (h *CacheHandler) Prefetch(c *gin.Context) {
	var req PrefetchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	go h.worker.Prefetch(context.Background(), req.URLs)
	c.JSON(http.StatusAccepted, gin.H{"status": "prefetching", "count": len(req.URLs)})
}
