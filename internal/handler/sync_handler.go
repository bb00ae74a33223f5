package handler

import (
	"log"
	"net/http"

	"chatlobby/internal/syncer"

	"github.com/gin-gonic/gin"
)

// SyncHandler exposes the sync drains as explicit triggers, the way a sync
// event would wake the worker.
type SyncHandler struct {
	syncer *syncer.Syncer
}

func NewSyncHandler(s *syncer.Syncer) *SyncHandler {
	return &SyncHandler{syncer: s}
}

func (h *SyncHandler) Trigger(c *gin.Context) {
	tag := c.Param("tag")
	if err := h.syncer.Dispatch(c.Request.Context(), tag); err != nil {
		log.Printf("[Sync] drain %q: %v", tag, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "drained", "tag": tag})
}
