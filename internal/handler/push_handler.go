package handler

import (
	"io"
	"log"
	"net/http"
	"strconv"

	"chatlobby/internal/push"
	"chatlobby/internal/worker"

	"github.com/gin-gonic/gin"
)

// PushHandler is the inbound push webhook: the raw payload a push service
// would hand the worker. Malformed payloads still produce a generic
// notification rather than nothing.
type PushHandler struct {
	worker *worker.Worker
}

func NewPushHandler(w *worker.Worker) *PushHandler {
	return &PushHandler{worker: w}
}

func (h *PushHandler) Receive(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("userID"), 10, 64)
	if err != nil || userID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, 64<<10))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}
	p, err := push.Parse(raw)
	if err != nil {
		log.Printf("[Push] payload parse for user %d: %v", userID, err)
		p = push.Generic()
	}
	if err := h.worker.DisplayPush(c.Request.Context(), uint(userID), p); err != nil {
		log.Printf("[Push] display for user %d: %v", userID, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "display failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "shown"})
}
