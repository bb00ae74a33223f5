package handler

import (
	"log"
	"net/http"

	"chatlobby/internal/middleware"
	"chatlobby/internal/notify"

	"github.com/gin-gonic/gin"
)

// EventHandler receives the raw app emissions (messages, calls, status
// updates) and hands them to the notification manager for policy evaluation.
type EventHandler struct {
	manager *notify.Manager
}

func NewEventHandler(manager *notify.Manager) *EventHandler {
	return &EventHandler{manager: manager}
}

func (h *EventHandler) Message(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var ev notify.MessageEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.manager.HandleMessage(c.Request.Context(), userID, ev); err != nil {
		log.Printf("[Events] message event for user %d: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delivery failed"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

func (h *EventHandler) Call(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var ev notify.CallEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.manager.HandleCall(c.Request.Context(), userID, ev); err != nil {
		log.Printf("[Events] call event for user %d: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delivery failed"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

func (h *EventHandler) Status(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var ev notify.StatusEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.manager.HandleStatus(c.Request.Context(), userID, ev); err != nil {
		log.Printf("[Events] status event for user %d: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delivery failed"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}
