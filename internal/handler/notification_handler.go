package handler

import (
	"context"
	"net/http"

	"chatlobby/internal/middleware"
	"chatlobby/internal/notify"
	"chatlobby/internal/worker"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	manager *notify.Manager
	worker  *worker.Worker
}

func NewNotificationHandler(manager *notify.Manager, w *worker.Worker) *NotificationHandler {
	return &NotificationHandler{manager: manager, worker: w}
}

func (h *NotificationHandler) History(c *gin.Context) {
	userID := middleware.GetUserID(c)
	c.JSON(http.StatusOK, gin.H{"notifications": h.manager.History(userID)})
}

type ClickRequest struct {
	Action string            `json:"action"`
	Data   map[string]string `json:"data"`
}

func (h *NotificationHandler) Click(c *gin.Context) {
	userID := middleware.GetUserID(c)
	id := c.Param("id")
	var req ClickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.manager.HandleClick(c.Request.Context(), userID, id, req.Action)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// WorkerClick is the click path for push-shown notifications that never
// passed through the manager. Routing happens in the worker context.
func (h *NotificationHandler) WorkerClick(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req ClickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.worker.HandleNotificationClick(c.Request.Context(), userID, req.Action, req.Data)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *NotificationHandler) Close(c *gin.Context) {
	userID := middleware.GetUserID(c)
	h.manager.HandleClose(userID, c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *NotificationHandler) Badge(c *gin.Context) {
	userID := middleware.GetUserID(c)
	c.JSON(http.StatusOK, gin.H{
		"badge":  h.manager.Badge(userID),
		"active": h.manager.ActiveCount(userID),
		"queued": h.manager.QueueLen(userID),
	})
}

func (h *NotificationHandler) ClearBadge(c *gin.Context) {
	userID := middleware.GetUserID(c)
	h.manager.ClearBadge(userID)
	c.JSON(http.StatusOK, gin.H{"badge": 0})
}

// Foreground marks the user's app visible again: active notifications are
// cleared, the badge resets, and any background reminder stops.
func (h *NotificationHandler) Foreground(c *gin.Context) {
	userID := middleware.GetUserID(c)
	h.manager.AppForeground(userID)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *NotificationHandler) Background(c *gin.Context) {
	userID := middleware.GetUserID(c)
	h.manager.AppBackground(context.Background(), userID)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Online is the connectivity-restored signal: queued notifications drain.
func (h *NotificationHandler) Online(c *gin.Context) {
	go h.manager.AppOnline(context.Background())
	c.JSON(http.StatusAccepted, gin.H{"status": "draining"})
}
