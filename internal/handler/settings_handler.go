package handler

import (
	"net/http"

	"chatlobby/internal/domain"
	"chatlobby/internal/middleware"
	"chatlobby/internal/notify"
	"chatlobby/internal/repository"

	"github.com/gin-gonic/gin"
)

type SettingsHandler struct {
	manager  *notify.Manager
	userRepo *repository.UserRepository
}

func NewSettingsHandler(manager *notify.Manager, userRepo *repository.UserRepository) *SettingsHandler {
	return &SettingsHandler{manager: manager, userRepo: userRepo}
}

func (h *SettingsHandler) Get(c *gin.Context) {
	userID := middleware.GetUserID(c)
	c.JSON(http.StatusOK, gin.H{"settings": h.manager.Settings(userID)})
}

type UpdateSettingRequest struct {
	Key   string      `json:"key" binding:"required"`
	Value interface{} `json:"value"`
}

func (h *SettingsHandler) Update(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req UpdateSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !h.manager.UpdateSetting(userID, req.Key, req.Value) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown setting key"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": h.manager.Settings(userID)})
}

type PermissionRequest struct {
	Permission string `json:"permission" binding:"required,oneof=default granted denied"`
}

func (h *SettingsHandler) SetPermission(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req PermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.userRepo.UpdatePermission(userID, req.Permission); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	h.manager.SetPermission(c.Request.Context(), userID, req.Permission)
	c.JSON(http.StatusOK, gin.H{"permission": req.Permission})
}

type FCMTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

func (h *SettingsHandler) SetFCMToken(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req FCMTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.userRepo.UpdateFCMToken(userID, req.Token); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// RequestPermission mirrors the browser prompt flow: a default-state user
// asking again stays default until an explicit grant or denial arrives.
func (h *SettingsHandler) RequestPermission(c *gin.Context) {
	userID := middleware.GetUserID(c)
	u, err := h.userRepo.GetByID(userID)
	if err != nil || u == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"permission": u.Permission,
		"prompt":     u.Permission == domain.PermissionDefault,
	})
}
