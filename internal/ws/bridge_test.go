package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"chatlobby/config"
	"chatlobby/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

func bridgeJWTConfig() *config.JWTConfig {
	return &config.JWTConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessExpiry:  time.Hour,
		RefreshExpiry: 24 * time.Hour,
		Issuer:        "chatlobby-test",
	}
}

func TestBridgeConnectRegistersAndFiresCallback(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := bridgeJWTConfig()
	hub := NewHub()
	connected := make(chan uint, 1)

	r := gin.New()
	r.GET("/ws/bridge", UpgradeBridge(cfg, hub, nil, func(userID uint) {
		connected <- userID
	}))
	srv := httptest.NewServer(r)
	defer srv.Close()

	token, err := auth.GenerateAccessToken(cfg, 7, "dana@example.com")
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/bridge?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	select {
	case id := <-connected:
		if id != 7 {
			t.Fatalf("callback user = %d, want 7", id)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("connect callback never fired")
	}
	if !hub.IsOnline(7) {
		t.Fatal("user must be online after the upgrade")
	}
}

func TestBridgeRejectsMissingToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws/bridge", UpgradeBridge(bridgeJWTConfig(), NewHub(), nil, nil))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws/bridge", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
