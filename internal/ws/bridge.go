package ws

import (
	"encoding/json"
	"net/http"
	"time"

	"chatlobby/config"
	"chatlobby/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	bridgeWriteWait  = 10 * time.Second
	bridgePongWait   = 60 * time.Second
	bridgePingPeriod = (bridgePongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Frame is one typed bridge message. The Type set is closed (see
// internal/domain); everything else rides in the raw payload.
type Frame struct {
	Type     string                 `json:"type"`
	Key      string                 `json:"key,omitempty"`
	Value    json.RawMessage        `json:"value,omitempty"`
	Settings map[string]interface{} `json:"settings,omitempty"`
	URLs     []string               `json:"urls,omitempty"`
	Count    int                    `json:"count,omitempty"`
}

// MessageSink receives page-to-worker frames read off a bridge connection.
type MessageSink interface {
	HandleFrame(client *Client, frame Frame)
}

// UpgradeBridge upgrades to the cross-context bridge channel; the client
// authenticates with ?token=. Frames from the page are dispatched to sink;
// onConnect fires once per accepted connection, after the client is
// registered, so deferred work (pending notification drains) can start as
// soon as the user has a live page.
func UpgradeBridge(cfg *config.JWTConfig, hub *Hub, sink MessageSink, onConnect func(userID uint)) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "token required"})
			return
		}
		claims, err := auth.ParseAccessToken(cfg, token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		client := &Client{
			UserID: claims.UserID,
			Send:   make(chan []byte, 256),
		}
		hub.Register(client)
		defer client.Close()
		if onConnect != nil {
			go onConnect(client.UserID)
		}

		conn.SetReadDeadline(time.Now().Add(bridgePongWait))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(bridgePongWait))
			return nil
		})
		go writePump(client, conn)

		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var frame Frame
			if err := json.Unmarshal(raw, &frame); err != nil {
				continue
			}
			if sink != nil {
				sink.HandleFrame(client, frame)
			}
		}
	}
}

// writePump copies messages from client.Send to the connection.
func writePump(c *Client, conn *websocket.Conn) {
	ticker := time.NewTicker(bridgePingPeriod)
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-c.Send:
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			conn.SetWriteDeadline(time.Now().Add(bridgeWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(bridgeWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
