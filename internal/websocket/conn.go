package websocket

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/kuotechnology-ui/kindworld-backend/pkg/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10 // pongWait보다 짧아야 함

	// 피드는 서버 → 클라이언트 단방향, 클라이언트는 ping만 보냄
	maxMessageSize       = 512
	maxMessagesPerSecond = 5
)

// Conn WebSocket 연결 래퍼
type Conn struct {
	*websocket.Conn
}

// writeFrame 쓰기 기한을 걸고 프레임 1개 전송
func (c *Conn) writeFrame(messageType int, data []byte) error {
	if err := c.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.WriteMessage(messageType, data)
}

// Serve 읽기/쓰기 루프 시작 (Hub 등록 후 호출)
func (c *Client) Serve() {
	go c.WritePump()
	go c.ReadPump()
}

// ReadPump 연결 유지 확인 + 클라이언트 ping 처리
// 연결이 끊기면 Hub에서 세션을 제거
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("Notification stream closed unexpectedly", map[string]interface{}{
					"user_id": c.UserID,
					"error":   err.Error(),
				})
			}
			return
		}
		c.Hub.HandleClientMessage(c, message)
	}
}

// WritePump 피드 이벤트를 순서대로 전송, 주기적으로 ping
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.Send:
			if !ok {
				// 세션 제거됨
				c.Conn.writeFrame(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.Conn.writeFrame(websocket.TextMessage, event); err != nil {
				logger.Warn("Failed to push feed event", map[string]interface{}{
					"user_id": c.UserID,
					"error":   err.Error(),
				})
				return
			}

		case <-ticker.C:
			if err := c.Conn.writeFrame(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
