package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/kuotechnology-ui/kindworld-backend/internal/app/model"
	"github.com/kuotechnology-ui/kindworld-backend/pkg/logger"
)

const sendBufferSize = 256

var pongPayload = []byte(`{"type":"pong"}`)

// ClientMessage 클라이언트 → 서버 메시지 (현재는 ping 만 사용)
type ClientMessage struct {
	Type string `json:"type"`
}

// Client 사용자 한 명의 WebSocket 세션 (기기마다 하나)
type Client struct {
	Hub    *Hub
	Conn   *Conn
	UserID string
	Send   chan []byte

	rateMu      sync.Mutex
	windowStart time.Time
	windowCount int
}

func NewClient(hub *Hub, conn *Conn, userID string) *Client {
	return &Client{
		Hub:    hub,
		Conn:   conn,
		UserID: userID,
		Send:   make(chan []byte, sendBufferSize),
	}
}

// allow 1초 창 안에서 maxMessagesPerSecond 를 넘으면 false
func (c *Client) allow(now time.Time) (bool, int) {
	c.rateMu.Lock()
	defer c.rateMu.Unlock()
	if now.Sub(c.windowStart) >= time.Second {
		c.windowStart = now
		c.windowCount = 0
	}
	c.windowCount++
	return c.windowCount <= maxMessagesPerSecond, c.windowCount
}

// envelope 허브 루프로 전달되는 메시지
// target 이 있으면 해당 세션에만, 없으면 사용자의 모든 세션에 전달
type envelope struct {
	userID  string
	target  *Client
	payload []byte
}

// Hub 사용자별 알림 피드 세션 관리자
// sessions 는 Run 고루틴에서만 변경되며 조회는 mu 로 보호
type Hub struct {
	sessions   map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	outbound   chan envelope
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		sessions:   make(map[string]map[*Client]struct{}),
		register:   make(chan *Client, sendBufferSize),
		unregister: make(chan *Client, sendBufferSize),
		outbound:   make(chan envelope, 4*sendBufferSize),
	}
}

// Run ctx 가 끝날 때까지 등록/해제/전송을 처리
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.add(client)
		case client := <-h.unregister:
			h.remove(client)
		case msg := <-h.outbound:
			h.deliver(msg)
		}
	}
}

func (h *Hub) add(client *Client) {
	h.mu.Lock()
	set, ok := h.sessions[client.UserID]
	if !ok {
		set = make(map[*Client]struct{})
		h.sessions[client.UserID] = set
	}
	set[client] = struct{}{}
	count := len(set)
	h.mu.Unlock()

	logger.Info("WebSocket client registered", map[string]interface{}{
		"user_id":        client.UserID,
		"total_sessions": count,
	})
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	set := h.sessions[client.UserID]
	if _, ok := set[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(set, client)
	if len(set) == 0 {
		delete(h.sessions, client.UserID)
	}
	remaining := len(set)
	h.mu.Unlock()

	close(client.Send)
	logger.Info("WebSocket client unregistered", map[string]interface{}{
		"user_id":            client.UserID,
		"remaining_sessions": remaining,
	})
}

func (h *Hub) deliver(msg envelope) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.sessions[msg.userID] {
		if msg.target != nil && client != msg.target {
			continue
		}
		select {
		case client.Send <- msg.payload:
		default:
			// 버퍼가 가득 찬 세션은 끊음
			go h.Unregister(client)
			logger.Warn("Client send buffer full, disconnecting", map[string]interface{}{
				"user_id": msg.userID,
			})
		}
	}
}

func (h *Hub) enqueue(msg envelope) {
	select {
	case h.outbound <- msg:
	default:
		// 피드는 조회 API로 다시 가져올 수 있으므로 유실 허용
		logger.Warn("Hub outbound queue full, message dropped", map[string]interface{}{
			"user_id": msg.userID,
		})
	}
}

// SendToUser 사용자의 모든 세션에 payload 전송 (FeedBus 구독 핸들러로도 사용)
func (h *Hub) SendToUser(userID string, payload []byte) {
	h.enqueue(envelope{userID: userID, payload: payload})
}

// PublishNotification 새 알림 이벤트 push
func (h *Hub) PublishNotification(ctx context.Context, n *model.Notification, unreadCount int64) error {
	return h.publish(model.FeedEvent{
		Type:         model.FeedEventNewNotification,
		UserID:       n.UserID,
		Notification: n,
		UnreadCount:  unreadCount,
	})
}

// PublishUnreadCount 안읽은 개수 갱신 이벤트 push
func (h *Hub) PublishUnreadCount(ctx context.Context, userID string, unreadCount int64) error {
	return h.publish(model.FeedEvent{
		Type:        model.FeedEventUnreadCount,
		UserID:      userID,
		UnreadCount: unreadCount,
	})
}

func (h *Hub) publish(event model.FeedEvent) error {
	payload, err := event.Encode()
	if err != nil {
		return err
	}
	h.SendToUser(event.UserID, payload)
	return nil
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// IsUserOnline 연결된 세션이 하나라도 있는지
func (h *Hub) IsUserOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[userID]) > 0
}

// HandleClientMessage 클라이언트 메시지 처리 (ping 에는 해당 세션으로 pong)
func (h *Hub) HandleClientMessage(client *Client, message []byte) {
	if ok, count := client.allow(time.Now()); !ok {
		logger.Warn("Rate limit exceeded", map[string]interface{}{
			"user_id": client.UserID,
			"count":   count,
		})
		return
	}

	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		logger.Warn("Failed to parse client message", map[string]interface{}{
			"user_id": client.UserID,
			"error":   err.Error(),
		})
		return
	}

	if msg.Type == "ping" {
		h.enqueue(envelope{userID: client.UserID, target: client, payload: pongPayload})
	}
}
