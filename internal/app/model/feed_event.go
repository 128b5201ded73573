package model

import "encoding/json"

// FeedEventType 실시간 알림 피드 이벤트 종류
type FeedEventType string

const (
	FeedEventNewNotification FeedEventType = "new_notification"
	FeedEventUnreadCount     FeedEventType = "unread_count"
)

// FeedEvent 알림 피드 push 메시지 (websocket/redis 공용)
type FeedEvent struct {
	Type         FeedEventType `json:"type"`
	UserID       string        `json:"user_id"`
	Notification *Notification `json:"notification,omitempty"`
	UnreadCount  int64         `json:"unread_count"`
}

// Encode JSON 직렬화
func (e FeedEvent) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// DecodeFeedEvent JSON 역직렬화
func DecodeFeedEvent(data []byte) (FeedEvent, error) {
	var e FeedEvent
	err := json.Unmarshal(data, &e)
	return e, err
}
