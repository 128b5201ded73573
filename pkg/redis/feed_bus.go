package redis

import (
	"context"

	"github.com/kuotechnology-ui/kindworld-backend/internal/app/model"
	"github.com/kuotechnology-ui/kindworld-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// DefaultFeedChannel 알림 피드 pub/sub 채널
const DefaultFeedChannel = "kindworld:notifications"

// FeedHandler 수신한 피드 이벤트를 로컬 세션으로 전달
type FeedHandler func(userID string, payload []byte)

// FeedBus 여러 서버 인스턴스 간 알림 피드 전파
// 알림을 만든 인스턴스와 사용자가 연결된 인스턴스가 다를 수 있음
type FeedBus struct {
	client  *redis.Client
	channel string
}

// NewFeedBus channel이 비어 있으면 DefaultFeedChannel 사용
func NewFeedBus(c *redis.Client, channel string) *FeedBus {
	if channel == "" {
		channel = DefaultFeedChannel
	}
	return &FeedBus{client: c, channel: channel}
}

// PublishNotification 새 알림 이벤트 발행
func (b *FeedBus) PublishNotification(ctx context.Context, n *model.Notification, unreadCount int64) error {
	return b.publish(ctx, model.FeedEvent{
		Type:         model.FeedEventNewNotification,
		UserID:       n.UserID,
		Notification: n,
		UnreadCount:  unreadCount,
	})
}

// PublishUnreadCount 안읽은 개수 이벤트 발행
func (b *FeedBus) PublishUnreadCount(ctx context.Context, userID string, unreadCount int64) error {
	return b.publish(ctx, model.FeedEvent{
		Type:        model.FeedEventUnreadCount,
		UserID:      userID,
		UnreadCount: unreadCount,
	})
}

func (b *FeedBus) publish(ctx context.Context, event model.FeedEvent) error {
	payload, err := event.Encode()
	if err != nil {
		return err
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		logger.Error("Failed to publish feed event", err, map[string]interface{}{
			"user_id": event.UserID,
			"type":    event.Type,
		})
		return err
	}
	return nil
}

// Subscribe ctx가 끝날 때까지 이벤트를 받아 handler로 전달
func (b *FeedBus) Subscribe(ctx context.Context, handler FeedHandler) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	// 구독 확인
	if _, err := sub.Receive(ctx); err != nil {
		return err
	}

	logger.Info("Subscribed to notification feed", map[string]interface{}{
		"channel": b.channel,
	})

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			event, err := model.DecodeFeedEvent([]byte(msg.Payload))
			if err != nil {
				logger.Warn("Dropping malformed feed event", map[string]interface{}{
					"error": err.Error(),
				})
				continue
			}
			handler(event.UserID, []byte(msg.Payload))
		}
	}
}
