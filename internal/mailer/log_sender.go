package mailer

import (
	"context"

	"github.com/kuotechnology-ui/kindworld-backend/pkg/logger"
)

// LogSender 개발 환경용: 실제 발송 없이 로그만 남김
type LogSender struct{}

func NewLogSender() *LogSender {
	return &LogSender{}
}

func (LogSender) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return ErrNoRecipient
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	logger.Info("Email send skipped (log sender)", map[string]interface{}{
		"to":      msg.To,
		"subject": msg.Subject,
	})
	return nil
}
