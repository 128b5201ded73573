package mailer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/kuotechnology-ui/kindworld-backend/pkg/logger"
)

// snsAPI sns.Client 중 사용하는 부분
type snsAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSAlerter 운영 토픽으로 영구 실패 알림 발행
type SNSAlerter struct {
	client   snsAPI
	topicARN string
}

func NewSNSAlerter(cfg aws.Config, topicARN string) *SNSAlerter {
	return &SNSAlerter{client: sns.NewFromConfig(cfg), topicARN: topicARN}
}

func (a *SNSAlerter) DeliveryFailed(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return err
	}

	_, err = a.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(a.topicARN),
		Subject:  aws.String("Notification delivery failed"),
		Message:  aws.String(string(payload)),
	})
	if err != nil {
		return fmt.Errorf("sns publish: %w", err)
	}
	return nil
}

// LogAlerter SNS 토픽이 없을 때 사용
type LogAlerter struct{}

func NewLogAlerter() *LogAlerter {
	return &LogAlerter{}
}

func (LogAlerter) DeliveryFailed(ctx context.Context, alert Alert) error {
	logger.Error("Notification delivery permanently failed", nil, map[string]interface{}{
		"delivery_id":  alert.DeliveryID,
		"recipient_id": alert.RecipientID,
		"type":         alert.Type,
		"retry_count":  alert.RetryCount,
		"last_failure": alert.LastFailure,
	})
	return nil
}
