package mailer

import (
	"context"
	"errors"
)

// ErrNoRecipient 수신 주소 없음
var ErrNoRecipient = errors.New("mailer: recipient address is empty")

// Message 렌더링된 이메일
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Sender 외부 이메일 발송 채널
// 반환된 에러는 발송 큐의 재시도 판단에 그대로 사용된다
//
// 구현체는 ctx 를 반드시 따라야 한다. 발송 큐는 제한 시간이 지나면 Send 를 기다리지 않고
// 해당 건을 재시도 대기로 돌리므로, ctx 취소 후에도 발송을 계속하는 구현은 같은 메일을
// 중복 발송할 수 있다. 취소된 ctx 로 호출되면 발송하지 않고 ctx.Err() 를 반환한다.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Alert 재시도 한도를 넘긴 발송 건 정보
type Alert struct {
	DeliveryID  string `json:"delivery_id"`
	RecipientID string `json:"recipient_id"`
	Type        string `json:"type"`
	RetryCount  int    `json:"retry_count"`
	LastFailure string `json:"last_failure"`
}

// FailureAlerter 영구 실패 알림
type FailureAlerter interface {
	DeliveryFailed(ctx context.Context, alert Alert) error
}
