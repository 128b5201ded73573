package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DeliveryStatus 이메일 발송 큐 상태
type DeliveryStatus string

const (
	DeliveryStatusPending   DeliveryStatus = "pending"   // 발송 대기
	DeliveryStatusInFlight  DeliveryStatus = "in_flight" // 워커가 점유 중
	DeliveryStatusSent      DeliveryStatus = "sent"      // 발송 완료
	DeliveryStatusFailed    DeliveryStatus = "failed"    // 재시도 한도 초과
	DeliveryStatusCancelled DeliveryStatus = "cancelled" // 관리자 취소
)

// IsTerminal sent/failed/cancelled 이후에는 상태가 바뀌지 않는다
func (s DeliveryStatus) IsTerminal() bool {
	switch s {
	case DeliveryStatusSent, DeliveryStatusFailed, DeliveryStatusCancelled:
		return true
	}
	return false
}

// DefaultMaxRetries 발송 재시도 한도
const DefaultMaxRetries = 3

// QueuedDelivery 이메일 발송 대기열 항목
type QueuedDelivery struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 수신자
	RecipientID    string `gorm:"type:varchar(36);not null;index" json:"recipient_id"`
	RecipientEmail string `gorm:"not null" json:"recipient_email"`

	// 렌더링된 내용
	NotificationType NotificationType `gorm:"type:varchar(50);not null" json:"notification_type"`
	TemplateKey      string           `gorm:"type:varchar(50)" json:"template_key"`
	Title            string           `gorm:"type:text" json:"title"`
	Message          string           `gorm:"type:text" json:"message"`
	EmailSubject     string           `gorm:"type:text" json:"email_subject"`
	EmailHTML        string           `gorm:"type:text" json:"-"`
	EmailText        string           `gorm:"type:text" json:"-"`

	// 재시도
	RetryCount    int            `gorm:"not null;default:0" json:"retry_count"`
	MaxRetries    int            `gorm:"not null;default:3" json:"max_retries"`
	Status        DeliveryStatus `gorm:"type:varchar(20);not null;default:'pending';index:idx_queued_deliveries_due,priority:1" json:"status"`
	ScheduledAt   time.Time      `gorm:"not null;index:idx_queued_deliveries_due,priority:2" json:"scheduled_at"`
	SentAt        *time.Time     `json:"sent_at,omitempty"`
	FailureReason string         `gorm:"type:text" json:"failure_reason,omitempty"`

	// 점유 (lease)
	WorkerID       string     `gorm:"type:varchar(64)" json:"worker_id,omitempty"`
	LeaseExpiresAt *time.Time `gorm:"index" json:"lease_expires_at,omitempty"`

	Metadata         datatypes.JSONMap `json:"metadata,omitempty"`
	RelatedRequestID *string           `gorm:"type:varchar(36);index" json:"related_request_id,omitempty"`
}

func (QueuedDelivery) TableName() string {
	return "queued_deliveries"
}

func (d *QueuedDelivery) BeforeCreate(tx *gorm.DB) error {
	assignID(&d.ID)
	return nil
}
