package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditAction 심사 이력 동작 종류
type AuditAction string

const (
	AuditActionSubmitted          AuditAction = "submitted"
	AuditActionApproved           AuditAction = "approved"
	AuditActionRejected           AuditAction = "rejected"
	AuditActionDocumentsRequested AuditAction = "documents_requested"
	AuditActionResubmitted        AuditAction = "resubmitted"
)

// AuditLogEntry 인증 심사 감사 로그 (추가만 가능, 수정/삭제 없음)
type AuditLogEntry struct {
	ID        string            `gorm:"type:varchar(36);primaryKey" json:"id"`
	RequestID string            `gorm:"type:varchar(36);not null;index" json:"request_id"`
	Action    AuditAction       `gorm:"type:varchar(30);not null;index" json:"action"`
	ActorID   string            `gorm:"type:varchar(36);not null" json:"actor_id"`
	Details   datatypes.JSONMap `json:"details,omitempty"` // previous_status, new_status, failed 등
	IPAddress string            `gorm:"type:varchar(50)" json:"ip_address,omitempty"`
	UserAgent string            `gorm:"type:text" json:"user_agent,omitempty"`
	CreatedAt time.Time         `gorm:"index" json:"created_at"`
}

func (AuditLogEntry) TableName() string {
	return "audit_log_entries"
}

func (e *AuditLogEntry) BeforeCreate(tx *gorm.DB) error {
	assignID(&e.ID)
	return nil
}

// Failed 실패한 시도 기록 여부
func (e *AuditLogEntry) Failed() bool {
	failed, _ := e.Details["failed"].(bool)
	return failed
}
