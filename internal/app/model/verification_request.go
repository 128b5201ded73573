package model

import (
	"time"

	"gorm.io/gorm"
)

// VerificationStatus 인증 심사 상태
type VerificationStatus string

// VerificationStatus 상수 정의
const (
	VerificationStatusPending  VerificationStatus = "pending"  // 검토 대기
	VerificationStatusApproved VerificationStatus = "approved" // 승인됨
	VerificationStatusRejected VerificationStatus = "rejected" // 반려됨
)

// IsTerminal 승인/반려 이후에는 상태가 바뀌지 않는다
func (s VerificationStatus) IsTerminal() bool {
	return s == VerificationStatusApproved || s == VerificationStatusRejected
}

// DocumentType 제출 서류 종류
type DocumentType string

const (
	DocumentTypeRegistration     DocumentType = "registration"      // 단체 등록증
	DocumentTypeTaxExempt        DocumentType = "tax_exempt"        // 비영리 면세 증빙
	DocumentTypeMissionStatement DocumentType = "mission_statement" // 설립 목적 문서
	DocumentTypeOther            DocumentType = "other"             // 기타
)

// PostalAddress 우편 주소 (address_ 접두어로 내장)
type PostalAddress struct {
	Street     string `gorm:"type:varchar(255)" json:"street" validate:"required"`
	City       string `gorm:"type:varchar(100)" json:"city" validate:"required"`
	State      string `gorm:"type:varchar(100)" json:"state" validate:"required"`
	PostalCode string `gorm:"type:varchar(20)" json:"postal_code" validate:"required"`
	Country    string `gorm:"type:varchar(100)" json:"country" validate:"required"`
}

// VerificationRequest 단체 인증 심사 요청
type VerificationRequest struct {
	ID             string `gorm:"type:varchar(36);primaryKey" json:"id"`
	OrganizationID string `gorm:"type:varchar(36);not null;index:idx_verification_requests_org;index:idx_verification_requests_active_org,unique,where:status = 'pending'" json:"organization_id"`

	// 단체 정보 (제출 시점 스냅샷)
	OrganizationName string        `gorm:"not null" json:"organization_name"`
	OrganizationType string        `gorm:"type:varchar(50);index" json:"organization_type"`
	ContactEmail     string        `gorm:"not null" json:"contact_email"`
	ContactPhone     string        `gorm:"type:varchar(50)" json:"contact_phone,omitempty"`
	Website          string        `json:"website,omitempty"`
	Address          PostalAddress `gorm:"embedded;embeddedPrefix:address_" json:"address"`
	MissionStatement string        `gorm:"type:text;not null" json:"mission_statement"`

	Documents []VerificationDocument `gorm:"foreignKey:RequestID" json:"documents"`

	// 심사 상태
	Status          VerificationStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	SubmittedAt     time.Time          `gorm:"not null;index" json:"submitted_at"`
	SubmittedBy     string             `gorm:"type:varchar(36);not null" json:"submitted_by"`
	ReviewedAt      *time.Time         `json:"reviewed_at,omitempty"`                         // 검토 완료 일시
	ReviewedBy      *string            `gorm:"type:varchar(36)" json:"reviewed_by,omitempty"` // 검토한 관리자 ID
	RejectionReason *string            `gorm:"type:text" json:"rejection_reason,omitempty"`   // 반려 사유
	AdminNotes      *string            `gorm:"type:text" json:"admin_notes,omitempty"`        // 관리자 메모

	// 추적 정보 (보안/로그용)
	IPAddress string `gorm:"type:varchar(50)" json:"ip_address,omitempty"` // 제출자 IP
	UserAgent string `gorm:"type:text" json:"user_agent,omitempty"`        // 제출자 User-Agent

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (VerificationRequest) TableName() string {
	return "verification_requests"
}

func (r *VerificationRequest) BeforeCreate(tx *gorm.DB) error {
	assignID(&r.ID)
	return nil
}

// VerificationDocument 심사 요청에 첨부된 서류 (첨부 후 변경 불가)
type VerificationDocument struct {
	ID             string       `gorm:"type:varchar(36);primaryKey" json:"id"`
	RequestID      string       `gorm:"type:varchar(36);not null;index" json:"request_id"`
	Position       int          `gorm:"not null" json:"position"`                  // 제출 순서
	Type           DocumentType `gorm:"type:varchar(30);not null" json:"type"`
	FileName       string       `gorm:"not null" json:"file_name"`
	StorageLocator string       `gorm:"type:text;not null" json:"storage_locator"` // s3://bucket/key 또는 URL
	SizeBytes      int64        `json:"size_bytes"`
	MimeType       string       `gorm:"type:varchar(100)" json:"mime_type"`
	UploadedAt     time.Time    `json:"uploaded_at"`
	Description    *string      `gorm:"type:text" json:"description,omitempty"`
}

func (VerificationDocument) TableName() string {
	return "verification_documents"
}

func (d *VerificationDocument) BeforeCreate(tx *gorm.DB) error {
	assignID(&d.ID)
	return nil
}
