package model

import (
	"time"

	"gorm.io/gorm"
)

// OrganizationVerificationStatus 단체의 외부 공개 인증 상태
type OrganizationVerificationStatus string

const (
	OrgStatusUnverified OrganizationVerificationStatus = "unverified" // 미신청
	OrgStatusPending    OrganizationVerificationStatus = "pending"    // 심사 중
	OrgStatusApproved   OrganizationVerificationStatus = "approved"   // 인증 완료
	OrgStatusRejected   OrganizationVerificationStatus = "rejected"   // 반려
)

// Organization 단체
type Organization struct {
	ID                 string                         `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name               string                         `gorm:"not null" json:"name"`
	Type               string                         `gorm:"type:varchar(50)" json:"type"`
	OwnerUserID        string                         `gorm:"type:varchar(36);not null;index" json:"owner_user_id"`                   // 단체 담당자 (심사 결과 알림 수신자)
	VerificationStatus OrganizationVerificationStatus `gorm:"type:varchar(20);default:'unverified';index" json:"verification_status"`
	VerifiedAt         *time.Time                     `json:"verified_at,omitempty"`
	CreatedAt          time.Time                      `json:"created_at"`
	UpdatedAt          time.Time                      `json:"updated_at"`

	Owner *User `gorm:"foreignKey:OwnerUserID" json:"owner,omitempty"`
}

func (Organization) TableName() string {
	return "organizations"
}

func (o *Organization) BeforeCreate(tx *gorm.DB) error {
	assignID(&o.ID)
	return nil
}
