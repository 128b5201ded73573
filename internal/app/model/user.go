package model

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string // 사용자 권한 타입

const (
	RoleUser  UserRole = "user"  // 일반 사용자 권한
	RoleNGO   UserRole = "ngo"   // 단체 담당자 권한
	RoleAdmin UserRole = "admin" // 관리자 권한
)

// User 사용자 (인증 심사/알림 수신자 조회용 최소 정보)
type User struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`             // 사용자 ID
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`                 // 이메일
	Name      string    `gorm:"not null" json:"name"`                              // 이름
	Role      UserRole  `gorm:"type:varchar(20);default:'user';index" json:"role"` // 권한
	CreatedAt time.Time `json:"created_at"`                                        // 생성 시각
	UpdatedAt time.Time `json:"updated_at"`                                        // 수정 시각
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	assignID(&u.ID)
	return nil
}

// IsAdmin 관리자 여부
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
