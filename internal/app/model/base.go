package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// newID 새 레코드 ID (UUID 문자열)
func newID() string {
	return uuid.NewString()
}

// assignID ID가 비어 있으면 생성 (BeforeCreate 훅 공용)
func assignID(id *string) {
	if *id == "" {
		*id = newID()
	}
}

// DefaultPageSize 목록 조회 기본 크기
const DefaultPageSize = 50

// Paginate offset/limit 스코프
func Paginate(page, pageSize int) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if pageSize <= 0 {
			return db
		}
		if page < 1 {
			page = 1
		}
		return db.Offset((page - 1) * pageSize).Limit(pageSize)
	}
}
