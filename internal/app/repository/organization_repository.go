package repository

import (
	"context"
	"time"

	"github.com/kuotechnology-ui/kindworld-backend/internal/app/model"
	"gorm.io/gorm"
)

// OrganizationRepository 단체 저장소
type OrganizationRepository interface {
	WithTx(tx *gorm.DB) OrganizationRepository
	Create(ctx context.Context, org *model.Organization) error
	FindByID(ctx context.Context, id string) (*model.Organization, error)
	UpdateVerificationStatus(ctx context.Context, id string, status model.OrganizationVerificationStatus, verifiedAt *time.Time) error
}

type organizationRepository struct {
	db *gorm.DB
}

func NewOrganizationRepository(db *gorm.DB) OrganizationRepository {
	return &organizationRepository{db: db}
}

// WithTx 트랜잭션에 묶인 저장소 반환
func (r *organizationRepository) WithTx(tx *gorm.DB) OrganizationRepository {
	return &organizationRepository{db: tx}
}

func (r *organizationRepository) Create(ctx context.Context, org *model.Organization) error {
	return r.db.WithContext(ctx).Create(org).Error
}

func (r *organizationRepository) FindByID(ctx context.Context, id string) (*model.Organization, error) {
	var org model.Organization
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&org).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

// UpdateVerificationStatus 단체의 공개 인증 상태 변경
func (r *organizationRepository) UpdateVerificationStatus(
	ctx context.Context,
	id string,
	status model.OrganizationVerificationStatus,
	verifiedAt *time.Time,
) error {
	result := r.db.WithContext(ctx).Model(&model.Organization{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"verification_status": status,
			"verified_at":         verifiedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
