package service

import (
	"errors"

	apperrors "github.com/kuotechnology-ui/kindworld-backend/internal/errors"
	"gorm.io/gorm"
)

// 서비스 에러 (errors.Is로 분류/코드 비교)
var (
	ErrActorRequired        = apperrors.New(apperrors.KindInvalidInput, apperrors.AuthActorMissing, "작업 수행자 ID가 필요합니다")
	ErrInvalidInput         = apperrors.New(apperrors.KindInvalidInput, apperrors.ValidationInvalidInput, "입력값이 올바르지 않습니다")
	ErrNoDocuments          = apperrors.New(apperrors.KindInvalidInput, apperrors.VerificationNoDocuments, "최소 1개 이상의 서류를 첨부해야 합니다")
	ErrReasonRequired       = apperrors.New(apperrors.KindInvalidInput, apperrors.VerificationReasonRequired, "반려 사유를 입력해주세요")
	ErrDocumentsRequired    = apperrors.New(apperrors.KindInvalidInput, apperrors.ValidationRequired, "요청할 서류 이름을 입력해주세요")
	ErrRequestNotFound      = apperrors.New(apperrors.KindNotFound, apperrors.VerificationNotFound, "인증 심사 요청을 찾을 수 없습니다")
	ErrDocumentNotFound     = apperrors.New(apperrors.KindNotFound, apperrors.VerificationDocumentNotFound, "서류를 찾을 수 없습니다")
	ErrOrganizationNotFound = apperrors.New(apperrors.KindNotFound, apperrors.OrganizationNotFound, "단체를 찾을 수 없습니다")
	ErrNotificationNotFound = apperrors.New(apperrors.KindNotFound, apperrors.NotificationNotFound, "알림을 찾을 수 없습니다")
	ErrDeliveryNotFound     = apperrors.New(apperrors.KindNotFound, apperrors.DeliveryNotFound, "발송 건을 찾을 수 없습니다")
	ErrNoAdmins             = apperrors.New(apperrors.KindNotFound, apperrors.NotificationNoAdmins, "알림을 받을 관리자가 없습니다")
	ErrAlreadyProcessed     = apperrors.New(apperrors.KindAlreadyProcessed, apperrors.VerificationAlreadyProcessed, "이미 처리된 심사 요청입니다")
	ErrDeliveryFinished     = apperrors.New(apperrors.KindAlreadyProcessed, apperrors.DeliveryAlreadyFinished, "이미 종료된 발송 건입니다")
	ErrAlreadyPending       = apperrors.New(apperrors.KindAlreadyPending, apperrors.VerificationAlreadyPending, "이미 심사 중인 요청이 있습니다")
	ErrNotAdmin             = apperrors.New(apperrors.KindUnauthorized, apperrors.AuthzAdminOnly, "관리자만 처리할 수 있습니다")
	ErrNotOwner             = apperrors.New(apperrors.KindUnauthorized, apperrors.AuthzOwnerOnly, "단체 담당자만 제출할 수 있습니다")
	ErrNotRecipient         = apperrors.New(apperrors.KindUnauthorized, apperrors.AuthzForbidden, "본인의 알림만 읽음 처리할 수 있습니다")
)

// asServiceError 서비스 에러는 그대로, 그 외 저장소 에러는 PERSISTENCE_ERROR로 감쌈
func asServiceError(err error, message string) error {
	if err == nil {
		return nil
	}
	var svcErr *apperrors.Error
	if errors.As(err, &svcErr) {
		return err
	}
	return apperrors.Persistence(message, err)
}

// notFoundOr gorm.ErrRecordNotFound면 notFound, 아니면 PERSISTENCE_ERROR
func notFoundOr(err error, notFound error, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return apperrors.Persistence(message, err)
}
