package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestParseError_ServiceKinds(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"invalid input", Invalid(map[string]string{"name": "필수 항목입니다"}), http.StatusBadRequest, ValidationInvalidInput},
		{"not found", New(KindNotFound, VerificationNotFound, "없음"), http.StatusNotFound, VerificationNotFound},
		{"already processed", New(KindAlreadyProcessed, VerificationAlreadyProcessed, "처리됨"), http.StatusConflict, VerificationAlreadyProcessed},
		{"already pending", New(KindAlreadyPending, VerificationAlreadyPending, "대기 중"), http.StatusConflict, VerificationAlreadyPending},
		{"unauthorized", New(KindUnauthorized, AuthzAdminOnly, "관리자만"), http.StatusForbidden, AuthzAdminOnly},
		{"delivery failure", New(KindDeliveryFailure, "", "발송 실패"), http.StatusBadGateway, DeliverySendFailed},
		{"wrapped by caller", fmt.Errorf("approve: %w", New(KindNotFound, "", "없음")), http.StatusNotFound, ResourceNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := ParseError(tt.err, "verification approve")
			assert.Equal(t, tt.wantStatus, info.Status)
			assert.Equal(t, tt.wantCode, info.Code)
		})
	}
}

func TestParseError_PersistenceHidesCause(t *testing.T) {
	err := Persistence("insert failed", stderrors.New(`pq: relation "verification_requests" does not exist`))

	info := ParseError(err, "verification submit")

	assert.Equal(t, http.StatusInternalServerError, info.Status)
	assert.Equal(t, KindPersistence, info.Kind)
	assert.Equal(t, InternalDatabaseError, info.Code)
	assert.NotContains(t, info.Message, "pq:")
	assert.Contains(t, info.Message, "제출")
}

func TestParseError_NonServiceErrors(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, ParseError(gorm.ErrRecordNotFound, "notification read").Status)
	assert.Equal(t, "알림을 찾을 수 없습니다", ParseError(gorm.ErrRecordNotFound, "notification read").Message)
	assert.Equal(t, http.StatusConflict, ParseError(gorm.ErrDuplicatedKey, "submit").Status)
	assert.Equal(t, http.StatusBadGateway, ParseError(context.DeadlineExceeded, "send").Status)

	info := ParseError(stderrors.New("boom"), "")
	assert.Equal(t, http.StatusInternalServerError, info.Status)
	assert.Equal(t, InternalServerError, info.Code)
	assert.NotContains(t, info.Message, "boom")
}

func TestError_IsMatchesKindAndCode(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", New(KindAlreadyProcessed, VerificationAlreadyProcessed, "처리됨"))

	assert.ErrorIs(t, err, ErrAlreadyProcessed)
	assert.ErrorIs(t, err, New(KindAlreadyProcessed, VerificationAlreadyProcessed, ""))
	assert.NotErrorIs(t, err, New(KindAlreadyProcessed, DeliveryAlreadyFinished, ""))
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Equal(t, KindAlreadyProcessed, KindOf(err))
	assert.Equal(t, Kind(""), KindOf(stderrors.New("plain")))
}
