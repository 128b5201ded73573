package errors

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"gorm.io/gorm"
)

// ErrorInfo 에러 정보 구조
type ErrorInfo struct {
	Status  int               // HTTP 상태 코드
	Kind    Kind              // 에러 분류
	Code    string            // 에러 코드 (codes.go 참조)
	Message string            // 사용자 친화적 메시지
	Fields  map[string]string // 필드별 검증 메시지
}

// kindStatus 에러 분류별 HTTP 상태 코드
var kindStatus = map[Kind]int{
	KindInvalidInput:     http.StatusBadRequest,
	KindNotFound:         http.StatusNotFound,
	KindAlreadyProcessed: http.StatusConflict,
	KindAlreadyPending:   http.StatusConflict,
	KindUnauthorized:     http.StatusForbidden,
	KindPersistence:      http.StatusInternalServerError,
	KindDeliveryFailure:  http.StatusBadGateway,
}

// kindDefaultCode 상세 코드가 없는 서비스 에러의 기본 코드
var kindDefaultCode = map[Kind]string{
	KindInvalidInput:     ValidationInvalidInput,
	KindNotFound:         ResourceNotFound,
	KindAlreadyProcessed: ResourceConflict,
	KindAlreadyPending:   ResourceConflict,
	KindUnauthorized:     AuthzForbidden,
	KindPersistence:      InternalDatabaseError,
	KindDeliveryFailure:  DeliverySendFailed,
}

// ParseError 에러를 파싱하여 사용자 친화적인 메시지와 코드로 변환
// 서비스 에러는 분류를 그대로 사용하고, 그 외 에러는 내부 정보를 숨긴다
func ParseError(err error, op string) ErrorInfo {
	if err == nil {
		return ErrorInfo{
			Status:  http.StatusInternalServerError,
			Code:    InternalServerError,
			Message: "서버 오류가 발생했습니다",
		}
	}

	// 1. 서비스 계층 에러
	var svcErr *Error
	if errors.As(err, &svcErr) {
		code := svcErr.Code
		if code == "" {
			code = kindDefaultCode[svcErr.Kind]
		}
		status, ok := kindStatus[svcErr.Kind]
		if !ok {
			status = http.StatusInternalServerError
		}
		message := svcErr.Message
		// 저장소 오류의 원인은 노출하지 않음
		if svcErr.Kind == KindPersistence {
			message = getDefaultErrorMessage(op)
		}
		return ErrorInfo{
			Status:  status,
			Kind:    svcErr.Kind,
			Code:    code,
			Message: message,
			Fields:  svcErr.Fields,
		}
	}

	// 2. GORM 기본 에러
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{
			Status:  http.StatusNotFound,
			Kind:    KindNotFound,
			Code:    ResourceNotFound,
			Message: getNotFoundMessage(op),
		}
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrorInfo{
			Status:  http.StatusConflict,
			Kind:    KindAlreadyPending,
			Code:    ResourceAlreadyExists,
			Message: "이미 존재하는 데이터입니다",
		}
	}

	// 3. 네트워크/연결 에러
	errStrLower := strings.ToLower(err.Error())
	if errors.Is(err, context.DeadlineExceeded) ||
		strings.Contains(errStrLower, "connection refused") ||
		strings.Contains(errStrLower, "no such host") ||
		strings.Contains(errStrLower, "timeout") {
		return ErrorInfo{
			Status:  http.StatusBadGateway,
			Kind:    KindDeliveryFailure,
			Code:    InternalExternalAPI,
			Message: "외부 서비스 연결에 실패했습니다. 잠시 후 다시 시도해주세요",
		}
	}

	// 4. 기본 내부 서버 오류
	return ErrorInfo{
		Status:  http.StatusInternalServerError,
		Kind:    KindPersistence,
		Code:    InternalServerError,
		Message: getDefaultErrorMessage(op),
	}
}

// getNotFoundMessage context에 따른 Not Found 메시지
func getNotFoundMessage(context string) string {
	contextLower := strings.ToLower(context)

	if strings.Contains(contextLower, "verification") || strings.Contains(contextLower, "심사") {
		return "인증 심사 요청을 찾을 수 없습니다"
	}
	if strings.Contains(contextLower, "organization") || strings.Contains(contextLower, "단체") {
		return "단체를 찾을 수 없습니다"
	}
	if strings.Contains(contextLower, "notification") || strings.Contains(contextLower, "알림") {
		return "알림을 찾을 수 없습니다"
	}
	if strings.Contains(contextLower, "delivery") || strings.Contains(contextLower, "발송") {
		return "발송 건을 찾을 수 없습니다"
	}

	return "요청한 데이터를 찾을 수 없습니다"
}

// getDefaultErrorMessage context에 따른 기본 에러 메시지
func getDefaultErrorMessage(context string) string {
	contextLower := strings.ToLower(context)

	if strings.Contains(contextLower, "submit") || strings.Contains(contextLower, "제출") {
		return "제출 중 오류가 발생했습니다. 잠시 후 다시 시도해주세요"
	}
	if strings.Contains(contextLower, "approve") || strings.Contains(contextLower, "reject") || strings.Contains(contextLower, "심사") {
		return "심사 처리 중 오류가 발생했습니다. 잠시 후 다시 시도해주세요"
	}
	if strings.Contains(contextLower, "update") || strings.Contains(contextLower, "수정") {
		return "수정 중 오류가 발생했습니다. 잠시 후 다시 시도해주세요"
	}

	return "서버 오류가 발생했습니다. 잠시 후 다시 시도해주세요"
}
