package errors

// 에러 코드 상수 정의
// 형식: CATEGORY_SPECIFIC_DETAIL
// 프론트엔드에서 이 코드를 기반으로 메시지를 매핑함

const (
	// ==================== 인증 (AUTH_) ====================
	AuthUnauthorized = "AUTH_UNAUTHORIZED"   // 로그인 필요
	AuthTokenExpired = "AUTH_TOKEN_EXPIRED"  // 토큰 만료
	AuthTokenInvalid = "AUTH_TOKEN_INVALID"  // 잘못된 토큰
	AuthActorMissing = "AUTH_ACTOR_REQUIRED" // 작업 수행자 ID 누락

	// ==================== 인가/권한 (AUTHZ_) ====================
	AuthzForbidden    = "AUTHZ_FORBIDDEN"      // 접근 권한 없음
	AuthzRoleNotFound = "AUTHZ_ROLE_NOT_FOUND" // 권한 정보 없음
	AuthzAdminOnly    = "AUTHZ_ADMIN_ONLY"     // 관리자만 가능
	AuthzOwnerOnly    = "AUTHZ_OWNER_ONLY"     // 소유자만 가능

	// ==================== 검증 (VALIDATION_) ====================
	ValidationInvalidInput = "VALIDATION_INVALID_INPUT" // 잘못된 입력
	ValidationInvalidID    = "VALIDATION_INVALID_ID"    // 잘못된 ID
	ValidationRequired     = "VALIDATION_REQUIRED"      // 필수 항목

	// ==================== 리소스 (RESOURCE_) ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"      // 리소스 없음
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS" // 이미 존재
	ResourceConflict      = "RESOURCE_CONFLICT"       // 충돌

	// ==================== 인증 심사 (VERIFICATION_) ====================
	VerificationNotFound         = "VERIFICATION_NOT_FOUND"          // 심사 요청 없음
	VerificationAlreadyPending   = "VERIFICATION_ALREADY_PENDING"    // 이미 심사 중
	VerificationAlreadyProcessed = "VERIFICATION_ALREADY_PROCESSED"  // 이미 처리된 요청
	VerificationNoDocuments      = "VERIFICATION_NO_DOCUMENTS"       // 첨부 서류 없음
	VerificationReasonRequired   = "VERIFICATION_REASON_REQUIRED"    // 반려 사유 필수
	VerificationDocumentNotFound = "VERIFICATION_DOCUMENT_NOT_FOUND" // 서류 없음
	OrganizationNotFound         = "ORGANIZATION_NOT_FOUND"          // 단체 없음

	// ==================== 알림 (NOTIFICATION_) ====================
	NotificationNotFound = "NOTIFICATION_NOT_FOUND" // 알림 없음
	NotificationNoAdmins = "NOTIFICATION_NO_ADMINS" // 알림 받을 관리자 없음

	// ==================== 발송 큐 (DELIVERY_) ====================
	DeliveryNotFound         = "DELIVERY_NOT_FOUND"         // 발송 건 없음
	DeliveryAlreadyFinished  = "DELIVERY_ALREADY_FINISHED"  // 이미 완료된 발송 건
	DeliverySendFailed       = "DELIVERY_SEND_FAILED"       // 채널 발송 실패
	DeliveryRecipientUnknown = "DELIVERY_RECIPIENT_UNKNOWN" // 수신자 주소 없음

	// ==================== 내부 오류 (INTERNAL_) ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"   // 서버 오류
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR" // DB 오류
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"   // 외부 API 오류
)
