package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kuotechnology-ui/kindworld-backend/internal/app/model"
	"github.com/kuotechnology-ui/kindworld-backend/internal/app/repository"
	"github.com/kuotechnology-ui/kindworld-backend/pkg/logger"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MinMissionStatementLength 설립 목적 최소 글자 수
const MinMissionStatementLength = 50

// SubmissionForm 인증 심사 신청서
type SubmissionForm struct {
	OrganizationName string              `json:"organization_name" validate:"required"`
	OrganizationType string              `json:"organization_type" validate:"required"`
	ContactEmail     string              `json:"contact_email" validate:"required,contact_email"`
	ContactPhone     string              `json:"contact_phone"`
	Website          string              `json:"website"`
	Address          model.PostalAddress `json:"address"`
	MissionStatement string              `json:"mission_statement" validate:"required,min=50"`

	// 추적 정보 (컨트롤러에서 채움)
	IPAddress string `json:"-"`
	UserAgent string `json:"-"`
}

func (f *SubmissionForm) normalize() {
	f.OrganizationName = strings.TrimSpace(f.OrganizationName)
	f.OrganizationType = strings.TrimSpace(f.OrganizationType)
	f.ContactEmail = strings.TrimSpace(f.ContactEmail)
	f.ContactPhone = strings.TrimSpace(f.ContactPhone)
	f.Website = strings.TrimSpace(f.Website)
	f.MissionStatement = strings.TrimSpace(f.MissionStatement)
	f.Address.Street = strings.TrimSpace(f.Address.Street)
	f.Address.City = strings.TrimSpace(f.Address.City)
	f.Address.State = strings.TrimSpace(f.Address.State)
	f.Address.PostalCode = strings.TrimSpace(f.Address.PostalCode)
	f.Address.Country = strings.TrimSpace(f.Address.Country)
}

// DocumentInput 제출 서류 (업로드가 끝난 저장 위치만 받음)
type DocumentInput struct {
	Type           model.DocumentType `json:"type" validate:"required,oneof=registration tax_exempt mission_statement other"`
	FileName       string             `json:"file_name" validate:"required"`
	StorageLocator string             `json:"storage_locator" validate:"required"`
	SizeBytes      int64              `json:"size_bytes" validate:"gte=0"`
	MimeType       string             `json:"mime_type"`
	Description    *string            `json:"description"`
	UploadedAt     *time.Time         `json:"uploaded_at"`
}

// VerificationService 단체 인증 심사 워크플로
type VerificationService interface {
	Submit(ctx context.Context, orgID, actorID string, form SubmissionForm, documents []DocumentInput) (*model.VerificationRequest, error)
	Approve(ctx context.Context, requestID, adminID string, notes *string) (*model.VerificationRequest, error)
	Reject(ctx context.Context, requestID, adminID, reason string, notes *string) (*model.VerificationRequest, error)
	RequestAdditionalDocuments(ctx context.Context, requestID, adminID string, documentNames []string, notes *string) error
	GetStatus(ctx context.Context, orgID string) (*model.VerificationRequest, error)
	GetRequest(ctx context.Context, requestID string) (*model.VerificationRequest, error)
}

type verificationService struct {
	db               *gorm.DB
	verificationRepo repository.VerificationRepository
	orgRepo          repository.OrganizationRepository
	auditRepo        repository.AuditRepository
	userRepo         repository.UserRepository
	queue            DeliveryQueue
	now              func() time.Time
}

func NewVerificationService(
	db *gorm.DB,
	verificationRepo repository.VerificationRepository,
	orgRepo repository.OrganizationRepository,
	auditRepo repository.AuditRepository,
	userRepo repository.UserRepository,
	queue DeliveryQueue,
) VerificationService {
	return &verificationService{
		db:               db,
		verificationRepo: verificationRepo,
		orgRepo:          orgRepo,
		auditRepo:        auditRepo,
		userRepo:         userRepo,
		queue:            queue,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

// Submit 인증 심사 신청
// 검증을 모두 마친 뒤 요청/서류/감사 로그/단체 상태를 한 트랜잭션으로 기록
func (s *verificationService) Submit(
	ctx context.Context,
	orgID, actorID string,
	form SubmissionForm,
	documents []DocumentInput,
) (*model.VerificationRequest, error) {
	if strings.TrimSpace(actorID) == "" {
		return nil, ErrActorRequired
	}

	form.normalize()
	fields := validateStruct(form, "")
	for i, doc := range documents {
		fields = mergeFields(fields, validateStruct(doc, fmt.Sprintf("documents[%d].", i)))
	}
	if len(fields) > 0 {
		return nil, invalidFields(fields)
	}
	if len(documents) == 0 {
		return nil, ErrNoDocuments
	}

	org, err := s.orgRepo.FindByID(ctx, orgID)
	if err != nil {
		return nil, notFoundOr(err, ErrOrganizationNotFound, "failed to load organization")
	}
	if org.OwnerUserID != actorID {
		return nil, ErrNotOwner
	}

	now := s.now()
	req := &model.VerificationRequest{
		OrganizationID:   org.ID,
		OrganizationName: form.OrganizationName,
		OrganizationType: form.OrganizationType,
		ContactEmail:     form.ContactEmail,
		ContactPhone:     form.ContactPhone,
		Website:          form.Website,
		Address:          form.Address,
		MissionStatement: form.MissionStatement,
		Status:           model.VerificationStatusPending,
		SubmittedAt:      now,
		SubmittedBy:      actorID,
		IPAddress:        form.IPAddress,
		UserAgent:        form.UserAgent,
		Documents:        buildDocuments(documents, now),
	}

	var action model.AuditAction
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		verificationRepo := s.verificationRepo.WithTx(tx)

		previous, err := verificationRepo.FindLatestByOrganization(ctx, org.ID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		action = model.AuditActionSubmitted
		details := datatypes.JSONMap{
			"new_status": string(model.VerificationStatusPending),
			"documents":  len(documents),
		}
		if previous != nil {
			if previous.Status == model.VerificationStatusPending {
				return ErrAlreadyPending
			}
			if previous.Status == model.VerificationStatusRejected {
				action = model.AuditActionResubmitted
			}
			details["previous_request_id"] = previous.ID
			details["previous_status"] = string(previous.Status)
		}

		// 부분 유니크 인덱스가 동시 제출을 막음
		if err := verificationRepo.Create(ctx, req); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyPending
			}
			return err
		}

		if err := s.auditRepo.WithTx(tx).Append(ctx, &model.AuditLogEntry{
			RequestID: req.ID,
			Action:    action,
			ActorID:   actorID,
			Details:   details,
			IPAddress: form.IPAddress,
			UserAgent: form.UserAgent,
		}); err != nil {
			return err
		}

		return s.orgRepo.WithTx(tx).UpdateVerificationStatus(ctx, org.ID, model.OrgStatusPending, nil)
	})
	if err != nil {
		if !errors.Is(err, ErrAlreadyPending) {
			logger.Error("Failed to submit verification request", err, map[string]interface{}{
				"organization_id": org.ID,
				"actor_id":        actorID,
			})
		}
		return nil, asServiceError(err, "failed to submit verification request")
	}

	logger.Info("Verification request submitted", map[string]interface{}{
		"request_id":      req.ID,
		"organization_id": org.ID,
		"action":          action,
		"documents":       len(req.Documents),
	})

	s.notifySubmitted(ctx, req)
	return req, nil
}

func buildDocuments(inputs []DocumentInput, now time.Time) []model.VerificationDocument {
	docs := make([]model.VerificationDocument, 0, len(inputs))
	for i, in := range inputs {
		uploadedAt := now
		if in.UploadedAt != nil {
			uploadedAt = in.UploadedAt.UTC()
		}
		docs = append(docs, model.VerificationDocument{
			Position:       i,
			Type:           in.Type,
			FileName:       strings.TrimSpace(in.FileName),
			StorageLocator: strings.TrimSpace(in.StorageLocator),
			SizeBytes:      in.SizeBytes,
			MimeType:       in.MimeType,
			UploadedAt:     uploadedAt,
			Description:    in.Description,
		})
	}
	return docs
}

// Approve 승인
func (s *verificationService) Approve(ctx context.Context, requestID, adminID string, notes *string) (*model.VerificationRequest, error) {
	return s.decide(ctx, requestID, adminID, model.VerificationStatusApproved, nil, trimmedOrNil(notes))
}

// Reject 반려 (사유 필수)
func (s *verificationService) Reject(ctx context.Context, requestID, adminID, reason string, notes *string) (*model.VerificationRequest, error) {
	if strings.TrimSpace(adminID) == "" {
		return nil, ErrActorRequired
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}
	return s.decide(ctx, requestID, adminID, model.VerificationStatusRejected, &reason, trimmedOrNil(notes))
}

// decide pending → approved/rejected
// 상태 확인과 변경은 조건부 UPDATE로 원자적으로 수행
func (s *verificationService) decide(
	ctx context.Context,
	requestID, adminID string,
	status model.VerificationStatus,
	reason, notes *string,
) (*model.VerificationRequest, error) {
	req, err := s.loadPendingForAdmin(ctx, requestID, adminID)
	if err != nil {
		return nil, err
	}

	action := model.AuditActionApproved
	orgStatus := model.OrgStatusApproved
	if status == model.VerificationStatusRejected {
		action = model.AuditActionRejected
		orgStatus = model.OrgStatusRejected
	}

	now := s.now()
	details := datatypes.JSONMap{
		"previous_status": string(req.Status),
		"new_status":      string(status),
	}
	if reason != nil {
		details["reason"] = *reason
	}
	if notes != nil {
		details["notes"] = *notes
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		applied, err := s.verificationRepo.WithTx(tx).ApplyDecision(ctx, req.ID, repository.ReviewDecision{
			Status:          status,
			ReviewedBy:      adminID,
			ReviewedAt:      now,
			RejectionReason: reason,
			AdminNotes:      notes,
		})
		if err != nil {
			return err
		}
		if !applied {
			// 다른 관리자가 먼저 처리함
			return ErrAlreadyProcessed
		}

		var verifiedAt *time.Time
		if status == model.VerificationStatusApproved {
			verifiedAt = &now
		}
		if err := s.orgRepo.WithTx(tx).UpdateVerificationStatus(ctx, req.OrganizationID, orgStatus, verifiedAt); err != nil {
			return err
		}

		return s.auditRepo.WithTx(tx).Append(ctx, &model.AuditLogEntry{
			RequestID: req.ID,
			Action:    action,
			ActorID:   adminID,
			Details:   details,
		})
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyProcessed) {
			return nil, ErrAlreadyProcessed
		}
		s.recordFailedAttempt(ctx, req.ID, action, adminID, details, err)
		return nil, asServiceError(err, "failed to apply verification decision")
	}

	logger.Info("Verification request reviewed", map[string]interface{}{
		"request_id":      req.ID,
		"organization_id": req.OrganizationID,
		"status":          status,
		"admin_id":        adminID,
	})

	updated, err := s.verificationRepo.FindByID(ctx, req.ID)
	if err != nil {
		return nil, asServiceError(err, "failed to reload verification request")
	}
	s.notifyDecision(ctx, updated)
	return updated, nil
}

// RequestAdditionalDocuments 추가 서류 요청 (상태 변화 없음, 반복 가능)
func (s *verificationService) RequestAdditionalDocuments(
	ctx context.Context,
	requestID, adminID string,
	documentNames []string,
	notes *string,
) error {
	names := make([]string, 0, len(documentNames))
	for _, name := range documentNames {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	if strings.TrimSpace(adminID) == "" {
		return ErrActorRequired
	}
	if len(names) == 0 {
		return ErrDocumentsRequired
	}

	req, err := s.loadPendingForAdmin(ctx, requestID, adminID)
	if err != nil {
		return err
	}
	notes = trimmedOrNil(notes)

	details := datatypes.JSONMap{
		"previous_status": string(req.Status),
		"new_status":      string(req.Status),
		"documents":       names,
	}
	if notes != nil {
		details["notes"] = *notes
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.verificationRepo.WithTx(tx).FindByID(ctx, req.ID)
		if err != nil {
			return err
		}
		if current.Status != model.VerificationStatusPending {
			return ErrAlreadyProcessed
		}
		return s.auditRepo.WithTx(tx).Append(ctx, &model.AuditLogEntry{
			RequestID: req.ID,
			Action:    model.AuditActionDocumentsRequested,
			ActorID:   adminID,
			Details:   details,
		})
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyProcessed) {
			return ErrAlreadyProcessed
		}
		s.recordFailedAttempt(ctx, req.ID, model.AuditActionDocumentsRequested, adminID, details, err)
		return asServiceError(err, "failed to request additional documents")
	}

	logger.Info("Additional documents requested", map[string]interface{}{
		"request_id": req.ID,
		"admin_id":   adminID,
		"documents":  names,
	})

	s.notifyDocumentsRequired(ctx, req, names, notes)
	return nil
}

// loadPendingForAdmin 수행자/권한/존재/상태를 쓰기 전에 모두 확인
func (s *verificationService) loadPendingForAdmin(ctx context.Context, requestID, adminID string) (*model.VerificationRequest, error) {
	if strings.TrimSpace(adminID) == "" {
		return nil, ErrActorRequired
	}

	admin, err := s.userRepo.FindByID(ctx, adminID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotAdmin
		}
		return nil, asServiceError(err, "failed to load admin user")
	}
	if !admin.IsAdmin() {
		return nil, ErrNotAdmin
	}

	req, err := s.verificationRepo.FindByID(ctx, requestID)
	if err != nil {
		return nil, notFoundOr(err, ErrRequestNotFound, "failed to load verification request")
	}
	if req.Status != model.VerificationStatusPending {
		return nil, ErrAlreadyProcessed
	}
	return req, nil
}

// recordFailedAttempt 저장 실패한 심사 시도를 별도 감사 로그로 남김 (실패해도 무시)
func (s *verificationService) recordFailedAttempt(
	ctx context.Context,
	requestID string,
	action model.AuditAction,
	actorID string,
	details datatypes.JSONMap,
	cause error,
) {
	failed := datatypes.JSONMap{
		"failed": true,
		"error":  cause.Error(),
	}
	for k, v := range details {
		failed[k] = v
	}

	if err := s.auditRepo.Append(ctx, &model.AuditLogEntry{
		RequestID: requestID,
		Action:    action,
		ActorID:   actorID,
		Details:   failed,
	}); err != nil {
		logger.Error("Failed to record failed verification attempt", err, map[string]interface{}{
			"request_id": requestID,
			"action":     action,
			"cause":      cause.Error(),
		})
	}
}

// GetStatus 단체의 가장 최근 요청 (제출 이력이 없으면 nil)
func (s *verificationService) GetStatus(ctx context.Context, orgID string) (*model.VerificationRequest, error) {
	if _, err := s.orgRepo.FindByID(ctx, orgID); err != nil {
		return nil, notFoundOr(err, ErrOrganizationNotFound, "failed to load organization")
	}

	req, err := s.verificationRepo.FindLatestByOrganization(ctx, orgID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, asServiceError(err, "failed to load verification status")
	}
	return req, nil
}

// GetRequest 요청 상세
func (s *verificationService) GetRequest(ctx context.Context, requestID string) (*model.VerificationRequest, error) {
	req, err := s.verificationRepo.FindByID(ctx, requestID)
	if err != nil {
		return nil, notFoundOr(err, ErrRequestNotFound, "failed to load verification request")
	}
	return req, nil
}

// ==================== 알림 (커밋 후, 실패해도 호출은 성공) ====================

func (s *verificationService) notifySubmitted(ctx context.Context, req *model.VerificationRequest) {
	requestID := req.ID
	data := map[string]string{
		"organizationName": req.OrganizationName,
		"organizationType": req.OrganizationType,
		"contactEmail":     req.ContactEmail,
		"requestId":        req.ID,
	}
	metadata := map[string]interface{}{
		"organization_id": req.OrganizationID,
		"request_id":      req.ID,
	}

	if _, err := s.queue.Enqueue(ctx, EnqueueRequest{
		UserID:           req.SubmittedBy,
		Type:             model.NotificationTypeVerificationPending,
		Title:            "Verification request submitted",
		Message:          fmt.Sprintf("Your verification request for %s has been submitted and is awaiting review.", req.OrganizationName),
		TemplateData:     data,
		RelatedRequestID: &requestID,
		Metadata:         metadata,
	}); err != nil {
		logNotifyFailure("submitter", req.ID, err)
	}

	if _, err := s.queue.NotifyAdmins(ctx, AdminBroadcast{
		Type:             model.NotificationTypeVerificationPending,
		Title:            "New verification request",
		Message:          fmt.Sprintf("%s submitted a verification request.", req.OrganizationName),
		TemplateKey:      TemplateAdminVerificationSubmitted,
		TemplateData:     data,
		RelatedRequestID: &requestID,
		Metadata:         metadata,
	}); err != nil {
		logNotifyFailure("admins", req.ID, err)
	}
}

func (s *verificationService) notifyDecision(ctx context.Context, req *model.VerificationRequest) {
	requestID := req.ID
	data := map[string]string{
		"organizationName": req.OrganizationName,
		"requestId":        req.ID,
	}
	if req.AdminNotes != nil {
		data["adminNotes"] = *req.AdminNotes
	}

	enqueue := EnqueueRequest{
		UserID:           s.organizationRecipient(ctx, req),
		TemplateData:     data,
		RelatedRequestID: &requestID,
		Metadata: map[string]interface{}{
			"organization_id": req.OrganizationID,
			"request_id":      req.ID,
			"status":          string(req.Status),
		},
	}

	if req.Status == model.VerificationStatusApproved {
		enqueue.Type = model.NotificationTypeVerificationApproved
		enqueue.Title = "Organization verified"
		enqueue.Message = fmt.Sprintf("Congratulations! %s is now a verified organization.", req.OrganizationName)
	} else {
		reason := ""
		if req.RejectionReason != nil {
			reason = *req.RejectionReason
		}
		data["rejectionReason"] = reason
		enqueue.Type = model.NotificationTypeVerificationRejected
		enqueue.Title = "Verification request not approved"
		enqueue.Message = fmt.Sprintf("Your verification request for %s was not approved: %s. You can update your information and resubmit.", req.OrganizationName, reason)
	}

	if _, err := s.queue.Enqueue(ctx, enqueue); err != nil {
		logNotifyFailure("organization", req.ID, err)
	}
}

func (s *verificationService) notifyDocumentsRequired(ctx context.Context, req *model.VerificationRequest, names []string, notes *string) {
	requestID := req.ID
	list := strings.Join(names, ", ")
	data := map[string]string{
		"organizationName":  req.OrganizationName,
		"requestId":         req.ID,
		"requiredDocuments": list,
	}
	if notes != nil {
		data["adminNotes"] = *notes
	}

	if _, err := s.queue.Enqueue(ctx, EnqueueRequest{
		UserID:           s.organizationRecipient(ctx, req),
		Type:             model.NotificationTypeDocumentsRequired,
		Title:            "Additional documents required",
		Message:          fmt.Sprintf("Please provide the following documents for %s: %s", req.OrganizationName, list),
		TemplateData:     data,
		RelatedRequestID: &requestID,
		Metadata: map[string]interface{}{
			"organization_id":    req.OrganizationID,
			"request_id":         req.ID,
			"required_documents": names,
		},
	}); err != nil {
		logNotifyFailure("organization", req.ID, err)
	}
}

// organizationRecipient 단체 담당자 (단체 조회 실패 시 제출자)
func (s *verificationService) organizationRecipient(ctx context.Context, req *model.VerificationRequest) string {
	org, err := s.orgRepo.FindByID(ctx, req.OrganizationID)
	if err != nil || org.OwnerUserID == "" {
		return req.SubmittedBy
	}
	return org.OwnerUserID
}

func logNotifyFailure(target, requestID string, err error) {
	logger.Warn("Failed to enqueue verification notification", map[string]interface{}{
		"target":     target,
		"request_id": requestID,
		"error":      err.Error(),
	})
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
