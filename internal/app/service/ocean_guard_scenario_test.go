package service

import (
	"context"
	"testing"

	"github.com/kuotechnology-ui/kindworld-backend/internal/app/model"
	"github.com/kuotechnology-ui/kindworld-backend/internal/mailer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// 단체 신청 → 관리자 승인 → 중복 승인 거부 → 이메일 발송까지
func TestOceanGuardVerificationScenario(t *testing.T) {
	f := setupWorkflow(t)
	ctx := context.Background()

	a2 := &model.User{Email: "a2@kindworld.org", Name: "A2", Role: model.RoleAdmin}
	require.NoError(t, f.db.Create(a2).Error)
	a1 := f.admin

	// 1. 서류 1건으로 신청
	req, err := f.verification.Submit(ctx, f.org.ID, f.owner.ID, validForm(), validDocuments()[:1])
	require.NoError(t, err)
	assert.Equal(t, model.VerificationStatusPending, req.Status)
	require.Len(t, req.Documents, 1)

	entries := f.auditEntries(t, req.ID)
	require.Len(t, entries, 1)
	assert.Equal(t, model.AuditActionSubmitted, entries[0].Action)

	ownerFeed, err := f.notifications.Feed(ctx, f.owner.ID, 10, false)
	require.NoError(t, err)
	require.Len(t, ownerFeed, 1)
	assert.Equal(t, model.NotificationTypeVerificationPending, ownerFeed[0].Type)

	for _, admin := range []*model.User{a1, a2} {
		feed, err := f.notifications.Feed(ctx, admin.ID, 10, false)
		require.NoError(t, err)
		assert.Len(t, feed, 1, admin.Name)
	}

	// 관리자 목록에 대기 요청으로 노출
	page, err := f.adminQuery.List(ctx, RequestFilter{Status: "pending"})
	require.NoError(t, err)
	require.Len(t, page.Requests, 1)
	assert.Equal(t, req.ID, page.Requests[0].ID)

	// 2. A1 승인
	approved, err := f.verification.Approve(ctx, req.ID, a1.ID, strPtr("Looks good"))
	require.NoError(t, err)
	assert.Equal(t, model.VerificationStatusApproved, approved.Status)
	require.NotNil(t, approved.ReviewedBy)
	assert.Equal(t, a1.ID, *approved.ReviewedBy)
	assert.Equal(t, "Looks good", *approved.AdminNotes)

	entries = f.auditEntries(t, req.ID)
	require.Len(t, entries, 2)
	assert.Equal(t, 1, countActions(entries, model.AuditActionApproved))

	ownerFeed, err = f.notifications.Feed(ctx, f.owner.ID, 10, false)
	require.NoError(t, err)
	require.Len(t, ownerFeed, 2)
	approvedCount := 0
	for _, n := range ownerFeed {
		if n.Type == model.NotificationTypeVerificationApproved {
			approvedCount++
		}
	}
	assert.Equal(t, 1, approvedCount)

	// 3. A2 중복 승인
	_, err = f.verification.Approve(ctx, req.ID, a2.ID, strPtr("Also fine"))
	assert.ErrorIs(t, err, ErrAlreadyProcessed)
	assert.Len(t, f.auditEntries(t, req.ID), 2)

	current, err := f.verification.GetStatus(ctx, f.org.ID)
	require.NoError(t, err)
	assert.Equal(t, a1.ID, *current.ReviewedBy)
	assert.Equal(t, model.OrgStatusApproved, f.reloadOrg(t).VerificationStatus)

	// 4. 이메일: 신청 확인, 관리자 2명, 승인 안내
	var subjects []string
	f.sender.On("Send", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		msg := args.Get(1).(mailer.Message)
		f.feed.mu.Lock()
		subjects = append(subjects, msg.Subject)
		f.feed.mu.Unlock()
	}).Return(nil)

	summary, err := f.queue.ProcessPendingQueue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, summary.Sent)
	assert.ElementsMatch(t, []string{
		"Verification request received for Ocean Guard",
		"New verification request: Ocean Guard",
		"New verification request: Ocean Guard",
		"Ocean Guard is now a verified organization",
	}, subjects)

	stats, err := f.adminQuery.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Approved)
	assert.Zero(t, stats.Pending)
}
