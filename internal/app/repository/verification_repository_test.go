package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kuotechnology-ui/kindworld-backend/internal/app/model"
	"github.com/kuotechnology-ui/kindworld-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupVerificationTest(t *testing.T) (*gorm.DB, VerificationRepository) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	return testDB, NewVerificationRepository(testDB)
}

func newTestRequest(orgID, name string, submittedAt time.Time) *model.VerificationRequest {
	return &model.VerificationRequest{
		OrganizationID:   orgID,
		OrganizationName: name,
		OrganizationType: "environmental",
		ContactEmail:     "contact@" + orgID + ".org",
		Address: model.PostalAddress{
			Street:     "1 Harbor Rd",
			City:       "Busan",
			State:      "Busan",
			PostalCode: "48058",
			Country:    "KR",
		},
		MissionStatement: "We protect coastal ecosystems through cleanups, research and education programs.",
		Status:           model.VerificationStatusPending,
		SubmittedAt:      submittedAt,
		SubmittedBy:      "owner-" + orgID,
		Documents: []model.VerificationDocument{
			{Position: 1, Type: model.DocumentTypeTaxExempt, FileName: "tax.pdf", StorageLocator: "s3://docs/tax.pdf", UploadedAt: submittedAt},
			{Position: 0, Type: model.DocumentTypeRegistration, FileName: "reg.pdf", StorageLocator: "s3://docs/reg.pdf", UploadedAt: submittedAt},
		},
	}
}

func TestVerificationRepository_CreateAndFind(t *testing.T) {
	_, repo := setupVerificationTest(t)
	ctx := context.Background()

	req := newTestRequest("org-1", "Ocean Guard", time.Now().UTC())
	require.NoError(t, repo.Create(ctx, req))
	assert.NotEmpty(t, req.ID)

	found, err := repo.FindByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ocean Guard", found.OrganizationName)
	assert.Equal(t, "Busan", found.Address.City)
	require.Len(t, found.Documents, 2)
	assert.Equal(t, "reg.pdf", found.Documents[0].FileName)
	assert.Equal(t, "tax.pdf", found.Documents[1].FileName)

	_, err = repo.FindByID(ctx, "missing")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestVerificationRepository_SinglePendingPerOrganization(t *testing.T) {
	_, repo := setupVerificationTest(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newTestRequest("org-1", "Ocean Guard", time.Now().UTC())))

	err := repo.Create(ctx, newTestRequest("org-1", "Ocean Guard", time.Now().UTC()))
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	// 다른 단체는 영향 없음
	assert.NoError(t, repo.Create(ctx, newTestRequest("org-2", "River Keepers", time.Now().UTC())))
}

func TestVerificationRepository_ApplyDecision(t *testing.T) {
	_, repo := setupVerificationTest(t)
	ctx := context.Background()

	req := newTestRequest("org-1", "Ocean Guard", time.Now().UTC())
	require.NoError(t, repo.Create(ctx, req))

	notes := "Looks good"
	applied, err := repo.ApplyDecision(ctx, req.ID, ReviewDecision{
		Status:     model.VerificationStatusApproved,
		ReviewedBy: "A1",
		ReviewedAt: time.Now().UTC(),
		AdminNotes: &notes,
	})
	require.NoError(t, err)
	assert.True(t, applied)

	// 두 번째 결정은 반영되지 않음
	reason := "late"
	applied, err = repo.ApplyDecision(ctx, req.ID, ReviewDecision{
		Status:          model.VerificationStatusRejected,
		ReviewedBy:      "A2",
		ReviewedAt:      time.Now().UTC(),
		RejectionReason: &reason,
	})
	require.NoError(t, err)
	assert.False(t, applied)

	found, err := repo.FindByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.VerificationStatusApproved, found.Status)
	require.NotNil(t, found.ReviewedBy)
	assert.Equal(t, "A1", *found.ReviewedBy)
	assert.Nil(t, found.RejectionReason)
	require.NotNil(t, found.AdminNotes)
	assert.Equal(t, "Looks good", *found.AdminNotes)

	// 승인 후 같은 단체의 새 요청 허용
	assert.NoError(t, repo.Create(ctx, newTestRequest("org-1", "Ocean Guard", time.Now().UTC())))
}

func TestVerificationRepository_FindWithFilter(t *testing.T) {
	_, repo := setupVerificationTest(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	ocean := newTestRequest("org-1", "Ocean Guard", base)
	river := newTestRequest("org-2", "River Keepers", base.Add(24*time.Hour))
	river.OrganizationType = "education"
	forest := newTestRequest("org-3", "Forest Friends", base.Add(48*time.Hour))
	for _, r := range []*model.VerificationRequest{ocean, river, forest} {
		require.NoError(t, repo.Create(ctx, r))
	}
	_, err := repo.ApplyDecision(ctx, forest.ID, ReviewDecision{
		Status:     model.VerificationStatusApproved,
		ReviewedBy: "A1",
		ReviewedAt: base.Add(72 * time.Hour),
	})
	require.NoError(t, err)

	pending := model.VerificationStatusPending
	from := base.Add(12 * time.Hour)

	tests := []struct {
		name   string
		filter VerificationFilter
		want   []string
	}{
		{name: "no filter newest first", filter: VerificationFilter{}, want: []string{"Forest Friends", "River Keepers", "Ocean Guard"}},
		{name: "status", filter: VerificationFilter{Status: &pending}, want: []string{"River Keepers", "Ocean Guard"}},
		{name: "type", filter: VerificationFilter{OrganizationType: "education"}, want: []string{"River Keepers"}},
		{name: "search is case insensitive", filter: VerificationFilter{Search: "OCEAN"}, want: []string{"Ocean Guard"}},
		{name: "search matches contact email", filter: VerificationFilter{Search: "org-2.org"}, want: []string{"River Keepers"}},
		{name: "date range and status", filter: VerificationFilter{Status: &pending, SubmittedFrom: &from}, want: []string{"River Keepers"}},
		{name: "paging", filter: VerificationFilter{Limit: 1, Offset: 1}, want: []string{"River Keepers"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, err := repo.FindWithFilter(ctx, tt.filter)
			require.NoError(t, err)
			names := make([]string, 0, len(got))
			for _, r := range got {
				names = append(names, r.OrganizationName)
			}
			assert.Equal(t, tt.want, names)
		})
	}

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[model.VerificationStatusPending])
	assert.Equal(t, int64(1), counts[model.VerificationStatusApproved])

	reviewed, err := repo.FindReviewed(ctx)
	require.NoError(t, err)
	require.Len(t, reviewed, 1)
	assert.Equal(t, forest.ID, reviewed[0].ID)
}
