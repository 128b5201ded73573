package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kuotechnology-ui/kindworld-backend/internal/app/model"
	"github.com/kuotechnology-ui/kindworld-backend/internal/app/repository"
	"github.com/kuotechnology-ui/kindworld-backend/internal/db"
	"github.com/kuotechnology-ui/kindworld-backend/internal/mailer"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// mockSender 이메일 발송 mock
type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(ctx context.Context, msg mailer.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// mockAlerter 영구 실패 알림 mock
type mockAlerter struct {
	mock.Mock
}

func (m *mockAlerter) DeliveryFailed(ctx context.Context, alert mailer.Alert) error {
	args := m.Called(ctx, alert)
	return args.Error(0)
}

// recordingFeed 피드 push 기록
type recordingFeed struct {
	mu            sync.Mutex
	notifications []*model.Notification
	unreadCounts  map[string]int64
}

func newRecordingFeed() *recordingFeed {
	return &recordingFeed{unreadCounts: map[string]int64{}}
}

func (f *recordingFeed) PublishNotification(ctx context.Context, n *model.Notification, unreadCount int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notifications = append(f.notifications, n)
	f.unreadCounts[n.UserID] = unreadCount
	return nil
}

func (f *recordingFeed) PublishUnreadCount(ctx context.Context, userID string, unreadCount int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unreadCounts[userID] = unreadCount
	return nil
}

func (f *recordingFeed) lastUnread(userID string) (int64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.unreadCounts[userID]
	return v, ok
}

// testClock 테스트용 UTC 시계
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// workflowFixture 서비스 통합 테스트 구성
type workflowFixture struct {
	db            *gorm.DB
	clock         *testClock
	sender        *mockSender
	alerter       *mockAlerter
	feed          *recordingFeed
	verification  VerificationService
	queue         DeliveryQueue
	notifications NotificationService
	preferences   PreferenceService
	audit         AuditService
	adminQuery    AdminQueryService

	owner *model.User
	admin *model.User
	org   *model.Organization
}

type fixtureOptions struct {
	queueConfig DeliveryQueueConfig
	presigner   DocumentPresigner
	noAdmins    bool
}

func setupWorkflow(t *testing.T, opts ...func(*fixtureOptions)) *workflowFixture {
	t.Helper()

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	options := fixtureOptions{
		queueConfig: DeliveryQueueConfig{
			Workers:     2,
			MaxRetries:  3,
			SendTimeout: time.Second,
			WorkerID:    "test-worker",
		},
	}
	for _, opt := range opts {
		opt(&options)
	}

	f := &workflowFixture{
		db:      testDB,
		clock:   newTestClock(),
		sender:  &mockSender{},
		alerter: &mockAlerter{},
		feed:    newRecordingFeed(),
	}

	userRepo := repository.NewUserRepository(testDB)
	orgRepo := repository.NewOrganizationRepository(testDB)
	verificationRepo := repository.NewVerificationRepository(testDB)
	auditRepo := repository.NewAuditRepository(testDB)
	notificationRepo := repository.NewNotificationRepository(testDB)
	deliveryRepo := repository.NewDeliveryRepository(testDB)

	f.preferences = NewPreferenceService(repository.NewPreferenceRepository(testDB))
	f.audit = NewAuditService(auditRepo)
	f.queue = NewDeliveryQueue(
		deliveryRepo,
		notificationRepo,
		userRepo,
		f.preferences,
		f.sender,
		options.queueConfig,
		WithFeed(f.feed),
		WithAlerter(f.alerter),
		WithClock(f.clock.Now),
	)
	f.notifications = NewNotificationService(notificationRepo, f.preferences, f.feed)
	f.adminQuery = NewAdminQueryService(verificationRepo, f.audit, options.presigner)

	vs := NewVerificationService(testDB, verificationRepo, orgRepo, auditRepo, userRepo, f.queue).(*verificationService)
	vs.now = f.clock.Now
	f.verification = vs

	ctx := context.Background()
	f.owner = &model.User{Email: "owner@oceanguard.org", Name: "Mina Park", Role: model.RoleNGO}
	require.NoError(t, userRepo.Create(ctx, f.owner))

	if !options.noAdmins {
		f.admin = &model.User{Email: "admin@kindworld.org", Name: "Admin Kim", Role: model.RoleAdmin}
		require.NoError(t, userRepo.Create(ctx, f.admin))
	}

	f.org = &model.Organization{Name: "Ocean Guard", Type: "environmental", OwnerUserID: f.owner.ID}
	require.NoError(t, orgRepo.Create(ctx, f.org))

	return f
}

func validForm() SubmissionForm {
	return SubmissionForm{
		OrganizationName: "Ocean Guard",
		OrganizationType: "environmental",
		ContactEmail:     "contact@oceanguard.org",
		ContactPhone:     "+82-51-000-0000",
		Website:          "https://oceanguard.org",
		Address: model.PostalAddress{
			Street:     "12 Haeundae-ro",
			City:       "Busan",
			State:      "Busan",
			PostalCode: "48058",
			Country:    "KR",
		},
		MissionStatement: "Ocean Guard protects coastal ecosystems through beach cleanups, marine research and education.",
		IPAddress:        "203.0.113.7",
		UserAgent:        "kindworld-web/1.0",
	}
}

func validDocuments() []DocumentInput {
	return []DocumentInput{
		{Type: model.DocumentTypeRegistration, FileName: "registration.pdf", StorageLocator: "s3://kindworld-docs/og/registration.pdf", SizeBytes: 2048, MimeType: "application/pdf"},
		{Type: model.DocumentTypeTaxExempt, FileName: "tax-exempt.pdf", StorageLocator: "https://files.example.org/og/tax-exempt.pdf", SizeBytes: 4096, MimeType: "application/pdf"},
	}
}

func (f *workflowFixture) submit(t *testing.T) *model.VerificationRequest {
	t.Helper()
	req, err := f.verification.Submit(context.Background(), f.org.ID, f.owner.ID, validForm(), validDocuments())
	require.NoError(t, err)
	return req
}

func (f *workflowFixture) auditEntries(t *testing.T, requestID string) []model.AuditLogEntry {
	t.Helper()
	var entries []model.AuditLogEntry
	require.NoError(t, f.db.Where("request_id = ?", requestID).Order("created_at ASC").Find(&entries).Error)
	return entries
}

func (f *workflowFixture) reloadOrg(t *testing.T) *model.Organization {
	t.Helper()
	var org model.Organization
	require.NoError(t, f.db.Where("id = ?", f.org.ID).First(&org).Error)
	return &org
}

func (f *workflowFixture) deliveries(t *testing.T, recipientID string) []model.QueuedDelivery {
	t.Helper()
	var items []model.QueuedDelivery
	require.NoError(t, f.db.Where("recipient_id = ?", recipientID).Order("created_at ASC").Find(&items).Error)
	return items
}

func (f *workflowFixture) notificationsFor(t *testing.T, userID string) []model.Notification {
	t.Helper()
	var items []model.Notification
	require.NoError(t, f.db.Where("user_id = ?", userID).Order("created_at ASC").Find(&items).Error)
	return items
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func containsAll(s string, parts ...string) bool {
	for _, p := range parts {
		if !strings.Contains(s, p) {
			return false
		}
	}
	return true
}
