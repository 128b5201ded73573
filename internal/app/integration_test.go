package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/kuotechnology-ui/kindworld-backend/config"
	"github.com/kuotechnology-ui/kindworld-backend/internal/app/model"
	"github.com/kuotechnology-ui/kindworld-backend/internal/db"
	"github.com/kuotechnology-ui/kindworld-backend/internal/mailer"
	"github.com/kuotechnology-ui/kindworld-backend/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "test-secret"

type recordingSender struct {
	mu   sync.Mutex
	sent []mailer.Message
}

func (s *recordingSender) Send(ctx context.Context, msg mailer.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return nil
}

type TestServer struct {
	Router    *gin.Engine
	DB        *gorm.DB
	Container *Container
	Sender    *recordingSender

	Owner *model.User
	Admin *model.User
	Org   *model.Organization
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{GinMode: gin.TestMode, Environment: "test"},
		JWT: config.JWTConfig{
			Secret:             testSecret,
			AccessTokenExpiry:  15 * time.Minute,
			RefreshTokenExpiry: time.Hour,
		},
		CORS: config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		S3: config.S3Config{
			Region:          "ap-northeast-2",
			AccessKeyID:     "test",
			SecretAccessKey: "test",
		},
		Queue: config.QueueConfig{
			Workers:      2,
			BatchSize:    10,
			MaxRetries:   3,
			SendTimeout:  time.Second,
			LeaseTimeout: time.Minute,
		},
	}
}

func setupIntegrationTest(t *testing.T) *TestServer {
	gin.SetMode(gin.TestMode)

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	sender := &recordingSender{}
	container := NewContainer(context.Background(), testConfig(), testDB, WithSender(sender))

	ts := &TestServer{
		Router:    container.Handler(),
		DB:        testDB,
		Container: container,
		Sender:    sender,
		Owner:     &model.User{Email: "owner@oceanguard.org", Name: "Mina Park", Role: model.RoleNGO},
		Admin:     &model.User{Email: "admin@kindworld.org", Name: "Admin Kim", Role: model.RoleAdmin},
	}
	require.NoError(t, testDB.Create(ts.Owner).Error)
	require.NoError(t, testDB.Create(ts.Admin).Error)

	ts.Org = &model.Organization{Name: "Ocean Guard", Type: "environmental", OwnerUserID: ts.Owner.ID}
	require.NoError(t, testDB.Create(ts.Org).Error)

	return ts
}

func (ts *TestServer) token(t *testing.T, u *model.User) string {
	t.Helper()
	tokens, err := util.GenerateTokenPair(u.ID, u.Email, string(u.Role), testSecret, 15*time.Minute, time.Hour)
	require.NoError(t, err)
	return tokens.AccessToken
}

func (ts *TestServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.Router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func submissionBody() map[string]interface{} {
	return map[string]interface{}{
		"organization_name": "Ocean Guard",
		"organization_type": "environmental",
		"contact_email":     "contact@oceanguard.org",
		"website":           "https://oceanguard.org",
		"address": map[string]string{
			"street":      "12 Haeundae-ro",
			"city":        "Busan",
			"state":       "Busan",
			"postal_code": "48058",
			"country":     "KR",
		},
		"mission_statement": "Ocean Guard protects coastal ecosystems through beach cleanups, marine research and education.",
		"documents": []map[string]interface{}{
			{
				"type":            "registration",
				"file_name":       "registration.pdf",
				"storage_locator": "https://files.example.org/og/registration.pdf",
				"size_bytes":      2048,
				"mime_type":       "application/pdf",
			},
		},
	}
}

func TestVerificationJourney(t *testing.T) {
	ts := setupIntegrationTest(t)
	ownerToken := ts.token(t, ts.Owner)
	adminToken := ts.token(t, ts.Admin)
	orgPath := "/api/v1/organizations/" + ts.Org.ID + "/verification"

	t.Log("Step 1: Submit verification")
	w := ts.do(t, http.MethodPost, orgPath, ownerToken, submissionBody())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	request := decode(t, w)["request"].(map[string]interface{})
	requestID := request["id"].(string)
	assert.Equal(t, "pending", request["status"])

	t.Log("Step 2: Duplicate submission is rejected")
	w = ts.do(t, http.MethodPost, orgPath, ownerToken, submissionBody())
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "VERIFICATION_ALREADY_PENDING", decode(t, w)["error"])

	t.Log("Step 3: Status is visible to the owner")
	w = ts.do(t, http.MethodGet, orgPath, ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, requestID, decode(t, w)["request"].(map[string]interface{})["id"])

	t.Log("Step 4: Admin queue is admin only")
	w = ts.do(t, http.MethodGet, "/api/v1/admin/verifications?status=pending", ownerToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = ts.do(t, http.MethodGet, "/api/v1/admin/verifications?status=pending", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["total"])

	t.Log("Step 5: Document link for a direct URL")
	w = ts.do(t, http.MethodGet, "/api/v1/admin/verifications/"+requestID, adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	docs := decode(t, w)["request"].(map[string]interface{})["documents"].([]interface{})
	require.Len(t, docs, 1)
	docID := docs[0].(map[string]interface{})["id"].(string)

	w = ts.do(t, http.MethodGet, "/api/v1/admin/verifications/"+requestID+"/documents/"+docID+"/url", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://files.example.org/og/registration.pdf", decode(t, w)["url"])

	t.Log("Step 6: Reject without reason fails validation")
	w = ts.do(t, http.MethodPost, "/api/v1/admin/verifications/"+requestID+"/reject", adminToken, map[string]string{"reason": "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VERIFICATION_REASON_REQUIRED", decode(t, w)["error"])

	t.Log("Step 7: Approve")
	w = ts.do(t, http.MethodPost, "/api/v1/admin/verifications/"+requestID+"/approve", adminToken, map[string]string{"notes": "all documents valid"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "approved", decode(t, w)["request"].(map[string]interface{})["status"])

	w = ts.do(t, http.MethodPost, "/api/v1/admin/verifications/"+requestID+"/approve", adminToken, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "VERIFICATION_ALREADY_PROCESSED", decode(t, w)["error"])

	t.Log("Step 8: Audit trail")
	w = ts.do(t, http.MethodGet, "/api/v1/admin/verifications/"+requestID+"/audit", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["entries"], 2)

	t.Log("Step 9: Owner feed")
	w = ts.do(t, http.MethodGet, "/api/v1/notifications", ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	feed := decode(t, w)
	assert.Len(t, feed["data"], 2)
	assert.EqualValues(t, 2, feed["unread_count"])

	w = ts.do(t, http.MethodPatch, "/api/v1/notifications/read-all", ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodGet, "/api/v1/notifications/unread-count", ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, decode(t, w)["unread_count"])

	t.Log("Step 10: Email queue drains")
	w = ts.do(t, http.MethodGet, "/api/v1/admin/deliveries?status=pending", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 3, decode(t, w)["count"])

	summary, err := ts.Container.Queue.ProcessPendingQueue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Sent)
	assert.Len(t, ts.Sender.sent, 3)

	t.Log("Step 11: Export")
	w = ts.do(t, http.MethodGet, "/api/v1/admin/verifications/export", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")
	assert.NotZero(t, w.Body.Len())
}

func TestNotificationPreferences_HTTP(t *testing.T) {
	ts := setupIntegrationTest(t)
	ownerToken := ts.token(t, ts.Owner)

	w := ts.do(t, http.MethodGet, "/api/v1/users/notification-preferences", ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	prefs := decode(t, w)["preferences"].(map[string]interface{})
	assert.Equal(t, true, prefs["email_notifications"])

	w = ts.do(t, http.MethodPut, "/api/v1/users/notification-preferences", ownerToken, map[string]bool{"email_notifications": false})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	prefs = decode(t, w)["preferences"].(map[string]interface{})
	assert.Equal(t, false, prefs["email_notifications"])
	assert.Equal(t, true, prefs["in_app_notifications"])

	// 이메일을 끈 뒤 제출하면 인앱 알림만 생성
	w = ts.do(t, http.MethodPost, "/api/v1/organizations/"+ts.Org.ID+"/verification", ownerToken, submissionBody())
	require.Equal(t, http.StatusCreated, w.Code)

	var ownerEmails int64
	require.NoError(t, ts.DB.Model(&model.QueuedDelivery{}).Where("recipient_id = ?", ts.Owner.ID).Count(&ownerEmails).Error)
	assert.Zero(t, ownerEmails)
}

func TestRequestID_Header(t *testing.T) {
	ts := setupIntegrationTest(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	w := httptest.NewRecorder()
	ts.Router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))

	w = ts.do(t, http.MethodGet, "/health", "", nil)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestUnauthenticatedRequests(t *testing.T) {
	ts := setupIntegrationTest(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/notifications"},
		{http.MethodGet, "/api/v1/admin/verifications"},
		{http.MethodPost, "/api/v1/organizations/" + ts.Org.ID + "/verification"},
		{http.MethodGet, "/api/v1/users/notification-preferences"},
	}
	for _, p := range paths {
		t.Run(p.method+" "+p.path, func(t *testing.T) {
			w := ts.do(t, p.method, p.path, "", nil)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestNotificationStream(t *testing.T) {
	ts := setupIntegrationTest(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ts.Container.RunFeed(ctx)

	srv := httptest.NewServer(ts.Router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/notifications/ws?token=" + ts.token(t, ts.Owner)
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	defer resp.Body.Close()

	require.Eventually(t, func() bool {
		return ts.Container.Hub.IsUserOnline(ts.Owner.ID)
	}, 2*time.Second, 10*time.Millisecond)

	w := ts.do(t, http.MethodPost, "/api/v1/organizations/"+ts.Org.ID+"/verification", ts.token(t, ts.Owner), submissionBody())
	require.Equal(t, http.StatusCreated, w.Code)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	event, err := model.DecodeFeedEvent(payload)
	require.NoError(t, err)
	assert.Equal(t, model.FeedEventNewNotification, event.Type)
	assert.Equal(t, ts.Owner.ID, event.UserID)
	require.NotNil(t, event.Notification)
	assert.Equal(t, model.NotificationTypeVerificationPending, event.Notification.Type)
	assert.EqualValues(t, 1, event.UnreadCount)
}
