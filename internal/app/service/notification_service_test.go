package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/kuotechnology-ui/kindworld-backend/internal/app/model"
	apperrors "github.com/kuotechnology-ui/kindworld-backend/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *workflowFixture) seedNotifications(t *testing.T, userID string, n int) []string {
	t.Helper()
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		req := announcement(userID)
		req.Title = fmt.Sprintf("Announcement %d", i+1)
		req.TemplateData = nil
		result, err := f.queue.Enqueue(context.Background(), req)
		require.NoError(t, err)
		ids = append(ids, result.NotificationID)
	}
	return ids
}

func TestNotificationService_FeedAndUnreadCount(t *testing.T) {
	f := setupWorkflow(t)
	ctx := context.Background()
	f.seedNotifications(t, f.owner.ID, 3)
	f.seedNotifications(t, f.admin.ID, 1)

	feed, err := f.notifications.Feed(ctx, f.owner.ID, 0, false)
	require.NoError(t, err)
	require.Len(t, feed, 3)
	for _, n := range feed {
		assert.Equal(t, f.owner.ID, n.UserID)
	}

	count, err := f.notifications.UnreadCount(ctx, f.owner.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	limited, err := f.notifications.Feed(ctx, f.owner.ID, 2, false)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	_, err = f.notifications.Feed(ctx, "", 10, false)
	assert.ErrorIs(t, err, ErrActorRequired)
}

func TestNotificationService_FeedLimitIsCapped(t *testing.T) {
	f := setupWorkflow(t)
	f.seedNotifications(t, f.owner.ID, maxFeedLimit+5)

	feed, err := f.notifications.Feed(context.Background(), f.owner.ID, 500, false)
	require.NoError(t, err)
	assert.Len(t, feed, maxFeedLimit)
}

func TestNotificationService_MarkRead(t *testing.T) {
	f := setupWorkflow(t)
	ctx := context.Background()
	ids := f.seedNotifications(t, f.owner.ID, 2)

	_, err := f.notifications.MarkRead(ctx, ids[0], f.admin.ID)
	assert.ErrorIs(t, err, ErrNotRecipient)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	_, err = f.notifications.MarkRead(ctx, "missing", f.owner.ID)
	assert.ErrorIs(t, err, ErrNotificationNotFound)

	n, err := f.notifications.MarkRead(ctx, ids[0], f.owner.ID)
	require.NoError(t, err)
	assert.True(t, n.IsRead)
	require.NotNil(t, n.ReadAt)

	// 다시 읽음 처리해도 read_at 유지
	again, err := f.notifications.MarkRead(ctx, ids[0], f.owner.ID)
	require.NoError(t, err)
	assert.True(t, again.ReadAt.Equal(*n.ReadAt))

	unread, err := f.notifications.Feed(ctx, f.owner.ID, 10, true)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, ids[1], unread[0].ID)

	pushed, ok := f.feed.lastUnread(f.owner.ID)
	assert.True(t, ok)
	assert.Equal(t, int64(1), pushed)
}

func TestNotificationService_MarkAllRead(t *testing.T) {
	f := setupWorkflow(t)
	ctx := context.Background()
	f.seedNotifications(t, f.owner.ID, 4)
	f.seedNotifications(t, f.admin.ID, 2)

	result, err := f.notifications.MarkAllRead(ctx, f.owner.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, result.Marked)
	assert.Zero(t, result.Failed)
	assert.Zero(t, result.UnreadCount)

	count, err := f.notifications.UnreadCount(ctx, f.owner.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	// 다른 사용자 알림은 그대로
	count, err = f.notifications.UnreadCount(ctx, f.admin.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	pushed, _ := f.feed.lastUnread(f.owner.ID)
	assert.Zero(t, pushed)

	// 읽을 알림이 없어도 성공
	result, err = f.notifications.MarkAllRead(ctx, f.owner.ID)
	require.NoError(t, err)
	assert.Zero(t, result.Marked)
}

func TestNotificationService_Preferences(t *testing.T) {
	f := setupWorkflow(t)
	ctx := context.Background()

	prefs, err := f.notifications.GetPreferences(ctx, f.owner.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultNotificationPreferences(f.owner.ID), prefs)

	_, err = f.notifications.UpdatePreferences(ctx, f.owner.ID, PreferencesUpdate{})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	updated, err := f.notifications.UpdatePreferences(ctx, f.owner.ID, PreferencesUpdate{
		EmailNotifications: boolPtr(false),
	})
	require.NoError(t, err)
	assert.False(t, updated.EmailNotifications)
	assert.True(t, updated.InAppNotifications)

	// 부분 수정은 다른 값을 유지
	updated, err = f.notifications.UpdatePreferences(ctx, f.owner.ID, PreferencesUpdate{
		SystemAnnouncements: boolPtr(false),
	})
	require.NoError(t, err)
	assert.False(t, updated.EmailNotifications)
	assert.False(t, updated.SystemAnnouncements)
	assert.True(t, updated.VerificationUpdates)

	stored, err := f.notifications.GetPreferences(ctx, f.owner.ID)
	require.NoError(t, err)
	assert.False(t, stored.EmailNotifications)
	assert.False(t, stored.SystemAnnouncements)

	_, err = f.notifications.GetPreferences(ctx, " ")
	assert.ErrorIs(t, err, ErrActorRequired)
}
