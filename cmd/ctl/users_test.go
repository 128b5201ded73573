package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/kuotechnology-ui/kindworld-backend/internal/app/model"
	"github.com/kuotechnology-ui/kindworld-backend/internal/app/repository"
	"github.com/kuotechnology-ui/kindworld-backend/internal/db"
)

func writeUserSheet(t *testing.T, rows [][]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	path := filepath.Join(t.TempDir(), "users.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestReadUsersFromXLSX(t *testing.T) {
	path := writeUserSheet(t, [][]interface{}{
		{"email", "name", "role"},
		{"Admin@KindWorld.org ", "Admin Kim", ""},
		{"reviewer@kindworld.org", "Reviewer Lee", "admin"},
		{"owner@oceanguard.org", "Mina Park", "ngo"},
		{"not-an-email", "Broken", "admin"},
		{"admin@kindworld.org", "Duplicate", "admin"},
		{"ghost@kindworld.org", "Ghost", "superuser"},
		{"only-email@kindworld.org"},
	})

	sheet, err := readUsersFromXLSX(path)
	require.NoError(t, err)

	require.Len(t, sheet.Users, 3)
	assert.Equal(t, 4, sheet.Skipped)

	assert.Equal(t, "admin@kindworld.org", sheet.Users[0].Email)
	assert.Equal(t, model.RoleAdmin, sheet.Users[0].Role)
	assert.Equal(t, model.RoleNGO, sheet.Users[2].Role)
}

func TestReadUsersFromXLSX_MissingFile(t *testing.T) {
	_, err := readUsersFromXLSX(filepath.Join(t.TempDir(), "missing.xlsx"))
	assert.Error(t, err)
}

func TestImportUsers_SkipsExisting(t *testing.T) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	repo := repository.NewUserRepository(testDB)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, &model.User{Email: "admin@kindworld.org", Name: "Admin Kim", Role: model.RoleAdmin}))

	created, existing, err := importUsers(ctx, repo, []importedUser{
		{Email: "admin@kindworld.org", Name: "Admin Kim", Role: model.RoleAdmin},
		{Email: "reviewer@kindworld.org", Name: "Reviewer Lee", Role: model.RoleAdmin},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, created)
	assert.Equal(t, 1, existing)

	admins, err := repo.FindByRole(ctx, model.RoleAdmin)
	require.NoError(t, err)
	assert.Len(t, admins, 2)
}

func TestWriteDeliveries(t *testing.T) {
	var buf bytes.Buffer
	writeDeliveries(&buf, []model.QueuedDelivery{{
		ID:               "d-1",
		Status:           model.DeliveryStatusFailed,
		NotificationType: model.NotificationTypeVerificationApproved,
		RecipientEmail:   "owner@oceanguard.org",
		RetryCount:       3,
		MaxRetries:       3,
		ScheduledAt:      time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		FailureReason:    "smtp timeout",
	}})

	out := buf.String()
	assert.Contains(t, out, "STATUS")
	assert.Contains(t, out, "d-1")
	assert.Contains(t, out, "3/3")
	assert.Contains(t, out, "2026-03-02T09:00:00Z")
	assert.Contains(t, out, "smtp timeout")
}
