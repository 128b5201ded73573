package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/kuotechnology-ui/kindworld-backend/internal/app/model"
	"github.com/kuotechnology-ui/kindworld-backend/internal/app/repository"
	"github.com/kuotechnology-ui/kindworld-backend/pkg/logger"
)

var errPartialImport = errors.New("some users could not be imported")

var validate = validator.New()

// importedUser 엑셀 한 행
type importedUser struct {
	Email string         `validate:"required,email"`
	Name  string         `validate:"required"`
	Role  model.UserRole `validate:"oneof=user ngo admin"`
}

type userSheet struct {
	Users   []importedUser
	Skipped int
}

// readUsersFromXLSX 첫 시트에서 email, name, role 컬럼을 읽음
// role이 비어 있으면 admin으로 간주
func readUsersFromXLSX(filePath string) (*userSheet, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no sheets found in XLSX file")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no data found in XLSX file")
	}

	sheet := &userSheet{}
	seen := make(map[string]bool)

	// 첫 행은 헤더이므로 스킵
	for _, row := range rows[1:] {
		if len(row) < 2 {
			sheet.Skipped++
			continue
		}

		u := importedUser{
			Email: strings.ToLower(strings.TrimSpace(row[0])),
			Name:  strings.TrimSpace(row[1]),
			Role:  model.RoleAdmin,
		}
		if len(row) > 2 && strings.TrimSpace(row[2]) != "" {
			u.Role = model.UserRole(strings.ToLower(strings.TrimSpace(row[2])))
		}

		if err := validate.Struct(u); err != nil {
			logger.Warn("Skipping invalid user row", map[string]interface{}{
				"email": u.Email,
				"error": err.Error(),
			})
			sheet.Skipped++
			continue
		}
		if seen[u.Email] {
			sheet.Skipped++
			continue
		}
		seen[u.Email] = true
		sheet.Users = append(sheet.Users, u)
	}

	return sheet, nil
}

// importUsers 이미 등록된 이메일은 건너뜀
func importUsers(ctx context.Context, repo repository.UserRepository, users []importedUser) (created, existing int, err error) {
	failed := 0
	for _, u := range users {
		_, findErr := repo.FindByEmail(ctx, u.Email)
		if findErr == nil {
			existing++
			continue
		}
		if !errors.Is(findErr, gorm.ErrRecordNotFound) {
			return created, existing, findErr
		}

		if err := repo.Create(ctx, &model.User{Email: u.Email, Name: u.Name, Role: u.Role}); err != nil {
			failed++
			continue
		}
		created++
	}

	if failed > 0 {
		return created, existing, fmt.Errorf("%w: %d failed", errPartialImport, failed)
	}
	return created, existing, nil
}

func writeDeliveries(w io.Writer, items []model.QueuedDelivery) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tTYPE\tRECIPIENT\tRETRIES\tSCHEDULED\tFAILURE")
	for _, item := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d/%d\t%s\t%s\n",
			item.ID,
			item.Status,
			item.NotificationType,
			item.RecipientEmail,
			item.RetryCount,
			item.MaxRetries,
			item.ScheduledAt.Format(time.RFC3339),
			item.FailureReason,
		)
	}
	tw.Flush()
}
