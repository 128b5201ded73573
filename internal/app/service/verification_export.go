package service

import (
	"fmt"
	"strings"

	"github.com/kuotechnology-ui/kindworld-backend/internal/app/model"
	"github.com/xuri/excelize/v2"
)

const exportSheetName = "Verifications"

var exportColumns = []string{
	"Request ID",
	"Organization ID",
	"Organization",
	"Type",
	"Contact Email",
	"Contact Phone",
	"Website",
	"City",
	"Country",
	"Status",
	"Submitted At",
	"Reviewed At",
	"Reviewed By",
	"Rejection Reason",
	"Documents",
}

// writeVerificationWorkbook 심사 요청 목록을 xlsx로 직렬화
func writeVerificationWorkbook(requests []model.VerificationRequest) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheetName); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	for i, col := range exportColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(exportSheetName, cell, col); err != nil {
			return nil, err
		}
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(exportColumns), 1)
	if err := f.SetCellStyle(exportSheetName, "A1", lastHeader, headerStyle); err != nil {
		return nil, err
	}

	for i, r := range requests {
		row := exportRow(r)
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(exportSheetName, cell, &row); err != nil {
			return nil, err
		}
	}

	if err := f.SetPanes(exportSheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func exportRow(r model.VerificationRequest) []interface{} {
	reviewedAt := ""
	if r.ReviewedAt != nil {
		reviewedAt = r.ReviewedAt.UTC().Format("2006-01-02 15:04:05")
	}
	docs := make([]string, 0, len(r.Documents))
	for _, d := range r.Documents {
		docs = append(docs, fmt.Sprintf("%s:%s", d.Type, d.FileName))
	}

	return []interface{}{
		r.ID,
		r.OrganizationID,
		r.OrganizationName,
		r.OrganizationType,
		r.ContactEmail,
		r.ContactPhone,
		r.Website,
		r.Address.City,
		r.Address.Country,
		string(r.Status),
		r.SubmittedAt.UTC().Format("2006-01-02 15:04:05"),
		reviewedAt,
		derefString(r.ReviewedBy),
		derefString(r.RejectionReason),
		strings.Join(docs, ", "),
	}
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
