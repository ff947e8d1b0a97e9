package users

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ivankudzin/orgreviews/internal/domain/model"
	authsvc "github.com/ivankudzin/orgreviews/internal/services/auth"
)

const exportSheet = "Pending"

// ExportPendingApprovement renders the pending users as an xlsx workbook.
func (s *Service) ExportPendingApprovement(ctx context.Context, actor authsvc.Identity) ([]byte, error) {
	pending, err := s.ListPendingApprovement(ctx, actor)
	if err != nil {
		return nil, err
	}
	return renderPendingXLSX(pending)
}

func renderPendingXLSX(pending []model.User) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), exportSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	header := []interface{}{
		"user_id",
		"telegram_id",
		"first_name",
		"last_name",
		"username",
		"organization_id",
		"file_id",
		"requested_at",
	}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, user := range pending {
		row := []interface{}{
			user.ID.String(),
			"",
			"",
			"",
			"",
			"",
			"",
			"",
		}
		if tg := user.Telegram; tg != nil {
			row[1] = tg.ID
			row[2] = tg.FirstName
			row[3] = deref(tg.LastName)
			row[4] = deref(tg.Username)
		}
		if id := user.Approvement.OrganizationID; id != nil {
			row[5] = id.String()
		}
		if id := user.Approvement.FileID; id != nil {
			row[6] = id.String()
		}
		if at := user.Approvement.UpdatedAt; at != nil {
			row[7] = at.UTC().Format(time.RFC3339)
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("resolve cell: %w", err)
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
