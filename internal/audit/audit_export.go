package audit

import (
	"sort"
	"strconv"
	"time"

	"performa/internal/shared/contextutil"

	"github.com/xuri/excelize/v2"
)

const (
	logsSheet = "Audit Logs"
	infoSheet = "Export Info"
)

var exportHeaders = []any{
	"Timestamp", "User", "Email", "Role", "Action", "Entity Type", "Entity ID",
	"Target User ID", "Reason", "IP Address", "User Agent", "Old Data", "New Data",
}

func buildWorkbook(logs []AuditLog, f Filters, actor contextutil.Actor, exportedAt time.Time) ([]byte, error) {
	wb := excelize.NewFile()
	defer wb.Close()

	if err := wb.SetSheetName("Sheet1", logsSheet); err != nil {
		return nil, err
	}
	if _, err := wb.NewSheet(infoSheet); err != nil {
		return nil, err
	}

	headerStyle, err := wb.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return nil, err
	}

	if err := wb.SetSheetRow(logsSheet, "A1", &exportHeaders); err != nil {
		return nil, err
	}
	lastCol, _ := excelize.ColumnNumberToName(len(exportHeaders))
	if err := wb.SetCellStyle(logsSheet, "A1", lastCol+"1", headerStyle); err != nil {
		return nil, err
	}

	for i, l := range logs {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []any{
			l.Timestamp.UTC().Format(time.RFC3339),
			"", "", l.UserRole, l.Action, l.EntityType,
			deref(l.EntityID), "", deref(l.Reason), deref(l.IPAddress), deref(l.UserAgent),
			string(l.OldData), string(l.NewData),
		}
		if l.User != nil {
			row[1] = l.User.Name
			row[2] = deref(l.User.Email)
		}
		if l.TargetUserID != nil {
			row[7] = l.TargetUserID.String()
		}
		if err := wb.SetSheetRow(logsSheet, cell, &row); err != nil {
			return nil, err
		}
	}

	if err := wb.SetColWidth(logsSheet, "A", "K", 20); err != nil {
		return nil, err
	}
	if err := wb.SetColWidth(logsSheet, "L", "M", 50); err != nil {
		return nil, err
	}

	info := [][]any{
		{"Exported At", exportedAt.Format(time.RFC3339)},
		{"Exported By", actor.UserID},
		{"Rows", len(logs)},
		{"Filters", ""},
	}
	summary := filterSummary(f)
	keys := make([]string, 0, len(summary))
	for k := range summary {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		info = append(info, []any{k, summary[k]})
	}
	for i, row := range info {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := wb.SetSheetRow(infoSheet, cell, &row); err != nil {
			return nil, err
		}
	}
	if err := wb.SetCellStyle(infoSheet, "A1", "A"+strconv.Itoa(len(info)), headerStyle); err != nil {
		return nil, err
	}
	if err := wb.SetColWidth(infoSheet, "A", "B", 28); err != nil {
		return nil, err
	}

	buf, err := wb.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
