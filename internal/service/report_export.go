package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/bimuz/bimuz-backend/internal/model"
)

// XLSXContentType is the MIME type of exported workbooks.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	sheetMentors   = "Mentors"
	sheetEmployees = "Employees"
	sheetTotals    = "Totals"
)

// ExportMonthly renders the monthly report as an XLSX workbook.
func (s *ReportService) ExportMonthly(ctx context.Context, month model.Month) (*bytes.Buffer, error) {
	report, err := s.Monthly(ctx, month)
	if err != nil {
		return nil, err
	}
	f, err := BuildWorkbook(report)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf, nil
}

// BuildWorkbook lays the report out on three sheets. Amounts are written
// in sum, not tiyin.
func BuildWorkbook(r *model.MonthlyReport) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", sheetMentors); err != nil {
		return nil, err
	}
	for _, name := range []string{sheetEmployees, sheetTotals} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, err
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	mentorRows := [][]interface{}{{
		"Mentor", "Email", "Group", "Speciality", "Days", "Paid students",
		"Revenue", "Mentor %", "Mentor share", "Director share", "Paid out", "Payment date",
	}}
	for _, m := range r.Mentors {
		mentorRows = append(mentorRows, []interface{}{
			m.MentorName, m.MentorEmail, "Total", "", "", m.TotalStudents,
			sum(m.TotalRevenue), "", sum(m.MentorShare), sum(m.DirectorShare), yesNo(m.IsPaid), formatTime(m.PaymentDate),
		})
		for _, g := range m.GroupsDetail {
			mentorRows = append(mentorRows, []interface{}{
				"", "", g.GroupID, string(g.Speciality), string(g.Days), g.PaidStudents,
				sum(g.Revenue), g.MentorPercent, sum(g.MentorShare), sum(g.DirectorShare), "", "",
			})
		}
	}
	if err := writeRows(f, sheetMentors, mentorRows, bold); err != nil {
		return nil, err
	}

	employeeRows := [][]interface{}{{"Employee", "Email", "Role", "Salary", "Paid", "Payment date"}}
	for _, e := range r.Employees {
		employeeRows = append(employeeRows, []interface{}{
			e.FullName, e.Email, string(e.Role), sum(e.Salary), yesNo(e.IsPaid), formatTime(e.PaymentDate),
		})
	}
	if err := writeRows(f, sheetEmployees, employeeRows, bold); err != nil {
		return nil, err
	}

	t := r.Totals
	totalRows := [][]interface{}{
		{"Month", r.Month.String()},
		{"Total revenue", sum(t.TotalRevenue)},
		{"Mentor shares", sum(t.TotalMentorShares)},
		{"Director shares", sum(t.TotalDirectorShares)},
		{"Employee salaries", sum(t.TotalEmployeeSalaries)},
		{"Director remaining", sum(t.DirectorRemaining)},
		{"Unassigned revenue", sum(t.UnassignedRevenue)},
		{"Paid invoices", t.PaidInvoices},
	}
	if err := writeRows(f, sheetTotals, totalRows, bold); err != nil {
		return nil, err
	}

	f.SetActiveSheet(0)
	return f, nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}, headerStyle int) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := row
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}
	if len(rows) == 0 {
		return nil
	}
	last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return err
	}
	lastCol, err := excelize.ColumnNumberToName(len(rows[0]))
	if err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", lastCol, 18)
}

// sum converts tiyin to sum for display.
func sum(tiyin int64) float64 {
	return float64(tiyin) / 100
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}
