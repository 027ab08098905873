package service

import (
	"testing"
	"time"

	"github.com/bimuz/bimuz-backend/internal/model"
	"github.com/bimuz/bimuz-backend/internal/repository"
)

func int64Ptr(n int64) *int64 { return &n }

func ids(n ...int64) []int64 { return n }

func sampleReport() *model.MonthlyReport {
	revit := model.SpecialityRevitArchitecture
	mentors := []model.Employee{
		{ID: 1, FullName: "Aziz", Email: "aziz@bimuz.uz", Role: model.RoleMentor, Speciality: &revit},
		{ID: 2, FullName: "Dilnoza", Email: "dilnoza@bimuz.uz", Role: model.RoleMentor, Speciality: &revit},
	}
	revenue := []repository.GroupRevenueRow{
		{GroupID: 10, MentorID: int64Ptr(1), StudentIDs: ids(1, 2, 3), PaidStudents: 3, PaidInvoices: 3, Revenue: 300_000},
		{GroupID: 11, MentorID: int64Ptr(2), StudentIDs: ids(20, 21, 22, 23, 24, 25, 26, 27), PaidStudents: 8, PaidInvoices: 9, Revenue: 1_000_000},
		// Student 3 moved here from group 10 and paid in both.
		{GroupID: 12, MentorID: int64Ptr(1), StudentIDs: ids(3, 4, 5, 6, 7, 8, 9), PaidStudents: 7, PaidInvoices: 7, Revenue: 900_000},
		{GroupID: 13, StudentIDs: ids(40), PaidStudents: 1, PaidInvoices: 1, Revenue: 50_000},
	}
	paidAt := time.Date(2025, 4, 30, 10, 0, 0, 0, time.UTC)
	payments := []model.MentorPayment{{MentorID: 2, Amount: 600_000, IsPaid: true, PaymentDate: &paidAt}}
	staff := []model.Employee{
		{ID: 5, FullName: "Kamola", Role: model.RoleAccountant},
		{ID: 6, FullName: "Bobur", Role: model.RoleAssistant},
	}
	salaries := []model.EmployeeSalary{
		{ID: 100, EmployeeID: 5, EmployeeRole: model.RoleAccountant, Amount: 400_000, IsPaid: true},
		{ID: 101, EmployeeID: 9, EmployeeName: "Former", EmployeeRole: model.RoleAdministrator, Amount: 100_000},
		{ID: 102, EmployeeID: 1, EmployeeRole: model.RoleMentor, Amount: 999_999},
	}
	return BuildMonthlyReport(model.Month{Year: 2025, Month: time.April}, revenue, mentors, payments, staff, salaries)
}

func TestBuildMonthlyReportTotals(t *testing.T) {
	r := sampleReport()
	tt := r.Totals

	if tt.TotalRevenue != 2_250_000 {
		t.Errorf("TotalRevenue = %d", tt.TotalRevenue)
	}
	// 300k*55% + 1M*60% + 900k*60%
	if tt.TotalMentorShares != 165_000+600_000+540_000 {
		t.Errorf("TotalMentorShares = %d", tt.TotalMentorShares)
	}
	if tt.TotalMentorShares+tt.TotalDirectorShares != tt.TotalRevenue {
		t.Errorf("shares %d + %d do not add up to %d", tt.TotalMentorShares, tt.TotalDirectorShares, tt.TotalRevenue)
	}
	if tt.UnassignedRevenue != 50_000 {
		t.Errorf("UnassignedRevenue = %d", tt.UnassignedRevenue)
	}
	if tt.PaidInvoices != 20 {
		t.Errorf("PaidInvoices = %d", tt.PaidInvoices)
	}
	if tt.TotalEmployeeSalaries != 500_000 {
		t.Errorf("TotalEmployeeSalaries = %d, mentor salary rows must be ignored", tt.TotalEmployeeSalaries)
	}
	if tt.DirectorRemaining != tt.TotalDirectorShares-500_000 {
		t.Errorf("DirectorRemaining = %d", tt.DirectorRemaining)
	}
}

func TestBuildMonthlyReportMentors(t *testing.T) {
	r := sampleReport()
	if len(r.Mentors) != 2 {
		t.Fatalf("len(Mentors) = %d", len(r.Mentors))
	}

	first := r.Mentors[0]
	if first.MentorID != 1 || first.TotalRevenue != 1_200_000 {
		t.Errorf("first mentor = %d with %d, want mentor 1 with 1200000", first.MentorID, first.TotalRevenue)
	}
	if len(first.GroupsDetail) != 2 || first.GroupsDetail[0].GroupID != 12 {
		t.Errorf("groups should be ordered by revenue: %+v", first.GroupsDetail)
	}
	if first.TotalStudents != 9 || first.IsPaid || first.PaidAmount != nil {
		t.Errorf("mentor 1 = %+v", first)
	}

	second := r.Mentors[1]
	if !second.IsPaid || second.PaidAmount == nil || *second.PaidAmount != 600_000 {
		t.Errorf("mentor 2 payout not applied: %+v", second)
	}
	if second.GroupsDetail[0].MentorPercent != model.LargeGroupMentorPercent {
		t.Errorf("8 students should use the large group split")
	}
}

func TestBuildMonthlyReportEmployees(t *testing.T) {
	r := sampleReport()
	if len(r.Employees) != 3 {
		t.Fatalf("len(Employees) = %d, want 3", len(r.Employees))
	}

	byID := map[int64]model.EmployeeReport{}
	for _, e := range r.Employees {
		byID[e.EmployeeID] = e
	}
	if e := byID[5]; e.Salary != 400_000 || !e.IsPaid || e.SalaryID == nil || *e.SalaryID != 100 {
		t.Errorf("accountant = %+v", e)
	}
	if e := byID[6]; e.Salary != 0 || e.SalaryID != nil {
		t.Errorf("assistant without salary = %+v", e)
	}
	if e, ok := byID[9]; !ok || e.FullName != "Former" {
		t.Errorf("deactivated employee with a salary should be listed")
	}
	if _, ok := byID[1]; ok {
		t.Error("mentors must not appear among employees")
	}
}

func TestBuildMonthlyReportEmpty(t *testing.T) {
	r := BuildMonthlyReport(model.Month{Year: 2025, Month: time.January}, nil, nil, nil, nil, nil)
	if r.Mentors == nil || r.Employees == nil {
		t.Error("empty report should carry empty slices, not nil")
	}
	if r.Totals != (model.ReportTotals{}) {
		t.Errorf("Totals = %+v", r.Totals)
	}
}

func TestBuildWorkbook(t *testing.T) {
	f, err := BuildWorkbook(sampleReport())
	if err != nil {
		t.Fatalf("BuildWorkbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	want := []string{sheetMentors, sheetEmployees, sheetTotals}
	if len(sheets) != len(want) {
		t.Fatalf("sheets = %v", sheets)
	}
	for i := range want {
		if sheets[i] != want[i] {
			t.Errorf("sheet %d = %s, want %s", i, sheets[i], want[i])
		}
	}

	if v, _ := f.GetCellValue(sheetMentors, "A2"); v != "Aziz" {
		t.Errorf("Mentors!A2 = %q", v)
	}
	if v, _ := f.GetCellValue(sheetTotals, "B1"); v != "2025-04" {
		t.Errorf("Totals!B1 = %q", v)
	}
	if v, _ := f.GetCellValue(sheetTotals, "B2"); v != "22500" {
		t.Errorf("Totals!B2 = %q, want revenue in sum", v)
	}

	if _, err := f.WriteToBuffer(); err != nil {
		t.Errorf("WriteToBuffer: %v", err)
	}
}
