package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/bimuz/bimuz-backend/internal/config"
	"github.com/bimuz/bimuz-backend/internal/logger"
	"github.com/bimuz/bimuz-backend/internal/model"
	"github.com/bimuz/bimuz-backend/internal/repository"
)

// ErrMentorSalary is returned when a salary is set for a mentor; mentors are
// paid through mentor payments.
var ErrMentorSalary = errors.New("mentors are paid through mentor payments")

// ReportService builds monthly financial reports and manages payroll rows.
type ReportService struct {
	reports   *repository.ReportRepository
	payroll   *repository.PayrollRepository
	employees *repository.EmployeeRepository
	cfg       *config.Config
	log       zerolog.Logger
	now       func() time.Time
}

// NewReportService creates a new ReportService.
func NewReportService(reports *repository.ReportRepository, payroll *repository.PayrollRepository,
	employees *repository.EmployeeRepository, cfg *config.Config, log zerolog.Logger) *ReportService {
	return &ReportService{
		reports:   reports,
		payroll:   payroll,
		employees: employees,
		cfg:       cfg,
		log:       logger.Component(log, "report_service"),
		now:       time.Now,
	}
}

// CurrentMonth is the month of today in the school's time zone.
func (s *ReportService) CurrentMonth() model.Month {
	return model.MonthOf(model.DateIn(s.now(), s.cfg.Location))
}

// Monthly builds the financial report of a month.
func (s *ReportService) Monthly(ctx context.Context, month model.Month) (*model.MonthlyReport, error) {
	from, to := month.Range(s.cfg.Location)
	revenue, err := s.reports.GroupRevenue(ctx, from, to)
	if err != nil {
		return nil, err
	}
	mentors, err := s.employees.ListByRole(ctx, model.RoleMentor)
	if err != nil {
		return nil, err
	}
	// Revenue may belong to a mentor who has since been deactivated.
	known := make(map[int64]bool, len(mentors))
	for _, m := range mentors {
		known[m.ID] = true
	}
	for _, row := range revenue {
		if row.MentorID == nil || known[*row.MentorID] {
			continue
		}
		m, err := s.employees.GetByID(ctx, *row.MentorID)
		if err != nil {
			return nil, err
		}
		known[m.ID] = true
		mentors = append(mentors, *m)
	}

	payments, err := s.payroll.ListMentorPayments(ctx, month)
	if err != nil {
		return nil, err
	}
	staff, err := s.employees.ListExcludingRole(ctx, model.RoleMentor)
	if err != nil {
		return nil, err
	}
	salaries, err := s.payroll.ListSalaries(ctx, month)
	if err != nil {
		return nil, err
	}

	return BuildMonthlyReport(month, revenue, mentors, payments, staff, salaries), nil
}

// BuildMonthlyReport assembles the report from already loaded rows. Revenue
// of groups without a mentor goes entirely to the director and is also
// reported as unassigned.
func BuildMonthlyReport(month model.Month, revenue []repository.GroupRevenueRow, mentors []model.Employee,
	payments []model.MentorPayment, staff []model.Employee, salaries []model.EmployeeSalary) *model.MonthlyReport {
	report := &model.MonthlyReport{
		Month:     month,
		Mentors:   []model.MentorReport{},
		Employees: []model.EmployeeReport{},
	}
	totals := &report.Totals

	byMentor := make(map[int64]*model.MentorReport, len(mentors))
	// A student who changed between two groups of one mentor counts once.
	payers := make(map[int64]map[int64]struct{}, len(mentors))
	order := make([]int64, 0, len(mentors))
	for _, m := range mentors {
		byMentor[m.ID] = &model.MentorReport{
			MentorID:     m.ID,
			MentorName:   m.FullName,
			MentorEmail:  m.Email,
			Speciality:   m.Speciality,
			GroupsDetail: []model.GroupRevenue{},
		}
		order = append(order, m.ID)
	}

	for _, row := range revenue {
		split := model.SplitRevenue(row.Revenue, row.PaidStudents)
		totals.TotalRevenue += row.Revenue
		totals.PaidInvoices += row.PaidInvoices

		if row.MentorID == nil {
			totals.UnassignedRevenue += row.Revenue
			totals.TotalDirectorShares += row.Revenue
			continue
		}
		totals.TotalMentorShares += split.MentorShare
		totals.TotalDirectorShares += split.DirectorShare

		mr, ok := byMentor[*row.MentorID]
		if !ok {
			mr = &model.MentorReport{MentorID: *row.MentorID, GroupsDetail: []model.GroupRevenue{}}
			byMentor[*row.MentorID] = mr
			order = append(order, *row.MentorID)
		}
		mr.TotalRevenue += row.Revenue
		mr.MentorShare += split.MentorShare
		mr.DirectorShare += split.DirectorShare
		if payers[*row.MentorID] == nil {
			payers[*row.MentorID] = make(map[int64]struct{})
		}
		for _, sid := range row.StudentIDs {
			payers[*row.MentorID][sid] = struct{}{}
		}
		mr.TotalStudents = len(payers[*row.MentorID])
		mr.GroupsDetail = append(mr.GroupsDetail, model.GroupRevenue{
			GroupID:      row.GroupID,
			Speciality:   row.Speciality,
			Days:         row.Days,
			MentorID:     *row.MentorID,
			PaidStudents: row.PaidStudents,
			Revenue:      row.Revenue,
			Split:        split,
		})
	}

	for _, p := range payments {
		mr, ok := byMentor[p.MentorID]
		if !ok {
			continue
		}
		amount := p.Amount
		mr.IsPaid = p.IsPaid
		mr.PaymentDate = p.PaymentDate
		mr.PaidAmount = &amount
	}

	for _, id := range order {
		mr := byMentor[id]
		sort.SliceStable(mr.GroupsDetail, func(i, j int) bool {
			return mr.GroupsDetail[i].Revenue > mr.GroupsDetail[j].Revenue
		})
		report.Mentors = append(report.Mentors, *mr)
	}
	sort.SliceStable(report.Mentors, func(i, j int) bool {
		return report.Mentors[i].TotalRevenue > report.Mentors[j].TotalRevenue
	})

	salaryOf := make(map[int64]model.EmployeeSalary, len(salaries))
	for _, sal := range salaries {
		if sal.EmployeeRole == model.RoleMentor {
			continue
		}
		salaryOf[sal.EmployeeID] = sal
		totals.TotalEmployeeSalaries += sal.Amount
	}
	listed := make(map[int64]bool, len(staff))
	for _, e := range staff {
		listed[e.ID] = true
		report.Employees = append(report.Employees, employeeReport(e.ID, e.FullName, e.Email, e.Role, salaryOf))
	}
	// Salaries of employees deactivated after being paid still count.
	for _, sal := range salaries {
		if sal.EmployeeRole == model.RoleMentor || listed[sal.EmployeeID] {
			continue
		}
		report.Employees = append(report.Employees, employeeReport(sal.EmployeeID, sal.EmployeeName, "", sal.EmployeeRole, salaryOf))
	}

	totals.DirectorRemaining = model.DirectorRemaining(totals.TotalDirectorShares, totals.TotalEmployeeSalaries)
	return report
}

func employeeReport(id int64, name, email string, role model.Role, salaryOf map[int64]model.EmployeeSalary) model.EmployeeReport {
	er := model.EmployeeReport{EmployeeID: id, FullName: name, Email: email, Role: role}
	if sal, ok := salaryOf[id]; ok {
		salID := sal.ID
		er.SalaryID = &salID
		er.Salary = sal.Amount
		er.IsPaid = sal.IsPaid
		er.PaymentDate = sal.PaymentDate
	}
	return er
}

// ListSalaries returns the salary rows of a month.
func (s *ReportService) ListSalaries(ctx context.Context, month model.Month) ([]model.EmployeeSalary, error) {
	return s.payroll.ListSalaries(ctx, month)
}

// ListMentorPayments returns the mentor payouts of a month.
func (s *ReportService) ListMentorPayments(ctx context.Context, month model.Month) ([]model.MentorPayment, error) {
	return s.payroll.ListMentorPayments(ctx, month)
}

// UpsertSalary sets a non-mentor employee's salary for a month. created
// reports whether a new row was inserted.
func (s *ReportService) UpsertSalary(ctx context.Context, req model.UpsertSalaryRequest) (*model.EmployeeSalary, bool, error) {
	month, err := model.ParseMonth(req.Month)
	if err != nil {
		return nil, false, err
	}
	e, err := s.employees.GetByID(ctx, req.EmployeeID)
	if err != nil {
		return nil, false, err
	}
	if e.Role == model.RoleMentor {
		return nil, false, ErrMentorSalary
	}

	id, created, err := s.payroll.UpsertSalary(ctx, e.ID, month, req.Amount, req.Notes)
	if err != nil {
		return nil, false, err
	}
	sal, err := s.payroll.GetSalary(ctx, id)
	if err != nil {
		return nil, false, err
	}
	s.log.Info().Int64("employee_id", e.ID).Str("month", month.String()).Int64("amount", req.Amount).Bool("created", created).
		Msg("Salary saved")
	return sal, created, nil
}

// SetSalaryPaid toggles a salary's paid flag. Marking paid keeps an existing
// payment date or stamps now; unmarking clears it.
func (s *ReportService) SetSalaryPaid(ctx context.Context, id int64, isPaid bool) (*model.EmployeeSalary, error) {
	sal, err := s.payroll.GetSalary(ctx, id)
	if err != nil {
		return nil, err
	}
	date := model.ApplyPaid(isPaid, sal.PaymentDate, s.now())
	if err := s.payroll.SetSalaryPaid(ctx, id, isPaid, date); err != nil {
		return nil, err
	}
	return s.payroll.GetSalary(ctx, id)
}

// UpsertMentorPayment records a mentor's payout for a month.
func (s *ReportService) UpsertMentorPayment(ctx context.Context, req model.UpsertMentorPaymentRequest) (*model.MentorPayment, bool, error) {
	month, err := model.ParseMonth(req.Month)
	if err != nil {
		return nil, false, err
	}
	e, err := s.employees.GetByID(ctx, req.MentorID)
	if err != nil {
		return nil, false, err
	}
	if e.Role != model.RoleMentor {
		return nil, false, ErrNotAMentor
	}

	id, created, err := s.payroll.UpsertMentorPayment(ctx, e.ID, month, req.Amount, req.IsPaid, req.Notes, s.now())
	if err != nil {
		return nil, false, err
	}
	p, err := s.payroll.GetMentorPayment(ctx, id)
	if err != nil {
		return nil, false, err
	}
	s.log.Info().Int64("mentor_id", e.ID).Str("month", month.String()).Int64("amount", req.Amount).Bool("paid", req.IsPaid).
		Msg("Mentor payment saved")
	return p, created, nil
}
