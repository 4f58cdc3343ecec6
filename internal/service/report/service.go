package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/cmlabs-hris/academy-backend-go/internal/domain/punch"
	"github.com/cmlabs-hris/academy-backend-go/internal/domain/report"
	"github.com/cmlabs-hris/academy-backend-go/internal/domain/user"
)

var csvHeader = []string{
	"date",
	"employee_id",
	"employee_name",
	"punch_in_at",
	"punch_out_at",
	"break_count",
	"break_minutes",
	"effective_working_hours",
}

type ReportServiceImpl struct {
	punch.PunchRepository
	user.UserRepository
	now func() time.Time
}

func NewReportService(punchRepository punch.PunchRepository, userRepository user.UserRepository) report.ReportService {
	return &ReportServiceImpl{
		PunchRepository: punchRepository,
		UserRepository:  userRepository,
		now:             time.Now,
	}
}

// GenerateMonthlyPunchReport implements report.ReportService.
func (s *ReportServiceImpl) GenerateMonthlyPunchReport(ctx context.Context, req report.MonthlyPunchReportRequest) (report.MonthlyPunchReport, error) {
	if err := req.Validate(); err != nil {
		return report.MonthlyPunchReport{}, err
	}

	periodStart, periodEnd := req.Period()
	records, err := s.PunchRepository.List(ctx, punch.PunchFilter{
		EmployeeID: req.EmployeeID,
		From:       &periodStart,
		To:         &periodEnd,
	})
	if err != nil {
		return report.MonthlyPunchReport{}, fmt.Errorf("failed to get punch data: %w", err)
	}

	names, err := s.resolveNames(ctx, records)
	if err != nil {
		return report.MonthlyPunchReport{}, err
	}

	byEmployee := make(map[string]*report.EmployeePunchSummary)
	var order []string
	// List is newest first; walk backwards so daily logs read chronologically
	for i := len(records) - 1; i >= 0; i-- {
		r := records[i]
		summary, ok := byEmployee[r.EmployeeID]
		if !ok {
			summary = &report.EmployeePunchSummary{
				EmployeeID:   r.EmployeeID,
				EmployeeName: names[r.EmployeeID],
				DailyLogs:    []report.DailyPunchLog{},
			}
			byEmployee[r.EmployeeID] = summary
			order = append(order, r.EmployeeID)
		}
		accumulate(summary, r)
	}

	sort.Slice(order, func(i, j int) bool {
		a, b := byEmployee[order[i]], byEmployee[order[j]]
		if a.EmployeeName != b.EmployeeName {
			return a.EmployeeName < b.EmployeeName
		}
		return a.EmployeeID < b.EmployeeID
	})

	employees := make([]report.EmployeePunchSummary, 0, len(order))
	for _, id := range order {
		summary := byEmployee[id]
		summary.Summary.TotalEffectiveHours = punch.Round2(summary.Summary.TotalEffectiveHours)
		summary.Summary.TotalBreakMinutes = punch.Round2(summary.Summary.TotalBreakMinutes)
		if summary.Summary.DaysCompleted > 0 {
			summary.Summary.AverageEffectiveHours = punch.Round2(summary.Summary.TotalEffectiveHours / float64(summary.Summary.DaysCompleted))
		}
		employees = append(employees, *summary)
	}

	return report.MonthlyPunchReport{
		PeriodMonth: req.Month,
		PeriodYear:  req.Year,
		PeriodStart: periodStart.Format(punch.DateLayout),
		PeriodEnd:   periodEnd.Format(punch.DateLayout),
		GeneratedAt: s.now().UTC().Format(time.RFC3339),
		Employees:   employees,
	}, nil
}

// ExportPunchesCSV implements report.ReportService.
func (s *ReportServiceImpl) ExportPunchesCSV(ctx context.Context, req report.ExportPunchesRequest, w io.Writer) error {
	if err := req.Validate(); err != nil {
		return err
	}

	filter := punch.PunchFilter{EmployeeID: req.EmployeeID}
	if req.From != nil {
		from, _ := time.Parse(punch.DateLayout, *req.From)
		filter.From = &from
	}
	if req.To != nil {
		to, _ := time.Parse(punch.DateLayout, *req.To)
		filter.To = &to
	}

	records, err := s.PunchRepository.List(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to get punch data: %w", err)
	}

	names, err := s.resolveNames(ctx, records)
	if err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, r := range records {
		row := []string{
			r.Date.Format(punch.DateLayout),
			r.EmployeeID,
			names[r.EmployeeID],
			formatTime(r.PunchInAt),
			formatTime(r.PunchOutAt),
			strconv.Itoa(len(r.Breaks)),
			strconv.FormatFloat(punch.Round2(punch.BreakMinutes(r.Breaks)), 'f', 2, 64),
			"",
		}
		if r.EffectiveWorkingHours != nil {
			row[7] = strconv.FormatFloat(*r.EffectiveWorkingHours, 'f', 2, 64)
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}

	slog.Info("Punch export generated", "rows", len(records))
	return nil
}

// resolveNames maps employee ids to display names. Names joined by the
// repository win; the rest are looked up in one batch.
func (s *ReportServiceImpl) resolveNames(ctx context.Context, records []punch.PunchRecord) (map[string]string, error) {
	names := make(map[string]string)
	var missing []string
	seen := make(map[string]bool)
	for _, r := range records {
		if seen[r.EmployeeID] {
			continue
		}
		seen[r.EmployeeID] = true
		if r.EmployeeName != nil {
			names[r.EmployeeID] = *r.EmployeeName
			continue
		}
		missing = append(missing, r.EmployeeID)
	}

	if len(missing) == 0 || s.UserRepository == nil {
		return names, nil
	}

	found, err := s.UserRepository.GetNamesByIDs(ctx, missing)
	if err != nil {
		return nil, fmt.Errorf("failed to get employee names: %w", err)
	}
	for id, name := range found {
		names[id] = name
	}
	return names, nil
}

func accumulate(summary *report.EmployeePunchSummary, r punch.PunchRecord) {
	breakMinutes := punch.Round2(punch.BreakMinutes(r.Breaks))

	if r.IsPunchedIn() {
		summary.Summary.DaysPunchedIn++
		if r.IsPunchedOut() {
			summary.Summary.DaysCompleted++
		} else {
			summary.Summary.OpenDays++
		}
	}
	if r.EffectiveWorkingHours != nil {
		summary.Summary.TotalEffectiveHours += *r.EffectiveWorkingHours
	}
	summary.Summary.TotalBreakMinutes += breakMinutes

	summary.DailyLogs = append(summary.DailyLogs, report.DailyPunchLog{
		Date:           r.Date.Format(punch.DateLayout),
		DayOfWeek:      r.Date.Weekday().String(),
		PunchIn:        timePtr(r.PunchInAt),
		PunchOut:       timePtr(r.PunchOutAt),
		BreakCount:     len(r.Breaks),
		BreakMinutes:   breakMinutes,
		EffectiveHours: r.EffectiveWorkingHours,
	})
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func timePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(t)
	return &s
}
