package report

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/academy-backend-go/internal/pkg/validator"
)

// ========================================
// MONTHLY PUNCH REPORT
// ========================================

type MonthlyPunchReportRequest struct {
	Month      int     `json:"month"`
	Year       int     `json:"year"`
	EmployeeID *string `json:"employee_id"`
}

func (r *MonthlyPunchReportRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Month < 1 || r.Month > 12 {
		errs = append(errs, validator.ValidationError{
			Field:   "month",
			Message: ErrInvalidMonth.Error(),
		})
	}

	currentYear := time.Now().Year()
	if r.Year < 2020 || r.Year > currentYear+1 {
		errs = append(errs, validator.ValidationError{
			Field:   "year",
			Message: fmt.Sprintf("year must be between 2020 and %d", currentYear+1),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Period returns the first and last calendar day of the requested month.
func (r *MonthlyPunchReportRequest) Period() (time.Time, time.Time) {
	start := time.Date(r.Year, time.Month(r.Month), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, -1)
}

type MonthlyPunchReport struct {
	PeriodMonth int    `json:"period_month"`
	PeriodYear  int    `json:"period_year"`
	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end"`
	GeneratedAt string `json:"generated_at"`

	Employees []EmployeePunchSummary `json:"employees"`
}

type EmployeePunchSummary struct {
	EmployeeID   string `json:"employee_id"`
	EmployeeName string `json:"employee_name"`

	Summary   PunchSummary    `json:"summary"`
	DailyLogs []DailyPunchLog `json:"daily_logs"`
}

type PunchSummary struct {
	DaysPunchedIn         int     `json:"days_punched_in"`
	DaysCompleted         int     `json:"days_completed"`
	OpenDays              int     `json:"open_days"`
	TotalEffectiveHours   float64 `json:"total_effective_hours"`
	AverageEffectiveHours float64 `json:"average_effective_hours"`
	TotalBreakMinutes     float64 `json:"total_break_minutes"`
}

type DailyPunchLog struct {
	Date           string   `json:"date"`
	DayOfWeek      string   `json:"day_of_week"`
	PunchIn        *string  `json:"punch_in"`
	PunchOut       *string  `json:"punch_out"`
	BreakCount     int      `json:"break_count"`
	BreakMinutes   float64  `json:"break_minutes"`
	EffectiveHours *float64 `json:"effective_hours"`
}

// ========================================
// PUNCH EXPORT
// ========================================

type ExportPunchesRequest struct {
	From       *string `json:"from"`
	To         *string `json:"to"`
	EmployeeID *string `json:"employee_id"`
}

func (r *ExportPunchesRequest) Validate() error {
	var errs validator.ValidationErrors

	var from, to time.Time
	if r.From != nil {
		t, ok := validator.IsValidDate(*r.From)
		if !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "from",
				Message: "from must be in YYYY-MM-DD format",
			})
		}
		from = t
	}
	if r.To != nil {
		t, ok := validator.IsValidDate(*r.To)
		if !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "to",
				Message: "to must be in YYYY-MM-DD format",
			})
		}
		to = t
	}
	if len(errs) == 0 && r.From != nil && r.To != nil && to.Before(from) {
		errs = append(errs, validator.ValidationError{
			Field:   "to",
			Message: ErrInvalidDateRange.Error(),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
