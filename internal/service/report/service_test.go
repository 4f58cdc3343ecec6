package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/academy-backend-go/internal/domain/punch"
	"github.com/cmlabs-hris/academy-backend-go/internal/domain/report"
	"github.com/cmlabs-hris/academy-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/academy-backend-go/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPunchRepository struct {
	punch.PunchRepository
	records    []punch.PunchRecord
	lastFilter punch.PunchFilter
	err        error
}

func (r *stubPunchRepository) List(_ context.Context, filter punch.PunchFilter) ([]punch.PunchRecord, error) {
	r.lastFilter = filter
	return r.records, r.err
}

type stubUserRepository struct {
	user.UserRepository
	names map[string]string
	asked []string
}

func (r *stubUserRepository) GetNamesByIDs(_ context.Context, ids []string) (map[string]string, error) {
	r.asked = append(r.asked, ids...)
	out := make(map[string]string)
	for _, id := range ids {
		if name, ok := r.names[id]; ok {
			out[id] = name
		}
	}
	return out, nil
}

func ptr[T any](v T) *T { return &v }

func day(d int) time.Time {
	return time.Date(2024, 5, d, 0, 0, 0, 0, time.UTC)
}

func completed(employeeID string, d int, hours float64, breakMinutes int) punch.PunchRecord {
	in := day(d).Add(9 * time.Hour)
	out := in.Add(9 * time.Hour)
	brkStart := in.Add(3 * time.Hour)
	brkEnd := brkStart.Add(time.Duration(breakMinutes) * time.Minute)
	return punch.PunchRecord{
		ID:                    employeeID + "-" + day(d).Format(punch.DateLayout),
		EmployeeID:            employeeID,
		Date:                  day(d),
		PunchInAt:             &in,
		PunchOutAt:            &out,
		EffectiveWorkingHours: &hours,
		Breaks: []punch.BreakInterval{
			{ID: "b1", BreakType: "lunch", Reason: "lunch", StartTime: brkStart, EndTime: &brkEnd},
		},
	}
}

func open(employeeID string, d int) punch.PunchRecord {
	in := day(d).Add(9 * time.Hour)
	return punch.PunchRecord{ID: employeeID + "-open", EmployeeID: employeeID, Date: day(d), PunchInAt: &in}
}

func newTestService(records []punch.PunchRecord, names map[string]string) (*ReportServiceImpl, *stubPunchRepository, *stubUserRepository) {
	punches := &stubPunchRepository{records: records}
	users := &stubUserRepository{names: names}
	svc := NewReportService(punches, users).(*ReportServiceImpl)
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC) }
	return svc, punches, users
}

func TestGenerateMonthlyPunchReport(t *testing.T) {
	// Newest first, as repositories return them
	records := []punch.PunchRecord{
		open("emp-b", 15),
		completed("emp-a", 14, 8, 60),
		completed("emp-b", 14, 7.5, 30),
		completed("emp-a", 13, 7.75, 45),
	}
	svc, punches, users := newTestService(records, map[string]string{"emp-a": "Ayu", "emp-b": "Bima"})

	got, err := svc.GenerateMonthlyPunchReport(context.Background(), report.MonthlyPunchReportRequest{Month: 5, Year: 2024})
	require.NoError(t, err)

	assert.Equal(t, "2024-05-01", got.PeriodStart)
	assert.Equal(t, "2024-05-31", got.PeriodEnd)
	assert.Equal(t, "2024-06-01T08:00:00Z", got.GeneratedAt)
	assert.Equal(t, day(1), *punches.lastFilter.From)
	assert.Equal(t, day(31), *punches.lastFilter.To)
	assert.ElementsMatch(t, []string{"emp-a", "emp-b"}, users.asked)

	require.Len(t, got.Employees, 2)

	ayu := got.Employees[0]
	assert.Equal(t, "Ayu", ayu.EmployeeName)
	assert.Equal(t, report.PunchSummary{
		DaysPunchedIn:         2,
		DaysCompleted:         2,
		TotalEffectiveHours:   15.75,
		AverageEffectiveHours: 7.88,
		TotalBreakMinutes:     105,
	}, ayu.Summary)
	require.Len(t, ayu.DailyLogs, 2)
	assert.Equal(t, "2024-05-13", ayu.DailyLogs[0].Date)
	assert.Equal(t, "Monday", ayu.DailyLogs[0].DayOfWeek)

	bima := got.Employees[1]
	assert.Equal(t, 2, bima.Summary.DaysPunchedIn)
	assert.Equal(t, 1, bima.Summary.DaysCompleted)
	assert.Equal(t, 1, bima.Summary.OpenDays)
	assert.Equal(t, 7.5, bima.Summary.AverageEffectiveHours)
	assert.Nil(t, bima.DailyLogs[1].PunchOut)
}

func TestGenerateMonthlyPunchReportPrefersJoinedNames(t *testing.T) {
	rec := completed("emp-a", 14, 8, 0)
	rec.EmployeeName = ptr("Ayu Lestari")
	svc, _, users := newTestService([]punch.PunchRecord{rec}, nil)

	got, err := svc.GenerateMonthlyPunchReport(context.Background(), report.MonthlyPunchReportRequest{Month: 5, Year: 2024})
	require.NoError(t, err)
	assert.Equal(t, "Ayu Lestari", got.Employees[0].EmployeeName)
	assert.Empty(t, users.asked)
}

func TestGenerateMonthlyPunchReportValidation(t *testing.T) {
	svc, _, _ := newTestService(nil, nil)

	_, err := svc.GenerateMonthlyPunchReport(context.Background(), report.MonthlyPunchReportRequest{Month: 13, Year: 1999})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Len(t, verrs, 2)
}

func TestGenerateMonthlyPunchReportEmptyMonth(t *testing.T) {
	svc, _, _ := newTestService(nil, nil)

	got, err := svc.GenerateMonthlyPunchReport(context.Background(), report.MonthlyPunchReportRequest{Month: 2, Year: 2024})
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", got.PeriodEnd)
	assert.NotNil(t, got.Employees)
	assert.Empty(t, got.Employees)
}

func TestGenerateMonthlyPunchReportRepositoryError(t *testing.T) {
	svc, punches, _ := newTestService(nil, nil)
	punches.err = errors.New("connection reset")

	_, err := svc.GenerateMonthlyPunchReport(context.Background(), report.MonthlyPunchReportRequest{Month: 5, Year: 2024})
	assert.ErrorContains(t, err, "connection reset")
}

func TestExportPunchesCSV(t *testing.T) {
	records := []punch.PunchRecord{
		open("emp-b", 15),
		completed("emp-a", 14, 8, 60),
	}
	svc, punches, _ := newTestService(records, map[string]string{"emp-a": "Ayu", "emp-b": "Bima"})

	buf := new(bytes.Buffer)
	err := svc.ExportPunchesCSV(context.Background(), report.ExportPunchesRequest{
		From:       ptr("2024-05-01"),
		To:         ptr("2024-05-31"),
		EmployeeID: nil,
	}, buf)
	require.NoError(t, err)
	assert.Equal(t, day(1), *punches.lastFilter.From)
	assert.Equal(t, day(31), *punches.lastFilter.To)

	rows, err := csv.NewReader(buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, []string{"2024-05-15", "emp-b", "Bima", "2024-05-15T09:00:00Z", "", "0", "0.00", ""}, rows[1])
	assert.Equal(t, []string{"2024-05-14", "emp-a", "Ayu", "2024-05-14T09:00:00Z", "2024-05-14T18:00:00Z", "1", "60.00", "8.00"}, rows[2])
}

func TestExportPunchesCSVRejectsBadRange(t *testing.T) {
	svc, _, _ := newTestService(nil, nil)

	err := svc.ExportPunchesCSV(context.Background(), report.ExportPunchesRequest{
		From: ptr("2024-05-31"),
		To:   ptr("2024-05-01"),
	}, new(bytes.Buffer))
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "to", verrs[0].Field)

	err = svc.ExportPunchesCSV(context.Background(), report.ExportPunchesRequest{From: ptr("31-05-2024")}, new(bytes.Buffer))
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "from", verrs[0].Field)
}
