package report

import (
	"context"
	"io"
)

// ReportService aggregates punch records into reports
type ReportService interface {
	GenerateMonthlyPunchReport(ctx context.Context, req MonthlyPunchReportRequest) (MonthlyPunchReport, error)

	// ExportPunchesCSV writes one CSV row per punch record to w
	ExportPunchesCSV(ctx context.Context, req ExportPunchesRequest, w io.Writer) error
}
