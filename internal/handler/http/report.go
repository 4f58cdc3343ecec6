package http

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/cmlabs-hris/academy-backend-go/internal/domain/report"
	"github.com/cmlabs-hris/academy-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/academy-backend-go/internal/pkg/validator"
)

type ReportHandler interface {
	MonthlyPunchReport(w http.ResponseWriter, r *http.Request)
	ExportPunches(w http.ResponseWriter, r *http.Request)
}

type reportHandlerImpl struct {
	reportService report.ReportService
}

func NewReportHandler(reportService report.ReportService) ReportHandler {
	return &reportHandlerImpl{
		reportService: reportService,
	}
}

// MonthlyPunchReport implements ReportHandler.
func (h *reportHandlerImpl) MonthlyPunchReport(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	req := report.MonthlyPunchReportRequest{
		Month:      int(now.Month()),
		Year:       now.Year(),
		EmployeeID: queryStringPtr(r, "employee_id"),
	}

	var errs validator.ValidationErrors
	if v := r.URL.Query().Get("month"); v != "" {
		month, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, validator.ValidationError{Field: "month", Message: "month must be a number"})
		}
		req.Month = month
	}
	if v := r.URL.Query().Get("year"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, validator.ValidationError{Field: "year", Message: "year must be a number"})
		}
		req.Year = year
	}
	if len(errs) > 0 {
		response.HandleError(w, errs)
		return
	}

	result, err := h.reportService.GenerateMonthlyPunchReport(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ExportPunches implements ReportHandler.
func (h *reportHandlerImpl) ExportPunches(w http.ResponseWriter, r *http.Request) {
	req := report.ExportPunchesRequest{
		From:       queryStringPtr(r, "from"),
		To:         queryStringPtr(r, "to"),
		EmployeeID: queryStringPtr(r, "employee_id"),
	}

	// Buffered so a failure can still be reported as JSON
	buf := new(bytes.Buffer)
	if err := h.reportService.ExportPunchesCSV(r.Context(), req, buf); err != nil {
		response.HandleError(w, err)
		return
	}

	filename := fmt.Sprintf("punches-%s.csv", time.Now().UTC().Format("20060102-150405"))
	response.Attachment(w, "text/csv; charset=utf-8", filename)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
