package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/cmlabs-hris/academy-backend-go/internal/domain/punch"
	"github.com/cmlabs-hris/academy-backend-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

// Photo plus form overhead
const maxPunchFormSize = 11 << 20

type PunchHandler interface {
	PunchIn(w http.ResponseWriter, r *http.Request)
	PunchOut(w http.ResponseWriter, r *http.Request)
	GetToday(w http.ResponseWriter, r *http.Request)
	GetLog(w http.ResponseWriter, r *http.Request)
	AddBreak(w http.ResponseWriter, r *http.Request)
	EndBreak(w http.ResponseWriter, r *http.Request)
	GetAll(w http.ResponseWriter, r *http.Request)
}

type punchHandlerImpl struct {
	punchService punch.PunchService
}

func NewPunchHandler(punchService punch.PunchService) PunchHandler {
	return &punchHandlerImpl{
		punchService: punchService,
	}
}

// PunchIn implements PunchHandler.
func (h *punchHandlerImpl) PunchIn(w http.ResponseWriter, r *http.Request) {
	req, ok := decodePunchRequest(w, r)
	if !ok {
		return
	}
	if req.File != nil {
		defer req.File.Close()
	}

	result, err := h.punchService.PunchIn(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Punch in successful", result)
}

// PunchOut implements PunchHandler.
func (h *punchHandlerImpl) PunchOut(w http.ResponseWriter, r *http.Request) {
	req, ok := decodePunchRequest(w, r)
	if !ok {
		return
	}
	if req.File != nil {
		defer req.File.Close()
	}

	result, err := h.punchService.PunchOut(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Punch out successful", result)
}

// GetToday implements PunchHandler.
func (h *punchHandlerImpl) GetToday(w http.ResponseWriter, r *http.Request) {
	result, err := h.punchService.GetToday(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// GetLog implements PunchHandler.
func (h *punchHandlerImpl) GetLog(w http.ResponseWriter, r *http.Request) {
	result, err := h.punchService.GetLog(r.Context(), logFilterFromQuery(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// AddBreak implements PunchHandler.
func (h *punchHandlerImpl) AddBreak(w http.ResponseWriter, r *http.Request) {
	var req punch.AddBreakRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.punchService.AddBreak(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Break added", result)
}

// EndBreak implements PunchHandler.
func (h *punchHandlerImpl) EndBreak(w http.ResponseWriter, r *http.Request) {
	breakID := chi.URLParam(r, "breakID")
	if breakID == "" {
		response.BadRequest(w, "breakID is required", nil)
		return
	}

	result, err := h.punchService.EndBreak(r.Context(), breakID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Break ended", result)
}

// GetAll implements PunchHandler.
func (h *punchHandlerImpl) GetAll(w http.ResponseWriter, r *http.Request) {
	result, err := h.punchService.GetAll(r.Context(), logFilterFromQuery(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// decodePunchRequest accepts either a JSON body or a multipart form with a
// JSON "data" field and an optional "photo" file. Both bodies may be empty.
func decodePunchRequest(w http.ResponseWriter, r *http.Request) (punch.PunchRequest, bool) {
	var req punch.PunchRequest

	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			response.BadRequest(w, "Invalid request body", nil)
			return req, false
		}
		return req, true
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxPunchFormSize)
	if err := r.ParseMultipartForm(maxPunchFormSize); err != nil {
		slog.Error("Failed to parse multipart form", "error", err)
		response.BadRequest(w, "Failed to parse form data", nil)
		return req, false
	}

	if dataJSON := r.FormValue("data"); dataJSON != "" {
		if err := json.Unmarshal([]byte(dataJSON), &req); err != nil {
			response.BadRequest(w, "Invalid request format", nil)
			return req, false
		}
	}

	file, fileHeader, err := r.FormFile("photo")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return req, true
		}
		slog.Error("Failed to get file from form", "error", err)
		response.BadRequest(w, "Invalid file upload", nil)
		return req, false
	}
	req.File = file
	req.FileHeader = fileHeader

	return req, true
}

func logFilterFromQuery(r *http.Request) punch.LogFilter {
	return punch.LogFilter{
		EmployeeID: queryStringPtr(r, "employee_id"),
		From:       queryStringPtr(r, "from"),
		To:         queryStringPtr(r, "to"),
	}
}

func queryStringPtr(r *http.Request, key string) *string {
	value := strings.TrimSpace(r.URL.Query().Get(key))
	if value == "" {
		return nil
	}
	return &value
}
