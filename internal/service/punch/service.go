package punch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/academy-backend-go/internal/domain/permission"
	"github.com/cmlabs-hris/academy-backend-go/internal/domain/punch"
	"github.com/cmlabs-hris/academy-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/academy-backend-go/internal/pkg/metrics"
	"github.com/cmlabs-hris/academy-backend-go/internal/pkg/sse"
	"github.com/cmlabs-hris/academy-backend-go/internal/pkg/validator"
	"github.com/cmlabs-hris/academy-backend-go/internal/service/file"
	"github.com/google/uuid"
)

const (
	EventPunchIn    = "punch_in"
	EventPunchOut   = "punch_out"
	EventBreakAdded = "break_added"
	EventBreakEnded = "break_ended"
)

type PunchServiceImpl struct {
	punch.PunchRepository
	authorizer  permission.Authorizer
	fileService file.FileService
	hub         *sse.Hub
	metrics     *metrics.Metrics

	// loc decides which calendar day a punch belongs to
	loc   *time.Location
	now   func() time.Time
	newID func() string
}

func NewPunchService(
	punchRepository punch.PunchRepository,
	authorizer permission.Authorizer,
	fileService file.FileService,
	hub *sse.Hub,
	m *metrics.Metrics,
	loc *time.Location,
) punch.PunchService {
	if loc == nil {
		loc = time.UTC
	}
	return &PunchServiceImpl{
		PunchRepository: punchRepository,
		authorizer:      authorizer,
		fileService:     fileService,
		hub:             hub,
		metrics:         m,
		loc:             loc,
		now:             time.Now,
		newID:           uuid.NewString,
	}
}

// PunchIn implements punch.PunchService.
func (s *PunchServiceImpl) PunchIn(ctx context.Context, req punch.PunchRequest) (resp punch.PunchRecordResponse, err error) {
	defer func() { s.metrics.ObservePunch(EventPunchIn, err) }()

	if err := req.Validate(); err != nil {
		return punch.PunchRecordResponse{}, err
	}

	caller, err := jwt.CallerFromContext(ctx)
	if err != nil {
		return punch.PunchRecordResponse{}, err
	}

	now := s.now().UTC()
	date := punch.DayOf(now, s.loc)

	record, err := s.PunchRepository.GetByEmployeeAndDate(ctx, caller.UserID, date)
	if err != nil {
		return punch.PunchRecordResponse{}, fmt.Errorf("failed to get today's punch record: %w", err)
	}
	if !punch.CanPunchIn(record) {
		return punch.PunchRecordResponse{}, punch.ErrAlreadyPunchedIn
	}

	photoRef, err := s.storePhoto(ctx, caller.UserID, date, req, file.PunchTypeIn)
	if err != nil {
		return punch.PunchRecordResponse{}, err
	}

	var saved punch.PunchRecord
	if record == nil {
		saved, err = s.PunchRepository.Create(ctx, punch.PunchRecord{
			ID:         s.newID(),
			EmployeeID: caller.UserID,
			Date:       date,
			PunchInAt:  &now,
			PunchIn:    req.ToEvidence(photoRef),
			Breaks:     []punch.BreakInterval{},
		})
	} else {
		record.PunchInAt = &now
		record.PunchIn = req.ToEvidence(photoRef)
		saved, err = s.save(ctx, *record)
	}
	if err != nil {
		s.discardPhoto(ctx, photoRef)
		return punch.PunchRecordResponse{}, fmt.Errorf("failed to punch in: %w", err)
	}

	slog.Info("Employee punched in", "employee_id", caller.UserID, "punch_id", saved.ID, "date", saved.Date.Format(punch.DateLayout))
	return s.publish(EventPunchIn, saved), nil
}

// PunchOut implements punch.PunchService.
func (s *PunchServiceImpl) PunchOut(ctx context.Context, req punch.PunchRequest) (resp punch.PunchRecordResponse, err error) {
	defer func() { s.metrics.ObservePunch(EventPunchOut, err) }()

	if err := req.Validate(); err != nil {
		return punch.PunchRecordResponse{}, err
	}

	caller, err := jwt.CallerFromContext(ctx)
	if err != nil {
		return punch.PunchRecordResponse{}, err
	}

	now := s.now().UTC()
	record, err := s.openRecord(ctx, caller.UserID, now)
	if err != nil {
		return punch.PunchRecordResponse{}, err
	}

	photoRef, err := s.storePhoto(ctx, caller.UserID, record.Date, req, file.PunchTypeOut)
	if err != nil {
		return punch.PunchRecordResponse{}, err
	}

	hours := punch.EffectiveHours(*record.PunchInAt, now, record.Breaks)
	if hours < 0 {
		slog.Warn("Breaks exceed punch span, clamping effective hours to zero",
			"punch_id", record.ID,
			"employee_id", record.EmployeeID,
			"computed_hours", hours,
		)
		hours = 0
	}

	record.PunchOutAt = &now
	record.PunchOut = req.ToEvidence(photoRef)
	record.EffectiveWorkingHours = &hours

	saved, err := s.save(ctx, *record)
	if err != nil {
		s.discardPhoto(ctx, photoRef)
		return punch.PunchRecordResponse{}, fmt.Errorf("failed to punch out: %w", err)
	}

	slog.Info("Employee punched out", "employee_id", caller.UserID, "punch_id", saved.ID, "effective_hours", hours)
	return s.publish(EventPunchOut, saved), nil
}

// GetToday implements punch.PunchService.
func (s *PunchServiceImpl) GetToday(ctx context.Context) (punch.TodayResponse, error) {
	caller, err := jwt.CallerFromContext(ctx)
	if err != nil {
		return punch.TodayResponse{}, err
	}

	date := punch.DayOf(s.now(), s.loc)
	record, err := s.PunchRepository.GetByEmployeeAndDate(ctx, caller.UserID, date)
	if err != nil {
		return punch.TodayResponse{}, fmt.Errorf("failed to get today's punch record: %w", err)
	}

	resp := punch.TodayResponse{
		Date:        date.Format(punch.DateLayout),
		CanPunchIn:  punch.CanPunchIn(record),
		CanPunchOut: punch.CanPunchOut(record),
	}
	if record != nil {
		mapped := mapRecordToResponse(*record)
		resp.Record = &mapped
		resp.OnBreak = punch.CanPunchOut(record) && record.HasOpenBreak()
	}
	return resp, nil
}

// GetLog implements punch.PunchService.
func (s *PunchServiceImpl) GetLog(ctx context.Context, filter punch.LogFilter) (punch.ListPunchResponse, error) {
	if err := filter.Validate(); err != nil {
		return punch.ListPunchResponse{}, err
	}

	caller, err := jwt.CallerFromContext(ctx)
	if err != nil {
		return punch.ListPunchResponse{}, err
	}

	target := caller.UserID
	if filter.EmployeeID != nil && *filter.EmployeeID != caller.UserID {
		if err := s.authorizer.Authorize(ctx, caller, permission.ModuleEmployees, permission.CapabilityView); err != nil {
			return punch.ListPunchResponse{}, err
		}
		target = *filter.EmployeeID
	}

	repoFilter := filter.ToRepositoryFilter()
	repoFilter.EmployeeID = &target
	return s.list(ctx, repoFilter)
}

// GetAll implements punch.PunchService.
func (s *PunchServiceImpl) GetAll(ctx context.Context, filter punch.LogFilter) (punch.ListPunchResponse, error) {
	if err := filter.Validate(); err != nil {
		return punch.ListPunchResponse{}, err
	}

	caller, err := jwt.CallerFromContext(ctx)
	if err != nil {
		return punch.ListPunchResponse{}, err
	}
	if err := s.authorizer.Authorize(ctx, caller, permission.ModuleEmployees, permission.CapabilityView); err != nil {
		return punch.ListPunchResponse{}, err
	}

	return s.list(ctx, filter.ToRepositoryFilter())
}

// AddBreak implements punch.PunchService.
func (s *PunchServiceImpl) AddBreak(ctx context.Context, req punch.AddBreakRequest) (resp punch.PunchRecordResponse, err error) {
	defer func() { s.metrics.ObservePunch(EventBreakAdded, err) }()

	if err := req.Validate(); err != nil {
		return punch.PunchRecordResponse{}, err
	}

	caller, err := jwt.CallerFromContext(ctx)
	if err != nil {
		return punch.PunchRecordResponse{}, err
	}

	now := s.now().UTC()
	record, err := s.openRecord(ctx, caller.UserID, now)
	if err != nil {
		return punch.PunchRecordResponse{}, err
	}

	start := now
	if req.StartTime != nil {
		start = req.StartTime.UTC()
	}
	var end *time.Time
	if req.EndTime != nil {
		e := req.EndTime.UTC()
		end = &e
	}

	brk := punch.BreakInterval{
		ID:        s.newID(),
		BreakType: req.BreakType,
		Reason:    req.Reason,
		StartTime: start,
		EndTime:   end,
		CreatedAt: now,
	}
	if end != nil && end.Before(start) {
		return punch.PunchRecordResponse{}, validator.ValidationErrors{{
			Field:   "end_time",
			Message: "end_time must not be before start_time",
		}}
	}

	record.Breaks = append(record.Breaks, brk)

	saved, err := s.save(ctx, *record)
	if err != nil {
		return punch.PunchRecordResponse{}, fmt.Errorf("failed to add break: %w", err)
	}

	slog.Info("Break added", "employee_id", caller.UserID, "punch_id", saved.ID, "break_id", brk.ID, "break_type", brk.BreakType)
	return s.publish(EventBreakAdded, saved), nil
}

// EndBreak implements punch.PunchService.
func (s *PunchServiceImpl) EndBreak(ctx context.Context, breakID string) (resp punch.PunchRecordResponse, err error) {
	defer func() { s.metrics.ObservePunch(EventBreakEnded, err) }()

	caller, err := jwt.CallerFromContext(ctx)
	if err != nil {
		return punch.PunchRecordResponse{}, err
	}

	now := s.now().UTC()
	record, err := s.openRecord(ctx, caller.UserID, now)
	if err != nil {
		return punch.PunchRecordResponse{}, err
	}

	idx := record.FindBreak(breakID)
	if idx < 0 {
		return punch.PunchRecordResponse{}, punch.ErrBreakNotFound
	}
	if !record.Breaks[idx].IsOpen() {
		return punch.PunchRecordResponse{}, punch.ErrBreakAlreadyEnded
	}

	record.Breaks[idx].EndTime = &now

	saved, err := s.save(ctx, *record)
	if err != nil {
		return punch.PunchRecordResponse{}, fmt.Errorf("failed to end break: %w", err)
	}

	slog.Info("Break ended", "employee_id", caller.UserID, "punch_id", saved.ID, "break_id", breakID)
	return s.publish(EventBreakEnded, saved), nil
}

// openRecord returns today's record when it is punched in and not yet punched out.
func (s *PunchServiceImpl) openRecord(ctx context.Context, employeeID string, now time.Time) (*punch.PunchRecord, error) {
	record, err := s.PunchRepository.GetByEmployeeAndDate(ctx, employeeID, punch.DayOf(now, s.loc))
	if err != nil {
		return nil, fmt.Errorf("failed to get today's punch record: %w", err)
	}
	if record == nil || !record.IsPunchedIn() {
		return nil, punch.ErrNotPunchedIn
	}
	if record.IsPunchedOut() {
		return nil, punch.ErrAlreadyPunchedOut
	}
	return record, nil
}

// save normalizes the break list and writes the record under its version guard.
func (s *PunchServiceImpl) save(ctx context.Context, record punch.PunchRecord) (punch.PunchRecord, error) {
	record.Breaks = punch.NormalizeBreaks(record.Breaks, s.newID)
	return s.PunchRepository.Update(ctx, record)
}

func (s *PunchServiceImpl) list(ctx context.Context, filter punch.PunchFilter) (punch.ListPunchResponse, error) {
	// An inverted range matches nothing
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return punch.ListPunchResponse{Records: []punch.PunchRecordResponse{}, Total: 0}, nil
	}

	records, err := s.PunchRepository.List(ctx, filter)
	if err != nil {
		return punch.ListPunchResponse{}, fmt.Errorf("failed to list punch records: %w", err)
	}

	responses := make([]punch.PunchRecordResponse, 0, len(records))
	for _, r := range records {
		responses = append(responses, mapRecordToResponse(r))
	}
	return punch.ListPunchResponse{Records: responses, Total: len(responses)}, nil
}

func (s *PunchServiceImpl) storePhoto(ctx context.Context, employeeID string, date time.Time, req punch.PunchRequest, punchType string) (*string, error) {
	if req.File == nil || req.FileHeader == nil || s.fileService == nil {
		return nil, nil
	}
	path, err := s.fileService.UploadPunchPhoto(ctx, employeeID, date, req.File, req.FileHeader.Filename, punchType)
	switch {
	case errors.Is(err, file.ErrUnsupportedImage):
		return nil, validator.ValidationErrors{{Field: "photo", Message: file.ErrUnsupportedImage.Error()}}
	case errors.Is(err, file.ErrInvalidImage):
		return nil, validator.ValidationErrors{{Field: "photo", Message: file.ErrInvalidImage.Error()}}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to upload punch photo: %w", err)
	}
	return &path, nil
}

// discardPhoto removes an uploaded photo whose record write failed.
func (s *PunchServiceImpl) discardPhoto(ctx context.Context, photoRef *string) {
	if photoRef == nil || s.fileService == nil {
		return
	}
	if err := s.fileService.DeleteFile(ctx, *photoRef); err != nil {
		slog.Warn("Failed to remove orphaned punch photo", "path", *photoRef, "error", err)
	}
}

func (s *PunchServiceImpl) publish(event string, record punch.PunchRecord) punch.PunchRecordResponse {
	resp := mapRecordToResponse(record)
	if s.hub != nil {
		s.hub.PublishToMany(
			[]string{sse.TopicPunches, sse.UserTopic(record.EmployeeID)},
			sse.Event{Event: event, Data: resp},
		)
	}
	return resp
}

func timePtrToString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	format := t.UTC().Format(time.RFC3339)
	return &format
}

func mapLocation(l *punch.Location) *punch.LocationResponse {
	if l == nil {
		return nil
	}
	return &punch.LocationResponse{
		Latitude:  l.Latitude,
		Longitude: l.Longitude,
		Address:   l.Address,
	}
}

func mapRecordToResponse(r punch.PunchRecord) punch.PunchRecordResponse {
	breaks := make([]punch.BreakResponse, 0, len(r.Breaks))
	for _, b := range r.Breaks {
		br := punch.BreakResponse{
			ID:        b.ID,
			BreakType: b.BreakType,
			Reason:    b.Reason,
			EndTime:   timePtrToString(b.EndTime),
		}
		if !b.StartTime.IsZero() {
			br.StartTime = timePtrToString(&b.StartTime)
		}
		if b.EndTime != nil && !b.StartTime.IsZero() && !b.EndTime.Before(b.StartTime) {
			minutes := punch.Round2(b.EndTime.Sub(b.StartTime).Minutes())
			br.DurationMinutes = &minutes
		}
		breaks = append(breaks, br)
	}

	return punch.PunchRecordResponse{
		ID:                    r.ID,
		EmployeeID:            r.EmployeeID,
		EmployeeName:          r.EmployeeName,
		EmployeeEmail:         r.EmployeeEmail,
		Date:                  r.Date.Format(punch.DateLayout),
		Status:                r.State(),
		PunchInAt:             timePtrToString(r.PunchInAt),
		PunchOutAt:            timePtrToString(r.PunchOutAt),
		PunchInPhoto:          r.PunchIn.PhotoRef,
		PunchOutPhoto:         r.PunchOut.PhotoRef,
		PunchInFingerprint:    r.PunchIn.Fingerprint,
		PunchOutFingerprint:   r.PunchOut.Fingerprint,
		PunchInLocation:       mapLocation(r.PunchIn.Location),
		PunchOutLocation:      mapLocation(r.PunchOut.Location),
		Breaks:                breaks,
		TotalBreakMinutes:     punch.Round2(punch.BreakMinutes(r.Breaks)),
		EffectiveWorkingHours: r.EffectiveWorkingHours,
		CreatedAt:             r.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:             r.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
