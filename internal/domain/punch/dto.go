package punch

import (
	"errors"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/cmlabs-hris/academy-backend-go/internal/pkg/validator"
)

// ========================================
// REQUEST DTOs
// ========================================

type LocationInput struct {
	Latitude  *float64 `json:"latitude" validate:"required"`
	Longitude *float64 `json:"longitude" validate:"required"`
	Address   *string  `json:"address" validate:"omitempty,max=500"`
}

// PunchRequest carries the evidence of a punch in or punch out. Every field is
// optional. A photo can be given as an existing reference or uploaded as File.
type PunchRequest struct {
	Photo       *string               `json:"photo" validate:"omitempty,max=2048"`
	Fingerprint *string               `json:"fingerprint" validate:"omitempty,max=65535"`
	Location    *LocationInput        `json:"location"`
	File        multipart.File        `json:"-"`
	FileHeader  *multipart.FileHeader `json:"-"`
}

func (r *PunchRequest) Validate() error {
	var errs validator.ValidationErrors

	if err := validator.Struct(r); err != nil {
		var tagErrs validator.ValidationErrors
		if !errors.As(err, &tagErrs) {
			return err
		}
		errs = append(errs, tagErrs...)
	}

	if r.Location != nil {
		if r.Location.Latitude != nil && !validator.IsValidLatitude(*r.Location.Latitude) {
			errs = append(errs, validator.ValidationError{
				Field:   "latitude",
				Message: "latitude must be between -90 and 90",
			})
		}
		if r.Location.Longitude != nil && !validator.IsValidLongitude(*r.Location.Longitude) {
			errs = append(errs, validator.ValidationError{
				Field:   "longitude",
				Message: "longitude must be between -180 and 180",
			})
		}
	}

	if r.FileHeader != nil {
		ext := strings.ToLower(filepath.Ext(r.FileHeader.Filename))
		if ext != ".jpg" && ext != ".jpeg" && ext != ".png" {
			errs = append(errs, validator.ValidationError{
				Field:   "photo",
				Message: "invalid file type: only jpg, jpeg, png allowed",
			})
		} else if r.FileHeader.Size > 10<<20 {
			errs = append(errs, validator.ValidationError{
				Field:   "photo",
				Message: "photo size must not exceed 10MB",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ToEvidence converts the request into stored evidence. photoRef overrides
// the request photo when an upload was stored.
func (r *PunchRequest) ToEvidence(photoRef *string) Evidence {
	ev := Evidence{
		PhotoRef:    r.Photo,
		Fingerprint: r.Fingerprint,
	}
	if photoRef != nil {
		ev.PhotoRef = photoRef
	}
	if r.Location != nil && r.Location.Latitude != nil && r.Location.Longitude != nil {
		ev.Location = &Location{
			Latitude:  *r.Location.Latitude,
			Longitude: *r.Location.Longitude,
			Address:   r.Location.Address,
		}
	}
	return ev
}

type AddBreakRequest struct {
	BreakType string     `json:"break_type" validate:"required,notblank,max=50"`
	Reason    string     `json:"reason" validate:"required,notblank,max=500"`
	StartTime *time.Time `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
}

func (r *AddBreakRequest) Validate() error {
	var errs validator.ValidationErrors

	if err := validator.Struct(r); err != nil {
		var tagErrs validator.ValidationErrors
		if !errors.As(err, &tagErrs) {
			return err
		}
		errs = append(errs, tagErrs...)
	}

	if r.StartTime != nil && r.EndTime != nil && r.EndTime.Before(*r.StartTime) {
		errs = append(errs, validator.ValidationError{
			Field:   "end_time",
			Message: "end_time must not be before start_time",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// LogFilter selects punch records by employee and inclusive date range.
type LogFilter struct {
	EmployeeID *string `json:"employee_id"`
	From       *string `json:"from"`
	To         *string `json:"to"`
}

func (f *LogFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.From != nil {
		if _, ok := validator.IsValidDate(*f.From); !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "from",
				Message: "from must be in YYYY-MM-DD format",
			})
		}
	}
	if f.To != nil {
		if _, ok := validator.IsValidDate(*f.To); !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "to",
				Message: "to must be in YYYY-MM-DD format",
			})
		}
	}
	if f.EmployeeID != nil && validator.IsEmpty(*f.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id must not be blank",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ToRepositoryFilter parses the validated date bounds.
func (f *LogFilter) ToRepositoryFilter() PunchFilter {
	filter := PunchFilter{EmployeeID: f.EmployeeID}
	if f.From != nil {
		if t, ok := validator.IsValidDate(*f.From); ok {
			filter.From = &t
		}
	}
	if f.To != nil {
		if t, ok := validator.IsValidDate(*f.To); ok {
			filter.To = &t
		}
	}
	return filter
}

// ========================================
// RESPONSE DTOs
// ========================================

type LocationResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   *string `json:"address,omitempty"`
}

type BreakResponse struct {
	ID              string   `json:"id"`
	BreakType       string   `json:"break_type"`
	Reason          string   `json:"reason"`
	StartTime       *string  `json:"start_time"`
	EndTime         *string  `json:"end_time"`
	DurationMinutes *float64 `json:"duration_minutes"`
}

type PunchRecordResponse struct {
	ID                    string            `json:"id"`
	EmployeeID            string            `json:"employee_id"`
	EmployeeName          *string           `json:"employee_name,omitempty"`
	EmployeeEmail         *string           `json:"employee_email,omitempty"`
	Date                  string            `json:"date"`
	Status                State             `json:"status"`
	PunchInAt             *string           `json:"punch_in_at"`
	PunchOutAt            *string           `json:"punch_out_at"`
	PunchInPhoto          *string           `json:"punch_in_photo"`
	PunchOutPhoto         *string           `json:"punch_out_photo"`
	PunchInFingerprint    *string           `json:"punch_in_fingerprint"`
	PunchOutFingerprint   *string           `json:"punch_out_fingerprint"`
	PunchInLocation       *LocationResponse `json:"punch_in_location"`
	PunchOutLocation      *LocationResponse `json:"punch_out_location"`
	Breaks                []BreakResponse   `json:"breaks"`
	TotalBreakMinutes     float64           `json:"total_break_minutes"`
	EffectiveWorkingHours *float64          `json:"effective_working_hours"`
	CreatedAt             string            `json:"created_at"`
	UpdatedAt             string            `json:"updated_at"`
}

type TodayResponse struct {
	Date        string               `json:"date"`
	Record      *PunchRecordResponse `json:"record"`
	CanPunchIn  bool                 `json:"can_punch_in"`
	CanPunchOut bool                 `json:"can_punch_out"`
	OnBreak     bool                 `json:"on_break"`
}

type ListPunchResponse struct {
	Records []PunchRecordResponse `json:"records"`
	Total   int                   `json:"total"`
}
