package punch

import (
	"time"
)

// DateLayout is the calendar day key format of a punch record.
const DateLayout = "2006-01-02"

type State string

const (
	StateNotStarted State = "NOT_STARTED"
	StatePunchedIn  State = "PUNCHED_IN"
	StatePunchedOut State = "PUNCHED_OUT"
)

type Location struct {
	Latitude  float64 `json:"latitude" bson:"latitude"`
	Longitude float64 `json:"longitude" bson:"longitude"`
	Address   *string `json:"address,omitempty" bson:"address,omitempty"`
}

// Evidence is the optional proof captured at punch in or punch out.
type Evidence struct {
	PhotoRef    *string
	Fingerprint *string
	Location    *Location
}

type BreakInterval struct {
	ID        string     `json:"id"`
	BreakType string     `json:"break_type"`
	Reason    string     `json:"reason"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
	CreatedAt time.Time  `json:"created_at"`
}

// IsOpen reports whether the break has not been ended yet.
func (b BreakInterval) IsOpen() bool {
	return b.EndTime == nil
}

// PunchRecord is the attendance entry of one employee for one calendar day.
type PunchRecord struct {
	ID                    string
	EmployeeID            string
	Date                  time.Time
	PunchInAt             *time.Time
	PunchOutAt            *time.Time
	PunchIn               Evidence
	PunchOut              Evidence
	Breaks                []BreakInterval
	EffectiveWorkingHours *float64
	Version               int
	CreatedAt             time.Time
	UpdatedAt             time.Time

	// DTO / Join
	EmployeeName  *string
	EmployeeEmail *string
}

func (p *PunchRecord) IsPunchedIn() bool {
	return p.PunchInAt != nil
}

func (p *PunchRecord) IsPunchedOut() bool {
	return p.PunchOutAt != nil
}

func (p *PunchRecord) State() State {
	switch {
	case p.IsPunchedOut():
		return StatePunchedOut
	case p.IsPunchedIn():
		return StatePunchedIn
	default:
		return StateNotStarted
	}
}

// FindBreak returns the index of the break with the given id, or -1.
func (p *PunchRecord) FindBreak(id string) int {
	for i, b := range p.Breaks {
		if b.ID == id {
			return i
		}
	}
	return -1
}

// HasOpenBreak reports whether any break of the record is still ongoing.
func (p *PunchRecord) HasOpenBreak() bool {
	for _, b := range p.Breaks {
		if b.IsOpen() {
			return true
		}
	}
	return false
}

// CanPunchIn is true when there is no record yet or the record has no punch in.
func CanPunchIn(p *PunchRecord) bool {
	return p == nil || !p.IsPunchedIn()
}

// CanPunchOut is true when the record is punched in and not yet punched out.
func CanPunchOut(p *PunchRecord) bool {
	return p != nil && p.IsPunchedIn() && !p.IsPunchedOut()
}

// DayOf returns the calendar day key of t in loc, normalized to midnight UTC.
func DayOf(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}
