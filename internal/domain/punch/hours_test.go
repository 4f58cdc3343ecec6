package punch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func clock(hhmm string) time.Time {
	t, _ := time.Parse("15:04", hhmm)
	return time.Date(2024, 1, 1, t.Hour(), t.Minute(), 0, 0, time.UTC)
}

func closed(id, from, to string) BreakInterval {
	end := clock(to)
	return BreakInterval{ID: id, StartTime: clock(from), EndTime: &end}
}

func TestEffectiveHours(t *testing.T) {
	cases := []struct {
		name   string
		in     string
		out    string
		breaks []BreakInterval
		want   float64
	}{
		{"no breaks", "09:00", "17:00", nil, 8},
		{"one break", "09:00", "17:00", []BreakInterval{closed("a", "10:00", "10:15")}, 7.75},
		{"two breaks", "09:00", "17:30", []BreakInterval{closed("a", "10:00", "10:10"), closed("b", "13:00", "13:20")}, 8},
		{"open break ignored", "09:00", "17:00", []BreakInterval{{ID: "a", StartTime: clock("12:00")}}, 8},
		{"inverted break ignored", "09:00", "17:00", []BreakInterval{closed("a", "12:00", "11:00")}, 8},
		{"missing start ignored", "09:00", "17:00", []BreakInterval{{ID: "a", EndTime: ptr(clock("12:00"))}}, 8},
		{"rounds to two decimals", "09:00", "09:20", nil, 0.33},
		{"negative when breaks exceed span", "09:00", "10:00", []BreakInterval{closed("a", "08:00", "11:00")}, -2},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := EffectiveHours(clock(c.in), clock(c.out), c.breaks)
			assert.Equal(t, c.want, got)
		})
	}
}

func TestRecordState(t *testing.T) {
	var none *PunchRecord
	assert.True(t, CanPunchIn(none))
	assert.False(t, CanPunchOut(none))

	r := &PunchRecord{}
	assert.Equal(t, StateNotStarted, r.State())
	assert.True(t, CanPunchIn(r))

	in := clock("09:00")
	r.PunchInAt = &in
	assert.Equal(t, StatePunchedIn, r.State())
	assert.False(t, CanPunchIn(r))
	assert.True(t, CanPunchOut(r))

	r.Breaks = []BreakInterval{{ID: "a", StartTime: clock("10:00")}}
	assert.True(t, r.HasOpenBreak())
	assert.Equal(t, 0, r.FindBreak("a"))
	assert.Equal(t, -1, r.FindBreak("b"))

	out := clock("17:00")
	r.PunchOutAt = &out
	assert.Equal(t, StatePunchedOut, r.State())
	assert.False(t, CanPunchOut(r))
}

func TestDayOf(t *testing.T) {
	late := time.Date(2024, 1, 1, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), DayOf(late, time.UTC))
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), DayOf(late, time.FixedZone("WIB", 7*3600)))
}

func ptr(t time.Time) *time.Time { return &t }
