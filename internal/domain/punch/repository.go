package punch

import (
	"context"
	"time"
)

// PunchFilter narrows a listing of punch records. Date bounds are inclusive.
type PunchFilter struct {
	EmployeeID *string
	From       *time.Time
	To         *time.Time
}

// PunchRepository persists punch records. Implementations must return records
// newest first from List and enforce one record per (employee, date).
type PunchRepository interface {
	// GetByEmployeeAndDate returns nil without error when no record exists
	GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*PunchRecord, error)

	// Create inserts a new record, returning ErrAlreadyPunchedIn when the
	// employee already has a record for that date
	Create(ctx context.Context, record PunchRecord) (PunchRecord, error)

	// Update writes the record if its stored version still equals record.Version,
	// otherwise it returns ErrConcurrentModification. The returned record
	// carries the incremented version.
	Update(ctx context.Context, record PunchRecord) (PunchRecord, error)

	List(ctx context.Context, filter PunchFilter) ([]PunchRecord, error)

	// CountOpenBefore counts records dated before the given day that were
	// punched in but never punched out
	CountOpenBefore(ctx context.Context, date time.Time) (int64, error)
}
