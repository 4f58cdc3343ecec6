package punch

import (
	"context"
)

// PunchService defines the attendance ledger operations. The acting employee
// is always taken from the authenticated caller in ctx.
type PunchService interface {
	PunchIn(ctx context.Context, req PunchRequest) (PunchRecordResponse, error)
	PunchOut(ctx context.Context, req PunchRequest) (PunchRecordResponse, error)
	GetToday(ctx context.Context) (TodayResponse, error)

	// GetLog lists the caller's records, or another employee's when the caller
	// may view employees
	GetLog(ctx context.Context, filter LogFilter) (ListPunchResponse, error)

	AddBreak(ctx context.Context, req AddBreakRequest) (PunchRecordResponse, error)
	EndBreak(ctx context.Context, breakID string) (PunchRecordResponse, error)

	// GetAll lists records across employees (privileged)
	GetAll(ctx context.Context, filter LogFilter) (ListPunchResponse, error)
}
