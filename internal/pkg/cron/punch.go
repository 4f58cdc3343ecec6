package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/academy-backend-go/internal/domain/punch"
	"github.com/cmlabs-hris/academy-backend-go/internal/pkg/metrics"
)

const StaleOpenRecordsJob = "punch_stale_open_records"

type PunchJobs struct {
	punchRepo punch.PunchRepository
	metrics   *metrics.Metrics
	loc       *time.Location
	now       func() time.Time
}

func NewPunchJobs(punchRepo punch.PunchRepository, m *metrics.Metrics, loc *time.Location) *PunchJobs {
	if loc == nil {
		loc = time.UTC
	}
	return &PunchJobs{
		punchRepo: punchRepo,
		metrics:   m,
		loc:       loc,
		now:       time.Now,
	}
}

func (j *PunchJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob(StaleOpenRecordsJob, time.Hour, j.ReportStaleOpenRecords)
}

// ReportStaleOpenRecords counts records from earlier days that were punched in
// but never punched out. Records are left untouched.
func (j *PunchJobs) ReportStaleOpenRecords(ctx context.Context) error {
	today := punch.DayOf(j.now(), j.loc)

	count, err := j.punchRepo.CountOpenBefore(ctx, today)
	if err != nil {
		return fmt.Errorf("failed to count stale open punch records: %w", err)
	}

	j.metrics.SetStaleOpenRecords(count)
	if count > 0 {
		slog.Warn("Cron: Found punch records never punched out", "count", count, "before", today.Format(punch.DateLayout))
	} else {
		slog.Debug("Cron: No stale open punch records")
	}
	return nil
}
