package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/academy-backend-go/internal/domain/punch"
	"github.com/cmlabs-hris/academy-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

const punchColumns = `
		p.id, p.employee_id, p.date, p.punch_in_at, p.punch_out_at,
		p.punch_in_photo, p.punch_in_fingerprint, p.punch_in_location,
		p.punch_out_photo, p.punch_out_fingerprint, p.punch_out_location,
		p.breaks, p.effective_working_hours, p.version,
		p.created_at, p.updated_at,
		u.name, u.email`

type punchRepository struct {
	db *database.DB
}

func NewPunchRepository(db *database.DB) punch.PunchRepository {
	return &punchRepository{db: db}
}

// GetByEmployeeAndDate implements punch.PunchRepository.
func (r *punchRepository) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*punch.PunchRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + punchColumns + `
		FROM employee_punches p
		LEFT JOIN users u ON u.id = p.employee_id
		WHERE p.employee_id = $1
		  AND p.date = $2
		LIMIT 1
	`

	record, err := scanPunch(q.QueryRow(ctx, query, employeeID, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get punch record by employee and date: %w", err)
	}
	return &record, nil
}

// Create implements punch.PunchRepository.
func (r *punchRepository) Create(ctx context.Context, record punch.PunchRecord) (punch.PunchRecord, error) {
	q := GetQuerier(ctx, r.db)

	cols, err := encodePunchColumns(record)
	if err != nil {
		return punch.PunchRecord{}, err
	}

	query := `
		INSERT INTO employee_punches (
			id, employee_id, date, punch_in_at, punch_out_at,
			punch_in_photo, punch_in_fingerprint, punch_in_location,
			punch_out_photo, punch_out_fingerprint, punch_out_location,
			breaks, effective_working_hours, version
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, 1
		) RETURNING version, created_at, updated_at
	`

	err = q.QueryRow(ctx, query,
		record.ID,
		record.EmployeeID,
		record.Date,
		record.PunchInAt,
		record.PunchOutAt,
		record.PunchIn.PhotoRef,
		record.PunchIn.Fingerprint,
		cols.punchInLocation,
		record.PunchOut.PhotoRef,
		record.PunchOut.Fingerprint,
		cols.punchOutLocation,
		cols.breaks,
		record.EffectiveWorkingHours,
	).Scan(&record.Version, &record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return punch.PunchRecord{}, punch.ErrAlreadyPunchedIn
		}
		return punch.PunchRecord{}, fmt.Errorf("failed to create punch record: %w", err)
	}

	return record, nil
}

// Update implements punch.PunchRepository.
func (r *punchRepository) Update(ctx context.Context, record punch.PunchRecord) (punch.PunchRecord, error) {
	q := GetQuerier(ctx, r.db)

	cols, err := encodePunchColumns(record)
	if err != nil {
		return punch.PunchRecord{}, err
	}

	query := `
		UPDATE employee_punches
		SET punch_in_at = $1,
			punch_out_at = $2,
			punch_in_photo = $3,
			punch_in_fingerprint = $4,
			punch_in_location = $5,
			punch_out_photo = $6,
			punch_out_fingerprint = $7,
			punch_out_location = $8,
			breaks = $9,
			effective_working_hours = $10,
			version = version + 1,
			updated_at = NOW()
		WHERE id = $11
		  AND version = $12
		RETURNING version, updated_at
	`

	err = q.QueryRow(ctx, query,
		record.PunchInAt,
		record.PunchOutAt,
		record.PunchIn.PhotoRef,
		record.PunchIn.Fingerprint,
		cols.punchInLocation,
		record.PunchOut.PhotoRef,
		record.PunchOut.Fingerprint,
		cols.punchOutLocation,
		cols.breaks,
		record.EffectiveWorkingHours,
		record.ID,
		record.Version,
	).Scan(&record.Version, &record.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return punch.PunchRecord{}, punch.ErrConcurrentModification
		}
		return punch.PunchRecord{}, fmt.Errorf("failed to update punch record: %w", err)
	}

	return record, nil
}

// List implements punch.PunchRepository.
func (r *punchRepository) List(ctx context.Context, filter punch.PunchFilter) ([]punch.PunchRecord, error) {
	q := GetQuerier(ctx, r.db)

	var conditions []string
	var args []interface{}
	argIdx := 1

	if filter.EmployeeID != nil {
		conditions = append(conditions, fmt.Sprintf("p.employee_id = $%d", argIdx))
		args = append(args, *filter.EmployeeID)
		argIdx++
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("p.date >= $%d", argIdx))
		args = append(args, *filter.From)
		argIdx++
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("p.date <= $%d", argIdx))
		args = append(args, *filter.To)
		argIdx++
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := `
		SELECT ` + punchColumns + `
		FROM employee_punches p
		LEFT JOIN users u ON u.id = p.employee_id
		` + where + `
		ORDER BY p.date DESC, p.punch_in_at DESC NULLS LAST
	`

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list punch records: %w", err)
	}
	defer rows.Close()

	records := []punch.PunchRecord{}
	for rows.Next() {
		record, err := scanPunch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan punch record: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate punch records: %w", err)
	}

	return records, nil
}

// CountOpenBefore implements punch.PunchRepository.
func (r *punchRepository) CountOpenBefore(ctx context.Context, date time.Time) (int64, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT COUNT(*)
		FROM employee_punches
		WHERE date < $1
		  AND punch_in_at IS NOT NULL
		  AND punch_out_at IS NULL
	`

	var count int64
	if err := q.QueryRow(ctx, query, date).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count open punch records: %w", err)
	}
	return count, nil
}

type encodedPunchColumns struct {
	breaks           []byte
	punchInLocation  []byte
	punchOutLocation []byte
}

func encodePunchColumns(record punch.PunchRecord) (encodedPunchColumns, error) {
	var cols encodedPunchColumns
	var err error

	cols.breaks, err = punch.EncodeBreaks(record.Breaks)
	if err != nil {
		return cols, fmt.Errorf("failed to encode breaks: %w", err)
	}
	if cols.punchInLocation, err = encodeLocation(record.PunchIn.Location); err != nil {
		return cols, err
	}
	if cols.punchOutLocation, err = encodeLocation(record.PunchOut.Location); err != nil {
		return cols, err
	}
	return cols, nil
}

func encodeLocation(l *punch.Location) ([]byte, error) {
	if l == nil {
		return nil, nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("failed to encode location: %w", err)
	}
	return b, nil
}

func decodeLocation(raw []byte) *punch.Location {
	if len(raw) == 0 {
		return nil
	}
	var l punch.Location
	if err := json.Unmarshal(raw, &l); err != nil {
		return nil
	}
	return &l
}

func scanPunch(row pgx.Row) (punch.PunchRecord, error) {
	var (
		p                       punch.PunchRecord
		breaks                  []byte
		inLocation, outLocation []byte
	)
	err := row.Scan(
		&p.ID, &p.EmployeeID, &p.Date, &p.PunchInAt, &p.PunchOutAt,
		&p.PunchIn.PhotoRef, &p.PunchIn.Fingerprint, &inLocation,
		&p.PunchOut.PhotoRef, &p.PunchOut.Fingerprint, &outLocation,
		&breaks, &p.EffectiveWorkingHours, &p.Version,
		&p.CreatedAt, &p.UpdatedAt,
		&p.EmployeeName, &p.EmployeeEmail,
	)
	if err != nil {
		return punch.PunchRecord{}, err
	}

	p.Breaks = punch.DecodeBreaks(breaks)
	p.PunchIn.Location = decodeLocation(inLocation)
	p.PunchOut.Location = decodeLocation(outLocation)
	return p, nil
}
