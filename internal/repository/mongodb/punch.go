package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/academy-backend-go/internal/domain/punch"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const punchCollection = "employee_punches"

var _ punch.PunchRepository = (*PunchStore)(nil)

type evidenceDocument struct {
	PhotoRef    *string         `bson:"photo,omitempty"`
	Fingerprint *string         `bson:"fingerprint,omitempty"`
	Location    *punch.Location `bson:"location,omitempty"`
}

type breakDocument struct {
	ID        string     `bson:"id"`
	BreakType string     `bson:"break_type"`
	Reason    string     `bson:"reason"`
	StartTime time.Time  `bson:"start_time"`
	EndTime   *time.Time `bson:"end_time"`
	CreatedAt time.Time  `bson:"created_at"`
}

type punchDocument struct {
	ID                    string           `bson:"_id"`
	EmployeeID            string           `bson:"employee_id"`
	Date                  string           `bson:"date"` // YYYY-MM-DD
	PunchInAt             *time.Time       `bson:"punch_in_at,omitempty"`
	PunchOutAt            *time.Time       `bson:"punch_out_at,omitempty"`
	PunchIn               evidenceDocument `bson:"punch_in"`
	PunchOut              evidenceDocument `bson:"punch_out"`
	Breaks                []breakDocument  `bson:"breaks"`
	EffectiveWorkingHours *float64         `bson:"effective_working_hours,omitempty"`
	Version               int              `bson:"version"`
	CreatedAt             time.Time        `bson:"created_at"`
	UpdatedAt             time.Time        `bson:"updated_at"`
}

type PunchStore struct {
	punches *mongo.Collection
	now     func() time.Time
}

// NewPunchStore returns a punch.PunchRepository backed by MongoDB. Employee
// names are not joined; callers needing them resolve them separately.
func NewPunchStore(ctx context.Context, db *DB) (*PunchStore, error) {
	punches := db.Collection(punchCollection)

	if _, err := punches.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "employee_id", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "date", Value: -1}}},
	}); err != nil {
		return nil, fmt.Errorf("create employee_punches indexes: %w", err)
	}

	return &PunchStore{punches: punches, now: time.Now}, nil
}

// GetByEmployeeAndDate implements punch.PunchRepository.
func (s *PunchStore) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*punch.PunchRecord, error) {
	var doc punchDocument
	err := s.punches.FindOne(ctx, bson.M{
		"employee_id": employeeID,
		"date":        date.Format(punch.DateLayout),
	}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find punch record: %w", err)
	}

	record := fromDocument(doc)
	return &record, nil
}

// Create implements punch.PunchRepository.
func (s *PunchStore) Create(ctx context.Context, record punch.PunchRecord) (punch.PunchRecord, error) {
	now := s.now().UTC()
	record.Version = 1
	record.CreatedAt = now
	record.UpdatedAt = now

	if _, err := s.punches.InsertOne(ctx, toDocument(record)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return punch.PunchRecord{}, punch.ErrAlreadyPunchedIn
		}
		return punch.PunchRecord{}, fmt.Errorf("insert punch record: %w", err)
	}
	return record, nil
}

// Update implements punch.PunchRepository.
func (s *PunchStore) Update(ctx context.Context, record punch.PunchRecord) (punch.PunchRecord, error) {
	expected := record.Version
	record.Version++
	record.UpdatedAt = s.now().UTC()

	res, err := s.punches.ReplaceOne(ctx, bson.M{"_id": record.ID, "version": expected}, toDocument(record))
	if err != nil {
		return punch.PunchRecord{}, fmt.Errorf("replace punch record: %w", err)
	}
	if res.MatchedCount == 0 {
		return punch.PunchRecord{}, punch.ErrConcurrentModification
	}
	return record, nil
}

// List implements punch.PunchRepository.
func (s *PunchStore) List(ctx context.Context, filter punch.PunchFilter) ([]punch.PunchRecord, error) {
	query := bson.M{}
	if filter.EmployeeID != nil {
		query["employee_id"] = *filter.EmployeeID
	}
	dateRange := bson.M{}
	if filter.From != nil {
		dateRange["$gte"] = filter.From.Format(punch.DateLayout)
	}
	if filter.To != nil {
		dateRange["$lte"] = filter.To.Format(punch.DateLayout)
	}
	if len(dateRange) > 0 {
		query["date"] = dateRange
	}

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "punch_in_at", Value: -1}})
	cursor, err := s.punches.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("find punch records: %w", err)
	}

	var docs []punchDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode punch records: %w", err)
	}

	records := make([]punch.PunchRecord, 0, len(docs))
	for _, doc := range docs {
		records = append(records, fromDocument(doc))
	}
	return records, nil
}

// CountOpenBefore implements punch.PunchRepository.
func (s *PunchStore) CountOpenBefore(ctx context.Context, date time.Time) (int64, error) {
	count, err := s.punches.CountDocuments(ctx, bson.M{
		"date":         bson.M{"$lt": date.Format(punch.DateLayout)},
		"punch_in_at":  bson.M{"$ne": nil},
		"punch_out_at": nil,
	})
	if err != nil {
		return 0, fmt.Errorf("count open punch records: %w", err)
	}
	return count, nil
}

func toDocument(r punch.PunchRecord) punchDocument {
	breaks := make([]breakDocument, 0, len(r.Breaks))
	for _, b := range r.Breaks {
		breaks = append(breaks, breakDocument(b))
	}
	return punchDocument{
		ID:                    r.ID,
		EmployeeID:            r.EmployeeID,
		Date:                  r.Date.Format(punch.DateLayout),
		PunchInAt:             r.PunchInAt,
		PunchOutAt:            r.PunchOutAt,
		PunchIn:               evidenceDocument(r.PunchIn),
		PunchOut:              evidenceDocument(r.PunchOut),
		Breaks:                breaks,
		EffectiveWorkingHours: r.EffectiveWorkingHours,
		Version:               r.Version,
		CreatedAt:             r.CreatedAt,
		UpdatedAt:             r.UpdatedAt,
	}
}

func fromDocument(d punchDocument) punch.PunchRecord {
	// Unparsable dates fall back to the zero day rather than failing the read
	date, _ := time.Parse(punch.DateLayout, d.Date)

	breaks := make([]punch.BreakInterval, 0, len(d.Breaks))
	for _, b := range d.Breaks {
		breaks = append(breaks, punch.BreakInterval(b))
	}
	return punch.PunchRecord{
		ID:                    d.ID,
		EmployeeID:            d.EmployeeID,
		Date:                  date,
		PunchInAt:             utcPtr(d.PunchInAt),
		PunchOutAt:            utcPtr(d.PunchOutAt),
		PunchIn:               punch.Evidence(d.PunchIn),
		PunchOut:              punch.Evidence(d.PunchOut),
		Breaks:                punch.AssignLegacyBreakIDs(breaks),
		EffectiveWorkingHours: d.EffectiveWorkingHours,
		Version:               d.Version,
		CreatedAt:             d.CreatedAt.UTC(),
		UpdatedAt:             d.UpdatedAt.UTC(),
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
