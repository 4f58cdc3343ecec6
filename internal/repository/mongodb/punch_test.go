package mongodb

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/cmlabs-hris/academy-backend-go/internal/domain/punch"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

func newTestStore(t *testing.T) *PunchStore {
	t.Helper()

	uri := os.Getenv("TEST_MONGODB_URI")
	if uri == "" {
		t.Skip("TEST_MONGODB_URI not set")
	}

	ctx := context.Background()
	db, err := NewMongoDB(uri, "academy_test_"+uuid.NewString()[:8])
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.db.Drop(ctx)
		_ = db.Close(ctx)
	})

	store, err := NewPunchStore(ctx, db)
	require.NoError(t, err)
	return store
}

func TestOpenDisconnectsUnreachableClient(t *testing.T) {
	client, err := mongo.Connect(options.Client().
		ApplyURI("mongodb://127.0.0.1:1").
		SetServerSelectionTimeout(200 * time.Millisecond))
	require.NoError(t, err)

	db, err := open(client, "academy")
	require.Error(t, err)
	assert.Nil(t, db)
	assert.ErrorIs(t, client.Disconnect(context.Background()), mongo.ErrClientDisconnected)
}

func TestDocumentKeepsDayKey(t *testing.T) {
	in := time.Date(2024, 5, 13, 2, 0, 0, 0, time.UTC)
	end := in.Add(time.Hour)
	rec := punch.PunchRecord{
		ID:         "p1",
		EmployeeID: "emp-1",
		Date:       time.Date(2024, 5, 13, 0, 0, 0, 0, time.UTC),
		PunchInAt:  &in,
		Breaks:     []punch.BreakInterval{{ID: "b1", StartTime: in, EndTime: &end}},
	}

	doc := toDocument(rec)
	assert.Equal(t, "2024-05-13", doc.Date)

	back := fromDocument(doc)
	assert.True(t, back.Date.Equal(rec.Date))
	require.Len(t, back.Breaks, 1)
	assert.Equal(t, "b1", back.Breaks[0].ID)
}

func TestFromDocumentFillsBlankBreakIDs(t *testing.T) {
	doc := punchDocument{
		ID:     "p1",
		Date:   "2024-05-13",
		Breaks: []breakDocument{{ID: ""}, {ID: "b1"}},
	}

	back := fromDocument(doc)
	require.Len(t, back.Breaks, 2)
	assert.Equal(t, "legacy-0", back.Breaks[0].ID)
	assert.Equal(t, "b1", back.Breaks[1].ID)
}

func TestPunchStoreLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	date := time.Date(2024, 5, 13, 0, 0, 0, 0, time.UTC)
	in := date.Add(9 * time.Hour)

	missing, err := store.GetByEmployeeAndDate(ctx, "emp-1", date)
	require.NoError(t, err)
	assert.Nil(t, missing)

	rec := punch.PunchRecord{ID: uuid.NewString(), EmployeeID: "emp-1", Date: date, PunchInAt: &in, Breaks: []punch.BreakInterval{}}
	created, err := store.Create(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, 1, created.Version)

	rec.ID = uuid.NewString()
	_, err = store.Create(ctx, rec)
	assert.ErrorIs(t, err, punch.ErrAlreadyPunchedIn)

	count, err := store.CountOpenBefore(ctx, date.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	out := date.Add(17 * time.Hour)
	created.PunchOutAt = &out
	updated, err := store.Update(ctx, created)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)

	_, err = store.Update(ctx, created)
	assert.ErrorIs(t, err, punch.ErrConcurrentModification)

	emp := "emp-1"
	records, err := store.List(ctx, punch.PunchFilter{EmployeeID: &emp, From: &date, To: &date})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, records[0].IsPunchedOut())

	count, err = store.CountOpenBefore(ctx, date.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Zero(t, count)
}
