package audit

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"testing"
	"time"

	"ppms/internal/apperr"
	"ppms/internal/database"
	"ppms/internal/models"
	"ppms/internal/query"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db    *gorm.DB
	log   *Log
	alice *models.User
	clock time.Time
}

func newFixture(t *testing.T, queryCap int) *fixture {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close(db) })

	alice := &models.User{Username: "alice", PasswordHash: "x", Role: models.RoleProjectManager}
	require.NoError(t, db.Create(alice).Error)

	f := &fixture{db: db, log: New(db, queryCap, 5*time.Second), alice: alice, clock: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	f.log.SetClock(func() time.Time { return f.clock })
	return f
}

func (f *fixture) at(t time.Time) { f.clock = t }

func (f *fixture) record(t *testing.T, fn func(tx *gorm.DB) error) {
	t.Helper()
	require.NoError(t, f.db.Transaction(fn))
}

func TestRecordCreationAndDeletionCarryNoFieldData(t *testing.T) {
	f := newFixture(t, 1000)

	f.record(t, func(tx *gorm.DB) error { return f.log.RecordCreation(tx, "projects", 7, &f.alice.ID) })
	f.record(t, func(tx *gorm.DB) error { return f.log.RecordDeletion(tx, "projects", 7, nil) })

	hist, err := f.log.History(context.Background(), "projects", 7)
	require.NoError(t, err)
	require.Len(t, hist, 2)

	assert.Equal(t, models.AuditCreate, hist[0].Action)
	assert.Equal(t, "alice", hist[0].Actor())
	assert.Equal(t, models.AuditDelete, hist[1].Action)
	assert.Equal(t, "system", hist[1].Actor())
	for _, e := range hist {
		assert.Nil(t, e.FieldName)
		assert.Nil(t, e.OldValue)
		assert.Nil(t, e.NewValue)
	}
}

func TestRecordUpdateWritesOneEntryPerChange(t *testing.T) {
	f := newFixture(t, 1000)

	changes := Diff(
		[]Field{String("status", "Pending"), Int("quantity", 5), OptString("color", nil)},
		[]Field{String("status", "Cut"), String("quantity", "5"), String("color", "")},
	)
	f.record(t, func(tx *gorm.DB) error { return f.log.RecordUpdate(tx, "cutting_lists", 3, changes, &f.alice.ID) })

	hist, err := f.log.History(context.Background(), "cutting_lists", 3)
	require.NoError(t, err)
	require.Len(t, hist, 2)

	assert.Equal(t, "status", *hist[0].FieldName)
	assert.Equal(t, "Pending", *hist[0].OldValue)
	assert.Equal(t, "Cut", *hist[0].NewValue)
	assert.Equal(t, "color", *hist[1].FieldName)
	assert.Nil(t, hist[1].OldValue)
	assert.Equal(t, "", *hist[1].NewValue)
}

func TestRecordUpdateWithoutChangesWritesNothing(t *testing.T) {
	f := newFixture(t, 1000)
	f.record(t, func(tx *gorm.DB) error { return f.log.RecordUpdate(tx, "projects", 1, nil, nil) })

	var n int64
	require.NoError(t, f.db.Model(&models.AuditEntry{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestEntriesRollBackWithTransaction(t *testing.T) {
	f := newFixture(t, 1000)

	boom := errors.New("boom")
	err := f.db.Transaction(func(tx *gorm.DB) error {
		if err := f.log.RecordCreation(tx, "projects", 1, nil); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	var n int64
	require.NoError(t, f.db.Model(&models.AuditEntry{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestWriteFailureIsAuditWriteError(t *testing.T) {
	f := newFixture(t, 1000)
	require.NoError(t, f.db.Migrator().DropTable(&models.AuditEntry{}))

	err := f.db.Transaction(func(tx *gorm.DB) error {
		return f.log.RecordCreation(tx, "projects", 1, nil)
	})
	assert.ErrorIs(t, err, apperr.ErrAuditWrite)
}

func TestTrailIsAppendOnly(t *testing.T) {
	f := newFixture(t, 1000)
	f.record(t, func(tx *gorm.DB) error { return f.log.RecordCreation(tx, "projects", 1, nil) })

	var e models.AuditEntry
	require.NoError(t, f.db.First(&e).Error)

	assert.ErrorIs(t, f.db.Model(&e).Update("action", "UPDATE").Error, models.ErrAuditAppendOnly)
	assert.ErrorIs(t, f.db.Delete(&e).Error, models.ErrAuditAppendOnly)
}

func TestQueryFilters(t *testing.T) {
	f := newFixture(t, 1000)
	ctx := context.Background()

	f.at(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC))
	f.record(t, func(tx *gorm.DB) error { return f.log.RecordCreation(tx, "work_orders", 100, &f.alice.ID) })
	f.at(time.Date(2024, 3, 2, 23, 30, 0, 0, time.UTC))
	f.record(t, func(tx *gorm.DB) error {
		return f.log.RecordUpdate(tx, "work_orders", 100, []Change{{Field: "status", Old: ptr("Pending"), New: ptr("In Progress")}}, &f.alice.ID)
	})
	f.at(time.Date(2024, 3, 3, 8, 0, 0, 0, time.UTC))
	f.record(t, func(tx *gorm.DB) error { return f.log.RecordCreation(tx, "projects", 5, nil) })

	all, err := f.log.Query(ctx, Filter{}, query.Page{})
	require.NoError(t, err)
	require.Len(t, all.Entries, 3)
	assert.EqualValues(t, 3, all.Total)
	assert.Equal(t, "projects", all.Entries[0].Table, "newest first")

	from, to := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	res, err := f.log.Query(ctx, Filter{From: &from, To: &to}, query.Page{})
	require.NoError(t, err)
	assert.Len(t, res.Entries, 2, "to day is inclusive")

	res, err = f.log.Query(ctx, Filter{Action: models.AuditUpdate}, query.Page{})
	require.NoError(t, err)
	require.Len(t, res.Entries, 1)
	require.NotNil(t, res.Entries[0].ActorUsername)
	assert.Equal(t, "alice", *res.Entries[0].ActorUsername)

	res, err = f.log.Query(ctx, Filter{Text: "progress"}, query.Page{})
	require.NoError(t, err)
	assert.Len(t, res.Entries, 1)

	res, err = f.log.Query(ctx, Filter{Text: "100"}, query.Page{})
	require.NoError(t, err)
	assert.Len(t, res.Entries, 2, "text matches record id")

	res, err = f.log.Query(ctx, Filter{ActorUsername: "alice"}, query.Page{})
	require.NoError(t, err)
	assert.Len(t, res.Entries, 2)

	res, err = f.log.Query(ctx, Filter{ActorUsername: "system"}, query.Page{})
	require.NoError(t, err)
	assert.Len(t, res.Entries, 1)

	res, err = f.log.Query(ctx, Filter{Table: "projects"}, query.Page{})
	require.NoError(t, err)
	assert.Len(t, res.Entries, 1)

	tables, err := f.log.Tables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"projects", "work_orders"}, tables)
}

func TestQueryIsCapped(t *testing.T) {
	f := newFixture(t, 3)
	for i := uint(1); i <= 5; i++ {
		id := i
		f.record(t, func(tx *gorm.DB) error { return f.log.RecordCreation(tx, "projects", id, nil) })
	}

	res, err := f.log.Query(context.Background(), Filter{}, query.Page{})
	require.NoError(t, err)
	assert.Len(t, res.Entries, 3)
	assert.EqualValues(t, 3, res.Total)

	res, err = f.log.Query(context.Background(), Filter{}, query.Page{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Len(t, res.Entries, 1)
}

func TestReadsFailUnavailableOnCancelledContext(t *testing.T) {
	f := newFixture(t, 1000)
	f.record(t, func(tx *gorm.DB) error { return f.log.RecordCreation(tx, "projects", 1, &f.alice.ID) })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.log.Query(ctx, Filter{Text: "1"}, query.Page{})
	assert.Equal(t, apperr.KindUnavailable, apperr.KindOf(err))
	_, err = f.log.Analytics(ctx, nil, nil)
	assert.Equal(t, apperr.KindUnavailable, apperr.KindOf(err))
	_, err = f.log.History(ctx, "projects", 1)
	assert.Equal(t, apperr.KindUnavailable, apperr.KindOf(err))
	_, err = f.log.Tables(ctx)
	assert.Equal(t, apperr.KindUnavailable, apperr.KindOf(err))
}

func TestRecentByActor(t *testing.T) {
	f := newFixture(t, 1000)
	for i := uint(1); i <= 3; i++ {
		id := i
		f.record(t, func(tx *gorm.DB) error { return f.log.RecordCreation(tx, "projects", id, &f.alice.ID) })
	}
	f.record(t, func(tx *gorm.DB) error { return f.log.RecordCreation(tx, "projects", 9, nil) })

	got, err := f.log.RecentByActor(context.Background(), f.alice.ID, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.EqualValues(t, 3, got[0].RecordID)
}

func TestAnalytics(t *testing.T) {
	f := newFixture(t, 1000)

	f.at(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC))
	f.record(t, func(tx *gorm.DB) error { return f.log.RecordCreation(tx, "work_orders", 1, &f.alice.ID) })
	f.record(t, func(tx *gorm.DB) error { return f.log.RecordCreation(tx, "work_orders", 2, &f.alice.ID) })
	f.at(time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC))
	f.record(t, func(tx *gorm.DB) error { return f.log.RecordDeletion(tx, "projects", 1, nil) })

	a, err := f.log.Analytics(context.Background(), nil, nil)
	require.NoError(t, err)

	assert.EqualValues(t, 3, a.Total)
	assert.Equal(t, []Count{{"work_orders", 2}, {"projects", 1}}, a.ByTable)
	assert.Equal(t, []Count{{"CREATE", 2}, {"DELETE", 1}}, a.ByAction)
	assert.Equal(t, []Count{{"2024-03-01", 2}, {"2024-03-02", 1}}, a.Daily)
	assert.Equal(t, []Count{{"alice", 2}, {"system", 1}}, a.ByUser)
}

func TestExportCSV(t *testing.T) {
	f := newFixture(t, 1000)
	f.record(t, func(tx *gorm.DB) error {
		return f.log.RecordUpdate(tx, "projects", 4, []Change{{Field: "name", Old: ptr("Old, Name"), New: ptr("New")}}, &f.alice.ID)
	})

	var buf bytes.Buffer
	require.NoError(t, f.log.ExportCSV(context.Background(), Filter{}, &buf))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, []string{"2024-03-01T09:00:00Z", "projects", "4", "UPDATE", "name", "Old, Name", "New", "alice"}, rows[1])
}
