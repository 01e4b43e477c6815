// Package audit is the append-only ledger of field-level changes. Writers take
// the caller's transaction so entries commit or roll back with the change they
// describe.
package audit

import (
	"context"
	"time"

	"ppms/internal/apperr"
	"ppms/internal/database"
	"ppms/internal/models"
	"ppms/internal/query"

	"gorm.io/gorm"
)

type Log struct {
	db       *gorm.DB
	queryCap int
	timeout  time.Duration
	now      func() time.Time
}

// New returns a Log reading through db. queryCap bounds Query and ExportCSV;
// timeout bounds each read, zero leaves reads to the caller's context.
func New(db *gorm.DB, queryCap int, timeout time.Duration) *Log {
	return &Log{
		db:       db,
		queryCap: query.Limit(queryCap),
		timeout:  timeout,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the timestamp source.
func (l *Log) SetClock(now func() time.Time) { l.now = now }

func (l *Log) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return database.WithTimeout(ctx, l.timeout)
}

func (l *Log) RecordCreation(tx *gorm.DB, table string, recordID uint, actor *uint) error {
	return l.write(tx, []models.AuditEntry{l.entry(table, recordID, models.AuditCreate, actor)})
}

func (l *Log) RecordDeletion(tx *gorm.DB, table string, recordID uint, actor *uint) error {
	return l.write(tx, []models.AuditEntry{l.entry(table, recordID, models.AuditDelete, actor)})
}

// RecordUpdate writes one UPDATE entry per change. No changes, no entries.
func (l *Log) RecordUpdate(tx *gorm.DB, table string, recordID uint, changes []Change, actor *uint) error {
	if len(changes) == 0 {
		return nil
	}

	entries := make([]models.AuditEntry, len(changes))
	for i, c := range changes {
		e := l.entry(table, recordID, models.AuditUpdate, actor)
		name := c.Field
		e.FieldName = &name
		e.OldValue = c.Old
		e.NewValue = c.New
		entries[i] = e
	}
	return l.write(tx, entries)
}

func (l *Log) entry(table string, recordID uint, action models.AuditAction, actor *uint) models.AuditEntry {
	return models.AuditEntry{
		Table:     table,
		RecordID:  recordID,
		Action:    action,
		ActorID:   actor,
		Timestamp: l.now(),
	}
}

func (l *Log) write(tx *gorm.DB, entries []models.AuditEntry) error {
	if err := tx.Create(&entries).Error; err != nil {
		return apperr.Wrap(apperr.KindAuditWrite, err, "write audit trail for %s #%d", entries[0].Table, entries[0].RecordID)
	}
	return nil
}
