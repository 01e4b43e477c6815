package audit

import (
	"context"
	"strings"
	"time"

	"ppms/internal/database"
	"ppms/internal/models"
	"ppms/internal/query"

	"gorm.io/gorm"
)

// SystemActor is the name shown, and accepted as a filter, for entries
// without an actor.
const SystemActor = "system"

// Filter narrows Query. Zero fields match everything. From and To are
// inclusive calendar days.
type Filter struct {
	From          *time.Time         `form:"from" time_format:"2006-01-02"`
	To            *time.Time         `form:"to" time_format:"2006-01-02"`
	Table         string             `form:"table"`
	Action        models.AuditAction `form:"action"`
	ActorUsername string             `form:"user"`
	Text          string             `form:"q"`
}

type Result struct {
	Entries []models.AuditEntry `json:"entries"`
	Total   int64               `json:"total"`
}

func (l *Log) base(ctx context.Context) *gorm.DB {
	return l.db.WithContext(ctx).
		Table("audit_trail AS a").
		Joins("LEFT JOIN users AS u ON u.id = a.user_id")
}

func (l *Log) filtered(ctx context.Context, f Filter) *gorm.DB {
	q := l.base(ctx).Scopes(
		query.DateRange("a.timestamp", f.From, f.To),
		query.Eq("a.table_name", f.Table),
		query.Eq("a.action", f.Action),
		query.Search(f.Text, "CAST(a.record_id AS TEXT)", "a.old_value", "a.new_value"),
	)

	switch name := strings.TrimSpace(f.ActorUsername); {
	case name == "":
	case strings.EqualFold(name, SystemActor):
		q = q.Where("a.user_id IS NULL")
	default:
		q = q.Where("u.username = ?", name)
	}
	return q
}

func selectEntries(q *gorm.DB) *gorm.DB {
	return q.Select("a.*, u.username AS actor_username")
}

// Query returns newest entries first. Total counts matches but never exceeds
// the query cap, and paging never reaches past it.
func (l *Log) Query(ctx context.Context, f Filter, page query.Page) (*Result, error) {
	ctx, cancel := l.withTimeout(ctx)
	defer cancel()

	var total int64
	if err := l.filtered(ctx, f).Count(&total).Error; err != nil {
		return nil, database.Classify(err)
	}
	if total > int64(l.queryCap) {
		total = int64(l.queryCap)
	}

	entries := []models.AuditEntry{}
	err := selectEntries(l.filtered(ctx, f)).
		Scopes(
			query.Order("a.timestamp DESC", "a.id DESC"),
			page.Paginate(l.queryCap),
		).
		Find(&entries).Error
	if err != nil {
		return nil, database.Classify(err)
	}

	return &Result{Entries: entries, Total: total}, nil
}

// History lists every entry of one record, oldest first.
func (l *Log) History(ctx context.Context, table string, recordID uint) ([]models.AuditEntry, error) {
	ctx, cancel := l.withTimeout(ctx)
	defer cancel()

	entries := []models.AuditEntry{}
	err := selectEntries(l.base(ctx)).
		Where("a.table_name = ? AND a.record_id = ?", table, recordID).
		Order("a.timestamp ASC").
		Order("a.id ASC").
		Limit(query.MaxRows).
		Find(&entries).Error
	if err != nil {
		return nil, database.Classify(err)
	}
	return entries, nil
}

// RecentByActor lists the latest n entries made by one user.
func (l *Log) RecentByActor(ctx context.Context, actorID uint, n int) ([]models.AuditEntry, error) {
	ctx, cancel := l.withTimeout(ctx)
	defer cancel()

	entries := []models.AuditEntry{}
	err := selectEntries(l.base(ctx)).
		Where("a.user_id = ?", actorID).
		Order("a.timestamp DESC").
		Order("a.id DESC").
		Limit(query.Limit(n)).
		Find(&entries).Error
	if err != nil {
		return nil, database.Classify(err)
	}
	return entries, nil
}

// Tables lists the distinct table names present in the trail.
func (l *Log) Tables(ctx context.Context) ([]string, error) {
	ctx, cancel := l.withTimeout(ctx)
	defer cancel()

	var out []string
	err := l.db.WithContext(ctx).
		Model(&models.AuditEntry{}).
		Distinct("table_name").
		Order("table_name").
		Pluck("table_name", &out).Error
	if err != nil {
		return nil, database.Classify(err)
	}
	return out, nil
}
