package audit

import (
	"context"
	"time"

	"ppms/internal/database"
)

type Count struct {
	Key   string `gorm:"column:bucket" json:"key"`
	Count int64  `gorm:"column:hits" json:"count"`
}

type Analytics struct {
	Total    int64   `json:"total"`
	ByTable  []Count `json:"by_table"`
	ByAction []Count `json:"by_action"`
	Daily    []Count `json:"daily"`
	ByUser   []Count `json:"by_user"`
}

// Analytics summarizes activity for the inclusive day range.
func (l *Log) Analytics(ctx context.Context, from, to *time.Time) (*Analytics, error) {
	ctx, cancel := l.withTimeout(ctx)
	defer cancel()

	f := Filter{From: from, To: to}
	out := &Analytics{}

	if err := l.filtered(ctx, f).Count(&out.Total).Error; err != nil {
		return nil, database.Classify(err)
	}

	groups := []struct {
		expr  string
		order string
		dst   *[]Count
	}{
		{"a.table_name", "hits DESC, bucket ASC", &out.ByTable},
		{"a.action", "hits DESC, bucket ASC", &out.ByAction},
		{"CAST(DATE(a.timestamp) AS TEXT)", "bucket ASC", &out.Daily},
		{"COALESCE(u.username, '" + SystemActor + "')", "hits DESC, bucket ASC", &out.ByUser},
	}
	for _, g := range groups {
		*g.dst = []Count{}
		err := l.filtered(ctx, f).
			Select(g.expr + " AS bucket, COUNT(*) AS hits").
			Group(g.expr).
			Order(g.order).
			Scan(g.dst).Error
		if err != nil {
			return nil, database.Classify(err)
		}
	}
	return out, nil
}
