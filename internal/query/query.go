// Package query holds the composable gorm scopes shared by every list view.
package query

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// MaxRows bounds every list query.
const MaxRows = 1000

type Scope = func(*gorm.DB) *gorm.DB

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Eq filters column = v. The zero value means "any" and adds no predicate.
func Eq[V comparable](column string, v V) Scope {
	return func(db *gorm.DB) *gorm.DB {
		var zero V
		if v == zero {
			return db
		}
		return db.Where(column+" = ?", v)
	}
}

// DateRange keeps rows whose column falls on a calendar day in [from, to].
// Either bound may be nil.
func DateRange(column string, from, to *time.Time) Scope {
	return func(db *gorm.DB) *gorm.DB {
		if from != nil {
			db = db.Where(column+" >= ?", Day(*from))
		}
		if to != nil {
			db = db.Where(column+" < ?", Day(*to).AddDate(0, 0, 1))
		}
		return db
	}
}

// Search matches term as a case-insensitive substring of any of columns.
func Search(term string, columns ...string) Scope {
	return func(db *gorm.DB) *gorm.DB {
		term = strings.TrimSpace(term)
		if term == "" || len(columns) == 0 {
			return db
		}

		pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
		parts := make([]string, len(columns))
		args := make([]any, len(columns))
		for i, c := range columns {
			parts[i] = "LOWER(" + c + ") LIKE ? ESCAPE '\\'"
			args[i] = pattern
		}
		return db.Where("("+strings.Join(parts, " OR ")+")", args...)
	}
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// Order applies the clauses in sequence.
func Order(clauses ...string) Scope {
	return func(db *gorm.DB) *gorm.DB {
		for _, c := range clauses {
			db = db.Order(c)
		}
		return db
	}
}

// Limit clamps n into (0, MaxRows]; non-positive means MaxRows.
func Limit(n int) int {
	if n <= 0 || n > MaxRows {
		return MaxRows
	}
	return n
}

// Cap limits the result set.
func Cap(n int) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Limit(Limit(n))
	}
}

// Page is an offset window inside the capped result set.
type Page struct {
	Limit  int `form:"limit" json:"limit"`
	Offset int `form:"offset" json:"offset"`
}

// Window returns the limit and offset to apply so that no row past ceiling
// is ever returned. A zero Limit means "everything up to ceiling".
func (p Page) Window(ceiling int) (limit, offset int) {
	ceiling = Limit(ceiling)
	offset = p.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= ceiling {
		return 0, offset
	}
	limit = p.Limit
	if limit <= 0 || offset+limit > ceiling {
		limit = ceiling - offset
	}
	return limit, offset
}

// Paginate applies Window; an exhausted window matches nothing.
func (p Page) Paginate(ceiling int) Scope {
	return func(db *gorm.DB) *gorm.DB {
		limit, offset := p.Window(ceiling)
		if limit == 0 {
			return db.Where("1 = 0")
		}
		return db.Offset(offset).Limit(limit)
	}
}
