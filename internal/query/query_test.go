package query

import (
	"testing"
	"time"

	"ppms/internal/database"
	"ppms/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func date(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func str(s string) *string { return &s }

func seed(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close(db) })

	start1, start2, start3 := date(2024, 1, 1), date(2024, 1, 15), date(2024, 1, 31)
	projects := []models.Project{
		{Name: "Tower Alpha", Client: str("Acme"), Status: models.ProjectActive, StartDate: &start1},
		{Name: "Mall Facade", Client: str("Beta Corp"), Status: models.ProjectOnHold, StartDate: &start2},
		{Name: "alpha annex 50%", Client: str("Acme"), Status: models.ProjectCompleted, StartDate: &start3},
	}
	require.NoError(t, db.Create(&projects).Error)
	return db
}

func names(t *testing.T, db *gorm.DB, scopes ...Scope) []string {
	t.Helper()
	var out []string
	require.NoError(t, db.Model(&models.Project{}).Scopes(scopes...).Order("id").Pluck("name", &out).Error)
	return out
}

func TestEqSkipsZero(t *testing.T) {
	db := seed(t)

	assert.Len(t, names(t, db, Eq("status", models.ProjectStatus(""))), 3)
	assert.Equal(t, []string{"Mall Facade"}, names(t, db, Eq("status", models.ProjectOnHold)))
	assert.Len(t, names(t, db, Eq("client", "Acme")), 2)
	assert.Len(t, names(t, db, Eq("id", uint(0))), 3)
}

func TestSearchIsCaseInsensitive(t *testing.T) {
	db := seed(t)

	assert.Equal(t, []string{"Tower Alpha", "alpha annex 50%"}, names(t, db, Search("ALPHA", "name")))
	assert.Equal(t, []string{"Mall Facade"}, names(t, db, Search("beta", "name", "client")))
	assert.Len(t, names(t, db, Search("  ", "name")), 3)
}

func TestSearchEscapesWildcards(t *testing.T) {
	db := seed(t)

	assert.Equal(t, []string{"alpha annex 50%"}, names(t, db, Search("50%", "name")))
	assert.Empty(t, names(t, db, Search("_", "name")))
}

func TestDateRangeIsInclusive(t *testing.T) {
	db := seed(t)

	from, to := date(2024, 1, 15), date(2024, 1, 31)
	assert.Equal(t, []string{"Mall Facade", "alpha annex 50%"}, names(t, db, DateRange("start_date", &from, &to)))

	to = date(2024, 1, 15)
	assert.Equal(t, []string{"Mall Facade"}, names(t, db, DateRange("start_date", &from, &to)))
	assert.Len(t, names(t, db, DateRange("start_date", nil, nil)), 3)
}

func TestLimit(t *testing.T) {
	assert.Equal(t, MaxRows, Limit(0))
	assert.Equal(t, MaxRows, Limit(-4))
	assert.Equal(t, MaxRows, Limit(5000))
	assert.Equal(t, 20, Limit(20))
}

func TestPageWindow(t *testing.T) {
	tests := []struct {
		page          Page
		ceiling       int
		limit, offset int
	}{
		{Page{}, 1000, 1000, 0},
		{Page{Limit: 50}, 1000, 50, 0},
		{Page{Limit: 50, Offset: 980}, 1000, 20, 980},
		{Page{Limit: 50, Offset: 1000}, 1000, 0, 1000},
		{Page{Limit: 10, Offset: -3}, 1000, 10, 0},
		{Page{Limit: 10}, 5000, 10, 0},
	}
	for _, tt := range tests {
		limit, offset := tt.page.Window(tt.ceiling)
		assert.Equal(t, tt.limit, limit, "%+v", tt.page)
		assert.Equal(t, tt.offset, offset, "%+v", tt.page)
	}
}

func TestCapAndPaginate(t *testing.T) {
	db := seed(t)

	assert.Len(t, names(t, db, Cap(2)), 2)
	assert.Equal(t, []string{"Mall Facade"}, names(t, db, Page{Limit: 1, Offset: 1}.Paginate(MaxRows)))
	assert.Empty(t, names(t, db, Page{Offset: 3}.Paginate(3)))
}

func TestDay(t *testing.T) {
	in := time.Date(2024, 5, 6, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, date(2024, 5, 6), Day(in))
}
