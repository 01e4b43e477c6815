package service

import (
	"testing"
	"time"

	"ppms/internal/apperr"
	"ppms/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkOrderListFiltersAndOrder(t *testing.T) {
	e := newEnv(t)
	p := e.project(t, "Tower")
	q := e.project(t, "Annex")

	mk := func(n string, project uint, due *Date, prio models.Priority, desc string) {
		_, err := e.svc.WorkOrders.Create(ctx, e.pm, WorkOrderInput{
			WONumber: n, ProjectID: project, Type: models.WorkOrderCutting,
			DueDate: due, Priority: prio, Description: str(desc),
		})
		require.NoError(t, err)
	}
	mk("WO-A", p.ID, on(2024, 4, 1), models.PriorityLow, "glass panels")
	mk("WO-B", p.ID, on(2024, 4, 1), models.PriorityHigh, "frames")
	mk("WO-C", q.ID, on(2024, 3, 20), models.PriorityMedium, "Glass doors")

	all, err := e.svc.WorkOrders.List(ctx, WorkOrderFilter{})
	require.NoError(t, err)
	var got []string
	for _, wo := range all {
		got = append(got, wo.WONumber)
	}
	assert.Equal(t, []string{"WO-C", "WO-B", "WO-A"}, got)

	byProject, err := e.svc.WorkOrders.List(ctx, WorkOrderFilter{ProjectID: p.ID})
	require.NoError(t, err)
	assert.Len(t, byProject, 2)

	glass, err := e.svc.WorkOrders.List(ctx, WorkOrderFilter{Search: "GLASS"})
	require.NoError(t, err)
	assert.Len(t, glass, 2)

	high, err := e.svc.WorkOrders.List(ctx, WorkOrderFilter{Priority: models.PriorityHigh})
	require.NoError(t, err)
	require.Len(t, high, 1)
	assert.Equal(t, "WO-B", high[0].WONumber)
}

func TestTargetWindows(t *testing.T) {
	e := newEnv(t)
	p := e.project(t, "Tower")

	mk := func(n string, d *Date, status models.TargetStatus) {
		_, err := e.svc.Targets.Create(ctx, e.pm, TargetInput{OrderNumber: n, ProjectID: p.ID, TargetQuantity: 1, TargetDate: d, Status: status})
		require.NoError(t, err)
	}
	mk("today", on(2024, 3, 15), models.TargetNotStarted)
	mk("in-week", on(2024, 3, 21), models.TargetNotStarted)
	mk("next-week", on(2024, 3, 22), models.TargetNotStarted)
	mk("overdue", on(2024, 3, 10), models.TargetInProgress)
	mk("done-late", on(2024, 3, 9), models.TargetCompleted)

	names := func(w TargetWindow) []string {
		rows, err := e.svc.Targets.List(ctx, TargetFilter{Window: w})
		require.NoError(t, err)
		var out []string
		for _, r := range rows {
			out = append(out, r.OrderNumber)
		}
		return out
	}

	assert.Equal(t, []string{"today"}, names(TargetWindowToday))
	assert.Equal(t, []string{"today", "in-week"}, names(TargetWindowThisWeek))
	assert.Equal(t, []string{"overdue"}, names(TargetWindowOverdue))
	assert.Len(t, names(TargetWindowAll), 5)

	_, err := e.svc.Targets.List(ctx, TargetFilter{Window: "fortnight"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestDispatchWindowsAndSearch(t *testing.T) {
	e := newEnv(t)
	p := e.project(t, "Tower")

	mk := func(n string, d *Date, challan string) {
		_, err := e.svc.Dispatch.Create(ctx, e.pm, DispatchInput{ProjectID: p.ID, OrderNumber: n, DispatchDate: d, ChallanNumber: str(challan)})
		require.NoError(t, err)
	}
	mk("D-1", on(2024, 3, 15), "CH-001")
	mk("D-2", on(2024, 3, 9), "CH-002")
	mk("D-3", on(2024, 2, 20), "CH-003")

	week, err := e.svc.Dispatch.List(ctx, DispatchFilter{Window: DispatchWindowWeek})
	require.NoError(t, err)
	assert.Len(t, week, 2)
	assert.Equal(t, "D-1", week[0].OrderNumber)

	month, err := e.svc.Dispatch.List(ctx, DispatchFilter{Window: DispatchWindowMonth})
	require.NoError(t, err)
	assert.Len(t, month, 3)

	ch, err := e.svc.Dispatch.List(ctx, DispatchFilter{Search: "ch-003"})
	require.NoError(t, err)
	require.Len(t, ch, 1)
	assert.Equal(t, "D-3", ch[0].OrderNumber)
}

func TestProductionDateRangeFilter(t *testing.T) {
	e := newEnv(t)
	p := e.project(t, "Tower")
	for _, d := range []*Date{on(2024, 3, 1), on(2024, 3, 5), on(2024, 3, 9)} {
		_, err := e.svc.Production.Create(ctx, e.op, ProductionInput{WONumber: "WO-1", ProjectID: p.ID, ProducedQuantity: 1, ProductionDate: d})
		require.NoError(t, err)
	}

	from := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)
	rows, err := e.svc.Production.List(ctx, ProductionFilter{From: &from, To: &to})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2024-03-09", rows[0].ProductionDate.Format("2006-01-02"))
	require.NotNil(t, rows[0].Operator)
	assert.Equal(t, "op", rows[0].Operator.Username)
}

func TestDateJSON(t *testing.T) {
	var d Date
	require.NoError(t, d.UnmarshalJSON([]byte(`"2024-03-05"`)))
	assert.Equal(t, "2024-03-05", d.Format(dateLayout))

	require.NoError(t, d.UnmarshalJSON([]byte(`"2024-03-06T22:10:00Z"`)))
	assert.Equal(t, "2024-03-06", d.Format(dateLayout))

	assert.ErrorIs(t, d.UnmarshalJSON([]byte(`"05/03/2024"`)), apperr.ErrValidation)

	b, err := Date{time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)}.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"2024-01-02"`, string(b))

	var nilDate *Date
	assert.Nil(t, nilDate.Value())
}
