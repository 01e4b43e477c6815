package service

import (
	"testing"
	"time"

	"ppms/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboard(t *testing.T) {
	e := newEnv(t)
	p := e.project(t, "Tower")
	_, err := e.svc.Projects.Create(ctx, e.pm, ProjectInput{Name: "Paused", Status: models.ProjectOnHold})
	require.NoError(t, err)

	for _, n := range []string{"WO-1", "WO-2", "WO-3"} {
		_, err := e.svc.WorkOrders.Create(ctx, e.pm, WorkOrderInput{WONumber: n, ProjectID: p.ID, Type: models.WorkOrderCutting})
		require.NoError(t, err)
	}
	_, err = e.svc.WorkOrders.UpdateStatus(ctx, e.pm, 3, models.WorkOrderCompleted)
	require.NoError(t, err)

	_, err = e.svc.Targets.Create(ctx, e.pm, TargetInput{OrderNumber: "T-1", ProjectID: p.ID, TargetQuantity: 5, TargetDate: on(2024, 3, 15)})
	require.NoError(t, err)
	_, err = e.svc.Targets.Create(ctx, e.pm, TargetInput{OrderNumber: "T-2", ProjectID: p.ID, TargetQuantity: 5, TargetDate: on(2024, 3, 15), Status: models.TargetCompleted})
	require.NoError(t, err)
	_, err = e.svc.Targets.Create(ctx, e.pm, TargetInput{OrderNumber: "T-3", ProjectID: p.ID, TargetQuantity: 5, TargetDate: on(2024, 3, 16)})
	require.NoError(t, err)

	_, err = e.svc.Balance.Create(ctx, e.pm, BalanceInput{WONumber: "WO-1", ProjectID: p.ID, RequiredQty: 10})
	require.NoError(t, err)

	// 2024-03-15 is a Friday; its week starts on the 11th.
	for _, d := range []*Date{on(2024, 3, 11), on(2024, 3, 15), on(2024, 3, 4), on(2023, 12, 1)} {
		_, err := e.svc.Production.Create(ctx, e.op, ProductionInput{WONumber: "WO-1", ProjectID: p.ID, ProducedQuantity: 10, ProductionDate: d})
		require.NoError(t, err)
	}

	d, err := e.svc.Reports.Dashboard(ctx)
	require.NoError(t, err)

	assert.EqualValues(t, 1, d.ActiveProjects)
	assert.EqualValues(t, 2, d.PendingWorkOrders)
	assert.EqualValues(t, 1, d.TodayPendingTargets)
	assert.EqualValues(t, 1, d.PendingBalanceOrders)
	assert.Equal(t, []Bucket{{"Completed", 1}, {"Pending", 2}}, d.WorkOrdersByStatus)
	assert.Equal(t, []Bucket{{"2024-03-04", 10}, {"2024-03-11", 20}}, d.WeeklyProduction)
	require.Len(t, d.RecentWorkOrders, 3)
	assert.Equal(t, "WO-3", d.RecentWorkOrders[0].WONumber)
	require.NotNil(t, d.RecentWorkOrders[0].Project)
	assert.Equal(t, "Tower", d.RecentWorkOrders[0].Project.Name)
	assert.Len(t, d.TodayTargets, 2)
}

func TestTargetPerformance(t *testing.T) {
	e := newEnv(t)
	p := e.project(t, "Tower")

	mk := func(order string, date *Date, qty int, assignee *uint) uint {
		tg, err := e.svc.Targets.Create(ctx, e.pm, TargetInput{OrderNumber: order, ProjectID: p.ID, TargetQuantity: qty, TargetDate: date, AssignedTo: assignee})
		require.NoError(t, err)
		return tg.ID
	}

	onTime := mk("T-1", on(2024, 3, 15), 10, &e.op.ID)
	late := mk("T-2", on(2024, 3, 14), 10, &e.op.ID)
	mk("T-3", on(2024, 3, 14), 20, &e.op2.ID)
	mk("T-4", on(2024, 1, 1), 20, nil)

	_, err := e.svc.Targets.UpdateProgress(ctx, e.op, onTime, models.TargetCompleted, 10)
	require.NoError(t, err)
	_, err = e.svc.Targets.UpdateProgress(ctx, e.op, late, models.TargetCompleted, 15)
	require.NoError(t, err)

	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	perf, err := e.svc.Reports.TargetPerformance(ctx, &from, nil)
	require.NoError(t, err)

	assert.Equal(t, "2024-03-01", perf.From)
	assert.Equal(t, "2024-03-15", perf.To)
	assert.EqualValues(t, 3, perf.Total)
	assert.EqualValues(t, 2, perf.Completed)
	assert.EqualValues(t, 1, perf.OnTime)
	assert.InDelta(t, 50.0, perf.OnTimeRate, 0.001)
	assert.InDelta(t, (100.0+150.0+0.0)/3, perf.AvgCompletion, 0.001)
	assert.Equal(t, []DayProgress{{"2024-03-14", 2, 1}, {"2024-03-15", 1, 1}}, perf.Daily)
	require.Len(t, perf.Members, 2)
	assert.Equal(t, "op", perf.Members[0].Username)
	assert.EqualValues(t, 2, perf.Members[0].Completed)
	assert.InDelta(t, 125.0, perf.Members[0].AvgCompletion, 0.001)
	assert.Equal(t, []Bucket{{"Completed", 2}, {"Not Started", 1}}, perf.ByStatus)

	to := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	_, err = e.svc.Reports.TargetPerformance(ctx, &from, &to)
	assert.Error(t, err)
}

func TestProductionAnalytics(t *testing.T) {
	e := newEnv(t)
	p := e.project(t, "Tower")
	q := e.project(t, "Annex")
	morning, night := models.ShiftMorning, models.ShiftNight

	add := func(project uint, op uint, qty int, d *Date, machine *string, shift *models.Shift) {
		_, err := e.svc.Production.Create(ctx, e.pm, ProductionInput{
			WONumber: "WO-1", ProjectID: project, OperatorID: op, ProducedQuantity: qty,
			ProductionDate: d, MachineUsed: machine, Shift: shift,
		})
		require.NoError(t, err)
	}
	add(p.ID, e.op.ID, 10, on(2024, 3, 14), str("Saw"), &morning)
	add(p.ID, e.op.ID, 5, on(2024, 3, 15), str("Saw"), &night)
	add(q.ID, e.op2.ID, 30, on(2024, 3, 15), str("Press"), nil)
	add(q.ID, e.op2.ID, 99, on(2024, 1, 1), nil, nil)

	a, err := e.svc.Reports.ProductionAnalytics(ctx, nil, nil)
	require.NoError(t, err)

	assert.EqualValues(t, 45, a.Total)
	assert.Equal(t, []Bucket{{"2024-03-14", 10}, {"2024-03-15", 35}}, a.Daily)
	assert.Equal(t, []Bucket{{"Annex", 30}, {"Tower", 15}}, a.ByProject)
	assert.Equal(t, []Bucket{{"Morning", 10}, {"Night", 5}}, a.ByShift)
	assert.Equal(t, []OperatorOutput{{"op2", 30, 1}, {"op", 15, 2}}, a.ByOperator)
	assert.Equal(t, []MachineUsage{{"Press", 30, 1}, {"Saw", 15, 2}}, a.ByMachine)
}

func TestLookups(t *testing.T) {
	e := newEnv(t)
	p := e.project(t, "Tower")
	_, err := e.svc.Projects.Create(ctx, e.pm, ProjectInput{Name: "Annex", Client: str("Acme")})
	require.NoError(t, err)
	for _, c := range []string{"Blue", "Grey", "Blue"} {
		_, err := e.svc.Cutting.Create(ctx, e.pm, CuttingInput{OrderNumber: "C", ProjectID: p.ID, Quantity: 1, Color: str(c)})
		require.NoError(t, err)
	}

	projects, err := e.svc.Lookups.Projects(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Option{{2, "Annex"}, {1, "Tower"}}, projects)

	colors, err := e.svc.Lookups.Colors(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Blue", "Grey"}, colors)

	clients, err := e.svc.Lookups.Clients(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Acme"}, clients)

	users, err := e.svc.Lookups.Users(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 4)
}
