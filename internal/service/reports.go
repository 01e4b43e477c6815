package service

import (
	"context"
	"sort"
	"time"

	"ppms/internal/apperr"
	"ppms/internal/database"
	"ppms/internal/models"
	"ppms/internal/query"

	"gorm.io/gorm"
)

// ReportService computes the read-only aggregates behind the dashboard and
// the analytics tabs.
type ReportService struct {
	db      *gorm.DB
	timeout time.Duration
	today   func() time.Time
}

func (s *ReportService) conn(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	ctx, cancel := database.WithTimeout(ctx, s.timeout)
	return s.db.WithContext(ctx), cancel
}

type Bucket struct {
	Key   string `gorm:"column:bucket" json:"key"`
	Count int64  `gorm:"column:hits" json:"count"`
}

type Dashboard struct {
	ActiveProjects       int64                `json:"active_projects"`
	PendingWorkOrders    int64                `json:"pending_work_orders"`
	TodayPendingTargets  int64                `json:"today_pending_targets"`
	PendingBalanceOrders int64                `json:"pending_balance_orders"`
	WorkOrdersByStatus   []Bucket             `json:"work_orders_by_status"`
	WeeklyProduction     []Bucket             `json:"weekly_production"`
	RecentWorkOrders     []models.WorkOrder   `json:"recent_work_orders"`
	TodayTargets         []models.DailyTarget `json:"today_targets"`
}

const (
	recentWorkOrders = 10
	productionWeeks  = 8
)

func (s *ReportService) Dashboard(ctx context.Context) (*Dashboard, error) {
	db, cancel := s.conn(ctx)
	defer cancel()
	today := s.today()
	out := &Dashboard{}

	counts := []struct {
		dst   *int64
		model any
		where string
		args  []any
	}{
		{&out.ActiveProjects, &models.Project{}, "status = ?", []any{models.ProjectActive}},
		{&out.PendingWorkOrders, &models.WorkOrder{}, "status = ?", []any{models.WorkOrderPending}},
		{&out.PendingBalanceOrders, &models.BalanceOrder{}, "status = ?", []any{models.BalancePending}},
		{&out.TodayPendingTargets, &models.DailyTarget{}, "target_date >= ? AND target_date < ? AND status <> ?",
			[]any{today, today.AddDate(0, 0, 1), models.TargetCompleted}},
	}
	for _, c := range counts {
		if err := db.Model(c.model).Where(c.where, c.args...).Count(c.dst).Error; err != nil {
			return nil, database.Classify(err)
		}
	}

	out.WorkOrdersByStatus = []Bucket{}
	err := db.Model(&models.WorkOrder{}).
		Select("status AS bucket, COUNT(*) AS hits").
		Group("status").
		Order("status").
		Scan(&out.WorkOrdersByStatus).Error
	if err != nil {
		return nil, database.Classify(err)
	}

	since := weekStart(today).AddDate(0, 0, -7*(productionWeeks-1))
	var produced []models.ProductionRecord
	err = db.Select("production_date", "produced_quantity").
		Scopes(query.DateRange("production_date", &since, &today)).
		Find(&produced).Error
	if err != nil {
		return nil, database.Classify(err)
	}
	out.WeeklyProduction = sumBy(produced, func(p models.ProductionRecord) (string, int64) {
		return weekStart(p.ProductionDate).Format(dateLayout), int64(p.ProducedQuantity)
	})

	out.RecentWorkOrders = []models.WorkOrder{}
	err = db.Scopes(withProjectAndAssignee).
		Order("created_at DESC").
		Order("id DESC").
		Limit(recentWorkOrders).
		Find(&out.RecentWorkOrders).Error
	if err != nil {
		return nil, database.Classify(err)
	}

	out.TodayTargets = []models.DailyTarget{}
	err = db.Scopes(withProjectAndAssignee, query.DateRange("target_date", &today, &today)).
		Order("status ASC").
		Order("id ASC").
		Find(&out.TodayTargets).Error
	if err != nil {
		return nil, database.Classify(err)
	}
	return out, nil
}

// weekStart returns the Monday of t's week.
func weekStart(t time.Time) time.Time {
	d := query.Day(t)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// sumBy totals rows per key, ordered by key.
func sumBy[T any](rows []T, key func(T) (string, int64)) []Bucket {
	totals := map[string]int64{}
	for _, r := range rows {
		k, v := key(r)
		totals[k] += v
	}
	out := make([]Bucket, 0, len(totals))
	for k, v := range totals {
		out = append(out, Bucket{Key: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func byCountDesc(b []Bucket) []Bucket {
	sort.SliceStable(b, func(i, j int) bool {
		if b[i].Count != b[j].Count {
			return b[i].Count > b[j].Count
		}
		return b[i].Key < b[j].Key
	})
	return b
}

// resolveRange defaults to the last 30 days ending today.
func (s *ReportService) resolveRange(from, to *time.Time) (time.Time, time.Time, error) {
	end := s.today()
	if to != nil {
		end = query.Day(*to)
	}
	start := end.AddDate(0, 0, -30)
	if from != nil {
		start = query.Day(*from)
	}
	if end.Before(start) {
		return start, end, apperr.Validation("end date cannot be before start date")
	}
	return start, end, nil
}

type DayProgress struct {
	Date      string `json:"date"`
	Total     int64  `json:"total"`
	Completed int64  `json:"completed"`
}

type MemberPerformance struct {
	Username      string  `json:"username"`
	Assigned      int64   `json:"assigned"`
	Completed     int64   `json:"completed"`
	AvgCompletion float64 `json:"avg_completion"`
}

type TargetPerformance struct {
	From          string              `json:"from"`
	To            string              `json:"to"`
	Total         int64               `json:"total"`
	Completed     int64               `json:"completed"`
	OnTime        int64               `json:"on_time"`
	OnTimeRate    float64             `json:"on_time_rate"`
	AvgCompletion float64             `json:"avg_completion"`
	Daily         []DayProgress       `json:"daily"`
	Members       []MemberPerformance `json:"members"`
	ByStatus      []Bucket            `json:"by_status"`
}

const unassigned = "Unassigned"

// TargetPerformance analyzes targets dated within [from, to]. Completion
// percentages are actual over target quantity, uncapped, averaged over
// targets with a positive target quantity.
func (s *ReportService) TargetPerformance(ctx context.Context, from, to *time.Time) (*TargetPerformance, error) {
	start, end, err := s.resolveRange(from, to)
	if err != nil {
		return nil, err
	}

	var targets []models.DailyTarget
	db, cancel := s.conn(ctx)
	defer cancel()
	err = db.
		Preload("Assignee").
		Scopes(query.DateRange("target_date", &start, &end)).
		Order("target_date").
		Find(&targets).Error
	if err != nil {
		return nil, database.Classify(err)
	}

	out := &TargetPerformance{From: start.Format(dateLayout), To: end.Format(dateLayout), Total: int64(len(targets))}

	type acc struct {
		assigned, completed int64
		rateSum             float64
		rated               int64
	}
	members := map[string]*acc{}
	days := map[string]*DayProgress{}
	var dayKeys []string
	status := map[string]int64{}
	var rateSum float64
	var rated int64

	for _, t := range targets {
		done := t.Status == models.TargetCompleted
		if done {
			out.Completed++
			if t.CompletionDate == nil || !t.CompletionDate.After(t.TargetDate) {
				out.OnTime++
			}
		}
		status[string(t.Status)]++

		key := t.TargetDate.Format(dateLayout)
		dp, ok := days[key]
		if !ok {
			dp = &DayProgress{Date: key}
			days[key] = dp
			dayKeys = append(dayKeys, key)
		}
		dp.Total++

		name := unassigned
		if t.Assignee != nil {
			name = t.Assignee.Username
		}
		m, ok := members[name]
		if !ok {
			m = &acc{}
			members[name] = m
		}
		m.assigned++

		if done {
			dp.Completed++
			m.completed++
		}
		if t.TargetQuantity > 0 {
			rate := float64(t.ActualQuantity) / float64(t.TargetQuantity) * 100
			rateSum += rate
			rated++
			m.rateSum += rate
			m.rated++
		}
	}

	if rated > 0 {
		out.AvgCompletion = rateSum / float64(rated)
	}
	if out.Completed > 0 {
		out.OnTimeRate = float64(out.OnTime) / float64(out.Completed) * 100
	}

	sort.Strings(dayKeys)
	out.Daily = make([]DayProgress, 0, len(dayKeys))
	for _, k := range dayKeys {
		out.Daily = append(out.Daily, *days[k])
	}

	out.Members = make([]MemberPerformance, 0, len(members))
	for name, m := range members {
		mp := MemberPerformance{Username: name, Assigned: m.assigned, Completed: m.completed}
		if m.rated > 0 {
			mp.AvgCompletion = m.rateSum / float64(m.rated)
		}
		out.Members = append(out.Members, mp)
	}
	sort.Slice(out.Members, func(i, j int) bool {
		if out.Members[i].Completed != out.Members[j].Completed {
			return out.Members[i].Completed > out.Members[j].Completed
		}
		return out.Members[i].Username < out.Members[j].Username
	})

	out.ByStatus = make([]Bucket, 0, len(status))
	for k, v := range status {
		out.ByStatus = append(out.ByStatus, Bucket{Key: k, Count: v})
	}
	byCountDesc(out.ByStatus)
	return out, nil
}

type OperatorOutput struct {
	Username string `json:"username"`
	Produced int64  `json:"produced"`
	Records  int64  `json:"records"`
}

type MachineUsage struct {
	Machine  string `json:"machine"`
	Produced int64  `json:"produced"`
	DaysUsed int64  `json:"days_used"`
}

type ProductionAnalytics struct {
	From       string           `json:"from"`
	To         string           `json:"to"`
	Total      int64            `json:"total"`
	Daily      []Bucket         `json:"daily"`
	ByOperator []OperatorOutput `json:"by_operator"`
	ByProject  []Bucket         `json:"by_project"`
	ByShift    []Bucket         `json:"by_shift"`
	ByMachine  []MachineUsage   `json:"by_machine"`
}

// ProductionAnalytics totals produced quantity within [from, to].
func (s *ReportService) ProductionAnalytics(ctx context.Context, from, to *time.Time) (*ProductionAnalytics, error) {
	start, end, err := s.resolveRange(from, to)
	if err != nil {
		return nil, err
	}

	var records []models.ProductionRecord
	db, cancel := s.conn(ctx)
	defer cancel()
	err = db.
		Preload("Project").
		Preload("Operator").
		Scopes(query.DateRange("production_date", &start, &end)).
		Find(&records).Error
	if err != nil {
		return nil, database.Classify(err)
	}

	out := &ProductionAnalytics{From: start.Format(dateLayout), To: end.Format(dateLayout)}
	for _, r := range records {
		out.Total += int64(r.ProducedQuantity)
	}

	out.Daily = sumBy(records, func(r models.ProductionRecord) (string, int64) {
		return r.ProductionDate.Format(dateLayout), int64(r.ProducedQuantity)
	})
	out.ByProject = byCountDesc(sumBy(records, func(r models.ProductionRecord) (string, int64) {
		if r.Project == nil {
			return "Unknown", int64(r.ProducedQuantity)
		}
		return r.Project.Name, int64(r.ProducedQuantity)
	}))
	out.ByShift = byCountDesc(sumBy(filter(records, func(r models.ProductionRecord) bool { return r.Shift != nil }),
		func(r models.ProductionRecord) (string, int64) {
			return string(*r.Shift), int64(r.ProducedQuantity)
		}))

	operators := map[string]*OperatorOutput{}
	machines := map[string]*MachineUsage{}
	machineDays := map[string]map[string]struct{}{}
	for _, r := range records {
		name := "Unknown"
		if r.Operator != nil {
			name = r.Operator.Username
		}
		op, ok := operators[name]
		if !ok {
			op = &OperatorOutput{Username: name}
			operators[name] = op
		}
		op.Produced += int64(r.ProducedQuantity)
		op.Records++

		if r.MachineUsed == nil {
			continue
		}
		mu, ok := machines[*r.MachineUsed]
		if !ok {
			mu = &MachineUsage{Machine: *r.MachineUsed}
			machines[*r.MachineUsed] = mu
			machineDays[*r.MachineUsed] = map[string]struct{}{}
		}
		mu.Produced += int64(r.ProducedQuantity)
		machineDays[*r.MachineUsed][r.ProductionDate.Format(dateLayout)] = struct{}{}
	}

	out.ByOperator = make([]OperatorOutput, 0, len(operators))
	for _, op := range operators {
		out.ByOperator = append(out.ByOperator, *op)
	}
	sort.Slice(out.ByOperator, func(i, j int) bool {
		if out.ByOperator[i].Produced != out.ByOperator[j].Produced {
			return out.ByOperator[i].Produced > out.ByOperator[j].Produced
		}
		return out.ByOperator[i].Username < out.ByOperator[j].Username
	})

	out.ByMachine = make([]MachineUsage, 0, len(machines))
	for name, mu := range machines {
		mu.DaysUsed = int64(len(machineDays[name]))
		out.ByMachine = append(out.ByMachine, *mu)
	}
	sort.Slice(out.ByMachine, func(i, j int) bool {
		if out.ByMachine[i].Produced != out.ByMachine[j].Produced {
			return out.ByMachine[i].Produced > out.ByMachine[j].Produced
		}
		return out.ByMachine[i].Machine < out.ByMachine[j].Machine
	})
	return out, nil
}

func filter[T any](rows []T, keep func(T) bool) []T {
	out := rows[:0:0]
	for _, r := range rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}
