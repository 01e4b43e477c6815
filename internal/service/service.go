// Package service implements the per-entity business rules: validation,
// status side effects, role checks and list filters. Every write goes
// through a lifecycle repository and is therefore audited.
package service

import (
	"strings"
	"time"

	"ppms/internal/apperr"
	"ppms/internal/audit"
	"ppms/internal/lifecycle"
	"ppms/internal/models"
	"ppms/internal/query"
	"ppms/internal/session"

	"gorm.io/gorm"
)

// Clock returns the current time. Services only use its calendar day.
type Clock func() time.Time

type Services struct {
	Projects   *ProjectService
	WorkOrders *WorkOrderService
	Cutting    *CuttingService
	Balance    *BalanceService
	Production *ProductionService
	Targets    *TargetService
	Dispatch   *DispatchService
	Reports    *ReportService
	Lookups    *LookupService
}

func New(deps lifecycle.Deps, clock Clock) *Services {
	if clock == nil {
		clock = time.Now
	}
	today := func() time.Time { return query.Day(clock()) }

	return &Services{
		Projects:   newProjectService(deps),
		WorkOrders: newWorkOrderService(deps),
		Cutting:    newCuttingService(deps, today),
		Balance:    newBalanceService(deps),
		Production: newProductionService(deps, today),
		Targets:    newTargetService(deps, today),
		Dispatch:   newDispatchService(deps, today),
		Reports:    &ReportService{db: deps.DB, timeout: deps.Timeout, today: today},
		Lookups:    &LookupService{db: deps.DB, timeout: deps.Timeout},
	}
}

// AuditFields exposes the audited column list of each table for tooling.
func AuditFields() map[string][]string {
	names := func(fields []audit.Field) []string {
		out := make([]string, len(fields))
		for i, f := range fields {
			out[i] = f.Name
		}
		return out
	}
	return map[string][]string{
		"projects":       names(projectFields(&models.Project{})),
		"work_orders":    names(workOrderFields(&models.WorkOrder{})),
		"cutting_lists":  names(cuttingFields(&models.CuttingItem{})),
		"balance_orders": names(balanceFields(&models.BalanceOrder{})),
		"production_log": names(productionFields(&models.ProductionRecord{})),
		"daily_targets":  names(targetFields(&models.DailyTarget{})),
		"dispatch":       names(dispatchFields(&models.DispatchRecord{})),
	}
}

func requireManager(actor session.Actor, what string) error {
	if !actor.CanManage() {
		return apperr.Forbidden("only admins and project managers can %s", what)
	}
	return nil
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return apperr.Validation("%s is required", field)
	}
	return nil
}

func positive(field string, v int) error {
	if v <= 0 {
		return apperr.Validation("%s must be greater than 0", field)
	}
	return nil
}

func nonNegative(field string, v int) error {
	if v < 0 {
		return apperr.Validation("%s cannot be negative", field)
	}
	return nil
}

type enum interface {
	~string
	Valid() bool
}

func validEnum[E enum](field string, v E) error {
	if !v.Valid() {
		return apperr.Validation("invalid %s %q", field, string(v))
	}
	return nil
}

// orDefault fills an empty enum with def before validating it.
func orDefault[E enum](v *E, def E) {
	if *v == "" {
		*v = def
	}
}

func dateOrder(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return apperr.Validation("end date cannot be before start date")
	}
	return nil
}

func ensureProject(tx *gorm.DB, id uint) error {
	if id == 0 {
		return apperr.Validation("project is required")
	}
	return ensureExists(tx, &models.Project{}, "project", id)
}

func ensureUser(tx *gorm.DB, field string, id *uint) error {
	if id == nil {
		return nil
	}
	return ensureExists(tx, &models.User{}, field, *id)
}

func ensureExists(tx *gorm.DB, model any, what string, id uint) error {
	var n int64
	if err := tx.Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return apperr.Constraint("%s #%d does not exist", what, id)
	}
	return nil
}
