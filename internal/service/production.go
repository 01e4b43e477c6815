package service

import (
	"context"
	"time"

	"ppms/internal/apperr"
	"ppms/internal/audit"
	"ppms/internal/lifecycle"
	"ppms/internal/models"
	"ppms/internal/query"
	"ppms/internal/sanitize"
	"ppms/internal/session"

	"gorm.io/gorm"
)

type ProductionInput struct {
	WONumber         string        `json:"wo_number"`
	ProjectID        uint          `json:"project_id"`
	OperatorID       uint          `json:"operator_id"`
	MachineUsed      *string       `json:"machine_used"`
	ProducedQuantity int           `json:"produced_quantity"`
	ProductionDate   *Date         `json:"production_date"`
	Shift            *models.Shift `json:"shift"`
	Notes            *string       `json:"notes"`
	Version          uint          `json:"version"`
}

func (in ProductionInput) model(today time.Time) (*models.ProductionRecord, error) {
	p := &models.ProductionRecord{
		WONumber:         sanitize.Text(in.WONumber),
		ProjectID:        in.ProjectID,
		OperatorID:       in.OperatorID,
		MachineUsed:      sanitize.TextPtr(in.MachineUsed),
		ProducedQuantity: in.ProducedQuantity,
		ProductionDate:   today,
		Shift:            in.Shift,
		Notes:            sanitize.TextPtr(in.Notes),
	}
	p.Version = in.Version
	if d := in.ProductionDate.Value(); d != nil {
		p.ProductionDate = *d
	}
	if p.Shift != nil && *p.Shift == "" {
		p.Shift = nil
	}

	if err := required("work order number", p.WONumber); err != nil {
		return nil, err
	}
	if p.ProjectID == 0 {
		return nil, apperr.Validation("project is required")
	}
	if p.OperatorID == 0 {
		return nil, apperr.Validation("operator is required")
	}
	if err := positive("produced quantity", p.ProducedQuantity); err != nil {
		return nil, err
	}
	if p.Shift != nil {
		if err := validEnum("shift", *p.Shift); err != nil {
			return nil, err
		}
	}
	return p, nil
}

type ProductionFilter struct {
	From       *time.Time   `form:"from" time_format:"2006-01-02"`
	To         *time.Time   `form:"to" time_format:"2006-01-02"`
	ProjectID  uint         `form:"project_id"`
	OperatorID uint         `form:"operator_id"`
	Shift      models.Shift `form:"shift"`
	Machine    string       `form:"machine"`
	Search     string       `form:"q"`
}

func productionFields(p *models.ProductionRecord) []audit.Field {
	return []audit.Field{
		audit.String("wo_number", p.WONumber),
		audit.ID("project_id", p.ProjectID),
		audit.ID("operator_id", p.OperatorID),
		audit.OptString("machine_used", p.MachineUsed),
		audit.Int("produced_quantity", p.ProducedQuantity),
		audit.Date("production_date", p.ProductionDate),
		audit.OptText("shift", p.Shift),
		audit.OptString("notes", p.Notes),
	}
}

func checkProduction(tx *gorm.DB, p *models.ProductionRecord) error {
	if err := ensureProject(tx, p.ProjectID); err != nil {
		return err
	}
	return ensureUser(tx, "operator", &p.OperatorID)
}

type ProductionService struct {
	repo  *lifecycle.Repository[models.ProductionRecord, *models.ProductionRecord]
	today func() time.Time
}

func newProductionService(deps lifecycle.Deps, today func() time.Time) *ProductionService {
	return &ProductionService{
		today: today,
		repo: lifecycle.New[models.ProductionRecord](deps, lifecycle.Schema[models.ProductionRecord]{
			Table:        "production_log",
			Fields:       productionFields,
			BeforeCreate: checkProduction,
			BeforeUpdate: func(tx *gorm.DB, _, p *models.ProductionRecord) error {
				return checkProduction(tx, p)
			},
		}),
	}
}

func (s *ProductionService) List(ctx context.Context, f ProductionFilter) ([]models.ProductionRecord, error) {
	return s.repo.List(ctx,
		func(db *gorm.DB) *gorm.DB { return db.Preload("Project").Preload("Operator") },
		query.DateRange("production_date", f.From, f.To),
		query.Eq("project_id", f.ProjectID),
		query.Eq("operator_id", f.OperatorID),
		query.Eq("shift", f.Shift),
		query.Eq("machine_used", f.Machine),
		query.Search(f.Search, "wo_number", "notes"),
		query.Order("production_date DESC", "created_at DESC", "id DESC"),
	)
}

func (s *ProductionService) Get(ctx context.Context, id uint) (*models.ProductionRecord, error) {
	return s.repo.Get(ctx, id, "Project", "Operator")
}

// Create is open to every role. Without an operator the actor is recorded as
// the operator.
func (s *ProductionService) Create(ctx context.Context, actor session.Actor, in ProductionInput) (*models.ProductionRecord, error) {
	if in.OperatorID == 0 && !actor.IsSystem() {
		in.OperatorID = actor.ID
	}
	p, err := in.model(s.today())
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, p, actor.Ref()); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ProductionService) Update(ctx context.Context, actor session.Actor, id uint, in ProductionInput) (*models.ProductionRecord, error) {
	if err := requireManager(actor, "edit production records"); err != nil {
		return nil, err
	}
	p, err := in.model(s.today())
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, id, p, actor.Ref()); err != nil {
		return nil, err
	}
	return p, nil
}

// Duplicate copies record id as a new entry dated today.
func (s *ProductionService) Duplicate(ctx context.Context, actor session.Actor, id uint) (*models.ProductionRecord, error) {
	src, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	cp := &models.ProductionRecord{
		WONumber:         src.WONumber,
		ProjectID:        src.ProjectID,
		OperatorID:       src.OperatorID,
		MachineUsed:      src.MachineUsed,
		ProducedQuantity: src.ProducedQuantity,
		ProductionDate:   s.today(),
		Shift:            src.Shift,
		Notes:            src.Notes,
	}
	if err := s.repo.Create(ctx, cp, actor.Ref()); err != nil {
		return nil, err
	}
	return cp, nil
}

func (s *ProductionService) Delete(ctx context.Context, actor session.Actor, id uint) error {
	if err := requireManager(actor, "delete production records"); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id, actor.Ref())
}
