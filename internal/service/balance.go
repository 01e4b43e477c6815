package service

import (
	"context"

	"ppms/internal/apperr"
	"ppms/internal/audit"
	"ppms/internal/lifecycle"
	"ppms/internal/models"
	"ppms/internal/query"
	"ppms/internal/sanitize"
	"ppms/internal/session"

	"gorm.io/gorm"
)

type BalanceInput struct {
	WONumber       string               `json:"wo_number"`
	ProjectID      uint                 `json:"project_id"`
	Floor          *string              `json:"floor"`
	Priority       models.Priority      `json:"priority"`
	Specifications *string              `json:"specifications"`
	RequiredQty    int                  `json:"required_qty"`
	FulfilledQty   int                  `json:"fulfilled_qty"`
	TotalQty       *int                 `json:"total_qty"`
	DueDate        *Date                `json:"due_date"`
	Status         models.BalanceStatus `json:"status"`
	Version        uint                 `json:"version"`
}

func (in BalanceInput) model() (*models.BalanceOrder, error) {
	b := &models.BalanceOrder{
		WONumber:       sanitize.Text(in.WONumber),
		ProjectID:      in.ProjectID,
		Floor:          sanitize.TextPtr(in.Floor),
		Priority:       in.Priority,
		Specifications: sanitize.TextPtr(in.Specifications),
		RequiredQty:    in.RequiredQty,
		FulfilledQty:   in.FulfilledQty,
		TotalQty:       in.TotalQty,
		DueDate:        in.DueDate.Value(),
		Status:         in.Status,
	}
	b.Version = in.Version
	orDefault(&b.Priority, models.PriorityMedium)
	orDefault(&b.Status, models.BalancePending)

	if err := required("work order number", b.WONumber); err != nil {
		return nil, err
	}
	if b.ProjectID == 0 {
		return nil, apperr.Validation("project is required")
	}
	if err := positive("required quantity", b.RequiredQty); err != nil {
		return nil, err
	}
	if err := nonNegative("fulfilled quantity", b.FulfilledQty); err != nil {
		return nil, err
	}
	if b.TotalQty != nil {
		if err := nonNegative("total quantity", *b.TotalQty); err != nil {
			return nil, err
		}
	}
	if err := validEnum("priority", b.Priority); err != nil {
		return nil, err
	}
	if err := validEnum("balance status", b.Status); err != nil {
		return nil, err
	}
	return b, nil
}

type BalanceFilter struct {
	Status    models.BalanceStatus `form:"status"`
	Priority  models.Priority      `form:"priority"`
	ProjectID uint                 `form:"project_id"`
	Search    string               `form:"q"`
}

func balanceFields(b *models.BalanceOrder) []audit.Field {
	return []audit.Field{
		audit.String("wo_number", b.WONumber),
		audit.ID("project_id", b.ProjectID),
		audit.OptString("floor", b.Floor),
		audit.Text("priority", b.Priority),
		audit.OptString("specifications", b.Specifications),
		audit.Int("required_qty", b.RequiredQty),
		audit.Int("fulfilled_qty", b.FulfilledQty),
		audit.OptInt("total_qty", b.TotalQty),
		audit.OptDate("due_date", b.DueDate),
		audit.Text("status", b.Status),
	}
}

type BalanceService struct {
	repo *lifecycle.Repository[models.BalanceOrder, *models.BalanceOrder]
}

func newBalanceService(deps lifecycle.Deps) *BalanceService {
	return &BalanceService{
		repo: lifecycle.New[models.BalanceOrder](deps, lifecycle.Schema[models.BalanceOrder]{
			Table:  "balance_orders",
			Fields: balanceFields,
			BeforeCreate: func(tx *gorm.DB, b *models.BalanceOrder) error {
				return ensureProject(tx, b.ProjectID)
			},
			BeforeUpdate: func(tx *gorm.DB, _, b *models.BalanceOrder) error {
				return ensureProject(tx, b.ProjectID)
			},
		}),
	}
}

func (s *BalanceService) List(ctx context.Context, f BalanceFilter) ([]models.BalanceOrder, error) {
	return s.repo.List(ctx,
		func(db *gorm.DB) *gorm.DB { return db.Preload("Project") },
		query.Eq("status", f.Status),
		query.Eq("priority", f.Priority),
		query.Eq("project_id", f.ProjectID),
		query.Search(f.Search, "wo_number", "specifications"),
		query.Order("due_date ASC", priorityOrder, "created_at DESC", "id DESC"),
	)
}

func (s *BalanceService) Get(ctx context.Context, id uint) (*models.BalanceOrder, error) {
	return s.repo.Get(ctx, id, "Project")
}

func (s *BalanceService) Create(ctx context.Context, actor session.Actor, in BalanceInput) (*models.BalanceOrder, error) {
	if err := requireManager(actor, "create balance orders"); err != nil {
		return nil, err
	}
	b, err := in.model()
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, b, actor.Ref()); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *BalanceService) Update(ctx context.Context, actor session.Actor, id uint, in BalanceInput) (*models.BalanceOrder, error) {
	if err := requireManager(actor, "edit balance orders"); err != nil {
		return nil, err
	}
	b, err := in.model()
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, id, b, actor.Ref()); err != nil {
		return nil, err
	}
	return b, nil
}

// UpdateStatus is open to every role.
func (s *BalanceService) UpdateStatus(ctx context.Context, actor session.Actor, id uint, status models.BalanceStatus) (*models.BalanceOrder, error) {
	if err := validEnum("balance status", status); err != nil {
		return nil, err
	}
	return s.repo.Mutate(ctx, id, actor.Ref(), func(b *models.BalanceOrder) error {
		b.Status = status
		return nil
	})
}

// UpdateFulfilled records delivered quantity. It may exceed the required
// quantity and does not change the status.
func (s *BalanceService) UpdateFulfilled(ctx context.Context, actor session.Actor, id uint, qty int) (*models.BalanceOrder, error) {
	if err := nonNegative("fulfilled quantity", qty); err != nil {
		return nil, err
	}
	return s.repo.Mutate(ctx, id, actor.Ref(), func(b *models.BalanceOrder) error {
		b.FulfilledQty = qty
		return nil
	})
}

func (s *BalanceService) Delete(ctx context.Context, actor session.Actor, id uint) error {
	if err := requireManager(actor, "delete balance orders"); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id, actor.Ref())
}

type BalanceSummary struct {
	Orders       int64   `json:"orders"`
	RequiredQty  int64   `json:"required_qty"`
	FulfilledQty int64   `json:"fulfilled_qty"`
	Remaining    int64   `json:"remaining_qty"`
	Progress     float64 `json:"progress"`
}

func (s *BalanceService) Summary(ctx context.Context, f BalanceFilter) (*BalanceSummary, error) {
	orders, err := s.List(ctx, f)
	if err != nil {
		return nil, err
	}
	out := &BalanceSummary{Orders: int64(len(orders))}
	for _, b := range orders {
		out.RequiredQty += int64(b.RequiredQty)
		out.FulfilledQty += int64(b.FulfilledQty)
		out.Remaining += int64(b.Remaining())
	}
	if out.RequiredQty > 0 {
		out.Progress = min(float64(out.FulfilledQty)/float64(out.RequiredQty)*100, 100)
	}
	return out, nil
}
