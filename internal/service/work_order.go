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

type WorkOrderInput struct {
	WONumber    string                 `json:"wo_number"`
	ProjectID   uint                   `json:"project_id"`
	Floor       *string                `json:"floor"`
	Description *string                `json:"description"`
	Type        models.WorkOrderType   `json:"wo_type"`
	Status      models.WorkOrderStatus `json:"status"`
	AssignedTo  *uint                  `json:"assigned_to"`
	Priority    models.Priority        `json:"priority"`
	DueDate     *Date                  `json:"due_date"`
	Version     uint                   `json:"version"`
}

func (in WorkOrderInput) model() (*models.WorkOrder, error) {
	wo := &models.WorkOrder{
		WONumber:    sanitize.Text(in.WONumber),
		ProjectID:   in.ProjectID,
		Floor:       sanitize.TextPtr(in.Floor),
		Description: sanitize.TextPtr(in.Description),
		Type:        in.Type,
		Status:      in.Status,
		AssignedTo:  in.AssignedTo,
		Priority:    in.Priority,
		DueDate:     in.DueDate.Value(),
	}
	wo.Version = in.Version
	orDefault(&wo.Status, models.WorkOrderPending)
	orDefault(&wo.Priority, models.PriorityMedium)

	if err := required("work order number", wo.WONumber); err != nil {
		return nil, err
	}
	if wo.ProjectID == 0 {
		return nil, apperr.Validation("project is required")
	}
	if err := validEnum("work order type", wo.Type); err != nil {
		return nil, err
	}
	if err := validEnum("work order status", wo.Status); err != nil {
		return nil, err
	}
	if err := validEnum("priority", wo.Priority); err != nil {
		return nil, err
	}
	return wo, nil
}

type WorkOrderFilter struct {
	Status     models.WorkOrderStatus `form:"status"`
	Type       models.WorkOrderType   `form:"wo_type"`
	Priority   models.Priority        `form:"priority"`
	ProjectID  uint                   `form:"project_id"`
	AssignedTo uint                   `form:"assigned_to"`
	Search     string                 `form:"q"`
}

func workOrderFields(wo *models.WorkOrder) []audit.Field {
	return []audit.Field{
		audit.String("wo_number", wo.WONumber),
		audit.ID("project_id", wo.ProjectID),
		audit.OptString("floor", wo.Floor),
		audit.OptString("description", wo.Description),
		audit.Text("wo_type", wo.Type),
		audit.Text("status", wo.Status),
		audit.Text("priority", wo.Priority),
		audit.OptDate("due_date", wo.DueDate),
		audit.OptID("assigned_to", wo.AssignedTo),
	}
}

// priorityOrder sorts High before Medium before Low.
const priorityOrder = "CASE priority WHEN 'High' THEN 1 WHEN 'Medium' THEN 2 WHEN 'Low' THEN 3 ELSE 4 END"

type WorkOrderService struct {
	repo *lifecycle.Repository[models.WorkOrder, *models.WorkOrder]
}

func newWorkOrderService(deps lifecycle.Deps) *WorkOrderService {
	return &WorkOrderService{
		repo: lifecycle.New[models.WorkOrder](deps, lifecycle.Schema[models.WorkOrder]{
			Table:  "work_orders",
			Fields: workOrderFields,
			BeforeCreate: func(tx *gorm.DB, wo *models.WorkOrder) error {
				return checkWorkOrder(tx, wo)
			},
			BeforeUpdate: func(tx *gorm.DB, _, wo *models.WorkOrder) error {
				return checkWorkOrder(tx, wo)
			},
		}),
	}
}

func checkWorkOrder(tx *gorm.DB, wo *models.WorkOrder) error {
	var n int64
	err := tx.Model(&models.WorkOrder{}).
		Where("wo_number = ? AND id <> ?", wo.WONumber, wo.ID).
		Count(&n).Error
	if err != nil {
		return err
	}
	if n > 0 {
		return apperr.Validation("work order number %s already exists", wo.WONumber)
	}
	if err := ensureProject(tx, wo.ProjectID); err != nil {
		return err
	}
	return ensureUser(tx, "assignee", wo.AssignedTo)
}

func withProjectAndAssignee(db *gorm.DB) *gorm.DB {
	return db.Preload("Project").Preload("Assignee")
}

func (s *WorkOrderService) List(ctx context.Context, f WorkOrderFilter) ([]models.WorkOrder, error) {
	return s.repo.List(ctx,
		withProjectAndAssignee,
		query.Eq("status", f.Status),
		query.Eq("wo_type", f.Type),
		query.Eq("priority", f.Priority),
		query.Eq("project_id", f.ProjectID),
		query.Eq("assigned_to", f.AssignedTo),
		query.Search(f.Search, "wo_number", "description"),
		query.Order("due_date ASC", priorityOrder, "created_at DESC", "id DESC"),
	)
}

func (s *WorkOrderService) Get(ctx context.Context, id uint) (*models.WorkOrder, error) {
	return s.repo.Get(ctx, id, "Project", "Assignee")
}

func (s *WorkOrderService) Create(ctx context.Context, actor session.Actor, in WorkOrderInput) (*models.WorkOrder, error) {
	if err := requireManager(actor, "create work orders"); err != nil {
		return nil, err
	}
	wo, err := in.model()
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, wo, actor.Ref()); err != nil {
		return nil, err
	}
	return wo, nil
}

func (s *WorkOrderService) Update(ctx context.Context, actor session.Actor, id uint, in WorkOrderInput) (*models.WorkOrder, error) {
	if err := requireManager(actor, "edit work orders"); err != nil {
		return nil, err
	}
	wo, err := in.model()
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, id, wo, actor.Ref()); err != nil {
		return nil, err
	}
	return wo, nil
}

// UpdateStatus is open to managers and to the assigned user.
func (s *WorkOrderService) UpdateStatus(ctx context.Context, actor session.Actor, id uint, status models.WorkOrderStatus) (*models.WorkOrder, error) {
	if err := validEnum("work order status", status); err != nil {
		return nil, err
	}
	return s.repo.Mutate(ctx, id, actor.Ref(), func(wo *models.WorkOrder) error {
		if !actor.CanManage() && (wo.AssignedTo == nil || *wo.AssignedTo != actor.ID) {
			return apperr.Forbidden("only managers or the assigned user can change this work order")
		}
		wo.Status = status
		return nil
	})
}

func (s *WorkOrderService) Delete(ctx context.Context, actor session.Actor, id uint) error {
	if err := requireManager(actor, "delete work orders"); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id, actor.Ref())
}
