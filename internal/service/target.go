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

type TargetInput struct {
	OrderNumber    string              `json:"order_number"`
	ProjectID      uint                `json:"project_id"`
	Description    *string             `json:"description"`
	TargetQuantity int                 `json:"target_quantity"`
	TargetDate     *Date               `json:"target_date"`
	AssignedTo     *uint               `json:"assigned_to"`
	Status         models.TargetStatus `json:"status"`
	ActualQuantity int                 `json:"actual_quantity"`
	CompletionDate *Date               `json:"completion_date"`
	Notes          *string             `json:"notes"`
	Version        uint                `json:"version"`
}

func (in TargetInput) model() (*models.DailyTarget, error) {
	t := &models.DailyTarget{
		OrderNumber:    sanitize.Text(in.OrderNumber),
		ProjectID:      in.ProjectID,
		Description:    sanitize.TextPtr(in.Description),
		TargetQuantity: in.TargetQuantity,
		AssignedTo:     in.AssignedTo,
		Status:         in.Status,
		ActualQuantity: in.ActualQuantity,
		CompletionDate: in.CompletionDate.Value(),
		Notes:          sanitize.TextPtr(in.Notes),
	}
	t.Version = in.Version
	orDefault(&t.Status, models.TargetNotStarted)

	if err := required("order number", t.OrderNumber); err != nil {
		return nil, err
	}
	if t.ProjectID == 0 {
		return nil, apperr.Validation("project is required")
	}
	if err := positive("target quantity", t.TargetQuantity); err != nil {
		return nil, err
	}
	if err := nonNegative("actual quantity", t.ActualQuantity); err != nil {
		return nil, err
	}
	d := in.TargetDate.Value()
	if d == nil {
		return nil, apperr.Validation("target date is required")
	}
	t.TargetDate = *d
	if err := validEnum("target status", t.Status); err != nil {
		return nil, err
	}
	return t, nil
}

// TargetWindow selects target dates relative to today.
type TargetWindow string

const (
	TargetWindowAll      TargetWindow = ""
	TargetWindowToday    TargetWindow = "today"
	TargetWindowThisWeek TargetWindow = "week"
	TargetWindowOverdue  TargetWindow = "overdue"
)

type TargetFilter struct {
	Status     models.TargetStatus `form:"status"`
	ProjectID  uint                `form:"project_id"`
	AssignedTo uint                `form:"assigned_to"`
	Window     TargetWindow        `form:"window"`
	From       *time.Time          `form:"from" time_format:"2006-01-02"`
	To         *time.Time          `form:"to" time_format:"2006-01-02"`
	Search     string              `form:"q"`
}

func targetFields(t *models.DailyTarget) []audit.Field {
	return []audit.Field{
		audit.String("order_number", t.OrderNumber),
		audit.ID("project_id", t.ProjectID),
		audit.OptString("description", t.Description),
		audit.Int("target_quantity", t.TargetQuantity),
		audit.Date("target_date", t.TargetDate),
		audit.OptID("assigned_to", t.AssignedTo),
		audit.Text("status", t.Status),
		audit.Int("actual_quantity", t.ActualQuantity),
		audit.OptDate("completion_date", t.CompletionDate),
		audit.OptString("notes", t.Notes),
	}
}

type TargetService struct {
	repo  *lifecycle.Repository[models.DailyTarget, *models.DailyTarget]
	today func() time.Time
}

func newTargetService(deps lifecycle.Deps, today func() time.Time) *TargetService {
	s := &TargetService{today: today}
	s.repo = lifecycle.New[models.DailyTarget](deps, lifecycle.Schema[models.DailyTarget]{
		Table:  "daily_targets",
		Fields: targetFields,
		BeforeCreate: func(tx *gorm.DB, t *models.DailyTarget) error {
			s.stampCompletion(models.TargetNotStarted, t)
			return s.check(tx, t)
		},
		BeforeUpdate: func(tx *gorm.DB, old, t *models.DailyTarget) error {
			if t.CompletionDate == nil {
				t.CompletionDate = old.CompletionDate
			}
			s.stampCompletion(old.Status, t)
			return s.check(tx, t)
		},
	})
	return s
}

// stampCompletion dates a target entering Completed. The date is never
// cleared, not even when the target leaves Completed.
func (s *TargetService) stampCompletion(from models.TargetStatus, t *models.DailyTarget) {
	if from != models.TargetCompleted && t.Status == models.TargetCompleted {
		today := s.today()
		t.CompletionDate = &today
	}
}

func (s *TargetService) check(tx *gorm.DB, t *models.DailyTarget) error {
	if err := ensureProject(tx, t.ProjectID); err != nil {
		return err
	}
	return ensureUser(tx, "assignee", t.AssignedTo)
}

func (s *TargetService) window(w TargetWindow) (query.Scope, error) {
	today := s.today()
	switch w {
	case TargetWindowAll:
		return func(db *gorm.DB) *gorm.DB { return db }, nil
	case TargetWindowToday:
		return query.DateRange("target_date", &today, &today), nil
	case TargetWindowThisWeek:
		end := today.AddDate(0, 0, 6)
		return query.DateRange("target_date", &today, &end), nil
	case TargetWindowOverdue:
		return func(db *gorm.DB) *gorm.DB {
			return db.Where("target_date < ? AND status <> ?", today, models.TargetCompleted)
		}, nil
	}
	return nil, apperr.Validation("invalid date window %q", string(w))
}

func (s *TargetService) List(ctx context.Context, f TargetFilter) ([]models.DailyTarget, error) {
	window, err := s.window(f.Window)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx,
		withProjectAndAssignee,
		query.Eq("status", f.Status),
		query.Eq("project_id", f.ProjectID),
		query.Eq("assigned_to", f.AssignedTo),
		window,
		query.DateRange("target_date", f.From, f.To),
		query.Search(f.Search, "order_number", "description"),
		query.Order("target_date ASC", "status ASC", "created_at DESC", "id DESC"),
	)
}

func (s *TargetService) Get(ctx context.Context, id uint) (*models.DailyTarget, error) {
	return s.repo.Get(ctx, id, "Project", "Assignee")
}

func (s *TargetService) Create(ctx context.Context, actor session.Actor, in TargetInput) (*models.DailyTarget, error) {
	if err := requireManager(actor, "create targets"); err != nil {
		return nil, err
	}
	t, err := in.model()
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, t, actor.Ref()); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TargetService) Update(ctx context.Context, actor session.Actor, id uint, in TargetInput) (*models.DailyTarget, error) {
	if err := requireManager(actor, "edit targets"); err != nil {
		return nil, err
	}
	t, err := in.model()
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, id, t, actor.Ref()); err != nil {
		return nil, err
	}
	return t, nil
}

// UpdateProgress sets status and actual quantity. Open to managers and the
// assigned user.
func (s *TargetService) UpdateProgress(ctx context.Context, actor session.Actor, id uint, status models.TargetStatus, actual int) (*models.DailyTarget, error) {
	if err := validEnum("target status", status); err != nil {
		return nil, err
	}
	if err := nonNegative("actual quantity", actual); err != nil {
		return nil, err
	}
	return s.repo.Mutate(ctx, id, actor.Ref(), func(t *models.DailyTarget) error {
		if !actor.CanManage() && (t.AssignedTo == nil || *t.AssignedTo != actor.ID) {
			return apperr.Forbidden("only managers or the assigned user can update this target")
		}
		t.Status = status
		t.ActualQuantity = actual
		return nil
	})
}

func (s *TargetService) Delete(ctx context.Context, actor session.Actor, id uint) error {
	if err := requireManager(actor, "delete targets"); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id, actor.Ref())
}
