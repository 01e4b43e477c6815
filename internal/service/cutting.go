package service

import (
	"context"
	"math"
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

type CuttingInput struct {
	OrderNumber string               `json:"order_number"`
	ProjectID   uint                 `json:"project_id"`
	Floor       *string              `json:"floor"`
	Description *string              `json:"description"`
	Width       float64              `json:"width"`
	Height      float64              `json:"height"`
	Quantity    int                  `json:"quantity"`
	Color       *string              `json:"color"`
	Status      models.CuttingStatus `json:"status"`
	CutDate     *Date                `json:"cut_date"`
	Version     uint                 `json:"version"`
}

func (in CuttingInput) model() (*models.CuttingItem, error) {
	c := &models.CuttingItem{
		OrderNumber: sanitize.Text(in.OrderNumber),
		ProjectID:   in.ProjectID,
		Floor:       sanitize.TextPtr(in.Floor),
		Description: sanitize.TextPtr(in.Description),
		Width:       roundCents(in.Width),
		Height:      roundCents(in.Height),
		Quantity:    in.Quantity,
		Color:       sanitize.TextPtr(in.Color),
		Status:      in.Status,
		CutDate:     in.CutDate.Value(),
	}
	c.Version = in.Version
	orDefault(&c.Status, models.CuttingPending)

	if err := required("order number", c.OrderNumber); err != nil {
		return nil, err
	}
	if c.ProjectID == 0 {
		return nil, apperr.Validation("project is required")
	}
	if c.Width < 0 || c.Height < 0 {
		return nil, apperr.Validation("width and height cannot be negative")
	}
	if err := positive("quantity", c.Quantity); err != nil {
		return nil, err
	}
	if err := validEnum("cutting status", c.Status); err != nil {
		return nil, err
	}
	return c, nil
}

// roundCents matches the two decimal places the width and height columns
// keep, so the audited value is the stored one.
func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

type CuttingFilter struct {
	Status    models.CuttingStatus `form:"status"`
	ProjectID uint                 `form:"project_id"`
	Color     string               `form:"color"`
	Search    string               `form:"q"`
}

func cuttingFields(c *models.CuttingItem) []audit.Field {
	return []audit.Field{
		audit.String("order_number", c.OrderNumber),
		audit.ID("project_id", c.ProjectID),
		audit.OptString("floor", c.Floor),
		audit.OptString("description", c.Description),
		audit.Decimal("width", c.Width),
		audit.Decimal("height", c.Height),
		audit.Int("quantity", c.Quantity),
		audit.OptString("color", c.Color),
		audit.Text("status", c.Status),
		audit.OptDate("cut_date", c.CutDate),
	}
}

type CuttingService struct {
	repo  *lifecycle.Repository[models.CuttingItem, *models.CuttingItem]
	today func() time.Time
}

func newCuttingService(deps lifecycle.Deps, today func() time.Time) *CuttingService {
	s := &CuttingService{today: today}
	s.repo = lifecycle.New[models.CuttingItem](deps, lifecycle.Schema[models.CuttingItem]{
		Table:  "cutting_lists",
		Fields: cuttingFields,
		BeforeCreate: func(tx *gorm.DB, c *models.CuttingItem) error {
			s.stampCutDate(models.CuttingPending, c)
			return ensureProject(tx, c.ProjectID)
		},
		BeforeUpdate: func(tx *gorm.DB, old, c *models.CuttingItem) error {
			s.stampCutDate(old.Status, c)
			return ensureProject(tx, c.ProjectID)
		},
	})
	return s
}

// stampCutDate dates a piece entering Cut unless a cut date is already known.
// Only the move into Cut stamps: Cut to Cut keeps whatever date is set, so a
// date cleared by hand stays cleared.
func (s *CuttingService) stampCutDate(from models.CuttingStatus, c *models.CuttingItem) {
	if from != models.CuttingCut && c.Status == models.CuttingCut && c.CutDate == nil {
		today := s.today()
		c.CutDate = &today
	}
}

func (s *CuttingService) List(ctx context.Context, f CuttingFilter) ([]models.CuttingItem, error) {
	return s.repo.List(ctx,
		func(db *gorm.DB) *gorm.DB { return db.Preload("Project") },
		query.Eq("status", f.Status),
		query.Eq("project_id", f.ProjectID),
		query.Eq("color", f.Color),
		query.Search(f.Search, "order_number", "description"),
		query.Order("created_at DESC", "id DESC"),
	)
}

func (s *CuttingService) Get(ctx context.Context, id uint) (*models.CuttingItem, error) {
	return s.repo.Get(ctx, id, "Project")
}

func (s *CuttingService) Create(ctx context.Context, actor session.Actor, in CuttingInput) (*models.CuttingItem, error) {
	if err := requireManager(actor, "create cutting items"); err != nil {
		return nil, err
	}
	c, err := in.model()
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, c, actor.Ref()); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CuttingService) Update(ctx context.Context, actor session.Actor, id uint, in CuttingInput) (*models.CuttingItem, error) {
	if err := requireManager(actor, "edit cutting items"); err != nil {
		return nil, err
	}
	c, err := in.model()
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, id, c, actor.Ref()); err != nil {
		return nil, err
	}
	return c, nil
}

// UpdateStatus is open to every role.
func (s *CuttingService) UpdateStatus(ctx context.Context, actor session.Actor, id uint, status models.CuttingStatus) (*models.CuttingItem, error) {
	if err := validEnum("cutting status", status); err != nil {
		return nil, err
	}
	return s.repo.Mutate(ctx, id, actor.Ref(), func(c *models.CuttingItem) error {
		c.Status = status
		return nil
	})
}

func (s *CuttingService) SetCutDate(ctx context.Context, actor session.Actor, id uint, cut *Date) (*models.CuttingItem, error) {
	return s.repo.Mutate(ctx, id, actor.Ref(), func(c *models.CuttingItem) error {
		c.CutDate = cut.Value()
		return nil
	})
}

func (s *CuttingService) Delete(ctx context.Context, actor session.Actor, id uint) error {
	if err := requireManager(actor, "delete cutting items"); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id, actor.Ref())
}

type CuttingSummary struct {
	Items     int64   `json:"items"`
	Pieces    int64   `json:"pieces"`
	Pending   int64   `json:"pending"`
	Cut       int64   `json:"cut"`
	Recut     int64   `json:"recut"`
	TotalArea float64 `json:"total_area"`
}

// Summary aggregates the items matched by f.
func (s *CuttingService) Summary(ctx context.Context, f CuttingFilter) (*CuttingSummary, error) {
	items, err := s.List(ctx, f)
	if err != nil {
		return nil, err
	}
	out := &CuttingSummary{Items: int64(len(items))}
	for _, c := range items {
		out.Pieces += int64(c.Quantity)
		out.TotalArea += c.Area() * float64(c.Quantity)
		switch c.Status {
		case models.CuttingPending:
			out.Pending++
		case models.CuttingCut:
			out.Cut++
		case models.CuttingRecut:
			out.Recut++
		}
	}
	return out, nil
}
