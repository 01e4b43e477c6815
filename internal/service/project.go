package service

import (
	"context"

	"ppms/internal/apperr"
	"ppms/internal/audit"
	"ppms/internal/database"
	"ppms/internal/lifecycle"
	"ppms/internal/models"
	"ppms/internal/query"
	"ppms/internal/sanitize"
	"ppms/internal/session"

	"gorm.io/gorm"
)

type ProjectInput struct {
	Name        string               `json:"name"`
	Client      *string              `json:"client"`
	Location    *string              `json:"location"`
	StartDate   *Date                `json:"start_date"`
	EndDate     *Date                `json:"end_date"`
	Status      models.ProjectStatus `json:"status"`
	Description *string              `json:"description"`
	Version     uint                 `json:"version"`
}

func (in ProjectInput) model() (*models.Project, error) {
	p := &models.Project{
		Name:        sanitize.Text(in.Name),
		Client:      sanitize.TextPtr(in.Client),
		Location:    sanitize.TextPtr(in.Location),
		StartDate:   in.StartDate.Value(),
		EndDate:     in.EndDate.Value(),
		Status:      in.Status,
		Description: sanitize.TextPtr(in.Description),
	}
	p.Version = in.Version
	orDefault(&p.Status, models.ProjectActive)

	if err := required("project name", p.Name); err != nil {
		return nil, err
	}
	if err := validEnum("project status", p.Status); err != nil {
		return nil, err
	}
	if err := dateOrder(p.StartDate, p.EndDate); err != nil {
		return nil, err
	}
	return p, nil
}

type ProjectFilter struct {
	Status models.ProjectStatus `form:"status"`
	Client string               `form:"client"`
	Search string               `form:"q"`
}

func projectFields(p *models.Project) []audit.Field {
	return []audit.Field{
		audit.String("name", p.Name),
		audit.OptString("client", p.Client),
		audit.OptString("location", p.Location),
		audit.OptDate("start_date", p.StartDate),
		audit.OptDate("end_date", p.EndDate),
		audit.Text("status", p.Status),
		audit.OptString("description", p.Description),
	}
}

type ProjectService struct {
	repo *lifecycle.Repository[models.Project, *models.Project]
}

func newProjectService(deps lifecycle.Deps) *ProjectService {
	return &ProjectService{
		repo: lifecycle.New[models.Project](deps, lifecycle.Schema[models.Project]{
			Table:        "projects",
			Fields:       projectFields,
			BeforeDelete: projectNotInUse,
		}),
	}
}

// projectNotInUse refuses to delete a project that still has work orders.
// Other dependent rows are protected by their foreign keys.
func projectNotInUse(tx *gorm.DB, p *models.Project) error {
	var n int64
	if err := tx.Model(&models.WorkOrder{}).Where("project_id = ?", p.ID).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return apperr.Constraint("cannot delete project: %d work orders are associated with it", n)
	}
	return nil
}

func (s *ProjectService) List(ctx context.Context, f ProjectFilter) ([]models.Project, error) {
	return s.repo.List(ctx,
		query.Eq("status", f.Status),
		query.Eq("client", f.Client),
		query.Search(f.Search, "name"),
		query.Order("created_at DESC", "id DESC"),
	)
}

func (s *ProjectService) Get(ctx context.Context, id uint) (*models.Project, error) {
	return s.repo.Get(ctx, id)
}

func (s *ProjectService) Create(ctx context.Context, actor session.Actor, in ProjectInput) (*models.Project, error) {
	if err := requireManager(actor, "create projects"); err != nil {
		return nil, err
	}
	p, err := in.model()
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, p, actor.Ref()); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ProjectService) Update(ctx context.Context, actor session.Actor, id uint, in ProjectInput) (*models.Project, error) {
	if err := requireManager(actor, "edit projects"); err != nil {
		return nil, err
	}
	p, err := in.model()
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, id, p, actor.Ref()); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ProjectService) Delete(ctx context.Context, actor session.Actor, id uint) error {
	if err := requireManager(actor, "delete projects"); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id, actor.Ref())
}

type ProjectDetail struct {
	Project    *models.Project  `json:"project"`
	WorkOrders map[string]int64 `json:"work_orders"`
	Cutting    int64            `json:"cutting_items"`
	Balance    int64            `json:"balance_orders"`
	Produced   int64            `json:"produced_quantity"`
	Dispatches int64            `json:"dispatches"`
}

// Detail loads a project with counts of its dependent records.
func (s *ProjectService) Detail(ctx context.Context, id uint) (*ProjectDetail, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	out := &ProjectDetail{Project: p, WorkOrders: map[string]int64{}}
	db, cancel := s.repo.DB(ctx)
	defer cancel()

	var byStatus []struct {
		Status string
		N      int64
	}
	if err := db.Model(&models.WorkOrder{}).
		Select("status, COUNT(*) AS n").
		Where("project_id = ?", id).
		Group("status").
		Scan(&byStatus).Error; err != nil {
		return nil, database.Classify(err)
	}
	for _, row := range byStatus {
		out.WorkOrders[row.Status] = row.N
	}

	counts := []struct {
		model any
		dst   *int64
	}{
		{&models.CuttingItem{}, &out.Cutting},
		{&models.BalanceOrder{}, &out.Balance},
		{&models.DispatchRecord{}, &out.Dispatches},
	}
	for _, c := range counts {
		if err := db.Model(c.model).Where("project_id = ?", id).Count(c.dst).Error; err != nil {
			return nil, database.Classify(err)
		}
	}

	if err := db.Model(&models.ProductionRecord{}).
		Select("COALESCE(SUM(produced_quantity), 0)").
		Where("project_id = ?", id).
		Scan(&out.Produced).Error; err != nil {
		return nil, database.Classify(err)
	}
	return out, nil
}
