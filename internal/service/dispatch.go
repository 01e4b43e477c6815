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

type DispatchInput struct {
	ProjectID         uint                  `json:"project_id"`
	OrderNumber       string                `json:"order_number"`
	VehicleNumber     *string               `json:"vehicle_number"`
	DriverName        *string               `json:"driver_name"`
	DispatchDate      *Date                 `json:"dispatch_date"`
	DeliveryDate      *Date                 `json:"delivery_date"`
	Status            models.DispatchStatus `json:"status"`
	ResponsiblePerson *uint                 `json:"responsible_person"`
	ChallanNumber     *string               `json:"challan_number"`
	Notes             *string               `json:"notes"`
	Version           uint                  `json:"version"`
}

func (in DispatchInput) model(today time.Time) (*models.DispatchRecord, error) {
	d := &models.DispatchRecord{
		ProjectID:         in.ProjectID,
		OrderNumber:       sanitize.Text(in.OrderNumber),
		VehicleNumber:     sanitize.TextPtr(in.VehicleNumber),
		DriverName:        sanitize.TextPtr(in.DriverName),
		DispatchDate:      today,
		DeliveryDate:      in.DeliveryDate.Value(),
		Status:            in.Status,
		ResponsiblePerson: in.ResponsiblePerson,
		ChallanNumber:     sanitize.TextPtr(in.ChallanNumber),
		Notes:             sanitize.TextPtr(in.Notes),
	}
	d.Version = in.Version
	if v := in.DispatchDate.Value(); v != nil {
		d.DispatchDate = *v
	}
	orDefault(&d.Status, models.DispatchDispatched)

	if d.ProjectID == 0 {
		return nil, apperr.Validation("project is required")
	}
	if err := required("order number", d.OrderNumber); err != nil {
		return nil, err
	}
	if err := validEnum("dispatch status", d.Status); err != nil {
		return nil, err
	}
	if err := dateOrder(&d.DispatchDate, d.DeliveryDate); err != nil {
		return nil, apperr.Validation("delivery date cannot be before dispatch date")
	}
	return d, nil
}

// DispatchWindow selects dispatch dates relative to today.
type DispatchWindow string

const (
	DispatchWindowAll   DispatchWindow = ""
	DispatchWindowToday DispatchWindow = "today"
	DispatchWindowWeek  DispatchWindow = "week"
	DispatchWindowMonth DispatchWindow = "month"
)

type DispatchFilter struct {
	Status    models.DispatchStatus `form:"status"`
	ProjectID uint                  `form:"project_id"`
	Window    DispatchWindow        `form:"window"`
	From      *time.Time            `form:"from" time_format:"2006-01-02"`
	To        *time.Time            `form:"to" time_format:"2006-01-02"`
	Search    string                `form:"q"`
}

func dispatchFields(d *models.DispatchRecord) []audit.Field {
	return []audit.Field{
		audit.ID("project_id", d.ProjectID),
		audit.String("order_number", d.OrderNumber),
		audit.OptString("vehicle_number", d.VehicleNumber),
		audit.OptString("driver_name", d.DriverName),
		audit.Date("dispatch_date", d.DispatchDate),
		audit.OptDate("delivery_date", d.DeliveryDate),
		audit.Text("status", d.Status),
		audit.OptID("responsible_person", d.ResponsiblePerson),
		audit.OptString("challan_number", d.ChallanNumber),
		audit.OptString("notes", d.Notes),
	}
}

func checkDispatch(tx *gorm.DB, d *models.DispatchRecord) error {
	if err := ensureProject(tx, d.ProjectID); err != nil {
		return err
	}
	return ensureUser(tx, "responsible person", d.ResponsiblePerson)
}

type DispatchService struct {
	repo  *lifecycle.Repository[models.DispatchRecord, *models.DispatchRecord]
	today func() time.Time
}

func newDispatchService(deps lifecycle.Deps, today func() time.Time) *DispatchService {
	return &DispatchService{
		today: today,
		repo: lifecycle.New[models.DispatchRecord](deps, lifecycle.Schema[models.DispatchRecord]{
			Table:        "dispatch",
			Fields:       dispatchFields,
			BeforeCreate: checkDispatch,
			BeforeUpdate: func(tx *gorm.DB, _, d *models.DispatchRecord) error {
				return checkDispatch(tx, d)
			},
		}),
	}
}

func (s *DispatchService) window(w DispatchWindow) (query.Scope, error) {
	today := s.today()
	var from time.Time
	switch w {
	case DispatchWindowAll:
		return func(db *gorm.DB) *gorm.DB { return db }, nil
	case DispatchWindowToday:
		from = today
	case DispatchWindowWeek:
		from = today.AddDate(0, 0, -7)
	case DispatchWindowMonth:
		from = today.AddDate(0, 0, -30)
	default:
		return nil, apperr.Validation("invalid date window %q", string(w))
	}
	return query.DateRange("dispatch_date", &from, &today), nil
}

func (s *DispatchService) List(ctx context.Context, f DispatchFilter) ([]models.DispatchRecord, error) {
	window, err := s.window(f.Window)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx,
		func(db *gorm.DB) *gorm.DB { return db.Preload("Project").Preload("Responsible") },
		query.Eq("status", f.Status),
		query.Eq("project_id", f.ProjectID),
		window,
		query.DateRange("dispatch_date", f.From, f.To),
		query.Search(f.Search, "order_number", "vehicle_number", "challan_number"),
		query.Order("dispatch_date DESC", "created_at DESC", "id DESC"),
	)
}

func (s *DispatchService) Get(ctx context.Context, id uint) (*models.DispatchRecord, error) {
	return s.repo.Get(ctx, id, "Project", "Responsible")
}

func (s *DispatchService) Create(ctx context.Context, actor session.Actor, in DispatchInput) (*models.DispatchRecord, error) {
	if err := requireManager(actor, "create dispatches"); err != nil {
		return nil, err
	}
	d, err := in.model(s.today())
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, d, actor.Ref()); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *DispatchService) Update(ctx context.Context, actor session.Actor, id uint, in DispatchInput) (*models.DispatchRecord, error) {
	if err := requireManager(actor, "edit dispatches"); err != nil {
		return nil, err
	}
	d, err := in.model(s.today())
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, id, d, actor.Ref()); err != nil {
		return nil, err
	}
	return d, nil
}

// UpdateStatus is open to every role.
func (s *DispatchService) UpdateStatus(ctx context.Context, actor session.Actor, id uint, status models.DispatchStatus) (*models.DispatchRecord, error) {
	if err := validEnum("dispatch status", status); err != nil {
		return nil, err
	}
	return s.repo.Mutate(ctx, id, actor.Ref(), func(d *models.DispatchRecord) error {
		d.Status = status
		return nil
	})
}

// SetDeliveryDate is open to every role.
func (s *DispatchService) SetDeliveryDate(ctx context.Context, actor session.Actor, id uint, delivered *Date) (*models.DispatchRecord, error) {
	return s.repo.Mutate(ctx, id, actor.Ref(), func(d *models.DispatchRecord) error {
		d.DeliveryDate = delivered.Value()
		return dateOrder(&d.DispatchDate, d.DeliveryDate)
	})
}

func (s *DispatchService) Delete(ctx context.Context, actor session.Actor, id uint) error {
	if err := requireManager(actor, "delete dispatches"); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id, actor.Ref())
}
