// Package auth keeps user credentials and enforces the user administration
// rules: unique usernames, a password policy, and at least one admin.
package auth

import (
	"context"
	"errors"
	"strings"

	"ppms/internal/apperr"
	"ppms/internal/audit"
	"ppms/internal/database"
	"ppms/internal/lifecycle"
	"ppms/internal/metrics"
	"ppms/internal/models"
	"ppms/internal/query"
	"ppms/internal/session"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrInvalidCredentials = apperr.New(apperr.KindUnauthenticated, "invalid username or password")
	ErrDuplicateUsername  = apperr.Validation("username already exists")
	ErrLastAdmin          = apperr.Constraint("cannot remove the last admin")
)

const usersTable = "users"

// Identity is a verified user.
type Identity struct {
	ID       uint            `json:"id"`
	Username string          `json:"username"`
	Role     models.UserRole `json:"role"`
}

func (i Identity) Actor() session.Actor {
	return session.Actor{ID: i.ID, Username: i.Username, Role: i.Role}
}

type Store struct {
	audit  *audit.Log
	repo   *lifecycle.Repository[models.User, *models.User]
	cost   int
	logger *zap.Logger

	// compared against when the username is unknown so both paths cost a
	// bcrypt comparison
	dummy []byte
}

// New builds a credential store. cost 0 means bcrypt.DefaultCost.
func New(deps lifecycle.Deps, cost int) *Store {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	dummy, _ := bcrypt.GenerateFromPassword([]byte("ppms-dummy-password"), cost)

	return &Store{
		audit:  deps.Audit,
		cost:   cost,
		logger: deps.Logger,
		dummy:  dummy,
		repo: lifecycle.New[models.User](deps, lifecycle.Schema[models.User]{
			Table:        usersTable,
			Fields:       userFields,
			BeforeCreate: checkUsername,
			BeforeUpdate: func(tx *gorm.DB, old, u *models.User) error {
				if old.Role == models.RoleAdmin && u.Role != models.RoleAdmin {
					return keepAnAdmin(tx, old.ID)
				}
				return nil
			},
			BeforeDelete: func(tx *gorm.DB, u *models.User) error {
				if u.Role == models.RoleAdmin {
					return keepAnAdmin(tx, u.ID)
				}
				return nil
			},
		}),
	}
}

func userFields(u *models.User) []audit.Field {
	return []audit.Field{
		audit.String("username", u.Username),
		audit.Text("role", u.Role),
	}
}

func checkUsername(tx *gorm.DB, u *models.User) error {
	var n int64
	if err := tx.Model(&models.User{}).Where("username = ?", u.Username).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return ErrDuplicateUsername
	}
	return nil
}

// lockAdmins selects the admin rows FOR UPDATE, so concurrent demotions or
// deletions of admins run one after the other.
func lockAdmins(tx *gorm.DB) *gorm.DB {
	return tx.Model(&models.User{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("role = ?", models.RoleAdmin).
		Order("id")
}

// keepAnAdmin fails unless an admin other than id exists.
func keepAnAdmin(tx *gorm.DB, id uint) error {
	var admins []uint
	if err := lockAdmins(tx).Pluck("id", &admins).Error; err != nil {
		return err
	}
	for _, a := range admins {
		if a != id {
			return nil
		}
	}
	return ErrLastAdmin
}

func requireAdmin(actor session.Actor, what string) error {
	if actor.IsSystem() || actor.Is(models.RoleAdmin) {
		return nil
	}
	return apperr.Forbidden("only admins can %s", what)
}

// Verify checks a username/password pair.
func (s *Store) Verify(ctx context.Context, username, password string) (*Identity, error) {
	db, cancel := s.repo.DB(ctx)
	defer cancel()

	var u models.User
	err := db.Where("username = ?", strings.TrimSpace(username)).First(&u).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		_ = bcrypt.CompareHashAndPassword(s.dummy, []byte(password))
		metrics.ObserveLogin(false)
		return nil, ErrInvalidCredentials
	case err != nil:
		return nil, database.Classify(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		metrics.ObserveLogin(false)
		return nil, ErrInvalidCredentials
	}
	metrics.ObserveLogin(true)
	return &Identity{ID: u.ID, Username: u.Username, Role: u.Role}, nil
}

// Create adds a user and returns its id.
func (s *Store) Create(ctx context.Context, actor session.Actor, username, password string, role models.UserRole) (uint, error) {
	if err := requireAdmin(actor, "create users"); err != nil {
		return 0, err
	}
	username = strings.TrimSpace(username)
	if err := validateUsername(username); err != nil {
		return 0, err
	}
	if err := validatePassword(password); err != nil {
		return 0, err
	}
	if role == "" {
		role = models.RoleOperator
	}
	if !role.Valid() {
		return 0, apperr.Validation("invalid role %q", role)
	}

	hash, err := s.hash(password)
	if err != nil {
		return 0, err
	}
	u := &models.User{Username: username, PasswordHash: hash, Role: role}
	if err := s.repo.Create(ctx, u, actor.Ref()); err != nil {
		return 0, err
	}
	return u.ID, nil
}

func (s *Store) hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", apperr.Validation("password is too long")
		}
		return "", err
	}
	return string(b), nil
}

type UserFilter struct {
	Role   models.UserRole `form:"role"`
	Search string          `form:"q"`
}

func (s *Store) List(ctx context.Context, f UserFilter) ([]models.User, error) {
	return s.repo.List(ctx,
		query.Eq("role", f.Role),
		query.Search(f.Search, "username"),
		query.Order("created_at DESC", "id DESC"),
	)
}

func (s *Store) Get(ctx context.Context, id uint) (*models.User, error) {
	return s.repo.Get(ctx, id)
}

func (s *Store) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	db, cancel := s.repo.DB(ctx)
	defer cancel()

	var u models.User
	err := db.Where("username = ?", strings.TrimSpace(username)).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("user %q not found", username)
	}
	if err != nil {
		return nil, database.Classify(err)
	}
	return &u, nil
}

// UpdateRole changes another user's role. Demoting the last admin fails.
func (s *Store) UpdateRole(ctx context.Context, actor session.Actor, id uint, role models.UserRole) (*models.User, error) {
	if err := requireAdmin(actor, "change roles"); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, apperr.Validation("invalid role %q", role)
	}
	if actor.ID == id {
		return nil, apperr.Forbidden("you cannot change your own role")
	}
	return s.repo.Mutate(ctx, id, actor.Ref(), func(u *models.User) error {
		u.Role = role
		return nil
	})
}

// Delete removes another user. Deleting the last admin fails, as does
// deleting a user still referenced as an assignee or operator.
func (s *Store) Delete(ctx context.Context, actor session.Actor, id uint) error {
	if err := requireAdmin(actor, "delete users"); err != nil {
		return err
	}
	if actor.ID == id {
		return apperr.Forbidden("you cannot delete yourself")
	}
	return s.repo.Delete(ctx, id, actor.Ref())
}

// ChangePassword sets a new password. Users may change their own; admins
// may change anyone's. The hash is not written to the audit trail.
func (s *Store) ChangePassword(ctx context.Context, actor session.Actor, id uint, password string) error {
	if actor.ID != id {
		if err := requireAdmin(actor, "change other users' passwords"); err != nil {
			return err
		}
	}
	if err := validatePassword(password); err != nil {
		return err
	}
	hash, err := s.hash(password)
	if err != nil {
		return err
	}
	_, err = s.repo.Mutate(ctx, id, actor.Ref(), func(u *models.User) error {
		u.PasswordHash = hash
		return nil
	})
	return err
}

// EnsureAdmin creates the bootstrap admin when no admin exists. It reports
// whether a user was created.
func (s *Store) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	var n int64
	db, cancel := s.repo.DB(ctx)
	defer cancel()
	if err := db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&n).Error; err != nil {
		return false, database.Classify(err)
	}
	if n > 0 {
		return false, nil
	}

	if _, err := s.Create(ctx, session.System, username, password, models.RoleAdmin); err != nil {
		return false, err
	}
	s.logger.Info("created default admin user", zap.String("username", username))
	return true, nil
}

type Activity struct {
	ProjectsCreated    int64               `json:"projects_created"`
	WorkOrdersCreated  int64               `json:"work_orders_created"`
	WorkOrdersAssigned int64               `json:"work_orders_assigned"`
	ProductionEntries  int64               `json:"production_entries"`
	TargetsAssigned    int64               `json:"targets_assigned"`
	TotalActions       int64               `json:"total_actions"`
	Recent             []models.AuditEntry `json:"recent"`
}

const recentActivity = 10

// Activity summarizes what user id has created, been assigned and done.
func (s *Store) Activity(ctx context.Context, id uint) (*Activity, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}

	db, cancel := s.repo.DB(ctx)
	defer cancel()
	out := &Activity{}
	counts := []struct {
		dst   *int64
		model any
		where string
		args  []any
	}{
		{&out.ProjectsCreated, &models.Project{}, "created_by = ?", []any{id}},
		{&out.WorkOrdersCreated, &models.WorkOrder{}, "created_by = ?", []any{id}},
		{&out.WorkOrdersAssigned, &models.WorkOrder{}, "assigned_to = ?", []any{id}},
		{&out.ProductionEntries, &models.ProductionRecord{}, "operator_id = ? OR created_by = ?", []any{id, id}},
		{&out.TargetsAssigned, &models.DailyTarget{}, "assigned_to = ?", []any{id}},
		{&out.TotalActions, &models.AuditEntry{}, "user_id = ?", []any{id}},
	}
	for _, c := range counts {
		if err := db.Model(c.model).Where(c.where, c.args...).Count(c.dst).Error; err != nil {
			return nil, database.Classify(err)
		}
	}

	recent, err := s.audit.RecentByActor(ctx, id, recentActivity)
	if err != nil {
		return nil, err
	}
	out.Recent = recent
	return out, nil
}
