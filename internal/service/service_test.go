package service

import (
	"context"
	"testing"
	"time"

	"ppms/internal/audit"
	"ppms/internal/database"
	"ppms/internal/lifecycle"
	"ppms/internal/models"
	"ppms/internal/session"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var ctx = context.Background()

type env struct {
	db    *gorm.DB
	svc   *Services
	log   *audit.Log
	now   time.Time
	admin session.Actor
	pm    session.Actor
	op    session.Actor
	op2   session.Actor
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close(db) })

	e := &env{db: db, now: time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)}
	e.log = audit.New(db, 1000, 5*time.Second)
	e.log.SetClock(func() time.Time { return e.now })
	e.svc = New(lifecycle.Deps{DB: db, Audit: e.log, Timeout: 5 * time.Second}, func() time.Time { return e.now })

	e.admin = e.user(t, "admin", models.RoleAdmin)
	e.pm = e.user(t, "pm", models.RoleProjectManager)
	e.op = e.user(t, "op", models.RoleOperator)
	e.op2 = e.user(t, "op2", models.RoleOperator)
	return e
}

func (e *env) user(t *testing.T, name string, role models.UserRole) session.Actor {
	t.Helper()
	u := &models.User{Username: name, PasswordHash: "x", Role: role}
	require.NoError(t, e.db.Create(u).Error)
	return session.Actor{ID: u.ID, Username: u.Username, Role: u.Role}
}

func (e *env) project(t *testing.T, name string) *models.Project {
	t.Helper()
	p, err := e.svc.Projects.Create(ctx, e.pm, ProjectInput{Name: name})
	require.NoError(t, err)
	return p
}

func (e *env) trail(t *testing.T, table string, id uint) []models.AuditEntry {
	t.Helper()
	h, err := e.log.History(ctx, table, id)
	require.NoError(t, err)
	return h
}

func str(s string) *string { return &s }

func on(y int, m time.Month, d int) *Date {
	return NewDate(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}
