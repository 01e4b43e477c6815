package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"ppms/internal/audit"
	"ppms/internal/auth"
	"ppms/internal/config"
	"ppms/internal/database"
	"ppms/internal/handlers"
	"ppms/internal/lifecycle"
	"ppms/internal/models"
	"ppms/internal/service"
	"ppms/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testServer struct {
	t       *testing.T
	engine  *gin.Engine
	cookies map[string][]*http.Cookie
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
	} `json:"error"`
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close(db) })

	cfg := &config.Config{SessionSecret: "test-secret", StatementTimeout: 5 * time.Second, AuditQueryCap: 1000}
	log := audit.New(db, cfg.AuditQueryCap, cfg.StatementTimeout)
	deps := lifecycle.Deps{DB: db, Audit: log, Timeout: cfg.StatementTimeout}
	users := auth.New(deps, bcrypt.MinCost)

	_, err = users.EnsureAdmin(context.Background(), "admin", "admin123")
	require.NoError(t, err)
	for _, u := range []struct {
		name string
		role models.UserRole
	}{{"pm", models.RoleProjectManager}, {"op", models.RoleOperator}, {"op2", models.RoleOperator}} {
		_, err := users.Create(context.Background(), session.System, u.name, "secret1", u.role)
		require.NoError(t, err)
	}

	h := handlers.New(service.New(deps, nil), users, log, nil)
	return &testServer{
		t:       t,
		engine:  NewRouter(Deps{Config: cfg, DB: db, Handler: h}),
		cookies: map[string][]*http.Cookie{},
	}
}

func (s *testServer) do(as, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range s.cookies[as] {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func (s *testServer) login(user, password string) {
	s.t.Helper()
	w, _ := s.do("", http.MethodPost, "/api/auth/login", gin.H{"username": user, "password": password})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	s.cookies[user] = w.Result().Cookies()
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do("", http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w, _ = s.do("", http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ppms_http_requests_total")
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do("", http.MethodGet, "/api/projects", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "unauthenticated", env.Error.Kind)

	w, env = s.do("", http.MethodPost, "/api/auth/login", gin.H{"username": "pm", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid username or password", env.Error.Message)

	s.login("pm", "secret1")
	w, env = s.do("pm", http.MethodGet, "/api/auth/me", nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[session.Actor](t, env)
	assert.Equal(t, "pm", me.Username)
	assert.Equal(t, models.RoleProjectManager, me.Role)

	w, _ = s.do("pm", http.MethodPost, "/api/auth/logout", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestProjectLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	s.login("pm", "secret1")
	s.login("op", "secret1")

	w, _ := s.do("op", http.MethodPost, "/api/projects", gin.H{"name": "Tower"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env := s.do("pm", http.MethodPost, "/api/projects", gin.H{"name": "Tower", "start_date": "2024-03-01"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	p := decode[models.Project](t, env)
	assert.EqualValues(t, 1, p.Version)

	w, env = s.do("pm", http.MethodPost, "/api/projects", gin.H{"name": " "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation", env.Error.Kind)

	w, _ = s.do("pm", http.MethodPost, "/api/projects", gin.H{"name": "Bad", "start_date": "03/01/2024"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = s.do("pm", http.MethodPut, "/api/projects/1", gin.H{"name": "Tower A", "version": 1})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.EqualValues(t, 2, decode[models.Project](t, env).Version)

	w, env = s.do("pm", http.MethodPut, "/api/projects/1", gin.H{"name": "Tower B", "version": 1})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "conflict", env.Error.Kind)

	w, _ = s.do("pm", http.MethodGet, "/api/projects/99", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w, _ = s.do("pm", http.MethodGet, "/api/projects/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = s.do("op", http.MethodGet, "/api/projects?q=tower", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Project](t, env), 1)

	w, _ = s.do("pm", http.MethodPost, "/api/work-orders", gin.H{"wo_number": "WO-1", "project_id": p.ID, "wo_type": "Cutting"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, env = s.do("pm", http.MethodDelete, "/api/projects/1", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "constraint_violation", env.Error.Kind)
}

func TestAssigneeMayChangeStatus(t *testing.T) {
	s := newTestServer(t)
	s.login("pm", "secret1")
	s.login("op", "secret1")
	s.login("op2", "secret1")

	_, env := s.do("pm", http.MethodPost, "/api/projects", gin.H{"name": "Tower"})
	p := decode[models.Project](t, env)
	_, env = s.do("op", http.MethodGet, "/api/auth/me", nil)
	op := decode[session.Actor](t, env)

	w, _ := s.do("pm", http.MethodPost, "/api/work-orders", gin.H{
		"wo_number": "WO-1", "project_id": p.ID, "wo_type": "Cutting", "assigned_to": op.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, _ = s.do("op2", http.MethodPatch, "/api/work-orders/1/status", gin.H{"status": "In Progress"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env = s.do("op", http.MethodPatch, "/api/work-orders/1/status", gin.H{"status": "In Progress"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.WorkOrderInProgress, decode[models.WorkOrder](t, env).Status)

	w, _ = s.do("op", http.MethodPatch, "/api/work-orders/1/status", gin.H{"status": "Lost"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuditEndpoints(t *testing.T) {
	s := newTestServer(t)
	s.login("pm", "secret1")
	s.login("op", "secret1")

	s.do("pm", http.MethodPost, "/api/projects", gin.H{"name": "Tower"})
	s.do("pm", http.MethodPut, "/api/projects/1", gin.H{"name": "Tower A"})

	w, _ := s.do("op", http.MethodGet, "/api/audit", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env := s.do("pm", http.MethodGet, "/api/audit?table=projects&user=pm", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[audit.Result](t, env)
	assert.EqualValues(t, 2, res.Total)
	assert.Equal(t, models.AuditUpdate, res.Entries[0].Action)

	w, env = s.do("pm", http.MethodGet, "/api/audit/history/projects/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.AuditEntry](t, env), 2)

	w, _ = s.do("pm", http.MethodGet, "/api/audit/export?table=projects", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	assert.Len(t, lines, 3)
	assert.Equal(t, "timestamp,table_name,record_id,action,field_name,old_value,new_value,user", lines[0])
}

func TestUserAdministration(t *testing.T) {
	s := newTestServer(t)
	s.login("admin", "admin123")
	s.login("pm", "secret1")

	w, _ := s.do("pm", http.MethodGet, "/api/users", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env := s.do("admin", http.MethodPost, "/api/users", gin.H{
		"username": "newbie", "password": "Secret12", "confirm_password": "Secret12", "role": "Operator",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[struct {
		User     models.User   `json:"user"`
		Strength auth.Strength `json:"password_strength"`
	}](t, env)
	assert.Equal(t, auth.Strong, created.Strength)

	w, _ = s.do("admin", http.MethodPost, "/api/users", gin.H{
		"username": "newbie", "password": "Secret12", "confirm_password": "Secret12",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do("admin", http.MethodPatch, "/api/users/1/role", gin.H{"role": "Operator"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env = s.do("admin", http.MethodGet, "/api/users?role=Operator", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[struct {
		Users []models.User `json:"users"`
	}](t, env)
	assert.Len(t, list.Users, 3)

	w, _ = s.do("admin", http.MethodDelete, "/api/users/"+strconv.FormatUint(uint64(created.User.ID), 10), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRoleChangeAppliesToOpenSession(t *testing.T) {
	s := newTestServer(t)
	s.login("admin", "admin123")
	s.login("pm", "secret1")

	w, _ := s.do("pm", http.MethodPost, "/api/projects", gin.H{"name": "Tower"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, _ = s.do("admin", http.MethodPatch, "/api/users/2/role", gin.H{"role": "Operator"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, _ = s.do("pm", http.MethodPost, "/api/projects", gin.H{"name": "Annex"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env := s.do("pm", http.MethodGet, "/api/auth/me", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.RoleOperator, decode[session.Actor](t, env).Role)
}
