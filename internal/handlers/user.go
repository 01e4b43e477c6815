package handlers

import (
	"net/http"

	"ppms/internal/apperr"
	"ppms/internal/auth"
	"ppms/internal/models"

	"github.com/gin-gonic/gin"
)

type userSummary struct {
	Total  int64                     `json:"total"`
	ByRole map[models.UserRole]int64 `json:"by_role"`
}

func (h *Handler) ListUsers(c *gin.Context) {
	var f auth.UserFilter
	if !h.bindQuery(c, &f) {
		return
	}
	users, err := h.users.List(c.Request.Context(), f)
	if err != nil {
		h.renderError(c, err)
		return
	}

	sum := userSummary{Total: int64(len(users)), ByRole: map[models.UserRole]int64{}}
	for _, r := range models.UserRoles {
		sum.ByRole[r] = 0
	}
	for _, u := range users {
		sum.ByRole[u.Role]++
	}
	render(c, http.StatusOK, gin.H{"users": users, "summary": sum})
}

type newUserForm struct {
	Username        string          `json:"username"`
	Password        string          `json:"password"`
	ConfirmPassword string          `json:"confirm_password"`
	Role            models.UserRole `json:"role"`
}

func (h *Handler) CreateUser(c *gin.Context) {
	var form newUserForm
	if !h.bindJSON(c, &form) {
		return
	}
	if form.Password != form.ConfirmPassword {
		h.renderError(c, apperr.Validation("passwords do not match"))
		return
	}

	ctx := c.Request.Context()
	id, err := h.users.Create(ctx, actor(c), form.Username, form.Password, form.Role)
	if err != nil {
		h.renderError(c, err)
		return
	}
	u, err := h.users.Get(ctx, id)
	if err != nil {
		h.renderError(c, err)
		return
	}
	render(c, http.StatusCreated, gin.H{"user": u, "password_strength": auth.PasswordStrength(form.Password)})
}

func (h *Handler) UpdateUserRole(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	var form struct {
		Role models.UserRole `json:"role"`
	}
	if !h.bindJSON(c, &form) {
		return
	}
	u, err := h.users.UpdateRole(c.Request.Context(), actor(c), id, form.Role)
	if err != nil {
		h.renderError(c, err)
		return
	}
	render(c, http.StatusOK, u)
}

func (h *Handler) ResetUserPassword(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	var form struct {
		Password string `json:"password"`
	}
	if !h.bindJSON(c, &form) {
		return
	}
	if err := h.users.ChangePassword(c.Request.Context(), actor(c), id, form.Password); err != nil {
		h.renderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) DeleteUser(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	if err := h.users.Delete(c.Request.Context(), actor(c), id); err != nil {
		h.renderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) UserActivity(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	a, err := h.users.Activity(c.Request.Context(), id)
	if err != nil {
		h.renderError(c, err)
		return
	}
	render(c, http.StatusOK, a)
}
