package handlers

import (
	"net/http"

	"ppms/internal/apperr"
	"ppms/internal/auth"
	"ppms/internal/middleware"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

type loginForm struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

func (h *Handler) Login(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		h.renderError(c, bindError(err))
		return
	}

	id, err := h.users.Verify(c.Request.Context(), form.Username, form.Password)
	if err != nil {
		h.renderError(c, err)
		return
	}

	sess := sessions.Default(c)
	sess.Clear()
	sess.Set(middleware.SessionUserID, id.ID)
	if err := sess.Save(); err != nil {
		h.renderError(c, err)
		return
	}
	render(c, http.StatusOK, id)
}

func (h *Handler) Logout(c *gin.Context) {
	sess := sessions.Default(c)
	sess.Clear()
	sess.Options(sessions.Options{Path: "/", MaxAge: -1})
	_ = sess.Save()
	c.Status(http.StatusNoContent)
}

func (h *Handler) Me(c *gin.Context) {
	render(c, http.StatusOK, actor(c))
}

type passwordForm struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// ChangeOwnPassword requires the current password.
func (h *Handler) ChangeOwnPassword(c *gin.Context) {
	var form passwordForm
	if !h.bindJSON(c, &form) {
		return
	}
	if form.NewPassword != form.ConfirmPassword {
		h.renderError(c, apperr.Validation("passwords do not match"))
		return
	}

	a := actor(c)
	ctx := c.Request.Context()
	if _, err := h.users.Verify(ctx, a.Username, form.CurrentPassword); err != nil {
		h.renderError(c, err)
		return
	}
	if err := h.users.ChangePassword(ctx, a, a.ID, form.NewPassword); err != nil {
		h.renderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) PasswordStrength(c *gin.Context) {
	var form struct {
		Password string `json:"password"`
	}
	if !h.bindJSON(c, &form) {
		return
	}
	render(c, http.StatusOK, gin.H{"strength": auth.PasswordStrength(form.Password)})
}
