package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"ppms/internal/apperr"
	"ppms/internal/middleware"
	"ppms/internal/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type errorBody struct {
	Kind    apperr.Kind `json:"kind"`
	Message string      `json:"message"`
}

func render(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"data": data})
}

// renderError answers with the status of err's class. Unclassified errors
// are logged and reported as internal.
func (h *Handler) renderError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status := statusOf(kind)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": errorBody{Kind: kind, Message: apperr.Message(err)}})
}

func statusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindConstraint, apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindUnavailable:
		return http.StatusServiceUnavailable
	case apperr.KindUnauthenticated:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// actor is the signed-in user; routes using it sit behind RequireAuth.
func actor(c *gin.Context) session.Actor {
	a, _ := middleware.CurrentActor(c)
	return a
}

func (h *Handler) idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		h.renderError(c, apperr.Validation("invalid %s %q", name, c.Param(name)))
		return 0, false
	}
	return uint(id), true
}

func (h *Handler) bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		h.renderError(c, bindError(err))
		return false
	}
	return true
}

func (h *Handler) bindQuery(c *gin.Context, dst any) bool {
	if err := c.ShouldBindQuery(dst); err != nil {
		h.renderError(c, bindError(err))
		return false
	}
	return true
}

func bindError(err error) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return ae
	}
	return apperr.Validation("invalid request: %v", err)
}
