package handlers

import (
	"net/http"

	"ppms/internal/models"
	"ppms/internal/service"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListTargets(c *gin.Context) {
	var f service.TargetFilter
	if !h.bindQuery(c, &f) {
		return
	}
	targets, err := h.svc.Targets.List(c.Request.Context(), f)
	if err != nil {
		h.renderError(c, err)
		return
	}
	render(c, http.StatusOK, targets)
}

func (h *Handler) ShowTarget(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	t, err := h.svc.Targets.Get(c.Request.Context(), id)
	if err != nil {
		h.renderError(c, err)
		return
	}
	render(c, http.StatusOK, t)
}

func (h *Handler) CreateTarget(c *gin.Context) {
	var in service.TargetInput
	if !h.bindJSON(c, &in) {
		return
	}
	t, err := h.svc.Targets.Create(c.Request.Context(), actor(c), in)
	if err != nil {
		h.renderError(c, err)
		return
	}
	render(c, http.StatusCreated, t)
}

func (h *Handler) UpdateTarget(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	var in service.TargetInput
	if !h.bindJSON(c, &in) {
		return
	}
	t, err := h.svc.Targets.Update(c.Request.Context(), actor(c), id, in)
	if err != nil {
		h.renderError(c, err)
		return
	}
	render(c, http.StatusOK, t)
}

func (h *Handler) UpdateTargetProgress(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	var form struct {
		Status         models.TargetStatus `json:"status"`
		ActualQuantity int                 `json:"actual_quantity"`
	}
	if !h.bindJSON(c, &form) {
		return
	}
	t, err := h.svc.Targets.UpdateProgress(c.Request.Context(), actor(c), id, form.Status, form.ActualQuantity)
	if err != nil {
		h.renderError(c, err)
		return
	}
	render(c, http.StatusOK, t)
}

func (h *Handler) DeleteTarget(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Targets.Delete(c.Request.Context(), actor(c), id); err != nil {
		h.renderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
