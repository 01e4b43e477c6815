package handlers

import (
	"net/http"

	"ppms/internal/models"
	"ppms/internal/service"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListCutting(c *gin.Context) {
	var f service.CuttingFilter
	if !h.bindQuery(c, &f) {
		return
	}
	items, err := h.svc.Cutting.List(c.Request.Context(), f)
	if err != nil {
		h.renderError(c, err)
		return
	}
	render(c, http.StatusOK, items)
}

func (h *Handler) CuttingSummary(c *gin.Context) {
	var f service.CuttingFilter
	if !h.bindQuery(c, &f) {
		return
	}
	sum, err := h.svc.Cutting.Summary(c.Request.Context(), f)
	if err != nil {
		h.renderError(c, err)
		return
	}
	render(c, http.StatusOK, sum)
}

func (h *Handler) ShowCutting(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	item, err := h.svc.Cutting.Get(c.Request.Context(), id)
	if err != nil {
		h.renderError(c, err)
		return
	}
	render(c, http.StatusOK, item)
}

func (h *Handler) CreateCutting(c *gin.Context) {
	var in service.CuttingInput
	if !h.bindJSON(c, &in) {
		return
	}
	item, err := h.svc.Cutting.Create(c.Request.Context(), actor(c), in)
	if err != nil {
		h.renderError(c, err)
		return
	}
	render(c, http.StatusCreated, item)
}

func (h *Handler) UpdateCutting(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	var in service.CuttingInput
	if !h.bindJSON(c, &in) {
		return
	}
	item, err := h.svc.Cutting.Update(c.Request.Context(), actor(c), id, in)
	if err != nil {
		h.renderError(c, err)
		return
	}
	render(c, http.StatusOK, item)
}

func (h *Handler) UpdateCuttingStatus(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	var form struct {
		Status models.CuttingStatus `json:"status"`
	}
	if !h.bindJSON(c, &form) {
		return
	}
	item, err := h.svc.Cutting.UpdateStatus(c.Request.Context(), actor(c), id, form.Status)
	if err != nil {
		h.renderError(c, err)
		return
	}
	render(c, http.StatusOK, item)
}

func (h *Handler) SetCutDate(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	var form struct {
		CutDate *service.Date `json:"cut_date"`
	}
	if !h.bindJSON(c, &form) {
		return
	}
	item, err := h.svc.Cutting.SetCutDate(c.Request.Context(), actor(c), id, form.CutDate)
	if err != nil {
		h.renderError(c, err)
		return
	}
	render(c, http.StatusOK, item)
}

func (h *Handler) DeleteCutting(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Cutting.Delete(c.Request.Context(), actor(c), id); err != nil {
		h.renderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
