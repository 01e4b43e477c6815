package handlers

import (
	"net/http"

	"ppms/internal/models"
	"ppms/internal/service"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListDispatch(c *gin.Context) {
	var f service.DispatchFilter
	if !h.bindQuery(c, &f) {
		return
	}
	records, err := h.svc.Dispatch.List(c.Request.Context(), f)
	if err != nil {
		h.renderError(c, err)
		return
	}
	render(c, http.StatusOK, records)
}

func (h *Handler) ShowDispatch(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	d, err := h.svc.Dispatch.Get(c.Request.Context(), id)
	if err != nil {
		h.renderError(c, err)
		return
	}
	render(c, http.StatusOK, d)
}

func (h *Handler) CreateDispatch(c *gin.Context) {
	var in service.DispatchInput
	if !h.bindJSON(c, &in) {
		return
	}
	d, err := h.svc.Dispatch.Create(c.Request.Context(), actor(c), in)
	if err != nil {
		h.renderError(c, err)
		return
	}
	render(c, http.StatusCreated, d)
}

func (h *Handler) UpdateDispatch(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	var in service.DispatchInput
	if !h.bindJSON(c, &in) {
		return
	}
	d, err := h.svc.Dispatch.Update(c.Request.Context(), actor(c), id, in)
	if err != nil {
		h.renderError(c, err)
		return
	}
	render(c, http.StatusOK, d)
}

func (h *Handler) UpdateDispatchStatus(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	var form struct {
		Status models.DispatchStatus `json:"status"`
	}
	if !h.bindJSON(c, &form) {
		return
	}
	d, err := h.svc.Dispatch.UpdateStatus(c.Request.Context(), actor(c), id, form.Status)
	if err != nil {
		h.renderError(c, err)
		return
	}
	render(c, http.StatusOK, d)
}

func (h *Handler) SetDeliveryDate(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	var form struct {
		DeliveryDate *service.Date `json:"delivery_date"`
	}
	if !h.bindJSON(c, &form) {
		return
	}
	d, err := h.svc.Dispatch.SetDeliveryDate(c.Request.Context(), actor(c), id, form.DeliveryDate)
	if err != nil {
		h.renderError(c, err)
		return
	}
	render(c, http.StatusOK, d)
}

func (h *Handler) DeleteDispatch(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Dispatch.Delete(c.Request.Context(), actor(c), id); err != nil {
		h.renderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
