package handlers

import (
	"net/http"

	"ppms/internal/models"
	"ppms/internal/service"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListWorkOrders(c *gin.Context) {
	var f service.WorkOrderFilter
	if !h.bindQuery(c, &f) {
		return
	}
	orders, err := h.svc.WorkOrders.List(c.Request.Context(), f)
	if err != nil {
		h.renderError(c, err)
		return
	}
	render(c, http.StatusOK, orders)
}

func (h *Handler) ShowWorkOrder(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	wo, err := h.svc.WorkOrders.Get(c.Request.Context(), id)
	if err != nil {
		h.renderError(c, err)
		return
	}
	render(c, http.StatusOK, wo)
}

func (h *Handler) CreateWorkOrder(c *gin.Context) {
	var in service.WorkOrderInput
	if !h.bindJSON(c, &in) {
		return
	}
	wo, err := h.svc.WorkOrders.Create(c.Request.Context(), actor(c), in)
	if err != nil {
		h.renderError(c, err)
		return
	}
	render(c, http.StatusCreated, wo)
}

func (h *Handler) UpdateWorkOrder(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	var in service.WorkOrderInput
	if !h.bindJSON(c, &in) {
		return
	}
	wo, err := h.svc.WorkOrders.Update(c.Request.Context(), actor(c), id, in)
	if err != nil {
		h.renderError(c, err)
		return
	}
	render(c, http.StatusOK, wo)
}

func (h *Handler) UpdateWorkOrderStatus(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	var form struct {
		Status models.WorkOrderStatus `json:"status"`
	}
	if !h.bindJSON(c, &form) {
		return
	}
	wo, err := h.svc.WorkOrders.UpdateStatus(c.Request.Context(), actor(c), id, form.Status)
	if err != nil {
		h.renderError(c, err)
		return
	}
	render(c, http.StatusOK, wo)
}

func (h *Handler) DeleteWorkOrder(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.WorkOrders.Delete(c.Request.Context(), actor(c), id); err != nil {
		h.renderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
