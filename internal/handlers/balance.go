package handlers

import (
	"net/http"

	"ppms/internal/models"
	"ppms/internal/service"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListBalance(c *gin.Context) {
	var f service.BalanceFilter
	if !h.bindQuery(c, &f) {
		return
	}
	orders, err := h.svc.Balance.List(c.Request.Context(), f)
	if err != nil {
		h.renderError(c, err)
		return
	}
	render(c, http.StatusOK, orders)
}

func (h *Handler) BalanceSummary(c *gin.Context) {
	var f service.BalanceFilter
	if !h.bindQuery(c, &f) {
		return
	}
	sum, err := h.svc.Balance.Summary(c.Request.Context(), f)
	if err != nil {
		h.renderError(c, err)
		return
	}
	render(c, http.StatusOK, sum)
}

func (h *Handler) ShowBalance(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	b, err := h.svc.Balance.Get(c.Request.Context(), id)
	if err != nil {
		h.renderError(c, err)
		return
	}
	render(c, http.StatusOK, b)
}

func (h *Handler) CreateBalance(c *gin.Context) {
	var in service.BalanceInput
	if !h.bindJSON(c, &in) {
		return
	}
	b, err := h.svc.Balance.Create(c.Request.Context(), actor(c), in)
	if err != nil {
		h.renderError(c, err)
		return
	}
	render(c, http.StatusCreated, b)
}

func (h *Handler) UpdateBalance(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	var in service.BalanceInput
	if !h.bindJSON(c, &in) {
		return
	}
	b, err := h.svc.Balance.Update(c.Request.Context(), actor(c), id, in)
	if err != nil {
		h.renderError(c, err)
		return
	}
	render(c, http.StatusOK, b)
}

func (h *Handler) UpdateBalanceStatus(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	var form struct {
		Status models.BalanceStatus `json:"status"`
	}
	if !h.bindJSON(c, &form) {
		return
	}
	b, err := h.svc.Balance.UpdateStatus(c.Request.Context(), actor(c), id, form.Status)
	if err != nil {
		h.renderError(c, err)
		return
	}
	render(c, http.StatusOK, b)
}

func (h *Handler) UpdateBalanceFulfilled(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	var form struct {
		FulfilledQty int `json:"fulfilled_qty"`
	}
	if !h.bindJSON(c, &form) {
		return
	}
	b, err := h.svc.Balance.UpdateFulfilled(c.Request.Context(), actor(c), id, form.FulfilledQty)
	if err != nil {
		h.renderError(c, err)
		return
	}
	render(c, http.StatusOK, b)
}

func (h *Handler) DeleteBalance(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Balance.Delete(c.Request.Context(), actor(c), id); err != nil {
		h.renderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
