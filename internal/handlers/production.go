package handlers

import (
	"net/http"

	"ppms/internal/service"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListProduction(c *gin.Context) {
	var f service.ProductionFilter
	if !h.bindQuery(c, &f) {
		return
	}
	records, err := h.svc.Production.List(c.Request.Context(), f)
	if err != nil {
		h.renderError(c, err)
		return
	}
	render(c, http.StatusOK, records)
}

func (h *Handler) ShowProduction(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	p, err := h.svc.Production.Get(c.Request.Context(), id)
	if err != nil {
		h.renderError(c, err)
		return
	}
	render(c, http.StatusOK, p)
}

func (h *Handler) CreateProduction(c *gin.Context) {
	var in service.ProductionInput
	if !h.bindJSON(c, &in) {
		return
	}
	p, err := h.svc.Production.Create(c.Request.Context(), actor(c), in)
	if err != nil {
		h.renderError(c, err)
		return
	}
	render(c, http.StatusCreated, p)
}

func (h *Handler) UpdateProduction(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	var in service.ProductionInput
	if !h.bindJSON(c, &in) {
		return
	}
	p, err := h.svc.Production.Update(c.Request.Context(), actor(c), id, in)
	if err != nil {
		h.renderError(c, err)
		return
	}
	render(c, http.StatusOK, p)
}

func (h *Handler) DuplicateProduction(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	p, err := h.svc.Production.Duplicate(c.Request.Context(), actor(c), id)
	if err != nil {
		h.renderError(c, err)
		return
	}
	render(c, http.StatusCreated, p)
}

func (h *Handler) DeleteProduction(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Production.Delete(c.Request.Context(), actor(c), id); err != nil {
		h.renderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
