package handlers

import (
	"net/http"

	"ppms/internal/service"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListProjects(c *gin.Context) {
	var f service.ProjectFilter
	if !h.bindQuery(c, &f) {
		return
	}
	projects, err := h.svc.Projects.List(c.Request.Context(), f)
	if err != nil {
		h.renderError(c, err)
		return
	}
	render(c, http.StatusOK, projects)
}

// ShowProject returns the project with its dependent record summaries.
func (h *Handler) ShowProject(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	detail, err := h.svc.Projects.Detail(c.Request.Context(), id)
	if err != nil {
		h.renderError(c, err)
		return
	}
	render(c, http.StatusOK, detail)
}

func (h *Handler) CreateProject(c *gin.Context) {
	var in service.ProjectInput
	if !h.bindJSON(c, &in) {
		return
	}
	p, err := h.svc.Projects.Create(c.Request.Context(), actor(c), in)
	if err != nil {
		h.renderError(c, err)
		return
	}
	render(c, http.StatusCreated, p)
}

func (h *Handler) UpdateProject(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	var in service.ProjectInput
	if !h.bindJSON(c, &in) {
		return
	}
	p, err := h.svc.Projects.Update(c.Request.Context(), actor(c), id, in)
	if err != nil {
		h.renderError(c, err)
		return
	}
	render(c, http.StatusOK, p)
}

func (h *Handler) DeleteProject(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Projects.Delete(c.Request.Context(), actor(c), id); err != nil {
		h.renderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
