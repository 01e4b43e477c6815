package handlers

import (
	"net/http"

	"ppms/internal/apperr"

	"github.com/gin-gonic/gin"
)

func (h *Handler) Dashboard(c *gin.Context) {
	d, err := h.svc.Reports.Dashboard(c.Request.Context())
	if err != nil {
		h.renderError(c, err)
		return
	}
	render(c, http.StatusOK, d)
}

func (h *Handler) TargetPerformance(c *gin.Context) {
	var r dateRange
	if !h.bindQuery(c, &r) {
		return
	}
	perf, err := h.svc.Reports.TargetPerformance(c.Request.Context(), r.From, r.To)
	if err != nil {
		h.renderError(c, err)
		return
	}
	render(c, http.StatusOK, perf)
}

func (h *Handler) ProductionAnalytics(c *gin.Context) {
	var r dateRange
	if !h.bindQuery(c, &r) {
		return
	}
	a, err := h.svc.Reports.ProductionAnalytics(c.Request.Context(), r.From, r.To)
	if err != nil {
		h.renderError(c, err)
		return
	}
	render(c, http.StatusOK, a)
}

// Lookup serves one of the option lists behind form and filter inputs,
// named by the :kind parameter.
func (h *Handler) Lookup(c *gin.Context) {
	ctx := c.Request.Context()
	lk := h.svc.Lookups

	var (
		out any
		err error
	)
	switch c.Param("kind") {
	case "projects":
		out, err = lk.Projects(ctx)
	case "users":
		out, err = lk.Users(ctx)
	case "clients":
		out, err = lk.Clients(ctx)
	case "colors":
		out, err = lk.Colors(ctx)
	case "machines":
		out, err = lk.Machines(ctx)
	default:
		err = apperr.NotFound("unknown lookup %q", c.Param("kind"))
	}
	if err != nil {
		h.renderError(c, err)
		return
	}
	render(c, http.StatusOK, out)
}
