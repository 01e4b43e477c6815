package handlers

import (
	"fmt"
	"net/http"
	"time"

	"ppms/internal/audit"
	"ppms/internal/query"
	"ppms/internal/service"

	"github.com/gin-gonic/gin"
)

type dateRange struct {
	From *time.Time `form:"from" time_format:"2006-01-02"`
	To   *time.Time `form:"to" time_format:"2006-01-02"`
}

func (h *Handler) ListAuditLogs(c *gin.Context) {
	var (
		f    audit.Filter
		page query.Page
	)
	if !h.bindQuery(c, &f) || !h.bindQuery(c, &page) {
		return
	}
	res, err := h.audit.Query(c.Request.Context(), f, page)
	if err != nil {
		h.renderError(c, err)
		return
	}
	render(c, http.StatusOK, res)
}

func (h *Handler) AuditAnalytics(c *gin.Context) {
	var r dateRange
	if !h.bindQuery(c, &r) {
		return
	}
	a, err := h.audit.Analytics(c.Request.Context(), r.From, r.To)
	if err != nil {
		h.renderError(c, err)
		return
	}
	render(c, http.StatusOK, a)
}

func (h *Handler) AuditHistory(c *gin.Context) {
	id, ok := h.idParam(c, "id")
	if !ok {
		return
	}
	entries, err := h.audit.History(c.Request.Context(), c.Param("table"), id)
	if err != nil {
		h.renderError(c, err)
		return
	}
	render(c, http.StatusOK, entries)
}

// AuditTables lists the tables present in the trail and the audited
// fields of each tracked table.
func (h *Handler) AuditTables(c *gin.Context) {
	tables, err := h.audit.Tables(c.Request.Context())
	if err != nil {
		h.renderError(c, err)
		return
	}
	render(c, http.StatusOK, gin.H{"tables": tables, "fields": service.AuditFields()})
}

func (h *Handler) ExportAuditLogs(c *gin.Context) {
	var f audit.Filter
	if !h.bindQuery(c, &f) {
		return
	}

	name := fmt.Sprintf("audit_trail_%s.csv", time.Now().UTC().Format("20060102_150405"))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Status(http.StatusOK)
	if err := h.audit.ExportCSV(c.Request.Context(), f, c.Writer); err != nil {
		// headers are already out; the error only reaches the log
		_ = c.Error(err)
	}
}
