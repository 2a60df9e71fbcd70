package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusdesk/helpdesk-api/internal/service"
	"github.com/campusdesk/helpdesk-api/pkg/response"
)

// ReportHandler wires HTTP endpoints to the reporting services.
type ReportHandler struct {
	reports *service.ReportService
	exports *service.ExportService
}

// NewReportHandler creates a new handler.
func NewReportHandler(reports *service.ReportService, exports *service.ExportService) *ReportHandler {
	return &ReportHandler{reports: reports, exports: exports}
}

// Overview godoc
// @Summary Request counts by status
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param startDate query string false "Inclusive lower creation bound (RFC3339 or YYYY-MM-DD)"
// @Param endDate query string false "Inclusive upper creation bound"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /reports/overview [get]
func (h *ReportHandler) Overview(c *gin.Context) {
	rng, err := service.ParseReportRange(c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		response.Error(c, err)
		return
	}

	stats, err := h.reports.Overview(c.Request.Context(), rng)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, stats, nil)
}

// ByDepartment godoc
// @Summary Request breakdown per assigned department
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param startDate query string false "Inclusive lower creation bound"
// @Param endDate query string false "Inclusive upper creation bound"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /reports/by-department [get]
func (h *ReportHandler) ByDepartment(c *gin.Context) {
	rng, err := service.ParseReportRange(c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		response.Error(c, err)
		return
	}

	stats, err := h.reports.ByDepartment(c.Request.Context(), rng)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, stats, nil)
}

// ByCategory godoc
// @Summary Request breakdown per category
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param startDate query string false "Inclusive lower creation bound"
// @Param endDate query string false "Inclusive upper creation bound"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /reports/by-category [get]
func (h *ReportHandler) ByCategory(c *gin.Context) {
	rng, err := service.ParseReportRange(c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		response.Error(c, err)
		return
	}

	stats, err := h.reports.ByCategory(c.Request.Context(), rng)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, stats, nil)
}

// ByPriority godoc
// @Summary Request breakdown per priority in High, Medium, Low order
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param startDate query string false "Inclusive lower creation bound"
// @Param endDate query string false "Inclusive upper creation bound"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /reports/by-priority [get]
func (h *ReportHandler) ByPriority(c *gin.Context) {
	rng, err := service.ParseReportRange(c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		response.Error(c, err)
		return
	}

	stats, err := h.reports.ByPriority(c.Request.Context(), rng)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, stats, nil)
}

// Comprehensive godoc
// @Summary Combined report with all breakdowns
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param startDate query string false "Inclusive lower creation bound"
// @Param endDate query string false "Inclusive upper creation bound"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /reports/comprehensive [get]
func (h *ReportHandler) Comprehensive(c *gin.Context) {
	rng, err := service.ParseReportRange(c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		response.Error(c, err)
		return
	}

	report, err := h.reports.Comprehensive(c.Request.Context(), rng)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, report, nil)
}

// Export godoc
// @Summary Download the comprehensive report
// @Description Render the comprehensive report as a CSV or PDF file
// @Tags Reports
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param format query string true "Export format: csv or pdf"
// @Param startDate query string false "Inclusive lower creation bound"
// @Param endDate query string false "Inclusive upper creation bound"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /reports/comprehensive/export [get]
func (h *ReportHandler) Export(c *gin.Context) {
	rng, err := service.ParseReportRange(c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		response.Error(c, err)
		return
	}

	file, err := h.exports.ComprehensiveExport(c.Request.Context(), c.DefaultQuery("format", service.ExportFormatCSV), rng)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
	c.Data(http.StatusOK, file.ContentType, file.Content)
}
