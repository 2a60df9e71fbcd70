package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusdesk/helpdesk-api/internal/dto"
	"github.com/campusdesk/helpdesk-api/internal/repository"
	"github.com/campusdesk/helpdesk-api/internal/service"
	"github.com/campusdesk/helpdesk-api/pkg/response"
)

type reportStoreStub struct {
	overview dto.OverviewStats
}

func (s *reportStoreStub) Overview(context.Context, repository.ReportRange) (dto.OverviewStats, error) {
	return s.overview, nil
}

func (s *reportStoreStub) DepartmentBreakdown(context.Context, repository.ReportRange) ([]dto.DepartmentStats, error) {
	return nil, nil
}

func (s *reportStoreStub) CategoryBreakdown(context.Context, repository.ReportRange) ([]dto.CategoryStats, error) {
	return nil, nil
}

func (s *reportStoreStub) PriorityBreakdown(context.Context, repository.ReportRange) ([]dto.PriorityStats, error) {
	return nil, nil
}

func (s *reportStoreStub) DepartmentTotals(context.Context, repository.ReportRange) ([]dto.DepartmentTotal, error) {
	return []dto.DepartmentTotal{{Department: "IT Services", Total: 4}}, nil
}

func (s *reportStoreStub) CategoryTotals(context.Context, repository.ReportRange) ([]dto.CategoryTotal, error) {
	return []dto.CategoryTotal{{Category: "IT", Total: 5}}, nil
}

func (s *reportStoreStub) PriorityTotals(context.Context, repository.ReportRange) ([]dto.PriorityTotal, error) {
	return []dto.PriorityTotal{{Priority: "High", Total: 1}}, nil
}

func newReportHandlerWithStub() *ReportHandler {
	store := &reportStoreStub{overview: dto.OverviewStats{Total: 6, Pending: 3, Resolved: 2, Rejected: 1}}
	reports := service.NewReportService(store, nil, nil)
	exports := service.NewExportService(reports, nil)
	return NewReportHandler(reports, exports)
}

func TestReportHandlerOverview(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newReportHandlerWithStub()

	c, w := newGinContext(http.MethodGet, "/reports/overview", nil)
	handler.Overview(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	data := envelope.Data.(map[string]interface{})
	assert.Equal(t, float64(6), data["total"])
	assert.Equal(t, float64(3), data["pending"])
	assert.Equal(t, float64(0), data["inProgress"])
}

func TestReportHandlerOverviewInvalidDate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newReportHandlerWithStub()

	c, w := newGinContext(http.MethodGet, "/reports/overview?startDate=yesterday", nil)
	handler.Overview(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReportHandlerComprehensive(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newReportHandlerWithStub()

	c, w := newGinContext(http.MethodGet, "/reports/comprehensive", nil)
	handler.Comprehensive(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	data := envelope.Data.(map[string]interface{})
	assert.NotNil(t, data["overview"])
	assert.NotNil(t, data["byDepartment"])
	rangeData := data["dateRange"].(map[string]interface{})
	assert.Equal(t, "All time", rangeData["start"])
	assert.Equal(t, "Present", rangeData["end"])
}

func TestReportHandlerExportCSV(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newReportHandlerWithStub()

	c, w := newGinContext(http.MethodGet, "/reports/comprehensive/export?format=csv", nil)
	handler.Export(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	assert.True(t, strings.Contains(w.Body.String(), "Overview"))
}

func TestReportHandlerExportUnknownFormat(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newReportHandlerWithStub()

	c, w := newGinContext(http.MethodGet, "/reports/comprehensive/export?format=xlsx", nil)
	handler.Export(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
