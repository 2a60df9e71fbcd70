package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusdesk/helpdesk-api/internal/dto"
	"github.com/campusdesk/helpdesk-api/internal/repository"
	appErrors "github.com/campusdesk/helpdesk-api/pkg/errors"
)

type fakeComprehensive struct {
	report *dto.ComprehensiveReport
	err    error
}

func (f *fakeComprehensive) Comprehensive(context.Context, repository.ReportRange) (*dto.ComprehensiveReport, error) {
	return f.report, f.err
}

func sampleReport() *dto.ComprehensiveReport {
	return &dto.ComprehensiveReport{
		Overview:     dto.OverviewStats{Total: 6, Pending: 3, Resolved: 2, Rejected: 1},
		ByDepartment: []dto.DepartmentTotal{{Department: "IT Services", Total: 4}},
		ByCategory:   []dto.CategoryTotal{{Category: "IT", Total: 5}},
		ByPriority:   []dto.PriorityTotal{{Priority: "High", Total: 1}, {Priority: "Medium", Total: 3}, {Priority: "Low", Total: 2}},
		GeneratedAt:  time.Date(2024, 11, 10, 8, 0, 0, 0, time.UTC),
		DateRange:    dto.ReportDateRange{Start: "All time", End: "Present"},
	}
}

func TestComprehensiveExportCSV(t *testing.T) {
	svc := NewExportService(&fakeComprehensive{report: sampleReport()}, nil)

	file, err := svc.ComprehensiveExport(context.Background(), ExportFormatCSV, repository.ReportRange{})
	require.NoError(t, err)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.Equal(t, "helpdesk-report-20241110-080000.csv", file.Filename)

	content := string(file.Content)
	assert.Contains(t, content, "Overview")
	assert.Contains(t, content, "Pending,3")
	assert.Contains(t, content, "Requests by Department")
	assert.Contains(t, content, "IT Services,4")
	assert.Contains(t, content, "Requests by Priority")
	assert.Contains(t, content, "All time")

	// priority rows keep severity order
	high := strings.Index(content, "High,1")
	low := strings.Index(content, "Low,2")
	require.GreaterOrEqual(t, high, 0)
	require.GreaterOrEqual(t, low, 0)
	assert.Less(t, high, low)
}

func TestComprehensiveExportPDF(t *testing.T) {
	svc := NewExportService(&fakeComprehensive{report: sampleReport()}, nil)

	file, err := svc.ComprehensiveExport(context.Background(), ExportFormatPDF, repository.ReportRange{})
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, strings.HasPrefix(string(file.Content), "%PDF"))
}

func TestComprehensiveExportUnknownFormat(t *testing.T) {
	svc := NewExportService(&fakeComprehensive{report: sampleReport()}, nil)

	_, err := svc.ComprehensiveExport(context.Background(), "xlsx", repository.ReportRange{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestComprehensiveExportPropagatesReportError(t *testing.T) {
	svc := NewExportService(&fakeComprehensive{err: appErrors.ErrInternal}, nil)

	_, err := svc.ComprehensiveExport(context.Background(), ExportFormatCSV, repository.ReportRange{})
	require.Error(t, err)
}
