package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusdesk/helpdesk-api/internal/dto"
	"github.com/campusdesk/helpdesk-api/internal/repository"
)

type fakeReportStore struct {
	overview         dto.OverviewStats
	departments      []dto.DepartmentStats
	categories       []dto.CategoryStats
	priorities       []dto.PriorityStats
	departmentTotals []dto.DepartmentTotal
	categoryTotals   []dto.CategoryTotal
	priorityTotals   []dto.PriorityTotal
	overviewErr      error
	priorityErr      error
}

func (f *fakeReportStore) Overview(context.Context, repository.ReportRange) (dto.OverviewStats, error) {
	return f.overview, f.overviewErr
}

func (f *fakeReportStore) DepartmentBreakdown(context.Context, repository.ReportRange) ([]dto.DepartmentStats, error) {
	return f.departments, nil
}

func (f *fakeReportStore) CategoryBreakdown(context.Context, repository.ReportRange) ([]dto.CategoryStats, error) {
	return f.categories, nil
}

func (f *fakeReportStore) PriorityBreakdown(context.Context, repository.ReportRange) ([]dto.PriorityStats, error) {
	return f.priorities, nil
}

func (f *fakeReportStore) DepartmentTotals(context.Context, repository.ReportRange) ([]dto.DepartmentTotal, error) {
	return f.departmentTotals, nil
}

func (f *fakeReportStore) CategoryTotals(context.Context, repository.ReportRange) ([]dto.CategoryTotal, error) {
	return f.categoryTotals, nil
}

func (f *fakeReportStore) PriorityTotals(context.Context, repository.ReportRange) ([]dto.PriorityTotal, error) {
	return f.priorityTotals, f.priorityErr
}

func TestOverviewPassesThroughBuckets(t *testing.T) {
	store := &fakeReportStore{overview: dto.OverviewStats{Total: 6, Pending: 3, InProgress: 0, Resolved: 2, Rejected: 1}}
	svc := NewReportService(store, nil, nil)

	stats, err := svc.Overview(context.Background(), repository.ReportRange{})
	require.NoError(t, err)
	assert.Equal(t, dto.OverviewStats{Total: 6, Pending: 3, InProgress: 0, Resolved: 2, Rejected: 1}, stats)
}

func TestBreakdownsReturnEmptySlicesNotNil(t *testing.T) {
	svc := NewReportService(&fakeReportStore{}, nil, nil)

	departments, err := svc.ByDepartment(context.Background(), repository.ReportRange{})
	require.NoError(t, err)
	assert.NotNil(t, departments)
	assert.Empty(t, departments)

	priorities, err := svc.ByPriority(context.Background(), repository.ReportRange{})
	require.NoError(t, err)
	assert.NotNil(t, priorities)
}

func TestComprehensiveAssemblesAllSections(t *testing.T) {
	store := &fakeReportStore{
		overview:         dto.OverviewStats{Total: 6, Pending: 3, Resolved: 2, Rejected: 1},
		departmentTotals: []dto.DepartmentTotal{{Department: "IT Services", Total: 4}},
		categoryTotals:   []dto.CategoryTotal{{Category: "IT", Total: 5}, {Category: "Fee", Total: 1}},
		priorityTotals:   []dto.PriorityTotal{{Priority: "High", Total: 1}, {Priority: "Medium", Total: 3}, {Priority: "Low", Total: 2}},
	}
	svc := NewReportService(store, nil, nil)

	report, err := svc.Comprehensive(context.Background(), repository.ReportRange{})
	require.NoError(t, err)
	assert.Equal(t, 6, report.Overview.Total)
	require.Len(t, report.ByDepartment, 1)
	require.Len(t, report.ByCategory, 2)
	require.Len(t, report.ByPriority, 3)
	assert.Equal(t, "High", report.ByPriority[0].Priority)
	assert.False(t, report.GeneratedAt.IsZero())
	assert.Equal(t, "All time", report.DateRange.Start)
	assert.Equal(t, "Present", report.DateRange.End)
}

func TestComprehensiveEchoesExplicitRange(t *testing.T) {
	svc := NewReportService(&fakeReportStore{}, nil, nil)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	report, err := svc.Comprehensive(context.Background(), repository.ReportRange{Start: &start, End: &end})
	require.NoError(t, err)
	assert.Equal(t, start.Format(time.RFC3339), report.DateRange.Start)
	assert.Equal(t, end.Format(time.RFC3339), report.DateRange.End)
}

func TestComprehensiveFailsClosedOnSubReportError(t *testing.T) {
	store := &fakeReportStore{priorityErr: errors.New("connection reset")}
	svc := NewReportService(store, nil, nil)

	report, err := svc.Comprehensive(context.Background(), repository.ReportRange{})
	require.Error(t, err)
	assert.Nil(t, report)
}

func TestParseReportRange(t *testing.T) {
	rng, err := ParseReportRange("2024-01-01", "2024-06-30")
	require.NoError(t, err)
	require.NotNil(t, rng.Start)
	require.NotNil(t, rng.End)
	assert.Equal(t, 2024, rng.Start.Year())
	// date-only end bound covers the whole day
	assert.Equal(t, 23, rng.End.Hour())

	rng, err = ParseReportRange("", "")
	require.NoError(t, err)
	assert.Nil(t, rng.Start)
	assert.Nil(t, rng.End)

	_, err = ParseReportRange("not-a-date", "")
	require.Error(t, err)

	_, err = ParseReportRange("2024-06-30", "2024-01-01")
	require.Error(t, err)
}
