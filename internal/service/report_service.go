package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/campusdesk/helpdesk-api/internal/dto"
	"github.com/campusdesk/helpdesk-api/internal/repository"
	appErrors "github.com/campusdesk/helpdesk-api/pkg/errors"
)

// reportStore describes the aggregation queries required by ReportService.
type reportStore interface {
	Overview(ctx context.Context, rng repository.ReportRange) (dto.OverviewStats, error)
	DepartmentBreakdown(ctx context.Context, rng repository.ReportRange) ([]dto.DepartmentStats, error)
	CategoryBreakdown(ctx context.Context, rng repository.ReportRange) ([]dto.CategoryStats, error)
	PriorityBreakdown(ctx context.Context, rng repository.ReportRange) ([]dto.PriorityStats, error)
	DepartmentTotals(ctx context.Context, rng repository.ReportRange) ([]dto.DepartmentTotal, error)
	CategoryTotals(ctx context.Context, rng repository.ReportRange) ([]dto.CategoryTotal, error)
	PriorityTotals(ctx context.Context, rng repository.ReportRange) ([]dto.PriorityTotal, error)
}

// ReportService computes aggregate statistics over the live request data.
// Reports are never cached: every call reflects committed state at the time
// of the query.
type ReportService struct {
	store   reportStore
	metrics *MetricsService
	logger  *zap.Logger
}

// NewReportService constructs a ReportService. metrics may be nil.
func NewReportService(store reportStore, metrics *MetricsService, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{store: store, metrics: metrics, logger: logger}
}

// timeQuery wraps an aggregation call with a db query duration observation.
func (s *ReportService) timeQuery(label string, fn func() error) error {
	start := time.Now()
	err := fn()
	s.metrics.ObserveDBQuery(label, time.Since(start))
	return err
}

// dateFormats accepted for the startDate/endDate query parameters.
var dateFormats = []string{time.RFC3339, "2006-01-02"}

// ParseReportRange interprets the optional startDate/endDate parameters. A
// date-only end bound is pushed to the end of that day so the range stays
// inclusive.
func ParseReportRange(startDate, endDate string) (repository.ReportRange, error) {
	var rng repository.ReportRange
	if startDate != "" {
		ts, err := parseReportDate(startDate)
		if err != nil {
			return rng, appErrors.Clone(appErrors.ErrValidation, "invalid startDate")
		}
		rng.Start = &ts
	}
	if endDate != "" {
		ts, err := parseReportDate(endDate)
		if err != nil {
			return rng, appErrors.Clone(appErrors.ErrValidation, "invalid endDate")
		}
		if ts.Hour() == 0 && ts.Minute() == 0 && ts.Second() == 0 && ts.Nanosecond() == 0 {
			ts = ts.Add(24*time.Hour - time.Nanosecond)
		}
		rng.End = &ts
	}
	if rng.Start != nil && rng.End != nil && rng.End.Before(*rng.Start) {
		return repository.ReportRange{}, appErrors.Clone(appErrors.ErrValidation, "endDate must not be before startDate")
	}
	return rng, nil
}

func parseReportDate(value string) (time.Time, error) {
	var lastErr error
	for _, layout := range dateFormats {
		ts, err := time.Parse(layout, value)
		if err == nil {
			return ts.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// Overview tallies requests by status within the range.
func (s *ReportService) Overview(ctx context.Context, rng repository.ReportRange) (dto.OverviewStats, error) {
	var stats dto.OverviewStats
	err := s.timeQuery("report_overview", func() error {
		var queryErr error
		stats, queryErr = s.store.Overview(ctx, rng)
		return queryErr
	})
	if err != nil {
		return dto.OverviewStats{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute overview report")
	}
	return stats, nil
}

// ByDepartment returns the per-department breakdown. Unassigned requests are
// excluded by definition of the grouping.
func (s *ReportService) ByDepartment(ctx context.Context, rng repository.ReportRange) ([]dto.DepartmentStats, error) {
	var stats []dto.DepartmentStats
	err := s.timeQuery("report_by_department", func() error {
		var queryErr error
		stats, queryErr = s.store.DepartmentBreakdown(ctx, rng)
		return queryErr
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute department report")
	}
	if stats == nil {
		stats = []dto.DepartmentStats{}
	}
	return stats, nil
}

// ByCategory returns the per-category breakdown.
func (s *ReportService) ByCategory(ctx context.Context, rng repository.ReportRange) ([]dto.CategoryStats, error) {
	var stats []dto.CategoryStats
	err := s.timeQuery("report_by_category", func() error {
		var queryErr error
		stats, queryErr = s.store.CategoryBreakdown(ctx, rng)
		return queryErr
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute category report")
	}
	if stats == nil {
		stats = []dto.CategoryStats{}
	}
	return stats, nil
}

// ByPriority returns the per-priority breakdown in High, Medium, Low order.
func (s *ReportService) ByPriority(ctx context.Context, rng repository.ReportRange) ([]dto.PriorityStats, error) {
	var stats []dto.PriorityStats
	err := s.timeQuery("report_by_priority", func() error {
		var queryErr error
		stats, queryErr = s.store.PriorityBreakdown(ctx, rng)
		return queryErr
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute priority report")
	}
	if stats == nil {
		stats = []dto.PriorityStats{}
	}
	return stats, nil
}

// Comprehensive runs the overview and the three totals groupings
// concurrently and assembles them into one report. The first error wins;
// partial results are never returned.
func (s *ReportService) Comprehensive(ctx context.Context, rng repository.ReportRange) (*dto.ComprehensiveReport, error) {
	report := &dto.ComprehensiveReport{
		ByDepartment: []dto.DepartmentTotal{},
		ByCategory:   []dto.CategoryTotal{},
		ByPriority:   []dto.PriorityTotal{},
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	fail := func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}

	wg.Add(4)
	go func() {
		defer wg.Done()
		var stats dto.OverviewStats
		err := s.timeQuery("report_overview", func() error {
			var queryErr error
			stats, queryErr = s.store.Overview(ctx, rng)
			return queryErr
		})
		if err != nil {
			fail(err)
			return
		}
		report.Overview = stats
	}()
	go func() {
		defer wg.Done()
		var totals []dto.DepartmentTotal
		err := s.timeQuery("report_department_totals", func() error {
			var queryErr error
			totals, queryErr = s.store.DepartmentTotals(ctx, rng)
			return queryErr
		})
		if err != nil {
			fail(err)
			return
		}
		if totals != nil {
			report.ByDepartment = totals
		}
	}()
	go func() {
		defer wg.Done()
		var totals []dto.CategoryTotal
		err := s.timeQuery("report_category_totals", func() error {
			var queryErr error
			totals, queryErr = s.store.CategoryTotals(ctx, rng)
			return queryErr
		})
		if err != nil {
			fail(err)
			return
		}
		if totals != nil {
			report.ByCategory = totals
		}
	}()
	go func() {
		defer wg.Done()
		var totals []dto.PriorityTotal
		err := s.timeQuery("report_priority_totals", func() error {
			var queryErr error
			totals, queryErr = s.store.PriorityTotals(ctx, rng)
			return queryErr
		})
		if err != nil {
			fail(err)
			return
		}
		if totals != nil {
			report.ByPriority = totals
		}
	}()
	wg.Wait()

	if len(errs) > 0 {
		return nil, appErrors.Wrap(errs[0], appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute comprehensive report")
	}

	report.GeneratedAt = time.Now().UTC()
	report.DateRange = describeRange(rng)

	s.logger.Debug("comprehensive report generated",
		zap.Int("total", report.Overview.Total),
		zap.Int("departments", len(report.ByDepartment)))
	return report, nil
}

// describeRange echoes the requested bounds, substituting the sentinel
// labels when a bound was omitted.
func describeRange(rng repository.ReportRange) dto.ReportDateRange {
	echoed := dto.ReportDateRange{Start: "All time", End: "Present"}
	if rng.Start != nil {
		echoed.Start = rng.Start.Format(time.RFC3339)
	}
	if rng.End != nil {
		echoed.End = rng.End.Format(time.RFC3339)
	}
	return echoed
}
