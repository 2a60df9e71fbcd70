package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/campusdesk/helpdesk-api/internal/dto"
)

// ReportRange bounds aggregations by creation time, both ends inclusive and
// both optional.
type ReportRange struct {
	Start *time.Time
	End   *time.Time
}

// ReportRepository exposes read-only aggregation queries over the request
// collection. Every call re-scans current state; nothing is cached.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository instantiates the repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

const statusBuckets = `COUNT(*) AS total,
        COUNT(*) FILTER (WHERE status = 'Pending') AS pending,
        COUNT(*) FILTER (WHERE status = 'InProgress') AS in_progress,
        COUNT(*) FILTER (WHERE status = 'Resolved') AS resolved,
        COUNT(*) FILTER (WHERE status = 'Rejected') AS rejected`

// appendRange adds the inclusive created_at bounds to the builder. Returns
// the extended args slice.
func appendRange(builder *strings.Builder, args []interface{}, rng ReportRange) []interface{} {
	if rng.Start != nil {
		args = append(args, *rng.Start)
		builder.WriteString(fmt.Sprintf(" AND created_at >= $%d", len(args)))
	}
	if rng.End != nil {
		args = append(args, *rng.End)
		builder.WriteString(fmt.Sprintf(" AND created_at <= $%d", len(args)))
	}
	return args
}

// Overview tallies requests by status. Rows whose stored status is outside
// the four known states fall into total only.
func (r *ReportRepository) Overview(ctx context.Context, rng ReportRange) (dto.OverviewStats, error) {
	var builder strings.Builder
	builder.WriteString("SELECT ")
	builder.WriteString(statusBuckets)
	builder.WriteString(" FROM requests WHERE 1=1")
	args := appendRange(&builder, nil, rng)

	var stats dto.OverviewStats
	if err := r.db.GetContext(ctx, &stats, builder.String(), args...); err != nil {
		return dto.OverviewStats{}, fmt.Errorf("query overview stats: %w", err)
	}
	return stats, nil
}

// DepartmentBreakdown groups by assigned department, excluding unassigned
// requests, sorted by volume.
func (r *ReportRepository) DepartmentBreakdown(ctx context.Context, rng ReportRange) ([]dto.DepartmentStats, error) {
	var builder strings.Builder
	builder.WriteString("SELECT assigned_department AS department, ")
	builder.WriteString(statusBuckets)
	builder.WriteString(" FROM requests WHERE assigned_department <> ''")
	args := appendRange(&builder, nil, rng)
	builder.WriteString(" GROUP BY assigned_department ORDER BY total DESC, assigned_department ASC")

	var stats []dto.DepartmentStats
	if err := r.db.SelectContext(ctx, &stats, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("query department stats: %w", err)
	}
	return stats, nil
}

// CategoryBreakdown groups by category, sorted by volume.
func (r *ReportRepository) CategoryBreakdown(ctx context.Context, rng ReportRange) ([]dto.CategoryStats, error) {
	var builder strings.Builder
	builder.WriteString("SELECT category, ")
	builder.WriteString(statusBuckets)
	builder.WriteString(" FROM requests WHERE 1=1")
	args := appendRange(&builder, nil, rng)
	builder.WriteString(" GROUP BY category ORDER BY total DESC, category ASC")

	var stats []dto.CategoryStats
	if err := r.db.SelectContext(ctx, &stats, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("query category stats: %w", err)
	}
	return stats, nil
}

// priorityRank orders rows by domain severity, not volume. Priority is a
// closed ordered enumeration.
const priorityRank = `CASE priority WHEN 'High' THEN 0 WHEN 'Medium' THEN 1 WHEN 'Low' THEN 2 ELSE 3 END`

// PriorityBreakdown groups by priority in fixed High, Medium, Low order.
func (r *ReportRepository) PriorityBreakdown(ctx context.Context, rng ReportRange) ([]dto.PriorityStats, error) {
	var builder strings.Builder
	builder.WriteString("SELECT priority, ")
	builder.WriteString(statusBuckets)
	builder.WriteString(" FROM requests WHERE 1=1")
	args := appendRange(&builder, nil, rng)
	builder.WriteString(" GROUP BY priority ORDER BY ")
	builder.WriteString(priorityRank)

	var stats []dto.PriorityStats
	if err := r.db.SelectContext(ctx, &stats, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("query priority stats: %w", err)
	}
	return stats, nil
}

// DepartmentTotals is the totals-only department grouping for the
// comprehensive report.
func (r *ReportRepository) DepartmentTotals(ctx context.Context, rng ReportRange) ([]dto.DepartmentTotal, error) {
	var builder strings.Builder
	builder.WriteString("SELECT assigned_department AS department, COUNT(*) AS total FROM requests WHERE assigned_department <> ''")
	args := appendRange(&builder, nil, rng)
	builder.WriteString(" GROUP BY assigned_department ORDER BY total DESC, assigned_department ASC")

	var totals []dto.DepartmentTotal
	if err := r.db.SelectContext(ctx, &totals, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("query department totals: %w", err)
	}
	return totals, nil
}

// CategoryTotals is the totals-only category grouping.
func (r *ReportRepository) CategoryTotals(ctx context.Context, rng ReportRange) ([]dto.CategoryTotal, error) {
	var builder strings.Builder
	builder.WriteString("SELECT category, COUNT(*) AS total FROM requests WHERE 1=1")
	args := appendRange(&builder, nil, rng)
	builder.WriteString(" GROUP BY category ORDER BY total DESC, category ASC")

	var totals []dto.CategoryTotal
	if err := r.db.SelectContext(ctx, &totals, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("query category totals: %w", err)
	}
	return totals, nil
}

// PriorityTotals is the totals-only priority grouping in severity order.
func (r *ReportRepository) PriorityTotals(ctx context.Context, rng ReportRange) ([]dto.PriorityTotal, error) {
	var builder strings.Builder
	builder.WriteString("SELECT priority, COUNT(*) AS total FROM requests WHERE 1=1")
	args := appendRange(&builder, nil, rng)
	builder.WriteString(" GROUP BY priority ORDER BY ")
	builder.WriteString(priorityRank)

	var totals []dto.PriorityTotal
	if err := r.db.SelectContext(ctx, &totals, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("query priority totals: %w", err)
	}
	return totals, nil
}
