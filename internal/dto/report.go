package dto

import "time"

// OverviewStats counts requests per status. Stored statuses outside the four
// known states count toward Total only.
type OverviewStats struct {
	Total      int `db:"total" json:"total"`
	Pending    int `db:"pending" json:"pending"`
	InProgress int `db:"in_progress" json:"inProgress"`
	Resolved   int `db:"resolved" json:"resolved"`
	Rejected   int `db:"rejected" json:"rejected"`
}

// DepartmentStats is the per-status breakdown for one assigned department.
type DepartmentStats struct {
	Department string `db:"department" json:"department"`
	Total      int    `db:"total" json:"total"`
	Pending    int    `db:"pending" json:"pending"`
	InProgress int    `db:"in_progress" json:"inProgress"`
	Resolved   int    `db:"resolved" json:"resolved"`
	Rejected   int    `db:"rejected" json:"rejected"`
}

// CategoryStats is the per-status breakdown for one request category.
type CategoryStats struct {
	Category   string `db:"category" json:"category"`
	Total      int    `db:"total" json:"total"`
	Pending    int    `db:"pending" json:"pending"`
	InProgress int    `db:"in_progress" json:"inProgress"`
	Resolved   int    `db:"resolved" json:"resolved"`
	Rejected   int    `db:"rejected" json:"rejected"`
}

// PriorityStats is the per-status breakdown for one priority level.
type PriorityStats struct {
	Priority   string `db:"priority" json:"priority"`
	Total      int    `db:"total" json:"total"`
	Pending    int    `db:"pending" json:"pending"`
	InProgress int    `db:"in_progress" json:"inProgress"`
	Resolved   int    `db:"resolved" json:"resolved"`
	Rejected   int    `db:"rejected" json:"rejected"`
}

// DepartmentTotal is the totals-only variant used inside the comprehensive
// report.
type DepartmentTotal struct {
	Department string `db:"department" json:"department"`
	Total      int    `db:"total" json:"total"`
}

// CategoryTotal is the totals-only category variant.
type CategoryTotal struct {
	Category string `db:"category" json:"category"`
	Total    int    `db:"total" json:"total"`
}

// PriorityTotal is the totals-only priority variant.
type PriorityTotal struct {
	Priority string `db:"priority" json:"priority"`
	Total    int    `db:"total" json:"total"`
}

// ReportDateRange echoes the requested range, with sentinel labels when a
// bound was omitted.
type ReportDateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// ComprehensiveReport bundles all sub-reports in one payload.
type ComprehensiveReport struct {
	Overview     OverviewStats     `json:"overview"`
	ByDepartment []DepartmentTotal `json:"byDepartment"`
	ByCategory   []CategoryTotal   `json:"byCategory"`
	ByPriority   []PriorityTotal   `json:"byPriority"`
	GeneratedAt  time.Time         `json:"generatedAt"`
	DateRange    ReportDateRange   `json:"dateRange"`
}
