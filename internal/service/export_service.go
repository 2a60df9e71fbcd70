package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/campusdesk/helpdesk-api/internal/dto"
	"github.com/campusdesk/helpdesk-api/internal/repository"
	appErrors "github.com/campusdesk/helpdesk-api/pkg/errors"
	"github.com/campusdesk/helpdesk-api/pkg/export"
)

// Export formats supported by the comprehensive report download.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

type comprehensiveReporter interface {
	Comprehensive(ctx context.Context, rng repository.ReportRange) (*dto.ComprehensiveReport, error)
}

// ExportFile is a rendered report ready to be served as a download.
type ExportFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ExportService renders the comprehensive report into downloadable files.
type ExportService struct {
	reports comprehensiveReporter
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
	logger  *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(reports comprehensiveReporter, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		reports: reports,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		logger:  logger,
	}
}

// ComprehensiveExport generates the comprehensive report and renders it in
// the requested format.
func (s *ExportService) ComprehensiveExport(ctx context.Context, format string, rng repository.ReportRange) (*ExportFile, error) {
	report, err := s.reports.Comprehensive(ctx, rng)
	if err != nil {
		return nil, err
	}

	doc := buildReportDocument(report)
	stamp := report.GeneratedAt.Format("20060102-150405")

	switch format {
	case ExportFormatCSV:
		content, err := s.csv.Render(doc)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv report")
		}
		return &ExportFile{
			Filename:    fmt.Sprintf("helpdesk-report-%s.csv", stamp),
			ContentType: "text/csv",
			Content:     content,
		}, nil
	case ExportFormatPDF:
		content, err := s.pdf.Render(doc)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf report")
		}
		return &ExportFile{
			Filename:    fmt.Sprintf("helpdesk-report-%s.pdf", stamp),
			ContentType: "application/pdf",
			Content:     content,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}

// buildReportDocument flattens the comprehensive report into the sectioned
// document the exporters consume.
func buildReportDocument(report *dto.ComprehensiveReport) export.Document {
	overview := export.Section{
		Title: "Overview",
		Table: export.Table{
			Headers: []string{"Status", "Count"},
			Rows: []map[string]string{
				{"Status": "Total", "Count": strconv.Itoa(report.Overview.Total)},
				{"Status": "Pending", "Count": strconv.Itoa(report.Overview.Pending)},
				{"Status": "InProgress", "Count": strconv.Itoa(report.Overview.InProgress)},
				{"Status": "Resolved", "Count": strconv.Itoa(report.Overview.Resolved)},
				{"Status": "Rejected", "Count": strconv.Itoa(report.Overview.Rejected)},
			},
		},
	}

	departments := export.Section{
		Title: "Requests by Department",
		Table: export.Table{Headers: []string{"Department", "Count"}},
	}
	for _, row := range report.ByDepartment {
		departments.Table.Rows = append(departments.Table.Rows, map[string]string{
			"Department": row.Department,
			"Count":      strconv.Itoa(row.Total),
		})
	}

	categories := export.Section{
		Title: "Requests by Category",
		Table: export.Table{Headers: []string{"Category", "Count"}},
	}
	for _, row := range report.ByCategory {
		categories.Table.Rows = append(categories.Table.Rows, map[string]string{
			"Category": row.Category,
			"Count":    strconv.Itoa(row.Total),
		})
	}

	priorities := export.Section{
		Title: "Requests by Priority",
		Table: export.Table{Headers: []string{"Priority", "Count"}},
	}
	for _, row := range report.ByPriority {
		priorities.Table.Rows = append(priorities.Table.Rows, map[string]string{
			"Priority": row.Priority,
			"Count":    strconv.Itoa(row.Total),
		})
	}

	meta := export.Section{
		Title: "Report Details",
		Table: export.Table{
			Headers: []string{"Field", "Value"},
			Rows: []map[string]string{
				{"Field": "Generated At", "Value": report.GeneratedAt.Format(time.RFC3339)},
				{"Field": "Range Start", "Value": report.DateRange.Start},
				{"Field": "Range End", "Value": report.DateRange.End},
			},
		},
	}

	return export.Document{
		Title:    "University Helpdesk Report",
		Sections: []export.Section{overview, departments, categories, priorities, meta},
	}
}
