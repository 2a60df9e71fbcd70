package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campusdesk/helpdesk-api/internal/models"
)

// RequestRepository provides database access for service requests and their
// append-only status history.
type RequestRepository struct {
	db *sqlx.DB
}

// NewRequestRepository creates a new instance of RequestRepository.
func NewRequestRepository(db *sqlx.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

const requestColumns = `id, student_id, title, description, category, priority, status, assigned_department, assigned_by, created_at, updated_at`

// detailRow flattens a request joined with its student and assigner.
type detailRow struct {
	models.Request
	StudentName   string         `db:"student_name"`
	StudentEmail  string         `db:"student_email"`
	StudentNumber sql.NullString `db:"student_number"`
	AssignerName  sql.NullString `db:"assigner_name"`
	AssignerEmail sql.NullString `db:"assigner_email"`
}

const detailSelect = `SELECT r.id, r.student_id, r.title, r.description, r.category, r.priority, r.status,
        r.assigned_department, r.assigned_by, r.created_at, r.updated_at,
        s.full_name AS student_name, s.email AS student_email, s.student_number AS student_number,
        a.full_name AS assigner_name, a.email AS assigner_email
        FROM requests r
        JOIN users s ON s.id = r.student_id
        LEFT JOIN users a ON a.id = r.assigned_by`

func (row detailRow) toDetail() models.RequestDetail {
	detail := models.RequestDetail{
		Request: row.Request,
		Student: models.UserSummary{
			ID:            row.StudentID,
			FullName:      row.StudentName,
			Email:         row.StudentEmail,
			StudentNumber: row.StudentNumber.String,
		},
	}
	if row.AssignedBy != nil && row.AssignerName.Valid {
		detail.Assigner = &models.UserSummary{
			ID:       *row.AssignedBy,
			FullName: row.AssignerName.String,
			Email:    row.AssignerEmail.String,
		}
	}
	return detail
}

// Create inserts a request together with its seed history entry in one
// transaction, so a stored request always has at least one history row.
func (r *RequestRepository) Create(ctx context.Context, request *models.Request, seed *models.StatusHistoryEntry) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if request.CreatedAt.IsZero() {
		request.CreatedAt = now
	}
	request.UpdatedAt = now

	seed.ID = uuid.NewString()
	seed.RequestID = request.ID
	if seed.UpdatedAt.IsZero() {
		seed.UpdatedAt = now
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create request: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const insertRequest = `INSERT INTO requests (id, student_id, title, description, category, priority, status, assigned_department, created_at, updated_at)
        VALUES (:id, :student_id, :title, :description, :category, :priority, :status, :assigned_department, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insertRequest, request); err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	if err := insertHistory(ctx, tx, seed); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create request: %w", err)
	}
	return nil
}

// FindByID returns the bare request row without identity expansion.
func (r *RequestRepository) FindByID(ctx context.Context, id string) (*models.Request, error) {
	query := fmt.Sprintf(`SELECT %s FROM requests WHERE id = $1 LIMIT 1`, requestColumns)
	var request models.Request
	if err := r.db.GetContext(ctx, &request, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find request by id: %w", err)
	}
	return &request, nil
}

// FindDetail returns a request with student and assigner identities expanded
// and, when requested, the full status history with actor identities.
func (r *RequestRepository) FindDetail(ctx context.Context, id string, withHistory bool) (*models.RequestDetail, error) {
	query := detailSelect + ` WHERE r.id = $1 LIMIT 1`
	var row detailRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find request detail: %w", err)
	}

	detail := row.toDetail()
	if withHistory {
		history, err := r.History(ctx, id)
		if err != nil {
			return nil, err
		}
		detail.StatusHistory = history
	}
	return &detail, nil
}

// List returns requests matching the filter, newest first, with identities
// expanded.
func (r *RequestRepository) List(ctx context.Context, filter models.RequestFilter) ([]models.RequestDetail, error) {
	var builder strings.Builder
	builder.WriteString(detailSelect)
	builder.WriteString(" WHERE 1=1")
	var args []interface{}

	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		builder.WriteString(fmt.Sprintf(" AND r.student_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		builder.WriteString(fmt.Sprintf(" AND r.status = $%d", len(args)))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		builder.WriteString(fmt.Sprintf(" AND r.category = $%d", len(args)))
	}
	if filter.Priority != "" {
		args = append(args, filter.Priority)
		builder.WriteString(fmt.Sprintf(" AND r.priority = $%d", len(args)))
	}
	if filter.Department != "" {
		args = append(args, filter.Department)
		builder.WriteString(fmt.Sprintf(" AND r.assigned_department = $%d", len(args)))
	}
	builder.WriteString(" ORDER BY r.created_at DESC")

	var rows []detailRow
	if err := r.db.SelectContext(ctx, &rows, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}

	details := make([]models.RequestDetail, 0, len(rows))
	for _, row := range rows {
		details = append(details, row.toDetail())
	}
	return details, nil
}

// UpdateFields persists student-editable fields. Field edits are not
// recorded in history; only status and assignment changes are.
func (r *RequestRepository) UpdateFields(ctx context.Context, request *models.Request) error {
	request.UpdatedAt = time.Now().UTC()
	const query = `UPDATE requests SET title = :title, description = :description, category = :category, priority = :priority, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, request); err != nil {
		return fmt.Errorf("update request fields: %w", err)
	}
	return nil
}

// Delete removes a request permanently. History rows go with it via the
// ON DELETE CASCADE constraint.
func (r *RequestRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM requests WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete request: %w", err)
	}
	return nil
}

// UpdateStatus sets the new status and appends the matching history entry as
// one atomic unit. The row lock prevents two concurrent status changes from
// losing either a field update or a history entry.
func (r *RequestRepository) UpdateStatus(ctx context.Context, id string, status models.RequestStatus, entry *models.StatusHistoryEntry) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin status update: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var current models.RequestStatus
	if err := tx.GetContext(ctx, &current, `SELECT status FROM requests WHERE id = $1 FOR UPDATE`, id); err != nil {
		if err == sql.ErrNoRows {
			return err
		}
		return fmt.Errorf("lock request for status update: %w", err)
	}

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx, `UPDATE requests SET status = $2, updated_at = $3 WHERE id = $1`, id, status, now); err != nil {
		return fmt.Errorf("update request status: %w", err)
	}

	entry.ID = uuid.NewString()
	entry.RequestID = id
	entry.Status = status
	if entry.UpdatedAt.IsZero() {
		entry.UpdatedAt = now
	}
	if err := insertHistory(ctx, tx, entry); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit status update: %w", err)
	}
	return nil
}

// Assign routes the request to a department and appends a history entry
// carrying the current status unchanged, atomically with the field update.
func (r *RequestRepository) Assign(ctx context.Context, id, department, adminID string, entry *models.StatusHistoryEntry) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin assignment: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var current models.RequestStatus
	if err := tx.GetContext(ctx, &current, `SELECT status FROM requests WHERE id = $1 FOR UPDATE`, id); err != nil {
		if err == sql.ErrNoRows {
			return err
		}
		return fmt.Errorf("lock request for assignment: %w", err)
	}

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx, `UPDATE requests SET assigned_department = $2, assigned_by = $3, updated_at = $4 WHERE id = $1`, id, department, adminID, now); err != nil {
		return fmt.Errorf("assign request: %w", err)
	}

	entry.ID = uuid.NewString()
	entry.RequestID = id
	entry.Status = current
	if entry.UpdatedAt.IsZero() {
		entry.UpdatedAt = now
	}
	if err := insertHistory(ctx, tx, entry); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit assignment: %w", err)
	}
	return nil
}

// History returns the ordered status history with actor identities expanded.
// Order is insertion order; the log is never reordered or compacted.
func (r *RequestRepository) History(ctx context.Context, requestID string) ([]models.HistoryEntryDetail, error) {
	const query = `SELECT h.id, h.request_id, h.status, h.updated_by, h.comment, h.updated_at,
        u.full_name AS actor_name, u.email AS actor_email, u.role AS actor_role
        FROM request_status_history h
        JOIN users u ON u.id = h.updated_by
        WHERE h.request_id = $1
        ORDER BY h.updated_at ASC, h.id ASC`

	type historyRow struct {
		models.StatusHistoryEntry
		ActorName  string `db:"actor_name"`
		ActorEmail string `db:"actor_email"`
		ActorRole  string `db:"actor_role"`
	}

	var rows []historyRow
	if err := r.db.SelectContext(ctx, &rows, query, requestID); err != nil {
		return nil, fmt.Errorf("load status history: %w", err)
	}

	entries := make([]models.HistoryEntryDetail, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, models.HistoryEntryDetail{
			StatusHistoryEntry: row.StatusHistoryEntry,
			Actor: models.UserSummary{
				ID:       row.UpdatedBy,
				FullName: row.ActorName,
				Email:    row.ActorEmail,
				Role:     models.UserRole(row.ActorRole),
			},
		})
	}
	return entries, nil
}

func insertHistory(ctx context.Context, tx *sqlx.Tx, entry *models.StatusHistoryEntry) error {
	const query = `INSERT INTO request_status_history (id, request_id, status, updated_by, comment, updated_at)
        VALUES (:id, :request_id, :status, :updated_by, :comment, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("append status history: %w", err)
	}
	return nil
}
