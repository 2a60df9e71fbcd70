package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusdesk/helpdesk-api/internal/models"
)

func requestRows(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "student_id", "title", "description", "category", "priority", "status", "assigned_department", "assigned_by", "created_at", "updated_at"}).
		AddRow("r1", "s1", "Broken WiFi", "No signal in dorm", "IT", "High", "Pending", "", nil, now, now)
}

func detailRows(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "student_id", "title", "description", "category", "priority", "status", "assigned_department", "assigned_by", "created_at", "updated_at", "student_name", "student_email", "student_number", "assigner_name", "assigner_email"}).
		AddRow("r1", "s1", "Broken WiFi", "No signal in dorm", "IT", "High", "Pending", "", nil, now, now, "Ana Lim", "ana@example.edu", "S-2023-001", nil, nil)
}

func TestCreateRequestSeedsHistory(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRequestRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO requests").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO request_status_history").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	request := &models.Request{
		StudentID:   "s1",
		Title:       "Broken WiFi",
		Description: "No signal in dorm",
		Category:    models.CategoryIT,
		Priority:    models.PriorityHigh,
		Status:      models.StatusPending,
	}
	seed := &models.StatusHistoryEntry{Status: models.StatusPending, UpdatedBy: "s1", Comment: "Request created"}

	err := repo.Create(context.Background(), request, seed)
	require.NoError(t, err)
	assert.NotEmpty(t, request.ID)
	assert.Equal(t, request.ID, seed.RequestID)
	assert.NotEmpty(t, seed.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRequestRollsBackOnHistoryFailure(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRequestRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO requests").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO request_status_history").WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	request := &models.Request{StudentID: "s1", Title: "t", Description: "d", Category: models.CategoryOther, Priority: models.PriorityLow, Status: models.StatusPending}
	seed := &models.StatusHistoryEntry{Status: models.StatusPending, UpdatedBy: "s1"}

	err := repo.Create(context.Background(), request, seed)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRequestRepository(db)

	mock.ExpectQuery("SELECT .+ FROM requests WHERE id = ").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindDetailExpandsStudent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRequestRepository(db)

	now := time.Now()
	mock.ExpectQuery("FROM requests r").WithArgs("r1").WillReturnRows(detailRows(now))

	detail, err := repo.FindDetail(context.Background(), "r1", false)
	require.NoError(t, err)
	assert.Equal(t, "Ana Lim", detail.Student.FullName)
	assert.Equal(t, "S-2023-001", detail.Student.StudentNumber)
	assert.Nil(t, detail.Assigner)
	assert.Empty(t, detail.StatusHistory)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListAppliesFilters(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRequestRepository(db)

	now := time.Now()
	mock.ExpectQuery("FROM requests r").
		WithArgs("s1", "Pending", "IT").
		WillReturnRows(detailRows(now))

	filter := models.RequestFilter{StudentID: "s1", Status: models.StatusPending, Category: models.CategoryIT}
	details, err := repo.List(context.Background(), filter)
	require.NoError(t, err)
	require.Len(t, details, 1)
	assert.Equal(t, "r1", details[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusAppendsHistoryAtomically(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRequestRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status FROM requests WHERE id = ").
		WithArgs("r1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("Pending"))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE requests SET status = $2, updated_at = $3 WHERE id = $1")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO request_status_history").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	entry := &models.StatusHistoryEntry{UpdatedBy: "a1", Comment: "Status updated to InProgress"}
	err := repo.UpdateStatus(context.Background(), "r1", models.StatusInProgress, entry)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, entry.Status)
	assert.Equal(t, "r1", entry.RequestID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusMissingRequest(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRequestRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status FROM requests WHERE id = ").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	entry := &models.StatusHistoryEntry{UpdatedBy: "a1"}
	err := repo.UpdateStatus(context.Background(), "missing", models.StatusResolved, entry)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignKeepsCurrentStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRequestRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status FROM requests WHERE id = ").
		WithArgs("r1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("InProgress"))
	mock.ExpectExec("UPDATE requests SET assigned_department").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO request_status_history").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	entry := &models.StatusHistoryEntry{UpdatedBy: "a1", Comment: "Assigned to IT Services department"}
	err := repo.Assign(context.Background(), "r1", "IT Services", "a1", entry)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, entry.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryExpandsActors(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRequestRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "request_id", "status", "updated_by", "comment", "updated_at", "actor_name", "actor_email", "actor_role"}).
		AddRow("h1", "r1", "Pending", "s1", "Request created", now, "Ana Lim", "ana@example.edu", "student").
		AddRow("h2", "r1", "InProgress", "a1", "Status updated to InProgress", now.Add(time.Minute), "Admin", "admin@university.edu", "admin")
	mock.ExpectQuery("FROM request_status_history h").WithArgs("r1").WillReturnRows(rows)

	entries, err := repo.History(context.Background(), "r1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.StatusPending, entries[0].Status)
	assert.Equal(t, "Ana Lim", entries[0].Actor.FullName)
	assert.Equal(t, models.RoleAdmin, entries[1].Actor.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}
