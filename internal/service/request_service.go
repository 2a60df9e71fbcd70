package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campusdesk/helpdesk-api/internal/models"
	appErrors "github.com/campusdesk/helpdesk-api/pkg/errors"
)

// requestStore describes the persistence layer required by RequestService.
type requestStore interface {
	Create(ctx context.Context, request *models.Request, seed *models.StatusHistoryEntry) error
	FindByID(ctx context.Context, id string) (*models.Request, error)
	FindDetail(ctx context.Context, id string, withHistory bool) (*models.RequestDetail, error)
	List(ctx context.Context, filter models.RequestFilter) ([]models.RequestDetail, error)
	UpdateFields(ctx context.Context, request *models.Request) error
	Delete(ctx context.Context, id string) error
	UpdateStatus(ctx context.Context, id string, status models.RequestStatus, entry *models.StatusHistoryEntry) error
	Assign(ctx context.Context, id, department, adminID string, entry *models.StatusHistoryEntry) error
	History(ctx context.Context, requestID string) ([]models.HistoryEntryDetail, error)
}

// CreateRequestInput is the payload for submitting a new request.
type CreateRequestInput struct {
	Title       string                 `json:"title" validate:"required,max=200"`
	Description string                 `json:"description" validate:"required,max=1000"`
	Category    models.RequestCategory `json:"category" validate:"required"`
	Priority    models.RequestPriority `json:"priority"`
}

// UpdateRequestInput patches student-editable fields; absent fields are left
// untouched.
type UpdateRequestInput struct {
	Title       *string                 `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string                 `json:"description" validate:"omitempty,min=1,max=1000"`
	Category    *models.RequestCategory `json:"category"`
	Priority    *models.RequestPriority `json:"priority"`
}

// ChangeStatusInput is the admin payload for a status transition.
type ChangeStatusInput struct {
	Status  models.RequestStatus `json:"status" validate:"required"`
	Comment string               `json:"comment" validate:"omitempty,max=500"`
}

// AssignInput routes a request to a department.
type AssignInput struct {
	Department string `json:"department" validate:"required"`
}

// RequestListResult mirrors the list endpoint contract.
type RequestListResult struct {
	Count    int                    `json:"count"`
	Requests []models.RequestDetail `json:"requests"`
}

// RequestHistoryResult is the history endpoint contract.
type RequestHistoryResult struct {
	RequestID     string                      `json:"requestId"`
	Title         string                      `json:"title"`
	StatusHistory []models.HistoryEntryDetail `json:"statusHistory"`
}

// RequestService is the lifecycle engine: it enforces who may change what on
// a request and when, and guarantees every change that matters lands in the
// append-only status history.
type RequestService struct {
	store     requestStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRequestService constructs a RequestService.
func NewRequestService(store requestStore, validate *validator.Validate, logger *zap.Logger) *RequestService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RequestService{store: store, validator: validate, logger: logger}
}

// Create submits a new request for the given student. The stored request
// starts Pending with a single seed history entry.
func (s *RequestService) Create(ctx context.Context, studentID string, input CreateRequestInput) (*models.RequestDetail, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request payload")
	}
	if !models.ValidCategory(input.Category) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid category")
	}
	priority := input.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !models.ValidPriority(priority) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid priority")
	}

	request := &models.Request{
		StudentID:   studentID,
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Category:    input.Category,
		Priority:    priority,
		Status:      models.StatusPending,
	}
	seed := &models.StatusHistoryEntry{
		Status:    models.StatusPending,
		UpdatedBy: studentID,
		Comment:   "Request created",
	}

	if err := s.store.Create(ctx, request, seed); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create request")
	}

	s.logger.Info("request created",
		zap.String("request_id", request.ID),
		zap.String("student_id", studentID),
		zap.String("category", string(request.Category)))

	return s.detail(ctx, request.ID, false)
}

// Get returns one request with identities and history expanded. Students may
// only view their own requests.
func (s *RequestService) Get(ctx context.Context, id, actorID string, role models.UserRole) (*models.RequestDetail, error) {
	detail, err := s.store.FindDetail(ctx, id, true)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load request")
	}
	if role == models.RoleStudent && detail.StudentID != actorID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not authorized to view this request")
	}
	return detail, nil
}

// List returns requests visible to the caller, newest first. Student callers
// are scoped to their own requests no matter what filters they supply.
func (s *RequestService) List(ctx context.Context, actorID string, role models.UserRole, filter models.RequestFilter) (*RequestListResult, error) {
	if filter.Status != "" && !models.ValidStatus(filter.Status) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid status filter")
	}
	if filter.Category != "" && !models.ValidCategory(filter.Category) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid category filter")
	}
	if filter.Priority != "" && !models.ValidPriority(filter.Priority) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid priority filter")
	}
	if role == models.RoleStudent {
		filter.StudentID = actorID
	}

	requests, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list requests")
	}
	return &RequestListResult{Count: len(requests), Requests: requests}, nil
}

// Update patches title/description/category/priority. Only the owning
// student may edit, and only while the request is still Pending. Field edits
// are not appended to history.
func (s *RequestService) Update(ctx context.Context, id, actorID string, input UpdateRequestInput) (*models.RequestDetail, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid update payload")
	}
	if input.Category != nil && !models.ValidCategory(*input.Category) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid category")
	}
	if input.Priority != nil && !models.ValidPriority(*input.Priority) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid priority")
	}

	request, err := s.editable(ctx, id, actorID, "update")
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		request.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		request.Description = strings.TrimSpace(*input.Description)
	}
	if input.Category != nil {
		request.Category = *input.Category
	}
	if input.Priority != nil {
		request.Priority = *input.Priority
	}

	if err := s.store.UpdateFields(ctx, request); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update request")
	}
	return s.detail(ctx, id, false)
}

// Delete removes a request permanently under the same preconditions as
// Update.
func (s *RequestService) Delete(ctx context.Context, id, actorID string) error {
	if _, err := s.editable(ctx, id, actorID, "delete"); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete request")
	}
	s.logger.Info("request deleted", zap.String("request_id", id), zap.String("student_id", actorID))
	return nil
}

// ChangeStatus moves the request into the given status and appends exactly
// one history entry. Admin only. There is deliberately no transition table:
// any status is reachable from any status, including re-opening a resolved
// request.
func (s *RequestService) ChangeStatus(ctx context.Context, id, actorID string, role models.UserRole, input ChangeStatusInput) (*models.RequestDetail, error) {
	if role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only admins can change request status")
	}
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	if !models.ValidStatus(input.Status) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid status")
	}

	comment := strings.TrimSpace(input.Comment)
	if comment == "" {
		comment = fmt.Sprintf("Status updated to %s", input.Status)
	}
	entry := &models.StatusHistoryEntry{
		UpdatedBy: actorID,
		Comment:   comment,
	}

	if err := s.store.UpdateStatus(ctx, id, input.Status, entry); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update status")
	}

	s.logger.Info("request status changed",
		zap.String("request_id", id),
		zap.String("admin_id", actorID),
		zap.String("status", string(input.Status)))

	return s.detail(ctx, id, true)
}

// AssignDepartment routes the request to a department. Admin only.
// Assignment is orthogonal to status: the appended history entry carries the
// current status unchanged.
func (s *RequestService) AssignDepartment(ctx context.Context, id, actorID string, role models.UserRole, input AssignInput) (*models.RequestDetail, error) {
	if role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only admins can assign departments")
	}
	department := strings.TrimSpace(input.Department)
	if len(department) < 2 || len(department) > 100 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "department must be between 2 and 100 characters")
	}

	entry := &models.StatusHistoryEntry{
		UpdatedBy: actorID,
		Comment:   fmt.Sprintf("Assigned to %s department", department),
	}

	if err := s.store.Assign(ctx, id, department, actorID, entry); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign department")
	}

	s.logger.Info("request assigned",
		zap.String("request_id", id),
		zap.String("admin_id", actorID),
		zap.String("department", department))

	return s.detail(ctx, id, false)
}

// History returns the ordered status history. Students may only read the
// history of their own requests.
func (s *RequestService) History(ctx context.Context, id, actorID string, role models.UserRole) (*RequestHistoryResult, error) {
	request, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load request")
	}
	if role == models.RoleStudent && request.StudentID != actorID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not authorized to view this request history")
	}

	history, err := s.store.History(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load status history")
	}
	return &RequestHistoryResult{RequestID: request.ID, Title: request.Title, StatusHistory: history}, nil
}

// editable loads the request and enforces the shared owner + Pending
// preconditions for student edits and deletes.
func (s *RequestService) editable(ctx context.Context, id, actorID, action string) (*models.Request, error) {
	request, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load request")
	}
	if request.StudentID != actorID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, fmt.Sprintf("not authorized to %s this request", action))
	}
	if request.Status != models.StatusPending {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, fmt.Sprintf("cannot %s request after it has been processed", action))
	}
	return request, nil
}

func (s *RequestService) detail(ctx context.Context, id string, withHistory bool) (*models.RequestDetail, error) {
	detail, err := s.store.FindDetail(ctx, id, withHistory)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load request")
	}
	return detail, nil
}
