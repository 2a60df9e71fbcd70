package models

import "time"

// RequestStatus enumerates the triage states of a service request. Any
// status is reachable from any status; the workflow is advisory and the
// history log is the audit trail, not a gate.
type RequestStatus string

const (
	StatusPending    RequestStatus = "Pending"
	StatusInProgress RequestStatus = "InProgress"
	StatusResolved   RequestStatus = "Resolved"
	StatusRejected   RequestStatus = "Rejected"
)

// ValidStatus reports whether the value is one of the four known states.
func ValidStatus(s RequestStatus) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusResolved, StatusRejected:
		return true
	}
	return false
}

// RequestCategory enumerates the kinds of issues students can raise.
type RequestCategory string

const (
	CategoryFee      RequestCategory = "Fee"
	CategoryHostel   RequestCategory = "Hostel"
	CategoryIT       RequestCategory = "IT"
	CategoryAcademic RequestCategory = "Academic"
	CategoryOther    RequestCategory = "Other"
)

// ValidCategory reports whether the value is a known category.
func ValidCategory(c RequestCategory) bool {
	switch c {
	case CategoryFee, CategoryHostel, CategoryIT, CategoryAcademic, CategoryOther:
		return true
	}
	return false
}

// RequestPriority enumerates request severity.
type RequestPriority string

const (
	PriorityLow    RequestPriority = "Low"
	PriorityMedium RequestPriority = "Medium"
	PriorityHigh   RequestPriority = "High"
)

// ValidPriority reports whether the value is a known priority.
func ValidPriority(p RequestPriority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Request is a service ticket submitted by a student and triaged by
// administrators.
type Request struct {
	ID                 string          `db:"id" json:"id"`
	StudentID          string          `db:"student_id" json:"student_id"`
	Title              string          `db:"title" json:"title"`
	Description        string          `db:"description" json:"description"`
	Category           RequestCategory `db:"category" json:"category"`
	Priority           RequestPriority `db:"priority" json:"priority"`
	Status             RequestStatus   `db:"status" json:"status"`
	AssignedDepartment string          `db:"assigned_department" json:"assigned_department"`
	AssignedBy         *string         `db:"assigned_by" json:"assigned_by,omitempty"`
	CreatedAt          time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time       `db:"updated_at" json:"updated_at"`
}

// StatusHistoryEntry is one immutable audit record of a status value or
// assignment change. Entries are only ever appended, never edited or
// removed. Assignment entries carry the request's status unchanged.
type StatusHistoryEntry struct {
	ID        string        `db:"id" json:"id"`
	RequestID string        `db:"request_id" json:"-"`
	Status    RequestStatus `db:"status" json:"status"`
	UpdatedBy string        `db:"updated_by" json:"updated_by"`
	Comment   string        `db:"comment" json:"comment"`
	UpdatedAt time.Time     `db:"updated_at" json:"updated_at"`
}

// HistoryEntryDetail is a history entry with its actor identity expanded.
type HistoryEntryDetail struct {
	StatusHistoryEntry
	Actor UserSummary `json:"updated_by_user"`
}

// RequestDetail is a request with identity references expanded for display.
type RequestDetail struct {
	Request
	Student       UserSummary          `json:"student"`
	Assigner      *UserSummary         `json:"assigner,omitempty"`
	StatusHistory []HistoryEntryDetail `json:"status_history,omitempty"`
}

// RequestFilter captures listing criteria. Student callers are always
// additionally constrained to their own requests.
type RequestFilter struct {
	StudentID  string
	Status     RequestStatus
	Category   RequestCategory
	Priority   RequestPriority
	Department string
}
