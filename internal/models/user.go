package models

import "time"

// UserRole represents the two authorization classes of the system.
type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleAdmin   UserRole = "admin"
)

// ValidRole reports whether the value is a known role.
func ValidRole(r UserRole) bool {
	return r == RoleStudent || r == RoleAdmin
}

// User represents an application user stored in the users table.
type User struct {
	ID            string     `db:"id" json:"id"`
	Email         string     `db:"email" json:"email"`
	PasswordHash  string     `db:"password_hash" json:"-"`
	FullName      string     `db:"full_name" json:"full_name"`
	Role          UserRole   `db:"role" json:"role"`
	StudentNumber string     `db:"student_number" json:"student_number,omitempty"`
	Active        bool       `db:"active" json:"active"`
	LastLogin     *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// UserSummary is the display-friendly expansion of an identity reference.
type UserSummary struct {
	ID            string   `db:"id" json:"id"`
	FullName      string   `db:"full_name" json:"full_name"`
	Email         string   `db:"email" json:"email"`
	Role          UserRole `db:"role" json:"role,omitempty"`
	StudentNumber string   `db:"student_number" json:"student_number,omitempty"`
}
