package domain

import "time"

// Role enumerates the access levels an account can hold.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleManager  Role = "manager"
	RoleAdmin    Role = "admin"
)

// Valid reports whether the role is one of the three known values.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleManager, RoleAdmin:
		return true
	}
	return false
}

// Account mirrors the persisted representation in the accounts table.
type Account struct {
	ID                 string
	Username           string
	Email              string
	Role               Role
	PasswordHash       string
	FailedLogins       int
	LockedUntil        *time.Time
	PasswordChangedAt  *time.Time
	SecurityQuestion   string
	SecurityAnswerHash string
	LastLogin          *time.Time
	CreatedAt          time.Time
}

// IsLockedNow reports whether the account is inside an active lockout window.
func (a *Account) IsLockedNow(now time.Time) bool {
	return a.LockedUntil != nil && now.Before(*a.LockedUntil)
}

// IsPrivileged reports whether the account may manage menu items and orders.
func (a *Account) IsPrivileged() bool {
	return a.Role == RoleManager || a.Role == RoleAdmin
}

// HasSecurityQuestion reports whether recovery by security question is possible.
func (a *Account) HasSecurityQuestion() bool {
	return a.SecurityQuestion != "" && a.SecurityAnswerHash != ""
}

// PasswordHistoryEntry tracks a previously used password hash for reuse prevention.
type PasswordHistoryEntry struct {
	ID           string
	AccountID    string
	PasswordHash string
	ChangedAt    time.Time
}

// FailedAuthMarker is a best-effort note about the last failed login for a
// username. It only feeds the "last account use" banner and is never
// consulted for security decisions.
type FailedAuthMarker struct {
	Username string
	At       time.Time
	IP       string
}
