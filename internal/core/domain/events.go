package domain

import "time"

// AccountLockedEvent is published when repeated failures lock an account.
type AccountLockedEvent struct {
	EventID     string         `json:"event_id"`
	AccountID   string         `json:"account_id"`
	Username    string         `json:"username"`
	LockedUntil time.Time      `json:"locked_until"`
	IP          string         `json:"ip,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// PasswordChangedEvent is published after a password change or reset commits.
type PasswordChangedEvent struct {
	EventID   string         `json:"event_id"`
	AccountID string         `json:"account_id"`
	ChangedAt time.Time      `json:"changed_at"`
	Source    string         `json:"source"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// RoleChangedEvent is published when an administrator changes an account role.
type RoleChangedEvent struct {
	EventID   string    `json:"event_id"`
	AccountID string    `json:"account_id"`
	ActorID   string    `json:"actor_id"`
	OldRole   Role      `json:"old_role"`
	NewRole   Role      `json:"new_role"`
	ChangedAt time.Time `json:"changed_at"`
}
