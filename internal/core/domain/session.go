package domain

import "time"

// Session is the server-held per-browser state. The client only ever sees the
// opaque session id; the reset fields and the re-auth timestamp live here so
// they cannot be forged client-side.
type Session struct {
	ID        string
	AccountID string
	CreatedAt time.Time

	// Password-reset flow state. ResetTarget is the account under recovery,
	// ResetVerified flips once the security answer matched.
	ResetTarget   string
	ResetVerified bool

	// ReauthAt is the last successful password re-entry, zero if never.
	ReauthAt time.Time
}

// Authenticated reports whether a login is bound to this session.
func (s *Session) Authenticated() bool {
	return s != nil && s.AccountID != ""
}

// ReauthFresh reports whether the last password re-entry is within window.
func (s *Session) ReauthFresh(now time.Time, window time.Duration) bool {
	if s == nil || s.ReauthAt.IsZero() {
		return false
	}
	return now.Sub(s.ReauthAt) <= window
}
