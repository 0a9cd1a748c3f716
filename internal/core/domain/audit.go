package domain

import "time"

// AuditOutcome classifies an audit entry.
type AuditOutcome string

const (
	AuditSuccess AuditOutcome = "success"
	AuditFail    AuditOutcome = "fail"
	AuditInfo    AuditOutcome = "info"
)

// MaxAuditActionLen bounds the stored action text, detail suffix included.
const MaxAuditActionLen = 255

// AuditEntry is one row of the append-only audit trail. AccountID is nullable
// so entries survive account deletion and can describe anonymous actors.
type AuditEntry struct {
	ID        string
	AccountID *string
	Action    string
	Outcome   AuditOutcome
	IP        string
	UserAgent string
	CreatedAt time.Time
}
