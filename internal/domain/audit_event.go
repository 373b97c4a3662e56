package domain

import "time"

// AuditKind classifies an audit event.
type AuditKind string

const (
	AuditKindLogin  AuditKind = "login"
	AuditKindLogout AuditKind = "logout"
	AuditKindAction AuditKind = "action"
)

// AuditEvent records the outcome of a security relevant request.
// Presented tokens are never part of an event.
type AuditEvent struct {
	ID         int64
	Kind       AuditKind
	UserID     UserID
	Success    bool
	Detail     string
	RemoteAddr string
	CreatedAt  time.Time
}
