package audit

import (
	"context"

	"github.com/mkrupp/mediagate/internal/domain"
)

// Repository defines the interface for audit event persistence.
type Repository interface {
	// Record appends an event to the audit log.
	// CreatedAt is set by the repository when zero.
	Record(ctx context.Context, event domain.AuditEvent) error

	// Recent returns up to limit events, newest first.
	Recent(ctx context.Context, limit int) ([]domain.AuditEvent, error)

	// Close releases any resources held by the repository.
	// Returns an error if cleanup fails.
	Close() error
}

// RepositoryFactory is a function that creates a new Repository instance.
// Returns an error if initialization fails.
type RepositoryFactory func() (Repository, error)

// NopRepository discards every event. It is used when auditing is disabled.
type NopRepository struct{}

var _ Repository = NopRepository{}

// Record implements Repository.Record.
func (NopRepository) Record(context.Context, domain.AuditEvent) error { return nil }

// Recent implements Repository.Recent.
func (NopRepository) Recent(context.Context, int) ([]domain.AuditEvent, error) { return nil, nil }

// Close implements Repository.Close.
func (NopRepository) Close() error { return nil }
