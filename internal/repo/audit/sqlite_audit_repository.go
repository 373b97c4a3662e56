package audit

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/mkrupp/mediagate/internal/domain"
	"github.com/mkrupp/mediagate/internal/infra/logging"
	"github.com/mkrupp/mediagate/internal/util/text"
)

const maxDetailLength = 1024

// SQLiteAuditRepositoryConfig holds configuration for the SQLite audit repository.
type SQLiteAuditRepositoryConfig struct {
	// DatabasePath is the filesystem path to the SQLite database file.
	// An empty path disables auditing.
	DatabasePath string `env:"DATABASE_PATH" default:"var/storage/mediagate.db"`
}

// SQLiteAuditRepository implements Repository using SQLite as the storage backend.
type SQLiteAuditRepository struct {
	db        *sql.DB
	log       logging.Logger
	writeLock *sync.Mutex // go-sqlite does not support concurrent writes
}

var _ Repository = (*SQLiteAuditRepository)(nil)

// SQLiteAuditRepositoryFactory creates a factory function that returns a new SQLiteAuditRepository,
// or a NopRepository when no database path is configured.
func SQLiteAuditRepositoryFactory(cfg SQLiteAuditRepositoryConfig) RepositoryFactory {
	return func() (Repository, error) {
		if cfg.DatabasePath == "" {
			return NopRepository{}, nil
		}

		return NewSQLiteAuditRepository(cfg)
	}
}

// NewSQLiteAuditRepository creates a new SQLiteAuditRepository with the given configuration.
// It initializes the database connection and creates the schema if needed.
// Returns an error if database connection or initialization fails.
func NewSQLiteAuditRepository(cfg SQLiteAuditRepositoryConfig) (*SQLiteAuditRepository, error) {
	log := logging.GetLogger("repo.audit.sqlite_audit_repository").With(
		logging.Group("db", "path", cfg.DatabasePath),
	)

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	// busy_timeout is applied to every pooled connection through the DSN
	db, err := sql.Open("sqlite", cfg.DatabasePath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()

		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := initializeDB(db); err != nil {
		db.Close()

		return nil, fmt.Errorf("initialize db: %w", err)
	}

	db.SetConnMaxLifetime(5 * time.Minute)

	log.Debug("audit log opened")

	return &SQLiteAuditRepository{
		db:        db,
		log:       log,
		writeLock: new(sync.Mutex),
	}, nil
}

func initializeDB(db *sql.DB) (err error) {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS audit_events (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			kind        TEXT    NOT NULL,
			user_id     TEXT    NOT NULL,
			success     INTEGER NOT NULL,
			detail      TEXT    NOT NULL,
			remote_addr TEXT    NOT NULL,
			created_at  INTEGER NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	return nil
}

// Record implements Repository.Record using SQLite.
func (r *SQLiteAuditRepository) Record(ctx context.Context, event domain.AuditEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	event.Detail = text.Truncate(event.Detail, maxDetailLength)

	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO audit_events (kind, user_id, success, detail, remote_addr, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		string(event.Kind),
		string(event.UserID),
		event.Success,
		event.Detail,
		event.RemoteAddr,
		event.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}

	return nil
}

// Recent implements Repository.Recent using SQLite.
func (r *SQLiteAuditRepository) Recent(ctx context.Context, limit int) (_ []domain.AuditEvent, err error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, kind, user_id, success, detail, remote_addr, created_at FROM audit_events ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []domain.AuditEvent

	for rows.Next() {
		var (
			event     domain.AuditEvent
			kind      string
			userID    string
			createdAt int64
		)

		if err := rows.Scan(&event.ID, &kind, &userID, &event.Success, &event.Detail, &event.RemoteAddr, &createdAt); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}

		event.Kind = domain.AuditKind(kind)
		event.UserID = domain.UserID(userID)
		event.CreatedAt = time.UnixMilli(createdAt)
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}

	return events, nil
}

// Close implements Repository.Close by closing the database connection.
func (r *SQLiteAuditRepository) Close() error {
	if err := r.db.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}

	return nil
}
