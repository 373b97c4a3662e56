package audit_test

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/mediagate/internal/domain"
	"github.com/mkrupp/mediagate/internal/repo/audit"
)

func newTestRepo(t *testing.T) *audit.SQLiteAuditRepository {
	t.Helper()

	repo, err := audit.NewSQLiteAuditRepository(audit.SQLiteAuditRepositoryConfig{
		DatabasePath: filepath.Join(t.TempDir(), "nested", "audit.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	return repo
}

func TestSQLiteAuditRepository_RecordAndRecent(t *testing.T) {
	t.Parallel()

	repo := newTestRepo(t)
	ctx := context.Background()
	at := time.UnixMilli(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC).UnixMilli())

	require.NoError(t, repo.Record(ctx, domain.AuditEvent{
		Kind:       domain.AuditKindLogin,
		UserID:     "user-1",
		Success:    false,
		RemoteAddr: "192.0.2.1",
		CreatedAt:  at,
	}))
	require.NoError(t, repo.Record(ctx, domain.AuditEvent{
		Kind:    domain.AuditKindAction,
		UserID:  "user-1",
		Success: true,
		Detail:  strings.Repeat("x", 5000),
	}))

	events, err := repo.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)

	require.Equal(t, domain.AuditKindAction, events[0].Kind)
	require.True(t, events[0].Success)
	require.Len(t, events[0].Detail, 1024)
	require.False(t, events[0].CreatedAt.IsZero())

	require.Equal(t, domain.AuditKindLogin, events[1].Kind)
	require.Equal(t, domain.UserID("user-1"), events[1].UserID)
	require.False(t, events[1].Success)
	require.Equal(t, "192.0.2.1", events[1].RemoteAddr)
	require.True(t, at.Equal(events[1].CreatedAt))

	limited, err := repo.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
}

func TestSQLiteAuditRepository_DetailKeepsRuneBoundary(t *testing.T) {
	t.Parallel()

	repo := newTestRepo(t)
	ctx := context.Background()

	// 1023 ASCII bytes then a 3-byte rune straddling the 1024 byte cap
	require.NoError(t, repo.Record(ctx, domain.AuditEvent{
		Kind:   domain.AuditKindAction,
		UserID: "user-1",
		Detail: strings.Repeat("x", 1023) + "日本",
	}))

	events, err := repo.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, strings.Repeat("x", 1023), events[0].Detail)
	require.True(t, utf8.ValidString(events[0].Detail))
}

func TestSQLiteAuditRepository_ConcurrentWrites(t *testing.T) {
	t.Parallel()

	repo := newTestRepo(t)
	ctx := context.Background()

	var wg sync.WaitGroup

	for range 20 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			assert.NoError(t, repo.Record(ctx, domain.AuditEvent{Kind: domain.AuditKindLogin, UserID: "u"}))
		}()
	}

	wg.Wait()

	events, err := repo.Recent(ctx, 100)
	require.NoError(t, err)
	require.Len(t, events, 20)
}

func TestSQLiteAuditRepositoryFactory_EmptyPathIsNop(t *testing.T) {
	t.Parallel()

	repo, err := audit.SQLiteAuditRepositoryFactory(audit.SQLiteAuditRepositoryConfig{})()
	require.NoError(t, err)
	require.IsType(t, audit.NopRepository{}, repo)

	require.NoError(t, repo.Record(context.Background(), domain.AuditEvent{}))

	events, err := repo.Recent(context.Background(), 5)
	require.NoError(t, err)
	require.Empty(t, events)
	require.NoError(t, repo.Close())
}
