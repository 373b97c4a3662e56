package authsvc

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mkrupp/mediagate/internal/domain"
	"github.com/mkrupp/mediagate/internal/infra/logging"
	"github.com/mkrupp/mediagate/internal/util/encoding"
)

// SessionTokenSize is the number of random bytes behind a session token.
const SessionTokenSize = 32

const maxTokenAttempts = 3

var errTokenCollision = errors.New("session token collision")

// SessionManager issues, stores and validates in-memory sessions.
// Sessions do not survive a restart.
type SessionManager struct {
	directory *UserDirectory
	cfg       SessionConfig
	log       logging.Logger

	m        sync.RWMutex
	sessions map[domain.SessionToken]domain.Session

	// Clock returns the current time; replaced in tests.
	Clock func() time.Time
}

// NewSessionManager creates a SessionManager validating identities against directory.
func NewSessionManager(directory *UserDirectory, cfg SessionConfig) *SessionManager {
	return &SessionManager{
		directory: directory,
		cfg:       cfg,
		log:       logging.GetLogger("svc.authsvc.session_manager"),
		sessions:  make(map[domain.SessionToken]domain.Session),
		Clock:     time.Now,
	}
}

// CreateSession stores a new session bound to identity and returns its token.
// The session is committed before the token is returned.
func (m *SessionManager) CreateSession(ctx context.Context, identity domain.Identity) (domain.SessionToken, error) {
	for range maxTokenAttempts {
		random, err := encoding.RandomCrockfordB32LC(SessionTokenSize)
		if err != nil {
			return "", fmt.Errorf("generate session token: %w", err)
		}

		session := domain.Session{
			Token:     domain.SessionToken(random),
			UserID:    identity.ID,
			CreatedAt: m.Clock(),
		}

		if m.store(session) {
			m.log.DebugContext(ctx, "session created", logging.Group("user", "id", string(identity.ID)))

			return session.Token, nil
		}
	}

	return "", errTokenCollision
}

func (m *SessionManager) store(session domain.Session) bool {
	m.m.Lock()
	defer m.m.Unlock()

	if _, exists := m.sessions[session.Token]; exists {
		return false
	}

	m.sessions[session.Token] = session

	return true
}

// Validate returns the identity bound to token.
// Unknown, expired and dangling sessions (identity no longer provisioned) yield false;
// the latter two are removed.
func (m *SessionManager) Validate(ctx context.Context, token domain.SessionToken) (domain.Identity, bool) {
	if token == "" {
		return domain.Identity{}, false
	}

	m.m.RLock()
	session, ok := m.sessions[token]
	m.m.RUnlock()

	if !ok {
		return domain.Identity{}, false
	}

	log := m.log.With(logging.Group("user", "id", string(session.UserID)))

	if session.Expired(m.Clock(), m.cfg.TTL) {
		m.Invalidate(ctx, token)
		log.DebugContext(ctx, "session expired")

		return domain.Identity{}, false
	}

	identity, ok := m.directory.Lookup(session.UserID)
	if !ok {
		m.Invalidate(ctx, token)
		log.WarnContext(ctx, "session references unknown identity")

		return domain.Identity{}, false
	}

	return identity, true
}

// Invalidate removes the session. Unknown tokens are ignored.
func (m *SessionManager) Invalidate(ctx context.Context, token domain.SessionToken) {
	m.m.Lock()
	defer m.m.Unlock()

	if _, ok := m.sessions[token]; ok {
		delete(m.sessions, token)
		m.log.DebugContext(ctx, "session invalidated")
	}
}

// Len returns the number of stored sessions.
func (m *SessionManager) Len() int {
	m.m.RLock()
	defer m.m.RUnlock()

	return len(m.sessions)
}

// Sweep removes every expired session and returns how many were removed.
func (m *SessionManager) Sweep(ctx context.Context) int {
	if m.cfg.TTL <= 0 {
		return 0
	}

	now := m.Clock()

	m.m.Lock()
	defer m.m.Unlock()

	removed := 0

	for token, session := range m.sessions {
		if session.Expired(now, m.cfg.TTL) {
			delete(m.sessions, token)
			removed++
		}
	}

	if removed > 0 {
		m.log.DebugContext(ctx, "expired sessions swept", "count", removed)
	}

	return removed
}

// RunSweeper calls Sweep every SweepInterval until ctx is cancelled.
// It returns immediately when sessions never expire.
func (m *SessionManager) RunSweeper(ctx context.Context) {
	if m.cfg.TTL <= 0 || m.cfg.SweepInterval <= 0 {
		return
	}

	ticker := time.NewTicker(m.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep(ctx)
		}
	}
}
