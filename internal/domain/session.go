package domain

import (
	"errors"
	"time"
)

var (
	// ErrNoSession is returned when a request carries no session cookie.
	ErrNoSession = errors.New("no session")
	// ErrInvalidSession is returned when a session cookie cannot be decoded.
	ErrInvalidSession = errors.New("invalid session")
)

// SessionToken is the opaque identifier handed to the client in the session cookie.
type SessionToken string

// Session is server-held proof that an identity has been authenticated.
type Session struct {
	Token     SessionToken
	UserID    UserID    // Identity the session is bound to
	CreatedAt time.Time // Creation time, used for expiry
}

// Expired reports whether the session is older than ttl at now.
// A non-positive ttl never expires.
func (s Session) Expired(now time.Time, ttl time.Duration) bool {
	return ttl > 0 && now.Sub(s.CreatedAt) >= ttl
}
