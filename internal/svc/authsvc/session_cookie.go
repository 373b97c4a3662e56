package authsvc

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/securecookie"

	"github.com/mkrupp/mediagate/internal/domain"
)

const (
	cookieHashKeySize  = 64
	cookieBlockKeySize = 32
)

var errGenerateCookieKey = errors.New("generate cookie key")

// SessionCookie carries session tokens in an authenticated, encrypted cookie.
// Keys are generated per process, so cookies die with the sessions they reference.
type SessionCookie struct {
	codec *securecookie.SecureCookie
	cfg   SessionConfig
}

// NewSessionCookie creates a SessionCookie with fresh random keys.
func NewSessionCookie(cfg SessionConfig) (*SessionCookie, error) {
	hashKey := securecookie.GenerateRandomKey(cookieHashKeySize)
	blockKey := securecookie.GenerateRandomKey(cookieBlockKeySize)

	if hashKey == nil || blockKey == nil {
		return nil, errGenerateCookieKey
	}

	codec := securecookie.New(hashKey, blockKey).
		SetSerializer(securecookie.JSONEncoder{}).
		MaxAge(int(cfg.TTL.Seconds())) // 0 disables the timestamp check

	return &SessionCookie{
		codec: codec,
		cfg:   cfg,
	}, nil
}

// Write sets the session cookie for token on the response.
func (c *SessionCookie) Write(w http.ResponseWriter, token domain.SessionToken) error {
	value, err := c.codec.Encode(c.cfg.CookieName, string(token))
	if err != nil {
		return fmt.Errorf("encode cookie: %w", err)
	}

	cookie := c.cookie(value)
	if c.cfg.TTL > 0 {
		cookie.MaxAge = int(c.cfg.TTL.Seconds())
	}

	http.SetCookie(w, cookie)

	return nil
}

// Read extracts the session token from the request.
// Returns domain.ErrNoSession without a cookie and domain.ErrInvalidSession
// for values that fail authentication or decryption.
func (c *SessionCookie) Read(r *http.Request) (domain.SessionToken, error) {
	cookie, err := r.Cookie(c.cfg.CookieName)
	if err != nil {
		return "", domain.ErrNoSession
	}

	var token string
	if err := c.codec.Decode(c.cfg.CookieName, cookie.Value, &token); err != nil {
		return "", errors.Join(domain.ErrInvalidSession, err)
	}

	return domain.SessionToken(token), nil
}

// Clear expires the session cookie on the client.
func (c *SessionCookie) Clear(w http.ResponseWriter) {
	cookie := c.cookie("")
	cookie.MaxAge = -1

	http.SetCookie(w, cookie)
}

func (c *SessionCookie) cookie(value string) *http.Cookie {
	//nolint:exhaustruct
	return &http.Cookie{
		Name:     c.cfg.CookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}
