package domain

import (
	"errors"
	"log/slog"
)

var (
	// ErrIdentityExists is returned when adding an identity whose ID is already provisioned.
	ErrIdentityExists = errors.New("identity already exists")
	// ErrInvalidCredentials is returned when the user ID/token combination is incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// UserID is the opaque identifier of a provisioned identity.
type UserID string

// Identity represents the server-side record of a provisioned user.
type Identity struct {
	ID       UserID // Opaque unique identifier
	Verifier []byte // Bytes the presented token must equal
}

// Credentials are presented by a client on login. They are never stored.
type Credentials struct {
	UserID UserID
	Token  string
}

// String implements fmt.Stringer without revealing the token.
func (c Credentials) String() string {
	return "Credentials{UserID: " + string(c.UserID) + ", Token: " + redacted + "}"
}

// LogValue implements slog.LogValuer without revealing the token.
func (c Credentials) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("user_id", string(c.UserID)),
		slog.String("token", redacted),
	)
}
