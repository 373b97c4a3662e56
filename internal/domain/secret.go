package domain

import (
	"errors"
	"log/slog"
)

// ErrEmptySecret is returned when a persisted secret is empty after trimming.
var ErrEmptySecret = errors.New("empty secret")

const redacted = "[REDACTED]"

// Secret is the single shared credential proving authorization to act.
type Secret string

// Bytes returns the raw byte representation of the secret.
func (s Secret) Bytes() []byte {
	return []byte(s)
}

// String implements fmt.Stringer without revealing the secret.
func (s Secret) String() string {
	return redacted
}

// LogValue implements slog.LogValuer without revealing the secret.
func (s Secret) LogValue() slog.Value {
	return slog.StringValue(redacted)
}
