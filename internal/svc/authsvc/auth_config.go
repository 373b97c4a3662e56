package authsvc

import "time"

// AuthConfig contains configuration parameters for the authentication gate.
type AuthConfig struct {
	// Enabled puts the protected route behind the route guard.
	// Disabling it serves the action to anyone who can reach the port.
	Enabled bool `env:"ENABLED" default:"true"`

	// SecretFile is the path of the file holding the shared secret
	SecretFile string `env:"SECRET_FILE" default:"var/storage/token.txt"`

	// UserID is the identifier of the provisioned identity; generated at startup when empty
	UserID string `env:"USER_ID" default:""`
}

// SessionConfig contains configuration parameters for sessions and the session cookie.
type SessionConfig struct {
	// TTL is the maximum session age; 0 keeps sessions until restart or logout
	TTL time.Duration `env:"TTL" default:"0s"`

	// SweepInterval is how often expired sessions are dropped when TTL is set
	SweepInterval time.Duration `env:"SWEEP_INTERVAL" default:"5m"`

	// CookieName is the name of the session cookie
	CookieName string `env:"COOKIE_NAME" default:"mediagate_session"`

	// CookieSecure marks the cookie Secure; enable when served over TLS
	CookieSecure bool `env:"COOKIE_SECURE" default:"false"`
}
