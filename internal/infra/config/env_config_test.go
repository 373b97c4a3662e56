package config_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mkrupp/mediagate/internal/infra/config"
)

type sessionSection struct {
	TTL    time.Duration `env:"TTL" default:"0s"`
	Cookie string        `env:"COOKIE_NAME" default:"mediagate_session"`
}

type httpSection struct {
	Addr     string `env:"SERVER_ADDR" default:":5000"`
	Attempts int    `env:"LOGIN_ATTEMPTS_PER_MINUTE" default:"10"`
	Burst    uint8  `env:"BURST" default:"4"`
}

type testConfig struct {
	config.EnvConfig

	Enabled  bool   `env:"ENABLED" default:"true"`
	UserID   string `env:"USER_ID" default:""`
	Untagged string

	Session sessionSection `envPrefix:"SESSION_"`
	HTTP    httpSection    `envPrefix:"HTTP_"`
}

func defaults() testConfig {
	//nolint:exhaustruct
	return testConfig{
		Enabled: true,
		Session: sessionSection{Cookie: "mediagate_session"},
		HTTP:    httpSection{Addr: ":5000", Attempts: 10, Burst: 4},
	}
}

func env(vars map[string]string) config.LookupFunc {
	return func(key string) (string, bool) {
		v, ok := vars[key]

		return v, ok
	}
}

func TestParseWith(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		namespace string
		vars      map[string]string
		want      func(*testConfig)
	}{
		{
			name: "defaults",
		},
		{
			name:      "full namespace",
			namespace: "MEDIAGATE_SERVER",
			vars: map[string]string{
				"MEDIAGATE_SERVER_ENABLED":     "false",
				"MEDIAGATE_SERVER_SESSION_TTL": "12h",
				"MEDIAGATE_SERVER_HTTP_BURST":  "200",
			},
			want: func(c *testConfig) {
				c.Enabled = false
				c.Session.TTL = 12 * time.Hour
				c.HTTP.Burst = 200
			},
		},
		{
			name:      "shorter namespace and bare fallbacks",
			namespace: "MEDIAGATE_SERVER",
			vars: map[string]string{
				"MEDIAGATE_USER_ID":     "alice",
				"HTTP_SERVER_ADDR":      "127.0.0.1:8080",
				"SESSION_COOKIE_NAME":   "sid",
				"MEDIAGATE_SERVER_NOPE": "ignored",
			},
			want: func(c *testConfig) {
				c.UserID = "alice"
				c.HTTP.Addr = "127.0.0.1:8080"
				c.Session.Cookie = "sid"
			},
		},
		{
			name:      "most specific wins",
			namespace: "MEDIAGATE_SERVER",
			vars: map[string]string{
				"USER_ID":                  "bare",
				"MEDIAGATE_USER_ID":        "app",
				"MEDIAGATE_SERVER_USER_ID": "server",
			},
			want: func(c *testConfig) { c.UserID = "server" },
		},
		{
			name: "empty values are kept",
			vars: map[string]string{"HTTP_SERVER_ADDR": ""},
			want: func(c *testConfig) { c.HTTP.Addr = "" },
		},
		{
			name: "zero values",
			vars: map[string]string{"HTTP_LOGIN_ATTEMPTS_PER_MINUTE": "0"},
			want: func(c *testConfig) { c.HTTP.Attempts = 0 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			want := defaults()
			if tt.want != nil {
				tt.want(&want)
			}

			var got testConfig

			require.NoError(t, config.ParseWith(context.Background(), &got, tt.namespace, env(tt.vars)))
			require.Equal(t, tt.namespace, got.Namespace())

			got.EnvConfig = want.EnvConfig
			require.Equal(t, want, got)
		})
	}
}

func TestParseWith_InvalidValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		vars    map[string]string
		wantVar string
	}{
		{name: "bool", vars: map[string]string{"APP_ENABLED": "maybe"}, wantVar: "APP_ENABLED"},
		{name: "int", vars: map[string]string{"HTTP_LOGIN_ATTEMPTS_PER_MINUTE": "ten"}, wantVar: "HTTP_LOGIN_ATTEMPTS_PER_MINUTE"},
		{name: "uint overflow", vars: map[string]string{"APP_HTTP_BURST": "256"}, wantVar: "APP_HTTP_BURST"},
		{name: "negative uint", vars: map[string]string{"APP_HTTP_BURST": "-1"}, wantVar: "APP_HTTP_BURST"},
		{name: "duration", vars: map[string]string{"APP_SESSION_TTL": "forever"}, wantVar: "APP_SESSION_TTL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var cfg testConfig

			err := config.ParseWith(context.Background(), &cfg, "APP", env(tt.vars))

			var fieldErr *config.FieldError

			require.ErrorAs(t, err, &fieldErr)
			require.Equal(t, tt.wantVar, fieldErr.Var)
		})
	}
}

func TestParseWith_Required(t *testing.T) {
	t.Parallel()

	var cfg struct {
		config.EnvConfig

		Secret string `env:"SECRET"`
	}

	err := config.ParseWith(context.Background(), &cfg, "APP", env(nil))
	require.ErrorIs(t, err, config.ErrVarNotSet)
	require.ErrorContains(t, err, "APP_SECRET")

	require.NoError(t, config.ParseWith(context.Background(), &cfg, "APP", env(map[string]string{"SECRET": "x"})))
	require.Equal(t, "x", cfg.Secret)
}

func TestParseWith_UnsupportedType(t *testing.T) {
	t.Parallel()

	var cfg struct {
		config.EnvConfig

		Ratio float64 `env:"RATIO" default:"0.5"`
	}

	err := config.ParseWith(context.Background(), &cfg, "", env(nil))
	require.ErrorIs(t, err, config.ErrUnsupportedVarType)
}

func TestParse_InvalidConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  any
	}{
		{name: "non-pointer config", cfg: testConfig{}}, //nolint:exhaustruct
		{name: "non-struct pointer", cfg: new(string)},
		{name: "missing EnvConfig embedding", cfg: &struct {
			Value string `env:"VALUE"`
		}{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			require.ErrorIs(t, config.Parse(context.Background(), tt.cfg, ""), config.ErrInvalidConfig)
		})
	}
}

//nolint:paralleltest
func TestParse_ReadsEnvironment(t *testing.T) {
	t.Setenv("MEDIAGATE_TEST_SESSION_TTL", "90s")

	var cfg testConfig

	require.NoError(t, config.Parse(context.Background(), &cfg, "MEDIAGATE_TEST"))
	require.Equal(t, 90*time.Second, cfg.Session.TTL)
}
