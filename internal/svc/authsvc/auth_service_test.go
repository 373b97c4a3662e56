package authsvc_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mkrupp/mediagate/internal/domain"
	"github.com/mkrupp/mediagate/internal/svc/authsvc"
)

const testSecret = domain.Secret("3f9a2b7c-1d4e-4f60-8a9b-0c1d2e3f4a5b")

func setupAuthService(t *testing.T) (*authsvc.AuthService, *authsvc.UserDirectory, domain.Identity) {
	t.Helper()

	directory := authsvc.NewUserDirectory()

	identity, err := authsvc.ProvisionIdentity(directory, "", testSecret)
	require.NoError(t, err)

	svc, err := authsvc.NewAuthService(directory)
	require.NoError(t, err)

	return svc, directory, identity
}

func TestAuthService_Authenticate(t *testing.T) {
	t.Parallel()

	svc, _, identity := setupAuthService(t)
	secret := string(testSecret)

	tests := []struct {
		name   string
		userID domain.UserID
		token  string
		wantOK bool
	}{
		{
			name:   "correct credentials",
			userID: identity.ID,
			token:  secret,
			wantOK: true,
		},
		{
			name:   "last byte differs",
			userID: identity.ID,
			token:  secret[:len(secret)-1] + "c",
		},
		{
			name:   "first byte differs",
			userID: identity.ID,
			token:  "X" + secret[1:],
		},
		{
			name:   "prefix of secret",
			userID: identity.ID,
			token:  secret[:8],
		},
		{
			name:   "secret with suffix",
			userID: identity.ID,
			token:  secret + "0",
		},
		{
			name:   "surrounding whitespace is not trimmed",
			userID: identity.ID,
			token:  " " + secret,
		},
		{
			name:   "empty token",
			userID: identity.ID,
			token:  "",
		},
		{
			name:   "unknown user",
			userID: "someone-else",
			token:  secret,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := svc.Authenticate(context.Background(), domain.Credentials{UserID: tt.userID, Token: tt.token})

			require.Equal(t, tt.wantOK, ok)

			if tt.wantOK {
				require.Equal(t, identity, got)
			} else {
				require.Equal(t, domain.Identity{}, got)
			}
		})
	}
}

// The comparator is the only place where the secret and the presented token
// meet. Recording its operands shows the comparison covers the same fixed
// width whatever the token looks like, and runs once per attempt.
func TestAuthService_ComparisonWidthIsFixed(t *testing.T) {
	t.Parallel()

	svc, _, identity := setupAuthService(t)
	secret := string(testSecret)

	type call struct{ lenA, lenB int }

	var (
		m     sync.Mutex
		calls []call
	)

	compare := svc.Compare
	svc.Compare = func(a, b []byte) bool {
		m.Lock()
		calls = append(calls, call{len(a), len(b)})
		m.Unlock()

		return compare(a, b)
	}

	attempts := []domain.Credentials{
		{UserID: identity.ID, Token: secret},
		{UserID: identity.ID, Token: secret[:len(secret)-1] + "0"},
		{UserID: identity.ID, Token: "0" + secret[1:]},
		{UserID: identity.ID, Token: "x"},
		{UserID: identity.ID, Token: strings.Repeat("a", 10_000)},
		{UserID: "unknown", Token: secret},
		{UserID: "unknown", Token: ""},
	}

	for _, creds := range attempts {
		svc.Authenticate(context.Background(), creds)
	}

	require.Len(t, calls, len(attempts), "every attempt reaches the comparator exactly once")

	for i, c := range calls {
		require.Equal(t, call{authsvc.DigestSize, authsvc.DigestSize}, c, "attempt %d", i)
	}
}

func TestAuthService_DirectoryChangesAreSeen(t *testing.T) {
	t.Parallel()

	svc, directory, identity := setupAuthService(t)
	creds := domain.Credentials{UserID: identity.ID, Token: string(testSecret)}

	_, ok := svc.Authenticate(context.Background(), creds)
	require.True(t, ok)

	directory.Remove(identity.ID)

	_, ok = svc.Authenticate(context.Background(), creds)
	require.False(t, ok)
}
