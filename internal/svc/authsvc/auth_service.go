package authsvc

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"fmt"

	"github.com/mkrupp/mediagate/internal/domain"
	"github.com/mkrupp/mediagate/internal/infra/logging"
)

// DigestSize is the width in bytes of every operand handed to the comparator.
const DigestSize = sha256.Size

// Comparator reports whether two digests are equal.
// Implementations must run in time independent of the contents of a and b.
type Comparator func(a, b []byte) bool

// AuthService verifies presented credentials against the user directory.
type AuthService struct {
	Directory *UserDirectory
	Log       logging.Logger

	// Compare is the digest comparator. It always receives two DigestSize operands.
	Compare Comparator

	digestKey     []byte
	dummyVerifier []byte
}

// NewAuthService creates a new AuthService backed by the given directory.
// Returns an error if the per-process digest key cannot be generated.
func NewAuthService(directory *UserDirectory) (*AuthService, error) {
	digestKey := make([]byte, DigestSize)
	if _, err := rand.Read(digestKey); err != nil {
		return nil, fmt.Errorf("generate digest key: %w", err)
	}

	dummyVerifier := make([]byte, DigestSize)
	if _, err := rand.Read(dummyVerifier); err != nil {
		return nil, fmt.Errorf("generate dummy verifier: %w", err)
	}

	return &AuthService{
		Directory:     directory,
		Log:           logging.GetLogger("svc.authsvc.auth_service"),
		Compare:       hmac.Equal,
		digestKey:     digestKey,
		dummyVerifier: dummyVerifier,
	}, nil
}

// Authenticate returns the identity matching the credentials.
// An unknown user ID or a wrong token yields false; neither is an error.
//
// The stored verifier and the presented token are both reduced to keyed
// SHA-256 digests before comparing, so the comparison covers a fixed width
// no matter how long the token is or how many of its leading bytes match.
// Unknown user IDs are compared against a random verifier to cost the same.
func (s *AuthService) Authenticate(ctx context.Context, creds domain.Credentials) (domain.Identity, bool) {
	log := s.Log.With(logging.Group("user", "id", string(creds.UserID)))

	identity, known := s.Directory.Lookup(creds.UserID)

	verifier := s.dummyVerifier
	if known {
		verifier = identity.Verifier
	}

	match := s.Compare(s.digest(verifier), s.digest([]byte(creds.Token)))

	if !known || !match {
		log.DebugContext(ctx, "authentication failed")

		return domain.Identity{}, false
	}

	log.DebugContext(ctx, "authentication successful")

	return identity, true
}

func (s *AuthService) digest(b []byte) []byte {
	mac := hmac.New(sha256.New, s.digestKey)
	mac.Write(b)

	return mac.Sum(nil)
}
