package authsvc

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/mkrupp/mediagate/internal/domain"
	context_ "github.com/mkrupp/mediagate/internal/infra/context"
	"github.com/mkrupp/mediagate/internal/infra/logging"
)

// GuardPolicy selects how the route guard answers requests without a valid session.
type GuardPolicy string

const (
	// GuardPolicyReject answers with 401 Unauthorized.
	GuardPolicyReject GuardPolicy = "reject"
	// GuardPolicyRedirect answers with a redirect to the login page.
	GuardPolicyRedirect GuardPolicy = "redirect"
)

// ErrUnknownGuardPolicy is returned for policies other than reject and redirect.
var ErrUnknownGuardPolicy = errors.New("unknown guard policy")

// ParseGuardPolicy validates a configured policy name.
func ParseGuardPolicy(s string) (GuardPolicy, error) {
	switch policy := GuardPolicy(s); policy {
	case GuardPolicyReject, GuardPolicyRedirect:
		return policy, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownGuardPolicy, s)
	}
}

// RouteGuard admits requests carrying a valid session cookie and stops all others
// before the protected handler runs.
type RouteGuard struct {
	sessions *SessionManager
	cookie   *SessionCookie
	policy   GuardPolicy
	loginURL string
	log      logging.Logger
}

// NewRouteGuard creates a RouteGuard. loginURL is only used by GuardPolicyRedirect.
func NewRouteGuard(
	sessions *SessionManager,
	cookie *SessionCookie,
	policy GuardPolicy,
	loginURL string,
) *RouteGuard {
	return &RouteGuard{
		sessions: sessions,
		cookie:   cookie,
		policy:   policy,
		loginURL: loginURL,
		log:      logging.GetLogger("svc.authsvc.route_guard"),
	}
}

// Middleware wraps next with the guard. Admitted requests carry the identity
// in their context (see infra/context.IdentityFromContext).
func (g *RouteGuard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := g.authorize(r)
		if err != nil {
			g.log.InfoContext(r.Context(), "request denied",
				logging.Group("http", "method", r.Method, "path", r.URL.Path),
				"policy", string(g.policy),
				"error", err,
			)
			g.deny(w, r)

			return
		}

		next.ServeHTTP(w, r.WithContext(context_.WithIdentity(r.Context(), identity)))
	})
}

func (g *RouteGuard) authorize(r *http.Request) (domain.Identity, error) {
	token, err := g.cookie.Read(r)
	if err != nil {
		return domain.Identity{}, err
	}

	identity, ok := g.sessions.Validate(r.Context(), token)
	if !ok {
		return domain.Identity{}, domain.ErrInvalidSession
	}

	return identity, nil
}

func (g *RouteGuard) deny(w http.ResponseWriter, r *http.Request) {
	if g.policy == GuardPolicyRedirect {
		http.Redirect(w, r, g.loginURL, http.StatusFound)

		return
	}

	http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
}
