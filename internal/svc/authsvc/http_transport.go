package authsvc

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mkrupp/mediagate/internal/domain"
	"github.com/mkrupp/mediagate/internal/infra/logging"
	http_ "github.com/mkrupp/mediagate/internal/infra/transport/http"
	"github.com/mkrupp/mediagate/internal/repo/audit"
	"github.com/mkrupp/mediagate/internal/util/text"
)

const (
	// FormUserID is the login form field carrying the claimed user ID.
	FormUserID = "user_id"
	// FormToken is the login form field carrying the plaintext token.
	FormToken = "token"

	maxAuditUserIDLength = 128
	maxLoginBodySize     = 64 << 10
)

var (
	// ErrNoUserID is returned when the user ID is missing from the login request.
	ErrNoUserID = errors.New("no user id")
	// ErrNoToken is returned when the token is missing from the login request.
	ErrNoToken = errors.New("no token")
)

//nolint:gochecknoglobals
var loginPage = template.Must(template.New("login").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Sign in</title></head>
<body>
<form method="post" action="{{.Action}}">
<label>User ID <input name="{{.UserIDField}}" autocomplete="username"></label>
<label>Token <input name="{{.TokenField}}" type="password" autocomplete="current-password"></label>
<button type="submit">Sign in</button>
</form>
</body>
</html>
`))

// HTTPTransportConfig contains configuration parameters for the HTTP transport layer.
type HTTPTransportConfig struct {
	http_.HTTPTransportConfig

	// LoginPath serves the login form (GET) and accepts credentials (POST)
	LoginPath string `env:"LOGIN_PATH" default:"/login"`

	// LogoutPath invalidates the current session (POST)
	LogoutPath string `env:"LOGOUT_PATH" default:"/logout"`

	// ProtectedPath is where the protected handler is mounted
	ProtectedPath string `env:"PROTECTED_PATH" default:"/playpause"`

	// GuardPolicy is "redirect" (to LoginPath) or "reject" (401)
	GuardPolicy string `env:"GUARD_POLICY" default:"redirect"`

	// LoginAttemptsPerMinute limits login attempts per client host; 0 disables the limit
	LoginAttemptsPerMinute int `env:"LOGIN_ATTEMPTS_PER_MINUTE" default:"10"`
}

// HTTPTransport serves the login flow and mounts the protected handler behind the route guard.
type HTTPTransport struct {
	authSvc   *AuthService
	sessions  *SessionManager
	cookie    *SessionCookie
	auditRepo audit.Repository
	router    chi.Router
	log       logging.Logger
	cfg       HTTPTransportConfig
}

var _ http_.HTTPTransport = (*HTTPTransport)(nil)

// NewHTTPTransport creates a new HTTPTransport and builds its routes:
// - GET  /healthz: liveness probe
// - GET  {LoginPath}: login form
// - POST {LoginPath}: verify credentials and start a session
// - POST {LogoutPath}: end the current session
// - *    {ProtectedPath}: the protected handler, guarded unless authCfg.Enabled is false.
func NewHTTPTransport(
	authSvc *AuthService,
	sessions *SessionManager,
	cookie *SessionCookie,
	auditRepo audit.Repository,
	protected http.Handler,
	authCfg AuthConfig,
	cfg HTTPTransportConfig,
) (*HTTPTransport, error) {
	ht := &HTTPTransport{
		authSvc:   authSvc,
		sessions:  sessions,
		cookie:    cookie,
		auditRepo: auditRepo,
		log:       logging.GetLogger("svc.authsvc.http_transport"),
		cfg:       cfg,
	}

	policy, err := ParseGuardPolicy(cfg.GuardPolicy)
	if err != nil {
		return nil, fmt.Errorf("parse guard policy: %w", err)
	}

	var limiter *http_.KeyedRateLimiter
	if cfg.LoginAttemptsPerMinute > 0 {
		limiter = http_.NewKeyedRateLimiter(cfg.LoginAttemptsPerMinute)
	}

	router := chi.NewRouter()
	router.Get("/healthz", ht.HandleHealth)
	router.Get(cfg.LoginPath, ht.HandleLoginPage)
	router.With(http_.RateLimitingMiddleware(limiter, ht.log)).Post(cfg.LoginPath, ht.HandleLogin)
	router.Post(cfg.LogoutPath, ht.HandleLogout)

	if authCfg.Enabled {
		guard := NewRouteGuard(sessions, cookie, policy, cfg.LoginPath)
		router.With(guard.Middleware).Handle(cfg.ProtectedPath, protected)
	} else {
		ht.log.Warn("authentication disabled, protected route is open", "path", cfg.ProtectedPath)
		router.Handle(cfg.ProtectedPath, protected)
	}

	ht.router = router

	return ht, nil
}

// ServeHTTP implements http.Handler.
func (ht *HTTPTransport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ht.router.ServeHTTP(w, r)
}

// HandleHealth reports liveness.
func (ht *HTTPTransport) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

// HandleLoginPage renders the login form.
func (ht *HTTPTransport) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")

	if err := loginPage.Execute(w, map[string]string{
		"Action":      ht.cfg.LoginPath,
		"UserIDField": FormUserID,
		"TokenField":  FormToken,
	}); err != nil {
		ht.log.ErrorContext(r.Context(), "render login page failed", "error", err)
	}
}

// HandleLogin processes login requests.
// Expects form parameters: user_id, token.
// Sets the session cookie and redirects to the protected path on success.
// Every failure answers 401 without saying which field was wrong.
func (ht *HTTPTransport) HandleLogin(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleLogin(w, r)
}

func (ht *HTTPTransport) handleLogin(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.log.With(logging.Group("http", "method", r.Method, "path", r.URL.Path))

	var userID domain.UserID

	defer func(ctx context.Context) {
		ht.audit(ctx, domain.AuditEvent{
			Kind:       domain.AuditKindLogin,
			UserID:     userID,
			Success:    err == nil,
			RemoteAddr: http_.ClientHost(r),
		})

		switch {
		case err == nil:
			log.InfoContext(ctx, "user logged in")
		case errors.Is(err, domain.ErrInvalidCredentials):
			log.WarnContext(ctx, "user login rejected", "error", err)
		default:
			log.ErrorContext(ctx, "user login failed", "error", err)
		}
	}(r.Context())

	// Parse form
	r.Body = http.MaxBytesReader(w, r.Body, maxLoginBodySize)

	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)

		return fmt.Errorf("parse form: %w", err)
	}

	creds := domain.Credentials{
		UserID: domain.UserID(r.PostFormValue(FormUserID)),
		Token:  r.PostFormValue(FormToken),
	}

	// the claimed id is authenticated in full; only its record is capped
	userID = domain.UserID(text.Truncate(string(creds.UserID), maxAuditUserIDLength))

	log = log.With(logging.Group("user", "id", string(userID)))

	if creds.UserID == "" {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)

		return errors.Join(domain.ErrInvalidCredentials, ErrNoUserID)
	}

	if creds.Token == "" {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)

		return errors.Join(domain.ErrInvalidCredentials, ErrNoToken)
	}

	// Authenticate
	identity, ok := ht.authSvc.Authenticate(r.Context(), creds)
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)

		return domain.ErrInvalidCredentials
	}

	// Start session
	token, err := ht.sessions.CreateSession(r.Context(), identity)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)

		return fmt.Errorf("create session: %w", err)
	}

	if err := ht.cookie.Write(w, token); err != nil {
		ht.sessions.Invalidate(r.Context(), token)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)

		return fmt.Errorf("write cookie: %w", err)
	}

	http.Redirect(w, r, ht.cfg.ProtectedPath, http.StatusFound)

	return nil
}

// HandleLogout invalidates the session named by the cookie, clears the cookie
// and redirects to the login page. It succeeds without a session as well.
func (ht *HTTPTransport) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if token, err := ht.cookie.Read(r); err == nil {
		identity, ok := ht.sessions.Validate(ctx, token)
		ht.sessions.Invalidate(ctx, token)

		if ok {
			ht.audit(ctx, domain.AuditEvent{
				Kind:       domain.AuditKindLogout,
				UserID:     identity.ID,
				Success:    true,
				RemoteAddr: http_.ClientHost(r),
			})
			ht.log.InfoContext(ctx, "user logged out", logging.Group("user", "id", string(identity.ID)))
		}
	}

	ht.cookie.Clear(w)
	http.Redirect(w, r, ht.cfg.LoginPath, http.StatusFound)
}

func (ht *HTTPTransport) audit(ctx context.Context, event domain.AuditEvent) {
	// the audit trail outlives aborted requests
	if err := ht.auditRepo.Record(context.WithoutCancel(ctx), event); err != nil {
		ht.log.ErrorContext(ctx, "record audit event failed", "kind", string(event.Kind), "error", err)
	}
}
