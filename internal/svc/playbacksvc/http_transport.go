package playbacksvc

import (
	"context"
	"html/template"
	"net/http"

	"github.com/mkrupp/mediagate/internal/domain"
	context_ "github.com/mkrupp/mediagate/internal/infra/context"
	"github.com/mkrupp/mediagate/internal/infra/logging"
	http_ "github.com/mkrupp/mediagate/internal/infra/transport/http"
	"github.com/mkrupp/mediagate/internal/repo/audit"
)

//nolint:gochecknoglobals
var page = template.Must(template.New("playback").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Playback</title></head>
<body>
{{- if .Done}}
{{- if .Succeeded}}
<h1>Media toggled!</h1>
{{- else}}
<h1>Toggle failed</h1>
<pre>{{.Diagnostic}}</pre>
{{- end}}
{{- end}}
<form method="post"><button type="submit">Play / Pause</button></form>
</body>
</html>
`))

type pageData struct {
	Done       bool
	Succeeded  bool
	Diagnostic string
}

// HTTPTransport serves the playback toggle. It expects to be mounted behind the
// route guard, which puts the admitted identity into the request context.
type HTTPTransport struct {
	invoker   Invoker
	auditRepo audit.Repository
	log       logging.Logger
}

var _ http_.HTTPTransport = (*HTTPTransport)(nil)

// NewHTTPTransport creates a new HTTPTransport invoking the given Invoker.
func NewHTTPTransport(invoker Invoker, auditRepo audit.Repository) *HTTPTransport {
	return &HTTPTransport{
		invoker:   invoker,
		auditRepo: auditRepo,
		log:       logging.GetLogger("svc.playbacksvc.http_transport"),
	}
}

// ServeHTTP implements http.Handler:
// - GET: render the toggle page
// - POST: toggle playback and render the outcome (500 on failure).
func (ht *HTTPTransport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		ht.render(w, r, http.StatusOK, pageData{})
	case http.MethodPost:
		ht.HandleToggle(w, r)
	default:
		w.Header().Set("Allow", "GET, HEAD, POST")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	}
}

// HandleToggle invokes the action once and renders its result.
func (ht *HTTPTransport) HandleToggle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := ht.log.With(logging.Group("http", "method", r.Method, "path", r.URL.Path))

	// the guard's identity is attached to log records by the context handler
	identity, _ := context_.IdentityFromContext(ctx)

	succeeded, diagnostic := ht.invoker.Invoke(ctx)

	if err := ht.auditRepo.Record(context.WithoutCancel(ctx), domain.AuditEvent{
		Kind:       domain.AuditKindAction,
		UserID:     identity.ID,
		Success:    succeeded,
		Detail:     diagnostic,
		RemoteAddr: http_.ClientHost(r),
	}); err != nil {
		log.ErrorContext(ctx, "record audit event failed", "error", err)
	}

	status := http.StatusOK
	if !succeeded {
		status = http.StatusInternalServerError

		log.ErrorContext(ctx, "playback toggle failed", "diagnostic", diagnostic)
	} else {
		log.InfoContext(ctx, "playback toggled")
	}

	ht.render(w, r, status, pageData{Done: true, Succeeded: succeeded, Diagnostic: diagnostic})
}

func (ht *HTTPTransport) render(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)

	if err := page.Execute(w, data); err != nil {
		ht.log.ErrorContext(r.Context(), "render page failed", "error", err)
	}
}
