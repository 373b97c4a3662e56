package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mkrupp/mediagate/internal/infra/config"
	"github.com/mkrupp/mediagate/internal/infra/logging"
	"github.com/mkrupp/mediagate/internal/infra/transport/http"
	"github.com/mkrupp/mediagate/internal/repo/audit"
	"github.com/mkrupp/mediagate/internal/svc/authsvc"
	"github.com/mkrupp/mediagate/internal/svc/playbacksvc"
)

const (
	appName = "mediagate"
	svcName = "server"
)

type Config struct {
	config.EnvConfig

	Log      logging.LoggerConfig              `envPrefix:"LOG_"`
	Auth     authsvc.AuthConfig                `envPrefix:"AUTH_"`
	Session  authsvc.SessionConfig             `envPrefix:"SESSION_"`
	HTTP     authsvc.HTTPTransportConfig       `envPrefix:"HTTP_"`
	Playback playbacksvc.PlaybackConfig        `envPrefix:"PLAYBACK_"`
	Audit    audit.SQLiteAuditRepositoryConfig `envPrefix:"AUDIT_"`
}

func main() {
	var (
		cfg Config
		ctx = context.Background()

		configPrefix = strings.ToUpper(strings.Join([]string{appName, svcName}, "_"))
		loggerName   = strings.ToLower(strings.Join([]string{appName, svcName}, "."))
	)

	if err := config.Parse(ctx, &cfg, configPrefix); err != nil {
		panic(err)
	}

	logging.Configure(ctx, cfg.Log, loggerName)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		panic(err)
	}
}

func run(ctx context.Context, cfg Config) (err error) {
	log := logging.GetLogger("cmd.mediagate")

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "error", "err", err)
			panic(err)
		}

		log.InfoContext(ctx, "shutdown")
	}()

	// Bootstrap secret and identity
	secret, err := authsvc.ObtainSecret(cfg.Auth.SecretFile)
	if err != nil {
		return fmt.Errorf("obtain secret: %w", err)
	}

	directory := authsvc.NewUserDirectory()

	identity, err := authsvc.ProvisionIdentity(directory, cfg.Auth.UserID, secret)
	if err != nil {
		return fmt.Errorf("provision identity: %w", err)
	}

	log.InfoContext(ctx, "identity provisioned",
		logging.Group("user", "id", string(identity.ID)),
		"secret_file", cfg.Auth.SecretFile,
	)

	authSvc, err := authsvc.NewAuthService(directory)
	if err != nil {
		return fmt.Errorf("new auth service: %w", err)
	}

	// Sessions
	sessions := authsvc.NewSessionManager(directory, cfg.Session)
	go sessions.RunSweeper(ctx)

	cookie, err := authsvc.NewSessionCookie(cfg.Session)
	if err != nil {
		return fmt.Errorf("new session cookie: %w", err)
	}

	// Audit log
	auditRepo, err := audit.SQLiteAuditRepositoryFactory(cfg.Audit)()
	if err != nil {
		return fmt.Errorf("new audit repo: %w", err)
	}
	defer auditRepo.Close()

	// Transports
	playbackTransport := playbacksvc.NewHTTPTransport(
		playbacksvc.NewCommandInvoker(cfg.Playback),
		auditRepo,
	)

	httpTransport, err := authsvc.NewHTTPTransport(
		authSvc,
		sessions,
		cookie,
		auditRepo,
		playbackTransport,
		cfg.Auth,
		cfg.HTTP,
	)
	if err != nil {
		return fmt.Errorf("new http transport: %w", err)
	}

	if err := http.ListenAndServe(ctx, httpTransport, cfg.HTTP.HTTPTransportConfig); err != nil {
		return fmt.Errorf("listen and serve: %w", err)
	}

	return nil
}
