package playbacksvc

import (
	"context"
	"errors"
	"os/exec"
	"strings"

	"github.com/mkrupp/mediagate/internal/infra/logging"
	"github.com/mkrupp/mediagate/internal/util/text"
)

const maxDiagnosticLength = 512

// CommandInvoker implements Invoker by running an external command.
type CommandInvoker struct {
	cfg PlaybackConfig
	log logging.Logger
}

var _ Invoker = (*CommandInvoker)(nil)

// NewCommandInvoker creates a new CommandInvoker with the given configuration.
func NewCommandInvoker(cfg PlaybackConfig) *CommandInvoker {
	return &CommandInvoker{
		cfg: cfg,
		log: logging.GetLogger("svc.playbacksvc.command_invoker").With(
			logging.Group("command", "name", cfg.Command, "args", cfg.Args),
		),
	}
}

// Invoke implements Invoker.Invoke. The command is killed once the configured
// timeout elapses. The diagnostic is the trimmed combined output, or the error
// when there is no output.
func (c *CommandInvoker) Invoke(ctx context.Context) (bool, string) {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	//nolint:gosec // command and args come from operator configuration
	cmd := exec.CommandContext(ctx, c.cfg.Command, strings.Fields(c.cfg.Args)...)

	out, err := cmd.CombinedOutput()
	diagnostic := text.Truncate(strings.TrimSpace(string(out)), maxDiagnosticLength)

	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = ctx.Err()
		}

		if diagnostic == "" {
			diagnostic = err.Error()
		}

		c.log.WarnContext(ctx, "command failed", "error", err, "output", diagnostic)

		return false, diagnostic
	}

	c.log.DebugContext(ctx, "command succeeded", "output", diagnostic)

	return true, diagnostic
}
