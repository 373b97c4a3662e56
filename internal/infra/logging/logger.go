package logging

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
)

// Log levels, re-exported so callers need not import log/slog.
const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// loggerNameKey is the attribute key carrying the name passed to GetLogger.
const loggerNameKey = "logger"

type (
	Logger  = *slog.Logger
	Handler = slog.Handler
	Level   = slog.Level
)

//nolint:gochecknoglobals
var (
	Group      = slog.Group
	GroupValue = slog.GroupValue
)

// LoggerConfig holds configuration parameters for logging.
type LoggerConfig struct {
	// Output is "stdout", "stderr", "discard" or a file path opened for appending
	Output string `env:"OUTPUT" default:"stderr"`

	// Level is the minimum level: debug, info, warn or error
	Level string `env:"LEVEL" default:"info"`

	// Filter overrides the level per logger name prefix, e.g. "svc.authsvc:debug,repo:warn"
	Filter string `env:"FILTER" default:""`

	// JSON switches from the console format to one JSON object per line
	JSON bool `env:"JSON" default:"false"`

	// Color forces ANSI colors on or off in console output; "auto" colors terminals only
	Color string `env:"COLOR" default:"auto"`

	// Redact lists attribute keys whose values are masked in every record
	Redact string `env:"REDACT" default:"token,secret,password,cookie"`

	// Writer overrides Output when set
	Writer io.Writer
}

type setup struct {
	app     string
	writer  io.Writer
	level   *slog.LevelVar
	filter  levelFilter
	json    bool
	color   bool
	redact  []string
	discard bool
}

//nolint:gochecknoglobals
var (
	current   = setup{discard: true, level: new(slog.LevelVar)}
	currentMu sync.RWMutex
)

// Configure installs the global logging setup. Loggers obtained from GetLogger
// before the call keep the previous setup.
func Configure(ctx context.Context, cfg LoggerConfig, appName string) {
	s, err := newSetup(cfg, appName)
	if err != nil {
		panic(err)
	}

	currentMu.Lock()
	current = s
	currentMu.Unlock()

	slog.SetLogLoggerLevel(s.level.Level())

	GetLogger("infra.logging").DebugContext(ctx, "logging configured", Group("config",
		"output", cfg.Output,
		"level", s.level.Level().String(),
		"filter", cfg.Filter,
		"json", s.json,
		"color", s.color,
	))
}

func newSetup(cfg LoggerConfig, appName string) (setup, error) {
	s := setup{
		app:    appName,
		writer: cfg.Writer,
		level:  new(slog.LevelVar),
		filter: parseLevelFilter(cfg.Filter),
		json:   cfg.JSON,
		redact: splitList(cfg.Redact),
	}

	s.level.Set(parseLevel(cfg.Level, LevelInfo))

	if s.writer == nil {
		switch cfg.Output {
		case "", "discard":
			s.discard = true
		case "stdout":
			s.writer = os.Stdout
		case "stderr":
			s.writer = os.Stderr
		default:
			file, err := os.OpenFile(cfg.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o640)
			if err != nil {
				return setup{}, fmt.Errorf("open log file: %w", err)
			}

			s.writer = file
		}
	}

	switch strings.ToLower(cfg.Color) {
	case "always", "true", "on":
		s.color = true
	case "auto", "":
		if f, ok := s.writer.(*os.File); ok {
			s.color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
		}
	}

	return s, nil
}

// GetLogger returns a logger tagged with name under the current setup.
// Names are dotted paths ("svc.authsvc.route_guard"); Filter rules match their prefixes.
func GetLogger(name string) Logger {
	currentMu.RLock()
	s := current
	currentMu.RUnlock()

	if s.discard {
		return Discard()
	}

	var handler slog.Handler

	if s.json {
		//nolint:exhaustruct
		handler = slog.NewJSONHandler(s.writer, &slog.HandlerOptions{AddSource: true, Level: LevelDebug})
	} else {
		handler = NewConsoleHandler(s.writer, s.color)
	}

	handler = NewRedactingHandler(handler, s.redact)
	handler = NewContextHandler(handler)

	logger := slog.New(&filteringHandler{
		next:  handler,
		level: s.filter.levelFor(name, s.level),
	})

	if s.app != "" {
		logger = logger.With("app", s.app)
	}

	return logger.With(loggerNameKey, name)
}

// GetLogLogger adapts logger for APIs that want a *log.Logger, such as http.Server.ErrorLog.
func GetLogLogger(logger Logger, level Level) *log.Logger {
	return slog.NewLogLogger(logger.With("stdlog", true).Handler(), level)
}

// Discard returns a logger that drops every record.
func Discard() Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: LevelError + 1})) //nolint:exhaustruct
}

// filteringHandler drops records below the level resolved for its logger name.
type filteringHandler struct {
	next  slog.Handler
	level slog.Leveler
}

func (h *filteringHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *filteringHandler) Handle(ctx context.Context, r slog.Record) error {
	//nolint:wrapcheck
	return h.next.Handle(ctx, r)
}

func (h *filteringHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &filteringHandler{next: h.next.WithAttrs(attrs), level: h.level}
}

func (h *filteringHandler) WithGroup(name string) slog.Handler {
	return &filteringHandler{next: h.next.WithGroup(name), level: h.level}
}

// levelFilter maps logger name prefixes to minimum levels.
type levelFilter map[string]slog.Level

func parseLevelFilter(s string) levelFilter {
	filter := make(levelFilter)

	for _, rule := range splitList(s) {
		name, level, ok := strings.Cut(rule, ":")
		if !ok {
			continue
		}

		filter[strings.TrimSpace(name)] = parseLevel(level, LevelDebug)
	}

	return filter
}

// levelFor returns the level of the longest rule matching name, or fallback.
func (f levelFilter) levelFor(name string, fallback slog.Leveler) slog.Leveler {
	for key := name; key != ""; {
		if level, ok := f[key]; ok {
			return level
		}

		i := strings.LastIndexByte(key, '.')
		if i < 0 {
			break
		}

		key = key[:i]
	}

	return fallback
}

func splitList(s string) []string {
	var out []string

	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}

	return out
}

func parseLevel(s string, fallback Level) Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return fallback
	}

	return level
}
