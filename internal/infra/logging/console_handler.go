package logging

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
	"time"
)

const (
	ansiReset  = "\033[0m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiCyan   = "\033[36m"
	ansiGray   = "\033[90m"
	ansiBold   = "\033[1m"
)

// ConsoleHandler writes one human-readable line per record:
//
//	15:04:05.000 INF svc.authsvc.http_transport user logged in | user.id=... (http_transport.go:201)
//
// Level filtering is left to the handlers wrapping it.
type ConsoleHandler struct {
	out   io.Writer
	mu    *sync.Mutex
	color bool

	name   string
	attrs  []byte
	groups string
}

var _ slog.Handler = (*ConsoleHandler)(nil)

// NewConsoleHandler creates a ConsoleHandler writing to out, with ANSI colors if color is set.
func NewConsoleHandler(out io.Writer, color bool) *ConsoleHandler {
	return &ConsoleHandler{out: out, mu: new(sync.Mutex), color: color}
}

// Enabled implements slog.Handler.Enabled.
func (h *ConsoleHandler) Enabled(context.Context, slog.Level) bool {
	return true
}

// Handle implements slog.Handler.Handle.
func (h *ConsoleHandler) Handle(_ context.Context, r slog.Record) error {
	buf := new(bytes.Buffer)

	h.paint(buf, ansiGray, r.Time.Format(time.TimeOnly+".000"))
	buf.WriteByte(' ')
	h.paint(buf, levelColor(r.Level), levelLabel(r.Level))

	if h.name != "" {
		buf.WriteByte(' ')
		h.paint(buf, ansiGray, h.name)
	}

	buf.WriteByte(' ')
	h.paint(buf, ansiBold, r.Message)

	attrs := bytes.NewBuffer(bytes.Clone(h.attrs))

	r.Attrs(func(a slog.Attr) bool {
		h.appendAttr(attrs, h.groups, a)

		return true
	})

	if attrs.Len() > 0 {
		buf.WriteString(" |")
		buf.Write(attrs.Bytes())
	}

	if r.PC != 0 {
		frame, _ := runtime.CallersFrames([]uintptr{r.PC}).Next()
		buf.WriteByte(' ')
		h.paint(buf, ansiGray, "("+filepath.Base(frame.File)+":"+strconv.Itoa(frame.Line)+")")
	}

	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.out.Write(buf.Bytes())

	//nolint:wrapcheck
	return err
}

// WithAttrs implements slog.Handler.WithAttrs. The logger name is lifted out of
// the attributes and printed in front of the message.
func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	buf := bytes.NewBuffer(bytes.Clone(h.attrs))

	for _, a := range attrs {
		if a.Key == loggerNameKey && h.groups == "" {
			clone.name = a.Value.String()

			continue
		}

		h.appendAttr(buf, h.groups, a)
	}

	clone.attrs = buf.Bytes()

	return &clone
}

// WithGroup implements slog.Handler.WithGroup.
func (h *ConsoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	clone := *h
	clone.groups = h.groups + name + "."

	return &clone
}

func (h *ConsoleHandler) appendAttr(buf *bytes.Buffer, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()

	if a.Equal(slog.Attr{}) { //nolint:exhaustruct
		return
	}

	if a.Value.Kind() == slog.KindGroup {
		if a.Key != "" {
			prefix += a.Key + "."
		}

		for _, ga := range a.Value.Group() {
			h.appendAttr(buf, prefix, ga)
		}

		return
	}

	buf.WriteByte(' ')
	buf.WriteString(prefix + a.Key + "=")
	h.paint(buf, ansiGray, quoteIfNeeded(a.Value.String()))
}

func (h *ConsoleHandler) paint(buf *bytes.Buffer, code, s string) {
	if h.color && code != "" {
		buf.WriteString(code + s + ansiReset)

		return
	}

	buf.WriteString(s)
}

func quoteIfNeeded(s string) string {
	for _, c := range s {
		if c <= ' ' || c == '"' || c == '=' {
			return strconv.Quote(s)
		}
	}

	return s
}

func levelLabel(level slog.Level) string {
	switch {
	case level < LevelInfo:
		return "DBG"
	case level < LevelWarn:
		return "INF"
	case level < LevelError:
		return "WRN"
	default:
		return "ERR"
	}
}

func levelColor(level slog.Level) string {
	switch {
	case level < LevelInfo:
		return ansiCyan
	case level < LevelWarn:
		return ansiGreen
	case level < LevelError:
		return ansiYellow
	default:
		return ansiRed
	}
}
