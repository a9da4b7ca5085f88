package logger

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"strings"

	"github.com/fatih/color"
)

// ColorHandler prints one colored line per record.
type ColorHandler struct {
	l     *log.Logger
	level slog.Level
	attrs []slog.Attr
}

func NewColorHandler(out io.Writer, level slog.Level) *ColorHandler {
	return &ColorHandler{
		l:     log.New(out, "", 0),
		level: level,
	}
}

func (h *ColorHandler) Handle(_ context.Context, r slog.Record) error {
	level := r.Level.String() + ":"

	switch r.Level {
	case slog.LevelDebug:
		level = color.MagentaString(level)
	case slog.LevelInfo:
		level = color.HiBlueString(level)
	case slog.LevelWarn:
		level = color.YellowString(level)
	case slog.LevelError:
		level = color.RedString(level)
	}

	var b strings.Builder
	write := func(a slog.Attr) bool {
		b.WriteString(color.GreenString(a.Key))
		b.WriteString("=")
		b.WriteString(fmt.Sprint(a.Value.Any()))
		b.WriteString(" ")
		return true
	}
	for _, a := range h.attrs {
		write(a)
	}
	r.Attrs(write)

	h.l.Println(
		r.Time.Format("15:04:05.000"),
		level,
		r.Message,
		strings.TrimSpace(b.String()),
	)
	return nil
}

func (h *ColorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &next
}

// WithGroup groups are flattened.
func (h *ColorHandler) WithGroup(_ string) slog.Handler {
	return h
}

func (h *ColorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

// ParseLevel maps debug|info|warn|error to a slog level; anything else is info.
func ParseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Setup installs the color handler as the default logger.
func Setup(out io.Writer, level string) *slog.Logger {
	l := slog.New(NewColorHandler(out, ParseLevel(level)))
	slog.SetDefault(l)
	return l
}
