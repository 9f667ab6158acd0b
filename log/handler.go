// Package log provides a slog.Handler that writes records into a logger
// plugin instance through the boundary, so host-side diagnostics land in the
// same journal as plugin logs.
package log

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nom-cli/plugin-sdk/domain/entities"
	"github.com/nom-cli/plugin-sdk/wireformat"
)

// Invoker runs an operation on a live instance. *host.Host satisfies it.
type Invoker interface {
	Invoke(ctx context.Context, handle entities.Handle, op string, args []byte) ([]byte, error)
}

// JournalHandler implements slog.Handler by invoking the logger plugin's
// info, warn, error and debug operations on one instance.
type JournalHandler struct {
	invoker Invoker
	handle  entities.Handle
	attrs   []field
	group   string
	opts    handlerConfig
}

// HandlerOption configures the JournalHandler.
type HandlerOption func(*handlerConfig)

type handlerConfig struct {
	level slog.Leveler
}

// defaultHandlerConfig returns the default configuration.
func defaultHandlerConfig() handlerConfig {
	return handlerConfig{
		level: slog.LevelInfo,
	}
}

// WithLevel sets the minimum log level to report.
func WithLevel(level slog.Leveler) HandlerOption {
	return func(c *handlerConfig) {
		if level != nil {
			c.level = level
		}
	}
}

// NewHandler creates a handler writing to the logger instance behind handle.
func NewHandler(invoker Invoker, handle entities.Handle, opts ...HandlerOption) *JournalHandler {
	cfg := defaultHandlerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &JournalHandler{invoker: invoker, handle: handle, opts: cfg}
}

// Enabled reports whether the handler handles records at the given level.
func (h *JournalHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.level.Level()
}

// Handle writes one record. Debug records carry their attributes as JSON
// metadata; other levels append them to the message as key=value pairs.
func (h *JournalHandler) Handle(ctx context.Context, record slog.Record) error {
	fields := make([]field, 0, len(h.attrs)+record.NumAttrs())
	fields = append(fields, h.attrs...)
	record.Attrs(func(attr slog.Attr) bool {
		fields = appendFields(fields, h.group, attr)
		return true
	})

	op := operationFor(record.Level)

	var args []any
	if op == "debug" {
		metadata, err := encodeFields(fields)
		if err != nil {
			return err
		}
		args = []any{record.Message, metadata}
	} else {
		args = []any{withFields(record.Message, fields)}
	}

	payload, err := wireformat.EncodeArgs(args...)
	if err != nil {
		return err
	}
	if _, err := h.invoker.Invoke(ctx, h.handle, op, payload); err != nil {
		return fmt.Errorf("log %s: %w", op, err)
	}
	return nil
}

// WithAttrs returns a new JournalHandler that includes the given attributes.
func (h *JournalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	next := *h
	next.attrs = append([]field(nil), h.attrs...)
	for _, attr := range attrs {
		next.attrs = appendFields(next.attrs, h.group, attr)
	}
	return &next
}

// WithGroup returns a new JournalHandler that prefixes later keys with name.
func (h *JournalHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.group = joinKey(h.group, name)
	return &next
}

func operationFor(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "error"
	case level >= slog.LevelWarn:
		return "warn"
	case level >= slog.LevelInfo:
		return "info"
	default:
		return "debug"
	}
}

func withFields(message string, fields []field) string {
	if len(fields) == 0 {
		return message
	}
	var b strings.Builder
	b.WriteString(message)
	for _, f := range fields {
		fmt.Fprintf(&b, " %s=%v", f.key, f.value)
	}
	return b.String()
}
