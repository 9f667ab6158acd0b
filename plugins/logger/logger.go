// Package logger is an in-memory log journal plugin. Each Logger instance keeps
// the newest max_entries records and returns them oldest-first.
package logger

import (
	"context"
	"time"

	"github.com/nom-cli/plugin-sdk/application/plugin"
	"github.com/nom-cli/plugin-sdk/domain/entities"
)

const (
	// Name is the module name of the logger plugin.
	Name = "logger"

	// Class is the instance class exported by the plugin.
	Class = "Logger"

	// DefaultMaxEntries is the retention bound when none is configured.
	DefaultMaxEntries = 1000
)

// Config is the Logger constructor config.
type Config struct {
	MaxEntries int `json:"max_entries,omitempty" jsonschema:"minimum=1,maximum=1000000" validate:"omitempty,gte=1,lte=1000000"`
}

type loggerConfig struct {
	now func() time.Time
}

// Option configures the logger plugin.
type Option func(*loggerConfig)

// WithClock sets the timestamp source of new entries.
func WithClock(now func() time.Time) Option {
	return func(c *loggerConfig) {
		if now != nil {
			c.now = now
		}
	}
}

// New returns the logger plugin definition.
func New(opts ...Option) *plugin.Definition {
	cfg := loggerConfig{now: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		opt(&cfg)
	}

	def := plugin.DefinePlugin(plugin.PluginDef{
		Name:        Name,
		Version:     "0.1.0",
		Description: "Bounded in-memory log journal",
		Author:      "Nom",
	})

	text := []entities.ValueKind{entities.KindText}

	plugin.RegisterClass(def, Class, "Creates an empty journal", func(_ context.Context, c Config) (*journal, error) {
		limit := c.MaxEntries
		if limit == 0 {
			limit = DefaultMaxEntries
		}
		return newJournal(limit, cfg.now), nil
	}).
		Method(plugin.Op{Name: "info", Params: text, Mutates: true}, record(entities.LogLevelInfo)).
		Method(plugin.Op{Name: "warn", Params: text, Mutates: true}, record(entities.LogLevelWarn)).
		Method(plugin.Op{Name: "error", Params: text, Mutates: true}, record(entities.LogLevelError)).
		Method(plugin.Op{
			Name:    "debug",
			Params:  []entities.ValueKind{entities.KindText, entities.KindText},
			Mutates: true,
		}, record(entities.LogLevelDebug)).
		Method(plugin.Op{
			Name:        "get_logs",
			Description: "Returns retained entries oldest-first",
			Result:      entities.KindEnvelope,
			Fallible:    true,
		}, func(_ context.Context, j *journal, _ *plugin.Call) (any, error) {
			return j.snapshot(), nil
		}).
		Method(plugin.Op{Name: "clear", Mutates: true}, func(_ context.Context, j *journal, _ *plugin.Call) (any, error) {
			j.reset()
			return nil, nil
		})

	return def
}

// record returns the method for one level. The second argument, when the
// operation declares it, becomes the entry metadata.
func record(level entities.LogLevel) plugin.Method[journal] {
	return func(_ context.Context, j *journal, call *plugin.Call) (any, error) {
		var metadata *string
		if call.Args.Len() > 1 {
			m := call.Args.Text(1)
			metadata = &m
		}
		j.append(level, call.Args.Text(0), metadata)
		return nil, nil
	}
}
