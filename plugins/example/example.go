// Package example is the minimal stateless plugin: an init entry point, a
// greeting and integer addition.
package example

import (
	"context"
	"log/slog"

	"github.com/nom-cli/plugin-sdk/application/plugin"
	"github.com/nom-cli/plugin-sdk/domain/entities"
)

// Name is the module name of the example plugin.
const Name = "nom-example-plugin"

// Greeting is logged by hello.
const Greeting = "Hello from Nom plugin!"

type exampleConfig struct {
	logger *slog.Logger
}

// Option configures the example plugin.
type Option func(*exampleConfig)

// WithLogger sets where the plugin writes its messages.
func WithLogger(l *slog.Logger) Option {
	return func(c *exampleConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// New returns the example plugin definition.
func New(opts ...Option) *plugin.Definition {
	cfg := exampleConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}
	logger := cfg.logger.With("plugin", Name)

	def := plugin.DefinePlugin(plugin.PluginDef{
		Name:        Name,
		Version:     "0.1.0",
		Description: "Example plugin for Nom CLI",
		Author:      "Nom",
	})

	def.OnInit(func(ctx context.Context) (entities.InitStatus, error) {
		logger.InfoContext(ctx, "Initializing example plugin...")
		return entities.InitStatusOK, nil
	})

	def.Func(plugin.Op{
		Name:        "hello",
		Description: "Prints a greeting and returns 0",
		Result:      entities.KindInteger,
	}, func(ctx context.Context, _ *plugin.Call) (any, error) {
		logger.InfoContext(ctx, Greeting)
		return int64(0), nil
	})

	def.Func(plugin.Op{
		Name:        "add",
		Description: "Adds two integers",
		Params:      []entities.ValueKind{entities.KindInteger, entities.KindInteger},
		Result:      entities.KindInteger,
	}, func(ctx context.Context, call *plugin.Call) (any, error) {
		a, b := call.Args.Int(0), call.Args.Int(1)
		sum := a + b
		logger.DebugContext(ctx, "adding", "a", a, "b", b, "sum", sum)
		return sum, nil
	})

	return def
}
