package host

import (
	"log/slog"

	"github.com/nom-cli/plugin-sdk/host/registry"
	"github.com/nom-cli/plugin-sdk/hostfuncs"
)

// hostConfig holds configuration for the Host.
type hostConfig struct {
	logger             *slog.Logger
	callbackMiddleware []hostfuncs.Middleware
	registryOptions    []registry.RegistryOption
	requireInit        bool
}

func defaultHostConfig() hostConfig {
	return hostConfig{
		logger:      slog.Default(),
		requireInit: true, // Secure default: no plugin code before init succeeds
	}
}

// Option configures a Host.
type Option func(*hostConfig)

// WithLogger sets the structured logger used by the host and every callback channel.
func WithLogger(l *slog.Logger) Option {
	return func(c *hostConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithCallbackMiddleware adds middleware applied to every registered callback.
func WithCallbackMiddleware(mw ...hostfuncs.Middleware) Option {
	return func(c *hostConfig) {
		c.callbackMiddleware = append(c.callbackMiddleware, mw...)
	}
}

// WithRegistryOptions passes options to the instance registry.
func WithRegistryOptions(opts ...registry.RegistryOption) Option {
	return func(c *hostConfig) {
		c.registryOptions = append(c.registryOptions, opts...)
	}
}

// WithRequireInit controls whether calls and constructs are refused until the
// module's init has succeeded. Default is true.
func WithRequireInit(enabled bool) Option {
	return func(c *hostConfig) {
		c.requireInit = enabled
	}
}
