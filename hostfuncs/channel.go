package hostfuncs

import (
	"context"
	"log/slog"
	"sync"

	"github.com/nom-cli/plugin-sdk/domain/entities"
	"github.com/nom-cli/plugin-sdk/domain/errors"
)

// channelConfig holds configuration for a Channel.
type channelConfig struct {
	logger     *slog.Logger
	middleware []Middleware
}

func defaultChannelConfig() channelConfig {
	return channelConfig{
		logger:     slog.Default(),
		middleware: []Middleware{PanicRecoveryMiddleware()},
	}
}

// ChannelOption configures a Channel.
type ChannelOption func(*channelConfig)

// WithLogger sets the logger used to report swallowed callback failures.
func WithLogger(l *slog.Logger) ChannelOption {
	return func(c *channelConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMiddleware appends middleware applied to every registered callback.
// Panic recovery always stays outermost.
func WithMiddleware(mw ...Middleware) ChannelOption {
	return func(c *channelConfig) {
		c.middleware = append(c.middleware, mw...)
	}
}

// Channel is the zero-or-one callback slot of one instance.
// It is safe for concurrent use; the slot is read under lock and the callback
// runs outside it, so a callback may re-register.
type Channel struct {
	cb     Callback
	config channelConfig
	handle entities.Handle
	mu     sync.Mutex
	closed bool
}

// NewChannel creates an empty channel for the instance behind handle.
func NewChannel(handle entities.Handle, opts ...ChannelOption) *Channel {
	cfg := defaultChannelConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Channel{config: cfg, handle: handle}
}

// Register installs cb, replacing any previous callback. A nil cb clears the slot.
func (c *Channel) Register(cb Callback) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return errors.ErrChannelClosed
	}
	if cb == nil {
		c.cb = nil
		return nil
	}
	c.cb = Chain(cb, c.config.middleware...)
	return nil
}

// Registered reports whether a callback is installed.
func (c *Channel) Registered() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cb != nil
}

// Fire invokes the registered callback synchronously with payload.
// Without a registration, or after Close, it does nothing.
func (c *Channel) Fire(ctx context.Context, payload string) {
	c.mu.Lock()
	cb, closed := c.cb, c.closed
	c.mu.Unlock()

	if closed {
		c.config.logger.WarnContext(ctx, "callback fired after teardown, dropped", "handle", c.handle)
		return
	}
	if cb == nil {
		return
	}

	if err := cb(WithHandle(ctx, c.handle), payload); err != nil {
		c.config.logger.WarnContext(ctx, "callback failed", "handle", c.handle, "error", err)
	}
}

// Close drops the registration and refuses further registrations.
func (c *Channel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cb = nil
	c.closed = true
}
