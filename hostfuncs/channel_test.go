package hostfuncs

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/nom-cli/plugin-sdk/domain/errors"
)

func TestChannel_FireWithoutRegistration(t *testing.T) {
	ch := NewChannel("h-1")
	assert.False(t, ch.Registered())
	assert.NotPanics(t, func() { ch.Fire(context.Background(), `{"valid":true}`) })
}

func TestChannel_FireDeliversPayload(t *testing.T) {
	ch := NewChannel("h-1")

	var got []string
	require.NoError(t, ch.Register(func(_ context.Context, payload string) error {
		got = append(got, payload)
		return nil
	}))

	ch.Fire(context.Background(), "one")
	ch.Fire(context.Background(), "two")

	assert.Equal(t, []string{"one", "two"}, got)
}

func TestChannel_RegisterReplaces(t *testing.T) {
	ch := NewChannel("h-1")

	var first, second int
	require.NoError(t, ch.Register(func(context.Context, string) error { first++; return nil }))
	require.NoError(t, ch.Register(func(context.Context, string) error { second++; return nil }))

	ch.Fire(context.Background(), "x")

	assert.Equal(t, 0, first)
	assert.Equal(t, 1, second)
}

func TestChannel_RegisterNilClears(t *testing.T) {
	ch := NewChannel("h-1")
	require.NoError(t, ch.Register(func(context.Context, string) error { return nil }))
	require.NoError(t, ch.Register(nil))
	assert.False(t, ch.Registered())
}

func TestChannel_CallbackContextCarriesHandle(t *testing.T) {
	ch := NewChannel("h-42")

	var seen string
	require.NoError(t, ch.Register(func(ctx context.Context, _ string) error {
		seen = HandleFrom(ctx).String()
		return nil
	}))
	ch.Fire(context.Background(), "x")

	assert.Equal(t, "h-42", seen)
}

func TestChannel_FailuresAreSwallowed(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	t.Run("error", func(t *testing.T) {
		buf.Reset()
		ch := NewChannel("h-1", WithLogger(logger))
		require.NoError(t, ch.Register(func(context.Context, string) error { return errors.New("boom") }))

		assert.NotPanics(t, func() { ch.Fire(context.Background(), "x") })
		assert.Contains(t, buf.String(), "callback failed")
		assert.Contains(t, buf.String(), "boom")
	})

	t.Run("panic", func(t *testing.T) {
		buf.Reset()
		ch := NewChannel("h-1", WithLogger(logger))
		require.NoError(t, ch.Register(func(context.Context, string) error { panic("kaboom") }))

		assert.NotPanics(t, func() { ch.Fire(context.Background(), "x") })
		assert.Contains(t, buf.String(), "kaboom")
	})
}

func TestChannel_Close(t *testing.T) {
	ch := NewChannel("h-1")

	calls := 0
	require.NoError(t, ch.Register(func(context.Context, string) error { calls++; return nil }))
	ch.Close()

	ch.Fire(context.Background(), "x")
	assert.Equal(t, 0, calls)
	assert.ErrorIs(t, ch.Register(func(context.Context, string) error { return nil }), domainerrors.ErrChannelClosed)
}

func TestChannel_CallbackMayReregister(t *testing.T) {
	ch := NewChannel("h-1")

	var order []string
	var second Callback = func(context.Context, string) error {
		order = append(order, "second")
		return nil
	}
	require.NoError(t, ch.Register(func(context.Context, string) error {
		order = append(order, "first")
		return ch.Register(second)
	}))

	ch.Fire(context.Background(), "x")
	ch.Fire(context.Background(), "x")

	assert.Equal(t, []string{"first", "second"}, order)
}

func TestChannel_ConcurrentFireAndRegister(t *testing.T) {
	ch := NewChannel("h-1")

	var mu sync.Mutex
	count := 0
	cb := func(context.Context, string) error {
		mu.Lock()
		count++
		mu.Unlock()
		return nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = ch.Register(cb)
		}()
		go func() {
			defer wg.Done()
			ch.Fire(context.Background(), "x")
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.LessOrEqual(t, count, 20)
}

func TestChain_Order(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next Callback) Callback {
			return func(ctx context.Context, p string) error {
				order = append(order, name)
				return next(ctx, p)
			}
		}
	}

	cb := Chain(func(context.Context, string) error {
		order = append(order, "cb")
		return nil
	}, mark("a"), mark("b"))

	require.NoError(t, cb(context.Background(), "x"))
	assert.Equal(t, []string{"a", "b", "cb"}, order)
}

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	ch := NewChannel("h-7", WithMiddleware(LoggingMiddleware(logger)))
	require.NoError(t, ch.Register(func(context.Context, string) error { return nil }))
	ch.Fire(context.Background(), "payload")

	assert.Contains(t, buf.String(), "firing callback")
	assert.Contains(t, buf.String(), "h-7")
}
