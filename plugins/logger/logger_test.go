package logger_test

import (
	"context"
	stdErrors "errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nom-cli/plugin-sdk/domain/entities"
	"github.com/nom-cli/plugin-sdk/domain/errors"
	"github.com/nom-cli/plugin-sdk/host"
	"github.com/nom-cli/plugin-sdk/internal/testutil"
	"github.com/nom-cli/plugin-sdk/plugins/logger"
	"github.com/nom-cli/plugin-sdk/wireformat"
)

var epoch = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

// fixedClock returns a clock that advances one second per call.
func fixedClock() func() time.Time {
	n := 0
	return func() time.Time {
		n++
		return epoch.Add(time.Duration(n) * time.Second)
	}
}

func setup(t *testing.T, config string, opts ...logger.Option) (*host.Host, entities.Handle) {
	t.Helper()
	ctx := context.Background()

	h := host.New()
	_, err := h.Load(ctx, logger.New(opts...))
	require.NoError(t, err)
	_, err = h.Init(ctx, logger.Name)
	require.NoError(t, err)

	handle, err := h.Construct(ctx, logger.Name, logger.Class, []byte(config))
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close(ctx) })
	return h, handle
}

func invoke(t *testing.T, h *host.Host, handle entities.Handle, op string, args ...any) []byte {
	t.Helper()
	data, err := wireformat.EncodeArgs(args...)
	require.NoError(t, err)
	out, err := h.Invoke(context.Background(), handle, op, data)
	require.NoError(t, err)
	return out
}

func logs(t *testing.T, h *host.Host, handle entities.Handle) []entities.LogEntry {
	t.Helper()
	return testutil.DecodeEnvelope[[]entities.LogEntry](t, invoke(t, h, handle, "get_logs"))
}

func TestLogger_Levels(t *testing.T) {
	h, handle := setup(t, "", logger.WithClock(fixedClock()))

	invoke(t, h, handle, "info", "started")
	invoke(t, h, handle, "warn", "disk low")
	invoke(t, h, handle, "error", "failed")
	invoke(t, h, handle, "debug", "details", `{"k":"v"}`)

	out := invoke(t, h, handle, "get_logs")
	assert.JSONEq(t, `[
		{"timestamp":"2024-05-01T12:00:01Z","level":"INFO","message":"started"},
		{"timestamp":"2024-05-01T12:00:02Z","level":"WARN","message":"disk low"},
		{"timestamp":"2024-05-01T12:00:03Z","level":"ERROR","message":"failed"},
		{"timestamp":"2024-05-01T12:00:04Z","level":"DEBUG","message":"details","metadata":"{\"k\":\"v\"}"}
	]`, string(out))
}

func TestLogger_EmptyLogs(t *testing.T) {
	h, handle := setup(t, "")
	assert.JSONEq(t, `[]`, string(invoke(t, h, handle, "get_logs")))
}

func TestLogger_RetentionBound(t *testing.T) {
	h, handle := setup(t, "")

	const k = 7
	for i := 0; i < logger.DefaultMaxEntries+k; i++ {
		invoke(t, h, handle, "info", fmt.Sprintf("entry %d", i))
	}

	entries := logs(t, h, handle)
	require.Len(t, entries, logger.DefaultMaxEntries)
	assert.Equal(t, fmt.Sprintf("entry %d", k), entries[0].Message)
	assert.Equal(t, fmt.Sprintf("entry %d", logger.DefaultMaxEntries+k-1), entries[len(entries)-1].Message)
	for i := 1; i < len(entries); i++ {
		assert.Equal(t, fmt.Sprintf("entry %d", k+i), entries[i].Message)
	}
}

func TestLogger_ConfiguredRetention(t *testing.T) {
	h, handle := setup(t, `{"max_entries":2}`)

	for _, m := range []string{"a", "b", "c"} {
		invoke(t, h, handle, "info", m)
	}

	entries := logs(t, h, handle)
	require.Len(t, entries, 2)
	assert.Equal(t, "b", entries[0].Message)
	assert.Equal(t, "c", entries[1].Message)
}

func TestLogger_Clear(t *testing.T) {
	h, handle := setup(t, "")

	invoke(t, h, handle, "info", "a")
	assert.Nil(t, invoke(t, h, handle, "clear"))
	assert.Empty(t, logs(t, h, handle))

	invoke(t, h, handle, "info", "b")
	assert.Len(t, logs(t, h, handle), 1)
}

func TestLogger_InstancesAreIndependent(t *testing.T) {
	h, first := setup(t, "")
	second, err := h.Construct(context.Background(), logger.Name, logger.Class, nil)
	require.NoError(t, err)

	invoke(t, h, first, "info", "only in first")

	assert.Len(t, logs(t, h, first), 1)
	assert.Empty(t, logs(t, h, second))
}

func TestLogger_EncodeFailureIsMarshalError(t *testing.T) {
	// Years past 9999 have no RFC 3339 form.
	farFuture := func() time.Time { return time.Date(10000, 1, 1, 0, 0, 0, 0, time.UTC) }
	h, handle := setup(t, "", logger.WithClock(farFuture))

	invoke(t, h, handle, "info", "from the future")

	_, err := h.Invoke(context.Background(), handle, "get_logs", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, wireformat.ErrMarshal)
}

func TestLogger_InvalidConfig(t *testing.T) {
	ctx := context.Background()
	h := host.New()
	_, err := h.Load(ctx, logger.New())
	require.NoError(t, err)
	_, err = h.Init(ctx, logger.Name)
	require.NoError(t, err)

	for _, cfg := range []string{`{"max_entries":0}`, `{"max_entries":1000001}`, `{"max_entries":"many"}`} {
		_, err := h.Construct(ctx, logger.Name, logger.Class, []byte(cfg))
		var ce *errors.ConstructError
		assert.True(t, stdErrors.As(err, &ce), "config %s: %v", cfg, err)
	}
}
