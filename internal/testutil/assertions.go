// Package testutil provides common test utilities and assertions for boundary tests
package testutil

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertJSONEqual encodes expected and compares it with the boundary payload
// actual, ignoring formatting and key order.
func AssertJSONEqual(t *testing.T, expected any, actual []byte, msgAndArgs ...interface{}) {
	t.Helper()

	want, err := json.Marshal(expected)
	require.NoError(t, err, "expected value is not encodable")
	require.True(t, json.Valid(actual), "actual payload is not valid JSON: %q", actual)

	assert.JSONEq(t, string(want), string(actual), msgAndArgs...)
}

// DecodeEnvelope decodes a boundary payload into T, failing the test on error.
func DecodeEnvelope[T any](t *testing.T, payload []byte) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(payload, &v), "payload %q", payload)
	return v
}

// Recorder is a callback that keeps every payload it receives.
type Recorder struct {
	payloads []string
	mu       sync.Mutex
}

// Callback records payload. Its signature matches hostfuncs.Callback.
func (r *Recorder) Callback(_ context.Context, payload string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payloads = append(r.payloads, payload)
	return nil
}

// Payloads returns a copy of the recorded payloads in arrival order.
func (r *Recorder) Payloads() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.payloads...)
}
