package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nom-cli/plugin-sdk/domain/entities"
)

func TestLoadError(t *testing.T) {
	baseErr := fmt.Errorf("bad magic header")
	err := &LoadError{Module: "example", Err: baseErr}

	assert.Equal(t, "load module example: bad magic header", err.Error())
	assert.True(t, errors.Is(err, baseErr))

	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, "example", loadErr.Module)
}

func TestLoadError_NoModule(t *testing.T) {
	err := &LoadError{Err: fmt.Errorf("empty name")}
	assert.Equal(t, "load module: empty name", err.Error())
}

func TestInitError(t *testing.T) {
	t.Run("status only", func(t *testing.T) {
		err := &InitError{Module: "auth", Status: 3}
		assert.Equal(t, "init module auth: status 3", err.Error())
		assert.Nil(t, errors.Unwrap(err))
		detail := err.ToErrorDetail()
		assert.Equal(t, "init", detail.Type)
		assert.Equal(t, "status_3", detail.Code)
		assert.Equal(t, map[string]any{"module": "auth", "status": int32(3)}, detail.Details)
	})

	t.Run("wrapped", func(t *testing.T) {
		baseErr := fmt.Errorf("database unavailable")
		err := &InitError{Module: "auth", Err: baseErr}
		assert.Equal(t, "init module auth: database unavailable", err.Error())
		assert.True(t, errors.Is(err, baseErr))
	})
}

func TestConstructError(t *testing.T) {
	cfgErr := &ConfigError{Field: "max_entries", Err: fmt.Errorf("must be >= 1")}
	err := &ConstructError{Module: "logger", Class: "Logger", Err: cfgErr}

	assert.Equal(t,
		"construct logger.Logger: config validation failed for field 'max_entries': must be >= 1",
		err.Error())

	var target *ConfigError
	require.True(t, errors.As(err, &target))
	assert.Equal(t, "max_entries", target.Field)

	detail := err.ToErrorDetail()
	assert.Equal(t, "construct", detail.Type)
	assert.Equal(t, "logger.Logger", detail.Code)
	assert.Equal(t, map[string]any{"module": "logger", "class": "Logger"}, detail.Details)
	require.NotNil(t, detail.Wrapped)
	assert.Equal(t, "config", detail.Wrapped.Type)
}

func TestInvokeError(t *testing.T) {
	baseErr := fmt.Errorf("disk full")
	err := &InvokeError{Module: "logger", Operation: "info", Err: baseErr}

	assert.Equal(t, "invoke logger.info: disk full", err.Error())
	assert.True(t, errors.Is(err, baseErr))

	detail := err.ToErrorDetail()
	assert.Equal(t, "invoke", detail.Type)
	assert.Equal(t, "logger.info", detail.Code)
	assert.Equal(t, map[string]any{"module": "logger", "operation": "info"}, detail.Details)
	assert.Nil(t, detail.Wrapped)
}

func TestInvokeError_Panic(t *testing.T) {
	err := &InvokeError{Module: "auth", Operation: "login", Err: NewPanicError("nil map"), Panic: true}

	assert.Equal(t, "invoke auth.login: panic: nil map", err.Error())
	assert.Equal(t, "panic", err.ToErrorDetail().Type)
}

func TestMismatchError(t *testing.T) {
	tests := []struct {
		name string
		err  *MismatchError
		want string
	}{
		{
			name: "argument",
			err:  &MismatchError{Operation: "add", Reason: "expected integer, got text", Index: 1},
			want: "add: argument 1: expected integer, got text: arity or type mismatch",
		},
		{
			name: "arity",
			err:  &MismatchError{Operation: "add", Reason: "expected 2 arguments, got 3", Index: -1},
			want: "add: expected 2 arguments, got 3: arity or type mismatch",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
			assert.ErrorIs(t, tt.err, ErrArityOrTypeMismatch)
			assert.NotErrorIs(t, tt.err, ErrUnknownOperation)
		})
	}
}

func TestNewPanicError(t *testing.T) {
	baseErr := fmt.Errorf("index out of range")

	assert.Same(t, baseErr, NewPanicError(baseErr))
	assert.Equal(t, "boom", NewPanicError("boom").Error())
	assert.Equal(t, "panic recovered: 42", NewPanicError(42).Error())
}

func TestConfigError_NoField(t *testing.T) {
	err := &ConfigError{Err: fmt.Errorf("malformed JSON")}
	assert.Equal(t, "config validation failed: malformed JSON", err.Error())
}

func TestToErrorDetail(t *testing.T) {
	tests := []struct {
		err      error
		name     string
		wantType string
		wantCode string
	}{
		{name: "unknown handle", err: fmt.Errorf("invoke: %w", ErrUnknownHandle), wantType: "caller", wantCode: "unknown_handle"},
		{name: "unknown operation", err: ErrUnknownOperation, wantType: "caller", wantCode: "unknown_operation"},
		{name: "mismatch", err: &MismatchError{Operation: "add", Reason: "x", Index: 0}, wantType: "caller", wantCode: "arity_or_type_mismatch"},
		{name: "unknown module", err: ErrUnknownModule, wantType: "caller", wantCode: "unknown_module"},
		{name: "not initialized", err: ErrNotInitialized, wantType: "caller", wantCode: "not_initialized"},
		{name: "instances live", err: ErrInstancesLive, wantType: "caller", wantCode: "instances_live"},
		{name: "channel closed", err: ErrChannelClosed, wantType: "caller", wantCode: "channel_closed"},
		{name: "load", err: &LoadError{Module: "m", Err: fmt.Errorf("x")}, wantType: "load", wantCode: "m"},
		{name: "plain", err: fmt.Errorf("something else"), wantType: "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			detail := ToErrorDetail(tt.err)
			require.NotNil(t, detail)
			assert.Equal(t, tt.wantType, detail.Type)
			assert.Equal(t, tt.wantCode, detail.Code)
			assert.Equal(t, tt.err.Error(), detail.Message)
		})
	}
}

func TestToErrorDetail_Nil(t *testing.T) {
	assert.Nil(t, ToErrorDetail(nil))
}

func TestToErrorDetail_Passthrough(t *testing.T) {
	detail := &entities.ErrorDetail{Message: "m", Type: "marshal"}
	assert.Same(t, detail, ToErrorDetail(fmt.Errorf("wrap: %w", detail)))
}
