// Package errors provides the boundary error taxonomy.
// All error types support error unwrapping via errors.As() and errors.Is().
package errors

import (
	stdErrors "errors"
	"fmt"

	"github.com/nom-cli/plugin-sdk/domain/entities"
)

// Caller misuse. These are reported and never change state.
var (
	// ErrUnknownHandle is returned for a handle that was never issued or was destroyed.
	ErrUnknownHandle = stdErrors.New("unknown handle")

	// ErrUnknownOperation is returned for a name missing from the descriptor.
	ErrUnknownOperation = stdErrors.New("unknown operation")

	// ErrArityOrTypeMismatch is returned when arguments do not match the descriptor.
	ErrArityOrTypeMismatch = stdErrors.New("arity or type mismatch")

	// ErrUnknownModule is returned for a module name the host has not loaded.
	ErrUnknownModule = stdErrors.New("unknown module")

	// ErrNotInitialized is returned when a module is used before a successful init.
	ErrNotInitialized = stdErrors.New("module not initialized")

	// ErrInstancesLive is returned when unloading a module that still owns instances.
	ErrInstancesLive = stdErrors.New("module has live instances")

	// ErrChannelClosed is returned when registering on a torn-down instance.
	ErrChannelClosed = stdErrors.New("callback channel closed")
)

// DetailedError is an interface for custom error types that can convert themselves
// to a structured ErrorDetail.
type DetailedError interface {
	error
	ToErrorDetail() *entities.ErrorDetail
}

// ToErrorDetail converts a Go error to our structured ErrorDetail.
func ToErrorDetail(err error) *entities.ErrorDetail {
	if err == nil {
		return nil
	}

	var e *entities.ErrorDetail
	if stdErrors.As(err, &e) {
		return e
	}

	var de DetailedError
	if stdErrors.As(err, &de) {
		return de.ToErrorDetail()
	}

	if code := callerCode(err); code != "" {
		return entities.NewErrorDetail("caller", err.Error()).WithCode(code)
	}

	return entities.NewErrorDetail("internal", err.Error())
}

// callerCode maps caller-misuse sentinels to stable codes.
func callerCode(err error) string {
	switch {
	case stdErrors.Is(err, ErrUnknownHandle):
		return "unknown_handle"
	case stdErrors.Is(err, ErrUnknownOperation):
		return "unknown_operation"
	case stdErrors.Is(err, ErrArityOrTypeMismatch):
		return "arity_or_type_mismatch"
	case stdErrors.Is(err, ErrUnknownModule):
		return "unknown_module"
	case stdErrors.Is(err, ErrNotInitialized):
		return "not_initialized"
	case stdErrors.Is(err, ErrInstancesLive):
		return "instances_live"
	case stdErrors.Is(err, ErrChannelClosed):
		return "channel_closed"
	}
	return ""
}

// LoadError means a module could not be mapped. Fatal to that module only.
type LoadError struct {
	Err    error
	Module string
}

func (e *LoadError) Error() string {
	if e.Module != "" {
		return fmt.Sprintf("load module %s: %v", e.Module, e.Err)
	}
	return fmt.Sprintf("load module: %v", e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *LoadError) ToErrorDetail() *entities.ErrorDetail {
	return entities.NewErrorDetail("load", e.Error()).WithCode(e.Module)
}

// InitError means a loaded module failed to initialize itself.
type InitError struct {
	Err    error
	Module string
	Status entities.InitStatus
}

func (e *InitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("init module %s: %v", e.Module, e.Err)
	}
	return fmt.Sprintf("init module %s: status %d", e.Module, e.Status)
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *InitError) ToErrorDetail() *entities.ErrorDetail {
	return entities.NewErrorDetail("init", e.Error()).
		WithCode(fmt.Sprintf("status_%d", e.Status)).
		WithDetails(map[string]any{"module": e.Module, "status": int32(e.Status)})
}

// ConstructError means no instance was created.
type ConstructError struct {
	Err    error
	Module string
	Class  string
}

func (e *ConstructError) Error() string {
	return fmt.Sprintf("construct %s.%s: %v", e.Module, e.Class, e.Err)
}

func (e *ConstructError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *ConstructError) ToErrorDetail() *entities.ErrorDetail {
	d := entities.NewErrorDetail("construct", e.Error()).
		WithCode(entities.OperationKey(e.Module, e.Class)).
		WithDetails(map[string]any{"module": e.Module, "class": e.Class})
	d.Wrapped = wrappedDetail(e.Err)
	return d
}

// InvokeError is a failure reported by a plugin operation, or a fault
// recovered at the boundary.
type InvokeError struct {
	Err       error
	Module    string
	Operation string
	Panic     bool
}

func (e *InvokeError) Error() string {
	if e.Panic {
		return fmt.Sprintf("invoke %s.%s: panic: %v", e.Module, e.Operation, e.Err)
	}
	return fmt.Sprintf("invoke %s.%s: %v", e.Module, e.Operation, e.Err)
}

func (e *InvokeError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *InvokeError) ToErrorDetail() *entities.ErrorDetail {
	errType := "invoke"
	if e.Panic {
		errType = "panic"
	}
	d := entities.NewErrorDetail(errType, e.Error()).
		WithCode(entities.OperationKey(e.Module, e.Operation)).
		WithDetails(map[string]any{"module": e.Module, "operation": e.Operation})
	d.Wrapped = wrappedDetail(e.Err)
	return d
}

// MismatchError describes why arguments do not fit a descriptor entry.
// It matches ErrArityOrTypeMismatch under errors.Is.
type MismatchError struct {
	Operation string
	Reason    string
	Index     int
}

func (e *MismatchError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("%s: argument %d: %s: %v", e.Operation, e.Index, e.Reason, ErrArityOrTypeMismatch)
	}
	return fmt.Sprintf("%s: %s: %v", e.Operation, e.Reason, ErrArityOrTypeMismatch)
}

// Is implements errors.Is.
func (e *MismatchError) Is(target error) bool {
	return target == ErrArityOrTypeMismatch
}

// NewPanicError converts a recovered panic value into an error.
func NewPanicError(panicValue any) error {
	switch v := panicValue.(type) {
	case error:
		return v
	case string:
		return stdErrors.New(v)
	default:
		return fmt.Errorf("panic recovered: %v", v)
	}
}

func wrappedDetail(err error) *entities.ErrorDetail {
	if err == nil {
		return nil
	}
	d := ToErrorDetail(err)
	if d.Type == "internal" {
		return nil
	}
	return d
}

// ConfigError represents a constructor config validation error.
type ConfigError struct {
	Err   error
	Field string
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config validation failed for field '%s': %v", e.Field, e.Err)
	}
	return fmt.Sprintf("config validation failed: %v", e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ToErrorDetail implements DetailedError.
func (e *ConfigError) ToErrorDetail() *entities.ErrorDetail {
	return entities.NewErrorDetail("config", e.Error()).WithCode(e.Field)
}
