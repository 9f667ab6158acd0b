package ports

import (
	"context"

	"github.com/nom-cli/plugin-sdk/domain/entities"
	"github.com/nom-cli/plugin-sdk/wireformat"
)

// Module is a loaded plugin binary seen through the boundary.
// Implementations need not be safe for concurrent init; the host calls Init once.
type Module interface {
	// Descriptor returns the static capability metadata. It must not run plugin logic.
	Descriptor() entities.Descriptor

	// Init runs the module's init entry point. A non-zero status is a failure.
	Init(ctx context.Context) (entities.InitStatus, error)

	// Call runs a stateless operation. Arguments are already checked against
	// the descriptor.
	Call(ctx context.Context, op string, args wireformat.Args) (any, error)

	// Construct creates a fresh instance of class. config is the raw constructor
	// config (may be empty).
	Construct(ctx context.Context, class string, config []byte) (Instance, error)

	// Close releases module resources. Called on unload.
	Close(ctx context.Context) error
}

// Instance is plugin-private state behind a handle.
// The host guarantees at most one in-flight Invoke per instance.
type Instance interface {
	// Invoke runs an operation of the instance's class. emit fires the instance
	// callback, if one is registered.
	Invoke(ctx context.Context, op string, args wireformat.Args, emit Emitter) (any, error)
}

// Destroyer is implemented by instances that hold resources to release on teardown.
type Destroyer interface {
	Destroy(ctx context.Context) error
}

// Emitter fires the host-supplied callback of an instance.
// Fire never reports callback failures to the caller.
type Emitter interface {
	Fire(ctx context.Context, payload string)
}
