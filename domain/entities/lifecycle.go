package entities

// ModuleState is the lifecycle state of a module inside a host.
type ModuleState string

const (
	// ModuleUnloaded means the module is not known to the host.
	ModuleUnloaded ModuleState = "unloaded"

	// ModuleLoaded means the descriptor was accepted; no plugin code has run.
	ModuleLoaded ModuleState = "loaded"

	// ModuleInitialized means init returned success; operations may be called.
	ModuleInitialized ModuleState = "initialized"

	// ModuleFailed means init failed; the module can only be unloaded.
	ModuleFailed ModuleState = "failed"
)

// InitStatus is the status code returned by a module's init entry point.
type InitStatus int32

const (
	// InitStatusOK is returned by a successful init.
	InitStatusOK InitStatus = 0

	// InitStatusAlreadyInitialized is returned by the host for a repeated init.
	InitStatusAlreadyInitialized InitStatus = 1
)
