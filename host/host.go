package host

import (
	"context"
	stdErrors "errors"
	"fmt"
	"sort"
	"sync"

	"github.com/nom-cli/plugin-sdk/application/validation"
	"github.com/nom-cli/plugin-sdk/domain/entities"
	"github.com/nom-cli/plugin-sdk/domain/errors"
	"github.com/nom-cli/plugin-sdk/domain/ports"
	"github.com/nom-cli/plugin-sdk/host/registry"
	"github.com/nom-cli/plugin-sdk/hostfuncs"
	"github.com/nom-cli/plugin-sdk/wireformat"
)

// moduleSlot is one loaded module and its lifecycle state.
type moduleSlot struct {
	module     ports.Module
	descriptor entities.Descriptor
	state      entities.ModuleState
	mu         sync.Mutex // guards state; held for the whole init call
}

func (s *moduleSlot) currentState() entities.ModuleState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Host owns loaded modules and their live instances.
// It is safe for concurrent use.
type Host struct {
	instances *registry.Registry
	modules   map[string]*moduleSlot
	validator *validation.DescriptorValidator
	config    hostConfig
	mu        sync.RWMutex
}

// New creates an empty Host.
func New(opts ...Option) *Host {
	cfg := defaultHostConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Host{
		config:    cfg,
		instances: registry.NewRegistry(cfg.registryOptions...),
		modules:   make(map[string]*moduleSlot),
		validator: validation.NewDescriptorValidator(),
	}
}

// Load validates the module's descriptor and registers it under its name.
// No plugin entry point runs. Identical duplicate entries are collapsed.
func (h *Host) Load(ctx context.Context, m ports.Module) (entities.Descriptor, error) {
	if m == nil {
		return entities.Descriptor{}, &errors.LoadError{Err: stdErrors.New("nil module")}
	}

	raw, err := guard("", "describe", func() (entities.Descriptor, error) {
		return m.Descriptor(), nil
	})
	if err != nil {
		return entities.Descriptor{}, &errors.LoadError{Err: err}
	}

	d, result := h.validator.Validate(raw)
	if !result.Valid {
		h.config.logger.WarnContext(ctx, "module rejected", "module", raw.Name, "problems", len(result.Errors))
		return entities.Descriptor{}, &errors.LoadError{Module: raw.Name, Err: validation.Error(result)}
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.modules[d.Name]; exists {
		return entities.Descriptor{}, &errors.LoadError{Module: d.Name, Err: stdErrors.New("module already loaded")}
	}
	h.modules[d.Name] = &moduleSlot{
		module:     m,
		descriptor: d,
		state:      entities.ModuleLoaded,
	}

	h.config.logger.InfoContext(ctx, "module loaded",
		"module", d.Name, "version", d.Version, "entries", len(d.Entries))
	return d, nil
}

// Init runs the module's init entry point. It calls the plugin at most once:
// a repeated Init on an initialized module returns InitStatusAlreadyInitialized
// without touching plugin state. A non-zero status or an error leaves the
// module failed until it is unloaded.
func (h *Host) Init(ctx context.Context, name string) (entities.InitStatus, error) {
	slot, err := h.slot(name)
	if err != nil {
		return 0, err
	}

	slot.mu.Lock()
	defer slot.mu.Unlock()

	switch slot.state {
	case entities.ModuleInitialized:
		h.config.logger.DebugContext(ctx, "module already initialized", "module", name)
		return entities.InitStatusAlreadyInitialized, nil
	case entities.ModuleFailed:
		return 0, &errors.InitError{Module: name, Err: stdErrors.New("init previously failed; unload the module")}
	case entities.ModuleUnloaded:
		return 0, fmt.Errorf("%s: %w", name, errors.ErrUnknownModule)
	}

	status, err := guard(name, "init", func() (entities.InitStatus, error) {
		return slot.module.Init(ctx)
	})
	if err == nil && status != entities.InitStatusOK {
		err = fmt.Errorf("init returned status %d", status)
	}
	if err != nil {
		slot.state = entities.ModuleFailed
		h.config.logger.ErrorContext(ctx, "module init failed", "module", name, "status", status, "error", err)
		return status, &errors.InitError{Module: name, Status: status, Err: err}
	}

	slot.state = entities.ModuleInitialized
	h.config.logger.InfoContext(ctx, "module initialized", "module", name)
	return status, nil
}

// Call runs a stateless operation. args is a JSON array matching the entry's
// parameter kinds; the result is the JSON encoding of the return value, or nil
// for void operations.
func (h *Host) Call(ctx context.Context, name, op string, args []byte) ([]byte, error) {
	slot, err := h.ready(name)
	if err != nil {
		return nil, err
	}

	entry, ok := slot.descriptor.Lookup("", op)
	if !ok {
		return nil, fmt.Errorf("%s.%s: %w", name, op, errors.ErrUnknownOperation)
	}

	decoded, err := wireformat.DecodeArgs(entry.Key(), args, entry.Params)
	if err != nil {
		return nil, err
	}

	out, err := guard(name, op, func() (any, error) {
		return slot.module.Call(ctx, op, decoded)
	})
	if err != nil {
		return nil, h.invokeFailed(ctx, name, op, err)
	}
	return h.encodeResult(name, entry, out)
}

// Construct creates a new instance of class and returns its handle.
// config is the raw JSON constructor config; empty means defaults. On any
// failure no instance is registered.
func (h *Host) Construct(ctx context.Context, name, class string, config []byte) (entities.Handle, error) {
	slot, err := h.ready(name)
	if err != nil {
		return "", err
	}

	if _, ok := slot.descriptor.Constructor(class); !ok {
		return "", fmt.Errorf("%s.%s: %w", name, class, errors.ErrUnknownOperation)
	}

	inst, err := guard(name, class, func() (ports.Instance, error) {
		return slot.module.Construct(ctx, class, config)
	})
	if err == nil && inst == nil {
		err = stdErrors.New("constructor returned no instance")
	}
	if err != nil {
		h.config.logger.WarnContext(ctx, "construct failed", "module", name, "class", class, "error", err)
		return "", &errors.ConstructError{Module: name, Class: class, Err: err}
	}

	slot.mu.Lock()
	if slot.state == entities.ModuleUnloaded {
		slot.mu.Unlock()
		_ = h.destroyInstance(ctx, name, inst)
		return "", fmt.Errorf("%s: %w", name, errors.ErrUnknownModule)
	}
	e := h.instances.Add(name, class, inst, h.channelOptions()...)
	slot.mu.Unlock()

	h.config.logger.DebugContext(ctx, "instance constructed", "module", name, "class", class, "handle", e.Handle)
	return e.Handle, nil
}

// Invoke runs an instance operation. Calls on one handle are serialized;
// calls on distinct handles may run concurrently.
func (h *Host) Invoke(ctx context.Context, handle entities.Handle, op string, args []byte) ([]byte, error) {
	e, release, err := h.instances.Acquire(handle)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", handle, err)
	}
	defer release()

	slot, err := h.slot(e.Module)
	if err != nil {
		return nil, err
	}

	entry, ok := slot.descriptor.Lookup(e.Class, op)
	if !ok || entry.Constructor {
		return nil, fmt.Errorf("%s.%s: %w", e.Module, entities.OperationKey(e.Class, op), errors.ErrUnknownOperation)
	}

	decoded, err := wireformat.DecodeArgs(entry.Key(), args, entry.Params)
	if err != nil {
		return nil, err
	}

	out, err := guard(e.Module, entry.Key(), func() (any, error) {
		return e.Instance.Invoke(ctx, op, decoded, e.Channel)
	})
	if err != nil {
		return nil, h.invokeFailed(ctx, e.Module, entry.Key(), err)
	}
	return h.encodeResult(e.Module, entry, out)
}

// Register installs cb as the callback of the instance behind handle,
// replacing any previous one. A nil cb clears the registration.
func (h *Host) Register(handle entities.Handle, cb hostfuncs.Callback) error {
	e, err := h.instances.Lookup(handle)
	if err != nil {
		return fmt.Errorf("%s: %w", handle, err)
	}
	return e.Channel.Register(cb)
}

// Destroy tears down the instance behind handle after any in-flight operation
// finishes. The handle is invalid afterwards even if the instance's own
// teardown fails.
func (h *Host) Destroy(ctx context.Context, handle entities.Handle) error {
	e, err := h.instances.Remove(handle, func(e *registry.Entry) error {
		return h.destroyInstance(ctx, e.Module, e.Instance)
	})
	if e == nil {
		return fmt.Errorf("%s: %w", handle, err)
	}

	h.config.logger.DebugContext(ctx, "instance destroyed", "module", e.Module, "class", e.Class, "handle", handle)
	return err
}

// Unload removes a module. It is refused while the module owns live instances.
func (h *Host) Unload(ctx context.Context, name string) error {
	slot, err := h.slot(name)
	if err != nil {
		return err
	}

	slot.mu.Lock()
	if n := h.instances.Live(name); n > 0 {
		slot.mu.Unlock()
		return fmt.Errorf("%s has %d: %w", name, n, errors.ErrInstancesLive)
	}
	slot.state = entities.ModuleUnloaded
	slot.mu.Unlock()

	h.mu.Lock()
	delete(h.modules, name)
	h.mu.Unlock()

	_, err = guard(name, "close", func() (struct{}, error) {
		return struct{}{}, slot.module.Close(ctx)
	})
	if err != nil {
		h.config.logger.WarnContext(ctx, "module close failed", "module", name, "error", err)
		return fmt.Errorf("close %s: %w", name, err)
	}

	h.config.logger.InfoContext(ctx, "module unloaded", "module", name)
	return nil
}

// Describe returns the accepted descriptor of a loaded module.
func (h *Host) Describe(name string) (entities.Descriptor, error) {
	slot, err := h.slot(name)
	if err != nil {
		return entities.Descriptor{}, err
	}
	return slot.descriptor, nil
}

// State returns the lifecycle state of a module; unknown names are unloaded.
func (h *Host) State(name string) entities.ModuleState {
	slot, err := h.slot(name)
	if err != nil {
		return entities.ModuleUnloaded
	}
	return slot.currentState()
}

// Modules returns the names of all loaded modules, sorted.
func (h *Host) Modules() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	names := make([]string, 0, len(h.modules))
	for name := range h.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Instances returns the live handles owned by a module, sorted.
func (h *Host) Instances(name string) []entities.Handle {
	return h.instances.Handles(name)
}

// Close destroys every live instance and unloads every module.
func (h *Host) Close(ctx context.Context) error {
	var errs []error
	for _, handle := range h.instances.Handles("") {
		if err := h.Destroy(ctx, handle); err != nil && !stdErrors.Is(err, errors.ErrUnknownHandle) {
			errs = append(errs, err)
		}
	}
	for _, name := range h.Modules() {
		if err := h.Unload(ctx, name); err != nil && !stdErrors.Is(err, errors.ErrUnknownModule) {
			errs = append(errs, err)
		}
	}
	return stdErrors.Join(errs...)
}

func (h *Host) slot(name string) (*moduleSlot, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	slot, ok := h.modules[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, errors.ErrUnknownModule)
	}
	return slot, nil
}

// ready returns the slot of a module that may run operations.
func (h *Host) ready(name string) (*moduleSlot, error) {
	slot, err := h.slot(name)
	if err != nil {
		return nil, err
	}
	switch state := slot.currentState(); {
	case state == entities.ModuleFailed,
		h.config.requireInit && state != entities.ModuleInitialized:
		return nil, fmt.Errorf("%s: %w", name, errors.ErrNotInitialized)
	}
	return slot, nil
}

func (h *Host) channelOptions() []hostfuncs.ChannelOption {
	return []hostfuncs.ChannelOption{
		hostfuncs.WithLogger(h.config.logger),
		hostfuncs.WithMiddleware(h.config.callbackMiddleware...),
	}
}

func (h *Host) encodeResult(module string, entry entities.CapabilityEntry, out any) ([]byte, error) {
	data, err := wireformat.EncodeResult(entry.Result, out)
	if err != nil {
		return nil, &errors.InvokeError{Module: module, Operation: entry.Key(), Err: err}
	}
	return data, nil
}

func (h *Host) invokeFailed(ctx context.Context, module, op string, err error) error {
	var ie *errors.InvokeError
	if stdErrors.As(err, &ie) && ie.Panic {
		h.config.logger.ErrorContext(ctx, "plugin panic recovered", "module", module, "operation", op, "error", ie.Err)
		return ie
	}
	return &errors.InvokeError{Module: module, Operation: op, Err: err}
}

func (h *Host) destroyInstance(ctx context.Context, module string, inst ports.Instance) error {
	d, ok := inst.(ports.Destroyer)
	if !ok {
		return nil
	}
	_, err := guard(module, "destroy", func() (struct{}, error) {
		return struct{}{}, d.Destroy(ctx)
	})
	if err != nil {
		h.config.logger.WarnContext(ctx, "instance teardown failed", "module", module, "error", err)
		return h.invokeFailed(ctx, module, "destroy", err)
	}
	return nil
}

// guard runs plugin code and converts a panic into an InvokeError so no
// fault unwinds into the host.
func guard[T any](module, op string, fn func() (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &errors.InvokeError{
				Module:    module,
				Operation: op,
				Err:       errors.NewPanicError(r),
				Panic:     true,
			}
		}
	}()
	return fn()
}
