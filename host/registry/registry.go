// Package registry tracks live plugin instances by opaque handle.
package registry

import (
	"sort"
	"sync"

	"github.com/nom-cli/plugin-sdk/domain/entities"
	"github.com/nom-cli/plugin-sdk/domain/errors"
	"github.com/nom-cli/plugin-sdk/domain/ports"
	"github.com/nom-cli/plugin-sdk/hostfuncs"
)

// Entry is one live instance. Its mutex serializes operations on the instance;
// hold it only through Acquire.
type Entry struct {
	Instance ports.Instance
	Channel  *hostfuncs.Channel
	Handle   entities.Handle
	Module   string
	Class    string
	mu       sync.Mutex
	removed  bool // guarded by mu
	retiring bool // guarded by Registry.mu
}

// registryConfig holds configuration for the Registry.
type registryConfig struct {
	newHandle func() entities.Handle
}

func defaultRegistryConfig() registryConfig {
	return registryConfig{newHandle: entities.NewHandle}
}

// RegistryOption configures a Registry instance.
type RegistryOption func(*registryConfig)

// WithHandleGenerator overrides how handles are minted. Generated handles must
// be unique; a collision makes Add fail with a panic.
func WithHandleGenerator(fn func() entities.Handle) RegistryOption {
	return func(c *registryConfig) {
		if fn != nil {
			c.newHandle = fn
		}
	}
}

// Registry maps handles to live instances.
type Registry struct {
	entries map[entities.Handle]*Entry
	config  registryConfig
	mu      sync.RWMutex
}

// NewRegistry creates an empty Registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	cfg := defaultRegistryConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Registry{
		config:  cfg,
		entries: make(map[entities.Handle]*Entry),
	}
}

// Add stores a new instance and returns its fresh handle.
func (r *Registry) Add(module, class string, inst ports.Instance, opts ...hostfuncs.ChannelOption) *Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	h := r.config.newHandle()
	if _, exists := r.entries[h]; exists || h.IsZero() {
		panic("registry: handle generator produced a duplicate or empty handle")
	}

	e := &Entry{
		Handle:   h,
		Module:   module,
		Class:    class,
		Instance: inst,
		Channel:  hostfuncs.NewChannel(h, opts...),
	}
	r.entries[h] = e
	return e
}

// Lookup returns the entry for h without locking the instance.
func (r *Registry) Lookup(h entities.Handle) (*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[h]
	if !ok || e.retiring {
		return nil, errors.ErrUnknownHandle
	}
	return e, nil
}

// Acquire locks the instance behind h for exclusive use. The caller must call
// release exactly once. Operations on one handle are thereby serialized while
// distinct handles proceed in parallel.
func (r *Registry) Acquire(h entities.Handle) (*Entry, func(), error) {
	e, err := r.Lookup(h)
	if err != nil {
		return nil, nil, err
	}

	e.mu.Lock()
	if e.removed {
		e.mu.Unlock()
		return nil, nil, errors.ErrUnknownHandle
	}
	return e, e.mu.Unlock, nil
}

// Remove retires h: new lookups fail at once, then Remove waits for any
// in-flight operation, closes the callback channel and runs teardown (when
// non-nil). The entry counts toward Live until teardown returns, so a module
// is never seen empty while one of its instances is still running. A second
// Remove of the same handle fails with ErrUnknownHandle.
func (r *Registry) Remove(h entities.Handle, teardown func(*Entry) error) (*Entry, error) {
	r.mu.Lock()
	e, ok := r.entries[h]
	if !ok || e.retiring {
		r.mu.Unlock()
		return nil, errors.ErrUnknownHandle
	}
	e.retiring = true
	r.mu.Unlock()

	e.mu.Lock()
	e.removed = true
	e.mu.Unlock()

	e.Channel.Close()

	var err error
	if teardown != nil {
		err = teardown(e)
	}

	r.mu.Lock()
	delete(r.entries, h)
	r.mu.Unlock()
	return e, err
}

// Live reports how many instances module currently owns, including ones
// still being torn down.
func (r *Registry) Live(module string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, e := range r.entries {
		if e.Module == module {
			n++
		}
	}
	return n
}

// Handles returns the sorted handles owned by module, or every handle when
// module is empty.
func (r *Registry) Handles(module string) []entities.Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]entities.Handle, 0, len(r.entries))
	for h, e := range r.entries {
		if e.retiring {
			continue
		}
		if module == "" || e.Module == module {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Len returns the number of instances that still accept operations.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, e := range r.entries {
		if !e.retiring {
			n++
		}
	}
	return n
}
