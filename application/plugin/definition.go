// Package plugin is the authoring side of the boundary. A plugin declares its
// identity with DefinePlugin, registers stateless functions and classes, and
// the resulting Definition is loaded by the host as a ports.Module.
package plugin

import (
	"context"
	"fmt"
	"sync"

	"github.com/nom-cli/plugin-sdk/domain/entities"
	"github.com/nom-cli/plugin-sdk/domain/errors"
	"github.com/nom-cli/plugin-sdk/domain/ports"
	"github.com/nom-cli/plugin-sdk/wireformat"
)

// PluginDef defines plugin identity.
type PluginDef struct {
	Name        string
	Version     string
	Description string
	Author      string
}

// Op declares the call shape of an operation.
type Op struct {
	Name        string
	Description string
	Params      []entities.ValueKind
	Result      entities.ValueKind
	Fallible    bool
	Mutates     bool
	Emits       bool
}

// InitFunc is the module init entry point. A non-zero status is a failure.
type InitFunc func(ctx context.Context) (entities.InitStatus, error)

// Func is a stateless operation handler.
type Func func(ctx context.Context, call *Call) (any, error)

// Definition holds the plugin identity and every registered operation.
// Registration happens once at package level; afterwards the Definition is
// read-only and safe for concurrent use.
type Definition struct {
	init    InitFunc
	funcs   map[string]*funcEntry
	classes map[string]*classEntry
	def     PluginDef
	entries []entities.CapabilityEntry
	mu      sync.RWMutex
}

type funcEntry struct {
	fn    Func
	entry entities.CapabilityEntry
}

// DefinePlugin creates a new plugin definition.
// Call this once at package level in your plugin.
func DefinePlugin(def PluginDef) *Definition {
	return &Definition{
		def:     def,
		funcs:   make(map[string]*funcEntry),
		classes: make(map[string]*classEntry),
	}
}

// Name returns the plugin name.
func (p *Definition) Name() string {
	return p.def.Name
}

// OnInit sets the init entry point. Without one, Init reports success.
func (p *Definition) OnInit(fn InitFunc) *Definition {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.init = fn
	return p
}

// Func registers a stateless operation. It panics on a duplicate name.
func (p *Definition) Func(op Op, fn Func) *Definition {
	entry := op.entry("")

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.funcs[op.Name]; exists {
		panic(fmt.Sprintf("plugin %s: operation %q already registered", p.def.Name, op.Name))
	}
	p.funcs[op.Name] = &funcEntry{entry: entry, fn: fn}
	p.entries = append(p.entries, entry)
	return p
}

// Descriptor implements ports.Module. Entries appear in registration order.
func (p *Definition) Descriptor() entities.Descriptor {
	p.mu.RLock()
	defer p.mu.RUnlock()

	entries := make([]entities.CapabilityEntry, len(p.entries))
	copy(entries, p.entries)

	return entities.Descriptor{
		Name:        p.def.Name,
		Version:     p.def.Version,
		Description: p.def.Description,
		Author:      p.def.Author,
		Entries:     entries,
	}
}

// Init implements ports.Module.
func (p *Definition) Init(ctx context.Context) (entities.InitStatus, error) {
	p.mu.RLock()
	fn := p.init
	p.mu.RUnlock()

	if fn == nil {
		return entities.InitStatusOK, nil
	}
	return fn(ctx)
}

// Call implements ports.Module.
func (p *Definition) Call(ctx context.Context, op string, args wireformat.Args) (any, error) {
	p.mu.RLock()
	f, ok := p.funcs[op]
	p.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%s: %w", op, errors.ErrUnknownOperation)
	}
	return f.fn(ctx, &Call{Args: args})
}

// Construct implements ports.Module.
func (p *Definition) Construct(ctx context.Context, class string, config []byte) (ports.Instance, error) {
	p.mu.RLock()
	c, ok := p.classes[class]
	p.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("class %s: %w", class, errors.ErrUnknownOperation)
	}

	state, err := c.construct(ctx, config)
	if err != nil {
		return nil, err
	}
	return &instance{class: c, state: state}, nil
}

// Close implements ports.Module. In-process definitions hold no resources.
func (p *Definition) Close(context.Context) error {
	return nil
}

func (op Op) entry(class string) entities.CapabilityEntry {
	result := op.Result
	if result == "" {
		result = entities.KindVoid
	}
	params := op.Params
	if params == nil {
		params = []entities.ValueKind{}
	}
	return entities.CapabilityEntry{
		Name:             op.Name,
		Class:            class,
		Description:      op.Description,
		Params:           params,
		Result:           result,
		RequiresInstance: class != "",
		MutatesInstance:  op.Mutates,
		Fallible:         op.Fallible,
		Emits:            op.Emits,
	}
}

var _ ports.Module = (*Definition)(nil)
