package plugin

import (
	"context"
	"fmt"

	"github.com/nom-cli/plugin-sdk/application/schema"
	"github.com/nom-cli/plugin-sdk/application/validation"
	"github.com/nom-cli/plugin-sdk/domain/entities"
	"github.com/nom-cli/plugin-sdk/domain/errors"
	"github.com/nom-cli/plugin-sdk/domain/ports"
	"github.com/nom-cli/plugin-sdk/wireformat"
)

// NoConfig is the config type of classes whose constructor takes no settings.
type NoConfig struct{}

// Constructor builds the private state of a new instance from its config.
type Constructor[S, C any] func(ctx context.Context, cfg C) (*S, error)

// Method is an operation on one instance's state.
type Method[S any] func(ctx context.Context, s *S, call *Call) (any, error)

// Class registers the operations of one instance kind.
type Class[S any] struct {
	def   *Definition
	entry *classEntry
}

type classEntry struct {
	construct func(ctx context.Context, raw []byte) (any, error)
	methods   map[string]*methodEntry
	name      string
}

type methodEntry struct {
	fn    func(ctx context.Context, state any, call *Call) (any, error)
	entry entities.CapabilityEntry
}

// RegisterClass registers a class with its constructor. The config schema is
// generated from C and raw configs are validated against it and against C's
// `validate` tags before ctor runs. It panics on a duplicate class or an
// unusable config type.
func RegisterClass[S, C any](p *Definition, class, description string, ctor Constructor[S, C]) *Class[S] {
	var zero C
	schemaBytes, err := schema.GenerateSchema(zero)
	if err != nil {
		panic(fmt.Sprintf("plugin %s: class %s: %v", p.def.Name, class, err))
	}
	compiled, err := validation.CompileConfigSchema(schemaURL(p.def.Name, class), schemaBytes)
	if err != nil {
		panic(fmt.Sprintf("plugin %s: class %s: %v", p.def.Name, class, err))
	}

	c := &classEntry{
		name:    class,
		methods: make(map[string]*methodEntry),
		construct: func(ctx context.Context, raw []byte) (any, error) {
			var cfg C
			if err := validation.DecodeConfig(raw, compiled, &cfg); err != nil {
				return nil, err
			}
			return ctor(ctx, cfg)
		},
	}

	entry := entities.CapabilityEntry{
		Name:         class,
		Class:        class,
		Description:  description,
		Params:       []entities.ValueKind{},
		Result:       entities.KindHandle,
		ConfigSchema: schemaBytes,
		Constructor:  true,
		Fallible:     true,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.classes[class]; exists {
		panic(fmt.Sprintf("plugin %s: class %q already registered", p.def.Name, class))
	}
	p.classes[class] = c
	p.entries = append(p.entries, entry)

	return &Class[S]{def: p, entry: c}
}

// Method registers an operation on instances of the class. It panics on a
// duplicate name.
func (c *Class[S]) Method(op Op, fn Method[S]) *Class[S] {
	entry := op.entry(c.entry.name)

	c.def.mu.Lock()
	defer c.def.mu.Unlock()

	if _, exists := c.entry.methods[op.Name]; exists {
		panic(fmt.Sprintf("plugin %s: operation %s already registered", c.def.def.Name, entry.Key()))
	}
	c.entry.methods[op.Name] = &methodEntry{
		entry: entry,
		fn: func(ctx context.Context, state any, call *Call) (any, error) {
			return fn(ctx, state.(*S), call)
		},
	}
	c.def.entries = append(c.def.entries, entry)
	return c
}

func schemaURL(plugin, class string) string {
	return fmt.Sprintf("https://schemas.nom.dev/%s/%s.json", plugin, class)
}

// instance adapts a class state to ports.Instance.
type instance struct {
	state any
	class *classEntry
}

func (i *instance) Invoke(ctx context.Context, op string, args wireformat.Args, emit ports.Emitter) (any, error) {
	m, ok := i.class.methods[op]
	if !ok {
		return nil, fmt.Errorf("%s: %w", entities.OperationKey(i.class.name, op), errors.ErrUnknownOperation)
	}
	return m.fn(ctx, i.state, &Call{Args: args, emit: emit})
}

// Destroy forwards teardown to states that implement ports.Destroyer.
func (i *instance) Destroy(ctx context.Context) error {
	if d, ok := i.state.(ports.Destroyer); ok {
		return d.Destroy(ctx)
	}
	return nil
}
