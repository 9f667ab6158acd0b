package wazero

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/nom-cli/plugin-sdk/domain/entities"
	"github.com/nom-cli/plugin-sdk/domain/errors"
	"github.com/nom-cli/plugin-sdk/domain/ports"
	"github.com/nom-cli/plugin-sdk/wireformat"
)

// Module is an instantiated wasm binary exposed as a ports.Module.
// Calls are serialized because guest memory is shared by every export.
type Module struct {
	compiled   wazero.CompiledModule
	instance   api.Module
	logger     *slog.Logger
	stdout     *BoundedBuffer
	stderr     *BoundedBuffer
	checksum   string
	descriptor entities.Descriptor
	size       int
	mu         sync.Mutex
}

// Checksum returns the hex SHA-256 of the binary.
func (m *Module) Checksum() string {
	return m.checksum
}

// Size returns the binary size in bytes.
func (m *Module) Size() int {
	return m.size
}

// Descriptor implements ports.Module.
func (m *Module) Descriptor() entities.Descriptor {
	return m.descriptor
}

// Init implements ports.Module. Without an init export the module is ready
// as loaded. A trap is reported as an error.
func (m *Module) Init(ctx context.Context) (entities.InitStatus, error) {
	fn := m.instance.ExportedFunction(InitExport)
	if fn == nil {
		return entities.InitStatusOK, nil
	}

	results, err := m.call(ctx, fn)
	if err != nil {
		return 0, err
	}
	if len(results) == 0 {
		return entities.InitStatusOK, nil
	}
	return entities.InitStatus(api.DecodeI32(results[0])), nil
}

// Call implements ports.Module.
func (m *Module) Call(ctx context.Context, op string, args wireformat.Args) (any, error) {
	fn := m.instance.ExportedFunction(op)
	if fn == nil || isReserved(op) {
		return nil, fmt.Errorf("%s: %w", op, errors.ErrUnknownOperation)
	}

	def := fn.Definition()
	params, err := encodeParams(op, def.ParamTypes(), args)
	if err != nil {
		return nil, err
	}

	results, err := m.call(ctx, fn, params...)
	if err != nil {
		return nil, err
	}
	return decodeResult(def.ResultTypes(), results), nil
}

// Construct implements ports.Module. Wasm exports are stateless.
func (m *Module) Construct(_ context.Context, class string, _ []byte) (ports.Instance, error) {
	return nil, fmt.Errorf("class %s: %w", class, errors.ErrUnknownOperation)
}

// Close implements ports.Module.
func (m *Module) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	err := m.instance.Close(ctx)
	if cerr := m.compiled.Close(ctx); err == nil {
		err = cerr
	}
	return err
}

func (m *Module) call(ctx context.Context, fn api.Function, params ...uint64) ([]uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	defer m.flushOutput(ctx)

	results, err := fn.Call(ctx, params...)
	if err != nil {
		return nil, fmt.Errorf("wasm trap: %w", err)
	}
	return results, nil
}

// flushOutput forwards captured guest output to the logger, one record per line.
func (m *Module) flushOutput(ctx context.Context) {
	for _, stream := range []struct {
		buf  *BoundedBuffer
		name string
	}{{m.stdout, "stdout"}, {m.stderr, "stderr"}} {
		out, truncated := stream.buf.Drain()
		for _, line := range strings.Split(strings.TrimRight(out, "\n"), "\n") {
			if line != "" {
				m.logger.InfoContext(ctx, line, "stream", stream.name)
			}
		}
		if truncated {
			m.logger.WarnContext(ctx, "guest output truncated", "stream", stream.name)
		}
	}
}

var _ ports.Module = (*Module)(nil)
