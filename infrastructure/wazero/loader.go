package wazero

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/nom-cli/plugin-sdk/domain/entities"
	"github.com/nom-cli/plugin-sdk/domain/errors"
	"github.com/nom-cli/plugin-sdk/domain/ports"
	"github.com/nom-cli/plugin-sdk/infrastructure/parser"
)

// SizeWarningThreshold is the binary size above which Load logs a warning (10MB).
const SizeWarningThreshold = 10 * 1024 * 1024

// ManifestNames are the manifest files LoadFile looks for next to a binary.
var ManifestNames = []string{"nom.yaml", "nom.yml", "nom.json"}

var wasmMagic = []byte{0x00, 0x61, 0x73, 0x6d}

// loaderConfig holds configuration for the Loader.
type loaderConfig struct {
	logger        *slog.Logger
	parser        ports.ManifestParser
	maxOutputSize int
}

func defaultLoaderConfig() loaderConfig {
	return loaderConfig{
		logger:        slog.Default(),
		parser:        parser.NewYamlManifestParser(),
		maxOutputSize: DefaultMaxOutputSize,
	}
}

// LoaderOption configures the Loader.
type LoaderOption func(*loaderConfig)

// WithLogger sets the logger for load diagnostics and guest output.
func WithLogger(l *slog.Logger) LoaderOption {
	return func(c *loaderConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithParser sets a custom manifest parser.
func WithParser(p ports.ManifestParser) LoaderOption {
	return func(c *loaderConfig) {
		if p != nil {
			c.parser = p
		}
	}
}

// WithMaxOutputSize limits the guest stdout/stderr captured per call.
func WithMaxOutputSize(n int) LoaderOption {
	return func(c *loaderConfig) {
		if n > 0 {
			c.maxOutputSize = n
		}
	}
}

// Loader compiles and instantiates wasm plugin binaries on one shared runtime.
type Loader struct {
	runtime wazero.Runtime
	config  loaderConfig
}

// NewLoader creates a runtime with WASI preview1 available to guests.
func NewLoader(ctx context.Context, opts ...LoaderOption) (*Loader, error) {
	cfg := defaultLoaderConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	rt := wazero.NewRuntime(ctx)
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("failed to instantiate WASI: %w", err)
	}
	return &Loader{runtime: rt, config: cfg}, nil
}

// Close releases the runtime and every module loaded through it.
func (l *Loader) Close(ctx context.Context) error {
	return l.runtime.Close(ctx)
}

// LoadFile reads a binary from disk. A manifest from ManifestNames in the same
// directory is applied when present; otherwise the module is named after the
// file.
func (l *Loader) LoadFile(ctx context.Context, path string) (*Module, error) {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	binary, err := os.ReadFile(path)
	if err != nil {
		return nil, &errors.LoadError{Module: name, Err: err}
	}

	var manifest []byte
	for _, candidate := range ManifestNames {
		data, err := os.ReadFile(filepath.Join(filepath.Dir(path), candidate))
		if err == nil {
			manifest = data
			break
		}
		if !stdErrors.Is(err, os.ErrNotExist) {
			return nil, &errors.LoadError{Module: name, Err: err}
		}
	}

	return l.Load(ctx, name, binary, manifest)
}

// Load compiles binary and maps its exports to a descriptor. name is used
// unless manifest (optional, YAML or JSON) provides one. No guest code runs
// besides a reactor's _initialize.
func (l *Loader) Load(ctx context.Context, name string, binary, manifest []byte) (*Module, error) {
	if len(binary) < 8 || string(binary[:4]) != string(wasmMagic) {
		return nil, &errors.LoadError{Module: name, Err: stdErrors.New("invalid wasm binary: bad magic header")}
	}
	if len(binary) > SizeWarningThreshold {
		l.config.logger.WarnContext(ctx, "large wasm binary", "module", name, "bytes", len(binary))
	}

	sum := sha256.Sum256(binary)
	checksum := hex.EncodeToString(sum[:])

	var m *entities.Manifest
	if len(manifest) > 0 {
		parsed, err := l.config.parser.Parse(manifest)
		if err != nil {
			return nil, &errors.LoadError{Module: name, Err: err}
		}
		m = parsed
		name = m.Name
	}

	compiled, err := l.runtime.CompileModule(ctx, binary)
	if err != nil {
		return nil, &errors.LoadError{Module: name, Err: fmt.Errorf("compile: %w", err)}
	}

	descriptor, err := describe(name, compiled, m)
	if err != nil {
		_ = compiled.Close(ctx)
		return nil, &errors.LoadError{Module: name, Err: err}
	}

	stdout := NewBoundedBuffer(l.config.maxOutputSize)
	stderr := NewBoundedBuffer(l.config.maxOutputSize)

	modConfig := wazero.NewModuleConfig().
		WithName(name).
		WithStdout(stdout).
		WithStderr(stderr).
		WithStartFunctions() // Reactor init happens below; command _start never runs.

	instance, err := l.runtime.InstantiateModule(ctx, compiled, modConfig)
	if err != nil {
		_ = compiled.Close(ctx)
		return nil, &errors.LoadError{Module: name, Err: fmt.Errorf("instantiate: %w", err)}
	}

	mod := &Module{
		descriptor: descriptor,
		compiled:   compiled,
		instance:   instance,
		logger:     l.config.logger.With("module", name),
		stdout:     stdout,
		stderr:     stderr,
		checksum:   checksum,
		size:       len(binary),
	}

	if fn := instance.ExportedFunction("_initialize"); fn != nil {
		if _, err := fn.Call(ctx); err != nil {
			_ = mod.Close(ctx)
			return nil, &errors.LoadError{Module: name, Err: fmt.Errorf("failed to call _initialize: %w", err)}
		}
		mod.flushOutput(ctx)
	}

	l.config.logger.InfoContext(ctx, "wasm module loaded",
		"module", name, "exports", len(descriptor.Entries), "sha256", checksum)
	return mod, nil
}

// describe maps exported functions to entries and applies manifest annotations.
func describe(name string, compiled wazero.CompiledModule, m *entities.Manifest) (entities.Descriptor, error) {
	exports := compiled.ExportedFunctions()

	names := make([]string, 0, len(exports))
	for export := range exports {
		if !isReserved(export) {
			names = append(names, export)
		}
	}
	sort.Strings(names)

	if initDef, ok := exports[InitExport]; ok {
		if len(initDef.ParamTypes()) != 0 || len(initDef.ResultTypes()) > 1 {
			return entities.Descriptor{}, fmt.Errorf("export %s must take no parameters and return at most one status", InitExport)
		}
	}

	d := entities.Descriptor{Name: name}
	byName := make(map[string]int, len(names))
	for _, export := range names {
		entry, err := entryFor(export, exports[export])
		if err != nil {
			return entities.Descriptor{}, err
		}
		byName[export] = len(d.Entries)
		d.Entries = append(d.Entries, entry)
	}

	if m == nil {
		return d, nil
	}

	d.Version = m.Version
	d.Description = m.Description
	d.Author = m.Author
	for _, op := range m.Operations {
		i, ok := byName[op.Name]
		if !ok {
			return entities.Descriptor{}, fmt.Errorf("manifest operation %s has no matching export", op.Name)
		}
		export := d.Entries[i]
		if op.Class != "" || op.Constructor || op.RequiresInstance {
			return entities.Descriptor{}, fmt.Errorf("manifest operation %s: wasm exports are stateless", op.Name)
		}
		if !sameKinds(op.Params, export.Params) || op.Result != export.Result {
			return entities.Descriptor{}, fmt.Errorf("manifest operation %s declares %s but the export is %s",
				op.Name, op.Signature(), export.Signature())
		}
		export.Description = op.Description
		export.Fallible = op.Fallible
		d.Entries[i] = export
	}
	return d, nil
}

func sameKinds(a, b []entities.ValueKind) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
