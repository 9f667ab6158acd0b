// Package wazero loads WebAssembly plugin binaries as boundary modules.
//
// A binary exporting plain numeric functions (the C ABI used by
// nom-example-plugin) is compiled with the wazero runtime and exposed as a
// ports.Module. Each exported function becomes a stateless capability entry:
// i32 and i64 map to integer, f32 and f64 to numeric. An `init` export, if
// present, is the module's init entry point.
//
// # Basic Usage
//
//	loader, err := wazero.NewLoader(ctx)
//	if err != nil {
//	    return err
//	}
//	defer loader.Close(ctx)
//
//	mod, err := loader.LoadFile(ctx, "plugins/example.wasm")
//	if err != nil {
//	    return err
//	}
//	_, err = h.Load(ctx, mod)
//
// An optional manifest (nom.yaml or nom.json next to the binary) names the
// module and annotates its exports. A manifest operation whose signature does
// not match the export is rejected at load time.
//
// Guest stdout and stderr are captured in bounded buffers and forwarded to
// the configured slog logger after every call.
package wazero
