package wazero

import (
	"fmt"
	"math"
	"strings"

	"github.com/tetratelabs/wazero/api"

	"github.com/nom-cli/plugin-sdk/domain/entities"
	"github.com/nom-cli/plugin-sdk/domain/errors"
	"github.com/nom-cli/plugin-sdk/wireformat"
)

// InitExport is the export called by Init.
const InitExport = "init"

// reservedExports are runtime plumbing, not capabilities.
var reservedExports = map[string]bool{
	InitExport:    true,
	"_initialize": true,
	"_start":      true,
	"allocate":    true,
	"deallocate":  true,
}

func isReserved(name string) bool {
	return reservedExports[name] || strings.HasPrefix(name, "__")
}

// kindOf maps a core wasm value type to its boundary kind.
func kindOf(t api.ValueType) (entities.ValueKind, error) {
	switch t {
	case api.ValueTypeI32, api.ValueTypeI64:
		return entities.KindInteger, nil
	case api.ValueTypeF32, api.ValueTypeF64:
		return entities.KindNumeric, nil
	default:
		return "", fmt.Errorf("unsupported value type %s", api.ValueTypeName(t))
	}
}

// entryFor builds the stateless capability entry of an exported function.
func entryFor(name string, def api.FunctionDefinition) (entities.CapabilityEntry, error) {
	params := make([]entities.ValueKind, 0, len(def.ParamTypes()))
	for _, t := range def.ParamTypes() {
		k, err := kindOf(t)
		if err != nil {
			return entities.CapabilityEntry{}, fmt.Errorf("export %s: %w", name, err)
		}
		params = append(params, k)
	}

	result := entities.KindVoid
	switch results := def.ResultTypes(); len(results) {
	case 0:
	case 1:
		k, err := kindOf(results[0])
		if err != nil {
			return entities.CapabilityEntry{}, fmt.Errorf("export %s: %w", name, err)
		}
		result = k
	default:
		return entities.CapabilityEntry{}, fmt.Errorf("export %s: multiple results are not supported", name)
	}

	return entities.CapabilityEntry{Name: name, Params: params, Result: result}, nil
}

// encodeParams lowers decoded arguments to the wasm stack.
func encodeParams(op string, types []api.ValueType, args wireformat.Args) ([]uint64, error) {
	stack := make([]uint64, len(types))
	for i, t := range types {
		switch t {
		case api.ValueTypeI32:
			v := args.Int(i)
			if v < math.MinInt32 || v > math.MaxInt32 {
				return nil, &errors.MismatchError{Operation: op, Reason: fmt.Sprintf("%d overflows i32", v), Index: i}
			}
			stack[i] = api.EncodeI32(int32(v))
		case api.ValueTypeI64:
			stack[i] = api.EncodeI64(args.Int(i))
		case api.ValueTypeF32:
			stack[i] = api.EncodeF32(float32(args.Numeric(i)))
		case api.ValueTypeF64:
			stack[i] = api.EncodeF64(args.Numeric(i))
		}
	}
	return stack, nil
}

// decodeResult lifts a wasm result to its Go value.
func decodeResult(types []api.ValueType, results []uint64) any {
	if len(types) == 0 || len(results) == 0 {
		return nil
	}
	switch types[0] {
	case api.ValueTypeI32:
		return int64(api.DecodeI32(results[0]))
	case api.ValueTypeI64:
		return int64(results[0])
	case api.ValueTypeF32:
		return float64(api.DecodeF32(results[0]))
	case api.ValueTypeF64:
		return api.DecodeF64(results[0])
	}
	return nil
}
