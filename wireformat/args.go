package wireformat

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"unicode/utf8"

	"github.com/nom-cli/plugin-sdk/domain/entities"
	"github.com/nom-cli/plugin-sdk/domain/errors"
)

// Args holds decoded arguments. Each element has the Go type of its kind:
// int64, string, bool, float64, entities.Handle or json.RawMessage.
type Args []any

// EncodeArgs encodes positional arguments as a JSON array.
func EncodeArgs(args ...any) ([]byte, error) {
	if args == nil {
		args = []any{}
	}
	return Encode(args)
}

// DecodeArgs decodes a JSON array of arguments and checks it against kinds.
// Malformed JSON fails with a MarshalError; a well-formed array with the wrong
// arity or element kinds fails with errors.ErrArityOrTypeMismatch.
// Empty input is treated as an empty argument list.
func DecodeArgs(op string, data []byte, kinds []entities.ValueKind) (Args, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		trimmed = []byte("[]")
	}
	if !utf8.Valid(trimmed) {
		return nil, decodeError("arguments are not valid UTF-8", nil)
	}
	if !json.Valid(trimmed) {
		return nil, decodeError("malformed arguments", nil)
	}
	if trimmed[0] != '[' {
		return nil, &errors.MismatchError{Operation: op, Reason: "arguments must be an array", Index: -1}
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, decodeError("", err)
	}
	if len(raw) != len(kinds) {
		return nil, &errors.MismatchError{
			Operation: op,
			Reason:    fmt.Sprintf("expected %d arguments, got %d", len(kinds), len(raw)),
			Index:     -1,
		}
	}

	args := make(Args, len(raw))
	for i, kind := range kinds {
		v, err := decodeArg(raw[i], kind)
		if err != nil {
			return nil, &errors.MismatchError{Operation: op, Reason: err.Error(), Index: i}
		}
		args[i] = v
	}
	return args, nil
}

func decodeArg(raw json.RawMessage, kind entities.ValueKind) (any, error) {
	if kind == entities.KindEnvelope {
		return append(json.RawMessage(nil), raw...), nil
	}

	var v any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}

	switch kind {
	case entities.KindInteger:
		n, ok := v.(json.Number)
		if !ok {
			return nil, fmt.Errorf("expected integer, got %s", jsonKind(v))
		}
		i, ok := wholeInt64(n)
		if !ok {
			return nil, fmt.Errorf("expected 64-bit integer, got %s", n)
		}
		return i, nil
	case entities.KindNumeric:
		n, ok := v.(json.Number)
		if !ok {
			return nil, fmt.Errorf("expected numeric, got %s", jsonKind(v))
		}
		f, err := n.Float64()
		if err != nil || math.IsInf(f, 0) {
			return nil, fmt.Errorf("numeric %s out of range", n)
		}
		return f, nil
	case entities.KindText:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected text, got %s", jsonKind(v))
		}
		return s, nil
	case entities.KindBoolean:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("expected boolean, got %s", jsonKind(v))
		}
		return b, nil
	case entities.KindHandle:
		s, ok := v.(string)
		if !ok || s == "" {
			return nil, fmt.Errorf("expected handle, got %s", jsonKind(v))
		}
		return entities.Handle(s), nil
	default:
		return nil, fmt.Errorf("kind %q cannot be an argument", kind)
	}
}

// wholeInt64 accepts any JSON number with an integral value in int64 range,
// including forms such as 5.0 and 1e2.
func wholeInt64(n json.Number) (int64, bool) {
	if i, err := n.Int64(); err == nil {
		return i, true
	}
	f, _, err := big.ParseFloat(n.String(), 10, 128, big.ToNearestEven)
	if err != nil || f.Acc() != big.Exact || !f.IsInt() {
		return 0, false
	}
	i, acc := f.Int64()
	return i, acc == big.Exact
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case json.Number:
		return "number"
	case string:
		return "string"
	case bool:
		return "boolean"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// Len returns the number of arguments.
func (a Args) Len() int {
	return len(a)
}

// Int returns argument i as an integer.
func (a Args) Int(i int) int64 {
	return a[i].(int64)
}

// Text returns argument i as text.
func (a Args) Text(i int) string {
	return a[i].(string)
}

// Bool returns argument i as a boolean.
func (a Args) Bool(i int) bool {
	return a[i].(bool)
}

// Numeric returns argument i as a float64.
func (a Args) Numeric(i int) float64 {
	return a[i].(float64)
}

// Handle returns argument i as a handle.
func (a Args) Handle(i int) entities.Handle {
	return a[i].(entities.Handle)
}

// Envelope decodes envelope argument i into v.
func (a Args) Envelope(i int, v any) error {
	return Decode(a[i].(json.RawMessage), v)
}
