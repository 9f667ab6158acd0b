// Package wireformat is the boundary marshaling layer. Values cross the boundary
// as JSON text so host and plugin never share a binary layout. These types must
// remain stable and backward compatible as they define the boundary contract.
package wireformat

import (
	"bytes"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/nom-cli/plugin-sdk/domain/entities"
)

// ErrMarshal matches every MarshalError under errors.Is.
var ErrMarshal = stdErrors.New("marshal error")

// MarshalError reports boundary data that cannot be encoded or decoded.
// It never carries a partial value.
type MarshalError struct {
	Err    error
	Op     string // "encode" or "decode"
	Reason string
}

func (e *MarshalError) Error() string {
	return fmt.Sprintf("%s failed: %s", e.Op, e.Reason)
}

func (e *MarshalError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is.
func (e *MarshalError) Is(target error) bool {
	return target == ErrMarshal
}

// ToErrorDetail converts the error to its wire form.
func (e *MarshalError) ToErrorDetail() *entities.ErrorDetail {
	return entities.NewErrorDetail("marshal", e.Error()).
		WithCode(e.Op).
		WithDetails(map[string]any{"reason": e.Reason})
}

func encodeError(err error) *MarshalError {
	return &MarshalError{Op: "encode", Reason: err.Error(), Err: err}
}

func decodeError(reason string, err error) *MarshalError {
	switch {
	case err != nil && reason != "":
		reason = reason + ": " + err.Error()
	case err != nil:
		reason = err.Error()
	}
	return &MarshalError{Op: "decode", Reason: reason, Err: err}
}

// Encode converts a value to its boundary representation.
// Values without a valid representation (NaN, ±Inf, channels, funcs, text that
// is not UTF-8) fail with a MarshalError; no placeholder is substituted.
func Encode(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, encodeError(err)
	}
	if !utf8.Valid(data) || hasReplacement(data) {
		return nil, encodeError(stdErrors.New("text is not valid UTF-8"))
	}
	return data, nil
}

// hasReplacement reports whether marshaled JSON carries the \ufffd escape
// that encoding/json writes in place of invalid UTF-8. A genuine U+FFFD rune
// is written raw, and an escaped backslash before "ufffd" does not count.
func hasReplacement(data []byte) bool {
	esc := []byte(`\ufffd`)
	for i := 0; ; {
		j := bytes.Index(data[i:], esc)
		if j < 0 {
			return false
		}
		j += i
		slashes := 0
		for k := j; k >= 0 && data[k] == '\\'; k-- {
			slashes++
		}
		if slashes%2 == 1 {
			return true
		}
		i = j + len(esc)
	}
}

// EncodeString is Encode for payloads that travel as text (callback payloads).
func EncodeString(v any) (string, error) {
	data, err := Encode(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Decode parses boundary data into v. Numbers are kept as json.Number when v
// is untyped so 64-bit integers survive the round trip. Input that is not
// exactly one JSON value is rejected before v is touched.
func Decode(data []byte, v any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return decodeError("empty input", nil)
	}
	if !utf8.Valid(data) {
		return decodeError("input is not valid UTF-8", nil)
	}
	if !json.Valid(data) {
		var probe any
		return decodeError("malformed input", json.Unmarshal(data, &probe))
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return decodeError("", err)
	}
	return nil
}

// EncodeResult encodes an operation result after checking it against the
// descriptor's result kind. Void results encode to nil.
func EncodeResult(kind entities.ValueKind, v any) ([]byte, error) {
	if kind == entities.KindVoid {
		return nil, nil
	}
	if err := checkResult(kind, v); err != nil {
		return nil, err
	}
	return Encode(v)
}

func checkResult(kind entities.ValueKind, v any) error {
	ok := true
	switch kind {
	case entities.KindInteger:
		switch v.(type) {
		case int, int8, int16, int32, int64, uint8, uint16, uint32:
		default:
			ok = false
		}
	case entities.KindText:
		_, ok = v.(string)
	case entities.KindBoolean:
		_, ok = v.(bool)
	case entities.KindNumeric:
		switch n := v.(type) {
		case float64:
			if math.IsNaN(n) || math.IsInf(n, 0) {
				return encodeError(fmt.Errorf("non-finite numeric result %v", n))
			}
		case float32:
			if math.IsNaN(float64(n)) || math.IsInf(float64(n), 0) {
				return encodeError(fmt.Errorf("non-finite numeric result %v", n))
			}
		case int, int32, int64:
		default:
			ok = false
		}
	case entities.KindHandle:
		switch v.(type) {
		case entities.Handle, string:
		default:
			ok = false
		}
	}
	if !ok {
		return encodeError(fmt.Errorf("result %T does not match kind %s", v, kind))
	}
	return nil
}
