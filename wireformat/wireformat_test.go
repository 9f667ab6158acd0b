package wireformat

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/nom-cli/plugin-sdk/domain/entities"
	domainerrors "github.com/nom-cli/plugin-sdk/domain/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundTrip[T any](t *testing.T, v T) T {
	t.Helper()
	data, err := Encode(v)
	require.NoError(t, err)
	var out T
	require.NoError(t, Decode(data, &out))
	return out
}

func TestRoundTrip(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		for _, s := range []string{"", "hello", "héllo wörld ✓", "line\nbreak \"quoted\"", "\ufffd", `\ufffd`} {
			assert.Equal(t, s, roundTrip(t, s))
		}
	})

	t.Run("integer", func(t *testing.T) {
		for _, n := range []int64{0, 1, -1, math.MaxInt64, math.MinInt64} {
			assert.Equal(t, n, roundTrip(t, n))
		}
	})

	t.Run("boolean", func(t *testing.T) {
		assert.True(t, roundTrip(t, true))
		assert.False(t, roundTrip(t, false))
	})

	t.Run("numeric", func(t *testing.T) {
		for _, f := range []float64{0, 0.1, -2.5, math.MaxFloat64, math.SmallestNonzeroFloat64} {
			assert.Equal(t, f, roundTrip(t, f))
		}
	})

	t.Run("record", func(t *testing.T) {
		ev := entities.ValidationEvent{Field: "email", Valid: false, Message: "Invalid email format"}
		assert.Equal(t, ev, roundTrip(t, ev))
	})

	t.Run("sequence of records", func(t *testing.T) {
		meta := `{"k":"v"}`
		entries := []entities.LogEntry{
			{Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 6, time.UTC), Level: entities.LogLevelInfo, Message: "a"},
			{Timestamp: time.Date(2026, 1, 2, 3, 4, 6, 0, time.UTC), Level: entities.LogLevelDebug, Message: "b", Metadata: &meta},
		}
		assert.Equal(t, entries, roundTrip(t, entries))
	})

	t.Run("untyped integers keep precision", func(t *testing.T) {
		data, err := Encode(map[string]any{"n": int64(math.MaxInt64)})
		require.NoError(t, err)
		var out map[string]any
		require.NoError(t, Decode(data, &out))
		n, err := out["n"].(json.Number).Int64()
		require.NoError(t, err)
		assert.Equal(t, int64(math.MaxInt64), n)
	})
}

func TestEncode_NonFinite(t *testing.T) {
	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := Encode(f)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMarshal))

		var me *MarshalError
		require.True(t, errors.As(err, &me))
		assert.Equal(t, "encode", me.Op)

		detail := me.ToErrorDetail()
		assert.Equal(t, "marshal", detail.Type)
		assert.Equal(t, "encode", detail.Code)
		assert.Equal(t, me.Reason, detail.Details["reason"])
	}

	_, err := Encode([]any{1, math.NaN()})
	assert.ErrorIs(t, err, ErrMarshal)
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"whitespace", "   "},
		{"truncated object", `{"field":`},
		{"bare word", `hello`},
		{"trailing data", `{"a":1} {"b":2}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v map[string]any
			err := Decode([]byte(tt.input), &v)
			require.Error(t, err)
			var me *MarshalError
			require.True(t, errors.As(err, &me))
			assert.Equal(t, "decode", me.Op)
			assert.NotEmpty(t, me.Reason)
			assert.Nil(t, v)
		})
	}
}

func TestDecodeArgs(t *testing.T) {
	kinds := []entities.ValueKind{
		entities.KindText, entities.KindInteger, entities.KindBoolean,
		entities.KindNumeric, entities.KindHandle, entities.KindEnvelope,
	}

	args, err := DecodeArgs("op", []byte(`["hi", 9223372036854775807, true, 1.5, "h-1", {"a":[1,2]}]`), kinds)
	require.NoError(t, err)
	require.Equal(t, 6, args.Len())

	assert.Equal(t, "hi", args.Text(0))
	assert.Equal(t, int64(math.MaxInt64), args.Int(1))
	assert.True(t, args.Bool(2))
	assert.Equal(t, 1.5, args.Numeric(3))
	assert.Equal(t, entities.Handle("h-1"), args.Handle(4))

	var env struct {
		A []int `json:"a"`
	}
	require.NoError(t, args.Envelope(5, &env))
	assert.Equal(t, []int{1, 2}, env.A)
}

func TestDecodeArgs_Empty(t *testing.T) {
	for _, input := range []string{"", "[]", " [ ] "} {
		args, err := DecodeArgs("hello", []byte(input), nil)
		require.NoError(t, err)
		assert.Equal(t, 0, args.Len())
	}
}

func TestDecodeArgs_Errors(t *testing.T) {
	two := []entities.ValueKind{entities.KindInteger, entities.KindInteger}

	tests := []struct {
		name     string
		input    string
		kinds    []entities.ValueKind
		mismatch bool
	}{
		{"malformed", `[1,`, two, false},
		{"not an array", `{"a":1}`, two, true},
		{"too few", `[1]`, two, true},
		{"too many", `[1,2,3]`, two, true},
		{"text for integer", `["1", 2]`, two, true},
		{"fraction for integer", `[1.5, 2]`, two, true},
		{"overflow integer", `[9223372036854775808, 2]`, two, true},
		{"null for text", `[null]`, []entities.ValueKind{entities.KindText}, true},
		{"number for boolean", `[1]`, []entities.ValueKind{entities.KindBoolean}, true},
		{"empty handle", `[""]`, []entities.ValueKind{entities.KindHandle}, true},
		{"numeric out of range", `[1e400]`, []entities.ValueKind{entities.KindNumeric}, true},
		{"fractional exponent for integer", `[1e-2, 2]`, two, true},
		{"integral float overflow", `[9.3e18, 2]`, two, true},
		{"invalid UTF-8 text", "[\"a\xffb\"]", []entities.ValueKind{entities.KindText}, false},
		{"invalid UTF-8 envelope", "[{\"k\":\"\xff\"}]", []entities.ValueKind{entities.KindEnvelope}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeArgs("add", []byte(tt.input), tt.kinds)
			require.Error(t, err)
			if tt.mismatch {
				assert.ErrorIs(t, err, domainerrors.ErrArityOrTypeMismatch)
				assert.NotErrorIs(t, err, ErrMarshal)
			} else {
				assert.ErrorIs(t, err, ErrMarshal)
			}
		})
	}
}

func TestDecodeArgs_IntegralNumbers(t *testing.T) {
	two := []entities.ValueKind{entities.KindInteger, entities.KindInteger}

	tests := []struct {
		input string
		want  int64
	}{
		{`[5.0, 0]`, 5},
		{`[1e2, 0]`, 100},
		{`[-2.50e1, 0]`, -25},
		{`[9223372036854775807.0, 0]`, math.MaxInt64},
		{`[-9.223372036854775808e18, 0]`, math.MinInt64},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			args, err := DecodeArgs("add", []byte(tt.input), two)
			require.NoError(t, err)
			assert.Equal(t, tt.want, args.Int(0))
		})
	}
}

func TestInvalidUTF8IsMarshalError(t *testing.T) {
	t.Run("encode", func(t *testing.T) {
		for _, v := range []any{
			"a\xffb",
			[]string{"ok", "\xc3"},
			map[string]string{"k\xff": "v"},
			entities.ValidationEvent{Field: "email", Message: "bad \xff"},
		} {
			_, err := Encode(v)
			assert.ErrorIs(t, err, ErrMarshal, "%q", v)
		}

		_, err := EncodeArgs("a\xffb")
		assert.ErrorIs(t, err, ErrMarshal)

		_, err = EncodeResult(entities.KindText, "a\xffb")
		assert.ErrorIs(t, err, ErrMarshal)
	})

	t.Run("decode", func(t *testing.T) {
		var s string
		err := Decode([]byte("\"a\xffb\""), &s)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMarshal)
		assert.Empty(t, s)
	})
}

func TestEncodeArgs(t *testing.T) {
	data, err := EncodeArgs()
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))

	data, err = EncodeArgs("hello", 1, 10)
	require.NoError(t, err)

	args, err := DecodeArgs("validate_length", data,
		[]entities.ValueKind{entities.KindText, entities.KindInteger, entities.KindInteger})
	require.NoError(t, err)
	assert.Equal(t, "hello", args.Text(0))
	assert.Equal(t, int64(10), args.Int(2))
}

func TestEncodeResult(t *testing.T) {
	t.Run("void encodes to nil", func(t *testing.T) {
		data, err := EncodeResult(entities.KindVoid, "ignored")
		require.NoError(t, err)
		assert.Nil(t, data)
	})

	t.Run("matching kinds", func(t *testing.T) {
		data, err := EncodeResult(entities.KindInteger, int64(5))
		require.NoError(t, err)
		assert.Equal(t, "5", string(data))

		data, err = EncodeResult(entities.KindBoolean, true)
		require.NoError(t, err)
		assert.Equal(t, "true", string(data))

		data, err = EncodeResult(entities.KindEnvelope, entities.AuthResult{Success: true, Role: "admin", Token: "admin-token"})
		require.NoError(t, err)
		assert.JSONEq(t, `{"success":true,"role":"admin","token":"admin-token"}`, string(data))
	})

	t.Run("kind mismatch", func(t *testing.T) {
		_, err := EncodeResult(entities.KindText, 42)
		assert.ErrorIs(t, err, ErrMarshal)
	})

	t.Run("non-finite numeric", func(t *testing.T) {
		_, err := EncodeResult(entities.KindNumeric, math.Inf(1))
		assert.ErrorIs(t, err, ErrMarshal)
	})
}
