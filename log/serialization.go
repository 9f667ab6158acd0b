package log

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nom-cli/plugin-sdk/wireformat"
)

// field is a flattened attribute: group names are joined into the key.
type field struct {
	value any
	key   string
}

// appendFields flattens attr under group and appends the result.
func appendFields(fields []field, group string, attr slog.Attr) []field {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return fields
	}

	if attr.Value.Kind() == slog.KindGroup {
		prefix := group
		if attr.Key != "" {
			prefix = joinKey(group, attr.Key)
		}
		for _, a := range attr.Value.Group() {
			fields = appendFields(fields, prefix, a)
		}
		return fields
	}

	return append(fields, field{key: joinKey(group, attr.Key), value: attrValue(attr.Value)})
}

// attrValue converts a resolved slog value into a JSON-friendly Go value.
func attrValue(v slog.Value) any {
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindInt64:
		return v.Int64()
	case slog.KindUint64:
		return v.Uint64()
	case slog.KindBool:
		return v.Bool()
	case slog.KindFloat64:
		return v.Float64()
	case slog.KindTime:
		return v.Time().Format(time.RFC3339Nano)
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindAny:
		switch a := v.Any().(type) {
		case nil:
			return nil
		case error:
			return a.Error()
		case fmt.Stringer:
			return a.String()
		default:
			if _, err := json.Marshal(a); err == nil {
				return a
			}
			return fmt.Sprintf("%v", a)
		}
	default:
		return v.String()
	}
}

// encodeFields renders fields as a JSON object.
func encodeFields(fields []field) (string, error) {
	obj := make(map[string]any, len(fields))
	for _, f := range fields {
		obj[f.key] = f.value
	}
	return wireformat.EncodeString(obj)
}

func joinKey(group, key string) string {
	if group == "" {
		return key
	}
	return group + "." + key
}
