package entities

import "fmt"

// ValueKind is the kind of a value crossing the boundary.
type ValueKind string

const (
	// KindInteger is a 64-bit signed integer.
	KindInteger ValueKind = "integer"

	// KindText is a UTF-8 string.
	KindText ValueKind = "text"

	// KindBoolean is a boolean.
	KindBoolean ValueKind = "boolean"

	// KindNumeric is an IEEE-754 double.
	KindNumeric ValueKind = "numeric"

	// KindHandle is an opaque instance handle.
	KindHandle ValueKind = "handle"

	// KindEnvelope is a tagged record or sequence encoded as structured text.
	KindEnvelope ValueKind = "envelope"

	// KindVoid is only valid as a result kind: the operation returns nothing.
	KindVoid ValueKind = "void"
)

// IsParam reports whether the kind may appear in a parameter list.
func (k ValueKind) IsParam() bool {
	switch k {
	case KindInteger, KindText, KindBoolean, KindNumeric, KindHandle, KindEnvelope:
		return true
	default:
		return false
	}
}

// IsResult reports whether the kind may be used as a result kind.
func (k ValueKind) IsResult() bool {
	return k == KindVoid || k.IsParam()
}

// CapabilityEntry describes one exported operation of a module.
// Entries are immutable once a module is loaded.
type CapabilityEntry struct {
	// Name is the operation name (e.g., "validate_email"). For constructors
	// it equals the class name.
	Name string `json:"name" yaml:"name"`

	// Class is the instance kind the operation belongs to.
	// Empty for stateless operations.
	Class string `json:"class,omitempty" yaml:"class,omitempty"`

	// Description is a human-readable summary.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Params are the ordered parameter kinds.
	Params []ValueKind `json:"params" yaml:"params"`

	// Result is the result kind.
	Result ValueKind `json:"result" yaml:"result"`

	// ConfigSchema is the JSON Schema of the constructor config, if any.
	ConfigSchema []byte `json:"config_schema,omitempty" yaml:"-"`

	// Constructor marks the entry that creates instances of Class.
	Constructor bool `json:"constructor,omitempty" yaml:"constructor,omitempty"`

	// RequiresInstance marks operations that must be invoked through a handle.
	RequiresInstance bool `json:"requires_instance,omitempty" yaml:"requires_instance,omitempty"`

	// MutatesInstance marks operations that change instance state.
	MutatesInstance bool `json:"mutates_instance,omitempty" yaml:"mutates_instance,omitempty"`

	// Fallible marks operations that can report an error.
	Fallible bool `json:"fallible,omitempty" yaml:"fallible,omitempty"`

	// Emits marks operations that may fire the instance callback.
	Emits bool `json:"emits,omitempty" yaml:"emits,omitempty"`
}

// Key returns the lookup key of the entry within its module.
func (e CapabilityEntry) Key() string {
	return OperationKey(e.Class, e.Name)
}

// Signature renders the entry as "class.name(kinds...) -> result".
func (e CapabilityEntry) Signature() string {
	return fmt.Sprintf("%s%v -> %s", e.Key(), e.Params, e.Result)
}

// SameSignature reports whether two entries describe the same call shape.
func (e CapabilityEntry) SameSignature(other CapabilityEntry) bool {
	if e.Key() != other.Key() || e.Result != other.Result || len(e.Params) != len(other.Params) {
		return false
	}
	for i := range e.Params {
		if e.Params[i] != other.Params[i] {
			return false
		}
	}
	return e.Constructor == other.Constructor &&
		e.RequiresInstance == other.RequiresInstance &&
		e.MutatesInstance == other.MutatesInstance &&
		e.Fallible == other.Fallible
}

// OperationKey builds the lookup key for an operation of a class.
// Stateless operations have an empty class.
func OperationKey(class, name string) string {
	if class == "" {
		return name
	}
	return class + "." + name
}
