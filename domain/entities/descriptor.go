package entities

// Descriptor is the static capability metadata a module exposes.
type Descriptor struct {
	Name        string            `json:"name" yaml:"name"`
	Version     string            `json:"version" yaml:"version"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Author      string            `json:"author,omitempty" yaml:"author,omitempty"`
	Entries     []CapabilityEntry `json:"entries" yaml:"entries"`
}

// Lookup returns the entry for the given class and operation name.
func (d Descriptor) Lookup(class, name string) (CapabilityEntry, bool) {
	key := OperationKey(class, name)
	for _, e := range d.Entries {
		if e.Key() == key {
			return e, true
		}
	}
	return CapabilityEntry{}, false
}

// Constructor returns the constructor entry of a class.
func (d Descriptor) Constructor(class string) (CapabilityEntry, bool) {
	e, ok := d.Lookup(class, class)
	if !ok || !e.Constructor {
		return CapabilityEntry{}, false
	}
	return e, true
}

// Classes returns the names of all constructible classes, in entry order.
func (d Descriptor) Classes() []string {
	var classes []string
	for _, e := range d.Entries {
		if e.Constructor {
			classes = append(classes, e.Class)
		}
	}
	return classes
}

// Stateful reports whether the module exposes any constructor.
func (d Descriptor) Stateful() bool {
	return len(d.Classes()) > 0
}
