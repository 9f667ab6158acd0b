package entities

// Manifest is the sidecar metadata shipped with a binary module
// (nom.yaml or nom.json). It names the module and annotates its exports.
type Manifest struct {
	Name        string            `json:"name" yaml:"name"`
	Version     string            `json:"version" yaml:"version"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Author      string            `json:"author,omitempty" yaml:"author,omitempty"`
	Operations  []CapabilityEntry `json:"operations,omitempty" yaml:"operations,omitempty"`
}

// ToDescriptor converts the manifest into a descriptor with the manifest's entries.
func (m Manifest) ToDescriptor() Descriptor {
	return Descriptor{
		Name:        m.Name,
		Version:     m.Version,
		Description: m.Description,
		Author:      m.Author,
		Entries:     append([]CapabilityEntry(nil), m.Operations...),
	}
}
