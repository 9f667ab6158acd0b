// Package parser reads module manifests.
package parser

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/nom-cli/plugin-sdk/domain/entities"
	"github.com/nom-cli/plugin-sdk/domain/ports"
)

// YamlManifestParser implements ManifestParser for YAML. JSON manifests parse
// too, since JSON is a subset of YAML.
type YamlManifestParser struct{}

// NewYamlManifestParser creates a new YamlManifestParser.
func NewYamlManifestParser() ports.ManifestParser {
	return &YamlManifestParser{}
}

// Parse unmarshals YAML bytes into a Manifest. Unknown keys are rejected so
// a misspelled field does not silently drop an annotation.
func (p *YamlManifestParser) Parse(data []byte) (*entities.Manifest, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("empty manifest")
	}

	var manifest entities.Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	if manifest.Name == "" {
		return nil, errors.New("manifest has no name")
	}
	for i := range manifest.Operations {
		if manifest.Operations[i].Params == nil {
			manifest.Operations[i].Params = []entities.ValueKind{}
		}
		if manifest.Operations[i].Result == "" {
			manifest.Operations[i].Result = entities.KindVoid
		}
	}
	return &manifest, nil
}
