package ports

import "github.com/nom-cli/plugin-sdk/domain/entities"

// ManifestParser parses raw manifest bytes into a Manifest.
type ManifestParser interface {
	// Parse unmarshals YAML (or JSON) bytes into a Manifest struct.
	Parse(data []byte) (*entities.Manifest, error)
}
