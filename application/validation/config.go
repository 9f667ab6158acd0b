package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	domainerrors "github.com/nom-cli/plugin-sdk/domain/errors"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// validate is a package-level singleton for better performance.
// Creating a new validator on each call is expensive; reusing is recommended.
var validate = validator.New()

// ConfigSchema is a compiled constructor config schema.
type ConfigSchema struct {
	schema *jsonschema.Schema
	url    string
}

// CompileConfigSchema compiles a JSON schema document. url identifies the
// schema in error messages.
func CompileConfigSchema(url string, schema []byte) (*ConfigSchema, error) {
	sch, err := jsonschema.CompileString(url, string(schema))
	if err != nil {
		return nil, fmt.Errorf("invalid config schema %s: %w", url, err)
	}
	return &ConfigSchema{schema: sch, url: url}, nil
}

// Validate checks raw config JSON against the schema. Empty input is treated
// as an empty object.
func (s *ConfigSchema) Validate(raw []byte) error {
	raw = normalizeConfig(raw)
	var doc any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return &domainerrors.ConfigError{Err: fmt.Errorf("malformed config: %w", err)}
	}
	if dec.More() {
		return &domainerrors.ConfigError{Err: errors.New("malformed config: trailing data")}
	}
	if err := s.schema.Validate(doc); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return &domainerrors.ConfigError{Field: ve.InstanceLocation, Err: errors.New(leafMessage(ve))}
		}
		return &domainerrors.ConfigError{Err: err}
	}
	return nil
}

// DecodeConfig validates raw config against schema (when given), unmarshals it
// into target and runs struct tag validation on the result.
func DecodeConfig(raw []byte, schema *ConfigSchema, target any) error {
	raw = normalizeConfig(raw)
	if schema != nil {
		if err := schema.Validate(raw); err != nil {
			return err
		}
	}

	if err := json.Unmarshal(raw, target); err != nil {
		return &domainerrors.ConfigError{Err: fmt.Errorf("failed to unmarshal config: %w", err)}
	}

	if err := validate.Struct(target); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) && len(ve) > 0 {
			return &domainerrors.ConfigError{Field: ve[0].Namespace(), Err: err}
		}
		var inv *validator.InvalidValidationError
		if errors.As(err, &inv) {
			// target is not a struct; tag validation does not apply.
			return nil
		}
		return &domainerrors.ConfigError{Err: err}
	}
	return nil
}

func normalizeConfig(raw []byte) []byte {
	if len(bytes.TrimSpace(raw)) == 0 {
		return []byte("{}")
	}
	return raw
}

// leafMessage returns the most specific message of a schema validation error.
func leafMessage(ve *jsonschema.ValidationError) string {
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	if ve.InstanceLocation != "" {
		return ve.InstanceLocation + ": " + ve.Message
	}
	return ve.Message
}
