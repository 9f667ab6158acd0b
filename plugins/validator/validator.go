// Package validator is a field validation plugin. validate_email reports each
// check to the instance callback as a ValidationEvent before returning.
package validator

import (
	"context"
	"encoding/json"
	"strconv"
	"unicode"

	govalidator "github.com/go-playground/validator/v10"

	"github.com/nom-cli/plugin-sdk/application/plugin"
	"github.com/nom-cli/plugin-sdk/domain/entities"
)

const (
	// Name is the module name of the validator plugin.
	Name = "validator"

	// Class is the instance class exported by the plugin.
	Class = "Validator"
)

// Messages carried by email validation events.
const (
	MessageValidEmail   = "Valid email"
	MessageInvalidEmail = "Invalid email format"
)

type checker struct {
	validate *govalidator.Validate
}

// New returns the validator plugin definition.
func New() *plugin.Definition {
	def := plugin.DefinePlugin(plugin.PluginDef{
		Name:        Name,
		Version:     "0.1.0",
		Description: "Field format validation",
		Author:      "Nom",
	})

	text := []entities.ValueKind{entities.KindText}

	plugin.RegisterClass(def, Class, "Creates a validator", func(context.Context, plugin.NoConfig) (*checker, error) {
		return &checker{validate: govalidator.New()}, nil
	}).
		Method(plugin.Op{Name: "validate_email", Params: text, Result: entities.KindBoolean, Emits: true}, validateEmail).
		Method(plugin.Op{Name: "validate_url", Params: text, Result: entities.KindBoolean}, validateURL).
		Method(plugin.Op{Name: "validate_json", Params: text, Result: entities.KindBoolean}, validateJSON).
		Method(plugin.Op{
			Name:        "validate_length",
			Description: "Checks that the byte length lies in [min, max]",
			Params:      []entities.ValueKind{entities.KindText, entities.KindInteger, entities.KindInteger},
			Result:      entities.KindBoolean,
		}, validateLength).
		Method(plugin.Op{Name: "validate_numeric", Params: text, Result: entities.KindBoolean}, validateNumeric).
		Method(plugin.Op{Name: "validate_alphanumeric", Params: text, Result: entities.KindBoolean}, validateAlphanumeric)

	return def
}

func validateEmail(ctx context.Context, c *checker, call *plugin.Call) (any, error) {
	valid := c.validate.Var(call.Args.Text(0), "required,email") == nil

	event := entities.ValidationEvent{Field: "email", Valid: valid, Message: MessageInvalidEmail}
	if valid {
		event.Message = MessageValidEmail
	}
	if err := call.Emit(ctx, event); err != nil {
		return nil, err
	}
	return valid, nil
}

func validateURL(_ context.Context, c *checker, call *plugin.Call) (any, error) {
	return c.validate.Var(call.Args.Text(0), "required,http_url") == nil, nil
}

func validateJSON(_ context.Context, _ *checker, call *plugin.Call) (any, error) {
	return json.Valid([]byte(call.Args.Text(0))), nil
}

func validateLength(_ context.Context, _ *checker, call *plugin.Call) (any, error) {
	n := int64(len(call.Args.Text(0)))
	return n >= call.Args.Int(1) && n <= call.Args.Int(2), nil
}

func validateNumeric(_ context.Context, _ *checker, call *plugin.Call) (any, error) {
	_, err := strconv.ParseFloat(call.Args.Text(0), 64)
	return err == nil, nil
}

// validateAlphanumeric accepts letters and digits of any script. The empty
// string is alphanumeric.
func validateAlphanumeric(_ context.Context, _ *checker, call *plugin.Call) (any, error) {
	for _, r := range call.Args.Text(0) {
		if !unicode.IsLetter(r) && !unicode.IsNumber(r) {
			return false, nil
		}
	}
	return true, nil
}
