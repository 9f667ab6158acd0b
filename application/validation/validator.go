// Package validation checks capability descriptors at load time and constructor
// configs at construction time.
package validation

import (
	"fmt"
	"strings"

	"github.com/nom-cli/plugin-sdk/domain/entities"
)

// DescriptorValidator checks a module descriptor before the module is accepted.
type DescriptorValidator struct{}

// NewDescriptorValidator creates a new validator.
func NewDescriptorValidator() *DescriptorValidator {
	return &DescriptorValidator{}
}

// Validate checks every entry of the descriptor and returns the descriptor with
// identical duplicate entries collapsed. The returned result lists every problem.
func (v *DescriptorValidator) Validate(d entities.Descriptor) (entities.Descriptor, *entities.ValidationResult) {
	result := &entities.ValidationResult{Valid: true}

	if strings.TrimSpace(d.Name) == "" {
		result.Add("name", "module name is required")
	}

	seen := make(map[string]entities.CapabilityEntry, len(d.Entries))
	entries := make([]entities.CapabilityEntry, 0, len(d.Entries))
	constructors := make(map[string]bool)
	instanceClasses := make(map[string]bool)

	for i, e := range d.Entries {
		field := fmt.Sprintf("entries[%d]", i)
		if e.Name != "" {
			field = e.Key()
		}

		if prev, dup := seen[e.Key()]; dup {
			if !prev.SameSignature(e) {
				result.Add(field, fmt.Sprintf("declared twice with different signatures: %s and %s",
					prev.Signature(), e.Signature()))
			}
			continue
		}
		seen[e.Key()] = e
		entries = append(entries, e)

		validateEntry(result, field, e)

		switch {
		case e.Constructor:
			constructors[e.Class] = true
		case e.RequiresInstance:
			instanceClasses[e.Class] = true
		}
	}

	for class := range instanceClasses {
		if !constructors[class] {
			result.Add(class, "class has instance operations but no constructor")
		}
	}

	d.Entries = entries
	return d, result
}

func validateEntry(result *entities.ValidationResult, field string, e entities.CapabilityEntry) {
	if e.Name == "" {
		result.Add(field, "operation name is required")
	}
	if !e.Result.IsResult() {
		result.Add(field, fmt.Sprintf("unknown result kind %q", e.Result))
	}
	for i, p := range e.Params {
		if !p.IsParam() {
			result.Add(field, fmt.Sprintf("parameter %d has invalid kind %q", i, p))
		}
	}

	switch {
	case e.Constructor:
		if e.Class == "" || e.Name != e.Class {
			result.Add(field, "constructor name must equal its class")
		}
		if e.Result != entities.KindHandle {
			result.Add(field, "constructor must return a handle")
		}
		if e.RequiresInstance {
			result.Add(field, "constructor cannot require an instance")
		}
	case e.Class != "":
		if !e.RequiresInstance {
			result.Add(field, "class operation must require an instance")
		}
	default:
		if e.RequiresInstance || e.MutatesInstance {
			result.Add(field, "stateless operation cannot require or mutate an instance")
		}
		if e.Emits {
			result.Add(field, "stateless operation has no callback to emit to")
		}
	}
}

// Error renders a failed validation result as a single error.
func Error(result *entities.ValidationResult) error {
	if result == nil || result.Valid {
		return nil
	}
	msg := "descriptor validation failed:"
	for _, e := range result.Errors {
		msg += fmt.Sprintf("\n- %s: %s", e.Field, e.Message)
	}
	return fmt.Errorf("%s", msg)
}
