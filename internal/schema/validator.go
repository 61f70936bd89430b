package schema

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/xeipuuv/gojsonschema"
)

// ViolationError reports a structurally valid payload that fails the
// input contract. Field identifies the offending field where known.
type ViolationError struct {
	Field   string
	Message string
}

// Error implements the error interface
func (e *ViolationError) Error() string {
	if e.Field == "" || e.Field == "(root)" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validator checks raw order events against one contract version.
// Validation is a pure check with no side effects.
type Validator struct {
	definition Definition
	compiled   *gojsonschema.Schema
}

// NewValidator compiles the given contract definition.
func NewValidator(def Definition) (*Validator, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(def.Document))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to compile schema %s", def.Version)
	}

	return &Validator{
		definition: def,
		compiled:   compiled,
	}, nil
}

// Version returns the contract version this validator enforces.
func (v *Validator) Version() string {
	return v.definition.Version
}

// Validate checks one raw JSON event against the contract. It returns
// nil when the event conforms, a *ViolationError describing the first
// offending field when it does not.
func (v *Validator) Validate(raw []byte) error {
	result, err := v.compiled.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return errors.Wrap(err, "schema validation failed to run")
	}

	if result.Valid() {
		return nil
	}

	violation := result.Errors()[0]
	return &ViolationError{
		Field:   violation.Field(),
		Message: violation.Description(),
	}
}
