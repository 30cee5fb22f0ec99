package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	_ "github.com/santhosh-tekuri/jsonschema/v5/httploader"
)

const schemaResource = "schema.json"

// SchemaValidator checks values against a schema compiled once.
type SchemaValidator struct {
	schema *jsonschema.Schema
}

// NewSchemaValidator compiles schemaJSON. An empty schema yields a nil
// validator, which accepts everything.
func NewSchemaValidator(schemaJSON string) (*SchemaValidator, error) {
	if strings.TrimSpace(schemaJSON) == "" {
		return nil, nil
	}
	sch, err := compile(schemaJSON)
	if err != nil {
		return nil, err
	}
	return &SchemaValidator{schema: sch}, nil
}

// Validate checks v after a JSON round trip so Go maps, structs and
// numbers are seen the way the schema sees them.
func (v *SchemaValidator) Validate(value any) error {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value for validation: %w", err)
	}
	var data any
	if err := json.Unmarshal(b, &data); err != nil {
		return fmt.Errorf("failed to unmarshal value for validation: %w", err)
	}
	return validate(v.schema, data)
}

// ValidateJSONWithSchema validates a JSON data string against a JSON schema string.
func ValidateJSONWithSchema(schemaJSON string, dataJSON string) error {
	if schemaJSON == "" {
		return nil
	}
	sch, err := compile(schemaJSON)
	if err != nil {
		return err
	}

	var data any
	if err := json.Unmarshal([]byte(dataJSON), &data); err != nil {
		return fmt.Errorf("failed to unmarshal JSON data: %w. Data: %s", err, dataJSON)
	}
	return validate(sch, data)
}

func compile(schemaJSON string) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaResource, strings.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}
	sch, err := compiler.Compile(schemaResource)
	if err != nil {
		return nil, fmt.Errorf("failed to compile JSON schema: %w", err)
	}
	return sch, nil
}

func validate(sch *jsonschema.Schema, data any) error {
	if err := sch.Validate(data); err != nil {
		var validationErr *jsonschema.ValidationError
		if errors.As(err, &validationErr) {
			return fmt.Errorf("JSON data failed validation against schema: %v", validationErr)
		}
		return fmt.Errorf("JSON data failed validation (unexpected error type): %w", err)
	}
	return nil
}
