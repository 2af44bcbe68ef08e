// Package schemas validates JSON documents against the embedded JSON Schemas.
package schemas

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	rootschemas "github.com/jonathan/apply-agent/schemas"
	"github.com/xeipuuv/gojsonschema"
)

// ValidationError represents a schema validation error with field paths
type ValidationError struct {
	Schema string
	Errors []FieldError
}

// FieldError represents a single validation error at a specific field
type FieldError struct {
	Field   string
	Message string
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s validation failed:\n", ve.Schema)
	for i, err := range ve.Errors {
		fmt.Fprintf(&sb, "  %d. %s: %s\n", i+1, err.Field, err.Message)
	}
	return sb.String()
}

// SchemaLoadError represents errors loading or parsing the schema itself
type SchemaLoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load schema %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load schema %s: %s", e.Path, e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

// Validator is a compiled schema.
type Validator struct {
	name   string
	schema *gojsonschema.Schema
}

// Compile parses schema content once so it can validate many documents.
func Compile(name string, schema []byte) (*Validator, error) {
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schema))
	if err != nil {
		return nil, &SchemaLoadError{Path: name, Message: "invalid schema", Cause: err}
	}
	return &Validator{name: name, schema: s}, nil
}

// Validate checks a JSON document. Malformed JSON is reported as an error, not a panic.
func (v *Validator) Validate(doc []byte) error {
	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return fmt.Errorf("failed to parse %s document: %w", v.name, err)
	}
	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Schema: v.name,
		Errors: make([]FieldError, 0, len(result.Errors())),
	}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}
	return validationErr
}

// ValidateFile reads path and validates its content.
func (v *Validator) ValidateFile(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve JSON path: %w", err)
	}
	data, err := os.ReadFile(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("JSON file not found: %s", absPath)
		}
		return fmt.Errorf("failed to read %s: %w", absPath, err)
	}
	return v.Validate(data)
}

var (
	ledgerOnce sync.Once
	ledger     *Validator
	ledgerErr  error

	summaryOnce sync.Once
	summary     *Validator
	summaryErr  error
)

// Ledger returns the compiled applied-jobs ledger schema.
func Ledger() (*Validator, error) {
	ledgerOnce.Do(func() {
		ledger, ledgerErr = Compile("ledger", rootschemas.Ledger)
	})
	return ledger, ledgerErr
}

// RunSummary returns the compiled run summary schema.
func RunSummary() (*Validator, error) {
	summaryOnce.Do(func() {
		summary, summaryErr = Compile("run_summary", rootschemas.RunSummary)
	})
	return summary, summaryErr
}

// ValidateJSONString validates JSON string content against schema string content
func ValidateJSONString(schemaContent, jsonContent string) error {
	v, err := Compile("(string schema)", []byte(schemaContent))
	if err != nil {
		return err
	}
	return v.Validate([]byte(jsonContent))
}
