// Package interchange provides the embedded JSON schemas of the interchange
// documents and validates documents against them.
package interchange

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Schema names an embedded schema.
type Schema string

// Embedded schemas.
const (
	SchemaTree  Schema = "tree"
	SchemaGraph Schema = "graph"
	SchemaRules Schema = "rules"
)

// Schemas lists the embedded schemas.
func Schemas() []Schema {
	return []Schema{SchemaTree, SchemaGraph, SchemaRules}
}

// complianceMax is the maximum compliance percentage.
const complianceMax = 100

// Validation errors.
var (
	ErrUnknownSchema = errors.New("unknown schema")
	ErrInvalidJSON   = errors.New("invalid JSON")
)

// Violation is a single schema failure.
type Violation struct {
	Field       string `json:"field"`
	Description string `json:"description"`
	// Actual is the offending value rendered as text, if it exists.
	Actual string `json:"actual,omitempty"`
}

// Report is the outcome of a validation.
type Report struct {
	Valid      bool        `json:"valid"`
	Compliance int         `json:"compliance"`
	Violations []Violation `json:"violations,omitempty"`
}

// SchemaBytes returns the raw embedded schema.
func SchemaBytes(schema Schema) ([]byte, error) {
	data, err := schemaFS.ReadFile("schemas/" + string(schema) + ".json")
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSchema, schema)
	}

	return data, nil
}

// ParseSchema maps a name to a schema.
func ParseSchema(name string) (Schema, error) {
	for _, s := range Schemas() {
		if string(s) == strings.ToLower(name) {
			return s, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownSchema, name)
}

// Validate checks a JSON document against schema.
func Validate(schema Schema, doc []byte) (Report, error) {
	schemaBytes, err := SchemaBytes(schema)
	if err != nil {
		return Report{}, err
	}

	var input any

	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.UseNumber()

	err = dec.Decode(&input)
	if err != nil {
		return Report{}, fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}

	return ValidateValue(schemaBytes, input)
}

// ValidateValue checks an already decoded document against raw schema bytes.
func ValidateValue(schemaBytes []byte, input any) (Report, error) {
	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schemaBytes), gojsonschema.NewGoLoader(input))
	if err != nil {
		return Report{}, fmt.Errorf("schema validation: %w", err)
	}

	if result.Valid() {
		return Report{Valid: true, Compliance: complianceMax}, nil
	}

	report := Report{Compliance: compliance(input, len(result.Errors()))}

	for _, verr := range result.Errors() {
		report.Violations = append(report.Violations, Violation{
			Field:       verr.Field(),
			Description: verr.Description(),
			Actual:      actualValue(input, verr.Field()),
		})
	}

	return report, nil
}

// compliance estimates the share of objects in the document without errors.
func compliance(input any, violations int) int {
	total := countObjects(input)
	if total == 0 {
		return 0
	}

	valid := total - violations
	pct := int(float64(valid) / float64(total) * complianceMax)

	return max(0, min(pct, complianceMax))
}

func countObjects(data any) int {
	count := 0

	switch v := data.(type) {
	case map[string]any:
		count++

		for _, child := range v {
			count += countObjects(child)
		}
	case []any:
		for _, item := range v {
			count += countObjects(item)
		}
	}

	return count
}

// actualValue follows a gojsonschema field path such as "children.0.name".
func actualValue(data any, fieldPath string) string {
	if fieldPath == "" || fieldPath == "(root)" {
		return ""
	}

	current := data

	for _, part := range strings.Split(fieldPath, ".") {
		switch v := current.(type) {
		case map[string]any:
			val, found := v[part]
			if !found {
				return ""
			}

			current = val
		case []any:
			idx, convErr := strconv.Atoi(part)
			if convErr != nil || idx < 0 || idx >= len(v) {
				return ""
			}

			current = v[idx]
		default:
			return ""
		}
	}

	switch v := current.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	case map[string]any, []any:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}
