// Package rules models the per-batch eligibility rules configuration: a JSON
// object mapping a field name to a rule descriptor. Configurations are
// checked for shape and stored verbatim; nothing here evaluates them.
package rules

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx/types"
	"github.com/xeipuuv/gojsonschema"
)

// Rule types.
const (
	TypeStrict = "strict"
	TypeSoft   = "soft"
)

const defaultConfig = `{
  "full_name": {"type": "strict", "min_length": 2, "no_numbers": true, "label": "Full Name"},
  "email": {"type": "strict", "format": "email", "label": "Email"},
  "phone": {"type": "strict", "pattern": "indian_mobile", "label": "Phone"},
  "date_of_birth": {"type": "soft", "min_age": 18, "max_age": 35, "label": "Date of Birth"},
  "qualification": {"type": "strict", "allowed": ["B.Tech", "B.E", "B.Sc", "BCA", "M.Tech", "M.Sc", "MCA", "MBA"], "label": "Highest Qualification"},
  "graduation_year": {"type": "soft", "min": 2015, "max": 2025, "label": "Graduation Year"},
  "percentage_cgpa": {"type": "soft", "min_percent": 60.0, "min_cgpa": 6.0, "label": "Percentage / CGPA"},
  "screening_score": {"type": "soft", "min": 40, "max": 100, "label": "Screening Test Score"},
  "interview_status": {"type": "strict", "allowed": ["Cleared", "Waitlisted", "Rejected"], "label": "Interview Status"},
  "aadhaar": {"type": "strict", "digits": 12, "label": "Aadhaar Number"},
  "offer_letter": {"type": "strict", "depends_on": {"interview_status": ["Cleared", "Waitlisted"]}, "label": "Offer Letter Sent"}
}`

// Descriptor keys beyond these are accepted unchecked.
const configSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": {"$ref": "#/definitions/descriptor"},
  "definitions": {
    "descriptor": {
      "type": "object",
      "required": ["type"],
      "properties": {
        "type": {"enum": ["strict", "soft"]},
        "label": {"type": "string"},
        "min_length": {"type": "integer", "minimum": 0},
        "pattern": {"type": "string"},
        "allowed": {"type": "array"},
        "min": {"type": "number"},
        "max": {"type": "number"},
        "depends_on": {
          "type": "object",
          "additionalProperties": {"type": "array"}
        }
      }
    }
  }
}`

var schema = mustSchema(configSchema)

func mustSchema(src string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("compile rules schema: %v", err))
	}
	return s
}

// ValidationError lists every problem found in a configuration.
type ValidationError struct {
	Errors []FieldError
}

// FieldError is a single problem at a JSON path inside the configuration.
type FieldError struct {
	Field   string
	Message string
}

func (ve *ValidationError) Error() string {
	parts := make([]string, 0, len(ve.Errors))
	for _, e := range ve.Errors {
		parts = append(parts, fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	return strings.Join(parts, "; ")
}

// Default returns a fresh copy of the default configuration.
func Default() types.JSONText {
	return types.JSONText(defaultConfig)
}

// IsUnset reports whether a raw configuration was absent or JSON null.
func IsUnset(raw []byte) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// Validate checks the configuration shape. It returns *ValidationError when
// the document is well-formed JSON that violates the descriptor schema.
func Validate(raw []byte) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return &ValidationError{Errors: []FieldError{{Field: "(root)", Message: "malformed JSON"}}}
	}
	if result.Valid() {
		return nil
	}
	ve := &ValidationError{}
	for _, desc := range result.Errors() {
		ve.Errors = append(ve.Errors, FieldError{Field: desc.Field(), Message: desc.Description()})
	}
	return ve
}

// Resolve returns the configuration to persist for a creation request: the
// default when unset, otherwise the caller's document unchanged once valid.
func Resolve(raw types.JSONText) (types.JSONText, error) {
	if IsUnset(raw) {
		return Default(), nil
	}
	if err := Validate(raw); err != nil {
		return nil, err
	}
	return raw, nil
}
