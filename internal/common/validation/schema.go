// internal/common/validation/schema.go
package validation

import (
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// AdmissionRequestSchema describes the body accepted by every university route.
// Unknown fields are allowed and ignored. Bounds apply to JSON numbers; numeric
// strings are range-checked when the request is decoded.
const AdmissionRequestSchema = `{
  "type": "object",
  "properties": {
    "subject": {"type": ["string", "null"]},
    "degrees_to_check": {
      "oneOf": [
        {"type": "string"},
        {"type": "array", "items": {"type": "string"}},
        {"type": "null"}
      ]
    },
    "highschool_scores": {
      "type": ["object", "null"],
      "additionalProperties": {
        "type": "array",
        "minItems": 2,
        "items": [
          {"$ref": "#/definitions/grade"},
          {"$ref": "#/definitions/units"}
        ]
      }
    },
    "psychometric": {
      "type": ["object", "null"],
      "properties": {
        "total":   {"$ref": "#/definitions/total"},
        "math":    {"$ref": "#/definitions/section"},
        "verbal":  {"$ref": "#/definitions/section"},
        "english": {"$ref": "#/definitions/section"}
      }
    },
    "psycho_score":   {"$ref": "#/definitions/total"},
    "psycho_math":    {"$ref": "#/definitions/section"},
    "psycho_hebrew":  {"$ref": "#/definitions/section"},
    "psycho_english": {"$ref": "#/definitions/section"}
  },
  "definitions": {
    "grade": {
      "anyOf": [
        {"type": "string"},
        {"type": "number", "minimum": 0, "maximum": 100}
      ]
    },
    "units": {
      "anyOf": [
        {"type": "string"},
        {"type": "number", "minimum": 1, "maximum": 10}
      ]
    },
    "total": {
      "anyOf": [
        {"type": ["string", "null"]},
        {"type": "number", "enum": [0]},
        {"type": "number", "minimum": 200, "maximum": 800}
      ]
    },
    "section": {
      "anyOf": [
        {"type": ["string", "null"]},
        {"type": "number", "minimum": 0, "maximum": 800}
      ]
    }
  }
}`

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Validator validates JSON documents against one compiled schema.
type Validator struct {
	schema *gojsonschema.Schema
}

// NewValidator compiles schemaJSON.
func NewValidator(schemaJSON string) (*Validator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Validator{schema: schema}, nil
}

var (
	admissionOnce      sync.Once
	admissionValidator *Validator
	admissionErr       error
)

// AdmissionRequest returns the shared validator for admission request bodies.
func AdmissionRequest() (*Validator, error) {
	admissionOnce.Do(func() {
		admissionValidator, admissionErr = NewValidator(AdmissionRequestSchema)
	})
	return admissionValidator, admissionErr
}

// ValidateJSON validates a raw JSON document. Malformed JSON is reported as a
// single error on the root field.
func (v *Validator) ValidateJSON(body []byte) *ValidationResult {
	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return &ValidationResult{
			Valid: false,
			Errors: []ValidationError{{
				Field:   "(root)",
				Message: err.Error(),
				Code:    "INVALID_JSON",
			}},
		}
	}
	return toResult(result)
}

// ValidateInput validates an already decoded document.
func (v *Validator) ValidateInput(input interface{}) *ValidationResult {
	result, err := v.schema.Validate(gojsonschema.NewGoLoader(input))
	if err != nil {
		return &ValidationResult{
			Valid:  false,
			Errors: []ValidationError{{Field: "(root)", Message: err.Error(), Code: "INVALID_INPUT"}},
		}
	}
	return toResult(result)
}

func toResult(result *gojsonschema.Result) *ValidationResult {
	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	return out
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// HasErrors checks if validation has errors for specific field
func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field || strings.HasPrefix(err.Field, field+".") {
			return true
		}
	}
	return false
}
