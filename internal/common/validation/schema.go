// Package validation checks job inputs and catalog entries against JSON schemas
// before any pipeline stage runs on them.
package validation

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// recommendationInputSchema guards the generate-recommendations job payload.
const recommendationInputSchema = `{
	"type": "object",
	"required": ["userId"],
	"properties": {
		"userId": {"type": "string", "minLength": 1},
		"sessionId": {"type": "string"},
		"options": {
			"type": "object",
			"properties": {
				"maxResults": {"type": "integer", "minimum": 1, "maximum": 50},
				"includeGapAnalysis": {"type": "boolean"},
				"includeAlternativePrograms": {"type": "boolean"},
				"preferences": {
					"type": "object",
					"properties": {
						"countries": {"type": "array", "items": {"type": "string"}},
						"pathwayTypes": {"type": "array", "items": {"type": "string"}},
						"timeframe": {
							"type": "string",
							"enum": ["immediate", "within-6-months", "within-1-year", "within-2-years", ""]
						},
						"budgetRange": {
							"type": "object",
							"properties": {
								"max": {"type": "number", "minimum": 0}
							}
						},
						"priorityFactors": {"type": "array", "items": {"type": "string"}},
						"sortBy": {"type": "string"}
					}
				}
			}
		}
	}
}`

// programSchema guards catalog entries loaded from storage. A failing entry is
// skipped, never fatal to the batch.
const programSchema = `{
	"type": "object",
	"required": ["id", "name", "country"],
	"properties": {
		"id": {"type": "string", "minLength": 1},
		"name": {"type": "string", "minLength": 1},
		"country": {"type": "string", "minLength": 1},
		"category": {"type": "string"},
		"successRate": {"type": "number", "minimum": 0, "maximum": 1},
		"processingTime": {
			"type": "object",
			"properties": {
				"min": {"type": "number", "minimum": 0},
				"max": {"type": "number", "minimum": 0},
				"unit": {"type": "string", "enum": ["weeks", "months", "years"]}
			}
		},
		"fees": {
			"type": "object",
			"properties": {
				"total": {"type": "number", "minimum": 0},
				"currency": {"type": "string"}
			}
		},
		"eligibilityCriteria": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["criterionId", "type"],
				"properties": {
					"criterionId": {"type": "string", "minLength": 1},
					"name": {"type": "string"},
					"type": {
						"type": "string",
						"enum": ["range", "level", "language", "boolean", "composite", "money"]
					},
					"required": {"type": "boolean"},
					"points": {"type": "number", "minimum": 0}
				}
			}
		}
	}
}`

var (
	recommendationInputValidator = gojsonschema.NewStringLoader(recommendationInputSchema)
	programValidator             = gojsonschema.NewStringLoader(programSchema)
)

// ValidateRecommendationInput validates a generate-recommendations job payload.
func ValidateRecommendationInput(input map[string]interface{}) (*ValidationResult, error) {
	return validate(recommendationInputValidator, gojsonschema.NewGoLoader(input))
}

// ValidateProgramJSON validates one serialized catalog entry.
func ValidateProgramJSON(raw []byte) (*ValidationResult, error) {
	return validate(programValidator, gojsonschema.NewBytesLoader(raw))
}

func validate(schema, document gojsonschema.JSONLoader) (*ValidationResult, error) {
	result, err := gojsonschema.Validate(schema, document)
	if err != nil {
		return nil, fmt.Errorf("schema validation failed to run: %w", err)
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
		})
	}
	return out, nil
}
