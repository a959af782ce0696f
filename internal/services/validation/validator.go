// -----------------------------------------------------------------------
// Parameter Validator - converts raw string input to typed parameter values
// -----------------------------------------------------------------------

package validation

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/jobctl/internal/models"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02T15:04:05"
)

// ParameterValidator converts and validates raw string parameters against a
// job definition's schema. All failing fields are reported together so a
// caller can fix every issue in one round trip.
type ParameterValidator struct{}

// NewParameterValidator creates a new parameter validator
func NewParameterValidator() *ParameterValidator {
	return &ParameterValidator{}
}

// ConvertAndValidate validates raw parameters against the definition schema
// and returns the typed parameter map. Schema defaults are a presentation
// concern and are not injected here; optional missing values are omitted.
func (v *ParameterValidator) ConvertAndValidate(def *models.JobDefinition, raw map[string]string) (map[string]interface{}, error) {
	var errs []string
	converted := make(map[string]interface{})

	for _, param := range def.Parameters {
		value, ok := raw[param.Name]

		if param.Required && (!ok || strings.TrimSpace(value) == "") {
			errs = append(errs, fmt.Sprintf("parameter '%s' is required", param.Name))
			continue
		}
		if !ok || value == "" {
			continue
		}

		typed, err := v.convertValue(param, value)
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}
		converted[param.Name] = typed
	}

	if len(errs) > 0 {
		return nil, models.NewValidationError(errs...)
	}

	return converted, nil
}

func (v *ParameterValidator) convertValue(param models.JobParameter, value string) (interface{}, error) {
	switch param.Type {
	case models.ParameterTypeString, models.ParameterTypeMultiline:
		return value, nil

	case models.ParameterTypeInteger:
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("parameter '%s' must be an integer, got '%s'", param.Name, value)
		}
		return n, nil

	case models.ParameterTypeBoolean:
		b, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("parameter '%s' must be a boolean, got '%s'", param.Name, value)
		}
		return b, nil

	case models.ParameterTypeDate:
		if _, err := time.Parse(dateLayout, value); err != nil {
			return nil, fmt.Errorf("parameter '%s' must be a date (YYYY-MM-DD), got '%s'", param.Name, value)
		}
		return value, nil

	case models.ParameterTypeDateTime:
		if _, err := time.Parse(dateTimeLayout, value); err != nil {
			return nil, fmt.Errorf("parameter '%s' must be a datetime (YYYY-MM-DDTHH:MM:SS), got '%s'", param.Name, value)
		}
		return value, nil

	case models.ParameterTypeEnum:
		if !contains(param.EnumValues, value) {
			return nil, fmt.Errorf("parameter '%s' must be one of %v, got '%s'", param.Name, param.EnumValues, value)
		}
		return value, nil

	case models.ParameterTypeMultiEnum:
		values := splitAndTrim(value)
		for _, item := range values {
			if !contains(param.EnumValues, item) {
				return nil, fmt.Errorf("parameter '%s' contains invalid value '%s', allowed: %v", param.Name, item, param.EnumValues)
			}
		}
		return values, nil

	default:
		return nil, fmt.Errorf("parameter '%s' has unsupported type '%s'", param.Name, param.Type)
	}
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
