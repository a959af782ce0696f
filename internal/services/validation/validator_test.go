package validation

import (
	"errors"
	"reflect"
	"testing"

	"github.com/ternarybob/jobctl/internal/models"
)

func testDefinition() *models.JobDefinition {
	return &models.JobDefinition{
		JobType: "data-export",
		Handler: "export.Run",
		Kind:    models.JobKindSimple,
		Parameters: []models.JobParameter{
			{Name: "name", Type: models.ParameterTypeString, Required: true},
			{Name: "count", Type: models.ParameterTypeInteger},
			{Name: "dry_run", Type: models.ParameterTypeBoolean},
			{Name: "as_of", Type: models.ParameterTypeDate},
			{Name: "started", Type: models.ParameterTypeDateTime},
			{Name: "format", Type: models.ParameterTypeEnum, EnumValues: []string{"csv", "json"}},
			{Name: "regions", Type: models.ParameterTypeMultiEnum, EnumValues: []string{"EU", "US", "APAC"}},
		},
	}
}

func TestConvertAndValidate_TypedConversion(t *testing.T) {
	v := NewParameterValidator()

	raw := map[string]string{
		"name":    "quarterly",
		"count":   "42",
		"dry_run": "true",
		"as_of":   "2026-01-31",
		"started": "2026-01-31T08:30:00",
		"format":  "csv",
		"regions": "EU, US",
	}

	converted, err := v.ConvertAndValidate(testDefinition(), raw)
	if err != nil {
		t.Fatalf("ConvertAndValidate failed: %v", err)
	}

	if converted["name"] != "quarterly" {
		t.Errorf("name = %v", converted["name"])
	}
	if converted["count"] != 42 {
		t.Errorf("count = %v, want 42", converted["count"])
	}
	if converted["dry_run"] != true {
		t.Errorf("dry_run = %v, want true", converted["dry_run"])
	}
	if converted["as_of"] != "2026-01-31" {
		t.Errorf("as_of = %v", converted["as_of"])
	}
	if !reflect.DeepEqual(converted["regions"], []string{"EU", "US"}) {
		t.Errorf("regions = %v, want [EU US]", converted["regions"])
	}
}

func TestConvertAndValidate_OptionalMissingOmitted(t *testing.T) {
	v := NewParameterValidator()

	converted, err := v.ConvertAndValidate(testDefinition(), map[string]string{"name": "n"})
	if err != nil {
		t.Fatalf("ConvertAndValidate failed: %v", err)
	}

	if len(converted) != 1 {
		t.Errorf("converted has %d entries, want 1: %v", len(converted), converted)
	}
}

func TestConvertAndValidate_AggregatesAllErrors(t *testing.T) {
	v := NewParameterValidator()

	raw := map[string]string{
		// name missing entirely
		"count":   "many",
		"dry_run": "maybe",
		"format":  "xml",
		"regions": "EU,MARS",
	}

	_, err := v.ConvertAndValidate(testDefinition(), raw)
	if err == nil {
		t.Fatal("expected validation error")
	}

	var validationErr *models.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("error type = %T, want *models.ValidationError", err)
	}

	// Required name, bad count, bad dry_run, bad format, bad regions.
	if len(validationErr.Errors) != 5 {
		t.Errorf("got %d errors, want 5: %v", len(validationErr.Errors), validationErr.Errors)
	}
}

func TestConvertAndValidate_BlankRequiredRejected(t *testing.T) {
	v := NewParameterValidator()

	_, err := v.ConvertAndValidate(testDefinition(), map[string]string{"name": "   "})

	var validationErr *models.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestConvertAndValidate_DateFormats(t *testing.T) {
	v := NewParameterValidator()

	tests := []struct {
		name    string
		raw     map[string]string
		wantErr bool
	}{
		{name: "valid date", raw: map[string]string{"name": "n", "as_of": "2026-02-28"}, wantErr: false},
		{name: "invalid date", raw: map[string]string{"name": "n", "as_of": "28/02/2026"}, wantErr: true},
		{name: "valid datetime", raw: map[string]string{"name": "n", "started": "2026-02-28T23:59:59"}, wantErr: false},
		{name: "datetime missing time", raw: map[string]string{"name": "n", "started": "2026-02-28"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.ConvertAndValidate(testDefinition(), tt.raw)
			if (err != nil) != tt.wantErr {
				t.Errorf("ConvertAndValidate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
