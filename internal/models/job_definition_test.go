package models

import (
	"testing"
)

func validDefinition() *JobDefinition {
	return &JobDefinition{
		JobType: "report-generation",
		Handler: "reports.Generate",
		Kind:    JobKindSimple,
		Parameters: []JobParameter{
			{Name: "title", Type: ParameterTypeString, Required: true, Order: 1},
			{Name: "format", Type: ParameterTypeEnum, EnumValues: []string{"pdf", "html"}, Order: 2},
		},
	}
}

func TestJobDefinition_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*JobDefinition)
		wantErr bool
	}{
		{
			name:    "valid definition",
			mutate:  func(d *JobDefinition) {},
			wantErr: false,
		},
		{
			name:    "missing job type",
			mutate:  func(d *JobDefinition) { d.JobType = "" },
			wantErr: true,
		},
		{
			name:    "missing handler",
			mutate:  func(d *JobDefinition) { d.Handler = "" },
			wantErr: true,
		},
		{
			name:    "empty kind defaults to simple",
			mutate:  func(d *JobDefinition) { d.Kind = "" },
			wantErr: false,
		},
		{
			name:    "invalid kind",
			mutate:  func(d *JobDefinition) { d.Kind = "recurring" },
			wantErr: true,
		},
		{
			name: "duplicate parameter names",
			mutate: func(d *JobDefinition) {
				d.Parameters = append(d.Parameters, JobParameter{Name: "title", Type: ParameterTypeString})
			},
			wantErr: true,
		},
		{
			name: "enum without values",
			mutate: func(d *JobDefinition) {
				d.Parameters = []JobParameter{{Name: "mode", Type: ParameterTypeEnum}}
			},
			wantErr: true,
		},
		{
			name: "invalid parameter type",
			mutate: func(d *JobDefinition) {
				d.Parameters = []JobParameter{{Name: "x", Type: "decimal"}}
			},
			wantErr: true,
		},
		{
			name:    "valid cron schedule",
			mutate:  func(d *JobDefinition) { d.Schedule = "0 6 * * 1" },
			wantErr: false,
		},
		{
			name:    "invalid cron schedule",
			mutate:  func(d *JobDefinition) { d.Schedule = "every monday" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := validDefinition()
			tt.mutate(def)
			err := def.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestJobDefinition_ValidateDefaultsKind(t *testing.T) {
	def := validDefinition()
	def.Kind = ""

	if err := def.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if def.Kind != JobKindSimple {
		t.Errorf("Kind = %s, want %s", def.Kind, JobKindSimple)
	}
}

func TestJobDefinition_ParameterSetFieldName(t *testing.T) {
	def := validDefinition()

	if got := def.ParameterSetFieldName(); got != DefaultParameterSetField {
		t.Errorf("ParameterSetFieldName() = %s, want %s", got, DefaultParameterSetField)
	}

	def.ParameterSetField = "__paramsRef"
	if got := def.ParameterSetFieldName(); got != "__paramsRef" {
		t.Errorf("ParameterSetFieldName() = %s, want __paramsRef", got)
	}
}

func TestJobDefinition_FindParameter(t *testing.T) {
	def := validDefinition()

	p, ok := def.FindParameter("format")
	if !ok {
		t.Fatal("FindParameter(format) not found")
	}
	if p.Type != ParameterTypeEnum {
		t.Errorf("parameter type = %s, want %s", p.Type, ParameterTypeEnum)
	}

	if _, ok := def.FindParameter("missing"); ok {
		t.Error("FindParameter(missing) should not be found")
	}
}
