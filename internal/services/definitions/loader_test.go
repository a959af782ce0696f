package definitions

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/jobctl/internal/models"
)

const sampleDefinition = `
job_type = "report-generation"
display_name = "Report Generation"
handler = "reports.Generate"
kind = "simple"
schedule = "0 6 * * *"
external_parameters = true

[[parameters]]
name = "region"
type = "enum"
required = true
enum_values = ["EU", "US"]
order = 1

[[parameters]]
name = "count"
type = "integer"
order = 2

[settings]
retries = 2
queue = "reports"
labels = ["nightly"]
`

func writeDefinition(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write definition file: %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	writeDefinition(t, dir, "report.toml", sampleDefinition)

	loader := NewLoader(arbor.NewLogger())
	def, err := loader.LoadFile(filepath.Join(dir, "report.toml"))
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if def.JobType != "report-generation" {
		t.Errorf("JobType = %s", def.JobType)
	}
	if def.Kind != models.JobKindSimple {
		t.Errorf("Kind = %s", def.Kind)
	}
	if !def.UsesExternalParameters() {
		t.Error("expected external parameters")
	}
	if len(def.Parameters) != 2 {
		t.Fatalf("got %d parameters, want 2", len(def.Parameters))
	}
	if def.Parameters[0].Type != models.ParameterTypeEnum {
		t.Errorf("first parameter type = %s", def.Parameters[0].Type)
	}
	if def.Settings.Queue != "reports" {
		t.Errorf("queue = %s", def.Settings.Queue)
	}
}

func TestLoadFile_MissingKindDefaultsToSimple(t *testing.T) {
	dir := t.TempDir()
	writeDefinition(t, dir, "minimal.toml", `
job_type = "minimal"
handler = "h"
`)

	loader := NewLoader(arbor.NewLogger())
	def, err := loader.LoadFile(filepath.Join(dir, "minimal.toml"))
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if def.Kind != models.JobKindSimple {
		t.Errorf("Kind = %s, want simple", def.Kind)
	}
}

func TestLoadDir_SkipsInvalidFiles(t *testing.T) {
	dir := t.TempDir()
	writeDefinition(t, dir, "good.toml", sampleDefinition)
	writeDefinition(t, dir, "broken.toml", "job_type = [not toml")
	writeDefinition(t, dir, "invalid.toml", `
job_type = "bad-schedule"
handler = "h"
schedule = "whenever"
`)
	writeDefinition(t, dir, "ignored.txt", "not a definition")

	loader := NewLoader(arbor.NewLogger())
	registry, err := loader.LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir failed: %v", err)
	}

	defs := registry.All()
	if len(defs) != 1 {
		t.Fatalf("got %d definitions, want 1", len(defs))
	}
	if defs[0].JobType != "report-generation" {
		t.Errorf("JobType = %s", defs[0].JobType)
	}
}

func TestLoadDir_MissingDirectoryIsEmpty(t *testing.T) {
	loader := NewLoader(arbor.NewLogger())

	registry, err := loader.LoadDir(filepath.Join(t.TempDir(), "does-not-exist"))
	if err != nil {
		t.Fatalf("LoadDir failed: %v", err)
	}
	if len(registry.All()) != 0 {
		t.Errorf("expected empty registry")
	}
}

func TestNewRegistry_RejectsDuplicates(t *testing.T) {
	defs := []*models.JobDefinition{
		{JobType: "a", Handler: "h", Kind: models.JobKindSimple},
		{JobType: "a", Handler: "h", Kind: models.JobKindSimple},
	}

	if _, err := NewRegistry(defs); err == nil {
		t.Error("expected duplicate job type error")
	}
}

func TestRegistry_Lookup(t *testing.T) {
	registry, err := NewRegistry([]*models.JobDefinition{
		{JobType: "b", Handler: "h", Kind: models.JobKindSimple},
		{JobType: "a", Handler: "h", Kind: models.JobKindBatch},
	})
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	if def := registry.FindByType("a"); def == nil || def.Kind != models.JobKindBatch {
		t.Errorf("FindByType(a) = %+v", def)
	}
	if def := registry.FindByType("missing"); def != nil {
		t.Error("FindByType(missing) should be nil")
	}

	all := registry.All()
	if len(all) != 2 || all[0].JobType != "a" || all[1].JobType != "b" {
		t.Errorf("All() not sorted by job type: %v", all)
	}
}
