package definitions

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/jobctl/internal/models"
)

// Loader discovers job definitions from TOML files at startup.
type Loader struct {
	validate *validator.Validate
	logger   arbor.ILogger
}

// NewLoader creates a new definition loader
func NewLoader(logger arbor.ILogger) *Loader {
	return &Loader{
		validate: validator.New(),
		logger:   logger,
	}
}

// LoadDir scans a directory for .toml definition files and returns a frozen
// registry. Files that fail to parse or validate are skipped with a warning so
// one bad definition does not take the whole process down.
func (l *Loader) LoadDir(dir string) (*Registry, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		l.logger.Warn().Str("dir", dir).Msg("Job definitions directory does not exist")
		return NewRegistry(nil)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read job definitions directory: %w", err)
	}

	var defs []*models.JobDefinition
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".toml" {
			continue
		}

		def, err := l.LoadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			l.logger.Warn().Err(err).Str("file", entry.Name()).Msg("Skipping invalid job definition file")
			continue
		}

		defs = append(defs, def)
		l.logger.Info().
			Str("job_type", def.JobType).
			Str("kind", string(def.Kind)).
			Bool("external_parameters", def.ExternalParameters).
			Msg("Discovered job definition")
	}

	return NewRegistry(defs)
}

// LoadFile parses and validates a single definition file.
func (l *Loader) LoadFile(path string) (*models.JobDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read definition file: %w", err)
	}

	var def models.JobDefinition
	if err := toml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to parse definition TOML: %w", err)
	}

	if def.Kind == "" {
		def.Kind = models.JobKindSimple
	}

	// Structural validation via tags, then domain validation
	if err := l.validate.Struct(&def); err != nil {
		return nil, fmt.Errorf("definition structure invalid: %w", err)
	}
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("definition invalid: %w", err)
	}

	return &def, nil
}
