// -----------------------------------------------------------------------
// Definition Registry - read-only lookup of discovered job definitions
// -----------------------------------------------------------------------

package definitions

import (
	"fmt"
	"sort"

	"github.com/ternarybob/jobctl/internal/interfaces"
	"github.com/ternarybob/jobctl/internal/models"
)

// Registry is an immutable lookup of job definitions keyed by job type.
// It is populated once at startup and injected wherever definitions are
// needed, so tests can run multiple independent instances.
type Registry struct {
	byType map[string]*models.JobDefinition
	sorted []*models.JobDefinition
}

var _ interfaces.DefinitionLookup = (*Registry)(nil)

// NewRegistry builds a registry from discovered definitions. Duplicate job
// types are rejected since later lookups could silently pick either one.
func NewRegistry(defs []*models.JobDefinition) (*Registry, error) {
	byType := make(map[string]*models.JobDefinition, len(defs))
	for _, def := range defs {
		if _, exists := byType[def.JobType]; exists {
			return nil, fmt.Errorf("duplicate job type %q", def.JobType)
		}
		byType[def.JobType] = def
	}

	sorted := make([]*models.JobDefinition, 0, len(byType))
	for _, def := range byType {
		sorted = append(sorted, def)
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].JobType < sorted[j].JobType
	})

	return &Registry{byType: byType, sorted: sorted}, nil
}

// FindByType returns the definition for a job type or nil when unknown.
func (r *Registry) FindByType(jobType string) *models.JobDefinition {
	return r.byType[jobType]
}

// All returns every discovered definition, ordered by job type.
func (r *Registry) All() []*models.JobDefinition {
	result := make([]*models.JobDefinition, len(r.sorted))
	copy(result, r.sorted)
	return result
}
