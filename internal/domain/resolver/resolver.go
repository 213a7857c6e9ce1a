// Package resolver maps loosely typed topic references onto catalog topics.
//
// Resolution order is fixed: canonical id, then display name, then a
// synthetic placeholder whose id is derived from the reference and its
// category/module context. The same unmatched reference in the same context
// always yields the same synthetic id, so progress rows attach consistently
// to uncatalogued content.
package resolver

import (
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/lingdou-api/internal/domain"
)

// GenericTopicName is the display name of a placeholder for an empty reference.
const GenericTopicName = "Untitled topic"

// syntheticNamespace seeds UUIDv5 generation for synthetic topic ids.
var syntheticNamespace = uuid.MustParse("6f1b8f5e-3c1d-5a7e-9a42-3f6c1c2b9d10")

// Scope is the optional context a reference was found in.
type Scope struct {
	Category string
	Module   string
}

// Resolve returns the catalog topic matching reference, or a synthetic
// placeholder. The bool is false when the topic was synthesized.
func Resolve(reference string, catalog []domain.Topic, scope Scope) (domain.Topic, bool) {
	ref := strings.TrimSpace(reference)

	if ref != "" {
		for _, t := range catalog {
			if t.ID == ref {
				return t, true
			}
		}
		for _, t := range catalog {
			if t.Name == ref {
				return t, true
			}
		}
	}

	return Synthesize(ref, scope), false
}

// Synthesize builds the placeholder topic for an unmatched reference.
func Synthesize(reference string, scope Scope) domain.Topic {
	ref := strings.TrimSpace(reference)
	name := ref
	if name == "" {
		name = GenericTopicName
	}
	id := ref
	if !domain.IsSyntheticID(ref) {
		// Re-resolving a synthetic id keeps it rather than deriving a new one.
		id = SyntheticID(scope, ref)
	}

	return domain.Topic{
		ID:               id,
		Name:             name,
		CategoryName:     scope.Category,
		ModuleName:       scope.Module,
		Difficulty:       domain.DifficultyBeginner,
		EstimatedMinutes: domain.DefaultEstimatedMinutes,
		Synthetic:        true,
	}
}

// SyntheticID derives the stable id for (category, module, reference).
func SyntheticID(scope Scope, reference string) string {
	key := strings.Join([]string{scope.Category, scope.Module, reference}, "\x1f")
	return domain.SyntheticIDPrefix + uuid.NewSHA1(syntheticNamespace, []byte(key)).String()
}
