package resolver

import (
	"strings"

	"github.com/phrazzld/lingdou-api/internal/domain"
)

// FindProgress picks the progress row for a reference out of a user's rows.
// Strategies are tried in order and the first hit wins:
//
//  1. a row stored under the resolved topic's id
//  2. a row whose stored topic id maps, in the catalog, to a topic with the
//     resolved topic's name (the catalog id changed since the row was written)
//  3. a row stored under the raw reference itself
//
// A miss returns the default progress for the resolved topic and false.
func FindProgress(
	rows []domain.UserProgress,
	catalog []domain.Topic,
	reference string,
	resolved domain.Topic,
) (domain.UserProgress, bool) {
	for _, r := range rows {
		if r.TopicID == resolved.ID {
			return r, true
		}
	}

	if resolved.Name != "" {
		names := make(map[string]string, len(catalog))
		for _, t := range catalog {
			names[t.ID] = t.Name
		}
		for _, r := range rows {
			if name, ok := names[r.TopicID]; ok && name == resolved.Name {
				return r, true
			}
		}
	}

	ref := strings.TrimSpace(reference)
	if ref != "" {
		for _, r := range rows {
			if r.TopicID == ref {
				return r, true
			}
		}
	}

	return domain.UserProgress{TopicID: resolved.ID, MasteryLevel: domain.MasteryNotStarted}, false
}
