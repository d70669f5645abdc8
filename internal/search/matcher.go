package search

import (
	"context"
	"log"

	"mallfinder/internal/gather"
	"mallfinder/pkg/models"
)

// Match is the resolution of one requested store name against the
// catalog. Found=false is a normal outcome, not an error.
type Match struct {
	Requested   string `json:"requested"`
	MatchedID   string `json:"matched_id,omitempty"`
	MatchedName string `json:"matched_name,omitempty"`
	Found       bool   `json:"found"`
}

// RemoteMatcher is an optional external fuzzy-matching backend. It
// resolves the whole batch in one call and returns, per requested name,
// the catalog display name it matched ("" for no match).
type RemoteMatcher interface {
	MatchBatch(ctx context.Context, requested []string, catalog []models.Store) (map[string]string, error)
}

// Resolve maps each requested name to a catalog store. Exact
// normalized-name matching always runs first and needs nothing
// external; the remote matcher, when configured, only gets a say on the
// names exact matching missed. A remote failure is logged and otherwise
// invisible: the caller just gets baseline match quality.
//
// The result has exactly one entry per requested name, in input order.
func Resolve(ctx context.Context, requested []string, catalog []models.Store, remote RemoteMatcher) []Match {
	byKey := make(map[string]models.Store, len(catalog))
	for _, s := range catalog {
		byKey[s.NormalizedName] = s
	}

	matches := make([]Match, len(requested))
	var misses []string
	for i, name := range requested {
		matches[i] = Match{Requested: name}
		if store, ok := byKey[gather.Normalize(name)]; ok {
			matches[i].MatchedID = store.ID
			matches[i].MatchedName = store.Name
			matches[i].Found = true
		} else {
			misses = append(misses, name)
		}
	}

	if remote == nil || len(misses) == 0 || len(catalog) == 0 {
		return matches
	}

	resolved, err := remote.MatchBatch(ctx, misses, catalog)
	if err != nil {
		log.Printf("[search] match service unavailable, using exact matching only: %v", err)
		return matches
	}

	for i := range matches {
		if matches[i].Found {
			continue
		}
		candidate := resolved[matches[i].Requested]
		if candidate == "" {
			continue
		}
		store, ok := byKey[gather.Normalize(candidate)]
		if !ok {
			// the service answered with a name outside the catalog
			continue
		}
		matches[i].MatchedID = store.ID
		matches[i].MatchedName = store.Name
		matches[i].Found = true
	}
	return matches
}
