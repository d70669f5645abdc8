package search

import (
	"sort"

	"mallfinder/pkg/models"
)

// Link is one mall<->store edge, as loaded by the repo.
type Link struct {
	MallID  string
	StoreID string
}

// MallResult is one ranked mall with per-requested-name provenance.
type MallResult struct {
	Mall           models.Mall `json:"mall"`
	MatchedCount   int         `json:"matched_count"`
	TotalRequested int         `json:"total_requested"`
	MatchedStores  []Match     `json:"matched_stores"`
}

// Rank scores malls by how many of the matched stores they contain.
// Malls with zero hits are excluded entirely. Ordering is descending by
// matched count with mall name as the tiebreaker, so the same query
// always comes back in the same order.
func Rank(malls map[string]models.Mall, links []Link, matches []Match, totalRequested int) []MallResult {
	hits := make(map[string]map[string]bool)
	for _, l := range links {
		set := hits[l.MallID]
		if set == nil {
			set = make(map[string]bool)
			hits[l.MallID] = set
		}
		set[l.StoreID] = true
	}

	results := make([]MallResult, 0, len(hits))
	for mallID, storeSet := range hits {
		mall, ok := malls[mallID]
		if !ok {
			continue
		}

		// every requested name gets an entry: matched-here carries the
		// resolved store, everything else is an explicit miss
		perMall := make([]Match, 0, len(matches))
		count := 0
		for _, m := range matches {
			if m.Found && storeSet[m.MatchedID] {
				perMall = append(perMall, m)
				count++
			} else {
				perMall = append(perMall, Match{Requested: m.Requested})
			}
		}

		results = append(results, MallResult{
			Mall:           mall,
			MatchedCount:   count,
			TotalRequested: totalRequested,
			MatchedStores:  perMall,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].MatchedCount != results[j].MatchedCount {
			return results[i].MatchedCount > results[j].MatchedCount
		}
		return results[i].Mall.Name < results[j].Mall.Name
	})
	return results
}
