package engine

import (
	"sort"
)

// RankEntry is one animal's position in the final ordering. Ranks run 1..N
// with no gaps or repeats.
type RankEntry struct {
	AnimalID       string  `json:"animal_id"`
	Rank           int     `json:"rank"`
	CompositeScore float64 `json:"composite_score"`
	CategoryCount  int     `json:"category_count"`
	GroupID        string  `json:"group_id"`
}

// rankAnimals orders the surviving animals (composite score present, no hard
// failure) descending by composite score. Exact ties are broken first by
// category completeness (more data ranks higher), then by lexicographically
// smaller animal id, which guarantees a total order independent of input
// order.
func rankAnimals(composites map[string]*CompositeScore, outcomes map[string]FilterOutcome, membership map[string]string) []RankEntry {
	var entries []RankEntry
	for id, cs := range composites {
		if cs == nil {
			continue
		}
		if outcomes[id].HardFailed {
			continue
		}
		entries = append(entries, RankEntry{
			AnimalID:       id,
			CompositeScore: cs.Score,
			CategoryCount:  cs.CategoryCount,
			GroupID:        membership[id],
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.CompositeScore != b.CompositeScore {
			return a.CompositeScore > b.CompositeScore
		}
		if a.CategoryCount != b.CategoryCount {
			return a.CategoryCount > b.CategoryCount
		}
		return a.AnimalID < b.AnimalID
	})

	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}
