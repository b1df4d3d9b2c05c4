package engine

import (
	"testing"
)

func TestRankAnimalsOrdersByComposite(t *testing.T) {
	composites := map[string]*CompositeScore{
		"A1": {Score: 0.2, CategoryCount: 3},
		"A2": {Score: 1.1, CategoryCount: 3},
		"A3": {Score: -0.4, CategoryCount: 3},
	}
	outcomes := map[string]FilterOutcome{}
	membership := map[string]string{"A1": "g", "A2": "g", "A3": "g"}

	entries := rankAnimals(composites, outcomes, membership)
	if len(entries) != 3 {
		t.Fatalf("ranked %d, want 3", len(entries))
	}
	wantOrder := []string{"A2", "A1", "A3"}
	for i, id := range wantOrder {
		if entries[i].AnimalID != id {
			t.Errorf("rank %d = %s, want %s", i+1, entries[i].AnimalID, id)
		}
		if entries[i].Rank != i+1 {
			t.Errorf("entry %s rank = %d, want %d", entries[i].AnimalID, entries[i].Rank, i+1)
		}
	}
}

func TestRankAnimalsSkipsHardFailedAndUnscored(t *testing.T) {
	composites := map[string]*CompositeScore{
		"A1": {Score: 0.5, CategoryCount: 2},
		"A2": {Score: 0.9, CategoryCount: 2},
		"A3": nil,
	}
	outcomes := map[string]FilterOutcome{
		"A2": {AnimalID: "A2", HardFailed: true, HardCodes: []string{CodeBSEFail}},
	}
	membership := map[string]string{"A1": "g", "A2": "g", "A3": "g"}

	entries := rankAnimals(composites, outcomes, membership)
	if len(entries) != 1 {
		t.Fatalf("ranked %d, want 1", len(entries))
	}
	if entries[0].AnimalID != "A1" || entries[0].Rank != 1 {
		t.Errorf("unexpected sole entry %+v", entries[0])
	}
}

func TestRankAnimalsTieBreak(t *testing.T) {
	// Identical scores: more categories ranks first, then smaller id.
	composites := map[string]*CompositeScore{
		"A9": {Score: 0.5, CategoryCount: 2},
		"A2": {Score: 0.5, CategoryCount: 2},
		"A5": {Score: 0.5, CategoryCount: 4},
	}
	membership := map[string]string{"A9": "g", "A2": "g", "A5": "g"}

	entries := rankAnimals(composites, map[string]FilterOutcome{}, membership)
	wantOrder := []string{"A5", "A2", "A9"}
	for i, id := range wantOrder {
		if entries[i].AnimalID != id {
			t.Errorf("rank %d = %s, want %s", i+1, entries[i].AnimalID, id)
		}
	}
}

func TestRankAnimalsRanksAreDense(t *testing.T) {
	composites := map[string]*CompositeScore{}
	membership := map[string]string{}
	for _, id := range []string{"A1", "A2", "A3", "A4", "A5"} {
		composites[id] = &CompositeScore{Score: float64(len(id)), CategoryCount: 1}
		membership[id] = "g"
	}
	composites["A2"].Score = 7
	composites["A4"].Score = -1

	entries := rankAnimals(composites, map[string]FilterOutcome{}, membership)
	seen := make(map[int]bool)
	for _, e := range entries {
		seen[e.Rank] = true
	}
	for i := 1; i <= len(entries); i++ {
		if !seen[i] {
			t.Errorf("rank %d missing, ranks are not a dense 1..N", i)
		}
	}
}
