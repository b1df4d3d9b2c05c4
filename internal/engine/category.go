package engine

// CategoryScore is a weighted aggregate of one category's standardized traits
// for a single animal. TraitCount records how many traits actually contributed,
// so downstream consumers can judge confidence. A category with zero available
// traits produces no CategoryScore at all.
type CategoryScore struct {
	Category   Category `json:"category"`
	Score      float64  `json:"score"`
	TraitCount int      `json:"trait_count"`
}

// scoreCategories aggregates standardized traits into category scores for one
// animal. Inverted traits (lower raw value is better) are sign-flipped before
// averaging, so a higher category score always means better.
func scoreCategories(animalID string, std StandardizedTraits) map[Category]CategoryScore {
	scores := make(map[Category]CategoryScore)
	for _, c := range Categories {
		var sum float64
		count := 0
		for _, td := range CategoryTraits(c) {
			v, ok := std.Score(animalID, td.Name)
			if !ok {
				continue
			}
			if td.Inverted {
				v = -v
			}
			sum += v
			count++
		}
		if count == 0 {
			continue
		}
		scores[c] = CategoryScore{
			Category:   c,
			Score:      sum / float64(count),
			TraitCount: count,
		}
	}
	return scores
}
