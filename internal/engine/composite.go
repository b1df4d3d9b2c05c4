package engine

// CompositeScore is the single ranking scalar for an animal: the weighted sum
// of its available category scores divided by the sum of those categories'
// weights. Renormalization means a missing category costs a contributing term,
// not a zero substitution.
type CompositeScore struct {
	Score         float64 `json:"score"`
	CategoryCount int     `json:"category_count"`
}

// compositeScore combines category scores under the given weights.
// Returns nil when no category has a score (or all scored categories carry
// zero weight): such an animal has no composite and is excluded from ranking.
func compositeScore(categories map[Category]CategoryScore, weights Weights) *CompositeScore {
	var weightedSum, weightTotal float64
	count := 0
	for _, c := range Categories {
		cs, ok := categories[c]
		if !ok {
			continue
		}
		count++
		w := weights.Of(c)
		weightedSum += w * cs.Score
		weightTotal += w
	}
	if count == 0 || weightTotal == 0 {
		return nil
	}
	return &CompositeScore{
		Score:         weightedSum / weightTotal,
		CategoryCount: count,
	}
}
