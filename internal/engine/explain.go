package engine

// Explanation is the structured breakdown of what drove an animal's outcome.
// It is purely derivative: assembly of data the earlier stages already
// produced, no new computation.
type Explanation struct {
	AnimalID   string `json:"animal_id"`
	GroupID    string `json:"group_id"`
	GroupSize  int    `json:"group_size"`
	GroupSmall bool   `json:"group_small"`

	Categories     []CategoryScore    `json:"categories,omitempty"`
	CompositeScore *float64           `json:"composite_score,omitempty"`
	CategoryCount  int                `json:"category_count"`
	Weights        map[string]float64 `json:"weights"`

	HardFailed   bool               `json:"hard_failed"`
	HardCodes    []string           `json:"hard_codes,omitempty"`
	SoftFlags    []string           `json:"soft_flags,omitempty"`
	FilterValues map[string]float64 `json:"filter_values,omitempty"`

	CullRecommended bool         `json:"cull_recommended"`
	CullReasons     []CullReason `json:"cull_reasons,omitempty"`

	Rank int `json:"rank,omitempty"`
}

func buildExplanations(r *Result, weights Weights) map[string]*Explanation {
	groupByID := make(map[string]*Group, len(r.Groups))
	for _, g := range r.Groups {
		groupByID[g.ID] = g
	}
	rankByID := make(map[string]int, len(r.Rankings))
	for _, entry := range r.Rankings {
		rankByID[entry.AnimalID] = entry.Rank
	}
	cullByID := make(map[string]CullRecommendation, len(r.Culls))
	for _, c := range r.Culls {
		cullByID[c.AnimalID] = c
	}

	weightMap := weights.Map()
	explanations := make(map[string]*Explanation)
	for id, groupID := range r.Membership {
		ex := &Explanation{
			AnimalID: id,
			GroupID:  groupID,
			Weights:  weightMap,
		}
		if g := groupByID[groupID]; g != nil {
			ex.GroupSize = g.Size()
			ex.GroupSmall = g.Small
		}

		for _, c := range Categories {
			if cs, ok := r.CategoryScores[id][c]; ok {
				ex.Categories = append(ex.Categories, cs)
			}
		}
		if cs := r.Composites[id]; cs != nil {
			score := cs.Score
			ex.CompositeScore = &score
			ex.CategoryCount = cs.CategoryCount
		}

		out := r.Filters[id]
		ex.HardFailed = out.HardFailed
		ex.HardCodes = out.HardCodes
		ex.SoftFlags = out.SoftFlags
		ex.FilterValues = out.Values

		if cull, ok := cullByID[id]; ok {
			ex.CullRecommended = cull.Cull
			ex.CullReasons = cull.Reasons
		}
		ex.Rank = rankByID[id]

		explanations[id] = ex
	}
	return explanations
}
