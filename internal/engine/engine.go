// Package engine implements the scoring and ranking pipeline: contemporary
// grouping, within-group trait standardization, category and composite
// scoring, hard/soft filtering, deterministic ranking, and cull
// recommendation with explanations.
//
// The engine is a pure batch computation: no I/O, no retained state between
// runs, and a deterministic result for a given animal set regardless of input
// order.
package engine

import (
	"log/slog"
	"sync"

	"github.com/merinolabs/flockrank/internal/store"
)

// Engine runs the full scoring pipeline under one validated configuration.
type Engine struct {
	cfg    Config
	logger *slog.Logger
}

// New validates the configuration and returns an Engine. Configuration errors
// surface here, before any animal is processed.
func New(cfg Config, logger *slog.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg, logger: logger}, nil
}

// Result is the complete output of one run. Every stage's output is keyed by
// animal id; no stage mutates another's output.
type Result struct {
	Groups     []*Group
	Membership map[string]string

	Standardized   StandardizedTraits
	CategoryScores map[string]map[Category]CategoryScore
	Composites     map[string]*CompositeScore
	Filters        map[string]FilterOutcome

	Rankings []RankEntry
	Culls    []CullRecommendation

	Explanations map[string]*Explanation
}

// Run scores the full animal set. It always completes for a well-formed
// configuration: missing KPIs, zero-variance groups, and singleton groups are
// conditions handled by policy, not errors. The result may legitimately
// contain zero ranked animals.
func (e *Engine) Run(animals []*store.Animal, kpis map[string]*store.KPIRecord) *Result {
	r := &Result{}
	r.Groups, r.Membership = BuildGroups(animals, e.cfg.WindowDays, e.cfg.MinGroupSize)

	// Standardization is independent per group; fan out across groups.
	perGroup := make([]StandardizedTraits, len(r.Groups))
	var wg sync.WaitGroup
	for i, g := range r.Groups {
		wg.Add(1)
		go func(i int, g *Group) {
			defer wg.Done()
			perGroup[i] = standardizeGroup(g, kpis)
		}(i, g)
	}
	wg.Wait()

	r.Standardized = make(StandardizedTraits, len(animals))
	for _, std := range perGroup {
		for id, traits := range std {
			r.Standardized[id] = traits
		}
	}

	r.CategoryScores = make(map[string]map[Category]CategoryScore, len(animals))
	r.Composites = make(map[string]*CompositeScore, len(animals))
	r.Filters = make(map[string]FilterOutcome, len(animals))
	for _, a := range animals {
		r.CategoryScores[a.ID] = scoreCategories(a.ID, r.Standardized)
		r.Composites[a.ID] = compositeScore(r.CategoryScores[a.ID], e.cfg.Weights)
		r.Filters[a.ID] = evaluateFilters(a.ID, kpis[a.ID], e.cfg.Filters)
	}

	r.Rankings = rankAnimals(r.Composites, r.Filters, r.Membership)
	r.Culls = recommendCulls(animals, r.Filters, r.Composites, r.Membership, r.Groups, e.cfg.LowScorePercentile)
	r.Explanations = buildExplanations(r, e.cfg.Weights)

	if e.logger != nil {
		e.logger.Info("scoring run complete",
			"animals", len(animals),
			"groups", len(r.Groups),
			"ranked", len(r.Rankings),
			"cull_recommended", countCulls(r.Culls),
		)
	}
	return r
}

func countCulls(culls []CullRecommendation) int {
	n := 0
	for _, c := range culls {
		if c.Cull {
			n++
		}
	}
	return n
}
