// Package runner executes queued scoring runs. It polls the store on a
// ticker, loads the flock, invokes the engine, and persists results. One run
// executes at a time; a failed run is marked failed and never retried
// automatically.
package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/merinolabs/flockrank/internal/config"
	"github.com/merinolabs/flockrank/internal/engine"
	"github.com/merinolabs/flockrank/internal/events"
	"github.com/merinolabs/flockrank/internal/kpi"
	"github.com/merinolabs/flockrank/internal/store"
)

type Runner struct {
	store  store.Store
	events events.Client
	kpi    kpi.Client
	cfg    *config.Config
	logger *slog.Logger

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func New(s store.Store, ev events.Client, k kpi.Client, cfg *config.Config, logger *slog.Logger) *Runner {
	return &Runner{
		store:  s,
		events: ev,
		kpi:    k,
		cfg:    cfg,
		logger: logger,
		stopCh: make(chan struct{}),
	}
}

func (r *Runner) Start(ctx context.Context) {
	r.wg.Add(1)
	go r.runLoop(ctx)
}

func (r *Runner) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
	r.wg.Wait()
}

func (r *Runner) runLoop(ctx context.Context) {
	defer r.wg.Done()
	ticker := time.NewTicker(r.cfg.TickInterval())
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.processQueuedRuns(ctx)
		}
	}
}

func (r *Runner) processQueuedRuns(ctx context.Context) {
	runs, err := r.store.GetQueuedRuns(ctx)
	if err != nil {
		r.logger.Error("failed to get queued runs", "error", err)
		return
	}

	for _, run := range runs {
		if err := r.Execute(ctx, run); err != nil {
			r.logger.Error("run failed", "run_id", run.ID, "error", err)
			runsTotal.WithLabelValues("failed").Inc()
			run.Status = store.RunFailed
			run.Error = err.Error()
			now := time.Now()
			run.CompletedAt = &now
			if uerr := r.store.UpdateRun(ctx, run); uerr != nil {
				r.logger.Error("failed to mark run failed", "run_id", run.ID, "error", uerr)
			}
			if r.events != nil {
				_ = r.events.Publish(events.SubjectRunFailed(run.ID.String()), events.RunFailedEvent{
					RunID: run.ID.String(),
					Error: err.Error(),
				})
			}
		}
	}
}

// Execute performs one scoring run end to end. The run transitions
// queued -> running -> completed; any error leaves it for the caller to mark
// failed.
func (r *Runner) Execute(ctx context.Context, run *store.ScoringRun) error {
	start := time.Now()
	run.Status = store.RunRunning
	run.StartedAt = &start
	if err := r.store.UpdateRun(ctx, run); err != nil {
		return fmt.Errorf("mark running: %w", err)
	}

	animals, err := r.store.ListAnimals(ctx, store.AnimalFilter{})
	if err != nil {
		return fmt.Errorf("load animals: %w", err)
	}

	if r.events != nil {
		_ = r.events.Publish(events.SubjectRunStarted(run.ID.String()), events.RunStartedEvent{
			RunID:       run.ID.String(),
			AnimalCount: len(animals),
			StartedAt:   start,
		})
	}

	kpis, err := r.loadKPIs(ctx, animals)
	if err != nil {
		return fmt.Errorf("load kpi records: %w", err)
	}

	weights, err := r.resolveWeights(run)
	if err != nil {
		return err
	}

	engCfg := engine.Config{
		WindowDays:   r.cfg.Grouping.WindowDays,
		MinGroupSize: r.cfg.Grouping.MinGroupSize,
		Weights:      weights,
		Filters: engine.FilterConfig{
			MinBirthWeight:   r.cfg.Filters.MinBirthWeight,
			MaxFootrotScore:  r.cfg.Filters.MaxFootrotScore,
			MaxDagScore:      r.cfg.Filters.MaxDagScore,
			MinWeaningWeight: r.cfg.Filters.MinWeaningWeight,
			MaxMicron:        r.cfg.Filters.MaxMicron,
			BSERequired:      r.cfg.Filters.BSERequired,
			Min200DayWeight:  r.cfg.Filters.Min200DayWeight,
			Min300DayWeight:  r.cfg.Filters.Min300DayWeight,
			MinWeaningRate:   r.cfg.Filters.MinWeaningRate,
		},
		LowScorePercentile: r.cfg.Scoring.LowScorePercentile,
	}
	eng, err := engine.New(engCfg, r.logger)
	if err != nil {
		return fmt.Errorf("engine config: %w", err)
	}

	result := eng.Run(animals, kpis)

	rankings, culls, groups, err := convertResult(run, result)
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	if err := r.store.SaveRunResults(ctx, run.ID, rankings, culls, groups); err != nil {
		return fmt.Errorf("save results: %w", err)
	}

	now := time.Now()
	run.Status = store.RunCompleted
	run.CompletedAt = &now
	run.AnimalCount = len(animals)
	run.RankedCount = len(rankings)
	run.CullCount = countRecommended(culls)
	if err := r.store.UpdateRun(ctx, run); err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}

	runsTotal.WithLabelValues("completed").Inc()
	animalsScored.Add(float64(len(animals)))
	runDuration.Observe(time.Since(start).Seconds())

	if r.events != nil {
		_ = r.events.Publish(events.SubjectRunCompleted(run.ID.String()), events.RunCompletedEvent{
			RunID:       run.ID.String(),
			AnimalCount: run.AnimalCount,
			RankedCount: run.RankedCount,
			CullCount:   run.CullCount,
			CompletedAt: now,
		})
		if ids := recommendedIDs(culls); len(ids) > 0 {
			_ = r.events.Publish(events.SubjectCullRecommended(run.ID.String()), events.CullRecommendedEvent{
				RunID:     run.ID.String(),
				AnimalIDs: ids,
			})
		}
	}

	r.logger.Info("run completed",
		"run_id", run.ID,
		"animals", run.AnimalCount,
		"ranked", run.RankedCount,
		"culls", run.CullCount,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// loadKPIs merges stored KPI records with fresh values from the provider.
// Provider values win per KPI name; the provider being down is not fatal,
// the run proceeds on stored records alone.
func (r *Runner) loadKPIs(ctx context.Context, animals []*store.Animal) (map[string]*store.KPIRecord, error) {
	kpis, err := r.store.ListKPIRecords(ctx)
	if err != nil {
		return nil, err
	}

	if r.kpi == nil || len(animals) == 0 {
		return kpis, nil
	}

	ids := make([]string, 0, len(animals))
	for _, a := range animals {
		ids = append(ids, a.ID)
	}
	fresh, err := r.kpi.FetchRecords(ctx, ids)
	if err != nil {
		r.logger.Warn("kpi provider unavailable, using stored records", "error", err)
		return kpis, nil
	}

	for animalID, values := range fresh {
		rec := kpis[animalID]
		if rec == nil {
			rec = &store.KPIRecord{AnimalID: animalID, Values: make(map[string]float64)}
			kpis[animalID] = rec
		}
		if rec.Values == nil {
			rec.Values = make(map[string]float64)
		}
		for name, v := range values {
			rec.Values[name] = v
		}
		if err := r.store.UpsertKPIRecord(ctx, rec); err != nil {
			r.logger.Warn("failed to persist refreshed kpi record", "animal_id", animalID, "error", err)
		}
	}
	return kpis, nil
}

// resolveWeights picks the weight set for a run: explicit weights beat the
// run's preset, which beats the service-level scoring config.
func (r *Runner) resolveWeights(run *store.ScoringRun) (engine.Weights, error) {
	if len(run.Weights) > 0 {
		return engine.WeightsFromMap(run.Weights)
	}
	if run.Preset != "" {
		return engine.PresetWeights(run.Preset)
	}
	if len(r.cfg.Scoring.Weights) > 0 {
		return engine.WeightsFromMap(r.cfg.Scoring.Weights)
	}
	return engine.PresetWeights(r.cfg.Scoring.Preset)
}

func convertResult(run *store.ScoringRun, result *engine.Result) ([]*store.RankEntry, []*store.CullRecommendation, []*store.GroupSummary, error) {
	rankings := make([]*store.RankEntry, 0, len(result.Rankings))
	for _, entry := range result.Rankings {
		explanation, err := json.Marshal(result.Explanations[entry.AnimalID])
		if err != nil {
			return nil, nil, nil, err
		}
		rankings = append(rankings, &store.RankEntry{
			RunID:          run.ID,
			AnimalID:       entry.AnimalID,
			Rank:           entry.Rank,
			CompositeScore: entry.CompositeScore,
			CategoryCount:  entry.CategoryCount,
			GroupID:        result.Membership[entry.AnimalID],
			Explanation:    explanation,
		})
	}

	culls := make([]*store.CullRecommendation, 0, len(result.Culls))
	for _, c := range result.Culls {
		reasons, err := json.Marshal(c.Reasons)
		if err != nil {
			return nil, nil, nil, err
		}
		explanation, err := json.Marshal(result.Explanations[c.AnimalID])
		if err != nil {
			return nil, nil, nil, err
		}
		culls = append(culls, &store.CullRecommendation{
			RunID:       run.ID,
			AnimalID:    c.AnimalID,
			Cull:        c.Cull,
			Reasons:     reasons,
			Explanation: explanation,
		})
	}

	groups := make([]*store.GroupSummary, 0, len(result.Groups))
	for _, g := range result.Groups {
		groups = append(groups, &store.GroupSummary{
			RunID:     run.ID,
			GroupID:   g.ID,
			MgmtGroup: g.MgmtGroup,
			Size:      g.Size(),
			Small:     g.Small,
		})
	}

	return rankings, culls, groups, nil
}

func countRecommended(culls []*store.CullRecommendation) int {
	n := 0
	for _, c := range culls {
		if c.Cull {
			n++
		}
	}
	return n
}

func recommendedIDs(culls []*store.CullRecommendation) []string {
	var ids []string
	for _, c := range culls {
		if c.Cull {
			ids = append(ids, c.AnimalID)
		}
	}
	return ids
}
