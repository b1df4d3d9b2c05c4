package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/merinolabs/flockrank/internal/engine"
	"github.com/merinolabs/flockrank/internal/events"
	"github.com/merinolabs/flockrank/internal/store"
)

type RunsHandler struct {
	store  store.Store
	events events.Client
}

func NewRunsHandler(s store.Store, ev events.Client) *RunsHandler {
	return &RunsHandler{store: s, events: ev}
}

type CreateRunRequest struct {
	Preset  string             `json:"preset,omitempty"`
	Weights map[string]float64 `json:"weights,omitempty"`
}

// Create handles POST /api/v1/runs. The run is queued; the runner picks it
// up on its next tick. Preset and weights are validated here so a bad
// request fails fast instead of failing the run.
func (h *RunsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if len(req.Weights) > 0 {
		if _, err := engine.WeightsFromMap(req.Weights); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
	} else if req.Preset != "" {
		if _, err := engine.PresetWeights(req.Preset); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
	}

	run := &store.ScoringRun{
		Preset:  req.Preset,
		Weights: req.Weights,
		Status:  store.RunQueued,
	}
	if err := h.store.CreateRun(r.Context(), run); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	if h.events != nil {
		_ = h.events.Publish(events.SubjectRunQueued(run.ID.String()), events.RunQueuedEvent{
			RunID:  run.ID.String(),
			Preset: run.Preset,
		})
	}

	writeJSON(w, http.StatusCreated, run)
}

// List handles GET /api/v1/runs
func (h *RunsHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := store.RunFilter{}
	if s := r.URL.Query().Get("status"); s != "" {
		status := store.RunStatus(s)
		filter.Status = &status
	}
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			filter.Limit = n
		}
	}
	if s := r.URL.Query().Get("offset"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			filter.Offset = n
		}
	}

	runs, err := h.store.ListRuns(r.Context(), filter)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if runs == nil {
		runs = []*store.ScoringRun{}
	}
	writeJSON(w, http.StatusOK, runs)
}

// Get handles GET /api/v1/runs/{id}
func (h *RunsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid run id"})
		return
	}

	run, err := h.store.GetRun(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if run == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "run not found"})
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// Rankings handles GET /api/v1/runs/{id}/rankings. The stored order is the
// canonical ranking; ?sex= narrows the view without renumbering ranks.
func (h *RunsHandler) Rankings(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid run id"})
		return
	}

	rankings, err := h.store.GetRankings(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	if s := r.URL.Query().Get("sex"); s != "" {
		sex, err := store.ParseSex(s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		animals, err := h.store.ListAnimals(r.Context(), store.AnimalFilter{Sex: &sex})
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		keep := make(map[string]bool, len(animals))
		for _, a := range animals {
			keep[a.ID] = true
		}
		var filtered []*store.RankEntry
		for _, entry := range rankings {
			if keep[entry.AnimalID] {
				filtered = append(filtered, entry)
			}
		}
		rankings = filtered
	}

	if rankings == nil {
		rankings = []*store.RankEntry{}
	}
	writeJSON(w, http.StatusOK, rankings)
}

// Culls handles GET /api/v1/runs/{id}/culls
func (h *RunsHandler) Culls(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid run id"})
		return
	}

	culls, err := h.store.GetCulls(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if culls == nil {
		culls = []*store.CullRecommendation{}
	}
	writeJSON(w, http.StatusOK, culls)
}

// Groups handles GET /api/v1/runs/{id}/groups
func (h *RunsHandler) Groups(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid run id"})
		return
	}

	groups, err := h.store.GetGroupSummaries(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if groups == nil {
		groups = []*store.GroupSummary{}
	}
	writeJSON(w, http.StatusOK, groups)
}

// Explain handles GET /api/v1/runs/{id}/explain/{animal_id}. Ranked animals
// carry their explanation on the rank entry; hard-failed animals never rank,
// so theirs lives on the cull record.
func (h *RunsHandler) Explain(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid run id"})
		return
	}
	animalID := chi.URLParam(r, "animal_id")

	entry, err := h.store.GetRankEntry(r.Context(), id, animalID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if entry != nil && len(entry.Explanation) > 0 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(entry.Explanation)
		return
	}

	cull, err := h.store.GetCull(r.Context(), id, animalID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if cull != nil && len(cull.Explanation) > 0 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(cull.Explanation)
		return
	}

	writeJSON(w, http.StatusNotFound, map[string]string{"error": "no explanation for animal in run"})
}

// Presets handles GET /api/v1/presets
func (h *RunsHandler) Presets(w http.ResponseWriter, r *http.Request) {
	resp := make(map[string]map[string]float64)
	for _, name := range engine.PresetNames() {
		weights, _ := engine.PresetWeights(name)
		resp[name] = weights.Map()
	}
	writeJSON(w, http.StatusOK, resp)
}
