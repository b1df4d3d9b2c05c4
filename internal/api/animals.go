package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/merinolabs/flockrank/internal/events"
	"github.com/merinolabs/flockrank/internal/store"
)

type AnimalsHandler struct {
	store  store.Store
	events events.Client
}

func NewAnimalsHandler(s store.Store, ev events.Client) *AnimalsHandler {
	return &AnimalsHandler{store: s, events: ev}
}

type UpsertAnimalRequest struct {
	Sex        string `json:"sex"`
	BirthDate  string `json:"birth_date"`
	MgmtGroup  string `json:"mgmt_group"`
	SireID     string `json:"sire_id,omitempty"`
	DamID      string `json:"dam_id,omitempty"`
	CullFlag   bool   `json:"cull_flag"`
	CullReason string `json:"cull_reason,omitempty"`
}

// Upsert handles PUT /api/v1/animals/{id}
func (h *AnimalsHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "animal id required"})
		return
	}

	var req UpsertAnimalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	sex, err := store.ParseSex(req.Sex)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	birthDate, err := time.Parse("2006-01-02", req.BirthDate)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "birth_date must be YYYY-MM-DD"})
		return
	}
	if req.MgmtGroup == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "mgmt_group required"})
		return
	}

	a := &store.Animal{
		ID:         id,
		Sex:        sex,
		BirthDate:  birthDate,
		MgmtGroup:  req.MgmtGroup,
		SireID:     req.SireID,
		DamID:      req.DamID,
		CullFlag:   req.CullFlag,
		CullReason: req.CullReason,
	}

	if err := h.store.UpsertAnimal(r.Context(), a); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	if h.events != nil {
		_ = h.events.Publish(events.SubjectAnimalUpserted(a.ID), a)
	}

	writeJSON(w, http.StatusOK, a)
}

// List handles GET /api/v1/animals
func (h *AnimalsHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := store.AnimalFilter{
		MgmtGroup: r.URL.Query().Get("mgmt_group"),
	}
	if s := r.URL.Query().Get("sex"); s != "" {
		sex, err := store.ParseSex(s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		filter.Sex = &sex
	}
	if s := r.URL.Query().Get("cull_flag"); s != "" {
		if b, err := strconv.ParseBool(s); err == nil {
			filter.CullFlag = &b
		}
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

	animals, err := h.store.ListAnimals(r.Context(), filter)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if animals == nil {
		animals = []*store.Animal{}
	}
	writeJSON(w, http.StatusOK, animals)
}

// Get handles GET /api/v1/animals/{id}
func (h *AnimalsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	a, err := h.store.GetAnimal(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if a == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "animal not found"})
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// UpsertKPIs handles PUT /api/v1/animals/{id}/kpis. Values replace the
// animal's stored KPI set wholesale; omitted names become missing.
func (h *AnimalsHandler) UpsertKPIs(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	a, err := h.store.GetAnimal(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if a == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "animal not found"})
		return
	}

	var values map[string]float64
	if err := json.NewDecoder(r.Body).Decode(&values); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	rec := &store.KPIRecord{AnimalID: id, Values: values}
	if err := h.store.UpsertKPIRecord(r.Context(), rec); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// GetKPIs handles GET /api/v1/animals/{id}/kpis
func (h *AnimalsHandler) GetKPIs(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rec, err := h.store.GetKPIRecord(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if rec == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no kpi record for animal"})
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
