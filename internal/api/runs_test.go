package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/merinolabs/flockrank/internal/store"
)

// MockStore implements store.Store for handler tests
type MockStore struct {
	mock.Mock
}

func (m *MockStore) UpsertAnimal(ctx context.Context, a *store.Animal) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockStore) GetAnimal(ctx context.Context, id string) (*store.Animal, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Animal), args.Error(1)
}

func (m *MockStore) ListAnimals(ctx context.Context, filter store.AnimalFilter) ([]*store.Animal, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*store.Animal), args.Error(1)
}

func (m *MockStore) UpsertKPIRecord(ctx context.Context, rec *store.KPIRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockStore) GetKPIRecord(ctx context.Context, animalID string) (*store.KPIRecord, error) {
	args := m.Called(ctx, animalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.KPIRecord), args.Error(1)
}

func (m *MockStore) CreateRun(ctx context.Context, run *store.ScoringRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockStore) GetRun(ctx context.Context, id uuid.UUID) (*store.ScoringRun, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.ScoringRun), args.Error(1)
}

func (m *MockStore) ListRuns(ctx context.Context, filter store.RunFilter) ([]*store.ScoringRun, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*store.ScoringRun), args.Error(1)
}

func (m *MockStore) GetRankings(ctx context.Context, runID uuid.UUID) ([]*store.RankEntry, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*store.RankEntry), args.Error(1)
}

func (m *MockStore) GetRankEntry(ctx context.Context, runID uuid.UUID, animalID string) (*store.RankEntry, error) {
	args := m.Called(ctx, runID, animalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.RankEntry), args.Error(1)
}

func (m *MockStore) GetCull(ctx context.Context, runID uuid.UUID, animalID string) (*store.CullRecommendation, error) {
	args := m.Called(ctx, runID, animalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.CullRecommendation), args.Error(1)
}

// Remaining methods are no-ops for these tests
func (m *MockStore) ListKPIRecords(ctx context.Context) (map[string]*store.KPIRecord, error) {
	return nil, nil
}
func (m *MockStore) UpdateRun(ctx context.Context, run *store.ScoringRun) error { return nil }
func (m *MockStore) GetQueuedRuns(ctx context.Context) ([]*store.ScoringRun, error) {
	return nil, nil
}
func (m *MockStore) SaveRunResults(ctx context.Context, runID uuid.UUID, rankings []*store.RankEntry, culls []*store.CullRecommendation, groups []*store.GroupSummary) error {
	return nil
}
func (m *MockStore) GetCulls(ctx context.Context, runID uuid.UUID) ([]*store.CullRecommendation, error) {
	return nil, nil
}
func (m *MockStore) GetGroupSummaries(ctx context.Context, runID uuid.UUID) ([]*store.GroupSummary, error) {
	return nil, nil
}
func (m *MockStore) GetStats(ctx context.Context) (*store.FlockStats, error) { return nil, nil }
func (m *MockStore) Close() error                                            { return nil }

func TestCreateRunWithPreset(t *testing.T) {
	ms := new(MockStore)
	ms.On("CreateRun", mock.Anything, mock.MatchedBy(func(run *store.ScoringRun) bool {
		return run.Preset == "meat" && run.Status == store.RunQueued
	})).Return(nil)

	h := NewRunsHandler(ms, nil)
	body, _ := json.Marshal(CreateRunRequest{Preset: "meat"})
	req := httptest.NewRequest("POST", "/api/v1/runs", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	ms.AssertExpectations(t)
}

func TestCreateRunUnknownPresetRejected(t *testing.T) {
	ms := new(MockStore)
	h := NewRunsHandler(ms, nil)

	body, _ := json.Marshal(CreateRunRequest{Preset: "terminal"})
	req := httptest.NewRequest("POST", "/api/v1/runs", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	ms.AssertNotCalled(t, "CreateRun", mock.Anything, mock.Anything)
}

func TestCreateRunBadWeightsRejected(t *testing.T) {
	ms := new(MockStore)
	h := NewRunsHandler(ms, nil)

	body, _ := json.Marshal(CreateRunRequest{Weights: map[string]float64{"speed": 1}})
	req := httptest.NewRequest("POST", "/api/v1/runs", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateRunEmptyBodyUsesDefaults(t *testing.T) {
	ms := new(MockStore)
	ms.On("CreateRun", mock.Anything, mock.Anything).Return(nil)

	h := NewRunsHandler(ms, nil)
	req := httptest.NewRequest("POST", "/api/v1/runs", bytes.NewReader(nil))
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestGetRunNotFound(t *testing.T) {
	ms := new(MockStore)
	runID := uuid.New()
	ms.On("GetRun", mock.Anything, runID).Return(nil, nil)

	h := NewRunsHandler(ms, nil)
	req := withURLParams(httptest.NewRequest("GET", "/api/v1/runs/"+runID.String(), nil),
		map[string]string{"id": runID.String()})
	rec := httptest.NewRecorder()

	h.Get(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetRunInvalidID(t *testing.T) {
	h := NewRunsHandler(new(MockStore), nil)
	req := withURLParams(httptest.NewRequest("GET", "/api/v1/runs/not-a-uuid", nil),
		map[string]string{"id": "not-a-uuid"})
	rec := httptest.NewRecorder()

	h.Get(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRankingsSexFilter(t *testing.T) {
	ms := new(MockStore)
	runID := uuid.New()
	rankings := []*store.RankEntry{
		{RunID: runID, AnimalID: "R1", Rank: 1},
		{RunID: runID, AnimalID: "E1", Rank: 2},
		{RunID: runID, AnimalID: "R2", Rank: 3},
	}
	rams := []*store.Animal{
		{ID: "R1", Sex: store.SexRam},
		{ID: "R2", Sex: store.SexRam},
	}
	ms.On("GetRankings", mock.Anything, runID).Return(rankings, nil)
	ms.On("ListAnimals", mock.Anything, mock.MatchedBy(func(f store.AnimalFilter) bool {
		return f.Sex != nil && *f.Sex == store.SexRam
	})).Return(rams, nil)

	h := NewRunsHandler(ms, nil)
	req := withURLParams(httptest.NewRequest("GET", "/api/v1/runs/"+runID.String()+"/rankings?sex=Ram", nil),
		map[string]string{"id": runID.String()})
	rec := httptest.NewRecorder()

	h.Rankings(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var got []*store.RankEntry
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got, 2)
	// Filtering keeps canonical ranks, never renumbers.
	assert.Equal(t, "R1", got[0].AnimalID)
	assert.Equal(t, 1, got[0].Rank)
	assert.Equal(t, "R2", got[1].AnimalID)
	assert.Equal(t, 3, got[1].Rank)
}

func TestExplainFallsBackToCullRecord(t *testing.T) {
	ms := new(MockStore)
	runID := uuid.New()
	explanation := json.RawMessage(`{"animal_id":"R9","hard_failed":true}`)
	ms.On("GetRankEntry", mock.Anything, runID, "R9").Return(nil, nil)
	ms.On("GetCull", mock.Anything, runID, "R9").Return(&store.CullRecommendation{
		RunID:       runID,
		AnimalID:    "R9",
		Cull:        true,
		Explanation: explanation,
	}, nil)

	h := NewRunsHandler(ms, nil)
	req := withURLParams(httptest.NewRequest("GET", "/api/v1/runs/"+runID.String()+"/explain/R9", nil),
		map[string]string{"id": runID.String(), "animal_id": "R9"})
	rec := httptest.NewRecorder()

	h.Explain(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, string(explanation), rec.Body.String())
}

func TestExplainUnknownAnimal(t *testing.T) {
	ms := new(MockStore)
	runID := uuid.New()
	ms.On("GetRankEntry", mock.Anything, runID, "ghost").Return(nil, nil)
	ms.On("GetCull", mock.Anything, runID, "ghost").Return(nil, nil)

	h := NewRunsHandler(ms, nil)
	req := withURLParams(httptest.NewRequest("GET", "/api/v1/runs/"+runID.String()+"/explain/ghost", nil),
		map[string]string{"id": runID.String(), "animal_id": "ghost"})
	rec := httptest.NewRecorder()

	h.Explain(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPresetsListsAllWithWeights(t *testing.T) {
	h := NewRunsHandler(new(MockStore), nil)
	req := httptest.NewRequest("GET", "/api/v1/presets", nil)
	rec := httptest.NewRecorder()

	h.Presets(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var got map[string]map[string]float64
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Contains(t, got, "balanced")
	assert.Contains(t, got, "meat")
	assert.Contains(t, got, "wool")
	assert.Contains(t, got, "worm")
	assert.Equal(t, 0.30, got["balanced"]["growth"])
}

func withURLParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
