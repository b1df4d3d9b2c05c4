package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Sex string

const (
	SexEwe    Sex = "Ewe"
	SexRam    Sex = "Ram"
	SexWether Sex = "Wether"
)

func ParseSex(s string) (Sex, error) {
	switch Sex(s) {
	case SexEwe, SexRam, SexWether:
		return Sex(s), nil
	}
	return "", fmt.Errorf("invalid sex %q, must be one of: Ewe, Ram, Wether", s)
}

// Animal is a validated flock record. Immutable once loaded into a run.
type Animal struct {
	ID        string    `json:"animal_id"`
	Sex       Sex       `json:"sex"`
	BirthDate time.Time `json:"birth_date"`
	MgmtGroup string    `json:"mgmt_group"`
	SireID    string    `json:"sire_id,omitempty"`
	DamID     string    `json:"dam_id,omitempty"`

	// Pre-existing cull decision carried in from the source records.
	CullFlag   bool   `json:"cull_flag"`
	CullReason string `json:"cull_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// KPIRecord maps KPI names to derived values for one animal.
// An absent key means the measurement was never taken; there is no zero
// substitution.
type KPIRecord struct {
	AnimalID  string             `json:"animal_id"`
	Values    map[string]float64 `json:"values"`
	UpdatedAt time.Time          `json:"updated_at"`
}

func (r *KPIRecord) Value(name string) (float64, bool) {
	if r == nil || r.Values == nil {
		return 0, false
	}
	v, ok := r.Values[name]
	return v, ok
}

type RunStatus string

const (
	RunQueued    RunStatus = "queued"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// ScoringRun is one execution of the ranking engine over the full flock.
type ScoringRun struct {
	ID      uuid.UUID          `json:"run_id"`
	Preset  string             `json:"preset,omitempty"`
	Weights map[string]float64 `json:"weights,omitempty"`

	Status RunStatus `json:"status"`
	Error  string    `json:"error,omitempty"`

	AnimalCount int `json:"animal_count"`
	RankedCount int `json:"ranked_count"`
	CullCount   int `json:"cull_count"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

type RankEntry struct {
	RunID          uuid.UUID       `json:"run_id"`
	AnimalID       string          `json:"animal_id"`
	Rank           int             `json:"rank"`
	CompositeScore float64         `json:"composite_score"`
	CategoryCount  int             `json:"category_count"`
	GroupID        string          `json:"group_id"`
	Explanation    json.RawMessage `json:"explanation,omitempty"`
}

type CullRecommendation struct {
	RunID       uuid.UUID       `json:"run_id"`
	AnimalID    string          `json:"animal_id"`
	Cull        bool            `json:"cull"`
	Reasons     json.RawMessage `json:"reasons,omitempty"`
	Explanation json.RawMessage `json:"explanation,omitempty"`
}

type GroupSummary struct {
	RunID     uuid.UUID `json:"run_id"`
	GroupID   string    `json:"group_id"`
	MgmtGroup string    `json:"mgmt_group"`
	Size      int       `json:"size"`
	Small     bool      `json:"small"`
}

type AnimalFilter struct {
	Sex       *Sex
	MgmtGroup string
	CullFlag  *bool
	Limit     int
	Offset    int
}

type RunFilter struct {
	Status *RunStatus
	Limit  int
	Offset int
}

type FlockStats struct {
	TotalAnimals    int        `json:"total_animals"`
	TotalRuns       int        `json:"total_runs"`
	CompletedRuns   int        `json:"completed_runs"`
	QueuedRuns      int        `json:"queued_runs"`
	LastCompletedAt *time.Time `json:"last_completed_at,omitempty"`
}

type Store interface {
	UpsertAnimal(ctx context.Context, a *Animal) error
	GetAnimal(ctx context.Context, id string) (*Animal, error)
	ListAnimals(ctx context.Context, filter AnimalFilter) ([]*Animal, error)

	UpsertKPIRecord(ctx context.Context, rec *KPIRecord) error
	GetKPIRecord(ctx context.Context, animalID string) (*KPIRecord, error)
	ListKPIRecords(ctx context.Context) (map[string]*KPIRecord, error)

	CreateRun(ctx context.Context, run *ScoringRun) error
	GetRun(ctx context.Context, id uuid.UUID) (*ScoringRun, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]*ScoringRun, error)
	UpdateRun(ctx context.Context, run *ScoringRun) error
	GetQueuedRuns(ctx context.Context) ([]*ScoringRun, error)

	SaveRunResults(ctx context.Context, runID uuid.UUID, rankings []*RankEntry, culls []*CullRecommendation, groups []*GroupSummary) error
	GetRankings(ctx context.Context, runID uuid.UUID) ([]*RankEntry, error)
	GetRankEntry(ctx context.Context, runID uuid.UUID, animalID string) (*RankEntry, error)
	GetCulls(ctx context.Context, runID uuid.UUID) ([]*CullRecommendation, error)
	GetCull(ctx context.Context, runID uuid.UUID, animalID string) (*CullRecommendation, error)
	GetGroupSummaries(ctx context.Context, runID uuid.UUID) ([]*GroupSummary, error)

	GetStats(ctx context.Context) (*FlockStats, error)

	Close() error
}
