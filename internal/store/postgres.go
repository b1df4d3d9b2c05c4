package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &PostgresStore{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS flock_animals (
			animal_id   TEXT PRIMARY KEY,
			sex         TEXT NOT NULL,
			birth_date  DATE NOT NULL,
			mgmt_group  TEXT NOT NULL,
			sire_id     TEXT,
			dam_id      TEXT,
			cull_flag   BOOLEAN NOT NULL DEFAULT FALSE,
			cull_reason TEXT,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE TABLE IF NOT EXISTS flock_kpi_records (
			animal_id  TEXT PRIMARY KEY REFERENCES flock_animals(animal_id) ON DELETE CASCADE,
			kpi_values JSONB NOT NULL DEFAULT '{}',
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE TABLE IF NOT EXISTS scoring_runs (
			run_id       UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			preset       TEXT,
			weights      JSONB,
			status       TEXT NOT NULL DEFAULT 'queued',
			error        TEXT,
			animal_count INT NOT NULL DEFAULT 0,
			ranked_count INT NOT NULL DEFAULT 0,
			cull_count   INT NOT NULL DEFAULT 0,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
			started_at   TIMESTAMPTZ,
			completed_at TIMESTAMPTZ
		);
		CREATE TABLE IF NOT EXISTS run_rankings (
			run_id          UUID NOT NULL REFERENCES scoring_runs(run_id) ON DELETE CASCADE,
			animal_id       TEXT NOT NULL,
			rank            INT NOT NULL,
			composite_score DOUBLE PRECISION NOT NULL,
			category_count  INT NOT NULL,
			group_id        TEXT NOT NULL,
			explanation     JSONB,
			PRIMARY KEY (run_id, animal_id)
		);
		CREATE TABLE IF NOT EXISTS run_culls (
			run_id      UUID NOT NULL REFERENCES scoring_runs(run_id) ON DELETE CASCADE,
			animal_id   TEXT NOT NULL,
			cull        BOOLEAN NOT NULL,
			reasons     JSONB,
			explanation JSONB,
			PRIMARY KEY (run_id, animal_id)
		);
		CREATE TABLE IF NOT EXISTS run_groups (
			run_id     UUID NOT NULL REFERENCES scoring_runs(run_id) ON DELETE CASCADE,
			group_id   TEXT NOT NULL,
			mgmt_group TEXT NOT NULL,
			size       INT NOT NULL,
			small      BOOLEAN NOT NULL,
			PRIMARY KEY (run_id, group_id)
		);
	`)
	return err
}

// --- Animals ---

func (s *PostgresStore) UpsertAnimal(ctx context.Context, a *Animal) error {
	return s.pool.QueryRow(ctx, `
		INSERT INTO flock_animals (animal_id, sex, birth_date, mgmt_group, sire_id, dam_id, cull_flag, cull_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (animal_id) DO UPDATE SET
			sex = EXCLUDED.sex,
			birth_date = EXCLUDED.birth_date,
			mgmt_group = EXCLUDED.mgmt_group,
			sire_id = EXCLUDED.sire_id,
			dam_id = EXCLUDED.dam_id,
			cull_flag = EXCLUDED.cull_flag,
			cull_reason = EXCLUDED.cull_reason,
			updated_at = now()
		RETURNING created_at, updated_at`,
		a.ID, a.Sex, a.BirthDate, a.MgmtGroup,
		nullable(a.SireID), nullable(a.DamID), a.CullFlag, nullable(a.CullReason),
	).Scan(&a.CreatedAt, &a.UpdatedAt)
}

const animalColumns = `animal_id, sex, birth_date, mgmt_group, sire_id, dam_id, cull_flag, cull_reason, created_at, updated_at`

func scanAnimal(row pgx.Row) (*Animal, error) {
	a := &Animal{}
	var sireID, damID, cullReason sql.NullString
	err := row.Scan(
		&a.ID, &a.Sex, &a.BirthDate, &a.MgmtGroup,
		&sireID, &damID, &a.CullFlag, &cullReason,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.SireID = sireID.String
	a.DamID = damID.String
	a.CullReason = cullReason.String
	return a, nil
}

func (s *PostgresStore) GetAnimal(ctx context.Context, id string) (*Animal, error) {
	a, err := scanAnimal(s.pool.QueryRow(ctx, `
		SELECT `+animalColumns+` FROM flock_animals WHERE animal_id = $1`, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *PostgresStore) ListAnimals(ctx context.Context, filter AnimalFilter) ([]*Animal, error) {
	query := `SELECT ` + animalColumns + ` FROM flock_animals WHERE 1=1`
	args := []interface{}{}
	n := 0

	if filter.Sex != nil {
		n++
		query += fmt.Sprintf(" AND sex = $%d", n)
		args = append(args, string(*filter.Sex))
	}
	if filter.MgmtGroup != "" {
		n++
		query += fmt.Sprintf(" AND mgmt_group = $%d", n)
		args = append(args, filter.MgmtGroup)
	}
	if filter.CullFlag != nil {
		n++
		query += fmt.Sprintf(" AND cull_flag = $%d", n)
		args = append(args, *filter.CullFlag)
	}
	query += " ORDER BY animal_id"
	if filter.Limit > 0 {
		n++
		query += fmt.Sprintf(" LIMIT $%d", n)
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		n++
		query += fmt.Sprintf(" OFFSET $%d", n)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var animals []*Animal
	for rows.Next() {
		a, err := scanAnimal(rows)
		if err != nil {
			return nil, err
		}
		animals = append(animals, a)
	}
	return animals, rows.Err()
}

// --- KPI records ---

func (s *PostgresStore) UpsertKPIRecord(ctx context.Context, rec *KPIRecord) error {
	valuesJSON, _ := json.Marshal(rec.Values)
	return s.pool.QueryRow(ctx, `
		INSERT INTO flock_kpi_records (animal_id, kpi_values)
		VALUES ($1, $2)
		ON CONFLICT (animal_id) DO UPDATE SET
			kpi_values = EXCLUDED.kpi_values,
			updated_at = now()
		RETURNING updated_at`,
		rec.AnimalID, valuesJSON,
	).Scan(&rec.UpdatedAt)
}

func (s *PostgresStore) GetKPIRecord(ctx context.Context, animalID string) (*KPIRecord, error) {
	rec := &KPIRecord{AnimalID: animalID}
	var valuesJSON []byte
	err := s.pool.QueryRow(ctx, `
		SELECT kpi_values, updated_at FROM flock_kpi_records WHERE animal_id = $1`, animalID,
	).Scan(&valuesJSON, &rec.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(valuesJSON, &rec.Values); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *PostgresStore) ListKPIRecords(ctx context.Context) (map[string]*KPIRecord, error) {
	rows, err := s.pool.Query(ctx, `SELECT animal_id, kpi_values, updated_at FROM flock_kpi_records`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make(map[string]*KPIRecord)
	for rows.Next() {
		rec := &KPIRecord{}
		var valuesJSON []byte
		if err := rows.Scan(&rec.AnimalID, &valuesJSON, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(valuesJSON, &rec.Values); err != nil {
			return nil, err
		}
		records[rec.AnimalID] = rec
	}
	return records, rows.Err()
}

// --- Runs ---

const runColumns = `run_id, preset, weights, status, error, animal_count, ranked_count, cull_count, created_at, started_at, completed_at`

func (s *PostgresStore) CreateRun(ctx context.Context, run *ScoringRun) error {
	weightsJSON, _ := json.Marshal(run.Weights)
	return s.pool.QueryRow(ctx, `
		INSERT INTO scoring_runs (preset, weights, status)
		VALUES ($1, $2, $3)
		RETURNING run_id, created_at`,
		nullable(run.Preset), weightsJSON, run.Status,
	).Scan(&run.ID, &run.CreatedAt)
}

func scanRun(row pgx.Row) (*ScoringRun, error) {
	run := &ScoringRun{}
	var preset, runErr sql.NullString
	var weightsJSON []byte
	err := row.Scan(
		&run.ID, &preset, &weightsJSON, &run.Status, &runErr,
		&run.AnimalCount, &run.RankedCount, &run.CullCount,
		&run.CreatedAt, &run.StartedAt, &run.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	run.Preset = preset.String
	run.Error = runErr.String
	if weightsJSON != nil {
		_ = json.Unmarshal(weightsJSON, &run.Weights)
	}
	return run, nil
}

func (s *PostgresStore) GetRun(ctx context.Context, id uuid.UUID) (*ScoringRun, error) {
	run, err := scanRun(s.pool.QueryRow(ctx, `
		SELECT `+runColumns+` FROM scoring_runs WHERE run_id = $1`, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]*ScoringRun, error) {
	query := `SELECT ` + runColumns + ` FROM scoring_runs WHERE 1=1`
	args := []interface{}{}
	n := 0

	if filter.Status != nil {
		n++
		query += fmt.Sprintf(" AND status = $%d", n)
		args = append(args, string(*filter.Status))
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		n++
		query += fmt.Sprintf(" LIMIT $%d", n)
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		n++
		query += fmt.Sprintf(" OFFSET $%d", n)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*ScoringRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *PostgresStore) UpdateRun(ctx context.Context, run *ScoringRun) error {
	weightsJSON, _ := json.Marshal(run.Weights)
	_, err := s.pool.Exec(ctx, `
		UPDATE scoring_runs SET
			preset = $2, weights = $3, status = $4, error = $5,
			animal_count = $6, ranked_count = $7, cull_count = $8,
			started_at = $9, completed_at = $10
		WHERE run_id = $1`,
		run.ID, nullable(run.Preset), weightsJSON, run.Status, nullable(run.Error),
		run.AnimalCount, run.RankedCount, run.CullCount,
		run.StartedAt, run.CompletedAt,
	)
	return err
}

func (s *PostgresStore) GetQueuedRuns(ctx context.Context) ([]*ScoringRun, error) {
	status := RunQueued
	return s.ListRuns(ctx, RunFilter{Status: &status})
}

// --- Run results ---

func (s *PostgresStore) SaveRunResults(ctx context.Context, runID uuid.UUID, rankings []*RankEntry, culls []*CullRecommendation, groups []*GroupSummary) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, table := range []string{"run_rankings", "run_culls", "run_groups"} {
		if _, err := tx.Exec(ctx, `DELETE FROM `+table+` WHERE run_id = $1`, runID); err != nil {
			return err
		}
	}

	for _, e := range rankings {
		_, err := tx.Exec(ctx, `
			INSERT INTO run_rankings (run_id, animal_id, rank, composite_score, category_count, group_id, explanation)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			runID, e.AnimalID, e.Rank, e.CompositeScore, e.CategoryCount, e.GroupID, []byte(e.Explanation),
		)
		if err != nil {
			return err
		}
	}
	for _, c := range culls {
		_, err := tx.Exec(ctx, `
			INSERT INTO run_culls (run_id, animal_id, cull, reasons, explanation)
			VALUES ($1, $2, $3, $4, $5)`,
			runID, c.AnimalID, c.Cull, []byte(c.Reasons), []byte(c.Explanation),
		)
		if err != nil {
			return err
		}
	}
	for _, g := range groups {
		_, err := tx.Exec(ctx, `
			INSERT INTO run_groups (run_id, group_id, mgmt_group, size, small)
			VALUES ($1, $2, $3, $4, $5)`,
			runID, g.GroupID, g.MgmtGroup, g.Size, g.Small,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (s *PostgresStore) GetRankings(ctx context.Context, runID uuid.UUID) ([]*RankEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT run_id, animal_id, rank, composite_score, category_count, group_id, explanation
		FROM run_rankings WHERE run_id = $1 ORDER BY rank`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*RankEntry
	for rows.Next() {
		e := &RankEntry{}
		var explanation []byte
		if err := rows.Scan(&e.RunID, &e.AnimalID, &e.Rank, &e.CompositeScore, &e.CategoryCount, &e.GroupID, &explanation); err != nil {
			return nil, err
		}
		e.Explanation = explanation
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *PostgresStore) GetRankEntry(ctx context.Context, runID uuid.UUID, animalID string) (*RankEntry, error) {
	e := &RankEntry{}
	var explanation []byte
	err := s.pool.QueryRow(ctx, `
		SELECT run_id, animal_id, rank, composite_score, category_count, group_id, explanation
		FROM run_rankings WHERE run_id = $1 AND animal_id = $2`, runID, animalID,
	).Scan(&e.RunID, &e.AnimalID, &e.Rank, &e.CompositeScore, &e.CategoryCount, &e.GroupID, &explanation)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	e.Explanation = explanation
	return e, nil
}

func (s *PostgresStore) GetCulls(ctx context.Context, runID uuid.UUID) ([]*CullRecommendation, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT run_id, animal_id, cull, reasons, explanation
		FROM run_culls WHERE run_id = $1 ORDER BY animal_id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var culls []*CullRecommendation
	for rows.Next() {
		c := &CullRecommendation{}
		var reasons, explanation []byte
		if err := rows.Scan(&c.RunID, &c.AnimalID, &c.Cull, &reasons, &explanation); err != nil {
			return nil, err
		}
		c.Reasons = reasons
		c.Explanation = explanation
		culls = append(culls, c)
	}
	return culls, rows.Err()
}

func (s *PostgresStore) GetCull(ctx context.Context, runID uuid.UUID, animalID string) (*CullRecommendation, error) {
	c := &CullRecommendation{}
	var reasons, explanation []byte
	err := s.pool.QueryRow(ctx, `
		SELECT run_id, animal_id, cull, reasons, explanation
		FROM run_culls WHERE run_id = $1 AND animal_id = $2`, runID, animalID,
	).Scan(&c.RunID, &c.AnimalID, &c.Cull, &reasons, &explanation)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.Reasons = reasons
	c.Explanation = explanation
	return c, nil
}

func (s *PostgresStore) GetGroupSummaries(ctx context.Context, runID uuid.UUID) ([]*GroupSummary, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT run_id, group_id, mgmt_group, size, small
		FROM run_groups WHERE run_id = $1 ORDER BY group_id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []*GroupSummary
	for rows.Next() {
		g := &GroupSummary{}
		if err := rows.Scan(&g.RunID, &g.GroupID, &g.MgmtGroup, &g.Size, &g.Small); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// --- Stats ---

func (s *PostgresStore) GetStats(ctx context.Context) (*FlockStats, error) {
	stats := &FlockStats{}
	err := s.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM flock_animals),
			(SELECT COUNT(*) FROM scoring_runs),
			(SELECT COUNT(*) FROM scoring_runs WHERE status = 'completed'),
			(SELECT COUNT(*) FROM scoring_runs WHERE status = 'queued'),
			(SELECT MAX(completed_at) FROM scoring_runs WHERE status = 'completed')`,
	).Scan(&stats.TotalAnimals, &stats.TotalRuns, &stats.CompletedRuns, &stats.QueuedRuns, &stats.LastCompletedAt)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
