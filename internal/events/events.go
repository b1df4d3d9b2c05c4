package events

import "time"

type RunQueuedEvent struct {
	RunID  string `json:"run_id"`
	Preset string `json:"preset,omitempty"`
}

type RunStartedEvent struct {
	RunID       string    `json:"run_id"`
	AnimalCount int       `json:"animal_count"`
	StartedAt   time.Time `json:"started_at"`
}

type RunCompletedEvent struct {
	RunID       string    `json:"run_id"`
	AnimalCount int       `json:"animal_count"`
	RankedCount int       `json:"ranked_count"`
	CullCount   int       `json:"cull_count"`
	CompletedAt time.Time `json:"completed_at"`
}

type RunFailedEvent struct {
	RunID string `json:"run_id"`
	Error string `json:"error"`
}

type CullRecommendedEvent struct {
	RunID     string   `json:"run_id"`
	AnimalIDs []string `json:"animal_ids"`
}
