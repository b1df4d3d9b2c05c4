package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Events      EventsConfig      `yaml:"events"`
	KPIProvider KPIProviderConfig `yaml:"kpi_provider"`
	Runner      RunnerConfig      `yaml:"runner"`
	Grouping    GroupingConfig    `yaml:"grouping"`
	Filters     FiltersConfig     `yaml:"filters"`
	Scoring     ScoringConfig     `yaml:"scoring"`
	Logging     LoggingConfig     `yaml:"logging"`
}

type ServerConfig struct {
	Port        int    `yaml:"port"`
	MetricsPort int    `yaml:"metrics_port"`
	AdminToken  string `yaml:"admin_token"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type EventsConfig struct {
	URL string `yaml:"url"`
}

type KPIProviderConfig struct {
	URL   string `yaml:"url"`
	Token string `yaml:"token"`
}

type RunnerConfig struct {
	TickIntervalMs int `yaml:"tick_interval_ms"`
}

type GroupingConfig struct {
	WindowDays   int `yaml:"window_days"`
	MinGroupSize int `yaml:"min_group_size"`
}

type FiltersConfig struct {
	MinBirthWeight   float64 `yaml:"min_birth_weight"`
	MaxFootrotScore  float64 `yaml:"max_footrot_score"`
	MaxDagScore      float64 `yaml:"max_dag_score"`
	MinWeaningWeight float64 `yaml:"min_weaning_weight"`
	MaxMicron        float64 `yaml:"max_micron"`
	BSERequired      bool    `yaml:"bse_required"`
	Min200DayWeight  float64 `yaml:"min_200d_weight"`
	Min300DayWeight  float64 `yaml:"min_300d_weight"`
	MinWeaningRate   float64 `yaml:"min_weaning_rate"`
}

type ScoringConfig struct {
	// Preset names a registered weight preset; Weights overrides it when set.
	Preset             string             `yaml:"preset"`
	Weights            map[string]float64 `yaml:"weights"`
	LowScorePercentile float64            `yaml:"low_score_percentile"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Runner.TickIntervalMs) * time.Millisecond
}

func Load(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:        8700,
			MetricsPort: 8701,
		},
		Events: EventsConfig{
			URL: "nats://localhost:4222",
		},
		KPIProvider: KPIProviderConfig{
			URL: "http://localhost:8710",
		},
		Runner: RunnerConfig{
			TickIntervalMs: 5000,
		},
		Grouping: GroupingConfig{
			WindowDays:   30,
			MinGroupSize: 2,
		},
		Filters: FiltersConfig{
			MinBirthWeight:   2.0,
			MaxFootrotScore:  4,
			MaxDagScore:      4,
			MinWeaningWeight: 20.0,
			MaxMicron:        25.0,
			BSERequired:      true,
			Min200DayWeight:  40.0,
			Min300DayWeight:  50.0,
			MinWeaningRate:   0.5,
		},
		Scoring: ScoringConfig{
			Preset:             "balanced",
			LowScorePercentile: 0.10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("FLOCKRANK_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("FLOCKRANK_METRICS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.MetricsPort = n
		}
	}
	if v := os.Getenv("FLOCKRANK_ADMIN_TOKEN"); v != "" {
		cfg.Server.AdminToken = v
	}
	if v := os.Getenv("FLOCKRANK_DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("FLOCKRANK_EVENTS_URL"); v != "" {
		cfg.Events.URL = v
	}
	if v := os.Getenv("FLOCKRANK_KPI_URL"); v != "" {
		cfg.KPIProvider.URL = v
	}
	if v := os.Getenv("FLOCKRANK_KPI_TOKEN"); v != "" {
		cfg.KPIProvider.Token = v
	}
	if v := os.Getenv("FLOCKRANK_TICK_INTERVAL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Runner.TickIntervalMs = n
		}
	}
	if v := os.Getenv("FLOCKRANK_GROUP_WINDOW_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Grouping.WindowDays = n
		}
	}
	if v := os.Getenv("FLOCKRANK_SCORING_PRESET"); v != "" {
		cfg.Scoring.Preset = v
	}
	if v := os.Getenv("FLOCKRANK_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
