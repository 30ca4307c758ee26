package config

import (
	"os"
	"strconv"

	"gopvt/domain/pvt"
	"gopvt/internal/errors"
)

// FilterDisabled is the PVT_FILTERING_FACTOR value that turns outlier
// filtering off entirely.
const FilterDisabled = "off"

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Pipeline PipelineConfig
}

// DatabaseConfig holds database connection settings. URL may be empty, in
// which case runs are not persisted.
type DatabaseConfig struct {
	URL string
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port string
}

// PipelineConfig holds the scoring pipeline defaults
type PipelineConfig struct {
	SessionStatistic  pvt.Statistic
	BaselineStatistic pvt.Statistic
	FilteringFactor   *float64 // nil disables outlier filtering
	UserColumn        string
	SessionColumn     string
	ResponseColumn    string
}

// Columns returns the configured column names as pipeline columns.
func (p PipelineConfig) Columns() pvt.Columns {
	return pvt.Columns{
		User:     p.UserColumn,
		Session:  p.SessionColumn,
		Response: p.ResponseColumn,
	}
}

// Options translates the pipeline configuration into pipeline options.
func (p PipelineConfig) Options() []pvt.Option {
	opts := []pvt.Option{
		pvt.WithColumns(p.Columns()),
		pvt.WithSessionStatistic(p.SessionStatistic),
		pvt.WithBaselineStatistic(p.BaselineStatistic),
	}
	if p.FilteringFactor != nil {
		opts = append(opts, pvt.WithFilteringFactor(*p.FilteringFactor))
	} else {
		opts = append(opts, pvt.WithoutFiltering())
	}
	return opts
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	pipeline, err := loadPipelineConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load pipeline configuration")
	}
	return &Config{
		Database: DatabaseConfig{URL: os.Getenv("DATABASE_URL")},
		Server:   ServerConfig{Port: getEnvOrDefault("PORT", "8080")},
		Pipeline: *pipeline,
	}, nil
}

func loadPipelineConfig() (*PipelineConfig, error) {
	sessionStat, err := pvt.ParseStatistic(getEnvOrDefault("PVT_SESSION_STATISTIC", string(pvt.StatMedian)))
	if err != nil {
		return nil, errors.ConfigInvalid("PVT_SESSION_STATISTIC: " + err.Error())
	}
	baselineStat, err := pvt.ParseStatistic(getEnvOrDefault("PVT_BASELINE_STATISTIC", string(pvt.StatMean)))
	if err != nil {
		return nil, errors.ConfigInvalid("PVT_BASELINE_STATISTIC: " + err.Error())
	}
	factor, err := parseFilteringFactor(getEnvOrDefault("PVT_FILTERING_FACTOR", ""))
	if err != nil {
		return nil, err
	}
	return &PipelineConfig{
		SessionStatistic:  sessionStat,
		BaselineStatistic: baselineStat,
		FilteringFactor:   factor,
		UserColumn:        getEnvOrDefault("PVT_USER_COLUMN", "user_id"),
		SessionColumn:     getEnvOrDefault("PVT_SESSION_COLUMN", "session"),
		ResponseColumn:    getEnvOrDefault("PVT_RESPONSE_COLUMN", "response_time"),
	}, nil
}

// parseFilteringFactor interprets the factor setting: empty means the
// pipeline default, FilterDisabled means no filtering, anything else must
// be a positive float.
func parseFilteringFactor(raw string) (*float64, error) {
	switch raw {
	case "":
		f := pvt.DefaultFilteringFactor
		return &f, nil
	case FilterDisabled:
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, errors.ConfigInvalid("PVT_FILTERING_FACTOR must be a number or \"off\": " + raw)
	}
	if f <= 0 {
		return nil, errors.ConfigInvalid("PVT_FILTERING_FACTOR must be positive: " + raw)
	}
	return &f, nil
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
