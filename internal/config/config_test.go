package config

import (
	"testing"

	"gopvt/domain/pvt"
	"gopvt/internal/errors"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "PVT_SESSION_STATISTIC", "PVT_BASELINE_STATISTIC",
		"PVT_FILTERING_FACTOR", "PVT_USER_COLUMN", "PVT_SESSION_COLUMN",
		"PVT_RESPONSE_COLUMN",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("default port = %s, want 8080", cfg.Server.Port)
	}
	p := cfg.Pipeline
	if p.SessionStatistic != pvt.StatMedian {
		t.Errorf("default session statistic = %s, want median", p.SessionStatistic)
	}
	if p.BaselineStatistic != pvt.StatMean {
		t.Errorf("default baseline statistic = %s, want mean", p.BaselineStatistic)
	}
	if p.FilteringFactor == nil || *p.FilteringFactor != pvt.DefaultFilteringFactor {
		t.Errorf("default filtering factor = %v, want %v", p.FilteringFactor, pvt.DefaultFilteringFactor)
	}
	if p.UserColumn != "user_id" || p.SessionColumn != "session" || p.ResponseColumn != "response_time" {
		t.Errorf("unexpected default columns: %+v", p)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PVT_SESSION_STATISTIC", "mean")
	t.Setenv("PVT_BASELINE_STATISTIC", "median")
	t.Setenv("PVT_FILTERING_FACTOR", "1.5")
	t.Setenv("PVT_RESPONSE_COLUMN", "rt_ms")
	t.Setenv("PORT", "9000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != "9000" {
		t.Errorf("port = %s, want 9000", cfg.Server.Port)
	}
	if cfg.Pipeline.SessionStatistic != pvt.StatMean {
		t.Errorf("session statistic = %s, want mean", cfg.Pipeline.SessionStatistic)
	}
	if cfg.Pipeline.BaselineStatistic != pvt.StatMedian {
		t.Errorf("baseline statistic = %s, want median", cfg.Pipeline.BaselineStatistic)
	}
	if cfg.Pipeline.FilteringFactor == nil || *cfg.Pipeline.FilteringFactor != 1.5 {
		t.Errorf("filtering factor = %v, want 1.5", cfg.Pipeline.FilteringFactor)
	}
	if cfg.Pipeline.ResponseColumn != "rt_ms" {
		t.Errorf("response column = %s, want rt_ms", cfg.Pipeline.ResponseColumn)
	}
}

func TestLoadFilteringDisabled(t *testing.T) {
	t.Setenv("PVT_FILTERING_FACTOR", FilterDisabled)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Pipeline.FilteringFactor != nil {
		t.Errorf("filtering factor = %v, want nil", cfg.Pipeline.FilteringFactor)
	}
}

func TestLoadInvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"bad statistic":   {"PVT_SESSION_STATISTIC": "mode"},
		"bad factor":      {"PVT_FILTERING_FACTOR": "abc"},
		"negative factor": {"PVT_FILTERING_FACTOR": "-2"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Error("expected configuration error")
			} else if errors.GetCode(err) != errors.CodeConfigInvalid {
				t.Errorf("unexpected error code: %s (%v)", errors.GetCode(err), err)
			}
		})
	}
}

func TestPipelineConfigOptions(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	p := pvt.NewPipeline(cfg.Pipeline.Options()...)
	if p.SessionStatistic() != pvt.StatMedian || p.BaselineStatistic() != pvt.StatMean {
		t.Errorf("unexpected pipeline statistics: %s/%s", p.SessionStatistic(), p.BaselineStatistic())
	}
	if p.FilteringFactor() == nil {
		t.Error("expected filtering enabled by default")
	}
}
