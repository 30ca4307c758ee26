// Package testkit generates synthetic PVT trial data for tests and demos.
package testkit

import (
	"encoding/csv"
	"fmt"
	"math"
	"math/rand"
	"os"
	"strconv"

	"gonum.org/v1/gonum/stat/distuv"

	"gopvt/domain/frame"
	"gopvt/domain/pvt"
)

// PVTConfig configures the synthetic trial generator
type PVTConfig struct {
	Users            int     `json:"users"`
	SessionsPerUser  int     `json:"sessions_per_user"`
	TrialsPerSession int     `json:"trials_per_session"`
	MedianRT         float64 `json:"median_rt_ms"`
	Spread           float64 `json:"spread"` // log-scale sigma of reaction times
	LapseRate        float64 `json:"lapse_rate"`
	FalseStartRate   float64 `json:"false_start_rate"`
	Seed             int64   `json:"seed"`
}

// DefaultPVTConfig returns sensible defaults for synthetic PVT data
func DefaultPVTConfig() PVTConfig {
	return PVTConfig{
		Users:            5,
		SessionsPerUser:  8,
		TrialsPerSession: 20,
		MedianRT:         285.0,
		Spread:           0.15,
		LapseRate:        0.05,
		FalseStartRate:   0.02,
		Seed:             42,
	}
}

// PVTGenerator generates realistic reaction-time trials: log-normal
// response times with per-user speed factors, occasional lapses (very slow
// responses) and false starts (non-positive response times the pipeline
// must discard).
type PVTGenerator struct {
	config PVTConfig
	rng    *rand.Rand
}

// NewPVTGenerator creates a new generator seeded from the config
func NewPVTGenerator(config PVTConfig) *PVTGenerator {
	return &PVTGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Generate produces a measurement table with the conventional columns.
func (g *PVTGenerator) Generate() (*frame.Table, error) {
	cols := pvt.DefaultColumns()
	table := frame.New(cols.User, cols.Session, cols.Response)

	for u := 1; u <= g.config.Users; u++ {
		// Per-user baseline speed, 0.85x to 1.15x of the cohort median
		speed := 0.85 + 0.3*g.rng.Float64()
		dist := distuv.LogNormal{
			Mu:    math.Log(g.config.MedianRT * speed),
			Sigma: g.config.Spread,
		}
		userID := fmt.Sprintf("user-%02d", u)

		for s := 1; s <= g.config.SessionsPerUser; s++ {
			// Mild fatigue drift across sessions
			fatigue := 1.0 + 0.02*float64(s-1)
			sessionID := fmt.Sprintf("session-%02d", s)

			for t := 0; t < g.config.TrialsPerSession; t++ {
				rt := g.trial(dist, fatigue)
				if err := table.AppendRow(userID, sessionID, rt); err != nil {
					return nil, err
				}
			}
		}
	}
	return table, nil
}

// trial draws one response time. Sampling goes through the quantile
// function so the generator stays deterministic under its own seed.
func (g *PVTGenerator) trial(dist distuv.LogNormal, fatigue float64) float64 {
	roll := g.rng.Float64()
	switch {
	case roll < g.config.FalseStartRate:
		// False start: anticipatory response, recorded as <= 0
		if g.rng.Float64() < 0.5 {
			return 0
		}
		return -g.rng.Float64() * 50
	case roll < g.config.FalseStartRate+g.config.LapseRate:
		// Lapse: attention drop, response several times slower
		return dist.Quantile(g.uniform()) * (2.5 + 2.5*g.rng.Float64())
	default:
		return dist.Quantile(g.uniform()) * fatigue
	}
}

// uniform draws from the open interval (0, 1) so quantiles stay finite.
func (g *PVTGenerator) uniform() float64 {
	u := g.rng.Float64()
	if u == 0 {
		u = 0.5
	}
	return u
}

// WriteCSV generates trials and writes them as a CSV measurement file.
func (g *PVTGenerator) WriteCSV(path string) error {
	table, err := g.Generate()
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	cols := pvt.DefaultColumns()
	if err := w.Write([]string{cols.User, cols.Session, cols.Response}); err != nil {
		return err
	}
	users, err := table.Column(cols.User)
	if err != nil {
		return err
	}
	sessions, err := table.Column(cols.Session)
	if err != nil {
		return err
	}
	responses, err := table.Floats(cols.Response)
	if err != nil {
		return err
	}
	for i := 0; i < table.Len(); i++ {
		record := []string{
			fmt.Sprint(users[i]),
			fmt.Sprint(sessions[i]),
			strconv.FormatFloat(responses[i], 'f', 3, 64),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
