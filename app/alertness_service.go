// Package app wires the scoring pipeline to readers and storage.
package app

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"gopvt/domain/core"
	"gopvt/domain/frame"
	"gopvt/domain/pvt"
	"gopvt/domain/run"
	"gopvt/internal"
	"gopvt/ports"
)

// AlertnessService runs the PVT scoring pipeline over measurement sources
// and optionally persists the results.
type AlertnessService struct {
	pipeline *pvt.Pipeline
	repo     ports.ResultRepository // nil disables persistence
	log      *internal.Logger
}

// NewAlertnessService creates a service around a configured pipeline. Pass
// a nil repository to skip persistence.
func NewAlertnessService(pipeline *pvt.Pipeline, repo ports.ResultRepository) *AlertnessService {
	return &AlertnessService{
		pipeline: pipeline,
		repo:     repo,
		log:      internal.DefaultLogger,
	}
}

// Result pairs a run record with its scored session table.
type Result struct {
	Run    run.Run
	Scores *frame.Table
}

// ProcessTable scores one table of raw measurements.
func (s *AlertnessService) ProcessTable(ctx context.Context, source string, measurements *frame.Table) (*Result, error) {
	rn := run.New(source, s.pipeline)
	rn.MeasurementCount = measurements.Len()

	scored, err := s.pipeline.Process(measurements)
	if err != nil {
		return nil, fmt.Errorf("pipeline failed for %s: %w", source, err)
	}
	rn.ScoreCount = scored.Len()
	s.log.Info("run %s: %d measurements -> %d session scores", rn.ID, rn.MeasurementCount, rn.ScoreCount)

	if s.repo != nil {
		scores, err := ScoresFromTable(rn.ID.String(), scored, s.pipeline.Columns())
		if err != nil {
			return nil, err
		}
		if err := s.repo.SaveRun(ctx, rn, scores); err != nil {
			return nil, fmt.Errorf("failed to persist run %s: %w", rn.ID, err)
		}
	}

	return &Result{Run: rn, Scores: scored}, nil
}

// ProcessSource reads measurements from a reader and scores them.
func (s *AlertnessService) ProcessSource(ctx context.Context, source string, reader ports.MeasurementReader) (*Result, error) {
	measurements, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", source, err)
	}
	return s.ProcessTable(ctx, source, measurements)
}

// ProcessBatch scores several measurement sources concurrently. Each
// source's run is independent, so failures cancel the batch but never mix
// rows across sources. maxParallel bounds concurrency; values below one
// mean unbounded.
func (s *AlertnessService) ProcessBatch(ctx context.Context, readers map[string]ports.MeasurementReader, maxParallel int) (map[string]*Result, error) {
	g, ctx := errgroup.WithContext(ctx)
	if maxParallel > 0 {
		g.SetLimit(maxParallel)
	}

	var mu sync.Mutex
	results := make(map[string]*Result, len(readers))

	for source, reader := range readers {
		g.Go(func() error {
			res, err := s.ProcessSource(ctx, source, reader)
			if err != nil {
				return err
			}
			mu.Lock()
			results[source] = res
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// ScoresFromTable flattens a scored table into persistence rows. Group keys
// may be any comparable value, so user and session ids are stringified.
func ScoresFromTable(runID string, scored *frame.Table, cols pvt.Columns) ([]run.Score, error) {
	users, err := scored.Column(cols.User)
	if err != nil {
		return nil, err
	}
	sessions, err := scored.Column(cols.Session)
	if err != nil {
		return nil, err
	}
	responses, err := scored.Floats(cols.Response)
	if err != nil {
		return nil, err
	}
	rrts, err := scored.Floats(pvt.ColRRT)
	if err != nil {
		return nil, err
	}

	scores := make([]run.Score, scored.Len())
	for i := range scores {
		scores[i] = run.Score{
			RunID:        core.RunID(runID),
			UserID:       fmt.Sprint(users[i]),
			SessionID:    fmt.Sprint(sessions[i]),
			ResponseTime: responses[i],
			RRT:          rrts[i],
		}
	}
	return scores, nil
}
