package ports

import (
	"context"

	"gopvt/domain/core"
	"gopvt/domain/run"
)

// ResultRepository defines the interface for persisting pipeline runs and
// their scored sessions.
type ResultRepository interface {
	SaveRun(ctx context.Context, r run.Run, scores []run.Score) error
	GetRun(ctx context.Context, id core.RunID) (*run.Run, error)
	ListRuns(ctx context.Context, limit int) ([]run.Run, error)
	GetScores(ctx context.Context, id core.RunID) ([]run.Score, error)
}
