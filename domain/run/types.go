// Package run models one recorded invocation of the scoring pipeline.
package run

import (
	"time"

	"gopvt/domain/core"
	"gopvt/domain/pvt"
)

// Run captures the configuration and shape of one pipeline invocation.
type Run struct {
	ID                core.RunID    `json:"id" db:"id"`
	Source            string        `json:"source" db:"source"`
	SessionStatistic  pvt.Statistic `json:"session_statistic" db:"session_statistic"`
	BaselineStatistic pvt.Statistic `json:"baseline_statistic" db:"baseline_statistic"`
	FilteringFactor   *float64      `json:"filtering_factor,omitempty" db:"filtering_factor"`
	MeasurementCount  int           `json:"measurement_count" db:"measurement_count"`
	ScoreCount        int           `json:"score_count" db:"score_count"`
	CreatedAt         time.Time     `json:"created_at" db:"created_at"`
}

// Score is one scored session: the aggregated (possibly outlier-filtered)
// response time and its deviation from the user's baseline.
type Score struct {
	RunID        core.RunID `json:"run_id" db:"run_id"`
	UserID       string     `json:"user_id" db:"user_id"`
	SessionID    string     `json:"session" db:"session"`
	ResponseTime float64    `json:"response_time" db:"response_time"`
	RRT          float64    `json:"rrt" db:"rrt"`
}

// New creates a Run describing a pipeline invocation about to happen.
func New(source string, p *pvt.Pipeline) Run {
	return Run{
		ID:                core.NewRunID(),
		Source:            source,
		SessionStatistic:  p.SessionStatistic(),
		BaselineStatistic: p.BaselineStatistic(),
		FilteringFactor:   p.FilteringFactor(),
		CreatedAt:         time.Now().UTC(),
	}
}
