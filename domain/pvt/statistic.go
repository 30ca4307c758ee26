// Package pvt implements alertness scoring for Psychomotor Vigilance Test
// (PVT) data: per-session aggregation of raw reaction times, recursive
// outlier filtering, and normalization against each user's own baseline.
package pvt

import (
	"github.com/montanaflynn/stats"

	"gopvt/domain/core"
)

// Statistic is the closed set of central-tendency reductions the pipeline
// supports. Selectors arrive as strings at the boundary and are rejected
// there when unrecognized.
type Statistic string

const (
	StatMean   Statistic = "mean"
	StatMedian Statistic = "median"
)

// ParseStatistic maps a selector string onto a Statistic, failing with an
// unknown-function error naming the value for anything outside the set.
func ParseStatistic(name string) (Statistic, error) {
	switch Statistic(name) {
	case StatMean, StatMedian:
		return Statistic(name), nil
	}
	return "", core.NewUnknownFunctionError(name)
}

// Validate rejects Statistic values constructed outside ParseStatistic.
func (s Statistic) Validate() error {
	_, err := ParseStatistic(string(s))
	return err
}

// Apply reduces values with the selected statistic.
func (s Statistic) Apply(values []float64) (float64, error) {
	switch s {
	case StatMean:
		return stats.Mean(values)
	case StatMedian:
		return stats.Median(values)
	}
	return 0, core.NewUnknownFunctionError(string(s))
}
