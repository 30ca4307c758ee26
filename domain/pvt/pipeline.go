package pvt

import (
	"gopvt/domain/frame"
)

// DefaultFilteringFactor is the SD-window width used when filtering is
// enabled and no explicit factor is configured.
const DefaultFilteringFactor = 2.5

// Pipeline turns raw PVT trial measurements into relative response times:
// invalid trials are dropped, trials collapse to one score per session,
// each user's scores are optionally outlier-filtered, and the survivors are
// normalized against that user's baseline.
type Pipeline struct {
	cols            Columns
	sessionStat     Statistic
	baselineStat    Statistic
	filteringFactor *float64
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithColumns overrides the user/session/response column names.
func WithColumns(cols Columns) Option {
	return func(p *Pipeline) { p.cols = cols }
}

// WithSessionStatistic selects the per-session aggregation statistic.
func WithSessionStatistic(s Statistic) Option {
	return func(p *Pipeline) { p.sessionStat = s }
}

// WithBaselineStatistic selects the per-user baseline statistic.
func WithBaselineStatistic(s Statistic) Option {
	return func(p *Pipeline) { p.baselineStat = s }
}

// WithFilteringFactor enables per-user outlier filtering with the given
// SD-window width.
func WithFilteringFactor(factor float64) Option {
	return func(p *Pipeline) { p.filteringFactor = &factor }
}

// WithoutFiltering disables outlier filtering; every session score passes
// through to normalization.
func WithoutFiltering() Option {
	return func(p *Pipeline) { p.filteringFactor = nil }
}

// NewPipeline builds a pipeline with the conventional defaults: median
// session scores, mean baselines, filtering at DefaultFilteringFactor, and
// DefaultColumns.
func NewPipeline(opts ...Option) *Pipeline {
	factor := DefaultFilteringFactor
	p := &Pipeline{
		cols:            DefaultColumns(),
		sessionStat:     StatMedian,
		baselineStat:    StatMean,
		filteringFactor: &factor,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Columns returns the configured column names.
func (p *Pipeline) Columns() Columns { return p.cols }

// FilteringFactor returns the configured SD-window width, or nil when
// filtering is disabled.
func (p *Pipeline) FilteringFactor() *float64 { return p.filteringFactor }

// SessionStatistic returns the per-session aggregation statistic.
func (p *Pipeline) SessionStatistic() Statistic { return p.sessionStat }

// BaselineStatistic returns the per-user baseline statistic.
func (p *Pipeline) BaselineStatistic() Statistic { return p.baselineStat }

// Process runs the full pipeline over a table of raw measurements and
// returns a table with columns {user, session, response, rrt}. The input
// is never mutated. Configuration errors (unrecognized statistics, bad
// factor) surface before any aggregation work.
func (p *Pipeline) Process(t *frame.Table) (*frame.Table, error) {
	if err := p.sessionStat.Validate(); err != nil {
		return nil, err
	}
	if err := p.baselineStat.Validate(); err != nil {
		return nil, err
	}

	valid, err := p.dropInvalid(t)
	if err != nil {
		return nil, err
	}

	scores, err := ScorePerSession(valid, p.sessionStat, p.cols)
	if err != nil {
		return nil, err
	}

	if p.filteringFactor != nil && scores.Len() > 0 {
		scores, err = p.filterPerUser(scores, *p.filteringFactor)
		if err != nil {
			return nil, err
		}
	}

	return RelativeResponseTime(scores, p.baselineStat, p.cols)
}

// dropInvalid removes premature trials: only strictly positive response
// times count as valid measurements.
func (p *Pipeline) dropInvalid(t *frame.Table) (*frame.Table, error) {
	responses, err := t.Floats(p.cols.Response)
	if err != nil {
		return nil, err
	}
	mask := make([]bool, len(responses))
	for i, v := range responses {
		mask[i] = v > 0
	}
	return t.Select(mask)
}

// filterPerUser runs recursive SD-window filtering over each user's session
// scores independently and stacks the survivors back into one table with a
// single final concatenation.
func (p *Pipeline) filterPerUser(scores *frame.Table, factor float64) (*frame.Table, error) {
	pred := SDPredicate(factor)
	groups, err := scores.GroupBy(p.cols.User)
	if err != nil {
		return nil, err
	}
	parts := make([]*frame.Table, 0, len(groups))
	for _, g := range groups {
		filtered, err := FilterOutliers(g.Rows, p.cols.Response, pred, true)
		if err != nil {
			return nil, err
		}
		parts = append(parts, filtered)
	}
	return frame.Concat(parts...)
}
