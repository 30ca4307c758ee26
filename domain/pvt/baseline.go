package pvt

import (
	"gopvt/domain/frame"
)

// ColRRT is the name of the relative-response-time column the normalizer
// attaches.
const ColRRT = "rrt"

// RelativeResponseTime normalizes each user's session scores against that
// user's own baseline. The baseline is the chosen statistic over the whole
// group, computed once per user and broadcast to every member row; there is
// no leave-one-out semantics, so a user with a single session always scores
// rrt = 0. Each row gets rrt = 100 * (baseline - x) / baseline: positive
// means faster than baseline, negative slower.
//
// A zero baseline divides through per IEEE arithmetic and yields non-finite
// rrt values; that is documented behavior, not an error.
func RelativeResponseTime(t *frame.Table, baseline Statistic, cols Columns) (*frame.Table, error) {
	if err := baseline.Validate(); err != nil {
		return nil, err
	}
	groups, err := t.GroupBy(cols.User)
	if err != nil {
		return nil, err
	}
	base := make(map[any]float64, len(groups))
	for _, g := range groups {
		values, err := g.Rows.Floats(cols.Response)
		if err != nil {
			return nil, err
		}
		b, err := baseline.Apply(values)
		if err != nil {
			return nil, err
		}
		base[g.Key] = b
	}
	users, err := t.Column(cols.User)
	if err != nil {
		return nil, err
	}
	responses, err := t.Floats(cols.Response)
	if err != nil {
		return nil, err
	}
	rrt := make([]any, t.Len())
	for i, x := range responses {
		b := base[users[i]]
		rrt[i] = 100 * (b - x) / b
	}
	return t.WithColumn(ColRRT, rrt)
}
