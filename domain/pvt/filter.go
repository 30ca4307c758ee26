package pvt

import (
	"fmt"

	"github.com/montanaflynn/stats"

	"gopvt/domain/core"
	"gopvt/domain/frame"
)

// Predicate maps a column's values onto a keep-mask of the same length.
// False marks a row as an outlier to discard.
type Predicate func(values []float64) ([]bool, error)

// maxFilterRounds caps the fixed-point loop. Convergence is guaranteed for
// any predicate that only ever removes rows, since the row count strictly
// decreases; the cap only trips on a predicate that grows or oscillates.
const maxFilterRounds = 10000

// SDOutlierMask builds the mean/SD window mask: a value is kept iff it lies
// strictly inside mean ± factor*SD, using the sample standard deviation.
// Both boundaries are exclusive, so a zero standard deviation (all values
// identical, or a single value) rejects every row. That degenerate outcome
// is intentional and mirrors the window arithmetic rather than an error.
func SDOutlierMask(values []float64, factor float64) ([]bool, error) {
	if factor <= 0 {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidFactor, factor)
	}
	mask := make([]bool, len(values))
	if len(values) == 0 {
		return mask, nil
	}
	mean, err := stats.Mean(values)
	if err != nil {
		return nil, err
	}
	sd, err := stats.StandardDeviationSample(values)
	if err != nil {
		return nil, err
	}
	threshold := sd * factor
	min, max := mean-threshold, mean+threshold
	for i, v := range values {
		mask[i] = min < v && v < max
	}
	return mask, nil
}

// SDPredicate binds SDOutlierMask to a factor so it can be handed to
// FilterOutliers.
func SDPredicate(factor float64) Predicate {
	return func(values []float64) ([]bool, error) {
		return SDOutlierMask(values, factor)
	}
}

// FilterOutliers removes the rows of t whose filterCol values the predicate
// marks as outliers. In recursive mode the predicate is re-applied to the
// surviving rows until a round removes nothing (the fixed point); otherwise
// it is applied exactly once. Predicate failures propagate unchanged.
func FilterOutliers(t *frame.Table, filterCol string, pred Predicate, recursive bool) (*frame.Table, error) {
	cur := t
	for round := 0; round < maxFilterRounds; round++ {
		if cur.Len() == 0 {
			return cur, nil
		}
		values, err := cur.Floats(filterCol)
		if err != nil {
			return nil, err
		}
		mask, err := pred(values)
		if err != nil {
			return nil, err
		}
		next, err := cur.Select(mask)
		if err != nil {
			return nil, err
		}
		if !recursive || next.Len() == cur.Len() {
			return next, nil
		}
		cur = next
	}
	return nil, fmt.Errorf("outlier filtering did not converge after %d rounds", maxFilterRounds)
}
