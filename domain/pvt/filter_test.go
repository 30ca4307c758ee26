package pvt

import (
	"errors"
	"sort"
	"testing"

	"gopvt/domain/core"
	"gopvt/domain/frame"
)

func columnTable(t *testing.T, values []float64) *frame.Table {
	t.Helper()
	table := frame.New("x")
	for _, v := range values {
		if err := table.AppendRow(v); err != nil {
			t.Fatalf("AppendRow failed: %v", err)
		}
	}
	return table
}

func sortedColumn(t *testing.T, table *frame.Table, col string) []float64 {
	t.Helper()
	vals, err := table.Floats(col)
	if err != nil {
		t.Fatalf("Floats failed: %v", err)
	}
	out := append([]float64(nil), vals...)
	sort.Float64s(out)
	return out
}

var outlierInput = []float64{11171.0, 119425.0, 270.5, 250.0, 258.5}

func TestFilterOutliersRecursive(t *testing.T) {
	table := columnTable(t, outlierInput)

	// Factor 1.2 strips the two extreme values over several rounds
	out, err := FilterOutliers(table, "x", SDPredicate(1.2), true)
	if err != nil {
		t.Fatalf("FilterOutliers failed: %v", err)
	}
	if out.Len() != 3 {
		t.Fatalf("expected 3 survivors, got %d", out.Len())
	}
	vals := sortedColumn(t, out, "x")
	if vals[0] != 250.0 || vals[2] != 270.5 {
		t.Errorf("unexpected survivors: %v", vals)
	}

	// Factor 2 widens the window enough that nothing is removed
	out, err = FilterOutliers(table, "x", SDPredicate(2), true)
	if err != nil {
		t.Fatalf("FilterOutliers failed: %v", err)
	}
	if out.Len() != len(outlierInput) {
		t.Errorf("expected all %d rows retained, got %d", len(outlierInput), out.Len())
	}
	vals = sortedColumn(t, out, "x")
	if vals[0] != 250.0 || vals[len(vals)-1] != 119425.0 {
		t.Errorf("unexpected values: %v", vals)
	}
}

func TestFilterOutliersConstantPredicate(t *testing.T) {
	table := columnTable(t, outlierInput)

	keepSmall := func(values []float64) ([]bool, error) {
		mask := make([]bool, len(values))
		for i, v := range values {
			mask[i] = v <= 250.0
		}
		return mask, nil
	}

	out, err := FilterOutliers(table, "x", keepSmall, true)
	if err != nil {
		t.Fatalf("FilterOutliers failed: %v", err)
	}
	if out.Len() != 1 {
		t.Fatalf("expected 1 survivor, got %d", out.Len())
	}
	if vals := sortedColumn(t, out, "x"); vals[0] != 250.0 {
		t.Errorf("expected 250.0, got %v", vals[0])
	}
}

func TestFilterOutliersNonRecursive(t *testing.T) {
	table := columnTable(t, outlierInput)

	// One pass at factor 1.2 removes only the most extreme value
	out, err := FilterOutliers(table, "x", SDPredicate(1.2), false)
	if err != nil {
		t.Fatalf("FilterOutliers failed: %v", err)
	}
	if out.Len() != 4 {
		t.Errorf("expected 4 rows after a single pass, got %d", out.Len())
	}
}

func TestFilterOutliersFixedPoint(t *testing.T) {
	table := columnTable(t, outlierInput)

	out, err := FilterOutliers(table, "x", SDPredicate(1.2), true)
	if err != nil {
		t.Fatalf("FilterOutliers failed: %v", err)
	}
	// Re-applying the filter to the converged output changes nothing
	again, err := FilterOutliers(out, "x", SDPredicate(1.2), true)
	if err != nil {
		t.Fatalf("FilterOutliers failed: %v", err)
	}
	if again.Len() != out.Len() {
		t.Errorf("fixed point violated: %d -> %d rows", out.Len(), again.Len())
	}
}

func TestFilterOutliersMonotonicShrinkage(t *testing.T) {
	table := columnTable(t, outlierInput)

	var sizes []int
	pred := func(values []float64) ([]bool, error) {
		sizes = append(sizes, len(values))
		return SDOutlierMask(values, 1.2)
	}
	if _, err := FilterOutliers(table, "x", pred, true); err != nil {
		t.Fatalf("FilterOutliers failed: %v", err)
	}
	for i := 1; i < len(sizes); i++ {
		if sizes[i] > sizes[i-1] {
			t.Errorf("round %d grew: %v", i, sizes)
		}
	}
}

func TestSDOutlierMaskZeroDeviation(t *testing.T) {
	// Identical values: sd = 0, the open window rejects everything
	mask, err := SDOutlierMask([]float64{100, 100, 100}, 2.5)
	if err != nil {
		t.Fatalf("SDOutlierMask failed: %v", err)
	}
	for i, keep := range mask {
		if keep {
			t.Errorf("value %d survived a zero-width window", i)
		}
	}

	table := columnTable(t, []float64{100, 100, 100})
	out, err := FilterOutliers(table, "x", SDPredicate(2.5), true)
	if err != nil {
		t.Fatalf("FilterOutliers failed: %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("expected empty result, got %d rows", out.Len())
	}
}

func TestSDOutlierMaskSingleValue(t *testing.T) {
	// One value has no sample deviation; the NaN window keeps nothing
	mask, err := SDOutlierMask([]float64{250.0}, 2.5)
	if err != nil {
		t.Fatalf("SDOutlierMask failed: %v", err)
	}
	if mask[0] {
		t.Error("single value should not survive")
	}
}

func TestSDOutlierMaskInvalidFactor(t *testing.T) {
	for _, factor := range []float64{0, -1.5} {
		if _, err := SDOutlierMask([]float64{1, 2, 3}, factor); !errors.Is(err, core.ErrInvalidFactor) {
			t.Errorf("factor %v: expected ErrInvalidFactor, got %v", factor, err)
		}
	}
}

func TestSDOutlierMaskBounds(t *testing.T) {
	// {0, 10, 20}: mean 10, sample SD exactly 10. Factor 1 puts the window
	// at (0, 20); the boundary values are excluded, not retained.
	mask, err := SDOutlierMask([]float64{0, 10, 20}, 1)
	if err != nil {
		t.Fatalf("SDOutlierMask failed: %v", err)
	}
	want := []bool{false, true, false}
	for i := range mask {
		if mask[i] != want[i] {
			t.Errorf("mask[%d] = %v, want %v", i, mask[i], want[i])
		}
	}
}

func TestFilterOutliersEmptyTable(t *testing.T) {
	table := frame.New("x")
	out, err := FilterOutliers(table, "x", SDPredicate(2.5), true)
	if err != nil {
		t.Fatalf("FilterOutliers failed on empty table: %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("expected empty result, got %d rows", out.Len())
	}
}

func TestFilterOutliersPredicateErrorPropagates(t *testing.T) {
	table := columnTable(t, outlierInput)
	boom := errors.New("predicate exploded")
	pred := func(values []float64) ([]bool, error) { return nil, boom }
	if _, err := FilterOutliers(table, "x", pred, true); !errors.Is(err, boom) {
		t.Errorf("expected predicate error, got %v", err)
	}
}
