// Package frame provides the minimal column-oriented table the scoring
// pipeline operates on. Tables are immutable at stage boundaries: every
// transforming operation returns a new Table and never touches its input.
package frame

import (
	"fmt"
	"sort"

	"gopvt/domain/core"
)

// Table holds equal-length named columns. Cell values are kept as opaque
// comparable values; only columns fed into numeric operations need to hold
// numbers (see Floats).
type Table struct {
	cols []string
	data map[string][]any
}

// New creates an empty table with the given column order.
func New(cols ...string) *Table {
	data := make(map[string][]any, len(cols))
	for _, c := range cols {
		data[c] = nil
	}
	return &Table{cols: append([]string(nil), cols...), data: data}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if len(t.cols) == 0 {
		return 0
	}
	return len(t.data[t.cols[0]])
}

// Columns returns the column names in declaration order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.cols...)
}

// HasColumn reports whether the table has a column with the given name.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.data[name]
	return ok
}

// AppendRow appends one row. The number of values must match the number of
// columns; values used as grouping keys must be comparable.
func (t *Table) AppendRow(vals ...any) error {
	if len(vals) != len(t.cols) {
		return fmt.Errorf("%w: row has %d values, table has %d columns",
			core.ErrLengthMismatch, len(vals), len(t.cols))
	}
	for i, c := range t.cols {
		t.data[c] = append(t.data[c], vals[i])
	}
	return nil
}

// Column returns the raw values of a column.
func (t *Table) Column(name string) ([]any, error) {
	vals, ok := t.data[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrColumnNotFound, name)
	}
	return vals, nil
}

// Floats returns a column converted to float64. Integer cells are widened;
// anything else is a schema error naming the column and row.
func (t *Table) Floats(name string) ([]float64, error) {
	vals, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(vals))
	for i, v := range vals {
		f, ok := asFloat(v)
		if !ok {
			return nil, fmt.Errorf("%w: column %q row %d holds %T (%v)",
				core.ErrNonNumeric, name, i, v, v)
		}
		out[i] = f
	}
	return out, nil
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	}
	return 0, false
}

// Row returns a single row as a column-name keyed map.
func (t *Table) Row(i int) map[string]any {
	row := make(map[string]any, len(t.cols))
	for _, c := range t.cols {
		row[c] = t.data[c][i]
	}
	return row
}

// Select returns a new table holding the rows where mask is true. The mask
// must cover every row.
func (t *Table) Select(mask []bool) (*Table, error) {
	if len(mask) != t.Len() {
		return nil, fmt.Errorf("%w: mask has %d entries, table has %d rows",
			core.ErrLengthMismatch, len(mask), t.Len())
	}
	out := New(t.cols...)
	for _, c := range t.cols {
		src := t.data[c]
		for i, keep := range mask {
			if keep {
				out.data[c] = append(out.data[c], src[i])
			}
		}
	}
	return out, nil
}

// WithColumn returns a new table with the named column set to vals,
// appending it when absent and replacing it when present.
func (t *Table) WithColumn(name string, vals []any) (*Table, error) {
	if len(vals) != t.Len() {
		return nil, fmt.Errorf("%w: column %q has %d values, table has %d rows",
			core.ErrLengthMismatch, name, len(vals), t.Len())
	}
	cols := t.cols
	if !t.HasColumn(name) {
		cols = append(append([]string(nil), t.cols...), name)
	}
	out := New(cols...)
	for _, c := range t.cols {
		out.data[c] = append([]any(nil), t.data[c]...)
	}
	out.data[name] = append([]any(nil), vals...)
	return out, nil
}

// Group is one group-by bucket: the shared key and its rows.
type Group struct {
	Key  any
	Rows *Table
}

// GroupBy partitions the table by the values of one column. Groups come
// back in sorted key order so repeated runs are deterministic; callers
// must not rely on any particular order beyond that.
func (t *Table) GroupBy(name string) ([]Group, error) {
	keys, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	buckets := make(map[any]*Table)
	var order []any
	for i, k := range keys {
		g, ok := buckets[k]
		if !ok {
			g = New(t.cols...)
			buckets[k] = g
			order = append(order, k)
		}
		for _, c := range t.cols {
			g.data[c] = append(g.data[c], t.data[c][i])
		}
	}
	sort.Slice(order, func(i, j int) bool {
		return fmt.Sprint(order[i]) < fmt.Sprint(order[j])
	})
	groups := make([]Group, len(order))
	for i, k := range order {
		groups[i] = Group{Key: k, Rows: buckets[k]}
	}
	return groups, nil
}

// Concat stacks tables with identical column sets into one table. At least
// one table is required to establish the schema.
func Concat(tables ...*Table) (*Table, error) {
	if len(tables) == 0 {
		return nil, fmt.Errorf("concat requires at least one table")
	}
	out := New(tables[0].cols...)
	for _, t := range tables {
		if len(t.cols) != len(out.cols) {
			return nil, fmt.Errorf("%w: concat over tables with %d and %d columns",
				core.ErrLengthMismatch, len(out.cols), len(t.cols))
		}
		for _, c := range out.cols {
			src, ok := t.data[c]
			if !ok {
				return nil, fmt.Errorf("%w: %q", core.ErrColumnNotFound, c)
			}
			out.data[c] = append(out.data[c], src...)
		}
	}
	return out, nil
}
