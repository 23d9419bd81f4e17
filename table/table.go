// Package table implements the index-tuple tables underlying pyoframe
// expressions: ordered relations keyed by named dimension columns, carrying
// (coefficient, variable id, quadratic variable id) payloads.
//
// A table is canonical when no two rows share the same (index tuple,
// variable id, quadratic variable id); Aggregate folds duplicates by summing
// coefficients. Row order is always preserved so that identifier allocation
// downstream is deterministic.
package table

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// ConstID is the reserved identifier of the constant pseudo-variable. Rows
// with VarID == ConstID carry the constant term of their index tuple; a
// QuadID == ConstID marks a row as (at most) linear.
const ConstID uint32 = 0

// Row is one term: an index tuple plus its payload.
type Row struct {
	Index  []any
	Coeff  float64
	VarID  uint32
	QuadID uint32 // invariant: QuadID <= VarID, ConstID when the row is linear
}

// Table is an ordered set of rows over named dimension columns.
type Table struct {
	dims []string
	rows []Row
}

// New returns an empty table over the given dimension columns. An unshaped
// table (no dimensions) holds scalar terms.
func New(dims ...string) *Table {
	return &Table{dims: slices.Clone(dims)}
}

// FromRows builds a table over dims from rows. It panics if a row's index
// arity does not match, as that is an internal invariant break.
func FromRows(dims []string, rows []Row) *Table {
	t := New(dims...)
	for _, r := range rows {
		t.Append(r)
	}
	return t
}

// Append adds a row. Panics on index arity mismatch.
func (t *Table) Append(r Row) {
	if len(r.Index) != len(t.dims) {
		panic(fmt.Sprintf("table: row arity %d does not match dimensions %v", len(r.Index), t.dims))
	}
	t.rows = append(t.rows, r)
}

// Dims returns the ordered dimension column names.
func (t *Table) Dims() []string {
	return slices.Clone(t.dims)
}

// Rows returns the underlying rows. Callers must not mutate them.
func (t *Table) Rows() []Row {
	return t.rows
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Shaped reports whether the table has dimension columns.
func (t *Table) Shaped() bool { return len(t.dims) > 0 }

// HasDim reports whether name is one of the dimension columns.
func (t *Table) HasDim(name string) bool {
	return slices.Contains(t.dims, name)
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	out := &Table{dims: slices.Clone(t.dims), rows: make([]Row, len(t.rows))}
	for i, r := range t.rows {
		out.rows[i] = Row{Index: slices.Clone(r.Index), Coeff: r.Coeff, VarID: r.VarID, QuadID: r.QuadID}
	}
	return out
}

// Scale returns a copy with every coefficient multiplied by f. A zero f
// yields an all-zero table of the same shape, not an empty one.
func (t *Table) Scale(f float64) *Table {
	out := t.Clone()
	for i := range out.rows {
		out.rows[i].Coeff *= f
	}
	return out
}

// Quadratic reports whether any row carries a quadratic term.
func (t *Table) Quadratic() bool {
	for _, r := range t.rows {
		if r.QuadID != ConstID {
			return true
		}
	}
	return false
}

// Degree returns the polynomial degree of the table: 0 if it holds only
// constant terms, 1 if it holds linear terms, 2 if any quadratic.
func (t *Table) Degree() int {
	d := 0
	for _, r := range t.rows {
		switch {
		case r.QuadID != ConstID:
			return 2
		case r.VarID != ConstID:
			d = 1
		}
	}
	return d
}

// Aggregate returns a canonical table: coefficients summed over duplicate
// (index, VarID, QuadID) groups, first-occurrence order preserved.
func (t *Table) Aggregate() *Table {
	out := &Table{dims: slices.Clone(t.dims), rows: make([]Row, 0, len(t.rows))}
	seen := make(map[string]int, len(t.rows))
	var sb strings.Builder
	for _, r := range t.rows {
		sb.Reset()
		writeKey(&sb, r.Index)
		sb.WriteByte('|')
		sb.WriteString(strconv.FormatUint(uint64(r.VarID), 10))
		sb.WriteByte(',')
		sb.WriteString(strconv.FormatUint(uint64(r.QuadID), 10))
		k := sb.String()
		if i, ok := seen[k]; ok {
			out.rows[i].Coeff += r.Coeff
			continue
		}
		seen[k] = len(out.rows)
		out.rows = append(out.rows, Row{Index: slices.Clone(r.Index), Coeff: r.Coeff, VarID: r.VarID, QuadID: r.QuadID})
	}
	return out
}

// Rename returns a copy with dimension columns renamed according to mapping.
// Renaming onto an existing column is an error.
func (t *Table) Rename(mapping map[string]string) (*Table, error) {
	out := t.Clone()
	for i, d := range out.dims {
		if to, ok := mapping[d]; ok {
			if slices.Contains(out.dims, to) {
				return nil, fmt.Errorf("table: cannot rename %q to %q: column already exists", d, to)
			}
			out.dims[i] = to
		}
	}
	return out, nil
}

// Project returns a copy keeping only the given dimension columns, in the
// order they appear in the table. Payloads are untouched; the result is
// generally non-canonical until aggregated.
func (t *Table) Project(keep ...string) (*Table, error) {
	var dims []string
	var cols []int
	for i, d := range t.dims {
		if slices.Contains(keep, d) {
			dims = append(dims, d)
			cols = append(cols, i)
		}
	}
	if len(dims) != len(keep) {
		return nil, fmt.Errorf("table: projection columns %v not all present in %v", keep, t.dims)
	}
	out := &Table{dims: dims, rows: make([]Row, len(t.rows))}
	for i, r := range t.rows {
		idx := make([]any, len(cols))
		for j, c := range cols {
			idx[j] = r.Index[c]
		}
		out.rows[i] = Row{Index: idx, Coeff: r.Coeff, VarID: r.VarID, QuadID: r.QuadID}
	}
	return out, nil
}

// DistinctIndexes returns the distinct index tuples in row order.
func (t *Table) DistinctIndexes() [][]any {
	var out [][]any
	seen := make(map[string]struct{}, len(t.rows))
	for _, r := range t.rows {
		k := indexKey(r.Index)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, slices.Clone(r.Index))
	}
	return out
}

// sharedDims returns the dimension names present in both tables, in t's order.
func (t *Table) sharedDims(o *Table) []string {
	var out []string
	for _, d := range t.dims {
		if o.HasDim(d) {
			out = append(out, d)
		}
	}
	return out
}

// exclusiveDims returns t's dimension names absent from o, in t's order.
func (t *Table) exclusiveDims(o *Table) []string {
	var out []string
	for _, d := range t.dims {
		if !o.HasDim(d) {
			out = append(out, d)
		}
	}
	return out
}

// columns returns the positions of the named dimensions within t.dims.
func (t *Table) columns(names []string) []int {
	cols := make([]int, len(names))
	for i, n := range names {
		cols[i] = slices.Index(t.dims, n)
	}
	return cols
}

// Key encodes an index tuple into a comparable string key. Tuples are equal
// exactly when their keys are.
func Key(vals []any) string {
	return indexKey(vals)
}

// indexKey encodes an index tuple into a comparable string key.
func indexKey(vals []any) string {
	var sb strings.Builder
	writeKey(&sb, vals)
	return sb.String()
}

func writeKey(sb *strings.Builder, vals []any) {
	for _, v := range vals {
		switch x := v.(type) {
		case string:
			sb.WriteByte('s')
			sb.WriteString(x)
		case int:
			sb.WriteByte('i')
			sb.WriteString(strconv.Itoa(x))
		case int64:
			sb.WriteByte('i')
			sb.WriteString(strconv.FormatInt(x, 10))
		case uint32:
			sb.WriteByte('i')
			sb.WriteString(strconv.FormatUint(uint64(x), 10))
		default:
			sb.WriteByte('v')
			fmt.Fprintf(sb, "%v", x)
		}
		sb.WriteByte(0x1f)
	}
}

// subKey encodes the values of the given columns of an index tuple.
func subKey(index []any, cols []int) string {
	vals := make([]any, len(cols))
	for i, c := range cols {
		vals[i] = index[c]
	}
	return indexKey(vals)
}
