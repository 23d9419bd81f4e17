package table

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/bits-and-blooms/bitset"
)

// ErrMismatch is the sentinel wrapped by every MismatchError.
var ErrMismatch = errors.New("dimension mismatch")

// maxReportedTuples caps how many offending index tuples a MismatchError
// spells out.
const maxReportedTuples = 5

// MismatchError reports index tuples present on one side of a join but
// absent on the other, with no drop/keep strategy to resolve them.
type MismatchError struct {
	Op       string   // operation that triggered the join
	Dims     []string // dimension columns involved
	Side     string   // "left" or "right"
	Tuples   [][]any  // sample offending tuples (capped)
	Total    int      // total count of offending tuples
	Disjoint bool     // the operands share no dimension columns
	Absent   bool     // a kept-but-unmatched cell was used as a numeric operand
}

func (e *MismatchError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Op)
	sb.WriteString(": dimension mismatch")
	if e.Disjoint {
		fmt.Fprintf(&sb, ": operands share no dimension columns (%v); request an explicit cross to combine them", e.Dims)
		return sb.String()
	}
	if e.Absent {
		fmt.Fprintf(&sb, ": %s operand has no value to pair with", e.Side)
	} else {
		fmt.Fprintf(&sb, ": %d tuple(s) of the %s operand have no match", e.Total, e.Side)
	}
	fmt.Fprintf(&sb, " over %v:", e.Dims)
	for i, tup := range e.Tuples {
		if i > 0 {
			sb.WriteByte(',')
		}
		fmt.Fprintf(&sb, " %v", tup)
	}
	if e.Total > len(e.Tuples) {
		sb.WriteString(" ...")
	}
	if e.Absent {
		sb.WriteString("; use a drop strategy to resolve")
	} else {
		sb.WriteString("; use a drop or keep strategy to resolve")
	}
	return sb.String()
}

func (e *MismatchError) Unwrap() error { return ErrMismatch }

// exclusiveIndex groups the distinct exclusive-dimension tuples of t by
// shared-dimension key, preserving row order.
func exclusiveIndex(t *Table, sharedCols, exCols []int) map[string][][]any {
	out := make(map[string][][]any)
	seen := make(map[string]struct{}, len(t.rows))
	for _, r := range t.rows {
		k := subKey(r.Index, sharedCols)
		full := k + "|" + subKey(r.Index, exCols)
		if _, ok := seen[full]; ok {
			continue
		}
		seen[full] = struct{}{}
		ex := make([]any, len(exCols))
		for i, c := range exCols {
			ex[i] = r.Index[c]
		}
		out[k] = append(out[k], ex)
	}
	return out
}

// Align rewrites both operands onto the union of their dimension columns,
// joining on the shared ones: each row is replicated across the other side's
// exclusive-dimension tuples carrying the same shared key. Rows whose shared
// key is absent from the other side are resolved by that operand's strategy.
//
// The returned tables have identical dimension columns
// (shared, then a's exclusive, then b's exclusive).
//
// Operands with disjoint non-empty dimension sets only combine when crossOK
// is set; an unshaped operand always broadcasts.
func Align(op string, a, b *Table, pa, pb Unmatched, crossOK bool) (*Table, *Table, error) {
	shared := a.sharedDims(b)
	aEx := a.exclusiveDims(b)
	bEx := b.exclusiveDims(a)
	if len(shared) == 0 && a.Shaped() && b.Shaped() && !crossOK {
		return nil, nil, &MismatchError{Op: op, Dims: append(slices.Clone(aEx), bEx...), Disjoint: true}
	}

	outDims := make([]string, 0, len(shared)+len(aEx)+len(bEx))
	outDims = append(outDims, shared...)
	outDims = append(outDims, aEx...)
	outDims = append(outDims, bEx...)

	aKeys := exclusiveIndex(a, a.columns(shared), a.columns(aEx))
	bKeys := exclusiveIndex(b, b.columns(shared), b.columns(bEx))

	left, err := broadcast(op, "left", a, shared, aEx, bKeys, len(bEx), false, pa, outDims)
	if err != nil {
		return nil, nil, err
	}
	right, err := broadcast(op, "right", b, shared, bEx, aKeys, len(aEx), true, pb, outDims)
	if err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

// broadcast replicates t's rows across the other side's exclusive tuples.
// When exFirst is false the side's own exclusive values precede the borrowed
// ones in the output index; when true they follow (keeping both outputs on
// the same column order).
func broadcast(op, side string, t *Table, shared, ex []string, otherKeys map[string][][]any, otherExLen int, exFirst bool, policy Unmatched, outDims []string) (*Table, error) {
	sharedCols := t.columns(shared)
	exCols := t.columns(ex)
	out := New(outDims...)
	unmatched := bitset.New(uint(len(t.rows)))

	emit := func(r Row, other []any) {
		idx := make([]any, 0, len(outDims))
		for _, c := range sharedCols {
			idx = append(idx, r.Index[c])
		}
		if exFirst {
			idx = append(idx, other...)
		}
		for _, c := range exCols {
			idx = append(idx, r.Index[c])
		}
		if !exFirst {
			idx = append(idx, other...)
		}
		out.Append(Row{Index: idx, Coeff: r.Coeff, VarID: r.VarID, QuadID: r.QuadID})
	}

	for i, r := range t.rows {
		tuples, ok := otherKeys[subKey(r.Index, sharedCols)]
		if !ok {
			unmatched.Set(uint(i))
			continue
		}
		for _, other := range tuples {
			emit(r, other)
		}
	}

	if unmatched.Any() {
		switch policy {
		case UnmatchedDrop:
			// dropped
		case UnmatchedKeep:
			// a kept row cannot be invented for the other side's exclusive
			// dimensions; that is an absent operand, not a policy gap
			if otherExLen > 0 {
				return nil, mismatch(op, side, t, unmatched, true)
			}
			for i, ok := unmatched.NextSet(0); ok; i, ok = unmatched.NextSet(i + 1) {
				emit(t.rows[i], nil)
			}
		default:
			return nil, mismatch(op, side, t, unmatched, false)
		}
	}
	return out, nil
}

// mismatch builds a MismatchError from the unmatched rows of t.
func mismatch(op, side string, t *Table, unmatched *bitset.BitSet, absent bool) error {
	e := &MismatchError{Op: op, Dims: slices.Clone(t.dims), Side: side, Absent: absent}
	seen := make(map[string]struct{})
	for i, ok := unmatched.NextSet(0); ok; i, ok = unmatched.NextSet(i + 1) {
		k := indexKey(t.rows[i].Index)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		e.Total++
		if len(e.Tuples) < maxReportedTuples {
			e.Tuples = append(e.Tuples, slices.Clone(t.rows[i].Index))
		}
	}
	return e
}

// Pairs joins a and b on their shared dimension columns and calls fn for
// every pair of rows whose index tuples agree on them, passing the combined
// index tuple over the union of dimensions. It returns the union dimensions.
//
// Unlike Align, a kept-but-unmatched row is an error here: pairing has no
// missing-side value to offer, and absent is not a valid numeric operand.
func Pairs(op string, a, b *Table, pa, pb Unmatched, crossOK bool, fn func(index []any, ra, rb Row) error) ([]string, error) {
	shared := a.sharedDims(b)
	aEx := a.exclusiveDims(b)
	bEx := b.exclusiveDims(a)
	if len(shared) == 0 && a.Shaped() && b.Shaped() && !crossOK {
		return nil, &MismatchError{Op: op, Dims: append(slices.Clone(aEx), bEx...), Disjoint: true}
	}

	outDims := make([]string, 0, len(shared)+len(aEx)+len(bEx))
	outDims = append(outDims, shared...)
	outDims = append(outDims, aEx...)
	outDims = append(outDims, bEx...)

	aShared := a.columns(shared)
	aExCols := a.columns(aEx)
	bShared := b.columns(shared)
	bExCols := b.columns(bEx)

	// group b's rows by shared key, row order preserved
	bByKey := make(map[string][]int, len(b.rows))
	for i, r := range b.rows {
		k := subKey(r.Index, bShared)
		bByKey[k] = append(bByKey[k], i)
	}

	aUnmatched := bitset.New(uint(len(a.rows)))
	bMatched := bitset.New(uint(len(b.rows)))

	for i, ra := range a.rows {
		js, ok := bByKey[subKey(ra.Index, aShared)]
		if !ok {
			aUnmatched.Set(uint(i))
			continue
		}
		for _, j := range js {
			bMatched.Set(uint(j))
			rb := b.rows[j]
			idx := make([]any, 0, len(outDims))
			for _, c := range aShared {
				idx = append(idx, ra.Index[c])
			}
			for _, c := range aExCols {
				idx = append(idx, ra.Index[c])
			}
			for _, c := range bExCols {
				idx = append(idx, rb.Index[c])
			}
			if err := fn(idx, ra, rb); err != nil {
				return nil, err
			}
		}
	}

	if aUnmatched.Any() && pa != UnmatchedDrop {
		return nil, mismatch(op, "left", a, aUnmatched, pa == UnmatchedKeep)
	}
	bUnmatched := bMatched.FlipRange(0, uint(len(b.rows)))
	if bUnmatched.Any() && pb != UnmatchedDrop {
		return nil, mismatch(op, "right", b, bUnmatched, pb == UnmatchedKeep)
	}
	return outDims, nil
}
