package table

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func overI(vals ...int) *Table {
	t := New("i")
	for n, v := range vals {
		t.Append(Row{Index: []any{v}, Coeff: 1, VarID: uint32(n + 1)})
	}
	return t
}

func indexes(t *Table) []any {
	var out []any
	for _, tup := range t.DistinctIndexes() {
		out = append(out, tup[0])
	}
	return out
}

func TestAlignDropPolicy(t *testing.T) {
	assert := require.New(t)

	a := overI(1, 2, 3)
	b := overI(2, 3, 4)

	left, right, err := Align("add", a, b, UnmatchedDrop, UnmatchedDrop, false)
	assert.NoError(err)
	assert.Equal([]any{2, 3}, indexes(left))
	assert.Equal([]any{2, 3}, indexes(right))
}

func TestAlignKeepPolicy(t *testing.T) {
	assert := require.New(t)

	a := overI(1, 2, 3)
	b := overI(2, 3, 4)

	left, right, err := Align("add", a, b, UnmatchedKeep, UnmatchedKeep, false)
	assert.NoError(err)
	assert.Equal([]any{2, 3, 1}, indexes(left))
	assert.Equal([]any{2, 3, 4}, indexes(right))
}

func TestAlignUnresolvedMismatchFails(t *testing.T) {
	assert := require.New(t)

	a := overI(1, 2, 3)
	b := overI(2, 3, 4)

	_, _, err := Align("add", a, b, UnmatchedError, UnmatchedError, false)
	assert.Error(err)
	assert.ErrorIs(err, ErrMismatch)

	var mismatch *MismatchError
	assert.ErrorAs(err, &mismatch)
	assert.Equal("add", mismatch.Op)
	assert.Equal([][]any{{1}}, mismatch.Tuples)
	assert.Equal(1, mismatch.Total)
}

func TestAlignMixedPolicies(t *testing.T) {
	assert := require.New(t)

	a := overI(1, 2, 3)
	b := overI(2, 3, 4)

	// drop a's extra tuple, fail on b's
	_, _, err := Align("add", a, b, UnmatchedDrop, UnmatchedError, false)
	assert.ErrorIs(err, ErrMismatch)

	left, right, err := Align("add", a, b, UnmatchedDrop, UnmatchedKeep, false)
	assert.NoError(err)
	assert.Equal([]any{2, 3}, indexes(left))
	assert.Equal([]any{2, 3, 4}, indexes(right))
}

func TestAlignBroadcastsExclusiveDims(t *testing.T) {
	assert := require.New(t)

	a := New("i")
	a.Append(Row{Index: []any{"x"}, Coeff: 1, VarID: 1})
	a.Append(Row{Index: []any{"y"}, Coeff: 1, VarID: 2})

	b := New("i", "j")
	b.Append(Row{Index: []any{"x", 1}, Coeff: 3, VarID: 0})
	b.Append(Row{Index: []any{"x", 2}, Coeff: 4, VarID: 0})
	b.Append(Row{Index: []any{"y", 1}, Coeff: 5, VarID: 0})

	left, right, err := Align("add", a, b, UnmatchedError, UnmatchedError, false)
	assert.NoError(err)
	assert.Equal([]string{"i", "j"}, left.Dims())
	assert.Equal([]string{"i", "j"}, right.Dims())

	// a's x row replicated across j=1,2; y row only across j=1
	assert.Equal(3, left.Len())
	assert.Equal([]any{"x", 1}, left.Rows()[0].Index)
	assert.Equal([]any{"x", 2}, left.Rows()[1].Index)
	assert.Equal([]any{"y", 1}, left.Rows()[2].Index)
	assert.Equal(3, right.Len())
}

func TestAlignScalarBroadcast(t *testing.T) {
	assert := require.New(t)

	scalar := New()
	scalar.Append(Row{Index: []any{}, Coeff: 10, VarID: 0})

	shaped := overI(1, 2, 3)

	left, right, err := Align("add", scalar, shaped, UnmatchedError, UnmatchedError, false)
	assert.NoError(err)
	assert.Equal(3, left.Len())
	assert.Equal(3, right.Len())
	for _, r := range left.Rows() {
		assert.Equal(10.0, r.Coeff)
	}
}

func TestAlignDisjointRequiresCross(t *testing.T) {
	assert := require.New(t)

	a := New("i")
	a.Append(Row{Index: []any{1}, Coeff: 1, VarID: 1})
	b := New("j")
	b.Append(Row{Index: []any{"x"}, Coeff: 2, VarID: 0})

	_, _, err := Align("add", a, b, UnmatchedError, UnmatchedError, false)
	var mismatch *MismatchError
	assert.ErrorAs(err, &mismatch)
	assert.True(mismatch.Disjoint)

	left, right, err := Align("add", a, b, UnmatchedError, UnmatchedError, true)
	assert.NoError(err)
	assert.Equal([]string{"i", "j"}, left.Dims())
	assert.Equal(1, left.Len())
	assert.Equal(1, right.Len())
	assert.Equal([]any{1, "x"}, left.Rows()[0].Index)
	assert.Equal([]any{1, "x"}, right.Rows()[0].Index)
}

func TestAlignKeepCannotBroadcast(t *testing.T) {
	assert := require.New(t)

	a := New("i")
	a.Append(Row{Index: []any{"x"}, Coeff: 1, VarID: 1})
	a.Append(Row{Index: []any{"z"}, Coeff: 1, VarID: 2}) // no match in b

	b := New("i", "j")
	b.Append(Row{Index: []any{"x", 1}, Coeff: 3, VarID: 0})

	// keeping a's z row would need a j value that does not exist
	_, _, err := Align("add", a, b, UnmatchedKeep, UnmatchedDrop, false)
	assert.ErrorIs(err, ErrMismatch)

	var mismatch *MismatchError
	assert.ErrorAs(err, &mismatch)
	assert.True(mismatch.Absent)
	assert.NotContains(mismatch.Error(), "keep strategy")
}

func TestPairsJoinsPerTuple(t *testing.T) {
	assert := require.New(t)

	a := overI(1, 2)
	b := New("i")
	b.Append(Row{Index: []any{1}, Coeff: 10, VarID: 0})
	b.Append(Row{Index: []any{2}, Coeff: 20, VarID: 0})

	type pair struct {
		idx    any
		ca, cb float64
	}
	var got []pair
	dims, err := Pairs("mul", a, b, UnmatchedError, UnmatchedError, false,
		func(index []any, ra, rb Row) error {
			got = append(got, pair{idx: index[0], ca: ra.Coeff, cb: rb.Coeff})
			return nil
		})
	assert.NoError(err)
	assert.Equal([]string{"i"}, dims)
	assert.Equal([]pair{{1, 1, 10}, {2, 1, 20}}, got)
}

func TestPairsUnmatchedKeepIsAbsentError(t *testing.T) {
	assert := require.New(t)

	a := overI(1, 2, 3)
	b := New("i")
	b.Append(Row{Index: []any{1}, Coeff: 10, VarID: 0})

	_, err := Pairs("mul", a, b, UnmatchedKeep, UnmatchedDrop, false,
		func([]any, Row, Row) error { return nil })
	var mismatch *MismatchError
	assert.ErrorAs(err, &mismatch)
	assert.True(mismatch.Absent)

	// dropping instead restricts the product to the matched tuples
	n := 0
	_, err = Pairs("mul", a, b, UnmatchedDrop, UnmatchedDrop, false,
		func([]any, Row, Row) error { n++; return nil })
	assert.NoError(err)
	assert.Equal(1, n)
}

func TestPairsCallbackErrorPropagates(t *testing.T) {
	assert := require.New(t)

	boom := errors.New("boom")
	a := overI(1)
	b := overI(1)
	_, err := Pairs("mul", a, b, UnmatchedError, UnmatchedError, false,
		func([]any, Row, Row) error { return boom })
	assert.ErrorIs(err, boom)
}
