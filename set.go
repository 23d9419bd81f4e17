package pyoframe

import (
	"fmt"
	"slices"
	"strings"
)

// Set is an ordered collection of distinct index tuples over named
// dimensions. Sets define the shape of variables and parameter tables.
type Set struct {
	dims   []string
	tuples [][]any
}

// NewSet builds a one-dimensional set from values. Duplicates are an error.
func NewSet(dim string, values ...any) (*Set, error) {
	tuples := make([][]any, len(values))
	for i, v := range values {
		tuples[i] = []any{v}
	}
	return NewSetTuples([]string{dim}, tuples)
}

// NewSetTuples builds a set over dims from explicit tuples.
func NewSetTuples(dims []string, tuples [][]any) (*Set, error) {
	for i, d := range dims {
		if d == "" {
			return nil, fmt.Errorf("set: empty dimension name")
		}
		if slices.Index(dims, d) != i {
			return nil, fmt.Errorf("set: duplicate dimension %q", d)
		}
	}
	s := &Set{dims: slices.Clone(dims)}
	seen := make(map[string]struct{}, len(tuples))
	for _, tup := range tuples {
		if len(tup) != len(dims) {
			return nil, fmt.Errorf("set: tuple %v does not match dimensions %v", tup, dims)
		}
		var kb strings.Builder
		for _, v := range tup {
			fmt.Fprintf(&kb, "%v\x1f", v)
		}
		k := kb.String()
		if _, dup := seen[k]; dup {
			return nil, fmt.Errorf("set: duplicate tuple %v", tup)
		}
		seen[k] = struct{}{}
		s.tuples = append(s.tuples, slices.Clone(tup))
	}
	return s, nil
}

// MustSet is NewSet for static data; it panics on error.
func MustSet(dim string, values ...any) *Set {
	s, err := NewSet(dim, values...)
	if err != nil {
		panic(err)
	}
	return s
}

// Cross returns the cartesian product of two sets over disjoint dimensions.
func (s *Set) Cross(o *Set) (*Set, error) {
	for _, d := range o.dims {
		if slices.Contains(s.dims, d) {
			return nil, fmt.Errorf("set: cannot cross, dimension %q on both sides", d)
		}
	}
	out := &Set{dims: append(slices.Clone(s.dims), o.dims...)}
	out.tuples = make([][]any, 0, len(s.tuples)*len(o.tuples))
	for _, a := range s.tuples {
		for _, b := range o.tuples {
			tup := make([]any, 0, len(a)+len(b))
			tup = append(tup, a...)
			tup = append(tup, b...)
			out.tuples = append(out.tuples, tup)
		}
	}
	return out, nil
}

// Dims returns the ordered dimension names.
func (s *Set) Dims() []string { return slices.Clone(s.dims) }

// Len returns the number of tuples.
func (s *Set) Len() int { return len(s.tuples) }

// Tuples returns the tuples in order. Callers must not mutate them.
func (s *Set) Tuples() [][]any { return s.tuples }

func (s *Set) String() string {
	cfg := GetConfig()
	var sb strings.Builder
	fmt.Fprintf(&sb, "<Set %v size=%d {", s.dims, len(s.tuples))
	limit := cfg.PrintMaxSetElements
	for i, tup := range s.tuples {
		if limit > 0 && i >= limit {
			sb.WriteString(" ...")
			break
		}
		if i > 0 {
			sb.WriteByte(',')
		}
		fmt.Fprintf(&sb, " %v", tup)
	}
	sb.WriteString(" }>")
	return sb.String()
}
