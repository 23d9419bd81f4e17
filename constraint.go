package pyoframe

import (
	"fmt"
	"slices"

	"github.com/eduardosalaz/pyoframe/solver"
	"github.com/eduardosalaz/pyoframe/table"
)

// Constraint is a named, shaped collection of relations between a left-hand
// expression and an implicit zero right-hand side: the constant term of each
// index tuple is folded into the relation when the constraint is built.
//
// Like Variable, a Constraint is unbound at creation and bound once, when
// registered on a Model with AddConstraint.
type Constraint struct {
	expr  *Expression // lhs - rhs, canonical
	sense ConstraintSense

	name    string
	model   *Model
	entries []conEntry
	err     error
}

// conEntry maps one index tuple of the constraint to its identifiers.
type conEntry struct {
	index     []any
	id        uint32 // model-allocated constraint id
	solverIdx int    // adapter handle
}

func newConstraint(lhs *Expression, rhs any, sense ConstraintSense) *Constraint {
	diff := lhs.Sub(rhs)
	return &Constraint{expr: diff, sense: sense, err: diff.err}
}

// Err returns the first error of the chain that produced this constraint.
func (c *Constraint) Err() error { return c.err }

// Name returns the registered name; empty until bound.
func (c *Constraint) Name() string { return c.name }

// Sense returns the constraint relation.
func (c *Constraint) Sense() ConstraintSense { return c.sense }

// Dims returns the constraint's dimension columns.
func (c *Constraint) Dims() []string { return c.expr.Dims() }

// Bound reports whether the constraint has been attached to a model.
func (c *Constraint) Bound() bool { return c.model != nil }

// flatGroup is one native constraint: the sparse combination of one index
// tuple, with the constant term moved to the right-hand side.
type flatGroup struct {
	index  []any
	linear []solver.Term
	quad   []solver.QuadTerm
	rhs    float64
}

// flatten splits a canonical expression table into one group per index
// tuple, in first-occurrence row order.
func flatten(t *table.Table) []flatGroup {
	var out []flatGroup
	pos := make(map[string]int)
	dup := make(map[string]struct{})
	for _, r := range t.Rows() {
		k := table.Key(r.Index)
		i, ok := pos[k]
		if !ok {
			i = len(out)
			pos[k] = i
			out = append(out, flatGroup{index: slices.Clone(r.Index)})
		}
		tk := fmt.Sprintf("%s|%d|%d", k, r.VarID, r.QuadID)
		if _, seen := dup[tk]; seen {
			// canonical tables cannot repeat a term; this is a defect, not
			// a user error
			panic(fmt.Sprintf("pyoframe: duplicate term (var %d, quad %d) in flattened tuple %v", r.VarID, r.QuadID, r.Index))
		}
		dup[tk] = struct{}{}
		switch {
		case r.VarID == table.ConstID:
			out[i].rhs -= r.Coeff
		case r.QuadID != table.ConstID:
			out[i].quad = append(out[i].quad, solver.QuadTerm{Var1: int(r.VarID), Var2: int(r.QuadID), Coeff: r.Coeff})
		default:
			out[i].linear = append(out[i].linear, solver.Term{Var: int(r.VarID), Coeff: r.Coeff})
		}
	}
	return out
}

// Dual returns the dual value per index tuple, in binding order.
func (c *Constraint) Dual() ([]IndexedValue, error) {
	if c.model == nil {
		return nil, fmt.Errorf("dual of unregistered constraint: %w", ErrNotBound)
	}
	if err := c.model.alive(); err != nil {
		return nil, err
	}
	out := make([]IndexedValue, 0, len(c.entries))
	for _, e := range c.entries {
		d, err := c.model.adapter.ConstraintDual(e.solverIdx)
		if err != nil {
			return nil, fmt.Errorf("dual of %s: %w", c.name, err)
		}
		out = append(out, IndexedValue{Index: slices.Clone(e.index), Value: d})
	}
	return out, nil
}

// DualAt returns the dual value of a single index tuple.
func (c *Constraint) DualAt(index ...any) (float64, error) {
	vals, err := c.Dual()
	if err != nil {
		return 0, err
	}
	want := table.Key(index)
	for _, iv := range vals {
		if table.Key(iv.Index) == want {
			return iv.Value, nil
		}
	}
	return 0, fmt.Errorf("constraint %s has no index tuple %v", c.name, index)
}

func (c *Constraint) String() string {
	if c.err != nil {
		return "<invalid constraint: " + c.err.Error() + ">"
	}
	return fmt.Sprintf("<Constraint %s sense=%q dims=%v>%s", c.name, c.sense, c.expr.Dims(), c.expr)
}
