package pyoframe

import (
	"fmt"

	"github.com/eduardosalaz/pyoframe/solver"
)

// Objective is the single, unshaped expression a model optimizes, together
// with its direction. It is set once; afterwards only additive modification
// is permitted.
type Objective struct {
	expr  *Expression
	sense ObjSense
	model *Model
}

// Sense returns the optimization direction.
func (o *Objective) Sense() ObjSense { return o.sense }

// Expr returns the objective expression.
func (o *Objective) Expr() *Expression { return o.expr }

// Value returns the objective value of the last solve.
func (o *Objective) Value() (float64, error) {
	if err := o.model.alive(); err != nil {
		return 0, err
	}
	v, err := o.model.adapter.ObjectiveValue()
	if err != nil {
		return 0, fmt.Errorf("objective value: %w", err)
	}
	return v, nil
}

// setObjective installs the objective, rejecting replacement.
func (m *Model) setObjective(v any, sense ObjSense) error {
	if err := m.alive(); err != nil {
		return err
	}
	if m.objective != nil {
		return ErrObjectiveSet
	}
	if m.sense != SenseUnset && m.sense != sense {
		return fmt.Errorf("cannot set a %s objective on a %s model", sense, m.sense)
	}
	expr := toExpr(v)
	if expr.err != nil {
		return fmt.Errorf("objective: %w", expr.err)
	}
	if len(expr.Dims()) > 0 {
		return fmt.Errorf("objective must be unshaped over %v; collapse it with Sum or SumBy", expr.Dims())
	}
	m.sense = sense
	m.objective = &Objective{expr: expr, sense: sense, model: m}
	return m.pushObjective()
}

// Minimize sets the objective to minimize v.
func (m *Model) Minimize(v any) error { return m.setObjective(v, Min) }

// Maximize sets the objective to maximize v.
func (m *Model) Maximize(v any) error { return m.setObjective(v, Max) }

// AddToObjective adds v to the existing objective.
func (m *Model) AddToObjective(v any) error { return m.modifyObjective(v, 1) }

// SubFromObjective subtracts v from the existing objective.
func (m *Model) SubFromObjective(v any) error { return m.modifyObjective(v, -1) }

func (m *Model) modifyObjective(v any, sign float64) error {
	if err := m.alive(); err != nil {
		return err
	}
	if m.objective == nil {
		return fmt.Errorf("no objective to modify; set one with Minimize or Maximize")
	}
	expr := m.objective.expr.combine("objective", v, sign)
	if expr.err != nil {
		return fmt.Errorf("objective: %w", expr.err)
	}
	if len(expr.Dims()) > 0 {
		return fmt.Errorf("objective must stay unshaped; got dimensions %v", expr.Dims())
	}
	m.objective.expr = expr
	return m.pushObjective()
}

// pushObjective flattens the objective and hands it to the adapter.
func (m *Model) pushObjective() error {
	groups := flatten(m.objective.expr.tab)
	var group flatGroup
	if len(groups) > 0 {
		group = groups[0]
	}
	// the constant term rides on the reserved variable, which is fixed to 1
	linear := group.linear
	if group.rhs != 0 {
		linear = append(linear[:len(linear):len(linear)], solver.Term{Var: 0, Coeff: -group.rhs})
	}
	if err := m.adapter.SetObjective(linear, group.quad, m.sense.toSolver()); err != nil {
		return fmt.Errorf("set objective: %w", err)
	}
	return nil
}
