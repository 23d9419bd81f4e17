package pyoframe

import (
	"fmt"
	"math"
	"slices"

	"github.com/eduardosalaz/pyoframe/internal/utils"
	"github.com/eduardosalaz/pyoframe/table"
)

// Variable is a named, shaped collection of decision variables: one native
// solver variable per index tuple of its shape, or a single one if unshaped.
//
// A Variable is created unbound and becomes bound exactly once, when it is
// registered on a Model with AddVariable; the Model then owns the id mapping
// and the Variable keeps a non-owning back-reference to query solutions.
type Variable struct {
	name   string
	domain VType
	lb, ub float64
	shape  *Set // nil for an unshaped (scalar) variable

	model *Model
	tab   *table.Table // dims + one row per tuple (coeff 1, allocated VarID)
	err   error        // construction error, surfaced at bind time
}

// VariableOption configures NewVariable.
type VariableOption func(*Variable)

// Over shapes the variable by the cross product of the given sets.
func Over(sets ...*Set) VariableOption {
	return func(v *Variable) {
		if len(sets) == 0 {
			return
		}
		s := sets[0]
		var err error
		for _, o := range sets[1:] {
			if s, err = s.Cross(o); err != nil {
				v.err = err
				return
			}
		}
		v.shape = s
	}
}

// WithBounds sets both variable bounds.
func WithBounds(lb, ub float64) VariableOption {
	return func(v *Variable) { v.lb, v.ub = lb, ub }
}

// WithLowerBound sets the lower bound.
func WithLowerBound(lb float64) VariableOption {
	return func(v *Variable) { v.lb = lb }
}

// WithUpperBound sets the upper bound.
func WithUpperBound(ub float64) VariableOption {
	return func(v *Variable) { v.ub = ub }
}

// WithDomain sets the variable domain.
func WithDomain(d VType) VariableOption {
	return func(v *Variable) { v.domain = d }
}

// NewVariable returns an unbound variable. Bounds default to (-inf, +inf);
// a binary domain with default bounds becomes (0, 1) at bind time.
func NewVariable(opts ...VariableOption) *Variable {
	v := &Variable{lb: math.Inf(-1), ub: math.Inf(1)}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Name returns the registered name; empty until bound.
func (v *Variable) Name() string { return v.name }

// Domain returns the variable domain.
func (v *Variable) Domain() VType { return v.domain }

// Bounds returns the variable bounds.
func (v *Variable) Bounds() (lb, ub float64) { return v.lb, v.ub }

// Bound reports whether the variable has been attached to a model.
func (v *Variable) Bound() bool { return v.model != nil }

// Dims returns the variable's dimension columns.
func (v *Variable) Dims() []string {
	if v.shape == nil {
		return nil
	}
	return v.shape.Dims()
}

// Expr returns the variable as an expression: coefficient 1 on each of its
// native variables. The variable must be bound.
func (v *Variable) Expr() *Expression {
	if v.err != nil {
		return errExpr(v.err)
	}
	if v.model == nil {
		return errExpr(fmt.Errorf("%w: variable must be registered before use in expressions", ErrNotBound))
	}
	return &Expression{tab: v.tab.Clone(), model: v.model}
}

// Arithmetic and comparison shorthands, all delegating to Expr.

func (v *Variable) Add(other any) *Expression  { return v.Expr().Add(other) }
func (v *Variable) Sub(other any) *Expression  { return v.Expr().Sub(other) }
func (v *Variable) Mul(other any) *Expression  { return v.Expr().Mul(other) }
func (v *Variable) Neg() *Expression           { return v.Expr().Neg() }
func (v *Variable) Sum() *Expression           { return v.Expr().Sum() }
func (v *Variable) SumBy(dims ...string) *Expression {
	return v.Expr().SumBy(dims...)
}
func (v *Variable) DropUnmatched() *Expression { return v.Expr().DropUnmatched() }
func (v *Variable) KeepUnmatched() *Expression { return v.Expr().KeepUnmatched() }
func (v *Variable) AddDim(dims ...string) *Expression {
	return v.Expr().AddDim(dims...)
}
func (v *Variable) LessEq(other any) *Constraint    { return v.Expr().LessEq(other) }
func (v *Variable) GreaterEq(other any) *Constraint { return v.Expr().GreaterEq(other) }
func (v *Variable) Eq(other any) *Constraint        { return v.Expr().Eq(other) }

// IndexedValue is one cell of a shaped result.
type IndexedValue struct {
	Index []any
	Value float64
}

// Solution returns the solved value per index tuple, in shape order.
// Integer and binary values are snapped to the nearest integer when within
// Config.IntegerTolerance, and reported as a rounding-ambiguity error
// otherwise.
func (v *Variable) Solution() ([]IndexedValue, error) {
	if v.model == nil {
		return nil, fmt.Errorf("solution of unregistered variable: %w", ErrNotBound)
	}
	if err := v.model.alive(); err != nil {
		return nil, err
	}
	tol := v.model.cfg.IntegerTolerance
	out := make([]IndexedValue, 0, v.tab.Len())
	for _, r := range v.tab.Rows() {
		val, err := v.model.adapter.VariableValue(int(r.VarID))
		if err != nil {
			return nil, fmt.Errorf("solution of %s: %w", v.name, err)
		}
		if v.domain == Integer || v.domain == Binary {
			rounded, ok := utils.RoundIfIntegral(val, tol)
			if !ok && tol > 0 {
				return nil, fmt.Errorf("%w: %s%v = %v", ErrRounding, v.name, r.Index, val)
			}
			val = rounded
		}
		out = append(out, IndexedValue{Index: slices.Clone(r.Index), Value: val})
	}
	return out, nil
}

// SolutionAt returns the solved value of a single index tuple (none for an
// unshaped variable).
func (v *Variable) SolutionAt(index ...any) (float64, error) {
	vals, err := v.Solution()
	if err != nil {
		return 0, err
	}
	want := table.Key(index)
	for _, iv := range vals {
		if table.Key(iv.Index) == want {
			return iv.Value, nil
		}
	}
	return 0, fmt.Errorf("variable %s has no index tuple %v", v.name, index)
}

func (v *Variable) String() string {
	if v.model == nil {
		return fmt.Sprintf("<Variable unbound domain=%s>", v.domain)
	}
	return fmt.Sprintf("<Variable %s size=%d domain=%s>", v.name, v.tab.Len(), v.domain)
}
