// Package stub provides an in-memory solver.Adapter for tests: it records
// every variable, constraint and objective it receives and returns solution
// values scripted by the test, without running any numerical method.
package stub

import (
	"errors"
	"fmt"

	"github.com/eduardosalaz/pyoframe/solver"
)

// ErrClosed is returned by any call after Close.
var ErrClosed = errors.New("stub: adapter is closed")

// Var is a recorded variable.
type Var struct {
	LB, UB float64
	Domain solver.Domain
	Name   string
}

// Constr is a recorded constraint.
type Constr struct {
	Linear []solver.Term
	Quad   []solver.QuadTerm
	Sense  solver.Sense
	RHS    float64
	Name   string
}

// Objective is the recorded objective.
type Objective struct {
	Linear []solver.Term
	Quad   []solver.QuadTerm
	Sense  solver.ObjectiveSense
	Set    bool
}

// Solver implements solver.Adapter. The zero value is not usable; call New.
type Solver struct {
	Vars    []Var
	Constrs []Constr
	Obj     Objective

	// Solution holds per-variable values by index; set it (or SolveFunc)
	// before Optimize.
	Solution []float64
	// Duals holds per-constraint dual values by index.
	Duals []float64
	// SolveFunc, when set, is invoked by Optimize instead of requiring a
	// pre-scripted Solution.
	SolveFunc func(*Solver) error

	// Written collects the paths passed to Write.
	Written []string

	params    map[string]any
	attrs     map[string]any
	optimized bool
	closed    bool
}

func New() *Solver {
	return &Solver{
		params: make(map[string]any),
		attrs:  make(map[string]any),
	}
}

func (s *Solver) AddVariable(lb, ub float64, domain solver.Domain, name string) (int, error) {
	if s.closed {
		return 0, ErrClosed
	}
	s.Vars = append(s.Vars, Var{LB: lb, UB: ub, Domain: domain, Name: name})
	return len(s.Vars) - 1, nil
}

func (s *Solver) AddLinearConstraint(terms []solver.Term, sense solver.Sense, rhs float64, name string) (int, error) {
	return s.addConstr(Constr{Linear: terms, Sense: sense, RHS: rhs, Name: name})
}

func (s *Solver) AddQuadraticConstraint(linear []solver.Term, quad []solver.QuadTerm, sense solver.Sense, rhs float64, name string) (int, error) {
	return s.addConstr(Constr{Linear: linear, Quad: quad, Sense: sense, RHS: rhs, Name: name})
}

func (s *Solver) addConstr(c Constr) (int, error) {
	if s.closed {
		return 0, ErrClosed
	}
	s.Constrs = append(s.Constrs, c)
	return len(s.Constrs) - 1, nil
}

func (s *Solver) SetObjective(linear []solver.Term, quad []solver.QuadTerm, sense solver.ObjectiveSense) error {
	if s.closed {
		return ErrClosed
	}
	s.Obj = Objective{Linear: linear, Quad: quad, Sense: sense, Set: true}
	return nil
}

func (s *Solver) Optimize() error {
	if s.closed {
		return ErrClosed
	}
	if s.SolveFunc != nil {
		if err := s.SolveFunc(s); err != nil {
			return err
		}
	}
	if s.Solution == nil {
		return errors.New("stub: no solution scripted")
	}
	if len(s.Solution) != len(s.Vars) {
		return fmt.Errorf("stub: scripted solution has %d values for %d variables", len(s.Solution), len(s.Vars))
	}
	s.optimized = true
	return nil
}

func (s *Solver) VariableValue(index int) (float64, error) {
	if s.closed {
		return 0, ErrClosed
	}
	if !s.optimized {
		return 0, errors.New("stub: model not optimized")
	}
	if index < 0 || index >= len(s.Solution) {
		return 0, fmt.Errorf("stub: no variable with index %d", index)
	}
	return s.Solution[index], nil
}

func (s *Solver) ConstraintDual(index int) (float64, error) {
	if s.closed {
		return 0, ErrClosed
	}
	if index < 0 || index >= len(s.Duals) {
		return 0, fmt.Errorf("stub: no dual recorded for constraint %d", index)
	}
	return s.Duals[index], nil
}

func (s *Solver) ObjectiveValue() (float64, error) {
	if s.closed {
		return 0, ErrClosed
	}
	if !s.optimized {
		return 0, errors.New("stub: model not optimized")
	}
	var v float64
	for _, t := range s.Obj.Linear {
		x, err := s.VariableValue(t.Var)
		if err != nil {
			return 0, err
		}
		v += t.Coeff * x
	}
	for _, t := range s.Obj.Quad {
		x1, err := s.VariableValue(t.Var1)
		if err != nil {
			return 0, err
		}
		x2, err := s.VariableValue(t.Var2)
		if err != nil {
			return 0, err
		}
		v += t.Coeff * x1 * x2
	}
	return v, nil
}

func (s *Solver) SetParameter(name string, value any) error {
	if s.closed {
		return ErrClosed
	}
	s.params[name] = value
	return nil
}

func (s *Solver) Parameter(name string) (any, error) {
	if s.closed {
		return nil, ErrClosed
	}
	v, ok := s.params[name]
	if !ok {
		return nil, fmt.Errorf("stub: unknown parameter %q", name)
	}
	return v, nil
}

func (s *Solver) SetAttribute(name string, value any) error {
	if s.closed {
		return ErrClosed
	}
	s.attrs[name] = value
	return nil
}

func (s *Solver) Attribute(name string) (any, error) {
	if s.closed {
		return nil, ErrClosed
	}
	v, ok := s.attrs[name]
	if !ok {
		return nil, fmt.Errorf("stub: unknown attribute %q", name)
	}
	return v, nil
}

func (s *Solver) Write(path string) error {
	if s.closed {
		return ErrClosed
	}
	s.Written = append(s.Written, path)
	return nil
}

func (s *Solver) Close() error {
	if s.closed {
		return ErrClosed
	}
	s.closed = true
	return nil
}
