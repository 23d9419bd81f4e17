package pyoframe

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eduardosalaz/pyoframe/solver"
	"github.com/eduardosalaz/pyoframe/solver/stub"
)

func newStubModel(t *testing.T, opts ...Option) (*Model, *stub.Solver) {
	t.Helper()
	s := stub.New()
	m, err := NewModel(append([]Option{WithAdapter(s, "stub")}, opts...)...)
	require.NoError(t, err)
	return m, s
}

func TestNewModelReservesConstantVariable(t *testing.T) {
	assert := require.New(t)
	m, s := newStubModel(t, WithName("plan"))

	assert.Equal("plan", m.Name())
	assert.Equal("stub", m.SolverName())
	assert.Len(s.Vars, 1)
	assert.Equal("ONE", s.Vars[0].Name)
	assert.Equal(1.0, s.Vars[0].LB)
	assert.Equal(1.0, s.Vars[0].UB)

	name, _, ok := m.VariableLabel(0)
	assert.True(ok)
	assert.Equal("ONE", name)
}

func TestVariableIDsAreConsecutive(t *testing.T) {
	assert := require.New(t)
	m, s := newStubModel(t)

	x := NewVariable(Over(MustSet("i", "a", "b", "c")))
	y := NewVariable()
	assert.NoError(m.AddVariable("x", x))
	assert.NoError(m.AddVariable("y", y))

	// constant + three for x + one for y
	assert.Len(s.Vars, 5)
	ids := make([]uint32, 0, 4)
	for _, r := range x.tab.Rows() {
		ids = append(ids, r.VarID)
	}
	for _, r := range y.tab.Rows() {
		ids = append(ids, r.VarID)
	}
	assert.Equal([]uint32{1, 2, 3, 4}, ids)

	name, index, ok := m.VariableLabel(2)
	assert.True(ok)
	assert.Equal("x", name)
	assert.Equal([]any{"b"}, index)
}

func TestVariableBindGuards(t *testing.T) {
	assert := require.New(t)
	m, _ := newStubModel(t)

	x := NewVariable()
	assert.NoError(m.AddVariable("x", x))
	assert.ErrorIs(m.AddVariable("x2", x), ErrAlreadyBound)

	y := NewVariable()
	assert.ErrorIs(m.AddVariable("x", y), ErrDuplicateName)
	assert.Error(m.AddVariable("", y))

	bad := NewVariable(Over(MustSet("i", 1), MustSet("i", 2)))
	assert.Error(m.AddVariable("bad", bad))
}

func TestBinaryDefaultBounds(t *testing.T) {
	assert := require.New(t)
	m, s := newStubModel(t)

	b := NewVariable(WithDomain(Binary))
	assert.NoError(m.AddVariable("b", b))
	assert.Equal(0.0, s.Vars[1].LB)
	assert.Equal(1.0, s.Vars[1].UB)
	assert.Equal(solver.Binary, s.Vars[1].Domain)

	// explicit bounds win over the binary default
	b2 := NewVariable(WithDomain(Binary), WithBounds(0, 0))
	assert.NoError(m.AddVariable("b2", b2))
	assert.Equal(0.0, s.Vars[2].UB)

	// each unset bound defaults on its own
	b3 := NewVariable(WithDomain(Binary), WithLowerBound(0.5))
	assert.NoError(m.AddVariable("b3", b3))
	assert.Equal(0.5, s.Vars[3].LB)
	assert.Equal(1.0, s.Vars[3].UB)

	b4 := NewVariable(WithDomain(Binary), WithUpperBound(0.5))
	assert.NoError(m.AddVariable("b4", b4))
	assert.Equal(0.0, s.Vars[4].LB)
	assert.Equal(0.5, s.Vars[4].UB)

	assert.Len(m.BinaryVariables(), 4)
	assert.Empty(m.IntegerVariables())
}

func TestVariableNamesForwardedOnRequest(t *testing.T) {
	assert := require.New(t)

	m, s := newStubModel(t, WithVarNames())
	x := NewVariable(Over(MustSet("i", "a", "b")))
	assert.NoError(m.AddVariable("x", x))
	assert.Equal("x[a]", s.Vars[1].Name)
	assert.Equal("x[b]", s.Vars[2].Name)

	m2, s2 := newStubModel(t)
	x2 := NewVariable(Over(MustSet("i", "a")))
	assert.NoError(m2.AddVariable("x", x2))
	assert.Equal("", s2.Vars[1].Name)
}

func TestAddConstraintFlattensPerTuple(t *testing.T) {
	assert := require.New(t)
	m, s := newStubModel(t)

	x := NewVariable(Over(MustSet("i", "a", "b")))
	assert.NoError(m.AddVariable("x", x))

	c := x.Mul(2).LessEq(10)
	assert.NoError(c.Err())
	assert.NoError(m.AddConstraint("cap", c))
	assert.True(c.Bound())

	assert.Len(s.Constrs, 2)
	assert.Equal(10.0, s.Constrs[0].RHS)
	assert.Equal([]solver.Term{{Var: 1, Coeff: 2}}, s.Constrs[0].Linear)
	assert.Equal([]solver.Term{{Var: 2, Coeff: 2}}, s.Constrs[1].Linear)
	assert.Equal(solver.LessEqual, s.Constrs[0].Sense)

	name, index, ok := m.ConstraintLabel(1)
	assert.True(ok)
	assert.Equal("cap", name)
	assert.Equal([]any{"a"}, index)
}

func TestAddConstraintSurfacesChainErrors(t *testing.T) {
	assert := require.New(t)
	m, _ := newStubModel(t)

	x := NewVariable(Over(MustSet("i", 1, 2)))
	y := NewVariable(Over(MustSet("i", 2, 3)))
	assert.NoError(m.AddVariable("x", x))
	assert.NoError(m.AddVariable("y", y))

	c := x.Add(y).LessEq(1)
	assert.Error(c.Err())
	assert.ErrorIs(m.AddConstraint("bad", c), ErrDimensionMismatch)
}

func TestQuadraticConstraintRouting(t *testing.T) {
	assert := require.New(t)
	m, s := newStubModel(t)

	x := NewVariable()
	assert.NoError(m.AddVariable("x", x))

	c := x.Mul(x).Add(x).LessEq(4)
	assert.NoError(m.AddConstraint("q", c))
	assert.Len(s.Constrs, 1)
	assert.Equal([]solver.QuadTerm{{Var1: 1, Var2: 1, Coeff: 1}}, s.Constrs[0].Quad)
	assert.Equal([]solver.Term{{Var: 1, Coeff: 1}}, s.Constrs[0].Linear)
	assert.Equal(4.0, s.Constrs[0].RHS)
}

func TestObjectiveIsSetOnce(t *testing.T) {
	assert := require.New(t)
	m, s := newStubModel(t)

	x := NewVariable()
	assert.NoError(m.AddVariable("x", x))

	assert.NoError(m.Minimize(x))
	assert.Equal(Min, m.Sense())
	assert.True(s.Obj.Set)
	assert.Equal(solver.Minimize, s.Obj.Sense)

	assert.ErrorIs(m.Minimize(x), ErrObjectiveSet)
	assert.ErrorIs(m.Maximize(x), ErrObjectiveSet)
}

func TestObjectiveRespectsFixedSense(t *testing.T) {
	assert := require.New(t)
	m, _ := newStubModel(t, WithSense(Max))

	x := NewVariable()
	assert.NoError(m.AddVariable("x", x))
	assert.Error(m.Minimize(x))
	assert.NoError(m.Maximize(x))
}

func TestObjectiveMustBeUnshaped(t *testing.T) {
	assert := require.New(t)
	m, _ := newStubModel(t)

	x := NewVariable(Over(MustSet("i", 1, 2)))
	assert.NoError(m.AddVariable("x", x))
	assert.Error(m.Minimize(x))
	assert.NoError(m.Minimize(Sum(x)))
}

func TestObjectiveAdditiveModification(t *testing.T) {
	assert := require.New(t)
	m, s := newStubModel(t)

	x := NewVariable()
	y := NewVariable()
	assert.NoError(m.AddVariable("x", x))
	assert.NoError(m.AddVariable("y", y))

	assert.Error(m.AddToObjective(y))

	assert.NoError(m.Minimize(x.Add(1)))
	assert.NoError(m.AddToObjective(y.Mul(3)))
	assert.NoError(m.SubFromObjective(x))

	// x cancels out; constant 1 rides on the reserved variable
	assert.Equal([]solver.Term{{Var: 1, Coeff: 0}, {Var: 2, Coeff: 3}, {Var: 0, Coeff: 1}}, s.Obj.Linear)
}

func TestOptimizeAndSolutions(t *testing.T) {
	assert := require.New(t)
	m, s := newStubModel(t)

	x := NewVariable(Over(MustSet("i", "a", "b")), WithBounds(0, 10))
	assert.NoError(m.AddVariable("x", x))

	s.Solution = []float64{1, 2.5, 7}
	assert.NoError(m.Optimize())

	vals, err := x.Solution()
	assert.NoError(err)
	assert.Equal([]IndexedValue{{Index: []any{"a"}, Value: 2.5}, {Index: []any{"b"}, Value: 7}}, vals)

	at, err := x.SolutionAt("b")
	assert.NoError(err)
	assert.Equal(7.0, at)

	_, err = x.SolutionAt("zzz")
	assert.Error(err)
}

func TestIntegerSolutionsSnapWithinTolerance(t *testing.T) {
	assert := require.New(t)
	m, s := newStubModel(t)

	x := NewVariable(WithDomain(Integer), WithBounds(0, 10))
	assert.NoError(m.AddVariable("x", x))

	s.Solution = []float64{1, 3 + 1e-9}
	assert.NoError(m.Optimize())
	v, err := x.SolutionAt()
	assert.NoError(err)
	assert.Equal(3.0, v)

	s.Solution[1] = 3.4
	_, err = x.Solution()
	assert.ErrorIs(err, ErrRounding)
}

func TestZeroToleranceReturnsRawValues(t *testing.T) {
	assert := require.New(t)

	cfg := DefaultConfig()
	cfg.IntegerTolerance = 0
	m, s := newStubModel(t, WithConfig(cfg))

	x := NewVariable(WithDomain(Integer))
	assert.NoError(m.AddVariable("x", x))
	s.Solution = []float64{1, 3.4}
	assert.NoError(m.Optimize())

	v, err := x.SolutionAt()
	assert.NoError(err)
	assert.Equal(3.4, v)
}

func TestDualValues(t *testing.T) {
	assert := require.New(t)
	m, s := newStubModel(t)

	x := NewVariable(Over(MustSet("i", "a", "b")))
	assert.NoError(m.AddVariable("x", x))
	c := x.LessEq(4)
	assert.NoError(m.AddConstraint("cap", c))

	s.Duals = []float64{0.5, 1.5}
	d, err := c.DualAt("b")
	assert.NoError(err)
	assert.Equal(1.5, d)

	all, err := c.Dual()
	assert.NoError(err)
	assert.Len(all, 2)
}

func TestWriteCreatesParentDirectories(t *testing.T) {
	assert := require.New(t)
	m, s := newStubModel(t)

	path := filepath.Join(t.TempDir(), "out", "deep", "model.lp")
	assert.NoError(m.Write(path))
	assert.Equal([]string{path}, s.Written)

	_, err := os.Stat(filepath.Dir(path))
	assert.NoError(err)
}

func TestParamsAndAttrs(t *testing.T) {
	assert := require.New(t)
	m, _ := newStubModel(t)

	assert.NoError(m.SetParam("TimeLimit", 30.0))
	v, err := m.Param("TimeLimit")
	assert.NoError(err)
	assert.Equal(30.0, v)
	_, err = m.Param("Unknown")
	assert.Error(err)

	assert.NoError(m.SetAttr("ModelSense", -1))
	v, err = m.Attr("ModelSense")
	assert.NoError(err)
	assert.Equal(-1, v)
}

func TestDisposeMakesFurtherUseFail(t *testing.T) {
	assert := require.New(t)
	m, _ := newStubModel(t)

	x := NewVariable()
	assert.NoError(m.AddVariable("x", x))
	assert.NoError(m.Dispose())

	assert.ErrorIs(m.Dispose(), ErrDisposed)
	assert.ErrorIs(m.Optimize(), ErrDisposed)
	assert.ErrorIs(m.AddVariable("y", NewVariable()), ErrDisposed)
	_, err := x.Solution()
	assert.ErrorIs(err, ErrDisposed)
}

func TestNewModelRequiresABackend(t *testing.T) {
	assert := require.New(t)

	_, err := NewModel(WithSolver("no-such-backend"))
	assert.ErrorIs(err, solver.ErrNotRegistered)
}

func TestEndToEndTransportPlan(t *testing.T) {
	assert := require.New(t)
	m, s := newStubModel(t, WithName("transport"), WithVarNames())

	cities := MustSet("city", "ams", "rot")
	x := NewVariable(Over(cities), WithBounds(0, 4))
	assert.NoError(m.AddVariable("ship", x))

	total := Sum(x).LessEq(6)
	assert.NoError(m.AddConstraint("capacity", total))

	profit := Constants(cities, []float64{1, 2}).Mul(x).Sum()
	assert.NoError(m.Maximize(profit))

	assert.Equal([]solver.Term{{Var: 1, Coeff: 1}, {Var: 2, Coeff: 1}}, s.Constrs[0].Linear)
	assert.Equal(6.0, s.Constrs[0].RHS)
	assert.Equal([]solver.Term{{Var: 1, Coeff: 1}, {Var: 2, Coeff: 2}}, s.Obj.Linear)
	assert.Equal(solver.Maximize, s.Obj.Sense)

	// ship all 4 units to the more profitable city, the rest to the other
	s.Solution = []float64{1, 2, 4}
	assert.NoError(m.Optimize())

	a, err := x.SolutionAt("ams")
	assert.NoError(err)
	b, err := x.SolutionAt("rot")
	assert.NoError(err)
	assert.Equal(2.0, a)
	assert.Equal(4.0, b)

	obj, err := m.Objective().Value()
	assert.NoError(err)
	assert.Equal(10.0, obj)
}

// flakyAdapter refuses variable or constraint creation once the respective
// budget runs out, to exercise partial-bind error paths.
type flakyAdapter struct {
	*stub.Solver
	varBudget    int
	constrBudget int
}

func (f *flakyAdapter) AddVariable(lb, ub float64, domain solver.Domain, name string) (int, error) {
	if f.varBudget == 0 {
		return 0, errors.New("backend refused variable")
	}
	f.varBudget--
	return f.Solver.AddVariable(lb, ub, domain, name)
}

func (f *flakyAdapter) AddLinearConstraint(terms []solver.Term, sense solver.Sense, rhs float64, name string) (int, error) {
	if f.constrBudget == 0 {
		return 0, errors.New("backend refused constraint")
	}
	f.constrBudget--
	return f.Solver.AddLinearConstraint(terms, sense, rhs, name)
}

func TestFailedConstraintBindLeavesNoPartialState(t *testing.T) {
	assert := require.New(t)
	f := &flakyAdapter{Solver: stub.New(), varBudget: 10, constrBudget: 1}
	m, err := NewModel(WithAdapter(f, "stub"))
	assert.NoError(err)

	x := NewVariable(Over(MustSet("i", "a", "b")))
	assert.NoError(m.AddVariable("x", x))

	// second tuple of the shape is refused
	c := x.LessEq(4)
	assert.Error(m.AddConstraint("cap", c))
	assert.False(c.Bound())
	assert.Empty(c.entries)

	// the name is free again and the same constraint binds cleanly
	f.constrBudget = 10
	assert.NoError(m.AddConstraint("cap", c))
	assert.Len(c.entries, 2)

	f.Duals = []float64{0, 1.5, 2.5}
	d, err := c.DualAt("b")
	assert.NoError(err)
	assert.Equal(2.5, d)

	fs, err := m.Flatten()
	assert.NoError(err)
	assert.Len(fs.Constraints, 2)
}

func TestFailedVariableBindReleasesName(t *testing.T) {
	assert := require.New(t)
	f := &flakyAdapter{Solver: stub.New(), varBudget: 2, constrBudget: 10}
	m, err := NewModel(WithAdapter(f, "stub"))
	assert.NoError(err)

	// the budget covers the reserved constant and one tuple; the second fails
	x := NewVariable(Over(MustSet("i", "a", "b")))
	assert.Error(m.AddVariable("x", x))
	assert.False(x.Bound())
	assert.Empty(m.Variables())

	f.varBudget = 10
	assert.NoError(m.AddVariable("x", x))
	assert.Len(m.Variables(), 1)

	vals := x.tab.Rows()
	assert.Len(vals, 2)
	// ids stay in lockstep with the adapter indexes consumed so far
	assert.Equal(uint32(2), vals[0].VarID)
	assert.Equal(uint32(3), vals[1].VarID)
}

func TestUnboundedDefaults(t *testing.T) {
	assert := require.New(t)

	v := NewVariable()
	lb, ub := v.Bounds()
	assert.True(math.IsInf(lb, -1))
	assert.True(math.IsInf(ub, 1))
	assert.Equal(Continuous, v.Domain())
	assert.False(v.Bound())
}
