package pyoframe

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/eduardosalaz/pyoframe/logger"
	"github.com/eduardosalaz/pyoframe/solver"
	"github.com/eduardosalaz/pyoframe/table"
)

// Model owns the bound variables, constraints and objective of one
// optimization problem, the per-class id counters, and the native solver
// handle. Each model is independent; nothing is shared between instances.
type Model struct {
	name        string
	cfg         Config
	log         zerolog.Logger
	adapter     solver.Adapter
	solverName  string
	useVarNames bool

	variables   []*Variable
	constraints []*Constraint
	objective   *Objective
	sense       ObjSense

	names   map[string]struct{}
	nextVar uint32 // next variable id; 0 is the reserved constant
	nextCon uint32
	mapper  *mapper

	disposed bool
}

// Option configures NewModel.
type Option func(*Model)

// WithName names the model, for logs and exports.
func WithName(name string) Option {
	return func(m *Model) { m.name = name }
}

// WithSolver requests a specific registered backend.
func WithSolver(name string) Option {
	return func(m *Model) { m.solverName = name }
}

// WithAdapter injects an already-constructed adapter under the given name,
// bypassing the registry.
func WithAdapter(a solver.Adapter, name string) Option {
	return func(m *Model) { m.adapter = a; m.solverName = name }
}

// WithConfig overrides the process-wide configuration for this model.
func WithConfig(cfg Config) Option {
	return func(m *Model) { m.cfg = cfg }
}

// WithVarNames forwards variable and constraint names to the adapter, which
// makes exported files legible.
func WithVarNames() Option {
	return func(m *Model) { m.useVarNames = true }
}

// WithSense fixes the optimization direction ahead of setting an objective.
func WithSense(sense ObjSense) Option {
	return func(m *Model) { m.sense = sense }
}

// NewModel constructs a model backed by a solver adapter. The backend is
// the injected adapter, the requested one, Config.DefaultSolver, or the
// first registered backend that constructs, in that order of preference.
//
// The adapter's first variable is created here, fixed to 1, and reserved as
// the constant term carrier with id 0.
func NewModel(opts ...Option) (*Model, error) {
	m := &Model{
		cfg:     GetConfig(),
		names:   make(map[string]struct{}),
		nextVar: 1,
		nextCon: 1,
		mapper:  newMapper(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.adapter == nil {
		name := m.solverName
		if name == "" {
			name = m.cfg.DefaultSolver
		}
		if name != "" {
			a, err := solver.New(name)
			if err != nil {
				return nil, err
			}
			m.adapter, m.solverName = a, name
		} else {
			a, detected, err := solver.Detect(nil)
			if err != nil {
				return nil, err
			}
			m.adapter, m.solverName = a, detected
		}
	}
	m.log = logger.Logger().With().Str("model", m.name).Str("solver", m.solverName).Logger()

	idx, err := m.adapter.AddVariable(1, 1, solver.Continuous, "ONE")
	if err != nil {
		return nil, fmt.Errorf("create constant variable: %w", err)
	}
	if idx != int(table.ConstID) {
		return nil, fmt.Errorf("adapter allocated index %d for the constant variable, want %d", idx, table.ConstID)
	}
	m.log.Debug().Msg("model created")
	return m, nil
}

// Name returns the model name.
func (m *Model) Name() string { return m.name }

// SolverName returns the backend in use.
func (m *Model) SolverName() string { return m.solverName }

// Sense returns the optimization direction, SenseUnset before an objective
// or WithSense fixed it.
func (m *Model) Sense() ObjSense { return m.sense }

// Variables returns the bound variables in registration order.
func (m *Model) Variables() []*Variable { return m.variables }

// Constraints returns the bound constraints in registration order.
func (m *Model) Constraints() []*Constraint { return m.constraints }

// Objective returns the objective, nil until set.
func (m *Model) Objective() *Objective { return m.objective }

// BinaryVariables returns the bound variables with a binary domain.
func (m *Model) BinaryVariables() []*Variable { return m.variablesOf(Binary) }

// IntegerVariables returns the bound variables with an integer domain.
func (m *Model) IntegerVariables() []*Variable { return m.variablesOf(Integer) }

func (m *Model) variablesOf(d VType) []*Variable {
	var out []*Variable
	for _, v := range m.variables {
		if v.domain == d {
			out = append(out, v)
		}
	}
	return out
}

func (m *Model) alive() error {
	if m.disposed {
		return ErrDisposed
	}
	return nil
}

func (m *Model) claimName(name string) error {
	if name == "" {
		return fmt.Errorf("element name must not be empty")
	}
	if _, taken := m.names[name]; taken {
		return fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}
	m.names[name] = struct{}{}
	return nil
}

// releaseName undoes a claim when binding fails partway, so a later retry
// under the same name is not rejected as a duplicate.
func (m *Model) releaseName(name string) {
	delete(m.names, name)
}

// AddVariable binds v to the model under name: one native solver variable
// and one id are allocated per index tuple of its shape, in shape order.
// Binding is guarded: an already-bound variable or a reused name is a
// programming error, not a recoverable condition.
func (m *Model) AddVariable(name string, v *Variable) error {
	if err := m.alive(); err != nil {
		return err
	}
	if v.err != nil {
		return fmt.Errorf("variable %q: %w", name, v.err)
	}
	if v.model != nil {
		return fmt.Errorf("%w: variable %q", ErrAlreadyBound, v.name)
	}
	if err := m.claimName(name); err != nil {
		return err
	}

	tuples := [][]any{{}}
	var dims []string
	if v.shape != nil {
		dims = v.shape.Dims()
		tuples = v.shape.Tuples()
	}
	lb, ub := v.lb, v.ub
	if v.domain == Binary {
		if math.IsInf(lb, -1) {
			lb = 0
		}
		if math.IsInf(ub, 1) {
			ub = 1
		}
	}

	tab := table.New(dims...)
	for _, tup := range tuples {
		id := m.nextVar
		var sname string
		if m.useVarNames {
			sname = solverName(name, tup)
		}
		idx, err := m.adapter.AddVariable(lb, ub, v.domain.toSolver(), sname)
		if err != nil {
			m.releaseName(name)
			return fmt.Errorf("add variable %q: %w", name, err)
		}
		if idx != int(id) {
			m.releaseName(name)
			return fmt.Errorf("add variable %q: adapter allocated index %d, want %d", name, idx, id)
		}
		m.nextVar++
		m.mapper.addVar(id, name, tup)
		tab.Append(table.Row{Index: tup, Coeff: 1, VarID: id})
	}

	v.name = name
	v.model = m
	v.tab = tab
	m.variables = append(m.variables, v)
	m.log.Debug().Str("variable", name).Int("size", tab.Len()).Msg("variable bound")
	return nil
}

// AddConstraint binds c to the model under name: one native constraint and
// one id per index tuple, in the expression's row order. Errors carried by
// the constraint's expression chain surface here.
func (m *Model) AddConstraint(name string, c *Constraint) error {
	if err := m.alive(); err != nil {
		return err
	}
	if c.err != nil {
		return fmt.Errorf("constraint %q: %w", name, c.err)
	}
	if c.model != nil {
		return fmt.Errorf("%w: constraint %q", ErrAlreadyBound, c.name)
	}
	if err := m.claimName(name); err != nil {
		return err
	}

	// entries stay local until the whole shape is bound, so a failed bind
	// leaves the constraint untouched and retryable
	var entries []conEntry
	for _, g := range flatten(c.expr.tab) {
		id := m.nextCon
		var sname string
		if m.useVarNames {
			sname = solverName(name, g.index)
		}
		var idx int
		var err error
		if len(g.quad) > 0 {
			idx, err = m.adapter.AddQuadraticConstraint(g.linear, g.quad, c.sense.toSolver(), g.rhs, sname)
		} else {
			idx, err = m.adapter.AddLinearConstraint(g.linear, c.sense.toSolver(), g.rhs, sname)
		}
		if err != nil {
			m.releaseName(name)
			return fmt.Errorf("add constraint %q: %w", name, err)
		}
		m.nextCon++
		m.mapper.addCon(id, name, g.index)
		entries = append(entries, conEntry{index: g.index, id: id, solverIdx: idx})
	}
	c.entries = entries

	c.name = name
	c.model = m
	m.constraints = append(m.constraints, c)
	m.log.Debug().Str("constraint", name).Int("size", len(c.entries)).Msg("constraint bound")
	return nil
}

// Optimize runs the backend to completion. Solver failures propagate
// unchanged, wrapped with the operation that triggered them.
func (m *Model) Optimize() error {
	if err := m.alive(); err != nil {
		return err
	}
	start := time.Now()
	m.log.Info().
		Int("variables", int(m.nextVar)-1).
		Int("constraints", int(m.nextCon)-1).
		Msg("optimize")
	if err := m.adapter.Optimize(); err != nil {
		return fmt.Errorf("optimize: %w", err)
	}
	m.log.Info().Dur("took", time.Since(start)).Msg("optimize done")
	return nil
}

// Write exports the model or solution through the adapter; the format
// follows the path extension. Parent directories are created.
func (m *Model) Write(path string) error {
	if err := m.alive(); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	if err := m.adapter.Write(path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// SetParam sets a raw solver parameter by name.
func (m *Model) SetParam(name string, value any) error {
	if err := m.alive(); err != nil {
		return err
	}
	if err := m.adapter.SetParameter(name, value); err != nil {
		return fmt.Errorf("set parameter %q: %w", name, err)
	}
	return nil
}

// Param gets a raw solver parameter by name.
func (m *Model) Param(name string) (any, error) {
	if err := m.alive(); err != nil {
		return nil, err
	}
	v, err := m.adapter.Parameter(name)
	if err != nil {
		return nil, fmt.Errorf("get parameter %q: %w", name, err)
	}
	return v, nil
}

// SetAttr sets a raw model attribute by name.
func (m *Model) SetAttr(name string, value any) error {
	if err := m.alive(); err != nil {
		return err
	}
	if err := m.adapter.SetAttribute(name, value); err != nil {
		return fmt.Errorf("set attribute %q: %w", name, err)
	}
	return nil
}

// Attr gets a raw model attribute by name.
func (m *Model) Attr(name string) (any, error) {
	if err := m.alive(); err != nil {
		return nil, err
	}
	v, err := m.adapter.Attribute(name)
	if err != nil {
		return nil, fmt.Errorf("get attribute %q: %w", name, err)
	}
	return v, nil
}

// Dispose releases the native solver handle. Some backends hold licenses or
// connections, so teardown is deterministic and explicit; any further use of
// the model or of elements bound to it fails with ErrDisposed.
func (m *Model) Dispose() error {
	if err := m.alive(); err != nil {
		return err
	}
	m.disposed = true
	if err := m.adapter.Close(); err != nil {
		return fmt.Errorf("dispose: %w", err)
	}
	m.log.Debug().Msg("model disposed")
	return nil
}

func (m *Model) String() string {
	return fmt.Sprintf("<Model %s vars=%d constrs=%d objective=%t>",
		m.name, len(m.variables), len(m.constraints), m.objective != nil)
}
