// Package solver defines the boundary between the modeling layer and
// numerical solver backends, together with a registry of available backends.
//
// The modeling layer only ever hands a backend flat sparse data: variable
// bounds and domains, (variable id, coefficient) term lists with a sense and
// right-hand side, and an objective. Everything else about a solver's wire
// protocol stays behind the Adapter interface.
package solver

// Domain is a variable domain in the adapter's vocabulary.
type Domain uint8

const (
	Continuous Domain = iota
	Binary
	Integer
)

func (d Domain) String() string {
	switch d {
	case Continuous:
		return "continuous"
	case Binary:
		return "binary"
	case Integer:
		return "integer"
	default:
		return "unknown"
	}
}

// Sense is a constraint relation in the adapter's vocabulary.
type Sense uint8

const (
	LessEqual Sense = iota
	GreaterEqual
	Equal
)

func (s Sense) String() string {
	switch s {
	case LessEqual:
		return "<="
	case GreaterEqual:
		return ">="
	case Equal:
		return "="
	default:
		return "?"
	}
}

// ObjectiveSense is the optimization direction.
type ObjectiveSense uint8

const (
	Minimize ObjectiveSense = iota
	Maximize
)

func (s ObjectiveSense) String() string {
	if s == Maximize {
		return "max"
	}
	return "min"
}

// Term is one linear entry of a sparse combination.
type Term struct {
	Var   int
	Coeff float64
}

// QuadTerm is one quadratic entry; Var1 >= Var2 by convention.
type QuadTerm struct {
	Var1  int
	Var2  int
	Coeff float64
}

// Adapter is a handle on a native solver instance.
//
// Adapters allocate variable and constraint indexes monotonically from 0 in
// call order; the modeling layer relies on that to keep its own identifiers
// in lockstep. Close releases the native handle (some backends hold licenses
// or connections); any call after Close must fail, not misbehave.
type Adapter interface {
	// AddVariable creates one native variable and returns its index.
	AddVariable(lb, ub float64, domain Domain, name string) (int, error)

	// AddLinearConstraint adds sum(terms) sense rhs and returns its index.
	AddLinearConstraint(terms []Term, sense Sense, rhs float64, name string) (int, error)

	// AddQuadraticConstraint adds sum(linear) + sum(quad) sense rhs.
	AddQuadraticConstraint(linear []Term, quad []QuadTerm, sense Sense, rhs float64, name string) (int, error)

	// SetObjective replaces the objective. Constant offsets arrive as a term
	// on the adapter's first variable, which the modeling layer fixes to 1.
	SetObjective(linear []Term, quad []QuadTerm, sense ObjectiveSense) error

	// Optimize runs the solver to completion.
	Optimize() error

	// VariableValue returns the solution value of a variable.
	VariableValue(index int) (float64, error)

	// ConstraintDual returns the dual value of a constraint.
	ConstraintDual(index int) (float64, error)

	// ObjectiveValue returns the objective value of the last solve.
	ObjectiveValue() (float64, error)

	// SetParameter and Parameter access raw solver parameters by name.
	SetParameter(name string, value any) error
	Parameter(name string) (any, error)

	// SetAttribute and Attribute access raw model attributes by name.
	SetAttribute(name string, value any) error
	Attribute(name string) (any, error)

	// Write exports the model (or solution) to a file; the format is decided
	// by the backend from the path extension.
	Write(path string) error

	// Close releases the native handle.
	Close() error
}
