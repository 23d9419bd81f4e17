package pyoframe

import "github.com/eduardosalaz/pyoframe/solver"

// VType is the domain of a decision variable.
type VType uint8

const (
	Continuous VType = iota
	Binary
	Integer
)

func (v VType) String() string {
	switch v {
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

func (v VType) toSolver() solver.Domain {
	switch v {
	case Continuous:
		return solver.Continuous
	case Binary:
		return solver.Binary
	case Integer:
		return solver.Integer
	default:
		panic("invalid variable domain")
	}
}

// ObjSense is the optimization direction of a model. The zero value means
// the direction has not been decided yet.
type ObjSense uint8

const (
	SenseUnset ObjSense = iota
	Min
	Max
)

func (s ObjSense) String() string {
	switch s {
	case Min:
		return "min"
	case Max:
		return "max"
	default:
		return "unset"
	}
}

func (s ObjSense) toSolver() solver.ObjectiveSense {
	switch s {
	case Min:
		return solver.Minimize
	case Max:
		return solver.Maximize
	default:
		panic("invalid objective sense")
	}
}

// ConstraintSense is the relation of a constraint to its right-hand side.
type ConstraintSense uint8

const (
	LessEq ConstraintSense = iota
	GreaterEq
	Equal
)

func (s ConstraintSense) String() string {
	switch s {
	case LessEq:
		return "<="
	case GreaterEq:
		return ">="
	case Equal:
		return "="
	default:
		return "?"
	}
}

func (s ConstraintSense) toSolver() solver.Sense {
	switch s {
	case LessEq:
		return solver.LessEqual
	case GreaterEq:
		return solver.GreaterEqual
	case Equal:
		return solver.Equal
	default:
		panic("invalid constraint sense")
	}
}
