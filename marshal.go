package pyoframe

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"

	"github.com/eduardosalaz/pyoframe/solver"
)

// FlatSystem is the flattened sparse form of a model: exactly the data the
// solver boundary consumes, detached from the algebra that produced it.
// Index tuples are rendered as display labels, so a FlatSystem is a
// serialization and inspection format, not a live model.
type FlatSystem struct {
	Name         string           `cbor:"1,keyasint"`
	Solver       string           `cbor:"2,keyasint"`
	Sense        string           `cbor:"3,keyasint"`
	NumVariables uint32           `cbor:"4,keyasint"` // including the reserved constant
	Variables    []FlatVariable   `cbor:"5,keyasint"`
	Constraints  []FlatConstraint `cbor:"6,keyasint"`
	Objective    *FlatObjective   `cbor:"7,keyasint,omitempty"`
}

type FlatVariable struct {
	ID     uint32  `cbor:"1,keyasint"`
	Name   string  `cbor:"2,keyasint"`
	LB     float64 `cbor:"3,keyasint"`
	UB     float64 `cbor:"4,keyasint"`
	Domain string  `cbor:"5,keyasint"`
}

type FlatConstraint struct {
	ID     uint32            `cbor:"1,keyasint"`
	Name   string            `cbor:"2,keyasint"`
	Sense  string            `cbor:"3,keyasint"`
	RHS    float64           `cbor:"4,keyasint"`
	Linear []solver.Term     `cbor:"5,keyasint"`
	Quad   []solver.QuadTerm `cbor:"6,keyasint,omitempty"`
}

type FlatObjective struct {
	Sense  string            `cbor:"1,keyasint"`
	Linear []solver.Term     `cbor:"2,keyasint"`
	Quad   []solver.QuadTerm `cbor:"3,keyasint,omitempty"`
}

// Flatten renders the model's bound elements into a FlatSystem.
func (m *Model) Flatten() (*FlatSystem, error) {
	if err := m.alive(); err != nil {
		return nil, err
	}
	fs := &FlatSystem{
		Name:         m.name,
		Solver:       m.solverName,
		Sense:        m.sense.String(),
		NumVariables: m.nextVar,
	}
	for _, v := range m.variables {
		lb, ub := v.Bounds()
		for _, r := range v.tab.Rows() {
			fs.Variables = append(fs.Variables, FlatVariable{
				ID:     r.VarID,
				Name:   solverName(v.name, r.Index),
				LB:     lb,
				UB:     ub,
				Domain: v.domain.String(),
			})
		}
	}
	for _, c := range m.constraints {
		gs := flatten(c.expr.tab)
		if len(gs) != len(c.entries) {
			panic(fmt.Sprintf("pyoframe: constraint %s flattens to %d groups but bound %d", c.name, len(gs), len(c.entries)))
		}
		for i, g := range gs {
			fs.Constraints = append(fs.Constraints, FlatConstraint{
				ID:     c.entries[i].id,
				Name:   solverName(c.name, g.index),
				Sense:  c.sense.String(),
				RHS:    g.rhs,
				Linear: g.linear,
				Quad:   g.quad,
			})
		}
	}
	if m.objective != nil {
		gs := flatten(m.objective.expr.tab)
		var g flatGroup
		if len(gs) > 0 {
			g = gs[0]
		}
		linear := g.linear
		if g.rhs != 0 {
			linear = append(linear[:len(linear):len(linear)], solver.Term{Var: 0, Coeff: -g.rhs})
		}
		fs.Objective = &FlatObjective{Sense: m.sense.String(), Linear: linear, Quad: g.quad}
	}
	return fs, nil
}

// WriteTo serializes the system with CBOR.
func (fs *FlatSystem) WriteTo(w io.Writer) (int64, error) {
	data, err := cbor.Marshal(fs)
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), err
}

// ReadFlatSystem deserializes a system written by WriteTo.
func ReadFlatSystem(r io.Reader) (*FlatSystem, error) {
	fs := new(FlatSystem)
	if err := cbor.NewDecoder(r).Decode(fs); err != nil {
		return nil, fmt.Errorf("read flat system: %w", err)
	}
	return fs, nil
}
