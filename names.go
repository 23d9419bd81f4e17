package pyoframe

import (
	"fmt"
	"strings"
)

// label is the user-facing identity of one allocated id.
type label struct {
	name  string
	index []any
}

// mapper is the reverse mapping from allocated ids back to (name, index
// tuple), used for printing and for solution/dual retrieval diagnostics.
type mapper struct {
	vars map[uint32]label
	cons map[uint32]label
}

func newMapper() *mapper {
	return &mapper{vars: make(map[uint32]label), cons: make(map[uint32]label)}
}

func (m *mapper) addVar(id uint32, name string, index []any) {
	m.vars[id] = label{name: name, index: index}
}

func (m *mapper) addCon(id uint32, name string, index []any) {
	m.cons[id] = label{name: name, index: index}
}

// VariableLabel resolves a variable id to its registered name and index
// tuple. The reserved constant id resolves to "ONE".
func (m *Model) VariableLabel(id uint32) (name string, index []any, ok bool) {
	if id == 0 {
		return "ONE", nil, true
	}
	l, ok := m.mapper.vars[id]
	return l.name, l.index, ok
}

// ConstraintLabel resolves a constraint id to its registered name and index
// tuple.
func (m *Model) ConstraintLabel(id uint32) (name string, index []any, ok bool) {
	l, ok := m.mapper.cons[id]
	return l.name, l.index, ok
}

// solverName renders the name passed to the adapter when the model forwards
// variable and constraint names.
func solverName(name string, index []any) string {
	if len(index) == 0 {
		return name
	}
	parts := make([]string, len(index))
	for i, v := range index {
		parts[i] = fmt.Sprint(v)
	}
	return name + "[" + strings.Join(parts, ",") + "]"
}
