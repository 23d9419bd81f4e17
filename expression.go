package pyoframe

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/eduardosalaz/pyoframe/table"
)

// Expression is a shaped linear (or quadratic) combination of variables: an
// index-tuple table whose rows carry (coefficient, variable id, quadratic
// variable id) payloads. Rows on the reserved constant id hold the constant
// term of their index tuple.
//
// Arithmetic methods return a new Expression and never mutate the receiver.
// The first failure in a chain sticks to the result and is surfaced by Err
// and again when the expression reaches a model, so chains stay readable:
//
//	total := x.Mul(cost).Sum().Add(y.Sum())
//	if err := total.Err(); err != nil { ... }
type Expression struct {
	tab *table.Table

	// strategy marks how this expression's unmatched tuples are handled in
	// its next join, then resets.
	strategy table.Unmatched

	// allowed are dimension names this expression may broadcast into even
	// when the operands share no dimensions (an explicit cross).
	allowed []string

	model *Model
	err   error
}

func errExpr(err error) *Expression {
	return &Expression{tab: table.New(), err: err}
}

// Err returns the first error of the chain that produced this expression.
func (e *Expression) Err() error { return e.err }

// Constant returns an unshaped constant expression.
func Constant(v float64) *Expression {
	t := table.New()
	t.Append(table.Row{Index: []any{}, Coeff: v, VarID: table.ConstID})
	return &Expression{tab: t}
}

// Constants returns a shaped constant expression: one value per tuple of s,
// in set order. Useful for parameters such as demands or costs.
func Constants(s *Set, values []float64) *Expression {
	if len(values) != s.Len() {
		return errExpr(fmt.Errorf("constants: %d values for %d tuples of %v", len(values), s.Len(), s.Dims()))
	}
	t := table.New(s.dims...)
	for i, tup := range s.tuples {
		t.Append(table.Row{Index: slices.Clone(tup), Coeff: values[i], VarID: table.ConstID})
	}
	return &Expression{tab: t}
}

// toExpr coerces an operand: expressions pass through, bound variables
// become their expression, numeric scalars become unshaped constants.
func toExpr(v any) *Expression {
	switch x := v.(type) {
	case *Expression:
		return x
	case *Variable:
		return x.Expr()
	case int:
		return Constant(float64(x))
	case int64:
		return Constant(float64(x))
	case float64:
		return Constant(x)
	default:
		return errExpr(fmt.Errorf("cannot use %T as an expression operand", v))
	}
}

// Dims returns the expression's dimension columns (its shape).
func (e *Expression) Dims() []string { return e.tab.Dims() }

// Degree returns 0 for constant, 1 for linear, 2 for quadratic expressions.
func (e *Expression) Degree() int { return e.tab.Degree() }

// DropUnmatched marks the expression so its next join drops the tuples that
// have no match on the other side.
func (e *Expression) DropUnmatched() *Expression {
	out := e.shallow()
	out.strategy = table.UnmatchedDrop
	return out
}

// KeepUnmatched marks the expression so its next join keeps its unmatched
// tuples. A kept tuple contributes its own terms; an operation that needs a
// value from the missing side still fails.
func (e *Expression) KeepUnmatched() *Expression {
	out := e.shallow()
	out.strategy = table.UnmatchedKeep
	return out
}

// AddDim permits broadcasting this expression into the named dimensions,
// which makes an otherwise-disjoint combination an explicit cross.
func (e *Expression) AddDim(dims ...string) *Expression {
	out := e.shallow()
	out.allowed = append(slices.Clone(out.allowed), dims...)
	return out
}

func (e *Expression) shallow() *Expression {
	return &Expression{tab: e.tab, strategy: e.strategy, allowed: e.allowed, model: e.model, err: e.err}
}

// resolve turns an unset per-operand strategy into the configured default:
// error on mismatch, or keep when unmatched checks are globally disabled.
func resolve(s table.Unmatched) table.Unmatched {
	if s != table.UnmatchedUnset {
		return s
	}
	if GetConfig().DisableUnmatchedChecks {
		return table.UnmatchedKeep
	}
	return table.UnmatchedError
}

// crossOK reports whether a disjoint combination was explicitly requested:
// one side agreed (via AddDim) to acquire all of the other side's dimensions.
func crossOK(a, b *Expression) bool {
	covers := func(allowed, dims []string) bool {
		for _, d := range dims {
			if !slices.Contains(allowed, d) {
				return false
			}
		}
		return true
	}
	return covers(a.allowed, b.tab.Dims()) || covers(b.allowed, a.tab.Dims())
}

func mergeModel(a, b *Expression) *Model {
	if a.model != nil {
		return a.model
	}
	return b.model
}

// Add returns e + other. Operand tables are joined on their shared
// dimensions, rows unioned, and duplicate (index, variable) terms merged by
// summing coefficients; the result shape is the union of the operand shapes.
func (e *Expression) Add(other any) *Expression {
	return e.combine("add", other, 1)
}

// Sub returns e - other.
func (e *Expression) Sub(other any) *Expression {
	return e.combine("sub", other, -1)
}

func (e *Expression) combine(op string, other any, sign float64) *Expression {
	rhs := toExpr(other)
	if e.err != nil {
		return errExpr(e.err)
	}
	if rhs.err != nil {
		return errExpr(rhs.err)
	}
	left, right, err := table.Align(op, e.tab, rhs.tab, resolve(e.strategy), resolve(rhs.strategy), crossOK(e, rhs))
	if err != nil {
		return errExpr(err)
	}
	merged := table.New(left.Dims()...)
	for _, r := range left.Rows() {
		merged.Append(r)
	}
	for _, r := range right.Rows() {
		r.Coeff *= sign
		merged.Append(r)
	}
	return &Expression{tab: merged.Aggregate(), model: mergeModel(e, rhs)}
}

// Neg returns -e.
func (e *Expression) Neg() *Expression { return e.scale(-1) }

// Mul returns e * other. Numeric scalars scale every coefficient and
// preserve the shape (a zero scalar yields an all-zero expression, not an
// empty one). Expression operands are cross-multiplied term by term per
// matching index tuple; the result must stay at most quadratic.
func (e *Expression) Mul(other any) *Expression {
	switch x := other.(type) {
	case int:
		return e.scale(float64(x))
	case int64:
		return e.scale(float64(x))
	case float64:
		return e.scale(x)
	}
	rhs := toExpr(other)
	if e.err != nil {
		return errExpr(e.err)
	}
	if rhs.err != nil {
		return errExpr(rhs.err)
	}
	if da, db := e.tab.Degree(), rhs.tab.Degree(); da+db > 2 {
		return errExpr(fmt.Errorf("%w: cannot multiply degree %d by degree %d", ErrDegree, da, db))
	}

	var rows []table.Row
	dims, err := table.Pairs("mul", e.tab, rhs.tab, resolve(e.strategy), resolve(rhs.strategy), crossOK(e, rhs),
		func(index []any, ra, rb table.Row) error {
			var ids []uint32
			for _, id := range [...]uint32{ra.VarID, ra.QuadID, rb.VarID, rb.QuadID} {
				if id != table.ConstID {
					ids = append(ids, id)
				}
			}
			if len(ids) > 2 {
				return fmt.Errorf("%w: product of terms involves %d variables", ErrDegree, len(ids))
			}
			row := table.Row{Index: slices.Clone(index), Coeff: ra.Coeff * rb.Coeff}
			// canonical ordering QuadID <= VarID lets x*y and y*x merge
			switch len(ids) {
			case 1:
				row.VarID = ids[0]
			case 2:
				row.VarID = max(ids[0], ids[1])
				row.QuadID = min(ids[0], ids[1])
			}
			rows = append(rows, row)
			return nil
		})
	if err != nil {
		return errExpr(err)
	}
	return &Expression{tab: table.FromRows(dims, rows).Aggregate(), model: mergeModel(e, rhs)}
}

func (e *Expression) scale(f float64) *Expression {
	if e.err != nil {
		return errExpr(e.err)
	}
	out := e.shallow()
	out.tab = e.tab.Scale(f)
	return out
}

// Sum collapses every dimension, yielding an unshaped expression aggregated
// by variable id.
func (e *Expression) Sum() *Expression { return e.SumBy() }

// SumBy collapses all dimensions except the retained ones, aggregating
// coefficients per (retained index, variable id).
func (e *Expression) SumBy(dims ...string) *Expression {
	if e.err != nil {
		return errExpr(e.err)
	}
	proj, err := e.tab.Project(dims...)
	if err != nil {
		return errExpr(err)
	}
	return &Expression{tab: proj.Aggregate(), model: e.model}
}

// Sum is shorthand for toExpr(v).Sum(), accepting variables and expressions.
func Sum(v any) *Expression { return toExpr(v).Sum() }

// SumBy is shorthand for toExpr(v).SumBy(dims...).
func SumBy(v any, dims ...string) *Expression { return toExpr(v).SumBy(dims...) }

// LessEq returns the constraint e - other <= 0.
func (e *Expression) LessEq(other any) *Constraint { return newConstraint(e, other, LessEq) }

// GreaterEq returns the constraint e - other >= 0.
func (e *Expression) GreaterEq(other any) *Constraint { return newConstraint(e, other, GreaterEq) }

// Eq returns the constraint e - other = 0.
func (e *Expression) Eq(other any) *Constraint { return newConstraint(e, other, Equal) }

// groups partitions the table rows by index tuple in first-occurrence order.
func groups(t *table.Table) [][]table.Row {
	var out [][]table.Row
	pos := make(map[string]int)
	for _, r := range t.Rows() {
		k := table.Key(r.Index)
		if i, ok := pos[k]; ok {
			out[i] = append(out[i], r)
			continue
		}
		pos[k] = len(out)
		out = append(out, []table.Row{r})
	}
	return out
}

func formatCoeff(v float64) string {
	prec := GetConfig().FloatToStrPrecision
	if prec <= 0 {
		prec = -1
	}
	return strconv.FormatFloat(v, 'g', prec, 64)
}

func (e *Expression) varName(id uint32) string {
	cfg := GetConfig()
	if cfg.PrintUsesVariableNames && e.model != nil {
		if name, index, ok := e.model.VariableLabel(id); ok {
			if len(index) > 0 {
				return fmt.Sprintf("%s%v", name, index)
			}
			return name
		}
	}
	return "x" + strconv.FormatUint(uint64(id), 10)
}

// String renders the expression one index tuple per line, honoring the
// configured precision and truncation limits.
func (e *Expression) String() string {
	if e.err != nil {
		return "<invalid expression: " + e.err.Error() + ">"
	}
	cfg := GetConfig()
	var sb strings.Builder
	fmt.Fprintf(&sb, "<Expression size=%d dims=%v>", e.tab.Len(), e.tab.Dims())
	for n, grp := range groups(e.tab) {
		if cfg.PrintMaxLines > 0 && n >= cfg.PrintMaxLines {
			sb.WriteString("\n...")
			break
		}
		var line strings.Builder
		if e.tab.Shaped() {
			fmt.Fprintf(&line, "%v: ", grp[0].Index)
		}
		for i, r := range grp {
			if i > 0 {
				line.WriteString(" + ")
			}
			switch {
			case r.VarID == table.ConstID:
				line.WriteString(formatCoeff(r.Coeff))
			case r.QuadID != table.ConstID:
				fmt.Fprintf(&line, "%s %s * %s", formatCoeff(r.Coeff), e.varName(r.VarID), e.varName(r.QuadID))
			default:
				fmt.Fprintf(&line, "%s %s", formatCoeff(r.Coeff), e.varName(r.VarID))
			}
		}
		s := line.String()
		if limit := cfg.PrintMaxLineLength; limit > 0 && len(s) > limit {
			// back off to a rune boundary so multibyte labels stay intact
			for limit > 0 && !utf8.RuneStart(s[limit]) {
				limit--
			}
			s = s[:limit] + "..."
		}
		sb.WriteByte('\n')
		sb.WriteString(s)
	}
	return sb.String()
}
