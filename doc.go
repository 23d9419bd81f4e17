// Package pyoframe provides an algebraic modeling layer for linear and
// quadratic optimization problems.
//
// Variables, expressions and constraints are defined over multi-dimensional
// index sets and combined with relational-join semantics; a Model flattens
// them into the sparse (variable id, coefficient) term lists a numerical
// solver consumes through the solver.Adapter boundary.
//
// The package does not solve anything itself: solver backends are plugged in
// through the solver package registry.
package pyoframe

import "github.com/blang/semver/v4"

var Version = semver.MustParse("0.1.0")
