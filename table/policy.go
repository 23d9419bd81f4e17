package table

// Unmatched decides what happens to index tuples present on one side of a
// join but absent on the other. A strategy attaches to one operand and
// governs that operand's own unmatched rows for exactly one operation.
type Unmatched uint8

const (
	// UnmatchedUnset defers the decision to the caller; the join layer never
	// sees it (callers resolve it to UnmatchedError or UnmatchedKeep).
	UnmatchedUnset Unmatched = iota
	// UnmatchedDrop discards the unmatched rows.
	UnmatchedDrop
	// UnmatchedKeep retains the unmatched rows. The missing side contributes
	// nothing; operations that must pair a kept row with a missing operand
	// fail instead.
	UnmatchedKeep
	// UnmatchedError fails the join, naming the offending tuples.
	UnmatchedError
)

func (u Unmatched) String() string {
	switch u {
	case UnmatchedUnset:
		return "unset"
	case UnmatchedDrop:
		return "drop"
	case UnmatchedKeep:
		return "keep"
	case UnmatchedError:
		return "error"
	default:
		return "unknown"
	}
}
