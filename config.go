package pyoframe

import "sync"

// Config holds the process-wide engine options. Models copy the current
// configuration at construction, so changing it afterwards only affects
// models (and expressions) created later.
type Config struct {
	// DefaultSolver names the backend NewModel uses when none is requested.
	// Empty means auto-detection over the registered backends.
	DefaultSolver string

	// DisableUnmatchedChecks makes unresolved unmatched index tuples behave
	// as if a keep strategy had been requested instead of failing.
	DisableUnmatchedChecks bool

	// FloatToStrPrecision is the number of significant digits used when
	// printing coefficients. Zero or negative means full precision.
	FloatToStrPrecision int

	// PrintUsesVariableNames resolves variable ids to their registered names
	// when printing expressions of a bound model.
	PrintUsesVariableNames bool

	// PrintMaxLineLength truncates printed expression lines.
	PrintMaxLineLength int

	// PrintMaxLines truncates the number of printed expression lines.
	PrintMaxLines int

	// PrintMaxSetElements is the number of elements shown when printing a
	// set; further elements are elided.
	PrintMaxSetElements int

	// IntegerTolerance bounds how far the solution value of an integer or
	// binary variable may sit from an integer and still be snapped to it.
	// Values further out surface a rounding-ambiguity error. Zero disables
	// snapping entirely and returns raw values.
	IntegerTolerance float64
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		FloatToStrPrecision:    5,
		PrintUsesVariableNames: true,
		PrintMaxLineLength:     80,
		PrintMaxLines:          15,
		PrintMaxSetElements:    50,
		IntegerTolerance:       1e-8,
	}
}

var (
	cfgMu  sync.RWMutex
	config = DefaultConfig()
)

// SetConfig replaces the process-wide configuration.
func SetConfig(c Config) {
	cfgMu.Lock()
	config = c
	cfgMu.Unlock()
}

// GetConfig returns the current process-wide configuration.
func GetConfig() Config {
	cfgMu.RLock()
	defer cfgMu.RUnlock()
	return config
}

// ResetConfig restores every option to its default as a group.
func ResetConfig() {
	SetConfig(DefaultConfig())
}
