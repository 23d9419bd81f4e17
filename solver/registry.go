package solver

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/eduardosalaz/pyoframe/logger"
)

// ErrNotRegistered is returned when no backend carries the requested name.
var ErrNotRegistered = errors.New("solver not registered")

// Constructor builds a fresh adapter, failing if the backend is unavailable
// (missing library, license, connection).
type Constructor func() (Adapter, error)

var (
	mu       sync.RWMutex
	backends = make(map[string]Constructor)
	order    []string // registration order, used by Detect
)

// Register makes a backend available under name. Registering the same name
// twice keeps the last constructor and logs a warning.
func Register(name string, c Constructor) {
	mu.Lock()
	defer mu.Unlock()
	if _, ok := backends[name]; ok {
		log := logger.Logger()
		log.Warn().Str("name", name).Msg("solver backend registered twice, keeping the last one")
	} else {
		order = append(order, name)
	}
	backends[name] = c
}

// Names returns the registered backend names in registration order.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	return slices.Clone(order)
}

// New constructs the named backend.
func New(name string) (Adapter, error) {
	mu.RLock()
	c, ok := backends[name]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (registered: %v)", ErrNotRegistered, name, Names())
	}
	a, err := c()
	if err != nil {
		return nil, fmt.Errorf("solver %q: %w", name, err)
	}
	return a, nil
}

// Detect tries the given backends in order (all registered ones when prefer
// is empty) and returns the first that constructs, along with its name. When
// every constructor fails the last failure is surfaced.
func Detect(prefer []string) (Adapter, string, error) {
	if len(prefer) == 0 {
		prefer = Names()
	}
	var lastErr error
	for _, name := range prefer {
		a, err := New(name)
		if err == nil {
			return a, name, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = errors.New("no solver backends registered")
	}
	return nil, "", fmt.Errorf("could not find a usable solver: %w", lastErr)
}
