// Package strategy defines the Strategy interface the backtest engine
// drives and a registry of the built-in implementations.
package strategy

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"polysim/internal/types"
)

// Strategy reacts to market snapshots with trade signals. One instance
// serves one backtest run; implementations keep per-run state and are
// not safe for concurrent use.
type Strategy interface {
	// Name returns the unique identifier for this strategy.
	Name() string

	// Initialize applies run parameters before the first frame. An error
	// aborts the run.
	Initialize(params map[string]interface{}) error

	// GenerateSignals inspects the tradable snapshots of one frame and
	// returns zero or more signals.
	GenerateSignals(snapshots []types.Snapshot) ([]types.Signal, error)

	// ValidateSignal is the strategy's final veto before a signal is
	// turned into a position.
	ValidateSignal(sig types.Signal) bool

	// PositionSize returns the size in units for a signal given current
	// account equity. Zero or negative rejects the signal.
	PositionSize(sig types.Signal, equity float64) float64

	// OnSignalExecuted is called after a position opened from the signal
	// has been closed. An error aborts the run.
	OnSignalExecuted(sig types.Signal, res types.ExecutionResult) error
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]func() Strategy)
)

// Register adds a strategy constructor under its name. It panics on a
// duplicate name so collisions surface at startup.
func Register(name string, constructor func() Strategy) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("strategy %q registered twice", name))
	}
	registry[name] = constructor
}

// New creates a fresh instance of the named strategy
func New(name string) (Strategy, error) {
	registryMu.RLock()
	constructor, ok := registry[name]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown strategy %q (known: %s)", name, strings.Join(Names(), ", "))
	}
	return constructor(), nil
}

// Names returns the sorted names of all registered strategies
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
