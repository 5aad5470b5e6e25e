package agent

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// Type represents a specific type of Trainer. Trainers of a registered
// Type can be created by name, for example from the command line.
type Type string

// Options holds the arguments passed to a Factory
type Options struct {
	EnsembleSize int
	LogDir       string
	Seed         uint64
	Logger       zerolog.Logger
}

// Factory creates a Trainer with the given Options
type Factory func(Options) (Trainer, error)

// Registered types with the package. Once a Type has been registered
// with this map, a Trainer with that type can be created.
//
// No Type's are registered with this package upon initialization.
// Each separate package is in charge of registering its Type with
// the package separately to avoid circular imports.
var (
	mu              sync.RWMutex
	registeredTypes = make(map[Type]Factory)
)

// Register registers a Trainer Type with the Factory used to create
// Trainers of that Type. Registering a Type twice replaces its Factory.
func Register(trainerType Type, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	registeredTypes[trainerType] = f
}

// Create creates a Trainer of a registered Type
func Create(trainerType Type, opts Options) (Trainer, error) {
	mu.RLock()
	f, ok := registeredTypes[trainerType]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("create: no such trainer type %q, have %v",
			trainerType, Registered())
	}
	return f(opts)
}

// Registered returns the registered Types in sorted order
func Registered() []Type {
	mu.RLock()
	defer mu.RUnlock()

	types := make([]Type, 0, len(registeredTypes))
	for t := range registeredTypes {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
