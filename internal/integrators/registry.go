package integrators

import (
	"fmt"
	"sort"

	"github.com/san-kum/dynenv/internal/dynamo"
)

// Default is used when a model does not name an integrator.
const Default = "semi_euler"

var factories = map[string]func() dynamo.Integrator{
	"euler":      func() dynamo.Integrator { return NewEuler() },
	"semi_euler": func() dynamo.Integrator { return NewSemiImplicitEuler() },
	"rk4":        func() dynamo.Integrator { return NewRK4() },
	"verlet":     func() dynamo.Integrator { return NewVerlet() },
}

// ByName returns a fresh integrator. The empty name selects Default.
func ByName(name string) (dynamo.Integrator, error) {
	if name == "" {
		name = Default
	}
	fn, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(), nil
}

func Names() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
