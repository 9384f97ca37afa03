package lifecycle

import (
	"errors"
	"fmt"
	"slices"

	"github.com/structra/assignment/internal/buildconfig"
)

// ErrUnknownTask is returned when a requested task is not declared.
var ErrUnknownTask = errors.New("unknown task")

// Plan returns the dependency closure of targets in execution order.
// Dependencies come before their dependents; ties keep the order in which
// targets and depends_on lists are declared.
func Plan(cfg *buildconfig.Config, targets ...string) ([]string, error) {
	var order []string
	seen := make(map[string]bool)

	var visit func(name string) error
	visit = func(name string) error {
		if seen[name] {
			return nil
		}
		seen[name] = true
		t, ok := cfg.Task(name)
		if !ok {
			return fmt.Errorf("%w %q", ErrUnknownTask, name)
		}
		for _, dep := range t.DependsOn {
			if err := visit(dep); err != nil {
				return err
			}
		}
		order = append(order, name)
		return nil
	}

	for _, target := range targets {
		if err := visit(target); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// finalizers maps each finalizer task to the planned tasks it finalizes.
func finalizers(cfg *buildconfig.Config, plan []string) map[string][]string {
	out := make(map[string][]string)
	for _, name := range plan {
		t, _ := cfg.Task(name)
		for _, fin := range t.FinalizedBy {
			if !slices.Contains(out[fin], name) {
				out[fin] = append(out[fin], name)
			}
		}
	}
	return out
}
