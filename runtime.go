// Package spindle is a keyed reactive-state runtime: a store of named
// values where some are plain data, some are computed from other values,
// and watcher callbacks fire whenever a named value changes. All
// propagation is synchronous; a write returns only after every dependent
// recomputation and watcher notification it caused has finished.
package spindle

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

// Evaluator derives the value of a computed key. Reads it performs through
// the owning runtime's Store are recorded as dependency edges.
type Evaluator func() (any, error)

// Watcher is invoked with the newly stored value after a key changes.
type Watcher func(value any) error

// Computeds maps computed key names to their evaluators, for bulk
// registration.
type Computeds map[string]Evaluator

// Watchers maps key names to watcher callbacks, for bulk registration.
type Watchers map[string]Watcher

var (
	ErrDestroyed = errors.New("spindle: store destroyed")
	ErrCycle     = errors.New("spindle: computed dependency cycle")
)

// Runtime owns one store and its registries. Instances are fully
// independent; nothing here is process global. A single logical thread of
// control must drive all reads and writes.
type Runtime struct {
	store     *Store
	graph     *depGraph
	computeds map[string]Evaluator
	watchers  map[string][]Watcher

	// Evaluation stack: the computed evaluators currently executing,
	// innermost last. Reads attribute dependency edges to the top entry.
	// The set mirrors the stack for O(1) reentrancy checks.
	evalStack  []string
	evaluating mapset.Set[string]
}

// New builds a runtime around a copy of initial. Computed and watcher
// registrations are added afterward, incrementally.
func New(initial map[string]any) *Runtime {
	data := make(map[string]any, len(initial))
	for k, v := range initial {
		data[k] = v
	}
	rt := &Runtime{
		graph:      newDepGraph(),
		computeds:  map[string]Evaluator{},
		watchers:   map[string][]Watcher{},
		evaluating: mapset.NewThreadUnsafeSet[string](),
	}
	rt.store = &Store{rt: rt, data: data}
	return rt
}

// Store returns the live store accessor. All external reads and writes of
// named values go through it.
func (rt *Runtime) Store() *Store {
	return rt.store
}

// Destroy releases the backing store. Afterward Set returns ErrDestroyed,
// Get panics with it, and registrations fail.
func (rt *Runtime) Destroy() {
	rt.store.data = nil
	rt.computeds = nil
	rt.watchers = nil
}

func (rt *Runtime) currentDependent() (string, bool) {
	if len(rt.evalStack) == 0 {
		return "", false
	}
	return rt.evalStack[len(rt.evalStack)-1], true
}

// track runs eval with name pushed on the evaluation stack, so reads made
// by eval register as dependencies of name. Correct under nesting: an
// evaluation triggered before eval returns attributes its own reads to
// itself, and attribution falls back to name once it completes.
func (rt *Runtime) track(name string, eval Evaluator) (any, error) {
	rt.evalStack = append(rt.evalStack, name)
	rt.evaluating.Add(name)
	defer func() {
		rt.evalStack = rt.evalStack[:len(rt.evalStack)-1]
		rt.evaluating.Remove(name)
	}()
	return eval()
}

// recompute forces name's evaluator to run, stores the result, notifies
// name's watchers and propagates to name's own dependents. This is the
// write path for computed keys; whatever value the caller supplied to Set
// has already been discarded.
func (rt *Runtime) recompute(name string) error {
	if rt.evaluating.Contains(name) {
		// Cyclic computed dependencies are a caller contract violation.
		// Fail loudly instead of recursing until stack exhaustion.
		return fmt.Errorf("%w: %s -> %s", ErrCycle, strings.Join(rt.evalStack, " -> "), name)
	}
	value, err := rt.track(name, rt.computeds[name])
	if err != nil {
		return fmt.Errorf("computed %q: %w", name, err)
	}
	rt.store.data[name] = value
	if err := rt.notify(name, value); err != nil {
		return err
	}
	return rt.cascade(name)
}

// cascade forces recomputation of every computed key that read name during
// its last evaluation, in the order the edges were first recorded. Each
// step is a synthetic write, so watchers and further dependents propagate
// transitively, depth first. No rollback: an error leaves earlier steps
// applied and later ones unreached.
func (rt *Runtime) cascade(name string) error {
	for _, dependent := range rt.graph.dependents(name) {
		if err := rt.store.Set(dependent, nil); err != nil {
			return err
		}
	}
	return nil
}

// RegisterComputed stores or replaces the evaluator for name, then forces
// an initial evaluation so the key holds a value and its first dependency
// edges exist. Re-registration replaces the evaluator only; edges recorded
// by the previous evaluator remain (edges are additive, never pruned).
func (rt *Runtime) RegisterComputed(name string, eval Evaluator) error {
	if rt.store.data == nil {
		return ErrDestroyed
	}
	rt.computeds[name] = eval
	return rt.store.Set(name, nil)
}

// RegisterComputeds registers every entry of defs. Entries are processed
// in lexical name order so the initial evaluations are deterministic;
// register keys one at a time when a different order matters.
func (rt *Runtime) RegisterComputeds(defs Computeds) error {
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := rt.RegisterComputed(name, defs[name]); err != nil {
			return err
		}
	}
	return nil
}
