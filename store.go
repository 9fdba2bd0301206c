package spindle

// Store is the interception layer over the backing key/value table.
// External code and computed evaluators only touch named values through
// its accessors; the backing table is never handed out.
type Store struct {
	rt   *Runtime
	data map[string]any
}

// Get returns the current value for name, or nil if it was never written.
// If a computed evaluator is currently executing, the read is recorded as
// a dependency edge from name to that evaluator. Reading never mutates the
// store and never triggers evaluation. Get panics with ErrDestroyed after
// the runtime has been destroyed.
func (s *Store) Get(name string) any {
	if s.data == nil {
		panic(ErrDestroyed)
	}
	if dependent, ok := s.rt.currentDependent(); ok {
		s.rt.graph.record(name, dependent)
	}
	return s.data[name]
}

// Set writes value under name. For a data key the value is stored as
// given, name's watchers are notified with it, and every computed that
// read name during its last evaluation is recomputed. For a computed key
// the supplied value is only the invalidation trigger: the evaluator runs
// and its return value is what gets stored and notified. All of it happens
// before Set returns.
func (s *Store) Set(name string, value any) error {
	if s.data == nil {
		return ErrDestroyed
	}
	if _, ok := s.rt.computeds[name]; ok {
		return s.rt.recompute(name)
	}
	s.data[name] = value
	if err := s.rt.notify(name, value); err != nil {
		return err
	}
	return s.rt.cascade(name)
}

// Len reports how many keys currently hold a value.
func (s *Store) Len() int {
	return len(s.data)
}
