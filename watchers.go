package spindle

import "fmt"

// RegisterWatcher appends fn to name's watcher list. Nothing fires at
// registration time, and name does not need to exist as a key yet;
// watchers for keys written later simply wait for the first write.
func (rt *Runtime) RegisterWatcher(name string, fn Watcher) {
	rt.watchers[name] = append(rt.watchers[name], fn)
}

// RegisterWatchers registers every entry of defs.
func (rt *Runtime) RegisterWatchers(defs Watchers) {
	for name, fn := range defs {
		rt.RegisterWatcher(name, fn)
	}
}

// notify invokes name's watchers in registration order with the new
// value. A watcher error stops the walk; later watchers do not run and
// the error surfaces from the write that triggered the notification.
func (rt *Runtime) notify(name string, value any) error {
	for _, fn := range rt.watchers[name] {
		if err := fn(value); err != nil {
			return fmt.Errorf("watcher %q: %w", name, err)
		}
	}
	return nil
}
