package app

import "sync"

// effect runs fn whenever its dependencies change. The cleanup returned by
// the previous run is called before the next run and on close. fn must not
// block or call update on the same effect.
type effect[D comparable] struct {
	mu      sync.Mutex
	fn      func(D) func()
	deps    D
	ran     bool
	closed  bool
	cleanup func()
}

func newEffect[D comparable](fn func(D) func()) *effect[D] {
	return &effect[D]{fn: fn}
}

// update reruns the effect if deps differ from the last run.
func (e *effect[D]) update(deps D) {
	e.refresh(func() D { return deps })
}

// refresh calls read under the effect's lock and reruns the effect if the
// result differs from the last run. Concurrent callers apply their reads in
// the order they were taken.
func (e *effect[D]) refresh(read func() D) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}
	deps := read()
	if e.ran && e.deps == deps {
		return
	}

	if e.cleanup != nil {
		e.cleanup()
		e.cleanup = nil
	}

	e.deps = deps
	e.ran = true
	e.cleanup = e.fn(deps)
}

// close runs the pending cleanup. Later updates are ignored.
func (e *effect[D]) close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}
	e.closed = true

	if e.cleanup != nil {
		e.cleanup()
		e.cleanup = nil
	}
}
