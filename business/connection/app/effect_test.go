package app

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestEffect_RunsOnlyOnChange(t *testing.T) {
	var runs, cleanups []int

	e := newEffect(func(d int) func() {
		runs = append(runs, d)
		return func() { cleanups = append(cleanups, d) }
	})

	e.update(1)
	e.update(1)
	e.update(2)
	e.update(2)

	if len(runs) != 2 || runs[0] != 1 || runs[1] != 2 {
		t.Errorf("runs = %v, want [1 2]", runs)
	}
	if len(cleanups) != 1 || cleanups[0] != 1 {
		t.Errorf("cleanups = %v, want [1]", cleanups)
	}

	e.close()
	e.update(3)

	if len(cleanups) != 2 || cleanups[1] != 2 {
		t.Errorf("cleanups after close = %v, want [1 2]", cleanups)
	}
	if len(runs) != 2 {
		t.Errorf("update after close ran the effect: %v", runs)
	}
}

func TestEffect_FirstRunWithZeroDeps(t *testing.T) {
	runs := 0
	e := newEffect(func(struct{ a, b bool }) func() {
		runs++
		return nil
	})

	e.update(struct{ a, b bool }{})
	if runs != 1 {
		t.Errorf("runs = %d, zero deps must still run once", runs)
	}
	e.close()
	e.close()
}

func TestEffect_RefreshAppliesReadsInOrder(t *testing.T) {
	var version atomic.Int64
	var last int64

	e := newEffect(func(d int64) func() {
		if d < last {
			t.Errorf("effect ran with %d after %d", d, last)
		}
		last = d
		return nil
	})

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				e.refresh(func() int64 { return version.Add(1) })
			}
		}()
	}
	wg.Wait()

	if last != version.Load() {
		t.Errorf("last applied = %d, want latest read %d", last, version.Load())
	}
}
