package miniapp

import (
	"sync"
	"time"
)

// Debouncer keeps at most one scheduled call per key. Scheduling again for a
// key stops and replaces the previous call instead of queueing behind it.
type Debouncer struct {
	sched Scheduler

	mu      sync.Mutex
	next    uint64
	entries map[int64]*debounceEntry
}

type debounceEntry struct {
	gen   uint64
	timer Timer
	fn    func(gen uint64)
	fired bool
}

func NewDebouncer(sched Scheduler) *Debouncer {
	if sched == nil {
		sched = SystemScheduler
	}
	return &Debouncer{sched: sched, entries: make(map[int64]*debounceEntry)}
}

// Schedule arranges fn(gen) to run after delay. replaced reports whether a
// call that had not fired yet was superseded.
func (d *Debouncer) Schedule(key int64, delay time.Duration, fn func(gen uint64)) (gen uint64, replaced bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	// A callback that lost the race with Stop sees the new generation and skips.
	if prev, ok := d.entries[key]; ok && !prev.fired {
		prev.timer.Stop()
		replaced = true
	}
	d.next++
	gen = d.next
	e := &debounceEntry{gen: gen, fn: fn}
	e.timer = d.sched.AfterFunc(delay, func() {
		if d.markFired(key, gen) {
			fn(gen)
		}
	})
	d.entries[key] = e
	return gen, replaced
}

// Cancel drops the pending call for key. It returns false when nothing was
// pending or the call already fired.
func (d *Debouncer) Cancel(key int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	e, ok := d.entries[key]
	if !ok || e.fired {
		return false
	}
	e.timer.Stop()
	delete(d.entries, key)
	return true
}

// Pending reports whether key has a call waiting for its delay to elapse.
func (d *Debouncer) Pending(key int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, ok := d.entries[key]
	return ok && !e.fired
}

// Current reports whether gen is still the latest call scheduled for key.
func (d *Debouncer) Current(key int64, gen uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, ok := d.entries[key]
	return ok && e.gen == gen
}

// Done clears the record for key if gen is still the latest call and reports
// whether it was.
func (d *Debouncer) Done(key int64, gen uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, ok := d.entries[key]
	if !ok || e.gen != gen {
		return false
	}
	delete(d.entries, key)
	return true
}

// Flush fires every pending call now, each on its own goroutine, and returns
// how many were fired.
func (d *Debouncer) Flush() int {
	d.mu.Lock()
	var run []func()
	for _, e := range d.entries {
		if e.fired {
			continue
		}
		e.timer.Stop()
		e.fired = true
		fn, gen := e.fn, e.gen
		run = append(run, func() { fn(gen) })
	}
	d.mu.Unlock()

	for _, f := range run {
		go f()
	}
	return len(run)
}

func (d *Debouncer) markFired(key int64, gen uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, ok := d.entries[key]
	if !ok || e.gen != gen || e.fired {
		return false
	}
	e.fired = true
	return true
}
