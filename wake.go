package domainpool

import "fmt"

// noopCallback is installed by Wakeup when a worker's mailbox is empty; it
// exists only to unpark the worker so it can re-observe whatever external
// state it is polling.
func noopCallback(int) {}

// TrySpawn opportunistically hands cb to an idle worker. It returns false
// immediately if no worker appears available, or if the one it found was
// claimed by a racing producer first — it never loops on CAS failure.
// Callers that want retry semantics compose it with their own placement
// strategy (see OverflowQueue.Dispatch).
func (p *Pool) TrySpawn(cb Callback) bool {
	if p.stack == nil || p.terminated.Load() {
		return false
	}
	id, ok := p.stack.pop()
	if !ok {
		return false
	}
	return p.slots[id].publish(cb)
}

// HasIdleWorker reports whether an idle worker is currently on the stack: a
// relaxed load and a comparison, nothing else. Useful for callers that want
// to test for idle capacity without attempting a placement.
func (p *Pool) HasIdleWorker() bool {
	return p.stack != nil && p.stack.hasIdle()
}

// Wakeup ensures the worker named by id is not parked. If its mailbox is
// empty, a no-op callback is installed and it is signaled; if the mailbox
// already held a callback, this is a no-op. It does not pop id from the
// idle stack — the worker discovers the mailbox is non-empty on its own,
// drains it, and re-pushes itself (or pushes fresh) once done.
func (p *Pool) Wakeup(id int) {
	if !p.IsManaged(id) {
		failStopInvalidID("Wakeup", id)
	}
	p.slots[id].publish(noopCallback)
}

// Idle parks the calling worker until until(ready) becomes true, running
// whatever callbacks arrive in the meantime. The caller MUST be a managed
// worker goroutine; Self() enforces that with a fail-stop panic otherwise.
//
// until is re-checked under the slot's lock on every wakeup, which closes
// the race where a producer mutates ready and calls Wakeup between the
// caller's last check and the point it actually parks.
func (p *Pool) Idle(ready interface{}, until func(ready interface{}) bool) {
	id := p.Self()
	s := p.slots[id]
	for !until(ready) {
		p.stack.push(id)
		cb := s.waitForMailbox(func() bool { return until(ready) })
		if cb != nil {
			cb(id)
		}
	}
}

// runWorker is the body of every non-main managed worker goroutine: push
// self idle, wait for a callback, drain it, run it, repeat.
//
// A callback that panics is recorded for the eventual Shutdown aggregate
// and this worker's goroutine exits for good — the roster never replaces
// it. A callback that returns normally causes the loop to check the
// termination flag before looping back to park again, standing in for the
// cross-frame unwind Go has no cheap equivalent of.
func (p *Pool) runWorker(id int) {
	defer close(p.owner[id])
	s := p.slots[id]
	p.selfIndex.Store(goroutineID(), id)
	p.markReady()

	for {
		p.stack.push(id)
		cb := s.park()
		if !p.runCallback(id, cb) {
			return
		}
		if p.terminated.Load() {
			return
		}
	}
}

// runCallback runs cb on the calling (worker) goroutine, recovering a panic
// into the pool's failure list rather than letting it crash the process.
// Returns false if cb raised.
func (p *Pool) runCallback(id int, cb Callback) (ok bool) {
	ok = true
	defer func() {
		if r := recover(); r != nil {
			ok = false
			p.recordFailure(fmt.Errorf("domainpool: worker %d: %v", id, r))
		}
	}()
	cb(id)
	return
}

// Package-level façade over the default pool.

// TrySpawn hands cb to an idle worker on the default pool.
func TrySpawn(cb Callback) bool { return defaultPool.TrySpawn(cb) }

// HasIdleWorker is the quick-check on the default pool.
func HasIdleWorker() bool { return defaultPool.HasIdleWorker() }

// Wakeup unparks worker id on the default pool.
func Wakeup(id int) { defaultPool.Wakeup(id) }

// Idle parks the calling worker on the default pool.
func Idle(ready interface{}, until func(ready interface{}) bool) {
	defaultPool.Idle(ready, until)
}

// Terminated reports whether the default pool's shutdown has begun.
func Terminated() bool { return defaultPool.terminated.Load() }
