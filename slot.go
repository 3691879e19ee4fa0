package domainpool

import "sync"

// Callback is a unit of work handed to exactly one idle worker. It runs on
// that worker's own goroutine before the worker returns to the idle set.
type Callback func(workerID int)

// slot is the per-worker record: exactly one worker goroutine owns it. The
// mutex guards the mailbox; the condition variable is bound to that same
// mutex. nextIdx is scratch state, valid only while the slot is linked into
// the idle stack.
type slot struct {
	id int

	mu      sync.Mutex
	cond    *sync.Cond
	mailbox Callback

	nextIdx uint64

	// Padding keeps the hot mutex/mailbox fields of neighboring slots off
	// the same cache line under contention.
	_ [24]byte
}

func newSlot(id int) *slot {
	s := &slot{id: id}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// publish installs cb into the mailbox if it is empty. Returns false if the
// mailbox already held a callback — the worker was already claimed by
// another producer, or had not yet drained a prior wakeup.
func (s *slot) publish(cb Callback) bool {
	s.mu.Lock()
	if s.mailbox != nil {
		s.mu.Unlock()
		return false
	}
	s.mailbox = cb
	s.mu.Unlock()
	s.cond.Signal()
	return true
}

// waitForMailbox blocks until the mailbox is non-empty or until reports
// true, whichever first, then drains and returns whatever the mailbox held
// (nil if until fired with nothing published). until is re-evaluated under
// the lock on every wakeup, closing the race between a producer setting a
// condition and calling wakeup, and the caller re-entering the wait.
func (s *slot) waitForMailbox(until func() bool) Callback {
	s.mu.Lock()
	for s.mailbox == nil && !until() {
		s.cond.Wait()
	}
	cb := s.mailbox
	s.mailbox = nil
	s.mu.Unlock()
	return cb
}

// park is waitForMailbox with no early-exit predicate: the worker's
// ordinary idle wait, used by the main loop.
func (s *slot) park() Callback {
	return s.waitForMailbox(neverReady)
}

func neverReady() bool { return false }
