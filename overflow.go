package domainpool

import (
	"sync"

	"github.com/gammazero/deque"
)

// OverflowQueue implements the placement-retry policy left to callers:
// TrySpawn never retries a failed CAS or a claimed worker, so a caller that
// wants its callback to land eventually needs somewhere to put it in the
// meantime. OverflowQueue is that somewhere — a FIFO backlog, worked
// through by the workers that Dispatch nudges, or handed out explicitly
// with Drain.
//
// It is backed by gammazero/deque, a ring-buffer deque, for the same
// reason gammazero/workerpool uses one internally for its own task queue:
// cheap growth and shrink without the copy-on-grow churn of a plain slice
// queue under bursty enqueue/dequeue.
type OverflowQueue struct {
	mu sync.Mutex
	dq deque.Deque
}

// NewOverflowQueue returns an empty overflow backlog.
func NewOverflowQueue() *OverflowQueue {
	return &OverflowQueue{}
}

// Len reports the number of callbacks currently queued.
func (q *OverflowQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dq.Len()
}

func (q *OverflowQueue) enqueue(cb Callback) {
	q.mu.Lock()
	q.dq.PushBack(cb)
	q.mu.Unlock()
}

func (q *OverflowQueue) dequeue() (Callback, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.dq.Len() == 0 {
		return nil, false
	}
	cb := q.dq.PopFront().(Callback)
	return cb, true
}

// Dispatch tries to hand cb straight to an idle worker via TrySpawn; on a
// miss (no idle worker, or it lost the race) it queues cb and, on every id
// whose mailbox is empty, publishes a callback that runs queued work until
// the queue is empty, so a nudged worker polls this queue before
// re-parking. A worker whose mailbox is already full is not nudged.
//
// This stays entirely outside wake.go, composed from TrySpawn/Wakeup rather
// than baked into the core wake protocol.
func (q *OverflowQueue) Dispatch(p *Pool, cb Callback) error {
	if p.stack == nil {
		return ErrNotPrepared
	}
	if p.terminated.Load() {
		return ErrAlreadyTerminated
	}
	if p.TrySpawn(cb) {
		return nil
	}
	q.enqueue(cb)
	poll := func(id int) {
		for {
			queued, ok := q.dequeue()
			if !ok {
				return
			}
			queued(id)
		}
	}
	for _, id := range p.All() {
		p.slots[id].publish(poll)
	}
	return nil
}

// Drain hands queued callbacks, oldest first, to idle workers via TrySpawn
// until the queue is empty or a TrySpawn misses; the callback that missed
// goes back to the front of the queue. It is intended to be called by a
// worker between tasks (e.g. from inside a callback, or via Idle's until
// predicate) to make progress on the backlog instead of leaving it for
// someone else entirely.
func (q *OverflowQueue) Drain(p *Pool) {
	for {
		cb, ok := q.dequeue()
		if !ok {
			return
		}
		if !p.TrySpawn(cb) {
			q.mu.Lock()
			q.dq.PushFront(cb)
			q.mu.Unlock()
			return
		}
	}
}
