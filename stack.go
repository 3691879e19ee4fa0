package domainpool

import "go.uber.org/atomic"

// idleStack is the process-wide Treiber stack of idle worker ids: a single
// padded atomic Tagged Index, initialized to none.
type idleStack struct {
	top atomic.Uint64
	_   [56]byte // isolate top from unrelated fields on its cache line

	slots []*slot // shared with the roster; indexed by worker id
}

func newIdleStack(slots []*slot) *idleStack {
	st := &idleStack{slots: slots}
	st.top.Store(none)
	return st
}

// push links worker id onto the idle stack. Called by the worker itself
// when it becomes idle; retries under CAS contention until it succeeds —
// pushing your own id always eventually wins.
func (st *idleStack) push(id int) {
	self := st.slots[id]
	for {
		old := st.top.Load()
		self.nextIdx = targetOf(old)
		next := makeTagged(old, uint64(id))
		if st.top.CompareAndSwap(old, next) {
			return
		}
	}
}

// pop removes and returns the top idle worker id. It never retries: a
// failed CAS is reported back as "contended," and the caller (try_spawn)
// decides whether that is fatal to its attempt or just advisory.
func (st *idleStack) pop() (id int, ok bool) {
	old := st.top.Load()
	idx := targetOf(old)
	if idx == none {
		return 0, false
	}
	next := st.slots[idx].nextIdx
	newTop := makeTagged(old, next)
	if !st.top.CompareAndSwap(old, newTop) {
		return 0, false
	}
	return int(idx), true
}

// hasIdle is the quick-check property: a relaxed load and a compare,
// nothing else. No fence, no cacheline write — the central reason a single
// shared stack is acceptable despite its apparent contention.
func (st *idleStack) hasIdle() bool {
	return targetOf(st.top.Load()) != none
}
