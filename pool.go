package domainpool

import (
	"runtime"
	"sync"

	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// mainID is the worker id reserved for the thread that calls Prepare.
const mainID = 0

// Pool owns the roster, the idle stack, the termination flag, and the init
// latch, all behind one lazily-initialized struct. Prepare is its one-shot
// constructor. defaultPool is the process-wide instance behind the
// package-level functions; other Pools can be created independently.
type Pool struct {
	initialized atomic.Bool
	initMu      sync.Mutex

	slots []*slot       // roster: indexed by worker id
	next  []int         // circular sibling list: next[id] -> next worker id
	owner []chan struct{} // closed when the owning goroutine returns

	stack *idleStack

	readyMu    sync.Mutex
	readyCond  *sync.Cond
	readyCount int
	wantReady  int

	terminated atomic.Bool
	exitOnce   sync.Once

	failuresMu sync.Mutex
	failures   []error

	selfIndex sync.Map // goroutineID() -> worker id

	logger *zap.Logger
}

var defaultPool = &Pool{}

// recommendedCount is the default roster size: one worker per schedulable
// OS thread, same default a SetNumShards-style knob would pick.
func recommendedCount() int {
	n := runtime.GOMAXPROCS(0)
	if n < 1 {
		n = 1
	}
	return n
}

// Prepare creates numDomains workers the first time it is called; every
// later call on the same Pool is a no-op. numDomains is clamped into
// [1, recommendedCount()].
func (p *Pool) Prepare(numDomains int) {
	p.PrepareOptional(&numDomains)
}

// PrepareOptional is Prepare with an optional count: nil means "use the
// recommended count."
func (p *Pool) PrepareOptional(numDomains *int) {
	if !p.initialized.CompareAndSwap(false, true) {
		return
	}

	n := recommendedCount()
	if numDomains != nil {
		n = *numDomains
	}
	if n < 1 {
		n = 1
	}
	if n > recommendedCount() {
		n = recommendedCount()
	}
	if uint64(n) >= idxMask {
		panic(&invalidNumDomainsError{numDomains: n})
	}

	if p.logger == nil {
		p.logger = zap.NewNop()
	}

	p.initMu.Lock()
	defer p.initMu.Unlock()

	p.slots = make([]*slot, n)
	p.next = make([]int, n)
	p.owner = make([]chan struct{}, n)
	for id := 0; id < n; id++ {
		p.slots[id] = newSlot(id)
		p.owner[id] = make(chan struct{})
	}
	p.stack = newIdleStack(p.slots)
	p.readyCond = sync.NewCond(&p.readyMu)
	p.wantReady = n - 1 // everyone but main

	// Splice every id into one circular sibling list, main first.
	for id := 0; id < n; id++ {
		p.next[id] = (id + 1) % n
	}

	p.selfIndex.Store(goroutineID(), mainID)

	p.logger.Info("prepared worker pool", zap.Int("num_domains", n))

	for id := 1; id < n; id++ {
		go p.runWorker(id)
	}

	p.readyMu.Lock()
	for p.readyCount < p.wantReady {
		p.readyCond.Wait()
	}
	p.readyMu.Unlock()

	p.registerExitHook()
}

// Self returns the id of the worker calling it. It is a fail-stop
// precondition violation to call it from a goroutine that is not a
// managed worker.
func (p *Pool) Self() int {
	v, ok := p.selfIndex.Load(goroutineID())
	if !ok {
		failStopNotManaged("Self")
	}
	return v.(int)
}

// All returns a snapshot of every worker id, ordered along the sibling
// cycle starting at main.
func (p *Pool) All() []int {
	if p.next == nil {
		return nil
	}
	ids := make([]int, 0, len(p.next))
	id := mainID
	for {
		ids = append(ids, id)
		id = p.next[id]
		if id == mainID {
			break
		}
	}
	return ids
}

// IsManaged reports whether id names a worker in this roster.
func (p *Pool) IsManaged(id int) bool {
	return id >= 0 && id < len(p.slots)
}

// SetLogger installs a structured logger used by the lifecycle layer
// (pool preparation, shutdown aggregation). Must be called before
// Prepare; a no-op logger is used otherwise.
func (p *Pool) SetLogger(logger *zap.Logger) {
	p.logger = logger
}

func (p *Pool) markReady() {
	p.readyMu.Lock()
	p.readyCount++
	if p.readyCount >= p.wantReady {
		p.readyCond.Broadcast()
	}
	p.readyMu.Unlock()
}

func (p *Pool) recordFailure(err error) {
	p.failuresMu.Lock()
	p.failures = append(p.failures, err)
	p.failuresMu.Unlock()
}

// Shutdown sets the termination flag, wakes every worker, and joins all of
// their goroutines. It is safe to call more than once; only the first call
// does anything. Returns the aggregate of every worker-raised panic
// collected since Prepare, most recently recorded first. The order follows
// when each panic was recorded, not the order in which workers are joined,
// so it is not deterministic across workers.
func (p *Pool) Shutdown() error {
	var aggregate error
	p.exitOnce.Do(func() {
		p.terminated.Store(true)
		for _, s := range p.slots {
			p.Wakeup(s.id)
		}
		for id := len(p.owner) - 1; id >= 0; id-- {
			if id == mainID {
				continue
			}
			<-p.owner[id]
		}
		p.failuresMu.Lock()
		errs := append([]error(nil), p.failures...)
		p.failuresMu.Unlock()
		for i := len(errs) - 1; i >= 0; i-- {
			aggregate = multierr.Append(aggregate, errs[i])
		}
		if aggregate != nil {
			p.logger.Error("worker pool shutdown with failures", zap.Error(aggregate))
		} else {
			p.logger.Info("worker pool shutdown cleanly")
		}
	})
	return aggregate
}

func (p *Pool) registerExitHook() {
	// Process-exit plumbing lives in lifecycle.go; this just registers
	// this Pool with it.
	registerForExitDrain(p)
}

// Package-level façade over the default process-wide Pool.

// Prepare creates the default pool's workers; see (*Pool).Prepare.
func Prepare(numDomains int) { defaultPool.Prepare(numDomains) }

// PrepareOptional is Prepare with an optional count; nil means recommended.
func PrepareOptional(numDomains *int) { defaultPool.PrepareOptional(numDomains) }

// Self returns the calling worker's id on the default pool.
func Self() int { return defaultPool.Self() }

// All returns every worker id on the default pool.
func All() []int { return defaultPool.All() }

// IsManaged reports roster membership on the default pool.
func IsManaged(id int) bool { return defaultPool.IsManaged(id) }

// SetLogger installs a logger on the default pool before Prepare.
func SetLogger(logger *zap.Logger) { defaultPool.SetLogger(logger) }

// Shutdown drains the default pool.
func Shutdown() error { return defaultPool.Shutdown() }
