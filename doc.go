// Package domainpool implements a managed-worker pool: a fixed roster of
// worker goroutines, a lock-free idle-worker registry (a tagged Treiber
// stack), and a wake protocol (TrySpawn/Wakeup/Idle) for handing a waiting
// worker a callback to run on its own goroutine.
//
// The hard part, and the only part this package's core files (tagged.go,
// slot.go, stack.go, wake.go, pool.go) are concerned with, is that
// registry and its wake protocol: any goroutine can test in one relaxed
// atomic load whether an idle worker exists, publish work to exactly one
// idle worker without blocking the others, and idle workers can block on
// their own condition variable without races against producers.
package domainpool
