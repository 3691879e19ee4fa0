package domainpool

// Package-wide bit layout for the tagged stack-top word: the low idxBits
// hold a worker index (or the sentinel none), the remaining high bits hold
// a tag that advances on every successful push/pop CAS. This defeats ABA
// on the idle stack with a single machine-word CAS instead of a
// double-width one.
const (
	idxBits = 16
	idxMask = uint64(1)<<idxBits - 1
	tagUnit = uint64(1) << idxBits
	tagMask = ^idxMask

	// none is the sentinel index meaning "stack empty." A zero-valued
	// atomic does not mean empty; the idle stack must be explicitly
	// initialized to none.
	none = idxMask
)

// targetOf masks off the tag, leaving the worker index (or none).
func targetOf(t uint64) uint64 {
	return t & idxMask
}

// makeTagged preserves old's tag bits and advances them by one tag unit
// while swapping in target as the new index.
func makeTagged(old, target uint64) uint64 {
	return (old & tagMask) + (target | tagUnit)
}
