package domainpool

import (
	"os"
	"os/signal"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Go has no destructor/atexit primitive comparable to a host runtime's
// process-exit hook, so this models cleanup the way Go programs actually
// arrange for it: a registry of prepared pools plus an opt-in
// signal-triggered drain, alongside the always-available explicit Shutdown
// call.
var (
	registryMu sync.Mutex
	registry   []*Pool
)

func registerForExitDrain(p *Pool) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = append(registry, p)
}

// DrainAll calls Shutdown on every Pool that has ever been prepared in this
// process and combines their aggregate errors. Intended to be deferred from
// main.
func DrainAll() error {
	registryMu.Lock()
	pools := append([]*Pool(nil), registry...)
	registryMu.Unlock()

	var aggregate error
	for _, p := range pools {
		aggregate = multierr.Append(aggregate, p.Shutdown())
	}
	return aggregate
}

// InstallSignalShutdown spawns a goroutine that calls DrainAll the first
// time one of sigs (default os.Interrupt) is received, logging the
// aggregate result through the default pool's logger (see SetLogger). This
// is the opt-in "process-exit plumbing" collaborator; callers that manage
// their own shutdown sequencing can ignore it and call DrainAll directly.
func InstallSignalShutdown(sigs ...os.Signal) {
	if len(sigs) == 0 {
		sigs = []os.Signal{os.Interrupt}
	}
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sigs...)
	go func() {
		<-ch
		if err := DrainAll(); err != nil {
			logger().Error("domainpool: drain at exit reported failures", zap.Error(err))
		}
	}()
}

func logger() *zap.Logger {
	if defaultPool.logger != nil {
		return defaultPool.logger
	}
	return zap.NewNop()
}
