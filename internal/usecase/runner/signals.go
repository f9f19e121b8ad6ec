package runner

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// HandleSignals forwards host signals to the scheduler loop as control
// requests. The forwarding goroutine does no I/O and no state mutation;
// it only enqueues requests, which the loop executes.
//
//	SIGINT/SIGTERM  stop
//	SIGHUP          restart (configuration reload)
//	SIGUSR1         workspace update + state dump
//	SIGUSR2         workspace wipe + re-init
//
// Child completion is observed by per-child monitor goroutines, so no
// SIGCHLD handler is needed. SIGPIPE is ignored by the Go runtime for
// non-stdio descriptors, which covers children dying mid-write.
func (r *Runner) HandleSignals(ctx context.Context) {
	ch := make(chan os.Signal, 8)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP,
		syscall.SIGUSR1, syscall.SIGUSR2)

	go func() {
		defer signal.Stop(ch)
		for {
			select {
			case sig := <-ch:
				switch sig {
				case syscall.SIGINT, syscall.SIGTERM:
					r.Control(CtrlStop)
				case syscall.SIGHUP:
					r.Control(CtrlRestart)
				case syscall.SIGUSR1:
					r.Control(CtrlStatus)
				case syscall.SIGUSR2:
					r.Control(CtrlWipe)
				}
			case <-ctx.Done():
				return
			case <-r.done:
				return
			}
		}
	}()
}
