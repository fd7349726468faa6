// Package heartbeat keeps a long-running unit of work alive towards the workflow
// engine and relays the engine's cancellation requests to it.
package heartbeat

import (
	"context"
	"sync"
	"time"

	"github.com/tigerroll/syncwave/pkg/replication/core/application/port"
	"github.com/tigerroll/syncwave/pkg/replication/support/util/exception"
	"github.com/tigerroll/syncwave/pkg/replication/support/util/logger"
)

const moduleName = "HeartbeatSupervisor"

// DefaultInterval is used when no positive interval is configured.
const DefaultInterval = 10 * time.Second

// Supervisor heartbeats while a unit of work runs.
type Supervisor struct {
	interval    time.Duration
	heartbeater port.Heartbeater
}

// NewSupervisor creates a Supervisor beating every interval through heartbeater.
func NewSupervisor(interval time.Duration, heartbeater port.Heartbeater) *Supervisor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Supervisor{interval: interval, heartbeater: heartbeater}
}

// Run executes work while heartbeating concurrently.
//
// A heartbeat failing with a CancelledError, or ctx being done, is a cancellation
// request. The callback registered in slot is then invoked once; if none is registered
// yet, the slot invokes it as soon as one is. Once a
// cancellation was requested, Run returns a CancelledError after work returns,
// whatever work produced. Otherwise work's result is returned as is. The heartbeat
// loop has stopped by the time Run returns.
func Run[T any](ctx context.Context, s *Supervisor, slot *CancellationSlot, work func(ctx context.Context) (T, error)) (T, error) {
	done := make(chan struct{})
	loop := &beatLoop{supervisor: s, slot: slot}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		loop.run(ctx, done)
	}()

	result, err := work(ctx)

	close(done)
	wg.Wait()

	if loop.cancelRequested() {
		var zero T
		logger.Infof("%s: unit of work returned after cancellation was requested.", moduleName)
		return zero, exception.NewCancelledError(moduleName, "replication was cancelled", err)
	}
	return result, err
}

type beatLoop struct {
	supervisor *Supervisor
	slot       *CancellationSlot

	mu        sync.Mutex
	requested bool
}

func (l *beatLoop) cancelRequested() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.requested
}

func (l *beatLoop) requestCancel(reason string) {
	l.mu.Lock()
	first := !l.requested
	l.requested = true
	l.mu.Unlock()
	if first {
		logger.Infof("%s: cancellation requested (%s).", moduleName, reason)
	}
}

func (l *beatLoop) run(ctx context.Context, done <-chan struct{}) {
	ticker := time.NewTicker(l.supervisor.interval)
	defer ticker.Stop()

	ctxDone := ctx.Done()
	l.tick(ctx)
	for {
		select {
		case <-done:
			return
		case <-ctxDone:
			ctxDone = nil
			l.cancel(ctx.Err().Error())
		case <-ticker.C:
			l.tick(ctx)
		}
	}
}

// tick sends one heartbeat unless a cancellation was already requested.
func (l *beatLoop) tick(ctx context.Context) {
	if l.cancelRequested() {
		return
	}

	err := l.supervisor.heartbeater.Heartbeat(ctx)
	switch {
	case err == nil:
	case exception.IsCancelled(err):
		l.cancel(exception.ExtractErrorMessage(err))
	default:
		logger.Warnf("%s: heartbeat failed: %v", moduleName, err)
	}
}

func (l *beatLoop) cancel(reason string) {
	l.requestCancel(reason)
	if !l.slot.Cancel() {
		logger.Debugf("%s: no cancel callback registered yet; it runs on registration.", moduleName)
	}
}
