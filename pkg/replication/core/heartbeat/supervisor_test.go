package heartbeat_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/syncwave/pkg/replication/core/heartbeat"
	"github.com/tigerroll/syncwave/pkg/replication/support/util/exception"
)

const interval = 5 * time.Millisecond

// fakeHeartbeater starts reporting cancellation after cancelAfter beats (never when zero).
type fakeHeartbeater struct {
	beats       atomic.Int32
	cancelAfter int32
	failWith    error
}

func (h *fakeHeartbeater) Heartbeat(ctx context.Context, _ ...interface{}) error {
	n := h.beats.Add(1)
	if h.cancelAfter > 0 && n >= h.cancelAfter {
		return exception.NewCancelledError("workflow", "activity cancelled", nil)
	}
	return h.failWith
}

func TestRun_ReturnsResultAndStopsBeating(t *testing.T) {
	hb := &fakeHeartbeater{}
	sup := heartbeat.NewSupervisor(interval, hb)

	got, err := heartbeat.Run(context.Background(), sup, heartbeat.NewCancellationSlot(), func(ctx context.Context) (string, error) {
		time.Sleep(5 * interval)
		return "done", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "done", got)

	beats := hb.beats.Load()
	assert.GreaterOrEqual(t, beats, int32(1))
	time.Sleep(5 * interval)
	assert.Equal(t, beats, hb.beats.Load(), "no heartbeat after the unit of work returned")
}

func TestRun_PropagatesWorkError(t *testing.T) {
	sup := heartbeat.NewSupervisor(interval, &fakeHeartbeater{failWith: errors.New("engine unreachable")})
	boom := errors.New("boom")

	_, err := heartbeat.Run(context.Background(), sup, heartbeat.NewCancellationSlot(), func(ctx context.Context) (int, error) {
		time.Sleep(3 * interval)
		return 0, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, exception.IsCancelled(err))
}

func TestRun_CancelAfterRegistration(t *testing.T) {
	hb := &fakeHeartbeater{cancelAfter: 3}
	sup := heartbeat.NewSupervisor(interval, hb)
	slot := heartbeat.NewCancellationSlot()

	var calls atomic.Int32
	stopped := make(chan struct{})
	got, err := heartbeat.Run(context.Background(), sup, slot, func(ctx context.Context) (string, error) {
		slot.Register(func() {
			calls.Add(1)
			close(stopped)
		})
		select {
		case <-stopped:
		case <-time.After(5 * time.Second):
			t.Error("cancel callback was never invoked")
		}
		return "finished normally", nil
	})

	require.Error(t, err)
	assert.True(t, exception.IsCancelled(err))
	assert.Empty(t, got)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRun_CancelBeforeRegistrationIsDelivered(t *testing.T) {
	hb := &fakeHeartbeater{cancelAfter: 1}
	sup := heartbeat.NewSupervisor(interval, hb)
	slot := heartbeat.NewCancellationSlot()

	var calls atomic.Int32
	stopped := make(chan struct{})
	_, err := heartbeat.Run(context.Background(), sup, slot, func(ctx context.Context) (struct{}, error) {
		time.Sleep(4 * interval)
		slot.Register(func() {
			if calls.Add(1) == 1 {
				close(stopped)
			}
		})
		select {
		case <-stopped:
		case <-time.After(5 * time.Second):
			t.Error("cancel requested before registration was lost")
		}
		return struct{}{}, nil
	})

	assert.True(t, exception.IsCancelled(err))
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, int32(1), hb.beats.Load(), "no heartbeats after cancellation was requested")
}

func TestRun_CancellationWithoutCallback(t *testing.T) {
	sup := heartbeat.NewSupervisor(interval, &fakeHeartbeater{cancelAfter: 1})

	_, err := heartbeat.Run(context.Background(), sup, heartbeat.NewCancellationSlot(), func(ctx context.Context) (int, error) {
		time.Sleep(4 * interval)
		return 7, nil
	})
	assert.True(t, exception.IsCancelled(err))
}

func TestRun_ContextCancellationIsACancelRequest(t *testing.T) {
	sup := heartbeat.NewSupervisor(time.Hour, &fakeHeartbeater{})
	slot := heartbeat.NewCancellationSlot()
	ctx, cancel := context.WithCancel(context.Background())

	var calls atomic.Int32
	_, err := heartbeat.Run(ctx, sup, slot, func(ctx context.Context) (int, error) {
		stopped := make(chan struct{})
		slot.Register(func() {
			calls.Add(1)
			close(stopped)
		})
		cancel()
		<-stopped
		return 1, nil
	})
	assert.True(t, exception.IsCancelled(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestRun_PendingCancelDeliveredWithoutWaitingForATick(t *testing.T) {
	sup := heartbeat.NewSupervisor(time.Hour, &fakeHeartbeater{cancelAfter: 1})
	slot := heartbeat.NewCancellationSlot()

	var latency time.Duration
	_, err := heartbeat.Run(context.Background(), sup, slot, func(ctx context.Context) (struct{}, error) {
		time.Sleep(50 * time.Millisecond)
		stopped := make(chan struct{})
		registered := time.Now()
		slot.Register(func() { close(stopped) })
		select {
		case <-stopped:
			latency = time.Since(registered)
		case <-time.After(5 * time.Second):
			t.Error("pending cancellation was not delivered on registration")
		}
		return struct{}{}, nil
	})

	assert.True(t, exception.IsCancelled(err))
	assert.Less(t, latency, time.Second)
}

func TestCancellationSlot_PendingCancel(t *testing.T) {
	slot := heartbeat.NewCancellationSlot()
	assert.False(t, slot.Cancel(), "nothing to cancel yet")
	assert.False(t, slot.Registered())

	var calls atomic.Int32
	assert.True(t, slot.Register(func() { calls.Add(1) }))
	assert.Equal(t, int32(1), calls.Load(), "pending cancellation runs on registration")
	assert.True(t, slot.Cancel())
	assert.Equal(t, int32(1), calls.Load())
}

func TestCancellationSlot(t *testing.T) {
	slot := heartbeat.NewCancellationSlot()
	assert.False(t, slot.Registered())

	var first, second atomic.Int32
	assert.True(t, slot.Register(func() { first.Add(1) }))
	assert.False(t, slot.Register(func() { second.Add(1) }))
	assert.False(t, slot.Register(nil))
	assert.True(t, slot.Registered())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.True(t, slot.Cancel())
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), first.Load())
	assert.Zero(t, second.Load())
}
