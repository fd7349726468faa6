package heartbeat

import (
	"sync"

	"github.com/tigerroll/syncwave/pkg/replication/support/util/logger"
)

// CancellationSlot holds the cancel callback of one unit of work.
//
// The unit of work owns the write side and registers at most one callback. The
// supervisor owns the read side. The callback runs at most once, either from
// Cancel or from Register when a cancellation is already pending.
type CancellationSlot struct {
	mu        sync.Mutex
	callback  func()
	pending   bool
	cancelled bool
}

// NewCancellationSlot creates an empty slot.
func NewCancellationSlot() *CancellationSlot {
	return &CancellationSlot{}
}

// Register stores cancel. Only the first registration is kept; later ones are
// ignored and Register returns false. If Cancel was called before, cancel is
// invoked right away.
func (s *CancellationSlot) Register(cancel func()) bool {
	if cancel == nil {
		return false
	}
	s.mu.Lock()
	if s.callback != nil {
		s.mu.Unlock()
		logger.Warnf("CancellationSlot: a cancel callback is already registered; ignoring the new one.")
		return false
	}
	s.callback = cancel
	deliver := s.pending && !s.cancelled
	if deliver {
		s.cancelled = true
	}
	s.mu.Unlock()

	if deliver {
		logger.Debugf("CancellationSlot: delivering a pending cancellation on registration.")
		cancel()
	}
	return true
}

// Registered reports whether a callback is present.
func (s *CancellationSlot) Registered() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.callback != nil
}

// Cancel invokes the registered callback unless it already ran. It reports whether
// the callback has run, now or before. Without a registered callback the request
// is kept pending for Register and Cancel returns false.
func (s *CancellationSlot) Cancel() bool {
	s.mu.Lock()
	if s.cancelled {
		s.mu.Unlock()
		return true
	}
	cb := s.callback
	if cb == nil {
		s.pending = true
		s.mu.Unlock()
		return false
	}
	s.cancelled = true
	s.mu.Unlock()

	cb()
	return true
}
