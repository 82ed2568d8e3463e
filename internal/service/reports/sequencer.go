package reports

import (
	"context"
	"sync"
)

// sequencer tags fetches per view with a global, monotonically increasing
// number. Starting a fetch cancels the previous one of the same view.
type sequencer struct {
	mx    sync.Mutex
	next  uint64
	views map[string]*inflight
}

type inflight struct {
	seq    uint64
	cancel context.CancelFunc
}

func newSequencer() *sequencer {
	return &sequencer{views: make(map[string]*inflight)}
}

func (s *sequencer) begin(ctx context.Context, view string) (context.Context, uint64) {
	s.mx.Lock()
	defer s.mx.Unlock()

	if prev, ok := s.views[view]; ok {
		prev.cancel()
	}

	s.next++
	fetchCtx, cancel := context.WithCancel(ctx)
	s.views[view] = &inflight{seq: s.next, cancel: cancel}
	return fetchCtx, s.next
}

// finish reports whether seq is still the latest fetch of view and
// releases its resources.
func (s *sequencer) finish(view string, seq uint64) bool {
	s.mx.Lock()
	defer s.mx.Unlock()

	cur, ok := s.views[view]
	if !ok || cur.seq != seq {
		return false
	}
	cur.cancel()
	delete(s.views, view)
	return true
}
