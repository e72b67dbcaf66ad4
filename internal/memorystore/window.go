package memorystore

import "sync"

// WindowStore holds the samples shown on the chart: a FIFO of closed samples
// and at most one live sample for the bucket that is still forming.
//
// Writers are the feed goroutines, the reader is the renderer. Every read
// returns a copy so a snapshot is never torn by a concurrent append.
type WindowStore struct {
	mu       sync.RWMutex
	width    int
	capacity int
	closed   []Sample
	live     Sample
	hasLive  bool
}

// NewCandleStore returns a store for candle mode: width-1 closed candles plus
// the live candle.
func NewCandleStore(width int) *WindowStore {
	return newWindowStore(width, width-1)
}

// NewTickStore returns a store for tick mode, where every trade is plotted
// directly and the closed buffer holds width ticks.
func NewTickStore(width int) *WindowStore {
	return newWindowStore(width, width)
}

func newWindowStore(width, capacity int) *WindowStore {
	if width < 1 {
		width = 1
	}
	if capacity < 1 {
		capacity = 1
	}
	return &WindowStore{
		width:    width,
		capacity: capacity,
		closed:   make([]Sample, 0, capacity),
	}
}

// AppendClosed inserts s at the tail, evicting the oldest sample when full.
func (s *WindowStore) AppendClosed(sample Sample) {
	s.mu.Lock()
	s.appendLocked(sample)
	s.mu.Unlock()
}

// Extend appends a batch of closed samples in order, e.g. a history seed.
func (s *WindowStore) Extend(samples []Sample) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sample := range samples {
		s.appendLocked(sample)
	}
}

func (s *WindowStore) appendLocked(sample Sample) {
	if len(s.closed) < s.capacity {
		s.closed = append(s.closed, sample)
		return
	}
	copy(s.closed, s.closed[1:])
	s.closed[len(s.closed)-1] = sample
}

// SetLive replaces the live sample unconditionally.
func (s *WindowStore) SetLive(sample Sample) {
	s.mu.Lock()
	s.live = sample
	s.hasLive = true
	s.mu.Unlock()
}

// Live returns the live sample, if one has been set.
func (s *WindowStore) Live() (Sample, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.live, s.hasLive
}

// Closed returns a copy of the closed history, oldest first.
func (s *WindowStore) Closed() []Sample {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cp := make([]Sample, len(s.closed))
	copy(cp, s.closed)
	return cp
}

// MergedView returns closed history followed by the live sample, never more
// than Width elements. On overflow the oldest closed samples are left out of
// the view; storage is not touched. Samples are kept in arrival order.
func (s *WindowStore) MergedView() []Sample {
	s.mu.RLock()
	defer s.mu.RUnlock()

	closed := s.closed
	room := s.width
	if s.hasLive {
		room--
	}
	if len(closed) > room {
		closed = closed[len(closed)-room:]
	}

	n := len(closed)
	if s.hasLive {
		n++
	}
	view := make([]Sample, 0, n)
	view = append(view, closed...)
	if s.hasLive {
		view = append(view, s.live)
	}
	return view
}

// Len returns the number of closed samples stored.
func (s *WindowStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.closed)
}

// Capacity returns the maximum number of closed samples kept.
func (s *WindowStore) Capacity() int {
	return s.capacity
}

// Width returns the maximum length of the merged view.
func (s *WindowStore) Width() int {
	return s.width
}
