package director

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// FrameHandle identifies a scheduled frame callback. Zero means none.
type FrameHandle uint64

// FrameFunc receives the frame timestamp, measured from the scheduler's epoch.
type FrameFunc func(ts time.Duration)

// FrameScheduler runs a callback once, roughly one frame interval from now.
type FrameScheduler interface {
	RequestFrame(fn FrameFunc) FrameHandle
	CancelFrame(h FrameHandle)
}

type pendingFrame struct {
	handle FrameHandle
	fn     FrameFunc
}

// frameQueue is the bookkeeping shared by both schedulers. Frames requested
// while a batch is firing wait for the next batch.
type frameQueue struct {
	next    FrameHandle
	pending []pendingFrame
}

func (q *frameQueue) request(fn FrameFunc) FrameHandle {
	if fn == nil {
		return 0
	}
	q.next++
	q.pending = append(q.pending, pendingFrame{handle: q.next, fn: fn})
	return q.next
}

func (q *frameQueue) cancel(h FrameHandle) {
	for i, p := range q.pending {
		if p.handle == h {
			q.pending = append(q.pending[:i], q.pending[i+1:]...)
			return
		}
	}
}

func (q *frameQueue) take() []pendingFrame {
	batch := q.pending
	q.pending = nil
	return batch
}

// ManualScheduler fires frames only when Advance is called. Tests use it to
// drive the director deterministically.
type ManualScheduler struct {
	q frameQueue
}

func NewManualScheduler() *ManualScheduler { return &ManualScheduler{} }

func (s *ManualScheduler) RequestFrame(fn FrameFunc) FrameHandle { return s.q.request(fn) }
func (s *ManualScheduler) CancelFrame(h FrameHandle)             { s.q.cancel(h) }

// Pending returns the number of frames waiting to fire.
func (s *ManualScheduler) Pending() int { return len(s.q.pending) }

// Advance fires every pending frame with ts and returns how many ran.
func (s *ManualScheduler) Advance(ts time.Duration) int {
	batch := s.q.take()
	for _, p := range batch {
		p.fn(ts)
	}
	return len(batch)
}

// LoopScheduler fires pending frames from Run, on Run's goroutine, once per
// interval. Callbacks therefore never run concurrently with each other.
type LoopScheduler struct {
	mu       sync.Mutex
	q        frameQueue
	interval time.Duration
	log      *zap.Logger
	epoch    time.Time
	frames   uint64
}

func NewLoopScheduler(interval time.Duration, log *zap.Logger) *LoopScheduler {
	if interval <= 0 {
		interval = time.Second / 60
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &LoopScheduler{interval: interval, log: log}
}

func (s *LoopScheduler) RequestFrame(fn FrameFunc) FrameHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q.request(fn)
}

func (s *LoopScheduler) CancelFrame(h FrameHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.q.cancel(h)
}

// Frames returns the number of frame batches fired so far.
func (s *LoopScheduler) Frames() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// Run blocks until ctx is done, firing pending frames every interval. A panic
// in a frame callback propagates and ends the loop.
func (s *LoopScheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.epoch = time.Now()
	s.log.Debug("frame loop started", zap.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			s.log.Debug("frame loop stopped", zap.Uint64("frames", s.Frames()))
			return ctx.Err()
		case now := <-ticker.C:
			s.fire(now.Sub(s.epoch))
		}
	}
}

func (s *LoopScheduler) fire(ts time.Duration) {
	s.mu.Lock()
	batch := s.q.take()
	if len(batch) > 0 {
		s.frames++
	}
	s.mu.Unlock()
	for _, p := range batch {
		p.fn(ts)
	}
}
