// ABOUTME: Shared stream lifecycle for all backends
// ABOUTME: Runs the feed, handles completion and stops streams off the real-time goroutine
package output

import (
	"log"
	"sync"
	"sync/atomic"
)

// driver is the library-specific part of a stream
type driver interface {
	start() error
	stop() error
	close() error
}

// stream implements Stream on top of a driver. fill is the only method the
// real-time goroutine calls; it never takes the mutex.
type stream struct {
	feed FeedFunc
	drv  driver

	// inline stops a finished stream on the filling goroutine. Only for
	// drivers whose fill is not a library callback.
	inline bool

	mu     sync.Mutex
	closed bool

	gen    atomic.Uint64
	active atomic.Bool
	done   atomic.Bool
}

func newStream(feed FeedFunc) *stream {
	return &stream{feed: feed}
}

// Start starts playback, re-arming a stream that finished
func (s *stream) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.active.Load() {
		if !s.done.Load() {
			return nil
		}
		// finished but the asynchronous stop has not run yet
		if err := s.stopLocked(); err != nil {
			return err
		}
	}

	s.done.Store(false)
	s.gen.Add(1)
	if err := s.drv.start(); err != nil {
		return err
	}
	s.active.Store(true)
	return nil
}

// Stop pauses playback
func (s *stream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopLocked()
}

func (s *stream) stopLocked() error {
	if !s.active.Load() {
		return nil
	}
	s.active.Store(false)
	return s.drv.stop()
}

// Close stops playback and releases the library stream
func (s *stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	stopErr := s.stopLocked()
	s.closed = true
	if err := s.drv.close(); err != nil {
		return err
	}
	return stopErr
}

// Active reports whether the stream is playing
func (s *stream) Active() bool {
	return s.active.Load()
}

// fill runs the feed for one buffer
func (s *stream) fill(out []float32) {
	if s.done.Load() {
		clear(out)
		return
	}
	switch s.feed(out) {
	case Complete:
		s.finish()
	case Abort:
		clear(out)
		s.finish()
	}
}

func (s *stream) finish() {
	if !s.done.CompareAndSwap(false, true) {
		return
	}
	gen := s.gen.Load()
	stop := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		// a Start or Close since the feed finished wins
		if s.closed || s.gen.Load() != gen {
			return
		}
		if err := s.stopLocked(); err != nil {
			log.Printf("Warning: failed to stop finished stream: %v", err)
		}
	}
	if s.inline {
		stop()
		return
	}
	// libraries deadlock when a stream is stopped from its own callback
	go stop()
}
