package tracking

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"presensi/internal/geo"
	"presensi/internal/location"
)

// SinkFunc persists one accepted sample. The subject is bound by the caller.
type SinkFunc func(ctx context.Context, fix geo.PositionFix) error

// Options control the sample throttle.
type Options struct {
	MinInterval  time.Duration // default 15s
	MinDistanceM float64       // default 10m
}

func (o Options) withDefaults() Options {
	if o.MinInterval <= 0 {
		o.MinInterval = 15 * time.Second
	}
	if o.MinDistanceM <= 0 {
		o.MinDistanceM = 10
	}
	return o
}

// Session owns the throttle state for one tracking run. State is only
// mutated from the stream goroutine (or the single Offer caller on the push
// path), guarded anyway so both paths are safe.
type Session struct {
	ID string

	sink SinkFunc
	opts Options
	now  func() time.Time

	mu         sync.Mutex
	lastSentAt time.Time
	lastPos    *geo.GeoPoint
	stopped    bool

	done     chan error
	stopOnce sync.Once
	stop     func()
}

func newSession(sink SinkFunc, opts Options) *Session {
	return &Session{
		ID:   uuid.NewString(),
		sink: sink,
		opts: opts.withDefaults(),
		now:  time.Now,
		done: make(chan error, 1),
		stop: func() {},
	}
}

// Start consumes a device position stream and forwards throttled samples to
// sink. The returned session is terminated by Stop, by stream close, or by a
// stream-level fatal error (delivered once on Done).
func Start(ctx context.Context, w location.Watcher, sink SinkFunc, opts Options) *Session {
	s := newSession(sink, opts)
	runCtx, cancel := context.WithCancel(ctx)
	// Mark stopped and unsubscribe the stream first so no sink write can
	// happen after Stop returns.
	s.stop = func() {
		s.markStopped()
		w.Stop()
		cancel()
	}
	go s.run(runCtx, w)
	return s
}

func (s *Session) run(ctx context.Context, w location.Watcher) {
	for {
		select {
		case fix, ok := <-w.Fixes():
			if !ok {
				// A fatal error may already be queued behind the close.
				select {
				case err := <-w.Err():
					s.finish(err)
				default:
					s.finish(nil)
				}
				return
			}
			s.Offer(ctx, fix)
		case err := <-w.Err():
			w.Stop()
			s.finish(err)
			return
		case <-ctx.Done():
			s.finish(nil)
			return
		}
	}
}

// Offer applies the throttle to one raw sample. Accepted samples are written
// to the sink and advance the throttle window; rejected ones leave it
// untouched. A sink error does not terminate the session.
func (s *Session) Offer(ctx context.Context, fix geo.PositionFix) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return false
	}
	now := s.now()
	if !s.lastSentAt.IsZero() && now.Sub(s.lastSentAt) < s.opts.MinInterval {
		return false
	}
	if s.lastPos != nil && geo.DistanceMeters(*s.lastPos, fix.Point()) < s.opts.MinDistanceM {
		return false
	}

	if err := s.sink(ctx, fix); err != nil {
		log.Printf("tracking: sink write failed (session %s): %v", s.ID, err)
	}
	pt := fix.Point()
	s.lastSentAt = now
	s.lastPos = &pt
	return true
}

// Done reports session termination; carries the fatal stream error, if any.
func (s *Session) Done() <-chan error { return s.done }

// Stop ends the session. No-op after the session has terminated.
func (s *Session) Stop() {
	s.stop()
}

func (s *Session) markStopped() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
}

func (s *Session) finish(err error) {
	s.stopOnce.Do(func() {
		s.markStopped()
		if err != nil {
			s.done <- err
		}
		close(s.done)
	})
}
