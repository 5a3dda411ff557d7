package location

import (
	"context"
	"sync"

	"presensi/internal/geo"
)

// Replay is a request-scoped Provider fed from data the device already
// reported (the positioning hardware lives in the browser; the API receives
// its output). Also the workhorse for tests.
type Replay struct {
	State      PermissionState
	Supported  bool
	Fix        *geo.PositionFix // one-shot answer
	FixErr     error            // one-shot failure (sentinel)
	WatchFixes []geo.PositionFix
	WatchErr   error // delivered after WatchFixes drain
}

// NewReplay returns a supported, permission-granted provider answering with fix.
func NewReplay(fix geo.PositionFix) *Replay {
	return &Replay{State: PermissionGranted, Supported: true, Fix: &fix}
}

func (r *Replay) Permission(ctx context.Context) (PermissionState, error) {
	if !r.Supported {
		return PermissionDenied, ErrUnsupported
	}
	return r.State, nil
}

func (r *Replay) Current(ctx context.Context, opts Options) (geo.PositionFix, error) {
	if !r.Supported {
		return geo.PositionFix{}, ErrUnsupported
	}
	if r.FixErr != nil {
		return geo.PositionFix{}, r.FixErr
	}
	if r.Fix == nil {
		return geo.PositionFix{}, ErrUnavailable
	}
	return *r.Fix, nil
}

func (r *Replay) Watch(ctx context.Context, opts Options) (Watcher, error) {
	if !r.Supported {
		return nil, ErrUnsupported
	}
	w := newReplayWatcher()
	go func() {
		defer close(w.fixes)
		for _, fix := range r.WatchFixes {
			select {
			case w.fixes <- fix:
			case <-ctx.Done():
				return
			case <-w.quit:
				return
			}
		}
		if r.WatchErr != nil {
			select {
			case w.errs <- r.WatchErr:
			case <-ctx.Done():
			case <-w.quit:
			}
		}
	}()
	return w, nil
}

type replayWatcher struct {
	fixes    chan geo.PositionFix
	errs     chan error
	quit     chan struct{}
	stopOnce sync.Once
}

func newReplayWatcher() *replayWatcher {
	return &replayWatcher{
		fixes: make(chan geo.PositionFix),
		errs:  make(chan error, 1),
		quit:  make(chan struct{}),
	}
}

func (w *replayWatcher) Fixes() <-chan geo.PositionFix { return w.fixes }
func (w *replayWatcher) Err() <-chan error             { return w.errs }

func (w *replayWatcher) Stop() {
	w.stopOnce.Do(func() { close(w.quit) })
}
