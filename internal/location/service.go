package location

import (
	"context"
	"errors"
	"time"

	"presensi/internal/geo"
)

const (
	// coarseAccuracyM: above this the first fix is considered coarse and a
	// refinement window is opened.
	coarseAccuracyM = 100.0
	// targetAccuracyM: a refinement sample at or below this stops the window early.
	targetAccuracyM = 50.0
	// refineWindow caps how long refinement may run.
	refineWindow = 8 * time.Second
)

// Service wraps a Provider with permission pre-check, hard timeout, error
// classification and best-effort accuracy refinement.
type Service struct {
	Provider Provider
}

func NewService(p Provider) *Service { return &Service{Provider: p} }

// CheckPermission fails fast when the platform is missing or permission has
// already been denied. A "prompt" state passes; the actual request happens on
// the first fix.
func (s *Service) CheckPermission(ctx context.Context) error {
	state, err := s.Provider.Permission(ctx)
	if err != nil {
		return err
	}
	if state == PermissionDenied {
		return ErrPermissionDenied
	}
	return nil
}

// Acquire obtains one fix, refining it when the device reports coarse
// accuracy. Refinement is best-effort: stream errors inside the window are
// swallowed and the best fix so far is kept.
func (s *Service) Acquire(ctx context.Context, opts Options) (geo.PositionFix, error) {
	cctx, cancel := context.WithTimeout(ctx, opts.timeout())
	defer cancel()

	fix, err := s.Provider.Current(cctx, opts)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return geo.PositionFix{}, ErrTimeout
		}
		return geo.PositionFix{}, err
	}

	if acc, ok := fix.Accuracy(); ok && acc > coarseAccuracyM {
		fix = s.refine(ctx, opts, fix)
	}
	return fix, nil
}

// refine opens a short watch window and keeps the lowest-accuracy sample seen.
// Stops early the moment a sample reaches targetAccuracyM. Never fails: when
// the stream errors before any sample arrives, the coarse fix is returned.
func (s *Service) refine(ctx context.Context, opts Options, coarse geo.PositionFix) geo.PositionFix {
	wctx, cancel := context.WithTimeout(ctx, refineWindow)
	defer cancel()

	w, err := s.Provider.Watch(wctx, opts)
	if err != nil {
		return coarse
	}
	defer w.Stop()

	var best *geo.PositionFix
	for {
		select {
		case fix, ok := <-w.Fixes():
			if !ok {
				return pick(best, coarse)
			}
			acc, hasAcc := fix.Accuracy()
			if best == nil {
				f := fix
				best = &f
			} else if bestAcc, ok := best.Accuracy(); hasAcc && (!ok || acc < bestAcc) {
				f := fix
				best = &f
			}
			if hasAcc && acc <= targetAccuracyM {
				return pick(best, coarse)
			}
		case <-w.Err():
			return pick(best, coarse)
		case <-wctx.Done():
			return pick(best, coarse)
		}
	}
}

func pick(best *geo.PositionFix, fallback geo.PositionFix) geo.PositionFix {
	if best != nil {
		return *best
	}
	return fallback
}
