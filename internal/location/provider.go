package location

import (
	"context"
	"errors"
	"time"

	"presensi/internal/geo"
)

// Sentinel errors for everything the positioning platform can do wrong.
// Messages are the user-facing sentences the UI renders as-is.
var (
	ErrUnsupported      = errors.New("Location services not supported on this device")
	ErrPermissionDenied = errors.New("Location permission denied. Please allow location access to mark attendance.")
	ErrUnavailable      = errors.New("Location unavailable. Please check your device settings.")
	ErrTimeout          = errors.New("Location request timed out. Please try again.")
)

// PermissionState mirrors the platform permission query.
type PermissionState int

const (
	PermissionPrompt PermissionState = iota
	PermissionGranted
	PermissionDenied
)

// Options for a one-shot fix or a watch stream.
type Options struct {
	HighAccuracy bool
	Timeout      time.Duration // 0 = default (10s, 20s with HighAccuracy)
	MaxAge       time.Duration // accept a cached fix up to this old
}

func (o Options) timeout() time.Duration {
	if o.Timeout > 0 {
		return o.Timeout
	}
	if o.HighAccuracy {
		return 20 * time.Second
	}
	return 10 * time.Second
}

// Watcher is a continuous position stream. At most one error is ever
// delivered on Err; after Stop no further fixes are delivered.
type Watcher interface {
	Fixes() <-chan geo.PositionFix
	Err() <-chan error
	Stop()
}

// Provider abstracts the device positioning platform: one-shot query,
// continuous stream, permission query. Implementations must return the
// sentinel errors above so callers can classify failures.
type Provider interface {
	Permission(ctx context.Context) (PermissionState, error)
	Current(ctx context.Context, opts Options) (geo.PositionFix, error)
	Watch(ctx context.Context, opts Options) (Watcher, error)
}
