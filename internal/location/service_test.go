package location

import (
	"context"
	"errors"
	"testing"
	"time"

	"presensi/internal/geo"
)

func fixWithAcc(lat, lng, acc float64) geo.PositionFix {
	return geo.PositionFix{Lat: lat, Lng: lng, AccuracyM: &acc, CapturedAt: time.Now()}
}

func mustAcc(t *testing.T, f geo.PositionFix) float64 {
	t.Helper()
	acc, ok := f.Accuracy()
	if !ok {
		t.Fatal("fix has no accuracy")
	}
	return acc
}

func TestCheckPermission(t *testing.T) {
	tests := []struct {
		name     string
		provider *Replay
		wantErr  error
	}{
		{"granted", &Replay{Supported: true, State: PermissionGranted}, nil},
		{"prompt passes", &Replay{Supported: true, State: PermissionPrompt}, nil},
		{"denied", &Replay{Supported: true, State: PermissionDenied}, ErrPermissionDenied},
		{"unsupported", &Replay{Supported: false}, ErrUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewService(tt.provider).CheckPermission(context.Background())
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("CheckPermission() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAcquireErrorClassification(t *testing.T) {
	tests := []struct {
		name     string
		provider *Replay
		wantErr  error
	}{
		{"deadline becomes timeout", &Replay{Supported: true, FixErr: context.DeadlineExceeded}, ErrTimeout},
		{"unavailable passes through", &Replay{Supported: true, FixErr: ErrUnavailable}, ErrUnavailable},
		{"denied passes through", &Replay{Supported: true, FixErr: ErrPermissionDenied}, ErrPermissionDenied},
		{"unsupported device", &Replay{Supported: false}, ErrUnsupported},
		{"no fix at all", &Replay{Supported: true}, ErrUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewService(tt.provider).Acquire(context.Background(), Options{})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Acquire() err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAcquireAccurateFixSkipsRefinement(t *testing.T) {
	first := fixWithAcc(13.0827, 80.2707, 30)
	p := NewReplay(first)
	// Would win refinement if the window ever opened.
	p.WatchFixes = []geo.PositionFix{fixWithAcc(13.0827, 80.2707, 5)}

	got, err := NewService(p).Acquire(context.Background(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if mustAcc(t, got) != 30 {
		t.Errorf("accuracy = %v, want the untouched first fix (30)", mustAcc(t, got))
	}
}

func TestAcquireRefinesCoarseFix(t *testing.T) {
	p := NewReplay(fixWithAcc(13.0827, 80.2707, 200))
	p.WatchFixes = []geo.PositionFix{
		fixWithAcc(13.0827, 80.2708, 120),
		fixWithAcc(13.08271, 80.27079, 40),
	}

	got, err := NewService(p).Acquire(context.Background(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if mustAcc(t, got) != 40 {
		t.Errorf("refined accuracy = %v, want 40", mustAcc(t, got))
	}
}

func TestAcquireRefinementStopsAtTarget(t *testing.T) {
	p := NewReplay(fixWithAcc(13.0827, 80.2707, 150))
	p.WatchFixes = []geo.PositionFix{
		fixWithAcc(13.0827, 80.2708, 45), // at target: window closes here
		fixWithAcc(13.0827, 80.2708, 10),
	}

	got, err := NewService(p).Acquire(context.Background(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if mustAcc(t, got) != 45 {
		t.Errorf("accuracy = %v, want 45 (first sample at or under target)", mustAcc(t, got))
	}
}

func TestAcquireRefinementKeepsBestOfWindow(t *testing.T) {
	p := NewReplay(fixWithAcc(13.0827, 80.2707, 300))
	// Never reaches target; window drains and the best sample wins.
	p.WatchFixes = []geo.PositionFix{
		fixWithAcc(13.0827, 80.2708, 80),
		fixWithAcc(13.0827, 80.2709, 150),
	}

	got, err := NewService(p).Acquire(context.Background(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if mustAcc(t, got) != 80 {
		t.Errorf("accuracy = %v, want 80 (best seen in window)", mustAcc(t, got))
	}
}

func TestAcquireRefinementErrorKeepsCoarseFix(t *testing.T) {
	coarse := fixWithAcc(13.0827, 80.2707, 200)
	p := NewReplay(coarse)
	p.WatchErr = errors.New("gps glitch")

	got, err := NewService(p).Acquire(context.Background(), Options{})
	if err != nil {
		t.Fatalf("refinement failures must not fail acquisition: %v", err)
	}
	if mustAcc(t, got) != 200 {
		t.Errorf("accuracy = %v, want the coarse 200", mustAcc(t, got))
	}
}

func TestAcquireRefinementErrorKeepsPartialBest(t *testing.T) {
	p := NewReplay(fixWithAcc(13.0827, 80.2707, 250))
	p.WatchFixes = []geo.PositionFix{fixWithAcc(13.0827, 80.2708, 90)}
	p.WatchErr = errors.New("stream died")

	got, err := NewService(p).Acquire(context.Background(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if mustAcc(t, got) != 90 {
		t.Errorf("accuracy = %v, want 90 (best before the stream error)", mustAcc(t, got))
	}
}

func TestOptionsTimeoutDefaults(t *testing.T) {
	tests := []struct {
		opts Options
		want time.Duration
	}{
		{Options{}, 10 * time.Second},
		{Options{HighAccuracy: true}, 20 * time.Second},
		{Options{Timeout: 3 * time.Second, HighAccuracy: true}, 3 * time.Second},
	}
	for _, tt := range tests {
		if got := tt.opts.timeout(); got != tt.want {
			t.Errorf("timeout() for %+v = %v, want %v", tt.opts, got, tt.want)
		}
	}
}
