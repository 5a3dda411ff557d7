package tracking

import (
	"context"
	"errors"
	"testing"
	"time"

	"presensi/internal/geo"
	"presensi/internal/location"
)

// fakeClock lets tests drive the throttle window deterministically.
type fakeClock struct{ t time.Time }

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

type countingSink struct {
	calls int
	fixes []geo.PositionFix
	err   error
}

func (s *countingSink) sink(ctx context.Context, fix geo.PositionFix) error {
	s.calls++
	s.fixes = append(s.fixes, fix)
	return s.err
}

func fixAt(lat, lng float64) geo.PositionFix {
	return geo.PositionFix{Lat: lat, Lng: lng}
}

func testSession(sink SinkFunc) (*Session, *fakeClock) {
	clk := newFakeClock()
	s := newSession(sink, Options{})
	s.now = clk.now
	return s, clk
}

func TestOfferFirstSampleAlwaysAccepted(t *testing.T) {
	var sunk countingSink
	s, _ := testSession(sunk.sink)

	if !s.Offer(context.Background(), fixAt(13.0827, 80.2707)) {
		t.Fatal("first sample must be accepted")
	}
	if sunk.calls != 1 {
		t.Fatalf("sink calls = %d, want 1", sunk.calls)
	}
}

func TestOfferIntervalThrottle(t *testing.T) {
	var sunk countingSink
	s, clk := testSession(sunk.sink)
	ctx := context.Background()

	base := fixAt(13.0827, 80.2707)
	far := fixAt(13.0837, 80.2707) // ~111m north, distance is never the limiter

	if !s.Offer(ctx, base) {
		t.Fatal("first sample rejected")
	}

	clk.advance(10 * time.Second)
	if s.Offer(ctx, far) {
		t.Error("sample 10s after last send must be rejected")
	}

	// A rejection must not reset the window: 15s from the accepted send,
	// not from the rejected attempt.
	clk.advance(5 * time.Second)
	if !s.Offer(ctx, far) {
		t.Error("sample 15s after last accepted send must pass")
	}
	if sunk.calls != 2 {
		t.Errorf("sink calls = %d, want 2", sunk.calls)
	}
}

func TestOfferDistanceThrottle(t *testing.T) {
	var sunk countingSink
	s, clk := testSession(sunk.sink)
	ctx := context.Background()

	if !s.Offer(ctx, fixAt(13.0827, 80.2707)) {
		t.Fatal("first sample rejected")
	}

	clk.advance(20 * time.Second)
	near := fixAt(13.08275, 80.2707) // ~5.6m: under the 10m floor
	if s.Offer(ctx, near) {
		t.Error("sample under 10m of movement must be rejected")
	}

	// The rejected sample advanced nothing; a far one at the same instant passes.
	far := fixAt(13.0828, 80.2707) // ~11m
	if !s.Offer(ctx, far) {
		t.Error("sample over 10m of movement must pass")
	}
	if sunk.calls != 2 {
		t.Errorf("sink calls = %d, want 2", sunk.calls)
	}
}

func TestOfferSinkErrorStillAdvancesWindow(t *testing.T) {
	sunk := countingSink{err: errors.New("db down")}
	s, _ := testSession(sunk.sink)
	ctx := context.Background()

	if !s.Offer(ctx, fixAt(13.0827, 80.2707)) {
		t.Fatal("sink failure must not reject the sample")
	}
	// Window advanced: an immediate follow-up is interval-throttled.
	if s.Offer(ctx, fixAt(13.0927, 80.2707)) {
		t.Error("window should have advanced despite the sink error")
	}
	if sunk.calls != 1 {
		t.Errorf("sink calls = %d, want 1", sunk.calls)
	}
}

func TestOfferAfterTermination(t *testing.T) {
	var sunk countingSink
	s, _ := testSession(sunk.sink)
	s.finish(nil)

	if s.Offer(context.Background(), fixAt(13.0827, 80.2707)) {
		t.Error("terminated session must reject samples")
	}
	if sunk.calls != 0 {
		t.Errorf("sink calls = %d, want 0", sunk.calls)
	}
}

func TestOptionsDefaults(t *testing.T) {
	o := Options{}.withDefaults()
	if o.MinInterval != 15*time.Second || o.MinDistanceM != 10 {
		t.Errorf("defaults = %+v, want 15s / 10m", o)
	}

	custom := Options{MinInterval: 5 * time.Second, MinDistanceM: 3}.withDefaults()
	if custom.MinInterval != 5*time.Second || custom.MinDistanceM != 3 {
		t.Errorf("explicit options overridden: %+v", custom)
	}
}

func TestStartDeliversStreamErrorOnce(t *testing.T) {
	fatal := errors.New("position stream lost")
	p := &location.Replay{Supported: true, WatchErr: fatal}
	w, err := p.Watch(context.Background(), location.Options{})
	if err != nil {
		t.Fatal(err)
	}

	var sunk countingSink
	s := Start(context.Background(), w, sunk.sink, Options{})

	select {
	case got := <-s.Done():
		if !errors.Is(got, fatal) {
			t.Errorf("Done delivered %v, want %v", got, fatal)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Done never fired")
	}
	// Channel is closed after the single delivery.
	if got, ok := <-s.Done(); ok || got != nil {
		t.Errorf("second receive = %v, %v; want nil, closed", got, ok)
	}
}

func TestStartStreamCloseTerminatesCleanly(t *testing.T) {
	p := &location.Replay{
		Supported:  true,
		WatchFixes: []geo.PositionFix{fixAt(13.0827, 80.2707)},
	}
	w, err := p.Watch(context.Background(), location.Options{})
	if err != nil {
		t.Fatal(err)
	}

	var sunk countingSink
	s := Start(context.Background(), w, sunk.sink, Options{})

	select {
	case got := <-s.Done():
		if got != nil {
			t.Errorf("clean close delivered error %v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Done never fired")
	}
}

func TestStopPreventsFurtherSinkWrites(t *testing.T) {
	fixes := make(chan geo.PositionFix, 4)
	w := &stubWatcher{fixes: fixes, errs: make(chan error, 1)}

	var sunk countingSink
	s := Start(context.Background(), w, sunk.sink, Options{})
	s.Stop()

	// Samples arriving after Stop must never reach the sink.
	fixes <- fixAt(13.0827, 80.2707)
	fixes <- fixAt(13.0927, 80.2707)
	time.Sleep(50 * time.Millisecond)

	if sunk.calls != 0 {
		t.Errorf("sink calls after Stop = %d, want 0", sunk.calls)
	}
	if !w.stopped {
		t.Error("Stop must unsubscribe the watcher")
	}
	// Stop is a no-op once terminated.
	s.Stop()
}

type stubWatcher struct {
	fixes   chan geo.PositionFix
	errs    chan error
	stopped bool
}

func (w *stubWatcher) Fixes() <-chan geo.PositionFix { return w.fixes }
func (w *stubWatcher) Err() <-chan error             { return w.errs }
func (w *stubWatcher) Stop()                         { w.stopped = true }

func TestManagerSingleSessionPerSubject(t *testing.T) {
	m := NewManager(func(ctx context.Context, subjectID string, fix geo.PositionFix) error {
		return nil
	}, Options{})

	id, err := m.StartSession("u1")
	if err != nil || id == "" {
		t.Fatalf("StartSession = %q, %v", id, err)
	}
	if _, err := m.StartSession("u1"); !errors.Is(err, ErrAlreadyTracking) {
		t.Errorf("duplicate start err = %v, want ErrAlreadyTracking", err)
	}
	// A different subject is independent.
	if _, err := m.StartSession("u2"); err != nil {
		t.Errorf("second subject start failed: %v", err)
	}
}

func TestManagerOfferAndStop(t *testing.T) {
	var got []string
	m := NewManager(func(ctx context.Context, subjectID string, fix geo.PositionFix) error {
		got = append(got, subjectID)
		return nil
	}, Options{})
	ctx := context.Background()

	if _, err := m.Offer(ctx, "u1", fixAt(13.0827, 80.2707)); !errors.Is(err, ErrNoSession) {
		t.Fatalf("Offer without session err = %v, want ErrNoSession", err)
	}

	if _, err := m.StartSession("u1"); err != nil {
		t.Fatal(err)
	}
	accepted, err := m.Offer(ctx, "u1", fixAt(13.0827, 80.2707))
	if err != nil || !accepted {
		t.Fatalf("Offer = %v, %v; want accepted", accepted, err)
	}
	if len(got) != 1 || got[0] != "u1" {
		t.Fatalf("persist calls = %v, want [u1]", got)
	}

	if !m.StopSession("u1") {
		t.Error("StopSession should report an existing session")
	}
	if m.Active("u1") {
		t.Error("session still active after stop")
	}
	if m.StopSession("u1") {
		t.Error("second stop should report no session")
	}
	if _, err := m.Offer(ctx, "u1", fixAt(13.0927, 80.2707)); !errors.Is(err, ErrNoSession) {
		t.Errorf("Offer after stop err = %v, want ErrNoSession", err)
	}
}
