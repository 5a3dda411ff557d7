package attendance

import (
	"context"
	"fmt"
	"log"
	"time"

	"presensi/internal/geo"
	"presensi/internal/geofence"
	"presensi/internal/location"
)

// Step names double as the prefixes on surfaced errors, so the UI always
// knows which part of the workflow failed.
type Step string

const (
	StepPermission Step = "Location Permission"
	StepAcquire    Step = "Location Access"
	StepValidate   Step = "Location Validation"
	StepBiometric  Step = "Biometric Authentication"
	StepPersist    Step = "Save Failed"
)

// AssignmentSource looks up the employee's assigned work site. Implementations
// return geofence.ErrNotConfigured when no usable assignment exists.
type AssignmentSource interface {
	AssignedLocation(ctx context.Context, subjectID string) (geofence.AssignedLocation, error)
}

// BiometricVerifier is the opaque pass/fail gate. Anything other than
// (true, nil) fails the biometric step.
type BiometricVerifier interface {
	Verify(ctx context.Context, subjectID string) (bool, error)
}

// Store upserts the attendance record keyed by (subject, local date of at).
// Repeated successful marks on the same day overwrite.
type Store interface {
	SaveAttendance(ctx context.Context, subjectID string, at time.Time, fix geo.PositionFix, distanceM int) error
}

// SampleLog is the append-only location log shared with live tracking.
type SampleLog interface {
	SaveSample(ctx context.Context, subjectID string, fix geo.PositionFix, source string) error
}

// OutOfRangeError carries the geofence diagnostics for an out-of-radius fix.
type OutOfRangeError struct {
	Result geofence.Result
}

func (e *OutOfRangeError) Error() string { return e.Result.Reason }

// Result of a successful mark.
type Result struct {
	Fix       geo.PositionFix `json:"fix"`
	DistanceM int             `json:"distance_m"`
	MarkedAt  time.Time       `json:"marked_at"`
}

// Marker sequences one attendance attempt: permission check, fix acquisition
// (with refinement), geofence validation, biometric gate, persistence.
// Terminal on first failure; retry is the caller re-invoking Mark. No mutual
// exclusion across concurrent calls for the same subject: the upsert-by-date
// store makes duplicates converge (last write wins), which is idempotence,
// not at-most-once.
type Marker struct {
	Location    *location.Service
	Assignments AssignmentSource
	Biometric   BiometricVerifier
	Store       Store
	Samples     SampleLog // optional

	Now func() time.Time // nil = time.Now
}

// attempt tracks the furthest completed step of one Mark call. Transient,
// never shared across calls.
type attempt struct {
	completed []Step
}

func (a *attempt) done(s Step) { a.completed = append(a.completed, s) }

func (a *attempt) fail(s Step, err error) error {
	// Validation errors already read as full sentences; every other step is
	// prefixed so the surfaced message names the failing step.
	if s == StepValidate {
		return err
	}
	return fmt.Errorf("%s: %w", s, err)
}

// Mark runs the whole workflow for one subject.
func (m *Marker) Mark(ctx context.Context, subjectID string) (Result, error) {
	att := &attempt{}
	now := time.Now
	if m.Now != nil {
		now = m.Now
	}

	if err := m.Location.CheckPermission(ctx); err != nil {
		return Result{}, att.fail(StepPermission, err)
	}
	att.done(StepPermission)

	fix, err := m.Location.Acquire(ctx, location.Options{HighAccuracy: true})
	if err != nil {
		return Result{}, att.fail(StepAcquire, err)
	}
	att.done(StepAcquire)

	assigned, err := m.Assignments.AssignedLocation(ctx, subjectID)
	if err != nil {
		return Result{}, att.fail(StepValidate, err)
	}
	res, err := geofence.Validate(fix, assigned)
	if err != nil {
		return Result{}, att.fail(StepValidate, err)
	}
	if !res.Valid {
		return Result{}, att.fail(StepValidate, &OutOfRangeError{Result: res})
	}
	att.done(StepValidate)

	ok, err := m.Biometric.Verify(ctx, subjectID)
	if err != nil {
		return Result{}, att.fail(StepBiometric, err)
	}
	if !ok {
		return Result{}, att.fail(StepBiometric, fmt.Errorf("fingerprint verification failed"))
	}
	att.done(StepBiometric)

	markedAt := now().UTC()
	if err := m.Store.SaveAttendance(ctx, subjectID, markedAt, fix, res.DistanceM); err != nil {
		return Result{}, att.fail(StepPersist, err)
	}
	att.done(StepPersist)

	// Best-effort: the one-shot path feeds the same location log as live
	// tracking. Never fails the workflow.
	if m.Samples != nil {
		if err := m.Samples.SaveSample(ctx, subjectID, fix, "employee"); err != nil {
			log.Printf("attendance: sample log write failed for %s: %v", subjectID, err)
		}
	}

	return Result{Fix: fix, DistanceM: res.DistanceM, MarkedAt: markedAt}, nil
}
