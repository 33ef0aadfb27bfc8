// Package ledger owns the per-(user, date) step record: one record per
// day, overwrite only through explicit confirmation, writes serialized
// per key through the store's atomic conditional primitives.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"stepChallengeAPI/internal/apperrors"
	"stepChallengeAPI/internal/audit"
	"stepChallengeAPI/internal/challengeclock"
	"stepChallengeAPI/internal/types/challenge"
	"stepChallengeAPI/internal/types/steps"
)

// maxRetries bounds the conditional-write retry loop under same-key
// contention before surfacing a transient conflict.
const maxRetries = 3

// EntryStore is the atomic storage primitive the ledger is built on.
// Implementations must make InsertIfAbsent and CompareAndUpdate
// atomic per (userID, date) key; writes to different keys must not
// block each other.
type EntryStore interface {
	// Get returns the entry for the key, or nil if none exists.
	Get(ctx context.Context, userID uuid.UUID, date string) (*steps.StepEntry, error)
	// InsertIfAbsent inserts the entry only when no row exists for its
	// key. Returns false (and writes nothing) when one already does.
	InsertIfAbsent(ctx context.Context, entry steps.StepEntry) (bool, error)
	// CompareAndUpdate replaces the entry only while the stored count
	// still equals expectedCount. Returns false when a concurrent
	// writer got there first.
	CompareAndUpdate(ctx context.Context, entry steps.StepEntry, expectedCount int) (bool, error)
}

type Ledger struct {
	store EntryStore
	sink  audit.Sink
	now   func() time.Time
}

func New(store EntryStore, sink audit.Sink) *Ledger {
	return &Ledger{store: store, sink: sink, now: time.Now}
}

// WithClock fixes the ledger's notion of "now". Tests use this to pin
// the future-date check.
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

// RecordSteps validates and writes one step count for one calendar
// day. Outcomes:
//
//   - (*steps.RecordResult, nil) on a create or confirmed overwrite
//   - (*steps.ConflictResult, nil) when a record exists and overwrite
//     was not allowed; nothing is written
//   - a typed error for validation and business-rule rejections
//
// active may be nil (no running challenge). Dates before an active
// challenge's start are rejected; dates after its end are not — late
// backfill inside logged history stays legal up to the future-date
// limit. Exactly one audit event is emitted per call, success or
// failure.
func (l *Ledger) RecordSteps(ctx context.Context, userID uuid.UUID, date string, count int, allowOverwrite bool, active *challenge.Challenge) (*steps.RecordResult, *steps.ConflictResult, error) {
	result, conflict, err := l.recordSteps(ctx, userID, date, count, allowOverwrite, active)

	ev := audit.Event{
		Actor:    userID,
		Action:   "record_steps",
		Date:     date,
		NewValue: &count,
		Success:  err == nil && conflict == nil,
	}
	switch {
	case err != nil:
		ev.Detail = err.Error()
	case conflict != nil:
		ev.Detail = fmt.Sprintf("overwrite declined, existing count %d", conflict.ExistingCount)
	case result.Overwritten:
		old := result.OldCount
		ev.OldValue = &old
	}
	l.sink.Emit(ctx, ev)

	return result, conflict, err
}

func (l *Ledger) recordSteps(ctx context.Context, userID uuid.UUID, date string, count int, allowOverwrite bool, active *challenge.Challenge) (*steps.RecordResult, *steps.ConflictResult, error) {
	entryDate, err := challengeclock.ParseDate(date)
	if err != nil {
		return nil, nil, err
	}
	if count < steps.MinCount || count > steps.MaxCount {
		return nil, nil, apperrors.NewValidationError(
			fmt.Sprintf("step count must be between %d and %d", steps.MinCount, steps.MaxCount))
	}

	// One day of slack absorbs client/server clock skew, never more.
	today := challengeclock.Today(l.now())
	if entryDate.After(today.AddDate(0, 0, 1)) {
		return nil, nil, apperrors.NewFutureDateError("date is too far in the future")
	}

	var challengeID *uuid.UUID
	if active != nil {
		if date < active.StartDate {
			return nil, nil, apperrors.NewChallengePeriodError(
				fmt.Sprintf("date precedes the challenge start (%s)", active.StartDate))
		}
		id := active.ID
		challengeID = &id
	}

	entry := steps.StepEntry{
		UserID:      userID,
		Date:        date,
		Count:       count,
		ChallengeID: challengeID,
		UpdatedAt:   l.now(),
	}

	for attempt := 0; attempt < maxRetries; attempt++ {
		existing, err := l.store.Get(ctx, userID, date)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read step entry: %w", err)
		}

		if existing == nil {
			inserted, err := l.store.InsertIfAbsent(ctx, entry)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to insert step entry: %w", err)
			}
			if inserted {
				return &steps.RecordResult{Date: date, Count: count, Created: true}, nil, nil
			}
			// Lost the insert race; re-read and take the existing-row path.
			continue
		}

		if !allowOverwrite {
			return nil, &steps.ConflictResult{Date: date, ExistingCount: existing.Count}, nil
		}

		updated, err := l.store.CompareAndUpdate(ctx, entry, existing.Count)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to update step entry: %w", err)
		}
		if updated {
			return &steps.RecordResult{
				Date:        date,
				Count:       count,
				Overwritten: true,
				OldCount:    existing.Count,
			}, nil, nil
		}
		// A concurrent overwrite won; the next iteration observes its value.
	}

	return nil, nil, apperrors.NewTransientConflict("concurrent writes for the same day, try again", nil)
}
