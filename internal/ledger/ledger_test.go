package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"stepChallengeAPI/internal/apperrors"
	"stepChallengeAPI/internal/audit"
	"stepChallengeAPI/internal/challengeclock"
	"stepChallengeAPI/internal/types/challenge"
)

// Tests pin "now" so the future-date check is deterministic.
func fixedNow(t *testing.T, date string) func() time.Time {
	t.Helper()
	d, err := challengeclock.ParseDate(date)
	if err != nil {
		t.Fatalf("bad test date %q: %v", date, err)
	}
	return func() time.Time { return d }
}

func newTestLedger(t *testing.T) (*Ledger, *MemStore, *audit.Recorder) {
	t.Helper()
	store := NewMemStore()
	rec := &audit.Recorder{}
	l := New(store, rec).WithClock(fixedNow(t, "2025-06-15"))
	return l, store, rec
}

func activeChallenge() *challenge.Challenge {
	return &challenge.Challenge{
		ID:                 uuid.MustParse("22222222-2222-2222-2222-222222222222"),
		Name:               "Summer Steps",
		StartDate:          "2025-06-01",
		EndDate:            "2025-06-10",
		ReportingThreshold: 70,
		IsActive:           true,
	}
}

func TestRecordStepsCreate(t *testing.T) {
	l, store, rec := newTestLedger(t)
	userID := uuid.New()

	result, conflict, err := l.RecordSteps(context.Background(), userID, "2025-06-14", 8500, false, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if conflict != nil {
		t.Fatalf("unexpected conflict: %+v", conflict)
	}
	if !result.Created || result.Overwritten {
		t.Errorf("result = %+v, want created", result)
	}

	stored, _ := store.Get(context.Background(), userID, "2025-06-14")
	if stored == nil || stored.Count != 8500 {
		t.Fatalf("stored = %+v, want count 8500", stored)
	}
	if stored.ChallengeID != nil {
		t.Errorf("entry written with no active challenge must not carry a challenge id")
	}

	events := rec.Events()
	if len(events) != 1 || !events[0].Success {
		t.Fatalf("events = %+v, want one success event", events)
	}
}

func TestRecordStepsConflictWithoutOverwrite(t *testing.T) {
	l, store, rec := newTestLedger(t)
	userID := uuid.New()
	ctx := context.Background()

	if _, _, err := l.RecordSteps(ctx, userID, "2025-06-14", 8500, false, nil); err != nil {
		t.Fatalf("setup write failed: %v", err)
	}

	result, conflict, err := l.RecordSteps(ctx, userID, "2025-06-14", 9999, false, nil)
	if err != nil {
		t.Fatalf("a declined overwrite is an outcome, not an error: %v", err)
	}
	if result != nil {
		t.Fatalf("no write may occur without confirmation, got %+v", result)
	}
	if conflict == nil || conflict.ExistingCount != 8500 {
		t.Fatalf("conflict = %+v, want existing count 8500", conflict)
	}

	stored, _ := store.Get(ctx, userID, "2025-06-14")
	if stored.Count != 8500 {
		t.Errorf("stored count changed to %d, must remain 8500", stored.Count)
	}
	if len(rec.Events()) != 2 {
		t.Errorf("every call emits exactly one audit event, got %d", len(rec.Events()))
	}
}

func TestRecordStepsConfirmedOverwrite(t *testing.T) {
	l, store, rec := newTestLedger(t)
	userID := uuid.New()
	ctx := context.Background()

	if _, _, err := l.RecordSteps(ctx, userID, "2025-06-14", 8500, false, nil); err != nil {
		t.Fatalf("setup write failed: %v", err)
	}

	result, conflict, err := l.RecordSteps(ctx, userID, "2025-06-14", 9999, true, nil)
	if err != nil || conflict != nil {
		t.Fatalf("confirmed overwrite failed: result=%+v conflict=%+v err=%v", result, conflict, err)
	}
	if !result.Overwritten || result.OldCount != 8500 || result.Count != 9999 {
		t.Fatalf("result = %+v, want overwrite 8500 -> 9999", result)
	}

	stored, _ := store.Get(ctx, userID, "2025-06-14")
	if stored.Count != 9999 {
		t.Errorf("stored count = %d, want 9999", stored.Count)
	}

	events := rec.Events()
	last := events[len(events)-1]
	if last.OldValue == nil || *last.OldValue != 8500 {
		t.Errorf("audit old_value = %v, want 8500", last.OldValue)
	}
	if last.NewValue == nil || *last.NewValue != 9999 {
		t.Errorf("audit new_value = %v, want 9999", last.NewValue)
	}
}

func TestRecordStepsValidation(t *testing.T) {
	l, store, rec := newTestLedger(t)
	userID := uuid.New()
	ctx := context.Background()

	tests := []struct {
		name     string
		date     string
		count    int
		wantType apperrors.ErrorType
	}{
		{"negative count", "2025-06-14", -1, apperrors.TypeValidation},
		{"count above cap", "2025-06-14", 70001, apperrors.TypeValidation},
		{"literal today", "today", 5000, apperrors.TypeValidation},
		{"empty date", "", 5000, apperrors.TypeValidation},
		{"two days ahead", "2025-06-17", 5000, apperrors.TypeFutureDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := l.RecordSteps(ctx, userID, tt.date, tt.count, true, nil)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !apperrors.IsType(err, tt.wantType) {
				t.Errorf("error = %v, want type %d", err, tt.wantType)
			}
		})
	}

	if len(store.All()) != 0 {
		t.Errorf("rejected writes must never partially apply: %+v", store.All())
	}
	if len(rec.Events()) != len(tests) {
		t.Errorf("failures still audit: got %d events, want %d", len(rec.Events()), len(tests))
	}
}

func TestRecordStepsOneDaySlackForClockSkew(t *testing.T) {
	l, _, _ := newTestLedger(t) // now pinned to 2025-06-15

	_, _, err := l.RecordSteps(context.Background(), uuid.New(), "2025-06-16", 5000, false, nil)
	if err != nil {
		t.Fatalf("tomorrow is within the skew allowance: %v", err)
	}
}

func TestRecordStepsChallengePeriod(t *testing.T) {
	l, store, _ := newTestLedger(t)
	userID := uuid.New()
	ctx := context.Background()
	ch := activeChallenge()

	// Before the challenge start: rejected.
	_, _, err := l.RecordSteps(ctx, userID, "2025-05-31", 5000, false, ch)
	if !apperrors.IsType(err, apperrors.TypeChallengePeriod) {
		t.Fatalf("error = %v, want challenge-period rejection", err)
	}

	// After the challenge end: allowed. Late backfill is intentional.
	result, _, err := l.RecordSteps(ctx, userID, "2025-06-14", 5000, false, ch)
	if err != nil {
		t.Fatalf("post-end backfill must be allowed: %v", err)
	}
	if !result.Created {
		t.Fatalf("result = %+v, want created", result)
	}

	stored, _ := store.Get(ctx, userID, "2025-06-14")
	if stored.ChallengeID == nil || *stored.ChallengeID != ch.ID {
		t.Errorf("entry must carry the active challenge id, got %v", stored.ChallengeID)
	}
}

func TestConcurrentOverwritesConverge(t *testing.T) {
	l, store, rec := newTestLedger(t)
	userID := uuid.New()
	ctx := context.Background()

	counts := []int{7000, 9000}
	var wg sync.WaitGroup
	errs := make([]error, len(counts))
	for i, c := range counts {
		wg.Add(1)
		go func(i, c int) {
			defer wg.Done()
			_, _, errs[i] = l.RecordSteps(ctx, userID, "2025-06-14", c, true, nil)
		}(i, c)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("writer %d failed: %v", i, err)
		}
	}

	all := store.All()
	if len(all) != 1 {
		t.Fatalf("got %d rows, want exactly one per (user, date)", len(all))
	}
	if final := all[0].Count; final != 7000 && final != 9000 {
		t.Errorf("final count = %d, want one of the written values", final)
	}
	if len(rec.Events()) != 2 {
		t.Errorf("got %d audit events, want exactly 2", len(rec.Events()))
	}
}

func TestConcurrentUnconfirmedWritesLoseNoData(t *testing.T) {
	l, store, _ := newTestLedger(t)
	userID := uuid.New()
	ctx := context.Background()

	type outcome struct {
		created  bool
		conflict bool
		err      error
	}
	results := make([]outcome, 2)
	var wg sync.WaitGroup
	for i, c := range []int{4000, 6000} {
		wg.Add(1)
		go func(i, c int) {
			defer wg.Done()
			res, conflict, err := l.RecordSteps(ctx, userID, "2025-06-14", c, false, nil)
			results[i] = outcome{created: res != nil && res.Created, conflict: conflict != nil, err: err}
		}(i, c)
	}
	wg.Wait()

	var created, conflicted int
	for _, r := range results {
		if r.err != nil {
			t.Fatalf("unexpected error: %v", r.err)
		}
		if r.created {
			created++
		}
		if r.conflict {
			conflicted++
		}
	}
	if created != 1 || conflicted != 1 {
		t.Fatalf("want exactly one insert winner and one conflict, got created=%d conflicted=%d", created, conflicted)
	}
	if len(store.All()) != 1 {
		t.Fatalf("duplicate rows for one (user, date): %+v", store.All())
	}
}

func TestAuditFailureDoesNotFailWrite(t *testing.T) {
	store := NewMemStore()
	l := New(store, deadSink{}).WithClock(fixedNow(t, "2025-06-15"))

	result, _, err := l.RecordSteps(context.Background(), uuid.New(), "2025-06-14", 8000, false, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Created {
		t.Fatalf("result = %+v, want created", result)
	}
}

// deadSink stands in for an unreachable audit backend. Sinks are
// expected to contain their own failures.
type deadSink struct{}

func (deadSink) Emit(ctx context.Context, ev audit.Event) {}
