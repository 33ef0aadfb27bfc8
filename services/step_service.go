package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"stepChallengeAPI/internal/audit"
	"stepChallengeAPI/internal/challengeclock"
	"stepChallengeAPI/internal/ledger"
	"stepChallengeAPI/internal/types/challenge"
	"stepChallengeAPI/internal/types/steps"
)

// PgEntryStore is the postgres ledger.EntryStore. Each primitive is a
// single conditional statement, so the row either changes atomically
// or is left alone; there is no check-then-act window inside the
// store.
type PgEntryStore struct {
	db *pgxpool.Pool
}

func NewPgEntryStore(db *pgxpool.Pool) *PgEntryStore {
	return &PgEntryStore{db: db}
}

func (s *PgEntryStore) Get(ctx context.Context, userID uuid.UUID, date string) (*steps.StepEntry, error) {
	query := `
        SELECT user_id, date, count, challenge_id, updated_at
        FROM step_entries
        WHERE user_id = $1 AND date = $2
    `
	var e steps.StepEntry
	err := s.db.QueryRow(ctx, query, userID, date).Scan(
		&e.UserID, &e.Date, &e.Count, &e.ChallengeID, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch step entry: %w", err)
	}
	return &e, nil
}

func (s *PgEntryStore) InsertIfAbsent(ctx context.Context, entry steps.StepEntry) (bool, error) {
	query := `
        INSERT INTO step_entries (user_id, date, count, challenge_id, updated_at)
        VALUES ($1, $2, $3, $4, NOW())
        ON CONFLICT (user_id, date) DO NOTHING
    `
	tag, err := s.db.Exec(ctx, query, entry.UserID, entry.Date, entry.Count, entry.ChallengeID)
	if err != nil {
		return false, fmt.Errorf("failed to insert step entry: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PgEntryStore) CompareAndUpdate(ctx context.Context, entry steps.StepEntry, expectedCount int) (bool, error) {
	query := `
        UPDATE step_entries
        SET count = $3, challenge_id = $4, updated_at = NOW()
        WHERE user_id = $1 AND date = $2 AND count = $5
    `
	tag, err := s.db.Exec(ctx, query, entry.UserID, entry.Date, entry.Count, entry.ChallengeID, expectedCount)
	if err != nil {
		return false, fmt.Errorf("failed to update step entry: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

type StepService struct {
	db               *pgxpool.Pool
	ledger           *ledger.Ledger
	challengeService *ChallengeService
}

func NewStepService(db *pgxpool.Pool, challengeService *ChallengeService) *StepService {
	l := ledger.New(NewPgEntryStore(db), audit.NewPgSink(db))
	return &StepService{db: db, ledger: l, challengeService: challengeService}
}

// RecordSteps resolves the caller and the active challenge, then hands
// off to the ledger. The active challenge is read once here and passed
// down as an explicit nullable reference.
func (s *StepService) RecordSteps(ctx context.Context, clerkID string, req *steps.RecordRequest) (*steps.RecordResult, *steps.ConflictResult, error) {
	userID, err := s.resolveUserID(ctx, clerkID)
	if err != nil {
		return nil, nil, err
	}

	var active *challenge.Challenge
	active, err = s.challengeService.GetActiveChallenge(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to look up active challenge: %w", err)
	}

	return s.ledger.RecordSteps(ctx, userID, req.Date, req.Count, req.AllowOverwrite, active)
}

// GetSteps returns the caller's history, optionally bounded by an
// inclusive date range.
func (s *StepService) GetSteps(ctx context.Context, clerkID string, startDate, endDate *string) ([]steps.StepEntry, error) {
	userID, err := s.resolveUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
        SELECT user_id, date, count, challenge_id, updated_at
        FROM step_entries
        WHERE user_id = $1
          AND ($2::text IS NULL OR date >= $2)
          AND ($3::text IS NULL OR date <= $3)
        ORDER BY date ASC
    `
	rows, err := s.db.Query(ctx, query, userID, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch steps: %w", err)
	}
	defer rows.Close()

	var entries []steps.StepEntry
	for rows.Next() {
		var e steps.StepEntry
		if err := rows.Scan(&e.UserID, &e.Date, &e.Count, &e.ChallengeID, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan step entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// GetSummary aggregates the caller's last N calendar days. The window
// is anchored on the reference-timezone date, not the database
// session's, so it cannot drift around midnight UTC.
func (s *StepService) GetSummary(ctx context.Context, clerkID string, days int) (*steps.Summary, error) {
	userID, err := s.resolveUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
        SELECT COUNT(*), COALESCE(SUM(count), 0)
        FROM step_entries
        WHERE user_id = $1 AND date >= $2
    `
	var summary steps.Summary
	cutoff := summaryStartDate(time.Now(), days)
	if err := s.db.QueryRow(ctx, query, userID, cutoff).Scan(&summary.Days, &summary.TotalSteps); err != nil {
		return nil, fmt.Errorf("failed to fetch step summary: %w", err)
	}
	if summary.Days > 0 {
		summary.AvgPerDay = summary.TotalSteps / summary.Days
	}
	return &summary, nil
}

// summaryStartDate returns the first date of an N-day window ending on
// the reference-timezone date of now.
func summaryStartDate(now time.Time, days int) string {
	return challengeclock.FormatDate(challengeclock.Today(now).AddDate(0, 0, -(days - 1)))
}

func (s *StepService) resolveUserID(ctx context.Context, clerkID string) (uuid.UUID, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("user not found: %w", err)
	}
	return userID, nil
}
