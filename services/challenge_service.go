package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"stepChallengeAPI/internal/apperrors"
	"stepChallengeAPI/internal/challengeclock"
	"stepChallengeAPI/internal/types/challenge"
)

type ChallengeService struct {
	db *pgxpool.Pool
}

func NewChallengeService(db *pgxpool.Pool) *ChallengeService {
	return &ChallengeService{db: db}
}

// GetActiveChallenge returns the single active challenge, or nil when
// none is active.
func (s *ChallengeService) GetActiveChallenge(ctx context.Context) (*challenge.Challenge, error) {
	query := `
        SELECT id, name, start_date, end_date, reporting_threshold, is_active, created_at
        FROM challenges
        WHERE is_active = true
        LIMIT 1
    `
	var ch challenge.Challenge
	err := s.db.QueryRow(ctx, query).Scan(
		&ch.ID, &ch.Name, &ch.StartDate, &ch.EndDate, &ch.ReportingThreshold, &ch.IsActive, &ch.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch active challenge: %w", err)
	}
	return &ch, nil
}

func (s *ChallengeService) GetChallenge(ctx context.Context, id uuid.UUID) (*challenge.Challenge, error) {
	query := `
        SELECT id, name, start_date, end_date, reporting_threshold, is_active, created_at
        FROM challenges
        WHERE id = $1
    `
	var ch challenge.Challenge
	err := s.db.QueryRow(ctx, query, id).Scan(
		&ch.ID, &ch.Name, &ch.StartDate, &ch.EndDate, &ch.ReportingThreshold, &ch.IsActive, &ch.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("challenge not found")
		}
		return nil, fmt.Errorf("failed to fetch challenge: %w", err)
	}
	return &ch, nil
}

func (s *ChallengeService) ListChallenges(ctx context.Context) ([]challenge.Challenge, error) {
	query := `
        SELECT id, name, start_date, end_date, reporting_threshold, is_active, created_at
        FROM challenges
        ORDER BY start_date DESC
    `
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch challenges: %w", err)
	}
	defer rows.Close()

	var challenges []challenge.Challenge
	for rows.Next() {
		var ch challenge.Challenge
		if err := rows.Scan(&ch.ID, &ch.Name, &ch.StartDate, &ch.EndDate,
			&ch.ReportingThreshold, &ch.IsActive, &ch.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan challenge: %w", err)
		}
		challenges = append(challenges, ch)
	}
	return challenges, nil
}

func (s *ChallengeService) CreateChallenge(ctx context.Context, req *challenge.CreateChallengeRequest) (*challenge.Challenge, error) {
	if err := validateDateOrder(req.StartDate, req.EndDate); err != nil {
		return nil, err
	}

	query := `
        INSERT INTO challenges (id, name, start_date, end_date, reporting_threshold, is_active, created_at)
        VALUES ($1, $2, $3, $4, $5, false, NOW())
        RETURNING id, name, start_date, end_date, reporting_threshold, is_active, created_at
    `
	var ch challenge.Challenge
	err := s.db.QueryRow(ctx, query, uuid.New(), req.Name, req.StartDate, req.EndDate, req.ReportingThreshold).Scan(
		&ch.ID, &ch.Name, &ch.StartDate, &ch.EndDate, &ch.ReportingThreshold, &ch.IsActive, &ch.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create challenge: %w", err)
	}
	return &ch, nil
}

func (s *ChallengeService) UpdateChallenge(ctx context.Context, id uuid.UUID, req *challenge.UpdateChallengeRequest) (*challenge.Challenge, error) {
	current, err := s.GetChallenge(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		current.Name = *req.Name
	}
	if req.StartDate != nil {
		current.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		current.EndDate = *req.EndDate
	}
	if req.ReportingThreshold != nil {
		current.ReportingThreshold = *req.ReportingThreshold
	}
	if err := validateDateOrder(current.StartDate, current.EndDate); err != nil {
		return nil, err
	}

	query := `
        UPDATE challenges
        SET name = $2, start_date = $3, end_date = $4, reporting_threshold = $5
        WHERE id = $1
    `
	_, err = s.db.Exec(ctx, query, id, current.Name, current.StartDate, current.EndDate, current.ReportingThreshold)
	if err != nil {
		return nil, fmt.Errorf("failed to update challenge: %w", err)
	}
	return current, nil
}

func (s *ChallengeService) DeleteChallenge(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM challenges WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete challenge: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFound("challenge not found")
	}
	return nil
}

// SetActiveChallenge deactivates every challenge and activates the
// given one as a single transaction, so the one-active invariant holds
// at every commit point.
func (s *ChallengeService) SetActiveChallenge(ctx context.Context, id uuid.UUID) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `UPDATE challenges SET is_active = false WHERE is_active = true`); err != nil {
		return fmt.Errorf("failed to deactivate challenges: %w", err)
	}
	tag, err := tx.Exec(ctx, `UPDATE challenges SET is_active = true WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to activate challenge: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFound("challenge not found")
	}

	return tx.Commit(ctx)
}

func validateDateOrder(startDate, endDate string) error {
	start, err := challengeclock.ParseDate(startDate)
	if err != nil {
		return err
	}
	end, err := challengeclock.ParseDate(endDate)
	if err != nil {
		return err
	}
	if end.Before(start) {
		return apperrors.NewValidationError("end_date must not precede start_date")
	}
	return nil
}
