package services

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"stepChallengeAPI/internal/ranking"
	"stepChallengeAPI/internal/types/leaderboard"
	"stepChallengeAPI/internal/types/steps"
	"stepChallengeAPI/internal/types/user"
)

// LeaderboardService loads committed ledger state and hands it to the
// pure ranker. Standings are recomputed on every read; there is no
// cache to go stale. A read racing a challenge activation may mix old
// and new challenge context for that one call, which is tolerated.
type LeaderboardService struct {
	db               *pgxpool.Pool
	challengeService *ChallengeService
}

func NewLeaderboardService(db *pgxpool.Pool, challengeService *ChallengeService) *LeaderboardService {
	return &LeaderboardService{db: db, challengeService: challengeService}
}

func (s *LeaderboardService) GetIndividualLeaderboard(ctx context.Context) (*leaderboard.Individual, error) {
	active, err := s.challengeService.GetActiveChallenge(ctx)
	if err != nil {
		return nil, err
	}

	users, err := s.loadUsers(ctx)
	if err != nil {
		return nil, err
	}

	if active == nil {
		entries, err := s.loadAllEntries(ctx)
		if err != nil {
			return nil, err
		}
		board := ranking.AllTimeIndividual(users, entries)
		return &board, nil
	}

	entries, err := s.loadChallengeEntries(ctx, active.ID.String())
	if err != nil {
		return nil, err
	}
	board, err := ranking.Individual(time.Now(), *active, users, entries)
	if err != nil {
		return nil, err
	}
	return &board, nil
}

func (s *LeaderboardService) GetTeamLeaderboard(ctx context.Context) (*leaderboard.Team, error) {
	active, err := s.challengeService.GetActiveChallenge(ctx)
	if err != nil {
		return nil, err
	}

	users, err := s.loadUsers(ctx)
	if err != nil {
		return nil, err
	}

	if active == nil {
		entries, err := s.loadAllEntries(ctx)
		if err != nil {
			return nil, err
		}
		board := ranking.AllTimeTeam(users, entries)
		return &board, nil
	}

	entries, err := s.loadChallengeEntries(ctx, active.ID.String())
	if err != nil {
		return nil, err
	}
	board, err := ranking.Team(time.Now(), *active, users, entries)
	if err != nil {
		return nil, err
	}
	return &board, nil
}

func (s *LeaderboardService) loadUsers(ctx context.Context) ([]user.User, error) {
	query := `
        SELECT id, clerk_id, name, email, team, is_admin, archived, created_at
        FROM users
    `
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch users: %w", err)
	}
	defer rows.Close()

	var users []user.User
	for rows.Next() {
		var u user.User
		if err := rows.Scan(&u.ID, &u.ClerkID, &u.Name, &u.Email, &u.Team,
			&u.IsAdmin, &u.Archived, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, nil
}

func (s *LeaderboardService) loadChallengeEntries(ctx context.Context, challengeID string) ([]steps.StepEntry, error) {
	query := `
        SELECT user_id, date, count, challenge_id, updated_at
        FROM step_entries
        WHERE challenge_id = $1
    `
	return s.loadEntries(ctx, query, challengeID)
}

func (s *LeaderboardService) loadAllEntries(ctx context.Context) ([]steps.StepEntry, error) {
	query := `
        SELECT user_id, date, count, challenge_id, updated_at
        FROM step_entries
    `
	return s.loadEntries(ctx, query)
}

func (s *LeaderboardService) loadEntries(ctx context.Context, query string, args ...any) ([]steps.StepEntry, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch step entries: %w", err)
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
