package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"stepChallengeAPI/internal/apperrors"
	"stepChallengeAPI/internal/types/user"
)

type UserService struct {
	db *pgxpool.Pool
}

func NewUserService(db *pgxpool.Pool) *UserService {
	return &UserService{db: db}
}

func (s *UserService) GetUserByClerkID(ctx context.Context, clerkID string) (*user.User, error) {
	query := `
        SELECT id, clerk_id, name, email, team, is_admin, archived, created_at
        FROM users
        WHERE clerk_id = $1
    `
	var u user.User
	err := s.db.QueryRow(ctx, query, clerkID).Scan(
		&u.ID, &u.ClerkID, &u.Name, &u.Email, &u.Team, &u.IsAdmin, &u.Archived, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user not found")
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	return &u, nil
}

// GetProfile returns the user's identity plus all-time step totals.
func (s *UserService) GetProfile(ctx context.Context, clerkID string) (*user.Profile, error) {
	u, err := s.GetUserByClerkID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
        SELECT COUNT(*), COALESCE(SUM(count), 0)
        FROM step_entries
        WHERE user_id = $1
    `
	profile := &user.Profile{User: *u}
	if err := s.db.QueryRow(ctx, query, u.ID).Scan(&profile.DaysLogged, &profile.TotalSteps); err != nil {
		return nil, fmt.Errorf("failed to fetch step totals: %w", err)
	}
	if profile.DaysLogged > 0 {
		profile.StepsPerDay = profile.TotalSteps / profile.DaysLogged
	}
	return profile, nil
}

func (s *UserService) CreateUser(ctx context.Context, req *user.CreateUserRequest) (*user.User, error) {
	query := `
        INSERT INTO users (id, clerk_id, name, email, team, is_admin, archived, created_at)
        VALUES (gen_random_uuid(), $1, $2, $3, $4, false, false, NOW())
        ON CONFLICT (clerk_id) DO UPDATE SET name = $2, email = $3
        RETURNING id, clerk_id, name, email, team, is_admin, archived, created_at
    `
	var u user.User
	err := s.db.QueryRow(ctx, query, req.ClerkID, req.Name, req.Email, req.Team).Scan(
		&u.ID, &u.ClerkID, &u.Name, &u.Email, &u.Team, &u.IsAdmin, &u.Archived, &u.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &u, nil
}

func (s *UserService) UpdateProfileByClerkID(ctx context.Context, clerkID string, req *user.UpdateProfileRequest) (*user.User, error) {
	query := `
        UPDATE users
        SET name = COALESCE($2, name),
            team = COALESCE($3, team)
        WHERE clerk_id = $1
        RETURNING id, clerk_id, name, email, team, is_admin, archived, created_at
    `
	var u user.User
	err := s.db.QueryRow(ctx, query, clerkID, req.Name, req.Team).Scan(
		&u.ID, &u.ClerkID, &u.Name, &u.Email, &u.Team, &u.IsAdmin, &u.Archived, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user not found")
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return &u, nil
}

// ArchiveUser hides the user from every ranking view. Historical
// entries are kept.
func (s *UserService) ArchiveUser(ctx context.Context, clerkID string) error {
	tag, err := s.db.Exec(ctx, `UPDATE users SET archived = true WHERE clerk_id = $1`, clerkID)
	if err != nil {
		return fmt.Errorf("failed to archive user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFound("user not found")
	}
	return nil
}
