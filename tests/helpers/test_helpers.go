package helpers

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SetupTestDB creates a test database connection, skipping the test
// when no database is configured.
func SetupTestDB(t *testing.T) *pgxpool.Pool {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL or DATABASE_URL not set; skipping integration test")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("Failed to ping test database: %v", err)
	}

	return pool
}

// CleanupTestDB removes test users and their step entries.
func CleanupTestDB(t *testing.T, pool *pgxpool.Pool) {
	ctx := context.Background()
	_, err := pool.Exec(ctx, `
        DELETE FROM step_entries WHERE user_id IN (SELECT id FROM users WHERE email LIKE 'test%@example.com')
    `)
	if err != nil {
		t.Logf("Warning: failed to cleanup step entries: %v", err)
	}
	_, err = pool.Exec(ctx, "DELETE FROM users WHERE email LIKE 'test%@example.com'")
	if err != nil {
		t.Logf("Warning: failed to cleanup test data: %v", err)
	}
	pool.Close()
}

// SeedTestUser inserts a user the step and leaderboard tests can act as.
func SeedTestUser(t *testing.T, pool *pgxpool.Pool, clerkID string, team *string) uuid.UUID {
	ctx := context.Background()
	var id uuid.UUID
	err := pool.QueryRow(ctx, `
        INSERT INTO users (id, clerk_id, name, email, team, is_admin, archived, created_at)
        VALUES (gen_random_uuid(), $1,'Test User', $2, $3, false, false, NOW())
        RETURNING id
    `, clerkID, fmt.Sprintf("test+%s@example.com", clerkID), team).Scan(&id)
	if err != nil {
		t.Fatalf("Failed to seed test user: %v", err)
	}
	return id
}

// GenerateMockClerkJWT generates a mock JWT token for testing
func GenerateMockClerkJWT(clerkID string) (string, error) {
	// Use a test secret key
	secretKey := []byte("test-secret-key-for-testing-only")

	claims := jwt.MapClaims{
		"sub": clerkID,
		"iss": "https://clerk.test",
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour * 24).Unix(),
		"azp": "test-app-id",
		"sid": "sess_test123",
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}
