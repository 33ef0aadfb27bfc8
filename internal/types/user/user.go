package user

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ClerkID   string    `json:"clerk_id" db:"clerk_id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Team      *string   `json:"team" db:"team"`
	IsAdmin   bool      `json:"is_admin" db:"is_admin"`
	Archived  bool      `json:"archived" db:"archived"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// TeamName returns the team string, or "" for users not on any team.
func (u *User) TeamName() string {
	if u.Team == nil {
		return ""
	}
	return *u.Team
}

type CreateUserRequest struct {
	ClerkID string  `json:"clerk_id" validate:"required"`
	Name    string  `json:"name" validate:"required,max=100"`
	Email   string  `json:"email" validate:"required,email"`
	Team    *string `json:"team" validate:"omitempty,max=100"`
}

type UpdateProfileRequest struct {
	Name *string `json:"name" validate:"omitempty,max=100"`
	Team *string `json:"team" validate:"omitempty,max=100"`
}

// Profile is what GET /user returns: identity plus all-time step totals.
type Profile struct {
	User        User `json:"user"`
	TotalSteps  int  `json:"total_steps"`
	DaysLogged  int  `json:"days_logged"`
	StepsPerDay int  `json:"steps_per_day"`
}
