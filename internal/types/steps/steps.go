package steps

import (
	"time"

	"github.com/google/uuid"
)

const (
	MinCount = 0
	MaxCount = 70000
)

// StepEntry is the single durable record for one user on one calendar
// day. (UserID, Date) is the composite identity; writes are upserts.
type StepEntry struct {
	UserID      uuid.UUID  `json:"user_id" db:"user_id"`
	Date        string     `json:"date" db:"date"`
	Count       int        `json:"count" db:"count"`
	ChallengeID *uuid.UUID `json:"challenge_id" db:"challenge_id"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

type RecordRequest struct {
	Date           string `json:"date" validate:"required"`
	Count          int    `json:"count" validate:"min=0,max=70000"`
	AllowOverwrite bool   `json:"allow_overwrite"`
}

// RecordResult is the success outcome of a step write.
type RecordResult struct {
	Date        string `json:"date"`
	Count       int    `json:"count"`
	Created     bool   `json:"created"`
	Overwritten bool   `json:"overwritten"`
	OldCount    int    `json:"old_count,omitempty"`
}

// ConflictResult is a first-class outcome, not an error: a record
// already exists for the date and the caller did not allow overwrite.
// The existing count is carried so the caller can render a
// confirmation prompt. No write has occurred.
type ConflictResult struct {
	Date          string `json:"date"`
	ExistingCount int    `json:"existing_count"`
}

// Summary aggregates a span of entries for the history endpoints.
type Summary struct {
	Days       int `json:"days"`
	TotalSteps int `json:"total_steps"`
	AvgPerDay  int `json:"avg_per_day"`
}
