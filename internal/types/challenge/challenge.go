package challenge

import (
	"time"

	"github.com/google/uuid"
)

// Challenge is an admin-defined date range with a participation
// threshold. Start and end are inclusive calendar dates; at most one
// challenge is active at any moment.
type Challenge struct {
	ID                 uuid.UUID `json:"id" db:"id"`
	Name               string    `json:"name" db:"name"`
	StartDate          string    `json:"start_date" db:"start_date"`
	EndDate            string    `json:"end_date" db:"end_date"`
	ReportingThreshold int       `json:"reporting_threshold" db:"reporting_threshold"`
	IsActive           bool      `json:"is_active" db:"is_active"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
}

type CreateChallengeRequest struct {
	Name               string `json:"name" validate:"required,max=100"`
	StartDate          string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate            string `json:"end_date" validate:"required,datetime=2006-01-02"`
	ReportingThreshold int    `json:"reporting_threshold" validate:"min=0,max=100"`
}

type UpdateChallengeRequest struct {
	Name               *string `json:"name" validate:"omitempty,max=100"`
	StartDate          *string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate            *string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	ReportingThreshold *int    `json:"reporting_threshold" validate:"omitempty,min=0,max=100"`
}
