package leaderboard

import "github.com/google/uuid"

// ParticipantStanding is derived on every read, never persisted.
type ParticipantStanding struct {
	UserID                uuid.UUID `json:"user_id" db:"user_id"`
	Name                  string    `json:"name" db:"name"`
	Team                  string    `json:"team,omitempty" db:"team"`
	TotalSteps            int       `json:"total_steps" db:"total_steps"`
	DaysLogged            int       `json:"days_logged" db:"days_logged"`
	StepsPerDayReported   int       `json:"steps_per_day_reported"`
	PersonalReportingRate float64   `json:"personal_reporting_rate"`
	MeetsThreshold        bool      `json:"meets_threshold"`
}

type TeamStanding struct {
	Team                string  `json:"team"`
	MemberCount         int     `json:"member_count"`
	TeamEntries         int     `json:"team_entries"`
	TotalSteps          int     `json:"total_steps"`
	StepsPerDayReported int     `json:"steps_per_day_reported"`
	TeamReportingRate   float64 `json:"team_reporting_rate"`
	MeetsThreshold      bool    `json:"meets_threshold"`
}

// Individual and Team carry the ranked/unranked partition. With no
// active challenge the unranked slice is empty and everyone is ranked.
type Individual struct {
	ChallengeDay int                   `json:"challenge_day"`
	TotalDays    int                   `json:"total_days"`
	Ranked       []ParticipantStanding `json:"ranked"`
	Unranked     []ParticipantStanding `json:"unranked"`
}

type Team struct {
	ChallengeDay int            `json:"challenge_day"`
	TotalDays    int            `json:"total_days"`
	Ranked       []TeamStanding `json:"ranked"`
	Unranked     []TeamStanding `json:"unranked"`
}
