// Package ranking turns step entries and the challenge-day index into
// ordered, threshold-bucketed standings. It is a read-only consumer of
// ledger state: explicit group-by-user and group-by-team passes over an
// in-memory result set, recomputed on every read.
package ranking

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"stepChallengeAPI/internal/challengeclock"
	"stepChallengeAPI/internal/reporting"
	"stepChallengeAPI/internal/types/challenge"
	"stepChallengeAPI/internal/types/leaderboard"
	"stepChallengeAPI/internal/types/steps"
	"stepChallengeAPI/internal/types/user"
)

// Individual ranks every user with at least one entry tagged with the
// active challenge. Users who never posted during the challenge are
// not shown at all, not even as 0% unranked. Archived users are
// excluded regardless.
func Individual(now time.Time, ch challenge.Challenge, users []user.User, entries []steps.StepEntry) (leaderboard.Individual, error) {
	day, totalDays, err := challengeclock.ChallengeDay(now, ch)
	if err != nil {
		return leaderboard.Individual{}, err
	}

	lastElapsed := windowEnd(ch.StartDate, day)
	byUser := make(map[uuid.UUID]*leaderboard.ParticipantStanding)
	inWindow := make(map[uuid.UUID]int)

	active := activeUsers(users)
	for _, e := range entries {
		if e.ChallengeID == nil || *e.ChallengeID != ch.ID {
			continue
		}
		u, ok := active[e.UserID]
		if !ok {
			continue
		}
		st := byUser[e.UserID]
		if st == nil {
			st = &leaderboard.ParticipantStanding{UserID: e.UserID, Name: u.Name, Team: u.TeamName()}
			byUser[e.UserID] = st
		}
		st.TotalSteps += e.Count
		st.DaysLogged++
		if reporting.InWindow(e.Date, ch.StartDate, lastElapsed) {
			inWindow[e.UserID]++
		}
	}

	standings := make([]leaderboard.ParticipantStanding, 0, len(byUser))
	for id, st := range byUser {
		if st.DaysLogged > 0 {
			st.StepsPerDayReported = st.TotalSteps / st.DaysLogged
		}
		rate := reporting.Calculate(1, day, inWindow[id])
		st.PersonalReportingRate = rate.Percentage
		st.MeetsThreshold = rate.Percentage >= float64(ch.ReportingThreshold)
		standings = append(standings, *st)
	}

	ranked, unranked := partitionParticipants(standings)
	return leaderboard.Individual{
		ChallengeDay: day,
		TotalDays:    totalDays,
		Ranked:       ranked,
		Unranked:     unranked,
	}, nil
}

// Team groups challenge entries by team name. The team average divides
// by entries logged, not member count times days: a small team of
// diligent reporters can outrank a big team of sparse ones. That is
// policy, not a bug.
func Team(now time.Time, ch challenge.Challenge, users []user.User, entries []steps.StepEntry) (leaderboard.Team, error) {
	day, totalDays, err := challengeclock.ChallengeDay(now, ch)
	if err != nil {
		return leaderboard.Team{}, err
	}

	lastElapsed := windowEnd(ch.StartDate, day)
	active := activeUsers(users)

	members := make(map[string]int)
	for _, u := range active {
		if u.TeamName() != "" {
			members[u.TeamName()]++
		}
	}

	byTeam := make(map[string]*leaderboard.TeamStanding)
	inWindow := make(map[string]int)
	for _, e := range entries {
		if e.ChallengeID == nil || *e.ChallengeID != ch.ID {
			continue
		}
		u, ok := active[e.UserID]
		if !ok || u.TeamName() == "" {
			continue
		}
		team := u.TeamName()
		st := byTeam[team]
		if st == nil {
			st = &leaderboard.TeamStanding{Team: team, MemberCount: members[team]}
			byTeam[team] = st
		}
		st.TotalSteps += e.Count
		st.TeamEntries++
		if reporting.InWindow(e.Date, ch.StartDate, lastElapsed) {
			inWindow[team]++
		}
	}

	standings := make([]leaderboard.TeamStanding, 0, len(byTeam))
	for team, st := range byTeam {
		if st.TeamEntries > 0 {
			st.StepsPerDayReported = st.TotalSteps / st.TeamEntries
		}
		rate := reporting.Calculate(st.MemberCount, day, inWindow[team])
		st.TeamReportingRate = rate.Percentage
		st.MeetsThreshold = rate.Percentage >= float64(ch.ReportingThreshold)
		standings = append(standings, *st)
	}

	ranked, unranked := partitionTeams(standings)
	return leaderboard.Team{
		ChallengeDay: day,
		TotalDays:    totalDays,
		Ranked:       ranked,
		Unranked:     unranked,
	}, nil
}

// AllTimeIndividual is the no-active-challenge fallback: simple
// all-time totals across every entry ever recorded, nobody bucketed
// out.
func AllTimeIndividual(users []user.User, entries []steps.StepEntry) leaderboard.Individual {
	active := activeUsers(users)
	byUser := make(map[uuid.UUID]*leaderboard.ParticipantStanding)
	for _, e := range entries {
		u, ok := active[e.UserID]
		if !ok {
			continue
		}
		st := byUser[e.UserID]
		if st == nil {
			st = &leaderboard.ParticipantStanding{UserID: e.UserID, Name: u.Name, Team: u.TeamName()}
			byUser[e.UserID] = st
		}
		st.TotalSteps += e.Count
		st.DaysLogged++
	}

	standings := make([]leaderboard.ParticipantStanding, 0, len(byUser))
	for _, st := range byUser {
		if st.DaysLogged > 0 {
			st.StepsPerDayReported = st.TotalSteps / st.DaysLogged
		}
		st.MeetsThreshold = true
		standings = append(standings, *st)
	}
	sortParticipants(standings)
	return leaderboard.Individual{Ranked: standings, Unranked: []leaderboard.ParticipantStanding{}}
}

func AllTimeTeam(users []user.User, entries []steps.StepEntry) leaderboard.Team {
	active := activeUsers(users)
	members := make(map[string]int)
	for _, u := range active {
		if u.TeamName() != "" {
			members[u.TeamName()]++
		}
	}

	byTeam := make(map[string]*leaderboard.TeamStanding)
	for _, e := range entries {
		u, ok := active[e.UserID]
		if !ok || u.TeamName() == "" {
			continue
		}
		team := u.TeamName()
		st := byTeam[team]
		if st == nil {
			st = &leaderboard.TeamStanding{Team: team, MemberCount: members[team]}
			byTeam[team] = st
		}
		st.TotalSteps += e.Count
		st.TeamEntries++
	}

	standings := make([]leaderboard.TeamStanding, 0, len(byTeam))
	for _, st := range byTeam {
		if st.TeamEntries > 0 {
			st.StepsPerDayReported = st.TotalSteps / st.TeamEntries
		}
		st.MeetsThreshold = true
		standings = append(standings, *st)
	}
	sortTeams(standings)
	return leaderboard.Team{Ranked: standings, Unranked: []leaderboard.TeamStanding{}}
}

func activeUsers(users []user.User) map[uuid.UUID]user.User {
	m := make(map[uuid.UUID]user.User, len(users))
	for _, u := range users {
		if !u.Archived {
			m[u.ID] = u
		}
	}
	return m
}

// windowEnd returns the last elapsed calendar date of the challenge:
// startDate + challengeDay - 1. With day 0 the window is empty, which
// an impossible "day before start" end date encodes.
func windowEnd(startDate string, challengeDay int) string {
	start, err := challengeclock.ParseDate(startDate)
	if err != nil {
		return ""
	}
	return challengeclock.FormatDate(start.AddDate(0, 0, challengeDay-1))
}

// Ordering: meets_threshold desc (kept in the composite sort even
// though it is constant within a partition), steps/day desc, then name
// asc as the deterministic tie-break.
func sortParticipants(s []leaderboard.ParticipantStanding) {
	sort.Slice(s, func(i, j int) bool {
		if s[i].MeetsThreshold != s[j].MeetsThreshold {
			return s[i].MeetsThreshold
		}
		if s[i].StepsPerDayReported != s[j].StepsPerDayReported {
			return s[i].StepsPerDayReported > s[j].StepsPerDayReported
		}
		return s[i].Name < s[j].Name
	})
}

func sortTeams(s []leaderboard.TeamStanding) {
	sort.Slice(s, func(i, j int) bool {
		if s[i].MeetsThreshold != s[j].MeetsThreshold {
			return s[i].MeetsThreshold
		}
		if s[i].StepsPerDayReported != s[j].StepsPerDayReported {
			return s[i].StepsPerDayReported > s[j].StepsPerDayReported
		}
		return s[i].Team < s[j].Team
	})
}

func partitionParticipants(s []leaderboard.ParticipantStanding) (ranked, unranked []leaderboard.ParticipantStanding) {
	sortParticipants(s)
	ranked = []leaderboard.ParticipantStanding{}
	unranked = []leaderboard.ParticipantStanding{}
	for _, st := range s {
		if st.MeetsThreshold {
			ranked = append(ranked, st)
		} else {
			unranked = append(unranked, st)
		}
	}
	return ranked, unranked
}

func partitionTeams(s []leaderboard.TeamStanding) (ranked, unranked []leaderboard.TeamStanding) {
	sortTeams(s)
	ranked = []leaderboard.TeamStanding{}
	unranked = []leaderboard.TeamStanding{}
	for _, st := range s {
		if st.MeetsThreshold {
			ranked = append(ranked, st)
		} else {
			unranked = append(unranked, st)
		}
	}
	return ranked, unranked
}
