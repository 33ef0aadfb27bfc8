package ranking

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"stepChallengeAPI/internal/challengeclock"
	"stepChallengeAPI/internal/types/challenge"
	"stepChallengeAPI/internal/types/steps"
	"stepChallengeAPI/internal/types/user"
)

func testChallenge(threshold int) challenge.Challenge {
	return challenge.Challenge{
		ID:                 uuid.MustParse("11111111-1111-1111-1111-111111111111"),
		Name:               "January Challenge",
		StartDate:          "2025-01-01",
		EndDate:            "2025-01-10",
		ReportingThreshold: threshold,
	}
}

func testUser(name string, team string) user.User {
	u := user.User{ID: uuid.New(), Name: name}
	if team != "" {
		u.Team = &team
	}
	return u
}

func entry(u user.User, ch challenge.Challenge, date string, count int) steps.StepEntry {
	id := ch.ID
	return steps.StepEntry{UserID: u.ID, Date: date, Count: count, ChallengeID: &id}
}

func nowAt(t *testing.T, date string) time.Time {
	t.Helper()
	now, err := challengeclock.ParseDate(date)
	if err != nil {
		t.Fatalf("bad test date %q: %v", date, err)
	}
	return now
}

func TestIndividualThresholdPartition(t *testing.T) {
	ch := testChallenge(50)
	diligent := testUser("Alice", "")
	sparse := testUser("Bob", "")
	users := []user.User{diligent, sparse}

	// Day 4 of the challenge: expected = 4 per user.
	entries := []steps.StepEntry{
		entry(diligent, ch, "2025-01-01", 8000),
		entry(diligent, ch, "2025-01-02", 6000),
		entry(sparse, ch, "2025-01-03", 9000),
	}

	board, err := Individual(nowAt(t, "2025-01-04"), ch, users, entries)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if board.ChallengeDay != 4 || board.TotalDays != 10 {
		t.Fatalf("got day=%d total=%d, want day=4 total=10", board.ChallengeDay, board.TotalDays)
	}
	if len(board.Ranked) != 1 || board.Ranked[0].Name != "Alice" {
		t.Fatalf("ranked = %+v, want only Alice", board.Ranked)
	}
	if len(board.Unranked) != 1 || board.Unranked[0].Name != "Bob" {
		t.Fatalf("unranked = %+v, want only Bob", board.Unranked)
	}

	alice := board.Ranked[0]
	if alice.PersonalReportingRate != 50 {
		t.Errorf("Alice rate = %v, want 50", alice.PersonalReportingRate)
	}
	if alice.StepsPerDayReported != 7000 {
		t.Errorf("Alice steps/day = %d, want 7000", alice.StepsPerDayReported)
	}
	bob := board.Unranked[0]
	if bob.PersonalReportingRate != 25 {
		t.Errorf("Bob rate = %v, want 25", bob.PersonalReportingRate)
	}
}

func TestIndividualThresholdBoundaryIsInclusive(t *testing.T) {
	ch := testChallenge(70)
	u := testUser("Carol", "")

	// 7 of 10 elapsed days logged: exactly 70.00%.
	var entries []steps.StepEntry
	for _, d := range []string{"01", "02", "03", "04", "05", "06", "07"} {
		entries = append(entries, entry(u, ch, "2025-01-"+d, 5000))
	}

	board, err := Individual(nowAt(t, "2025-01-10"), ch, []user.User{u}, entries)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(board.Ranked) != 1 {
		t.Fatalf("user at exactly the threshold must be ranked, got unranked=%+v", board.Unranked)
	}
	if board.Ranked[0].PersonalReportingRate != 70 {
		t.Errorf("rate = %v, want 70", board.Ranked[0].PersonalReportingRate)
	}
}

func TestIndividualExcludesNonEntrantsAndArchived(t *testing.T) {
	ch := testChallenge(50)
	entrant := testUser("Dana", "")
	lurker := testUser("Eve", "")
	ghost := testUser("Frank", "")
	ghost.Archived = true

	entries := []steps.StepEntry{
		entry(entrant, ch, "2025-01-01", 4000),
		entry(ghost, ch, "2025-01-01", 9999),
	}

	board, err := Individual(nowAt(t, "2025-01-02"), ch, []user.User{entrant, lurker, ghost}, entries)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	total := len(board.Ranked) + len(board.Unranked)
	if total != 1 {
		t.Fatalf("got %d standings, want 1 (non-entrants and archived users are invisible)", total)
	}
}

func TestIndividualIgnoresUntaggedEntries(t *testing.T) {
	ch := testChallenge(50)
	u := testUser("Gil", "")

	pre := steps.StepEntry{UserID: u.ID, Date: "2025-01-01", Count: 5000} // no challenge tag

	board, err := Individual(nowAt(t, "2025-01-02"), ch, []user.User{u}, []steps.StepEntry{pre})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(board.Ranked)+len(board.Unranked) != 0 {
		t.Fatalf("untagged entries must not create standings: %+v", board)
	}
}

func TestIndividualOrderingAndTieBreak(t *testing.T) {
	ch := testChallenge(0) // everyone meets a zero threshold
	zoe := testUser("Zoe", "")
	amy := testUser("Amy", "")
	mia := testUser("Mia", "")

	entries := []steps.StepEntry{
		entry(zoe, ch, "2025-01-01", 5000),
		entry(amy, ch, "2025-01-01", 5000),
		entry(mia, ch, "2025-01-01", 9000),
	}

	board, err := Individual(nowAt(t, "2025-01-03"), ch, []user.User{zoe, amy, mia}, entries)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"Mia", "Amy", "Zoe"}
	if len(board.Ranked) != 3 {
		t.Fatalf("ranked count = %d, want 3", len(board.Ranked))
	}
	for i, name := range want {
		if board.Ranked[i].Name != name {
			t.Errorf("ranked[%d] = %s, want %s", i, board.Ranked[i].Name, name)
		}
	}
}

func TestTeamEntriesWeightedAverage(t *testing.T) {
	ch := testChallenge(0)
	a1 := testUser("A1", "Striders")
	a2 := testUser("A2", "Striders")
	b1 := testUser("B1", "Ramblers")
	solo := testUser("Solo", "")

	// Striders: 3 entries, 30000 steps -> 10000/entry.
	// Ramblers: 1 entry, 12000 steps -> 12000/entry despite one member.
	entries := []steps.StepEntry{
		entry(a1, ch, "2025-01-01", 10000),
		entry(a1, ch, "2025-01-02", 10000),
		entry(a2, ch, "2025-01-01", 10000),
		entry(b1, ch, "2025-01-01", 12000),
		entry(solo, ch, "2025-01-01", 20000),
	}

	board, err := Team(nowAt(t, "2025-01-02"), ch, []user.User{a1, a2, b1, solo}, entries)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(board.Ranked) != 2 {
		t.Fatalf("ranked teams = %d, want 2 (teamless users are excluded)", len(board.Ranked))
	}
	if board.Ranked[0].Team != "Ramblers" {
		t.Errorf("winner = %s, want Ramblers (entries-weighted average)", board.Ranked[0].Team)
	}
	if board.Ranked[0].StepsPerDayReported != 12000 {
		t.Errorf("Ramblers steps/entry = %d, want 12000", board.Ranked[0].StepsPerDayReported)
	}
	if board.Ranked[1].StepsPerDayReported != 10000 {
		t.Errorf("Striders steps/entry = %d, want 10000", board.Ranked[1].StepsPerDayReported)
	}

	for _, st := range board.Ranked {
		if st.Team == "Striders" && st.MemberCount != 2 {
			t.Errorf("Striders member count = %d, want 2", st.MemberCount)
		}
	}
}

func TestTeamReportingRate(t *testing.T) {
	ch := testChallenge(50)
	a1 := testUser("A1", "Striders")
	a2 := testUser("A2", "Striders")

	// Day 2, 2 members: expected 4, actual 3 -> 75%, ranked.
	entries := []steps.StepEntry{
		entry(a1, ch, "2025-01-01", 1000),
		entry(a1, ch, "2025-01-02", 1000),
		entry(a2, ch, "2025-01-01", 1000),
	}

	board, err := Team(nowAt(t, "2025-01-02"), ch, []user.User{a1, a2}, entries)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(board.Ranked) != 1 {
		t.Fatalf("want Striders ranked, got %+v", board)
	}
	if board.Ranked[0].TeamReportingRate != 75 {
		t.Errorf("rate = %v, want 75", board.Ranked[0].TeamReportingRate)
	}
}

func TestAllTimeFallbackRanksEveryone(t *testing.T) {
	alice := testUser("Alice", "Striders")
	bob := testUser("Bob", "")
	users := []user.User{alice, bob}

	entries := []steps.StepEntry{
		{UserID: alice.ID, Date: "2024-11-01", Count: 3000},
		{UserID: alice.ID, Date: "2024-11-02", Count: 5000},
		{UserID: bob.ID, Date: "2023-05-20", Count: 12000},
	}

	board := AllTimeIndividual(users, entries)
	if len(board.Unranked) != 0 {
		t.Fatalf("all-time fallback must not bucket anyone out: %+v", board.Unranked)
	}
	if len(board.Ranked) != 2 {
		t.Fatalf("ranked = %d, want 2", len(board.Ranked))
	}
	if board.Ranked[0].Name != "Bob" {
		t.Errorf("leader = %s, want Bob (12000/day beats 4000/day)", board.Ranked[0].Name)
	}
	if board.Ranked[1].StepsPerDayReported != 4000 {
		t.Errorf("Alice steps/day = %d, want 4000", board.Ranked[1].StepsPerDayReported)
	}

	teams := AllTimeTeam(users, entries)
	if len(teams.Ranked) != 1 || teams.Ranked[0].Team != "Striders" {
		t.Fatalf("all-time teams = %+v, want only Striders", teams.Ranked)
	}
}

func TestIndividualBeforeChallengeStart(t *testing.T) {
	ch := testChallenge(50)
	u := testUser("Hana", "")
	entries := []steps.StepEntry{entry(u, ch, "2025-01-01", 5000)}

	board, err := Individual(nowAt(t, "2024-12-30"), ch, []user.User{u}, entries)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if board.ChallengeDay != 0 {
		t.Fatalf("day = %d, want 0 before start", board.ChallengeDay)
	}
	// Expected is 0, so the rate is 0 and nobody can meet a positive threshold.
	if len(board.Ranked) != 0 {
		t.Errorf("nobody can be ranked before the challenge starts: %+v", board.Ranked)
	}
}
