package handlers

import (
	"context"
	"net/http"
	"time"

	"stepChallengeAPI/internal/challengeclock"
	"stepChallengeAPI/middleware"
	"stepChallengeAPI/services"
)

type LeaderboardHandler struct {
	leaderboardService *services.LeaderboardService
	challengeService   *services.ChallengeService
}

func NewLeaderboardHandler(leaderboardService *services.LeaderboardService, challengeService *services.ChallengeService) *LeaderboardHandler {
	return &LeaderboardHandler{
		leaderboardService: leaderboardService,
		challengeService:   challengeService,
	}
}

func (h *LeaderboardHandler) GetIndividualLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, ok := middleware.GetClerkID(ctx); !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	board, err := h.leaderboardService.GetIndividualLeaderboard(ctx)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	middleware.CountLeaderboardRead("individual")
	respondWithJSON(w, http.StatusOK, board)
}

func (h *LeaderboardHandler) GetTeamLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, ok := middleware.GetClerkID(ctx); !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	board, err := h.leaderboardService.GetTeamLeaderboard(ctx)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	middleware.CountLeaderboardRead("team")
	respondWithJSON(w, http.StatusOK, board)
}

// GetChallengeDay exposes the clock: the current 1-based day index and
// total day count of the active challenge. With no active challenge
// both are zero.
func (h *LeaderboardHandler) GetChallengeDay(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, ok := middleware.GetClerkID(ctx); !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	active, err := h.challengeService.GetActiveChallenge(ctx)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to fetch active challenge")
		return
	}
	if active == nil {
		respondWithJSON(w, http.StatusOK, map[string]int{"challenge_day": 0, "total_days": 0})
		return
	}

	day, totalDays, err := challengeclock.ChallengeDay(time.Now(), *active)
	if err != nil {
		// Malformed challenge dates degrade to "no active ranking".
		respondWithJSON(w, http.StatusOK, map[string]int{"challenge_day": 0, "total_days": 0})
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]int{"challenge_day": day, "total_days": totalDays})
}
