package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"stepChallengeAPI/internal/types/steps"
	"stepChallengeAPI/middleware"
	"stepChallengeAPI/services"
)

type StepsHandler struct {
	stepService *services.StepService
}

func NewStepsHandler(stepService *services.StepService) *StepsHandler {
	return &StepsHandler{
		stepService: stepService,
	}
}

// RecordSteps writes one step count for one calendar day. An existing
// record without allow_overwrite comes back as 409 with the stored
// count so the client can ask the user to confirm.
func (h *StepsHandler) RecordSteps(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req steps.RecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, conflict, err := h.stepService.RecordSteps(ctx, clerkID, &req)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}
	if conflict != nil {
		middleware.CountStepConflict()
		respondWithJSON(w, http.StatusConflict, conflict)
		return
	}

	middleware.CountStepRecorded()
	respondWithJSON(w, http.StatusOK, result)
}

// GetSteps returns the caller's history, optionally bounded by
// start_date / end_date query params.
func (h *StepsHandler) GetSteps(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var startDate, endDate *string
	if v := r.URL.Query().Get("start_date"); v != "" {
		startDate = &v
	}
	if v := r.URL.Query().Get("end_date"); v != "" {
		endDate = &v
	}

	entries, err := h.stepService.GetSteps(ctx, clerkID, startDate, endDate)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to fetch steps")
		return
	}
	if entries == nil {
		entries = []steps.StepEntry{}
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{"steps": entries})
}

func (h *StepsHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	days := 7
	if v := r.URL.Query().Get("days"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > 365 {
			respondWithError(w, http.StatusBadRequest, "days must be an integer between 1 and 365")
			return
		}
		days = parsed
	}

	summary, err := h.stepService.GetSummary(ctx, clerkID, days)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to fetch summary")
		return
	}

	respondWithJSON(w, http.StatusOK, summary)
}
