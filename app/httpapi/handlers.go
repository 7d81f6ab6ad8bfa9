package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	activityhandlers "github.com/Black-And-White-Club/stride-bot/app/modules/activity/infrastructure/handlers"
	leaderboardservice "github.com/Black-And-White-Club/stride-bot/app/modules/leaderboard/application"
	rankservice "github.com/Black-And-White-Club/stride-bot/app/modules/rank/application"
	"github.com/Black-And-White-Club/stride-bot/app/shared/attr"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type handlers struct {
	deps Deps
}

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

type tiersResponse struct {
	Tiers []rankservice.Tier `json:"tiers"`
}

type progressResponse struct {
	WeeklyTotal float64  `json:"weekly_total"`
	Tier        string   `json:"tier"`
	TierIndex   int      `json:"tier_index"`
	NextTier    *string  `json:"next_tier,omitempty"`
	KmRemaining *float64 `json:"km_remaining,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func (h *handlers) internalError(w http.ResponseWriter, r *http.Request, err error) {
	h.deps.Logger.ErrorContext(r.Context(), "HTTP request failed",
		attr.String("path", r.URL.Path),
		attr.String("request_id", middleware.GetReqID(r.Context())),
		attr.Error(err),
	)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Checks: map[string]string{}}
	status := http.StatusOK
	for _, hc := range h.deps.HealthChecks {
		if err := hc.Check(r.Context()); err != nil {
			resp.Checks[hc.Name] = err.Error()
			resp.Status = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[hc.Name] = "ok"
	}
	writeJSON(w, status, resp)
}

func (h *handlers) userStats(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || userID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	stats, err := h.deps.Activity.GetStats(r.Context(), userID)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	progress, err := h.deps.Rank.Progress(stats.WeeklyTotal)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, activityhandlers.StatsPayloadV1(stats, progress, time.Now().UTC()))
}

// limitParam reads ?limit=, defaulting when absent.
func (h *handlers) limitParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return h.deps.DefaultLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid limit %q", raw)
	}
	return n, nil
}

func (h *handlers) weeklyLeaderboard(w http.ResponseWriter, r *http.Request) {
	h.leaderboard(w, r, h.deps.Leaderboard.WeeklyLeaderboard)
}

func (h *handlers) monthlyLeaderboard(w http.ResponseWriter, r *http.Request) {
	h.leaderboard(w, r, h.deps.Leaderboard.MonthlyLeaderboard)
}

func (h *handlers) leaderboard(w http.ResponseWriter, r *http.Request, get func(context.Context, int) (*leaderboardservice.Board, error)) {
	limit, err := h.limitParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	board, err := get(r.Context(), limit)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, leaderboardservice.BoardPayloadV1(board))
}

func (h *handlers) ranks(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, tiersResponse{Tiers: h.deps.Rank.Tiers()})
}

// rankProgress accepts ?km= with a dot or comma decimal separator.
func (h *handlers) rankProgress(w http.ResponseWriter, r *http.Request) {
	raw := strings.ReplaceAll(strings.TrimSpace(r.URL.Query().Get("km")), ",", ".")
	km, err := strconv.ParseFloat(raw, 64)
	if err != nil || km < 0 || math.IsNaN(km) || math.IsInf(km, 0) {
		writeError(w, http.StatusBadRequest, "km must be a non-negative number")
		return
	}

	progress, err := h.deps.Rank.Progress(km)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, progressResponse{
		WeeklyTotal: km,
		Tier:        progress.Current.Name,
		TierIndex:   progress.Current.Index,
		NextTier:    progress.NextName(),
		KmRemaining: progress.KmRemaining,
	})
}
