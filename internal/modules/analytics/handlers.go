package analytics

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/camdash/camdash/internal/modules/snapshots"
)

// validPeriods are the comparison windows the dashboard offers.
var validPeriods = []int{7, 14, 30}

const (
	defaultPeriodDays   = 7
	defaultHaloDays     = 30
	maxHaloDays         = 365
	recentActionWindow  = 7
	defaultHistoryLimit = 20
)

// RecentActions reports recommendation ids the operator already acted on.
type RecentActions interface {
	RecentlyActioned(days int) (map[string]bool, error)
}

// Handlers contains HTTP handlers for the metrics API.
type Handlers struct {
	store   *snapshots.Store
	engine  *Engine
	history *HistoryRepository
	actions RecentActions
	log     zerolog.Logger
}

// NewHandlers creates a new metrics handlers instance.
func NewHandlers(store *snapshots.Store, engine *Engine, history *HistoryRepository, actions RecentActions, log zerolog.Logger) *Handlers {
	return &Handlers{
		store:   store,
		engine:  engine,
		history: history,
		actions: actions,
		log:     log.With().Str("handler", "analytics").Logger(),
	}
}

// Routes mounts the metrics endpoints.
func (h *Handlers) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/correlation", h.HandleCorrelation)
	r.Get("/correlation/channels", h.HandleChannelCorrelation)
	r.Get("/recommendations", h.HandleRecommendations)
	r.Get("/halo-effect", h.HandleHaloTrend)
	r.Get("/summary", h.HandleSummary)
	r.Get("/timeframes", h.HandleTimeframes)
	return r
}

// HistoryRoutes mounts the analysis history endpoints.
func (h *Handlers) HistoryRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/history", h.HandleHistory)
	r.Get("/history/{id}", h.HandleHistoryPayload)
	return r
}

// HandleCorrelation runs the spend-outcome comparison.
// GET /api/metrics/correlation?days=7
func (h *Handlers) HandleCorrelation(w http.ResponseWriter, r *http.Request) {
	days, ok := h.periodDays(w, r)
	if !ok {
		return
	}

	result, err := h.engine.ComputeCorrelation(h.store.DailySeries(), days)
	if err != nil {
		h.writeComputeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// HandleChannelCorrelation breaks the comparison down per channel.
// GET /api/metrics/correlation/channels?days=7
func (h *Handlers) HandleChannelCorrelation(w http.ResponseWriter, r *http.Request) {
	days, ok := h.periodDays(w, r)
	if !ok {
		return
	}

	result, err := h.engine.ComputeChannelCorrelation(h.store.DailySeries(), days)
	if err != nil {
		h.writeComputeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// HandleRecommendations returns the ranked budget actions.
// GET /api/metrics/recommendations?days=7
func (h *Handlers) HandleRecommendations(w http.ResponseWriter, r *http.Request) {
	days, ok := h.periodDays(w, r)
	if !ok {
		return
	}

	var actioned map[string]bool
	if h.actions != nil {
		var err error
		actioned, err = h.actions.RecentlyActioned(recentActionWindow)
		if err != nil {
			h.log.Error().Err(err).Msg("Failed to load recently actioned ids")
			actioned = nil
		}
	}

	campaigns := make(map[snapshots.Channel][]snapshots.CampaignPeriod, len(snapshots.Channels))
	for _, ch := range snapshots.Channels {
		campaigns[ch] = h.store.CampaignsForWindow(ch, days)
	}

	result, err := h.engine.ComputeRecommendations(h.store.DailySeries(), campaigns, days, actioned)
	if err != nil {
		h.writeComputeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// HandleHaloTrend charts blended spend against Amazon sales.
// GET /api/metrics/halo-effect?days=30
func (h *Handlers) HandleHaloTrend(w http.ResponseWriter, r *http.Request) {
	days := queryInt(r, "days", defaultHaloDays)
	if days <= 0 || days > maxHaloDays {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("days must be between 1 and %d", maxHaloDays))
		return
	}

	result, err := h.engine.ComputeHaloTrend(h.store.DailySeries(), days)
	if err != nil {
		h.writeComputeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// HandleSummary condenses the correlation and strategy into one card.
// GET /api/metrics/summary?days=7
func (h *Handlers) HandleSummary(w http.ResponseWriter, r *http.Request) {
	days, ok := h.periodDays(w, r)
	if !ok {
		return
	}

	series := h.store.DailySeries()
	corr, err := h.engine.ComputeCorrelation(series, days)
	if err != nil {
		h.writeComputeError(w, err)
		return
	}

	campaigns := make(map[snapshots.Channel][]snapshots.CampaignPeriod, len(snapshots.Channels))
	for _, ch := range snapshots.Channels {
		campaigns[ch] = h.store.CampaignsForWindow(ch, days)
	}
	recs, err := h.engine.ComputeRecommendations(series, campaigns, days, nil)
	if err != nil {
		h.writeComputeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"period":          corr.Period,
		"verdict":         corr.Verdict,
		"spend_direction": corr.SpendDirection,
		"signal_summary":  corr.SignalSummary,
		"efficiency":      corr.Efficiency,
		"strategy":        recs.Strategy,
		"top_actions":     topActions(recs.Recommendations, 3),
	})
}

// HandleTimeframes reports which comparison windows the loaded data supports.
// GET /api/metrics/timeframes
func (h *Handlers) HandleTimeframes(w http.ResponseWriter, r *http.Request) {
	available := h.store.Days()

	type timeframe struct {
		Days      int  `json:"days"`
		Required  int  `json:"required"`
		Available bool `json:"available"`
	}
	frames := make([]timeframe, 0, len(validPeriods))
	for _, d := range validPeriods {
		frames = append(frames, timeframe{
			Days:      d,
			Required:  d * 2,
			Available: available >= d*2,
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"days_loaded": available,
		"timeframes":  frames,
	})
}

// HandleHistory lists recorded analysis runs.
// GET /api/analysis/history?limit=20
func (h *Handlers) HandleHistory(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultHistoryLimit)
	if limit <= 0 {
		writeError(w, http.StatusBadRequest, "limit must be positive")
		return
	}

	runs, err := h.history.List(limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list analysis runs")
		writeError(w, http.StatusInternalServerError, "Failed to list analysis runs")
		return
	}
	if runs == nil {
		runs = []AnalysisRun{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"runs": runs})
}

// HandleHistoryPayload returns one stored run in full.
// GET /api/analysis/history/{id}
func (h *Handlers) HandleHistoryPayload(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid run id")
		return
	}

	payload, err := h.history.GetPayload(id)
	if err != nil {
		h.log.Error().Err(err).Int64("id", id).Msg("Failed to get analysis run")
		writeError(w, http.StatusInternalServerError, "Failed to get analysis run")
		return
	}
	if payload == nil {
		writeError(w, http.StatusNotFound, "Run not found")
		return
	}

	writeJSON(w, http.StatusOK, payload)
}

// periodDays parses and validates the days query parameter, writing the 400
// response itself when the value is not one of the offered windows.
func (h *Handlers) periodDays(w http.ResponseWriter, r *http.Request) (int, bool) {
	days := defaultPeriodDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("days must be one of %v", validPeriods))
			return 0, false
		}
		days = parsed
	}
	for _, d := range validPeriods {
		if days == d {
			return days, true
		}
	}
	writeError(w, http.StatusBadRequest, fmt.Sprintf("days must be one of %v", validPeriods))
	return 0, false
}

// writeComputeError maps engine failures to HTTP statuses. Too little data is
// a 422 with the shortfall spelled out so the UI can offer a smaller window.
func (h *Handlers) writeComputeError(w http.ResponseWriter, err error) {
	var insufficient *InsufficientDataError
	if errors.As(err, &insufficient) {
		writeError(w, http.StatusUnprocessableEntity,
			fmt.Sprintf("Need at least %d days of data, have %d", insufficient.Required, insufficient.Available))
		return
	}
	h.log.Error().Err(err).Msg("Analysis failed")
	writeError(w, http.StatusInternalServerError, "Analysis failed")
}

func topActions(recs []BudgetRecommendation, n int) []BudgetRecommendation {
	if len(recs) > n {
		recs = recs[:n]
	}
	if recs == nil {
		recs = []BudgetRecommendation{}
	}
	return recs
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v) // Ignore encode error - already committed response
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
