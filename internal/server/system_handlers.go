package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/camdash/camdash/internal/database"
	"github.com/camdash/camdash/internal/modules/snapshots"
	"github.com/camdash/camdash/internal/scheduler"
)

// SystemHandlers handles health and operations endpoints.
type SystemHandlers struct {
	log        zerolog.Logger
	db         *database.DB
	store      *snapshots.Store
	scheduler  *scheduler.Scheduler
	refreshJob scheduler.Job
	startedAt  time.Time
}

// NewSystemHandlers creates a new system handlers instance.
func NewSystemHandlers(log zerolog.Logger, db *database.DB, store *snapshots.Store, sched *scheduler.Scheduler) *SystemHandlers {
	return &SystemHandlers{
		log:       log.With().Str("component", "system_handlers").Logger(),
		db:        db,
		store:     store,
		scheduler: sched,
		startedAt: time.Now(),
	}
}

// SetRefreshJob registers the snapshot refresh job for manual triggering.
// Called after jobs are registered in main.go.
func (h *SystemHandlers) SetRefreshJob(job scheduler.Job) {
	h.refreshJob = job
}

// SystemStatusResponse reports snapshot freshness and database health.
type SystemStatusResponse struct {
	Status          string `json:"status"`
	UptimeSeconds   int64  `json:"uptime_seconds"`
	DaysLoaded      int    `json:"days_loaded"`
	SnapshotsLoaded string `json:"snapshots_loaded_at,omitempty"`
	DatabaseOK      bool   `json:"database_ok"`
}

// HandleHealth is the liveness probe.
// GET /health
func (h *SystemHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, map[string]string{"status": "ok"})
}

// HandleSystemStatus returns system status.
// GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	dbOK := h.db.Conn().Ping() == nil
	if !dbOK {
		h.log.Error().Msg("Database ping failed")
	}

	status := "ok"
	if !dbOK || h.store.Days() == 0 {
		status = "degraded"
	}

	response := SystemStatusResponse{
		Status:        status,
		UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
		DaysLoaded:    h.store.Days(),
		DatabaseOK:    dbOK,
	}
	if loadedAt := h.store.LoadedAt(); !loadedAt.IsZero() {
		response.SnapshotsLoaded = loadedAt.UTC().Format(time.RFC3339)
	}

	h.writeJSON(w, response)
}

// HandleRefreshSnapshots triggers a snapshot reload immediately.
// POST /api/system/snapshots/refresh
func (h *SystemHandlers) HandleRefreshSnapshots(w http.ResponseWriter, r *http.Request) {
	if h.refreshJob == nil {
		h.log.Warn().Msg("Snapshot refresh job not registered yet")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":  "error",
			"message": "Snapshot refresh job not registered",
		})
		return
	}

	h.log.Info().Msg("Manual snapshot refresh triggered")

	if err := h.scheduler.RunNow(h.refreshJob); err != nil {
		h.log.Error().Err(err).Msg("Failed to refresh snapshots")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, map[string]interface{}{
		"status":      "success",
		"days_loaded": h.store.Days(),
	})
}

// writeJSON writes a JSON response
func (h *SystemHandlers) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
