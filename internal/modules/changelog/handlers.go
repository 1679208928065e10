package changelog

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handlers contains HTTP handlers for the changelog API.
type Handlers struct {
	repo *Repository
	log  zerolog.Logger
}

// NewHandlers creates a new changelog handlers instance.
func NewHandlers(repo *Repository, log zerolog.Logger) *Handlers {
	return &Handlers{
		repo: repo,
		log:  log.With().Str("handler", "changelog").Logger(),
	}
}

// Routes mounts the changelog endpoints.
func (h *Handlers) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.HandleList)
	r.Post("/", h.HandleCreate)
	r.Delete("/{id}", h.HandleDelete)
	return r
}

// HandleList returns recent entries.
// GET /api/changelog?days=30&limit=100
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	days := queryInt(r, "days", 30)
	limit := queryInt(r, "limit", 100)
	if days <= 0 || limit <= 0 {
		writeError(w, http.StatusBadRequest, "days and limit must be positive")
		return
	}

	entries, err := h.repo.List(days, limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list changelog entries")
		writeError(w, http.StatusInternalServerError, "Failed to list changelog entries")
		return
	}
	if entries == nil {
		entries = []Entry{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"days":    days,
	})
}

// HandleCreate logs a new action.
// POST /api/changelog
func (h *Handlers) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	entry, err := h.repo.Create(req)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to create changelog entry")
		writeError(w, http.StatusInternalServerError, "Failed to create changelog entry")
		return
	}

	writeJSON(w, http.StatusCreated, entry)
}

// HandleDelete removes an entry.
// DELETE /api/changelog/{id}
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid entry id")
		return
	}

	if err := h.repo.Delete(id); err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "Entry not found")
			return
		}
		h.log.Error().Err(err).Int64("id", id).Msg("Failed to delete changelog entry")
		writeError(w, http.StatusInternalServerError, "Failed to delete changelog entry")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
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
