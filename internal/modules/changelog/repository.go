package changelog

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// ErrNotFound is returned when a delete targets a missing entry.
var ErrNotFound = errors.New("changelog entry not found")

// Repository handles changelog database operations.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new changelog repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "changelog").Logger(),
	}
}

// Create inserts a new changelog entry and returns it with its id.
func (r *Repository) Create(req CreateRequest) (*Entry, error) {
	now := time.Now().UTC().Format(time.RFC3339)

	query := `
		INSERT INTO changelog
		(timestamp, action_type, description, recommendation_id, channel,
		 campaign, amount, percent_change, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Exec(query,
		req.Timestamp,
		req.ActionType,
		req.Description,
		nullString(req.RecommendationID),
		nullString(req.Channel),
		nullString(req.Campaign),
		nullFloat64Ptr(req.Amount),
		nullFloat64Ptr(req.PercentChange),
		nullString(req.Notes),
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create changelog entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get changelog entry id: %w", err)
	}

	r.log.Info().
		Int64("id", id).
		Str("action_type", req.ActionType).
		Str("channel", req.Channel).
		Msg("Changelog entry created")

	return &Entry{
		ID:               id,
		Timestamp:        req.Timestamp,
		ActionType:       req.ActionType,
		Description:      req.Description,
		RecommendationID: req.RecommendationID,
		Channel:          req.Channel,
		Campaign:         req.Campaign,
		Amount:           req.Amount,
		PercentChange:    req.PercentChange,
		Notes:            req.Notes,
		CreatedAt:        now,
	}, nil
}

// List returns entries from the last N days, most recent first.
func (r *Repository) List(days, limit int) ([]Entry, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -days).Format(time.RFC3339)

	query := `
		SELECT id, timestamp, action_type, description, recommendation_id,
		       channel, campaign, amount, percent_change, notes, created_at
		FROM changelog
		WHERE timestamp >= ?
		ORDER BY timestamp DESC
		LIMIT ?
	`

	rows, err := r.db.Query(query, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list changelog entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan changelog entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating changelog entries: %w", err)
	}

	return entries, nil
}

// Delete removes an entry by id.
func (r *Repository) Delete(id int64) error {
	result, err := r.db.Exec("DELETE FROM changelog WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete changelog entry: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	r.log.Info().Int64("id", id).Msg("Changelog entry deleted")
	return nil
}

// RecentlyActioned returns the recommendation ids logged in the last N days.
// Recommendations whose id appears here are suppressed on the next run.
func (r *Repository) RecentlyActioned(days int) (map[string]bool, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -days).Format(time.RFC3339)

	query := `
		SELECT DISTINCT recommendation_id FROM changelog
		WHERE timestamp >= ?
		  AND recommendation_id IS NOT NULL
		  AND recommendation_id != ''
	`

	rows, err := r.db.Query(query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to get recently actioned ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan recommendation id: %w", err)
		}
		ids[id] = true
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recommendation ids: %w", err)
	}

	return ids, nil
}

func scanEntry(rows *sql.Rows) (Entry, error) {
	var entry Entry
	var recID, channel, campaign, notes sql.NullString
	var amount, percentChange sql.NullFloat64

	err := rows.Scan(
		&entry.ID,
		&entry.Timestamp,
		&entry.ActionType,
		&entry.Description,
		&recID,
		&channel,
		&campaign,
		&amount,
		&percentChange,
		&notes,
		&entry.CreatedAt,
	)
	if err != nil {
		return entry, err
	}

	if recID.Valid {
		entry.RecommendationID = recID.String
	}
	if channel.Valid {
		entry.Channel = channel.String
	}
	if campaign.Valid {
		entry.Campaign = campaign.String
	}
	if notes.Valid {
		entry.Notes = notes.String
	}
	if amount.Valid {
		entry.Amount = &amount.Float64
	}
	if percentChange.Valid {
		entry.PercentChange = &percentChange.Float64
	}

	return entry, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullFloat64Ptr(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{Valid: false}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
