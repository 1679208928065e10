package analytics

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// AnalysisRun is one persisted correlation result, kept so verdict drift is
// reviewable after snapshots have moved on.
type AnalysisRun struct {
	ID            int64         `json:"id"`
	CreatedAt     string        `json:"created_at"`
	PeriodDays    int           `json:"period_days"`
	Verdict       VerdictStatus `json:"verdict"`
	AgreeCount    int           `json:"agree_count"`
	DisagreeCount int           `json:"disagree_count"`
}

// HistoryRepository persists analysis runs.
type HistoryRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewHistoryRepository creates a new analysis history repository.
func NewHistoryRepository(db *sql.DB, log zerolog.Logger) *HistoryRepository {
	return &HistoryRepository{
		db:  db,
		log: log.With().Str("repo", "analysis_history").Logger(),
	}
}

// Record stores a correlation result with its full payload.
func (r *HistoryRepository) Record(result *SpendOutcomeCorrelation) (int64, error) {
	payload, err := json.Marshal(result)
	if err != nil {
		return 0, fmt.Errorf("failed to encode analysis payload: %w", err)
	}

	query := `
		INSERT INTO analysis_runs
		(created_at, period_days, verdict, agree_count, disagree_count, payload_json)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	res, err := r.db.Exec(query,
		time.Now().UTC().Format(time.RFC3339),
		result.Period.Days,
		string(result.Verdict.Status),
		result.SignalSummary.Agree,
		result.SignalSummary.Disagree,
		string(payload),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to record analysis run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get analysis run id: %w", err)
	}

	r.log.Info().
		Int64("id", id).
		Str("verdict", string(result.Verdict.Status)).
		Int("period_days", result.Period.Days).
		Msg("Analysis run recorded")

	return id, nil
}

// List returns the most recent runs without their payloads.
func (r *HistoryRepository) List(limit int) ([]AnalysisRun, error) {
	query := `
		SELECT id, created_at, period_days, verdict, agree_count, disagree_count
		FROM analysis_runs
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list analysis runs: %w", err)
	}
	defer rows.Close()

	var runs []AnalysisRun
	for rows.Next() {
		var run AnalysisRun
		if err := rows.Scan(&run.ID, &run.CreatedAt, &run.PeriodDays, &run.Verdict, &run.AgreeCount, &run.DisagreeCount); err != nil {
			return nil, fmt.Errorf("failed to scan analysis run: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating analysis runs: %w", err)
	}

	return runs, nil
}

// GetPayload returns the stored payload for one run.
func (r *HistoryRepository) GetPayload(id int64) (*SpendOutcomeCorrelation, error) {
	var payload string
	err := r.db.QueryRow("SELECT payload_json FROM analysis_runs WHERE id = ?", id).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get analysis run payload: %w", err)
	}

	var result SpendOutcomeCorrelation
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, fmt.Errorf("failed to decode analysis payload: %w", err)
	}
	return &result, nil
}
