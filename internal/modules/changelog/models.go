package changelog

import (
	"fmt"
	"time"
)

// Entry is one logged budget action. Entries are the operator's audit trail
// and also feed recommendation de-duplication: an entry created from a
// recommendation carries that recommendation's id.
type Entry struct {
	ID               int64    `json:"id"`
	Timestamp        string   `json:"timestamp"` // RFC3339, when the action was taken
	ActionType       string   `json:"action_type"`
	Description      string   `json:"description"`
	RecommendationID string   `json:"recommendation_id,omitempty"`
	Channel          string   `json:"channel,omitempty"`
	Campaign         string   `json:"campaign,omitempty"`
	Amount           *float64 `json:"amount,omitempty"`
	PercentChange    *float64 `json:"percent_change,omitempty"`
	Notes            string   `json:"notes,omitempty"`
	CreatedAt        string   `json:"created_at"`
}

// CreateRequest is the POST body for logging a new action.
type CreateRequest struct {
	Timestamp        string   `json:"timestamp,omitempty"` // defaults to now
	ActionType       string   `json:"action_type"`
	Description      string   `json:"description"`
	RecommendationID string   `json:"recommendation_id,omitempty"`
	Channel          string   `json:"channel,omitempty"`
	Campaign         string   `json:"campaign,omitempty"`
	Amount           *float64 `json:"amount,omitempty"`
	PercentChange    *float64 `json:"percent_change,omitempty"`
	Notes            string   `json:"notes,omitempty"`
}

// Validate checks required fields and normalizes the timestamp.
func (r *CreateRequest) Validate() error {
	if r.ActionType == "" {
		return fmt.Errorf("action_type is required")
	}
	if r.Description == "" {
		return fmt.Errorf("description is required")
	}
	if r.Timestamp == "" {
		r.Timestamp = time.Now().UTC().Format(time.RFC3339)
	} else if _, err := time.Parse(time.RFC3339, r.Timestamp); err != nil {
		return fmt.Errorf("timestamp must be RFC3339: %w", err)
	}
	return nil
}
