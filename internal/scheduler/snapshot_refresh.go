package scheduler

import (
	"errors"

	"github.com/rs/zerolog"

	"github.com/camdash/camdash/internal/modules/analytics"
	"github.com/camdash/camdash/internal/modules/snapshots"
)

// recordPeriodDays is the window recorded per refresh for verdict history.
const recordPeriodDays = 7

// SnapshotRefreshJob re-reads the connector snapshot files and records one
// analysis run on the fresh data. The connectors write overnight, so the
// default schedule runs once each morning; the job is also triggered manually
// through the system API after an ad-hoc export.
type SnapshotRefreshJob struct {
	store   *snapshots.Store
	engine  *analytics.Engine
	history *analytics.HistoryRepository
	log     zerolog.Logger
}

// NewSnapshotRefreshJob creates a new snapshot refresh job.
func NewSnapshotRefreshJob(store *snapshots.Store, engine *analytics.Engine, history *analytics.HistoryRepository, log zerolog.Logger) *SnapshotRefreshJob {
	return &SnapshotRefreshJob{
		store:   store,
		engine:  engine,
		history: history,
		log:     log.With().Str("job", "snapshot_refresh").Logger(),
	}
}

// Name returns the job name.
func (j *SnapshotRefreshJob) Name() string {
	return "snapshot_refresh"
}

// Run reloads all snapshot files, then records the weekly verdict so its
// drift stays reviewable after the snapshots move on.
func (j *SnapshotRefreshJob) Run() error {
	if err := j.store.Reload(); err != nil {
		return err
	}

	result, err := j.engine.ComputeCorrelation(j.store.DailySeries(), recordPeriodDays)
	if err != nil {
		var insufficient *analytics.InsufficientDataError
		if errors.As(err, &insufficient) {
			j.log.Warn().
				Int("required", insufficient.Required).
				Int("available", insufficient.Available).
				Msg("Not enough data to record an analysis run")
			return nil
		}
		return err
	}

	if _, err := j.history.Record(result); err != nil {
		j.log.Error().Err(err).Msg("Failed to record analysis run")
	}

	j.log.Info().
		Int("days", j.store.Days()).
		Str("verdict", string(result.Verdict.Status)).
		Msg("Snapshot refresh completed")

	return nil
}
