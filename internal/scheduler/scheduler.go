// Package scheduler runs the ingestion pipeline on a cron schedule.
package scheduler

import (
	"context"
	"errors"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/driveagent/driveagent/internal/ingest"
)

// Scheduler wraps a cron runner around one pipeline.
type Scheduler struct {
	cron     *cron.Cron
	pipeline *ingest.Pipeline
}

// New schedules the pipeline with the given cron spec (e.g. "@hourly").
// Overlapping runs are skipped by the pipeline's own per-root lock.
func New(spec string, pipeline *ingest.Pipeline) (*Scheduler, error) {
	c := cron.New()
	s := &Scheduler{cron: c, pipeline: pipeline}

	if _, err := c.AddFunc(spec, s.runOnce); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) runOnce() {
	report, err := s.pipeline.Run(context.Background())
	if err != nil {
		if errors.Is(err, ingest.ErrSyncRunning) {
			log.Warn().Msg("scheduled sync skipped, previous run still in flight")
			return
		}
		log.Error().Err(err).Msg("scheduled sync failed")
		return
	}
	log.Info().
		Int("added", report.Added).
		Int("updated", report.Updated).
		Int("deleted", report.Deleted).
		Msg("scheduled sync finished")
}

// Start begins the cron loop in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	log.Info().Msg("sync scheduler started")
}

// Stop halts scheduling and waits for a running job to return.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
