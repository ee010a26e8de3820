package store

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Janitor deletes stored images older than the retention period on a cron
// schedule.
type Janitor struct {
	store     *Store
	retention time.Duration
	logger    *zap.Logger
	cron      *cron.Cron
}

func NewJanitor(s *Store, retention time.Duration, logger *zap.Logger) *Janitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Janitor{
		store:     s,
		retention: retention,
		logger:    logger.Named("janitor"),
		cron:      cron.New(),
	}
}

// Start schedules sweeps with a standard cron spec or descriptor such as
// "@hourly". It does not block.
func (j *Janitor) Start(schedule string) error {
	_, err := j.cron.AddFunc(schedule, func() {
		if _, err := j.Sweep(time.Now()); err != nil {
			j.logger.Warn("sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("parse cleanup schedule %q: %w", schedule, err)
	}
	j.cron.Start()
	j.logger.Info("janitor started", zap.String("schedule", schedule), zap.Duration("retention", j.retention))
	return nil
}

// Stop halts the schedule and waits for a running sweep, or for ctx.
func (j *Janitor) Stop(ctx context.Context) {
	select {
	case <-j.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// Sweep removes every image last modified before now minus the retention
// period and returns the removed names.
func (j *Janitor) Sweep(now time.Time) ([]string, error) {
	infos, err := j.store.List()
	if err != nil {
		return nil, err
	}

	cutoff := now.Add(-j.retention)
	var removed []string
	for _, info := range infos {
		if !info.ModTime.Before(cutoff) {
			continue
		}
		if err := j.store.Remove(info.Name); err != nil {
			j.logger.Warn("remove expired image", zap.String("name", info.Name), zap.Error(err))
			continue
		}
		removed = append(removed, info.Name)
	}
	if len(removed) > 0 {
		j.logger.Info("expired images removed", zap.Int("count", len(removed)))
	}
	return removed, nil
}
