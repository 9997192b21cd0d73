package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/yarnhub/internal/store"
)

// HousekeepingService periodically nulls out expired one-time codes so the
// credentials table doesn't carry stale secrets around.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration

	// Internal channels for lifecycle management
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a new housekeeping service with the given interval.
// If interval is 0 or negative, defaults to 1 hour.
func NewHousekeepingService(store store.Store, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	return &HousekeepingService{
		Store:    store,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker that periodically runs cleanup.
// This is non-blocking and should be called after the database is ready.
// Call Stop() to gracefully shutdown the worker.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop gracefully shuts down the background worker.
// Blocks until the worker has finished any in-progress cleanup.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

// run is the main background worker loop.
func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Run cleanup immediately on startup
	s.cleanup()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCh:
			return
		}
	}
}

// cleanup performs the actual purge of expired codes.
func (s *HousekeepingService) cleanup() {
	ctx := context.Background()

	purged, err := s.Store.Credentials().PurgeExpiredCodes(ctx, time.Now().UTC())
	if err != nil {
		s.Logger.Error("failed to purge expired credential codes", "error", err)
		return
	}

	if purged > 0 {
		s.Logger.Info("purged expired credential codes", "rows", purged)
	} else {
		s.Logger.Debug("no expired credential codes to purge")
	}
}
