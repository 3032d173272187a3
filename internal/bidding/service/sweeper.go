package service

import (
	"context"
	"time"

	"gemnet/pkg/config"
)

// Sweeper drives auction resolution in the background. The primary tick
// resolves listings whose window has lapsed; the slower consistency tick
// repairs listings a crash left half-resolved. A bad pass is logged and
// retried on the next tick, never fatal.
type Sweeper struct {
	service  BidService
	interval time.Duration
	repair   time.Duration
	cfg      *config.Config
}

func NewSweeper(service BidService, cfg *config.Config) *Sweeper {
	return &Sweeper{
		service:  service,
		interval: cfg.SweepInterval,
		repair:   cfg.ConsistencySweepInterval,
		cfg:      cfg,
	}
}

func (s *Sweeper) Name() string {
	return "bid-sweeper"
}

func (s *Sweeper) Run(ctx context.Context) {
	s.cfg.Log.Info("Bid sweeper started",
		"sweep_interval", s.interval,
		"consistency_interval", s.repair,
	)

	sweep := time.NewTicker(s.interval)
	defer sweep.Stop()
	consistency := time.NewTicker(s.repair)
	defer consistency.Stop()

	for {
		select {
		case <-ctx.Done():
			s.cfg.Log.Info("Bid sweeper stopped")
			return

		case <-sweep.C:
			s.runSweep(ctx)

		case <-consistency.C:
			s.runRepair(ctx)
		}
	}
}

func (s *Sweeper) runSweep(ctx context.Context) {
	resolved, err := s.service.ResolveDueListings(ctx)
	if err != nil {
		s.cfg.Log.Error("Sweep pass failed", "error", err)
		return
	}
	if resolved > 0 {
		s.cfg.Log.Info("Sweep pass completed", "resolved", resolved)
	}
}

func (s *Sweeper) runRepair(ctx context.Context) {
	repaired, err := s.service.RepairInconsistent(ctx)
	if err != nil {
		s.cfg.Log.Error("Consistency pass failed", "error", err)
		return
	}
	if repaired > 0 {
		s.cfg.Log.Warn("Consistency pass repaired listings", "repaired", repaired)
	}
}
