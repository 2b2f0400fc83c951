// Package worker runs the time-based transitions: slot expiry and giveaway draws.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/FiveCrux/FiveCrux-sub000/config"
)

const jobTimeout = 2 * time.Minute

// SlotExpirer implemented by service.SlotService
type SlotExpirer interface {
	ExpireEnded(ctx context.Context) (int64, error)
}

// GiveawayDrawer implemented by service.GiveawayService
type GiveawayDrawer interface {
	DrawDue(ctx context.Context) (int, error)
}

// Scheduler in-process cron. Each job is idempotent, so a missed or
// overlapping tick only delays work.
type Scheduler struct {
	cron      *cron.Cron
	slots     SlotExpirer
	giveaways GiveawayDrawer
	logger    *zap.Logger
}

// New registers the jobs whose spec is not empty. Specs carry a seconds field.
func New(cfg *config.SchedulerConfig, slots SlotExpirer, giveaways GiveawayDrawer, logger *zap.Logger) (*Scheduler, error) {
	cl := cronLogger{logger.Sugar()}
	s := &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(time.UTC),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		slots:     slots,
		giveaways: giveaways,
		logger:    logger,
	}

	jobs := []struct {
		name string
		spec string
		run  func()
	}{
		{"expire_slots", cfg.ExpireSlots, s.ExpireSlots},
		{"draw_giveaways", cfg.DrawGiveaways, s.DrawGiveaways},
	}
	for _, j := range jobs {
		if j.spec == "" {
			logger.Info("scheduler job disabled", zap.String("job", j.name))
			continue
		}
		if _, err := s.cron.AddFunc(j.spec, j.run); err != nil {
			return nil, fmt.Errorf("schedule %s %q: %w", j.name, j.spec, err)
		}
	}
	return s, nil
}

// Start runs the cron loop in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", zap.Int("jobs", len(s.cron.Entries())))
}

// Stop stops scheduling and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ExpireSlots marks ended placements as expired.
func (s *Scheduler) ExpireSlots() {
	s.run("expire_slots", func(ctx context.Context) (int64, error) {
		return s.slots.ExpireEnded(ctx)
	})
}

// DrawGiveaways draws winners of every ended giveaway.
func (s *Scheduler) DrawGiveaways() {
	s.run("draw_giveaways", func(ctx context.Context) (int64, error) {
		n, err := s.giveaways.DrawDue(ctx)
		return int64(n), err
	})
}

func (s *Scheduler) run(name string, job func(ctx context.Context) (int64, error)) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	start := time.Now()
	n, err := job(ctx)
	if err != nil {
		s.logger.Error("scheduler job failed", zap.String("job", name), zap.Duration("duration", time.Since(start)), zap.Error(err))
		return
	}
	if n > 0 {
		s.logger.Info("scheduler job finished", zap.String("job", name), zap.Int64("affected", n), zap.Duration("duration", time.Since(start)))
	}
}

// cronLogger routes cron's own logging to zap
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}
