package service

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/FiveCrux/FiveCrux-sub000/internal/dto"
	"github.com/FiveCrux/FiveCrux-sub000/internal/model"
	"github.com/FiveCrux/FiveCrux-sub000/internal/repository"
)

// DashboardService admin overview
type DashboardService interface {
	Stats(ctx context.Context) (*dto.DashboardStats, error)
}

type dashboardService struct {
	repo   *repository.Repository
	now    Clock
	logger *zap.Logger
}

func NewDashboardService(repo *repository.Repository, now Clock, logger *zap.Logger) DashboardService {
	if now == nil {
		now = utcNow
	}
	return &dashboardService{repo: repo, now: now, logger: logger}
}

// Stats runs every count concurrently; the first failure cancels the rest.
func (s *dashboardService) Stats(ctx context.Context) (*dto.DashboardStats, error) {
	now := s.now()
	stats := &dto.DashboardStats{GeneratedAt: formatTime(now)}

	g, gctx := errgroup.WithContext(ctx)

	countStates[model.Script](g, gctx, s.repo.Script, &stats.Scripts)
	countStates[model.Giveaway](g, gctx, s.repo.Giveaway, &stats.Giveaways)
	countStates[model.Ad](g, gctx, s.repo.Ad, &stats.Ads)

	g.Go(func() (err error) {
		stats.Users, err = s.repo.User.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.ActiveAdSlots, err = s.repo.Slot.CountActive(gctx, model.SlotKindAd, now)
		return err
	})
	g.Go(func() (err error) {
		stats.ActiveFeaturedSlots, err = s.repo.Slot.CountActive(gctx, model.SlotKindFeaturedScript, now)
		return err
	})
	g.Go(func() (err error) {
		stats.RevenueCents, err = s.repo.Slot.SumRevenue(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		s.logger.Error("dashboard stats failed", zap.Error(err))
		return nil, err
	}
	return stats, nil
}

// countStates schedules one count per state table; each goroutine writes its own field.
func countStates[T any](g *errgroup.Group, ctx context.Context, store repository.ModeratedRepository[T], out *dto.StateCounts) {
	targets := map[model.ModerationState]*int64{
		model.StatePending:  &out.Pending,
		model.StateApproved: &out.Approved,
		model.StateRejected: &out.Rejected,
	}
	for state, dst := range targets {
		g.Go(func() (err error) {
			*dst, err = store.Count(ctx, state)
			return err
		})
	}
}
