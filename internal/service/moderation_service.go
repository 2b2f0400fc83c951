package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/FiveCrux/FiveCrux-sub000/internal/dto"
	"github.com/FiveCrux/FiveCrux-sub000/internal/model"
	"github.com/FiveCrux/FiveCrux-sub000/internal/repository"
)

var (
	ErrUnknownEntity = errors.New("unknown entity type")
	ErrNotStaff      = errors.New("moderator role required")
)

// ModerationService review queue and decisions for every moderated entity
type ModerationService interface {
	Queue(ctx context.Context, entity model.EntityType, state model.ModerationState, req *dto.QueueRequest) ([]dto.QueueItem, int64, error)
	Approve(ctx context.Context, entity model.EntityType, id string, actor Actor) (*dto.QueueItem, error)
	Reject(ctx context.Context, entity model.EntityType, id, reason string, actor Actor) (*dto.QueueItem, error)
	Logs(ctx context.Context, req *dto.ModerationLogListRequest) ([]dto.ModerationLogResponse, int64, error)
}

type moderationService struct {
	repo   *repository.Repository
	flows  *workflows
	logger *zap.Logger
}

func NewModerationService(repo *repository.Repository, flows *workflows, logger *zap.Logger) ModerationService {
	return &moderationService{repo: repo, flows: flows, logger: logger}
}

// queueOrder pending oldest first, decided rows latest decision first
func queueOrder(state model.ModerationState) string {
	if state == model.StatePending {
		return "submitted_at ASC"
	}
	return "reviewed_at DESC"
}

func (s *moderationService) Queue(ctx context.Context, entity model.EntityType, state model.ModerationState, req *dto.QueueRequest) ([]dto.QueueItem, int64, error) {
	opts := repository.ListOptions{
		Scopes: []repository.Scope{repository.Search(req.Keyword, "title", "description")},
		Order:  queueOrder(state),
		Offset: req.GetOffset(),
		Limit:  req.GetPageSize(),
	}
	switch entity {
	case model.EntityScript:
		return queue(ctx, s.flows.scripts, s.repo, state, opts)
	case model.EntityGiveaway:
		return queue(ctx, s.flows.giveaways, s.repo, state, opts)
	case model.EntityAd:
		return queue(ctx, s.flows.ads, s.repo, state, opts)
	}
	return nil, 0, ErrUnknownEntity
}

func (s *moderationService) Approve(ctx context.Context, entity model.EntityType, id string, actor Actor) (*dto.QueueItem, error) {
	if !actor.Staff {
		return nil, ErrNotStaff
	}
	switch entity {
	case model.EntityScript:
		rec, err := s.flows.scripts.approve(ctx, s.repo, id, actor.UserID)
		return decided(s.flows.scripts, rec, err, model.StateApproved)
	case model.EntityGiveaway:
		rec, err := s.flows.giveaways.approve(ctx, s.repo, id, actor.UserID)
		return decided(s.flows.giveaways, rec, err, model.StateApproved)
	case model.EntityAd:
		rec, err := s.flows.ads.approve(ctx, s.repo, id, actor.UserID)
		return decided(s.flows.ads, rec, err, model.StateApproved)
	}
	return nil, ErrUnknownEntity
}

func (s *moderationService) Reject(ctx context.Context, entity model.EntityType, id, reason string, actor Actor) (*dto.QueueItem, error) {
	if !actor.Staff {
		return nil, ErrNotStaff
	}
	switch entity {
	case model.EntityScript:
		rec, err := s.flows.scripts.reject(ctx, s.repo, id, actor.UserID, reason)
		return decided(s.flows.scripts, rec, err, model.StateRejected)
	case model.EntityGiveaway:
		rec, err := s.flows.giveaways.reject(ctx, s.repo, id, actor.UserID, reason)
		return decided(s.flows.giveaways, rec, err, model.StateRejected)
	case model.EntityAd:
		rec, err := s.flows.ads.reject(ctx, s.repo, id, actor.UserID, reason)
		return decided(s.flows.ads, rec, err, model.StateRejected)
	}
	return nil, ErrUnknownEntity
}

func (s *moderationService) Logs(ctx context.Context, req *dto.ModerationLogListRequest) ([]dto.ModerationLogResponse, int64, error) {
	logs, total, err := s.repo.ModerationLog.List(ctx, repository.ModerationLogFilter{
		EntityType: req.EntityType,
		EntityID:   req.EntityID,
		ActorID:    req.ActorID,
		Action:     req.Action,
	}, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("list moderation logs failed", zap.Error(err))
		return nil, 0, err
	}

	list := make([]dto.ModerationLogResponse, 0, len(logs))
	for _, l := range logs {
		list = append(list, dto.ModerationLogResponse{
			ID:         l.LogID,
			EntityType: string(l.EntityType),
			EntityID:   l.EntityID,
			Action:     string(l.Action),
			ActorID:    l.ActorID,
			FromState:  l.FromState,
			ToState:    l.ToState,
			Reason:     l.Reason,
			CreatedAt:  formatTime(l.CreatedAt),
		})
	}
	return list, total, nil
}

// ── generic helpers ──

func queue[T any](ctx context.Context, w *workflow[T], repo *repository.Repository, state model.ModerationState, opts repository.ListOptions) ([]dto.QueueItem, int64, error) {
	rows, total, err := w.store(repo).List(ctx, state, opts)
	if err != nil {
		w.logger.Error("list moderation queue failed", zap.String("entity", string(w.entity)), zap.Error(err))
		return nil, 0, err
	}
	items := make([]dto.QueueItem, 0, len(rows))
	for i := range rows {
		items = append(items, queueItem(w, &rows[i], state))
	}
	return items, total, nil
}

// decided turns a workflow decision into a queue item.
func decided[T any](w *workflow[T], rec *T, err error, state model.ModerationState) (*dto.QueueItem, error) {
	if err != nil {
		return nil, err
	}
	item := queueItem(w, rec, state)
	return &item, nil
}

func queueItem[T any](w *workflow[T], rec *T, state model.ModerationState) dto.QueueItem {
	return dto.QueueItem{
		EntityType: string(w.entity),
		ID:         w.id(rec),
		Title:      w.title(rec),
		OwnerID:    w.owner(rec),
		ReviewInfo: reviewInfo(w.review(rec), state),
	}
}
