package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/FiveCrux/FiveCrux-sub000/config"
	"github.com/FiveCrux/FiveCrux-sub000/internal/dto"
	"github.com/FiveCrux/FiveCrux-sub000/internal/model"
	"github.com/FiveCrux/FiveCrux-sub000/internal/repository"
)

var (
	ErrInvalidSlotRange    = errors.New("end_at must be after start_at")
	ErrInvalidSlotKind     = errors.New("unknown slot kind")
	ErrSlotTargetNotFound  = errors.New("slot target is not an approved listing")
	ErrSlotCapacityReached = errors.New("no free slot in the requested window")
	ErrSlotNotFound        = errors.New("slot purchase not found")
	ErrSlotNotActive       = errors.New("slot purchase is no longer active")
)

// defaultWindow availability window when the query leaves the end open
const defaultWindow = 30 * 24 * time.Hour

// ReferenceGenerator issues purchase references; implemented by *idgen.Generator.
type ReferenceGenerator interface {
	Next() string
}

// SlotService paid ad and featured-script placements
type SlotService interface {
	Create(ctx context.Context, req *dto.CreateSlotRequest, actor Actor) (*dto.SlotResponse, error)
	Cancel(ctx context.Context, id string, actor Actor) (*dto.SlotResponse, error)
	Get(ctx context.Context, id string) (*dto.SlotResponse, error)
	List(ctx context.Context, req *dto.SlotListRequest) ([]dto.SlotResponse, int64, error)
	ListMine(ctx context.Context, req *dto.PaginationRequest, actor Actor) ([]dto.SlotResponse, int64, error)
	Availability(ctx context.Context, req *dto.SlotWindowRequest) ([]dto.AvailabilityResponse, error)
	// ExpireEnded marks active purchases past their end as expired.
	ExpireEnded(ctx context.Context) (int64, error)
}

type slotService struct {
	repo   *repository.Repository
	cfg    *config.SlotConfig
	refs   ReferenceGenerator
	now    Clock
	logger *zap.Logger
}

func NewSlotService(repo *repository.Repository, cfg *config.SlotConfig, refs ReferenceGenerator, now Clock, logger *zap.Logger) SlotService {
	if now == nil {
		now = utcNow
	}
	return &slotService{repo: repo, cfg: cfg, refs: refs, now: now, logger: logger}
}

func (s *slotService) capacity(kind string) int {
	if kind == model.SlotKindAd {
		return s.cfg.AdCapacity
	}
	return s.cfg.FeaturedCapacity
}

// ════════════════════════════════════════════════════════════
// Create / Cancel
// ════════════════════════════════════════════════════════════

func (s *slotService) Create(ctx context.Context, req *dto.CreateSlotRequest, actor Actor) (*dto.SlotResponse, error) {
	if req.Kind != model.SlotKindAd && req.Kind != model.SlotKindFeaturedScript {
		return nil, ErrInvalidSlotKind
	}
	start, end := req.StartAt.UTC(), req.EndAt.UTC()
	if !end.After(start) {
		return nil, ErrInvalidSlotRange
	}

	currency := strings.ToUpper(req.Currency)
	if currency == "" {
		currency = defaultCurrency
	}
	slot := &model.SlotPurchase{
		Reference:   s.refs.Next(),
		Kind:        req.Kind,
		TargetID:    req.TargetID,
		UserID:      req.UserID,
		StartAt:     start,
		EndAt:       end,
		AmountCents: req.AmountCents,
		Currency:    currency,
		Status:      model.SlotStatusActive,
		Note:        req.Note,
	}
	slot.CreatedBy = &actor.UserID
	slot.UpdatedBy = &actor.UserID

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := s.checkTarget(ctx, tx, req.Kind, req.TargetID); err != nil {
			return err
		}
		if _, err := tx.User.GetByID(ctx, req.UserID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		// two admins booking the last slot at once can both pass this check
		taken, err := tx.Slot.CountOverlapping(ctx, req.Kind, start, end)
		if err != nil {
			return err
		}
		if taken >= int64(s.capacity(req.Kind)) {
			return ErrSlotCapacityReached
		}
		return tx.Slot.Create(ctx, slot)
	})
	if err != nil {
		if !isSlotError(err) {
			s.logger.Error("create slot failed", zap.String("kind", req.Kind), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("slot purchase recorded",
		zap.String("reference", slot.Reference),
		zap.String("kind", slot.Kind),
		zap.String("target_id", slot.TargetID),
		zap.Time("start_at", slot.StartAt),
		zap.Time("end_at", slot.EndAt),
	)
	resp := toSlotResponse(slot)
	return &resp, nil
}

func (s *slotService) checkTarget(ctx context.Context, tx *repository.Repository, kind, targetID string) error {
	var err error
	switch kind {
	case model.SlotKindAd:
		_, err = tx.Ad.Get(ctx, model.StateApproved, targetID)
	case model.SlotKindFeaturedScript:
		_, err = tx.Script.Get(ctx, model.StateApproved, targetID)
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrSlotTargetNotFound
	}
	return err
}

func (s *slotService) Cancel(ctx context.Context, id string, actor Actor) (*dto.SlotResponse, error) {
	slot, err := s.repo.Slot.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}
	if slot.Status != model.SlotStatusActive {
		return nil, ErrSlotNotActive
	}

	at := s.now()
	if err := s.repo.Slot.Cancel(ctx, id, at, actor.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSlotNotActive
		}
		s.logger.Error("cancel slot failed", zap.String("slot_id", id), zap.Error(err))
		return nil, err
	}

	slot.Status = model.SlotStatusCancelled
	slot.CancelledAt = &at
	resp := toSlotResponse(slot)
	return &resp, nil
}

// ════════════════════════════════════════════════════════════
// Queries
// ════════════════════════════════════════════════════════════

func (s *slotService) Get(ctx context.Context, id string) (*dto.SlotResponse, error) {
	slot, err := s.repo.Slot.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}
	resp := toSlotResponse(slot)
	return &resp, nil
}

func (s *slotService) List(ctx context.Context, req *dto.SlotListRequest) ([]dto.SlotResponse, int64, error) {
	return s.list(ctx, repository.SlotFilter{
		Kind:     req.Kind,
		Status:   req.Status,
		UserID:   req.UserID,
		TargetID: req.TargetID,
	}, &req.PaginationRequest)
}

func (s *slotService) ListMine(ctx context.Context, req *dto.PaginationRequest, actor Actor) ([]dto.SlotResponse, int64, error) {
	return s.list(ctx, repository.SlotFilter{UserID: actor.UserID}, req)
}

func (s *slotService) list(ctx context.Context, filter repository.SlotFilter, page *dto.PaginationRequest) ([]dto.SlotResponse, int64, error) {
	slots, total, err := s.repo.Slot.List(ctx, filter, page.GetOffset(), page.GetPageSize())
	if err != nil {
		s.logger.Error("list slots failed", zap.Error(err))
		return nil, 0, err
	}
	list := make([]dto.SlotResponse, 0, len(slots))
	for i := range slots {
		list = append(list, toSlotResponse(&slots[i]))
	}
	return list, total, nil
}

// Availability occupancy per kind over [from, to). Occupied counts active
// purchases intersecting the window, the same test Create applies.
func (s *slotService) Availability(ctx context.Context, req *dto.SlotWindowRequest) ([]dto.AvailabilityResponse, error) {
	from, to := resolveWindow(req, s.now())
	if !to.After(from) {
		return nil, ErrInvalidSlotRange
	}

	kinds := []string{model.SlotKindAd, model.SlotKindFeaturedScript}
	if req.Kind != "" {
		kinds = []string{req.Kind}
	}

	out := make([]dto.AvailabilityResponse, 0, len(kinds))
	for _, kind := range kinds {
		occupied, err := s.repo.Slot.CountOverlapping(ctx, kind, from, to)
		if err != nil {
			return nil, err
		}
		slots, err := s.repo.Slot.ListInWindow(ctx, kind, from, to)
		if err != nil {
			return nil, err
		}

		capacity := s.capacity(kind)
		available := int64(capacity) - occupied
		if available < 0 {
			available = 0
		}
		booked := make([]dto.BookedWindow, 0, len(slots))
		for _, slot := range slots {
			if slot.Status != model.SlotStatusActive {
				continue
			}
			booked = append(booked, dto.BookedWindow{
				StartAt: formatTime(slot.StartAt),
				EndAt:   formatTime(slot.EndAt),
			})
		}
		out = append(out, dto.AvailabilityResponse{
			Kind:      kind,
			From:      formatTime(from),
			To:        formatTime(to),
			Capacity:  capacity,
			Occupied:  occupied,
			Available: available,
			Booked:    booked,
		})
	}
	return out, nil
}

func (s *slotService) ExpireEnded(ctx context.Context) (int64, error) {
	n, err := s.repo.Slot.ExpireEnded(ctx, s.now())
	if err != nil {
		s.logger.Error("expire slots failed", zap.Error(err))
		return 0, err
	}
	if n > 0 {
		s.logger.Info("slot purchases expired", zap.Int64("count", n))
	}
	return n, nil
}

// ── helpers ──

// resolveWindow fills an open window: from defaults to now, to to from + 30 days.
func resolveWindow(req *dto.SlotWindowRequest, now time.Time) (time.Time, time.Time) {
	from := req.From.UTC()
	if req.From.IsZero() {
		from = now
	}
	to := req.To.UTC()
	if req.To.IsZero() {
		to = from.Add(defaultWindow)
	}
	return from, to
}

func isSlotError(err error) bool {
	return errors.Is(err, ErrSlotTargetNotFound) ||
		errors.Is(err, ErrSlotCapacityReached) ||
		errors.Is(err, ErrUserNotFound)
}

func toSlotResponse(s *model.SlotPurchase) dto.SlotResponse {
	return dto.SlotResponse{
		ID:          s.SlotID,
		Reference:   s.Reference,
		Kind:        s.Kind,
		TargetID:    s.TargetID,
		UserID:      s.UserID,
		StartAt:     formatTime(s.StartAt),
		EndAt:       formatTime(s.EndAt),
		AmountCents: s.AmountCents,
		Currency:    s.Currency,
		Status:      s.Status,
		Note:        s.Note,
		CancelledAt: formatTimePtr(s.CancelledAt),
		CreatedAt:   formatTime(s.CreatedAt),
	}
}
