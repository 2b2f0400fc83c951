package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/FiveCrux/FiveCrux-sub000/internal/dto"
	"github.com/FiveCrux/FiveCrux-sub000/internal/model"
	"github.com/FiveCrux/FiveCrux-sub000/internal/repository"
)

var (
	ErrScriptNotFound = errors.New("script not found")
	ErrInvalidPrice   = errors.New("min_price must not exceed max_price")
)

const defaultCurrency = "USD"

// scriptSorts whitelisted ORDER BY clauses
var scriptSorts = map[string]string{
	"":           "created_at DESC",
	"newest":     "created_at DESC",
	"oldest":     "created_at ASC",
	"price_asc":  "price_cents ASC, created_at DESC",
	"price_desc": "price_cents DESC, created_at DESC",
	"title":      "title ASC",
}

// ScriptService marketplace listings
type ScriptService interface {
	Submit(ctx context.Context, req *dto.CreateScriptRequest, actor Actor) (*dto.ScriptResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateScriptRequest, actor Actor) (*dto.ScriptResponse, error)
	Delete(ctx context.Context, id string, actor Actor) error
	Get(ctx context.Context, idOrSlug string, viewer Actor) (*dto.ScriptResponse, error)
	List(ctx context.Context, req *dto.ScriptListRequest) ([]dto.ScriptResponse, int64, error)
	ListMine(ctx context.Context, req *dto.StateListRequest, actor Actor) ([]dto.ScriptResponse, int64, error)
	Featured(ctx context.Context) ([]dto.ScriptResponse, error)
}

type scriptService struct {
	repo   *repository.Repository
	flow   *workflow[model.Script]
	now    Clock
	logger *zap.Logger
}

func NewScriptService(repo *repository.Repository, flows *workflows, logger *zap.Logger) ScriptService {
	return &scriptService{
		repo:   repo,
		flow:   flows.scripts,
		now:    flows.scripts.now,
		logger: logger,
	}
}

// ────────────────────── Submit ──────────────────────

func (s *scriptService) Submit(ctx context.Context, req *dto.CreateScriptRequest, actor Actor) (*dto.ScriptResponse, error) {
	if _, err := activeUser(ctx, s.repo, actor.UserID); err != nil {
		return nil, err
	}

	slugValue, err := s.uniqueSlug(ctx, req.Title, "")
	if err != nil {
		return nil, err
	}

	currency := strings.ToUpper(req.Currency)
	if currency == "" {
		currency = defaultCurrency
	}

	script := &model.Script{
		SellerID:    actor.UserID,
		Title:       strings.TrimSpace(req.Title),
		Slug:        slugValue,
		Description: req.Description,
		Category:    req.Category,
		Framework:   req.Framework,
		PriceCents:  req.PriceCents,
		Currency:    currency,
		StoreURL:    req.StoreURL,
		VideoURL:    req.VideoURL,
		CoverImage:  req.CoverImage,
		Images:      model.StringList(req.Images),
		Tags:        model.StringList(normalizeTags(req.Tags)),
	}

	if err := s.flow.submit(ctx, s.repo, script, actor.UserID, nil); err != nil {
		return nil, err
	}
	resp := toScriptResponse(script, model.StatePending, false)
	return &resp, nil
}

// ────────────────────── Update ──────────────────────

func (s *scriptService) Update(ctx context.Context, id string, req *dto.UpdateScriptRequest, actor Actor) (*dto.ScriptResponse, error) {
	if _, err := activeUser(ctx, s.repo, actor.UserID); err != nil {
		return nil, err
	}

	var newSlug string
	if req.Title != nil {
		var err error
		if newSlug, err = s.uniqueSlug(ctx, *req.Title, id); err != nil {
			return nil, err
		}
	}

	script, state, err := s.flow.edit(ctx, s.repo, id, actor, func(_ *repository.Repository, rec *model.Script) error {
		if req.Title != nil {
			rec.Title = strings.TrimSpace(*req.Title)
			rec.Slug = newSlug
		}
		if req.Description != nil {
			rec.Description = *req.Description
		}
		if req.Category != nil {
			rec.Category = *req.Category
		}
		if req.Framework != nil {
			rec.Framework = *req.Framework
		}
		if req.PriceCents != nil {
			rec.PriceCents = *req.PriceCents
		}
		if req.Currency != nil {
			rec.Currency = strings.ToUpper(*req.Currency)
		}
		if req.StoreURL != nil {
			rec.StoreURL = *req.StoreURL
		}
		if req.VideoURL != nil {
			rec.VideoURL = *req.VideoURL
		}
		if req.CoverImage != nil {
			rec.CoverImage = *req.CoverImage
		}
		if req.Images != nil {
			rec.Images = model.StringList(*req.Images)
		}
		if req.Tags != nil {
			rec.Tags = model.StringList(normalizeTags(*req.Tags))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := toScriptResponse(script, state, false)
	return &resp, nil
}

// ────────────────────── Delete ──────────────────────

func (s *scriptService) Delete(ctx context.Context, id string, actor Actor) error {
	return s.flow.remove(ctx, s.repo, id, actor, func(tx *repository.Repository, rec *model.Script) error {
		_, err := tx.Slot.CancelByTarget(ctx, model.SlotKindFeaturedScript, rec.ScriptID, s.now())
		return err
	})
}

// ────────────────────── Read ──────────────────────

func (s *scriptService) Get(ctx context.Context, idOrSlug string, viewer Actor) (*dto.ScriptResponse, error) {
	if _, err := uuid.Parse(idOrSlug); err != nil {
		script, err := s.repo.Script.GetBySlug(ctx, model.StateApproved, idOrSlug)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrScriptNotFound
			}
			s.logger.Error("get script by slug failed", zap.String("slug", idOrSlug), zap.Error(err))
			return nil, err
		}
		featured, err := s.featuredSet(ctx)
		if err != nil {
			return nil, err
		}
		resp := toScriptResponse(script, model.StateApproved, featured[script.ScriptID])
		return &resp, nil
	}

	loc, err := s.flow.view(ctx, s.repo, idOrSlug, viewer)
	if err != nil {
		return nil, err
	}
	featured := false
	if loc.state == model.StateApproved {
		set, err := s.featuredSet(ctx)
		if err != nil {
			return nil, err
		}
		featured = set[loc.rec.ScriptID]
	}
	resp := toScriptResponse(loc.rec, loc.state, featured)
	return &resp, nil
}

func (s *scriptService) List(ctx context.Context, req *dto.ScriptListRequest) ([]dto.ScriptResponse, int64, error) {
	if req.MinPrice != nil && req.MaxPrice != nil && *req.MinPrice > *req.MaxPrice {
		return nil, 0, ErrInvalidPrice
	}

	filter := repository.ScriptFilter{
		Keyword:   req.Keyword,
		Category:  req.Category,
		Framework: req.Framework,
		SellerID:  req.SellerID,
		MinPrice:  req.MinPrice,
		MaxPrice:  req.MaxPrice,
	}
	scripts, total, err := s.repo.Script.List(ctx, model.StateApproved, repository.ListOptions{
		Scopes: []repository.Scope{filter.Scope()},
		Order:  scriptSorts[req.Sort],
		Offset: req.GetOffset(),
		Limit:  req.GetPageSize(),
	})
	if err != nil {
		s.logger.Error("list scripts failed", zap.Error(err))
		return nil, 0, err
	}

	featured, err := s.featuredSet(ctx)
	if err != nil {
		return nil, 0, err
	}

	list := make([]dto.ScriptResponse, 0, len(scripts))
	for i := range scripts {
		list = append(list, toScriptResponse(&scripts[i], model.StateApproved, featured[scripts[i].ScriptID]))
	}
	return list, total, nil
}

func (s *scriptService) ListMine(ctx context.Context, req *dto.StateListRequest, actor Actor) ([]dto.ScriptResponse, int64, error) {
	state := model.ModerationState(req.GetState())
	scripts, total, err := s.repo.Script.List(ctx, state, repository.ListOptions{
		Scopes: []repository.Scope{repository.OwnedBy("seller_id", actor.UserID)},
		Offset: req.GetOffset(),
		Limit:  req.GetPageSize(),
	})
	if err != nil {
		s.logger.Error("list own scripts failed", zap.String("user_id", actor.UserID), zap.Error(err))
		return nil, 0, err
	}

	list := make([]dto.ScriptResponse, 0, len(scripts))
	for i := range scripts {
		list = append(list, toScriptResponse(&scripts[i], state, false))
	}
	return list, total, nil
}

// Featured approved scripts holding a featured placement right now, in placement order.
func (s *scriptService) Featured(ctx context.Context) ([]dto.ScriptResponse, error) {
	slots, err := s.repo.Slot.ListActiveAt(ctx, model.SlotKindFeaturedScript, s.now())
	if err != nil {
		s.logger.Error("list featured slots failed", zap.Error(err))
		return nil, err
	}
	ids := make([]string, 0, len(slots))
	for _, slot := range slots {
		ids = append(ids, slot.TargetID)
	}

	scripts, err := s.repo.Script.ListByIDs(ctx, model.StateApproved, ids)
	if err != nil {
		s.logger.Error("load featured scripts failed", zap.Error(err))
		return nil, err
	}
	byID := make(map[string]*model.Script, len(scripts))
	for i := range scripts {
		byID[scripts[i].ScriptID] = &scripts[i]
	}

	list := make([]dto.ScriptResponse, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		script, ok := byID[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		list = append(list, toScriptResponse(script, model.StateApproved, true))
	}
	return list, nil
}

// ── helpers ──

func (s *scriptService) featuredSet(ctx context.Context) (map[string]bool, error) {
	slots, err := s.repo.Slot.ListActiveAt(ctx, model.SlotKindFeaturedScript, s.now())
	if err != nil {
		s.logger.Error("list featured slots failed", zap.Error(err))
		return nil, err
	}
	set := make(map[string]bool, len(slots))
	for _, slot := range slots {
		set[slot.TargetID] = true
	}
	return set, nil
}

// uniqueSlug derives a slug from title that no other script in any state uses.
func (s *scriptService) uniqueSlug(ctx context.Context, title, exceptID string) (string, error) {
	base := slug.Make(title)
	if base == "" {
		base = "script"
	}
	candidate := base
	for attempt := 0; attempt < 5; attempt++ {
		taken, err := s.repo.Script.SlugExists(ctx, candidate, exceptID)
		if err != nil {
			s.logger.Error("check slug failed", zap.String("slug", candidate), zap.Error(err))
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = base + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	}
	return base + "-" + strings.ReplaceAll(uuid.NewString(), "-", ""), nil
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func toScriptResponse(s *model.Script, state model.ModerationState, featured bool) dto.ScriptResponse {
	return dto.ScriptResponse{
		ID:          s.ScriptID,
		SellerID:    s.SellerID,
		Title:       s.Title,
		Slug:        s.Slug,
		Description: s.Description,
		Category:    s.Category,
		Framework:   s.Framework,
		PriceCents:  s.PriceCents,
		Currency:    s.Currency,
		StoreURL:    s.StoreURL,
		VideoURL:    s.VideoURL,
		CoverImage:  s.CoverImage,
		Images:      model.ParseStringList(s.Images),
		Tags:        model.ParseStringList(s.Tags),
		Featured:    featured,
		CreatedAt:   formatTime(s.CreatedAt),
		UpdatedAt:   formatTime(s.UpdatedAt),
		ReviewInfo:  reviewInfo(&s.ReviewFields, state),
	}
}
