package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/FiveCrux/FiveCrux-sub000/internal/dto"
	"github.com/FiveCrux/FiveCrux-sub000/internal/model"
	"github.com/FiveCrux/FiveCrux-sub000/internal/repository"
	"github.com/FiveCrux/FiveCrux-sub000/pkg/discord"
	pkgredis "github.com/FiveCrux/FiveCrux-sub000/pkg/redis"
)

var (
	ErrAdNotFound         = errors.New("ad not found")
	ErrInvalidInvite      = errors.New("invalid Discord invite")
	ErrInviteNotFound     = errors.New("Discord invite does not exist or has expired")
	ErrDiscordUnavailable = errors.New("Discord is unavailable, try again later")
)

const defaultInviteCacheTTL = 10 * time.Minute

// InviteResolver looks up Discord invites; implemented by *discord.Client.
type InviteResolver interface {
	GetInvite(ctx context.Context, code string) (*discord.Invite, error)
}

// Cache byte cache; implemented by *redis.Client.
type Cache interface {
	GetCache(ctx context.Context, key string) ([]byte, error)
	SetCache(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// AdService Discord server advertisements
type AdService interface {
	Submit(ctx context.Context, req *dto.CreateAdRequest, actor Actor) (*dto.AdResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateAdRequest, actor Actor) (*dto.AdResponse, error)
	Delete(ctx context.Context, id string, actor Actor) error
	Get(ctx context.Context, id string, viewer Actor) (*dto.AdResponse, error)
	List(ctx context.Context, req *dto.AdListRequest) ([]dto.AdResponse, int64, error)
	ListMine(ctx context.Context, req *dto.StateListRequest, actor Actor) ([]dto.AdResponse, int64, error)
	// Displayed approved ads holding an ad placement right now
	Displayed(ctx context.Context) ([]dto.AdResponse, error)
	CheckInvite(ctx context.Context, raw string) (*dto.InviteCheckResponse, error)
}

type adService struct {
	repo     *repository.Repository
	flow     *workflow[model.Ad]
	invites  InviteResolver
	cache    Cache // nil when redis is not configured
	cacheTTL time.Duration
	now      Clock
	logger   *zap.Logger
}

// NewAdService cache may be nil.
func NewAdService(repo *repository.Repository, flows *workflows, invites InviteResolver, cache Cache, cacheTTL time.Duration, logger *zap.Logger) AdService {
	if cacheTTL <= 0 {
		cacheTTL = defaultInviteCacheTTL
	}
	return &adService{
		repo:     repo,
		flow:     flows.ads,
		invites:  invites,
		cache:    cache,
		cacheTTL: cacheTTL,
		now:      flows.ads.now,
		logger:   logger,
	}
}

// ────────────────────── Submit / Update / Delete ──────────────────────

func (s *adService) Submit(ctx context.Context, req *dto.CreateAdRequest, actor Actor) (*dto.AdResponse, error) {
	if _, err := activeUser(ctx, s.repo, actor.UserID); err != nil {
		return nil, err
	}

	invite, err := s.resolve(ctx, req.DiscordInvite)
	if err != nil {
		return nil, err
	}

	ad := &model.Ad{
		AdvertiserID: actor.UserID,
		Title:        strings.TrimSpace(req.Title),
		Description:  req.Description,
		ImageURL:     req.ImageURL,
		LinkURL:      req.LinkURL,
	}
	applyInvite(ad, invite)

	if err := s.flow.submit(ctx, s.repo, ad, actor.UserID, nil); err != nil {
		return nil, err
	}
	resp := toAdResponse(ad, model.StatePending)
	return &resp, nil
}

func (s *adService) Update(ctx context.Context, id string, req *dto.UpdateAdRequest, actor Actor) (*dto.AdResponse, error) {
	if _, err := activeUser(ctx, s.repo, actor.UserID); err != nil {
		return nil, err
	}

	// verify outside the transaction, no HTTP calls while holding a tx
	var invite *dto.InviteCheckResponse
	if req.DiscordInvite != nil {
		var err error
		if invite, err = s.resolve(ctx, *req.DiscordInvite); err != nil {
			return nil, err
		}
	}

	ad, state, err := s.flow.edit(ctx, s.repo, id, actor, func(_ *repository.Repository, rec *model.Ad) error {
		if req.Title != nil {
			rec.Title = strings.TrimSpace(*req.Title)
		}
		if req.Description != nil {
			rec.Description = *req.Description
		}
		if req.ImageURL != nil {
			rec.ImageURL = *req.ImageURL
		}
		if req.LinkURL != nil {
			rec.LinkURL = *req.LinkURL
		}
		if invite != nil {
			applyInvite(rec, invite)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	resp := toAdResponse(ad, state)
	return &resp, nil
}

func (s *adService) Delete(ctx context.Context, id string, actor Actor) error {
	return s.flow.remove(ctx, s.repo, id, actor, func(tx *repository.Repository, rec *model.Ad) error {
		_, err := tx.Slot.CancelByTarget(ctx, model.SlotKindAd, rec.AdID, s.now())
		return err
	})
}

// ────────────────────── Read ──────────────────────

func (s *adService) Get(ctx context.Context, id string, viewer Actor) (*dto.AdResponse, error) {
	loc, err := s.flow.view(ctx, s.repo, id, viewer)
	if err != nil {
		return nil, err
	}
	resp := toAdResponse(loc.rec, loc.state)
	return &resp, nil
}

func (s *adService) List(ctx context.Context, req *dto.AdListRequest) ([]dto.AdResponse, int64, error) {
	filter := repository.AdFilter{Keyword: req.Keyword}
	return s.list(ctx, model.StateApproved, repository.ListOptions{
		Scopes: []repository.Scope{filter.Scope()},
		Offset: req.GetOffset(),
		Limit:  req.GetPageSize(),
	})
}

func (s *adService) ListMine(ctx context.Context, req *dto.StateListRequest, actor Actor) ([]dto.AdResponse, int64, error) {
	filter := repository.AdFilter{AdvertiserID: actor.UserID}
	return s.list(ctx, model.ModerationState(req.GetState()), repository.ListOptions{
		Scopes: []repository.Scope{filter.Scope()},
		Offset: req.GetOffset(),
		Limit:  req.GetPageSize(),
	})
}

func (s *adService) list(ctx context.Context, state model.ModerationState, opts repository.ListOptions) ([]dto.AdResponse, int64, error) {
	ads, total, err := s.repo.Ad.List(ctx, state, opts)
	if err != nil {
		s.logger.Error("list ads failed", zap.String("state", string(state)), zap.Error(err))
		return nil, 0, err
	}
	list := make([]dto.AdResponse, 0, len(ads))
	for i := range ads {
		list = append(list, toAdResponse(&ads[i], state))
	}
	return list, total, nil
}

func (s *adService) Displayed(ctx context.Context) ([]dto.AdResponse, error) {
	slots, err := s.repo.Slot.ListActiveAt(ctx, model.SlotKindAd, s.now())
	if err != nil {
		s.logger.Error("list ad slots failed", zap.Error(err))
		return nil, err
	}
	ids := make([]string, 0, len(slots))
	for _, slot := range slots {
		ids = append(ids, slot.TargetID)
	}
	ads, err := s.repo.Ad.ListByIDs(ctx, model.StateApproved, ids)
	if err != nil {
		s.logger.Error("load displayed ads failed", zap.Error(err))
		return nil, err
	}

	byID := make(map[string]*model.Ad, len(ads))
	for i := range ads {
		byID[ads[i].AdID] = &ads[i]
	}
	list := make([]dto.AdResponse, 0, len(ads))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if ad, ok := byID[id]; ok && !seen[id] {
			seen[id] = true
			list = append(list, toAdResponse(ad, model.StateApproved))
		}
	}
	return list, nil
}

func (s *adService) CheckInvite(ctx context.Context, raw string) (*dto.InviteCheckResponse, error) {
	return s.resolve(ctx, raw)
}

// ── invite resolution ──

// resolve parses and verifies an invite, consulting the cache first.
func (s *adService) resolve(ctx context.Context, raw string) (*dto.InviteCheckResponse, error) {
	code, err := discord.ParseInviteCode(raw)
	if err != nil {
		return nil, ErrInvalidInvite
	}

	key := "discord:invite:" + code
	if s.cache != nil {
		if b, err := s.cache.GetCache(ctx, key); err == nil {
			var cached dto.InviteCheckResponse
			if json.Unmarshal(b, &cached) == nil {
				return &cached, nil
			}
		} else if !errors.Is(err, pkgredis.ErrCacheMiss) {
			s.logger.Warn("invite cache read failed", zap.String("code", code), zap.Error(err))
		}
	}

	invite, err := s.invites.GetInvite(ctx, code)
	if err != nil {
		switch {
		case errors.Is(err, discord.ErrInviteNotFound):
			return nil, ErrInviteNotFound
		case errors.Is(err, discord.ErrInvalidInvite):
			return nil, ErrInvalidInvite
		default:
			s.logger.Warn("discord invite lookup failed", zap.String("code", code), zap.Error(err))
			return nil, ErrDiscordUnavailable
		}
	}
	if invite.ExpiresAt != nil && !invite.ExpiresAt.After(s.now()) {
		return nil, ErrInviteNotFound
	}

	out := &dto.InviteCheckResponse{
		Code:        code,
		GuildID:     invite.Guild.ID,
		GuildName:   invite.Guild.Name,
		MemberCount: invite.ApproximateMemberCount,
	}
	if s.cache != nil {
		if b, err := json.Marshal(out); err == nil {
			if err := s.cache.SetCache(ctx, key, b, s.cacheTTL); err != nil {
				s.logger.Warn("invite cache write failed", zap.String("code", code), zap.Error(err))
			}
		}
	}
	return out, nil
}

func applyInvite(ad *model.Ad, invite *dto.InviteCheckResponse) {
	ad.DiscordInvite = "https://discord.gg/" + invite.Code
	ad.GuildID = invite.GuildID
	ad.GuildName = invite.GuildName
	ad.MemberCount = invite.MemberCount
}

func toAdResponse(a *model.Ad, state model.ModerationState) dto.AdResponse {
	return dto.AdResponse{
		ID:            a.AdID,
		AdvertiserID:  a.AdvertiserID,
		Title:         a.Title,
		Description:   a.Description,
		ImageURL:      a.ImageURL,
		LinkURL:       a.LinkURL,
		DiscordInvite: a.DiscordInvite,
		GuildID:       a.GuildID,
		GuildName:     a.GuildName,
		MemberCount:   a.MemberCount,
		CreatedAt:     formatTime(a.CreatedAt),
		ReviewInfo:    reviewInfo(&a.ReviewFields, state),
	}
}
