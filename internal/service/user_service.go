package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/FiveCrux/FiveCrux-sub000/internal/dto"
	"github.com/FiveCrux/FiveCrux-sub000/internal/model"
	"github.com/FiveCrux/FiveCrux-sub000/internal/repository"
	pkgerrors "github.com/FiveCrux/FiveCrux-sub000/pkg/errors"
)

var (
	ErrUserSelfRoleChange = errors.New("cannot change your own role")
	ErrUserSelfBan        = errors.New("cannot ban yourself")
	ErrInvalidRole        = errors.New("unknown role")
)

// profileListLimit approved items shown on a public profile per kind
const profileListLimit = 12

// UserService profiles and admin account management
type UserService interface {
	GetMe(ctx context.Context, userID string) (*dto.UserResponse, error)
	UpdateProfile(ctx context.Context, req *dto.UpdateProfileRequest, actor Actor) (*dto.UserResponse, error)
	PublicProfile(ctx context.Context, userID string) (*dto.PublicProfileResponse, error)

	List(ctx context.Context, req *dto.UserListRequest) ([]dto.UserResponse, int64, error)
	SetRole(ctx context.Context, id string, req *dto.SetRoleRequest, actor Actor) (*dto.UserResponse, error)
	SetBanned(ctx context.Context, id string, req *dto.BanRequest, actor Actor) (*dto.UserResponse, error)
}

type userService struct {
	repo      *repository.Repository
	scripts   ScriptService
	giveaways GiveawayService
	logger    *zap.Logger
}

func NewUserService(repo *repository.Repository, scripts ScriptService, giveaways GiveawayService, logger *zap.Logger) UserService {
	return &userService{repo: repo, scripts: scripts, giveaways: giveaways, logger: logger}
}

// ────────────────────── Profile ──────────────────────

func (s *userService) GetMe(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := toUserResponse(user)
	return &resp, nil
}

func (s *userService) UpdateProfile(ctx context.Context, req *dto.UpdateProfileRequest, actor Actor) (*dto.UserResponse, error) {
	user, err := s.load(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	if req.GlobalName != nil {
		user.GlobalName = *req.GlobalName
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
	}
	if req.Website != nil {
		user.Website = *req.Website
	}
	user.UpdatedBy = &actor.UserID
	// the client echoes the version it read; a stale one loses
	user.Version = req.Version

	if err := s.repo.User.UpdateProfile(ctx, user); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, err
		}
		s.logger.Error("update profile failed", zap.String("user_id", actor.UserID), zap.Error(err))
		return nil, err
	}
	resp := toUserResponse(user)
	return &resp, nil
}

func (s *userService) PublicProfile(ctx context.Context, userID string) (*dto.PublicProfileResponse, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	page := dto.PaginationRequest{Page: 1, PageSize: profileListLimit}
	scripts, _, err := s.scripts.List(ctx, &dto.ScriptListRequest{PaginationRequest: page, SellerID: user.UserID})
	if err != nil {
		return nil, err
	}
	giveaways, _, err := s.giveaways.List(ctx, &dto.GiveawayListRequest{PaginationRequest: page, CreatorID: user.UserID})
	if err != nil {
		return nil, err
	}

	return &dto.PublicProfileResponse{
		User: dto.PublicUserResponse{
			ID:         user.UserID,
			Username:   user.Username,
			GlobalName: user.GlobalName,
			AvatarURL:  user.AvatarURL(),
			Bio:        user.Bio,
			Website:    user.Website,
			Role:       user.Role,
			JoinedAt:   formatTime(user.CreatedAt),
		},
		Scripts:   scripts,
		Giveaways: giveaways,
	}, nil
}

// ────────────────────── Admin ──────────────────────

func (s *userService) List(ctx context.Context, req *dto.UserListRequest) ([]dto.UserResponse, int64, error) {
	users, total, err := s.repo.User.List(ctx, repository.UserFilter{
		Keyword: req.Keyword,
		Role:    req.Role,
		Banned:  req.Banned,
	}, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("list users failed", zap.Error(err))
		return nil, 0, err
	}

	list := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		list = append(list, toUserResponse(&users[i]))
	}
	return list, total, nil
}

func (s *userService) SetRole(ctx context.Context, id string, req *dto.SetRoleRequest, actor Actor) (*dto.UserResponse, error) {
	if id == actor.UserID {
		return nil, ErrUserSelfRoleChange
	}
	switch req.Role {
	case model.RoleUser, model.RoleModerator, model.RoleAdmin:
	default:
		return nil, ErrInvalidRole
	}

	if err := s.repo.User.SetRole(ctx, id, req.Role, actor.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("set role failed", zap.String("user_id", id), zap.Error(err))
		return nil, err
	}
	s.logger.Info("user role changed", zap.String("user_id", id), zap.String("role", req.Role), zap.String("by", actor.UserID))
	return s.GetMe(ctx, id)
}

func (s *userService) SetBanned(ctx context.Context, id string, req *dto.BanRequest, actor Actor) (*dto.UserResponse, error) {
	if id == actor.UserID {
		return nil, ErrUserSelfBan
	}

	if err := s.repo.User.SetBanned(ctx, id, req.Banned, req.Reason, actor.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("set banned failed", zap.String("user_id", id), zap.Error(err))
		return nil, err
	}
	s.logger.Info("user ban updated", zap.String("user_id", id), zap.Bool("banned", req.Banned), zap.String("by", actor.UserID))
	return s.GetMe(ctx, id)
}

// ── helpers ──

func (s *userService) load(ctx context.Context, id string) (*model.User, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("load user failed", zap.String("user_id", id), zap.Error(err))
		return nil, err
	}
	return user, nil
}

func toUserResponse(u *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID:          u.UserID,
		DiscordID:   u.DiscordID,
		Username:    u.Username,
		GlobalName:  u.GlobalName,
		AvatarURL:   u.AvatarURL(),
		Email:       u.Email,
		Role:        u.Role,
		Bio:         u.Bio,
		Website:     u.Website,
		Banned:      u.Banned,
		BanReason:   u.BanReason,
		Version:     u.Version,
		CreatedAt:   formatTime(u.CreatedAt),
		LastLoginAt: formatTimePtr(u.LastLoginAt),
	}
}
