package service

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"gorm.io/gorm"

	"github.com/FiveCrux/FiveCrux-sub000/config"
	"github.com/FiveCrux/FiveCrux-sub000/internal/dto"
	"github.com/FiveCrux/FiveCrux-sub000/internal/model"
	"github.com/FiveCrux/FiveCrux-sub000/internal/repository"
	"github.com/FiveCrux/FiveCrux-sub000/pkg/discord"
	"github.com/FiveCrux/FiveCrux-sub000/pkg/jwt"
)

var (
	ErrOAuthDenied         = errors.New("Discord authorization was denied")
	ErrOAuthFailed         = errors.New("Discord login failed")
	ErrInvalidRefreshToken = errors.New("refresh token is invalid or expired")
	ErrTokenRevoked        = errors.New("token has been revoked")
)

// OAuthProvider the Discord calls made during login; implemented by *discord.Client.
type OAuthProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	CurrentUser(ctx context.Context, tok *oauth2.Token) (*discord.User, error)
	CurrentUserGuilds(ctx context.Context, tok *oauth2.Token) ([]discord.Guild, error)
}

// TokenBlacklist revoked token ids; implemented by *redis.Client.
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// AuthService Discord OAuth login and token lifecycle
type AuthService interface {
	// LoginURL returns the Discord consent URL and the state the callback must echo.
	LoginURL() (string, string)
	DiscordCallback(ctx context.Context, code string) (*dto.TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error)
	// Logout revokes the access token and, when given, the refresh token.
	Logout(ctx context.Context, access *jwt.Claims, refreshToken string) error
}

type authService struct {
	cfg       *config.AuthConfig
	repo      *repository.Repository
	jwtMgr    *jwt.Manager
	oauth     OAuthProvider
	blacklist TokenBlacklist // nil when redis is not configured
	now       Clock
	logger    *zap.Logger
}

// NewAuthService blacklist may be nil; logout then only clears cookies.
func NewAuthService(
	cfg *config.AuthConfig,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	oauth OAuthProvider,
	blacklist TokenBlacklist,
	now Clock,
	logger *zap.Logger,
) AuthService {
	if now == nil {
		now = utcNow
	}
	return &authService{
		cfg:       cfg,
		repo:      repo,
		jwtMgr:    jwtMgr,
		oauth:     oauth,
		blacklist: blacklist,
		now:       now,
		logger:    logger,
	}
}

func (s *authService) LoginURL() (string, string) {
	state := uuid.NewString()
	return s.oauth.AuthCodeURL(state), state
}

// ────────────────────── DiscordCallback ──────────────────────

func (s *authService) DiscordCallback(ctx context.Context, code string) (*dto.TokenResponse, error) {
	if code == "" {
		return nil, ErrOAuthDenied
	}

	tok, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, s.discordError("exchange code", err)
	}
	profile, err := s.oauth.CurrentUser(ctx, tok)
	if err != nil {
		return nil, s.discordError("fetch profile", err)
	}
	guilds, err := s.oauth.CurrentUserGuilds(ctx, tok)
	if err != nil {
		// membership only gates giveaway entries; keep the previous snapshot
		s.logger.Warn("fetch guilds failed", zap.String("discord_id", profile.ID), zap.Error(err))
		guilds = nil
	}

	user, err := s.upsert(ctx, profile, guilds)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in",
		zap.String("user_id", user.UserID),
		zap.String("discord_id", user.DiscordID),
		zap.String("role", user.Role),
	)
	return s.issue(user)
}

// upsert creates the account on first login and refreshes the Discord
// snapshot afterwards. Configured admin ids are promoted, never demoted.
func (s *authService) upsert(ctx context.Context, profile *discord.User, guilds []discord.Guild) (*model.User, error) {
	now := s.now()
	isAdmin := slices.Contains(s.cfg.AdminDiscordIDs, profile.ID)

	user, err := s.repo.User.GetByDiscordID(ctx, profile.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("load user failed", zap.String("discord_id", profile.ID), zap.Error(err))
		return nil, err
	}

	if user == nil {
		role := model.RoleUser
		if isAdmin {
			role = model.RoleAdmin
		}
		user = &model.User{
			DiscordID:   profile.ID,
			Username:    profile.Username,
			GlobalName:  profile.GlobalName,
			Avatar:      profile.Avatar,
			Email:       profile.Email,
			Role:        role,
			GuildIDs:    model.StringList(guildIDs(guilds)),
			LastLoginAt: &now,
		}
		err := s.repo.User.Create(ctx, user)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			s.logger.Error("create user failed", zap.String("discord_id", profile.ID), zap.Error(err))
			return nil, err
		}
		// a parallel first login won the insert
		if user, err = s.repo.User.GetByDiscordID(ctx, profile.ID); err != nil {
			return nil, err
		}
	}

	user.Username = profile.Username
	user.Avatar = profile.Avatar
	if profile.Email != "" {
		user.Email = profile.Email
	}
	if guilds != nil {
		user.GuildIDs = model.StringList(guildIDs(guilds))
	}
	if isAdmin {
		user.Role = model.RoleAdmin
	}
	user.LastLoginAt = &now
	if err := s.repo.User.UpdateLogin(ctx, user); err != nil {
		s.logger.Error("update login failed", zap.String("user_id", user.UserID), zap.Error(err))
		return nil, err
	}
	return user, nil
}

// ────────────────────── Tokens ──────────────────────

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	claims, err := s.jwtMgr.ParseToken(refreshToken)
	if err != nil || claims.TokenType != "refresh" {
		return nil, ErrInvalidRefreshToken
	}
	if s.blacklist != nil {
		revoked, err := s.blacklist.IsBlacklisted(ctx, claims.ID)
		if err != nil {
			s.logger.Error("check blacklist failed", zap.Error(err))
			return nil, err
		}
		if revoked {
			return nil, ErrTokenRevoked
		}
	}

	user, err := s.repo.User.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}
	if user.Banned {
		return nil, ErrUserBanned
	}

	// rotate: the presented refresh token cannot be replayed
	s.revoke(ctx, claims)
	return s.issue(user)
}

func (s *authService) Logout(ctx context.Context, access *jwt.Claims, refreshToken string) error {
	if s.blacklist == nil {
		return nil
	}
	if access != nil {
		if err := s.blacklistClaims(ctx, access); err != nil {
			s.logger.Error("blacklist access token failed", zap.Error(err))
			return err
		}
	}
	if refreshToken != "" {
		if claims, err := s.jwtMgr.ParseToken(refreshToken); err == nil {
			s.revoke(ctx, claims)
		}
	}
	return nil
}

func (s *authService) issue(user *model.User) (*dto.TokenResponse, error) {
	access, err := s.jwtMgr.GenerateAccessToken(user.UserID, user.DiscordID, user.Role)
	if err != nil {
		s.logger.Error("generate access token failed", zap.Error(err))
		return nil, err
	}
	refresh, err := s.jwtMgr.GenerateRefreshToken(user.UserID, user.DiscordID, user.Role)
	if err != nil {
		s.logger.Error("generate refresh token failed", zap.Error(err))
		return nil, err
	}
	return &dto.TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int(s.jwtMgr.AccessTokenTTL().Seconds()),
		User:         toUserResponse(user),
	}, nil
}

// revoke blacklists a token, logging instead of failing.
func (s *authService) revoke(ctx context.Context, claims *jwt.Claims) {
	if s.blacklist == nil {
		return
	}
	if err := s.blacklistClaims(ctx, claims); err != nil {
		s.logger.Warn("blacklist token failed", zap.String("jti", claims.ID), zap.Error(err))
	}
}

func (s *authService) blacklistClaims(ctx context.Context, claims *jwt.Claims) error {
	ttl := time.Minute
	if claims.ExpiresAt != nil {
		if left := claims.ExpiresAt.Sub(s.now()); left > 0 {
			ttl = left
		}
	}
	return s.blacklist.BlacklistToken(ctx, claims.ID, ttl)
}

func (s *authService) discordError(step string, err error) error {
	if errors.Is(err, discord.ErrUnauthorized) {
		return ErrOAuthFailed
	}
	s.logger.Error("discord oauth failed", zap.String("step", step), zap.Error(err))
	return ErrDiscordUnavailable
}

func guildIDs(guilds []discord.Guild) []string {
	ids := make([]string, 0, len(guilds))
	for _, g := range guilds {
		ids = append(ids, g.ID)
	}
	return ids
}
