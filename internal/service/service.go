package service

import (
	"go.uber.org/zap"

	"github.com/FiveCrux/FiveCrux-sub000/config"
	"github.com/FiveCrux/FiveCrux-sub000/internal/repository"
	"github.com/FiveCrux/FiveCrux-sub000/pkg/jwt"
	"github.com/FiveCrux/FiveCrux-sub000/pkg/storage"
)

// Service aggregate of every service
type Service struct {
	Auth       AuthService
	User       UserService
	Script     ScriptService
	Giveaway   GiveawayService
	Ad         AdService
	Moderation ModerationService
	Slot       SlotService
	Calendar   CalendarService
	Export     ExportService
	Dashboard  DashboardService
	Upload     UploadService
}

// Deps external collaborators. Cache, Blacklist and Store are optional:
// leave them nil (untyped) when redis or object storage is not configured.
type Deps struct {
	Config    *config.Config
	Repo      *repository.Repository
	JWT       *jwt.Manager
	OAuth     OAuthProvider
	Invites   InviteResolver
	Cache     Cache
	Blacklist TokenBlacklist
	Store     storage.ObjectStore
	Refs      ReferenceGenerator
	Now       Clock
	Logger    *zap.Logger
}

// NewService wires the services together.
func NewService(d Deps) *Service {
	now := d.Now
	if now == nil {
		now = utcNow
	}
	cfg := d.Config
	flows := newWorkflows(now, d.Logger)

	scripts := NewScriptService(d.Repo, flows, d.Logger)
	giveaways := NewGiveawayService(d.Repo, flows, d.Logger)

	return &Service{
		Auth:       NewAuthService(&cfg.Auth, d.Repo, d.JWT, d.OAuth, d.Blacklist, now, d.Logger),
		User:       NewUserService(d.Repo, scripts, giveaways, d.Logger),
		Script:     scripts,
		Giveaway:   giveaways,
		Ad:         NewAdService(d.Repo, flows, d.Invites, d.Cache, cfg.Discord.InviteCacheTTL, d.Logger),
		Moderation: NewModerationService(d.Repo, flows, d.Logger),
		Slot:       NewSlotService(d.Repo, &cfg.Slots, d.Refs, now, d.Logger),
		Calendar:   NewCalendarService(d.Repo, now, d.Logger),
		Export:     NewExportService(d.Repo, now, d.Logger),
		Dashboard:  NewDashboardService(d.Repo, now, d.Logger),
		Upload:     NewUploadService(d.Store, cfg.Storage.MaxBytes, now, d.Logger),
	}
}
