package handler

import (
	"go.uber.org/zap"

	"github.com/FiveCrux/FiveCrux-sub000/config"
	"github.com/FiveCrux/FiveCrux-sub000/internal/service"
)

// Handler aggregate of every HTTP handler
type Handler struct {
	Auth       *AuthHandler
	User       *UserHandler
	Script     *ScriptHandler
	Giveaway   *GiveawayHandler
	Ad         *AdHandler
	Moderation *ModerationHandler
	Slot       *SlotHandler
	Dashboard  *DashboardHandler
	Upload     *UploadHandler
	Export     *ExportHandler
}

// NewHandler builds the handler aggregate
func NewHandler(cfg *config.Config, svc *service.Service, logger *zap.Logger) *Handler {
	return &Handler{
		Auth:       NewAuthHandler(svc.Auth, cfg, logger),
		User:       NewUserHandler(svc.User, logger),
		Script:     NewScriptHandler(svc.Script, logger),
		Giveaway:   NewGiveawayHandler(svc.Giveaway, logger),
		Ad:         NewAdHandler(svc.Ad, logger),
		Moderation: NewModerationHandler(svc.Moderation, logger),
		Slot:       NewSlotHandler(svc.Slot, logger),
		Dashboard:  NewDashboardHandler(svc.Dashboard, logger),
		Upload:     NewUploadHandler(svc.Upload, logger),
		Export:     NewExportHandler(svc.Export, svc.Calendar, logger),
	}
}
