package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/FiveCrux/FiveCrux-sub000/internal/dto"
	"github.com/FiveCrux/FiveCrux-sub000/internal/model"
	"github.com/FiveCrux/FiveCrux-sub000/internal/service"
	"github.com/FiveCrux/FiveCrux-sub000/pkg/response"
)

// ModerationHandler review queue endpoints
type ModerationHandler struct {
	moderationSvc service.ModerationService
	logger        *zap.Logger
}

// NewModerationHandler creates a ModerationHandler
func NewModerationHandler(moderationSvc service.ModerationService, logger *zap.Logger) *ModerationHandler {
	return &ModerationHandler{moderationSvc: moderationSvc, logger: logger}
}

// Queue items of one entity type in one state; pending by default
// GET /api/v1/moderation/queue/:entity?state=pending
func (h *ModerationHandler) Queue(c *gin.Context) {
	entity, ok := entityParam(c)
	if !ok {
		return
	}
	state := model.ModerationState(c.DefaultQuery("state", string(model.StatePending)))
	if !state.Valid() {
		response.BadRequest(c, CodeInvalidParams, "state must be pending, approved or rejected")
		return
	}
	var req dto.QueueRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}

	items, total, err := h.moderationSvc.Queue(c.Request.Context(), entity, state, &req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	response.OKPage(c, items, total, req.GetPage(), req.GetPageSize())
}

// Approve pending → approved
// POST /api/v1/moderation/:entity/:id/approve
func (h *ModerationHandler) Approve(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	entity, ok := entityParam(c)
	if !ok {
		return
	}

	item, err := h.moderationSvc.Approve(c.Request.Context(), entity, c.Param("id"), actor)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	response.OK(c, item)
}

// Reject pending → rejected with a reason
// POST /api/v1/moderation/:entity/:id/reject
func (h *ModerationHandler) Reject(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	entity, ok := entityParam(c)
	if !ok {
		return
	}
	var req dto.RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	item, err := h.moderationSvc.Reject(c.Request.Context(), entity, c.Param("id"), req.Reason, actor)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	response.OK(c, item)
}

// Logs moderation audit trail
// GET /api/v1/moderation/logs
func (h *ModerationHandler) Logs(c *gin.Context) {
	var req dto.ModerationLogListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}

	logs, total, err := h.moderationSvc.Logs(c.Request.Context(), &req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	response.OKPage(c, logs, total, req.GetPage(), req.GetPageSize())
}

func entityParam(c *gin.Context) (model.EntityType, bool) {
	entity := model.EntityType(c.Param("entity"))
	if !entity.Valid() {
		response.BadRequest(c, CodeUnknownEntity, service.ErrUnknownEntity.Error())
		return "", false
	}
	return entity, true
}
