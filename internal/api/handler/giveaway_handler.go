package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/FiveCrux/FiveCrux-sub000/internal/dto"
	"github.com/FiveCrux/FiveCrux-sub000/internal/service"
	"github.com/FiveCrux/FiveCrux-sub000/pkg/response"
)

// GiveawayHandler giveaway endpoints
type GiveawayHandler struct {
	giveawaySvc service.GiveawayService
	logger      *zap.Logger
}

// NewGiveawayHandler creates a GiveawayHandler
func NewGiveawayHandler(giveawaySvc service.GiveawayService, logger *zap.Logger) *GiveawayHandler {
	return &GiveawayHandler{giveawaySvc: giveawaySvc, logger: logger}
}

// Submit new giveaway with requirements and prizes
// POST /api/v1/giveaways
func (h *GiveawayHandler) Submit(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.CreateGiveawayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	g, err := h.giveawaySvc.Submit(c.Request.Context(), &req, actor)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	response.Created(c, g)
}

// Update edit own giveaway
// PUT /api/v1/giveaways/:id
func (h *GiveawayHandler) Update(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.UpdateGiveawayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	g, err := h.giveawaySvc.Update(c.Request.Context(), c.Param("id"), &req, actor)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	response.OK(c, g)
}

// Delete remove a giveaway with its entries
// DELETE /api/v1/giveaways/:id
func (h *GiveawayHandler) Delete(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	if err := h.giveawaySvc.Delete(c.Request.Context(), c.Param("id"), actor); err != nil {
		writeError(c, h.logger, err)
		return
	}
	response.OK(c, nil)
}

// Get giveaway detail
// GET /api/v1/giveaways/:id
func (h *GiveawayHandler) Get(c *gin.Context) {
	g, err := h.giveawaySvc.Get(c.Request.Context(), c.Param("id"), Viewer(c))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	response.OK(c, g)
}

// List approved giveaways, optionally by status
// GET /api/v1/giveaways
func (h *GiveawayHandler) List(c *gin.Context) {
	var req dto.GiveawayListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}

	list, total, err := h.giveawaySvc.List(c.Request.Context(), &req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// ListMine own giveaways in one state
// GET /api/v1/me/giveaways
func (h *GiveawayHandler) ListMine(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.StateListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}

	list, total, err := h.giveawaySvc.ListMine(c.Request.Context(), &req, actor)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// Enter join a running giveaway
// POST /api/v1/giveaways/:id/entries
func (h *GiveawayHandler) Enter(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	entry, err := h.giveawaySvc.Enter(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	response.Created(c, entry)
}

// ListEntries entrants, visible to the creator and staff
// GET /api/v1/giveaways/:id/entries
func (h *GiveawayHandler) ListEntries(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var page dto.PaginationRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		badRequest(c, err)
		return
	}

	entries, total, err := h.giveawaySvc.ListEntries(c.Request.Context(), c.Param("id"), &page, actor)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	response.OKPage(c, entries, total, page.GetPage(), page.GetPageSize())
}

// DrawWinners manual draw after the end date
// POST /api/v1/giveaways/:id/draw
func (h *GiveawayHandler) DrawWinners(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	result, err := h.giveawaySvc.DrawWinners(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	response.OK(c, result)
}
