package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/FiveCrux/FiveCrux-sub000/internal/dto"
	"github.com/FiveCrux/FiveCrux-sub000/internal/service"
	"github.com/FiveCrux/FiveCrux-sub000/pkg/response"
)

// SlotHandler placement purchase endpoints
type SlotHandler struct {
	slotSvc service.SlotService
	logger  *zap.Logger
}

// NewSlotHandler creates a SlotHandler
func NewSlotHandler(slotSvc service.SlotService, logger *zap.Logger) *SlotHandler {
	return &SlotHandler{slotSvc: slotSvc, logger: logger}
}

// Create record a purchase
// POST /api/v1/admin/slots
func (h *SlotHandler) Create(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.CreateSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	slot, err := h.slotSvc.Create(c.Request.Context(), &req, actor)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	response.Created(c, slot)
}

// Cancel an active purchase
// POST /api/v1/admin/slots/:id/cancel
func (h *SlotHandler) Cancel(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	slot, err := h.slotSvc.Cancel(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	response.OK(c, slot)
}

// Get purchase detail
// GET /api/v1/admin/slots/:id
func (h *SlotHandler) Get(c *gin.Context) {
	slot, err := h.slotSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	response.OK(c, slot)
}

// List purchases
// GET /api/v1/admin/slots
func (h *SlotHandler) List(c *gin.Context) {
	var req dto.SlotListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}

	slots, total, err := h.slotSvc.List(c.Request.Context(), &req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	response.OKPage(c, slots, total, req.GetPage(), req.GetPageSize())
}

// ListMine purchases made for the caller
// GET /api/v1/me/slots
func (h *SlotHandler) ListMine(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var page dto.PaginationRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		badRequest(c, err)
		return
	}

	slots, total, err := h.slotSvc.ListMine(c.Request.Context(), &page, actor)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	response.OKPage(c, slots, total, page.GetPage(), page.GetPageSize())
}

// Availability occupancy per kind for a window
// GET /api/v1/slots/availability
func (h *SlotHandler) Availability(c *gin.Context) {
	var req dto.SlotWindowRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.slotSvc.Availability(c.Request.Context(), &req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	response.OK(c, gin.H{"list": result})
}
