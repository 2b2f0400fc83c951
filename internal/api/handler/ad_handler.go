package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/FiveCrux/FiveCrux-sub000/internal/dto"
	"github.com/FiveCrux/FiveCrux-sub000/internal/service"
	"github.com/FiveCrux/FiveCrux-sub000/pkg/response"
)

// AdHandler Discord server advertisement endpoints
type AdHandler struct {
	adSvc  service.AdService
	logger *zap.Logger
}

// NewAdHandler creates an AdHandler
func NewAdHandler(adSvc service.AdService, logger *zap.Logger) *AdHandler {
	return &AdHandler{adSvc: adSvc, logger: logger}
}

// Submit new ad; the invite is verified against Discord
// POST /api/v1/ads
func (h *AdHandler) Submit(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.CreateAdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ad, err := h.adSvc.Submit(c.Request.Context(), &req, actor)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	response.Created(c, ad)
}

// Update edit own ad
// PUT /api/v1/ads/:id
func (h *AdHandler) Update(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.UpdateAdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ad, err := h.adSvc.Update(c.Request.Context(), c.Param("id"), &req, actor)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	response.OK(c, ad)
}

// Delete remove an ad
// DELETE /api/v1/ads/:id
func (h *AdHandler) Delete(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	if err := h.adSvc.Delete(c.Request.Context(), c.Param("id"), actor); err != nil {
		writeError(c, h.logger, err)
		return
	}
	response.OK(c, nil)
}

// Get ad detail
// GET /api/v1/ads/:id
func (h *AdHandler) Get(c *gin.Context) {
	ad, err := h.adSvc.Get(c.Request.Context(), c.Param("id"), Viewer(c))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	response.OK(c, ad)
}

// List approved ads
// GET /api/v1/ads
func (h *AdHandler) List(c *gin.Context) {
	var req dto.AdListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}

	ads, total, err := h.adSvc.List(c.Request.Context(), &req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	response.OKPage(c, ads, total, req.GetPage(), req.GetPageSize())
}

// ListMine own ads in one state
// GET /api/v1/me/ads
func (h *AdHandler) ListMine(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.StateListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}

	ads, total, err := h.adSvc.ListMine(c.Request.Context(), &req, actor)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	response.OKPage(c, ads, total, req.GetPage(), req.GetPageSize())
}

// Displayed ads running a placement right now
// GET /api/v1/ads/displayed
func (h *AdHandler) Displayed(c *gin.Context) {
	ads, err := h.adSvc.Displayed(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	response.OK(c, gin.H{"list": ads})
}

// CheckInvite resolve an invite before submitting
// GET /api/v1/ads/invites/:code
func (h *AdHandler) CheckInvite(c *gin.Context) {
	invite, err := h.adSvc.CheckInvite(c.Request.Context(), c.Param("code"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	response.OK(c, invite)
}
