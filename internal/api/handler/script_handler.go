package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/FiveCrux/FiveCrux-sub000/internal/dto"
	"github.com/FiveCrux/FiveCrux-sub000/internal/service"
	"github.com/FiveCrux/FiveCrux-sub000/pkg/response"
)

// ScriptHandler script listing endpoints
type ScriptHandler struct {
	scriptSvc service.ScriptService
	logger    *zap.Logger
}

// NewScriptHandler creates a ScriptHandler
func NewScriptHandler(scriptSvc service.ScriptService, logger *zap.Logger) *ScriptHandler {
	return &ScriptHandler{scriptSvc: scriptSvc, logger: logger}
}

// Submit new script, queued for review
// POST /api/v1/scripts
func (h *ScriptHandler) Submit(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.CreateScriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	script, err := h.scriptSvc.Submit(c.Request.Context(), &req, actor)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	response.Created(c, script)
}

// Update edit own script; approved and rejected scripts go back to review
// PUT /api/v1/scripts/:id
func (h *ScriptHandler) Update(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.UpdateScriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	script, err := h.scriptSvc.Update(c.Request.Context(), c.Param("id"), &req, actor)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	response.OK(c, script)
}

// Delete remove a script in any state
// DELETE /api/v1/scripts/:id
func (h *ScriptHandler) Delete(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	if err := h.scriptSvc.Delete(c.Request.Context(), c.Param("id"), actor); err != nil {
		writeError(c, h.logger, err)
		return
	}
	response.OK(c, nil)
}

// Get script by id or slug
// GET /api/v1/scripts/:id
func (h *ScriptHandler) Get(c *gin.Context) {
	script, err := h.scriptSvc.Get(c.Request.Context(), c.Param("id"), Viewer(c))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	response.OK(c, script)
}

// List approved scripts
// GET /api/v1/scripts
func (h *ScriptHandler) List(c *gin.Context) {
	var req dto.ScriptListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}

	scripts, total, err := h.scriptSvc.List(c.Request.Context(), &req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	response.OKPage(c, scripts, total, req.GetPage(), req.GetPageSize())
}

// ListMine own scripts in one state
// GET /api/v1/me/scripts
func (h *ScriptHandler) ListMine(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.StateListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}

	scripts, total, err := h.scriptSvc.ListMine(c.Request.Context(), &req, actor)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	response.OKPage(c, scripts, total, req.GetPage(), req.GetPageSize())
}

// Featured scripts holding a featured placement right now
// GET /api/v1/scripts/featured
func (h *ScriptHandler) Featured(c *gin.Context) {
	scripts, err := h.scriptSvc.Featured(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	response.OK(c, gin.H{"list": scripts})
}
