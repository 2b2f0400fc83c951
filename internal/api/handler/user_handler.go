package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/FiveCrux/FiveCrux-sub000/internal/dto"
	"github.com/FiveCrux/FiveCrux-sub000/internal/service"
	"github.com/FiveCrux/FiveCrux-sub000/pkg/response"
)

// UserHandler profile and account administration endpoints
type UserHandler struct {
	userSvc service.UserService
	logger  *zap.Logger
}

// NewUserHandler creates a UserHandler
func NewUserHandler(userSvc service.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{userSvc: userSvc, logger: logger}
}

// GetMe current account
// GET /api/v1/auth/me
func (h *UserHandler) GetMe(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	user, err := h.userSvc.GetMe(c.Request.Context(), userID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	response.OK(c, user)
}

// UpdateProfile edit own profile
// PUT /api/v1/users/me
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.userSvc.UpdateProfile(c.Request.Context(), &req, actor)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	response.OK(c, user)
}

// PublicProfile profile page with approved content
// GET /api/v1/users/:id/profile
func (h *UserHandler) PublicProfile(c *gin.Context) {
	profile, err := h.userSvc.PublicProfile(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	response.OK(c, profile)
}

// ListUsers admin user search
// GET /api/v1/admin/users
func (h *UserHandler) ListUsers(c *gin.Context) {
	var req dto.UserListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}

	users, total, err := h.userSvc.List(c.Request.Context(), &req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	response.OKPage(c, users, total, req.GetPage(), req.GetPageSize())
}

// SetRole assign a role
// PUT /api/v1/admin/users/:id/role
func (h *UserHandler) SetRole(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.SetRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.userSvc.SetRole(c.Request.Context(), c.Param("id"), &req, actor)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	response.OK(c, user)
}

// SetBanned ban or unban
// PUT /api/v1/admin/users/:id/ban
func (h *UserHandler) SetBanned(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.BanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.userSvc.SetBanned(c.Request.Context(), c.Param("id"), &req, actor)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	response.OK(c, user)
}
