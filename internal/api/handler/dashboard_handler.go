package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/FiveCrux/FiveCrux-sub000/internal/service"
	"github.com/FiveCrux/FiveCrux-sub000/pkg/response"
)

// DashboardHandler admin overview
type DashboardHandler struct {
	dashboardSvc service.DashboardService
	logger       *zap.Logger
}

// NewDashboardHandler creates a DashboardHandler
func NewDashboardHandler(dashboardSvc service.DashboardService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{dashboardSvc: dashboardSvc, logger: logger}
}

// Stats GET /api/v1/admin/dashboard
func (h *DashboardHandler) Stats(c *gin.Context) {
	stats, err := h.dashboardSvc.Stats(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	response.OK(c, stats)
}
