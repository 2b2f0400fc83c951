package handler

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/FiveCrux/FiveCrux-sub000/internal/dto"
	"github.com/FiveCrux/FiveCrux-sub000/internal/service"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	icsContentType  = "text/calendar; charset=utf-8"
)

// ExportHandler slot schedule downloads
type ExportHandler struct {
	exportSvc   service.ExportService
	calendarSvc service.CalendarService
	logger      *zap.Logger
}

// NewExportHandler creates an ExportHandler
func NewExportHandler(exportSvc service.ExportService, calendarSvc service.CalendarService, logger *zap.Logger) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc, calendarSvc: calendarSvc, logger: logger}
}

// ExportSlots slot purchases as .xlsx
// GET /api/v1/admin/exports/slots
func (h *ExportHandler) ExportSlots(c *gin.Context) {
	var req dto.SlotWindowRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}

	buf, filename, err := h.exportSvc.ExportSlots(c.Request.Context(), &req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// SlotCalendar slot schedule as an ICS feed
// GET /api/v1/admin/calendar/slots.ics
func (h *ExportHandler) SlotCalendar(c *gin.Context) {
	var req dto.SlotWindowRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, err)
		return
	}

	cal, err := h.calendarSvc.SlotCalendar(c.Request.Context(), &req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.Header("Content-Disposition", `inline; filename="fivecrux-slots.ics"`)
	c.Data(http.StatusOK, icsContentType, []byte(cal))
}
