package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/FiveCrux/FiveCrux-sub000/internal/service"
	"github.com/FiveCrux/FiveCrux-sub000/pkg/response"
)

// multipartOverhead headroom for boundaries and part headers
const multipartOverhead = 64 << 10

// UploadHandler image upload endpoint
type UploadHandler struct {
	uploadSvc service.UploadService
	logger    *zap.Logger
}

// NewUploadHandler creates an UploadHandler
func NewUploadHandler(uploadSvc service.UploadService, logger *zap.Logger) *UploadHandler {
	return &UploadHandler{uploadSvc: uploadSvc, logger: logger}
}

// UploadImage multipart field "file"
// POST /api/v1/uploads
func (h *UploadHandler) UploadImage(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.uploadSvc.MaxBytes()+multipartOverhead)
	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(c, h.logger, service.ErrFileTooLarge)
			return
		}
		response.BadRequest(c, CodeInvalidParams, "multipart field \"file\" is required")
		return
	}

	f, err := fh.Open()
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	defer f.Close()

	result, err := h.uploadSvc.UploadImage(c.Request.Context(), f, fh.Size, actor)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	response.Created(c, result)
}
