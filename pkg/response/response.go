// Package response is the JSON envelope shared by every endpoint.
//
//	{"code": 0, "message": "success", "data": {...}}
//	{"code": 13002, "message": "entity is not pending", "request_id": "..."}
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CodeInternal code of every unexpected failure
const CodeInternal = 50000

// requestIDKey set by middleware.RequestID
const requestIDKey = "request_id"

// Response the envelope. Details and RequestID only appear on errors.
type Response struct {
	Code      int         `json:"code"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Details   string      `json:"details,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

// Pagination paging metadata
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// PageData paged list payload
type PageData struct {
	List       interface{} `json:"list"`
	Pagination Pagination  `json:"pagination"`
}

// NewPagination computes the page count; pageSize 0 yields zero pages.
func NewPagination(total int64, page, pageSize int) Pagination {
	p := Pagination{Page: page, PageSize: pageSize, Total: total}
	if pageSize > 0 {
		p.TotalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return p
}

// ── success ──

func success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Response{Message: "success", Data: data})
}

// OK 200
func OK(c *gin.Context, data interface{}) { success(c, http.StatusOK, data) }

// Created 201
func Created(c *gin.Context, data interface{}) { success(c, http.StatusCreated, data) }

// OKPage 200 with a paged list
func OKPage(c *gin.Context, list interface{}, total int64, page, pageSize int) {
	success(c, http.StatusOK, PageData{
		List:       list,
		Pagination: NewPagination(total, page, pageSize),
	})
}

// ── errors ──

// ErrorWithDetails aborts the chain with an error envelope.
func ErrorWithDetails(c *gin.Context, httpStatus, code int, message, details string) {
	c.AbortWithStatusJSON(httpStatus, Response{
		Code:      code,
		Message:   message,
		Details:   details,
		RequestID: c.GetString(requestIDKey),
	})
}

// Error aborts the chain with an error envelope.
func Error(c *gin.Context, httpStatus, code int, message string) {
	ErrorWithDetails(c, httpStatus, code, message, "")
}

// BadRequest 400
func BadRequest(c *gin.Context, code int, message string) {
	Error(c, http.StatusBadRequest, code, message)
}

// Unauthorized 401
func Unauthorized(c *gin.Context, code int, message string) {
	Error(c, http.StatusUnauthorized, code, message)
}

// Forbidden 403
func Forbidden(c *gin.Context, code int, message string) {
	Error(c, http.StatusForbidden, code, message)
}

// InternalError 500
func InternalError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, CodeInternal, "internal server error")
}
