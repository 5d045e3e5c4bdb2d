// Package dto provides data transfer objects for HTTP requests/responses
package dto

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/botforge/botforge/internal/utils/platformerrors"
)

// Response is a generic API response wrapper
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
}

// ErrorInfo holds error information
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// OK writes a success response.
func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

// Created writes a success response with a 201 status.
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, Response{Success: true, Data: data})
}

// Error maps a platform error to its HTTP status and writes it.
func Error(c *gin.Context, err error) {
	_ = c.Error(err)
	var platformErr *platformerrors.PlatformError
	if errors.As(err, &platformErr) {
		c.JSON(platformerrors.ErrorTypeToHTTPStatus(platformErr.Type), Response{
			Success: false,
			Error:   &ErrorInfo{Code: string(platformErr.Type), Message: platformErr.Message},
		})
		return
	}
	c.JSON(http.StatusInternalServerError, Response{
		Success: false,
		Error:   &ErrorInfo{Code: string(platformerrors.ErrorTypeInternal), Message: err.Error()},
	})
}

// BadRequest writes a validation error for malformed request bodies.
func BadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, Response{
		Success: false,
		Error:   &ErrorInfo{Code: string(platformerrors.ErrorTypeValidation), Message: err.Error()},
	})
}
