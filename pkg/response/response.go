package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the standard API response structure
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Error   string      `json:"error,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// Success sends a successful response
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Created sends a 201 created response
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    0,
		Message: "created",
		Data:    data,
	})
}

// Fail sends an error response carrying a machine readable reason
func Fail(c *gin.Context, statusCode int, reason, message string) {
	code := -1
	switch statusCode {
	case http.StatusUnauthorized:
		code = -1001
	case http.StatusForbidden:
		code = -1002
	case http.StatusNotFound:
		code = -1003
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
		Error:   reason,
	})
}
