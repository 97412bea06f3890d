// Package response provides helpers for consistent API responses.
package response

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Success sends a successful JSON response with the given data.
// The response will always include "success": true.
func Success(c echo.Context, data map[string]interface{}) error {
	return SuccessWithStatus(c, http.StatusOK, data)
}

// SuccessWithStatus is Success with an explicit status code.
func SuccessWithStatus(c echo.Context, statusCode int, data map[string]interface{}) error {
	resp := make(map[string]interface{}, len(data)+1)

	// Merge additional data
	for k, v := range data {
		resp[k] = v
	}
	resp["success"] = true

	return c.JSON(statusCode, resp)
}

// Error sends an error JSON response with the given status code and message.
func Error(c echo.Context, statusCode int, message string) error {
	return c.JSON(statusCode, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}

// ErrorWithDetails sends an error response carrying the underlying cause.
func ErrorWithDetails(c echo.Context, statusCode int, message string, details string) error {
	return ErrorWithFields(c, statusCode, message, map[string]interface{}{
		"details": details,
	})
}

// ErrorWithFields sends an error response with extra fields merged in.
// "success" and "error" cannot be overridden.
func ErrorWithFields(c echo.Context, statusCode int, message string, fields map[string]interface{}) error {
	resp := make(map[string]interface{}, len(fields)+2)
	for k, v := range fields {
		resp[k] = v
	}
	resp["success"] = false
	resp["error"] = message

	return c.JSON(statusCode, resp)
}

// NotFound sends a 404 with a hint about what the client can do next.
func NotFound(c echo.Context, message string, suggestion string) error {
	return c.JSON(http.StatusNotFound, map[string]interface{}{
		"success":    false,
		"message":    message,
		"suggestion": suggestion,
	})
}
