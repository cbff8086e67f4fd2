package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response represents a standard API response
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Success returns a success response
func Success(data interface{}) Response {
	return Response{
		Success: true,
		Message: "success",
		Data:    data,
	}
}

// Error returns an error response; message is repeated under "error" for
// clients that read the flat {error} shape
func Error(message string) Response {
	return Response{
		Success: false,
		Message: message,
		Error:   message,
	}
}

// JSON sends a JSON response
func JSON(c *gin.Context, statusCode int, response Response) {
	c.JSON(statusCode, response)
}

// SuccessJSON sends a success JSON response
func SuccessJSON(c *gin.Context, data interface{}) {
	JSON(c, http.StatusOK, Success(data))
}

// MessageJSON sends a success response with a custom message
func MessageJSON(c *gin.Context, statusCode int, message string, data interface{}) {
	JSON(c, statusCode, Response{Success: true, Message: message, Data: data})
}

// ErrorJSON sends an error JSON response
func ErrorJSON(c *gin.Context, statusCode int, message string) {
	JSON(c, statusCode, Error(message))
}

// ErrorWithDataJSON sends an error response that still carries data, e.g.
// the id of a failed payment attempt
func ErrorWithDataJSON(c *gin.Context, statusCode int, message string, data interface{}) {
	resp := Error(message)
	resp.Data = data
	JSON(c, statusCode, resp)
}
