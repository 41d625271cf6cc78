package handler

import "github.com/gin-gonic/gin"

// Every JSON response is wrapped in the same envelope the frontend
// already consumes.
type apiResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func respond(c *gin.Context, status int, message string, data any) {
	c.JSON(status, apiResponse{
		Success: status < 400,
		Message: message,
		Data:    data,
	})
}
