package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/riiansmart/taskflow/internal/auth/credentials"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, http.StatusBadRequest, "invalid request", nil)
		return
	}

	pair, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if errors.Is(err, credentials.ErrInvalidCredentials) {
		respond(c, http.StatusUnauthorized, "Invalid email or password", nil)
		return
	}
	if err != nil {
		respond(c, http.StatusInternalServerError, "login failed", nil)
		return
	}

	respond(c, http.StatusOK, "Login successful", pair)
}
