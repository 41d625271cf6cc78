package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/riiansmart/taskflow/internal/auth/credentials"
)

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, http.StatusBadRequest, "invalid request", nil)
		return
	}

	_, err := h.svc.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	switch {
	case errors.Is(err, credentials.ErrAlreadyRegistered):
		respond(c, http.StatusConflict, "Email is already registered", nil)
	case errors.Is(err, credentials.ErrPasswordTooShort),
		errors.Is(err, credentials.ErrPasswordTooLong):
		respond(c, http.StatusBadRequest, err.Error(), nil)
	case err != nil:
		respond(c, http.StatusInternalServerError, "registration failed", nil)
	default:
		respond(c, http.StatusOK, "User registered successfully", nil)
	}
}
