package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/riiansmart/taskflow/internal/auth/credentials"
	"github.com/riiansmart/taskflow/internal/auth/onetime"
)

// ForgotPassword always reports success; an unknown email must be
// indistinguishable from a known one.
func (h *Handler) ForgotPassword(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		respond(c, http.StatusBadRequest, "email is required", nil)
		return
	}

	if _, err := h.svc.RequestPasswordReset(c.Request.Context(), email); err != nil {
		respond(c, http.StatusInternalServerError, "could not issue reset token", nil)
		return
	}

	respond(c, http.StatusOK, "Password reset email sent", nil)
}

type resetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required"`
}

func (h *Handler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, http.StatusBadRequest, "invalid request", nil)
		return
	}

	err := h.svc.ResetPassword(c.Request.Context(), req.Token, req.NewPassword)
	switch {
	case errors.Is(err, onetime.ErrUnknown):
		respond(c, http.StatusNotFound, "reset token not found", nil)
	case errors.Is(err, onetime.ErrExpired):
		respond(c, http.StatusGone, "reset token expired", nil)
	case errors.Is(err, onetime.ErrAlreadyUsed):
		respond(c, http.StatusBadRequest, "reset token already used", nil)
	case errors.Is(err, credentials.ErrPasswordTooShort),
		errors.Is(err, credentials.ErrPasswordTooLong):
		respond(c, http.StatusBadRequest, err.Error(), nil)
	case err != nil:
		respond(c, http.StatusInternalServerError, "password reset failed", nil)
	default:
		respond(c, http.StatusOK, "Password reset successfully", nil)
	}
}
