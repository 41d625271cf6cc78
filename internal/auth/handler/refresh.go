package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/riiansmart/taskflow/internal/token"
)

func (h *Handler) RefreshToken(c *gin.Context) {
	raw := c.Query("refreshToken")
	if raw == "" {
		respond(c, http.StatusBadRequest, "refreshToken is required", nil)
		return
	}

	pair, err := h.svc.Refresh(c.Request.Context(), raw)
	switch {
	case errors.Is(err, token.ErrMalformed),
		errors.Is(err, token.ErrExpired),
		errors.Is(err, token.ErrKindMismatch),
		errors.Is(err, token.ErrRevoked),
		errors.Is(err, token.ErrUnknown):
		respond(c, http.StatusUnauthorized, "Invalid refresh token", nil)
	case err != nil:
		respond(c, http.StatusInternalServerError, "token refresh failed", nil)
	default:
		respond(c, http.StatusOK, "Token refreshed successfully", pair)
	}
}

// Logout succeeds for unknown and already-revoked tokens alike, so a
// caller probing logout learns nothing about token validity.
func (h *Handler) Logout(c *gin.Context) {
	raw := c.Query("refreshToken")

	if err := h.svc.Logout(c.Request.Context(), raw); err != nil {
		respond(c, http.StatusInternalServerError, "logout failed", nil)
		return
	}

	respond(c, http.StatusOK, "Logged out successfully", nil)
}
