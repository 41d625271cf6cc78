package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/riiansmart/taskflow/internal/auth/onetime"
)

func (h *Handler) VerifyEmail(c *gin.Context) {
	rawToken := c.Param("token")

	err := h.svc.VerifyEmail(c.Request.Context(), rawToken)
	switch {
	case errors.Is(err, onetime.ErrUnknown):
		respond(c, http.StatusNotFound, "verification token not found", nil)
	case errors.Is(err, onetime.ErrExpired):
		respond(c, http.StatusGone, "verification token expired", nil)
	case errors.Is(err, onetime.ErrAlreadyUsed):
		respond(c, http.StatusBadRequest, "verification token already used", nil)
	case err != nil:
		respond(c, http.StatusInternalServerError, "verification failed", nil)
	default:
		respond(c, http.StatusOK, "Email verified successfully", nil)
	}
}

// ResendVerification always reports success; an unknown email must be
// indistinguishable from a known one.
func (h *Handler) ResendVerification(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		respond(c, http.StatusBadRequest, "email is required", nil)
		return
	}

	if _, err := h.svc.ResendVerification(c.Request.Context(), email); err != nil {
		respond(c, http.StatusInternalServerError, "could not issue verification token", nil)
		return
	}

	respond(c, http.StatusOK, "Verification email sent successfully", nil)
}
