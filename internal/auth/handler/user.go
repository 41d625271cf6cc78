package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/riiansmart/taskflow/internal/middleware"
)

type userResponse struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	Role          string `json:"role"`
	Provider      string `json:"provider,omitempty"`
	EmailVerified bool   `json:"emailVerified"`
}

// CurrentUser returns the profile behind the request principal. The
// route sits behind the authorization gate, so a missing principal is
// a wiring bug, not a client error.
func (h *Handler) CurrentUser(c *gin.Context) {
	principal, ok := middleware.PrincipalFromContext(c.Request.Context())
	if !ok {
		respond(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	ident, err := h.svc.CurrentUser(c.Request.Context(), principal.ID)
	if err != nil {
		respond(c, http.StatusInternalServerError, "could not load profile", nil)
		return
	}

	respond(c, http.StatusOK, "OK", userResponse{
		ID:            ident.ID,
		Email:         ident.Email,
		Name:          ident.Name,
		Role:          string(ident.Role),
		Provider:      ident.Provider,
		EmailVerified: ident.EmailVerified,
	})
}
