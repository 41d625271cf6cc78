package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/riiansmart/taskflow/internal/auth"
	"github.com/riiansmart/taskflow/internal/auth/provider"
	"github.com/riiansmart/taskflow/internal/middleware"
)

type Handler struct {
	svc         *auth.Service
	providers   *provider.Registry
	frontendURL string
}

func NewHandler(
	svc *auth.Service,
	registry *provider.Registry,
	frontendURL string,
) *Handler {
	return &Handler{
		svc:         svc,
		providers:   registry,
		frontendURL: frontendURL,
	}
}

// RegisterRoutes wires the auth surface. Everything under /auth is
// public except /auth/user, which sits behind the authorization gate.
func (h *Handler) RegisterRoutes(r *gin.Engine, gate *middleware.AuthMiddleware) {
	r.POST("/auth/login", h.Login)
	r.POST("/auth/register", h.Register)
	r.GET("/auth/verify-email/:token", h.VerifyEmail)
	r.POST("/auth/resend-verification", h.ResendVerification)
	r.POST("/auth/refresh-token", h.RefreshToken)
	r.POST("/auth/logout", h.Logout)
	r.POST("/auth/forgot-password", h.ForgotPassword)
	r.POST("/auth/reset-password", h.ResetPassword)

	r.GET("/auth/oauth2/login/:provider", h.oauthLogin)
	r.GET("/auth/oauth2/callback/:provider", h.oauthCallback)

	r.GET("/auth/user", middleware.GinRequireAuth(gate), h.CurrentUser)
}
