package handler

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/riiansmart/taskflow/internal/logger"
)

func (h *Handler) oauthLogin(c *gin.Context) {
	providerName := c.Param("provider")

	p, err := h.providers.Get(providerName)
	if err != nil {
		respond(c, http.StatusBadRequest, "unknown oauth provider", nil)
		return
	}

	state, err := generateState(c)
	if err != nil {
		respond(c, http.StatusInternalServerError, "could not start oauth flow", nil)
		return
	}
	_, codeChallenge, err := generatePKCE(c)
	if err != nil {
		respond(c, http.StatusInternalServerError, "could not start oauth flow", nil)
		return
	}

	authURL := p.AuthCodeURL(state, codeChallenge)
	c.Redirect(http.StatusFound, authURL)
}

// oauthCallback finishes the provider round-trip and hands the browser
// back to the frontend. The token travels in the redirect query
// because that is the contract the existing client consumes.
func (h *Handler) oauthCallback(c *gin.Context) {
	providerName := c.Param("provider")

	p, err := h.providers.Get(providerName)
	if err != nil {
		respond(c, http.StatusBadRequest, "unknown oauth provider", nil)
		return
	}

	if !validateState(c) {
		h.redirectError(c, "invalid_state")
		return
	}

	if errParam := c.Query("error"); errParam != "" {
		logger.Warn("oauth callback returned error", map[string]any{
			"provider": providerName,
			"error":    errParam,
			"desc":     c.Query("error_description"),
		})
		h.redirectError(c, "authentication_failed")
		return
	}

	code := c.Query("code")
	if code == "" {
		logger.Error("oauth callback missing code and error", nil)
		h.redirectError(c, "authentication_failed")
		return
	}

	codeVerifier := getPKCEVerifier(c)
	if codeVerifier == "" {
		h.redirectError(c, "missing_pkce_verifier")
		return
	}

	claims, err := p.ExchangeCode(c.Request.Context(), code, codeVerifier)
	if err != nil {
		logger.Error("oauth code exchange failed", map[string]any{
			"provider": providerName,
			"error":    err.Error(),
		})
		h.redirectError(c, "authentication_failed")
		return
	}

	pair, err := h.svc.FederatedLogin(c.Request.Context(), claims)
	if err != nil {
		logger.Error("federated login failed", map[string]any{
			"provider": providerName,
			"error":    err.Error(),
		})
		h.redirectError(c, "authentication_failed")
		return
	}

	redirect := h.frontendURL + "/dashboard?token=" +
		url.QueryEscape(pair.AccessToken) +
		"&refreshToken=" + url.QueryEscape(pair.RefreshToken)
	c.Redirect(http.StatusFound, redirect)
}

func (h *Handler) redirectError(c *gin.Context, reason string) {
	c.Redirect(
		http.StatusFound,
		h.frontendURL+"/login?error="+url.QueryEscape(reason),
	)
}
