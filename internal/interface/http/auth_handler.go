package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/pdf-summarizer/internal/domain/auth"
	"github.com/yanqian/pdf-summarizer/internal/infra/config"
)

// AuthHandler exposes account routes and manages the session cookie.
type AuthHandler struct {
	svc    auth.Service
	cookie config.AuthConfig
	logger *slog.Logger
}

// NewAuthHandler constructs the account handler.
func NewAuthHandler(svc auth.Service, cfg config.AuthConfig, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		svc:    svc,
		cookie: cfg,
		logger: logger.With("component", "http.auth"),
	}
}

// Register creates an account and signs the user in.
func (h *AuthHandler) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_input", "invalid registration payload", err))
		return
	}
	resp, err := h.svc.Register(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	h.setSession(c, resp)
	c.JSON(http.StatusCreated, resp)
}

// Login validates credentials.
func (h *AuthHandler) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_input", "invalid login payload", err))
		return
	}
	resp, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	h.setSession(c, resp)
	c.JSON(http.StatusOK, resp)
}

// Refresh exchanges a refresh token for a new pair.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req auth.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_input", "invalid refresh payload", err))
		return
	}
	resp, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	h.setSession(c, resp)
	c.JSON(http.StatusOK, resp)
}

// Logout clears the session cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.svc.Logout(c.Request.Context(), callerID(c)); err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	h.clearSession(c)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Me returns the current profile.
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.svc.Profile(c.Request.Context(), callerID(c))
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// UpdateMe changes the nickname.
func (h *AuthHandler) UpdateMe(c *gin.Context) {
	var req auth.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_input", "invalid profile payload", err))
		return
	}
	user, err := h.svc.UpdateProfile(c.Request.Context(), callerID(c), req)
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// DeleteMe removes the account, its history and its keyword trend.
func (h *AuthHandler) DeleteMe(c *gin.Context) {
	if err := h.svc.DeleteAccount(c.Request.Context(), callerID(c)); err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	h.clearSession(c)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *AuthHandler) setSession(c *gin.Context, resp auth.LoginResponse) {
	maxAge := int(h.cookie.TokenTTL / time.Second)
	if resp.ExpiresAt > 0 {
		if remaining := time.Until(time.Unix(resp.ExpiresAt, 0)); remaining > 0 {
			maxAge = int(remaining / time.Second)
		}
	}
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(h.cookie.CookieName, resp.Token, maxAge, "/", "", h.cookie.CookieSecure, true)
}

func (h *AuthHandler) clearSession(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(h.cookie.CookieName, "", -1, "/", "", h.cookie.CookieSecure, true)
}
