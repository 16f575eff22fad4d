package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/pdf-summarizer/internal/domain/auth"
	apperrors "github.com/yanqian/pdf-summarizer/pkg/errors"
)

// authMiddleware requires a valid access token from the Authorization header or the session cookie.
func authMiddleware(svc auth.Service, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := extractToken(c, cookieName)
		if err != nil {
			abortWithError(c, err)
			return
		}
		if token == "" {
			abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "authentication required", nil))
			return
		}
		claims, validateErr := svc.ValidateToken(c.Request.Context(), token)
		if validateErr != nil {
			abortWithError(c, tokenError(validateErr))
			return
		}
		setClaims(c, claims)
		c.Next()
	}
}

// optionalAuthMiddleware attaches claims when a valid token is present and lets anonymous callers through.
// A malformed or expired token is treated as anonymous.
func optionalAuthMiddleware(svc auth.Service, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := extractToken(c, cookieName)
		if err == nil && token != "" {
			if claims, validateErr := svc.ValidateToken(c.Request.Context(), token); validateErr == nil {
				setClaims(c, claims)
			}
		}
		c.Next()
	}
}

func extractToken(c *gin.Context, cookieName string) (string, *HTTPError) {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return "", NewHTTPError(http.StatusUnauthorized, "unauthorized", "invalid authorization header", nil)
		}
		return strings.TrimSpace(parts[1]), nil
	}
	if cookieName == "" {
		return "", nil
	}
	cookie, err := c.Cookie(cookieName)
	if err != nil {
		return "", nil
	}
	return strings.TrimSpace(cookie), nil
}

func tokenError(err error) *HTTPError {
	if apperrors.IsCode(err, "invalid_token") {
		return NewHTTPError(http.StatusUnauthorized, "invalid_token", "invalid or expired token", err)
	}
	return NewHTTPError(http.StatusInternalServerError, "auth_failed", genericErrorMessage, err)
}
