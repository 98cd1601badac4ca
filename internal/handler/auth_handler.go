package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taskvault/internal/service/auth"
	"taskvault/pkg/util"
)

// CookieName holds the session token.
const CookieName = "auth-token"

type AuthHandler struct {
	auth   *auth.Service
	secure bool
	logger *zap.Logger
}

func NewAuthHandler(svc *auth.Service, secureCookies bool, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: svc, secure: secureCookies, logger: logger}
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var cred auth.Credential
	if err := c.ShouldBindJSON(&cred); err != nil {
		badRequest(c, "invalid request")
		return
	}

	token, sess, err := h.auth.Login(c.Request.Context(), cred, c.ClientIP())
	if err != nil {
		respondError(c, h.logger, "login", err)
		return
	}

	h.setCookie(c, token, h.auth.SessionTTL())
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"email":   sess.Email,
	})
}

// Session handles GET /auth/session
func (h *AuthHandler) Session(c *gin.Context) {
	sess, err := h.auth.Authorize(TokenFromRequest(c))
	switch err {
	case nil:
		c.JSON(http.StatusOK, gin.H{
			"authenticated": true,
			"user": gin.H{
				"email":     sess.Email,
				"expiresAt": sess.ExpiresAt,
			},
		})
	case auth.ErrForbidden:
		c.JSON(http.StatusForbidden, gin.H{"authenticated": false})
	default:
		c.JSON(http.StatusUnauthorized, gin.H{"authenticated": false})
	}
}

// Logout handles POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	h.setCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *AuthHandler) setCookie(c *gin.Context, value string, ttl time.Duration) {
	maxAge := int(ttl.Seconds())
	if ttl < 0 {
		maxAge = -1
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// TokenFromRequest reads the session cookie, falling back to a bearer header.
func TokenFromRequest(c *gin.Context) string {
	if v, err := c.Cookie(CookieName); err == nil && v != "" {
		return v
	}
	return util.ExtractToken(c.Request)
}
