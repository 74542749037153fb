package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	sessionIDKey = "sessionId"

	// SessionCookie names the cookie that carries the browser session ID.
	SessionCookie = "sid"
	// SessionHeader lets API clients pick their own session.
	SessionHeader = "X-Session-Id"
)

// Session resolves the caller's session ID from the X-Session-Id header or
// the sid cookie, minting a new one when neither holds a valid UUID.
func Session(secureCookie bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if id, ok := validSessionID(c.GetHeader(SessionHeader)); ok {
			c.Set(sessionIDKey, id)
			c.Next()
			return
		}

		raw, _ := c.Cookie(SessionCookie)
		id, ok := validSessionID(raw)
		if !ok {
			id = uuid.NewString()
		}
		http.SetCookie(c.Writer, &http.Cookie{
			Name:     SessionCookie,
			Value:    id,
			Path:     "/",
			HttpOnly: true,
			Secure:   secureCookie,
			SameSite: http.SameSiteLaxMode,
		})
		c.Set(sessionIDKey, id)
		c.Next()
	}
}

// SessionIDFromContext fetches the session ID set by the Session middleware.
func SessionIDFromContext(c *gin.Context) string {
	return stringFromContext(c, sessionIDKey)
}

func validSessionID(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return "", false
	}
	return parsed.String(), true
}
