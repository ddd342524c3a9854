package middleware

import (
	"net/http"                         // HTTP status codes
	"trading_simulator/internal/utils" // JWT utility functions

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// SessionCookie holds the signed session token
const SessionCookie = "session"

// UserIDKey is the context key of the authenticated user id
const UserIDKey = "userID"

// SessionMiddleware validates the session cookie and extracts the user id.
// Requests without a valid session are redirected to the login page.
// secure marks the cookies it clears as HTTPS only.
func SessionMiddleware(secret string, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, err := c.Cookie(SessionCookie) // Get session cookie
		if err != nil || tokenStr == "" {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		claims, err := utils.ParseJWT(tokenStr, secret) // Parse the JWT token
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			}).Info("Rejected session")
			ClearSession(c, secure) // Drop the stale cookie before redirecting
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		c.Set(UserIDKey, claims.UserID) // Store userID in context
		c.Next()                        // Proceed to the next handler
	}
}

// SetSession stores token in the session cookie for maxAge seconds.
// A secure cookie is only sent back over HTTPS.
func SetSession(c *gin.Context, token string, maxAge int, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, token, maxAge, "/", "", secure, true)
}

// ClearSession expires the session cookie
func ClearSession(c *gin.Context, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, "", -1, "/", "", secure, true)
}

// UserID returns the id stored by SessionMiddleware, or 0
func UserID(c *gin.Context) uint {
	return c.GetUint(UserIDKey)
}
