package api

import (
	"net/http"                              // HTTP status codes
	"time"                                  // Session lifetime
	"trading_simulator/internal/account"    // Credential store
	"trading_simulator/internal/middleware" // Session cookie helpers
	"trading_simulator/internal/utils"      // Utility functions

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// RegisterPageHandler shows the registration form
func RegisterPageHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		render(c, http.StatusOK, "register.html", "Register", nil)
	}
}

// RegisterHandler creates a user from the registration form and sends them to the login page
func RegisterHandler(accounts *account.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		username := c.PostForm("username")
		userID, err := accounts.Register(c.Request.Context(), username, c.PostForm("password"), c.PostForm("confirmation"))
		if err != nil {
			apology(c, err)
			return
		}
		logrus.WithFields(logrus.Fields{
			"user_id":  userID,   // New user ID
			"username": username, // Registered username
		}).Info("User registered")
		c.Redirect(http.StatusFound, "/login")
	}
}

// LoginPageHandler forgets any session and shows the login form
func LoginPageHandler(secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		middleware.ClearSession(c, secure)
		render(c, http.StatusOK, "login.html", "Log In", nil)
	}
}

// LoginHandler authenticates a user and stores a signed session token in a cookie,
// marked secure when the site is served over HTTPS
func LoginHandler(accounts *account.Service, jwtSecret string, ttl time.Duration, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		middleware.ClearSession(c, secure) // Forget any previous user

		username := c.PostForm("username")
		userID, err := accounts.Authenticate(c.Request.Context(), username, c.PostForm("password"))
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"username": username,    // Attempted username
				"error":    err.Error(), // Error message
			}).Info("Login rejected")
			apology(c, err)
			return
		}
		// Generate JWT token
		token, err := utils.GenerateJWT(userID, jwtSecret, ttl)
		if err != nil {
			apology(c, err)
			return
		}
		middleware.SetSession(c, token, int(ttl.Seconds()), secure)
		logrus.WithField("user_id", userID).Info("User logged in")
		c.Redirect(http.StatusFound, "/")
	}
}

// LogoutHandler forgets the session and returns to the home page
func LogoutHandler(secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		middleware.ClearSession(c, secure)
		c.Redirect(http.StatusFound, "/")
	}
}
