package api

import (
	"errors"                                // Error matching
	"net/http"                              // HTTP status codes
	"trading_simulator/internal/domain"     // Error kinds
	"trading_simulator/internal/middleware" // Session helpers

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// render executes the named view with the fields every page expects
func render(c *gin.Context, status int, name, title string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["Title"] = title                        // Page title
	data["LoggedIn"] = middleware.UserID(c) != 0 // Navigation variant
	c.HTML(status, name, data)                   // Render the page
}

// statusOf maps an error kind to the status of its apology page
func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrBalanceUnavailable):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrAuthentication),
		errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrInsufficientFunds),
		errors.Is(err, domain.ErrInsufficientHoldings),
		errors.Is(err, domain.ErrQuoteUnavailable),
		errors.Is(err, domain.ErrNoHistory):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// apology renders err for the user. Unexpected errors are logged and hidden.
func apology(c *gin.Context, err error) {
	status := statusOf(err)
	message := domain.Message(err)
	if status == http.StatusInternalServerError || message == "" {
		logrus.WithFields(logrus.Fields{
			"path":    c.Request.URL.Path,
			"user_id": middleware.UserID(c),
			"error":   err.Error(),
		}).Error("Request failed")
		message = "Internal server error"
	}
	render(c, status, "apology.html", "Apology", gin.H{"Code": status, "Message": message})
}

// invalid renders a validation apology with message
func invalid(c *gin.Context, message string) {
	apology(c, domain.NewError(domain.ErrValidation, message))
}

