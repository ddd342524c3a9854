package api

import (
	"net/http"                              // HTTP status codes
	"time"                                  // Cache lifetime
	"trading_simulator/internal/ledger"     // Trading ledger
	"trading_simulator/internal/middleware" // Authenticated user
	"trading_simulator/internal/utils"      // Utility functions

	"github.com/gin-gonic/gin" // Gin web framework
)

// IndexHandler shows the portfolio of the logged in user
func IndexHandler(engine *ledger.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		summary, err := engine.Summary(c.Request.Context(), middleware.UserID(c))
		if err != nil {
			apology(c, err)
			return
		}
		render(c, http.StatusOK, "index.html", "Portfolio", gin.H{"Summary": summary})
	}
}

// HistoryHandler shows the user's transactions, served from cache when possible
func HistoryHandler(engine *ledger.Engine, cache utils.Cache, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		userID := middleware.UserID(c)

		history, err := cached(ctx, cache, ttl, historyView, userID, func() ([]ledger.HistoryEntry, error) {
			return engine.History(ctx, userID)
		})
		if err != nil {
			apology(c, err)
			return
		}
		render(c, http.StatusOK, "history.html", "History", gin.H{"History": history})
	}
}
