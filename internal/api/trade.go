package api

import (
	"net/http"                              // HTTP status codes
	"strconv"                               // Share count parsing
	"time"                                  // Cache lifetime
	"trading_simulator/internal/ledger"     // Trading ledger
	"trading_simulator/internal/middleware" // Authenticated user
	"trading_simulator/internal/utils"      // Utility functions

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// QuotePageHandler shows the quote form
func QuotePageHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		render(c, http.StatusOK, "quote.html", "Quote", nil)
	}
}

// QuoteHandler looks up the submitted symbol
func QuoteHandler(engine *ledger.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		q, err := engine.Lookup(c.Request.Context(), c.PostForm("symbol"))
		if err != nil {
			apology(c, err)
			return
		}
		render(c, http.StatusOK, "quoted.html", "Quoted", gin.H{"Quote": q})
	}
}

// BuyPageHandler shows the buy form with the current cash balance
func BuyPageHandler(engine *ledger.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		cash, err := engine.Cash(c.Request.Context(), middleware.UserID(c))
		if err != nil {
			apology(c, err)
			return
		}
		render(c, http.StatusOK, "buy.html", "Buy", gin.H{"Balance": cash})
	}
}

// BuyHandler buys shares and shows the receipt
func BuyHandler(engine *ledger.Engine, cache utils.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.UserID(c)
		symbol, shares := c.PostForm("symbol"), c.PostForm("shares")
		// Validate inputs
		if symbol == "" {
			invalid(c, "Must provide company ticker symbol")
			return
		}
		if shares == "" {
			invalid(c, "Must provide number of shares")
			return
		}
		n, ok := parseDigits(shares)
		if !ok {
			invalid(c, "Shares must be a positive integer")
			return
		}
		receipt, err := engine.Buy(c.Request.Context(), userID, symbol, n)
		if err != nil {
			logTradeFailure(userID, "buy", symbol, n, err)
			apology(c, err)
			return
		}
		logTrade(userID, receipt)
		invalidate(c.Request.Context(), cache, userID)
		render(c, http.StatusOK, "buy.html", "Buy", gin.H{"Receipt": receipt, "Balance": receipt.Balance})
	}
}

// SellPageHandler shows the sell form listing the symbols the user holds
func SellPageHandler(engine *ledger.Engine, cache utils.Cache, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		userID := middleware.UserID(c)

		stocks, err := cached(ctx, cache, ttl, holdingsView, userID, func() ([]string, error) {
			return engine.Holdings(ctx, userID)
		})
		if err != nil {
			apology(c, err)
			return
		}
		render(c, http.StatusOK, "sell.html", "Sell", gin.H{"Stocks": stocks})
	}
}

// SellHandler sells shares and returns to the portfolio
func SellHandler(engine *ledger.Engine, cache utils.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.UserID(c)
		symbol, shares := c.PostForm("symbol"), c.PostForm("shares")
		// Validate inputs
		if symbol == "" {
			invalid(c, "Must provide company ticker symbol")
			return
		}
		if shares == "" {
			invalid(c, "Must provide number of shares")
			return
		}
		n, err := strconv.ParseInt(shares, 10, 64)
		if err != nil {
			invalid(c, "Shares must be an integer")
			return
		}
		if n <= 0 {
			invalid(c, "Shares must be a positive number")
			return
		}
		receipt, err := engine.Sell(c.Request.Context(), userID, symbol, n)
		if err != nil {
			logTradeFailure(userID, "sell", symbol, n, err)
			apology(c, err)
			return
		}
		logTrade(userID, receipt)
		invalidate(c.Request.Context(), cache, userID)
		c.Redirect(http.StatusFound, "/")
	}
}

// parseDigits accepts a non-empty run of ASCII digits
func parseDigits(s string) (int64, bool) {
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	return n, err == nil
}

func logTrade(userID uint, r *ledger.Receipt) {
	logrus.WithFields(logrus.Fields{
		"user_id":     userID,                      // Trading user
		"symbol":      r.Symbol,                    // Canonical ticker
		"shares":      r.Shares,                    // Number of shares
		"price":       r.Price.StringFixed(2),      // Execution price
		"total_price": r.TotalPrice.StringFixed(2), // Signed cash impact
		"balance":     r.Balance.StringFixed(2),    // Cash after the trade
		"side":        r.Side,                      // BOUGHT or SOLD
	}).Info("Trade executed")
}

func logTradeFailure(userID uint, side, symbol string, shares int64, err error) {
	logrus.WithFields(logrus.Fields{
		"user_id": userID,
		"side":    side,
		"symbol":  symbol,
		"shares":  shares,
		"error":   err.Error(),
	}).Warn("Trade rejected")
}
