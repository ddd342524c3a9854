package api

import (
	"net/http"                              // HTTP status codes
	"time"                                  // Durations
	"trading_simulator/internal/account"    // Credential store
	"trading_simulator/internal/ledger"     // Trading ledger
	"trading_simulator/internal/middleware" // Custom package for middleware
	"trading_simulator/internal/utils"      // Cache
	"trading_simulator/internal/web"        // HTML views

	"github.com/gin-gonic/gin" // Gin web framework
)

// Options carries the dependencies of the HTTP layer
type Options struct {
	Accounts      *account.Service // Registration and login
	Ledger        *ledger.Engine   // Trades, quotes and portfolio
	Cache         utils.Cache      // Read cache, nil disables caching
	CacheTTL      time.Duration    // Lifetime of cached views
	JWTSecret     string           // Session signing key
	SessionTTL    time.Duration    // Session lifetime
	SecureCookies bool             // Send the session cookie over HTTPS only
}

// NewRouter builds the gin engine serving the application
func NewRouter(opts Options) (*gin.Engine, error) {
	r := gin.New() // Gin router instance
	r.Use(middleware.RequestLogger(), gin.Recovery(), middleware.NoCache())

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		return nil, err
	}
	if err := web.Load(r); err != nil {
		return nil, err
	}

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })

	// Auth routes
	r.GET("/register", RegisterPageHandler())
	r.POST("/register", RegisterHandler(opts.Accounts))
	r.GET("/login", LoginPageHandler(opts.SecureCookies))
	r.POST("/login", LoginHandler(opts.Accounts, opts.JWTSecret, opts.SessionTTL, opts.SecureCookies))
	r.GET("/logout", LogoutHandler(opts.SecureCookies))

	// Trading routes (protected by the session cookie)
	app := r.Group("")
	app.Use(middleware.SessionMiddleware(opts.JWTSecret, opts.SecureCookies))
	app.GET("/", IndexHandler(opts.Ledger))                                     // Portfolio
	app.GET("/quote", QuotePageHandler())                                       // Quote form
	app.POST("/quote", QuoteHandler(opts.Ledger))                               // Quote lookup
	app.GET("/buy", BuyPageHandler(opts.Ledger))                                // Buy form
	app.POST("/buy", BuyHandler(opts.Ledger, opts.Cache))                       // Buy order
	app.GET("/sell", SellPageHandler(opts.Ledger, opts.Cache, opts.CacheTTL))   // Sell form
	app.POST("/sell", SellHandler(opts.Ledger, opts.Cache))                     // Sell order
	app.GET("/history", HistoryHandler(opts.Ledger, opts.Cache, opts.CacheTTL)) // Transaction history

	return r, nil
}
