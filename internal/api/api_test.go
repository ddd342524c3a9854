package api

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"trading_simulator/internal/account"
	database "trading_simulator/internal/db"
	"trading_simulator/internal/domain"
	"trading_simulator/internal/ledger"
	"trading_simulator/internal/middleware"
	"trading_simulator/internal/quote"
	"trading_simulator/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "test-secret"

type testApp struct {
	router *gin.Engine
	db     *gorm.DB
	prices quote.Fixed
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	return newTestAppWith(t, false)
}

func newTestAppWith(t *testing.T, secureCookies bool) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := database.OpenInMemory()
	require.NoError(t, err)
	cache, err := utils.NewLocalCache(1 << 20)
	require.NoError(t, err)
	t.Cleanup(cache.Close)

	prices := quote.Fixed{"X": decimal.RequireFromString("100.00")}
	r, err := NewRouter(Options{
		Accounts:      account.NewService(gdb, decimal.RequireFromString("10000")),
		Ledger:        ledger.NewEngine(gdb, prices, nil),
		Cache:         cache,
		CacheTTL:      time.Minute,
		JWTSecret:     testSecret,
		SessionTTL:    time.Hour,
		SecureCookies: secureCookies,
	})
	require.NoError(t, err)
	return &testApp{router: r, db: gdb, prices: prices}
}

// client keeps the session cookie between requests like a browser would
type client struct {
	app     *testApp
	session string
}

func (c *client) do(t *testing.T, method, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if c.session != "" {
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: c.session})
	}
	w := httptest.NewRecorder()
	c.app.router.ServeHTTP(w, req)
	for _, ck := range w.Result().Cookies() {
		if ck.Name != middleware.SessionCookie {
			continue
		}
		if ck.MaxAge < 0 || ck.Value == "" {
			c.session = ""
		} else {
			c.session = ck.Value
		}
	}
	return w
}

// loggedIn registers and logs in a fresh user
func (a *testApp) loggedIn(t *testing.T, username string) *client {
	t.Helper()
	c := &client{app: a}
	w := c.do(t, http.MethodPost, "/register", url.Values{
		"username": {username}, "password": {"pw"}, "confirmation": {"pw"},
	})
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())
	w = c.do(t, http.MethodPost, "/login", url.Values{"username": {username}, "password": {"pw"}})
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())
	require.NotEmpty(t, c.session)
	return c
}

func TestProtectedRoutesRedirectToLogin(t *testing.T) {
	a := newTestApp(t)
	c := &client{app: a}

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/"},
		{http.MethodGet, "/buy"},
		{http.MethodPost, "/buy"},
		{http.MethodGet, "/sell"},
		{http.MethodPost, "/sell"},
		{http.MethodGet, "/history"},
		{http.MethodGet, "/quote"},
		{http.MethodPost, "/quote"},
	} {
		w := c.do(t, tc.method, tc.path, url.Values{})
		assert.Equal(t, http.StatusFound, w.Code, tc.path)
		assert.Equal(t, "/login", w.Header().Get("Location"), tc.path)
	}

	var count int64
	require.NoError(t, a.db.Model(&domain.Transaction{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestTradingFlow(t *testing.T) {
	a := newTestApp(t)
	c := a.loggedIn(t, "alice")

	w := c.do(t, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "$10,000.00")

	w = c.do(t, http.MethodPost, "/quote", url.Values{"symbol": {"x"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "$100.00")

	w = c.do(t, http.MethodPost, "/buy", url.Values{"symbol": {"x"}, "shares": {"10"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "Bought 10 share(s) of X")
	assert.Contains(t, w.Body.String(), "$9,000.00")

	w = c.do(t, http.MethodGet, "/sell", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `<option value="X">X</option>`)

	a.prices["X"] = decimal.RequireFromString("120.00")
	w = c.do(t, http.MethodPost, "/sell", url.Values{"symbol": {"X"}, "shares": {"5"}})
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())
	assert.Equal(t, "/", w.Header().Get("Location"))

	w = c.do(t, http.MethodGet, "/buy", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "$9,600.00")

	w = c.do(t, http.MethodGet, "/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "BOUGHT")
	assert.Contains(t, body, "SOLD")
	assert.Contains(t, body, "$600.00")
	assert.NotContains(t, body, "-$600.00")

	w = c.do(t, http.MethodPost, "/sell", url.Values{"symbol": {"X"}, "shares": {"6"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "enough shares to sell")

	w = c.do(t, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "$9,600.00")

	w = c.do(t, http.MethodGet, "/logout", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	assert.Empty(t, c.session)

	w = c.do(t, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestSecureSessionCookies(t *testing.T) {
	for _, secure := range []bool{false, true} {
		a := newTestAppWith(t, secure)
		c := &client{app: a}
		w := c.do(t, http.MethodPost, "/register", url.Values{
			"username": {"alice"}, "password": {"pw"}, "confirmation": {"pw"},
		})
		require.Equal(t, http.StatusFound, w.Code)

		for _, step := range []struct {
			method, path string
			form         url.Values
		}{
			{http.MethodPost, "/login", url.Values{"username": {"alice"}, "password": {"pw"}}},
			{http.MethodGet, "/logout", nil},
			{http.MethodGet, "/login", nil},
		} {
			w = c.do(t, step.method, step.path, step.form)
			found := false
			for _, ck := range w.Result().Cookies() {
				if ck.Name == middleware.SessionCookie {
					found = true
					assert.Equal(t, secure, ck.Secure, step.path)
				}
			}
			assert.True(t, found, step.path)
		}
	}
}

func TestHistoryCacheIsInvalidatedByTrades(t *testing.T) {
	a := newTestApp(t)
	c := a.loggedIn(t, "alice")

	w := c.do(t, http.MethodGet, "/history", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "No transactions have been done")

	w = c.do(t, http.MethodPost, "/buy", url.Values{"symbol": {"X"}, "shares": {"1"}})
	require.Equal(t, http.StatusOK, w.Code)
	w = c.do(t, http.MethodGet, "/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, strings.Count(w.Body.String(), "BOUGHT"))

	w = c.do(t, http.MethodPost, "/buy", url.Values{"symbol": {"X"}, "shares": {"2"}})
	require.Equal(t, http.StatusOK, w.Code)
	w = c.do(t, http.MethodGet, "/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, strings.Count(w.Body.String(), "BOUGHT"))

	w = c.do(t, http.MethodGet, "/sell", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = c.do(t, http.MethodPost, "/sell", url.Values{"symbol": {"X"}, "shares": {"3"}})
	require.Equal(t, http.StatusFound, w.Code)
	w = c.do(t, http.MethodGet, "/sell", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), `<option value="X">`)
}

func TestApologies(t *testing.T) {
	a := newTestApp(t)
	a.prices["Y"] = decimal.RequireFromString("5.00")
	c := a.loggedIn(t, "alice")

	tests := []struct {
		name    string
		path    string
		form    url.Values
		message string
	}{
		{"buy without symbol", "/buy", url.Values{"shares": {"1"}}, "Must provide company ticker symbol"},
		{"buy without shares", "/buy", url.Values{"symbol": {"X"}}, "Must provide number of shares"},
		{"buy letters", "/buy", url.Values{"symbol": {"X"}, "shares": {"abc"}}, "Shares must be a positive integer"},
		{"buy negative", "/buy", url.Values{"symbol": {"X"}, "shares": {"-1"}}, "Shares must be a positive integer"},
		{"buy fraction", "/buy", url.Values{"symbol": {"X"}, "shares": {"1.5"}}, "Shares must be a positive integer"},
		{"buy zero", "/buy", url.Values{"symbol": {"X"}, "shares": {"0"}}, "Must provide a positive number of shares"},
		{"buy unknown", "/buy", url.Values{"symbol": {"NOPE"}, "shares": {"1"}}, "please enter a valid ticker symbol"},
		{"buy too much", "/buy", url.Values{"symbol": {"X"}, "shares": {"101"}}, "Insufficient balance"},
		{"sell without symbol", "/sell", url.Values{"shares": {"1"}}, "Must provide company ticker symbol"},
		{"sell fraction", "/sell", url.Values{"symbol": {"X"}, "shares": {"1.5"}}, "Shares must be an integer"},
		{"sell zero", "/sell", url.Values{"symbol": {"X"}, "shares": {"0"}}, "Shares must be a positive number"},
		{"sell not held", "/sell", url.Values{"symbol": {"Y"}, "shares": {"1"}}, "own any shares of Y"},
		{"quote without symbol", "/quote", url.Values{"symbol": {""}}, "Must provide company ticker symbol"},
		{"quote unknown", "/quote", url.Values{"symbol": {"NOPE"}}, "please enter a valid ticker symbol"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := c.do(t, http.MethodPost, tt.path, tt.form)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), tt.message)
		})
	}

	var count int64
	require.NoError(t, a.db.Model(&domain.Transaction{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRegisterAndLoginApologies(t *testing.T) {
	a := newTestApp(t)
	a.loggedIn(t, "alice")
	c := &client{app: a}

	tests := []struct {
		name    string
		path    string
		form    url.Values
		message string
	}{
		{"register empty", "/register", url.Values{"username": {"bob"}}, "All fields must be filled."},
		{"register mismatch", "/register", url.Values{"username": {"bob"}, "password": {"a"}, "confirmation": {"b"}}, "Passwords do not match."},
		{"register duplicate", "/register", url.Values{"username": {"alice"}, "password": {"a"}, "confirmation": {"a"}}, "try different username"},
		{"login without username", "/login", url.Values{"password": {"pw"}}, "must provide username"},
		{"login without password", "/login", url.Values{"username": {"alice"}}, "must provide password"},
		{"login wrong password", "/login", url.Values{"username": {"alice"}, "password": {"nope"}}, "invalid username and/or password"},
		{"login unknown user", "/login", url.Values{"username": {"bob"}, "password": {"pw"}}, "invalid username and/or password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := c.do(t, http.MethodPost, tt.path, tt.form)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), tt.message)
			assert.Empty(t, c.session)
		})
	}
}

func TestLoginClearsPreviousSession(t *testing.T) {
	a := newTestApp(t)
	c := a.loggedIn(t, "alice")

	w := c.do(t, http.MethodGet, "/login", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, c.session)

	w = c.do(t, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusFound, w.Code)
}

func TestBalanceUnavailableIsForbidden(t *testing.T) {
	a := newTestApp(t)
	c := a.loggedIn(t, "alice")
	require.NoError(t, a.db.Where("username = ?", "alice").Delete(&domain.User{}).Error)

	for _, path := range []string{"/", "/buy"} {
		w := c.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusForbidden, w.Code, path)
		assert.Contains(t, w.Body.String(), "Could not fetch cash balance", path)
	}
}

func TestStorageFailureIsInternalError(t *testing.T) {
	a := newTestApp(t)
	c := a.loggedIn(t, "alice")
	sqlDB, err := a.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	w := c.do(t, http.MethodGet, "/history", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Internal server error")
	assert.NotContains(t, w.Body.String(), "database is closed")
}

func TestNoCacheHeadersOnEveryResponse(t *testing.T) {
	a := newTestApp(t)
	c := &client{app: a}

	for _, path := range []string{"/login", "/register", "/", "/health"} {
		w := c.do(t, http.MethodGet, path, nil)
		assert.Equal(t, "no-cache, no-store, must-revalidate", w.Header().Get("Cache-Control"), path)
		assert.Equal(t, "no-cache", w.Header().Get("Pragma"), path)
		assert.Equal(t, "0", w.Header().Get("Expires"), path)
	}
}

func TestHealth(t *testing.T) {
	a := newTestApp(t)
	w := (&client{app: a}).do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())
}

func TestParseDigits(t *testing.T) {
	for in, want := range map[string]bool{"0": true, "42": true, "": false, "-1": false, "1e3": false, " 1": false, "99999999999999999999": false} {
		_, ok := parseDigits(in)
		assert.Equal(t, want, ok, in)
	}
}
