package quote

import (
	"bytes"         // Response body buffering
	"context"       // Request scoped calls
	"encoding/json" // JSON encoding/decoding
	"fmt"           // Error wrapping
	"io"            // Body reads
	"net/http"      // HTTP client
	"net/url"       // Query escaping
	"strings"       // String manipulation
	"time"          // Lookup timeout

	"github.com/shopspring/decimal" // Money values
	"github.com/sirupsen/logrus"    // Logrus for structured logging
)

// DefaultExchange is appended to bare tickers, EODHD wants "SYMBOL.EXCHANGE".
const DefaultExchange = "US"

// Client queries the EODHD real-time API.
type Client struct {
	baseURL    string
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
}

// NewClient returns a Client rooted at baseURL (e.g. https://eodhd.com/api).
// Every lookup is bounded by timeout; a zero timeout means no bound.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		timeout:    timeout,
		httpClient: new(http.Client),
	}
}

// Lookup implements Quoter.
func (c *Client) Lookup(ctx context.Context, symbol string) (Quote, error) {
	// https://eodhd.com/api/real-time/AAPL.US?api_token=demo&fmt=json
	// {
	//   "code": "AAPL.US",
	//   "timestamp": 1697486400,
	//   "open": 176.75,
	//   "close": 178.72,
	//   ...
	// }
	// unknown tickers come back as 404, or with "NA" in place of the numbers.
	sym := Normalize(symbol)
	if sym == "" {
		return Quote{}, ErrNotFound
	}
	ticker := sym
	if !strings.Contains(ticker, ".") {
		ticker += "." + DefaultExchange
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	addr := fmt.Sprintf("%s/real-time/%s?fmt=json&api_token=%s", c.baseURL, url.PathEscape(ticker), url.QueryEscape(c.apiKey))

	var payload struct {
		Code  string          `json:"code"`
		Close json.RawMessage `json:"close"`
	}
	if err := c.jwget(ctx, addr, &payload); err != nil {
		return Quote{}, err
	}

	raw := strings.Trim(string(payload.Close), `"`)
	if raw == "" || raw == "NA" || raw == "null" {
		return Quote{}, ErrNotFound
	}
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return Quote{}, fmt.Errorf("quote: invalid price %q for %s: %w", raw, ticker, err)
	}
	if !price.IsPositive() {
		return Quote{}, ErrNotFound
	}
	return Quote{Symbol: sym, Name: payload.Code, Price: price}, nil
}

// jwget performs an HTTP GET request and unmarshals the JSON response into data.
func (c *Client) jwget(ctx context.Context, addr string, data interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	logrus.WithFields(logrus.Fields{
		"host":   resp.Request.URL.Host,
		"path":   resp.Request.URL.Path,
		"status": resp.StatusCode,
	}).Debug("quote lookup")

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cannot http GET %v%v: %v", resp.Request.URL.Host, resp.Request.URL.Path, resp.Status)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return err
	}
	return json.Unmarshal(buf.Bytes(), data)
}
