// Package quote looks up current share prices.
package quote

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when the provider does not know the symbol.
var ErrNotFound = errors.New("quote: symbol not found")

// Quote is the current price of a share, as reported by a provider.
type Quote struct {
	Symbol string          `json:"symbol"` // canonical ticker
	Name   string          `json:"name"`
	Price  decimal.Decimal `json:"price"`
}

// Quoter maps a ticker symbol to its current quote.
type Quoter interface {
	Lookup(ctx context.Context, symbol string) (Quote, error)
}

// Normalize returns the canonical form of a user supplied ticker.
func Normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Fixed is a Quoter serving prices from a map. Keys are canonical symbols.
//
// It is meant for tests and for running the simulator offline.
type Fixed map[string]decimal.Decimal

// Lookup implements Quoter.
func (f Fixed) Lookup(ctx context.Context, symbol string) (Quote, error) {
	if err := ctx.Err(); err != nil {
		return Quote{}, err
	}
	sym := Normalize(symbol)
	price, ok := f[sym]
	if !ok {
		return Quote{}, ErrNotFound
	}
	return Quote{Symbol: sym, Name: sym, Price: price}, nil
}

// NewFixed builds a Fixed quoter from symbol to decimal price strings.
func NewFixed(prices map[string]string) (Fixed, error) {
	f := make(Fixed, len(prices))
	for symbol, p := range prices {
		price, err := decimal.NewFromString(strings.TrimSpace(p))
		if err != nil || !price.IsPositive() {
			return nil, fmt.Errorf("invalid price %q for %s", p, symbol)
		}
		f[Normalize(symbol)] = price
	}
	return f, nil
}
