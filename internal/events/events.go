// Package events publishes notifications about committed trades.
package events

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// TradeExecuted is emitted once a buy or sell has been committed to the ledger.
type TradeExecuted struct {
	ID         string          `json:"id"`          // Unique event id
	UserID     uint            `json:"user_id"`     // Trading user, also the message key
	Symbol     string          `json:"symbol"`      // Canonical ticker
	Shares     int64           `json:"shares"`      // Signed like the ledger row
	Price      decimal.Decimal `json:"price"`       // Execution price
	TotalPrice decimal.Decimal `json:"total_price"` // Signed cash impact
	Balance    decimal.Decimal `json:"balance"`     // Cash after the trade
	Side       string          `json:"side"`        // BOUGHT or SOLD
	OccurredAt time.Time       `json:"occurred_at"` // Commit time
}

// Publisher delivers trade events.
type Publisher interface {
	Publish(ctx context.Context, event TradeExecuted) error
}

// Nop discards every event.
type Nop struct{}

// Publish implements Publisher
func (Nop) Publish(context.Context, TradeExecuted) error { return nil }
