package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side tags a transaction row as a purchase or a sale.
type Side string

const (
	Bought Side = "BOUGHT"
	Sold   Side = "SOLD"
)

func (s Side) String() string { return string(s) }

// Transaction Model. Rows are append-only: once written they are never updated.
type Transaction struct {
	ID         uint            `gorm:"primaryKey"`                                        // Primary key
	UserID     uint            `gorm:"not null;index:idx_user_symbol,priority:1"`         // Owner
	Symbol     string          `gorm:"size:16;not null;index:idx_user_symbol,priority:2"` // Canonical ticker
	Shares     int64           `gorm:"not null"`                                          // Signed: positive buys, negative sells
	Price      decimal.Decimal `gorm:"type:decimal(20,2);not null"`                       // Price per share at execution
	TotalPrice decimal.Decimal `gorm:"type:decimal(20,2);not null"`                       // Shares * Price, signed like Shares
	Balance    decimal.Decimal `gorm:"type:decimal(20,2);not null"`                       // Cash snapshot right after this trade
	Datetime   time.Time       `gorm:"column:datetime;not null"`                          // Execution time
	SoldBought Side            `gorm:"column:sold_bought;size:6;not null"`                // BOUGHT or SOLD
}
