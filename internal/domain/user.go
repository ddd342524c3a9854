package domain

import "github.com/shopspring/decimal"

// User Model
type User struct {
	ID       uint            `gorm:"primaryKey"`                                // Primary key
	Username string          `gorm:"uniqueIndex;size:64;not null"`              // Unique username
	Hash     string          `gorm:"column:hash;not null" json:"-"`             // bcrypt hash, never the raw password
	Cash     decimal.Decimal `gorm:"type:decimal(20,2);not null;default:10000"` // Cash balance, mutated only by the ledger
}
