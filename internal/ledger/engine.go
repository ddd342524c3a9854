// Package ledger records simulated trades and keeps each user's cash balance
// consistent with the append-only transactions table.
//
// Every mutation reads the balance, validates, updates users.cash and appends
// the transaction row inside one database transaction, while holding a
// per-user lock so that two requests of the same user cannot interleave.
package ledger

import (
	"context"                           // Request scoped calls
	"errors"                            // Error matching
	"fmt"                               // Error wrapping
	"sync"                              // Per-user locks
	"time"                              // Timestamps
	"trading_simulator/internal/domain" // Importing domain models
	"trading_simulator/internal/events" // Trade events
	"trading_simulator/internal/quote"  // Quote providers

	"github.com/google/uuid"        // Event ids
	"github.com/shopspring/decimal" // Money values
	"github.com/sirupsen/logrus"    // Logrus for structured logging
	"gorm.io/gorm"                  // GORM ORM library
)

// Engine validates and records buy and sell orders.
type Engine struct {
	db     *gorm.DB
	quotes quote.Quoter
	events events.Publisher
	now    func() time.Time

	muMap map[uint]*userMutex // one lock per user with a trade in flight
	mapMu sync.Mutex          // protects muMap
}

// NewEngine returns an Engine storing trades in db and pricing them with quotes.
// A nil publisher disables trade events.
func NewEngine(db *gorm.DB, quotes quote.Quoter, publisher events.Publisher) *Engine {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Engine{
		db:     db,
		quotes: quotes,
		events: publisher,
		now:    time.Now,
		muMap:  make(map[uint]*userMutex),
	}
}

// Receipt describes an executed trade.
type Receipt struct {
	Symbol     string          `json:"symbol"`
	Name       string          `json:"name"`
	Shares     int64           `json:"shares"` // requested amount, always positive
	Price      decimal.Decimal `json:"price"`
	TotalPrice decimal.Decimal `json:"total_price"` // signed as stored in the ledger
	Balance    decimal.Decimal `json:"balance"`
	Side       domain.Side     `json:"side"`
}

type userMutex struct {
	sync.Mutex
	refs int // holders and waiters
}

// lockUser serializes the trades of userID and returns the matching unlock.
// The entry is dropped once nobody holds or waits for it, so the map only
// grows with concurrent traders.
func (e *Engine) lockUser(userID uint) (unlock func()) {
	e.mapMu.Lock()
	mu, exists := e.muMap[userID]
	if !exists {
		mu = &userMutex{}
		e.muMap[userID] = mu
	}
	mu.refs++
	e.mapMu.Unlock()

	mu.Lock()
	return func() {
		mu.Unlock()
		e.mapMu.Lock()
		defer e.mapMu.Unlock()
		if mu.refs--; mu.refs == 0 {
			delete(e.muMap, userID)
		}
	}
}

// Lookup returns the current quote of symbol without touching the ledger.
func (e *Engine) Lookup(ctx context.Context, symbol string) (quote.Quote, error) {
	sym := quote.Normalize(symbol)
	if sym == "" {
		return quote.Quote{}, domain.NewError(domain.ErrValidation, "Must provide company ticker symbol")
	}
	q, err := e.quotes.Lookup(ctx, sym)
	if errors.Is(err, quote.ErrNotFound) {
		return quote.Quote{}, domain.NewError(domain.ErrQuoteUnavailable, "Ticker doesn't exist, please enter a valid ticker symbol")
	}
	if err != nil {
		return quote.Quote{}, domain.WrapError(domain.ErrQuoteUnavailable, "Quote service unavailable, try again later", err)
	}
	// Trades are priced in whole cents
	if !q.Price.Round(2).IsPositive() {
		return quote.Quote{}, domain.NewError(domain.ErrQuoteUnavailable, "No tradable price for "+sym)
	}
	if q.Symbol == "" {
		q.Symbol = sym
	}
	return q, nil
}

func validateOrder(symbol string, shares int64) error {
	if quote.Normalize(symbol) == "" {
		return domain.NewError(domain.ErrValidation, "Must provide company ticker symbol")
	}
	if shares <= 0 {
		return domain.NewError(domain.ErrValidation, "Must provide a positive number of shares")
	}
	return nil
}

// Buy purchases shares of symbol for userID at the current price.
func (e *Engine) Buy(ctx context.Context, userID uint, symbol string, shares int64) (*Receipt, error) {
	if err := validateOrder(symbol, shares); err != nil {
		return nil, err
	}
	q, err := e.Lookup(ctx, symbol)
	if err != nil {
		return nil, err
	}
	price := q.Price.Round(2)
	total := price.Mul(decimal.NewFromInt(shares)).Round(2)

	unlock := e.lockUser(userID)
	defer unlock()

	var receipt *Receipt
	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cash, err := readCash(tx, userID)
		if err != nil {
			return err
		}
		balance := cash.Sub(total)
		if balance.IsNegative() {
			return domain.NewError(domain.ErrInsufficientFunds, "Insufficient balance")
		}
		row := domain.Transaction{
			UserID:     userID,
			Symbol:     q.Symbol,
			Shares:     shares,
			Price:      price,
			TotalPrice: total,
			Balance:    balance,
			Datetime:   e.now().UTC(),
			SoldBought: domain.Bought,
		}
		if err := record(tx, &row); err != nil {
			return err
		}
		receipt = newReceipt(q, row)
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.publish(ctx, userID, receipt)
	return receipt, nil
}

// Sell sells shares of symbol held by userID at the current price.
func (e *Engine) Sell(ctx context.Context, userID uint, symbol string, shares int64) (*Receipt, error) {
	if err := validateOrder(symbol, shares); err != nil {
		return nil, err
	}
	q, err := e.Lookup(ctx, symbol)
	if err != nil {
		return nil, err
	}
	price := q.Price.Round(2)
	total := price.Mul(decimal.NewFromInt(-shares)).Round(2)

	unlock := e.lockUser(userID)
	defer unlock()

	var receipt *Receipt
	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		held, err := sharesHeld(tx, userID, q.Symbol)
		if err != nil {
			return err
		}
		if held <= 0 {
			return domain.NewError(domain.ErrInsufficientHoldings, "You don't own any shares of "+q.Symbol)
		}
		if held < shares {
			return domain.NewError(domain.ErrInsufficientHoldings, "You don't have enough shares to sell")
		}
		cash, err := readCash(tx, userID)
		if err != nil {
			return err
		}
		row := domain.Transaction{
			UserID:     userID,
			Symbol:     q.Symbol,
			Shares:     -shares,
			Price:      price,
			TotalPrice: total,
			Balance:    cash.Sub(total),
			Datetime:   e.now().UTC(),
			SoldBought: domain.Sold,
		}
		if err := record(tx, &row); err != nil {
			return err
		}
		receipt = newReceipt(q, row)
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.publish(ctx, userID, receipt)
	return receipt, nil
}

// Shares returns the net number of shares of symbol held by userID.
// It is the figure Sell validates against.
func (e *Engine) Shares(ctx context.Context, userID uint, symbol string) (int64, error) {
	return sharesHeld(e.db.WithContext(ctx), userID, quote.Normalize(symbol))
}

// Holdings returns the symbols userID currently holds a positive number of shares of.
func (e *Engine) Holdings(ctx context.Context, userID uint) ([]string, error) {
	symbols := make([]string, 0)
	err := e.db.WithContext(ctx).
		Model(&domain.Transaction{}).
		Where("user_id = ?", userID).
		Group("symbol").
		Having("SUM(shares) > 0").
		Order("symbol").
		Pluck("symbol", &symbols).Error
	if err != nil {
		return nil, fmt.Errorf("list holdings: %w", err)
	}
	return symbols, nil
}

// Cash returns the current cash balance of userID.
func (e *Engine) Cash(ctx context.Context, userID uint) (decimal.Decimal, error) {
	return readCash(e.db.WithContext(ctx), userID)
}

// HistoryEntry is a transaction as displayed to its owner: magnitudes only,
// the direction is carried by Side.
type HistoryEntry struct {
	Symbol     string          `json:"symbol"`
	Shares     int64           `json:"shares"`
	Price      decimal.Decimal `json:"price"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Datetime   time.Time       `json:"datetime"`
	Side       domain.Side     `json:"side"`
}

// History returns the transactions of userID in the order they were recorded.
func (e *Engine) History(ctx context.Context, userID uint) ([]HistoryEntry, error) {
	var rows []domain.Transaction
	if err := e.db.WithContext(ctx).Where("user_id = ?", userID).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	if len(rows) == 0 {
		return nil, domain.NewError(domain.ErrNoHistory, "No transactions have been done")
	}
	out := make([]HistoryEntry, len(rows))
	for i, r := range rows {
		shares := r.Shares
		if shares < 0 {
			shares = -shares
		}
		out[i] = HistoryEntry{
			Symbol:     r.Symbol,
			Shares:     shares,
			Price:      r.Price,
			TotalPrice: r.TotalPrice.Abs(),
			Datetime:   r.Datetime,
			Side:       r.SoldBought,
		}
	}
	return out, nil
}

func readCash(tx *gorm.DB, userID uint) (decimal.Decimal, error) {
	var user domain.User
	if err := tx.Select("id", "cash").First(&user, userID).Error; err != nil {
		return decimal.Zero, domain.WrapError(domain.ErrBalanceUnavailable, "Could not fetch cash balance", err)
	}
	return user.Cash.Round(2), nil
}

func sharesHeld(tx *gorm.DB, userID uint, symbol string) (int64, error) {
	var shares []int64
	err := tx.Model(&domain.Transaction{}).
		Where("user_id = ? AND symbol = ?", userID, symbol).
		Pluck("shares", &shares).Error
	if err != nil {
		return 0, fmt.Errorf("load holdings of %s: %w", symbol, err)
	}
	var held int64
	for _, s := range shares {
		held += s
	}
	return held, nil
}

// record updates the owner's cash to the row's balance snapshot and appends the row.
// It must run inside the caller's transaction.
func record(tx *gorm.DB, row *domain.Transaction) error {
	if err := tx.Model(&domain.User{}).Where("id = ?", row.UserID).Update("cash", row.Balance).Error; err != nil {
		return fmt.Errorf("update cash: %w", err)
	}
	if err := tx.Create(row).Error; err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func newReceipt(q quote.Quote, row domain.Transaction) *Receipt {
	shares := row.Shares
	if shares < 0 {
		shares = -shares
	}
	return &Receipt{
		Symbol:     row.Symbol,
		Name:       q.Name,
		Shares:     shares,
		Price:      row.Price,
		TotalPrice: row.TotalPrice,
		Balance:    row.Balance,
		Side:       row.SoldBought,
	}
}

// publish emits a TradeExecuted event. The trade is already committed, so a
// delivery failure is only logged.
func (e *Engine) publish(ctx context.Context, userID uint, r *Receipt) {
	shares := r.Shares
	if r.Side == domain.Sold {
		shares = -shares
	}
	ev := events.TradeExecuted{
		ID:         uuid.NewString(),
		UserID:     userID,
		Symbol:     r.Symbol,
		Shares:     shares,
		Price:      r.Price,
		TotalPrice: r.TotalPrice,
		Balance:    r.Balance,
		Side:       r.Side.String(),
		OccurredAt: e.now().UTC(),
	}
	if err := e.events.Publish(ctx, ev); err != nil {
		logrus.WithFields(logrus.Fields{
			"user_id": userID,
			"symbol":  r.Symbol,
			"side":    r.Side,
			"error":   err.Error(),
		}).Warn("Trade event not published")
	}
}
