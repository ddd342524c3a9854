package ledger

import (
	"context"                           // Request scoped calls
	"fmt"                               // Error wrapping
	"sort"                              // Stable holding order
	"trading_simulator/internal/domain" // Importing domain models

	"github.com/shopspring/decimal" // Money values
	"github.com/sirupsen/logrus"    // Logrus for structured logging
)

// Holding aggregates a user's transactions on one symbol. Symbols whose
// position is closed have zero Shares, Price and Value.
type Holding struct {
	Symbol   string          `json:"symbol"`
	Shares   int64           `json:"shares"`    // net shares held
	AvgPrice decimal.Decimal `json:"avg_price"` // mean execution price over all rows
	NetTotal decimal.Decimal `json:"net_total"` // signed sum of total_price

	// Mark-to-market. When no quote could be obtained Stale is set and the
	// position is valued at AvgPrice.
	Price decimal.Decimal `json:"price"`
	Value decimal.Decimal `json:"value"`
	Stale bool            `json:"stale"`
}

// Summary is the portfolio view of a user.
type Summary struct {
	Holdings []Holding       `json:"holdings"`
	Cash     decimal.Decimal `json:"cash"`

	// BookTotal is cash plus the net amount ever spent on shares, positions
	// closed since included. It does not move with the market.
	BookTotal decimal.Decimal `json:"book_total"`

	// Total is cash plus the current market value of open positions.
	Total decimal.Decimal `json:"total"`
}

type aggregate struct {
	shares   int64
	rows     int64
	prices   decimal.Decimal
	netTotal decimal.Decimal
}

// Summary builds the portfolio view of userID.
func (e *Engine) Summary(ctx context.Context, userID uint) (*Summary, error) {
	db := e.db.WithContext(ctx)
	cash, err := readCash(db, userID)
	if err != nil {
		return nil, err
	}

	var rows []domain.Transaction
	if err := db.Where("user_id = ?", userID).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}

	bySymbol := make(map[string]*aggregate)
	for _, r := range rows {
		a, ok := bySymbol[r.Symbol]
		if !ok {
			a = &aggregate{}
			bySymbol[r.Symbol] = a
		}
		a.shares += r.Shares
		a.rows++
		a.prices = a.prices.Add(r.Price)
		a.netTotal = a.netTotal.Add(r.TotalPrice)
	}

	s := &Summary{
		Holdings:  make([]Holding, 0, len(bySymbol)),
		Cash:      cash,
		BookTotal: cash,
		Total:     cash,
	}
	for symbol, a := range bySymbol {
		h := Holding{
			Symbol:   symbol,
			Shares:   a.shares,
			AvgPrice: a.prices.Div(decimal.NewFromInt(a.rows)).Round(2),
			NetTotal: a.netTotal,
		}
		// Closed positions are listed so the rows add up to BookTotal; they have no market value
		if h.Shares > 0 {
			e.markToMarket(ctx, &h)
		}
		s.BookTotal = s.BookTotal.Add(h.NetTotal)
		s.Total = s.Total.Add(h.Value)
		s.Holdings = append(s.Holdings, h)
	}
	sort.Slice(s.Holdings, func(i, j int) bool { return s.Holdings[i].Symbol < s.Holdings[j].Symbol })
	return s, nil
}

func (e *Engine) markToMarket(ctx context.Context, h *Holding) {
	q, err := e.quotes.Lookup(ctx, h.Symbol)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"symbol": h.Symbol,
			"error":  err.Error(),
		}).Warn("No quote for holding, valuing at average price")
		h.Price = h.AvgPrice
		h.Stale = true
	} else {
		h.Price = q.Price.Round(2)
	}
	h.Value = h.Price.Mul(decimal.NewFromInt(h.Shares)).Round(2)
}
