package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTradeExecutedJSON(t *testing.T) {
	at := time.Date(2024, 3, 1, 15, 4, 5, 0, time.UTC)
	ev := TradeExecuted{
		ID:         "e1",
		UserID:     3,
		Symbol:     "X",
		Shares:     -5,
		Price:      decimal.RequireFromString("120.00"),
		TotalPrice: decimal.RequireFromString("-600.00"),
		Balance:    decimal.RequireFromString("9600.00"),
		Side:       "SOLD",
		OccurredAt: at,
	}
	b, err := json.Marshal(ev)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(b, &fields))
	assert.Equal(t, "X", fields["symbol"])
	assert.Equal(t, float64(-5), fields["shares"])
	total, ok := fields["total_price"].(string)
	require.True(t, ok, "decimals are encoded as strings")
	assert.True(t, decimal.RequireFromString("-600").Equal(decimal.RequireFromString(total)))
	assert.Equal(t, "SOLD", fields["side"])
	assert.Equal(t, "2024-03-01T15:04:05Z", fields["occurred_at"])
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	assert.NoError(t, p.Publish(context.Background(), TradeExecuted{}))
}
