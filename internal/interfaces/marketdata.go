package interfaces

import (
	"context"

	"mtf-trading-bot/internal/types"
)

type MarketData interface {
	// FetchTimeframes returns the higher/middle/lower series for a trade type.
	// Roles the providers cannot supply are left nil.
	FetchTimeframes(ctx context.Context, ticker string, tradeType types.TradeType) (types.TimeframeSet, error)
}
