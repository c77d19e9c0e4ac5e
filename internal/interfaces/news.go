package interfaces

import (
	"context"

	"mtf-trading-bot/internal/types"
)

type NewsProvider interface {
	Summary(ctx context.Context, ticker string) (*types.NewsSummary, error)
}
