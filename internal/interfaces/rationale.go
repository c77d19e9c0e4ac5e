package interfaces

import (
	"context"

	"mtf-trading-bot/internal/types"
)

// RationaleWriter produces short free text explaining a plan.
type RationaleWriter interface {
	WriteRationale(ctx context.Context, facts types.RationaleFacts) (string, error)
}
