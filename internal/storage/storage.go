package storage

import (
	"context"

	"rangeTrader/internal/model"
)

// Journal defines a sink for order lifecycle events.
type Journal interface {
	Append(ctx context.Context, events []model.OrderEvent) error
}
