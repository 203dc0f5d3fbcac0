package order

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"rangeTrader/internal/dex"
	"rangeTrader/internal/model"
)

// BookEntry pairs an on-chain position snapshot with the direction journaled
// at placement time, when the journal has one.
type BookEntry struct {
	Snapshot model.PositionSnapshot
	Side     model.OrderSide
	Status   model.OrderStatus
}

// EventLoader reads back journaled events for a wallet. The Postgres store
// satisfies it; the JSONL journal is append-only and does not.
type EventLoader interface {
	LoadEvents(ctx context.Context, wallet string) ([]model.OrderEvent, error)
}

// ListPositions enumerates every position the owner holds via the position
// manager and snapshots each one against its pool's current tick. A position
// that fails to load is skipped with a warning so one bad token id cannot
// hide the rest of the book.
func (s *Service) ListPositions(ctx context.Context, owner common.Address) ([]model.PositionSnapshot, error) {
	count, err := dex.PositionCount(ctx, s.caller, s.cfg.PositionManager, owner)
	if err != nil {
		return nil, fmt.Errorf("position count for %s: %w", owner.Hex(), err)
	}

	poolStates := make(map[common.Address]model.PoolState)
	snapshots := make([]model.PositionSnapshot, 0, count.Int64())

	for i := int64(0); i < count.Int64(); i++ {
		tokenID, err := dex.PositionIDByIndex(ctx, s.caller, s.cfg.PositionManager, owner, big.NewInt(i))
		if err != nil {
			s.logger.Warn("skip position index", zap.Int64("index", i), zap.Error(err))
			continue
		}

		pos, err := dex.FetchPosition(ctx, s.caller, s.cfg.PositionManager, tokenID)
		if err != nil {
			s.logger.Warn("skip position", zap.String("order_id", tokenID.String()), zap.Error(err))
			continue
		}

		pool, found, err := dex.ResolvePool(ctx, s.caller, s.cfg.Factory, pos.Token0, pos.Token1, pos.Fee)
		if err != nil || !found {
			s.logger.Warn("skip position without pool", zap.String("order_id", tokenID.String()), zap.Error(err))
			continue
		}

		state, ok := poolStates[pool]
		if !ok {
			state, err = dex.FetchPoolState(ctx, s.caller, pool)
			if err != nil {
				s.logger.Warn("skip position, pool state unavailable",
					zap.String("order_id", tokenID.String()),
					zap.String("pool", pool.Hex()),
					zap.Error(err),
				)
				continue
			}
			poolStates[pool] = state
		}

		snapshots = append(snapshots, model.PositionSnapshot{
			OrderID:     tokenID,
			Pool:        pool,
			Token0:      pos.Token0,
			Token1:      pos.Token1,
			Fee:         pos.Fee,
			TickLower:   pos.TickLower,
			TickUpper:   pos.TickUpper,
			Liquidity:   pos.Liquidity,
			TokensOwed0: pos.TokensOwed0,
			TokensOwed1: pos.TokensOwed1,
			CurrentTick: state.Tick,
			RangeSide:   classifyRange(state.Tick, pos.TickLower, pos.TickUpper),
		})
	}

	return snapshots, nil
}

// OrderBook joins on-chain snapshots with journaled placement events to
// recover each order's side and fill status. Positions with no journal
// entry are still listed, with an empty side and range-only status.
func (s *Service) OrderBook(ctx context.Context, owner common.Address, loader EventLoader) ([]BookEntry, error) {
	snapshots, err := s.ListPositions(ctx, owner)
	if err != nil {
		return nil, err
	}

	type placement struct {
		side       model.OrderSide
		zeroForOne bool
		known      bool
	}
	placements := make(map[string]placement)
	if loader != nil {
		events, err := loader.LoadEvents(ctx, owner.Hex())
		if err != nil {
			s.logger.Warn("journal unavailable, sides unknown", zap.Error(err))
		} else {
			for _, event := range events {
				if event.Kind == model.EventPlaced {
					placements[event.OrderID] = placement{side: event.Side, zeroForOne: event.ZeroForOne, known: true}
				}
			}
		}
	}

	entries := make([]BookEntry, 0, len(snapshots))
	for _, snap := range snapshots {
		entry := BookEntry{Snapshot: snap}
		if p, ok := placements[snap.OrderID.String()]; ok && p.known {
			entry.Side = p.side
			entry.Status = InferStatus(snap, p.zeroForOne)
		} else {
			entry.Status = statusFromRange(snap)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// InferStatus derives an order's fill status from where the current tick sits
// relative to its range, given the direction the order was entered with.
func InferStatus(snap model.PositionSnapshot, zeroForOne bool) model.OrderStatus {
	if snap.Liquidity == nil || snap.Liquidity.Sign() == 0 {
		return model.StatusClosed
	}
	if zeroForOne {
		// Token0 converts to token1 as price rises through the range.
		if snap.CurrentTick >= snap.TickUpper {
			return model.StatusFilled
		}
		if snap.CurrentTick >= snap.TickLower {
			return model.StatusPartial
		}
		return model.StatusPending
	}
	if snap.CurrentTick < snap.TickLower {
		return model.StatusFilled
	}
	if snap.CurrentTick < snap.TickUpper {
		return model.StatusPartial
	}
	return model.StatusPending
}

// statusFromRange is the fallback when the entry direction is unknown: only
// closed and in-range states can be stated with certainty.
func statusFromRange(snap model.PositionSnapshot) model.OrderStatus {
	if snap.Liquidity == nil || snap.Liquidity.Sign() == 0 {
		return model.StatusClosed
	}
	if snap.RangeSide == model.RangeInPrice {
		return model.StatusPartial
	}
	return model.StatusPending
}

func classifyRange(currentTick, tickLower, tickUpper int32) model.RangeSide {
	switch {
	case currentTick < tickLower:
		return model.RangeAbovePrice
	case currentTick >= tickUpper:
		return model.RangeBelowPrice
	default:
		return model.RangeInPrice
	}
}
