package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// PoolState is a point-in-time snapshot of a V3 pool. Each read may be
// stale relative to the next transaction; callers re-read per request.
type PoolState struct {
	Address      common.Address
	Token0       common.Address
	Token1       common.Address
	Fee          uint32
	TickSpacing  int32
	SqrtPriceX96 *big.Int
	Tick         int32
	Liquidity    *big.Int
}
