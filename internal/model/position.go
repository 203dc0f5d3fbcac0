package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// RangeSide locates a position's range relative to the current pool tick.
type RangeSide string

const (
	RangeBelowPrice RangeSide = "below_price"
	RangeInPrice    RangeSide = "in_price"
	RangeAbovePrice RangeSide = "above_price"
)

// PositionSnapshot is one owned position-NFT read back from chain,
// rendered as a pending order by the order book view.
type PositionSnapshot struct {
	OrderID     *big.Int
	Pool        common.Address
	Token0      common.Address
	Token1      common.Address
	Fee         uint32
	TickLower   int32
	TickUpper   int32
	Liquidity   *big.Int
	TokensOwed0 *big.Int
	TokensOwed1 *big.Int
	CurrentTick int32
	RangeSide   RangeSide
}
