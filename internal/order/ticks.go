package order

import (
	"fmt"
	"math"

	"github.com/daoleno/uniswapv3-sdk/utils"
	"github.com/shopspring/decimal"
)

// tickBase is the price ratio between two adjacent ticks.
const tickBase = 1.0001

// TickForPrice converts a human pool price (token1 per token0) into the
// nearest raw tick via the log-base-1.0001 relationship. Token decimals
// scale the human price into the raw on-chain ratio first.
func TickForPrice(price decimal.Decimal, decimals0, decimals1 uint8) (int, error) {
	if price.Sign() <= 0 {
		return 0, fmt.Errorf("price must be positive, got %s", price)
	}

	ratio := price.Shift(int32(decimals1) - int32(decimals0))
	ratioFloat, _ := ratio.Float64()
	if ratioFloat <= 0 || math.IsInf(ratioFloat, 0) {
		return 0, fmt.Errorf("price %s is out of representable range", price)
	}

	tick := int(math.Round(math.Log(ratioFloat) / math.Log(tickBase)))
	if tick < utils.MinTick || tick > utils.MaxTick {
		return 0, fmt.Errorf("price %s maps to tick %d outside [%d, %d]", price, tick, utils.MinTick, utils.MaxTick)
	}
	return tick, nil
}

// AlignTick rounds a raw tick to the nearest usable multiple of the pool's
// tick spacing, clamped to the valid tick domain.
func AlignTick(tick int, spacing int32) int32 {
	s := int(spacing)
	base := (tick / s) * s
	rem := tick % s
	if rem < 0 {
		rem += s
		base -= s
	}
	if 2*rem >= s {
		base += s
	}

	minAligned := (utils.MinTick / s) * s
	if minAligned < utils.MinTick {
		minAligned += s
	}
	maxAligned := (utils.MaxTick / s) * s
	if base < minAligned {
		base = minAligned
	}
	if base > maxAligned {
		base = maxAligned
	}
	return int32(base)
}

// ResolveRange places a one-spacing-wide range for a limit order. A token0
// order (zeroForOne) sits strictly above the current tick and fills as
// price rises through it; a token1 order sits at or below and fills as
// price falls. A target on the wrong side is rejected rather than minted
// into an immediately-filling position.
func ResolveRange(targetTick int, currentTick, spacing int32, zeroForOne bool) (int32, int32, error) {
	if spacing <= 0 {
		return 0, 0, fmt.Errorf("%w: tick spacing %d", ErrInvalidTickRange, spacing)
	}

	aligned := AlignTick(targetTick, spacing)

	if zeroForOne {
		tickLower := aligned
		if tickLower <= currentTick {
			return 0, 0, fmt.Errorf("%w: range lower bound %d not above current tick %d", ErrWrongSideOfPrice, tickLower, currentTick)
		}
		tickUpper := tickLower + spacing
		if int(tickUpper) > utils.MaxTick {
			return 0, 0, fmt.Errorf("%w: upper bound %d beyond max tick %d", ErrInvalidTickRange, tickUpper, utils.MaxTick)
		}
		return tickLower, tickUpper, nil
	}

	tickUpper := aligned
	if tickUpper > currentTick {
		return 0, 0, fmt.Errorf("%w: range upper bound %d not below current tick %d", ErrWrongSideOfPrice, tickUpper, currentTick)
	}
	tickLower := tickUpper - spacing
	if int(tickLower) < utils.MinTick {
		return 0, 0, fmt.Errorf("%w: lower bound %d beneath min tick %d", ErrInvalidTickRange, tickLower, utils.MinTick)
	}
	return tickLower, tickUpper, nil
}

// PriceOfTick converts a tick back to a human pool price (token1 per token0).
func PriceOfTick(tick int32, decimals0, decimals1 uint8) decimal.Decimal {
	raw := math.Pow(tickBase, float64(tick))
	return decimal.NewFromFloat(raw).Shift(int32(decimals0) - int32(decimals1))
}

// PriceMovePct estimates the percentage price move needed to go from one
// tick to another. Used to report how far an order sits from market.
func PriceMovePct(fromTick, toTick int32) float64 {
	return (math.Pow(tickBase, float64(toTick-fromTick)) - 1) * 100
}
