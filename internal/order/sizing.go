package order

import (
	"fmt"
	"math/big"

	"github.com/daoleno/uniswapv3-sdk/utils"

	"rangeTrader/internal/model"
)

const slippageDenominatorBps = 10000

// Sizing is the exact funding requirement for minting a position: the
// liquidity the desired amounts can back and the amounts the mint call
// will pull (rounded up so the mint is never under-funded).
type Sizing struct {
	Liquidity *big.Int
	Amount0   *big.Int
	Amount1   *big.Int
}

// ComputeMintAmounts sizes a position at the given range against the pool
// snapshot. For a one-sided desired input the range must lie strictly out
// of range on the matching side; a straddling range is a resolver defect
// and is rejected here rather than patched.
func ComputeMintAmounts(state model.PoolState, tickLower, tickUpper int32, amount0Desired, amount1Desired *big.Int) (Sizing, error) {
	if err := validateRange(state, tickLower, tickUpper); err != nil {
		return Sizing{}, err
	}
	if amount0Desired == nil {
		amount0Desired = big.NewInt(0)
	}
	if amount1Desired == nil {
		amount1Desired = big.NewInt(0)
	}

	sqrtLower, err := utils.GetSqrtRatioAtTick(int(tickLower))
	if err != nil {
		return Sizing{}, fmt.Errorf("sqrt ratio at tick %d: %w", tickLower, err)
	}
	sqrtUpper, err := utils.GetSqrtRatioAtTick(int(tickUpper))
	if err != nil {
		return Sizing{}, fmt.Errorf("sqrt ratio at tick %d: %w", tickUpper, err)
	}

	oneSided := amount0Desired.Sign() == 0 || amount1Desired.Sign() == 0
	aboveRange := state.Tick < tickLower
	belowRange := state.Tick >= tickUpper
	if oneSided && !aboveRange && !belowRange {
		return Sizing{}, fmt.Errorf("%w: range [%d, %d] straddles current tick %d", ErrInvalidTickRange, tickLower, tickUpper, state.Tick)
	}

	liquidity := utils.MaxLiquidityForAmounts(state.SqrtPriceX96, sqrtLower, sqrtUpper, amount0Desired, amount1Desired, true)
	if liquidity == nil || liquidity.Sign() == 0 {
		return Sizing{}, fmt.Errorf("%w: amounts %s/%s at range [%d, %d]", ErrZeroLiquidity, amount0Desired, amount1Desired, tickLower, tickUpper)
	}

	sizing := Sizing{Liquidity: liquidity, Amount0: big.NewInt(0), Amount1: big.NewInt(0)}
	switch {
	case aboveRange:
		sizing.Amount0 = utils.GetAmount0Delta(sqrtLower, sqrtUpper, liquidity, true)
	case belowRange:
		sizing.Amount1 = utils.GetAmount1Delta(sqrtLower, sqrtUpper, liquidity, true)
	default:
		sizing.Amount0 = utils.GetAmount0Delta(state.SqrtPriceX96, sqrtUpper, liquidity, true)
		sizing.Amount1 = utils.GetAmount1Delta(sqrtLower, state.SqrtPriceX96, liquidity, true)
	}

	if (aboveRange || belowRange) && sizing.Amount0.Sign() != 0 && sizing.Amount1.Sign() != 0 {
		return Sizing{}, fmt.Errorf("%w: out-of-range position requires both tokens", ErrInvalidTickRange)
	}

	return sizing, nil
}

// ComputeBurnAmounts estimates the amounts returned when removing liquidity
// at the current pool price, rounded down as the contract does on burn.
func ComputeBurnAmounts(state model.PoolState, tickLower, tickUpper int32, liquidity *big.Int) (*big.Int, *big.Int, error) {
	if err := validateRange(state, tickLower, tickUpper); err != nil {
		return nil, nil, err
	}
	if liquidity == nil || liquidity.Sign() <= 0 {
		return nil, nil, fmt.Errorf("%w: nothing to remove", ErrZeroLiquidity)
	}

	sqrtLower, err := utils.GetSqrtRatioAtTick(int(tickLower))
	if err != nil {
		return nil, nil, fmt.Errorf("sqrt ratio at tick %d: %w", tickLower, err)
	}
	sqrtUpper, err := utils.GetSqrtRatioAtTick(int(tickUpper))
	if err != nil {
		return nil, nil, fmt.Errorf("sqrt ratio at tick %d: %w", tickUpper, err)
	}

	amount0 := big.NewInt(0)
	amount1 := big.NewInt(0)
	switch {
	case state.Tick < tickLower:
		amount0 = utils.GetAmount0Delta(sqrtLower, sqrtUpper, liquidity, false)
	case state.Tick >= tickUpper:
		amount1 = utils.GetAmount1Delta(sqrtLower, sqrtUpper, liquidity, false)
	default:
		amount0 = utils.GetAmount0Delta(state.SqrtPriceX96, sqrtUpper, liquidity, false)
		amount1 = utils.GetAmount1Delta(sqrtLower, state.SqrtPriceX96, liquidity, false)
	}

	return amount0, amount1, nil
}

// ApplySlippage scales an amount down by the slippage tolerance in basis
// points, producing the on-chain minimum.
func ApplySlippage(amount *big.Int, slippageBps uint32) *big.Int {
	if amount == nil || amount.Sign() <= 0 {
		return big.NewInt(0)
	}
	if slippageBps >= slippageDenominatorBps {
		return big.NewInt(0)
	}
	scaled := new(big.Int).Mul(amount, big.NewInt(int64(slippageDenominatorBps-slippageBps)))
	return scaled.Div(scaled, big.NewInt(slippageDenominatorBps))
}

func validateRange(state model.PoolState, tickLower, tickUpper int32) error {
	if tickLower >= tickUpper {
		return fmt.Errorf("%w: lower %d must be below upper %d", ErrInvalidTickRange, tickLower, tickUpper)
	}
	if state.TickSpacing <= 0 {
		return fmt.Errorf("%w: tick spacing %d", ErrInvalidTickRange, state.TickSpacing)
	}
	if tickLower%state.TickSpacing != 0 || tickUpper%state.TickSpacing != 0 {
		return fmt.Errorf("%w: ticks [%d, %d] are not multiples of spacing %d", ErrInvalidTickRange, tickLower, tickUpper, state.TickSpacing)
	}
	if state.SqrtPriceX96 == nil || state.SqrtPriceX96.Sign() <= 0 {
		return fmt.Errorf("%w: pool price is unset", ErrInvalidTickRange)
	}
	return nil
}
