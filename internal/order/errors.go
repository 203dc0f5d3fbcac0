package order

import "errors"

// Failure taxonomy for the order flow. Callers match with errors.Is; revert
// details travel as *chain.RevertError and are matched with errors.As.
var (
	// ErrNoPool means the factory has no pool for the pair and fee tier.
	// Terminal for the request, not transient.
	ErrNoPool = errors.New("no pool for pair and fee tier")

	// ErrUnknownToken means the given token is not one of the pool's pair.
	ErrUnknownToken = errors.New("token is not part of the pool")

	// ErrWrongSideOfPrice means the target price would place the range on
	// the wrong side of the current pool price for the order direction,
	// which would fill immediately on mint.
	ErrWrongSideOfPrice = errors.New("target price is on the wrong side of the current pool price")

	// ErrInvalidTickRange covers misordered bounds, ticks off the spacing
	// grid, and ranges that straddle the current price for a one-sided order.
	ErrInvalidTickRange = errors.New("invalid tick range")

	// ErrZeroLiquidity means the input amount is too small to back any
	// liquidity at the resolved range.
	ErrZeroLiquidity = errors.New("computed liquidity is zero")

	// ErrInsufficientBalance means the wallet holds less of the input token
	// than the mint would pull. Caught before any transaction is sent.
	ErrInsufficientBalance = errors.New("wallet balance below required amount")

	// ErrMintEventMissing means the mint transaction succeeded on-chain but
	// the position id could not be recovered from the receipt. Funds moved;
	// tracking failed. Distinct from a revert.
	ErrMintEventMissing = errors.New("mint succeeded but position id was not found in receipt")

	// ErrInvalidPercentage guards decreaseLiquidity's 1-100 percent input.
	ErrInvalidPercentage = errors.New("percentage must be between 1 and 100")

	// ErrRejectedByUser is returned by interactive signers when the wallet
	// owner declines to sign. The key-based signer never produces it.
	ErrRejectedByUser = errors.New("transaction rejected by user")
)
