package dex

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// MaxUint128 is the cap used to collect everything owed to a position.
var MaxUint128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

// Position mirrors the fields of positions(tokenId) that the order flow needs.
type Position struct {
	Token0      common.Address
	Token1      common.Address
	Fee         uint32
	TickLower   int32
	TickUpper   int32
	Liquidity   *big.Int
	TokensOwed0 *big.Int
	TokensOwed1 *big.Int
}

// MintParams mirrors INonfungiblePositionManager.MintParams.
type MintParams struct {
	Token0         common.Address
	Token1         common.Address
	Fee            *big.Int
	TickLower      *big.Int
	TickUpper      *big.Int
	Amount0Desired *big.Int
	Amount1Desired *big.Int
	Amount0Min     *big.Int
	Amount1Min     *big.Int
	Recipient      common.Address
	Deadline       *big.Int
}

// IncreaseParams mirrors INonfungiblePositionManager.IncreaseLiquidityParams.
type IncreaseParams struct {
	TokenId        *big.Int
	Amount0Desired *big.Int
	Amount1Desired *big.Int
	Amount0Min     *big.Int
	Amount1Min     *big.Int
	Deadline       *big.Int
}

// DecreaseParams mirrors INonfungiblePositionManager.DecreaseLiquidityParams.
type DecreaseParams struct {
	TokenId    *big.Int
	Liquidity  *big.Int
	Amount0Min *big.Int
	Amount1Min *big.Int
	Deadline   *big.Int
}

// CollectParams mirrors INonfungiblePositionManager.CollectParams.
type CollectParams struct {
	TokenId    *big.Int
	Recipient  common.Address
	Amount0Max *big.Int
	Amount1Max *big.Int
}

// PackMint encodes a mint call.
func PackMint(params MintParams) ([]byte, error) {
	return packManagerCall("mint", params)
}

// PackIncreaseLiquidity encodes an increaseLiquidity call.
func PackIncreaseLiquidity(params IncreaseParams) ([]byte, error) {
	return packManagerCall("increaseLiquidity", params)
}

// PackDecreaseLiquidity encodes a decreaseLiquidity call.
func PackDecreaseLiquidity(params DecreaseParams) ([]byte, error) {
	return packManagerCall("decreaseLiquidity", params)
}

// PackCollect encodes a collect call.
func PackCollect(params CollectParams) ([]byte, error) {
	return packManagerCall("collect", params)
}

func packManagerCall(method string, params interface{}) ([]byte, error) {
	managerABI, err := PositionManagerABI()
	if err != nil {
		return nil, fmt.Errorf("parse position manager abi: %w", err)
	}
	data, err := managerABI.Pack(method, params)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	return data, nil
}

// FetchPosition reads a position's immutable and mutable fields by token id.
func FetchPosition(ctx context.Context, caller Caller, manager common.Address, tokenID *big.Int) (Position, error) {
	managerABI, err := PositionManagerABI()
	if err != nil {
		return Position{}, fmt.Errorf("parse position manager abi: %w", err)
	}

	values, err := callMethod(ctx, caller, manager, managerABI, "positions", tokenID)
	if err != nil {
		return Position{}, err
	}
	if len(values) != 12 {
		return Position{}, fmt.Errorf("positions: unexpected output arity %d", len(values))
	}

	pos := Position{}
	if pos.Token0, err = asAddress(values[2]); err != nil {
		return Position{}, fmt.Errorf("positions token0: %w", err)
	}
	if pos.Token1, err = asAddress(values[3]); err != nil {
		return Position{}, fmt.Errorf("positions token1: %w", err)
	}
	feeInt, err := asBigInt(values[4])
	if err != nil {
		return Position{}, fmt.Errorf("positions fee: %w", err)
	}
	pos.Fee = uint32(feeInt.Uint64())

	lowerInt, err := asBigInt(values[5])
	if err != nil {
		return Position{}, fmt.Errorf("positions tickLower: %w", err)
	}
	if pos.TickLower, err = int24FromBig(lowerInt); err != nil {
		return Position{}, fmt.Errorf("positions tickLower: %w", err)
	}
	upperInt, err := asBigInt(values[6])
	if err != nil {
		return Position{}, fmt.Errorf("positions tickUpper: %w", err)
	}
	if pos.TickUpper, err = int24FromBig(upperInt); err != nil {
		return Position{}, fmt.Errorf("positions tickUpper: %w", err)
	}

	if pos.Liquidity, err = asBigInt(values[7]); err != nil {
		return Position{}, fmt.Errorf("positions liquidity: %w", err)
	}
	if pos.TokensOwed0, err = asBigInt(values[10]); err != nil {
		return Position{}, fmt.Errorf("positions tokensOwed0: %w", err)
	}
	if pos.TokensOwed1, err = asBigInt(values[11]); err != nil {
		return Position{}, fmt.Errorf("positions tokensOwed1: %w", err)
	}

	return pos, nil
}

// PositionCount returns how many position-NFTs an owner holds.
func PositionCount(ctx context.Context, caller Caller, manager, owner common.Address) (*big.Int, error) {
	managerABI, err := PositionManagerABI()
	if err != nil {
		return nil, fmt.Errorf("parse position manager abi: %w", err)
	}
	values, err := callMethod(ctx, caller, manager, managerABI, "balanceOf", owner)
	if err != nil {
		return nil, err
	}
	count, err := asBigInt(values[0])
	if err != nil {
		return nil, fmt.Errorf("balanceOf: %w", err)
	}
	return count, nil
}

// PositionIDByIndex returns the owner's position-NFT id at an enumeration index.
func PositionIDByIndex(ctx context.Context, caller Caller, manager, owner common.Address, index *big.Int) (*big.Int, error) {
	managerABI, err := PositionManagerABI()
	if err != nil {
		return nil, fmt.Errorf("parse position manager abi: %w", err)
	}
	values, err := callMethod(ctx, caller, manager, managerABI, "tokenOfOwnerByIndex", owner, index)
	if err != nil {
		return nil, err
	}
	id, err := asBigInt(values[0])
	if err != nil {
		return nil, fmt.Errorf("tokenOfOwnerByIndex: %w", err)
	}
	return id, nil
}
