package dex

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ErrEventNotFound reports a successful receipt that lacks the event the
// caller needs to interpret the outcome. Gas was spent; the result is
// unknown, which is distinct from a revert.
var ErrEventNotFound = errors.New("expected event not found in receipt")

// MintOutcome is the decoded result of a position mint.
type MintOutcome struct {
	TokenID   *big.Int
	Liquidity *big.Int
	Amount0   *big.Int
	Amount1   *big.Int
}

// LiquidityChange is the decoded result of an increase or decrease call.
type LiquidityChange struct {
	TokenID   *big.Int
	Liquidity *big.Int
	Amount0   *big.Int
	Amount1   *big.Int
}

// CollectOutcome is the decoded result of a collect call. Zero amounts are
// a valid outcome, not an error.
type CollectOutcome struct {
	TokenID   *big.Int
	Recipient common.Address
	Amount0   *big.Int
	Amount1   *big.Int
}

// DecodeMintOutcome extracts the new position id from the ERC-721 Transfer
// emitted by the position manager (mint transfers from the zero address;
// the tokenId topic is the canonical order id) plus the IncreaseLiquidity
// payload. A receipt without the Transfer event yields ErrEventNotFound.
func DecodeMintOutcome(receipt *types.Receipt, manager common.Address) (MintOutcome, error) {
	managerABI, err := PositionManagerABI()
	if err != nil {
		return MintOutcome{}, fmt.Errorf("parse position manager abi: %w", err)
	}

	transferID := managerABI.Events["Transfer"].ID
	increaseEvent := managerABI.Events["IncreaseLiquidity"]

	outcome := MintOutcome{}
	for _, log := range receipt.Logs {
		if log == nil || log.Address != manager || len(log.Topics) == 0 {
			continue
		}
		switch log.Topics[0] {
		case transferID:
			if len(log.Topics) != 4 {
				continue
			}
			from := common.BytesToAddress(log.Topics[1].Bytes())
			if from != (common.Address{}) {
				continue
			}
			outcome.TokenID = new(big.Int).SetBytes(log.Topics[3].Bytes())
		case increaseEvent.ID:
			values, err := increaseEvent.Inputs.NonIndexed().Unpack(log.Data)
			if err != nil {
				return MintOutcome{}, fmt.Errorf("unpack IncreaseLiquidity: %w", err)
			}
			if len(values) != 3 {
				return MintOutcome{}, fmt.Errorf("unexpected IncreaseLiquidity values: %d", len(values))
			}
			if outcome.Liquidity, err = asBigInt(values[0]); err != nil {
				return MintOutcome{}, err
			}
			if outcome.Amount0, err = asBigInt(values[1]); err != nil {
				return MintOutcome{}, err
			}
			if outcome.Amount1, err = asBigInt(values[2]); err != nil {
				return MintOutcome{}, err
			}
		}
	}

	if outcome.TokenID == nil {
		return MintOutcome{}, fmt.Errorf("mint transfer in tx %s: %w", receipt.TxHash.Hex(), ErrEventNotFound)
	}
	// A Transfer-only receipt still identifies the position; the payload
	// amounts are zero, never nil.
	if outcome.Liquidity == nil {
		outcome.Liquidity = new(big.Int)
	}
	if outcome.Amount0 == nil {
		outcome.Amount0 = new(big.Int)
	}
	if outcome.Amount1 == nil {
		outcome.Amount1 = new(big.Int)
	}
	return outcome, nil
}

// DecodeDecreaseOutcome extracts the DecreaseLiquidity payload from a receipt.
func DecodeDecreaseOutcome(receipt *types.Receipt, manager common.Address) (LiquidityChange, error) {
	return decodeLiquidityChange(receipt, manager, "DecreaseLiquidity")
}

// DecodeIncreaseOutcome extracts the IncreaseLiquidity payload from a receipt.
func DecodeIncreaseOutcome(receipt *types.Receipt, manager common.Address) (LiquidityChange, error) {
	return decodeLiquidityChange(receipt, manager, "IncreaseLiquidity")
}

func decodeLiquidityChange(receipt *types.Receipt, manager common.Address, name string) (LiquidityChange, error) {
	managerABI, err := PositionManagerABI()
	if err != nil {
		return LiquidityChange{}, fmt.Errorf("parse position manager abi: %w", err)
	}
	event := managerABI.Events[name]

	for _, log := range receipt.Logs {
		if log == nil || log.Address != manager || len(log.Topics) != 2 || log.Topics[0] != event.ID {
			continue
		}
		values, err := event.Inputs.NonIndexed().Unpack(log.Data)
		if err != nil {
			return LiquidityChange{}, fmt.Errorf("unpack %s: %w", name, err)
		}
		if len(values) != 3 {
			return LiquidityChange{}, fmt.Errorf("unexpected %s values: %d", name, len(values))
		}

		change := LiquidityChange{TokenID: new(big.Int).SetBytes(log.Topics[1].Bytes())}
		if change.Liquidity, err = asBigInt(values[0]); err != nil {
			return LiquidityChange{}, err
		}
		if change.Amount0, err = asBigInt(values[1]); err != nil {
			return LiquidityChange{}, err
		}
		if change.Amount1, err = asBigInt(values[2]); err != nil {
			return LiquidityChange{}, err
		}
		return change, nil
	}

	return LiquidityChange{}, fmt.Errorf("%s in tx %s: %w", name, receipt.TxHash.Hex(), ErrEventNotFound)
}

// DecodeCollectOutcome extracts the Collect payload from a receipt.
func DecodeCollectOutcome(receipt *types.Receipt, manager common.Address) (CollectOutcome, error) {
	managerABI, err := PositionManagerABI()
	if err != nil {
		return CollectOutcome{}, fmt.Errorf("parse position manager abi: %w", err)
	}
	event := managerABI.Events["Collect"]

	for _, log := range receipt.Logs {
		if log == nil || log.Address != manager || len(log.Topics) != 2 || log.Topics[0] != event.ID {
			continue
		}
		values, err := event.Inputs.NonIndexed().Unpack(log.Data)
		if err != nil {
			return CollectOutcome{}, fmt.Errorf("unpack Collect: %w", err)
		}
		if len(values) != 3 {
			return CollectOutcome{}, fmt.Errorf("unexpected Collect values: %d", len(values))
		}

		outcome := CollectOutcome{TokenID: new(big.Int).SetBytes(log.Topics[1].Bytes())}
		if outcome.Recipient, err = asAddress(values[0]); err != nil {
			return CollectOutcome{}, err
		}
		if outcome.Amount0, err = asBigInt(values[1]); err != nil {
			return CollectOutcome{}, err
		}
		if outcome.Amount1, err = asBigInt(values[2]); err != nil {
			return CollectOutcome{}, err
		}
		return outcome, nil
	}

	return CollectOutcome{}, fmt.Errorf("Collect in tx %s: %w", receipt.TxHash.Hex(), ErrEventNotFound)
}
