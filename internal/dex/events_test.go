package dex

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var (
	testManager = common.HexToAddress("0xC36442b4a4522E871399CD717aBDD847Ab11FE88")
	testOwner   = common.HexToAddress("0x1111111111111111111111111111111111111111")
)

func mintReceipt(t *testing.T, tokenID, liquidity, amount0, amount1 *big.Int) *types.Receipt {
	t.Helper()
	managerABI, err := PositionManagerABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}

	increaseData, err := managerABI.Events["IncreaseLiquidity"].Inputs.NonIndexed().Pack(liquidity, amount0, amount1)
	if err != nil {
		t.Fatalf("pack IncreaseLiquidity: %v", err)
	}

	return &types.Receipt{
		Status: types.ReceiptStatusSuccessful,
		TxHash: common.HexToHash("0xabc1"),
		Logs: []*types.Log{
			{
				Address: testManager,
				Topics: []common.Hash{
					managerABI.Events["Transfer"].ID,
					common.Hash{},
					common.BytesToHash(testOwner.Bytes()),
					common.BigToHash(tokenID),
				},
			},
			{
				Address: testManager,
				Topics: []common.Hash{
					managerABI.Events["IncreaseLiquidity"].ID,
					common.BigToHash(tokenID),
				},
				Data: increaseData,
			},
		},
	}
}

func TestDecodeMintOutcome(t *testing.T) {
	receipt := mintReceipt(t, big.NewInt(42), big.NewInt(777), big.NewInt(1000), big.NewInt(0))

	outcome, err := DecodeMintOutcome(receipt, testManager)
	if err != nil {
		t.Fatalf("decode mint outcome: %v", err)
	}
	if outcome.TokenID.Cmp(big.NewInt(42)) != 0 {
		t.Fatalf("token id mismatch: %s", outcome.TokenID)
	}
	if outcome.Liquidity.Cmp(big.NewInt(777)) != 0 {
		t.Fatalf("liquidity mismatch: %s", outcome.Liquidity)
	}
	if outcome.Amount0.Cmp(big.NewInt(1000)) != 0 || outcome.Amount1.Sign() != 0 {
		t.Fatalf("amounts mismatch: %s / %s", outcome.Amount0, outcome.Amount1)
	}
}

func TestDecodeMintOutcomeTransferOnly(t *testing.T) {
	receipt := mintReceipt(t, big.NewInt(42), big.NewInt(777), big.NewInt(1000), big.NewInt(0))
	receipt.Logs = receipt.Logs[:1]

	outcome, err := DecodeMintOutcome(receipt, testManager)
	if err != nil {
		t.Fatalf("decode mint outcome: %v", err)
	}
	if outcome.TokenID.Cmp(big.NewInt(42)) != 0 {
		t.Fatalf("token id mismatch: %s", outcome.TokenID)
	}
	if outcome.Liquidity == nil || outcome.Liquidity.Sign() != 0 {
		t.Fatalf("expected zero liquidity, got %v", outcome.Liquidity)
	}
	if outcome.Amount0 == nil || outcome.Amount0.Sign() != 0 ||
		outcome.Amount1 == nil || outcome.Amount1.Sign() != 0 {
		t.Fatalf("expected zero amounts, got %v / %v", outcome.Amount0, outcome.Amount1)
	}
}

func TestDecodeMintOutcomeIgnoresNonMintTransfer(t *testing.T) {
	receipt := mintReceipt(t, big.NewInt(42), big.NewInt(777), big.NewInt(1000), big.NewInt(0))
	// A transfer between wallets has a non-zero from topic and must not be
	// mistaken for a mint.
	receipt.Logs[0].Topics[1] = common.BytesToHash(testOwner.Bytes())

	_, err := DecodeMintOutcome(receipt, testManager)
	if !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("expected ErrEventNotFound, got %v", err)
	}
}

func TestDecodeMintOutcomeMissingTransfer(t *testing.T) {
	receipt := mintReceipt(t, big.NewInt(42), big.NewInt(777), big.NewInt(1000), big.NewInt(0))
	receipt.Logs = receipt.Logs[1:]

	_, err := DecodeMintOutcome(receipt, testManager)
	if !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("expected ErrEventNotFound, got %v", err)
	}
}

func TestDecodeMintOutcomeIgnoresForeignContract(t *testing.T) {
	receipt := mintReceipt(t, big.NewInt(42), big.NewInt(777), big.NewInt(1000), big.NewInt(0))
	for _, log := range receipt.Logs {
		log.Address = common.HexToAddress("0x2222222222222222222222222222222222222222")
	}

	_, err := DecodeMintOutcome(receipt, testManager)
	if !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("expected ErrEventNotFound, got %v", err)
	}
}

func TestDecodeDecreaseOutcome(t *testing.T) {
	managerABI, err := PositionManagerABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}

	data, err := managerABI.Events["DecreaseLiquidity"].Inputs.NonIndexed().Pack(
		big.NewInt(500), big.NewInt(0), big.NewInt(123456),
	)
	if err != nil {
		t.Fatalf("pack DecreaseLiquidity: %v", err)
	}

	receipt := &types.Receipt{
		Status: types.ReceiptStatusSuccessful,
		TxHash: common.HexToHash("0xabc2"),
		Logs: []*types.Log{{
			Address: testManager,
			Topics: []common.Hash{
				managerABI.Events["DecreaseLiquidity"].ID,
				common.BigToHash(big.NewInt(42)),
			},
			Data: data,
		}},
	}

	change, err := DecodeDecreaseOutcome(receipt, testManager)
	if err != nil {
		t.Fatalf("decode decrease outcome: %v", err)
	}
	if change.TokenID.Cmp(big.NewInt(42)) != 0 {
		t.Fatalf("token id mismatch: %s", change.TokenID)
	}
	if change.Liquidity.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("liquidity mismatch: %s", change.Liquidity)
	}
	if change.Amount0.Sign() != 0 || change.Amount1.Cmp(big.NewInt(123456)) != 0 {
		t.Fatalf("amounts mismatch: %s / %s", change.Amount0, change.Amount1)
	}
}

func TestDecodeCollectOutcomeZeroAmounts(t *testing.T) {
	managerABI, err := PositionManagerABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}

	data, err := managerABI.Events["Collect"].Inputs.NonIndexed().Pack(
		testOwner, big.NewInt(0), big.NewInt(0),
	)
	if err != nil {
		t.Fatalf("pack Collect: %v", err)
	}

	receipt := &types.Receipt{
		Status: types.ReceiptStatusSuccessful,
		TxHash: common.HexToHash("0xabc3"),
		Logs: []*types.Log{{
			Address: testManager,
			Topics: []common.Hash{
				managerABI.Events["Collect"].ID,
				common.BigToHash(big.NewInt(42)),
			},
			Data: data,
		}},
	}

	outcome, err := DecodeCollectOutcome(receipt, testManager)
	if err != nil {
		t.Fatalf("decode collect outcome: %v", err)
	}
	if outcome.Recipient != testOwner {
		t.Fatalf("recipient mismatch: %s", outcome.Recipient.Hex())
	}
	if outcome.Amount0.Sign() != 0 || outcome.Amount1.Sign() != 0 {
		t.Fatalf("expected zero amounts, got %s / %s", outcome.Amount0, outcome.Amount1)
	}
}

func TestDecodeCollectOutcomeMissingEvent(t *testing.T) {
	receipt := &types.Receipt{
		Status: types.ReceiptStatusSuccessful,
		TxHash: common.HexToHash("0xabc4"),
	}

	_, err := DecodeCollectOutcome(receipt, testManager)
	if !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("expected ErrEventNotFound, got %v", err)
	}
}
