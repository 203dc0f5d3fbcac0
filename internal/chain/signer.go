package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
)

const (
	receiptPollInterval = 2 * time.Second
	gasMarginPct        = 20
)

// RevertError reports a transaction that was mined but reverted, with the
// decoded revert reason when the node returns one.
type RevertError struct {
	TxHash common.Hash
	Reason string
}

func (e *RevertError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("transaction %s reverted", e.TxHash.Hex())
	}
	return fmt.Sprintf("transaction %s reverted: %s", e.TxHash.Hex(), e.Reason)
}

// Signer signs and submits transactions from a single key. Each Send is
// at-most-once: no nonce bumping, no resubmission.
type Signer struct {
	client  *Client
	key     *ecdsa.PrivateKey
	from    common.Address
	chainID *big.Int
	txWait  time.Duration
	logger  *zap.Logger
}

// NewSigner builds a Signer from a hex private key. The chain ID is read
// from the node once at construction.
func NewSigner(ctx context.Context, client *Client, privateKeyHex string, txWait time.Duration, logger *zap.Logger) (*Signer, error) {
	if client == nil {
		return nil, fmt.Errorf("chain client is nil")
	}
	key, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	chainID, err := client.GetChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("chain id: %w", err)
	}

	if txWait <= 0 {
		txWait = 3 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	publicKey, ok := key.Public().(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("unexpected public key type")
	}

	return &Signer{
		client:  client,
		key:     key,
		from:    crypto.PubkeyToAddress(*publicKey),
		chainID: chainID,
		txWait:  txWait,
		logger:  logger,
	}, nil
}

// From returns the signing address.
func (s *Signer) From() common.Address {
	return s.from
}

// ChainID returns the chain ID the signer was constructed against.
func (s *Signer) ChainID() *big.Int {
	return new(big.Int).Set(s.chainID)
}

// Send signs a contract call, broadcasts it, and waits for the receipt.
// A status-0 receipt is returned alongside a *RevertError carrying the
// best-effort decoded reason.
func (s *Signer) Send(ctx context.Context, to common.Address, calldata []byte) (*types.Receipt, error) {
	nonce, err := s.client.PendingNonceAt(ctx, s.from)
	if err != nil {
		return nil, fmt.Errorf("nonce: %w", err)
	}

	gasPrice, err := s.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("gas price: %w", err)
	}

	msg := ethereum.CallMsg{From: s.from, To: &to, Data: calldata}
	gasLimit, err := s.client.EstimateGas(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("estimate gas: %w", err)
	}
	gasLimit += gasLimit * gasMarginPct / 100

	tx := types.NewTransaction(nonce, to, big.NewInt(0), gasLimit, gasPrice, calldata)
	signedTx, err := types.SignTx(tx, types.LatestSignerForChainID(s.chainID), s.key)
	if err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}

	if err := s.client.SendTransaction(ctx, signedTx); err != nil {
		return nil, fmt.Errorf("send transaction: %w", err)
	}

	s.logger.Info("transaction sent",
		zap.String("tx", signedTx.Hash().Hex()),
		zap.String("to", to.Hex()),
		zap.Uint64("nonce", nonce),
	)

	receipt, err := s.waitMined(ctx, signedTx.Hash())
	if err != nil {
		return nil, err
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, &RevertError{
			TxHash: signedTx.Hash(),
			Reason: s.revertReason(ctx, msg, receipt.BlockNumber),
		}
	}

	return receipt, nil
}

func (s *Signer) waitMined(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	waitCtx, cancel := context.WithTimeout(ctx, s.txWait)
	defer cancel()

	timer := time.NewTimer(receiptPollInterval)
	defer timer.Stop()

	for {
		receipt, err := s.client.TransactionReceipt(waitCtx, txHash)
		if err == nil {
			return receipt, nil
		}

		select {
		case <-waitCtx.Done():
			return nil, fmt.Errorf("wait for receipt %s: %w", txHash.Hex(), waitCtx.Err())
		case <-timer.C:
			timer.Reset(receiptPollInterval)
		}
	}
}

// revertReason replays the calldata as eth_call at the failing block; the
// node error text carries the decoded Error(string) payload when present.
func (s *Signer) revertReason(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) string {
	_, err := s.client.CallContract(ctx, msg, blockNumber)
	if err == nil {
		return ""
	}
	return err.Error()
}
